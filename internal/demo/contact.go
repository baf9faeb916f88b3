package demo

import (
	"strings"
	"time"

	"github.com/dmitrymomot/commander/core/email"
)

// Contact is an address book entry.
type Contact struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Owner     string    `json:"owner"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntityName implements store.Entity.
func (c Contact) EntityName() string { return "Contact" }

// EntityKey implements store.Entity.
func (c Contact) EntityKey() string { return c.ID }

// Validate implements store.Validatable.
func (c Contact) Validate() []string {
	var msgs []string
	if strings.TrimSpace(c.FirstName) == "" && strings.TrimSpace(c.LastName) == "" {
		msgs = append(msgs, "The Name field is required.")
	}
	if !email.IsValidAddress(c.Email) {
		msgs = append(msgs, "The Email field is not a valid e-mail address.")
	}
	if strings.TrimSpace(c.Phone) == "" {
		msgs = append(msgs, "The Phone field is required.")
	}
	return msgs
}

// Summary lists the contact fields one per line.
func (c Contact) Summary() string {
	return strings.Join([]string{
		"ID: " + c.ID,
		"FirstName: " + c.FirstName,
		"LastName: " + c.LastName,
		"Email: " + c.Email,
		"Phone: " + c.Phone,
	}, "\n")
}
