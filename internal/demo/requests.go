package demo

// Ping answers with a greeting. Anyone may send it.
type Ping struct {
	Name string `json:"name"`
}

// AsyncPing is Ping served by an asynchronous handler.
type AsyncPing struct {
	Name string `json:"name"`
}

// Pong is the answer to Ping and AsyncPing.
type Pong struct {
	Message string `json:"message"`
}

// Alert is a notification pushed to every connected client.
type Alert struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// SendEmail delivers an email. It is usually deferred through the queue.
type SendEmail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Tag     string `json:"tag,omitempty"`
}

// LoginUser exchanges credentials for a bearer token.
type LoginUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the answer to LoginUser.
type LoginResult struct {
	Token string   `json:"token"`
	Roles []string `json:"roles"`
}

// LogoutUser revokes a bearer token.
type LogoutUser struct {
	Token string `json:"token"`
}

// SaveContact creates a contact, or updates the contact with ID. The answer
// is the contact ID.
type SaveContact struct {
	ID        string `json:"id,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// GetContact loads one contact.
type GetContact struct {
	ID string `json:"id"`
}

// DeleteContact removes a contact. Only administrators may send it.
type DeleteContact struct {
	ID string `json:"id"`
}

// Alert levels.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
)
