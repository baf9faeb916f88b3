package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/commander/core/execctx"
)

// DocumentType classifies audit documents.
type DocumentType string

const (
	TypeRequest       DocumentType = "Request"
	TypeResponse      DocumentType = "Response"
	TypeExceptionInfo DocumentType = "ExceptionInfo"
	TypeSQL           DocumentType = "SQL"
	TypeParent        DocumentType = "Parent"
)

// Document is one audit record. A Parent document owns the children of one scope.
type Document struct {
	ID           string            `json:"id,omitempty" bson:"_id,omitempty"`
	CreatedAt    time.Time         `json:"created_at" bson:"created_at"`
	HostName     string            `json:"host_name" bson:"host_name"`
	Process      string            `json:"process,omitempty" bson:"process,omitempty"`
	DocumentType DocumentType      `json:"document_type" bson:"document_type"`
	Name         string            `json:"name,omitempty" bson:"name,omitempty"`
	BodyType     string            `json:"body_type" bson:"body_type"`
	Body         string            `json:"body,omitempty" bson:"body,omitempty"`
	Context      *execctx.Snapshot `json:"context,omitempty" bson:"context,omitempty"`
	Children     []*Document       `json:"children,omitempty" bson:"children,omitempty"`
}

// NewDocument creates a child document. Non-string bodies are serialized as JSON.
func NewDocument(docType DocumentType, name string, body any) *Document {
	return &Document{
		CreatedAt:    time.Now().UTC(),
		HostName:     hostName(),
		DocumentType: docType,
		Name:         name,
		BodyType:     bodyTypeName(body),
		Body:         serializeBody(body),
	}
}

func newParent() *Document {
	return &Document{
		ID:           uuid.New().String(),
		CreatedAt:    time.Now().UTC(),
		HostName:     hostName(),
		DocumentType: TypeParent,
		BodyType:     "children",
	}
}

// clone returns a deep copy of the document tree.
func (d *Document) clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	if d.Context != nil {
		snap := *d.Context
		snap.Roles = append([]string(nil), d.Context.Roles...)
		c.Context = &snap
	}
	if d.Children != nil {
		c.Children = make([]*Document, len(d.Children))
		for i, child := range d.Children {
			c.Children[i] = child.clone()
		}
	}
	return &c
}

func bodyTypeName(body any) string {
	if body == nil {
		return "null"
	}
	return fmt.Sprintf("%T", body)
}

func serializeBody(body any) string {
	switch v := body.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Sprintf("%+v", body)
	}
	return string(data)
}
