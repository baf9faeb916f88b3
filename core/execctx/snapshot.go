package execctx

// Snapshot is the serializable form of a Context.
// It is what gets persisted next to deferred commands and audit documents.
type Snapshot struct {
	Username string   `json:"username" bson:"username"`
	Roles    []string `json:"roles,omitempty" bson:"roles,omitempty"`
	IsLocal  bool     `json:"is_local,omitempty" bson:"is_local,omitempty"`
}

// Snapshot captures the context in serializable form.
func (c Context) Snapshot() Snapshot {
	return Snapshot{
		Username: c.username,
		Roles:    c.Roles(),
		IsLocal:  c.isLocal,
	}
}

// Restore rebuilds an immutable Context from a snapshot.
func (s Snapshot) Restore() Context {
	c := New(s.Username, s.Roles...)
	c.isLocal = s.IsLocal
	return c
}
