package models

// ActorKind identifies who performed a mutation.
type ActorKind string

const (
	// ActorAdmin is an authenticated administrator session.
	ActorAdmin ActorKind = "admin"
	// ActorToken is a visitor admitted through an edit token.
	ActorToken ActorKind = "token"
	// ActorAnonymous is a visitor presenting no credentials.
	ActorAnonymous ActorKind = "anonymous"
)

// Actor attributes a request to whoever is behind it. It is built once per
// request during admission and handed unchanged to every downstream stage.
type Actor struct {
	Kind  ActorKind `json:"kind"`
	Label string    `json:"label,omitempty"`
}

// IsAdmin reports whether the actor is an administrator session.
func (a Actor) IsAdmin() bool {
	return a.Kind == ActorAdmin
}
