package entity

// Actor is the authenticated user performing an operation. Identity and role
// come from the server-side session context, never from request bodies.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}
