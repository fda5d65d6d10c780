package models

// Principal is the authenticated identity bound to a realtime session or
// REST request. It carries no roles: any authenticated principal may attempt
// any operation, and ownership is checked per diary.
type Principal struct {
	ID       int64
	Email    string
	Nickname string
}
