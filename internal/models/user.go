package models

// User is an actor who can be assigned to issues and author comments.
type User struct {
	ID   string
	Name string
}
