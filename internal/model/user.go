package model

// User is the signed-in account that owns every document.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
