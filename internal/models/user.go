package models

// UserDB represents a row of the "User" table
type UserDB struct {
	ID   string `json:"id" db:"id"`     // Primary key, name + creation timestamp
	Name string `json:"name" db:"name"` // Display name
}
