package models

// UserRequest represents the JSON body for user creation and update
// swagger:model UserRequest
type UserRequest struct {
	// Client-supplied identifier, accepted and ignored
	// example: ignored
	ID *CoercedString `json:"id,omitempty"`

	// User name
	// required: true
	// example: alice
	Name *CoercedString `json:"name" validate:"required"`
}

// UserResponse represents a single user
// swagger:model UserResponse
type UserResponse struct {
	// User identifier
	// example: alice18102026153045
	ID string `json:"id"`

	// User name
	// example: alice
	Name string `json:"name"`
}

// DeleteUserResponse represents a successful deletion
// swagger:model DeleteUserResponse
type DeleteUserResponse struct {
	// Success message
	// example: User with id: alice18102026153045 deleted successfully!
	Message string `json:"message"`
}

// NewUserResponse converts a database row to its response shape.
func NewUserResponse(u UserDB) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name}
}
