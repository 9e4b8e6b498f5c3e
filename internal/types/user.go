package types

import "time"

// User is the stored account. PasswordHash never leaves the server.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DisplayName  *string   `json:"display_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserPublic is the only user shape returned to clients.
type UserPublic struct {
	ID          int64     `json:"id" example:"1"`
	Username    string    `json:"username" example:"alice"`
	DisplayName *string   `json:"display_name,omitempty" example:"Alice"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Public strips the credential fields.
func (u *User) Public() UserPublic {
	return UserPublic{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// OwnerView is embedded in skill responses.
type OwnerView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// UpdateUserRequest is the body of PUT /api/users/{id}. Nil fields are left unchanged.
type UpdateUserRequest struct {
	Username    *string `json:"username,omitempty" example:"alice2"`
	DisplayName *string `json:"display_name,omitempty" example:"Alice B."`
	Password    *string `json:"password,omitempty"`
}

// UpdateUserParams is what the repository writes. PasswordHash is already hashed.
type UpdateUserParams struct {
	Username     *string
	DisplayName  *string
	PasswordHash *string
}

// Empty reports whether no column would change.
func (p UpdateUserParams) Empty() bool {
	return p.Username == nil && p.DisplayName == nil && p.PasswordHash == nil
}
