package types

// RegisterRequest represents the expected JSON body for user registration.
type RegisterRequest struct {
	Username    string  `json:"username" example:"alice"`
	Password    string  `json:"password" example:"s3cret!"`
	DisplayName *string `json:"display_name,omitempty" example:"Alice"`
}

// LoginRequest represents the expected JSON body for user login.
type LoginRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"s3cret!"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string     `json:"token" example:"eyJhbGciOiJI..."`
	User  UserPublic `json:"user"`
}

// Identity is the authenticated caller attached to a request context.
type Identity struct {
	UserID   int64
	Username string
}
