package models

// Request/response schemas of the remote commerce API. The gateway only
// ever decodes into these tagged shapes; arbitrary payloads are rejected
// at the boundary.

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// APIError is the error body the remote API returns on failed requests,
// with optional per-field validation messages.
type APIError struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// RemoteOrder is an order as listed by the admin endpoints. The client
// never owns these; they pass straight through to the caller.
type RemoteOrder struct {
	ID     string     `json:"id"`
	Status string     `json:"status"`
	Total  float64    `json:"total"`
	Cart   []CartLine `json:"cart,omitempty"`
}
