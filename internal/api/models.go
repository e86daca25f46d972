package api

// Auth
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success  bool   `json:"success"`
	Token    string `json:"token,omitempty"`
	Role     string `json:"role,omitempty"`
	Username string `json:"username,omitempty"`
	Message  string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type SessionUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type CurrentUserResponse struct {
	LoggedIn bool         `json:"logged_in"`
	User     *SessionUser `json:"user,omitempty"`
}

// Appointments
type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}
