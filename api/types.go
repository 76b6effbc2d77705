package api

// User is the account representation returned by the backend. The backend
// replaces it wholesale on profile updates; the client never patches fields.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role,omitempty"`
}

// AuthPayload is the session material returned by login, verify-otp, and the
// federated exchange: a profile plus an opaque bearer token.
type AuthPayload struct {
	User  User
	Token string
}

// RegisterPayload is the input for the register endpoint.
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

// RegisterOutcome is the register endpoint's response. The backend has two
// deployments of this endpoint: one answers with only a message and expects a
// follow-up OTP verification, the other issues a session immediately. Token
// and User are populated only in the second case.
type RegisterOutcome struct {
	Token   string
	User    *User
	Message string
}
