package models

// Identity is what the auth collaborator hands to every core operation.
// The core trusts it without re-verifying.
type Identity struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Country string `json:"country"`
	Role    string `json:"role"`
}

const RoleAdmin = "admin"

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }
