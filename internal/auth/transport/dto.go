// Package transport defines the HTTP request and response shapes for
// authentication.
package transport

// LoginRequest is the portal login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=1,max=72"`
}

// LoginResponse carries the session token and the fresh opportunity the
// wizard continues on.
type LoginResponse struct {
	Token         string `json:"token"`
	ExpiresIn     int64  `json:"expiresIn"`
	AccountID     string `json:"accountId"`
	OpportunityID string `json:"opportunityId"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Phone         string `json:"phone"`
}
