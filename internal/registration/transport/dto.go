// Package transport defines the HTTP request and response shapes for
// registration.
package transport

// RegisterRequest is the registration form payload.
type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required,max=80"`
	LastName  string `json:"lastName" binding:"required,max=80"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required,min=6,max=20"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
	SchoolID  string `json:"schoolId" binding:"omitempty,max=18"`
}

// RegisterResponse reports the provisioned identity. Reconciling is true
// when the CRM's own automation has not yet confirmed and a background
// re-check is scheduled.
type RegisterResponse struct {
	AccountID     string `json:"accountId"`
	OpportunityID string `json:"opportunityId"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Reconciling   bool   `json:"reconciling,omitempty"`
}
