// Package transport defines the HTTP shapes for web-to-lead intake.
package transport

// WebToLeadRequest is the public interest form payload.
type WebToLeadRequest struct {
	FirstName   string `json:"firstName" binding:"required,max=80"`
	LastName    string `json:"lastName" binding:"omitempty,max=80"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone" binding:"required,min=6,max=20"`
	CampusID    string `json:"campusId" binding:"omitempty,max=18"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}

// WebToLeadResponse returns the created lead.
type WebToLeadResponse struct {
	LeadID string `json:"leadId"`
}
