// Package transport defines the HTTP shapes for the registration wizard.
package transport

// Person is the applicant block of a status response.
type Person struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	MobilePhone string `json:"mobilePhone,omitempty"`
	HomePhone   string `json:"homePhone,omitempty"`
}

// Selection is the program choice block of a status response.
type Selection struct {
	CampusName       string   `json:"campusName,omitempty"`
	IntakeName       string   `json:"intakeName,omitempty"`
	StudyProgramName string   `json:"studyProgramName,omitempty"`
	BatchName        string   `json:"batchName,omitempty"`
	BookingPrice     *float64 `json:"bookingPrice,omitempty"`
}

// Education is the school block of a status response. Mode is "auto" when a
// master school record is linked and "manual" when the applicant typed one.
type Education struct {
	Mode           string `json:"mode,omitempty"`
	SchoolName     string `json:"schoolName,omitempty"`
	DraftNPSN      string `json:"draftNpsn,omitempty"`
	GraduationYear string `json:"graduationYear,omitempty"`
}

// StatusResponse is the wizard resume payload.
type StatusResponse struct {
	OpportunityID string    `json:"opportunityId"`
	AccountID     string    `json:"accountId"`
	WebStage      int       `json:"webStage"`
	StageName     string    `json:"stageName"`
	IsSubmitted   bool      `json:"isSubmitted"`
	Person        Person    `json:"person"`
	Selection     Selection `json:"selection"`
	Education     Education `json:"education"`
}

// Option is one pickable item.
type Option struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	NPSN string `json:"npsn,omitempty"`
}

// BootstrapResponse seeds the wizard's first step.
type BootstrapResponse struct {
	Campuses []Option `json:"campuses"`
	Intakes  []Option `json:"intakes"`
}

// PricingResponse is the current booking price for a program and intake.
type PricingResponse struct {
	BatchID      string   `json:"batchId,omitempty"`
	BatchName    string   `json:"batchName,omitempty"`
	BookingPrice *float64 `json:"bookingPrice,omitempty"`
}

// SelectionRequest saves the program choice.
type SelectionRequest struct {
	CampusID       string `json:"campusId" binding:"required,max=18"`
	IntakeID       string `json:"intakeId" binding:"required,max=18"`
	StudyProgramID string `json:"studyProgramId" binding:"required,max=18"`
}

// EducationRequest saves the school step. Either MasterSchoolID (auto) or
// DraftSchool (manual) must be present.
type EducationRequest struct {
	MasterSchoolID string `json:"masterSchoolId" binding:"omitempty,max=18"`
	DraftSchool    string `json:"draftSchool" binding:"omitempty,max=255"`
	DraftNPSN      string `json:"draftNpsn" binding:"omitempty,max=20"`
	GraduationYear string `json:"graduationYear" binding:"required,len=4,numeric"`
}

// UploadRequest carries a base64 document.
type UploadRequest struct {
	Filename string `json:"filename" binding:"required,max=120"`
	Mime     string `json:"mime" binding:"required"`
	Data     string `json:"data" binding:"required"`
}

// UploadResponse reports where the document landed.
type UploadResponse struct {
	ContentDocumentID string `json:"contentDocumentId"`
	ArchiveKey        string `json:"archiveKey,omitempty"`
}
