package salesforce

import (
	"fmt"
	"strings"
)

// Record is a generic sObject payload. Query results use nested Records for
// relationship fields (e.g. "Account" inside an Opportunity row).
type Record map[string]interface{}

// Str returns the string value at a dotted field path ("Account.FirstName").
// Missing fields and nulls yield "".
func (r Record) Str(path string) string {
	value := r.lookup(path)
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

// Bool returns the boolean value at a dotted field path.
func (r Record) Bool(path string) bool {
	value, _ := r.lookup(path).(bool)
	return value
}

// Float returns the numeric value at a dotted field path.
func (r Record) Float(path string) (float64, bool) {
	value, ok := r.lookup(path).(float64)
	return value, ok
}

func (r Record) lookup(path string) interface{} {
	parts := strings.Split(path, ".")
	var current interface{} = map[string]interface{}(r)
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}
	return current
}

// SaveError is one reason the CRM rejected a write.
type SaveError struct {
	StatusCode string   `json:"statusCode"`
	Message    string   `json:"message"`
	Fields     []string `json:"fields"`
}

// SaveResult is the outcome of a create call.
type SaveResult struct {
	ID      string      `json:"id"`
	Success bool        `json:"success"`
	Errors  []SaveError `json:"errors"`
}

// ConvertResult is the outcome of a native lead conversion.
type ConvertResult struct {
	Success       bool
	AccountID     string
	ContactID     string
	OpportunityID string
	Errors        []SaveError
}

// RejectedError is returned when the CRM rejected a write with explicit
// reasons (duplicate rules, validation rules, field-level security).
type RejectedError struct {
	Errors []SaveError
}

func (e *RejectedError) Error() string {
	return "crm rejected write: " + Reasons(e.Errors)
}

// Reasons flattens save errors into one human-readable string.
func Reasons(errs []SaveError) string {
	if len(errs) == 0 {
		return "unknown reason"
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.StatusCode != "" {
			parts = append(parts, e.StatusCode+": "+e.Message)
		} else {
			parts = append(parts, e.Message)
		}
	}
	return strings.Join(parts, "; ")
}
