package salesforce

import "strings"

// Escape escapes a value for interpolation inside single quotes in a SOQL
// literal. Backslashes first, then quotes.
func Escape(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}

// Quote returns the value escaped and wrapped in single quotes.
func Quote(v string) string {
	return "'" + Escape(v) + "'"
}

// QuoteList builds a SOQL IN(...) list from values.
func QuoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = Quote(v)
	}
	return strings.Join(quoted, ", ")
}

// IsID reports whether the value looks like a 15/18 character Salesforce id.
// Used to reject obviously malformed ids before they reach a query.
func IsID(v string) bool {
	if len(v) != 15 && len(v) != 18 {
		return false
	}
	for _, r := range v {
		isDigit := r >= '0' && r <= '9'
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !isDigit && !isAlpha {
			return false
		}
	}
	return true
}
