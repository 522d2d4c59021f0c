// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// CountryCode is the national calling code every canonical number carries.
const CountryCode = "62"

const defaultRegion = "ID"

// Digits strips every non-digit character from the input.
func Digits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Canonical converts free-form phone input into the single canonical
// E.164-style representation "+62…". The trunk prefix "0" is dropped and the
// country code is prepended when absent. The function is total: it never
// fails, returns "" for input with no digits, and is idempotent.
func Canonical(raw string) string {
	d := Digits(raw)
	if d == "" {
		return ""
	}
	if strings.HasPrefix(d, "0") {
		d = d[1:]
	}
	if !strings.HasPrefix(d, CountryCode) {
		d = CountryCode + d
	}
	return "+" + d
}

// IsValid reports whether the canonical number parses as a valid number for
// the configured region. Callers that only need comparison semantics should
// not gate on this; it exists for request validation.
func IsValid(canonical string) bool {
	num, err := phonenumbers.Parse(canonical, defaultRegion)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}

// Variants holds the comparison representations of one canonical number.
// CRM orgs store the same number in several shapes; matching must try all.
type Variants struct {
	E164       string // +628123456789
	Digits     string // 628123456789
	TrunkLocal string // 08123456789
	Local      string // 8123456789
}

// CanonicalVariants expands a canonical "+62…" number into its comparison
// variants. Input that is not canonical is canonicalized first.
func CanonicalVariants(canonical string) Variants {
	e164 := Canonical(canonical)
	if e164 == "" {
		return Variants{}
	}
	digits := strings.TrimPrefix(e164, "+")
	local := strings.TrimPrefix(digits, CountryCode)
	return Variants{
		E164:       e164,
		Digits:     digits,
		TrunkLocal: "0" + local,
		Local:      local,
	}
}

// All returns the non-empty variants in match-preference order.
func (v Variants) All() []string {
	out := make([]string, 0, 4)
	for _, s := range []string{v.E164, v.Digits, v.TrunkLocal, v.Local} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
