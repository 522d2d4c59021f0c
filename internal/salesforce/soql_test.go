package salesforce

import "testing"

func TestEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"o'brien", `o\'brien`},
		{`back\slash`, `back\\slash`},
		{`both\'`, `both\\\'`},
		{"", ""},
	}

	for _, tc := range tests {
		if got := Escape(tc.in); got != tc.want {
			t.Errorf("Escape(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestQuote(t *testing.T) {
	if got := Quote("a'b"); got != `'a\'b'` {
		t.Errorf("Quote = %q", got)
	}
}

func TestIsID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"006gL000002NZIT", true},
		{"006gL000002NZITQA4", true},
		{"short", false},
		{"006gL000002NZI!QA4", false},
		{"", false},
	}

	for _, tc := range tests {
		if got := IsID(tc.in); got != tc.want {
			t.Errorf("IsID(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRecordLookup(t *testing.T) {
	r := Record{
		"Id":          "001x",
		"IsConverted": true,
		"Amount":      float64(42),
		"Account": map[string]interface{}{
			"FirstName": "Ani",
			"Master_School__r": map[string]interface{}{
				"Name": "SMA 1",
			},
		},
	}

	if got := r.Str("Id"); got != "001x" {
		t.Errorf("Str(Id) = %q", got)
	}
	if got := r.Str("Account.FirstName"); got != "Ani" {
		t.Errorf("Str(Account.FirstName) = %q", got)
	}
	if got := r.Str("Account.Master_School__r.Name"); got != "SMA 1" {
		t.Errorf("nested Str = %q", got)
	}
	if got := r.Str("Account.Missing"); got != "" {
		t.Errorf("missing field should be empty, got %q", got)
	}
	if !r.Bool("IsConverted") {
		t.Error("Bool(IsConverted) should be true")
	}
	if v, ok := r.Float("Amount"); !ok || v != 42 {
		t.Errorf("Float(Amount) = %v, %v", v, ok)
	}
}
