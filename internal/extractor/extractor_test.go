package extractor

import (
	"strings"
	"testing"
)

func TestExtractName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"John Doe", "John Doe"},
		{"María García", "María García"},
		{"my name is jane smith.", "Jane Smith"},
		{"Hi, I'm anna!", "Anna"},
		{"It's PETER parker", "Peter Parker"},
		{"this is Bob", "Bob"},
		{"", ""},
		{"   ", ""},
		{"John", ""},
		{"one two three four five", ""},
		{"R2 D2", ""},
		{"my name is", ""},
	}

	for _, tt := range tests {
		if got := ExtractName(tt.in); got != tt.want {
			t.Errorf("ExtractName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractEmailRoundTrip(t *testing.T) {
	valid := []string{
		"john@example.com",
		"user.name+tag@domain.co.uk",
		"John.Doe@Example.COM",
		"a_b%c-d@sub-domain.example.io",
	}
	for _, e := range valid {
		value, reprompt := Extract(e, FieldEmail)
		if value != strings.ToLower(e) || reprompt != "" {
			t.Errorf("Extract(%q) = (%q, %q)", e, value, reprompt)
		}
	}

	invalid := []string{"not-an-email", "@example.com", "user@", "user@.com", "user@example.c", ""}
	for _, e := range invalid {
		value, reprompt := Extract(e, FieldEmail)
		if value != "" {
			t.Errorf("Extract(%q) accepted %q", e, value)
		}
		if !strings.Contains(strings.ToLower(reprompt), "email") {
			t.Errorf("re-prompt for %q does not mention email: %q", e, reprompt)
		}
	}
}

func TestExtractEmailFromSentence(t *testing.T) {
	got := ExtractEmail("sure, it's John.Doe@Example.com thanks")
	if got != "john.doe@example.com" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractPhone(t *testing.T) {
	valid := map[string]string{
		"+491234567890":            "+491234567890",
		"+1-555-123-4567":          "+1-555-123-4567",
		"004912345678":             "004912345678",
		"01234567890":              "01234567890",
		"call me on 030 1234 5678": "030 1234 5678",
		"(030) 123-4567":           "030) 123-4567",
	}
	for in, want := range valid {
		value, reprompt := Extract(in, FieldPhone)
		if reprompt != "" {
			t.Errorf("Extract(%q) rejected: %q", in, reprompt)
			continue
		}
		if value != want {
			t.Errorf("Extract(%q) = %q, want %q", in, value, want)
		}
	}

	for _, in := range []string{"12345", "not-a-phone", "abc123", ""} {
		value, reprompt := Extract(in, FieldPhone)
		if value != "" {
			t.Errorf("Extract(%q) accepted %q", in, value)
		}
		if !strings.Contains(strings.ToLower(reprompt), "phone") {
			t.Errorf("re-prompt for %q does not mention phone: %q", in, reprompt)
		}
	}
}

func TestValidators(t *testing.T) {
	if !ValidPhone(" +49 (123) 456-7890 ") {
		t.Error("formatted phone should be valid")
	}
	if ValidPhone("+12") {
		t.Error("short phone should be invalid")
	}
	if !ValidEmail("  a@b.de ") {
		t.Error("trimmed email should be valid")
	}
}

func TestExtractNameReprompt(t *testing.T) {
	value, reprompt := Extract("42", FieldName)
	if value != "" || !strings.Contains(reprompt, "name") {
		t.Fatalf("got (%q, %q)", value, reprompt)
	}
	if _, reprompt := Extract("x", Field("address")); reprompt != RepromptUnknown {
		t.Fatalf("unknown field re-prompt = %q", reprompt)
	}
}
