// Package extractor validates and pulls lead fields out of free text.
// Nothing here returns an error: malformed input is an expected outcome and is
// reported through a re-prompt the assistant can send back to the customer.
package extractor

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Field is a piece of lead information the assistant collects.
type Field string

const (
	FieldName  Field = "name"
	FieldEmail Field = "email"
	FieldPhone Field = "phone"
)

const (
	RepromptName    = "I didn't catch your name. Could you please provide it?"
	RepromptEmail   = "That doesn't look like a valid email address. Could you try again?"
	RepromptPhone   = "That doesn't seem to be a valid phone number. Please provide a valid number."
	RepromptUnknown = "Unknown field"
)

var (
	emailFull  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	emailFind  = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneFull  = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	phoneFinds = []*regexp.Regexp{
		regexp.MustCompile(`\+?\d[\d\s\-\(\)]{6,}\d`),
		regexp.MustCompile(`\+\d{1,3}\s?\d{7,14}`),
	}

	namePhrases = []string{"my name is", "i'm", "i am", "it's", "this is"}
	phoneStrip  = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

// Extract pulls field out of message.
// On success it returns the value and an empty re-prompt; on failure an empty
// value and a customer-facing message asking for the field again.
func Extract(message string, field Field) (value, reprompt string) {
	switch field {
	case FieldName:
		if name := ExtractName(message); name != "" {
			return name, ""
		}
		return "", RepromptName
	case FieldEmail:
		if email := ExtractEmail(message); email != "" {
			return email, ""
		}
		return "", RepromptEmail
	case FieldPhone:
		if phone := ExtractPhone(message); phone != "" {
			return phone, ""
		}
		return "", RepromptPhone
	}
	return "", RepromptUnknown
}

// ValidEmail reports whether the whole trimmed string is an email address.
func ValidEmail(s string) bool {
	return emailFull.MatchString(strings.TrimSpace(s))
}

// ValidPhone reports whether s is a phone number once spaces, dashes and
// parentheses are removed.
func ValidPhone(s string) bool {
	return phoneFull.MatchString(phoneStrip.Replace(strings.TrimSpace(s)))
}

// ExtractEmail finds the first email address in message, lower-cased.
func ExtractEmail(message string) string {
	m := emailFind.FindString(message)
	if m == "" || !ValidEmail(m) {
		return ""
	}
	return strings.ToLower(m)
}

// ExtractPhone finds a phone number in message and returns it as written.
func ExtractPhone(message string) string {
	for _, re := range phoneFinds {
		m := re.FindString(message)
		if m != "" && ValidPhone(m) {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

// ExtractName looks for an introduction such as "my name is" and title-cases
// what follows. Without one, a message of two to four purely alphabetic words
// is taken as the name.
func ExtractName(message string) string {
	lower := strings.ToLower(message)
	for _, phrase := range namePhrases {
		idx := strings.Index(lower, phrase)
		if idx < 0 {
			continue
		}
		rest := lower[idx+len(phrase):]
		if next := strings.Index(rest, phrase); next >= 0 {
			rest = rest[:next]
		}
		rest = strings.Trim(strings.TrimSpace(rest), ".,!?")
		return titleWords(rest)
	}

	words := strings.Fields(message)
	if len(words) < 2 || len(words) > 4 {
		return ""
	}
	for _, r := range strings.ReplaceAll(message, " ", "") {
		if !unicode.IsLetter(r) {
			return ""
		}
	}
	return titleWords(message)
}

func titleWords(s string) string {
	caser := cases.Title(language.Und)
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}
