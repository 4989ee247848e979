package validator

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/go-playground/validator/v10"
)

// MaxURLLength is the longest URL the service accepts.
const MaxURLLength = 2000

const (
	MsgURLRequired = "A URL is required."
	MsgURLInvalid  = "Please enter a valid URL (e.g., google.com or https://google.com)"
	MsgURLTooLong  = "URL is too long. Max 2000 characters."
)

// ValidationError is a client-side rejection. It never reaches the network.
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	validate     = validator.New()
	schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)
)

// Normalize prepends https:// when raw carries no scheme of its own.
func Normalize(raw string) string {
	if schemePrefix.MatchString(raw) {
		return raw
	}
	return "https://" + raw
}

// IsAcceptable reports whether raw, once normalized, is an absolute http or
// https URL with a host.
func IsAcceptable(raw string) bool {
	candidate := Normalize(raw)
	if err := validate.Var(candidate, "url"); err != nil {
		return false
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return false
	}
	return parsed.Hostname() != ""
}

// CheckInput runs the submission rules in order and returns the first one
// that fails, or nil. The length rule applies to the normalized URL, which is
// what gets submitted.
func CheckInput(raw string) *ValidationError {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return &ValidationError{Rule: "required", Message: MsgURLRequired}
	}
	if !IsAcceptable(trimmed) {
		return &ValidationError{Rule: "url", Message: MsgURLInvalid}
	}
	if Length(Normalize(trimmed)) > MaxURLLength {
		return &ValidationError{Rule: "max", Message: MsgURLTooLong}
	}
	return nil
}

// Length counts s in UTF-16 code units, so a character outside the Basic
// Multilingual Plane counts as two.
func Length(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// Struct validates a tagged struct with the shared validator instance.
func Struct(v interface{}) error {
	return validate.Struct(v)
}
