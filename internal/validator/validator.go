package validator

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// ApprovedURISchemes are the metadata URI prefixes a coupon may use.
var ApprovedURISchemes = []string{"ipfs://", "https://", "ar://"}

// New creates a new validator instance with custom validations registered.
// This ensures consistent validation across the application and tests.
func New() *validator.Validate {
	v := validator.New()

	// Register custom "notblank" validator - rejects whitespace-only strings
	_ = v.RegisterValidation("notblank", stringRule(func(s string) bool {
		return strings.TrimSpace(s) != ""
	}))

	// "nocontrol" rejects invalid UTF-8 and control characters other than \n, \r, \t
	_ = v.RegisterValidation("nocontrol", stringRule(HasNoControlChars))

	return v
}

// stringRule adapts a string predicate to a validator.Func.
// Non-string fields pass so other tags can handle them.
func stringRule(pred func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true
		}
		return pred(str)
	}
}

// HasNoControlChars reports whether s is valid UTF-8 without control
// characters, allowing newline, carriage return and tab.
func HasNoControlChars(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// HasApprovedScheme reports whether uri starts with an approved scheme.
func HasApprovedScheme(uri string) bool {
	for _, scheme := range ApprovedURISchemes {
		if strings.HasPrefix(uri, scheme) {
			return true
		}
	}
	return false
}

// IsPrincipal reports whether s is an acceptable principal identity:
// 1..64 characters, not blank, no control characters at all.
func IsPrincipal(s string) bool {
	if strings.TrimSpace(s) == "" || utf8.RuneCountInString(s) > 64 {
		return false
	}
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
