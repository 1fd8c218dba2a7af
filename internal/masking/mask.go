// Package masking turns identity values into display-safe masked forms.
//
// Both transforms fail open: input that cannot be masked is returned as-is
// together with an error wrapping ErrUnmaskable. Callers treat that error as
// a data-quality warning, not a failure.
package masking

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const MaskChar = '*'

var ErrUnmaskable = errors.New("value cannot be masked")

// Email keeps the first character of the local part and the domain, masking
// everything else: peter.asamoah@example.com -> p************@example.com.
func Email(raw string) (string, error) {
	if raw == "" {
		return raw, fmt.Errorf("%w: empty email", ErrUnmaskable)
	}
	at := strings.IndexByte(raw, '@')
	if at < 0 {
		return raw, fmt.Errorf("%w: email %q has no domain separator", ErrUnmaskable, raw)
	}
	local, domain := raw[:at], raw[at+1:]
	if local == "" {
		return raw, fmt.Errorf("%w: email %q has an empty local part", ErrUnmaskable, raw)
	}

	first, size := utf8.DecodeRuneInString(local)
	rest := utf8.RuneCountInString(local[size:])

	var b strings.Builder
	b.Grow(len(raw))
	b.WriteRune(first)
	b.WriteString(strings.Repeat(string(MaskChar), rest))
	b.WriteByte('@')
	b.WriteString(domain)
	return b.String(), nil
}

// Phone keeps only the digits of raw and masks all but the last four.
// Separators are dropped from the output, so "+1 (555) 123-4567" becomes
// "*******4567".
func Phone(raw string) (string, error) {
	if raw == "" {
		return raw, fmt.Errorf("%w: empty phone number", ErrUnmaskable)
	}

	digits := make([]rune, 0, len(raw))
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	if len(digits) == 0 {
		return raw, fmt.Errorf("%w: no digits in phone number %q", ErrUnmaskable, raw)
	}

	if len(digits) <= 4 {
		return strings.Repeat(string(MaskChar), len(digits)), nil
	}
	keep := len(digits) - 4
	return strings.Repeat(string(MaskChar), keep) + string(digits[keep:]), nil
}
