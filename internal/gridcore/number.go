package gridcore

import "strings"

// ValidNumberDraft reports whether a partially typed numeric value is
// acceptable as keystrokes land: an optional leading minus, digits, at most
// one decimal point, and at most 8 digits of precision in total. Empty and
// bare "-" / "." / "-." drafts are in-progress, not errors.
func ValidNumberDraft(s string) bool {
	rest := s
	if strings.HasPrefix(rest, "-") {
		rest = rest[1:]
	}
	digits := 0
	dot := false
	for _, r := range rest {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			if dot {
				return false
			}
			dot = true
		default:
			return false
		}
	}
	return digits <= 8
}

// NormalizeNumber canonicalizes a valid draft for persistence. A value that
// never got past the sign or decimal point collapses to empty; a bare
// leading decimal point gains an explicit zero.
func NormalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	switch s {
	case "", "-", ".", "-.":
		return ""
	}
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	if hasDot && fracPart != "" {
		return sign + intPart + "." + fracPart
	}
	return sign + intPart
}
