package messaging

import (
	"strings"
	"unicode"
)

// PhoneRegion describes the national numbering plan used to turn locally
// written numbers into E.164.
type PhoneRegion struct {
	CountryCode    string // digits only, e.g. "40"
	TrunkPrefix    string // domestic dialing prefix, e.g. "0"
	NationalLength int    // significant digits after the trunk prefix
}

// DefaultRegion is the clinic's home numbering plan (Romania).
var DefaultRegion = PhoneRegion{CountryCode: "40", TrunkPrefix: "0", NationalLength: 9}

// Normalize canonicalizes a free-form phone number into E.164. It is a
// heuristic: input is never rejected, and anything already starting with "+"
// is returned unchanged, so Normalize(Normalize(x)) == Normalize(x).
func (r PhoneRegion) Normalize(raw string) string {
	value := stripPhone(raw)
	if strings.HasPrefix(value, "+") {
		return value
	}
	cc := strings.TrimPrefix(r.CountryCode, "+")
	trunk := r.TrunkPrefix

	switch {
	case trunk != "" && strings.HasPrefix(value, trunk) && len(value) == len(trunk)+r.NationalLength:
		return "+" + cc + strings.TrimPrefix(value, trunk)
	case trunk != "" && strings.HasPrefix(value, trunk+trunk):
		return "+" + strings.TrimPrefix(value, trunk+trunk)
	case cc != "" && strings.HasPrefix(value, cc) && len(value) == len(cc)+r.NationalLength:
		return "+" + value
	default:
		return "+" + cc + value
	}
}

// NormalizeE164 normalizes value using DefaultRegion.
func NormalizeE164(value string) string {
	return DefaultRegion.Normalize(value)
}

func stripPhone(value string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		switch r {
		case '-', '(', ')':
			return -1
		}
		return r
	}, value)
}
