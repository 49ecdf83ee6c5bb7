package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reCodeNoise = regexp.MustCompile(`[\s\-_]+`)
	reCodeValid = regexp.MustCompile(`^[A-Z0-9]+$`)
)

// TrimAndNormalize trims and collapses every run of whitespace to one space.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	lastWasSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastWasSpace = false
	}
	return b.String()
}

// SanitizeID trims surrounding whitespace; ids are otherwise opaque.
func SanitizeID(id string) string {
	return strings.TrimSpace(id)
}

// SanitizeBookingCode accepts codes as guests type them ("ab12-cd34 ef")
// and returns the canonical uppercase form, or "" if anything else remains.
func SanitizeBookingCode(code string) string {
	p := Pipeline{
		strings.TrimSpace,
		strings.ToUpper,
		func(s string) string { return reCodeNoise.ReplaceAllString(s, "") },
	}
	out := p.Apply(code)
	if !reCodeValid.MatchString(out) {
		return ""
	}
	return out
}

func SanitizeRoomNumber(number string) string {
	return strings.ToUpper(strings.Join(strings.Fields(number), ""))
}

func SanitizeRoomType(roomType string) string {
	return strings.ToLower(TrimAndNormalize(roomType))
}

func SanitizeReference(ref string) string {
	return strings.TrimSpace(ref)
}

// SanitizeSlice applies strategy to each value, dropping empties and
// duplicates while keeping first-seen order.
func SanitizeSlice(values []string, strategy Strategy) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))

	for _, v := range values {
		s := strategy(v)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}

func SanitizeIDs(ids []string) []string {
	return SanitizeSlice(ids, SanitizeID)
}
