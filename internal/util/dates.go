package util

import (
	"fmt"
	"strings"
	"time"
)

// layoutTokens maps date-format pattern tokens (the "dd MMMM yyyy" style the
// settings catalog uses) to Go reference-time layout fragments.
var layoutTokens = map[string]string{
	"yyyy": "2006",
	"yy":   "06",
	"MMMM": "January",
	"MMM":  "Jan",
	"MM":   "01",
	"M":    "1",
	"dd":   "02",
	"d":    "2",
	"EEEE": "Monday",
	"EEE":  "Mon",
	"HH":   "15",
	"hh":   "03",
	"h":    "3",
	"mm":   "04",
	"m":    "4",
	"ss":   "05",
	"s":    "5",
	"a":    "PM",
}

// GoLayout translates a date-format pattern into a Go time layout. Unknown
// letter tokens are an error rather than being passed through silently.
func GoLayout(pattern string) (string, error) {
	if strings.TrimSpace(pattern) == "" {
		return "", fmt.Errorf("empty date format pattern")
	}

	var layout strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); {
		r := runes[i]
		if !isPatternLetter(r) {
			layout.WriteRune(r)
			i++
			continue
		}
		j := i
		for j < len(runes) && runes[j] == r {
			j++
		}
		token := string(runes[i:j])
		fragment, ok := layoutTokens[token]
		if !ok {
			return "", fmt.Errorf("unsupported date format token %q in pattern %q", token, pattern)
		}
		layout.WriteString(fragment)
		i = j
	}
	return layout.String(), nil
}

// FormatDate renders a date in the given pattern.
func FormatDate(t time.Time, pattern string) (string, error) {
	layout, err := GoLayout(pattern)
	if err != nil {
		return "", err
	}
	return t.Format(layout), nil
}

func isPatternLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
