package domain

import "strings"

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "\t", "")

// NormalizePhone brings Ukrainian numbers to +380XXXXXXXXX. Input already written with
// +380 is kept as typed; numbers in any other shape are returned without separators.
func NormalizePhone(value string) string {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "+380") {
		return value
	}
	cleaned := phoneSeparators.Replace(value)
	switch {
	case cleaned == "":
		return ""
	case strings.HasPrefix(cleaned, "380") && allDigits(cleaned):
		return "+" + cleaned
	case len(cleaned) == 10 && cleaned[0] == '0' && allDigits(cleaned):
		return "+38" + cleaned
	default:
		return cleaned
	}
}

func allDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return value != ""
}
