package export

import (
	"strconv"
	"strings"
)

// cellValue returns a float64 for numeric-looking text and the text itself otherwise,
// so spreadsheet cells holding amounts stay numeric.
func cellValue(text string) any {
	n := normalizeNumber(text)
	if n == "" || strings.IndexFunc(n, notNumeric) >= 0 {
		return text
	}
	f, err := strconv.ParseFloat(n, 64)
	if err != nil {
		return text
	}
	return f
}

func notNumeric(r rune) bool {
	return !((r >= '0' && r <= '9') || r == '.' || r == '-')
}

// normalizeNumber converts accounting-format numbers to plain ones:
// "(1,234)" becomes "-1234" and "$ 5.6" becomes "5.6".
// Text that is not a number after cleanup is returned unchanged.
func normalizeNumber(text string) string {
	original := text

	hasDigit := false
	for _, r := range text {
		if r >= '0' && r <= '9' {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		return original
	}

	text = strings.TrimSpace(text)
	isNegative := false
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		isNegative = true
		text = text[1 : len(text)-1]
	}

	for _, sym := range []string{"$", "€", "£", "¥", ","} {
		text = strings.ReplaceAll(text, sym, "")
	}
	text = strings.TrimSpace(text)

	// "—", "N/A" and dates with letters stay text.
	if strings.IndexFunc(text, notNumeric) >= 0 {
		return original
	}

	if isNegative && !strings.HasPrefix(text, "-") {
		text = "-" + text
	}
	return text
}
