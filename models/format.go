package models

import (
	"fmt"
	"time"
)

const (
	dateLayout     = "Jan 02, 2006"
	dateTimeLayout = "Jan 02, 2006 15:04"
)

func FormatCurrency(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateTimeLayout)
}

// Truncate shortens text to maxLength runes followed by "...".
func Truncate(text string, maxLength int) string {
	r := []rune(text)
	if len(r) <= maxLength {
		return text
	}
	return string(r[:maxLength]) + "..."
}
