// Package texts names the localized text keys stored in the texts table and
// provides the static timezone labels.
package texts

import "fmt"

// Keys of localized bot texts. The values live in the texts table, one row
// per language.
const (
	KeyStart        = "start_reg"
	KeyDefault      = "default"
	KeyRegistered   = "registered"
	KeyRegister     = "register"
	KeyPrivate      = "private"
	KeyOpenPrivate  = "open_private"
	KeyAdmin        = "admin"
	KeyConfirmation = "confirmation"
	KeyPokestop     = "pokestop"
	KeyCategory     = "category"
	KeyTask         = "task"
	KeyKeyboard     = "keyboard"
	KeyLocation     = "location"
	KeyReported     = "reported"
	KeyConfirmed    = "confirmed"
	KeyUnknown      = "unknown"
	KeyUnknownRwd   = "unknown_reward"
	KeyNoReports    = "no_reports"
	KeyReset        = "reset"
)

// Timezones lists the GMT bucket labels used for the midnight reset,
// GMT-12 through GMT+14.
func Timezones() []string {
	labels := make([]string, 0, 27)
	for tz := -12; tz <= 14; tz++ {
		labels = append(labels, Label(tz))
	}
	return labels
}

// Label renders a single GMT offset label, e.g. "GMT+1" or "GMT-3".
func Label(offset int) string {
	if offset > 0 {
		return fmt.Sprintf("GMT+%d", offset)
	}
	return fmt.Sprintf("GMT%d", offset)
}

// ValidTimezone reports whether the label is one of the known GMT buckets.
func ValidTimezone(label string) bool {
	for _, tz := range Timezones() {
		if tz == label {
			return true
		}
	}
	return false
}
