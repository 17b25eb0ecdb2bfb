package report

import (
	"strings"
	"time"
)

var monthNames = map[string][12]string{
	"pt": {"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
		"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro"},
	"en": {"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"},
}

// DefaultLocale is used for unknown locales
const DefaultLocale = "pt"

// MonthName returns the display name of a month. Unknown locales fall back to
// Portuguese; months outside 1..12 yield an empty string.
func MonthName(m time.Month, locale string) string {
	if m < time.January || m > time.December {
		return ""
	}
	names, ok := monthNames[normalizeLocale(locale)]
	if !ok {
		names = monthNames[DefaultLocale]
	}
	return names[m-1]
}

// SupportedLocale reports whether month names exist for the locale
func SupportedLocale(locale string) bool {
	_, ok := monthNames[normalizeLocale(locale)]
	return ok
}

// "pt-BR" and "pt_br" both map to "pt"
func normalizeLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		locale = locale[:i]
	}
	return locale
}
