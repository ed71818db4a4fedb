package email

import (
	"strings"
	"time"

	"github.com/goodsign/monday"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func mondayLocale(locale string) monday.Locale {
	switch locale {
	case "fr":
		return monday.LocaleFrFR
	case "de":
		return monday.LocaleDeDE
	case "nl":
		return monday.LocaleNlNL
	default:
		return monday.LocaleEnUS
	}
}

func languageTag(locale string) language.Tag {
	switch locale {
	case "fr":
		return language.French
	case "de":
		return language.German
	case "nl":
		return language.Dutch
	default:
		return language.English
	}
}

// FormatDate renders a timestamp as a long-form date in the locale's
// language, e.g. "12 mars 2026" for French.
func FormatDate(t time.Time, locale string) string {
	return monday.Format(t, "2 January 2006", mondayLocale(locale))
}

// FormatAmount renders a minor-unit amount with its currency symbol in the
// locale's conventions. Unknown currency codes fall back to the raw code.
func FormatAmount(minorUnits int64, currencyCode, locale string) string {
	p := message.NewPrinter(languageTag(locale))
	unit, err := currency.ParseISO(strings.ToUpper(currencyCode))
	if err != nil {
		return p.Sprintf("%.2f %s", float64(minorUnits)/100, strings.ToUpper(currencyCode))
	}
	return p.Sprintf("%v", currency.Symbol(unit.Amount(float64(minorUnits)/100)))
}
