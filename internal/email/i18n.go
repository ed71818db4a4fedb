package email

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var supportedLocales = []string{"en", "fr", "de", "nl"}

// newBundle loads the embedded message catalogs. English is the fallback for
// any key missing from another locale.
func newBundle() (*i18n.Bundle, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, loc := range supportedLocales {
		if _, err := bundle.LoadMessageFileFS(localeFS, fmt.Sprintf("locales/%s.json", loc)); err != nil {
			return nil, fmt.Errorf("failed to load message catalog %s: %w", loc, err)
		}
	}
	return bundle, nil
}

type translator struct {
	bundle *i18n.Bundle
}

func (t *translator) localize(locale, messageID string, data map[string]any) string {
	localizer := i18n.NewLocalizer(t.bundle, locale, "en")
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}
