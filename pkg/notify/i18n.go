package notify

import (
	"strings"

	i18n "github.com/goliatone/go-i18n"
)

// Translation keys for localized subjects.
const (
	SubjectKeyInviteSent     = "crypta.invite.sent.subject"
	SubjectKeyInviteAccepted = "crypta.invite.accepted.subject"
)

// DefaultLocale is used when neither the event nor the configuration names one.
const DefaultLocale = "en"

// Translations returns the bundled subject catalogs.
func Translations() i18n.Translations {
	return i18n.Translations{
		"en": newCatalog("en", map[string]string{
			SubjectKeyInviteSent:     SubjectInviteSent,
			SubjectKeyInviteAccepted: subjectAccepted,
		}),
		"es": newCatalog("es", map[string]string{
			SubjectKeyInviteSent:     "¡Has recibido una invitación para unirte a una Bóveda!",
			SubjectKeyInviteAccepted: "¡%s aceptó tu invitación!",
		}),
	}
}

// NewTranslator builds a translator over Translations. Blank defaultLocale
// falls back to DefaultLocale.
func NewTranslator(defaultLocale string) (i18n.Translator, error) {
	if strings.TrimSpace(defaultLocale) == "" {
		defaultLocale = DefaultLocale
	}
	return i18n.NewSimpleTranslator(
		i18n.NewStaticStore(Translations()),
		i18n.WithTranslatorDefaultLocale(defaultLocale),
	)
}

func newCatalog(locale string, entries map[string]string) *i18n.TranslationCatalog {
	catalog := &i18n.TranslationCatalog{
		Locale:   i18n.Locale{Code: locale},
		Messages: make(map[string]i18n.Message, len(entries)),
	}
	for key, template := range entries {
		msg := i18n.Message{}
		msg.SetContent(template)
		catalog.Messages[key] = msg
	}
	return catalog
}

// localize returns evt.Data with "subject" and "locale" resolved through the
// translator. The event locale wins over the default one; when neither has
// the key the original subject is kept.
func (n *Notifier) localize(evt Event) map[string]any {
	if n.translator == nil || evt.SubjectKey == "" {
		return evt.Data
	}
	data := make(map[string]any, len(evt.Data)+2)
	for k, v := range evt.Data {
		data[k] = v
	}
	for _, locale := range []string{strings.TrimSpace(evt.Locale), n.locale} {
		if locale == "" {
			continue
		}
		subject, err := n.translator.Translate(locale, evt.SubjectKey, evt.SubjectArgs...)
		if err != nil {
			continue
		}
		data["subject"] = subject
		data["locale"] = locale
		return data
	}
	return data
}
