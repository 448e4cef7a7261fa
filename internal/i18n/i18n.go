// Package i18n provides the dashboard's message catalogs and locale aware
// number formatting.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"golang.org/x/text/number"
	"gopkg.in/yaml.v3"
)

//go:embed messages/*.yaml
var messagesFS embed.FS

// DefaultLocale is used when nothing better matches.
const DefaultLocale = "en"

// Locales lists the supported locales; the first one is the fallback.
var Locales = []string{"en", "pl"}

// IsSupported reports whether locale has a catalog.
func IsSupported(locale string) bool {
	return slices.Contains(Locales, locale)
}

// currencyKey holds a fmt pattern for amounts. It stays out of the catalog.
const currencyKey = "currency.format"

// Bundle holds every catalog.
type Bundle struct {
	catalog  *catalog.Builder
	matcher  language.Matcher
	fallback string
	keys     map[string][]string
	currency map[string]string
}

// Load reads the embedded catalogs. fallback must be one of Locales.
func Load(fallback string) (*Bundle, error) {
	if fallback == "" {
		fallback = DefaultLocale
	}
	if !IsSupported(fallback) {
		return nil, fmt.Errorf("unsupported default locale %q", fallback)
	}

	b := &Bundle{
		catalog:  catalog.NewBuilder(catalog.Fallback(language.Make(fallback))),
		fallback: fallback,
		keys:     make(map[string][]string),
		currency: make(map[string]string),
	}

	tags := make([]language.Tag, 0, len(Locales))
	tags = append(tags, language.Make(fallback))
	for _, locale := range Locales {
		if locale != fallback {
			tags = append(tags, language.Make(locale))
		}
	}
	b.matcher = language.NewMatcher(tags)

	for _, locale := range Locales {
		raw, err := messagesFS.ReadFile(path.Join("messages", locale+".yaml"))
		if err != nil {
			return nil, fmt.Errorf("read %s catalog: %w", locale, err)
		}
		var messages map[string]string
		if err := yaml.Unmarshal(raw, &messages); err != nil {
			return nil, fmt.Errorf("parse %s catalog: %w", locale, err)
		}
		tag := language.Make(locale)
		b.currency[locale] = messages[currencyKey]
		for key, msg := range messages {
			if key == currencyKey {
				continue
			}
			if err := b.catalog.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("register %s/%s: %w", locale, key, err)
			}
			b.keys[locale] = append(b.keys[locale], key)
		}
		slices.Sort(b.keys[locale])
	}
	return b, nil
}

// Fallback returns the default locale.
func (b *Bundle) Fallback() string {
	return b.fallback
}

// Keys returns the sorted message keys of a locale.
func (b *Bundle) Keys(locale string) []string {
	return slices.Clone(b.keys[locale])
}

// Match picks the best supported locale for an Accept-Language header.
func (b *Bundle) Match(acceptLanguage string) string {
	if strings.TrimSpace(acceptLanguage) == "" {
		return b.fallback
	}
	tag, _ := language.MatchStrings(b.matcher, acceptLanguage)
	base, _ := tag.Base()
	if IsSupported(base.String()) {
		return base.String()
	}
	return b.fallback
}

// Localizer returns a Localizer for locale, falling back to the default
// locale when it is not supported.
func (b *Bundle) Localizer(locale string) *Localizer {
	if !IsSupported(locale) {
		locale = b.fallback
	}
	tag := language.Make(locale)
	currency := b.currency[locale]
	if currency == "" {
		currency = "%s"
	}
	return &Localizer{
		locale:   locale,
		printer:  message.NewPrinter(tag, message.Catalog(b.catalog)),
		currency: currency,
	}
}

// Localizer translates messages and formats numbers for one locale.
type Localizer struct {
	locale   string
	printer  *message.Printer
	currency string
}

// Locale returns the locale code, e.g. "pl".
func (l *Localizer) Locale() string {
	return l.locale
}

// T returns the message for key formatted with args. Unknown keys are
// returned as is.
func (l *Localizer) T(key string, args ...any) string {
	return l.printer.Sprintf(key, args...)
}

// Number formats v with exactly decimals fraction digits and locale grouping.
func (l *Localizer) Number(v float64, decimals int) string {
	return l.printer.Sprint(number.Decimal(v, number.Scale(decimals)))
}

// Money formats a currency amount with two decimals.
func (l *Localizer) Money(v float64) string {
	return fmt.Sprintf(l.currency, l.Number(v, 2))
}

// Percent formats a percentage with two decimals.
func (l *Localizer) Percent(v float64) string {
	return l.Number(v, 2) + "%"
}
