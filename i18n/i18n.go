package i18n

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var (
	English   = language.AmericanEnglish
	Malayalam = language.MustParse("ml-IN")

	// Default is the locale used before the user picks one.
	Default = Malayalam

	supported = []language.Tag{English, Malayalam}
	matcher   = language.NewMatcher(supported)
	messages  = newCatalog()
)

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(English))
	for key, text := range english {
		_ = b.SetString(English, key, text)
	}
	for key, text := range malayalam {
		_ = b.SetString(Malayalam, key, text)
	}
	return b
}

// Match maps any BCP 47 tag onto a supported locale. Unparseable tags get Default.
func Match(tag string) language.Tag {
	parsed, err := language.Parse(tag)
	if err != nil {
		return Default
	}
	_, index, confidence := matcher.Match(parsed)
	if confidence == language.No {
		return Default
	}
	return supported[index]
}

// Printer returns the message printer for tag. It is the only place a locale selects text.
func Printer(tag string) *message.Printer {
	return message.NewPrinter(Match(tag), message.Catalog(messages))
}

// Text is a shorthand for Printer(tag).Sprintf(key, args...).
func Text(tag, key string, args ...interface{}) string {
	return Printer(tag).Sprintf(key, args...)
}

// Toggle switches between the two supported locales.
func Toggle(tag string) string {
	if Match(tag) == English {
		return Malayalam.String()
	}
	return English.String()
}

// FormatTimestamp renders an item's creation time: two-digit year and month,
// numeric day, hour and minute.
func FormatTimestamp(tag string, t time.Time) string {
	if Match(tag) == English {
		return t.Format("01/2/06, 03:04 PM")
	}
	return t.Format("2/01/06, 03:04 pm")
}
