// Package translate formats diagnostics for the user's locale.
//
// Message keys are en-US fmt formats. The locale comes from the
// environment, unless SetLocales overrides it.
package translate

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FALLBACK is used when no requested locale can be parsed.
var FALLBACK = language.AmericanEnglish

var printer atomic.Pointer[message.Printer]

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("svm: locale: %v", err)
	}

	SetLocales(locales...)
}

// Tags parses locale names in order of preference. POSIX names such as
// "de_DE.UTF-8" are accepted; names that do not parse, such as "C", are
// skipped.
func Tags(locales ...string) (tags []language.Tag) {
	for _, name := range locales {
		name, _, _ = strings.Cut(name, ".")
		name, _, _ = strings.Cut(name, "@")
		name = strings.ReplaceAll(name, "_", "-")

		tag, err := language.Parse(name)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
	}

	return
}

// NewPrinter returns a printer for the preferred locales.
func NewPrinter(locales ...string) *message.Printer {
	tags := Tags(locales...)
	if len(tags) == 0 {
		tags = []language.Tag{FALLBACK}
	}

	names := make([]string, len(tags))
	for n, tag := range tags {
		names[n] = tag.String()
	}

	return message.NewPrinter(message.MatchLanguage(names...))
}

// SetLocales replaces the printer used by From.
func SetLocales(locales ...string) {
	printer.Store(NewPrinter(locales...))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Load().Sprintf(key, args...)
}
