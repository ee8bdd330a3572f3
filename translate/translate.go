// Package translate formats user-facing messages for the BasicML machine
// in the language of the host locale.
package translate

import (
	"sync"

	"github.com/jeandeaual/go-locale"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printerOnce sync.Once
	printer     *message.Printer
)

func defaultPrinter() *message.Printer {
	printerOnce.Do(func() {
		if printer != nil {
			return
		}

		locales, err := locale.GetLocales()
		if err != nil {
			logrus.WithError(err).Debug("basicml: locale")
		}

		if len(locales) == 0 {
			locales = []string{"en-US"}
		}

		printer = message.NewPrinter(message.MatchLanguage(locales...))
	})

	return printer
}

// SetLanguage overrides the host locale, ie for a command line flag or for
// reproducible test output.
func SetLanguage(tag string) (err error) {
	lang, err := language.Parse(tag)
	if err != nil {
		return
	}

	printerOnce.Do(func() {})
	printer = message.NewPrinter(lang)

	return
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return defaultPrinter().Sprintf(key, args...)
}
