package translation

import (
	"strings"

	"github.com/leonelquinteros/gotext"
)

// Configure loads the translations for lang from the locales directory
func Configure(localesPath, lang string) {
	lang = strings.ToLower(lang)
	// LANG values such as "id_ID.UTF-8" carry an encoding suffix
	if i := strings.IndexByte(lang, '.'); i >= 0 {
		lang = lang[:i]
	}
	gotext.Configure(localesPath, lang, "default")
}

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return "en"
	}

	return lang
}

func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
