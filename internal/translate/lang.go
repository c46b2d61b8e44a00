package translate

import (
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var headerCodes = map[string]string{
	"en": "en",
	"fr": "fr",
	"ru": "ru",
	"zh": "zh-TW",
}

var languageNames = map[string]string{
	"en": "English",
	"fr": "French",
	"ru": "Russian",
	"zh": "Chinese",
}

// HeaderCode returns the code the header translation service expects for
// lang. Chinese headers are translated to traditional script.
func HeaderCode(lang string) string {
	if code, ok := headerCodes[lang]; ok {
		return code
	}
	return lang
}

// LanguageName returns the English name of lang used in fact prompts.
func LanguageName(lang string) string {
	if name, ok := languageNames[lang]; ok {
		return name
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return lang
}
