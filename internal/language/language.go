// Package language knows which spoken languages the transcription backends
// accept and how to name them.
package language

import (
	"sort"

	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is one transcription language
type Language struct {
	Code       string // ISO 639-1, empty for auto-detect
	Name       string // English name
	NativeName string
}

// Auto is used when no language is configured
var Auto = Language{Code: "", Name: "Auto-detect"}

// whisper's supported languages, as ISO 639-1 codes
var codes = []string{
	"af", "ar", "az", "be", "bg", "bs", "ca", "cs", "cy", "da",
	"de", "el", "en", "es", "et", "fa", "fi", "fr", "gl", "he",
	"hi", "hr", "hu", "hy", "id", "is", "it", "ja", "kk", "kn",
	"ko", "lt", "lv", "mi", "mk", "mr", "ms", "ne", "nl", "no",
	"pl", "pt", "ro", "ru", "sk", "sl", "sr", "sv", "sw", "ta",
	"th", "tl", "tr", "uk", "ur", "vi", "zh",
}

var (
	byCode map[string]Language
	sorted []Language
)

func init() {
	english := display.English.Languages()
	byCode = make(map[string]Language, len(codes))
	for _, code := range codes {
		tag := xlang.Make(code)
		lang := Language{
			Code:       code,
			Name:       english.Name(tag),
			NativeName: display.Self.Name(tag),
		}
		if lang.Name == "" {
			lang.Name = code
		}
		byCode[code] = lang
		sorted = append(sorted, lang)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
}

// FromCode returns the language for code, or Auto when the code is empty
// or not supported.
func FromCode(code string) Language {
	if lang, ok := byCode[code]; ok {
		return lang
	}
	return Auto
}

// List returns the supported languages sorted by English name
func List() []Language {
	return append([]Language(nil), sorted...)
}

// Codes returns the supported codes in alphabetical order
func Codes() []string {
	return append([]string(nil), codes...)
}

// IsSupported reports whether code can be passed to a transcription
// backend. The empty code means auto-detect and is always supported.
func IsSupported(code string) bool {
	if code == "" {
		return true
	}
	_, ok := byCode[code]
	return ok
}

// Describe renders a language for humans, e.g. "German (Deutsch)"
func Describe(code string) string {
	lang := FromCode(code)
	if lang.Code == "" {
		return Auto.Name
	}
	if lang.NativeName == "" || lang.NativeName == lang.Name {
		return lang.Name
	}
	return lang.Name + " (" + lang.NativeName + ")"
}
