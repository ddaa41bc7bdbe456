package htmlaudit

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// detectable is the set of languages the detector chooses from. Limiting the
// set keeps model loading fast and memory bounded.
var detectable = []lingua.Language{
	lingua.Arabic,
	lingua.Chinese,
	lingua.Dutch,
	lingua.English,
	lingua.French,
	lingua.German,
	lingua.Hindi,
	lingua.Indonesian,
	lingua.Italian,
	lingua.Japanese,
	lingua.Korean,
	lingua.Polish,
	lingua.Portuguese,
	lingua.Russian,
	lingua.Spanish,
	lingua.Swedish,
	lingua.Turkish,
	lingua.Ukrainian,
	lingua.Vietnamese,
}

var detector = sync.OnceValue(func() lingua.LanguageDetector {
	return lingua.NewLanguageDetectorBuilder().
		FromLanguages(detectable...).
		WithLowAccuracyMode().
		Build()
})

// DetectLanguage returns the lowercase ISO 639-1 code of the language text is
// written in. The second value is false when no language could be determined.
func DetectLanguage(text string) (string, bool) {
	lang, ok := detector().DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
