package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// Hint returns the ISO 639-1 code of the language a comment is most likely
// written in, or "" when the text is too short or ambiguous to call. The
// hint is passed to the classifier as context; an empty hint is fine.
func Hint(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < 6 {
		return ""
	}

	language, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return ""
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		// Scraped audiences skew heavily to these languages; a narrow set
		// keeps model loading cheap and detection confident.
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.Spanish,
				lingua.English,
				lingua.Portuguese,
				lingua.French,
				lingua.Italian,
			).
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}
