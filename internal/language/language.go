// Package language holds the supported-language set and the per-language
// text tables used across the chat pipeline: detection keywords, retrieval
// context headers, domain terms, and fallback apologies.
package language

import "strings"

const (
	English    = "english"
	Amharic    = "amharic"
	AfaanOromo = "afaan_oromo"

	// Default is substituted for missing or unsupported language codes.
	Default = English
)

// Supported reports whether the given code is a recognized language.
func Supported(code string) bool {
	switch code {
	case English, Amharic, AfaanOromo:
		return true
	}
	return false
}

// All returns the supported language codes in a fixed order.
func All() []string {
	return []string{English, Amharic, AfaanOromo}
}

// Amharic is written in the Ge'ez script, so script detection alone
// identifies it. Afaan Oromo uses Latin script, detected by common words.
var afaanOromoWords = []string{
	"akkam", "maali", "mana", "kiraa", "kiraayii", "akkaataa",
	"kireeffata", "qabeenya", "barbaadi", "galmaa'i", "bulchiinsa",
}

// Detect guesses the language of a message. It is deterministic and total:
// unknown input falls back to Default.
func Detect(message string) string {
	for _, r := range message {
		if r >= 0x1200 && r <= 0x137F { // Ethiopic block
			return Amharic
		}
	}
	lower := strings.ToLower(message)
	for _, w := range afaanOromoWords {
		if strings.Contains(lower, w) {
			return AfaanOromo
		}
	}
	return Default
}

// ContextHeader returns the retrieval-context header for the language.
func ContextHeader(code string) string {
	switch code {
	case Amharic:
		return "ተዛማጅ የስርዓት መረጃ:"
	case AfaanOromo:
		return "Odeeffannoo Sirnaa Irraa Argame:"
	default:
		return "RELEVANT SYSTEM INFORMATION:"
	}
}

// DomainTerms returns rental-domain vocabulary appended to queries before
// similarity search to bias retrieval toward platform content.
func DomainTerms(code string) []string {
	switch code {
	case Amharic:
		return []string{"ኪራይ", "ንብረት", "ባለቤት", "ተከራይ", "አስተዳደር"}
	case AfaanOromo:
		return []string{"kiraa", "mana", "abbootii manaa", "kireeffata", "bulchiinsa"}
	default:
		return []string{"rental", "property", "landlord", "tenant", "management"}
	}
}

// Apology returns the canned error response for the language. The engine
// uses it as the outermost fallback when the pipeline fails.
func Apology(code string) string {
	switch code {
	case Amharic:
		return "ይቅርታ፣ ጥያቄዎን በማስኬድ ላይ ችግር አጋጥሟል። እባክዎ እንደገና ይሞክሩ።"
	case AfaanOromo:
		return "Dhiifama, gaaffii keessan adeemsisuu irratti rakkoon uumameera. Irra deebi'aa yaalaa."
	default:
		return "Sorry, I encountered an issue while processing your question. Please try again."
	}
}

// DisplayName maps a language code to the name passed to the LLM prompt.
func DisplayName(code string) string {
	switch code {
	case Amharic:
		return "Amharic"
	case AfaanOromo:
		return "Afaan Oromo"
	default:
		return "English"
	}
}
