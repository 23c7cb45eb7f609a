package textfilter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// swearWords are rejected as player input and softened in official speech.
var swearWords = []string{
	"fuck", "shit", "damn", "bitch", "bastard", "crap",
	"motherfucker", "goddamn", "asshole", "dumbass", "jackass", "bullshit",
	"dipshit", "shithead", "dickhead", "prick", "douchebag",
	"scheiße", "scheisse", "arschloch", "arsch", "wichser", "fick", "ficken",
	"vollidiot", "idiot", "trottel", "depp", "penner", "mistkerl", "blödmann",
}

// swearWordReplacements maps swear words to harmless alternatives
var swearWordReplacements = map[string]string{
	"fuck":         "fudge",
	"shit":         "shoot",
	"damn":         "dang",
	"bitch":        "jerk",
	"bastard":      "jerk",
	"crap":         "crud",
	"motherfucker": "mother-trucker",
	"goddamn":      "gosh-dang",
	"asshole":      "jerk",
	"dumbass":      "dummy",
	"jackass":      "jerk",
	"bullshit":     "baloney",
	"dipshit":      "dummy",
	"shithead":     "jerk",
	"dickhead":     "jerk",
	"prick":        "jerk",
	"douchebag":    "jerk",
	"scheiße":      "mist",
	"scheisse":     "mist",
	"arschloch":    "dummkopf",
	"arsch":        "hintern",
	"wichser":      "[zensiert]",
	"fick":         "[zensiert]",
	"ficken":       "[zensiert]",
	"vollidiot":    "dummkopf",
	"idiot":        "dummkopf",
	"trottel":      "dummkopf",
	"depp":         "dummkopf",
	"penner":       "[zensiert]",
	"mistkerl":     "schlingel",
	"blödmann":     "dummkopf",
}

// ProfanityFilter handles filtering and replacement of profanity
type ProfanityFilter struct {
	regexes map[string]*regexp.Regexp
}

// NewProfanityFilter creates a new profanity filter
func NewProfanityFilter() *ProfanityFilter {
	pf := &ProfanityFilter{
		regexes: make(map[string]*regexp.Regexp),
	}

	// Whole words only, with an optional plural or inflection suffix.
	for _, word := range swearWords {
		pattern := `(?i)\b(` + regexp.QuoteMeta(word) + `)(s|e|en|es)?\b`
		pf.regexes[word] = regexp.MustCompile(pattern)
	}

	return pf
}

// FilterText replaces profanity in the input text with harmless alternatives
func (pf *ProfanityFilter) FilterText(text string) string {
	result := text
	for _, word := range swearWords {
		regex := pf.regexes[word]
		replacement, ok := swearWordReplacements[word]
		if regex == nil || !ok {
			continue
		}
		result = regex.ReplaceAllStringFunc(result, func(match string) string {
			groups := regex.FindStringSubmatch(match)
			out := preserveCase(groups[1], replacement)
			if strings.EqualFold(groups[2], "s") {
				out += groups[2]
			}
			return out
		})
	}
	return result
}

// preserveCase applies the case pattern of the original word to the replacement
func preserveCase(original, replacement string) string {
	if len(original) == 0 {
		return replacement
	}

	if strings.ToUpper(original) == original {
		return strings.ToUpper(replacement)
	}

	if strings.ToLower(original) == original {
		return strings.ToLower(replacement)
	}

	titleCaser := cases.Title(language.German)
	if titleCaser.String(strings.ToLower(original)) == original {
		return titleCaser.String(replacement)
	}

	// Mixed case: copy the pattern character by character
	result := make([]rune, 0, len(replacement))
	originalRunes := []rune(original)
	for _, r := range replacement {
		idx := len(result)
		if idx < len(originalRunes) && unicode.IsUpper(originalRunes[idx]) {
			result = append(result, unicode.ToUpper(r))
		} else {
			result = append(result, unicode.ToLower(r))
		}
	}

	return string(result)
}

// ContainsProfanity checks if the text contains any profanity
func (pf *ProfanityFilter) ContainsProfanity(text string) bool {
	for _, word := range swearWords {
		if regex, exists := pf.regexes[word]; exists && regex.MatchString(text) {
			return true
		}
	}
	return false
}

// ShouldFilterContent determines if content should be filtered based on rating
func ShouldFilterContent(rating string) bool {
	rating = strings.ToUpper(strings.TrimSpace(rating))
	switch rating {
	case "G", "PG", "PG13", "PG-13":
		return true
	default:
		return false
	}
}
