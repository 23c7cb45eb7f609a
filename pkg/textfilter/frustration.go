package textfilter

import (
	"regexp"
	"strings"
)

// Phrases are matched against folded text, so they are written without
// umlauts.
var frustrationPhrases = []string{
	"frustriert", "frustrierend", "genervt", "nervt", "aergerlich", "aergert",
	"laecherlich", "unmoeglich", "unverschaemt", "verdammt", "mist",
	"ich gebe auf", "es reicht", "reicht mir", "wuetend", "sauer", "kafkaesk",
	"frustrating", "frustrated", "annoying", "ridiculous", "i give up",
}

var frustrationRegex = buildFrustrationRegex()

func buildFrustrationRegex() *regexp.Regexp {
	quoted := make([]string, len(frustrationPhrases))
	for i, p := range frustrationPhrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b|!{3,}`)
}

// ExpressesFrustration reports whether the player sounds fed up.
func ExpressesFrustration(text string) bool {
	return frustrationRegex.MatchString(Fold(text))
}
