package flowrec

import (
	"regexp"
	"strings"
	"unicode"
)

// substanceRule maps any input containing one of Any, or all of All, to Key.
type substanceRule struct {
	Any         []string
	All         []string
	Key         string
	Passthrough bool // the cleaned input itself is the key
}

func (r substanceRule) match(text string) bool {
	for _, p := range r.Any {
		if strings.Contains(text, p) {
			return true
		}
	}
	if len(r.All) == 0 {
		return false
	}
	for _, p := range r.All {
		if !strings.Contains(text, p) {
			return false
		}
	}
	return true
}

// overrideRules run against the input before qualifiers are stripped. Order matters:
// the parenthesized form of a substance can change its class.
var overrideRules = []substanceRule{
	{Any: []string{"규산", "석영"}, Key: "석영"},
	{Any: []string{"산화아연(분진)"}, Key: "산화아연(분진)"},
	{Any: []string{"활석(석면불포함)"}, Key: "활석(석면불포함)"},
	{Any: []string{"활석"}, Key: "활석"},
	{Any: []string{"석탄"}, Key: "석탄"},
	{Any: []string{"산화아연(흄)"}, Key: "산화아연(흄)"},
	{Any: []string{"알루미늄"}, Key: "알루미늄"},
	{Any: []string{"코발트"}, Key: "코발트"},
	{Any: []string{"염화비닐 및 함유물질"}, Key: "염화비닐"},
	{Any: []string{"TDI"}, Key: "MDI"},
	{Any: []string{"메틸렌디페닐디이소시아네이트"}, All: []string{"메틸렌디", "디이소시아네이트"}, Key: "MDI"},
	{Any: []string{"안티몬과그화합물"}, Key: "안티몬"},
	{Any: []string{"THF"}, Key: "테트라하이드로퓨란"},
	{Any: []string{"인디움"}, Key: "인듐"},
	{Any: []string{"바륨및그가용성화합물"}, Key: "바륨"},
	{All: []string{"크롬", "수용성"}, Passthrough: true},
}

// canonicalRules run against the normalized first segment.
var canonicalRules = []substanceRule{
	{Any: []string{"카드뮴"}, Key: "카드뮴및그화합물"},
}

var (
	qualifierRe   = regexp.MustCompile(`\([^)]*\)`)
	conjunctionRe = regexp.MustCompile(`및|그\s*화합물`)
)

// commaPlaceholder stands in for commas that belong to a compound name.
const commaPlaceholder = '\uE000'

// Extract resolves a raw substance line to its canonical key. It never fails;
// unmatched input comes back cleaned but otherwise unchanged.
func Extract(raw string) string {
	text := NormalizeText(raw)
	for _, rule := range overrideRules {
		if !rule.match(text) {
			continue
		}
		if rule.Passthrough {
			return text
		}
		return rule.Key
	}

	first := firstSegment(stripQualifiers(text))
	if first == "" {
		return text
	}
	for _, rule := range canonicalRules {
		if rule.match(first) {
			return rule.Key
		}
	}
	return first
}

func stripQualifiers(text string) string {
	text = qualifierRe.ReplaceAllString(text, "")
	text = conjunctionRe.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), "")
}

// firstSegment returns the first substance of a comma separated list, keeping
// commas such as "1,1-" or "N,N-" that are part of a single name.
func firstSegment(text string) string {
	protected := protectCommas(text)
	for _, part := range strings.Split(protected, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			return strings.ReplaceAll(part, string(commaPlaceholder), ",")
		}
	}
	return ""
}

func protectCommas(text string) string {
	runes := []rune(text)
	for i, r := range runes {
		if r != ',' || i == 0 || i == len(runes)-1 {
			continue
		}
		prev, next := runes[i-1], runes[i+1]
		if unicode.IsDigit(prev) && unicode.IsDigit(next) {
			runes[i] = commaPlaceholder
			continue
		}
		if isLocantLetter(runes, i-1) && isLocantLetter(runes, i+1) {
			runes[i] = commaPlaceholder
		}
	}
	return string(runes)
}

// isLocantLetter reports whether runes[i] is a lone ASCII letter used as a
// locant, as in the N and N of "N,N-dimethyl" or "N,N'-".
func isLocantLetter(runes []rune, i int) bool {
	if !isASCIILetter(runes[i]) {
		return false
	}
	if i > 0 && isASCIILetter(runes[i-1]) {
		return false
	}
	if i+1 < len(runes) && isASCIILetter(runes[i+1]) {
		return false
	}
	return true
}

func isASCIILetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}
