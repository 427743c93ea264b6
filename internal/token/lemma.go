package token

import "strings"

// Lemmatizer maps a word and its coarse part of speech to a dictionary form.
type Lemmatizer interface {
	Lemmatize(word string, pos WordNetPOS) string
}

// RuleLemmatizer applies WordNet morphy style suffix detachment for the given
// part of speech, after checking a table of irregular forms. Words it cannot
// reduce are returned unchanged.
type RuleLemmatizer struct{}

func (RuleLemmatizer) Lemmatize(word string, pos WordNetPOS) string {
	w := strings.ToLower(word)
	if base, ok := irregular[pos][w]; ok {
		return base
	}
	if len(w) < 3 || !isAlpha(w) {
		return w
	}
	switch pos {
	case Verb:
		return lemmatizeVerb(w)
	case Adjective:
		return lemmatizeAdjective(w)
	case Adverb:
		return w
	default:
		return lemmatizeNoun(w)
	}
}

func lemmatizeNoun(w string) string {
	switch {
	case strings.HasSuffix(w, "ies") && len(w) > 4:
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "sses"),
		strings.HasSuffix(w, "ches"),
		strings.HasSuffix(w, "shes"),
		strings.HasSuffix(w, "xes"),
		strings.HasSuffix(w, "zes"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "men") && len(w) > 4:
		return w[:len(w)-3] + "man"
	case strings.HasSuffix(w, "s") && !keepsFinalS(w):
		return w[:len(w)-1]
	}
	return w
}

func lemmatizeVerb(w string) string {
	switch {
	case strings.HasSuffix(w, "ies") && len(w) > 4:
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "ied") && len(w) > 4:
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "sses"),
		strings.HasSuffix(w, "ches"),
		strings.HasSuffix(w, "shes"),
		strings.HasSuffix(w, "xes"),
		strings.HasSuffix(w, "zes"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "eed") && len(w) > 4:
		return w[:len(w)-1]
	case strings.HasSuffix(w, "ed") && len(w) > 3:
		return restoreStem(w[:len(w)-2])
	case strings.HasSuffix(w, "ing") && len(w) > 4:
		return restoreStem(w[:len(w)-3])
	case strings.HasSuffix(w, "s") && !keepsFinalS(w):
		return w[:len(w)-1]
	}
	return w
}

func lemmatizeAdjective(w string) string {
	if _, ok := plainAdjectives[w]; ok {
		return w
	}
	switch {
	case strings.HasSuffix(w, "iest") && len(w) > 5:
		return w[:len(w)-4] + "y"
	case strings.HasSuffix(w, "ier") && len(w) > 4:
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "est") && len(w) > 5:
		return restoreStem(w[:len(w)-3])
	case strings.HasSuffix(w, "er") && len(w) > 4:
		return restoreStem(w[:len(w)-2])
	}
	return w
}

// restoreStem repairs a stem left behind by stripping -ed, -ing, -er or
// -est: doubled final consonants are undoubled (stopp -> stop) and a silent
// e is restored after endings that rarely close an English word (lov, danc)
// or after a short consonant-vowel-consonant stem (hop, rat).
func restoreStem(s string) string {
	n := len(s)
	if n < 2 {
		return s
	}
	last, prev := s[n-1], s[n-2]
	if last == prev && !isVowel(last) && !strings.ContainsRune("lsfz", rune(last)) {
		return s[:n-1]
	}
	if strings.ContainsRune("vcgzu", rune(last)) && !strings.HasSuffix(s, "ng") {
		return s + "e"
	}
	if n == 3 && !isVowel(s[0]) && isVowel(s[1]) && !isVowel(last) && !strings.ContainsRune("wxy", rune(last)) {
		return s + "e"
	}
	if n == 2 && isVowel(s[0]) && !isVowel(last) {
		return s + "e"
	}
	return s
}

func keepsFinalS(w string) bool {
	return strings.HasSuffix(w, "ss") ||
		strings.HasSuffix(w, "us") ||
		strings.HasSuffix(w, "is") ||
		strings.HasSuffix(w, "ous") ||
		len(w) <= 3
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

func isAlpha(w string) bool {
	for i := 0; i < len(w); i++ {
		if w[i] < 'a' || w[i] > 'z' {
			return false
		}
	}
	return true
}

// Adjectives that end in -er or -est without being comparatives.
var plainAdjectives = map[string]struct{}{
	"clever": {}, "eager": {}, "bitter": {}, "proper": {}, "tender": {},
	"sober": {}, "silver": {}, "other": {}, "inner": {}, "outer": {},
	"upper": {}, "former": {}, "latter": {}, "utter": {}, "modest": {},
	"honest": {}, "earnest": {}, "super": {}, "slender": {}, "sinister": {},
	"amber": {}, "mere": {}, "severe": {}, "sincere": {}, "western": {},
	"eastern": {}, "northern": {}, "southern": {}, "modern": {},
}

var irregular = map[WordNetPOS]map[string]string{
	Verb: {
		"am": "be", "is": "be", "are": "be", "was": "be", "were": "be", "been": "be", "being": "be",
		"has": "have", "had": "have", "having": "have",
		"does": "do", "did": "do", "done": "do",
		"went": "go", "gone": "go", "goes": "go",
		"saw": "see", "seen": "see",
		"took": "take", "taken": "take",
		"made": "make", "said": "say", "paid": "pay", "laid": "lay",
		"got": "get", "gotten": "get",
		"came": "come", "became": "become",
		"knew": "know", "known": "know",
		"thought": "think", "brought": "bring", "bought": "buy", "sought": "seek",
		"caught": "catch", "taught": "teach", "fought": "fight",
		"gave": "give", "given": "give",
		"found": "find", "told": "tell", "sold": "sell",
		"felt": "feel", "left": "leave", "kept": "keep", "slept": "sleep",
		"meant": "mean", "met": "meet", "led": "lead", "fed": "feed",
		"began": "begin", "begun": "begin",
		"ran": "run", "running": "run",
		"wrote": "write", "written": "write",
		"ate": "eat", "eaten": "eat",
		"fell": "fall", "fallen": "fall",
		"held": "hold", "stood": "stand", "understood": "understand",
		"heard": "hear", "sat": "sit", "lay": "lie",
		"spoke": "speak", "spoken": "speak",
		"grew": "grow", "grown": "grow",
		"drew": "draw", "drawn": "draw",
		"threw": "throw", "thrown": "throw",
		"flew": "fly", "flown": "fly",
		"broke": "break", "broken": "break",
		"chose": "choose", "chosen": "choose",
		"drove": "drive", "driven": "drive",
		"wore": "wear", "worn": "wear",
		"lost": "lose", "sent": "send", "spent": "spend", "built": "build",
		"won": "win", "hid": "hide", "hidden": "hide",
		"forgot": "forget", "forgotten": "forget",
		"shot": "shoot", "struck": "strike", "stuck": "stick",
		"swam": "swim", "sang": "sing", "sung": "sing",
		"rode": "ride", "ridden": "ride", "rose": "rise", "risen": "rise",
		"woke": "wake", "woken": "wake",
		"died": "die", "lied": "lie", "tied": "tie", "dying": "die", "lying": "lie",
	},
	Noun: {
		"men": "man", "women": "woman", "children": "child",
		"feet": "foot", "teeth": "tooth", "geese": "goose",
		"mice": "mouse", "oxen": "ox", "lives": "life", "wives": "wife",
		"knives": "knife", "leaves": "leaf", "wolves": "wolf",
		"halves": "half", "selves": "self", "shelves": "shelf",
		"thieves": "thief", "loaves": "loaf", "calves": "calf",
		"criteria": "criterion", "phenomena": "phenomenon",
		"news": "news", "series": "series", "species": "species",
	},
	Adjective: {
		"better": "good", "best": "good",
		"worse": "bad", "worst": "bad",
		"further": "far", "farther": "far",
		"furthest": "far", "farthest": "far",
		"more": "much", "most": "much",
		"less": "little", "least": "little",
	},
}
