package streets

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// streetAliases maps Georgian name stems to their common Latin and Cyrillic spellings
var streetAliases = map[string][]string{
	"რუსთაველ":   {"rustaveli", "руставели"},
	"გორგილაძ":   {"gorgiladze", "горгиладзе"},
	"ჩავჩავაძ":   {"chavchavadze", "чавчавадзе"},
	"ლერმონტოვ":  {"lermontov", "лермонтов"},
	"პუშკინ":     {"pushkin", "пушкин"},
	"აბაშიძ":     {"abashidze", "абашидзе"},
	"ბაგრატიონ":  {"bagrationi", "багратиони"},
	"გამსახურდი": {"gamsakhurdia", "гамсахурдиа"},
	"ნინოშვილ":   {"ninoshvili", "ниношвили"},
	"ჭავჭავაძ":   {"tchavtchavadze", "tchavchavadze"},
	"მელიქიშვილ": {"melikishvili", "меликишвили"},
	"ინასარიძ":   {"inasaridze", "инасаридзе"},
	"ანგის":      {"angisa", "ангиса"},
	"ბარათაშვილ": {"baratashvili", "бараташвили"},
	"კობალაძ":    {"kobaladze", "кобаладзе"},
	"ჟორდანი":    {"zhordania", "жордания"},
	"წერეთელ":    {"tsereteli", "церетели"},
	"აღმაშენებლ": {"agmashenebeli", "агмашенебели"},
	"თამარ":      {"tamar", "тамар"},
	"ხიმშიაშვილ": {"khimshiashvili", "химшиашвили"},
}

var aliasIndex = func() map[string]string {
	out := make(map[string]string)
	for stem, spellings := range streetAliases {
		for _, s := range spellings {
			out[s] = stem
		}
	}
	return out
}()

// aliasSpellings holds the aliasIndex keys, longest first
var aliasSpellings = func() []string {
	out := make([]string, 0, len(aliasIndex))
	for s := range aliasIndex {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}()

// latinDigraphs are tried before single letters
var latinDigraphs = map[string]string{
	"zh": "ჟ", "gh": "ღ", "sh": "შ", "ch": "ჩ", "ts": "ც", "dz": "ძ", "kh": "ხ",
}

var latinLetters = map[rune]string{
	'a': "ა", 'b': "ბ", 'g': "გ", 'd': "დ", 'e': "ე", 'v': "ვ", 'z': "ზ", 't': "თ",
	'i': "ი", 'k': "კ", 'l': "ლ", 'm': "მ", 'n': "ნ", 'o': "ო", 'p': "პ", 'r': "რ",
	's': "ს", 'u': "უ", 'f': "ფ", 'q': "ყ", 'j': "ჯ", 'h': "ჰ", 'c': "ც", 'x': "ხ",
	'y': "ი", 'w': "ვ",
}

var cyrillicLetters = map[rune]string{
	'а': "ა", 'б': "ბ", 'в': "ვ", 'г': "გ", 'д': "დ", 'е': "ე", 'ё': "ე", 'ж': "ჟ",
	'з': "ზ", 'и': "ი", 'й': "ი", 'к': "კ", 'л': "ლ", 'м': "მ", 'н': "ნ", 'о': "ო",
	'п': "პ", 'р': "რ", 'с': "ს", 'т': "ტ", 'у': "უ", 'ф': "ფ", 'х': "ხ", 'ц': "ც",
	'ч': "ჩ", 'ш': "შ", 'щ': "შ", 'ъ': "", 'ы': "ი", 'ь': "", 'э': "ე", 'ю': "იუ",
	'я': "ია",
}

// ToGeorgian rewrites a Latin or Cyrillic word into Georgian script. Known
// street spellings become their Georgian stem; other words are transliterated
// letter by letter. Georgian input is returned unchanged.
func ToGeorgian(word string) string {
	if !needsTransliteration(word) {
		return word
	}
	lower := strings.ToLower(word)
	if stem, ok := aliasIndex[lower]; ok {
		return stem
	}
	for _, spelling := range aliasSpellings {
		// genitive and other suffixed forms ("rustavelis")
		_, size := utf8.DecodeLastRuneInString(spelling)
		if utf8.RuneCountInString(spelling) > 4 && strings.HasPrefix(lower, spelling[:len(spelling)-size]) {
			return aliasIndex[spelling]
		}
	}

	var b strings.Builder
	runes := []rune(lower)
	for i := 0; i < len(runes); i++ {
		if i+1 < len(runes) {
			if ka, ok := latinDigraphs[string(runes[i:i+2])]; ok {
				b.WriteString(ka)
				i++
				continue
			}
		}
		if ka, ok := latinLetters[runes[i]]; ok {
			b.WriteString(ka)
			continue
		}
		if ka, ok := cyrillicLetters[runes[i]]; ok {
			b.WriteString(ka)
			continue
		}
		b.WriteRune(runes[i])
	}
	return b.String()
}

func needsTransliteration(word string) bool {
	for _, r := range word {
		if unicode.In(r, unicode.Latin, unicode.Cyrillic) {
			return true
		}
	}
	return false
}
