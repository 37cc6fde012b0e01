package survey

import (
	"strings"
	"unicode"
)

// HumanKeywords end a survey at any step and hand the user to an advisor.
var HumanKeywords = []string{
	"asesor", "humano", "persona", "alguien real", "jefe", "gerente",
	"reclamo", "queja", "ayuda", "no entiendo",
}

var (
	negativeWords = []string{"no", "nop", "nel", "nunca", "jamas", "jamás", "tampoco", "negativo"}
	positiveWords = []string{
		"si", "sí", "yes", "claro", "obvio", "tengo", "afirmativo", "dale",
		"ok", "listo", "acepto", "autorizo", "correcto", "bueno",
	}
)

func tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Matches reports whether text contains any entry of vocab. Single words
// must match a whole token; multi-word entries match as substrings.
func Matches(text string, vocab []string) bool {
	lower := strings.ToLower(text)
	words := tokens(text)
	for _, v := range vocab {
		if strings.Contains(v, " ") {
			if strings.Contains(lower, v) {
				return true
			}
			continue
		}
		for _, w := range words {
			if w == v {
				return true
			}
		}
	}
	return false
}

func RequestsHuman(text string) bool {
	return Matches(text, HumanKeywords)
}

var clitics = map[string]bool{"lo": true, "la": true, "le": true, "los": true, "las": true, "les": true}

// unsure reports hedges like "no sé" or "no estoy seguro", which carry a
// "no" without answering the question.
func unsure(text string) bool {
	words := tokens(text)
	for i := 0; i+1 < len(words); i++ {
		if words[i] != "no" {
			continue
		}
		switch words[i+1] {
		case "se":
			// "no, se lo agradezco" is a refusal
			if i+2 < len(words) && clitics[words[i+2]] {
				continue
			}
			return true
		case "sé", "sabria", "sabría", "recuerdo":
			return true
		case "me":
			if i+2 < len(words) && words[i+2] == "acuerdo" {
				return true
			}
		case "estoy":
			if i+2 < len(words) && (words[i+2] == "seguro" || words[i+2] == "segura") {
				return true
			}
		}
	}
	return false
}

// parseYesNo returns the boolean meaning of a short answer. A negation
// anywhere wins, so "claro que no" is a no. Hedges are not an answer.
func parseYesNo(text string) (value, ok bool) {
	if unsure(text) {
		return false, false
	}
	if Matches(text, negativeWords) {
		return false, true
	}
	if Matches(text, positiveWords) || Matches(text, []string{"de acuerdo"}) {
		return true, true
	}
	return false, false
}
