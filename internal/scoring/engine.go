package scoring

import (
	"math"
	"strings"
	"unicode"
)

const (
	weightContract = 0.35
	weightHabit    = 0.45
	weightIncome   = 0.20

	defaultContractPoints = 300
	defaultHabitPoints    = 500
	defaultIncomePoints   = 400

	MaxScore = 1000
)

type entry struct {
	key    string
	points int
}

// Ordered: substring matching takes the first hit, so longer keys that
// contain a shorter one must come first.
var contractTable = []entry{
	{"indefinido", 1000},
	{"fijo", 800},
	{"obra", 600},
	{"independiente", 500},
	{"informal", 300},
	{"desempleado", 0},
}

var habitTable = []entry{
	{"al dia", 1000},
	{"al día", 1000},
	{"excelente", 1000},
	{"mora < 30", 700},
	{"mora reciente", 700},
	{"mora > 60", 300},
	{"reportado", 0},
	{"castigado", 0},
	{"sin experiencia", 500},
	{"nunca", 500},
}

var incomeTable = []entry{
	{"mayor a 2 smlv", 1000},
	{"> 2 smlv", 1000},
	{"3 millones", 1000},
	{"2 millones", 800},
	{"1-2 smlv", 800},
	{"1-2 millones", 800},
	{"1 a 2 millones", 800},
	{"1 a 2", 800},
	{"menos del minimo", 400},
	{"menos del mínimo", 400},
	{"minimo", 800},
	{"mínimo", 800},
	{"variable", 500},
}

// Score is the weighted sum of the three category points, rounded and
// clamped to [0, MaxScore].
func Score(contract, habit, income string) int {
	if negatedReport(habit) {
		habit = "al dia"
	}
	c := lookup(contractTable, contract, defaultContractPoints)
	h := lookup(habitTable, habit, defaultHabitPoints)
	i := lookup(incomeTable, income, defaultIncomePoints)

	raw := float64(c)*weightContract + float64(h)*weightHabit + float64(i)*weightIncome
	return clamp(int(math.Round(raw)))
}

func CalculateScore(p Profile) int {
	return Score(p.Occupation, p.PaymentHabit, p.IncomeBand)
}

func lookup(table []entry, raw string, def int) int {
	key := normalize(raw)
	if key == "" {
		return def
	}
	for _, e := range table {
		if e.key == key {
			return e.points
		}
	}
	for _, e := range table {
		if strings.Contains(key, e.key) {
			return e.points
		}
	}
	return def
}

var (
	negations   = map[string]bool{"no": true, "nunca": true, "jamas": true, "jamás": true, "ni": true}
	reportWords = map[string]bool{
		"reportado": true, "reportada": true, "castigado": true, "castigada": true,
		"datacredito": true, "datacrédito": true,
	}
	// auxiliaries that may sit between the negation and the report word
	reportFiller = map[string]bool{
		"he": true, "ha": true, "han": true, "me": true, "estoy": true, "estado": true,
		"estuve": true, "sido": true, "soy": true, "fui": true, "en": true,
	}
)

// negatedReport recognizes a clean record stated through a negation, as in
// "nunca he estado reportado" or "no estoy en datacrédito".
func negatedReport(s string) bool {
	words := strings.FieldsFunc(normalize(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, w := range words {
		if !negations[w] {
			continue
		}
		for j := i + 1; j < len(words) && j <= i+4; j++ {
			if reportWords[words[j]] {
				return true
			}
			if !reportFiller[words[j]] {
				break
			}
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

// IncomeBand maps a monthly income in pesos to the descriptor the income
// table understands, relative to the legal minimum wage.
func IncomeBand(amount, minimumWage int64) string {
	switch {
	case minimumWage <= 0:
		return "variable"
	case amount > 2*minimumWage:
		return "> 2 smlv"
	case amount >= minimumWage:
		return "1-2 smlv"
	default:
		return "menos del minimo"
	}
}
