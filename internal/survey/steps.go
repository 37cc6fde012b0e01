package survey

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type outcome int

const (
	invalid outcome = iota
	valid
	declined
)

type step struct {
	status Status
	prompt func(Answers) string
	apply  func(a *Answers, text string) outcome
}

func fixed(s string) func(Answers) string {
	return func(Answers) string { return s }
}

// steps is the fixed question order. The last step finalizes.
var steps = []step{
	{StatusName, fixed(namePrompt), func(a *Answers, text string) outcome {
		if !nonTrivial(text) {
			return invalid
		}
		a.Name = clean(text)
		return valid
	}},
	{StatusConsent, consentPrompt, func(a *Answers, text string) outcome {
		yes, ok := parseYesNo(text)
		switch {
		case !ok:
			return invalid
		case !yes:
			return declined
		}
		a.Consent = true
		return valid
	}},
	{StatusCity, fixed(cityPrompt), func(a *Answers, text string) outcome {
		if !nonTrivial(text) {
			return invalid
		}
		a.City = clean(text)
		return valid
	}},
	{StatusOccupation, fixed(occupationPrompt), func(a *Answers, text string) outcome {
		if !nonTrivial(text) {
			return invalid
		}
		a.Occupation = clean(text)
		return valid
	}},
	{StatusIncome, fixed(incomePrompt), func(a *Answers, text string) outcome {
		amount, ok := parseIncome(text)
		if !ok {
			return invalid
		}
		a.Income = amount
		return valid
	}},
	{StatusCreditHistory, fixed(creditPrompt), func(a *Answers, text string) outcome {
		if !nonTrivial(text) {
			return invalid
		}
		a.CreditHistory = clean(text)
		a.PaymentHabit = a.CreditHistory
		return valid
	}},
	{StatusUtility, fixed(utilityPrompt), func(a *Answers, text string) outcome {
		yes, ok := parseYesNo(text)
		if !ok {
			return invalid
		}
		a.HasUtilityService = yes
		return valid
	}},
	{StatusPhonePlan, fixed(phonePlanPrompt), func(a *Answers, text string) outcome {
		postpaid, ok := parsePhonePlan(text)
		if !ok {
			return invalid
		}
		a.PhonePlan = "Prepago"
		if postpaid {
			a.PhonePlan = "Postpago"
		}
		return valid
	}},
}

var stepIndex = func() map[Status]int {
	m := make(map[Status]int, len(steps))
	for i, s := range steps {
		m[s.status] = i
	}
	return m
}()

func nonTrivial(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) > 1
}

func clean(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// parseIncome keeps only the digits: "$1.500.000" is 1500000. Fewer than
// five digits is not an income.
func parseIncome(text string) (int64, bool) {
	var b strings.Builder
	for _, r := range text {
		if unicode.IsDigit(r) && r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 5 {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parsePhonePlan(text string) (postpaid, ok bool) {
	switch {
	case unsure(text):
		return false, false
	case Matches(text, []string{"prepago"}), Matches(text, negativeWords):
		return false, true
	case Matches(text, []string{"postpago", "pospago"}):
		return true, true
	}
	return parseYesNo(text)
}
