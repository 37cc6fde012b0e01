package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetermineStrategyThresholds(t *testing.T) {
	p := NewPolicy(DefaultPartners())

	tests := []struct {
		name      string
		score     int
		utility   bool
		strategy  Strategy
		action    Action
		guarantor bool
	}{
		{"bank at threshold", 700, false, StrategyBank, ActionRedirect, false},
		{"bank top", 1000, true, StrategyBank, ActionRedirect, false},
		{"fintech upper", 699, false, StrategyFintech, ActionRedirect, true},
		{"fintech at threshold", 400, false, StrategyFintech, ActionRedirect, true},
		{"low score with utility", 399, true, StrategyUtility, ActionCaptureData, false},
		{"low score without utility", 399, false, StrategyHuman, ActionHandoff, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.DetermineStrategy(tt.score, tt.utility, "al dia", "al dia")
			assert.Equal(t, tt.score, d.Score)
			assert.Equal(t, tt.strategy, d.Strategy)
			assert.Equal(t, tt.action, d.Action)
			assert.Equal(t, tt.guarantor, d.RequiresGuarantor)
		})
	}
}

func TestDetermineStrategyPayloads(t *testing.T) {
	p := NewPolicy(DefaultPartners())

	bank := p.DetermineStrategy(800, false, "", "")
	assert.Equal(t, "https://digital.bancodebogota.com/", bank.Link)
	assert.Equal(t, "Banco de Bogotá", bank.Entity)

	fintech := p.DetermineStrategy(500, false, "", "")
	assert.Equal(t, "https://crediorbe.com/", fintech.Link)

	utility := p.DetermineStrategy(100, true, "", "")
	assert.Equal(t, []string{"recibo_gas", "foto_cedula"}, utility.Documents)

	human := p.DetermineStrategy(100, false, "", "")
	assert.Equal(t, "https://wa.me/573000000000", human.Contact)
	assert.Empty(t, human.Link)
}

func TestUtilityOverrideIgnoresScore(t *testing.T) {
	p := NewPolicy(DefaultPartners())

	d := p.DetermineStrategy(950, true, "estuve reportado", "sigo en mora")
	assert.Equal(t, StrategyUtility, d.Strategy)
	assert.Equal(t, ActionCaptureData, d.Action)

	d = p.DetermineStrategy(950, true, "reportado", "ya estoy a paz y salvo")
	assert.Equal(t, StrategyBank, d.Strategy)

	d = p.DetermineStrategy(950, false, "reportado", "reportado")
	assert.Equal(t, StrategyBank, d.Strategy)
}

func TestNegatedReportSkipsUtilityOverride(t *testing.T) {
	p := NewPolicy(DefaultPartners())

	d := p.DetermineStrategy(950, true, "Nunca he estado reportado", "Nunca he estado reportado")
	assert.Equal(t, StrategyBank, d.Strategy)

	d = p.DetermineStrategy(950, true, "estuve reportado", "no estoy reportado ya")
	assert.Equal(t, StrategyBank, d.Strategy)

	d, err := p.Evaluate(Profile{
		Occupation:        "Indefinido",
		IncomeBand:        IncomeBand(5000000, 1423500),
		CreditHistory:     "Nunca he estado reportado",
		PaymentHabit:      "Nunca he estado reportado",
		HasUtilityService: true,
		PhonePlan:         "Postpago",
	})
	require.NoError(t, err)
	assert.Equal(t, 1000, d.Score)
	assert.Equal(t, StrategyBank, d.Strategy)
}

func TestLowScoreRouting(t *testing.T) {
	p := NewPolicy(DefaultPartners())
	score := Score("informal", "reportado", "minimo")
	require.Less(t, score, 400)

	assert.Equal(t, StrategyHuman, p.DetermineStrategy(score, false, "reportado", "reportado").Strategy)
	assert.Equal(t, StrategyUtility, p.DetermineStrategy(score, true, "reportado", "reportado").Strategy)
}

func TestEvaluate(t *testing.T) {
	p := NewPolicy(DefaultPartners())

	d, err := p.Evaluate(Profile{
		Occupation:        "Contrato indefinido",
		IncomeBand:        "> 2 smlv",
		CreditHistory:     "Al día",
		PaymentHabit:      "Al día",
		HasUtilityService: true,
		PhonePlan:         "Postpago",
	})
	require.NoError(t, err)
	assert.Equal(t, 1000, d.Score)
	assert.Equal(t, StrategyBank, d.Strategy)

	_, err = p.Evaluate(Profile{Occupation: "fijo"})
	require.ErrorIs(t, err, ErrIncompleteProfile)
}

func TestDocumentsAreCopied(t *testing.T) {
	p := NewPolicy(DefaultPartners())
	d := p.DetermineStrategy(0, true, "", "")
	d.Documents[0] = "changed"

	again := p.DetermineStrategy(0, true, "", "")
	assert.Equal(t, "recibo_gas", again.Documents[0])
}

func TestLoadPartners(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partners.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bank_link: https://bank.example/\nadvisor_link: https://wa.me/570000\n"), 0o600))

	got, err := LoadPartners(path)
	require.NoError(t, err)
	assert.Equal(t, "https://bank.example/", got.BankLink)
	assert.Equal(t, "https://wa.me/570000", got.AdvisorLink)
	assert.Equal(t, "https://crediorbe.com/", got.FintechLink)

	missing, err := LoadPartners(filepath.Join(dir, "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPartners(), missing)

	require.NoError(t, os.WriteFile(path, []byte("bank_link: [unclosed"), 0o600))
	_, err = LoadPartners(path)
	assert.Error(t, err)
}
