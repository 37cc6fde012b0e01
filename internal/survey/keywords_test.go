package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseYesNo(t *testing.T) {
	tests := []struct {
		in    string
		value bool
		ok    bool
	}{
		{"Sí", true, true},
		{"si señor", true, true},
		{"claro!", true, true},
		{"de acuerdo", true, true},
		{"No", false, true},
		{"claro que no", false, true},
		{"no tengo", false, true},
		{"nunca", false, true},
		{"tal vez", false, false},
		{"", false, false},
		{"sino", false, false},
		{"no sé", false, false},
		{"No se, tal vez", false, false},
		{"no estoy segura", false, false},
		{"no me acuerdo", false, false},
		{"no, se lo agradezco", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, ok := parseYesNo(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.value, v)
		})
	}
}

func TestRequestsHuman(t *testing.T) {
	assert.True(t, RequestsHuman("Quiero un ASESOR"))
	assert.True(t, RequestsHuman("no entiendo nada"))
	assert.True(t, RequestsHuman("pásame con alguien real"))
	assert.False(t, RequestsHuman("uso personal"))
	assert.False(t, RequestsHuman("indefinido"))
}

func TestParsePhonePlan(t *testing.T) {
	tests := []struct {
		in       string
		postpaid bool
		ok       bool
	}{
		{"postpago", true, true},
		{"Pospago hace 2 años", true, true},
		{"prepago", false, true},
		{"no tengo postpago", false, true},
		{"sí", true, true},
		{"celular", false, false},
		{"no sé cuál", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, ok := parsePhonePlan(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.postpaid, v)
		})
	}
}

func TestParseIncome(t *testing.T) {
	n, ok := parseIncome("$ 1.500.000 pesos")
	assert.True(t, ok)
	assert.Equal(t, int64(1500000), n)

	_, ok = parseIncome("9000")
	assert.False(t, ok)

	_, ok = parseIncome("mucho")
	assert.False(t, ok)
}

func TestHandoffWireFormat(t *testing.T) {
	r := Reply{Text: "hola", Handoff: true, Reason: "strike limit"}
	assert.Equal(t, "HANDOFF_TRIGGERED:strike limit", r.Wire())
	assert.Equal(t, "hola", Reply{Text: "hola"}.Wire())

	reason, ok := ParseHandoff("  HANDOFF_TRIGGERED: cliente molesto ")
	assert.True(t, ok)
	assert.Equal(t, "cliente molesto", reason)

	_, ok = ParseHandoff("Hola, ¿en qué te ayudo?")
	assert.False(t, ok)
}

func TestStatusInSurvey(t *testing.T) {
	assert.True(t, StatusName.InSurvey())
	assert.True(t, StatusPhonePlan.InSurvey())
	assert.False(t, StatusIdle.InSurvey())
	assert.False(t, StatusPaused.InSurvey())
}
