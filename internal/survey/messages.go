package survey

import (
	"fmt"
	"strings"

	"github.com/Vovarama1992/motos-credit-bridge/internal/scoring"
)

const (
	introText = "¡Con gusto! Para buscarte la opción de crédito con la cuota más bajita, " +
		"necesito hacerte unas preguntas rápidas. ⚡\n\n"

	namePrompt       = "¿Cuál es tu nombre completo?"
	cityPrompt       = "¿En qué ciudad vives? 🏙️"
	occupationPrompt = "1️⃣ ¿Qué tipo de contrato laboral tienes?\n(Ej: Indefinido, Obra labor, Independiente, Informal)"
	incomePrompt     = "2️⃣ ¿Cuáles son tus ingresos mensuales totales? (Escribe solo el número, sin puntos. Ej: 1500000)"
	creditPrompt     = "3️⃣ ¿Cómo ha sido tu comportamiento con créditos anteriores? (Ej: Al día, Reportado, Nunca he tenido)"
	utilityPrompt    = "4️⃣ ¿Tienes servicio de Gas Natural a tu nombre? (Responde Sí o No)"
	phonePlanPrompt  = "5️⃣ ¿Tienes un plan de celular Postpago? (Responde Sí o No)"

	StrikeOneText = "Disculpa, no entendí bien tu respuesta en este contexto. 🤔 " +
		"¿Podrías explicármelo de otra forma o elegir una de las opciones?"

	StrikeTwoText = "Veo que no nos estamos entendiendo y no quiero hacerte perder tiempo. 😅 " +
		"Voy a pedirle ayuda a un compañero del equipo para que revise tu caso. 🙋‍♂️ Dame un momento."

	ConsentDeclinedText = "Entendido, no guardaremos tus datos. 🔒 " +
		"Si cambias de opinión, escríbeme \"crédito\" y empezamos de nuevo."

	humanFallbackText = "Tu caso es especial. Te voy a pasar con un asesor humano para que lo revise personalmente."
)

func consentPrompt(a Answers) string {
	first := strings.Fields(a.Name)
	name := ""
	if len(first) > 0 {
		name = ", " + first[0]
	}
	return fmt.Sprintf("Gracias%s. 🙌 Antes de seguir, ¿autorizas el tratamiento de tus datos personales "+
		"para hacer tu estudio de crédito? (Responde Sí o No)", name)
}

var documentLabels = map[string]string{
	"recibo_gas":  "recibo de gas",
	"foto_cedula": "cédula",
}

func documentList(docs []string) string {
	labels := make([]string, 0, len(docs))
	for _, d := range docs {
		l, ok := documentLabels[d]
		if !ok {
			l = strings.ReplaceAll(d, "_", " ")
		}
		labels = append(labels, "**"+l+"**")
	}
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return labels[0]
	default:
		return strings.Join(labels[:len(labels)-1], ", ") + " y " + labels[len(labels)-1]
	}
}

func decisionText(d scoring.Decision) string {
	switch d.Action {
	case scoring.ActionRedirect:
		msg := fmt.Sprintf("¡Listo! Según tu perfil, tu mejor opción es con **%s**.\n\n"+
			"Dale clic aquí para la aprobación inmediata: %s", d.Entity, d.Link)
		if d.RequiresGuarantor {
			msg += "\n\nTen en cuenta que para esta opción necesitas un codeudor (aval). 🤝"
		}
		return msg
	case scoring.ActionCaptureData:
		return fmt.Sprintf("¡Te tengo buenas noticias! Podemos intentarlo por el cupo **%s**.\n\n"+
			"Por favor envíame una foto de tu %s para avanzar.", d.Entity, documentList(d.Documents))
	default:
		return humanFallbackText
	}
}
