package assistant

// Fixed replies. The assistant speaks Spanish to customers.
const (
	replyRephrase = "Disculpa, ¿podrías reformular tu pregunta?"

	replyClarifyIntent = "Disculpa, no estoy seguro de haber entendido. Puedo ayudarte con información de la agencia " +
		"(garantía, periodo de prueba, entrega), con la búsqueda de autos en inventario o con un plan de financiamiento. " +
		"¿Qué te gustaría hacer?"

	replyApology = "Lo siento, tuve un problema procesando tu solicitud. Por favor intenta de nuevo en un momento."

	replySearchUnavailable = "Disculpa, tuve un problema al buscar en el catálogo. ¿Puedes intentarlo de nuevo en un momento?"

	replyNoResults = "No encontré autos en inventario que coincidan con tu búsqueda. " +
		"¿Quieres ajustar el presupuesto, el año o la marca?"

	replySearchFooter = "Todos incluyen garantía de 3 meses o 3,000 km y 7 días de prueba."

	replyFinanceMissing = `Para calcular tu plan de financiamiento necesito:

📋 Datos requeridos:
1. Precio del auto (ej: $250,000)
2. Monto del enganche (ej: $50,000)
3. Plazo en años (3, 4, 5 o 6 años)

Ejemplo: "Quiero financiar un auto de $300,000 con $60,000 de enganche a 5 años"

¿Me puedes proporcionar estos datos?`

	replyFinanceExample = `Ejemplo: "Auto de $250,000, enganche $50,000, 4 años"`
)

const generalSystemPrompt = `Eres un agente de atención al cliente de una agencia de autos seminuevos. Responde preguntas sobre:

INFORMACIÓN DE LA AGENCIA:
✅ Garantía: 3 meses o 3,000 km
✅ Periodo de prueba: 7 días (devuelve el auto si no te convence)
✅ Certificación: Más de 200 puntos de inspección
✅ Proceso: 100% digital y transparente
✅ Entrega: A domicilio sin costo
✅ Financiamiento: Disponible con tasas competitivas (10% anual, 3-6 años)

Sé amable, conciso y profesional. Si preguntan por autos específicos, invítalos a especificar marca o modelo.`

const extractSystemPrompt = "Extrae parámetros numéricos. Responde solo con JSON válido."

const extractPromptTemplate = `Extrae los valores para calcular financiamiento automotriz:

Consulta: "%s"

Extrae:
- precio: precio del auto en pesos (ej: 250000)
- enganche: monto del enganche en pesos (ej: 50000)
- years: años del financiamiento (debe ser entre 3 y 6)

Si falta algún dato, responde con "MISSING" para ese campo.

Formato de respuesta (JSON):
{"precio": 250000, "enganche": 50000, "years": 5}

Si falta algo:
{"precio": "MISSING", "enganche": "MISSING", "years": "MISSING"}`
