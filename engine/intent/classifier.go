// Package intent maps a user message to one of the assistant's intents using
// the completion capability.
package intent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/WessleyAI/wessley-sales/engine/domain"
	"github.com/WessleyAI/wessley-sales/pkg/llm"
)

// ErrUnrecognizedLabel is returned when the model answers outside the label set.
var ErrUnrecognizedLabel = errors.New("intent: unrecognized label")

const systemPrompt = "Eres un clasificador de intenciones. Responde con UNA palabra."

const promptTemplate = `Clasifica la siguiente consulta en UNA de estas categorías:

CATEGORÍAS:
1. GENERAL - Preguntas sobre la agencia, políticas, garantía, devoluciones, proceso de compra, servicios
2. CATALOG_SEARCH - Búsqueda de autos específicos (marca, modelo, año, precio, características)
3. FINANCE_CALCULATION - Cálculo de financiamiento, mensualidades, planes de pago

Ejemplos:
- "¿Qué garantía ofrecen?" → GENERAL
- "Quiero un Honda Civic" → CATALOG_SEARCH
- "¿Cuánto pagaría mensualmente por un auto de $250k?" → FINANCE_CALCULATION

Consulta: "%s"

Responde SOLO con UNA palabra: GENERAL, CATALOG_SEARCH o FINANCE_CALCULATION`

// Classifier labels messages through a Completer at temperature 0.
type Classifier struct {
	completer llm.Completer
	logger    *slog.Logger
}

// New returns a Classifier. A nil logger uses slog.Default().
func New(c llm.Completer, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{completer: c, logger: logger}
}

// Classify always returns a valid intent. When it returns IntentUnknown the
// error says why: ErrClassificationTimeout on deadline, ErrUnrecognizedLabel
// for answers outside the set, or the wrapped provider error.
func (c *Classifier) Classify(ctx context.Context, text string) (domain.Intent, error) {
	raw, err := c.completer.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      fmt.Sprintf(promptTemplate, text),
		Temperature: 0,
		MaxTokens:   8,
	})
	if err != nil {
		if errors.Is(err, llm.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return domain.IntentUnknown, fmt.Errorf("intent: classify: %w: %w", domain.ErrClassificationTimeout, err)
		}
		return domain.IntentUnknown, fmt.Errorf("intent: classify: %w", err)
	}

	label := Normalize(raw)
	in, ok := domain.ParseIntent(label)
	if !ok {
		c.logger.Warn("intent: unrecognized label", "label", label, "raw", truncate(raw, 60))
		return domain.IntentUnknown, fmt.Errorf("%w: %q", ErrUnrecognizedLabel, label)
	}
	c.logger.Debug("intent: classified", "intent", in, "query", truncate(text, 50))
	return in, nil
}

// Normalize trims whitespace, surrounding quotes and punctuation, and
// upper-cases a model answer.
func Normalize(s string) string {
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || (unicode.IsPunct(r) && r != '_') || r == '`' || unicode.IsSymbol(r)
	})
	return strings.ToUpper(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
