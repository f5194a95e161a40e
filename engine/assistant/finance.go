package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/WessleyAI/wessley-sales/engine/conversation"
	"github.com/WessleyAI/wessley-sales/engine/domain"
	"github.com/WessleyAI/wessley-sales/engine/finance"
	"github.com/WessleyAI/wessley-sales/pkg/llm"
	"github.com/WessleyAI/wessley-sales/pkg/vehiclenlp"
)

// maxOptionPlans caps the plans listed when the customer asks for options.
const maxOptionPlans = 6

const missingValue = "MISSING"

// extraction is what the model returned. Nil fields were reported missing.
type extraction struct {
	Price       *float64
	DownPayment *float64
	Years       *int
}

func (o *Orchestrator) handleFinance(ctx context.Context, s *conversation.State, msg string) (string, error) {
	ext, err := o.extractFinancing(ctx, msg)
	if err != nil {
		if !isDependencyFault(err) {
			return "", err
		}
		o.logger.Warn("assistant: financing extraction fell back to patterns", "user_id", s.UserID, "err", err)
	}
	fm := vehiclenlp.ExtractFinancing(msg)
	mergeMention(&ext, fm)

	if ext.Price != nil && (fm.WantsOptions || fm.MaxMonthly > 0) && (ext.DownPayment == nil || ext.Years == nil) {
		plans, err := o.calc.Options(*ext.Price, fm.MaxMonthly)
		if err != nil {
			if domain.IsValidation(err) {
				return o.clarifyFinancing(err), nil
			}
			return "", err
		}
		if len(plans) > maxOptionPlans {
			plans = plans[:maxOptionPlans]
		}
		return finance.FormatOptions(plans), nil
	}

	if ext.Price == nil || ext.DownPayment == nil || ext.Years == nil {
		return replyFinanceMissing, nil
	}

	plan, err := o.calc.Compute(domain.FinancingInput{
		Price:       *ext.Price,
		DownPayment: *ext.DownPayment,
		TermYears:   *ext.Years,
	})
	if err != nil {
		if domain.IsValidation(err) {
			return o.clarifyFinancing(err), nil
		}
		return "", err
	}
	return finance.Format(plan), nil
}

// extractFinancing asks the model for price, down payment and term. Bad JSON
// is reported as domain.ErrExtractionFailure.
func (o *Orchestrator) extractFinancing(ctx context.Context, msg string) (extraction, error) {
	raw, err := o.completer.Complete(ctx, llm.Request{
		System:      extractSystemPrompt,
		Prompt:      fmt.Sprintf(extractPromptTemplate, msg),
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		return extraction{}, err
	}
	ext, err := parseExtraction(raw)
	if err != nil {
		return extraction{}, fmt.Errorf("%w: %w", domain.ErrExtractionFailure, err)
	}
	return ext, nil
}

// parseExtraction reads {"precio":..,"enganche":..,"years":..}. Values may be
// numbers, numeric strings, null or "MISSING".
func parseExtraction(raw string) (extraction, error) {
	body := strings.TrimSpace(raw)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	start, end := strings.IndexByte(body, '{'), strings.LastIndexByte(body, '}')
	if start < 0 || end < start {
		return extraction{}, errors.New("no JSON object in response")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body[start:end+1]), &fields); err != nil {
		return extraction{}, err
	}

	var ext extraction
	if v, ok, err := jsonNumber(fields["precio"]); err != nil {
		return extraction{}, fmt.Errorf("precio: %w", err)
	} else if ok {
		ext.Price = &v
	}
	if v, ok, err := jsonNumber(fields["enganche"]); err != nil {
		return extraction{}, fmt.Errorf("enganche: %w", err)
	} else if ok {
		ext.DownPayment = &v
	}
	if v, ok, err := jsonNumber(fields["years"]); err != nil {
		return extraction{}, fmt.Errorf("years: %w", err)
	} else if ok {
		years := int(v)
		if float64(years) != v {
			return extraction{}, fmt.Errorf("years: not a whole number: %v", v)
		}
		ext.Years = &years
	}
	return ext, nil
}

func jsonNumber(raw json.RawMessage) (float64, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false, err
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, missingValue) {
		return 0, false, nil
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return f, true, nil
}

// mergeMention fills fields the model left missing with values read from the
// message text.
func mergeMention(ext *extraction, fm vehiclenlp.FinancingMention) {
	if ext.Price == nil && fm.Price > 0 {
		p := fm.Price
		ext.Price = &p
	}
	if ext.DownPayment == nil {
		switch {
		case fm.HasDownPayment:
			d := fm.DownPayment
			ext.DownPayment = &d
		case fm.DownShare > 0 && ext.Price != nil:
			d := domain.Round2(*ext.Price * fm.DownShare)
			ext.DownPayment = &d
		}
	}
	if ext.Years == nil && fm.Years > 0 {
		y := fm.Years
		ext.Years = &y
	}
}

// clarifyFinancing explains a rejected financing request.
func (o *Orchestrator) clarifyFinancing(err error) string {
	var reason string
	switch {
	case errors.Is(err, domain.ErrInvalidPrice):
		reason = "El precio del auto debe ser mayor a cero."
	case errors.Is(err, domain.ErrInvalidDownPayment):
		reason = "El enganche no puede ser negativo y debe ser menor al precio del auto."
	case errors.Is(err, domain.ErrUnsupportedTerm):
		reason = "El plazo debe ser de " + joinTerms(o.calc.Terms()) + " años."
	default:
		reason = "No pude calcular el plan con esos datos."
	}
	return reason + "\n\n" + replyFinanceExample
}

// joinTerms renders [3 4 5 6] as "3, 4, 5 o 6".
func joinTerms(terms []int) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = strconv.Itoa(t)
	}
	if len(parts) < 2 {
		return strings.Join(parts, "")
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " o " + parts[len(parts)-1]
}
