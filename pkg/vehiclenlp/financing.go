package vehiclenlp

import (
	"regexp"
	"strconv"
	"strings"
)

// FinancingMention holds the financing parameters found in a message. Zero
// values mean "not mentioned", except DownPayment which is qualified by
// HasDownPayment since a zero down payment is a valid request.
type FinancingMention struct {
	Price          float64
	DownPayment    float64
	HasDownPayment bool
	// DownShare is a down payment given as a fraction of the price (0.2 for 20%).
	DownShare    float64
	Years        int
	MaxMonthly   float64
	WantsOptions bool
}

var (
	downBeforeRe  = regexp.MustCompile(`(?i)(?:enganche|pago inicial|entrada)\s*(?:de\s*|es de\s*|:\s*)?` + amount)
	downAfterRe   = regexp.MustCompile(`(?i)` + amount + `\s*(?:de|como|para el)\s*(?:enganche|pago inicial|entrada)`)
	downShareRe   = regexp.MustCompile(`(?i)(?:enganche|pago inicial|entrada)\s*(?:del?\s*)?(\d{1,2}(?:\.\d+)?)\s*%`)
	noDownRe      = regexp.MustCompile(`(?i)sin\s+enganche`)
	termYearsRe   = regexp.MustCompile(`(?i)(\d{1,2})\s*(?:años|anos|año|ano)\b`)
	termMonthsRe  = regexp.MustCompile(`(?i)(\d{2})\s*meses`)
	monthlyCapRe  = regexp.MustCompile(`(?i)mensualidad(?:es)?\s*(?:de\s*)?(?:máxim[oa]\s*|maxim[oa]\s*|hasta\s*|menos de\s*|no mayor a\s*)?(?:de\s*)?` + amount)
	monthlyPostRe = regexp.MustCompile(`(?i)` + amount + `\s*(?:al mes|mensuales|por mes)`)
	optionsRe     = regexp.MustCompile(`(?i)\b(?:opciones|planes|alternativas|escenarios)\b`)
	amountRe      = regexp.MustCompile(amount)
	modelYearRe   = regexp.MustCompile(`^(?:19|20)\d{2}$`)
)

// ExtractFinancing reads price, down payment, term and monthly budget from a
// Spanish message, e.g. "auto de $300,000 con $60,000 de enganche a 5 años".
func ExtractFinancing(text string) FinancingMention {
	var fm FinancingMention
	rest := text

	take := func(re *regexp.Regexp) []string {
		m := re.FindStringSubmatchIndex(rest)
		if m == nil {
			return nil
		}
		groups := make([]string, len(m)/2)
		for i := range groups {
			groups[i] = group(rest, m, i)
		}
		rest = rest[:m[0]] + " " + rest[m[1]:]
		return groups
	}

	if g := take(downShareRe); g != nil {
		if v, err := strconv.ParseFloat(g[1], 64); err == nil && v < 100 {
			fm.DownShare = v / 100
		}
	}
	if noDownRe.MatchString(rest) {
		fm.HasDownPayment = true
	}
	for _, re := range []*regexp.Regexp{downBeforeRe, downAfterRe} {
		if g := take(re); g != nil {
			if v, ok := parseAmount(g[1], g[2]); ok {
				fm.DownPayment, fm.HasDownPayment = v, true
			} else if strings.Trim(g[1], "0.,") == "" {
				fm.DownPayment, fm.HasDownPayment = 0, true
			}
			break
		}
	}
	for _, re := range []*regexp.Regexp{monthlyCapRe, monthlyPostRe} {
		if g := take(re); g != nil {
			if v, ok := parseAmount(g[1], g[2]); ok {
				fm.MaxMonthly = v
			}
			break
		}
	}
	if g := take(termYearsRe); g != nil {
		fm.Years, _ = strconv.Atoi(g[1])
	} else if g := take(termMonthsRe); g != nil {
		if n, _ := strconv.Atoi(g[1]); n%12 == 0 {
			fm.Years = n / 12
		}
	}
	fm.WantsOptions = optionsRe.MatchString(text)

	for _, m := range amountRe.FindAllStringSubmatchIndex(rest, -1) {
		num, unit := group(rest, m, 1), group(rest, m, 2)
		raw := rest[m[0]:m[1]]
		if unit == "" && !strings.Contains(raw, "$") && modelYearRe.MatchString(num) {
			continue
		}
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(rest[m[1]:])), "km") {
			continue
		}
		if v, ok := parseAmount(num, unit); ok && v >= 1000 {
			fm.Price = v
			break
		}
	}
	return fm
}
