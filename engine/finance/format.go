package finance

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/WessleyAI/wessley-sales/engine/domain"
)

// Format renders a plan summary in Spanish with MXN amounts.
func Format(p domain.FinancingPlan) string {
	var b strings.Builder
	b.WriteString("💰 Plan de financiamiento\n\n")
	fmt.Fprintf(&b, "🚗 Precio del auto: %s MXN\n", Money(p.Price, 0))
	fmt.Fprintf(&b, "💵 Enganche: %s MXN\n", Money(p.DownPayment, 0))
	fmt.Fprintf(&b, "📊 Monto financiado: %s MXN\n", Money(p.FinancedAmount, 2))
	fmt.Fprintf(&b, "📅 Plazo: %d años (%d meses)\n", p.TermYears, p.TermMonths)
	fmt.Fprintf(&b, "💳 Mensualidad: %s MXN\n", Money(p.MonthlyPayment, 2))
	fmt.Fprintf(&b, "💸 Total a pagar: %s MXN\n", Money(p.TotalPaid, 2))
	fmt.Fprintf(&b, "📈 Intereses totales: %s MXN\n\n", Money(p.TotalInterest, 2))
	fmt.Fprintf(&b, "✅ Tasa fija anual: %s%%\n", strconv.FormatFloat(p.AnnualRate*100, 'f', -1, 64))
	b.WriteString("✅ Sin comisión por apertura")
	return b.String()
}

// FormatOptions renders a short list of alternative plans.
func FormatOptions(plans []domain.FinancingPlan) string {
	if len(plans) == 0 {
		return "No encontré planes que se ajusten a esa mensualidad. ¿Quieres probar con un enganche mayor o un plazo más largo?"
	}
	var b strings.Builder
	b.WriteString("Opciones de financiamiento:\n")
	for i, p := range plans {
		fmt.Fprintf(&b, "%d. Enganche %s, %d años: %s/mes\n", i+1, Money(p.DownPayment, 0), p.TermYears, Money(p.MonthlyPayment, 2))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Money formats v as "$1,234,567.89" with the given decimals, rounding half
// away from zero.
func Money(v float64, decimals int) string {
	neg := v < 0
	pow := math.Pow(10, float64(decimals))
	v = math.Round(math.Abs(v)*pow) / pow
	s := strconv.FormatFloat(v, 'f', decimals, 64)

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	b.WriteString(frac)
	return b.String()
}
