package vehiclenlp

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/WessleyAI/wessley-sales/engine/domain"
)

var (
	amount = `\$?\s*(\d+(?:[.,]\d+)*)\s*(millones|millón|millon|mdp|mil|k)?`

	mileageCeilRe = regexp.MustCompile(`(?i)\b(?:menos de|máximo|maximo|hasta|no más de|no mas de|debajo de|max\.?)\s*` + amount + `\s*(?:km|kms|kilómetros|kilometros)\b`)
	priceCeilRe   = regexp.MustCompile(`(?i)\b(?:menos de|máximo|maximo|hasta|no más de|no mas de|presupuesto(?: es)?(?: de)?|por debajo de|debajo de|tope de|que no pase de|max\.?)\s*` + amount)
	yearFloorRe   = regexp.MustCompile(`(?i)(?:desde(?: el)?|a partir del?|posterior(?:es)? a|después de|despues de|mínimo|minimo|modelo)\s*(?:año\s*)?((?:19|20)\d{2})`)
	yearOnwardRe  = regexp.MustCompile(`(?i)((?:19|20)\d{2})\s*(?:o|en)\s*(?:más nuevo|mas nuevo|adelante|posterior|superior|más reciente|mas reciente)`)
	wordRe        = regexp.MustCompile(`[\p{L}-]+`)

	followUpRe = regexp.MustCompile(`(?i)(?:\b(?:otr[oa]s?|un[oa]|algo)\s+(?:más|mas)\b|\b(?:más|mas)\s+(?:barat|económic|economic|nuev|recient)|\bmenos\s+(?:caro|kilometraje|km)\b|^\s*[¿]?\s*y\s)`)
	cheaperRe  = regexp.MustCompile(`(?i)\b(?:más|mas)\s+(?:barat|económic|economic)|\bmenos\s+caro|\bmenor\s+precio`)
)

// IsFollowUp reports whether text refines an earlier search rather than
// starting a new one: it carries a refinement cue ("uno más barato",
// "y en SUV") or no constraint of its own.
func IsFollowUp(text string) bool {
	return followUpRe.MatchString(text) || ParsePreferences(text).Filters.IsZero()
}

// WantsCheaper reports whether text asks for cheaper options than the ones
// already shown.
func WantsCheaper(text string) bool {
	return cheaperRe.MatchString(text)
}

// ParsePreferences derives a search request from a free-text message. The
// full message is kept as the semantic query; recognised constraints become
// filters.
func ParsePreferences(text string) domain.Preferences {
	prefs := domain.Preferences{Query: strings.TrimSpace(text)}
	rest := text

	if m := mileageCeilRe.FindStringSubmatchIndex(rest); m != nil {
		if v, ok := parseAmount(rest[m[2]:m[3]], group(rest, m, 2)); ok {
			prefs.Filters.MaxMileage = int(v)
		}
		rest = rest[:m[0]] + " " + rest[m[1]:]
	}

	for _, m := range priceCeilRe.FindAllStringSubmatchIndex(rest, -1) {
		num, unit := rest[m[2]:m[3]], group(rest, m, 2)
		// "hasta 2019" names a model year, not a budget
		if unit == "" && !strings.Contains(rest[m[0]:m[1]], "$") && modelYearRe.MatchString(num) {
			continue
		}
		if v, ok := parseAmount(num, unit); ok && v >= 1000 {
			prefs.Filters.MaxPrice = v
			break
		}
	}

	if m := yearFloorRe.FindStringSubmatch(text); m != nil {
		prefs.Filters.MinYear, _ = strconv.Atoi(m[1])
	} else if m := yearOnwardRe.FindStringSubmatch(text); m != nil {
		prefs.Filters.MinYear, _ = strconv.Atoi(m[1])
	}

	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if bt := domain.CanonicalBodyType(w); bt != "" {
			prefs.Filters.BodyType = bt
			break
		}
	}

	if best := ExtractBest(text); best != nil {
		prefs.Filters.Make = best.Make
		if prefs.Filters.MinYear == 0 && best.Year > 0 {
			prefs.Filters.MinYear = best.Year
		}
	}
	return prefs
}

func group(s string, m []int, n int) string {
	if m[2*n] < 0 {
		return ""
	}
	return s[m[2*n]:m[2*n+1]]
}

// parseAmount reads Mexican-style amounts: "300,000", "300.000", "300 mil",
// "1.5 millones", "250k".
func parseAmount(num, unit string) (float64, bool) {
	unit = strings.ToLower(unit)
	mult := 1.0
	switch unit {
	case "mil", "k":
		mult = 1e3
	case "millones", "millón", "millon", "mdp":
		mult = 1e6
	}

	parts := strings.FieldsFunc(num, func(r rune) bool { return r == ',' || r == '.' })
	var clean string
	switch {
	case len(parts) == 1:
		clean = parts[0]
	case mult > 1 && len(parts) == 2 && len(parts[1]) != 3:
		// "1.5 millones": the separator is a decimal point
		clean = parts[0] + "." + parts[1]
	default:
		last := parts[len(parts)-1]
		if len(last) == 3 {
			clean = strings.Join(parts, "")
		} else {
			clean = strings.Join(parts[:len(parts)-1], "") + "." + last
		}
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v * mult, true
}
