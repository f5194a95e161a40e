// Package vehiclenlp extracts vehicle mentions and search preferences from
// Spanish or English free text using regex patterns and a vehicle database.
package vehiclenlp

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// VehicleMatch represents an extracted vehicle mention.
type VehicleMatch struct {
	Make       string  // e.g. "Nissan"
	Model      string  // e.g. "Versa"
	Year       int     // 0 if not found
	Confidence float64 // 0.0-1.0
	Span       string  // the matched text fragment
}

// makeAliases maps abbreviations/nicknames to canonical make names.
var makeAliases = map[string]string{
	"chevy": "Chevrolet", "chevrolet": "Chevrolet",
	"vw": "Volkswagen", "volkswagen": "Volkswagen", "volks": "Volkswagen",
	"mercedes": "Mercedes-Benz", "mercedes-benz": "Mercedes-Benz", "benz": "Mercedes-Benz",
	"toyota": "Toyota", "honda": "Honda", "ford": "Ford", "bmw": "BMW", "audi": "Audi",
	"nissan": "Nissan", "hyundai": "Hyundai", "kia": "Kia", "mazda": "Mazda",
	"jeep": "Jeep", "ram": "RAM", "dodge": "Dodge", "seat": "SEAT", "cupra": "Cupra",
	"renault": "Renault", "peugeot": "Peugeot", "mitsubishi": "Mitsubishi",
	"suzuki": "Suzuki", "fiat": "Fiat", "mini": "MINI", "volvo": "Volvo",
	"subaru": "Subaru", "mg": "MG", "chirey": "Chirey", "jac": "JAC", "tesla": "Tesla",
	"buick": "Buick", "gmc": "GMC", "lincoln": "Lincoln", "acura": "Acura",
}

// makeModels maps canonical make to the models stocked in the market.
var makeModels = map[string][]string{
	"Nissan":        {"Versa", "Sentra", "March", "Kicks", "X-Trail", "Frontier", "NP300", "Altima", "Murano", "Pathfinder", "Tsuru"},
	"Volkswagen":    {"Jetta", "Vento", "Polo", "Virtus", "Golf", "Tiguan", "Taos", "T-Cross", "Teramont", "Gol", "Saveiro", "Passat", "Beetle"},
	"Chevrolet":     {"Aveo", "Onix", "Beat", "Spark", "Cavalier", "Tracker", "Captiva", "Equinox", "Trax", "Silverado", "Tahoe", "Suburban", "S10", "Groove", "Cruze", "Malibu"},
	"Toyota":        {"Corolla", "Camry", "Yaris", "Prius", "RAV4", "Hilux", "Tacoma", "Highlander", "Sienna", "Avanza", "Raize", "C-HR", "Corolla Cross"},
	"Honda":         {"Civic", "City", "Accord", "Fit", "HR-V", "CR-V", "BR-V", "Pilot", "Odyssey"},
	"Mazda":         {"Mazda 2", "Mazda 3", "Mazda 6", "Mazda2", "Mazda3", "CX-3", "CX-30", "CX-5", "CX-50", "CX-9", "CX-90", "MX-5"},
	"Kia":           {"Rio", "Forte", "K3", "Soul", "Seltos", "Sportage", "Sorento", "Niro", "Sonet", "EV6"},
	"Hyundai":       {"Grand i10", "Accent", "Elantra", "Creta", "Tucson", "Santa Fe", "HB20", "Ioniq 5"},
	"Ford":          {"Figo", "Fiesta", "Focus", "Fusion", "EcoSport", "Escape", "Edge", "Explorer", "Bronco", "Ranger", "Lobo", "F-150", "Maverick", "Mustang", "Territory"},
	"SEAT":          {"Ibiza", "Leon", "Arona", "Ateca", "Tarraco", "Toledo"},
	"Cupra":         {"Formentor", "Leon", "Ateca"},
	"Renault":       {"Kwid", "Logan", "Stepway", "Sandero", "Duster", "Koleos", "Oroch", "Captur"},
	"Peugeot":       {"208", "2008", "301", "3008", "5008", "Partner"},
	"Suzuki":        {"Swift", "Ignis", "Vitara", "Ertiga", "Ciaz", "Baleno", "S-Cross", "Jimny"},
	"Mitsubishi":    {"Mirage", "Outlander", "Eclipse Cross", "L200", "Montero"},
	"BMW":           {"Serie 1", "Serie 3", "Serie 5", "X1", "X3", "X5", "X6"},
	"Mercedes-Benz": {"Clase A", "Clase C", "Clase E", "GLA", "GLC", "GLE", "CLA"},
	"Audi":          {"A1", "A3", "A4", "A5", "Q2", "Q3", "Q5", "Q7"},
	"Jeep":          {"Wrangler", "Grand Cherokee", "Cherokee", "Compass", "Renegade", "Gladiator"},
	"RAM":           {"700", "1500", "2500", "ProMaster"},
	"Dodge":         {"Attitude", "Journey", "Durango", "Charger", "Challenger"},
	"Fiat":          {"Mobi", "Pulse", "Argo", "Strada", "500"},
	"MINI":          {"Cooper", "Countryman", "Clubman"},
	"Volvo":         {"XC40", "XC60", "XC90", "S60"},
	"MG":            {"MG5", "ZS", "HS", "RX5"},
	"Tesla":         {"Model 3", "Model Y", "Model S", "Model X"},
}

type modelEntry struct {
	lower, canonical string
}

var (
	// uniqueModels maps models distinctive enough to identify a make on their own.
	uniqueModels map[string]string
	// modelsByMake holds each make's models sorted longest first.
	modelsByMake map[string][]modelEntry
	makeRe       *regexp.Regexp
	yearFullRe   = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	yearAbbrRe   = regexp.MustCompile(`'(\d{2})\b`)
)

func init() {
	uniqueModels = make(map[string]string)
	modelsByMake = make(map[string][]modelEntry)

	modelCount := make(map[string]int)
	for mk, models := range makeModels {
		entries := make([]modelEntry, 0, len(models))
		for _, m := range models {
			ml := strings.ToLower(m)
			entries = append(entries, modelEntry{ml, m})
			modelCount[ml]++
		}
		sort.Slice(entries, func(i, j int) bool { return len(entries[i].lower) > len(entries[j].lower) })
		modelsByMake[mk] = entries
	}
	for mk, models := range makeModels {
		for _, m := range models {
			if ml := strings.ToLower(m); modelCount[ml] == 1 {
				uniqueModels[ml] = mk
			}
		}
	}

	names := make([]string, 0, len(makeAliases))
	for alias := range makeAliases {
		names = append(names, regexp.QuoteMeta(alias))
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	makeRe = regexp.MustCompile(`(?i)\b(` + strings.Join(names, "|") + `)\b`)
}

// CanonicalMake returns the canonical spelling of a make or alias, or "".
func CanonicalMake(s string) string {
	return makeAliases[strings.ToLower(strings.TrimSpace(s))]
}

// Extract finds all vehicle mentions in text, sorted by confidence.
func Extract(text string) []VehicleMatch {
	if text == "" {
		return nil
	}
	var matches []VehicleMatch
	used := make(map[string]bool)

	for _, loc := range makeRe.FindAllStringSubmatchIndex(text, -1) {
		canonical := makeAliases[strings.ToLower(text[loc[2]:loc[3]])]
		if canonical == "" {
			continue
		}

		after := text[loc[1]:min(loc[1]+40, len(text))]
		model, modelEnd := findModel(canonical, after)

		before := text[max(0, loc[0]-10):loc[0]]
		year := findYear(before)
		if year == 0 {
			rest := after
			if modelEnd > 0 {
				rest = after[modelEnd:]
			}
			year = findYear(rest)
		}
		if year == 0 {
			year = findAbbrYear(before)
		}

		conf := 0.60
		switch {
		case year > 0 && model != "":
			conf = 0.95
		case model != "":
			conf = 0.80
		case year > 0:
			conf = 0.70
		}

		key := canonical + "|" + model + "|" + strconv.Itoa(year)
		if used[key] {
			continue
		}
		used[key] = true

		end := loc[1]
		if model != "" {
			end = loc[1] + modelEnd
		}
		matches = append(matches, VehicleMatch{
			Make:       canonical,
			Model:      model,
			Year:       year,
			Confidence: conf,
			Span:       strings.TrimSpace(text[loc[0]:min(end, len(text))]),
		})
	}

	matches = append(matches, findStandaloneModels(text, used)...)
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Confidence > matches[j].Confidence })
	return matches
}

// ExtractBest returns the single highest-confidence match, or nil.
func ExtractBest(text string) *VehicleMatch {
	matches := Extract(text)
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}

// findModel looks for a known model of mk at the start of after. It returns
// the canonical model and the byte offset just past it.
func findModel(mk, after string) (string, int) {
	trimmed := strings.TrimLeftFunc(after, unicode.IsSpace)
	offset := len(after) - len(trimmed)
	lower := strings.ToLower(trimmed)

	for _, e := range modelsByMake[mk] {
		if !strings.HasPrefix(lower, e.lower) {
			continue
		}
		end := len(e.lower)
		if end < len(lower) && isWordRune(rune(lower[end])) {
			continue
		}
		return e.canonical, offset + end
	}
	return "", 0
}

func findStandaloneModels(text string, used map[string]bool) []VehicleMatch {
	var matches []VehicleMatch
	lower := strings.ToLower(text)

	keys := make([]string, 0, len(uniqueModels))
	for ml := range uniqueModels {
		keys = append(keys, ml)
	}
	sort.Strings(keys)

	for _, ml := range keys {
		// numeric or two-letter names ("500", "ZS") are too ambiguous alone
		if len(ml) <= 2 || isNumeric(ml) {
			continue
		}
		idx := indexWord(lower, ml)
		if idx < 0 {
			continue
		}
		mk := uniqueModels[ml]
		model := canonicalModel(mk, ml)
		if usedMakeModel(used, mk, model) {
			continue
		}

		end := idx + len(ml)
		nearStart, nearEnd := max(0, idx-12), min(end+12, len(text))
		year := findYear(text[nearStart:nearEnd])
		if year == 0 {
			year = findAbbrYear(text[nearStart:nearEnd])
		}
		conf := 0.50
		if year > 0 {
			conf = 0.75
		}
		used[mk+"|"+model+"|"+strconv.Itoa(year)] = true
		matches = append(matches, VehicleMatch{
			Make:       mk,
			Model:      model,
			Year:       year,
			Confidence: conf,
			Span:       strings.TrimSpace(text[nearStart:nearEnd]),
		})
	}
	return matches
}

func usedMakeModel(used map[string]bool, mk, model string) bool {
	prefix := mk + "|" + model + "|"
	for k := range used {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

func canonicalModel(mk, lower string) string {
	for _, e := range modelsByMake[mk] {
		if e.lower == lower {
			return e.canonical
		}
	}
	return lower
}

// indexWord finds needle in s at word boundaries.
func indexWord(s, needle string) int {
	from := 0
	for {
		i := strings.Index(s[from:], needle)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(needle)
		okStart := i == 0 || !isWordRune(rune(s[i-1]))
		okEnd := end >= len(s) || !isWordRune(rune(s[end]))
		if okStart && okEnd {
			return i
		}
		from = i + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func findYear(s string) int {
	m := yearFullRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	y, _ := strconv.Atoi(m[1])
	if y >= 1980 && y <= 2030 {
		return y
	}
	return 0
}

func findAbbrYear(s string) int {
	m := yearAbbrRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	yy, _ := strconv.Atoi(m[1])
	switch {
	case yy <= 30:
		return 2000 + yy
	case yy >= 80:
		return 1900 + yy
	}
	return 0
}
