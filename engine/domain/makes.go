package domain

import "strings"

// BodyTypes maps Spanish and English body-type words to canonical names.
var BodyTypes = map[string]string{
	"suv": "suv", "camioneta": "suv", "crossover": "suv",
	"sedan": "sedan", "sedán": "sedan",
	"hatchback": "hatchback", "hatch": "hatchback",
	"pickup": "pickup", "pick-up": "pickup",
	"coupe": "coupe", "coupé": "coupe",
	"van": "van", "minivan": "van",
}

// CanonicalBodyType returns the canonical body type, or "" when unknown.
func CanonicalBodyType(s string) string {
	return BodyTypes[strings.ToLower(strings.TrimSpace(s))]
}

// MinModelYear is the earliest year we accept.
const MinModelYear = 1980

// MaxModelYear is the latest year we accept (current + 1 for next-year models).
const MaxModelYear = 2027
