package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/WessleyAI/wessley-sales/engine/domain"
)

// headerAliases maps accepted column headers to canonical column names.
var headerAliases = map[string]string{
	"stock_id": "id", "id": "id",
	"make": "make", "marca": "make",
	"model": "model", "modelo": "model",
	"year": "year", "año": "year", "anio": "year",
	"price": "price", "precio": "price",
	"km": "km", "kms": "km", "mileage": "km", "kilometraje": "km",
	"version": "version", "versión": "version",
	"body_type": "body_type", "tipo": "body_type", "carroceria": "body_type", "carrocería": "body_type",
	"features": "features", "equipamiento": "features",
	"bluetooth": "bluetooth",
	"car_play": "car_play", "carplay": "car_play",
}

var requiredColumns = []string{"id", "make", "model", "year", "price"}

// CSVSource reads inventory from a comma-separated file with a header row.
// Fields that fail to parse are left invalid so Load reports the record.
type CSVSource struct {
	Path string
	// Reader, when set, is read instead of Path.
	Reader io.Reader
}

// NewCSVSource returns a source reading path.
func NewCSVSource(path string) *CSVSource { return &CSVSource{Path: path} }

func (s *CSVSource) Vehicles(ctx context.Context) ([]domain.Vehicle, error) {
	r := s.Reader
	if r == nil {
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, fmt.Errorf("csv source: open: %w", err)
		}
		defer f.Close()
		r = f
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("csv source: header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if canon, ok := headerAliases[name]; ok {
			if _, dup := cols[canon]; !dup {
				cols[canon] = i
			}
		}
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("csv source: missing column %q", c)
		}
	}

	var out []domain.Vehicle
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv source: line %d: %w", line, err)
		}
		out = append(out, vehicleFromRow(rec, cols))
	}
	return out, nil
}

func vehicleFromRow(rec []string, cols map[string]int) domain.Vehicle {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	v := domain.Vehicle{
		ID:       get("id"),
		Make:     get("make"),
		Model:    get("model"),
		Version:  get("version"),
		BodyType: domain.CanonicalBodyType(get("body_type")),
		Year:     parseInt(get("year"), 0),
		Price:    parseFloat(get("price")),
		Mileage:  parseInt(get("km"), -1),
	}

	for _, f := range strings.FieldsFunc(get("features"), func(r rune) bool { return r == ';' || r == '|' }) {
		if f = strings.TrimSpace(f); f != "" {
			v.Features = append(v.Features, strings.ToLower(f))
		}
	}
	if truthy(get("bluetooth")) && !v.HasFeature("bluetooth") {
		v.Features = append(v.Features, "bluetooth")
	}
	if truthy(get("car_play")) && !v.HasFeature("carplay") {
		v.Features = append(v.Features, "carplay")
	}
	return v
}

// parseInt accepts "45000", "45,000" and "45000.0". Empty input is 0 and
// unparseable input yields bad.
func parseInt(s string, bad int) int {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return bad
	}
	return int(f)
}

func parseFloat(s string) float64 {
	s = strings.TrimPrefix(strings.ReplaceAll(s, ",", ""), "$")
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func truthy(s string) bool {
	switch strings.ToLower(s) {
	case "sí", "si", "yes", "true", "1":
		return true
	}
	return false
}
