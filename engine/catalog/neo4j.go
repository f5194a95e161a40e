package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/WessleyAI/wessley-sales/engine/domain"
	"github.com/WessleyAI/wessley-sales/pkg/repo"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// VehicleLabel is the node label holding stock units.
const VehicleLabel = "Vehicle"

// NewVehicleRepo creates a Neo4j-backed repository for Vehicle nodes.
func NewVehicleRepo(driver neo4j.DriverWithContext, opts ...repo.Neo4jOption[domain.Vehicle, string]) *repo.Neo4jRepo[domain.Vehicle, string] {
	return repo.NewNeo4jRepo[domain.Vehicle, string](
		driver,
		VehicleLabel,
		vehicleToMap,
		vehicleFromRecord,
		opts...,
	)
}

func vehicleToMap(v domain.Vehicle) map[string]any {
	m := map[string]any{
		"id":        v.ID,
		"make":      v.Make,
		"model":     v.Model,
		"year":      int64(v.Year),
		"version":   v.Version,
		"body_type": v.BodyType,
		"price":     v.Price,
		"mileage":   int64(v.Mileage),
	}
	if len(v.Features) > 0 {
		m["features"] = append([]string(nil), v.Features...)
	}
	return m
}

func vehicleFromRecord(rec *neo4j.Record) (domain.Vehicle, error) {
	node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "n")
	if err != nil {
		return domain.Vehicle{}, err
	}
	p := node.Props
	return domain.Vehicle{
		ID:       strProp(p, "id"),
		Make:     strProp(p, "make"),
		Model:    strProp(p, "model"),
		Year:     int(intProp(p, "year")),
		Version:  strProp(p, "version"),
		BodyType: domain.CanonicalBodyType(strProp(p, "body_type")),
		Price:    floatProp(p, "price"),
		Mileage:  int(intProp(p, "mileage")),
		Features: strListProp(p, "features"),
	}, nil
}

func strProp(props map[string]any, key string) string {
	if s, ok := props[key].(string); ok {
		return s
	}
	return ""
}

func intProp(props map[string]any, key string) int64 {
	switch v := props[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

func floatProp(props map[string]any, key string) float64 {
	switch v := props[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

func strListProp(props map[string]any, key string) []string {
	raw, ok := props[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, x := range raw {
		if s, ok := x.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Neo4jSource reads :Vehicle nodes as catalog records.
type Neo4jSource struct {
	Repo  repo.Repository[domain.Vehicle, string]
	Limit int
}

func (s *Neo4jSource) Vehicles(ctx context.Context) ([]domain.Vehicle, error) {
	vs, err := s.Repo.List(ctx, repo.ListOpts{Limit: s.Limit})
	if err != nil {
		return nil, fmt.Errorf("neo4j source: %w", err)
	}
	return vs, nil
}

// GraphSeeder writes inventory into the graph as
// (:Make)-[:HAS_MODEL]->(:VehicleModel)-[:HAS_STOCK]->(:Vehicle).
type GraphSeeder struct {
	repo *repo.Neo4jRepo[domain.Vehicle, string]
}

// NewGraphSeeder returns a seeder writing through r.
func NewGraphSeeder(r *repo.Neo4jRepo[domain.Vehicle, string]) *GraphSeeder {
	return &GraphSeeder{repo: r}
}

const linkStockCypher = `MERGE (mk:Make {id: $makeID}) SET mk.name = $make
WITH mk
MERGE (m:VehicleModel {id: $modelID}) SET m.name = $model, m.make_id = $makeID
MERGE (mk)-[:HAS_MODEL]->(m)
WITH m
MATCH (v:Vehicle {id: $id})
MERGE (m)-[:HAS_STOCK]->(v)`

// Seed upserts every vehicle and links it into the make/model hierarchy. It
// stops at the first failure and reports how many were written.
func (g *GraphSeeder) Seed(ctx context.Context, vehicles []domain.Vehicle) (int, error) {
	for i, v := range vehicles {
		if err := g.repo.Upsert(ctx, v); err != nil {
			return i, fmt.Errorf("graph seed: %s: %w", v.ID, err)
		}
		makeID := slug(v.Make)
		params := map[string]any{
			"id":      v.ID,
			"make":    v.Make,
			"makeID":  makeID,
			"model":   v.Model,
			"modelID": makeID + ":" + slug(v.Model),
		}
		if err := g.repo.Exec(ctx, linkStockCypher, params); err != nil {
			return i, fmt.Errorf("graph seed: link %s: %w", v.ID, err)
		}
	}
	return len(vehicles), nil
}

func slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

// MakeStock summarises graph inventory for one make.
type MakeStock struct {
	Make     string  `json:"make"`
	Models   int64   `json:"models"`
	Vehicles int64   `json:"vehicles"`
	MinPrice float64 `json:"min_price"`
}

const stockByMakeCypher = `MATCH (mk:Make)
OPTIONAL MATCH (mk)-[:HAS_MODEL]->(m:VehicleModel)
OPTIONAL MATCH (m)-[:HAS_STOCK]->(v:Vehicle)
RETURN mk.name AS make, count(DISTINCT m) AS models, count(DISTINCT v) AS vehicles, min(v.price) AS min_price
ORDER BY vehicles DESC, make ASC LIMIT $limit`

// StockByMake returns the makes with the most seeded vehicles.
func (g *GraphSeeder) StockByMake(ctx context.Context, limit int) ([]MakeStock, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []MakeStock
	err := g.repo.Query(ctx, stockByMakeCypher, map[string]any{"limit": int64(limit)}, func(rec *neo4j.Record) error {
		props := make(map[string]any, len(rec.Keys))
		for i, k := range rec.Keys {
			props[k] = rec.Values[i]
		}
		out = append(out, MakeStock{
			Make:     strProp(props, "make"),
			Models:   intProp(props, "models"),
			Vehicles: intProp(props, "vehicles"),
			MinPrice: floatProp(props, "min_price"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("graph stats: %w", err)
	}
	return out, nil
}
