package semantic

import (
	"context"
	"fmt"
	"strings"

	"github.com/WessleyAI/wessley-sales/engine/catalog"
	"github.com/WessleyAI/wessley-sales/engine/domain"
	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// UpsertBatchSize is the max points per upsert request.
const UpsertBatchSize = 256

// overfetch is added to topK so ties at the cut-off can be re-ordered by ID.
const overfetch = 8

type pointsAPI interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
}

type collectionsAPI interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
	Delete(ctx context.Context, in *pb.DeleteCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

// QdrantIndex ranks through a Qdrant collection holding one point per catalog
// vehicle. Hits are mapped back to the store and rescored locally so ordering
// matches LinearIndex exactly.
type QdrantIndex struct {
	conn        *grpc.ClientConn
	points      pointsAPI
	collections collectionsAPI
	collection  string
	store       *catalog.Store
}

// NewQdrantIndex connects to Qdrant at the given gRPC address.
func NewQdrantIndex(addr, collection string, store *catalog.Store) (*QdrantIndex, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &QdrantIndex{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
		store:       store,
	}, nil
}

func newQdrantIndexWithClients(points pointsAPI, collections collectionsAPI, collection string, store *catalog.Store) *QdrantIndex {
	return &QdrantIndex{points: points, collections: collections, collection: collection, store: store}
}

// Close closes the underlying gRPC connection.
func (q *QdrantIndex) Close() error {
	if q.conn == nil {
		return nil
	}
	return q.conn.Close()
}

// PointID is the deterministic Qdrant point ID for a vehicle.
func PointID(vehicleID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("vehicle:"+vehicleID)).String()
}

// EnsureCollection creates the collection with cosine distance if missing.
func (q *QdrantIndex) EnsureCollection(ctx context.Context, dims int) error {
	list, err := q.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("semantic: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == q.collection {
			return nil
		}
	}
	_, err = q.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{Size: uint64(dims), Distance: pb.Distance_Cosine},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: create collection %s: %w", q.collection, err)
	}
	return nil
}

// DeleteCollection drops the collection.
func (q *QdrantIndex) DeleteCollection(ctx context.Context) error {
	if _, err := q.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: q.collection}); err != nil {
		return fmt.Errorf("semantic: delete collection %s: %w", q.collection, err)
	}
	return nil
}

// Sync creates the collection if needed and upserts every store vehicle.
func (q *QdrantIndex) Sync(ctx context.Context) (int, error) {
	if err := q.EnsureCollection(ctx, q.store.Dims()); err != nil {
		return 0, err
	}
	all := q.store.All()
	wait := true
	for i := 0; i < len(all); i += UpsertBatchSize {
		end := min(i+UpsertBatchSize, len(all))
		points := make([]*pb.PointStruct, 0, end-i)
		for _, v := range all[i:end] {
			points = append(points, vehiclePoint(v))
		}
		_, err := q.points.Upsert(ctx, &pb.UpsertPoints{
			CollectionName: q.collection,
			Wait:           &wait,
			Points:         points,
		})
		if err != nil {
			return i, fmt.Errorf("semantic: upsert %d points: %w", len(points), err)
		}
	}
	return len(all), nil
}

func vehiclePoint(v domain.Vehicle) *pb.PointStruct {
	return &pb.PointStruct{
		Id: &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(v.ID)}},
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: v.Embedding}},
		},
		Payload: map[string]*pb.Value{
			"vehicle_id": strValue(v.ID),
			"make":       strValue(strings.ToLower(v.Make)),
			"body_type":  strValue(strings.ToLower(v.BodyType)),
			"year":       {Kind: &pb.Value_IntegerValue{IntegerValue: int64(v.Year)}},
			"mileage":    {Kind: &pb.Value_IntegerValue{IntegerValue: int64(v.Mileage)}},
			"price":      {Kind: &pb.Value_DoubleValue{DoubleValue: v.Price}},
		},
	}
}

func strValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func (q *QdrantIndex) Search(ctx context.Context, query []float32, f domain.Filters, topK int) ([]domain.RankedResult, error) {
	req := &pb.SearchPoints{
		CollectionName: q.collection,
		Vector:         query,
		Limit:          uint64(topK + overfetch),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		Filter:         filterConditions(f),
	}
	resp, err := q.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	results := make([]domain.RankedResult, 0, len(resp.GetResult()))
	for _, hit := range resp.GetResult() {
		id := hit.GetPayload()["vehicle_id"].GetStringValue()
		v, ok := q.store.Get(id)
		if !ok || !f.Match(v) {
			continue
		}
		results = append(results, domain.RankedResult{Vehicle: v, Score: Cosine(query, v.Embedding)})
	}
	return topN(results, topK), nil
}

// filterConditions translates filters into Qdrant payload conditions, nil when
// no filter is set.
func filterConditions(f domain.Filters) *pb.Filter {
	var must []*pb.Condition
	if f.MaxPrice > 0 {
		must = append(must, rangeCond("price", &pb.Range{Lte: ptr(f.MaxPrice)}))
	}
	if f.MinYear > 0 {
		must = append(must, rangeCond("year", &pb.Range{Gte: ptr(float64(f.MinYear))}))
	}
	if f.MaxMileage > 0 {
		must = append(must, rangeCond("mileage", &pb.Range{Lte: ptr(float64(f.MaxMileage))}))
	}
	if f.BodyType != "" {
		must = append(must, fieldMatch("body_type", strings.ToLower(f.BodyType)))
	}
	if f.Make != "" {
		must = append(must, fieldMatch("make", strings.ToLower(f.Make)))
	}
	if len(must) == 0 {
		return nil
	}
	return &pb.Filter{Must: must}
}

func rangeCond(key string, r *pb.Range) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{Key: key, Range: r},
		},
	}
}

func fieldMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

func ptr[T any](v T) *T { return &v }
