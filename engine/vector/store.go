package vector

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	vecDense  = "dense"
	vecSparse = "sparse"
)

// Store is the sole owner of all Qdrant operations across both of Jarvis's
// collections.
type Store struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
}

// New creates a Store connected to Qdrant at the given gRPC address.
func New(addr string) (*Store, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("vector: dial qdrant %s: %w", addr, err)
	}
	return &Store{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
	}, nil
}

// Close closes the underlying gRPC connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// EnsureCollection creates collection with named dense+sparse vector configs
// if it doesn't already exist.
func (s *Store) EnsureCollection(ctx context.Context, collection string, denseDim int) error {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("vector: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == collection {
			return nil
		}
	}

	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_ParamsMap{
				ParamsMap: &pb.VectorParamsMap{
					Map: map[string]*pb.VectorParams{
						vecDense: {
							Size:     uint64(denseDim),
							Distance: pb.Distance_Cosine,
						},
					},
				},
			},
		},
		SparseVectorsConfig: &pb.SparseVectorConfig{
			Map: map[string]*pb.SparseVectorParams{
				vecSparse: {},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vector: create collection %s: %w", collection, err)
	}
	return nil
}

// DeleteCollection deletes a collection entirely.
func (s *Store) DeleteCollection(ctx context.Context, collection string) error {
	_, err := s.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: collection})
	if err != nil {
		return fmt.Errorf("vector: delete collection %s: %w", collection, err)
	}
	return nil
}

// Upsert writes records carrying both a dense and a sparse vector into
// collection. Point ids are expected to be deterministic UUIDs so repeated
// upserts for the same (source_id, chunk_index) are idempotent.
func (s *Store) Upsert(ctx context.Context, collection string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		payload := make(map[string]*pb.Value, len(r.Payload))
		for k, v := range r.Payload {
			payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
		}

		points[i] = &pb.PointStruct{
			Id: &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID}},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_VectorsMap{
					VectorsMap: &pb.NamedVectors{
						Vectors: map[string]*pb.Vector{
							vecDense: {Data: r.Dense},
							vecSparse: {
								Data:    r.SparseValues,
								Indices: &pb.SparseIndices{Data: r.SparseIdx},
							},
						},
					},
				},
			},
			Payload: payload,
		}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("vector: upsert %d points into %s: %w", len(records), collection, err)
	}
	return nil
}

// DeleteBySourceID removes all points whose payload source_id field matches.
// Used to clear stale points before re-indexing a conversation or capture.
func (s *Store) DeleteBySourceID(ctx context.Context, collection, field, sourceID string) error {
	wait := true
	_, err := s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: &pb.Filter{Must: []*pb.Condition{fieldMatch(field, sourceID)}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vector: delete by %s=%s: %w", field, sourceID, err)
	}
	return nil
}

// SearchDense runs k-NN search against the dense named vector.
func (s *Store) SearchDense(ctx context.Context, collection string, embedding []float32, topK int, filters map[string]string) ([]Hit, error) {
	return s.search(ctx, collection, vecDense, embedding, nil, topK, filters)
}

// SearchSparse runs k-NN search against the sparse named vector.
func (s *Store) SearchSparse(ctx context.Context, collection string, indices []uint32, values []float32, topK int, filters map[string]string) ([]Hit, error) {
	return s.search(ctx, collection, vecSparse, values, indices, topK, filters)
}

func (s *Store) search(ctx context.Context, collection, vecName string, data []float32, sparseIdx []uint32, topK int, filters map[string]string) ([]Hit, error) {
	req := &pb.SearchPoints{
		CollectionName: collection,
		VectorName:     &vecName,
		Vector:         data,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}
	if sparseIdx != nil {
		req.SparseIndices = &pb.SparseIndices{Data: sparseIdx}
	}
	if len(filters) > 0 {
		must := make([]*pb.Condition, 0, len(filters))
		for k, v := range filters {
			must = append(must, fieldMatch(k, v))
		}
		req.Filter = &pb.Filter{Must: must}
	}

	resp, err := s.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vector: search %s/%s: %w", collection, vecName, err)
	}

	hits := make([]Hit, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		h := Hit{ID: r.GetId().GetUuid(), Score: r.GetScore(), Payload: make(map[string]string)}
		for k, v := range r.GetPayload() {
			h.Payload[k] = v.GetStringValue()
		}
		hits[i] = h
	}
	return hits, nil
}

// ScrollPage is one page of a Scroll over a collection.
type ScrollPage struct {
	Hits       []Hit
	NextOffset string // empty when there are no further pages
}

// Scroll pages through every point in collection, pageSize at a time. Pass
// the previous page's NextOffset to continue; an empty offset starts from
// the beginning.
func (s *Store) Scroll(ctx context.Context, collection string, pageSize int, offset string) (ScrollPage, error) {
	req := &pb.ScrollPoints{
		CollectionName: collection,
		Limit:          ptrUint32(uint32(pageSize)),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}
	if offset != "" {
		req.Offset = &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: offset}}
	}

	resp, err := s.points.Scroll(ctx, req)
	if err != nil {
		return ScrollPage{}, fmt.Errorf("vector: scroll %s: %w", collection, err)
	}

	hits := make([]Hit, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		h := Hit{ID: r.GetId().GetUuid(), Payload: make(map[string]string)}
		for k, v := range r.GetPayload() {
			h.Payload[k] = v.GetStringValue()
		}
		hits[i] = h
	}

	var next string
	if n := resp.GetNextPageOffset(); n != nil {
		next = n.GetUuid()
	}
	return ScrollPage{Hits: hits, NextOffset: next}, nil
}

func ptrUint32(v uint32) *uint32 { return &v }

func fieldMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key:   key,
				Match: &pb.Match{MatchValue: &pb.Match_Keyword{Keyword: value}},
			},
		},
	}
}
