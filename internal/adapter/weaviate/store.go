package weaviate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"opslens/internal/retrieval"
	"opslens/internal/vector"
)

// Store adapts a Weaviate instance to the vector-index contract: one class
// per registered collection, vectors supplied by the caller (vectorizer
// "none"), cosine distance.
type Store struct {
	client      *weaviate.Client
	collections map[string]vector.Collection
}

func NewStore(client *weaviate.Client, collections ...vector.Collection) *Store {
	byName := make(map[string]vector.Collection, len(collections))
	for _, c := range collections {
		byName[c.Name] = c
	}
	return &Store{client: client, collections: byName}
}

func (s *Store) collection(name string) (vector.Collection, error) {
	col, ok := s.collections[name]
	if !ok {
		return vector.Collection{}, fmt.Errorf("unknown collection %q", name)
	}
	return col, nil
}

// EnsureCollection creates the class backing the collection if it does not
// exist yet. It is a no-op when the class is already present.
func (s *Store) EnsureCollection(ctx context.Context, name string, dimension int) error {
	col, err := s.collection(name)
	if err != nil {
		return err
	}

	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(col.Class).Do(ctx)
	if err != nil {
		return fmt.Errorf("check class %s: %w", col.Class, err)
	}
	if exists {
		slog.DebugContext(ctx, "collection already exists", "collection", name, "class", col.Class)
		return nil
	}

	class := &models.Class{
		Class:      col.Class,
		Vectorizer: "none",
		VectorIndexConfig: map[string]interface{}{
			"distance": "cosine",
		},
		Properties: col.Properties,
	}
	if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("create class %s: %w", col.Class, err)
	}

	slog.InfoContext(ctx, "collection created", "collection", name, "class", col.Class, "dimension", dimension)
	return nil
}

// UpsertBatch writes one batch of documents in a single batch call. Vectors
// must already be populated.
func (s *Store) UpsertBatch(ctx context.Context, name string, docs []retrieval.Document) error {
	if len(docs) == 0 {
		return nil
	}

	col, err := s.collection(name)
	if err != nil {
		return err
	}

	objects := make([]*models.Object, 0, len(docs))
	for _, d := range docs {
		props := make(map[string]interface{}, len(d.Metadata)+1)
		for k, v := range d.Metadata {
			props[k] = v
		}
		props["content"] = d.Text

		objects = append(objects, &models.Object{
			Class:      col.Class,
			Properties: props,
			Vector:     d.Vector,
		})
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("batch upsert %s: %w", name, err)
	}
	for _, r := range resp {
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return fmt.Errorf("batch upsert %s: %s", name, r.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

// Search runs a nearVector query and returns up to k matches with their
// certainty as the similarity score, in the index's descending order.
func (s *Store) Search(ctx context.Context, name string, vec []float32, k int) ([]retrieval.Match, error) {
	col, err := s.collection(name)
	if err != nil {
		return nil, err
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vec)

	fields := make([]graphql.Field, 0, len(col.Properties)+1)
	for _, p := range col.Properties {
		fields = append(fields, graphql.Field{Name: p.Name})
	}
	fields = append(fields, graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}})

	res, err := s.client.GraphQL().Get().
		WithClassName(col.Class).
		WithNearVector(nearVector).
		WithLimit(k).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", name, err)
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("search %s: graphql error: %v", name, res.Errors[0].Message)
	}

	var matches []retrieval.Match
	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return matches, nil
	}
	rows, ok := data[col.Class].([]interface{})
	if !ok {
		return matches, nil
	}

	for _, row := range rows {
		props, ok := row.(map[string]interface{})
		if !ok {
			continue
		}

		doc := retrieval.Document{Metadata: make(map[string]interface{})}
		var score float32

		for key, value := range props {
			switch key {
			case "content":
				if text, ok := value.(string); ok {
					doc.Text = text
				}
			case "_additional":
				if additional, ok := value.(map[string]interface{}); ok {
					if certainty, ok := additional["certainty"].(float64); ok {
						score = float32(certainty)
					}
				}
			default:
				doc.Metadata[key] = value
			}
		}

		matches = append(matches, retrieval.Match{Document: doc, Score: score})
	}

	return matches, nil
}

// Count returns the number of documents in the collection.
func (s *Store) Count(ctx context.Context, name string) (int, error) {
	col, err := s.collection(name)
	if err != nil {
		return 0, err
	}

	res, err := s.client.GraphQL().Aggregate().
		WithClassName(col.Class).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", name, err)
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("count %s: graphql error: %v", name, res.Errors[0].Message)
	}

	data, ok := res.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	rows, ok := data[col.Class].([]interface{})
	if !ok || len(rows) == 0 {
		return 0, nil
	}
	row, ok := rows[0].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	meta, ok := row["meta"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	count, _ := meta["count"].(float64)
	return int(count), nil
}
