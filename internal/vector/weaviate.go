package vector

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	wvtmodels "github.com/weaviate/weaviate/entities/models"
)

// className is the single Weaviate class holding every embedded chunk. The
// logical collection identity is carried as a filterable property, so
// per-session and shared corpora partition one class instead of multiplying
// Weaviate schemas.
const className = "KnowledgeChunk"

// Document is one retrieved passage.
type Document struct {
	Content string
}

// Index is the vector index collaborator boundary: lazy idempotent collection
// creation, raw-text upsert (embedding implicit) and k-NN search.
type Index interface {
	EnsureCollection(ctx context.Context, collection string) error
	UpsertTexts(ctx context.Context, collection string, texts []string) ([]string, error)
	Search(ctx context.Context, collection, query string, k int) ([]Document, error)
}

// Embedder computes embedding vectors for raw texts.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Compile-time check to ensure WeaviateIndex implements Index.
var _ Index = (*WeaviateIndex)(nil)

// WeaviateIndex stores and searches embedded chunks in Weaviate. Safe for
// concurrent use; the underlying client pools connections.
type WeaviateIndex struct {
	client   *weaviate.Client
	embedder Embedder
}

// NewWeaviateIndex wraps an established Weaviate client and an embedder.
func NewWeaviateIndex(client *weaviate.Client, embedder Embedder) *WeaviateIndex {
	return &WeaviateIndex{client: client, embedder: embedder}
}

// EnsureCollection makes sure the backing class exists. Calling it repeatedly,
// for any collection name, never errors and never duplicates the class.
func (w *WeaviateIndex) EnsureCollection(ctx context.Context, collection string) error {
	if strings.TrimSpace(collection) == "" {
		return fmt.Errorf("collection name cannot be empty")
	}

	_, err := w.client.Schema().ClassGetter().WithClassName(className).Do(ctx)
	if err == nil {
		return nil
	}

	log.Printf("[WeaviateIndex] EnsureCollection: class %s not found, creating it", className)
	class := &wvtmodels.Class{
		Class:      className,
		Vectorizer: "none",
		Properties: []*wvtmodels.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "collection", DataType: []string{"text"}},
			{Name: "ingested_at", DataType: []string{"int"}},
		},
	}
	if err := w.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		// A concurrent caller may have won the race; existing class is fine.
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		log.Printf("ERROR [WeaviateIndex] EnsureCollection: failed to create class %s: %v", className, err)
		return fmt.Errorf("failed to create vector collection: %w", err)
	}
	return nil
}

// UpsertTexts embeds the texts and writes them to the collection in one
// batch. Object IDs are derived from the content hash, so re-ingesting the
// same chunk overwrites rather than duplicates it.
func (w *WeaviateIndex) UpsertTexts(ctx context.Context, collection string, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := w.EnsureCollection(ctx, collection); err != nil {
		return nil, err
	}

	vectors, err := w.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d chunks: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(texts))
	}

	objects := make([]*wvtmodels.Object, len(texts))
	ids := make([]string, len(texts))
	now := time.Now().UnixMilli()
	for i, text := range texts {
		hash := sha256.Sum256([]byte(collection + "\x00" + text))
		chunkUUID, _ := uuid.FromBytes(hash[:16])
		ids[i] = chunkUUID.String()

		objects[i] = &wvtmodels.Object{
			Class:  className,
			ID:     strfmt.UUID(ids[i]),
			Vector: vectors[i],
			Properties: map[string]interface{}{
				"content":     text,
				"collection":  collection,
				"ingested_at": now,
			},
		}
	}

	resp, err := w.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		log.Printf("ERROR [WeaviateIndex] UpsertTexts: batch import failed for collection %s: %v", collection, err)
		return nil, fmt.Errorf("failed to store chunks in vector index: %w", err)
	}

	stored := make([]string, 0, len(ids))
	for i, item := range resp {
		if item.Result != nil && item.Result.Status != nil && *item.Result.Status == "SUCCESS" {
			stored = append(stored, ids[i])
			continue
		}
		if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
			for _, errItem := range item.Result.Errors.Error {
				log.Printf("WARN [WeaviateIndex] UpsertTexts: batch item failed for collection %s: %s", collection, errItem.Message)
			}
		}
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("vector index rejected all %d chunks", len(texts))
	}
	return stored, nil
}

// Search returns up to k passages of the collection ranked by vector
// similarity to the query. Zero results is not an error.
func (w *WeaviateIndex) Search(ctx context.Context, collection, query string, k int) ([]Document, error) {
	vectors, err := w.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	where := filters.Where().
		WithPath([]string{"collection"}).
		WithOperator(filters.Equal).
		WithValueText(collection)

	resp, err := w.client.GraphQL().Get().
		WithClassName(className).
		WithWhere(where).
		WithNearVector(w.client.GraphQL().NearVectorArgBuilder().WithVector(vectors[0])).
		WithLimit(k).
		WithFields(graphql.Field{Name: "content"}).
		Do(ctx)
	if err != nil {
		log.Printf("ERROR [WeaviateIndex] Search: query failed for collection %s: %v", collection, err)
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("vector search failed: %s", resp.Errors[0].Message)
	}

	return parseSearchResponse(resp.Data), nil
}

// parseSearchResponse walks the GraphQL Get payload and collects the content
// of each hit, preserving rank order.
func parseSearchResponse(data map[string]wvtmodels.JSONObject) []Document {
	docs := []Document{}
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return docs
	}
	hits, ok := get[className].([]interface{})
	if !ok {
		return docs
	}
	for _, hit := range hits {
		props, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		if content, ok := props["content"].(string); ok {
			docs = append(docs, Document{Content: content})
		}
	}
	return docs
}
