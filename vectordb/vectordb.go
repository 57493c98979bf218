// Package vectordb wraps a vector store behind a narrow provider
// interface used by the semantic retriever and the ingestion path.
package vectordb

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/altirag/prism-rag/config"
	"github.com/altirag/prism-rag/pipelineerr"
	"github.com/altirag/prism-rag/schema"
)

// VectorStoreProvider is the storage side of the semantic retriever:
// a flat collection of vectors with payload content and metadata.
type VectorStoreProvider interface {
	AddDoc(ctx context.Context, docs []schema.Document) error
	DeleteDocs(ctx context.Context, ids []string) error
	ListDocs(ctx context.Context, limit int) ([]schema.Document, error)
	SearchDocs(ctx context.Context, vector []float32, opts *schema.SearchOptions) ([]schema.SearchResult, error)
	// Stats reports the collection's document count and embedding
	// dimensionality, per the stats(collection) external interface.
	Stats(ctx context.Context) (CollectionStats, error)
}

// CollectionStats is the result of the stats(collection) operation.
type CollectionStats struct {
	DocCount     int
	EmbeddingDim int
}

type Config struct {
	Host       string
	Port       int
	Database   string
	Collection string
	Username   string
	Password   string
	Dimensions int
}

const (
	fieldID      = "id"
	fieldContent = "content"
	fieldVector  = "vector"
)

// MilvusProvider implements VectorStoreProvider against a Milvus
// collection with a fixed three-field schema (id varchar, content
// varchar, vector float_vector). Document metadata is not indexed;
// it travels alongside the document in the response cache / pipeline
// state, not in the vector store.
type MilvusProvider struct {
	cli        client.Client
	collection string
	dims       int
}

func NewMilvusProvider(ctx context.Context, cfg Config) (*MilvusProvider, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	opts := client.Config{Address: addr, DBName: cfg.Database}
	if cfg.Username != "" {
		opts.Username = cfg.Username
		opts.Password = cfg.Password
	}
	cli, err := client.NewClient(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("vectordb: connect milvus: %w", err)
	}
	p := &MilvusProvider{cli: cli, collection: cfg.Collection, dims: cfg.Dimensions}
	if err := p.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *MilvusProvider) ensureCollection(ctx context.Context) error {
	ok, err := p.cli.HasCollection(ctx, p.collection)
	if err != nil {
		return fmt.Errorf("vectordb: has collection: %w", err)
	}
	if ok {
		existingDim, err := p.describeVectorDim(ctx)
		if err != nil {
			return fmt.Errorf("vectordb: describe collection: %w", err)
		}
		if existingDim != p.dims {
			return fmt.Errorf("%w: collection %q has dim %d, embedder configured for dim %d",
				pipelineerr.ErrDimensionMismatch, p.collection, existingDim, p.dims)
		}
		return p.cli.LoadCollection(ctx, p.collection, false)
	}
	sch := entity.NewSchema().WithName(p.collection).WithDescription("rag passages").
		WithField(entity.NewField().WithName(fieldID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(128).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName(fieldContent).WithDataType(entity.FieldTypeVarChar).WithMaxLength(65535)).
		WithField(entity.NewField().WithName(fieldVector).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(p.dims)))
	if err := p.cli.CreateCollection(ctx, sch, 1); err != nil {
		return fmt.Errorf("vectordb: create collection: %w", err)
	}
	idx, err := entity.NewIndexAUTOINDEX(entity.COSINE)
	if err != nil {
		return fmt.Errorf("vectordb: build index spec: %w", err)
	}
	if err := p.cli.CreateIndex(ctx, p.collection, fieldVector, idx, false); err != nil {
		return fmt.Errorf("vectordb: create index: %w", err)
	}
	return p.cli.LoadCollection(ctx, p.collection, false)
}

// describeVectorDim fetches the existing collection's schema and
// returns the configured dimension of its vector field, so
// ensureCollection can fail fast instead of letting a dimension
// mismatch surface as an opaque search error on the first query.
func (p *MilvusProvider) describeVectorDim(ctx context.Context) (int, error) {
	coll, err := p.cli.DescribeCollection(ctx, p.collection)
	if err != nil {
		return 0, err
	}
	if coll.Schema == nil {
		return 0, fmt.Errorf("collection %q has no schema", p.collection)
	}
	for _, f := range coll.Schema.Fields {
		if f.Name != fieldVector {
			continue
		}
		dimStr, ok := f.TypeParams["dim"]
		if !ok {
			return 0, fmt.Errorf("vector field %q has no dim type param", fieldVector)
		}
		dim, err := strconv.Atoi(dimStr)
		if err != nil {
			return 0, fmt.Errorf("parse vector field dim %q: %w", dimStr, err)
		}
		return dim, nil
	}
	return 0, fmt.Errorf("collection %q has no field %q", p.collection, fieldVector)
}

// Stats implements the stats(collection) external interface.
func (p *MilvusProvider) Stats(ctx context.Context) (CollectionStats, error) {
	dim, err := p.describeVectorDim(ctx)
	if err != nil {
		return CollectionStats{}, fmt.Errorf("vectordb: stats: %w", err)
	}
	raw, err := p.cli.GetCollectionStatistics(ctx, p.collection)
	if err != nil {
		return CollectionStats{}, fmt.Errorf("vectordb: stats: %w", err)
	}
	count, _ := strconv.Atoi(raw["row_count"])
	return CollectionStats{DocCount: count, EmbeddingDim: dim}, nil
}

func (p *MilvusProvider) AddDoc(ctx context.Context, docs []schema.Document) error {
	if len(docs) == 0 {
		return nil
	}
	ids := make([]string, len(docs))
	contents := make([]string, len(docs))
	vectors := make([][]float32, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
		contents[i] = d.Content
		vectors[i] = d.Vector
	}
	_, err := p.cli.Insert(ctx, p.collection, "",
		entity.NewColumnVarChar(fieldID, ids),
		entity.NewColumnVarChar(fieldContent, contents),
		entity.NewColumnFloatVector(fieldVector, p.dims, vectors),
	)
	if err != nil {
		return fmt.Errorf("vectordb: insert: %w", err)
	}
	return p.cli.Flush(ctx, p.collection, false)
}

func (p *MilvusProvider) DeleteDocs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	expr := entity.NewColumnVarChar(fieldID, ids)
	_ = expr
	pks := entity.NewColumnVarChar(fieldID, ids)
	return p.cli.DeleteByPks(ctx, p.collection, "", pks)
}

func (p *MilvusProvider) ListDocs(ctx context.Context, limit int) ([]schema.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	expr := fmt.Sprintf("%s != \"\"", fieldID)
	cols, err := p.cli.Query(ctx, p.collection, nil, expr, []string{fieldID, fieldContent})
	if err != nil {
		return nil, fmt.Errorf("vectordb: query: %w", err)
	}
	return columnsToDocuments(cols, limit)
}

func (p *MilvusProvider) SearchDocs(ctx context.Context, vector []float32, opts *schema.SearchOptions) ([]schema.SearchResult, error) {
	topK := 10
	if opts != nil && opts.TopK > 0 {
		topK = opts.TopK
	}
	sp, err := entity.NewIndexAUTOINDEXSearchParam(1)
	if err != nil {
		return nil, fmt.Errorf("vectordb: search param: %w", err)
	}
	results, err := p.cli.Search(ctx, p.collection, nil, "", []string{fieldContent}, []entity.Vector{entity.FloatVector(vector)}, fieldVector, entity.COSINE, topK, sp)
	if err != nil {
		return nil, fmt.Errorf("vectordb: search: %w", err)
	}
	out := make([]schema.SearchResult, 0, topK)
	for _, r := range results {
		idCol, ok := r.IDs.(*entity.ColumnVarChar)
		if !ok {
			continue
		}
		for i := 0; i < idCol.Len(); i++ {
			id, _ := idCol.ValueByIdx(i)
			content := ""
			for _, f := range r.Fields {
				if f.Name() == fieldContent {
					if c, ok := f.(*entity.ColumnVarChar); ok {
						if v, err := c.ValueByIdx(i); err == nil {
							content = v
						}
					}
				}
			}
			score := float64(r.Scores[i])
			if opts != nil && opts.Threshold > 0 && score < opts.Threshold {
				continue
			}
			out = append(out, schema.SearchResult{
				Document: schema.Document{ID: id, Content: content},
				Score:    score,
			})
		}
	}
	return out, nil
}

// NewVectorDBProvider builds a VectorStoreProvider from a
// config.VectorDBConfig. dim is the embedding dimensionality, used to
// size the collection's vector field when it must be created.
func NewVectorDBProvider(ctx context.Context, cfg *config.VectorDBConfig, dim int) (VectorStoreProvider, error) {
	return NewMilvusProvider(ctx, Config{
		Host:       cfg.Host,
		Port:       cfg.Port,
		Database:   cfg.Database,
		Collection: cfg.Collection,
		Username:   cfg.Username,
		Password:   cfg.Password,
		Dimensions: dim,
	})
}

func columnsToDocuments(cols []entity.Column, limit int) ([]schema.Document, error) {
	var idCol, contentCol entity.Column
	for _, c := range cols {
		switch c.Name() {
		case fieldID:
			idCol = c
		case fieldContent:
			contentCol = c
		}
	}
	if idCol == nil {
		return nil, nil
	}
	n := idCol.Len()
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]schema.Document, 0, n)
	for i := 0; i < n; i++ {
		doc := schema.Document{}
		if c, ok := idCol.(*entity.ColumnVarChar); ok {
			v, _ := c.ValueByIdx(i)
			doc.ID = v
		}
		if contentCol != nil {
			if c, ok := contentCol.(*entity.ColumnVarChar); ok {
				v, _ := c.ValueByIdx(i)
				doc.Content = v
			}
		}
		out = append(out, doc)
	}
	return out, nil
}
