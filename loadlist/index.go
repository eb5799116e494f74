package loadlist

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Index provides full-text search over snapshot contents, answering
// questions like "which load list carries drawing BL07". One document is
// indexed per pallet line.
type Index struct {
	index bleve.Index
}

// taskDocument is the indexed representation of one pallet line.
type taskDocument struct {
	SnapshotID string `json:"snapshot_id"`
	Label      string `json:"label"`
	Content    string `json:"content"`
}

// Hit is one search result.
type Hit struct {
	SnapshotID string  `json:"snapshot_id"`
	Label      string  `json:"label"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

// NewIndex opens or creates a search index at path. An empty path builds
// an in-memory index.
func NewIndex(path string) (*Index, error) {
	indexMapping := buildIndexMapping()

	if path == "" {
		idx, err := bleve.NewMemOnly(indexMapping)
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &Index{index: idx}, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		idx, err := bleve.New(path, indexMapping)
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		return &Index{index: idx}, nil
	}

	idx, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return &Index{index: idx}, nil
}

// buildIndexMapping defines how pallet lines are analyzed.
func buildIndexMapping() mapping.IndexMapping {
	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = standard.Name
	contentField.Store = true

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Store = true
	keywordField.Index = true

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("content", contentField)
	docMapping.AddFieldMappingsAt("label", keywordField)
	docMapping.AddFieldMappingsAt("snapshot_id", keywordField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name
	return indexMapping
}

// IndexSnapshot adds all pallet lines of a snapshot to the index.
func (ix *Index) IndexSnapshot(snap *Snapshot) error {
	batch := ix.index.NewBatch()
	for _, task := range snap.Tasks {
		doc := taskDocument{
			SnapshotID: snap.ID,
			Label:      snap.Label,
			Content:    task.Content,
		}
		if err := batch.Index(snap.ID+":"+task.ID, doc); err != nil {
			return fmt.Errorf("index pallet line: %w", err)
		}
	}
	if err := ix.index.Batch(batch); err != nil {
		return fmt.Errorf("commit index batch: %w", err)
	}
	return nil
}

// Search runs a match query over pallet contents and labels.
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}

	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"snapshot_id", "label", "content"}

	res, err := ix.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{Score: h.Score}
		if v, ok := h.Fields["snapshot_id"].(string); ok {
			hit.SnapshotID = v
		}
		if v, ok := h.Fields["label"].(string); ok {
			hit.Label = v
		}
		if v, ok := h.Fields["content"].(string); ok {
			hit.Content = v
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Close releases index resources.
func (ix *Index) Close() error {
	return ix.index.Close()
}
