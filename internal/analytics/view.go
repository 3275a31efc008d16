package analytics

import (
	"context"
	"fmt"

	"github.com/claims-dashboard/backend/internal/models"
)

// Engine names accepted by NewView.
const (
	EngineMemory = "memory"
	EngineDuckDB = "duckdb"
)

// View answers filter and aggregate queries over one canonical dataset.
type View interface {
	// Dataset returns the unfiltered canonical dataset.
	Dataset() *models.Dataset
	// Filter returns the rows matching sel in original order.
	Filter(ctx context.Context, sel models.FilterSelection) (*models.Dataset, error)
	// Summary computes every dashboard aggregate over the rows matching sel.
	Summary(ctx context.Context, sel models.FilterSelection) (*models.Summary, error)
	Close() error
}

// NewView builds a view over ds using the named engine. tempDir and id are
// only used by the DuckDB engine to place its database file.
func NewView(engine, tempDir, id string, ds *models.Dataset) (View, error) {
	switch engine {
	case "", EngineMemory:
		return NewMemoryView(ds), nil
	case EngineDuckDB:
		return NewDuckView(tempDir, id, ds)
	default:
		return nil, fmt.Errorf("unknown analytics engine %q", engine)
	}
}

// MemoryView evaluates queries by scanning the dataset in process.
type MemoryView struct {
	ds *models.Dataset
}

func NewMemoryView(ds *models.Dataset) *MemoryView {
	return &MemoryView{ds: ds}
}

func (v *MemoryView) Dataset() *models.Dataset { return v.ds }

func (v *MemoryView) Filter(ctx context.Context, sel models.FilterSelection) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Apply(v.ds, sel), nil
}

func (v *MemoryView) Summary(ctx context.Context, sel models.FilterSelection) (*models.Summary, error) {
	filtered, err := v.Filter(ctx, sel)
	if err != nil {
		return nil, err
	}
	return Summarize(filtered), nil
}

func (v *MemoryView) Close() error { return nil }
