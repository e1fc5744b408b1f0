package mock

import (
	"context"

	"github.com/fwojciec/sitecrawl"
)

var _ sitecrawl.SourceService = (*SourceService)(nil)

// SourceService is a mock implementation of sitecrawl.SourceService.
type SourceService struct {
	CreateSourceFn   func(ctx context.Context, source *sitecrawl.Source) error
	FindSourceByIDFn func(ctx context.Context, id string) (*sitecrawl.Source, error)
	FindSourcesFn    func(ctx context.Context, filter sitecrawl.SourceFilter) ([]*sitecrawl.Source, error)
	UpdateSourceFn   func(ctx context.Context, id string, upd sitecrawl.SourceUpdate) (*sitecrawl.Source, error)
	DeleteSourceFn   func(ctx context.Context, id string) error
}

func (s *SourceService) CreateSource(ctx context.Context, source *sitecrawl.Source) error {
	return s.CreateSourceFn(ctx, source)
}

func (s *SourceService) FindSourceByID(ctx context.Context, id string) (*sitecrawl.Source, error) {
	return s.FindSourceByIDFn(ctx, id)
}

func (s *SourceService) FindSources(ctx context.Context, filter sitecrawl.SourceFilter) ([]*sitecrawl.Source, error) {
	return s.FindSourcesFn(ctx, filter)
}

func (s *SourceService) UpdateSource(ctx context.Context, id string, upd sitecrawl.SourceUpdate) (*sitecrawl.Source, error) {
	return s.UpdateSourceFn(ctx, id, upd)
}

func (s *SourceService) DeleteSource(ctx context.Context, id string) error {
	return s.DeleteSourceFn(ctx, id)
}

var _ sitecrawl.SchemaService = (*SchemaService)(nil)

// SchemaService is a mock implementation of sitecrawl.SchemaService.
type SchemaService struct {
	CreateSchemaFn  func(ctx context.Context, schema *sitecrawl.Schema) error
	FindSchemasFn   func(ctx context.Context, sourceID string) ([]*sitecrawl.Schema, error)
	DeleteSchemasFn func(ctx context.Context, sourceID string) error
}

func (s *SchemaService) CreateSchema(ctx context.Context, schema *sitecrawl.Schema) error {
	return s.CreateSchemaFn(ctx, schema)
}

func (s *SchemaService) FindSchemas(ctx context.Context, sourceID string) ([]*sitecrawl.Schema, error) {
	return s.FindSchemasFn(ctx, sourceID)
}

func (s *SchemaService) DeleteSchemas(ctx context.Context, sourceID string) error {
	return s.DeleteSchemasFn(ctx, sourceID)
}
