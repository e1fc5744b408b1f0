package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fwojciec/sitecrawl"
	"github.com/google/uuid"
	"github.com/ncruces/go-sqlite3"
)

var _ sitecrawl.SchemaService = (*SchemaService)(nil)

// SchemaService implements sitecrawl.SchemaService using SQLite.
// Import rules are stored as a JSON column.
type SchemaService struct {
	db *DB
}

// NewSchemaService creates a new SchemaService.
func NewSchemaService(db *DB) *SchemaService {
	return &SchemaService{db: db}
}

// CreateSchema appends a schema to its source. Schemas with equal priority
// keep their creation order.
func (s *SchemaService) CreateSchema(ctx context.Context, schema *sitecrawl.Schema) error {
	if schema.SourceID == "" {
		return sitecrawl.Errorf(sitecrawl.EINVALID, "schema source required")
	}
	if err := schema.Validate(); err != nil {
		return err
	}

	rules, err := json.Marshal(schema.Rules)
	if err != nil {
		return fmt.Errorf("failed to encode import rules: %w", err)
	}

	schema.ID = uuid.New().String()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO schemas (id, source_id, data_type, priority, applies_to, mime_types, css_filter, rules, processors, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(position), -1) + 1 FROM schemas WHERE source_id = ?))
	`, schema.ID, schema.SourceID, string(schema.DataType), schema.Priority, schema.AppliesTo,
		joinLines(schema.MIMETypes), schema.CSSFilter, string(rules), joinLines(schema.Processors),
		schema.SourceID)
	if errors.Is(err, sqlite3.CONSTRAINT_FOREIGNKEY) {
		return sitecrawl.Errorf(sitecrawl.ENOTFOUND, "source not found")
	}
	return err
}

// FindSchemas retrieves the schemas of a source in selection order.
func (s *SchemaService) FindSchemas(ctx context.Context, sourceID string) ([]*sitecrawl.Schema, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_id, data_type, priority, applies_to, mime_types, css_filter, rules, processors
		FROM schemas
		WHERE source_id = ?
		ORDER BY priority ASC, position ASC
	`, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schemas []*sitecrawl.Schema
	for rows.Next() {
		var schema sitecrawl.Schema
		var dataType, mimeTypes, rules, processors string
		if err := rows.Scan(&schema.ID, &schema.SourceID, &dataType, &schema.Priority, &schema.AppliesTo,
			&mimeTypes, &schema.CSSFilter, &rules, &processors); err != nil {
			return nil, err
		}
		schema.DataType = sitecrawl.DataType(dataType)
		schema.MIMETypes = splitLines(mimeTypes)
		schema.Processors = splitLines(processors)
		if err := json.Unmarshal([]byte(rules), &schema.Rules); err != nil {
			return nil, fmt.Errorf("failed to decode import rules of schema %s: %w", schema.ID, err)
		}
		schemas = append(schemas, &schema)
	}

	return schemas, rows.Err()
}

// DeleteSchemas removes all schemas of a source.
func (s *SchemaService) DeleteSchemas(ctx context.Context, sourceID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM schemas WHERE source_id = ?", sourceID)
	return err
}
