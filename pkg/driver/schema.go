package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrWipeNotConfirmed is returned when ClearDatabase is called without
// explicit confirmation.
var ErrWipeNotConfirmed = errors.New("database wipe requires explicit confirmation")

// schemaConstraints are the uniqueness constraints backing node
// identity. Upserts rely on them: a Medication with a drugbank_id must
// target the node keyed by name, never create a duplicate.
var schemaConstraints = []string{
	"CREATE CONSTRAINT patient_id_unique IF NOT EXISTS FOR (p:Patient) REQUIRE p.patient_id IS UNIQUE",
	"CREATE CONSTRAINT medication_name_unique IF NOT EXISTS FOR (m:Medication) REQUIRE m.name IS UNIQUE",
	"CREATE CONSTRAINT diagnosis_name_unique IF NOT EXISTS FOR (d:Diagnosis) REQUIRE d.name IS UNIQUE",
	"CREATE CONSTRAINT drugbank_id_unique IF NOT EXISTS FOR (m:Medication) REQUIRE m.drugbank_id IS UNIQUE",
}

var schemaIndexes = []string{
	"CREATE INDEX medication_name_index IF NOT EXISTS FOR (m:Medication) ON (m.name)",
	"CREATE INDEX diagnosis_name_index IF NOT EXISTS FOR (d:Diagnosis) ON (d.name)",
	"CREATE INDEX patient_id_index IF NOT EXISTS FOR (p:Patient) ON (p.patient_id)",
	"CREATE INDEX schedule_frequency_index IF NOT EXISTS FOR (s:Schedule) ON (s.frequency)",
}

var schemaFulltextIndexes = []string{
	`CREATE FULLTEXT INDEX medication_fulltext IF NOT EXISTS
FOR (m:Medication) ON EACH [m.name, m.description, m.indication]`,
	`CREATE FULLTEXT INDEX diagnosis_fulltext IF NOT EXISTS
FOR (d:Diagnosis) ON EACH [d.name]`,
	`CREATE FULLTEXT INDEX advice_fulltext IF NOT EXISTS
FOR (a:Advice) ON EACH [a.text, a.category, a.details]`,
}

// SchemaManager creates and inspects the store-side schema.
type SchemaManager struct {
	runner Runner
	logger *slog.Logger
}

// NewSchemaManager creates a schema manager over the given runner.
func NewSchemaManager(runner Runner, logger *slog.Logger) *SchemaManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SchemaManager{runner: runner, logger: logger}
}

// Initialize creates all constraints and indexes. Statements use IF NOT
// EXISTS, so re-running is harmless.
func (s *SchemaManager) Initialize(ctx context.Context) error {
	groups := [][]string{schemaConstraints, schemaIndexes, schemaFulltextIndexes}

	for _, group := range groups {
		for _, stmt := range group {
			if _, err := s.runner.Write(ctx, stmt, nil); err != nil {
				return fmt.Errorf("schema statement failed: %w", err)
			}
			s.logger.Debug("applied schema statement", "statement", firstLine(stmt))
		}
	}

	s.logger.Info("schema initialized",
		"constraints", len(schemaConstraints),
		"indexes", len(schemaIndexes),
		"fulltext_indexes", len(schemaFulltextIndexes))
	return nil
}

// ClearDatabase deletes every node and relationship. The confirm flag
// gates the wipe; callers must collect explicit confirmation first.
func (s *SchemaManager) ClearDatabase(ctx context.Context, confirm bool) error {
	if !confirm {
		return ErrWipeNotConfirmed
	}

	if _, err := s.runner.Write(ctx, "MATCH (n) DETACH DELETE n", nil); err != nil {
		return fmt.Errorf("clearing database: %w", err)
	}
	s.logger.Warn("database cleared")
	return nil
}

// Stats summarizes the graph contents.
type Stats struct {
	Nodes         map[string]int64
	Relationships map[string]int64
}

// GetStats returns node counts by label and relationship counts by type.
func (s *SchemaManager) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Nodes:         map[string]int64{},
		Relationships: map[string]int64{},
	}

	nodeRows, err := s.runner.Read(ctx, `
MATCH (n)
WITH labels(n) as labels
UNWIND labels as label
RETURN label, count(*) as count
ORDER BY count DESC`, nil)
	if err != nil {
		return nil, fmt.Errorf("counting nodes: %w", err)
	}
	for _, row := range nodeRows {
		label, _ := row["label"].(string)
		count, _ := row["count"].(int64)
		stats.Nodes[label] = count
	}

	relRows, err := s.runner.Read(ctx, `
MATCH ()-[r]->()
WITH type(r) as rel_type
RETURN rel_type, count(*) as count
ORDER BY count DESC`, nil)
	if err != nil {
		return nil, fmt.Errorf("counting relationships: %w", err)
	}
	for _, row := range relRows {
		relType, _ := row["rel_type"].(string)
		count, _ := row["count"].(int64)
		stats.Relationships[relType] = count
	}

	return stats, nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
