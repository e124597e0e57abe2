// Package etl persists extracted nodes and relationships into the graph
// store. Keyed labels are upserted with MERGE; keyless labels are
// created fresh on every load.
package etl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/graphrx/medadvisor/pkg/driver"
	"github.com/graphrx/medadvisor/pkg/extract"
	"github.com/graphrx/medadvisor/pkg/notes"
	"github.com/graphrx/medadvisor/pkg/types"
)

// batchSize bounds how many nodes go into one write transaction.
const batchSize = 100

// Loader writes extracted graph elements to the store.
type Loader struct {
	runner driver.Runner
	logger *slog.Logger
}

// NewLoader creates a loader over the given runner.
func NewLoader(runner driver.Runner, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{runner: runner, logger: logger}
}

// LoadNode persists one node. Labels with a merge key are upserted:
// ON CREATE writes the full property set, ON MATCH merges new values
// over existing ones so enrichment never wipes note-derived fields.
// Keyless labels are always created.
func (l *Loader) LoadNode(ctx context.Context, node *types.Node) error {
	if !types.KnownLabel(node.Label) {
		return fmt.Errorf("unknown label %q", node.Label)
	}

	key, value := node.Key()
	if key == "" {
		_, err := l.runner.Write(ctx,
			fmt.Sprintf("CREATE (n:%s) SET n = $properties", node.Label),
			map[string]any{"properties": node.Properties})
		return err
	}
	if value == "" {
		return fmt.Errorf("%s node missing merge key %q", node.Label, key)
	}

	query := fmt.Sprintf(`
MERGE (n:%s {%s: $%s})
ON CREATE SET n = $properties
ON MATCH SET n += $properties`, node.Label, key, key)

	_, err := l.runner.Write(ctx, query, map[string]any{
		key:          value,
		"properties": node.Properties,
	})
	return err
}

// LoadNodes persists a slice of nodes in batches. A failing node is
// logged and skipped rather than aborting the batch; the count of
// successfully loaded nodes is returned.
func (l *Loader) LoadNodes(ctx context.Context, nodes []*types.Node) (int, error) {
	loaded := 0
	for start := 0; start < len(nodes); start += batchSize {
		end := start + batchSize
		if end > len(nodes) {
			end = len(nodes)
		}
		for _, node := range nodes[start:end] {
			if err := l.LoadNode(ctx, node); err != nil {
				l.logger.Warn("skipping node",
					"label", node.Label,
					"error", err)
				continue
			}
			loaded++
		}
	}
	return loaded, nil
}

// endpointMatch builds the Cypher fragment and parameters locating one
// relationship endpoint. Resolution order: merge key, then generated
// uuid, then label alone. The label-only fallback can match multiple
// nodes and is logged.
func (l *Loader) endpointMatch(alias string, node *types.Node) (string, map[string]any) {
	if key, value := node.Key(); key != "" && value != "" {
		param := alias + "_" + key
		return fmt.Sprintf("(%s:%s {%s: $%s})", alias, node.Label, key, param),
			map[string]any{param: value}
	}

	if id := node.UUID(); id != "" {
		param := alias + "_uuid"
		return fmt.Sprintf("(%s:%s {uuid: $%s})", alias, node.Label, param),
			map[string]any{param: id}
	}

	l.logger.Warn("relationship endpoint resolved by label only",
		"label", node.Label)
	return fmt.Sprintf("(%s:%s)", alias, node.Label), map[string]any{}
}

// LoadRelationship persists one edge between already-loaded endpoints.
func (l *Loader) LoadRelationship(ctx context.Context, rel *types.Relationship) error {
	if !types.KnownRelType(rel.Type) {
		return fmt.Errorf("unknown relationship type %q", rel.Type)
	}

	fromMatch, fromParams := l.endpointMatch("a", rel.From)
	toMatch, toParams := l.endpointMatch("b", rel.To)

	params := map[string]any{}
	for k, v := range fromParams {
		params[k] = v
	}
	for k, v := range toParams {
		params[k] = v
	}

	setClause := ""
	if len(rel.Properties) > 0 {
		setClause = "\nSET r += $rel_properties"
		params["rel_properties"] = rel.Properties
	}

	query := fmt.Sprintf(`
MATCH %s
MATCH %s
MERGE (a)-[r:%s]->(b)%s`, fromMatch, toMatch, rel.Type, setClause)

	_, err := l.runner.Write(ctx, query, params)
	return err
}

// LoadRelationships persists a slice of edges, logging and skipping
// failures. Returns the count successfully loaded.
func (l *Loader) LoadRelationships(ctx context.Context, rels []*types.Relationship) (int, error) {
	loaded := 0
	for _, rel := range rels {
		if err := l.LoadRelationship(ctx, rel); err != nil {
			l.logger.Warn("skipping relationship",
				"type", rel.Type,
				"error", err)
			continue
		}
		loaded++
	}
	return loaded, nil
}

// LoadDischargeNote extracts and persists everything a single note
// contains, interaction edges included.
func (l *Loader) LoadDischargeNote(ctx context.Context, note *types.DischargeNote) (int, int, error) {
	nodes, rels := extract.All(note)

	var medicationNodes []*types.Node
	for _, n := range nodes {
		if n.Label == types.LabelMedication {
			medicationNodes = append(medicationNodes, n)
		}
	}
	rels = append(rels, extract.KnownInteractions(medicationNodes)...)

	nodeCount, err := l.LoadNodes(ctx, nodes)
	if err != nil {
		return nodeCount, 0, err
	}
	relCount, err := l.LoadRelationships(ctx, rels)
	return nodeCount, relCount, err
}

// LoadNotesDir parses and loads the .txt files in dir. A positive
// limit caps how many files are processed, in directory order; zero
// means no cap. A file that fails to parse or load is logged and
// skipped; the loader presses on. Returns the number of notes loaded.
func (l *Loader) LoadNotesDir(ctx context.Context, dir string, limit int) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading notes directory: %w", err)
	}

	loaded := 0
	processed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		if limit > 0 && processed >= limit {
			break
		}
		processed++

		path := filepath.Join(dir, entry.Name())
		note, err := notes.ParseFile(path)
		if err != nil {
			l.logger.Warn("skipping unreadable note", "file", entry.Name(), "error", err)
			continue
		}

		nodeCount, relCount, err := l.LoadDischargeNote(ctx, note)
		if err != nil {
			l.logger.Warn("skipping note that failed to load", "file", entry.Name(), "error", err)
			continue
		}

		l.logger.Info("loaded discharge note",
			"file", entry.Name(),
			"patient_id", note.PatientID,
			"nodes", nodeCount,
			"relationships", relCount)
		loaded++
	}
	return loaded, nil
}

// LoadDrugFile parses a drug-database CSV and upserts one Medication
// node per record. Returns the number of medications loaded.
func (l *Loader) LoadDrugFile(ctx context.Context, path string) (int, error) {
	drugs, err := notes.ParseDrugFile(path)
	if err != nil {
		return 0, fmt.Errorf("parsing drug file: %w", err)
	}

	loaded, err := l.LoadNodes(ctx, extract.MedicationsFromRecords(drugs))
	if err != nil {
		return loaded, err
	}

	l.logger.Info("loaded drug database", "file", filepath.Base(path), "medications", loaded)
	return loaded, nil
}

// EnrichMedications copies clinical fields from drug-database nodes onto
// Medication nodes with the exact same name but no drugbank_id. Runs as
// a single store-side pass; returns how many nodes were enriched.
func (l *Loader) EnrichMedications(ctx context.Context) (int64, error) {
	rows, err := l.runner.Write(ctx, `
MATCH (dbMed:Medication)
WHERE dbMed.drugbank_id IS NOT NULL
MATCH (noteMed:Medication {name: dbMed.name})
WHERE noteMed.drugbank_id IS NULL
SET noteMed.drugbank_id = dbMed.drugbank_id,
    noteMed.description = dbMed.description,
    noteMed.indication = dbMed.indication,
    noteMed.pharmacodynamics = dbMed.pharmacodynamics,
    noteMed.mechanism = dbMed.mechanism,
    noteMed.metabolism = dbMed.metabolism,
    noteMed.toxicity = dbMed.toxicity
RETURN count(noteMed) AS enriched_count`, nil)
	if err != nil {
		return 0, fmt.Errorf("enriching medications: %w", err)
	}

	if len(rows) == 0 {
		return 0, nil
	}
	count, _ := rows[0]["enriched_count"].(int64)
	return count, nil
}
