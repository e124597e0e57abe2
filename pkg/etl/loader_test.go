package etl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/graphrx/medadvisor/pkg/types"
)

type recordedCall struct {
	query  string
	params map[string]any
}

type fakeRunner struct {
	writes      []recordedCall
	rows        []map[string]any
	err         error
	connErr     error
	failPattern string
}

func (f *fakeRunner) Read(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	return f.rows, f.err
}

func (f *fakeRunner) Write(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	f.writes = append(f.writes, recordedCall{query: query, params: params})
	if f.failPattern != "" && strings.Contains(query, f.failPattern) {
		return nil, errors.New("induced failure")
	}
	return f.rows, f.err
}

func (f *fakeRunner) VerifyConnectivity(ctx context.Context) error { return f.connErr }
func (f *fakeRunner) Close(ctx context.Context) error              { return nil }

func TestLoadNodeMerge(t *testing.T) {
	runner := &fakeRunner{}
	loader := NewLoader(runner, nil)

	err := loader.LoadNode(context.Background(), &types.Node{
		Label:      types.LabelMedication,
		Properties: map[string]any{"name": "Metformin", "dosage": "500mg"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(runner.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(runner.writes))
	}
	call := runner.writes[0]
	if !strings.Contains(call.query, "MERGE (n:Medication {name: $name})") {
		t.Errorf("query missing keyed MERGE: %s", call.query)
	}
	if !strings.Contains(call.query, "ON MATCH SET n += $properties") {
		t.Errorf("query must merge properties on match: %s", call.query)
	}
	if call.params["name"] != "Metformin" {
		t.Errorf("merge key param = %v", call.params["name"])
	}
}

func TestLoadNodeKeylessCreates(t *testing.T) {
	runner := &fakeRunner{}
	loader := NewLoader(runner, nil)

	err := loader.LoadNode(context.Background(), &types.Node{
		Label:      types.LabelSchedule,
		Properties: map[string]any{"uuid": "abc", "frequency": "twice daily"},
	})
	if err != nil {
		t.Fatal(err)
	}

	query := runner.writes[0].query
	if !strings.Contains(query, "CREATE (n:Schedule)") {
		t.Errorf("keyless label must CREATE, got: %s", query)
	}
	if strings.Contains(query, "MERGE") {
		t.Errorf("keyless label must not MERGE, got: %s", query)
	}
}

func TestLoadNodeRejectsUnknownLabel(t *testing.T) {
	loader := NewLoader(&fakeRunner{}, nil)
	err := loader.LoadNode(context.Background(), &types.Node{Label: "Gadget"})
	if err == nil {
		t.Fatal("expected error for unknown label")
	}
}

func TestLoadNodeMissingMergeKey(t *testing.T) {
	loader := NewLoader(&fakeRunner{}, nil)
	err := loader.LoadNode(context.Background(), &types.Node{
		Label:      types.LabelPatient,
		Properties: map[string]any{"admission_date": "01/15/2024"},
	})
	if err == nil {
		t.Fatal("expected error for patient without patient_id")
	}
}

func TestLoadNodesSkipsFailures(t *testing.T) {
	runner := &fakeRunner{failPattern: ":Diagnosis"}
	loader := NewLoader(runner, nil)

	loaded, err := loader.LoadNodes(context.Background(), []*types.Node{
		{Label: types.LabelMedication, Properties: map[string]any{"name": "Aspirin"}},
		{Label: types.LabelDiagnosis, Properties: map[string]any{"name": "Hypertension"}},
		{Label: types.LabelMedication, Properties: map[string]any{"name": "Warfarin"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if loaded != 2 {
		t.Errorf("loaded = %d, want 2 with one induced failure", loaded)
	}
}

func TestLoadRelationshipEndpointResolution(t *testing.T) {
	patient := &types.Node{Label: types.LabelPatient, Properties: map[string]any{"patient_id": "TEST123"}}
	medication := &types.Node{Label: types.LabelMedication, Properties: map[string]any{"name": "Metformin"}}
	schedule := &types.Node{Label: types.LabelSchedule, Properties: map[string]any{"uuid": "u-1"}}
	bareAdvice := &types.Node{Label: types.LabelAdvice, Properties: map[string]any{"text": "rest"}}

	t.Run("merge keys", func(t *testing.T) {
		runner := &fakeRunner{}
		loader := NewLoader(runner, nil)

		err := loader.LoadRelationship(context.Background(), &types.Relationship{
			From: patient, Type: types.RelTakes, To: medication,
		})
		if err != nil {
			t.Fatal(err)
		}

		call := runner.writes[0]
		if !strings.Contains(call.query, "(a:Patient {patient_id: $a_patient_id})") {
			t.Errorf("from endpoint not keyed: %s", call.query)
		}
		if !strings.Contains(call.query, "(b:Medication {name: $b_name})") {
			t.Errorf("to endpoint not keyed: %s", call.query)
		}
		if !strings.Contains(call.query, "MERGE (a)-[r:TAKES]->(b)") {
			t.Errorf("edge not merged: %s", call.query)
		}
		if call.params["a_patient_id"] != "TEST123" || call.params["b_name"] != "Metformin" {
			t.Errorf("params = %v", call.params)
		}
	})

	t.Run("uuid fallback", func(t *testing.T) {
		runner := &fakeRunner{}
		loader := NewLoader(runner, nil)

		err := loader.LoadRelationship(context.Background(), &types.Relationship{
			From: medication, Type: types.RelHasSchedule, To: schedule,
		})
		if err != nil {
			t.Fatal(err)
		}

		call := runner.writes[0]
		if !strings.Contains(call.query, "(b:Schedule {uuid: $b_uuid})") {
			t.Errorf("keyless endpoint must match by uuid: %s", call.query)
		}
		if call.params["b_uuid"] != "u-1" {
			t.Errorf("uuid param = %v", call.params["b_uuid"])
		}
	})

	t.Run("label-only last resort", func(t *testing.T) {
		runner := &fakeRunner{}
		loader := NewLoader(runner, nil)

		err := loader.LoadRelationship(context.Background(), &types.Relationship{
			From: patient, Type: types.RelReceivedAdvice, To: bareAdvice,
		})
		if err != nil {
			t.Fatal(err)
		}

		if !strings.Contains(runner.writes[0].query, "(b:Advice)") {
			t.Errorf("expected label-only match: %s", runner.writes[0].query)
		}
	})
}

func TestLoadRelationshipProperties(t *testing.T) {
	runner := &fakeRunner{}
	loader := NewLoader(runner, nil)

	warfarin := &types.Node{Label: types.LabelMedication, Properties: map[string]any{"name": "Warfarin"}}
	aspirin := &types.Node{Label: types.LabelMedication, Properties: map[string]any{"name": "Aspirin"}}

	err := loader.LoadRelationship(context.Background(), &types.Relationship{
		From: warfarin, Type: types.RelInteractsWith, To: aspirin,
		Properties: map[string]any{"severity": "severe", "description": "Increased risk of bleeding"},
	})
	if err != nil {
		t.Fatal(err)
	}

	call := runner.writes[0]
	if !strings.Contains(call.query, "SET r += $rel_properties") {
		t.Errorf("edge properties not set: %s", call.query)
	}
	props, ok := call.params["rel_properties"].(map[string]any)
	if !ok || props["severity"] != "severe" {
		t.Errorf("rel_properties = %v", call.params["rel_properties"])
	}
}

const sampleNoteText = `DISCHARGE SUMMARY

Patient ID: TEST123
Admission Date: 01/15/2024
Discharge Date: 01/20/2024

DISCHARGE DIAGNOSES:
1. Type 2 Diabetes Mellitus

DISCHARGE MEDICATIONS:
1. Metformin 500mg - Take twice daily by mouth with meals

DISCHARGE INSTRUCTIONS:
- Monitor blood glucose levels twice daily
- Take Metformin with meals

FOLLOW-UP:
See Dr. Smith in 2 weeks.
`

func TestLoadNotesDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "note1.txt"), []byte(sampleNoteText), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.csv"), []byte("not a note"), 0o644); err != nil {
		t.Fatal(err)
	}

	runner := &fakeRunner{}
	loader := NewLoader(runner, nil)

	loaded, err := loader.LoadNotesDir(context.Background(), dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if loaded != 1 {
		t.Errorf("loaded = %d, want 1 (.csv must be ignored)", loaded)
	}
	if len(runner.writes) == 0 {
		t.Error("expected node and relationship writes")
	}
}

func TestLoadNotesDirLimit(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"note1.txt", "note2.txt", "note3.txt", "note4.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(sampleNoteText), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("caps processed files", func(t *testing.T) {
		loader := NewLoader(&fakeRunner{}, nil)
		loaded, err := loader.LoadNotesDir(context.Background(), dir, 2)
		if err != nil {
			t.Fatal(err)
		}
		if loaded != 2 {
			t.Errorf("loaded = %d, want 2 with limit 2", loaded)
		}
	})

	t.Run("zero means no cap", func(t *testing.T) {
		loader := NewLoader(&fakeRunner{}, nil)
		loaded, err := loader.LoadNotesDir(context.Background(), dir, 0)
		if err != nil {
			t.Fatal(err)
		}
		if loaded != 4 {
			t.Errorf("loaded = %d, want 4 with no limit", loaded)
		}
	})
}

func TestEnrichMedications(t *testing.T) {
	runner := &fakeRunner{rows: []map[string]any{{"enriched_count": int64(3)}}}
	loader := NewLoader(runner, nil)

	count, err := loader.EnrichMedications(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("enriched = %d, want 3", count)
	}

	query := runner.writes[0].query
	for _, field := range []string{"drugbank_id", "description", "indication", "pharmacodynamics", "mechanism", "metabolism", "toxicity"} {
		if !strings.Contains(query, field) {
			t.Errorf("enrichment query missing field %s", field)
		}
	}

	// Matching is by exact name; "Metformin" and "metformin" are
	// distinct nodes and stay unenriched.
	if !strings.Contains(query, "{name: dbMed.name}") {
		t.Errorf("enrichment must match on exact name: %s", query)
	}
	if strings.Contains(query, "toLower") {
		t.Errorf("enrichment must not fold case: %s", query)
	}
}

func TestRunPipelineUnreachableStore(t *testing.T) {
	runner := &fakeRunner{connErr: errors.New("connection refused")}
	loader := NewLoader(runner, nil)

	_, err := loader.RunPipeline(context.Background(), "", "", 0)
	if err == nil {
		t.Fatal("expected connectivity failure")
	}
	if len(runner.writes) != 0 {
		t.Errorf("no writes may happen when the store is unreachable, got %d", len(runner.writes))
	}
}
