package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/graphrx/medadvisor/pkg/queries"
)

// fakeExecutor routes reads by query shape: fulltext candidate lookups
// get the candidates; everything else gets rows.
type fakeExecutor struct {
	candidates []string
	rows       []map[string]any
	err        error
	lastQuery  queries.Query
}

func (f *fakeExecutor) Read(ctx context.Context, q queries.Query) ([]map[string]any, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	if strings.Contains(q.Text, "medication_fulltext") {
		rows := make([]map[string]any, 0, len(f.candidates))
		for _, name := range f.candidates {
			rows = append(rows, map[string]any{"name": name})
		}
		return rows, nil
	}
	return f.rows, nil
}

func TestMedicationDosage(t *testing.T) {
	t.Run("fuzzy name resolves then formats", func(t *testing.T) {
		exec := &fakeExecutor{
			candidates: []string{"Metformin"},
			rows: []map[string]any{{
				"medication":   "Metformin",
				"dosage":       "500mg",
				"route":        "oral",
				"frequency":    "twice daily",
				"instructions": "with meals",
			}},
		}
		got := New(exec, nil).MedicationDosage(context.Background(), "metfromin", "")

		want := "Metformin - 500mg, oral, twice daily (with meals)"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("unknown medication", func(t *testing.T) {
		got := New(&fakeExecutor{}, nil).MedicationDosage(context.Background(), "unobtainium", "")
		if !strings.Contains(got, "couldn't find any medication matching 'unobtainium'") {
			t.Errorf("got %q", got)
		}
	})

	t.Run("no schedule rows", func(t *testing.T) {
		exec := &fakeExecutor{candidates: []string{"Metformin"}}
		got := New(exec, nil).MedicationDosage(context.Background(), "Metformin", "")
		if got != "No dosage information found for Metformin." {
			t.Errorf("got %q", got)
		}
	})
}

func TestDrugInteractions(t *testing.T) {
	exec := &fakeExecutor{
		candidates: []string{"Warfarin"},
		rows: []map[string]any{{
			"medication":       "Warfarin",
			"interacting_drug": "Aspirin",
			"severity":         "severe",
			"description":      "Increased risk of bleeding",
		}},
	}
	got := New(exec, nil).DrugInteractions(context.Background(), "warfarin")

	if !strings.Contains(got, "Known interactions for Warfarin:") {
		t.Errorf("missing heading: %q", got)
	}
	if !strings.Contains(got, "- Aspirin (Severity: severe)") {
		t.Errorf("missing interaction line: %q", got)
	}
	if !strings.Contains(got, "Increased risk of bleeding") {
		t.Errorf("missing description: %q", got)
	}
}

func TestDrugInteractionsNone(t *testing.T) {
	exec := &fakeExecutor{candidates: []string{"Metformin"}}
	got := New(exec, nil).DrugInteractions(context.Background(), "Metformin")
	if got != "No known drug interactions found for Metformin in the knowledge graph." {
		t.Errorf("got %q", got)
	}
}

func TestMedicationInfoSkipsEmptyFields(t *testing.T) {
	exec := &fakeExecutor{
		candidates: []string{"Metformin"},
		rows: []map[string]any{{
			"medication":  "Metformin",
			"description": "A biguanide antihyperglycemic",
			"indication":  "Type 2 diabetes",
		}},
	}
	got := New(exec, nil).MedicationInfo(context.Background(), "Metformin")

	if !strings.Contains(got, "Description: A biguanide antihyperglycemic") {
		t.Errorf("missing description: %q", got)
	}
	if strings.Contains(got, "Mechanism:") {
		t.Errorf("empty field must be omitted: %q", got)
	}
}

func TestPatientMedicationsNumbering(t *testing.T) {
	exec := &fakeExecutor{rows: []map[string]any{
		{"medication": "Lisinopril", "dosage": "10mg", "frequency": "once daily"},
		{"medication": "Metformin", "dosage": "500mg", "route": "oral"},
	}}
	got := New(exec, nil).PatientMedications(context.Background(), "TEST123")

	if !strings.Contains(got, "Medications for patient TEST123:") {
		t.Errorf("missing heading: %q", got)
	}
	if !strings.Contains(got, "1. Lisinopril - 10mg, once daily") {
		t.Errorf("missing first entry: %q", got)
	}
	if !strings.Contains(got, "2. Metformin - 500mg, oral") {
		t.Errorf("missing second entry: %q", got)
	}
}

func TestSearchAdvice(t *testing.T) {
	t.Run("with related medications", func(t *testing.T) {
		exec := &fakeExecutor{rows: []map[string]any{{
			"advice":      "Monitor blood glucose levels twice daily",
			"category":    "monitoring",
			"medications": []any{"Metformin"},
		}}}
		got := New(exec, nil).SearchAdvice(context.Background(), "monitoring", "")

		if !strings.Contains(got, "1. [monitoring] Monitor blood glucose levels twice daily") {
			t.Errorf("missing advice line: %q", got)
		}
		if !strings.Contains(got, "Related medications: Metformin") {
			t.Errorf("missing related medications: %q", got)
		}
	})

	t.Run("empty search term", func(t *testing.T) {
		got := New(&fakeExecutor{}, nil).SearchAdvice(context.Background(), "   ", "")
		if !strings.Contains(got, "No advice found related to") {
			t.Errorf("got %q", got)
		}
	})
}

func TestCheckContraindications(t *testing.T) {
	t.Run("requires a filter", func(t *testing.T) {
		got := New(&fakeExecutor{}, nil).CheckContraindications(context.Background(), "", "")
		if got != "Please provide either a medication name or a diagnosis to check contraindications." {
			t.Errorf("got %q", got)
		}
	})

	t.Run("none found names both filters", func(t *testing.T) {
		got := New(&fakeExecutor{}, nil).CheckContraindications(context.Background(), "Metformin", "Heart Failure")
		if got != "No contraindications found between Metformin and Heart Failure." {
			t.Errorf("got %q", got)
		}
	})

	t.Run("formats findings", func(t *testing.T) {
		exec := &fakeExecutor{rows: []map[string]any{{
			"medication": "Metformin",
			"diagnosis":  "Severe Renal Impairment",
			"severity":   "severe",
			"reason":     "Risk of lactic acidosis",
		}}}
		got := New(exec, nil).CheckContraindications(context.Background(), "Metformin", "")

		if !strings.Contains(got, "- Metformin is contraindicated for Severe Renal Impairment") {
			t.Errorf("missing finding: %q", got)
		}
		if !strings.Contains(got, "Reason: Risk of lactic acidosis") {
			t.Errorf("missing reason: %q", got)
		}
	})
}

func TestToolErrorsAreMessages(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("store offline")}
	got := New(exec, nil).PatientMedications(context.Background(), "TEST123")
	if !strings.HasPrefix(got, "Error retrieving patient medications:") {
		t.Errorf("got %q", got)
	}
}

func TestSanitizeUnicode(t *testing.T) {
	got := SanitizeUnicode("Dose ≥500mg — take 10µg ± “daily”")
	if strings.ContainsFunc(got, func(r rune) bool { return r > 127 }) {
		t.Errorf("non-ASCII survived: %q", got)
	}
	if !strings.Contains(got, ">=500mg") {
		t.Errorf("symbol not translated: %q", got)
	}
}

func TestCallDispatch(t *testing.T) {
	exec := &fakeExecutor{rows: []map[string]any{
		{"medication": "Metformin", "dosage": "500mg"},
	}}
	tl := New(exec, nil)

	got := tl.Call(context.Background(), "get_patient_medications", `{"patient_id": "TEST123"}`)
	if !strings.Contains(got, "Medications for patient TEST123") {
		t.Errorf("dispatch failed: %q", got)
	}

	got = tl.Call(context.Background(), "launch_rockets", `{}`)
	if !strings.Contains(got, "unknown tool") {
		t.Errorf("unknown tool must be reported: %q", got)
	}

	got = tl.Call(context.Background(), "get_medication_dosage", `{"medication_name":`)
	if !strings.Contains(got, "could not parse arguments") {
		t.Errorf("bad arguments must be reported: %q", got)
	}
}

func TestDefinitionsCoverEveryTool(t *testing.T) {
	defs := Definitions()
	if len(defs) != 6 {
		t.Fatalf("definitions = %d, want 6", len(defs))
	}

	names := map[string]bool{}
	for _, d := range defs {
		names[d.Function.Name] = true
	}
	for _, want := range []string{
		"get_medication_dosage",
		"get_drug_interactions",
		"get_medication_info",
		"get_patient_medications",
		"search_discharge_advice",
		"check_contraindications",
	} {
		if !names[want] {
			t.Errorf("missing definition %s", want)
		}
	}
}
