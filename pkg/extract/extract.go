// Package extract turns parsed domain records into graph-ready node and
// relationship descriptors. It performs no I/O; persisting the output is
// the loader's job.
package extract

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/google/uuid"

	"github.com/graphrx/medadvisor/pkg/types"
)

// Patient derives a Patient node from a note. Notes without an explicit
// identifier get one hashed from a prefix of the raw text, truncated to
// a small range. That is deterministic but not collision-free; it is a
// demo-scale placeholder, not a production identifier scheme.
func Patient(note *types.DischargeNote) *types.Node {
	patientID := note.PatientID
	if patientID == "" {
		patientID = hashedPatientID(note.RawText)
	}

	return &types.Node{
		Label: types.LabelPatient,
		Properties: map[string]any{
			"patient_id":     patientID,
			"admission_date": note.AdmissionDate,
			"discharge_date": note.DischargeDate,
		},
	}
}

func hashedPatientID(rawText string) string {
	prefix := rawText
	if len(prefix) > 100 {
		prefix = prefix[:100]
	}
	h := fnv.New32a()
	h.Write([]byte(prefix))
	return fmt.Sprintf("patient_%d", h.Sum32()%10000)
}

// Medications maps each medication line to a Medication node carrying
// the note-derived fields. Clinical fields arrive later through the
// drug-database enrichment pass.
func Medications(note *types.DischargeNote) []*types.Node {
	nodes := make([]*types.Node, 0, len(note.Medications))
	for _, med := range note.Medications {
		nodes = append(nodes, &types.Node{
			Label: types.LabelMedication,
			Properties: map[string]any{
				"name":   med.Name,
				"dosage": med.Dosage,
				"route":  med.Route,
			},
		})
	}
	return nodes
}

// Diagnoses maps each diagnosis to a Diagnosis node.
func Diagnoses(note *types.DischargeNote) []*types.Node {
	nodes := make([]*types.Node, 0, len(note.Diagnoses))
	for _, diagnosis := range note.Diagnoses {
		nodes = append(nodes, &types.Node{
			Label: types.LabelDiagnosis,
			Properties: map[string]any{
				"name": diagnosis,
			},
		})
	}
	return nodes
}

// ScheduleEntry pairs a Schedule node with the medication it came from.
type ScheduleEntry struct {
	Node       *types.Node
	Medication types.MedicationEntry
}

// Schedules creates one Schedule node per medication occurrence with
// timing information. Schedules have no natural key; each carries a
// generated uuid so the loader can resolve relationship endpoints
// without a label-only scan. Re-ingesting the same note creates new
// Schedule nodes: the graph is append-only for keyless entities.
func Schedules(note *types.DischargeNote) []ScheduleEntry {
	var entries []ScheduleEntry
	for _, med := range note.Medications {
		if med.Frequency == "" && med.Instructions == "" {
			continue
		}
		entries = append(entries, ScheduleEntry{
			Node: &types.Node{
				Label: types.LabelSchedule,
				Properties: map[string]any{
					"uuid":         uuid.NewString(),
					"frequency":    med.Frequency,
					"timing":       med.Instructions,
					"instructions": med.Instructions,
				},
			},
			Medication: med,
		})
	}
	return entries
}

// Advice splits the free-text instructions block into one Advice node
// per non-empty line. Leading bullet markers are stripped and each line
// is classified into exactly one category. Advice nodes are keyless and
// append-only, like Schedules.
func Advice(note *types.DischargeNote) []*types.Node {
	if note.Instructions == "" {
		return nil
	}

	var nodes []*types.Node
	for _, line := range strings.Split(note.Instructions, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "-"), "•"))
		if line == "" {
			continue
		}

		nodes = append(nodes, &types.Node{
			Label: types.LabelAdvice,
			Properties: map[string]any{
				"uuid":     uuid.NewString(),
				"text":     line,
				"category": string(CategorizeAdvice(line)),
			},
		})
	}
	return nodes
}

// adviceKeywords lists each category's trigger words in match order.
// The first category whose keyword set intersects the lowercased line
// wins; general is the default.
var adviceKeywords = []struct {
	category types.AdviceCategory
	words    []string
}{
	{types.AdviceFollowup, []string{"follow up", "appointment", "visit"}},
	{types.AdviceDiet, []string{"diet", "eat", "food", "nutrition"}},
	{types.AdviceActivity, []string{"exercise", "activity", "walk"}},
	{types.AdviceMonitoring, []string{"monitor", "check", "measure", "test"}},
	{types.AdviceMedication, []string{"medication", "drug", "take", "dose"}},
}

// CategorizeAdvice assigns an advice line to exactly one category. The
// mapping is total and deterministic.
func CategorizeAdvice(text string) types.AdviceCategory {
	lower := strings.ToLower(text)
	for _, ak := range adviceKeywords {
		for _, word := range ak.words {
			if strings.Contains(lower, word) {
				return ak.category
			}
		}
	}
	return types.AdviceGeneral
}

// All extracts every node and relationship from a note: the patient,
// its medications, diagnoses, schedules and advice, plus the TAKES,
// HAS_DIAGNOSIS, HAS_SCHEDULE, RECEIVED_ADVICE and ABOUT_MEDICATION
// edges. ABOUT_MEDICATION links every (advice, medication) pair where
// the medication name appears as a case-insensitive substring of the
// advice text; short generic names can over-link.
func All(note *types.DischargeNote) ([]*types.Node, []*types.Relationship) {
	var nodes []*types.Node
	var rels []*types.Relationship

	patient := Patient(note)
	nodes = append(nodes, patient)

	medications := Medications(note)
	nodes = append(nodes, medications...)
	for _, med := range medications {
		rels = append(rels, &types.Relationship{From: patient, Type: types.RelTakes, To: med})
	}

	diagnoses := Diagnoses(note)
	nodes = append(nodes, diagnoses...)
	for _, diag := range diagnoses {
		rels = append(rels, &types.Relationship{From: patient, Type: types.RelHasDiagnosis, To: diag})
	}

	for _, entry := range Schedules(note) {
		nodes = append(nodes, entry.Node)
		if med := findMedicationNode(medications, entry.Medication.Name); med != nil {
			rels = append(rels, &types.Relationship{From: med, Type: types.RelHasSchedule, To: entry.Node})
		}
	}

	for _, advice := range Advice(note) {
		nodes = append(nodes, advice)
		rels = append(rels, &types.Relationship{From: patient, Type: types.RelReceivedAdvice, To: advice})

		text, _ := advice.Properties["text"].(string)
		lowerText := strings.ToLower(text)
		for _, med := range medications {
			if strings.Contains(lowerText, strings.ToLower(med.Name())) {
				rels = append(rels, &types.Relationship{From: advice, Type: types.RelAboutMedication, To: med})
			}
		}
	}

	return nodes, rels
}

func findMedicationNode(medications []*types.Node, name string) *types.Node {
	for _, med := range medications {
		if med.Name() == name {
			return med
		}
	}
	return nil
}

// MedicationFromRecord maps one drug-database record 1:1 onto a
// Medication node.
func MedicationFromRecord(drug types.DrugRecord) *types.Node {
	return &types.Node{
		Label: types.LabelMedication,
		Properties: map[string]any{
			"name":             drug.Name,
			"drugbank_id":      drug.DrugbankID,
			"description":      drug.Description,
			"indication":       drug.Indication,
			"pharmacodynamics": drug.Pharmacodynamics,
			"mechanism":        drug.Mechanism,
			"metabolism":       drug.Metabolism,
			"toxicity":         drug.Toxicity,
		},
	}
}

// MedicationsFromRecords maps every record.
func MedicationsFromRecords(drugs []types.DrugRecord) []*types.Node {
	nodes := make([]*types.Node, 0, len(drugs))
	for _, drug := range drugs {
		nodes = append(nodes, MedicationFromRecord(drug))
	}
	return nodes
}
