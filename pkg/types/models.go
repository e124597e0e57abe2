package types

// MedicationEntry is one medication line from a discharge note.
type MedicationEntry struct {
	Name         string
	Dosage       string
	Route        string
	Frequency    string
	Instructions string
}

// DischargeNote is a parsed discharge summary.
type DischargeNote struct {
	PatientID     string
	AdmissionDate string
	DischargeDate string
	Diagnoses     []string
	Medications   []MedicationEntry
	Instructions  string
	RawText       string
}

// DrugRecord is one row of the drug-database tabular export.
type DrugRecord struct {
	DrugbankID       string
	Name             string
	Description      string
	Indication       string
	Pharmacodynamics string
	Mechanism        string
	Toxicity         string
	Metabolism       string
}

// AdviceCategory classifies a discharge-instruction line.
type AdviceCategory string

const (
	AdviceFollowup   AdviceCategory = "followup"
	AdviceDiet       AdviceCategory = "diet"
	AdviceActivity   AdviceCategory = "activity"
	AdviceMonitoring AdviceCategory = "monitoring"
	AdviceMedication AdviceCategory = "medication"
	AdviceGeneral    AdviceCategory = "general"
)

// AdviceCategories lists all categories in their match-precedence order.
// Categorization tests keywords in this order and the first hit wins;
// general is the default when nothing matches.
var AdviceCategories = []AdviceCategory{
	AdviceFollowup,
	AdviceDiet,
	AdviceActivity,
	AdviceMonitoring,
	AdviceMedication,
	AdviceGeneral,
}
