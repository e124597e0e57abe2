package types

// Label identifies a node label from the fixed graph vocabulary.
type Label string

const (
	LabelPatient    Label = "Patient"
	LabelMedication Label = "Medication"
	LabelDiagnosis  Label = "Diagnosis"
	LabelSchedule   Label = "Schedule"
	LabelAdvice     Label = "Advice"
)

// RelType identifies a relationship type from the fixed graph vocabulary.
type RelType string

const (
	RelTakes           RelType = "TAKES"
	RelHasDiagnosis    RelType = "HAS_DIAGNOSIS"
	RelHasSchedule     RelType = "HAS_SCHEDULE"
	RelReceivedAdvice  RelType = "RECEIVED_ADVICE"
	RelAboutMedication RelType = "ABOUT_MEDICATION"
	RelInteractsWith   RelType = "INTERACTS_WITH"
	RelContraindicates RelType = "CONTRAINDICATES"
)

// mergeKeys maps each label to the property that identifies a node for
// upserts. Labels without an entry are append-only: every load creates a
// fresh node. Schedule and Advice deliberately have no natural key; they
// carry a generated uuid property instead so relationship endpoints can
// still be resolved precisely.
var mergeKeys = map[Label]string{
	LabelPatient:    "patient_id",
	LabelMedication: "name",
	LabelDiagnosis:  "name",
}

// MergeKey returns the merge-key property for a label, or "" when the
// label is append-only.
func MergeKey(label Label) string {
	return mergeKeys[label]
}

// KnownLabel reports whether label belongs to the fixed vocabulary.
func KnownLabel(label Label) bool {
	switch label {
	case LabelPatient, LabelMedication, LabelDiagnosis, LabelSchedule, LabelAdvice:
		return true
	}
	return false
}

// KnownRelType reports whether rel belongs to the fixed vocabulary.
func KnownRelType(rel RelType) bool {
	switch rel {
	case RelTakes, RelHasDiagnosis, RelHasSchedule, RelReceivedAdvice,
		RelAboutMedication, RelInteractsWith, RelContraindicates:
		return true
	}
	return false
}

// Node is a graph-ready node descriptor produced by the extractors.
type Node struct {
	Label      Label
	Properties map[string]any
}

// Relationship is a graph-ready edge descriptor. Endpoints reference the
// extracted node values; the loader resolves them in the store by merge
// key, then by uuid, then by label alone.
type Relationship struct {
	From       *Node
	Type       RelType
	To         *Node
	Properties map[string]any
}

// Key returns the node's merge-key value, or "" when the node has none
// or does not carry it.
func (n *Node) Key() (string, string) {
	key := MergeKey(n.Label)
	if key == "" {
		return "", ""
	}
	v, ok := n.Properties[key]
	if !ok {
		return key, ""
	}
	s, _ := v.(string)
	return key, s
}

// UUID returns the node's generated uuid property, if present.
func (n *Node) UUID() string {
	s, _ := n.Properties["uuid"].(string)
	return s
}

// Name returns the node's name property, if present.
func (n *Node) Name() string {
	s, _ := n.Properties["name"].(string)
	return s
}
