package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// toolArgs carries every parameter any tool accepts; each tool reads
// the subset it declares.
type toolArgs struct {
	MedicationName string `json:"medication_name"`
	PatientID      string `json:"patient_id"`
	SearchTerm     string `json:"search_term"`
	Diagnosis      string `json:"diagnosis"`
}

// Definitions returns the function schemas advertised to the model.
func Definitions() []openai.Tool {
	medicationName := jsonschema.Definition{
		Type:        jsonschema.String,
		Description: "Name of the medication",
	}

	return []openai.Tool{
		functionTool("get_medication_dosage",
			"Get dosage and schedule information for a medication. Use for questions like 'How should I take X?' or 'What is the dosage for X?'.",
			map[string]jsonschema.Definition{
				"medication_name": medicationName,
				"patient_id": {
					Type:        jsonschema.String,
					Description: "Optional patient ID for patient-specific dosing",
				},
			},
			[]string{"medication_name"}),
		functionTool("get_drug_interactions",
			"Check for drug-drug interactions with a specific medication. Use for questions like 'What medications interact with X?' or 'What should I avoid while taking X?'.",
			map[string]jsonschema.Definition{
				"medication_name": medicationName,
			},
			[]string{"medication_name"}),
		functionTool("get_medication_info",
			"Get detailed information about a medication from the drug database. Use for questions like 'What is X used for?' or 'How does X work?'.",
			map[string]jsonschema.Definition{
				"medication_name": medicationName,
			},
			[]string{"medication_name"}),
		functionTool("get_patient_medications",
			"Get all medications prescribed to a specific patient. Use for questions like 'What medications am I taking?'.",
			map[string]jsonschema.Definition{
				"patient_id": {
					Type:        jsonschema.String,
					Description: "Patient identifier",
				},
			},
			[]string{"patient_id"}),
		functionTool("search_discharge_advice",
			"Search for discharge advice and instructions by topic. Use for questions like 'What should I do about my diet?' or 'What should I monitor?'.",
			map[string]jsonschema.Definition{
				"search_term": {
					Type:        jsonschema.String,
					Description: "Topic or keyword to search for (e.g. diet, exercise, monitoring)",
				},
				"medication_name": {
					Type:        jsonschema.String,
					Description: "Optional medication name to filter advice",
				},
			},
			[]string{"search_term"}),
		functionTool("check_contraindications",
			"Check if a medication is contraindicated for a specific condition. Use for questions like 'Can I take X if I have Y?'. Provide a medication name, a diagnosis, or both.",
			map[string]jsonschema.Definition{
				"medication_name": medicationName,
				"diagnosis": {
					Type:        jsonschema.String,
					Description: "Name of the medical condition",
				},
			},
			nil),
	}
}

func functionTool(name, description string, properties map[string]jsonschema.Definition, required []string) openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters: jsonschema.Definition{
				Type:       jsonschema.Object,
				Properties: properties,
				Required:   required,
			},
		},
	}
}

// Call dispatches a model-issued tool call by name. Unknown names
// return an error string rather than a Go error so the model can
// recover within the same turn.
func (t *Tools) Call(ctx context.Context, name, argumentsJSON string) string {
	var args toolArgs
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		return fmt.Sprintf("Error: could not parse arguments for %s: %v", name, err)
	}

	switch name {
	case "get_medication_dosage":
		return t.MedicationDosage(ctx, args.MedicationName, args.PatientID)
	case "get_drug_interactions":
		return t.DrugInteractions(ctx, args.MedicationName)
	case "get_medication_info":
		return t.MedicationInfo(ctx, args.MedicationName)
	case "get_patient_medications":
		return t.PatientMedications(ctx, args.PatientID)
	case "search_discharge_advice":
		return t.SearchAdvice(ctx, args.SearchTerm, args.MedicationName)
	case "check_contraindications":
		return t.CheckContraindications(ctx, args.MedicationName, args.Diagnosis)
	default:
		return fmt.Sprintf("Error: unknown tool %q", name)
	}
}
