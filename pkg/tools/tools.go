// Package tools implements the retrieval tools the advisor agent calls
// to answer medication questions. Each tool runs a graph query and
// formats the rows into plain text the model can quote; errors surface
// as readable messages rather than failing the whole turn.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/graphrx/medadvisor/pkg/queries"
)

const (
	defaultQueryLimit      = 5
	defaultCandidatesLimit = 3
)

// Reader is the slice of the executor the tools need.
type Reader interface {
	Read(ctx context.Context, q queries.Query) ([]map[string]any, error)
}

// Tools bundles the retrieval tools over one executor.
type Tools struct {
	exec   Reader
	logger *slog.Logger
}

// New creates the tool set.
func New(exec Reader, logger *slog.Logger) *Tools {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tools{exec: exec, logger: logger}
}

// medicationCandidates resolves a possibly misspelled name to matching
// medication names via fulltext search. Failures degrade to an empty
// candidate list; the calling tool reports "not found".
func (t *Tools) medicationCandidates(ctx context.Context, name string) []string {
	q, err := queries.FindMedicationByName(name, defaultCandidatesLimit)
	if err != nil {
		return nil
	}

	rows, err := t.exec.Read(ctx, q)
	if err != nil {
		t.logger.Error("medication candidate lookup failed", "error", err)
		return nil
	}

	var candidates []string
	for _, row := range rows {
		if n, _ := row["name"].(string); n != "" {
			candidates = append(candidates, n)
		}
	}
	t.logger.Info("resolved medication candidates", "input", name, "count", len(candidates))
	return candidates
}

// MedicationDosage answers "how should I take X" questions. The name is
// fuzzy-resolved first; with a patient ID the schedule is scoped to
// that patient.
func (t *Tools) MedicationDosage(ctx context.Context, medicationName, patientID string) string {
	candidates := t.medicationCandidates(ctx, medicationName)
	if len(candidates) == 0 {
		return fmt.Sprintf("I couldn't find any medication matching '%s' in the knowledge graph. Please check the spelling or try a different name.", medicationName)
	}
	medicationName = candidates[0]

	rows, err := t.exec.Read(ctx, queries.MedicationSchedule(medicationName, patientID))
	if err != nil {
		t.logger.Error("dosage lookup failed", "error", err)
		return fmt.Sprintf("Error retrieving dosage information: %v", err)
	}

	return SanitizeUnicode(formatDosageRows(medicationName, rows))
}

func formatDosageRows(medicationName string, rows []map[string]any) string {
	if len(rows) == 0 {
		return fmt.Sprintf("No dosage information found for %s.", medicationName)
	}

	var parts []string
	for _, row := range rows {
		med := stringOr(row, "medication", medicationName)
		dosage := stringOr(row, "dosage", "dosage not specified")

		line := fmt.Sprintf("%s - %s", med, dosage)
		if route, _ := row["route"].(string); route != "" {
			line += ", " + route
		}
		if frequency, _ := row["frequency"].(string); frequency != "" {
			line += ", " + frequency
		}
		if instructions, _ := row["instructions"].(string); instructions != "" {
			line += fmt.Sprintf(" (%s)", instructions)
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, "\n")
}

// DrugInteractions lists known interactions for a medication, most
// severe first.
func (t *Tools) DrugInteractions(ctx context.Context, medicationName string) string {
	candidates := t.medicationCandidates(ctx, medicationName)
	if len(candidates) == 0 {
		return fmt.Sprintf("I couldn't find any medication matching '%s' in the knowledge graph.", medicationName)
	}
	medicationName = candidates[0]

	rows, err := t.exec.Read(ctx, queries.DrugInteractions(medicationName))
	if err != nil {
		t.logger.Error("interaction lookup failed", "error", err)
		return fmt.Sprintf("Error checking drug interactions: %v", err)
	}
	if len(rows) == 0 {
		return fmt.Sprintf("No known drug interactions found for %s in the knowledge graph.", medicationName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Known interactions for %s:\n\n", medicationName)
	for _, row := range rows {
		drug := stringOr(row, "interacting_drug", "Unknown drug")
		severity := stringOr(row, "severity", "Unknown")
		description := stringOr(row, "description", "No description available")

		fmt.Fprintf(&b, "- %s (Severity: %s)\n", drug, severity)
		fmt.Fprintf(&b, "  %s\n\n", description)
	}
	return SanitizeUnicode(strings.TrimSpace(b.String()))
}

// MedicationInfo returns the clinical drug-database details for a
// medication.
func (t *Tools) MedicationInfo(ctx context.Context, medicationName string) string {
	candidates := t.medicationCandidates(ctx, medicationName)
	if len(candidates) == 0 {
		return fmt.Sprintf("I couldn't find any medication matching '%s' in the knowledge graph.", medicationName)
	}
	medicationName = candidates[0]

	rows, err := t.exec.Read(ctx, queries.DrugInfo(medicationName))
	if err != nil {
		t.logger.Error("drug info lookup failed", "error", err)
		return fmt.Sprintf("Error retrieving medication information: %v", err)
	}
	if len(rows) == 0 {
		return fmt.Sprintf("No detailed information found for %s.", medicationName)
	}

	row := rows[0]
	var b strings.Builder
	fmt.Fprintf(&b, "Information about %s:\n\n", stringOr(row, "medication", medicationName))

	for _, section := range []struct{ heading, column string }{
		{"Description", "description"},
		{"Indication", "indication"},
		{"Mechanism", "mechanism"},
		{"Pharmacodynamics", "pharmacodynamics"},
	} {
		if v, _ := row[section.column].(string); v != "" {
			fmt.Fprintf(&b, "%s: %s\n\n", section.heading, v)
		}
	}
	return SanitizeUnicode(strings.TrimSpace(b.String()))
}

// PatientMedications lists every medication a patient takes.
func (t *Tools) PatientMedications(ctx context.Context, patientID string) string {
	rows, err := t.exec.Read(ctx, queries.PatientMedications(patientID))
	if err != nil {
		t.logger.Error("patient medication lookup failed", "error", err)
		return fmt.Sprintf("Error retrieving patient medications: %v", err)
	}
	if len(rows) == 0 {
		return fmt.Sprintf("No medications found for patient %s.", patientID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Medications for patient %s:\n\n", patientID)
	for i, row := range rows {
		med := stringOr(row, "medication", "Unknown medication")
		dosage := stringOr(row, "dosage", "dosage not specified")

		fmt.Fprintf(&b, "%d. %s - %s", i+1, med, dosage)
		if route, _ := row["route"].(string); route != "" {
			b.WriteString(", " + route)
		}
		if frequency, _ := row["frequency"].(string); frequency != "" {
			b.WriteString(", " + frequency)
		}
		if instructions, _ := row["instructions"].(string); instructions != "" {
			fmt.Fprintf(&b, " (%s)", instructions)
		}
		b.WriteString("\n")
	}
	return SanitizeUnicode(strings.TrimSpace(b.String()))
}

// SearchAdvice searches discharge advice by topic, optionally filtered
// to advice about a named medication.
func (t *Tools) SearchAdvice(ctx context.Context, searchTerm, medicationName string) string {
	q, err := queries.SearchAdvice(searchTerm, medicationName, defaultQueryLimit)
	if err != nil {
		if errors.Is(err, queries.ErrEmptySearch) {
			return fmt.Sprintf("No advice found related to '%s'.", searchTerm)
		}
		return fmt.Sprintf("Error searching advice: %v", err)
	}

	rows, readErr := t.exec.Read(ctx, q)
	if readErr != nil {
		t.logger.Error("advice search failed", "error", readErr)
		return fmt.Sprintf("Error searching advice: %v", readErr)
	}
	if len(rows) == 0 {
		return fmt.Sprintf("No advice found related to '%s'.", searchTerm)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Discharge advice related to '%s':\n\n", searchTerm)
	for i, row := range rows {
		advice := stringOr(row, "advice", "No advice text")
		category := stringOr(row, "category", "general")

		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, category, advice)

		if med, _ := row["medication"].(string); medicationName != "" && med != "" {
			fmt.Fprintf(&b, "   Related medication: %s\n", med)
		} else if meds := stringList(row["medications"]); len(meds) > 0 {
			fmt.Fprintf(&b, "   Related medications: %s\n", strings.Join(meds, ", "))
		}
	}
	return SanitizeUnicode(strings.TrimSpace(b.String()))
}

// CheckContraindications reports contraindications for a medication, a
// diagnosis, or the pair. At least one filter is required.
func (t *Tools) CheckContraindications(ctx context.Context, medicationName, diagnosis string) string {
	q, err := queries.Contraindications(medicationName, diagnosis)
	if err != nil {
		if errors.Is(err, queries.ErrNoFilter) {
			return "Please provide either a medication name or a diagnosis to check contraindications."
		}
		return fmt.Sprintf("Error checking contraindications: %v", err)
	}

	rows, readErr := t.exec.Read(ctx, q)
	if readErr != nil {
		t.logger.Error("contraindication lookup failed", "error", readErr)
		return fmt.Sprintf("Error checking contraindications: %v", readErr)
	}
	if len(rows) == 0 {
		switch {
		case medicationName != "" && diagnosis != "":
			return fmt.Sprintf("No contraindications found between %s and %s.", medicationName, diagnosis)
		case medicationName != "":
			return fmt.Sprintf("No contraindications found for %s.", medicationName)
		default:
			return fmt.Sprintf("No contraindications found for %s.", diagnosis)
		}
	}

	var b strings.Builder
	b.WriteString("Contraindications found:\n\n")
	for _, row := range rows {
		med := stringOr(row, "medication", "Unknown medication")
		diag := stringOr(row, "diagnosis", "Unknown condition")
		severity := stringOr(row, "severity", "Unknown")
		reason := stringOr(row, "reason", "No reason provided")

		fmt.Fprintf(&b, "- %s is contraindicated for %s\n", med, diag)
		fmt.Fprintf(&b, "  Severity: %s\n", severity)
		fmt.Fprintf(&b, "  Reason: %s\n\n", reason)
	}
	return SanitizeUnicode(strings.TrimSpace(b.String()))
}

func stringOr(row map[string]any, key, fallback string) string {
	if v, _ := row[key].(string); v != "" {
		return v
	}
	return fallback
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, _ := item.(string); s != "" {
			out = append(out, s)
		}
	}
	return out
}
