// Package notes parses the upstream data sources: free-text discharge
// summaries with recognizable section headers and the drug-database
// tabular export.
package notes

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/graphrx/medadvisor/pkg/types"
)

var (
	mrnPattern           = regexp.MustCompile(`MRN[:\s]+([A-Z0-9]+)`)
	patientIDPattern     = regexp.MustCompile(`Patient\s+ID[:\s]+([A-Z0-9]+)`)
	admissionPattern     = regexp.MustCompile(`(?i)Date\s+of\s+admission[:\s]+(\d{1,2}/\d{1,2}/\d{4})`)
	dischargePattern     = regexp.MustCompile(`(?i)Date\s+of\s+discharge[:\s]+(\d{1,2}/\d{1,2}/\d{4})`)
	diagnosesSection     = regexp.MustCompile(`(?s)DISCHARGE\s+DIAGNOS[IE]S?:(.+?)(?:\n\n|\nMEDICATIONS|\nDISCHARGE\s+MEDICATIONS)`)
	medicationsSection   = regexp.MustCompile(`(?s)(?:DISCHARGE\s+)?MEDICATIONS?(?:\s+ON\s+DISCHARGE)?:(.+?)(?:\n\n[A-Z]|\nDISCHARGE\s+INSTRUCTIONS|$)`)
	instructionsSection  = regexp.MustCompile(`(?s)DISCHARGE\s+INSTRUCTIONS:(.+?)(?:\n\n[A-Z]|$)`)
	medicationLine       = regexp.MustCompile(`(?m)^\s*\d+\.\s+([A-Z][a-zA-Z]+)\s+(\d+\s?m?c?g)\s*[-–]\s*Take\s+(.+)$`)
	diagnosisLinePrefix  = regexp.MustCompile(`^\s*\d+\.\s*`)
	frequencyNormalizers = []struct {
		pattern *regexp.Regexp
		norm    string
	}{
		{regexp.MustCompile(`(?i)once\s+daily`), "once daily"},
		{regexp.MustCompile(`(?i)twice\s+daily`), "twice daily"},
		{regexp.MustCompile(`(?i)three\s+times\s+daily`), "three times daily"},
		{regexp.MustCompile(`(?i)four\s+times\s+daily`), "four times daily"},
		{regexp.MustCompile(`\bQD\b`), "once daily"},
		{regexp.MustCompile(`\bBID\b`), "twice daily"},
		{regexp.MustCompile(`\bTID\b`), "three times daily"},
		{regexp.MustCompile(`\bQID\b`), "four times daily"},
	}
)

// routePhrases maps normalized routes to the phrases that signal them.
var routePhrases = []struct {
	route   string
	phrases []string
}{
	{"oral", []string{"by mouth", "orally", "po"}},
	{"IV", []string{"intravenous", "iv"}},
	{"subcutaneous", []string{"subcutaneous", "sc", "sq"}},
}

// instructionPhrases are timing phrases lifted verbatim when present.
var instructionPhrases = []string{
	"with meals",
	"at bedtime",
	"in the morning",
}

// ParseText parses a raw discharge summary. Missing sections produce
// zero-valued fields rather than errors; the extractor tolerates them.
func ParseText(text string) *types.DischargeNote {
	note := &types.DischargeNote{RawText: text}

	if m := mrnPattern.FindStringSubmatch(text); m != nil {
		note.PatientID = m[1]
	} else if m := patientIDPattern.FindStringSubmatch(text); m != nil {
		note.PatientID = m[1]
	}

	if m := admissionPattern.FindStringSubmatch(text); m != nil {
		note.AdmissionDate = m[1]
	}
	if m := dischargePattern.FindStringSubmatch(text); m != nil {
		note.DischargeDate = m[1]
	}

	if m := diagnosesSection.FindStringSubmatch(text); m != nil {
		note.Diagnoses = parseDiagnoses(m[1])
	}
	if m := medicationsSection.FindStringSubmatch(text); m != nil {
		note.Medications = parseMedications(m[1])
	}
	if m := instructionsSection.FindStringSubmatch(text); m != nil {
		note.Instructions = strings.TrimSpace(m[1])
	}

	return note
}

// ParseFile reads and parses one note file.
func ParseFile(path string) (*types.DischargeNote, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading note %s: %w", path, err)
	}
	return ParseText(string(data)), nil
}

func parseDiagnoses(section string) []string {
	var diagnoses []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(diagnosisLinePrefix.ReplaceAllString(line, ""))
		if line != "" {
			diagnoses = append(diagnoses, line)
		}
	}
	return diagnoses
}

func parseMedications(section string) []types.MedicationEntry {
	var meds []types.MedicationEntry
	for _, m := range medicationLine.FindAllStringSubmatch(section, -1) {
		directions := strings.TrimSpace(m[3])
		meds = append(meds, types.MedicationEntry{
			Name:         m[1],
			Dosage:       strings.TrimSpace(m[2]),
			Route:        detectRoute(directions),
			Frequency:    detectFrequency(directions),
			Instructions: detectInstructions(directions),
		})
	}
	return meds
}

func detectRoute(directions string) string {
	lower := strings.ToLower(directions)
	for _, rp := range routePhrases {
		for _, phrase := range rp.phrases {
			if strings.Contains(lower, phrase) {
				return rp.route
			}
		}
	}
	return ""
}

func detectFrequency(directions string) string {
	for _, fn := range frequencyNormalizers {
		if fn.pattern.MatchString(directions) {
			return fn.norm
		}
	}
	return ""
}

func detectInstructions(directions string) string {
	lower := strings.ToLower(directions)
	for _, phrase := range instructionPhrases {
		if strings.Contains(lower, phrase) {
			return phrase
		}
	}
	return ""
}
