package queries

import (
	"errors"
	"fmt"
)

// Query pairs Cypher text with its bound parameters.
type Query struct {
	Text   string
	Params map[string]any
}

var (
	// ErrEmptySearch is returned when a fulltext builder receives input
	// that reduces to no searchable tokens. Callers treat it as "no
	// results" rather than executing an empty query.
	ErrEmptySearch = errors.New("search input contains no searchable tokens")

	// ErrNoFilter is returned when the contraindication builder is asked
	// for an unbounded query. It refuses rather than emitting a
	// match-all.
	ErrNoFilter = errors.New("no medication or diagnosis filter supplied")
)

// containsPattern builds the case-insensitive substring regex bound for
// name matching. The raw term stays a parameter; it never reaches the
// query text.
func containsPattern(term string) string {
	return fmt.Sprintf("(?i).*%s.*", term)
}

// FindMedicationByName builds a fulltext lookup resolving a possibly
// misspelled medication name to candidate nodes.
func FindMedicationByName(name string, limit int) (Query, error) {
	ft := GenerateFulltextQuery(name)
	if ft == "" {
		return Query{}, ErrEmptySearch
	}

	return Query{
		Text: `
CALL db.index.fulltext.queryNodes('medication_fulltext', $fulltextQuery, {limit: $limit})
YIELD node
RETURN node.name AS name,
       node.drugbank_id AS drugbank_id,
       node.description AS description`,
		Params: map[string]any{
			"fulltextQuery": ft,
			"limit":         limit,
		},
	}, nil
}

// MedicationSchedule builds the dosing-schedule lookup. With a patient
// ID the match is scoped to that patient's TAKES edges; without one it
// is a bounded global lookup.
func MedicationSchedule(medicationName, patientID string) Query {
	if patientID != "" {
		return Query{
			Text: `
MATCH (p:Patient {patient_id: $patient_id})-[:TAKES]->(m:Medication)
WHERE m.name =~ $med_pattern
OPTIONAL MATCH (m)-[:HAS_SCHEDULE]->(s:Schedule)
RETURN m.name AS medication,
       m.dosage AS dosage,
       m.route AS route,
       s.frequency AS frequency,
       s.timing AS timing,
       s.instructions AS instructions`,
			Params: map[string]any{
				"patient_id":  patientID,
				"med_pattern": containsPattern(medicationName),
			},
		}
	}

	return Query{
		Text: `
MATCH (m:Medication)
WHERE m.name =~ $med_pattern
OPTIONAL MATCH (m)-[:HAS_SCHEDULE]->(s:Schedule)
RETURN m.name AS medication,
       m.dosage AS dosage,
       m.route AS route,
       s.frequency AS frequency,
       s.timing AS timing,
       s.instructions AS instructions
LIMIT 5`,
		Params: map[string]any{
			"med_pattern": containsPattern(medicationName),
		},
	}
}

// DrugInteractions builds the interaction lookup. The relationship is
// matched undirected so either endpoint of a stored pair resolves, and
// results rank severe before moderate before mild.
func DrugInteractions(medicationName string) Query {
	return Query{
		Text: `
MATCH (m1:Medication)-[i:INTERACTS_WITH]-(m2:Medication)
WHERE m1.name =~ $med_pattern
RETURN m1.name AS medication,
       m2.name AS interacting_drug,
       i.severity AS severity,
       i.description AS description
ORDER BY
    CASE i.severity
        WHEN 'severe' THEN 1
        WHEN 'moderate' THEN 2
        WHEN 'mild' THEN 3
        ELSE 4
    END
LIMIT 10`,
		Params: map[string]any{
			"med_pattern": containsPattern(medicationName),
		},
	}
}

// Contraindications builds the medication/diagnosis contraindication
// lookup. At least one filter is required; an unfiltered call returns
// ErrNoFilter instead of a match-all query.
func Contraindications(medicationName, diagnosis string) (Query, error) {
	if medicationName == "" && diagnosis == "" {
		return Query{}, ErrNoFilter
	}

	where := ""
	params := map[string]any{}

	if medicationName != "" {
		where = "m.name =~ $med_pattern"
		params["med_pattern"] = containsPattern(medicationName)
	}
	if diagnosis != "" {
		if where != "" {
			where += " AND "
		}
		where += "d.name =~ $diag_pattern"
		params["diag_pattern"] = containsPattern(diagnosis)
	}

	return Query{
		Text: fmt.Sprintf(`
MATCH (m:Medication)-[c:CONTRAINDICATES]->(d:Diagnosis)
WHERE %s
RETURN m.name AS medication,
       d.name AS diagnosis,
       c.severity AS severity,
       c.reason AS reason
LIMIT 10`, where),
		Params: params,
	}, nil
}

// PatientMedications builds the per-patient medication listing.
func PatientMedications(patientID string) Query {
	return Query{
		Text: `
MATCH (p:Patient {patient_id: $patient_id})-[t:TAKES]->(m:Medication)
OPTIONAL MATCH (m)-[:HAS_SCHEDULE]->(s:Schedule)
RETURN p.patient_id AS patient_id,
       m.name AS medication,
       m.dosage AS dosage,
       m.route AS route,
       s.frequency AS frequency,
       s.instructions AS instructions,
       t.start_date AS start_date,
       t.end_date AS end_date
ORDER BY m.name`,
		Params: map[string]any{"patient_id": patientID},
	}
}

// PatientDiagnoses builds the per-patient diagnosis listing.
func PatientDiagnoses(patientID string) Query {
	return Query{
		Text: `
MATCH (p:Patient {patient_id: $patient_id})-[:HAS_DIAGNOSIS]->(d:Diagnosis)
RETURN p.patient_id AS patient_id,
       d.name AS diagnosis,
       d.code AS diagnosis_code
ORDER BY d.name`,
		Params: map[string]any{"patient_id": patientID},
	}
}

// PatientAdvice builds the per-patient advice listing, optionally
// filtered by category. The category filter presence is decided here;
// its value stays bound.
func PatientAdvice(patientID, category string) Query {
	where := ""
	params := map[string]any{"patient_id": patientID}

	if category != "" {
		where = "WHERE a.category = $category"
		params["category"] = category
	}

	return Query{
		Text: fmt.Sprintf(`
MATCH (p:Patient {patient_id: $patient_id})-[:RECEIVED_ADVICE]->(a:Advice)
%s
OPTIONAL MATCH (a)-[:ABOUT_MEDICATION]->(m:Medication)
RETURN a.text AS advice,
       a.category AS category,
       collect(m.name) AS related_medications
ORDER BY a.category`, where),
		Params: params,
	}
}

// SearchAdvice builds the fulltext advice search, optionally restricted
// to advice about a named medication.
func SearchAdvice(searchTerm, medicationName string, limit int) (Query, error) {
	ft := GenerateFulltextQuery(searchTerm)
	if ft == "" {
		return Query{}, ErrEmptySearch
	}

	params := map[string]any{
		"fulltextQuery": ft,
		"limit":         limit,
	}

	if medicationName != "" {
		params["med_pattern"] = containsPattern(medicationName)
		return Query{
			Text: `
CALL db.index.fulltext.queryNodes('advice_fulltext', $fulltextQuery, {limit: $limit})
YIELD node
MATCH (node)-[:ABOUT_MEDICATION]->(m:Medication)
WHERE m.name =~ $med_pattern
RETURN node.text AS advice,
       node.category AS category,
       m.name AS medication`,
			Params: params,
		}, nil
	}

	return Query{
		Text: `
CALL db.index.fulltext.queryNodes('advice_fulltext', $fulltextQuery, {limit: $limit})
YIELD node
OPTIONAL MATCH (node)-[:ABOUT_MEDICATION]->(m:Medication)
RETURN node.text AS advice,
       node.category AS category,
       collect(m.name) AS medications`,
		Params: params,
	}, nil
}

// DrugInfo builds the clinical-detail lookup for a single medication.
func DrugInfo(medicationName string) Query {
	return Query{
		Text: `
MATCH (m:Medication)
WHERE m.name =~ $med_pattern
RETURN m.name AS medication,
       m.drugbank_id AS drugbank_id,
       m.description AS description,
       m.indication AS indication,
       m.mechanism AS mechanism,
       m.pharmacodynamics AS pharmacodynamics,
       m.metabolism AS metabolism,
       m.toxicity AS toxicity
LIMIT 1`,
		Params: map[string]any{
			"med_pattern": containsPattern(medicationName),
		},
	}
}
