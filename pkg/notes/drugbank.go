package notes

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/graphrx/medadvisor/pkg/types"
)

// drugColumns maps export header names to record fields. The export has
// fixed columns but their order is not guaranteed, so parsing is
// header-driven.
var drugColumns = map[string]func(*types.DrugRecord, string){
	"drugbank_id":         func(r *types.DrugRecord, v string) { r.DrugbankID = v },
	"id":                  func(r *types.DrugRecord, v string) { r.DrugbankID = v },
	"name":                func(r *types.DrugRecord, v string) { r.Name = v },
	"description":         func(r *types.DrugRecord, v string) { r.Description = v },
	"indication":          func(r *types.DrugRecord, v string) { r.Indication = v },
	"pharmacodynamics":    func(r *types.DrugRecord, v string) { r.Pharmacodynamics = v },
	"mechanism":           func(r *types.DrugRecord, v string) { r.Mechanism = v },
	"mechanism_of_action": func(r *types.DrugRecord, v string) { r.Mechanism = v },
	"toxicity":            func(r *types.DrugRecord, v string) { r.Toxicity = v },
	"metabolism":          func(r *types.DrugRecord, v string) { r.Metabolism = v },
}

// ParseDrugCSV parses the drug-database export. Rows without a name are
// skipped; other missing fields stay empty.
func ParseDrugCSV(r io.Reader) ([]types.DrugRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading drug export header: %w", err)
	}

	setters := make([]func(*types.DrugRecord, string), len(header))
	for i, col := range header {
		setters[i] = drugColumns[strings.ToLower(strings.TrimSpace(col))]
	}

	var records []types.DrugRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading drug export row: %w", err)
		}

		var rec types.DrugRecord
		for i, v := range row {
			if i < len(setters) && setters[i] != nil {
				setters[i](&rec, strings.TrimSpace(v))
			}
		}
		if rec.Name == "" {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// ParseDrugFile parses the export at path.
func ParseDrugFile(path string) ([]types.DrugRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening drug export %s: %w", path, err)
	}
	defer f.Close()

	return ParseDrugCSV(f)
}
