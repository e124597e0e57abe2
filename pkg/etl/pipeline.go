package etl

import (
	"context"
	"fmt"
)

// PipelineResult aggregates counts from a full ingestion run.
type PipelineResult struct {
	Medications int
	Notes       int
	Enriched    int64
}

// RunPipeline runs the full ingestion: drug database first so the
// clinical records exist, then discharge notes, then the enrichment
// pass tying the two together. Either source may be empty; enrichment
// only runs when both were loaded. A positive noteLimit caps how many
// note files are processed. Connectivity is verified up front so a
// misconfigured store fails fast instead of half-loading.
func (l *Loader) RunPipeline(ctx context.Context, drugFile, notesDir string, noteLimit int) (*PipelineResult, error) {
	if err := l.runner.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verifying store connectivity: %w", err)
	}

	result := &PipelineResult{}

	if drugFile != "" {
		count, err := l.LoadDrugFile(ctx, drugFile)
		if err != nil {
			return result, err
		}
		result.Medications = count
	}

	if notesDir != "" {
		count, err := l.LoadNotesDir(ctx, notesDir, noteLimit)
		if err != nil {
			return result, err
		}
		result.Notes = count
	}

	if drugFile != "" && notesDir != "" {
		enriched, err := l.EnrichMedications(ctx)
		if err != nil {
			return result, err
		}
		result.Enriched = enriched
	}

	l.logger.Info("ingestion pipeline complete",
		"medications", result.Medications,
		"notes", result.Notes,
		"enriched", result.Enriched)
	return result, nil
}
