package extract

import "github.com/graphrx/medadvisor/pkg/types"

// interactionPair is an unordered medication pair with its clinical
// interaction data.
type interactionPair struct {
	drug1, drug2 string
	severity     string
	description  string
}

// knownInteractions is a small fixed table. A fuller system would pull
// interactions from the drug database or an external registry.
var knownInteractions = []interactionPair{
	{"Warfarin", "Aspirin", "severe", "Increased risk of bleeding"},
	{"Lisinopril", "Metformin", "moderate", "Potential for hypoglycemia"},
}

// KnownInteractions returns an INTERACTS_WITH relationship for every
// table pair whose two endpoints are both present in the given node
// set. Pairs with a missing endpoint are skipped; each matched pair
// yields a single edge, stored once and queried undirected.
func KnownInteractions(medicationNodes []*types.Node) []*types.Relationship {
	var rels []*types.Relationship

	for _, pair := range knownInteractions {
		node1 := findMedicationNode(medicationNodes, pair.drug1)
		node2 := findMedicationNode(medicationNodes, pair.drug2)
		if node1 == nil || node2 == nil {
			continue
		}

		rels = append(rels, &types.Relationship{
			From: node1,
			Type: types.RelInteractsWith,
			To:   node2,
			Properties: map[string]any{
				"severity":    pair.severity,
				"description": pair.description,
			},
		})
	}

	return rels
}
