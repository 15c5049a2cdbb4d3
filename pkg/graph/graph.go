// Package graph holds the character-interaction graph returned to callers,
// the validation applied to model output, and the extraction call that
// produces it.
package graph

import "github.com/litgraph/backend/pkg/ai"

const (
	MinWeight = 1
	MaxWeight = 5

	// InteractionType is the edge type the extraction prompt asks for.
	InteractionType = "interaction"
)

// Node is a character appearing in the excerpt.
type Node struct {
	ID     string `json:"id" jsonschema_description:"Character name, unique within the graph"`
	Weight int    `json:"weight" jsonschema:"minimum=1,maximum=5" jsonschema_description:"Importance in the excerpt, 1 = minor, 5 = very important"`
}

// Edge is an interaction between two characters. Source and Target are node ids.
type Edge struct {
	Source      string `json:"source" jsonschema_description:"Id of the character starting the interaction"`
	Target      string `json:"target" jsonschema_description:"Id of the character on the receiving end"`
	Type        string `json:"type" jsonschema:"enum=interaction"`
	Description string `json:"description" jsonschema_description:"Brief description of the interaction"`
	Label       string `json:"label" jsonschema_description:"Short label such as argues, helps or greets"`
	Weight      int    `json:"weight" jsonschema:"minimum=1,maximum=5" jsonschema_description:"Strength of the interaction, 1 = minor, 5 = very strong"`
}

// Graph is the unit returned to callers and stored in the result cache.
// Once built it is treated as immutable.
type Graph struct {
	Nodes []Node `json:"nodes" jsonschema_description:"Characters that appear or interact in the excerpt"`
	Edges []Edge `json:"edges" jsonschema_description:"Interactions between those characters"`
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Schema returns the JSON schema of Graph, used for structured model output
// and published to clients.
func Schema() any {
	return ai.GenerateSchema(&Graph{})
}
