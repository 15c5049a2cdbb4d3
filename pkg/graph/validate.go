package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/litgraph/backend/pkg/ai"
)

// ErrMalformedGraph marks model output that is not JSON or does not satisfy
// the graph contract.
var ErrMalformedGraph = errors.New("malformed graph")

// wire shape; pointers tell missing keys apart from zero values
type rawNode struct {
	ID     *string  `json:"id"`
	Weight *float64 `json:"weight"`
}

type rawEdge struct {
	Source      *string  `json:"source"`
	Target      *string  `json:"target"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Label       string   `json:"label"`
	Weight      *float64 `json:"weight"`
}

type rawGraph struct {
	Nodes *[]rawNode `json:"nodes"`
	Edges *[]rawEdge `json:"edges"`
}

// ToGraph parses raw model output as strict JSON and validates it. Errors
// wrap ErrMalformedGraph.
func ToGraph(raw string) (*Graph, error) {
	var rg rawGraph
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &rg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGraph, err)
	}
	return rg.validate()
}

// ToGraphFlexible is ToGraph with repair of near-JSON output (code fences,
// trailing commas, unquoted keys) before validation.
func ToGraphFlexible(raw string) (*Graph, error) {
	var rg rawGraph
	if err := ai.UnmarshalFlexible(raw, &rg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGraph, err)
	}
	return rg.validate()
}

func (rg rawGraph) validate() (*Graph, error) {
	if rg.Nodes == nil {
		return nil, fmt.Errorf("%w: missing nodes", ErrMalformedGraph)
	}
	if rg.Edges == nil {
		return nil, fmt.Errorf("%w: missing edges", ErrMalformedGraph)
	}

	g := &Graph{
		Nodes: make([]Node, 0, len(*rg.Nodes)),
		Edges: make([]Edge, 0, len(*rg.Edges)),
	}

	ids := make(map[string]struct{}, len(*rg.Nodes))
	for i, n := range *rg.Nodes {
		if n.ID == nil || strings.TrimSpace(*n.ID) == "" {
			return nil, fmt.Errorf("%w: node %d has no id", ErrMalformedGraph, i)
		}
		if _, dup := ids[*n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate node id %q", ErrMalformedGraph, *n.ID)
		}
		w, err := weight(n.Weight)
		if err != nil {
			return nil, fmt.Errorf("%w: node %q: %v", ErrMalformedGraph, *n.ID, err)
		}
		ids[*n.ID] = struct{}{}
		g.Nodes = append(g.Nodes, Node{ID: *n.ID, Weight: w})
	}

	for i, e := range *rg.Edges {
		if e.Source == nil {
			return nil, fmt.Errorf("%w: edge %d has no source", ErrMalformedGraph, i)
		}
		if e.Target == nil {
			return nil, fmt.Errorf("%w: edge %d has no target", ErrMalformedGraph, i)
		}
		if _, ok := ids[*e.Source]; !ok {
			return nil, fmt.Errorf("%w: edge %d source %q is not a declared node", ErrMalformedGraph, i, *e.Source)
		}
		if _, ok := ids[*e.Target]; !ok {
			return nil, fmt.Errorf("%w: edge %d target %q is not a declared node", ErrMalformedGraph, i, *e.Target)
		}
		w, err := weight(e.Weight)
		if err != nil {
			return nil, fmt.Errorf("%w: edge %d: %v", ErrMalformedGraph, i, err)
		}
		g.Edges = append(g.Edges, Edge{
			Source:      *e.Source,
			Target:      *e.Target,
			Type:        e.Type,
			Description: e.Description,
			Label:       e.Label,
			Weight:      w,
		})
	}

	return g, nil
}

// weight accepts integral numbers in [MinWeight, MaxWeight]; 3.0 is fine, 3.5 is not.
func weight(v *float64) (int, error) {
	if v == nil {
		return 0, errors.New("missing weight")
	}
	if *v != math.Trunc(*v) || *v < MinWeight || *v > MaxWeight {
		return 0, fmt.Errorf("weight %v outside %d-%d", *v, MinWeight, MaxWeight)
	}
	return int(*v), nil
}
