package graphsync

import (
	"cogmap/domain/core/entities"
	"cogmap/domain/core/valueobjects"
	"cogmap/domain/services"
)

// DeepDepth is the depth from which nodes are flagged as deep
const DeepDepth = 3

// ViewNode is a render-ready node
type ViewNode struct {
	ID       string                `json:"id"`
	Label    string                `json:"label"`
	Depth    int                   `json:"depth"`
	ParentID string                `json:"parent,omitempty"`
	Position valueobjects.Position `json:"position"`
	Current  bool                  `json:"current"`
	Deep     bool                  `json:"deep"`
}

// View is an immutable render-ready snapshot of the state
type View struct {
	Version   uint64          `json:"version"`
	RootID    string          `json:"root_id"`
	CurrentID string          `json:"current_id"`
	Path      []string        `json:"path"`
	Nodes     []ViewNode      `json:"nodes"`
	Edges     []entities.Edge `json:"edges"`
}

// BuildView projects the state into a View
func BuildView(st *State, version uint64) View {
	nodes := make([]ViewNode, 0, len(st.Placed))
	for _, p := range st.Placed {
		// Labels may have changed since the last layout; read them live.
		n, ok := st.Tree.Node(p.Node.ID())
		if !ok {
			continue
		}
		nodes = append(nodes, ViewNode{
			ID:       n.ID().String(),
			Label:    n.Label(),
			Depth:    n.Depth(),
			ParentID: n.ParentID().String(),
			Position: p.Position,
			Current:  n.ID() == st.Current,
			Deep:     n.Depth() >= DeepDepth,
		})
	}

	path, err := services.ResolvePath(st.Tree, st.Current)
	if err != nil {
		path = []string{}
	}

	return View{
		Version:   version,
		RootID:    st.Tree.RootID().String(),
		CurrentID: st.Current.String(),
		Path:      path,
		Nodes:     nodes,
		Edges:     st.Tree.Edges(),
	}
}
