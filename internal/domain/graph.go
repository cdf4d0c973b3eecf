package domain

// Graph groups
const (
	GroupComponent = "component"
	GroupTenant    = "tenant"
)

// Graph is a flattened view of both hierarchies
type Graph struct {
	Nodes []GraphNode `json:"nodes" yaml:"nodes"`
	Edges []GraphEdge `json:"edges" yaml:"edges"`
}

// GraphNode represents a node in the flattened view
type GraphNode struct {
	ID     string `json:"id" yaml:"id"`
	Label  string `json:"label" yaml:"label"`
	Group  string `json:"group" yaml:"group"` // "component" or "tenant"
	Origin string `json:"origin,omitempty" yaml:"origin,omitempty"`
	Title  string `json:"title" yaml:"title"` // Tooltip content
}

// GraphEdge links a node to its parent, or a tenant to a component it uses
type GraphEdge struct {
	ID   string `json:"id" yaml:"id"`
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	Kind string `json:"kind" yaml:"kind"` // "inherits" or "uses"
}

// DeriveGraph converts the resolved model into nodes and edges. Node ids are
// prefixed with their group since a tenant and a component may share an id.
func DeriveGraph(f *Facts) *Graph {
	graph := &Graph{
		Nodes: make([]GraphNode, 0, f.components.Len()+f.tenants.Len()),
	}

	for _, n := range f.components.PreOrder() {
		graph.addNode(GroupComponent, n)
	}
	for _, t := range f.tenants.Tenants() {
		graph.addNode(GroupTenant, t.Node)
		for _, name := range t.ComponentNames() {
			if c, ok := t.Component(name); ok {
				graph.addEdge(GroupTenant+":"+t.ID(), GroupComponent+":"+c.ID(), "uses")
			}
		}
	}

	return graph
}

func (g *Graph) addNode(group string, n *Node) {
	id := group + ":" + n.ID()
	g.Nodes = append(g.Nodes, GraphNode{
		ID:     id,
		Label:  n.HumanName(),
		Group:  group,
		Origin: n.Origin(),
		Title:  buildTooltip(n),
	})
	if p := n.Parent(); p != nil && !p.IsRoot() {
		g.addEdge(id, group+":"+p.ID(), "inherits")
	}
}

func (g *Graph) addEdge(from, to, kind string) {
	g.Edges = append(g.Edges, GraphEdge{
		ID:   from + "->" + to,
		From: from,
		To:   to,
		Kind: kind,
	})
}

func buildTooltip(n *Node) string {
	tooltip := n.ID()
	if n.Origin() != "" {
		tooltip += "\nfrom " + n.Origin()
	}
	if link := n.DocsLink(); link != nil {
		tooltip += "\n" + link.URL
	}
	return tooltip
}
