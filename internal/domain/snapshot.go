package domain

// Tree names used in snapshots
const (
	TreeComponents = "components"
	TreeTenants    = "tenants"
)

// Snapshot is a flat, serializable copy of a resolved model. Only locally
// declared properties are kept; accumulation can be replayed from Parent.
type Snapshot struct {
	Digest     string         `json:"digest,omitempty" yaml:"digest,omitempty"`
	Components []SnapshotNode `json:"components" yaml:"components"`
	Tenants    []SnapshotNode `json:"tenants" yaml:"tenants"`
	URLSets    []URLSet       `json:"url_sets" yaml:"url_sets"`
}

// SnapshotNode is one node of either tree, in pre-order
type SnapshotNode struct {
	ID         string             `json:"id" yaml:"id"`
	Name       string             `json:"name" yaml:"name"`
	Origin     string             `json:"origin,omitempty" yaml:"origin,omitempty"`
	Parent     string             `json:"parent,omitempty" yaml:"parent,omitempty"`
	Properties []SnapshotProperty `json:"properties,omitempty" yaml:"properties,omitempty"`

	// Components holds the component ids a tenant declares
	Components []string `json:"components,omitempty" yaml:"components,omitempty"`
}

// SnapshotProperty is one local property value
type SnapshotProperty struct {
	Name     string `json:"name" yaml:"name"`
	Position int    `json:"position" yaml:"position"`
	Kind     string `json:"kind" yaml:"kind"`
	Value    any    `json:"value" yaml:"value"`
}

// TakeSnapshot flattens f. URL sets that fail validation are left out; they
// cannot be referenced by any node of a loaded model.
func TakeSnapshot(f *Facts, digest string) *Snapshot {
	s := &Snapshot{Digest: digest}
	for _, n := range f.components.PreOrder() {
		s.Components = append(s.Components, snapshotNode(n))
	}
	for _, t := range f.tenants.Tenants() {
		sn := snapshotNode(t.Node)
		for _, name := range t.ComponentNames() {
			if c, ok := t.Component(name); ok {
				sn.Components = append(sn.Components, c.ID())
			}
		}
		s.Tenants = append(s.Tenants, sn)
	}
	for _, name := range f.URLSetNames() {
		if set, err := f.URLSet(name); err == nil {
			s.URLSets = append(s.URLSets, *set)
		}
	}
	return s
}

func snapshotNode(n *Node) SnapshotNode {
	sn := SnapshotNode{ID: n.ID(), Name: n.Name(), Origin: n.Origin()}
	if p := n.Parent(); p != nil && !p.IsRoot() {
		sn.Parent = p.ID()
	}
	for _, name := range n.props.Names() {
		for i, p := range n.props.Get(name) {
			sn.Properties = append(sn.Properties, SnapshotProperty{
				Name:     name,
				Position: i,
				Kind:     p.Value.Kind().String(),
				Value:    snapshotValue(p.Value),
			})
		}
	}
	return sn
}

func snapshotValue(v Value) any {
	switch v.Kind() {
	case ValueURLSet:
		set, _ := v.URLSet()
		return *set
	case ValueLink:
		link, _ := v.Link()
		return link.URL
	}
	return Plain(v.Raw())
}
