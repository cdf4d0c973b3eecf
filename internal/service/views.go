package service

import (
	"factsheet/internal/domain"
)

// NodeView is a node with its accumulated properties
type NodeView struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Title      string              `json:"title"`
	Origin     string              `json:"origin,omitempty"`
	Link       domain.Link         `json:"link"`
	Properties *domain.PropertyMap `json:"properties"`
}

func newNodeView(n *domain.Node, props *domain.PropertyMap) NodeView {
	return NodeView{
		ID:         n.ID(),
		Name:       n.Name(),
		Title:      n.HumanName(),
		Origin:     n.Origin(),
		Link:       docsLink(n),
		Properties: props,
	}
}

// docsLink returns the node's documentation link, or a bare label when the
// node has none.
func docsLink(n *domain.Node) domain.Link {
	if l := n.DocsLink(); l != nil {
		return *l
	}
	return domain.Link{Text: n.HumanName()}
}

// TenantView is a tenant and every component visible to it
type TenantView struct {
	NodeView
	Components []TenantComponent `json:"components"`
}

// TenantComponent is a component as seen from a tenant. Owner names the
// tenant that declared it; Inherited is set when that is an ancestor.
type TenantComponent struct {
	NodeView
	Owner     string `json:"owner"`
	Inherited bool   `json:"inherited"`
}

// ComponentView is the first node of a component name together with the
// tenants that use it
type ComponentView struct {
	NodeView
	Tenants []domain.Link `json:"tenants"`
}

// MonitoringView lists the monitoring entries of one tenant
type MonitoringView struct {
	Tenant  string            `json:"tenant"`
	Title   string            `json:"title"`
	Entries []MonitoringEntry `json:"entries"`
}

// MonitoringEntry is either a plain value or a key/value pair
type MonitoringEntry struct {
	Key   string `json:"key,omitempty"`
	Value string `json:"value"`
}

// Overview lists the top-level components and the whole tenant tree
type Overview struct {
	Components []OverviewItem `json:"components"`
	Tenants    []OverviewItem `json:"tenants"`
}

// OverviewItem is one entry of an overview list
type OverviewItem struct {
	ID       string         `json:"id"`
	Origin   string         `json:"origin,omitempty"`
	Link     domain.Link    `json:"link"`
	Children []OverviewItem `json:"children,omitempty"`
}

func overviewItem(n *domain.Node, recurse bool) OverviewItem {
	item := OverviewItem{ID: n.ID(), Origin: n.Origin(), Link: docsLink(n)}
	if recurse {
		for _, c := range n.Children() {
			item.Children = append(item.Children, overviewItem(c, true))
		}
	}
	return item
}

// ValidationReport is the result of checking one sheet
type ValidationReport struct {
	Sheet      string    `json:"sheet"`
	Digest     string    `json:"digest,omitempty"`
	Components int       `json:"components"`
	Tenants    int       `json:"tenants"`
	Error      string    `json:"error,omitempty"`
	Problems   []Problem `json:"problems,omitempty"`
}

// OK reports whether the sheet loaded and every node has its required
// properties
func (r *ValidationReport) OK() bool {
	return r.Error == "" && len(r.Problems) == 0
}

// Problem is a node lacking required properties
type Problem struct {
	Tree    string   `json:"tree"`
	ID      string   `json:"id"`
	Missing []string `json:"missing"`
}
