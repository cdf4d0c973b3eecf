// Package render turns service views into Markdown and Markdown into
// styled terminal output.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"factsheet/internal/domain"
	"factsheet/internal/service"
)

// knownProp is a property shown with a label, in this order, before any
// other property
type knownProp struct {
	key   string
	label string
}

var knownProps = []knownProp{
	{"redmine", "Redmine"},
	{"repository", "Repository"},
	{"urls", "URLs"},
	{"hiera", "Hiera"},
	{"puppet", "Puppet"},
	{"jenkins", "Jenkins"},
	{"servers", "Servers"},
	{"monitoring", "Monitoring"},
	{"components", "Components"},
	{"tenants", "Tenants"},
}

// hidden properties are shown as the title and link of a node instead
var hidden = map[string]bool{"name": true, "docs-link": true}

// tableProps go into the per-environment table
var tableProps = []string{"urls", "servers"}

// Renderer writes views as Markdown
type Renderer struct {
	repoTemplate string
}

// New creates a renderer expanding repository shorthands with repoTemplate.
// An empty template means domain.DefaultRepoURLTemplate.
func New(repoTemplate string) *Renderer {
	if repoTemplate == "" {
		repoTemplate = domain.DefaultRepoURLTemplate
	}
	return &Renderer{repoTemplate: repoTemplate}
}

// Properties renders the environment table followed by a labelled list of
// every other property. extra entries are appended as link lists.
func (r *Renderer) Properties(props *domain.PropertyMap, extra ...Section) string {
	var sb strings.Builder
	sb.WriteString(urlTable(props))

	done := map[string]bool{"urls": true, "servers": true}
	for _, kp := range knownProps {
		if done[kp.key] {
			continue
		}
		if values := props.Get(kp.key); len(values) > 0 {
			r.writeSection(&sb, kp.label, kp.key, values)
		}
		done[kp.key] = true
	}
	for _, name := range props.Names() {
		if done[name] || hidden[name] || len(props.Get(name)) == 0 {
			continue
		}
		r.writeSection(&sb, name, name, props.Get(name))
	}
	for _, s := range extra {
		if len(s.Links) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "**%s**\n\n", s.Label)
		for _, l := range s.Links {
			fmt.Fprintf(&sb, "- %s\n", link(l))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Section is an extra labelled list of links
type Section struct {
	Label string
	Links []domain.Link
}

func (r *Renderer) writeSection(sb *strings.Builder, label, key string, values []domain.Property) {
	fmt.Fprintf(sb, "**%s**\n\n", label)
	for _, p := range values {
		for _, item := range r.items(key, p.Value) {
			fmt.Fprintf(sb, "- %s\n", item)
		}
	}
	sb.WriteString("\n")
}

// items renders one property value as list items
func (r *Renderer) items(key string, v domain.Value) []string {
	if l, ok := v.Link(); ok {
		return []string{link(l)}
	}
	if rec, ok := v.Record(); ok {
		out := make([]string, 0, rec.Len())
		for _, k := range rec.Keys() {
			raw, _ := rec.Get(k)
			out = append(out, fmt.Sprintf("%s: %v", k, domain.Plain(raw)))
		}
		return out
	}

	s, ok := v.String()
	if !ok {
		return []string{v.Text()}
	}
	switch key {
	case "docs-link", "redmine":
		if l, ok := domain.MaybeLink(s).(domain.Link); ok {
			return []string{link(l)}
		}
	case "repository", "hiera", "puppet":
		if repo, ok := domain.MaybeRepo(r.repoTemplate, s).(domain.Repo); ok {
			return []string{link(repo.Link)}
		}
	}
	return []string{s}
}

// urlTable renders urls and servers as one row per value with a column per
// environment. Plain values fill every column.
func urlTable(props *domain.PropertyMap) string {
	var rows []string
	for _, key := range tableProps {
		for _, p := range props.Get(key) {
			set, ok := p.Value.URLSet()
			if !ok {
				text := p.Value.Text()
				set = &domain.URLSet{Dev: []string{text}, UAT: []string{text}, Prod: []string{text}}
			}
			rows = append(rows, fmt.Sprintf("| %s | %s | %s | %s |",
				label(key), cell(set.Dev), cell(set.UAT), cell(set.Prod)))
		}
	}
	if len(rows) == 0 {
		return ""
	}
	return "|  | DEV | UAT | PROD |\n|---|---|---|---|\n" + strings.Join(rows, "\n") + "\n\n"
}

func cell(urls []string) string {
	return strings.Join(urls, ", ")
}

func label(key string) string {
	for _, kp := range knownProps {
		if kp.key == key {
			return kp.label
		}
	}
	return key
}

func link(l domain.Link) string {
	if l.URL == "" {
		return l.Text
	}
	return fmt.Sprintf("[%s](%s)", l.Text, l.URL)
}

// Tenant renders a tenant followed by every component it sees
func (r *Renderer) Tenant(v *service.TenantView) string {
	var sb strings.Builder
	sb.WriteString(r.Properties(v.Properties))
	sb.WriteString("## Components\n")
	for _, c := range v.Components {
		fmt.Fprintf(&sb, "\n### %s", c.Title)
		if c.Inherited {
			fmt.Fprintf(&sb, " _(from %s)_", c.Owner)
		}
		sb.WriteString("\n\n")
		sb.WriteString(r.Properties(c.Properties))
	}
	return sb.String()
}

// Components renders component views. With more than one view each gets a
// heading.
func (r *Renderer) Components(views []service.ComponentView) string {
	var sb strings.Builder
	for _, v := range views {
		if len(views) > 1 {
			fmt.Fprintf(&sb, "## %s\n\n", v.Title)
		}
		sb.WriteString(r.Properties(v.Properties, Section{Label: label("tenants"), Links: v.Tenants}))
	}
	return sb.String()
}

// Monitoring renders one section per tenant
func (r *Renderer) Monitoring(views []service.MonitoringView) string {
	var sb strings.Builder
	for _, v := range views {
		fmt.Fprintf(&sb, "## %s\n\n", v.Title)
		for _, e := range v.Entries {
			if e.Key != "" {
				fmt.Fprintf(&sb, "- %s: %s\n", e.Key, e.Value)
				continue
			}
			fmt.Fprintf(&sb, "- %s\n", e.Value)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Overview renders the top-level components and the tenant tree
func (r *Renderer) Overview(v *service.Overview) string {
	var sb strings.Builder
	sb.WriteString("## Components\n\n")
	for _, c := range v.Components {
		fmt.Fprintf(&sb, "- %s\n", link(c.Link))
	}
	sb.WriteString("\n## Tenants\n\n")
	writeTree(&sb, v.Tenants, "")
	return sb.String()
}

func writeTree(sb *strings.Builder, items []service.OverviewItem, indent string) {
	for _, item := range items {
		sb.WriteString(indent + "- " + link(item.Link))
		if item.Origin != "" {
			sb.WriteString(" (" + item.Origin + ")")
		}
		sb.WriteString("\n")
		writeTree(sb, item.Children, indent+"    ")
	}
}

// Terminal renders Markdown for a terminal. Width 0 disables wrapping.
func Terminal(md string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return renderer.Render(md)
}
