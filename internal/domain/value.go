package domain

import (
	"fmt"
	"strings"
)

// DefaultRepoURLTemplate expands a "project/repo" shorthand.
const DefaultRepoURLTemplate = "https://redmine.inuits.eu/projects/%s/repository/%s"

// Environment keys of a URL set
const (
	EnvDev  = "dev"
	EnvUAT  = "uat"
	EnvProd = "prod"
)

// Link is a URL with display text
type Link struct {
	URL  string `json:"url" yaml:"url"`
	Text string `json:"text" yaml:"text"`
}

// NewLink creates a link; empty text defaults to the URL
func NewLink(url, text string) Link {
	if text == "" {
		text = url
	}
	return Link{URL: url, Text: text}
}

// IsAbsoluteURL reports whether s starts with an http or https scheme
func IsAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http:") || strings.HasPrefix(s, "https:")
}

// MaybeLink returns a Link for absolute URLs and s unchanged otherwise
func MaybeLink(s string) any {
	if IsAbsoluteURL(s) {
		return NewLink(s, "")
	}
	return s
}

// Repo is a link to a source repository
type Repo struct {
	Link
}

// ParseRepo expands s with DefaultRepoURLTemplate
func ParseRepo(s string) (Repo, error) {
	return ParseRepoTemplate(DefaultRepoURLTemplate, s)
}

// ParseRepoTemplate passes absolute URLs through and expands a two-segment
// "project/repo" shorthand with tmpl.
func ParseRepoTemplate(tmpl, s string) (Repo, error) {
	if IsAbsoluteURL(s) {
		return Repo{Link: NewLink(s, "")}, nil
	}
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Repo{}, fmt.Errorf("%w %q", ErrInvalidRepo, s)
	}
	return Repo{Link: NewLink(fmt.Sprintf(tmpl, parts[0], parts[1]), s)}, nil
}

// MaybeRepo returns a Repo when s looks like a URL or a shorthand, and s
// unchanged otherwise.
func MaybeRepo(tmpl, s string) any {
	if !IsAbsoluteURL(s) && len(strings.Split(s, "/")) != 2 {
		return s
	}
	repo, err := ParseRepoTemplate(tmpl, s)
	if err != nil {
		return s
	}
	return repo
}

// URLSet holds per-environment URL lists
type URLSet struct {
	Name string   `json:"name" yaml:"name"`
	Dev  []string `json:"dev" yaml:"dev"`
	UAT  []string `json:"uat" yaml:"uat"`
	Prod []string `json:"prod" yaml:"prod"`
}

// NewURLSet validates raw and builds a URL set. Each of dev, uat and prod
// must be a string or a list of strings.
func NewURLSet(name string, raw any) (*URLSet, error) {
	rec, ok := raw.(*Record)
	if !ok {
		return nil, fmt.Errorf("%w %s: expected a mapping, got %T", ErrInvalidURLSet, name, raw)
	}

	set := &URLSet{Name: name}
	for _, env := range []struct {
		key  string
		dest *[]string
	}{
		{EnvDev, &set.Dev},
		{EnvUAT, &set.UAT},
		{EnvProd, &set.Prod},
	} {
		v, ok := rec.Get(env.key)
		if !ok {
			return nil, fmt.Errorf("%w %s, part %s: missing", ErrInvalidURLSet, name, env.key)
		}
		urls, err := stringList(v)
		if err != nil {
			return nil, fmt.Errorf("%w %s, part %s: %v", ErrInvalidURLSet, name, env.key, err)
		}
		*env.dest = urls
	}
	return set, nil
}

// Env returns the URLs of one environment
func (u *URLSet) Env(env string) []string {
	switch env {
	case EnvDev:
		return u.Dev
	case EnvUAT:
		return u.UAT
	case EnvProd:
		return u.Prod
	}
	return nil
}

func stringList(v any) ([]string, error) {
	items := asList(v)
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", item)
		}
		out = append(out, s)
	}
	return out, nil
}
