// Package sheets maps page URLs to factsheet documents and caches the
// resolved model of each document.
//
// A sheet is loaded on first use. It is reloaded only when its file's
// modification time moves past the cached one and the content digest
// changed, or after an explicit invalidation.
package sheets

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"golang.org/x/crypto/blake2b"

	"factsheet/internal/domain"
	"factsheet/internal/loader"
)

// ErrNoSheet is returned when a page URL matches no configured glob
var ErrNoSheet = errors.New("page does not match any factsheet glob")

// Sheet binds a page-URL glob to a document path
type Sheet struct {
	Glob string
	Path string
}

// Info describes the cache state of one sheet
type Info struct {
	Glob     string    `json:"glob"`
	Path     string    `json:"path"`
	Loaded   bool      `json:"loaded"`
	Digest   string    `json:"digest,omitempty"`
	ModTime  time.Time `json:"mod_time,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}

type entry struct {
	Sheet

	mu       sync.Mutex
	facts    *domain.Facts
	digest   string
	modTime  time.Time
	loadedAt time.Time
	stale    bool
}

func (e *entry) info() Info {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Info{
		Glob:     e.Glob,
		Path:     e.Path,
		Loaded:   e.facts != nil,
		Digest:   e.digest,
		ModTime:  e.modTime,
		LoadedAt: e.loadedAt,
	}
}

// Registry holds the configured sheets in priority order
type Registry struct {
	mu      sync.RWMutex
	entries []*entry
	logger  *log.Logger
	now     func() time.Time
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the registry logger
func WithLogger(l *log.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// New creates a registry. Globs are validated up front.
func New(sheets []Sheet, opts ...Option) (*Registry, error) {
	r := &Registry{
		logger: log.Default().WithPrefix("sheets"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.Configure(sheets); err != nil {
		return nil, err
	}
	return r, nil
}

// Configure replaces the sheet list. Cached models are kept for sheets whose
// glob and path are unchanged.
func (r *Registry) Configure(sheets []Sheet) error {
	for _, s := range sheets {
		if !doublestar.ValidatePattern(s.Glob) {
			return fmt.Errorf("invalid sheet glob %q", s.Glob)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old := make(map[Sheet]*entry, len(r.entries))
	for _, e := range r.entries {
		old[e.Sheet] = e
	}

	entries := make([]*entry, 0, len(sheets))
	for _, s := range sheets {
		if e, ok := old[s]; ok {
			entries = append(entries, e)
			continue
		}
		entries = append(entries, &entry{Sheet: s})
	}
	r.entries = entries
	return nil
}

// Match returns the first sheet whose glob matches page. "*" matches within
// one path segment and "**" across segments.
func (r *Registry) Match(page string) (Sheet, error) {
	e, err := r.match(page)
	if err != nil {
		return Sheet{}, err
	}
	return e.Sheet, nil
}

func (r *Registry) match(page string) (*entry, error) {
	page = NormalizePage(page)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if ok, _ := doublestar.Match(e.Glob, page); ok {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoSheet, page)
}

// Facts returns the resolved model for the sheet matching page, loading it
// when needed.
func (r *Registry) Facts(page string) (*domain.Facts, Info, error) {
	e, err := r.match(page)
	if err != nil {
		return nil, Info{}, err
	}
	facts, err := r.load(e)
	if err != nil {
		return nil, e.info(), err
	}
	return facts, e.info(), nil
}

// Load returns the resolved model of the document at path, bypassing glob
// matching. The path must belong to a configured sheet.
func (r *Registry) Load(path string) (*domain.Facts, Info, error) {
	r.mu.RLock()
	var found *entry
	for _, e := range r.entries {
		if e.Path == path {
			found = e
			break
		}
	}
	r.mu.RUnlock()

	if found == nil {
		return nil, Info{}, fmt.Errorf("%w: no sheet uses %s", ErrNoSheet, path)
	}
	facts, err := r.load(found)
	if err != nil {
		return nil, found.info(), err
	}
	return facts, found.info(), nil
}

func (r *Registry) load(e *entry) (*domain.Facts, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stat, err := os.Stat(e.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat sheet: %w", err)
	}
	if e.facts != nil && !e.stale && !stat.ModTime().After(e.modTime) {
		return e.facts, nil
	}

	data, err := os.ReadFile(e.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	digest := Digest(data)
	if e.facts != nil && digest == e.digest {
		r.logger.Debug("Sheet unchanged", "path", e.Path, "digest", shortDigest(digest))
		e.modTime = stat.ModTime()
		e.stale = false
		return e.facts, nil
	}

	doc, err := loader.ParserFor(e.Path)(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Path, err)
	}
	facts, err := domain.Load(doc)
	if err != nil {
		r.logger.Error("Failed to load sheet", "path", e.Path, "error", err)
		return nil, fmt.Errorf("%s: %w", e.Path, err)
	}

	e.facts = facts
	e.digest = digest
	e.modTime = stat.ModTime()
	e.loadedAt = r.now()
	e.stale = false
	r.logger.Info("Loaded sheet", "path", e.Path, "glob", e.Glob, "digest", shortDigest(digest))
	return facts, nil
}

// Invalidate marks every sheet backed by path as stale and reports whether
// any matched. The next access re-reads the file.
func (r *Registry) Invalidate(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := false
	for _, e := range r.entries {
		if e.Path != path {
			continue
		}
		e.mu.Lock()
		e.stale = true
		e.mu.Unlock()
		matched = true
	}
	return matched
}

// InvalidateAll marks every sheet as stale
func (r *Registry) InvalidateAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		e.mu.Lock()
		e.stale = true
		e.mu.Unlock()
	}
}

// Sheets returns the cache state of every sheet in priority order
func (r *Registry) Sheets() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.info())
	}
	return out
}

// Paths returns the distinct document paths
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, e := range r.entries {
		if !seen[e.Path] {
			seen[e.Path] = true
			out = append(out, e.Path)
		}
	}
	return out
}

// NormalizePage makes page an absolute URL path; empty means "/"
func NormalizePage(page string) string {
	if !strings.HasPrefix(page, "/") {
		page = "/" + page
	}
	return page
}

// Digest returns the hex BLAKE2b-256 digest of data
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
