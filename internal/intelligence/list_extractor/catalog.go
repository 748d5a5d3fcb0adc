package list_extractor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/pkg/errors"
	"github.com/turtacn/ListSense/pkg/types/entity"
)

// ---------------------------------------------------------------------------
// File format
// ---------------------------------------------------------------------------

// CatalogFile is the on-disk form of a catalog. JSON files parse as well
// since the decoder is YAML.
type CatalogFile struct {
	Lists    []entity.ListEntityDef           `json:"lists" yaml:"lists"`
	Patterns []entity.PatternEntityDefinition `json:"patterns" yaml:"patterns"`
}

// ParseCatalog decodes a catalog document.
func ParseCatalog(data []byte) (CatalogFile, error) {
	var f CatalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return CatalogFile{}, errors.Wrap(err, errors.ErrCodeCatalogLoadFailed, "cannot decode catalog")
	}
	return f, nil
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// CatalogEntry is one named entity of the catalog. Exactly one of List and
// Pattern is set, according to Kind.
type CatalogEntry struct {
	Name    string                          `json:"name"`
	Kind    entity.Kind                     `json:"type"`
	List    *entity.EntityDefinition        `json:"list,omitempty"`
	Pattern *entity.PatternEntityDefinition `json:"pattern,omitempty"`
}

type catalogState struct {
	generation uint64
	order      []string
	lists      map[string]entity.EntityDefinition
	patterns   map[string]*PatternExtractor
}

func newCatalogState() *catalogState {
	return &catalogState{
		lists:    map[string]entity.EntityDefinition{},
		patterns: map[string]*PatternExtractor{},
	}
}

func (s *catalogState) has(name string) bool {
	_, l := s.lists[name]
	_, p := s.patterns[name]
	return l || p
}

func (s *catalogState) clone() *catalogState {
	c := &catalogState{
		order:    append([]string(nil), s.order...),
		lists:    make(map[string]entity.EntityDefinition, len(s.lists)),
		patterns: make(map[string]*PatternExtractor, len(s.patterns)),
	}
	for k, v := range s.lists {
		c.lists[k] = v
	}
	for k, v := range s.patterns {
		c.patterns[k] = v
	}
	return c
}

func (s *catalogState) remove(name string) {
	delete(s.lists, name)
	delete(s.patterns, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// Catalog is an in-memory registry of named list and pattern entities.
// Readers see a consistent snapshot; writers replace it atomically.
type Catalog struct {
	tokenizer Tokenizer
	logger    logging.Logger

	mu    sync.Mutex // serialises writers
	state atomic.Pointer[catalogState]
	gen   atomic.Uint64
}

// NewCatalog returns an empty catalog. Synonym text is split with tokenizer,
// SpaceTokenizer when nil.
func NewCatalog(tokenizer Tokenizer, logger logging.Logger) *Catalog {
	if tokenizer == nil {
		tokenizer = SpaceTokenizer
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &Catalog{tokenizer: tokenizer, logger: logger.Named("catalog")}
	c.publish(newCatalogState())
	return c
}

// publish stamps st with the next generation and makes it current.
func (c *Catalog) publish(st *catalogState) {
	st.generation = c.gen.Add(1)
	c.state.Store(st)
}

// Generation identifies the current catalog content. It changes on every
// successful mutation or reload.
func (c *Catalog) Generation() uint64 { return c.state.Load().generation }

func (c *Catalog) compile(f CatalogFile) (*catalogState, error) {
	st := newCatalogState()
	for _, def := range f.Lists {
		if st.has(def.Name) {
			return nil, errors.New(errors.ErrCodeConflict, "duplicate entity name").WithDetailf("entity=%s", def.Name)
		}
		compiled, err := def.Compile(c.tokenizer)
		if err != nil {
			return nil, err
		}
		st.lists[def.Name] = compiled
		st.order = append(st.order, def.Name)
	}
	for _, def := range f.Patterns {
		if st.has(def.Name) {
			return nil, errors.New(errors.ErrCodeConflict, "duplicate entity name").WithDetailf("entity=%s", def.Name)
		}
		p, err := NewPatternExtractor(def)
		if err != nil {
			return nil, err
		}
		st.patterns[def.Name] = p
		st.order = append(st.order, def.Name)
	}
	return st, nil
}

// Replace swaps the whole catalog for the content of f. On error the
// current catalog is left untouched.
func (c *Catalog) Replace(f CatalogFile) error {
	st, err := c.compile(f)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.publish(st)
	c.mu.Unlock()
	c.logger.Info("catalog replaced", logging.Int("lists", len(st.lists)), logging.Int("patterns", len(st.patterns)))
	return nil
}

// LoadFile reads path and replaces the catalog with its content. An empty
// file is rejected so that a truncate observed mid-write does not wipe the
// catalog.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCatalogLoadFailed, "cannot read catalog file").WithDetailf("path=%s", path)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New(errors.ErrCodeCatalogLoadFailed, "catalog file is empty").WithDetailf("path=%s", path)
	}
	f, err := ParseCatalog(data)
	if err != nil {
		return err
	}
	if err := c.Replace(f); err != nil {
		return errors.Wrap(err, errors.CodeUnknown, "cannot load catalog file").WithDetailf("path=%s", path)
	}
	return nil
}

// PutList compiles def and adds it, replacing any entity of the same name.
func (c *Catalog) PutList(def entity.ListEntityDef) (entity.EntityDefinition, error) {
	compiled, err := def.Compile(c.tokenizer)
	if err != nil {
		return entity.EntityDefinition{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state.Load().clone()
	st.remove(def.Name)
	st.lists[def.Name] = compiled
	st.order = append(st.order, def.Name)
	c.publish(st)
	return compiled, nil
}

// PutPattern compiles def and adds it, replacing any entity of the same name.
func (c *Catalog) PutPattern(def entity.PatternEntityDefinition) error {
	p, err := NewPatternExtractor(def)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state.Load().clone()
	st.remove(def.Name)
	st.patterns[def.Name] = p
	st.order = append(st.order, def.Name)
	c.publish(st)
	return nil
}

// Delete removes the named entity and reports whether it existed.
func (c *Catalog) Delete(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.state.Load()
	if !cur.has(name) {
		return false
	}
	st := cur.clone()
	st.remove(name)
	c.publish(st)
	return true
}

// Get returns the named entity.
func (c *Catalog) Get(name string) (CatalogEntry, bool) {
	return c.state.Load().entry(name)
}

func (s *catalogState) entry(name string) (CatalogEntry, bool) {
	if def, ok := s.lists[name]; ok {
		return CatalogEntry{Name: name, Kind: entity.KindList, List: &def}, true
	}
	if p, ok := s.patterns[name]; ok {
		def := p.Definition()
		return CatalogEntry{Name: name, Kind: entity.KindPattern, Pattern: &def}, true
	}
	return CatalogEntry{}, false
}

// List returns every entity in insertion order.
func (c *Catalog) List() []CatalogEntry {
	st := c.state.Load()
	out := make([]CatalogEntry, 0, len(st.order))
	for _, name := range st.order {
		if e, ok := st.entry(name); ok {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entities.
func (c *Catalog) Len() int { return len(c.state.Load().order) }

// Resolve builds the EntitySet for names. An empty names selects the whole
// catalog in insertion order. The set carries the generation it was built
// from.
func (c *Catalog) Resolve(names []string) (EntitySet, error) {
	st := c.state.Load()
	if len(names) == 0 {
		names = st.order
	}
	set := EntitySet{Generation: st.generation}
	for _, name := range names {
		if def, ok := st.lists[name]; ok {
			set.Lists = append(set.Lists, def)
			continue
		}
		if p, ok := st.patterns[name]; ok {
			set.Patterns = append(set.Patterns, p)
			continue
		}
		return EntitySet{}, errors.New(errors.ErrCodeEntityNotFound, "unknown entity").WithDetailf("entity=%s", name)
	}
	return set, nil
}

// ---------------------------------------------------------------------------
// Watcher
// ---------------------------------------------------------------------------

// CatalogWatcher reloads a Catalog whenever its source file changes.
type CatalogWatcher struct {
	catalog  *Catalog
	path     string
	watcher  *fsnotify.Watcher
	logger   logging.Logger
	onReload func(error)
	stop     chan struct{}
	once     sync.Once
}

// NewCatalogWatcher watches the directory of path so that editors replacing
// the file by rename are noticed too. onReload, when set, is called after
// every reload attempt.
func NewCatalogWatcher(catalog *Catalog, path string, logger logging.Logger, onReload func(error)) (*CatalogWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving catalog path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogLoadFailed, "cannot create file watcher")
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, errors.Wrap(err, errors.ErrCodeCatalogLoadFailed, "cannot watch catalog directory").WithDetailf("path=%s", abs)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CatalogWatcher{
		catalog:  catalog,
		path:     abs,
		watcher:  w,
		logger:   logger.Named("catalog_watcher"),
		onReload: onReload,
		stop:     make(chan struct{}),
	}, nil
}

// Start processes file events in the background until ctx ends or Stop is
// called.
func (w *CatalogWatcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

// Stop releases the underlying watcher. It is safe to call more than once.
func (w *CatalogWatcher) Stop() {
	w.once.Do(func() {
		close(w.stop)
		_ = w.watcher.Close()
	})
}

func (w *CatalogWatcher) loop(ctx context.Context) {
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			w.Stop()
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("catalog watcher error", logging.Err(err))
		}
	}
}

func (w *CatalogWatcher) reload() {
	err := w.catalog.LoadFile(w.path)
	if err != nil {
		w.logger.Error("catalog reload failed, keeping previous catalog", logging.String("path", w.path), logging.Err(err))
	} else {
		w.logger.Info("catalog reloaded", logging.String("path", w.path), logging.Int("entities", w.catalog.Len()))
	}
	if w.onReload != nil {
		w.onReload(err)
	}
}

//Personal.AI order the ending
