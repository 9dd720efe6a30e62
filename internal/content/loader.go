package content

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"path"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/wings-of-wisdom/internal/models"
)

//go:embed data
var embedded embed.FS

const (
	laureatesFile = "laureates.yaml"
	quizFile      = "quiz.yaml"
	quotesFile    = "quotes.yaml"
	modalsDir     = "modals"
)

// Loader holds the static site content: catalog, quiz, quotes and modal bodies
type Loader struct {
	mu   sync.RWMutex
	snap *snapshot
}

type snapshot struct {
	laureates []models.Laureate
	questions []models.QuizQuestion
	quotes    []models.Quote
	entries   map[models.ContentKind][]*models.ContentEntry
	index     map[models.ContentKind]map[string]*models.ContentEntry
}

// NewLoader creates an empty loader
func NewLoader() *Loader {
	return &Loader{snap: newSnapshot()}
}

// Load reads the embedded content and then applies dir on top of it, if set
func Load(dir string) (*Loader, error) {
	l := NewLoader()
	if err := l.LoadEmbedded(); err != nil {
		return nil, err
	}
	if dir == "" {
		return l, nil
	}
	if err := l.LoadFromDir(dir); err != nil {
		return nil, err
	}
	return l, nil
}

// LoadEmbedded loads the content compiled into the binary
func (l *Loader) LoadEmbedded() error {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return fmt.Errorf("failed to open embedded content: %w", err)
	}
	return l.LoadFS(sub)
}

// LoadFromDir loads content files from a directory on disk
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading content from directory", "dir", dir)
	return l.LoadFS(os.DirFS(dir))
}

// LoadFS reads every known content file present in fsys. Files that are absent
// keep their current value. The merged result is validated before it replaces
// the active content, so a bad file never leaves the loader half-updated.
func (l *Loader) LoadFS(fsys fs.FS) error {
	l.mu.RLock()
	next := l.snap.clone()
	l.mu.RUnlock()

	if err := readList(fsys, laureatesFile, &next.laureates); err != nil {
		return err
	}
	if err := readList(fsys, quizFile, &next.questions); err != nil {
		return err
	}
	if err := readList(fsys, quotesFile, &next.quotes); err != nil {
		return err
	}

	for _, kind := range models.ContentKinds {
		var entries []*models.ContentEntry
		file := path.Join(modalsDir, string(kind)+".yaml")
		if err := readList(fsys, file, &entries); err != nil {
			return err
		}
		if entries == nil {
			continue
		}
		if err := next.setEntries(kind, entries); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
	}

	if err := next.validate(); err != nil {
		return fmt.Errorf("invalid content: %w", err)
	}

	l.mu.Lock()
	l.snap = next
	l.mu.Unlock()

	slog.Info("content loaded",
		"laureates", len(next.laureates),
		"questions", len(next.questions),
		"quotes", len(next.quotes),
		"modals", next.entryCount(),
	)
	return nil
}

// Laureates returns the catalog in file order
func (l *Loader) Laureates() []models.Laureate {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]models.Laureate(nil), l.snap.laureates...)
}

// Questions returns the quiz questions in file order
func (l *Loader) Questions() []models.QuizQuestion {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]models.QuizQuestion, len(l.snap.questions))
	for i, q := range l.snap.questions {
		q.Options = append([]string(nil), q.Options...)
		result[i] = q
	}
	return result
}

// Quotes returns every quote
func (l *Loader) Quotes() []models.Quote {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]models.Quote(nil), l.snap.quotes...)
}

// RandomQuote picks a quote uniformly; ok is false when none are loaded
func (l *Loader) RandomQuote() (models.Quote, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.snap.quotes) == 0 {
		return models.Quote{}, false
	}
	return l.snap.quotes[rand.IntN(len(l.snap.quotes))], true
}

// Get returns a modal entry, or nil when kind/id is unknown
func (l *Loader) Get(kind models.ContentKind, id string) *models.ContentEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap.index[kind][id]
}

// List returns every entry of a kind in file order
func (l *Loader) List(kind models.ContentKind) []*models.ContentEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*models.ContentEntry(nil), l.snap.entries[kind]...)
}

// --- snapshot ---

func newSnapshot() *snapshot {
	return &snapshot{
		entries: make(map[models.ContentKind][]*models.ContentEntry),
		index:   make(map[models.ContentKind]map[string]*models.ContentEntry),
	}
}

func (s *snapshot) clone() *snapshot {
	c := newSnapshot()
	c.laureates = s.laureates
	c.questions = s.questions
	c.quotes = s.quotes
	for kind, entries := range s.entries {
		c.entries[kind] = entries
		c.index[kind] = s.index[kind]
	}
	return c
}

func (s *snapshot) setEntries(kind models.ContentKind, entries []*models.ContentEntry) error {
	index := make(map[string]*models.ContentEntry, len(entries))
	for i, e := range entries {
		if e == nil || e.ID == "" {
			return fmt.Errorf("entry %d: id is required", i)
		}
		if e.Title == "" {
			return fmt.Errorf("entry %q: title is required", e.ID)
		}
		if _, dup := index[e.ID]; dup {
			return fmt.Errorf("entry %q: duplicate id", e.ID)
		}
		e.Kind = kind
		index[e.ID] = e
	}
	s.entries[kind] = entries
	s.index[kind] = index
	return nil
}

func (s *snapshot) entryCount() int {
	n := 0
	for _, entries := range s.entries {
		n += len(entries)
	}
	return n
}

func (s *snapshot) validate() error {
	var errs []error

	names := make(map[string]bool, len(s.laureates))
	for i, l := range s.laureates {
		switch {
		case l.Name == "":
			errs = append(errs, fmt.Errorf("laureate %d: name is required", i))
			continue
		case names[l.Name]:
			errs = append(errs, fmt.Errorf("laureate %q: duplicate name", l.Name))
		case !l.Category.Valid():
			errs = append(errs, fmt.Errorf("laureate %q: unknown category %q", l.Name, l.Category))
		case l.Year <= 0:
			errs = append(errs, fmt.Errorf("laureate %q: year is required", l.Name))
		case l.ContentID == "":
			errs = append(errs, fmt.Errorf("laureate %q: content_id is required", l.Name))
		case s.index[models.KindLaureate][l.ContentID] == nil:
			errs = append(errs, fmt.Errorf("laureate %q: content_id %q has no laureate entry", l.Name, l.ContentID))
		}
		names[l.Name] = true
	}

	for i, q := range s.questions {
		if q.Prompt == "" {
			errs = append(errs, fmt.Errorf("question %d: prompt is required", i))
		}
		if len(q.Options) != models.OptionsPerQuestion {
			errs = append(errs, fmt.Errorf("question %d: expected %d options, got %d", i, models.OptionsPerQuestion, len(q.Options)))
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= models.OptionsPerQuestion {
			errs = append(errs, fmt.Errorf("question %d: correct_index %d out of range", i, q.CorrectIndex))
		}
	}

	return errors.Join(errs...)
}

// readList decodes a YAML sequence into out. A missing file leaves out untouched.
func readList[T any](fsys fs.FS, name string, out *[]T) error {
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	var items []T
	if err := yaml.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	*out = items
	return nil
}
