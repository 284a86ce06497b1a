package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"sentvec/internal/domain"
	"sentvec/internal/tokenize"
)

var (
	// ErrDuplicatePrefix reports two sources configured with the same tag prefix.
	ErrDuplicatePrefix = errors.New("duplicate source prefix")
	// ErrNotMaterialized reports an operation that needs a materialized
	// collection before one was built.
	ErrNotMaterialized = errors.New("corpus not materialized")
)

// Source is one flat-text input: every line of the file at Path becomes a
// document tagged "<Prefix>_<line_index>".
type Source struct {
	Path   string
	Prefix string
}

// Tokenizer splits a raw line into word tokens.
type Tokenizer func(text string) []string

// Config configures a Loader. Sources is ordered: the materialized collection
// holds all documents of Sources[0] in line order, then Sources[1], and so on.
type Config struct {
	Sources   []Source
	Tokenizer Tokenizer  // defaults to tokenize.Words
	Rand      *rand.Rand // shuffle source; defaults to a time-seeded generator
}

// Loader turns a fixed set of flat-text sources into a single ordered
// collection of tagged documents. Tags are re-derivable: materializing twice
// from unchanged files yields identical collections. The loader keeps at most
// one source file open at a time and is not safe for concurrent use.
type Loader struct {
	sources   []Source
	tokenizer Tokenizer
	rng       *rand.Rand
	docs      []domain.TaggedDocument
	loaded    bool
}

// New validates the source set and returns a loader. No file I/O happens
// here; unreadable sources surface on the first Stream or Materialize call.
func New(cfg Config) (*Loader, error) {
	seen := make(map[string]string, len(cfg.Sources))
	for _, src := range cfg.Sources {
		if other, ok := seen[src.Prefix]; ok {
			return nil, fmt.Errorf("%w: %q used by %s and %s", ErrDuplicatePrefix, src.Prefix, other, src.Path)
		}
		seen[src.Prefix] = src.Path
	}
	tok := cfg.Tokenizer
	if tok == nil {
		tok = tokenize.Words
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Loader{sources: cfg.Sources, tokenizer: tok, rng: rng}, nil
}

// Stream runs one forward pass over every source in configuration order,
// calling fn for each tagged document. Each call reopens and rereads all
// sources. The pass aborts on the first read failure or fn error.
func (l *Loader) Stream(fn func(domain.TaggedDocument) error) error {
	for _, src := range l.sources {
		if err := l.streamSource(src, fn); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) streamSource(src Source, fn func(domain.TaggedDocument) error) error {
	f, err := os.Open(src.Path)
	if err != nil {
		return fmt.Errorf("open source %s: %w", src.Path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for sc.Scan() {
		doc := domain.TaggedDocument{
			Words: l.tokenizer(sc.Text()),
			Tag:   src.Prefix + "_" + strconv.Itoa(line),
		}
		if err := fn(doc); err != nil {
			return err
		}
		line++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read source %s: %w", src.Path, err)
	}
	return nil
}

// Movie reviews are single lines; the default scanner limit is too small for
// the longest ones.
const maxLineBytes = 4 * 1024 * 1024

// Materialize eagerly builds the full ordered collection and keeps it as the
// loader's working collection for later reshuffling. All-or-nothing: if any
// source fails, the previous working collection is left untouched.
func (l *Loader) Materialize() ([]domain.TaggedDocument, error) {
	var docs []domain.TaggedDocument
	err := l.Stream(func(doc domain.TaggedDocument) error {
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.docs = docs
	l.loaded = true
	return l.docs, nil
}

// Documents returns the working collection in its current order.
func (l *Loader) Documents() ([]domain.TaggedDocument, error) {
	if !l.loaded {
		return nil, ErrNotMaterialized
	}
	return l.docs, nil
}

// Shuffle permutes the working collection in place with an unbiased
// Fisher-Yates shuffle. Tags stay attached to their documents; only the
// presentation order changes.
func (l *Loader) Shuffle() error {
	if !l.loaded {
		return ErrNotMaterialized
	}
	l.rng.Shuffle(len(l.docs), func(i, j int) {
		l.docs[i], l.docs[j] = l.docs[j], l.docs[i]
	})
	return nil
}
