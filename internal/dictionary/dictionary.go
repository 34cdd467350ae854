// Package dictionary holds the name, medical, and structural term sets the
// detector suite consults for allow-listing and person-name confirmation.
// Loading follows the teacher's layered-store shape (internal/anonymizer's
// PersistentCache + bbolt): an embedded default list is always present, and
// an optional on-disk bbolt database can add terms. The store also has
// helpers to save and load a compiled deletion index, but Load does not
// call them, so every Load rebuilds the fuzzy-matching indexes.
package dictionary

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/gob"
	"fmt"
	"strings"
	"sync"

	bolt "go.etcd.io/bbolt"
)

//go:embed data/first_names.txt
var defaultFirstNames []byte

//go:embed data/last_names.txt
var defaultLastNames []byte

//go:embed data/allow_terms.txt
var defaultAllowTerms []byte

// maxFuzzyEditDistance bounds ContainsFuzzy to at most 2 edits, per §4.2.
const maxFuzzyEditDistance = 2

// TermSet is a single named vocabulary (first names, last names, or the
// clinical/geographic allow-set) supporting exact, phonetic, and bounded
// fuzzy membership queries.
type TermSet struct {
	name       string
	exact      map[string]bool
	soundex    map[string][]string
	metaphone  map[string][]string
	deletions  *deletionIndex
}

func newTermSet(name string, terms []string) *TermSet {
	ts := &TermSet{
		name:      name,
		exact:     make(map[string]bool, len(terms)),
		soundex:   make(map[string][]string),
		metaphone: make(map[string][]string),
	}
	clean := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || ts.exact[t] {
			continue
		}
		ts.exact[t] = true
		clean = append(clean, t)
		sx := Soundex(t)
		ts.soundex[sx] = append(ts.soundex[sx], t)
		mp := Metaphone(t)
		ts.metaphone[mp] = append(ts.metaphone[mp], t)
	}
	ts.deletions = buildDeletionIndex(clean, maxFuzzyEditDistance)
	return ts
}

// ContainsExact reports whether term is present verbatim (case-folded).
func (ts *TermSet) ContainsExact(term string) bool {
	return ts.exact[strings.ToLower(strings.TrimSpace(term))]
}

// ContainsPhonetic reports whether term shares a Soundex or Metaphone code
// with any member of the set, returning the matched member if so.
func (ts *TermSet) ContainsPhonetic(term string) (match string, ok bool) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return "", false
	}
	if members := ts.soundex[Soundex(term)]; len(members) > 0 {
		return members[0], true
	}
	if members := ts.metaphone[Metaphone(term)]; len(members) > 0 {
		return members[0], true
	}
	return "", false
}

// ContainsFuzzy reports whether term is within maxFuzzyEditDistance
// Damerau-Levenshtein edits of any set member, using the precomputed
// deletion index to avoid an O(n) scan of the whole dictionary.
func (ts *TermSet) ContainsFuzzy(term string) (match string, distance int, ok bool) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return "", 0, false
	}
	if ts.exact[term] {
		return term, 0, true
	}
	best := maxFuzzyEditDistance + 1
	var bestTerm string
	for _, cand := range ts.deletions.candidates(term) {
		d := DamerauLevenshtein(term, cand, maxFuzzyEditDistance)
		if d < best {
			best = d
			bestTerm = cand
		}
	}
	if best <= maxFuzzyEditDistance {
		return bestTerm, best, true
	}
	return "", 0, false
}

// Classification is the outcome of BatchClassify for one input token.
type Classification struct {
	Term    string
	Exact   bool
	Match   string
	Edits   int
}

// BatchClassify classifies many tokens against the set in one call, so
// detectors can amortize index lookups across a whole document window.
func (ts *TermSet) BatchClassify(terms []string) []Classification {
	out := make([]Classification, len(terms))
	for i, t := range terms {
		if ts.ContainsExact(t) {
			out[i] = Classification{Term: t, Exact: true, Match: t}
			continue
		}
		if m, d, ok := ts.ContainsFuzzy(t); ok {
			out[i] = Classification{Term: t, Match: m, Edits: d}
			continue
		}
		out[i] = Classification{Term: t}
	}
	return out
}

// Snapshot is the immutable, pointer-shared set of dictionaries handed to
// every DocumentContext. Building one is relatively expensive (it compiles
// three deletion indexes); callers build it once per process and reuse it.
type Snapshot struct {
	FirstNames *TermSet
	LastNames  *TermSet
	AllowTerms *TermSet
}

// Load builds a Snapshot from the embedded defaults plus any terms added by
// a bbolt database at overridePath. Nothing is written back to that
// database. An empty overridePath skips the database and returns the
// embedded defaults only.
func Load(overridePath string) (*Snapshot, error) {
	first := splitLines(defaultFirstNames)
	last := splitLines(defaultLastNames)
	allow := splitLines(defaultAllowTerms)

	if overridePath != "" {
		store, err := openStore(overridePath)
		if err != nil {
			return nil, fmt.Errorf("dictionary: open override store: %w", err)
		}
		defer store.Close()

		extraFirst, err := store.additions(bucketFirstNames)
		if err != nil {
			return nil, err
		}
		extraLast, err := store.additions(bucketLastNames)
		if err != nil {
			return nil, err
		}
		extraAllow, err := store.additions(bucketAllowTerms)
		if err != nil {
			return nil, err
		}
		first = append(first, extraFirst...)
		last = append(last, extraLast...)
		allow = append(allow, extraAllow...)
	}

	return &Snapshot{
		FirstNames: newTermSet("first_names", first),
		LastNames:  newTermSet("last_names", last),
		AllowTerms: newTermSet("allow_terms", allow),
	}, nil
}

func splitLines(data []byte) []string {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

const (
	bucketFirstNames = "first_names"
	bucketLastNames  = "last_names"
	bucketAllowTerms = "allow_terms"
	bucketIndexCache = "deletion_index_cache"
)

// store is the bbolt-backed override/persistence layer, adapted from the
// teacher's bboltCache: one bucket per term list for additions, plus a
// bucket holding a gob-encoded compiled deletion index keyed by a content
// hash of the term list it was built from.
type store struct {
	mu sync.Mutex
	db *bolt.DB
}

func openStore(path string) (*store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bbolt dictionary store %q: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketFirstNames, bucketLastNames, bucketAllowTerms, bucketIndexCache} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create dictionary buckets: %w", err)
	}
	return &store{db: db}, nil
}

func (s *store) Close() error { return s.db.Close() }

func (s *store) additions(bucket string) ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	return out, err
}

// AddTerm persists a single override term so future Load calls for this
// path include it without re-embedding the binary.
func (s *store) AddTerm(bucket, term string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucket)
		}
		return b.Put([]byte(strings.ToLower(term)), []byte{1})
	})
}

// cachedDeletionIndex is the gob-serializable form of a deletionIndex.
type cachedDeletionIndex struct {
	MaxEditDistance int
	Variants        map[string][]string
}

// saveIndex persists a compiled deletion index under key so it can be
// reloaded instead of recompiled on the next process start.
func (s *store) saveIndex(key string, idx *deletionIndex) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cachedDeletionIndex{
		MaxEditDistance: idx.maxEditDistance,
		Variants:        idx.variants,
	}); err != nil {
		return fmt.Errorf("encode deletion index: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketIndexCache))
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketIndexCache)
		}
		return b.Put([]byte(key), buf.Bytes())
	})
}

// loadIndex returns a previously cached deletion index for key, if present.
func (s *store) loadIndex(key string) (*deletionIndex, bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketIndexCache))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || raw == nil {
		return nil, false, err
	}
	var cached cachedDeletionIndex
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&cached); err != nil {
		return nil, false, fmt.Errorf("decode deletion index: %w", err)
	}
	return &deletionIndex{maxEditDistance: cached.MaxEditDistance, variants: cached.Variants}, true, nil
}
