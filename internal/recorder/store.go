package recorder

import (
	"slices"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	apperrors "github.com/GriffinCanCode/deathwatch/internal/errors"
)

// DefaultMatchThreshold is the normalized Levenshtein similarity a recorder
// title needs to absorb a detected boss label.
const DefaultMatchThreshold = 0.80

// BossNameSeparator joins the names read from several boss zones.
const BossNameSeparator = " - "

// MatchKind says how a boss label was attributed.
type MatchKind int

const (
	MatchExact MatchKind = iota
	MatchFuzzy
	MatchCreated
)

func (m MatchKind) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchFuzzy:
		return "fuzzy"
	default:
		return "created"
	}
}

// Attribution describes the outcome of HandleBossDetected.
type Attribution struct {
	Recorder   Recorder
	Match      MatchKind
	Similarity float64
}

// Store is the ordered recorder list. The two global recorders always come
// first (deaths, then bosses). Store is not safe for concurrent use; the app
// loop owns it.
type Store struct {
	recorders []*Recorder
	threshold float64
	dirty     bool
}

// NewStore builds a store from loaded recorders, creating or moving the
// global recorders to the front.
func NewStore(loaded []*Recorder, threshold float64) *Store {
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	s := &Store{threshold: threshold}
	s.recorders = normalize(loaded)
	return s
}

func normalize(loaded []*Recorder) []*Recorder {
	var deaths, bosses *Recorder
	classic := make([]*Recorder, 0, len(loaded))
	seen := make(map[string]bool)
	for _, r := range loaded {
		if r == nil {
			continue
		}
		if r.ID == "" || seen[r.ID] {
			r.ID = New("").ID
		}
		seen[r.ID] = true
		switch r.Kind {
		case GlobalDeaths:
			if deaths == nil {
				deaths = r
			}
		case GlobalBosses:
			if bosses == nil {
				bosses = r
			}
		default:
			classic = append(classic, r)
		}
	}
	if deaths == nil {
		deaths = newGlobal(GlobalDeaths)
	}
	if bosses == nil {
		bosses = newGlobal(GlobalBosses)
	}
	return append([]*Recorder{deaths, bosses}, classic...)
}

// globalCount is the index of the first classic recorder.
func (s *Store) globalCount() int {
	return 2
}

// Snapshot returns copies of every recorder in order.
func (s *Store) Snapshot() []Recorder {
	out := make([]Recorder, len(s.recorders))
	for i, r := range s.recorders {
		out[i] = *r
	}
	return out
}

// Len returns the number of recorders including the globals.
func (s *Store) Len() int { return len(s.recorders) }

// Dirty reports whether the store changed since the last MarkClean.
func (s *Store) Dirty() bool { return s.dirty }

// MarkClean clears the dirty flag after a save.
func (s *Store) MarkClean() { s.dirty = false }

// Get returns a copy of the recorder with id.
func (s *Store) Get(id string) (Recorder, bool) {
	if i := s.index(id); i >= 0 {
		return *s.recorders[i], true
	}
	return Recorder{}, false
}

// IncrementGlobalDeaths counts one death.
func (s *Store) IncrementGlobalDeaths() {
	s.recorders[0].ForceIncrement()
	s.dirty = true
}

// IncrementGlobalBosses counts one boss encounter.
func (s *Store) IncrementGlobalBosses() {
	s.recorders[1].ForceIncrement()
	s.dirty = true
}

// JoinBossNames trims names, drops blanks and joins the rest into one label.
func JoinBossNames(names []string) string {
	kept := make([]string, 0, len(names))
	for _, n := range names {
		if t := strings.TrimSpace(n); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, BossNameSeparator)
}

// HandleBossDetected attributes a death to label. An exact case-insensitive
// title match is preferred, then the most similar title at or above the
// threshold, and otherwise a new recorder is created. The chosen recorder
// moves to the first classic position and the global boss counter is
// incremented. A blank label changes nothing and reports false.
func (s *Store) HandleBossDetected(label string) (Attribution, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Attribution{}, false
	}
	norm := strings.ToUpper(label)
	gc := s.globalCount()

	var (
		attr Attribution
		idx  = -1
	)
	for i := gc; i < len(s.recorders); i++ {
		if strings.ToUpper(strings.TrimSpace(s.recorders[i].Title)) == norm {
			idx, attr.Match, attr.Similarity = i, MatchExact, 1
			break
		}
	}

	if idx < 0 {
		lev := metrics.NewLevenshtein()
		best := -1.0
		for i := gc; i < len(s.recorders); i++ {
			sim := strutil.Similarity(norm, strings.ToUpper(strings.TrimSpace(s.recorders[i].Title)), lev)
			if sim >= s.threshold && sim > best {
				idx, best = i, sim
			}
		}
		if idx >= 0 {
			attr.Match, attr.Similarity = MatchFuzzy, best
		}
	}

	var r *Recorder
	if idx >= 0 {
		r = s.recorders[idx]
		s.recorders = slices.Delete(s.recorders, idx, idx+1)
		r.Increment()
	} else {
		r = New(label)
		r.ForceIncrement()
		attr.Match = MatchCreated
	}
	s.recorders = slices.Insert(s.recorders, gc, r)
	s.IncrementGlobalBosses()

	attr.Recorder = *r
	return attr, true
}

// IncrementActive adds one to every active recorder, globals included, and
// returns how many changed.
func (s *Store) IncrementActive() int {
	n := 0
	for _, r := range s.recorders {
		if r.Active {
			r.Counter++
			n++
		}
	}
	if n > 0 {
		s.dirty = true
	}
	return n
}

// Add appends a new classic recorder. Blank titles and titles already in use
// (ignoring case) are rejected.
func (s *Store) Add(title string) (Recorder, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Recorder{}, apperrors.New(apperrors.InvalidArgument, "title must not be empty")
	}
	if s.titleTaken(title, "") {
		return Recorder{}, apperrors.Newf(apperrors.InvalidArgument, "a recorder named %q already exists", title)
	}
	r := New(title)
	s.recorders = append(s.recorders, r)
	s.dirty = true
	return *r, nil
}

// Increment force-increments the recorder with id.
func (s *Store) Increment(id string) (Recorder, error) {
	return s.mutate(id, (*Recorder).ForceIncrement)
}

// Decrement lowers the recorder with id, floored at zero.
func (s *Store) Decrement(id string) (Recorder, error) {
	return s.mutate(id, (*Recorder).Decrement)
}

// Reset zeroes the recorder with id.
func (s *Store) Reset(id string) (Recorder, error) {
	return s.mutate(id, (*Recorder).Reset)
}

// Toggle flips the active flag of a classic recorder.
func (s *Store) Toggle(id string) (Recorder, error) {
	i, err := s.classicIndex(id)
	if err != nil {
		return Recorder{}, err
	}
	s.recorders[i].Toggle()
	s.dirty = true
	return *s.recorders[i], nil
}

// Rename retitles a classic recorder.
func (s *Store) Rename(id, title string) (Recorder, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Recorder{}, apperrors.New(apperrors.InvalidArgument, "title must not be empty")
	}
	i, err := s.classicIndex(id)
	if err != nil {
		return Recorder{}, err
	}
	if s.titleTaken(title, id) {
		return Recorder{}, apperrors.Newf(apperrors.InvalidArgument, "a recorder named %q already exists", title)
	}
	s.recorders[i].Title = title
	s.dirty = true
	return *s.recorders[i], nil
}

// Delete removes a classic recorder.
func (s *Store) Delete(id string) error {
	i, err := s.classicIndex(id)
	if err != nil {
		return err
	}
	s.recorders = slices.Delete(s.recorders, i, i+1)
	s.dirty = true
	return nil
}

// Move places a classic recorder at position to, clamped so it stays behind
// the globals.
func (s *Store) Move(id string, to int) ([]Recorder, error) {
	i, err := s.classicIndex(id)
	if err != nil {
		return nil, err
	}
	to = max(s.globalCount(), min(to, len(s.recorders)-1))
	if to != i {
		r := s.recorders[i]
		s.recorders = slices.Insert(slices.Delete(s.recorders, i, i+1), to, r)
		s.dirty = true
	}
	return s.Snapshot(), nil
}

func (s *Store) mutate(id string, fn func(*Recorder)) (Recorder, error) {
	i := s.index(id)
	if i < 0 {
		return Recorder{}, notFound(id)
	}
	fn(s.recorders[i])
	s.dirty = true
	return *s.recorders[i], nil
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.recorders, func(r *Recorder) bool { return r.ID == id })
}

func (s *Store) classicIndex(id string) (int, error) {
	i := s.index(id)
	if i < 0 {
		return -1, notFound(id)
	}
	if s.recorders[i].IsGlobal() {
		return -1, apperrors.Newf(apperrors.InvalidArgument, "recorder %s is global", id)
	}
	return i, nil
}

func (s *Store) titleTaken(title, exceptID string) bool {
	for _, r := range s.recorders {
		if r.ID != exceptID && strings.EqualFold(strings.TrimSpace(r.Title), title) {
			return true
		}
	}
	return false
}

func notFound(id string) error {
	return apperrors.Newf(apperrors.NotFound, "recorder %s not found", id)
}
