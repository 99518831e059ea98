package recorder

import (
	"encoding/json"
	"testing"

	apperrors "github.com/GriffinCanCode/deathwatch/internal/errors"
)

func newTestStore(titles ...string) *Store {
	s := NewStore(nil, DefaultMatchThreshold)
	for _, title := range titles {
		if _, err := s.Add(title); err != nil {
			panic(err)
		}
	}
	s.MarkClean()
	return s
}

func titles(s *Store) []string {
	var out []string
	for _, r := range s.Snapshot() {
		out = append(out, r.Title)
	}
	return out
}

func byTitle(s *Store, title string) Recorder {
	for _, r := range s.Snapshot() {
		if r.Title == title {
			return r
		}
	}
	return Recorder{}
}

func TestNewStoreCreatesGlobals(t *testing.T) {
	s := NewStore(nil, 0)
	snap := s.Snapshot()

	if len(snap) != 2 {
		t.Fatalf("len = %d, want 2", len(snap))
	}
	if snap[0].Kind != GlobalDeaths || snap[1].Kind != GlobalBosses {
		t.Errorf("kinds = %v, %v", snap[0].Kind, snap[1].Kind)
	}
}

func TestNewStoreMovesGlobalsToFront(t *testing.T) {
	loaded := []*Recorder{
		{ID: "a", Title: "Margit", Active: true},
		{ID: "b", Title: "Bosses encountered", Kind: GlobalBosses, Counter: 3, Active: true},
		{ID: "c", Title: "Total deaths", Kind: GlobalDeaths, Counter: 9, Active: true},
		{ID: "a", Title: "Duplicate id", Active: true},
	}
	snap := NewStore(loaded, 0).Snapshot()

	if snap[0].ID != "c" || snap[1].ID != "b" || snap[2].ID != "a" {
		t.Errorf("order = %s %s %s", snap[0].ID, snap[1].ID, snap[2].ID)
	}
	if snap[3].ID == "a" {
		t.Error("duplicate id should be replaced")
	}
}

func TestIncrementGlobalDeaths(t *testing.T) {
	s := newTestStore()
	s.IncrementGlobalDeaths()
	s.IncrementGlobalDeaths()

	if got := s.Snapshot()[0].Counter; got != 2 {
		t.Errorf("global deaths = %d, want 2", got)
	}
	if !s.Dirty() {
		t.Error("store should be dirty")
	}
}

func TestIncrementGlobalBosses(t *testing.T) {
	s := newTestStore()
	s.IncrementGlobalBosses()

	snap := s.Snapshot()
	if snap[1].Counter != 1 || snap[0].Counter != 0 {
		t.Errorf("counters = %d/%d, want 0/1", snap[0].Counter, snap[1].Counter)
	}
}

func TestHandleBossExactMatch(t *testing.T) {
	s := newTestStore("Godrick the Grafted", "Margit, the Fell Omen")

	attr, ok := s.HandleBossDetected("  MARGIT, THE FELL OMEN ")
	if !ok || attr.Match != MatchExact {
		t.Fatalf("attribution = %+v, %v", attr, ok)
	}
	if got := titles(s)[2]; got != "Margit, the Fell Omen" {
		t.Errorf("first classic = %q, want Margit", got)
	}
	if byTitle(s, "Margit, the Fell Omen").Counter != 1 {
		t.Error("matched recorder should be incremented")
	}
	if s.Len() != 4 {
		t.Errorf("len = %d, no recorder should be created", s.Len())
	}
}

func TestHandleBossFuzzyMatch(t *testing.T) {
	s := newTestStore("MARGIT THE FELL OMEN")

	attr, ok := s.HandleBossDetected("MARGIT THE FEEL OMEN")
	if !ok || attr.Match != MatchFuzzy {
		t.Fatalf("attribution = %+v", attr)
	}
	if attr.Similarity < DefaultMatchThreshold {
		t.Errorf("similarity = %f", attr.Similarity)
	}
	if s.Len() != 3 {
		t.Errorf("len = %d, want 3 (no new recorder)", s.Len())
	}
	if byTitle(s, "MARGIT THE FELL OMEN").Counter != 1 {
		t.Error("fuzzy match should increment the existing recorder")
	}
}

func TestHandleBossFuzzyPicksBest(t *testing.T) {
	s := newTestStore("Godrick the Grafter", "Godrick the Grafted")

	attr, _ := s.HandleBossDetected("Godrick the Graftee")
	if attr.Recorder.Title != "Godrick the Grafter" {
		t.Errorf("tie should keep the first best, got %q", attr.Recorder.Title)
	}
}

func TestHandleBossCreatesRecorder(t *testing.T) {
	s := newTestStore("Godrick the Grafted", "Rennala")

	attr, ok := s.HandleBossDetected("Radahn")
	if !ok || attr.Match != MatchCreated {
		t.Fatalf("attribution = %+v", attr)
	}
	got := titles(s)
	if len(got) != 5 || got[2] != "Radahn" {
		t.Errorf("titles = %v", got)
	}
	if attr.Recorder.Counter != 1 || !attr.Recorder.Active {
		t.Errorf("new recorder = %+v", attr.Recorder)
	}
}

func TestHandleBossIncrementsGlobalBossesOnce(t *testing.T) {
	s := newTestStore("Margit")

	for _, label := range []string{"Margit", "Margot", "Malenia"} {
		before := s.Snapshot()[1].Counter
		s.HandleBossDetected(label)
		if after := s.Snapshot()[1].Counter; after != before+1 {
			t.Errorf("%s: global bosses %d -> %d, want +1", label, before, after)
		}
	}
}

func TestHandleBossBlankLabel(t *testing.T) {
	s := newTestStore("Margit")

	if _, ok := s.HandleBossDetected("   "); ok {
		t.Error("blank label should be ignored")
	}
	if s.Snapshot()[1].Counter != 0 || s.Dirty() {
		t.Error("blank label must not change the store")
	}
}

func TestHandleBossInactiveRecorder(t *testing.T) {
	s := newTestStore("Margit", "Godrick")
	id := byTitle(s, "Godrick").ID
	if _, err := s.Toggle(id); err != nil {
		t.Fatal(err)
	}

	s.HandleBossDetected("Godrick")
	r := byTitle(s, "Godrick")
	if r.Counter != 0 {
		t.Errorf("inactive recorder counter = %d, want 0", r.Counter)
	}
	if titles(s)[2] != "Godrick" {
		t.Error("inactive recorder still moves to the front")
	}
}

func TestJoinBossNames(t *testing.T) {
	got := JoinBossNames([]string{" Godskin Apostle ", "", "  ", "Godskin Noble"})
	if got != "Godskin Apostle - Godskin Noble" {
		t.Errorf("JoinBossNames = %q", got)
	}
	if JoinBossNames(nil) != "" {
		t.Error("no names should give an empty label")
	}
}

func TestAddValidation(t *testing.T) {
	s := newTestStore("Margit")

	if _, err := s.Add("  "); !apperrors.IsCode(err, apperrors.InvalidArgument) {
		t.Errorf("blank title = %v", err)
	}
	if _, err := s.Add("margit"); !apperrors.IsCode(err, apperrors.InvalidArgument) {
		t.Errorf("duplicate title = %v", err)
	}
	r, err := s.Add(" Rennala ")
	if err != nil || r.Title != "Rennala" || titles(s)[3] != "Rennala" {
		t.Errorf("Add = %+v, %v; titles %v", r, err, titles(s))
	}
}

func TestManualCounterOps(t *testing.T) {
	s := newTestStore("Margit")
	id := byTitle(s, "Margit").ID

	if _, err := s.Toggle(id); err != nil {
		t.Fatal(err)
	}
	r, _ := s.Increment(id)
	if r.Counter != 1 {
		t.Errorf("manual increment ignores active flag, got %d", r.Counter)
	}
	r, _ = s.Decrement(id)
	r, _ = s.Decrement(id)
	if r.Counter != 0 {
		t.Errorf("decrement floors at zero, got %d", r.Counter)
	}
	s.Increment(id)
	s.Increment(id)
	if r, _ = s.Reset(id); r.Counter != 0 {
		t.Errorf("reset = %d", r.Counter)
	}

	if _, err := s.Increment("missing"); !apperrors.IsCode(err, apperrors.NotFound) {
		t.Errorf("missing id = %v", err)
	}
}

func TestGlobalsAreProtected(t *testing.T) {
	s := newTestStore("Margit")
	globalID := s.Snapshot()[0].ID

	if err := s.Delete(globalID); !apperrors.IsCode(err, apperrors.InvalidArgument) {
		t.Errorf("Delete global = %v", err)
	}
	if _, err := s.Rename(globalID, "x"); err == nil {
		t.Error("Rename global should fail")
	}
	if _, err := s.Move(globalID, 3); err == nil {
		t.Error("Move global should fail")
	}
	if _, err := s.Increment(globalID); err != nil {
		t.Errorf("globals can be adjusted by hand: %v", err)
	}
}

func TestRenameAndDelete(t *testing.T) {
	s := newTestStore("Margit", "Godrick")
	id := byTitle(s, "Margit").ID

	if _, err := s.Rename(id, "godrick"); err == nil {
		t.Error("rename onto an existing title should fail")
	}
	if r, err := s.Rename(id, "Margit, the Fell Omen"); err != nil || r.Title != "Margit, the Fell Omen" {
		t.Errorf("Rename = %+v, %v", r, err)
	}
	if err := s.Delete(id); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Get(id); ok {
		t.Error("deleted recorder still present")
	}
}

func TestMove(t *testing.T) {
	s := newTestStore("A", "B", "C")
	id := byTitle(s, "A").ID

	s.Move(id, 4)
	if got := titles(s)[2:]; got[0] != "B" || got[2] != "A" {
		t.Errorf("after move to end: %v", got)
	}

	s.Move(id, 0)
	if got := titles(s); got[2] != "A" || got[0] == "A" {
		t.Errorf("move before globals must clamp: %v", got)
	}

	s.Move(id, 99)
	if got := titles(s); got[len(got)-1] != "A" {
		t.Errorf("move past end must clamp: %v", got)
	}
}

func TestIncrementActive(t *testing.T) {
	s := newTestStore("Margit", "Godrick")
	s.Toggle(byTitle(s, "Godrick").ID)

	if n := s.IncrementActive(); n != 3 {
		t.Errorf("changed = %d, want 3 (two globals and Margit)", n)
	}
	if byTitle(s, "Godrick").Counter != 0 || byTitle(s, "Margit").Counter != 1 {
		t.Error("only active recorders should change")
	}
}

func TestRecorderJSON(t *testing.T) {
	r := Recorder{ID: "x", Title: "Margit", Counter: 4, Active: true, Kind: GlobalBosses}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	var back Recorder
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back != r {
		t.Errorf("round trip = %+v, want %+v", back, r)
	}
	if err := json.Unmarshal([]byte(`{"kind":"boss"}`), &back); err == nil {
		t.Error("unknown kind should fail")
	}
}
