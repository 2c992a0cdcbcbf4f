package discovery

import (
	"context"
	"errors"
	"math/rand/v2"
	"reflect"
	"sync"
	"testing"

	"github.com/mohammed-shakir/recycler-discovery/internal/core/model"
)

func TestFilterState_ToggleMatchesSetSemantics(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for round := range 50 {
		var f FilterState
		ref := map[int]bool{}
		for range 40 {
			id := r.IntN(6)
			f.Toggle(id)
			if ref[id] {
				delete(ref, id)
			} else {
				ref[id] = true
			}
		}
		sel := f.Selection()
		if sel.Len() != len(ref) {
			t.Fatalf("round %d: len=%d want %d", round, sel.Len(), len(ref))
		}
		for id := range ref {
			if !f.Selected(id) {
				t.Fatalf("round %d: %d missing from %v", round, id, sel.IDs())
			}
		}
	}
}

func TestFilterState_DoubleToggleIsIdentity(t *testing.T) {
	var f FilterState
	f.Toggle(1)
	f.Toggle(3)
	before := f.Selection()
	for _, id := range []int{1, 2, 3} {
		f.Toggle(id)
		f.Toggle(id)
		if !f.Selection().Equal(before) {
			t.Fatalf("toggle %d twice changed %v to %v", id, before.IDs(), f.Selection().IDs())
		}
	}
}

func TestCandidateLoader_LastIssuedWins(t *testing.T) {
	g := newGated()
	l := NewCandidateLoader(g)

	a := l.Issue(model.NewSelection(1))
	b := l.Issue(model.NewSelection(1, 2))

	var wg sync.WaitGroup
	var errA, errB error
	wg.Add(2)
	go func() { defer wg.Done(); _, errA = l.Fetch(context.Background(), a) }()
	g.waitStarted(t, 1)
	go func() { defer wg.Done(); _, errB = l.Fetch(context.Background(), b) }()
	g.waitStarted(t, 1)

	fromB := threePoints[:1]
	fromA := threePoints
	g.release(1, fromB, nil)
	g.release(0, fromA, nil)
	wg.Wait()

	if errB != nil {
		t.Fatalf("newer request failed: %v", errB)
	}
	if !errors.Is(errA, ErrStaleResponse) {
		t.Fatalf("older request err=%v want ErrStaleResponse", errA)
	}
	if got := l.Points(); !reflect.DeepEqual(got, fromB) {
		t.Fatalf("committed %+v want %+v", got, fromB)
	}
	if l.Generation() != b.Gen {
		t.Fatalf("generation=%d want %d", l.Generation(), b.Gen)
	}
}

func TestCandidateLoader_StaleEvenWhenOlderArrivesFirst(t *testing.T) {
	g := newGated()
	l := NewCandidateLoader(g)

	a := l.Issue(model.NewSelection())
	done := make(chan error, 1)
	go func() { _, err := l.Fetch(context.Background(), a); done <- err }()
	g.waitStarted(t, 1)

	// a newer request is issued while a is in flight
	_ = l.Issue(model.NewSelection(5))
	g.release(0, threePoints, nil)

	if err := <-done; !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("err=%v want ErrStaleResponse", err)
	}
	if len(l.Points()) != 0 {
		t.Fatalf("stale response committed: %+v", l.Points())
	}
}

func TestCandidateLoader_FailureKeepsPrevious(t *testing.T) {
	src := &recordingCandidates{pts: threePoints}
	l := NewCandidateLoader(src)

	if _, err := l.Load(context.Background(), model.NewSelection()); err != nil {
		t.Fatalf("first load: %v", err)
	}
	src.err = errors.New("connection refused")
	_, err := l.Load(context.Background(), model.NewSelection(1))
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("err=%v want ErrFetch", err)
	}
	if got := l.Points(); !reflect.DeepEqual(got, threePoints) {
		t.Fatalf("points after failure=%+v want previous set", got)
	}
}

func TestCandidateLoader_FirstFailureIsEmpty(t *testing.T) {
	l := NewCandidateLoader(&recordingCandidates{err: errors.New("503")})
	if _, err := l.Load(context.Background(), model.NewSelection()); !errors.Is(err, ErrFetch) {
		t.Fatalf("err=%v want ErrFetch", err)
	}
	if len(l.Points()) != 0 || l.Generation() != 0 {
		t.Fatalf("points=%v gen=%d want empty", l.Points(), l.Generation())
	}
}

func TestCandidateLoader_ReplacesNotMerges(t *testing.T) {
	src := &recordingCandidates{pts: threePoints}
	l := NewCandidateLoader(src)
	_, _ = l.Load(context.Background(), model.NewSelection())
	src.pts = threePoints[2:]
	_, _ = l.Load(context.Background(), model.NewSelection(2))
	if got := l.Points(); !reflect.DeepEqual(got, threePoints[2:]) {
		t.Fatalf("points=%+v want full replacement", got)
	}
}

func TestCandidateLoader_CloseRejectsLateResponses(t *testing.T) {
	g := newGated()
	l := NewCandidateLoader(g)
	tk := l.Issue(model.NewSelection())
	done := make(chan error, 1)
	go func() { _, err := l.Fetch(context.Background(), tk); done <- err }()
	g.waitStarted(t, 1)

	l.Close()
	g.release(0, threePoints, nil)
	if err := <-done; !errors.Is(err, ErrCanceled) {
		t.Fatalf("err=%v want ErrCanceled", err)
	}
	if l.Points() != nil {
		t.Fatalf("closed loader holds points %+v", l.Points())
	}
}

func TestTaxonomyLoader_WrapsFailure(t *testing.T) {
	l := NewTaxonomyLoader(typesFunc(func(context.Context) ([]model.MaterialType, error) {
		return nil, errors.New("timeout")
	}))
	if _, err := l.Load(context.Background()); !errors.Is(err, ErrFetch) {
		t.Fatalf("err=%v want ErrFetch", err)
	}
}
