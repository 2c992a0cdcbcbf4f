package discovery

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mohammed-shakir/recycler-discovery/internal/core/model"
	"github.com/mohammed-shakir/recycler-discovery/internal/navigation"
)

type typesFunc func(ctx context.Context) ([]model.MaterialType, error)

func (f typesFunc) Types(ctx context.Context) ([]model.MaterialType, error) { return f(ctx) }

// recordingCandidates answers immediately and records every selection asked for.
type recordingCandidates struct {
	mu    sync.Mutex
	calls []model.Selection
	pts   []model.CollectionPoint
	err   error
}

func (r *recordingCandidates) Recyclers(_ context.Context, sel model.Selection) ([]model.CollectionPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, sel)
	return r.pts, r.err
}

func (r *recordingCandidates) selections() []model.Selection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Selection(nil), r.calls...)
}

type gateResult struct {
	pts []model.CollectionPoint
	err error
}

// gatedCandidates blocks every call until the test releases it, so
// responses can be resolved in any order.
type gatedCandidates struct {
	mu      sync.Mutex
	calls   []model.Selection
	gates   []chan gateResult
	started chan int
}

func newGated() *gatedCandidates {
	return &gatedCandidates{started: make(chan int, 32)}
}

func (g *gatedCandidates) Recyclers(ctx context.Context, sel model.Selection) ([]model.CollectionPoint, error) {
	ch := make(chan gateResult, 1)
	g.mu.Lock()
	i := len(g.calls)
	g.calls = append(g.calls, sel)
	g.gates = append(g.gates, ch)
	g.mu.Unlock()
	g.started <- i

	select {
	case r := <-ch:
		return r.pts, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// waitStarted blocks until n calls have started.
func (g *gatedCandidates) waitStarted(t *testing.T, n int) {
	t.Helper()
	for range n {
		select {
		case <-g.started:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %d candidate calls", n)
		}
	}
}

func (g *gatedCandidates) release(i int, pts []model.CollectionPoint, err error) {
	g.mu.Lock()
	ch := g.gates[i]
	g.mu.Unlock()
	ch <- gateResult{pts: pts, err: err}
}

func (g *gatedCandidates) selection(i int) model.Selection {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[i]
}

type recordingNav struct {
	mu      sync.Mutex
	intents []navigation.Intent
}

func (n *recordingNav) Navigate(in navigation.Intent) {
	n.mu.Lock()
	n.intents = append(n.intents, in)
	n.mu.Unlock()
}

func (n *recordingNav) all() []navigation.Intent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]navigation.Intent(nil), n.intents...)
}

var (
	paperGlass = []model.MaterialType{
		{ID: 1, Title: "Paper", IconURI: "http://x/paper.svg"},
		{ID: 2, Title: "Glass", IconURI: "http://x/glass.svg"},
	}
	threePoints = []model.CollectionPoint{
		{ID: 10, Name: "Coop Norte", Latitude: -23.501, Longitude: -46.601},
		{ID: 42, Name: "Eco Ponto", Latitude: -23.502, Longitude: -46.598},
		{ID: 30, Name: "Recicla", Latitude: -23.499, Longitude: -46.603},
	}
)
