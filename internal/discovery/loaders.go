// Package discovery implements the recycler discovery screen: device position,
// material type taxonomy, filter selection and the filtered candidate set.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mohammed-shakir/recycler-discovery/internal/core/model"
	"github.com/mohammed-shakir/recycler-discovery/internal/core/observability"
)

var (
	// ErrFetch wraps backend failures for taxonomy and candidate reads.
	ErrFetch = errors.New("discovery: fetch failed")
	// ErrStaleResponse marks a candidate response superseded by a newer request.
	ErrStaleResponse = errors.New("discovery: stale response discarded")
	// ErrCanceled marks a response that arrived after the loader was closed.
	ErrCanceled = errors.New("discovery: loader closed")
)

type TypeSource interface {
	Types(ctx context.Context) ([]model.MaterialType, error)
}

type CandidateSource interface {
	Recyclers(ctx context.Context, sel model.Selection) ([]model.CollectionPoint, error)
}

type PositionResolver interface {
	Resolve(ctx context.Context) (model.Coordinate, error)
}

// TaxonomyLoader reads the material type list in server order.
type TaxonomyLoader struct {
	src TypeSource
}

func NewTaxonomyLoader(src TypeSource) *TaxonomyLoader {
	return &TaxonomyLoader{src: src}
}

func (l *TaxonomyLoader) Load(ctx context.Context) ([]model.MaterialType, error) {
	types, err := l.src.Types(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: types: %w", ErrFetch, err)
	}
	return types, nil
}

// Ticket identifies one issued candidate request.
type Ticket struct {
	Gen       uint64
	Selection model.Selection
}

// CandidateLoader fetches collection points for a selection. Responses are
// committed in issue order: a response is kept only if no later request was
// issued before it arrived.
type CandidateLoader struct {
	src CandidateSource

	mu        sync.Mutex
	issued    uint64
	committed uint64
	points    []model.CollectionPoint
	closed    bool
}

func NewCandidateLoader(src CandidateSource) *CandidateLoader {
	return &CandidateLoader{src: src}
}

// Issue tags a request for sel with the next generation.
func (l *CandidateLoader) Issue(sel model.Selection) Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.issued++
	return Ticket{Gen: l.issued, Selection: sel}
}

// Fetch runs the request for t and commits the result if t is still the latest.
func (l *CandidateLoader) Fetch(ctx context.Context, t Ticket) ([]model.CollectionPoint, error) {
	pts, err := l.src.Recyclers(ctx, t.Selection)

	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.closed:
		observability.IncCandidateResponse(observability.OutcomeCanceled)
		return nil, ErrCanceled
	case t.Gen != l.issued:
		observability.IncCandidateResponse(observability.OutcomeStale)
		return nil, fmt.Errorf("%w: generation %d, latest %d", ErrStaleResponse, t.Gen, l.issued)
	case err != nil:
		observability.IncCandidateResponse(observability.OutcomeFailed)
		return nil, fmt.Errorf("%w: recyclers %s: %w", ErrFetch, t.Selection.Key(), err)
	}
	if pts == nil {
		pts = []model.CollectionPoint{}
	}
	l.points = pts
	l.committed = t.Gen
	observability.IncCandidateResponse(observability.OutcomeCommitted)
	return slices.Clone(pts), nil
}

// Load issues and fetches in one step.
func (l *CandidateLoader) Load(ctx context.Context, sel model.Selection) ([]model.CollectionPoint, error) {
	return l.Fetch(ctx, l.Issue(sel))
}

// Points returns the committed candidate set.
func (l *CandidateLoader) Points() []model.CollectionPoint {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.points)
}

// Generation returns the generation of the committed set, 0 if none.
func (l *CandidateLoader) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.committed
}

// Close drops the committed set and rejects every later response.
func (l *CandidateLoader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.points = nil
}
