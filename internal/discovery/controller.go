package discovery

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mohammed-shakir/recycler-discovery/internal/core/model"
	"github.com/mohammed-shakir/recycler-discovery/internal/core/observability"
	"github.com/mohammed-shakir/recycler-discovery/internal/geo"
	"github.com/mohammed-shakir/recycler-discovery/internal/logger"
	"github.com/mohammed-shakir/recycler-discovery/internal/mapview"
	"github.com/mohammed-shakir/recycler-discovery/internal/navigation"
)

const PermissionNotice = "We need your permission to get your location"

type Deps struct {
	Position   PositionResolver
	Types      TypeSource
	Candidates CandidateSource
	Surface    mapview.Surface
	Navigator  navigation.Navigator
	Logger     *slog.Logger
	Map        mapview.Options
}

type TypeOption struct {
	model.MaterialType
	Selected bool `json:"selected"`
}

// Snapshot is a copy of the screen state. Version grows with every change.
type Snapshot struct {
	Screen           string                  `json:"screen"`
	Version          uint64                  `json:"version"`
	Types            []TypeOption            `json:"types"`
	Selection        []int                   `json:"selection"`
	Position         *model.Coordinate       `json:"position,omitempty"`
	PermissionDenied bool                    `json:"permission_denied"`
	Notice           string                  `json:"notice,omitempty"`
	Candidates       []model.CollectionPoint `json:"candidates"`
	Generation       uint64                  `json:"generation"`
	MapVisible       bool                    `json:"map_visible"`
	Closed           bool                    `json:"closed"`
}

// Controller is the discovery screen. Position, taxonomy and candidates are
// loaded by independent goroutines; every commit happens under mu, and no
// commit happens after Teardown.
type Controller struct {
	id         string
	log        *slog.Logger
	position   PositionResolver
	taxonomy   *TaxonomyLoader
	candidates *CandidateLoader
	projection *mapview.Projection
	nav        navigation.Navigator

	g      errgroup.Group
	errMu  sync.Mutex
	errs   []error
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	activated bool
	closed    bool
	pos       *model.Coordinate
	denied    bool
	types     []model.MaterialType
	filter    FilterState
	settled   bool
	version   uint64
	listeners []func(Snapshot)
}

func New(d Deps) *Controller {
	log := d.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		id:         logger.NewID(),
		log:        log,
		position:   d.Position,
		taxonomy:   NewTaxonomyLoader(d.Types),
		candidates: NewCandidateLoader(d.Candidates),
		projection: mapview.NewProjection(d.Map, d.Surface, d.Navigator, log),
		nav:        d.Navigator,
	}
}

func (c *Controller) ID() string { return c.id }

// OnChange registers fn to receive a snapshot after each state change.
// Snapshots may arrive out of order; use Version to drop older ones.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Activate starts the position, taxonomy and unfiltered candidate loads.
// It returns immediately; a second call is a no-op.
func (c *Controller) Activate(ctx context.Context) {
	c.mu.Lock()
	if c.activated || c.closed {
		c.mu.Unlock()
		return
	}
	c.activated = true
	c.ctx, c.cancel = context.WithCancel(logger.WithScreen(ctx, c.id))
	ticket := c.candidates.Issue(c.filter.Selection())
	c.mu.Unlock()

	c.log.InfoContext(c.ctx, "discovery screen activated")

	c.spawn(c.resolvePosition)
	c.spawn(c.loadTaxonomy)
	c.spawn(func() error { return c.loadCandidates(ticket) })
}

// Toggle flips id in the filter selection and issues a candidate fetch for
// the new selection.
func (c *Controller) Toggle(id int) model.Selection {
	c.mu.Lock()
	if c.closed {
		sel := c.filter.Selection()
		c.mu.Unlock()
		return sel
	}
	sel := c.filter.Toggle(id)
	fetch := c.activated && !c.denied
	var ticket Ticket
	if fetch {
		ticket = c.candidates.Issue(sel)
	}
	ctx := c.ctxOrBackground()
	snap, ls := c.changedLocked()
	c.mu.Unlock()

	observability.IncFilterToggle()
	c.log.DebugContext(ctx, "filter toggled", "type_id", id, "selection", sel.String())
	notify(ls, snap)

	if fetch {
		c.spawn(func() error { return c.loadCandidates(ticket) })
	}
	return sel
}

// ActivateMarker opens the detail screen for a rendered marker.
func (c *Controller) ActivateMarker(id int) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return mapview.ErrUnknownMarker
	}
	return c.projection.Activate(id)
}

// GoBack leaves the screen and emits the back intent.
func (c *Controller) GoBack() {
	c.Teardown()
	navigation.GoBack(c.nav)
}

// Teardown cancels in-flight work. Nothing is committed or rendered afterwards.
func (c *Controller) Teardown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cancel := c.cancel
	ctx := c.ctxOrBackground()
	snap, ls := c.changedLocked()
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.candidates.Close()
	c.projection.Clear()
	c.log.InfoContext(ctx, "discovery screen torn down")
	notify(ls, snap)
}

// Wait blocks until every load started so far has finished and returns the
// non-stale failures of loads that finished since the previous Wait, joined.
// It must not race with Activate or Toggle.
func (c *Controller) Wait() error {
	_ = c.g.Wait()
	c.errMu.Lock()
	defer c.errMu.Unlock()
	err := errors.Join(c.errs...)
	c.errs = nil
	return err
}

// spawn runs fn in the group and keeps its error for the next Wait.
func (c *Controller) spawn(fn func() error) {
	c.g.Go(func() error {
		if err := fn(); err != nil {
			c.errMu.Lock()
			c.errs = append(c.errs, err)
			c.errMu.Unlock()
		}
		return nil
	})
}

// View returns the rendered map view, if any.
func (c *Controller) View() (mapview.View, bool) {
	return c.projection.View()
}

// Shown counts how many times the map went from absent to present.
func (c *Controller) Shown() int {
	return c.projection.Shown()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) resolvePosition() error {
	pos, err := c.position.Resolve(c.ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	switch {
	case errors.Is(err, geo.ErrPermissionDenied):
		c.denied = true
		c.candidates.Close()
		c.log.WarnContext(c.ctx, "location permission denied; map disabled")
	case err != nil:
		c.log.WarnContext(c.ctx, "position unavailable", "err", err)
	default:
		c.pos = &pos
		c.log.InfoContext(c.ctx, "position resolved", "position", pos.String())
		c.renderLocked()
	}
	snap, ls := c.changedLocked()
	c.mu.Unlock()

	notify(ls, snap)
	return err
}

func (c *Controller) loadTaxonomy() error {
	types, err := c.taxonomy.Load(c.ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.log.WarnContext(c.ctx, "taxonomy unavailable", "err", err)
	} else {
		c.types = types
	}
	snap, ls := c.changedLocked()
	c.mu.Unlock()

	notify(ls, snap)
	return err
}

func (c *Controller) loadCandidates(t Ticket) error {
	ctx := logger.WithGeneration(logger.WithSelection(c.ctx, t.Selection.Key()), t.Gen)
	pts, err := c.candidates.Fetch(ctx, t)

	switch {
	case errors.Is(err, ErrStaleResponse):
		c.log.DebugContext(ctx, "stale candidate response discarded")
		return nil
	case errors.Is(err, ErrCanceled):
		return nil
	case err != nil:
		c.log.WarnContext(ctx, "candidate fetch failed; keeping previous set", "err", err)
	default:
		c.log.DebugContext(ctx, "candidates committed", "points", len(pts))
	}

	c.mu.Lock()
	if c.closed || c.denied {
		c.mu.Unlock()
		return nil
	}
	c.settled = true
	c.renderLocked()
	snap, ls := c.changedLocked()
	c.mu.Unlock()

	notify(ls, snap)
	return err
}

// renderLocked pushes the committed state to the map once both a position
// and a settled candidate fetch exist.
func (c *Controller) renderLocked() {
	if c.pos == nil || !c.settled || c.denied {
		return
	}
	c.projection.Update(c.pos, c.candidates.Points())
}

func (c *Controller) changedLocked() (Snapshot, []func(Snapshot)) {
	c.version++
	return c.snapshotLocked(), slices.Clone(c.listeners)
}

func (c *Controller) snapshotLocked() Snapshot {
	sel := c.filter.Selection()
	s := Snapshot{
		Screen:           c.id,
		Version:          c.version,
		Types:            make([]TypeOption, 0, len(c.types)),
		Selection:        sel.IDs(),
		PermissionDenied: c.denied,
		Closed:           c.closed,
		Candidates:       []model.CollectionPoint{},
	}
	for _, t := range c.types {
		s.Types = append(s.Types, TypeOption{MaterialType: t, Selected: sel.Has(t.ID)})
	}
	if c.denied {
		s.Notice = PermissionNotice
	}
	if c.pos != nil {
		p := *c.pos
		s.Position = &p
	}
	// candidates stay hidden until a position exists, so a denied session
	// never exposes a set committed before the denial arrived
	if c.pos != nil && !c.denied && !c.closed {
		s.Candidates = c.candidates.Points()
		s.Generation = c.candidates.Generation()
		_, s.MapVisible = c.projection.View()
	}
	return s
}

// ctxOrBackground must be called with mu held.
func (c *Controller) ctxOrBackground() context.Context {
	if c.ctx != nil {
		return c.ctx
	}
	return context.Background()
}

func notify(ls []func(Snapshot), s Snapshot) {
	for _, fn := range ls {
		fn(s)
	}
}
