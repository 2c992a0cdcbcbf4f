// Package screen hosts the live discovery screen behind HTTP: it owns the
// current controller, the rendered map body and the navigation stack.
package screen

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mohammed-shakir/recycler-discovery/internal/detail"
	"github.com/mohammed-shakir/recycler-discovery/internal/discovery"
	"github.com/mohammed-shakir/recycler-discovery/internal/mapview"
	"github.com/mohammed-shakir/recycler-discovery/internal/navigation"
)

var (
	ErrNoScreen = errors.New("no active screen")
	ErrNoDetail = errors.New("detail source not configured")
)

// Factory builds a controller wired to the host's navigator and surface.
type Factory func(nav navigation.Navigator, surface mapview.Surface) *discovery.Controller

// ActiveGauge is satisfied by metrics.Provider.
type ActiveGauge interface {
	SetScreenActive(on bool)
}

type Options struct {
	Logger  *slog.Logger
	CellRes int
	// Stack defaults to a fresh stack rooted at Home.
	Stack *navigation.Stack
	// Events receives every intent before the stack applies it (optional).
	Events navigation.Navigator
	Detail detail.Source
	Gauge  ActiveGauge
}

type Host struct {
	base    context.Context
	log     *slog.Logger
	factory Factory
	surface *mapview.GeoJSONSurface
	stack   *navigation.Stack
	events  navigation.Navigator
	detail  detail.Source
	gauge   ActiveGauge

	mu  sync.Mutex
	cur *discovery.Controller
}

// NewHost creates a host whose screens live until base is canceled.
func NewHost(base context.Context, factory Factory, opts Options) *Host {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	stack := opts.Stack
	if stack == nil {
		stack = navigation.NewStack(navigation.Home)
	}
	h := &Host{
		base:    base,
		log:     log,
		factory: factory,
		surface: mapview.NewGeoJSONSurface(opts.CellRes),
		stack:   stack,
		events:  opts.Events,
		detail:  opts.Detail,
		gauge:   opts.Gauge,
	}
	h.stack.OnChange(func(from, to navigation.Route) {
		h.log.Info("screen changed", "from", string(from.Screen), "to", string(to.Screen), "recycler_id", to.RecyclerID)
	})
	return h
}

func (h *Host) Stack() *navigation.Stack { return h.stack }

func (h *Host) Surface() *mapview.GeoJSONSurface { return h.surface }

// Activate enters the recyclers screen with a fresh controller, tearing
// down the previous one. With wait set it returns after the initial loads.
func (h *Host) Activate(wait bool) (discovery.Snapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cur != nil {
		h.cur.Teardown()
	}
	if h.stack.Current().Screen != navigation.Recyclers {
		h.stack.Push(navigation.Route{Screen: navigation.Recyclers})
	}
	nav := h.navigator()
	c := h.factory(nav, h.surface)
	h.cur = c
	h.setActive(true)

	c.Activate(h.base)
	var err error
	if wait {
		err = c.Wait()
	}
	return c.Snapshot(), err
}

// Toggle flips a material type on the active screen.
func (h *Host) Toggle(id int, wait bool) (discovery.Snapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur == nil {
		return discovery.Snapshot{}, ErrNoScreen
	}
	h.cur.Toggle(id)
	var err error
	if wait {
		err = h.cur.Wait()
	}
	return h.cur.Snapshot(), err
}

func (h *Host) Snapshot() (discovery.Snapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur == nil {
		return discovery.Snapshot{}, ErrNoScreen
	}
	return h.cur.Snapshot(), nil
}

// ActivateMarker routes a marker tap on the active screen.
func (h *Host) ActivateMarker(id int) (navigation.Route, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur == nil {
		return navigation.Route{}, ErrNoScreen
	}
	if err := h.cur.ActivateMarker(id); err != nil {
		return navigation.Route{}, err
	}
	return h.stack.Current(), nil
}

// Back leaves the current screen. The recyclers screen is torn down first.
func (h *Host) Back() navigation.Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur != nil && h.stack.Current().Screen == navigation.Recyclers {
		h.cur.GoBack()
		h.cur = nil
		h.setActive(false)
		return h.stack.Current()
	}
	navigation.GoBack(h.navigator())
	return h.stack.Current()
}

func (h *Host) Detail(ctx context.Context, id int) (detail.Page, error) {
	if h.detail == nil {
		return detail.Page{}, ErrNoDetail
	}
	return detail.Load(ctx, h.detail, id)
}

// Readiness reports whether a screen is active and its id.
func (h *Host) Readiness() (bool, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur == nil {
		return false, ""
	}
	return true, h.cur.ID()
}

// Close tears down the active screen.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur != nil {
		h.cur.Teardown()
		h.cur = nil
		h.setActive(false)
	}
}

// navigator lets events see the emitting screen before the stack moves.
func (h *Host) navigator() navigation.Navigator {
	return navigation.Tee(h.events, h.stack)
}

func (h *Host) setActive(on bool) {
	if h.gauge != nil {
		h.gauge.SetScreenActive(on)
	}
}
