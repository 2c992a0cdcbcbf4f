// Package mapview projects collection points onto a map centered on the device.
//
// A map exists only once a position is resolved. Until then Project reports
// false and no Surface is touched.
package mapview

import (
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/mohammed-shakir/recycler-discovery/internal/core/config"
	"github.com/mohammed-shakir/recycler-discovery/internal/core/model"
	"github.com/mohammed-shakir/recycler-discovery/internal/core/observability"
	"github.com/mohammed-shakir/recycler-discovery/internal/navigation"
)

var ErrUnknownMarker = errors.New("mapview: no marker with that id")

type Options struct {
	LatitudeDelta  float64
	LongitudeDelta float64
	IconURL        string
	// H3Res < 0 leaves markers without a cell.
	H3Res int
}

func DefaultOptions() Options {
	return Options{
		LatitudeDelta:  0.014,
		LongitudeDelta: 0.014,
		IconURL:        config.DefaultMarkerIcon,
		H3Res:          9,
	}
}

func OptionsFrom(c config.MapCfg) Options {
	o := DefaultOptions()
	if c.LatitudeDelta > 0 {
		o.LatitudeDelta = c.LatitudeDelta
	}
	if c.LongitudeDelta > 0 {
		o.LongitudeDelta = c.LongitudeDelta
	}
	if c.MarkerIconURL != "" {
		o.IconURL = c.MarkerIconURL
	}
	o.H3Res = c.H3Res
	return o
}

type Marker struct {
	ID         int              `json:"id"`
	Coordinate model.Coordinate `json:"coordinate"`
	Label      string           `json:"label"`
	IconURL    string           `json:"icon_url"`
	Cell       string           `json:"cell,omitempty"`
}

type View struct {
	Region  model.Region `json:"region"`
	Markers []Marker     `json:"markers"`
}

func (v View) Marker(id int) (Marker, bool) {
	for _, m := range v.Markers {
		if m.ID == id {
			return m, true
		}
	}
	return Marker{}, false
}

type Cluster struct {
	Cell    string `json:"cell"`
	Markers []int  `json:"markers"`
}

// Clusters groups marker ids by H3 cell, largest first.
func (v View) Clusters() []Cluster {
	byCell := map[string][]int{}
	for _, m := range v.Markers {
		if m.Cell == "" {
			continue
		}
		byCell[m.Cell] = append(byCell[m.Cell], m.ID)
	}
	out := make([]Cluster, 0, len(byCell))
	for c, ids := range byCell {
		out = append(out, Cluster{Cell: c, Markers: ids})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Markers) != len(out[j].Markers) {
			return len(out[i].Markers) > len(out[j].Markers)
		}
		return out[i].Cell < out[j].Cell
	})
	return out
}

// Project builds the view for pos and points. It reports false while pos is nil.
func Project(pos *model.Coordinate, points []model.CollectionPoint, opts Options) (View, bool) {
	if pos == nil {
		return View{}, false
	}
	v := View{
		Region: model.Region{
			Center:         *pos,
			LatitudeDelta:  opts.LatitudeDelta,
			LongitudeDelta: opts.LongitudeDelta,
		},
		Markers: make([]Marker, 0, len(points)),
	}
	for _, p := range points {
		m := Marker{
			ID:         p.ID,
			Coordinate: p.Coordinate(),
			Label:      p.Name,
			IconURL:    opts.IconURL,
		}
		if opts.H3Res >= 0 {
			if cell, err := CellFor(m.Coordinate, opts.H3Res); err == nil {
				m.Cell = cell
			}
		}
		v.Markers = append(v.Markers, m)
	}
	return v, true
}

// Surface is the map rendering target.
type Surface interface {
	Render(v View)
	Clear()
}

// Projection keeps the current view in sync with its Surface and routes
// marker activation to navigation.
type Projection struct {
	opts    Options
	surface Surface
	nav     navigation.Navigator
	logger  *slog.Logger

	mu    sync.Mutex
	view  *View
	shown int
}

func NewProjection(opts Options, surface Surface, nav navigation.Navigator, logger *slog.Logger) *Projection {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Projection{opts: opts, surface: surface, nav: nav, logger: logger}
}

// Update replaces the rendered marker set. It reports whether a map is shown.
func (p *Projection) Update(pos *model.Coordinate, points []model.CollectionPoint) bool {
	v, ok := Project(pos, points, p.opts)
	if !ok {
		return false
	}

	p.mu.Lock()
	first := p.view == nil
	p.view = &v
	if first {
		p.shown++
	}
	p.mu.Unlock()

	observability.IncMapRender(first)
	if first {
		p.logger.Info("map shown", "center", v.Region.Center.String(), "markers", len(v.Markers))
	}
	if p.surface != nil {
		p.surface.Render(v)
	}
	return true
}

// Clear drops the view, as on screen teardown.
func (p *Projection) Clear() {
	p.mu.Lock()
	had := p.view != nil
	p.view = nil
	p.mu.Unlock()
	if had && p.surface != nil {
		p.surface.Clear()
	}
}

func (p *Projection) View() (View, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.view == nil {
		return View{}, false
	}
	return *p.view, true
}

// Shown counts absent-to-present transitions.
func (p *Projection) Shown() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shown
}

// Activate handles a tap on marker id and opens its detail screen.
func (p *Projection) Activate(id int) error {
	p.mu.Lock()
	var ok bool
	if p.view != nil {
		_, ok = p.view.Marker(id)
	}
	p.mu.Unlock()
	if !ok {
		return ErrUnknownMarker
	}
	p.logger.Debug("marker activated", "recycler_id", id)
	navigation.ToDetail(p.nav, id)
	return nil
}
