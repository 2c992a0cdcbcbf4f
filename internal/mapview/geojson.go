package mapview

import (
	"encoding/json"
	"sync"
)

type PointGeometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"` // [lon,lat]
}

type Feature struct {
	Type       string         `json:"type"`
	ID         int            `json:"id"`
	Geometry   PointGeometry  `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// FeatureCollection is the GeoJSON form of a View. Center, Span and
// Cells are foreign members describing the initial viewport.
type FeatureCollection struct {
	Type     string     `json:"type"`
	BBox     [4]float64 `json:"bbox"`
	Center   [2]float64 `json:"center"`
	Span     [2]float64 `json:"span"`
	Cells    []string   `json:"cells,omitempty"`
	Features []Feature  `json:"features"`
}

// ToGeoJSON converts v. cellRes < 0 omits the viewport cell cover.
func ToGeoJSON(v View, cellRes int) FeatureCollection {
	sw, ne := v.Region.Bounds()
	fc := FeatureCollection{
		Type:     "FeatureCollection",
		BBox:     [4]float64{sw.Longitude, sw.Latitude, ne.Longitude, ne.Latitude},
		Center:   [2]float64{v.Region.Center.Longitude, v.Region.Center.Latitude},
		Span:     [2]float64{v.Region.LongitudeDelta, v.Region.LatitudeDelta},
		Features: make([]Feature, 0, len(v.Markers)),
	}
	if cellRes >= 0 {
		if cells, err := RegionCells(v.Region, cellRes); err == nil {
			fc.Cells = cells
		}
	}
	for _, m := range v.Markers {
		props := map[string]any{
			"name": m.Label,
			"icon": m.IconURL,
			// false for points outside the initial viewport
			"in_view": v.Region.Contains(m.Coordinate),
		}
		if m.Cell != "" {
			props["cell"] = m.Cell
		}
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			ID:   m.ID,
			Geometry: PointGeometry{
				Type:        "Point",
				Coordinates: [2]float64{m.Coordinate.Longitude, m.Coordinate.Latitude},
			},
			Properties: props,
		})
	}
	return fc
}

// GeoJSONSurface keeps the last rendered view encoded as GeoJSON.
type GeoJSONSurface struct {
	cellRes int

	mu   sync.RWMutex
	body []byte
}

func NewGeoJSONSurface(cellRes int) *GeoJSONSurface {
	return &GeoJSONSurface{cellRes: cellRes}
}

func (s *GeoJSONSurface) Render(v View) {
	b, err := json.Marshal(ToGeoJSON(v, s.cellRes))
	if err != nil {
		return
	}
	s.mu.Lock()
	s.body = b
	s.mu.Unlock()
}

func (s *GeoJSONSurface) Clear() {
	s.mu.Lock()
	s.body = nil
	s.mu.Unlock()
}

// Bytes returns the encoded collection, or false if nothing is rendered.
func (s *GeoJSONSurface) Bytes() ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.body == nil {
		return nil, false
	}
	return s.body, true
}
