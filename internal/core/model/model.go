// Package model defines core domain types shared across the client.
package model

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

type MaterialType struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	IconURI string `json:"image_url"`
}

type CollectionPoint struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p CollectionPoint) Coordinate() Coordinate {
	return Coordinate{Latitude: p.Latitude, Longitude: p.Longitude}
}

// Coordinate is a resolved position. Unresolved positions are a nil *Coordinate,
// so (0,0) is a real place here.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String representation as "lat,lon"
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

type Region struct {
	Center         Coordinate `json:"center"`
	LatitudeDelta  float64    `json:"latitude_delta"`
	LongitudeDelta float64    `json:"longitude_delta"`
}

// Bounds returns the south-west and north-east corners of the region.
func (r Region) Bounds() (sw, ne Coordinate) {
	hl, hg := r.LatitudeDelta/2, r.LongitudeDelta/2
	sw = Coordinate{Latitude: r.Center.Latitude - hl, Longitude: r.Center.Longitude - hg}
	ne = Coordinate{Latitude: r.Center.Latitude + hl, Longitude: r.Center.Longitude + hg}
	return sw, ne
}

func (r Region) Contains(c Coordinate) bool {
	sw, ne := r.Bounds()
	return c.Latitude >= sw.Latitude && c.Latitude <= ne.Latitude &&
		c.Longitude >= sw.Longitude && c.Longitude <= ne.Longitude
}

// Selection is an immutable set of material type ids.
type Selection struct {
	ids map[int]struct{}
}

func NewSelection(ids ...int) Selection {
	s := Selection{ids: make(map[int]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

func (s Selection) Has(id int) bool {
	_, ok := s.ids[id]
	return ok
}

func (s Selection) Len() int { return len(s.ids) }

func (s Selection) Empty() bool { return len(s.ids) == 0 }

// IDs returns the members sorted ascending.
func (s Selection) IDs() []int {
	out := make([]int, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// With returns a copy with id flipped.
func (s Selection) With(id int) Selection {
	next := Selection{ids: make(map[int]struct{}, len(s.ids)+1)}
	for k := range s.ids {
		next.ids[k] = struct{}{}
	}
	if _, ok := next.ids[id]; ok {
		delete(next.ids, id)
	} else {
		next.ids[id] = struct{}{}
	}
	return next
}

func (s Selection) Equal(o Selection) bool {
	if len(s.ids) != len(o.ids) {
		return false
	}
	for id := range s.ids {
		if _, ok := o.ids[id]; !ok {
			return false
		}
	}
	return true
}

// String joins the sorted ids with commas.
func (s Selection) String() string {
	ids := s.IDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// Key is a stable fingerprint of the selection for logs and metrics.
func (s Selection) Key() string {
	if s.Empty() {
		return "all"
	}
	return fmt.Sprintf("sel=%016x", xxhash.Sum64String(s.String()))
}

// ParseSelection reads "1,2,3"; blanks are skipped.
func ParseSelection(raw string) (Selection, error) {
	var ids []int
	for p := range strings.SplitSeq(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Selection{}, fmt.Errorf("type id %q: %w", p, err)
		}
		ids = append(ids, n)
	}
	return NewSelection(ids...), nil
}

type RecyclerContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type TypeTitle struct {
	Title string `json:"title"`
}

type RecyclerDetail struct {
	Recycler RecyclerContact `json:"recycler"`
	Types    []TypeTitle     `json:"types"`
}
