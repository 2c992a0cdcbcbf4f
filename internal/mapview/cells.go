package mapview

import (
	"fmt"
	"sort"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/recycler-discovery/internal/core/model"
)

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}

// CellFor returns the H3 cell containing c.
func CellFor(c model.Coordinate, res int) (string, error) {
	if err := validateRes(res); err != nil {
		return "", err
	}
	cell, err := h3.LatLngToCell(h3.LatLng{Lat: c.Latitude, Lng: c.Longitude}, res)
	if err != nil {
		return "", fmt.Errorf("h3 cell for %s: %w", c, err)
	}
	return cell.String(), nil
}

// RegionCells covers the visible region with cells, sorted and unique.
func RegionCells(r model.Region, res int) ([]string, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	sw, ne := r.Bounds()
	loop := h3.GeoLoop{
		{Lat: sw.Latitude, Lng: sw.Longitude},
		{Lat: sw.Latitude, Lng: ne.Longitude},
		{Lat: ne.Latitude, Lng: ne.Longitude},
		{Lat: ne.Latitude, Lng: sw.Longitude},
	}
	idx, err := h3.PolygonToCells(h3.GeoPolygon{GeoLoop: loop}, res)
	if err != nil {
		return nil, fmt.Errorf("h3 polyfill: %w", err)
	}
	seen := make(map[string]struct{}, len(idx))
	out := make([]string, 0, len(idx))
	for _, c := range idx {
		s := c.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}
