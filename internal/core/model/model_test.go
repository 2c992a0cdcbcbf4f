package model

import (
	"reflect"
	"strings"
	"testing"
)

func TestSelection_WithIsInvolution(t *testing.T) {
	base := NewSelection(3, 1)
	for _, id := range []int{1, 2, 3, 99} {
		got := base.With(id).With(id)
		if !got.Equal(base) {
			t.Fatalf("toggle %d twice: got %v want %v", id, got.IDs(), base.IDs())
		}
	}
	if !base.Has(1) || !base.Has(3) || base.Has(2) {
		t.Fatalf("base mutated: %v", base.IDs())
	}
}

func TestSelection_IDsSortedAndUnique(t *testing.T) {
	s := NewSelection(5, 2, 5, 9, 2)
	if got, want := s.IDs(), []int{2, 5, 9}; !reflect.DeepEqual(got, want) {
		t.Fatalf("IDs=%v want %v", got, want)
	}
	if s.String() != "2,5,9" {
		t.Fatalf("String=%q", s.String())
	}
}

func TestSelection_KeyStableAcrossInsertionOrder(t *testing.T) {
	a := NewSelection(1, 2, 3)
	b := NewSelection(3, 1, 2)
	if a.Key() != b.Key() {
		t.Fatalf("keys differ: %s vs %s", a.Key(), b.Key())
	}
	if !strings.HasPrefix(a.Key(), "sel=") {
		t.Fatalf("unexpected key format %q", a.Key())
	}
	if NewSelection().Key() != "all" {
		t.Fatalf("empty selection key=%q want all", NewSelection().Key())
	}
	if a.Key() == NewSelection(1, 2).Key() {
		t.Fatal("different selections share a key")
	}
}

func TestParseSelection(t *testing.T) {
	s, err := ParseSelection(" 2, ,1,2 ")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got := s.IDs(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("got %v", got)
	}
	if _, err := ParseSelection("1,x"); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func TestRegion_BoundsAndContains(t *testing.T) {
	r := Region{Center: Coordinate{Latitude: -23.5, Longitude: -46.6}, LatitudeDelta: 0.014, LongitudeDelta: 0.014}
	if !r.Contains(r.Center) {
		t.Fatal("center must be inside region")
	}
	if r.Contains(Coordinate{Latitude: -23.4, Longitude: -46.6}) {
		t.Fatal("point 0.1 deg north must be outside a 0.014 span")
	}
	sw, ne := r.Bounds()
	if sw.Latitude >= ne.Latitude || sw.Longitude >= ne.Longitude {
		t.Fatalf("bad bounds sw=%v ne=%v", sw, ne)
	}
}
