package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammed-shakir/recycler-discovery/internal/core/config"
	"github.com/mohammed-shakir/recycler-discovery/internal/core/model"
	"github.com/mohammed-shakir/recycler-discovery/internal/discovery"
	"github.com/mohammed-shakir/recycler-discovery/internal/geo"
	"github.com/mohammed-shakir/recycler-discovery/internal/mapview"
	"github.com/mohammed-shakir/recycler-discovery/internal/metrics"
	"github.com/mohammed-shakir/recycler-discovery/internal/navigation"
	"github.com/mohammed-shakir/recycler-discovery/internal/screen"
)

type emptySource struct{}

func (emptySource) Types(context.Context) ([]model.MaterialType, error) { return nil, nil }

func (emptySource) Recyclers(context.Context, model.Selection) ([]model.CollectionPoint, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) (http.Handler, *screen.Host) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := func(nav navigation.Navigator, surface mapview.Surface) *discovery.Controller {
		return discovery.New(discovery.Deps{
			Position:   geo.NewProvider(geo.Static{Permission: geo.Granted}),
			Types:      emptySource{},
			Candidates: emptySource{},
			Surface:    surface,
			Navigator:  nav,
			Map:        mapview.DefaultOptions(),
		})
	}
	prov := metrics.Init(metrics.Config{Enabled: true})
	host := screen.NewHost(context.Background(), factory, screen.Options{Logger: logger, CellRes: -1, Gauge: prov})
	t.Cleanup(host.Close)
	return NewRouter(logger, host, prov), host
}

func TestRouter_HealthReadyAndMetrics(t *testing.T) {
	h, _ := newTestRouter(t)

	get := func(path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		return rr
	}

	if rr := get("/healthz"); rr.Code != http.StatusOK {
		t.Fatalf("healthz=%d", rr.Code)
	}
	if rr := get("/readyz"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before activation=%d want 503", rr.Code)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/screen/activate?wait=true", nil))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("activate=%d", rr.Code)
	}
	if rr := get("/readyz"); rr.Code != http.StatusOK {
		t.Fatalf("readyz after activation=%d want 200", rr.Code)
	}

	// origin is a valid resolved position: the map must render
	if rr := get("/screen/map"); rr.Code != http.StatusOK {
		t.Fatalf("map=%d want 200", rr.Code)
	}

	body := get("/metrics").Body.String()
	for _, want := range []string{"app_build_info", "http_requests_total", "discovery_screen_active 1"} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	h, _ := newTestRouter(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, config.Config{Addr: "127.0.0.1:0"}, slog.New(slog.NewTextHandler(io.Discard, nil)), h)
	}()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
