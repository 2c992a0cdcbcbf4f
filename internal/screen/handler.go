package screen

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/recycler-discovery/internal/discovery"
	"github.com/mohammed-shakir/recycler-discovery/internal/geo"
	"github.com/mohammed-shakir/recycler-discovery/internal/mapview"
)

// Routes mounts the screen endpoints. Mutating endpoints accept ?wait=1 to
// respond only after the loads they started have finished.
func Routes(h *Host, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Post("/activate", func(w http.ResponseWriter, r *http.Request) {
		snap, err := h.Activate(waitParam(r))
		logLoadErr(logger, r, err)
		writeJSON(w, http.StatusAccepted, snap)
	})

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		snap, err := h.Snapshot()
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	})

	r.Get("/map", func(w http.ResponseWriter, _ *http.Request) {
		b, ok := h.Surface().Bytes()
		if !ok {
			http.Error(w, "map not rendered", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write(b)
	})

	r.Post("/types/{id}/toggle", func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		snap, err := h.Toggle(id, waitParam(r))
		if errors.Is(err, ErrNoScreen) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		logLoadErr(logger, r, err)
		writeJSON(w, http.StatusAccepted, snap)
	})

	r.Post("/markers/{id}/activate", func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		route, err := h.ActivateMarker(id)
		switch {
		case errors.Is(err, ErrNoScreen), errors.Is(err, mapview.ErrUnknownMarker):
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, route)
	})

	r.Post("/back", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, h.Back())
	})

	r.Get("/detail/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		page, err := h.Detail(r.Context(), id)
		if err != nil {
			logger.WarnContext(r.Context(), "detail load failed", "recycler_id", id, "err", err)
			http.Error(w, "detail unavailable", http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, page)
	})

	return r
}

func idParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func waitParam(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	return v
}

// logLoadErr logs failures that the screen already absorbed into its state.
func logLoadErr(logger *slog.Logger, r *http.Request, err error) {
	switch {
	case err == nil:
	case errors.Is(err, geo.ErrPermissionDenied):
		logger.InfoContext(r.Context(), "screen activated without location permission")
	case errors.Is(err, discovery.ErrFetch):
		logger.WarnContext(r.Context(), "screen loaded with degraded data", "err", err)
	default:
		logger.WarnContext(r.Context(), "screen load error", "err", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
