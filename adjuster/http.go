package adjuster

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hazyhaar/readstyle/kit"
	"github.com/hazyhaar/readstyle/netguard"
	"github.com/hazyhaar/readstyle/shield"
	"github.com/hazyhaar/readstyle/style"
)

// Handler returns a chi router serving the readstyle API with the standard
// middleware stack.
func (a *Adjuster) Handler() http.Handler {
	limiter := shield.NewRateLimiter(a.config.HTTP.RateLimits, "/healthz", "/metrics")
	limiter.StartSweeper(5*time.Minute, a.done)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
	r.Use(shield.HeadToGet)
	r.Use(limiter.Middleware)
	a.RegisterHTTP(r)
	return r
}

// RegisterHTTP mounts the readstyle routes on r.
func (a *Adjuster) RegisterHTTP(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if a.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(tagHTTP)
		r.Post("/message", a.httpMessage)
		r.Get("/settings", a.httpSettings)
		r.Get("/css", a.httpCSS)
		r.Get("/export", a.httpExport)
		r.Post("/import", a.httpImport)
		r.Post("/analyze", a.httpAnalyze)
		r.Post("/preview", a.httpPreview)
	})
}

func tagHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := kit.WithTransport(r.Context(), kit.TransportHTTP)
		ctx = kit.WithRemoteAddr(ctx, r.RemoteAddr)
		if id := middleware.GetReqID(ctx); id != "" {
			ctx = kit.WithRequestID(ctx, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// httpMessage dispatches a message envelope. Message-level failures are
// carried in the envelope with a 200 status.
func (a *Adjuster) httpMessage(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.router.DispatchJSON(r.Context(), body))
}

func (a *Adjuster) httpSettings(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeError(w, http.StatusBadRequest, errors.New("url is required"))
		return
	}
	writeJSON(w, http.StatusOK, a.Decide(r.Context(), url))
}

func (a *Adjuster) httpCSS(w http.ResponseWriter, r *http.Request) {
	css := style.GenerateCSS(a.SettingsForURL(r.Context(), r.URL.Query().Get("url")))
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(css))
}

func (a *Adjuster) httpExport(w http.ResponseWriter, r *http.Request) {
	data, err := a.prefs.Export(r.Context())
	if err != nil {
		a.logger.Error("adjuster: export", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="reading-style-settings.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (a *Adjuster) httpImport(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	a.mu.Lock()
	imported := a.prefs.Import(r.Context(), body)
	a.mu.Unlock()
	code := http.StatusOK
	if !imported {
		code = http.StatusBadRequest
	}
	writeJSON(w, code, map[string]bool{"success": imported})
}

// httpAnalyze reports the structure of the posted HTML, or of ?url= rendered
// in the browser when the body is empty.
func (a *Adjuster) httpAnalyze(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	info, err := a.PageInfo(r.Context(), r.URL.Query().Get("url"), string(body))
	switch {
	case errors.Is(err, ErrNoSource):
		writeError(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, netguard.ErrPrivate), errors.Is(err, netguard.ErrScheme), errors.Is(err, netguard.ErrNoHost):
		writeError(w, http.StatusForbidden, err)
		return
	case err != nil:
		a.logger.Error("adjuster: analyze", "error", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (a *Adjuster) httpPreview(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	out, err := a.Preview(r.Context(), r.URL.Query().Get("url"), string(body))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(out))
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := netguard.ReadAll(r.Body, netguard.MaxBody)
	if errors.Is(err, netguard.ErrTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
