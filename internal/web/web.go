// Package web serves the dashboard page and the JSON/SVG API on top of
// the event store and the layout core.
package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lossdash/internal/config"
	"lossdash/internal/export"
	appLog "lossdash/internal/log"
	"lossdash/internal/model"
	"lossdash/internal/palette"
	"lossdash/internal/pareto"
	"lossdash/internal/render"
	"lossdash/internal/store"
	"lossdash/internal/timeline"
)

//go:embed static
var embeddedStatic embed.FS

// Server provides the HTTP dashboard and API.
type Server struct {
	cfg   *config.Config
	store *store.Store
	loc   *time.Location
	mux   *http.ServeMux
}

// NewServer constructs a new Server over the given store.
func NewServer(cfg *config.Config, st *store.Store, loc *time.Location) *Server {
	if loc == nil {
		loc = time.Local
	}
	s := &Server{
		cfg:   cfg,
		store: st,
		loc:   loc,
		mux:   http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// StartServer starts an HTTP server bound to cfg.Listen and blocks until
// it fails or ctx is cancelled.
func StartServer(ctx context.Context, cfg *config.Config, st *store.Store, loc *time.Location) error {
	s := NewServer(cfg, st, loc)
	srv := &http.Server{Addr: cfg.Listen, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)

	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/layout", s.handleLayout)
	s.mux.HandleFunc("/api/colors", s.handleColors)
	s.mux.HandleFunc("/api/upload", s.requireAuth(s.handleUpload))

	s.mux.HandleFunc("/timeline.svg", s.handleTimelineSVG)
	s.mux.HandleFunc("/pareto/cost.svg", s.handleParetoCost)
	s.mux.HandleFunc("/pareto/scrap.svg", s.handleParetoScrap)

	s.mux.HandleFunc("/api/export/ics", s.handleExportICS)
	s.mux.HandleFunc("/api/export/csv", s.handleExportCSV)
	s.mux.HandleFunc("/api/export/xlsx", s.handleExportXLSX)
	s.mux.HandleFunc("/api/export/blank", s.handleExportBlank)

	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// requireAuth wraps a handler with HTTP Basic Auth when credentials are
// configured; otherwise the handler is served as-is.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ba := s.cfg.BasicAuth
		if ba == nil || ba.Username == "" || ba.Password == "" {
			next(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, ba.Username) || !secureCompare(p, ba.Password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="lossdash", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// handleEvents is the event table CRUD endpoint.
//
//	GET            list rows (honors category/reserved filters)
//	PUT            replace the whole table
//	POST           append one row
//	DELETE ?row=N  delete one row
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		events := applyFilters(s.store.Events(), r)
		writeJSON(w, http.StatusOK, eventsResponse{Events: events, Total: s.store.Len()})
	case http.MethodPut:
		s.requireAuth(s.handleReplaceEvents)(w, r)
	case http.MethodPost:
		s.requireAuth(s.handleAppendEvent)(w, r)
	case http.MethodDelete:
		s.requireAuth(s.handleDeleteEvent)(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type eventsResponse struct {
	Events []model.Event `json:"events"`
	Total  int           `json:"total"`
}

func (s *Server) handleReplaceEvents(w http.ResponseWriter, r *http.Request) {
	var events []model.Event
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.store.Replace(events); err != nil {
		appLog.Error("replace events failed", err)
		writeError(w, http.StatusInternalServerError, "failed to save events")
		return
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: s.store.Events(), Total: s.store.Len()})
}

func (s *Server) handleAppendEvent(w http.ResponseWriter, r *http.Request) {
	var ev model.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.store.Append(ev); err != nil {
		appLog.Error("append event failed", err)
		writeError(w, http.StatusInternalServerError, "failed to save event")
		return
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: s.store.Events(), Total: s.store.Len()})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	row, err := strconv.Atoi(r.URL.Query().Get("row"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "row parameter required")
		return
	}
	if err := s.store.Delete(row); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: s.store.Events(), Total: s.store.Len()})
}

// handleUpload replaces the table with an uploaded workbook (raw .xlsx
// body) and saves it to the configured data file.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.store.LoadFrom(r.Body); err != nil {
		appLog.Error("upload failed", err)
		writeError(w, http.StatusBadRequest, "could not read workbook")
		return
	}
	if err := s.store.Save(); err != nil {
		appLog.Error("save after upload failed", err)
		writeError(w, http.StatusInternalServerError, "failed to save events")
		return
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: s.store.Events(), Total: s.store.Len()})
}

// layoutRequest holds the parsed view parameters shared by the layout,
// timeline and pareto endpoints.
type layoutRequest struct {
	view     timeline.View
	ref      time.Time
	showDesc bool
}

func (s *Server) parseLayoutRequest(r *http.Request) (layoutRequest, error) {
	q := r.URL.Query()

	view, err := timeline.ParseView(q.Get("view"))
	if err != nil {
		return layoutRequest{}, err
	}

	ref := time.Now().In(s.loc)
	if d := q.Get("date"); d != "" {
		parsed, err := time.ParseInLocation("2006-01-02", d, s.loc)
		if err != nil {
			return layoutRequest{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", d)
		}
		ref = parsed
	}

	showDesc := q.Get("desc") != "false" && q.Get("desc") != "0"

	return layoutRequest{view: view, ref: ref, showDesc: showDesc}, nil
}

// applyFilters narrows events by the category (repeatable) and reserved
// (all/yes/no) query parameters.
func applyFilters(events []model.Event, r *http.Request) []model.Event {
	q := r.URL.Query()
	cats := q["category"]
	reserved := strings.ToLower(q.Get("reserved"))

	if len(cats) == 0 && (reserved == "" || reserved == "all") {
		return events
	}

	catSet := make(map[string]bool, len(cats))
	for _, c := range cats {
		catSet[c] = true
	}

	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if len(catSet) > 0 && !catSet[ev.Category] {
			continue
		}
		switch reserved {
		case "yes":
			if !ev.ReservedYes() {
				continue
			}
		case "no":
			if !ev.ReservedNo() {
				continue
			}
		}
		out = append(out, ev)
	}
	return out
}

// resolver builds the color map for the given events: built-in colors
// plus config overrides, with cycle colors assigned to categories seen
// in the data. Rebuilt per request so colors always follow the current
// table.
func (s *Server) resolver(events []model.Event) *palette.Resolver {
	res := palette.NewResolver(s.cfg.ExtraColors)
	cats := make([]string, 0, len(events))
	for _, ev := range events {
		cats = append(cats, ev.Category)
	}
	res.AssignNew(cats)
	return res
}

func (s *Server) buildLayout(r *http.Request) (timeline.Layout, error) {
	req, err := s.parseLayoutRequest(r)
	if err != nil {
		return timeline.Layout{}, err
	}
	events := applyFilters(s.store.Events(), r)
	res := s.resolver(events)
	l := timeline.Build(events, req.view, req.ref, timeline.Options{
		ShowDescription: req.showDesc,
		Color:           res.Color,
	})
	return l, nil
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	l, err := s.buildLayout(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleTimelineSVG(w http.ResponseWriter, r *http.Request) {
	l, err := s.buildLayout(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml; charset=utf-8")
	if err := render.SVG(w, l); err != nil {
		appLog.Error("timeline render failed", err)
	}
}

func (s *Server) handlePareto(w http.ResponseWriter, r *http.Request, m pareto.Metric) {
	req, err := s.parseLayoutRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	events := applyFilters(s.store.Events(), r)
	res := s.resolver(events)

	window := timeline.ResolveWindow(req.view, req.ref)
	entries := pareto.ByTitle(pareto.FilterWindow(events, window), m)
	title := fmt.Sprintf("Pareto: %s - %s", m.AxisLabel(), timeline.RangeLabel(req.view, req.ref, window))

	w.Header().Set("Content-Type", "image/svg+xml; charset=utf-8")
	if err := pareto.RenderSVG(w, entries, title, m, res); err != nil {
		appLog.Error("pareto render failed", err)
	}
}

func (s *Server) handleParetoCost(w http.ResponseWriter, r *http.Request) {
	s.handlePareto(w, r, pareto.MetricCost)
}

func (s *Server) handleParetoScrap(w http.ResponseWriter, r *http.Request) {
	s.handlePareto(w, r, pareto.MetricScrapBGrade)
}

func (s *Server) handleColors(w http.ResponseWriter, r *http.Request) {
	res := s.resolver(s.store.Events())
	writeJSON(w, http.StatusOK, struct {
		Options []string          `json:"options"`
		Colors  map[string]string `json:"colors"`
	}{
		Options: palette.CategoryOptions,
		Colors:  res.Snapshot(),
	})
}

func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	_, _ = w.Write([]byte(export.ICS(applyFilters(s.store.Events(), r))))
}

func (s *Server) handleExportCSV(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="loss_events.csv"`)
	if err := s.store.WriteCSV(w); err != nil {
		appLog.Error("csv export failed", err)
	}
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="loss_events.xlsx"`)
	if err := s.store.WriteWorkbook(w); err != nil {
		appLog.Error("xlsx export failed", err)
	}
}

func (s *Server) handleExportBlank(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="timeline_blank.xlsx"`)
	if err := store.BlankWorkbook(w); err != nil {
		appLog.Error("blank workbook export failed", err)
	}
}

// staticFileServer serves the embedded dashboard page. API paths never
// fall through to it.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "dashboard UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/api" || strings.HasPrefix(path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
