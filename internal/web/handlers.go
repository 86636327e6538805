package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AwsThamer/ranger/internal/core"
	"github.com/AwsThamer/ranger/internal/geo"
	"github.com/AwsThamer/ranger/internal/logging"
	"github.com/AwsThamer/ranger/internal/sink"
	"github.com/AwsThamer/ranger/internal/web/templates"
)

// sourceHeader lets the page mark selections it records itself.
const sourceHeader = "X-Ranger-Source"

// handleIndex renders the picker, and the result card when ?range= is set.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := templates.PageData{
		Keys:     s.service.Keys(),
		Selected: r.URL.Query().Get("range"),
	}

	if status := s.service.LoadStatus(); !status.OK() {
		msg := core.MapError(status.Err)
		data.Notice = &msg
	}

	if strings.TrimSpace(data.Selected) != "" {
		sel := s.service.Project(data.Selected)
		data.Selection = &sel
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.IndexPage(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render index", "error", err)
	}
}

type rangesResponse struct {
	Ranges []string `json:"ranges"`
	Count  int      `json:"count"`
}

func (s *Server) handleListRanges(w http.ResponseWriter, r *http.Request) {
	keys := s.service.Keys()
	writeJSON(w, http.StatusOK, rangesResponse{Ranges: keys, Count: len(keys)})
}

// handleGetRange answers 200 for a miss too: an unknown key projects to
// blank fields with matched=false.
func (s *Server) handleGetRange(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Project(rangeParam(r)))
}

// rangeParam returns the {key} segment decoded exactly once. chi matches on
// URL.RawPath when it is set, leaving the segment escaped, and on the already
// decoded URL.Path otherwise.
func rangeParam(r *http.Request) string {
	key := chi.URLParam(r, "key")
	if r.URL.RawPath == "" {
		return key
	}
	if k, err := url.PathUnescape(key); err == nil {
		return k
	}
	return key
}

type selectionRequest struct {
	Range             string           `json:"range"`
	PermissionGranted bool             `json:"permissionGranted"`
	Location          *geo.Coordinates `json:"location"`
}

type selectionResponse struct {
	core.SelectionResult
	PermissionRequested bool `json:"permissionRequested"`
}

// handleSelect displays and records one selection. Recording is reported in
// the body but never changes the status: the write happens after the
// response.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errInvalidBody, err), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Range) == "" {
		s.respondError(w, r, errRangeRequired, http.StatusBadRequest)
		return
	}

	source := sourceAPI
	if r.Header.Get(sourceHeader) == sourcePage {
		source = sourcePage
	}

	perm := core.NewReportedPermission(req.PermissionGranted)
	ctx := withRequestMetadata(r.Context(), r, source)
	res := s.service.Select(ctx, req.Range, perm, core.StaticLocation{Fix: req.Location})

	logging.WithFields(r.Context(), "range", req.Range).Info("selection",
		"matched", res.Matched,
		"recording", res.Recording,
		"source", source,
	)

	writeJSON(w, http.StatusAccepted, selectionResponse{
		SelectionResult:     res,
		PermissionRequested: perm.Requested(),
	})
}

type tableStatus struct {
	Rows       int       `json:"rows"`
	Bytes      int64     `json:"bytes"`
	Format     string    `json:"format"`
	Sheet      string    `json:"sheet,omitempty"`
	LoadedAt   time.Time `json:"loadedAt"`
	DurationMs int64     `json:"durationMs"`
	Error      string    `json:"error,omitempty"`
	ErrorCode  string    `json:"errorCode,omitempty"`
}

type healthResponse struct {
	Status string      `json:"status"`
	Table  tableStatus `json:"table"`
	Sink   *sink.Stats `json:"sink,omitempty"`
}

// handleHealth reports "degraded" when the table failed to load or the
// configured sink could not be reached. The service keeps answering in both
// cases, with an empty table or without recording.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.service.LoadStatus()

	resp := healthResponse{
		Status: "ok",
		Table: tableStatus{
			Rows:       st.Rows,
			Bytes:      st.Bytes,
			Format:     string(st.Format),
			Sheet:      st.Sheet,
			LoadedAt:   st.LoadedAt,
			DurationMs: st.Duration.Milliseconds(),
		},
	}
	if !st.OK() {
		msg := core.MapError(st.Err)
		resp.Status = "degraded"
		resp.Table.Error = msg.Message
		resp.Table.ErrorCode = msg.Code
	}
	if s.events != nil {
		stats := s.events.Stats()
		resp.Sink = &stats
		if stats.ErrorCode != "" {
			resp.Status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
