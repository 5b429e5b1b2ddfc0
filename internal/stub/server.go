// Package stub is an in-memory fake of the Scale REST API. It backs the
// --demo mode and the HTTP tests of the other packages.
package stub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/transform"
)

// Prefix is the path the API is mounted under.
const Prefix = "/api/v5"

// Request is one request the server received.
type Request struct {
	Method string
	Path   string
	Query  url.Values
}

// Server holds the fake data set behind a chi router.
type Server struct {
	Log *zap.Logger

	mu       sync.Mutex
	data     *dataset
	requests []Request
	now      func() time.Time
}

// New seeds a server with records spread around now.
func New(logger *zap.Logger, now time.Time) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := seed(now)
	if err != nil {
		return nil, err
	}
	return &Server{
		Log:  logger,
		data: data,
		now:  func() time.Time { return now.UTC().Truncate(time.Second) },
	}, nil
}

// Routes returns the router serving every endpoint under Prefix.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)

	r.Route(Prefix, func(r chi.Router) {
		for _, name := range Collections {
			r.Get("/"+name+"/", s.serveList(name))
		}
		r.Get("/nodes/status/", s.serveNodeStatus)
		r.Get("/queue/status/", s.serveQueueStatus)
		r.Post("/queue/requeue-jobs/", s.serveRequeue)
		r.Get("/load/", s.serveLoad)
		r.Get("/status/", s.serveStatus)
		r.Get("/job-types/running/", s.serveRunning)
		r.Get("/job-types/status/", s.serveJobTypeStatus)
		r.Get("/accounts/profile/", s.serveProfile)
		r.Get("/scheduler/", s.serveScheduler)
		r.Patch("/scheduler/", s.serveUpdateScheduler)
		r.Post("/strikes/", s.serveCreateStrike)
		r.Post("/strikes/validation/", s.serveValidateStrike)
		r.Patch("/strikes/{id}/", s.serveUpdateStrike)
		r.Post("/workspaces/", s.serveCreateWorkspace)
		r.Post("/workspaces/validation/", s.serveValidateWorkspace)
		r.Patch("/workspaces/{id}/", s.serveUpdateWorkspace)
		r.Patch("/jobs/{id}/", s.serveUpdateJob)
		r.Patch("/nodes/{id}/", s.serveUpdateNode)
		r.Get("/job-executions/{id}/logs/{stream}/", s.serveExecutionLog)
		for _, name := range Collections {
			r.Get("/"+name+"/{id}/", s.serveDetail(name))
		}
	})
	return r
}

// Requests returns the requests received so far, oldest first.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastQuery returns the query of the latest request whose path ends with
// suffix.
func (s *Server) LastQuery(suffix string) (url.Values, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		p := s.requests[i].Path
		if len(p) >= len(suffix) && p[len(p)-len(suffix):] == suffix {
			return s.requests[i].Query, true
		}
	}
	return nil, false
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query()})
		s.mu.Unlock()
		s.Log.Debug("stub request", zap.String("method", r.Method), zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery))
		next.ServeHTTP(w, r)
	})
}

// Start serves the routes on addr until ctx is done. It returns the API base
// URL.
func (s *Server) Start(ctx context.Context, addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: s.Routes(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Log.Error("stub server stopped", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	base := "http://" + ln.Addr().String() + Prefix + "/"
	s.Log.Info("stub api listening", zap.String("url", base))
	return base, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}

func pageLink(r *http.Request, page int) any {
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	u := url.URL{Scheme: "http", Host: r.Host, Path: r.URL.Path, RawQuery: q.Encode()}
	return u.String()
}

// serveList handles GET /{collection}/ with filtering, ordering and
// pagination.
func (s *Server) serveList(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		s.mu.Lock()
		rows := selectRows(collection, s.data.rows[collection], q)
		s.mu.Unlock()

		page, number, size, ok := paginate(rows, q)
		if !ok {
			writeDetail(w, http.StatusNotFound, "Invalid page.")
			return
		}
		var next, previous any
		if number*size < len(rows) {
			next = pageLink(r, number+1)
		}
		if number > 1 {
			previous = pageLink(r, number-1)
		}
		if page == nil {
			page = []transform.Row{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"count":    len(rows),
			"next":     next,
			"previous": previous,
			"results":  page,
		})
	}
}

// serveDetail handles GET /{collection}/{id}/. Jobs carry their executions.
func (s *Server) serveDetail(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s.mu.Lock()
		defer s.mu.Unlock()
		_, row, ok := s.data.find(collection, id)
		if !ok {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		if collection == "jobs" {
			out := transform.Row{}
			for k, v := range row {
				out[k] = v
			}
			jobID, _ := row.Int64("id")
			exes := s.data.exes[jobID]
			if exes == nil {
				exes = []transform.Row{}
			}
			out["job_exes"] = exes
			row = out
		}
		writeJSON(w, http.StatusOK, row)
	}
}

// serveUpdateJob handles PATCH /jobs/{id}/. Only cancellation is supported;
// jobs that already finished come back unchanged.
func (s *Server) serveUpdateJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body model.JobUpdate
	if err := decodeBody(r, &body); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	if body.Status != model.StatusCanceled {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Status %q is not supported.", body.Status))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i, row, ok := s.data.find("jobs", id)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if model.JobStatus(row.String("status")).Cancelable() {
		now := stamp(s.now())
		row["status"] = string(model.StatusCanceled)
		row["ended"] = now
		row["last_status_change"] = now
		row["last_modified"] = now
		s.data.rows["jobs"][i] = row
		jobID, _ := row.Int64("id")
		for _, exe := range s.data.exes[jobID] {
			if exe.String("status") == string(model.StatusRunning) {
				exe["status"] = string(model.StatusCanceled)
				exe["ended"] = now
			}
		}
		s.Log.Info("job canceled", zap.String("job_id", id))
	}
	writeJSON(w, http.StatusOK, row)
}

// serveRequeue handles POST /queue/requeue-jobs/.
func (s *Server) serveRequeue(w http.ResponseWriter, r *http.Request) {
	var req model.RequeueRequest
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := stamp(s.now())
	count := 0
	for i, job := range s.data.rows["jobs"] {
		if !requeueMatches(job, req) {
			continue
		}
		job["status"] = string(model.StatusQueued)
		job["error"] = nil
		job["ended"] = nil
		job["queued"] = now
		job["last_status_change"] = now
		job["last_modified"] = now
		if req.Priority != nil {
			job["priority"] = json.Number(strconv.Itoa(*req.Priority))
		}
		s.data.rows["jobs"][i] = job
		count++
	}
	s.Log.Info("jobs requeued", zap.Int("count", count))
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func requeueMatches(job transform.Row, req model.RequeueRequest) bool {
	status := model.JobStatus(job.String("status"))
	if status != model.StatusFailed && status != model.StatusCanceled {
		return false
	}
	if req.Status != "" && status != req.Status {
		return false
	}
	if t, ok := timeAt(job, "last_modified"); ok {
		if req.Started != nil && t.Before(*req.Started) {
			return false
		}
		if req.Ended != nil && t.After(*req.Ended) {
			return false
		}
	}
	id, _ := job.Int64("id")
	typeID, _ := job.Int64("job_type.id")
	return containsInt(req.JobIDs, id) &&
		containsInt(req.JobTypeIDs, typeID) &&
		containsString(req.JobTypeNames, job.String("job_type.name")) &&
		containsString(req.JobTypeCategories, job.String("job_type.category")) &&
		containsString(req.ErrorCategories, job.String("error.category"))
}

// containsInt is true when the filter is empty or holds v.
func containsInt(filter []int64, v int64) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == v {
			return true
		}
	}
	return false
}

func containsString(filter []string, v string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == v {
			return true
		}
	}
	return false
}

func (s *Server) serveNodeStatus(w http.ResponseWriter, r *http.Request) {
	started, ended := window(r.URL.Query(), s.now())
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.data.nodeStatus(started, ended))
}

func (s *Server) serveQueueStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.data.queueStatus())
}

func (s *Server) serveLoad(w http.ResponseWriter, r *http.Request) {
	started, ended := window(r.URL.Query(), s.now())
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.data.load(started, ended))
}

func (s *Server) serveRunning(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.data.runningStatus())
}

func (s *Server) serveJobTypeStatus(w http.ResponseWriter, r *http.Request) {
	started, ended := window(r.URL.Query(), s.now())
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.data.jobTypeStatus(started, ended))
}

// ViewerToken authenticates as a user without staff rights.
const ViewerToken = "viewer"

// serveProfile handles GET /accounts/profile/. Any token logs in; only
// ViewerToken lacks staff rights.
func (s *Server) serveProfile(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Token ")
	if !ok || token == "" {
		writeDetail(w, http.StatusForbidden, "Authentication credentials were not provided.")
		return
	}
	writeJSON(w, http.StatusOK, model.User{
		ID:       1,
		Username: token,
		Email:    token + "@example.com",
		IsStaff:  token != ViewerToken,
	})
}

func (s *Server) serveStatus(w http.ResponseWriter, r *http.Request) {
	host, _, err := net.SplitHostPort(r.Host)
	if err != nil {
		host = r.Host
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.data.systemStatus(host))
}

func (s *Server) serveScheduler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, model.Scheduler{IsPaused: s.data.paused})
}

func (s *Server) serveUpdateScheduler(w http.ResponseWriter, r *http.Request) {
	var body model.Scheduler
	if err := decodeBody(r, &body); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.paused = body.IsPaused
	s.Log.Info("scheduler updated", zap.Bool("paused", body.IsPaused))
	writeJSON(w, http.StatusOK, model.Scheduler{IsPaused: s.data.paused})
}

func (s *Server) serveUpdateNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body model.NodeUpdate
	if err := decodeBody(r, &body); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, row, ok := s.data.find("nodes", id)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	row["is_paused"] = body.IsPaused
	row["pause_reason"] = body.PauseReason
	if !body.IsPaused {
		row["pause_reason"] = ""
		row["is_paused_errors"] = false
	}
	row["last_modified"] = stamp(s.now())
	s.data.rows["nodes"][i] = row
	s.Log.Info("node updated", zap.String("node_id", id), zap.Bool("paused", body.IsPaused))
	writeJSON(w, http.StatusOK, row)
}

// strikeRow stores a strike the same shape the list endpoint returns.
func strikeRow(st model.Strike) transform.Row {
	return normalize(st)
}

func (s *Server) serveCreateStrike(w http.ResponseWriter, r *http.Request) {
	var st model.Strike
	if err := decodeBody(r, &st); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	if err := st.Validate(); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.data.rows["strikes"] {
		if existing.String("name") == st.Name {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("A strike named %q already exists.", st.Name))
			return
		}
	}
	now := s.now()
	st.ID = s.data.nextID["strikes"]
	s.data.nextID["strikes"]++
	st.Created, st.LastModified = &now, &now
	if st.Configuration.Version == "" {
		st.Configuration.Version = model.StrikeConfigurationVersion
	}
	row := strikeRow(st)
	s.data.rows["strikes"] = append(s.data.rows["strikes"], row)
	s.Log.Info("strike created", zap.Int64("strike_id", st.ID), zap.String("name", st.Name))
	writeJSON(w, http.StatusCreated, row)
}

func (s *Server) serveUpdateStrike(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Title         *string                    `json:"title"`
		Description   *string                    `json:"description"`
		Configuration *model.StrikeConfiguration `json:"configuration"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i, row, ok := s.data.find("strikes", id)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var st model.Strike
	data, _ := json.Marshal(row)
	if err := json.Unmarshal(data, &st); err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if body.Title != nil {
		st.Title = *body.Title
	}
	if body.Description != nil {
		st.Description = *body.Description
	}
	if body.Configuration != nil {
		st.Configuration = *body.Configuration
	}
	if err := st.Validate(); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	now := s.now()
	st.LastModified = &now
	row = strikeRow(st)
	s.data.rows["strikes"][i] = row
	s.Log.Info("strike updated", zap.String("strike_id", id))
	writeJSON(w, http.StatusOK, row)
}

// serveValidateStrike handles POST /strikes/validation/. Problems come back
// as 400; a strike that ingests without starting a recipe gets a warning.
func (s *Server) serveValidateStrike(w http.ResponseWriter, r *http.Request) {
	var st model.Strike
	if err := decodeBody(r, &st); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	if err := st.Validate(); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	result := model.ValidationResult{Warnings: []model.ValidationWarning{}}
	if st.Configuration.Recipe == nil {
		result.Warnings = append(result.Warnings, model.ValidationWarning{
			ID:      "no_recipe",
			Details: "Ingested files will not trigger a recipe",
		})
	}
	writeJSON(w, http.StatusOK, result)
}

// serveExecutionLog handles GET /job-executions/{id}/logs/{stream}/ as plain
// text. Executions that have not produced output answer 204.
func (s *Server) serveExecutionLog(w http.ResponseWriter, r *http.Request) {
	stream := chi.URLParam(r, "stream")
	switch stream {
	case "stdout", "stderr", "combined":
	default:
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	exeID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var since time.Time
	if raw := r.URL.Query().Get("started"); raw != "" {
		t, ok := transform.ParseTime(raw)
		if !ok {
			writeDetail(w, http.StatusBadRequest, "Invalid started timestamp.")
			return
		}
		since = t
	}

	s.mu.Lock()
	job, exe, ok := s.data.execution(exeID)
	var text string
	if ok {
		text = s.data.executionLog(job, exe, stream, since)
	}
	s.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if text == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

func (s *Server) serveCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var ws model.Workspace
	if err := decodeBody(r, &ws); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	if err := ws.Validate(); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.data.rows["workspaces"] {
		if existing.String("name") == ws.Name {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("A workspace named %q already exists.", ws.Name))
			return
		}
	}
	now := s.now()
	ws.ID = s.data.nextID["workspaces"]
	s.data.nextID["workspaces"]++
	ws.Created, ws.LastModified = &now, &now
	if ws.Configuration.Version == "" {
		ws.Configuration.Version = model.WorkspaceConfigurationVersion
	}
	row := normalize(ws)
	s.data.rows["workspaces"] = append(s.data.rows["workspaces"], row)
	s.Log.Info("workspace created", zap.Int64("workspace_id", ws.ID), zap.String("name", ws.Name))
	writeJSON(w, http.StatusCreated, row)
}

func (s *Server) serveUpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Title         *string                       `json:"title"`
		Description   *string                       `json:"description"`
		BaseURL       *string                       `json:"base_url"`
		IsActive      *bool                         `json:"is_active"`
		Configuration *model.WorkspaceConfiguration `json:"configuration"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i, row, ok := s.data.find("workspaces", id)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var ws model.Workspace
	data, _ := json.Marshal(row)
	if err := json.Unmarshal(data, &ws); err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if body.Title != nil {
		ws.Title = *body.Title
	}
	if body.Description != nil {
		ws.Description = *body.Description
	}
	if body.BaseURL != nil {
		ws.BaseURL = *body.BaseURL
	}
	if body.IsActive != nil {
		ws.IsActive = *body.IsActive
	}
	if body.Configuration != nil {
		ws.Configuration = *body.Configuration
	}
	if err := ws.Validate(); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	now := s.now()
	ws.LastModified = &now
	row = normalize(ws)
	s.data.rows["workspaces"][i] = row
	s.Log.Info("workspace updated", zap.String("workspace_id", id))
	writeJSON(w, http.StatusOK, row)
}

// serveValidateWorkspace handles POST /workspaces/validation/. Host brokers
// get a warning since the path must exist on every node.
func (s *Server) serveValidateWorkspace(w http.ResponseWriter, r *http.Request) {
	var ws model.Workspace
	if err := decodeBody(r, &ws); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	if err := ws.Validate(); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	result := model.ValidationResult{Warnings: []model.ValidationWarning{}}
	if ws.Configuration.Broker.Type == "host" {
		result.Warnings = append(result.Warnings, model.ValidationWarning{
			ID:      "host_path",
			Details: "The host path must be mounted on every node",
		})
	}
	writeJSON(w, http.StatusOK, result)
}
