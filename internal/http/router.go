// Package httpx wires HTTP endpoints to services.
package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nizamudheenp/project-collaboration/internal/service/activity"
	"github.com/Nizamudheenp/project-collaboration/internal/service/auth"
	"github.com/Nizamudheenp/project-collaboration/internal/service/comment"
	"github.com/Nizamudheenp/project-collaboration/internal/service/invite"
	"github.com/Nizamudheenp/project-collaboration/internal/service/project"
	"github.com/Nizamudheenp/project-collaboration/internal/service/task"
	"github.com/Nizamudheenp/project-collaboration/internal/service/team"
	"github.com/Nizamudheenp/project-collaboration/internal/ws"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	auth     auth.Service
	team     team.Service
	project  project.Service
	task     task.Service
	comment  comment.Service
	invite   invite.Service
	activity activity.Service
	hub      *ws.Hub
	upgrader websocket.Upgrader
	limiter  RateLimiter
	dbHealth func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

const (
	rateWindowDefault  = time.Minute
	rateWindowRealtime = 30 * time.Second
	rateLimitRegister  = 5
	rateLimitLogin     = 12
	rateLimitUserWrite = 60
	rateLimitUserRead  = 120
	healthCheckTimeout = 2 * time.Second
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, teamSvc team.Service, projectSvc project.Service, taskSvc task.Service, commentSvc comment.Service, inviteSvc invite.Service, activitySvc activity.Service, hub *ws.Hub, limiter RateLimiter, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		logger:   logger,
		auth:     authSvc,
		team:     teamSvc,
		project:  projectSvc,
		task:     taskSvc,
		comment:  commentSvc,
		invite:   inviteSvc,
		activity: activitySvc,
		hub:      hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:  limiter,
		dbHealth: dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit(r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/auth/register", r.audit(r.withRateLimit("/auth/register", rateLimitRegister, rateWindowDefault, rateLimitKeyIP, r.handleRegister)))
	r.mux.HandleFunc("/auth/login", r.audit(r.withRateLimit("/auth/login", rateLimitLogin, rateWindowDefault, rateLimitKeyIP, r.handleLogin)))
	r.mux.HandleFunc("/teams", r.audit(r.handlerAuthRate("/teams", rateLimitUserWrite, rateWindowDefault, r.handleTeams)))
	r.mux.HandleFunc("/teams/", r.audit(r.handlerAuthRate("/teams/", rateLimitUserWrite, rateWindowDefault, r.handleTeamSubroutes)))
	r.mux.HandleFunc("/projects", r.audit(r.handlerAuthRate("/projects", rateLimitUserWrite, rateWindowDefault, r.handleProjects)))
	r.mux.HandleFunc("/projects/", r.audit(r.handlerAuthRate("/projects/", rateLimitUserWrite, rateWindowDefault, r.handleProjectSubroutes)))
	r.mux.HandleFunc("/tasks", r.audit(r.handlerAuthRate("/tasks", rateLimitUserWrite, rateWindowDefault, r.handleTasks)))
	r.mux.HandleFunc("/tasks/", r.audit(r.handlerAuthRate("/tasks/", rateLimitUserWrite, rateWindowDefault, r.handleTaskSubroutes)))
	r.mux.HandleFunc("/comments", r.audit(r.handlerAuthRate("/comments", rateLimitUserWrite, rateWindowDefault, r.handleComments)))
	r.mux.HandleFunc("/comments/", r.audit(r.handlerAuthRate("/comments/", rateLimitUserRead, rateWindowDefault, r.handleCommentsByTask)))
	r.mux.HandleFunc("/invites/", r.audit(r.handlerAuthRate("/invites/", rateLimitUserWrite, rateWindowDefault, r.handleInviteSubroutes)))
	r.mux.HandleFunc("/ws/events", r.handleEventsWS)
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := r.auth.Register(req.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		r.writeAppError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"token": token,
	})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := r.auth.Login(req.Context(), payload.Email, payload.Password)
	if err != nil {
		r.writeAppError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"token": token,
	})
}

func (r *Router) handleTeams(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodPost:
		var payload struct {
			TeamName string `json:"teamName"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		created, err := r.team.Create(req.Context(), info.UserID, payload.TeamName)
		if err != nil {
			r.writeAppError(w, req, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	case http.MethodGet:
		teams, err := r.team.MyTeams(req.Context(), info.UserID)
		if err != nil {
			r.writeAppError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, teams)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleTeamSubroutes(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	trimmed := strings.TrimPrefix(req.URL.Path, "/teams/")
	parts := strings.Split(trimmed, "/")
	teamID := parts[0]
	if teamID == "" {
		r.notFound(w)
		return
	}
	switch {
	case len(parts) == 1:
		switch req.Method {
		case http.MethodGet:
			teamRow, members, err := r.team.Get(req.Context(), teamID)
			if err != nil {
				r.writeAppError(w, req, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"team":    teamRow,
				"members": members,
			})
		case http.MethodDelete:
			if err := r.team.Delete(req.Context(), teamID, info.UserID); err != nil {
				r.writeAppError(w, req, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"message": "Team deleted"})
		default:
			r.methodNotAllowed(w)
		}
	case len(parts) == 2 && parts[1] == "invite":
		if req.Method != http.MethodPost {
			r.methodNotAllowed(w)
			return
		}
		var payload struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		member, err := r.team.AddMember(req.Context(), teamID, info.UserID, payload.Email)
		if err != nil {
			r.writeAppError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, member)
	case len(parts) == 3 && parts[1] == "remove":
		if req.Method != http.MethodDelete {
			r.methodNotAllowed(w)
			return
		}
		if err := r.team.RemoveMember(req.Context(), teamID, info.UserID, parts[2]); err != nil {
			r.writeAppError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Member removed"})
	default:
		r.notFound(w)
	}
}

func (r *Router) handleProjects(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		ProjectName string `json:"projectName"`
		Description string `json:"description"`
		TeamID      string `json:"teamId"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	created, err := r.project.Create(req.Context(), info.UserID, payload.TeamID, payload.ProjectName, payload.Description)
	if err != nil {
		r.writeAppError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (r *Router) handleProjectSubroutes(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	trimmed := strings.TrimPrefix(req.URL.Path, "/projects/")
	parts := strings.Split(trimmed, "/")
	switch {
	case len(parts) == 2 && parts[0] == "team" && parts[1] != "":
		if req.Method != http.MethodGet {
			r.methodNotAllowed(w)
			return
		}
		projects, err := r.project.ListByTeam(req.Context(), info.UserID, parts[1])
		if err != nil {
			r.writeAppError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, projects)
	case len(parts) == 1 && parts[0] != "":
		if req.Method != http.MethodDelete {
			r.methodNotAllowed(w)
			return
		}
		if err := r.project.Delete(req.Context(), info.UserID, parts[0]); err != nil {
			r.writeAppError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Project deleted"})
	default:
		r.notFound(w)
	}
}

func (r *Router) handleTasks(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		ProjectID   string `json:"projectId"`
		AssignedTo  string `json:"assignedTo"`
		DueDate     string `json:"dueDate"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	dueDate, ok := parseDate(payload.DueDate)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid due date")
		return
	}
	created, err := r.task.Create(req.Context(), info.UserID, payload.ProjectID, payload.Title, payload.Description, payload.AssignedTo, dueDate)
	if err != nil {
		r.writeAppError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (r *Router) handleTaskSubroutes(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	trimmed := strings.TrimPrefix(req.URL.Path, "/tasks/")
	parts := strings.Split(trimmed, "/")
	switch {
	case len(parts) == 2 && parts[0] == "project" && parts[1] != "":
		if req.Method != http.MethodGet {
			r.methodNotAllowed(w)
			return
		}
		tasks, err := r.task.ListByProject(req.Context(), info.UserID, parts[1])
		if err != nil {
			r.writeAppError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, tasks)
	case len(parts) == 2 && parts[1] == "status" && parts[0] != "":
		if req.Method != http.MethodPut {
			r.methodNotAllowed(w)
			return
		}
		var payload struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		updated, err := r.task.UpdateStatus(req.Context(), info.UserID, parts[0], payload.Status)
		if err != nil {
			r.writeAppError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case len(parts) == 2 && parts[1] == "activity" && parts[0] != "":
		if req.Method != http.MethodGet {
			r.methodNotAllowed(w)
			return
		}
		entries, err := r.activity.ListByTask(req.Context(), parts[0])
		if err != nil {
			r.writeAppError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	case len(parts) == 1 && parts[0] != "":
		if req.Method != http.MethodDelete {
			r.methodNotAllowed(w)
			return
		}
		if err := r.task.Delete(req.Context(), info.UserID, parts[0]); err != nil {
			r.writeAppError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
	default:
		r.notFound(w)
	}
}

func (r *Router) handleComments(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		TaskID string `json:"taskId"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	created, err := r.comment.Add(req.Context(), info.UserID, payload.TaskID, payload.Text)
	if err != nil {
		r.writeAppError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (r *Router) handleCommentsByTask(w http.ResponseWriter, req *http.Request) {
	if _, ok := r.mustAuthInfo(w, req); !ok {
		return
	}
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	taskID := strings.TrimPrefix(req.URL.Path, "/comments/")
	if taskID == "" || strings.Contains(taskID, "/") {
		r.notFound(w)
		return
	}
	comments, err := r.comment.ListByTask(req.Context(), taskID)
	if err != nil {
		r.writeAppError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (r *Router) handleInviteSubroutes(w http.ResponseWriter, req *http.Request) {
	info, ok := r.mustAuthInfo(w, req)
	if !ok {
		return
	}
	trimmed := strings.TrimPrefix(req.URL.Path, "/invites/")
	parts := strings.Split(trimmed, "/")
	switch {
	case len(parts) == 1 && parts[0] == "my":
		if req.Method != http.MethodGet {
			r.methodNotAllowed(w)
			return
		}
		invites, err := r.invite.MyInvites(req.Context(), info.Email)
		if err != nil {
			r.writeAppError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, invites)
	case len(parts) == 2 && parts[1] == "invite" && parts[0] != "":
		if req.Method != http.MethodPost {
			r.methodNotAllowed(w)
			return
		}
		var payload struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		created, err := r.invite.Invite(req.Context(), info.UserID, parts[0], payload.Email)
		if err != nil {
			r.writeAppError(w, req, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	case len(parts) == 2 && parts[0] == "respond" && parts[1] != "":
		if req.Method != http.MethodPost {
			r.methodNotAllowed(w)
			return
		}
		var payload struct {
			Action string `json:"action"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		updated, err := r.invite.Respond(req.Context(), info.UserID, info.Email, parts[1], payload.Action)
		if err != nil {
			r.writeAppError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	default:
		r.notFound(w)
	}
}

// handleEventsWS relays client events to every other connected client. The
// payload is never inspected; receivers refetch state over the REST routes.
func (r *Router) handleEventsWS(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	r.hub.Register(client)
	go func() {
		defer func() {
			r.hub.Unregister(client)
			client.Close()
		}()
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				break
			}
			r.hub.Broadcast(client, payload)
		}
	}()
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

// mustAuthInfo pulls auth metadata that requireAuth put on the context.
func (r *Router) mustAuthInfo(w http.ResponseWriter, req *http.Request) (authInfo, bool) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, "authorization context missing")
		return authInfo{}, false
	}
	return info, true
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if info, ok := authInfoFromContext(ctx); ok {
			actor = "user"
			fields = append(fields, "user_id", info.UserID)
		}
		fields = append(fields, "actor", actor)

		r.recordRequestMetrics(req.Method, routeLabel(req.URL.Path), status, duration)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

// routeLabel collapses paths with IDs to their first segment so metric
// cardinality stays bounded.
func routeLabel(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if idx := strings.IndexRune(trimmed, '/'); idx > 0 {
		return "/" + trimmed[:idx]
	}
	return path
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func (sr *statusRecorder) Push(target string, opts *http.PushOptions) error {
	if p, ok := sr.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return http.ErrNotSupported
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}
