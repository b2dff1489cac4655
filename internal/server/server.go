// Package server exposes the portfolio helpers as a small JSON API for the
// page-rendering frontend. Each route applies its component's failure policy:
// skills fall back to empty lists, images and repositories report absence,
// and chat always answers with displayable text.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/kevinmichaelchen/folio/internal/apperr"
	"github.com/kevinmichaelchen/folio/internal/logger"
	"github.com/kevinmichaelchen/folio/internal/models"
	"github.com/kevinmichaelchen/folio/internal/nav"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const maxPromptBytes = 16 << 10

type SkillCatalog interface {
	Categorize(ctx context.Context) (models.Skills, error)
	LanguageImage(ctx context.Context, name string) (string, bool)
}

type RepoLister interface {
	List(ctx context.Context) ([]models.Repo, error)
}

// RepoListerFunc adapts a function to RepoLister.
type RepoListerFunc func(ctx context.Context) ([]models.Repo, error)

func (f RepoListerFunc) List(ctx context.Context) ([]models.Repo, error) { return f(ctx) }

type ChatReplier interface {
	Reply(ctx context.Context, prompt string) string
}

type Deps struct {
	Skills SkillCatalog
	Repos  RepoLister
	Chat   ChatReplier
}

type Server struct {
	router *mux.Router
	deps   Deps
	server *http.Server
}

func New(deps Deps) *Server {
	s := &Server{router: mux.NewRouter(), deps: deps}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/nav/active", s.handleNavActive).Methods(http.MethodGet)
	api.HandleFunc("/skills", s.handleSkills).Methods(http.MethodGet)
	api.HandleFunc("/skills/{name}/image", s.handleSkillImage).Methods(http.MethodGet)
	api.HandleFunc("/repos", s.handleRepos).Methods(http.MethodGet)
	api.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)

	s.router.Use(s.loggingMiddleware)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.G(ctx).WithField("addr", addr).Info("serving portfolio API")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "listening")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return errors.Wrap(s.server.Shutdown(shutdownCtx), "shutting down")
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logger.WithFields(r.Context(), logrus.Fields{"request_id": uuid.NewString()})
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r.WithContext(ctx))

		logger.G(ctx).WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rw.statusCode,
			"duration": time.Since(start),
		}).Info("HTTP request")
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleNavActive handles GET /api/nav/active?current=..&nav=..
func (s *Server) handleNavActive(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{
		"class": nav.IsActive(q.Get("current"), q.Get("nav")),
	})
}

// handleSkills handles GET /api/skills. A broken catalog renders as an empty
// skills section.
func (s *Server) handleSkills(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	skills, err := s.deps.Skills.Categorize(ctx)
	if err != nil {
		logger.G(ctx).WithError(err).
			WithField("kind", apperr.KindOf(err).String()).
			Warn("skills catalog unavailable, rendering empty lists")
		skills = models.Skills{
			Languages:    []models.Card{},
			Frameworks:   []models.Card{},
			Technologies: []models.Card{},
		}
	}
	writeJSON(ctx, w, http.StatusOK, skills)
}

// handleSkillImage handles GET /api/skills/{name}/image
func (s *Server) handleSkillImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := mux.Vars(r)["name"]
	image, ok := s.deps.Skills.LanguageImage(ctx, name)
	if !ok {
		writeError(ctx, w, http.StatusNotFound, "no image for "+name, apperr.NotFound)
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]string{"image": image})
}

// handleRepos handles GET /api/repos
func (s *Server) handleRepos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	repos, err := s.deps.Repos.List(ctx)
	if err != nil {
		kind := apperr.KindOf(err)
		writeError(ctx, w, statusFor(kind), "repository listing unavailable", kind)
		return
	}
	if repos == nil {
		repos = []models.Repo{}
	}
	writeJSON(ctx, w, http.StatusOK, repos)
}

type chatRequest struct {
	Prompt string `json:"prompt"`
}

// handleChat handles POST /api/chat. Model failures still answer 200 with
// the fallback reply.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPromptBytes)).Decode(&req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid request body", apperr.ParseError)
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		writeError(ctx, w, http.StatusBadRequest, "prompt must not be empty", apperr.ParseError)
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]string{"reply": s.deps.Chat.Reply(ctx, prompt)})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Timeout:
		return http.StatusGatewayTimeout
	case apperr.ConfigError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(ctx).WithError(err).Error("failed to encode JSON response")
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, message string, kind apperr.Kind) {
	writeJSON(ctx, w, status, map[string]string{
		"error": message,
		"kind":  kind.String(),
	})
}
