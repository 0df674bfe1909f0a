package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/featuremap/internal/metrics"
	"github.com/matzehuels/featuremap/pkg/cache"
	ferrors "github.com/matzehuels/featuremap/pkg/errors"
	fmio "github.com/matzehuels/featuremap/pkg/io"
	"github.com/matzehuels/featuremap/pkg/render"
	"github.com/matzehuels/featuremap/pkg/store"
)

const shutdownTimeout = 10 * time.Second

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr    string
	noCache bool
}

// serveCommand runs the read-only board API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{addr: "127.0.0.1:8080"}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve boards over HTTP",
		Long: `Serve stored boards over a read-only HTTP API:

  GET /boards              board names and update times
  GET /boards/{name}       the complete board as state JSON
  GET /boards/{name}/tree  groups with their features
  GET /boards/{name}/dot   Graphviz DOT
  GET /boards/{name}/svg   rendered SVG (cached by board content)
  GET /metrics             Prometheus metrics
  GET /healthz             liveness`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "render SVG without the artifact cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	cfg, s, err := c.boards(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	ch := c.newCache(ctx, cfg, opts.noCache)
	defer ch.Close()

	m := metrics.New()
	m.Install()

	srv := &server{cli: c, store: s, cache: ch, cacheTTL: cfg.Store.CacheTTL(), metrics: m.Handler()}
	httpSrv := &http.Server{
		Addr:              opts.addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		c.Logger.Info("serving boards", "addr", opts.addr, "backend", store.Backend(s))
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// =============================================================================
// Handlers
// =============================================================================

type server struct {
	cli      *CLI
	store    store.Store
	cache    cache.Cache
	cacheTTL time.Duration
	metrics  http.Handler
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.cli.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	r.Route("/boards", func(r chi.Router) {
		r.Get("/", s.listBoards)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.getBoard)
			r.Get("/tree", s.getTree)
			r.Get("/dot", s.getDOT)
			r.Get("/svg", s.getSVG)
		})
	})
	return r
}

func (s *server) listBoards(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if infos == nil {
		infos = []store.BoardInfo{}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *server) getBoard(w http.ResponseWriter, r *http.Request) {
	world, err := s.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := fmio.WriteState(world, w); err != nil {
		s.cli.Logger.Error("write board", "err", err)
	}
}

// treeGroup is the JSON shape of one sidebar tree entry.
type treeGroup struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Visible  bool          `json:"visible"`
	Note     *string       `json:"note,omitempty"`
	Features []treeFeature `json:"features"`
}

type treeFeature struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Visible bool    `json:"visible"`
	Note    *string `json:"note,omitempty"`
}

func (s *server) getTree(w http.ResponseWriter, r *http.Request) {
	world, err := s.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tree := world.Tree()
	out := make([]treeGroup, 0, len(tree))
	for _, tg := range tree {
		g := treeGroup{
			ID:       tg.Group.ID,
			Name:     tg.Group.Name,
			Visible:  tg.Group.Visible,
			Note:     tg.Group.Note,
			Features: make([]treeFeature, 0, len(tg.Features)),
		}
		for _, f := range tg.Features {
			g.Features = append(g.Features, treeFeature{ID: f.ID, Name: f.Name, Visible: f.Visible, Note: f.Note})
		}
		out = append(out, g)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) getDOT(w http.ResponseWriter, r *http.Request) {
	world, err := s.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = w.Write([]byte(render.ToDOT(world, render.Options{Notes: r.URL.Query().Has("notes")})))
}

func (s *server) getSVG(w http.ResponseWriter, r *http.Request) {
	world, err := s.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, cached, err := s.cli.renderSVG(r.Context(), s.cache, s.cacheTTL, world, r.URL.Query().Has("notes"), nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if cached {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	_, _ = w.Write(data)
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := ferrors.GetCode(err)
	switch {
	case ferrors.IsNotFound(err):
		status = http.StatusNotFound
	case code == ferrors.ErrCodeInvalidName || code == ferrors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.cli.Logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: ferrors.UserMessage(err), Code: string(code)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger logs one debug line per request.
func requestLogger(l *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			l.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"took", time.Since(start).Round(time.Microsecond),
				"id", middleware.GetReqID(r.Context()))
		})
	}
}
