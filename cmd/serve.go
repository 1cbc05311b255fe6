package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/behonest/leadscore-cli/internal/model"
	"github.com/behonest/leadscore-cli/internal/pipeline"
	"github.com/behonest/leadscore-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the refresh server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		srv := newRefreshServer(st, initPipeline())

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: srv.routes(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			httpSrv.Shutdown(context.Background())
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// refreshServer exposes the pipeline over HTTP. At most one refresh runs at
// a time.
type refreshServer struct {
	store   store.Store
	pipe    *pipeline.Pipeline
	running atomic.Bool
}

func newRefreshServer(st store.Store, pipe *pipeline.Pipeline) *refreshServer {
	return &refreshServer{store: st, pipe: pipe}
}

func (s *refreshServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/api/refresh", s.handleRefresh)
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/leads", s.handleLeads)

	return r
}

func (s *refreshServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRefresh kicks off one pipeline run in the background. A second
// request while a run is in flight gets 409.
func (s *refreshServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !s.running.CompareAndSwap(false, true) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "refresh already running"})
		return
	}

	run, err := s.store.CreateRun(r.Context())
	if err != nil {
		s.running.Store(false)
		zap.L().Error("create run", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "create run failed"})
		return
	}

	go func() {
		defer s.running.Store(false)
		ctx := context.Background()

		leads, err := s.pipe.Run(ctx, nil)
		if err != nil {
			zap.L().Error("refresh failed", zap.String("run_id", run.ID), zap.Error(err))
			if cerr := s.store.CompleteRun(ctx, run.ID, model.RunStatusFailed, 0, 0, err.Error()); cerr != nil {
				zap.L().Warn("record failed run", zap.Error(cerr))
			}
			return
		}

		written, err := s.store.UpsertLeads(ctx, leads)
		status := model.RunStatusComplete
		message := ""
		if err != nil {
			zap.L().Error("refresh upsert failed", zap.String("run_id", run.ID), zap.Error(err))
			status = model.RunStatusFailed
			message = err.Error()
		}
		if cerr := s.store.CompleteRun(ctx, run.ID, status, len(leads), written, message); cerr != nil {
			zap.L().Warn("record run", zap.Error(cerr))
		}
		zap.L().Info("refresh complete",
			zap.String("run_id", run.ID),
			zap.Int("leads", len(leads)),
			zap.Int("written", written),
		)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"run_id": run.ID,
	})
}

func (s *refreshServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	last, err := s.store.LastRun(r.Context())
	if err != nil {
		zap.L().Error("last run", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "status lookup failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"running":  s.running.Load(),
		"last_run": last,
	})
}

func (s *refreshServer) handleLeads(w http.ResponseWriter, r *http.Request) {
	filter := store.LeadFilter{Tier: model.Tier(r.URL.Query().Get("tier"))}

	leads, err := s.store.ListLeads(r.Context(), filter)
	if err != nil {
		zap.L().Error("list leads", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list leads failed"})
		return
	}
	if leads == nil {
		leads = []model.EnrichedLead{}
	}

	writeJSON(w, http.StatusOK, leads)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
