package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mspro-labs/scoop-scout/internal/config"
	"mspro-labs/scoop-scout/internal/db"
	"mspro-labs/scoop-scout/internal/logs"
	"mspro-labs/scoop-scout/internal/models"
	"mspro-labs/scoop-scout/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the latest snapshot over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		runServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer(ctx context.Context) {
	// 1. Setup
	appCfg, err := config.GetAppConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	logger, err := logs.NewLogger(appCfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger error:", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger = logger.Named("serve")

	database, err := db.Connect(appCfg.DBPath)
	if err != nil {
		logger.Fatal("database error", zap.Error(err))
	}
	defer database.Close()

	pages, err := web.Parse()
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}

	// 2. Start Server
	server := &http.Server{
		Addr:         appCfg.Addr,
		Handler:      newServeMux(database, pages, logger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("serving snapshot", zap.String("addr", appCfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

type healthResponse struct {
	Status         string   `json:"status"`
	GeneratedAt    string   `json:"generated_at,omitempty"`
	FlavorCount    int      `json:"flavor_count"`
	DegradedBrands []string `json:"degraded_brands"`
	EmptyBrands    []string `json:"empty_brands"`
}

func newServeMux(database *sql.DB, pages *web.Pages, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		status := web.Status{}
		snap, err := db.GetSnapshot(database)
		switch {
		case errors.Is(err, db.ErrNoSnapshot):
			status.Empty = true
		case err != nil:
			logger.Error("snapshot lookup failed", zap.Error(err))
			http.Error(w, "Failed to load snapshot", http.StatusInternalServerError)
			return
		default:
			if err := json.Unmarshal(snap.Artifact, &status.Artifact); err != nil {
				logger.Error("stored artifact is corrupt", zap.Error(err))
				http.Error(w, "Failed to load snapshot", http.StatusInternalServerError)
				return
			}
			status.UpdatedAt = snap.GeneratedAt
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pages.Index(w, status); err != nil {
			logger.Error("template error", zap.Error(err))
		}
	})

	mux.HandleFunc("GET /flavors.json", func(w http.ResponseWriter, r *http.Request) {
		snap, err := db.GetSnapshot(database)
		if errors.Is(err, db.ErrNoSnapshot) {
			http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
			return
		}
		if err != nil {
			logger.Error("snapshot lookup failed", zap.Error(err))
			http.Error(w, "Failed to load snapshot", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(snap.Artifact)
	})

	mux.HandleFunc("GET /flavors", func(w http.ResponseWriter, r *http.Request) {
		records, err := db.GetFlavors(database, r.URL.Query().Get("brand"))
		if err != nil {
			logger.Error("flavor lookup failed", zap.Error(err))
			http.Error(w, "Failed to load flavors", http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []models.FlavorRecord{}
		}
		writeJSON(w, http.StatusOK, records, logger)
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		snap, err := db.GetSnapshot(database)
		if errors.Is(err, db.ErrNoSnapshot) {
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "no snapshot", DegradedBrands: []string{}, EmptyBrands: []string{}}, logger)
			return
		}
		if err != nil {
			logger.Error("snapshot lookup failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, healthResponse{Status: "error", DegradedBrands: []string{}, EmptyBrands: []string{}}, logger)
			return
		}

		resp := healthResponse{
			Status:         "ok",
			GeneratedAt:    snap.GeneratedAt.UTC().Format(time.RFC3339),
			FlavorCount:    snap.FlavorCount,
			DegradedBrands: append([]string{}, snap.DegradedBrands...),
			EmptyBrands:    append([]string{}, snap.EmptyBrands...),
		}
		switch {
		case len(resp.EmptyBrands) > 0:
			resp.Status = "failing"
		case len(resp.DegradedBrands) > 0:
			resp.Status = "degraded"
		}
		writeJSON(w, http.StatusOK, resp, logger)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response", zap.Error(err))
	}
}
