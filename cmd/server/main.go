package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/carousel-studio/designer/internal/asset"
	"github.com/carousel-studio/designer/internal/catalog"
	"github.com/carousel-studio/designer/internal/config"
	"github.com/carousel-studio/designer/internal/export"
	mw "github.com/carousel-studio/designer/internal/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)})))

	assetHandler := asset.NewHandler(cfg.AssetDir)
	resolver := asset.NewResolver(cfg.AssetDir, &http.Client{Timeout: cfg.ImageTimeout}, cfg.ImageCacheTTL)

	raster, err := export.NewRasterizer(resolver)
	if err != nil {
		slog.Error("init rasterizer", "error", err)
		os.Exit(1)
	}
	exportHandler := export.NewHandler(export.NewExporter(raster, cfg.RenderWorkers))
	catalogHandler := catalog.NewHandler()

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/templates", catalogHandler.List).Methods("GET")
	r.HandleFunc("/templates/resize", catalogHandler.Resize).Methods("POST", "OPTIONS")
	r.HandleFunc("/templates/{name}", catalogHandler.Get).Methods("GET")

	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.HandleFunc("/assets/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err := assetHandler.Delete(mux.Vars(r)["id"]); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods("DELETE", "OPTIONS")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	// Rasterization is the expensive path, so exports are throttled
	exportRoutes := r.PathPrefix("/export").Subrouter()
	exportRoutes.Use(mw.RateLimit(rate.NewLimiter(rate.Limit(cfg.ExportRate), cfg.ExportBurst)))
	exportRoutes.HandleFunc("", exportHandler.Export).Methods("POST", "OPTIONS")

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "workers", cfg.RenderWorkers)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
