package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/integrity-cli/internal/dataset"
	"github.com/sells-group/integrity-cli/internal/model"
	"github.com/sells-group/integrity-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for upload-and-compare",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st, int64(cfg.Server.MaxUploadMB)<<20),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the HTTP API. Factored out of serveCmd so handlers can
// be exercised with httptest.
func newRouter(st store.History, maxUploadBytes int64) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/compare", func(w http.ResponseWriter, req *http.Request) {
		handleCompare(w, req, st, maxUploadBytes)
	})

	r.Get("/api/history", func(w http.ResponseWriter, req *http.Request) {
		runs, err := st.Recent(req.Context(), 0)
		if err != nil {
			zap.L().Error("history query failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
			return
		}
		if runs == nil {
			runs = []store.RunRecord{}
		}
		writeJSON(w, http.StatusOK, runs)
	})

	return r
}

// handleCompare accepts a multipart form with "target" and "source" files
// plus comparison settings, runs the pipeline, and returns the summary.
func handleCompare(w http.ResponseWriter, req *http.Request, st store.History, maxUploadBytes int64) {
	if maxUploadBytes > 0 {
		req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes)
	}
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	target, err := formDataset(req, "target")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	source, err := formDataset(req, "source")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rc := &model.RunConfig{
		KeyField:   req.FormValue("key"),
		Duplicates: model.DuplicatePolicy(req.FormValue("duplicates")),
		AlignRows:  req.FormValue("align_rows") == "true",
	}
	if fields := req.FormValue("fields"); fields != "" {
		rc.CompareFields = strings.Split(fields, ",")
	}
	if rc.Duplicates == "" {
		rc.Duplicates = model.DupCross
	}

	_, s, _, _, err := executeCompare(target, source, rc)
	if err != nil {
		status := http.StatusUnprocessableEntity
		var cfgErr *model.ConfigError
		if errors.As(err, &cfgErr) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	if summaryJSON, err := json.Marshal(s); err == nil {
		if _, err := st.Append(req.Context(), store.NewRecord(s, summaryJSON)); err != nil {
			zap.L().Warn("history append failed", zap.Error(err))
		}
	}

	zap.L().Info("compare via api",
		zap.String("target", s.TargetName),
		zap.String("source", s.SourceName),
		zap.Float64("match_rate", s.MatchRate),
	)
	writeJSON(w, http.StatusOK, s)
}

// formDataset loads one uploaded export, dispatching on file extension.
func formDataset(req *http.Request, field string) (*model.Dataset, error) {
	f, hdr, err := req.FormFile(field)
	if err != nil {
		return nil, eris.Errorf("%s file is required", field)
	}
	defer f.Close() //nolint:errcheck
	return readUpload(f, hdr.Filename)
}

func readUpload(f multipart.File, name string) (*model.Dataset, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return dataset.LoadCSVReader(f, name)
	case ".xlsx":
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, eris.Wrapf(err, "read upload %s", name)
		}
		return dataset.LoadXLSXBytes(data, name, dataset.XLSXOptions{})
	default:
		return nil, eris.Errorf("unsupported file type %q, want .csv or .xlsx", name)
	}
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
