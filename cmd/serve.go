package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/shop-dedupe/internal/engine"
	"github.com/sells-group/shop-dedupe/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for detection requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		mux := newServeMux()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
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

// detectRequest is the POST /detect body. Threshold and name-length
// fall back to the configured defaults when omitted.
type detectRequest struct {
	Records       []model.ShopRecord `json:"records"`
	ThresholdKm   float64            `json:"threshold_km"`
	MinNameLength int                `json:"min_name_length"`
	Mode          string             `json:"mode"`
}

func newServeMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /detect", handleDetect)

	return mux
}

func handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if len(req.Records) == 0 {
		http.Error(w, `{"error":"records are required"}`, http.StatusBadRequest)
		return
	}

	mode := req.Mode
	if mode == "" {
		mode = cfg.Detect.Mode
	}
	parsedMode, err := model.ParseMode(mode)
	if err != nil {
		http.Error(w, `{"error":"invalid mode"}`, http.StatusBadRequest)
		return
	}
	if req.ThresholdKm == 0 {
		req.ThresholdKm = cfg.Detect.ThresholdKm
	}
	if req.MinNameLength == 0 {
		req.MinNameLength = cfg.Detect.MinNameLength
	}

	eng := engine.New(engine.Config{
		DistanceThresholdKm: req.ThresholdKm,
		MinNameLength:       req.MinNameLength,
		Mode:                parsedMode,
	})
	result, err := eng.Run(r.Context(), req.Records)
	if err != nil {
		zap.L().Error("detection request failed", zap.Error(err))
		http.Error(w, `{"error":"detection failed"}`, http.StatusInternalServerError)
		return
	}

	zap.L().Info("detection request served",
		zap.String("mode", string(parsedMode)),
		zap.Int("records", len(req.Records)),
		zap.Int("pairs", len(result.Pairs)),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
