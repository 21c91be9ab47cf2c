package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/takeoffworks/drawingestimate/internal/models"
	"github.com/takeoffworks/drawingestimate/internal/services"
)

var (
	estimatorInstance *services.EstimatorFunction
	once              sync.Once
	initErr           error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleEstimate", handleEstimate)
}

// main is required by the Go Functions Framework.
func main() {}

// handleEstimate is the HTTP handler for the final estimation stage.
func handleEstimate(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		estimatorInstance, initErr = services.NewEstimator(context.Background())
	})
	if initErr != nil {
		slog.Error("Estimator initialization failed.", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.EstimatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Could not decode request body.", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := estimatorInstance.Process(r.Context(), &req)
	if err != nil {
		http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response.", "error", err)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
