package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"discount-extractor/config"
	"discount-extractor/extractor"
	"discount-extractor/internal/types"
	"discount-extractor/report"
	"discount-extractor/utils"
)

// extractionTimeout bounds a single traversal triggered over HTTP.
const extractionTimeout = 10 * time.Minute

// ExtractionData carries both views of a finished traversal
type ExtractionData struct {
	PageOrdered    []types.DiscountRecord `json:"pageOrdered"`
	DiscountRanked []types.DiscountRecord `json:"discountRanked"`
	TotalPages     int                    `json:"totalPages"`
}

// APIResponse represents the response from the API
type APIResponse struct {
	Success bool            `json:"success"`
	Data    *ExtractionData `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// runFunc performs one traversal.
type runFunc func(ctx context.Context) (*extractor.Result, error)

// Server holds the API server configuration
type Server struct {
	logger  types.Logger
	config  *types.Config
	metrics *extractor.Metrics
	run     runFunc

	// mu serialises traversals; only one browser runs at a time.
	mu sync.Mutex
}

// NewServer creates a new API server
func NewServer(cfg *types.Config, logger types.Logger) *Server {
	s := &Server{
		logger:  logger,
		config:  cfg,
		metrics: extractor.NewMetrics(),
	}
	s.run = func(ctx context.Context) (*extractor.Result, error) {
		return extractor.Run(ctx, s.config, s.logger, s.metrics)
	}
	return s
}

// handleExtract handles the extraction API endpoint
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	// Handle preflight requests
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	// Only allow POST requests
	if r.Method != http.MethodPost {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Infof("API request received for %s", s.config.TargetURL)

	ctx, cancel := context.WithTimeout(r.Context(), extractionTimeout)
	defer cancel()

	result, err := s.run(ctx)
	if err != nil {
		s.logger.Errorf("Extraction failed: %v", err)
		s.sendError(w, err.Error(), http.StatusBadGateway)
		return
	}

	rep := report.Build(result.Records, s.config.Currency)
	response := APIResponse{
		Success: true,
		Data: &ExtractionData{
			PageOrdered:    rep.PageOrdered,
			DiscountRanked: rep.DiscountRanked,
			TotalPages:     result.TotalPages,
		},
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Errorf("Failed to encode response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	response := APIResponse{
		Success: false,
		Error:   message,
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Errorf("Failed to encode error response: %v", err)
	}
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// Handler returns the server's routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/extract", s.handleExtract)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	return mux
}

// Start starts the API server
func (s *Server) Start(port string) error {
	s.logger.Infof("Starting API server on port %s", port)
	s.logger.Info("Available endpoints:")
	s.logger.Info("  POST /extract - Walk the discount listing and return both views")
	s.logger.Info("  GET  /health  - Health check")
	s.logger.Info("  GET  /metrics - Prometheus metrics")

	return http.ListenAndServe(":"+port, s.Handler())
}

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	logger, err := utils.NewLogger(os.Stderr, os.Getenv("LOG_LEVEL"), false, os.Getenv("LOG_TIMEZONE"))
	if err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}

	cfg, err := config.FromEnv(os.LookupEnv)
	if err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	// Get port from environment variable, default to 8080
	serverPort := "8080"
	if envPort := os.Getenv("API_PORT"); envPort != "" {
		serverPort = envPort
	}

	server := NewServer(cfg, logger)
	logger.Fatal(server.Start(serverPort))
}
