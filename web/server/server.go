package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/df07/go-shape-kernel/pkg/stress"
)

// Server handles web requests for the shape stress harness
type Server struct {
	port  int
	cases []stress.Case
}

// NewServer creates a new web server serving the built-in cases
func NewServer(port int) *Server {
	return &Server{port: port, cases: stress.BuiltinCases()}
}

// AddCase makes another case available to the stress and inspect endpoints
func (s *Server) AddCase(c stress.Case) {
	s.cases = append(s.cases, c)
}

// CaseNames lists the available cases in order
func (s *Server) CaseNames() []string {
	names := make([]string, len(s.cases))
	for i, c := range s.cases {
		names[i] = c.Name
	}
	return names
}

// StressRequest represents a stress run request from the client
type StressRequest struct {
	Shape   string  `json:"shape"`   // Case name, or "all"
	Seeds   int     `json:"seeds"`   // Shape instances per case
	Rays    int     `json:"rays"`    // Rays traced from each hit
	Seed    int64   `json:"seed"`    // First seed
	MaxRate float64 `json:"maxRate"` // Failure rate above which a case fails
}

// StressUpdate represents the result of one case sent via SSE
type StressUpdate struct {
	Case       string `json:"case"`
	CaseNumber int    `json:"caseNumber"`
	TotalCases int    `json:"totalCases"`
	Stats      Stats  `json:"stats"`
	Passed     bool   `json:"passed"`
	IsComplete bool   `json:"isComplete"`
	ElapsedMs  int64  `json:"elapsedMs"`
}

// Stats represents stress statistics
type Stats struct {
	Seeds           int     `json:"seeds"`
	Hits            int     `json:"hits"`
	Rays            int     `json:"rays"`
	Failures        int     `json:"failures"`
	FailureRate     float64 `json:"failureRate"`
	Inconsistencies int     `json:"inconsistencies"`
	FailedSeeds     []int64 `json:"failedSeeds"`
}

// CaseInfo describes one available case
type CaseInfo struct {
	Name   string `json:"name"`
	Convex bool   `json:"convex"`
}

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/cases", s.handleCases)
	mux.HandleFunc("/api/stress", s.handleStress)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleCases lists the cases the server can stress
func (s *Server) handleCases(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	infos := make([]CaseInfo, len(s.cases))
	for i, c := range s.cases {
		infos[i] = CaseInfo{Name: c.Name, Convex: c.Convex}
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(infos)
}

// handleStress runs the requested cases and streams one update per case with SSE
func (s *Server) handleStress(w http.ResponseWriter, r *http.Request) {
	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	req, err := s.parseStressRequest(r)
	if err != nil {
		s.sendSSEError(w, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	cases, err := stress.SelectCases(s.cases, req.Shape)
	if err != nil {
		s.sendSSEError(w, err.Error())
		return
	}

	// Use request context to detect client disconnection
	ctx := r.Context()
	startTime := time.Now()

	consoleChan := make(chan ConsoleMessage, 64)
	runID := fmt.Sprintf("stress-%d", startTime.UnixNano())
	cfg := stress.Config{
		Seeds:      req.Seeds,
		RaysPerHit: req.Rays,
		FirstSeed:  req.Seed,
		Logger:     NewWebLogger(runID, consoleChan),
	}

	for i, c := range cases {
		result, err := stress.RunCase(ctx, c, cfg)
		if err != nil {
			s.sendSSEError(w, fmt.Sprintf("Stress error: %s: %v", c.Name, err))
			return
		}
		s.drainConsole(w, consoleChan)

		update := StressUpdate{
			Case:       c.Name,
			CaseNumber: i + 1,
			TotalCases: len(cases),
			Stats: Stats{
				Seeds:           result.Seeds,
				Hits:            result.Hits,
				Rays:            result.Rays,
				Failures:        result.Failures,
				FailureRate:     result.FailureRate(),
				Inconsistencies: result.Inconsistencies,
				FailedSeeds:     result.FailedSeeds,
			},
			Passed:     result.FailureRate() <= req.MaxRate && result.Inconsistencies == 0,
			IsComplete: i == len(cases)-1,
			ElapsedMs:  time.Since(startTime).Milliseconds(),
		}
		if err := s.sendSSEUpdate(w, update); err != nil {
			log.Printf("Stress stream aborted: %v", err)
			return
		}
	}

	// Send completion event
	s.sendSSEEvent(w, "complete", "Stress run completed")
}

// drainConsole forwards buffered log lines without blocking
func (s *Server) drainConsole(w http.ResponseWriter, consoleChan <-chan ConsoleMessage) {
	for {
		select {
		case msg := <-consoleChan:
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			s.sendSSEEvent(w, "console", string(data))
		default:
			return
		}
	}
}

// parseStressRequest parses request parameters
func (s *Server) parseStressRequest(r *http.Request) (*StressRequest, error) {
	values := r.URL.Query()
	req := &StressRequest{Shape: "all"}
	if shape := values.Get("shape"); shape != "" {
		req.Shape = shape
	}

	var err error
	if req.Seeds, err = parseIntParam(values, "seeds", 100, 1, 100000); err != nil {
		return nil, err
	}
	if req.Rays, err = parseIntParam(values, "rays", 1000, 1, 1000000); err != nil {
		return nil, err
	}
	if req.MaxRate, err = parseFloatParam(values, "maxRate", stress.DefaultMaxFailureRate, 0, 1); err != nil {
		return nil, err
	}
	if value := values.Get("seed"); value != "" {
		if req.Seed, err = strconv.ParseInt(value, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid seed: %s", value)
		}
	}

	// Performance warning
	if req.Seeds*req.Rays > 100000000 {
		log.Printf("Stress warning: %d seeds with %d rays each may run slowly", req.Seeds, req.Rays)
	}

	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %f and %f, got: %f", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// sendSSEUpdate sends a case result via SSE
func (s *Server) sendSSEUpdate(w http.ResponseWriter, update StressUpdate) error {
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return s.sendSSEEvent(w, "progress", string(data))
}

// sendSSEError sends an error via SSE
func (s *Server) sendSSEError(w http.ResponseWriter, message string) error {
	return s.sendSSEEvent(w, "error", message)
}

// sendSSEEvent sends a generic SSE event
func (s *Server) sendSSEEvent(w http.ResponseWriter, event, data string) error {
	if flusher, ok := w.(http.Flusher); ok {
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
		return nil
	}
	return fmt.Errorf("streaming not supported")
}
