package main

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pagesim/pagesim/simulator"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

// indexHTML is a minimal landing page; the real UI is any websocket client
// speaking the message protocol below.
const indexHTML = `<!DOCTYPE html>
<html>
<head><title>pagesim</title></head>
<body>
<h1>pagesim</h1>
<p>WebSocket endpoint: <code>/ws</code> &middot; Prometheus metrics: <code>/metrics</code></p>
<p>Commands: start, pause, reset, step, config_update, break_deadlock.</p>
</body>
</html>`

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development
		return true
	},
}

// Client message types
type ClientMessage struct {
	Type   string               `json:"type"`
	Config *simulator.SimConfig `json:"config,omitempty"`
}

// Server message types
type ServerMessage struct {
	Type    string                 `json:"type"`
	Running *bool                  `json:"running,omitempty"`
	Result  string                 `json:"result,omitempty"`
	Config  *simulator.SimConfig   `json:"config,omitempty"`
	Metrics *simulator.Metrics     `json:"metrics,omitempty"`
	State   map[string]interface{} `json:"state,omitempty"`
}

// simState manages the simulation and UI pacing. The engine itself is
// single-threaded; this wrapper is the one global run-lock around it.
type simState struct {
	sim     *simulator.Simulator
	running bool
	mu      sync.Mutex
	stopCh  chan struct{}
}

func newSimState(config simulator.SimConfig) (*simState, error) {
	sim, err := simulator.NewSimulator(config)
	if err != nil {
		return nil, err
	}
	sim.Reset()
	sim.LogEvent = func(msg string) { log.Printf("[SIM] %s", msg) }

	return &simState{
		sim:    sim,
		stopCh: make(chan struct{}),
	}, nil
}

// start begins auto-stepping
func (s *simState) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.sim.SetPaused(false)
}

// pause suspends auto-stepping
func (s *simState) pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.sim.SetPaused(true)
}

// reset re-initializes the run
func (s *simState) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sim.Reset()
	s.running = false
}

// updateConfig swaps in a new scenario
func (s *simState) updateConfig(config simulator.SimConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return s.sim.UpdateConfig(config)
}

// breakDeadlock force-releases all locks and resumes a deadlocked run
func (s *simState) breakDeadlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sim.BreakDeadlock()
}

// isRunning returns true if auto-stepping is active
func (s *simState) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// getConfig returns the current simulator configuration
func (s *simState) getConfig() simulator.SimConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Config()
}

// step advances the simulation one tick and reports the outcome. Terminal
// outcomes stop auto-stepping.
func (s *simState) step() simulator.StepResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := s.sim.ExecuteStep()
	if result == simulator.StepCompleted || result == simulator.StepDeadlocked {
		s.running = false
	}
	return result
}

// metrics returns a current statistics snapshot
func (s *simState) metrics() *simulator.Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Metrics()
}

// state returns the current observable state
func (s *simState) state() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.State()
}

// stop signals the UI loop to stop
func (s *simState) stop() {
	close(s.stopCh)
}

// uiUpdateLoop periodically steps the simulation and pushes updates to the
// client. Auto-advance cadence is this driver's responsibility: the engine
// itself only exposes ExecuteStep.
func uiUpdateLoop(conn *safeConn, state *simState) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-state.stopCh:
			log.Println("UI update loop stopping")
			return

		case <-ticker.C:
			if !state.isRunning() {
				continue
			}
			result := state.step()

			metrics := state.metrics()
			updatePrometheusMetrics(metrics)
			metricsMsg := ServerMessage{
				Type:    "metrics",
				Result:  result.String(),
				Metrics: metrics,
			}
			if err := conn.WriteJSON(metricsMsg); err != nil {
				log.Printf("Error sending metrics: %v", err)
				return
			}

			stateMsg := ServerMessage{
				Type:  "state",
				State: state.state(),
			}
			if err := conn.WriteJSON(stateMsg); err != nil {
				log.Printf("Error sending state: %v", err)
				return
			}
		}
	}
}

// safeConn wraps a WebSocket connection with a mutex to prevent concurrent writes
type safeConn struct {
	*websocket.Conn
	writeMu sync.Mutex
}

func (sc *safeConn) WriteJSON(v interface{}) error {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	return sc.Conn.WriteJSON(v)
}

func sendStatus(conn *safeConn, state *simState) {
	running := state.isRunning()
	cfg := state.getConfig()
	conn.WriteJSON(ServerMessage{
		Type:    "status",
		Running: &running,
		Config:  &cfg,
	})
}

func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading connection: %v", err)
		return
	}
	defer conn.Close()

	// Wrap connection with mutex for safe concurrent writes
	safeConn := &safeConn{Conn: conn}

	log.Println("Client connected")

	state, err := newSimState(simulator.DefaultConfig())
	if err != nil {
		log.Printf("Error creating simulator: %v", err)
		return
	}

	sendStatus(safeConn, state)

	// Start UI update loop
	go uiUpdateLoop(safeConn, state)

	// Handle messages from client
	for {
		var msg ClientMessage
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Error reading message: %v", err)
			}
			break
		}

		log.Printf("Received command: %s", msg.Type)

		switch msg.Type {
		case "start":
			state.start()
			sendStatus(safeConn, state)

		case "pause":
			state.pause()
			sendStatus(safeConn, state)

		case "reset":
			state.reset()
			sendStatus(safeConn, state)

		case "step":
			// Single-step while paused
			result := state.step()
			metrics := state.metrics()
			updatePrometheusMetrics(metrics)
			safeConn.WriteJSON(ServerMessage{
				Type:    "metrics",
				Result:  result.String(),
				Metrics: metrics,
			})
			safeConn.WriteJSON(ServerMessage{
				Type:  "state",
				State: state.state(),
			})

		case "break_deadlock":
			state.breakDeadlock()
			sendStatus(safeConn, state)

		case "config_update":
			if msg.Config != nil {
				if err := state.updateConfig(*msg.Config); err != nil {
					log.Printf("Error updating config: %v", err)
				} else {
					sendStatus(safeConn, state)
				}
			}
		}
	}

	// Clean up
	state.stop()
	log.Println("Client disconnected")
}

func serveHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, nil); err != nil {
		log.Printf("Error executing template: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func quitHandler(w http.ResponseWriter, r *http.Request) {
	log.Println("Shutdown requested via /quitquitquit")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Server shutting down...")

	go func() {
		time.Sleep(100 * time.Millisecond)
		log.Println("Server stopped")
		os.Exit(0)
	}()
}

func main() {
	initPrometheusMetrics()

	http.HandleFunc("/", serveHome)
	http.HandleFunc("/ws", handleWebSocket)
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/quitquitquit", quitHandler)

	addr := ":8080"
	log.Printf("Server starting on http://localhost%s", addr)
	log.Printf("WebSocket endpoint: ws://localhost%s/ws", addr)
	log.Printf("Prometheus metrics: http://localhost%s/metrics", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
