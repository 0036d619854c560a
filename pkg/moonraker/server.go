// Package moonraker exposes the calibration runtime over a Moonraker-style
// JSON-RPC API, so frontends and scripts can trigger AUTO_OFFSET_Z and watch
// its status remotely.
package moonraker

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// PrinterInterface is what the server needs from the printer runtime.
type PrinterInterface interface {
	// ObjectNames lists the queryable printer objects.
	ObjectNames() []string

	// ObjectStatus returns the status of one printer object.
	ObjectStatus(name string) (map[string]any, bool)

	// ExecuteGCode runs a newline-separated command script.
	ExecuteGCode(script string) error
}

// Config holds the server configuration.
type Config struct {
	// Addr is the HTTP listen address (e.g. ":7125").
	Addr string

	Printer PrinterInterface
}

// Server serves the JSON-RPC API over HTTP and WebSocket.
type Server struct {
	printer PrinterInterface

	httpServer *http.Server
	addr       string

	upgrader websocket.Upgrader

	clientMu sync.RWMutex
	clients  map[int64]*client
	nextID   int64

	running   atomic.Bool
	startTime time.Time
}

// New creates a server around the given printer runtime.
func New(cfg Config) *Server {
	return &Server{
		printer:   cfg.Printer,
		addr:      cfg.Addr,
		clients:   make(map[int64]*client),
		startTime: time.Now(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP handler serving all endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/websocket", s.handleWebSocket)
	mux.HandleFunc("/server/info", s.restHandler("", func(map[string]any) (any, error) {
		return s.methodServerInfo()
	}))
	mux.HandleFunc("/printer/objects/list", s.restHandler("", func(map[string]any) (any, error) {
		return s.methodObjectsList()
	}))
	mux.HandleFunc("/printer/objects/query", s.restHandler(http.MethodPost, s.methodObjectsQuery))
	mux.HandleFunc("/printer/gcode/script", s.restHandler(http.MethodPost, s.methodGCodeScript))
	return mux
}

// Start starts the API server and blocks until it stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}
	s.running.Store(true)
	logrus.WithField("addr", s.addr).Info("api server listening")
	return s.httpServer.ListenAndServe()
}

// Stop shuts the server down and disconnects all clients.
func (s *Server) Stop() error {
	s.running.Store(false)

	s.clientMu.Lock()
	for _, c := range s.clients {
		c.close()
	}
	s.clients = make(map[int64]*client)
	s.clientMu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

// BroadcastGCodeResponse pushes an operator message ("// ..." or "!! ...")
// to every connected client as a notify_gcode_response notification.
func (s *Server) BroadcastGCodeResponse(msg string) {
	s.clientMu.RLock()
	defer s.clientMu.RUnlock()
	for _, c := range s.clients {
		c.send(map[string]any{
			"jsonrpc": "2.0",
			"method":  "notify_gcode_response",
			"params":  []any{msg},
		})
	}
}

type rpcRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params,omitempty"`
	ID      any            `json:"id,omitempty"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Server) dispatch(method string, params map[string]any) (any, error) {
	switch method {
	case "server.info":
		return s.methodServerInfo()
	case "printer.objects.list":
		return s.methodObjectsList()
	case "printer.objects.query":
		return s.methodObjectsQuery(params)
	case "printer.gcode.script":
		return s.methodGCodeScript(params)
	default:
		return nil, fmt.Errorf("method not found: %s", method)
	}
}

func (s *Server) methodServerInfo() (any, error) {
	hostname, _ := os.Hostname()
	s.clientMu.RLock()
	connected := len(s.clients)
	s.clientMu.RUnlock()
	return map[string]any{
		"klippy_connected": true,
		"klippy_state":     "ready",
		"hostname":         hostname,
		"websocket_count":  connected,
	}, nil
}

func (s *Server) methodObjectsList() (any, error) {
	return map[string]any{"objects": s.printer.ObjectNames()}, nil
}

func (s *Server) methodObjectsQuery(params map[string]any) (any, error) {
	objectsParam, ok := params["objects"]
	if !ok {
		return nil, fmt.Errorf("missing 'objects' parameter")
	}
	objects, ok := objectsParam.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("'objects' must be an object")
	}

	result := make(map[string]any)
	for name, attrsVal := range objects {
		status, ok := s.printer.ObjectStatus(name)
		if !ok {
			continue
		}
		// a null attribute list means all attributes
		if attrList, ok := attrsVal.([]any); ok && len(attrList) > 0 {
			filtered := make(map[string]any)
			for _, attr := range attrList {
				key, ok := attr.(string)
				if !ok {
					continue
				}
				if v, exists := status[key]; exists {
					filtered[key] = v
				}
			}
			status = filtered
		}
		result[name] = status
	}

	return map[string]any{
		"eventtime": time.Since(s.startTime).Seconds(),
		"status":    result,
	}, nil
}

func (s *Server) methodGCodeScript(params map[string]any) (any, error) {
	script, ok := params["script"].(string)
	if !ok {
		return nil, fmt.Errorf("missing 'script' parameter")
	}
	if err := s.printer.ExecuteGCode(script); err != nil {
		return nil, err
	}
	return "ok", nil
}

// restHandler adapts a method to an HTTP endpoint with the Moonraker
// {"result": ...} envelope. A non-empty httpMethod restricts the endpoint;
// parameters are read from the POST body only, so parameter-taking methods
// must be POST-restricted.
func (s *Server) restHandler(httpMethod string, method func(map[string]any) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if httpMethod != "" && r.Method != httpMethod {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var params map[string]any
		if r.Method == http.MethodPost && r.Body != nil {
			// an empty body is fine for parameterless methods
			_ = json.NewDecoder(r.Body).Decode(&params)
		}
		result, err := method(params)
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"code": -32000, "message": err.Error()},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"result": result})
	}
}
