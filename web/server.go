// Package web serves the rendered network and the training controls over
// HTTP: the PNG frame, the snapshot as JSON, pattern editing, train/reset
// commands and a websocket feed that announces every new frame.
package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"golang.org/x/net/websocket"

	"go_net_viz/ml"
	"go_net_viz/monitor"
	"go_net_viz/render"
)

type Options struct {
	// Epochs is sent with a train command whose body names none.
	Epochs         int
	AllowedOrigins []string
}

// Server wires the HTTP surface to the monitor components.
type Server struct {
	disp     *monitor.Dispatcher
	cell     *monitor.Cell
	display  *render.Display
	patterns *ml.PatternSet
	poller   *monitor.Poller
	opts     Options
	log      *log.Logger

	hub    *hub
	router *mux.Router
}

func NewServer(disp *monitor.Dispatcher, cell *monitor.Cell, display *render.Display,
	patterns *ml.PatternSet, poller *monitor.Poller, opts Options, logger *log.Logger) *Server {
	if opts.Epochs <= 0 {
		opts.Epochs = 1000
	}
	s := &Server{
		disp:     disp,
		cell:     cell,
		display:  display,
		patterns: patterns,
		poller:   poller,
		opts:     opts,
		log:      logger,
		hub:      newHub(logger),
		router:   mux.NewRouter(),
	}

	cell.Subscribe(func(state ml.NetworkState, version uint64) {
		s.hub.Publish(Update{
			Version:  version,
			Epoch:    state.EpochOrZero(),
			Error:    state.ErrorOrZero(),
			Training: disp.InFlight(),
		})
	})
	disp.Watch(func(p monitor.Phase) {
		u := s.hub.Latest()
		u.Training = p == monitor.InFlight
		s.hub.Publish(u)
	})

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/canvas.png", s.handleCanvas).Methods("GET")
	r.HandleFunc("/api/canvas", s.handleResize).Methods("POST")
	r.HandleFunc("/api/state", s.handleState).Methods("GET")
	r.HandleFunc("/api/summary", s.handleSummary).Methods("GET")
	r.HandleFunc("/api/status", s.handleStatus).Methods("GET")
	r.HandleFunc("/api/patterns", s.handleListPatterns).Methods("GET")
	r.HandleFunc("/api/patterns", s.handleAddPattern).Methods("POST")
	r.HandleFunc("/api/patterns", s.handleReplacePatterns).Methods("PUT")
	r.HandleFunc("/api/patterns/{index:[0-9]+}", s.handleRemovePattern).Methods("DELETE")
	r.HandleFunc("/api/train", s.handleTrain).Methods("POST")
	r.HandleFunc("/api/reset", s.handleReset).Methods("POST")
	r.HandleFunc("/api/refresh", s.handleRefresh).Methods("POST")
	r.Handle("/ws", websocket.Handler(s.hub.serve))
}

// Handler returns the router wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// Run delivers websocket updates until ctx is done.
func (s *Server) Run(ctx context.Context) {
	s.hub.Run(ctx)
}

func (s *Server) handleCanvas(w http.ResponseWriter, r *http.Request) {
	frame, version := s.display.Frame()
	if len(frame) == 0 {
		http.Error(w, "no frame rendered yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Frame-Version", strconv.FormatUint(version, 10))
	w.Write(frame)
}

type canvasSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req canvasSize
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.display.Resize(req.Width, req.Height); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	width, height := s.display.Size()
	writeJSON(w, http.StatusOK, canvasSize{Width: width, Height: height})
}

type stateResponse struct {
	Version uint64          `json:"version"`
	State   ml.NetworkState `json:"state"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state, version, _ := s.cell.Load()
	writeJSON(w, http.StatusOK, stateResponse{Version: version, State: state})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	state, _, _ := s.cell.Load()
	writeJSON(w, http.StatusOK, ml.Summarize(state))
}

type statusResponse struct {
	Training     bool   `json:"training"`
	Version      uint64 `json:"version"`
	Patterns     int    `json:"patterns"`
	Polls        int64  `json:"polls"`
	PollFailures int64  `json:"pollFailures"`
	PollError    string `json:"pollError,omitempty"`
	CommandError string `json:"commandError,omitempty"`
	Malformed    int    `json:"malformed"`
	Clients      int    `json:"clients"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state, version, _ := s.cell.Load()
	st := statusResponse{
		Training:  s.disp.InFlight(),
		Version:   version,
		Patterns:  s.patterns.Len(),
		Malformed: state.Malformed(),
		Clients:   s.hub.Clients(),
	}
	if s.poller != nil {
		st.Polls = s.poller.Polls()
		st.PollFailures = s.poller.Failures()
		if err := s.poller.LastError(); err != nil {
			st.PollError = err.Error()
		}
	}
	if err := s.disp.LastError(); err != nil {
		st.CommandError = err.Error()
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleListPatterns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.patterns.List())
}

func (s *Server) handleAddPattern(w http.ResponseWriter, r *http.Request) {
	var p ml.TrainingPattern
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "decode pattern"))
		return
	}
	idx := s.patterns.Add(p)
	writeJSON(w, http.StatusCreated, map[string]int{"index": idx})
}

func (s *Server) handleReplacePatterns(w http.ResponseWriter, r *http.Request) {
	var ps []ml.TrainingPattern
	if err := json.NewDecoder(r.Body).Decode(&ps); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "decode patterns"))
		return
	}
	s.patterns.Replace(ps)
	writeJSON(w, http.StatusOK, s.patterns.List())
}

func (s *Server) handleRemovePattern(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.patterns.Remove(idx); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type trainRequest struct {
	Epochs int `json:"epochs"`
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	req := trainRequest{Epochs: s.opts.Epochs}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, errors.Wrap(err, "decode train request"))
			return
		}
		if req.Epochs <= 0 {
			req.Epochs = s.opts.Epochs
		}
	}

	state, err := s.disp.Train(r.Context(), s.patterns.List(), req.Epochs)
	s.reply(w, state, err)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	state, err := s.disp.Reset(r.Context())
	s.reply(w, state, err)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	state, err := s.disp.State(r.Context())
	s.reply(w, state, err)
}

func (s *Server) reply(w http.ResponseWriter, state ml.NetworkState, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, state)
	case errors.Is(err, monitor.ErrBusy):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, monitor.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusBadGateway, err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
