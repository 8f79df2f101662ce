package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"github.com/dshills/mapcast/internal/cursor"
	"github.com/dshills/mapcast/internal/logging"
	"github.com/dshills/mapcast/internal/maperr"
	"github.com/dshills/mapcast/internal/settings"
	"github.com/dshills/mapcast/internal/view"
)

// Limits for request bodies.
const (
	maxBodySize = 1 << 20
)

// Backend is the map registry the server exposes.
type Backend interface {
	GetMap(id string) (*view.View, bool)
	Maps() []*view.View
	CreateMap(ctx context.Context, itemKey string, s settings.Settings) (*view.View, error)
	DeleteMap(id string) bool
	SaveMap(id string) error
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	AllowedOrigins []string
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	PongWait       time.Duration
}

// DefaultServerConfig returns the defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		AllowedOrigins: []string{"*"},
		WriteTimeout:   10 * time.Second,
		PingInterval:   10 * time.Second,
		PongWait:       60 * time.Second,
	}
}

// Server serves the map API and viewer websockets.
type Server struct {
	hub      *Hub
	backend  Backend
	cfg      ServerConfig
	upgrader websocket.Upgrader
	log      *logging.Logger
}

// NewServer creates a server. Zero durations in cfg take the defaults.
func NewServer(hub *Hub, backend Backend, cfg ServerConfig, log *logging.Logger) *Server {
	def := DefaultServerConfig()
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.PongWait <= cfg.PingInterval {
		cfg.PongWait = max(def.PongWait, 2*cfg.PingInterval)
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = def.AllowedOrigins
	}

	s := &Server{
		hub:     hub,
		backend: backend,
		cfg:     cfg,
		log:     logging.OrDefault(log).WithComponent("http"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 16 * 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Router builds the HTTP routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/maps", func(sub chi.Router) {
		sub.Get("/", s.listMaps)
		sub.Post("/", s.createMap)
		sub.Route("/{mapID}", func(m chi.Router) {
			m.Get("/", s.getMap)
			m.Delete("/", s.deleteMap)
			m.Patch("/settings", s.patchSettings)
			m.Get("/image.png", s.mapImage)
			m.Post("/markers", s.syncMarkers)
			m.Post("/resync", s.resync)
		})
	})

	r.Get("/ws/{viewID}", s.serveWS)
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithField("request", middleware.GetReqID(r.Context())).
			Debug("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.cfg.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

type mapInfo struct {
	ID       string            `json:"id"`
	Width    int               `json:"width"`
	Height   int               `json:"height"`
	State    string            `json:"state"`
	Settings settings.Settings `json:"settings"`
	Viewers  int               `json:"viewers"`
}

func (s *Server) info(v *view.View) mapInfo {
	return mapInfo{
		ID:       v.ID(),
		Width:    v.Width(),
		Height:   v.Height(),
		State:    v.State().String(),
		Settings: v.Settings(),
		Viewers:  len(s.hub.Subscribers(v.ID())),
	}
}

func (s *Server) listMaps(w http.ResponseWriter, r *http.Request) {
	maps := s.backend.Maps()
	out := make([]mapInfo, 0, len(maps))
	for _, v := range maps {
		out = append(out, s.info(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createMap(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	set := settings.Default()
	item := ""
	if len(body) > 0 {
		if !gjson.ValidBytes(body) {
			writeError(w, settings.ErrInvalidJSON)
			return
		}
		doc := gjson.ParseBytes(body)
		item = doc.Get("item").String()
		if raw := doc.Get("settings"); raw.Exists() {
			if set, err = settings.Parse([]byte(raw.Raw)); err != nil {
				writeError(w, err)
				return
			}
		}
	}

	v, err := s.backend.CreateMap(r.Context(), item, set)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.info(v))
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*view.View, bool) {
	id := chi.URLParam(r, "mapID")
	v, ok := s.backend.GetMap(id)
	if !ok {
		writeError(w, maperr.NewOperationError("lookup", id, maperr.ErrNotFound))
	}
	return v, ok
}

func (s *Server) getMap(w http.ResponseWriter, r *http.Request) {
	if v, ok := s.lookup(w, r); ok {
		writeJSON(w, http.StatusOK, s.info(v))
	}
}

func (s *Server) deleteMap(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "mapID")
	if !s.backend.DeleteMap(id) {
		writeError(w, maperr.NewOperationError("delete", id, maperr.ErrNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) patchSettings(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookup(w, r)
	if !ok {
		return
	}
	body, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var applyErr error
	err = v.UpdateSettings(func(cur *settings.Settings) {
		next, err := settings.Apply(*cur, body)
		if err != nil {
			applyErr = err
			return
		}
		*cur = next
	})
	if err == nil {
		err = applyErr
	}
	if err == nil {
		err = s.backend.SaveMap(v.ID())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.info(v))
}

func (s *Server) mapImage(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookup(w, r)
	if !ok {
		return
	}
	img, err := v.Image()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		s.log.Warn("encode png for %s: %v", v.ID(), err)
	}
}

// syncMarkers accepts [{"kind":"player","key":"a","x":1.5,"z":-2,"heading":90}].
func (s *Server) syncMarkers(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookup(w, r)
	if !ok {
		return
	}
	body, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	markers, err := parseMarkers(body)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := v.SyncMarkers(markers); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resync(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := v.Resync(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

var errBadMarkers = fmt.Errorf("markers must be a json array: %w", maperr.ErrInvalidArgument)

func parseMarkers(body []byte) ([]view.WorldMarker, error) {
	if !gjson.ValidBytes(body) {
		return nil, errBadMarkers
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		return nil, errBadMarkers
	}

	var out []view.WorldMarker
	var err error
	doc.ForEach(func(_, m gjson.Result) bool {
		var kind cursor.MarkerKind
		switch strings.ToLower(m.Get("kind").String()) {
		case "player", "":
			kind = cursor.MarkerPlayer
		case "item_frame", "itemframe", "frame":
			kind = cursor.MarkerItemFrame
		default:
			err = maperr.NewOperationError("markers", m.Get("kind").String(), maperr.ErrInvalidArgument)
			return false
		}
		key := m.Get("key").String()
		if key == "" {
			err = maperr.NewOperationError("markers", "missing key", maperr.ErrInvalidArgument)
			return false
		}
		out = append(out, view.WorldMarker{
			Kind:    kind,
			Key:     key,
			X:       m.Get("x").Float(),
			Z:       m.Get("z").Float(),
			Heading: m.Get("heading").Float(),
		})
		return true
	})
	return out, err
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxBodySize {
		return nil, maperr.NewOperationError("read body", "", maperr.ErrInvalidArgument)
	}
	return body, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, maperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, maperr.ErrInvalidArgument), errors.Is(err, maperr.ErrOutOfBounds):
		return http.StatusBadRequest
	case errors.Is(err, maperr.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
