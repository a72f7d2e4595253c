// Package api is the thin chi HTTP surface around the room core: health
// and metrics endpoints, a dev-convenience room-creation endpoint
// standing in for the out-of-scope external REST service (§4.1's
// "Lifecycle" note), and the WebSocket mount.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Unkno394/QuizBattleee/internal/auth"
	"github.com/Unkno394/QuizBattleee/internal/questions"
	"github.com/Unkno394/QuizBattleee/internal/rng"
	"github.com/Unkno394/QuizBattleee/internal/room"
	"github.com/Unkno394/QuizBattleee/internal/types"
)

type Server struct {
	Router *chi.Mux

	roomMgr     *room.RoomManager
	provisioner questions.Provisioner
	rngSrc      rng.Source
	logger      *zap.Logger
}

func NewServer(roomMgr *room.RoomManager, provisioner questions.Provisioner, rngSrc rng.Source, logger *zap.Logger, wsHandler http.Handler) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)

	s := &Server{
		Router:      r,
		roomMgr:     roomMgr,
		provisioner: provisioner,
		rngSrc:      rngSrc,
		logger:      logger,
	}

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/rooms", s.createRoom)
	r.Handle("/ws", wsHandler)
	r.Handle("/api/ws", wsHandler)
	return s
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

// CreateRoomRequest is the dev-convenience room-creation body.
type CreateRoomRequest struct {
	Topic         string               `json:"topic"`
	Difficulty    types.DifficultyMode `json:"difficulty"`
	GameMode      types.GameMode       `json:"gameMode"`
	QuestionCount int                  `json:"questionCount"`
	RoomPassword  string               `json:"roomPassword,omitempty"`
}

// CreateRoomResponse returns what a host needs to join as host and share
// with players (§4.1's join payload fields).
type CreateRoomResponse struct {
	RoomID    string `json:"roomId"`
	HostToken string `json:"hostToken"`
}

func (s *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Topic == "" {
		req.Topic = "general"
	}
	if req.GameMode == "" {
		req.GameMode = types.ModeClassic
	}
	if req.Difficulty == "" {
		req.Difficulty = types.DifficultyMedium
	}
	count := req.QuestionCount
	if count < room.MinQuestionCount {
		count = room.MinQuestionCount
	}
	if count > room.MaxQuestionCount {
		count = room.MaxQuestionCount
	}

	qs, err := s.provisioner.Provision(r.Context(), req.Topic, req.Difficulty, count)
	if err != nil {
		http.Error(w, "no questions available for topic", http.StatusBadRequest)
		return
	}

	code := room.GenerateRoomCode(s.rngSrc, 6)
	hostToken := room.GenerateRoomCode(s.rngSrc, 16)

	cfg := types.RoomConfig{
		Topic:         req.Topic,
		Difficulty:    req.Difficulty,
		GameMode:      req.GameMode,
		QuestionCount: count,
		HostTokenHash: auth.HashSecret(hostToken),
	}
	if req.RoomPassword != "" {
		cfg.PasswordHash = auth.HashSecret(req.RoomPassword)
	}

	rm := room.NewRoom(code, cfg, qs)
	if err := s.roomMgr.CreateRoom(r.Context(), rm); err != nil {
		s.logger.Warn("create room failed", zap.Error(err))
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CreateRoomResponse{RoomID: code, HostToken: hostToken})
}
