// Package gateway is the WebSocket accept/join surface (§4.1's "Gateway"
// component). It owns the upgrade, the join-frame handshake, and the
// per-connection read/write pumps; every subsequent frame is decoded just
// far enough to dispatch into the owning room.RoomActor, which holds all
// game state and rules.
package gateway

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Unkno394/QuizBattleee/internal/identity"
	"github.com/Unkno394/QuizBattleee/internal/observability"
	"github.com/Unkno394/QuizBattleee/internal/room"
	"github.com/Unkno394/QuizBattleee/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	sendBufferSize = 64
)

// Server upgrades HTTP connections to WebSocket and runs the join
// handshake described in §4.1 before handing a connection off to its
// room's actor.
type Server struct {
	upgrader    websocket.Upgrader
	roomMgr     *room.RoomManager
	resolver    identity.Resolver
	logger      *zap.Logger
	metrics     *observability.Metrics
	joinTimeout time.Duration
}

func NewServer(roomMgr *room.RoomManager, resolver identity.Resolver, logger *zap.Logger, metrics *observability.Metrics, readBuf, writeBuf int, joinTimeout time.Duration) *Server {
	if readBuf <= 0 {
		readBuf = 4096
	}
	if writeBuf <= 0 {
		writeBuf = 4096
	}
	if joinTimeout <= 0 {
		joinTimeout = room.JoinTimeout
	}
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBuf,
			WriteBufferSize: writeBuf,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		roomMgr:     roomMgr,
		resolver:    resolver,
		logger:      logger,
		metrics:     metrics,
		joinTimeout: joinTimeout,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	payload, ok := s.readJoinPayload(conn, r.URL.Query())
	if !ok {
		return
	}

	if appErr := room.ValidateJoinPayload(payload); appErr != nil {
		s.rejectAndClose(conn, appErr)
		return
	}

	ctx := r.Context()
	identityKey, appErr := room.ResolveIdentityKey(ctx, s.resolver, payload)
	if appErr != nil {
		s.rejectAndClose(conn, appErr)
		return
	}

	ra, err := s.roomMgr.Get(ctx, payload.RoomID)
	if err != nil {
		s.logger.Warn("room load failed", zap.String("room_id", payload.RoomID), zap.Error(err))
		s.rejectAndClose(conn, types.NewError(types.ErrRoomNotFound, "room unavailable"))
		return
	}
	if ra == nil {
		s.rejectAndClose(conn, types.NewError(types.ErrRoomNotFound, "room not found"))
		return
	}

	sess := &session{
		conn:    conn,
		ra:      ra,
		logger:  s.logger,
		metrics: s.metrics,
		send:    make(chan []byte, sendBufferSize),
		limiter: newTokenBucket(20, 5),
	}

	outcome := ra.Admit(payload, identityKey, sess)
	if outcome.Err != nil {
		s.rejectAndClose(conn, outcome.Err)
		return
	}
	sess.peerID = outcome.Connected.PeerID

	if outcome.OldSocket != nil {
		_ = outcome.OldSocket.Close(4002, "replaced by a new connection")
	}

	if s.metrics != nil {
		s.metrics.ActiveConnections.Inc()
	}
	go sess.writePump()
	sess.sendRaw(outcome.Connected)
	sess.readPump()
	if s.metrics != nil {
		s.metrics.ActiveConnections.Dec()
	}
	ra.Disconnect(sess.peerID, sess)
}

// readJoinPayload implements §4.1's two admission shapes: a query-string
// join (legacy clients that never send a framed `join` message) or the
// first WebSocket frame, which must arrive within joinTimeout.
func (s *Server) readJoinPayload(conn *websocket.Conn, q url.Values) (types.JoinPayload, bool) {
	if roomID := q.Get("roomId"); roomID != "" {
		return types.JoinPayload{
			RoomID:       roomID,
			Name:         q.Get("name"),
			HostToken:    q.Get("hostToken"),
			PlayerToken:  q.Get("playerToken"),
			RoomPassword: q.Get("roomPassword"),
			Token:        q.Get("token"),
			ClientID:     q.Get("clientId"),
		}, true
	}

	conn.SetReadDeadline(time.Now().Add(s.joinTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			s.rejectAndClose(conn, types.NewError(types.ErrJoinTimeout, "no join frame received within the timeout"))
		} else {
			conn.Close()
		}
		return types.JoinPayload{}, false
	}

	var frame types.ClientFrame
	if err := json.Unmarshal(data, &frame); err == nil && frame.Type == "join" {
		var payload types.JoinPayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			s.rejectAndClose(conn, types.NewError(types.ErrInvalidJoinPayload, "malformed join frame"))
			return types.JoinPayload{}, false
		}
		return payload, true
	}

	var payload types.JoinPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.rejectAndClose(conn, types.NewError(types.ErrInvalidJoinPayload, "malformed join frame"))
		return types.JoinPayload{}, false
	}
	return payload, true
}

func (s *Server) rejectAndClose(conn *websocket.Conn, appErr *types.AppError) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(types.ErrorFrame{Type: "error", Code: appErr.Code, Message: appErr.Message})
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(1008, string(appErr.Code)), time.Now().Add(writeWait))
	conn.Close()
}

// session is one connected client's socket; it implements room.Socket so
// the room package can address it without importing gorilla/websocket.
type session struct {
	peerID  string
	conn    *websocket.Conn
	ra      *room.RoomActor
	logger  *zap.Logger
	metrics *observability.Metrics
	send    chan []byte
	limiter *tokenBucket

	closeOnce   sync.Once
	closeCode   int
	closeReason string
}

func (s *session) Send(frame any) error {
	b, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	select {
	case s.send <- b:
		return nil
	default:
		return errSendBufferFull
	}
}

// Close asks this connection's writePump to send a close frame and stop;
// the actual conn.Close() happens there so every write stays on the one
// goroutine gorilla/websocket requires.
func (s *session) Close(code int, reason string) error {
	s.closeOnce.Do(func() {
		s.closeCode = code
		s.closeReason = reason
		close(s.send)
	})
	return nil
}

func (s *session) sendRaw(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case s.send <- b:
	default:
	}
}

func (s *session) readPump() {
	defer s.conn.Close()
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		if !s.limiter.allow() {
			if s.metrics != nil {
				s.metrics.CommandReject.WithLabelValues("rate_limited").Inc()
			}
			continue
		}
		var frame types.ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		s.dispatch(frame)
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case data, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				code := s.closeCode
				if code == 0 {
					code = websocket.CloseNormalClosure
				}
				s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, s.closeReason))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch decodes a frame's payload by type and hands the matching
// RoomActor call to that room's job queue via Dispatch, so concurrent
// connections to the same room never mutate it off the actor goroutine.
// Unknown types and malformed payloads are dropped silently, per §7's
// "invariant-violation no-ops are swallowed".
func (s *session) dispatch(frame types.ClientFrame) {
	ra := s.ra
	peerID := s.peerID
	switch frame.Type {
	case "ping":
		s.sendRaw(types.PongFrame{Type: "pong", ServerTime: time.Now().UnixMilli()})
	case "start-game":
		ra.Dispatch(func() { ra.HandleStartGame(peerID) })
	case "new-game":
		ra.Dispatch(func() { ra.HandleNewGame(peerID) })
	case "toggle-pause":
		ra.Dispatch(func() { ra.HandleTogglePause(peerID) })
	case "vote-captain":
		var p types.VoteCaptainPayload
		if json.Unmarshal(frame.Data, &p) == nil {
			ra.Dispatch(func() { ra.HandleVoteCaptain(peerID, p.CandidatePeerID) })
		}
	case "set-team-name":
		var p types.SetTeamNamePayload
		if json.Unmarshal(frame.Data, &p) == nil {
			ra.Dispatch(func() { ra.HandleSetTeamName(peerID, p.Name) })
		}
	case "random-team-name":
		ra.Dispatch(func() { ra.HandleRandomTeamName(peerID) })
	case "submit-answer":
		var p types.SubmitAnswerPayload
		if json.Unmarshal(frame.Data, &p) == nil {
			ra.Dispatch(func() { ra.HandleSubmitAnswer(peerID, p.SelectedIndex) })
		}
	case "skip-question":
		ra.Dispatch(func() { ra.HandleSkipQuestion(peerID) })
	case "request-skip-question":
		ra.Dispatch(func() { ra.HandleRequestSkip(peerID) })
	case "resolve-skip-request":
		var p types.ResolveSkipRequestPayload
		if json.Unmarshal(frame.Data, &p) == nil {
			ra.Dispatch(func() { ra.HandleResolveSkipRequest(peerID, p.Decision) })
		}
	case "send-chat":
		var p types.SendChatPayload
		if json.Unmarshal(frame.Data, &p) == nil {
			ra.Dispatch(func() { ra.HandleSendChat(peerID, p.Text) })
		}
	case "moderate-chat-message":
		var p types.ModerateChatMessagePayload
		if json.Unmarshal(frame.Data, &p) == nil {
			ra.Dispatch(func() { ra.HandleModerateChatMessage(peerID, p.MessageID) })
		}
	case "refresh-profile-assets":
		// Cosmetic asset refresh is out of scope (Non-goal); the frame is
		// accepted so legacy clients don't treat it as a protocol error.
	default:
		if s.metrics != nil {
			s.metrics.CommandReject.WithLabelValues("unknown_type").Inc()
		}
	}
}

var errSendBufferFull = &sendBufferFullError{}

type sendBufferFullError struct{}

func (*sendBufferFullError) Error() string { return "gateway: send buffer full" }

// tokenBucket is a minimal per-connection rate limiter guarding the
// actor's job queue from a single misbehaving client (§4.1's admission
// notes on well-formed input; nothing in spec.md names an exact rate,
// so this module picks one generous enough not to interfere with normal
// play).
type tokenBucket struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64
	lastTime time.Time
}

func newTokenBucket(capacity, rate float64) *tokenBucket {
	return &tokenBucket{tokens: capacity, capacity: capacity, rate: rate, lastTime: time.Now()}
}

func (tb *tokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	now := time.Now()
	tb.tokens += now.Sub(tb.lastTime).Seconds() * tb.rate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastTime = now
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}
