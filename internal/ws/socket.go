package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/kevmo/sprintdeck/internal/game"
	"github.com/rs/zerolog/log"
)

// ConnCtx ties a live connection to the room and participant it serves.
type ConnCtx struct {
	RoomID string
	UserID string
}

// Analyzer summarizes a captured vote rendering. The concrete bridge is
// injected so tests can substitute a deterministic fake.
type Analyzer interface {
	Analyze(ctx context.Context, votes, cardSet string) (string, error)
}

// Server routes socket events into the game engine and fans the
// resulting snapshots back out to every connection in the room.
type Server struct {
	rm       *game.Manager
	analyzer Analyzer

	mu      sync.Mutex
	members map[string]map[string]socketio.Conn // roomID -> socketID -> Conn
}

func New(rm *game.Manager, analyzer Analyzer) *Server {
	return &Server{rm: rm, analyzer: analyzer, members: make(map[string]map[string]socketio.Conn)}
}

type createRoomPayload struct {
	RoomName string `json:"room_name"`
	CardSet  string `json:"card_set"`
}

type joinPayload struct {
	RoomID   string `json:"room_id"`
	UserName string `json:"user_name"`
	UserID   string `json:"user_id"`
}

type votePayload struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
	Card   string `json:"card"`
}

type roomPayload struct {
	RoomID string `json:"room_id"`
}

type leavePayload struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

// Mount attaches the Socket.IO server with all handlers to the given
// Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", "create_room", func(s socketio.Conn, p createRoomPayload) {
		roomID := srv.rm.CreateRoom(p.RoomName, p.CardSet)
		log.Info().Str("sid", s.ID()).Str("room", roomID).Str("cardSet", p.CardSet).Msg("create_room")
		s.Emit("room_created", map[string]any{"room_id": roomID})
	})

	io.OnEvent("/", "join", func(s socketio.Conn, p joinPayload) {
		userID, state, err := srv.rm.Join(p.RoomID, p.UserID, p.UserName, s.ID())
		if err != nil {
			s.Emit("error", map[string]any{"message": "Room not found"})
			return
		}

		// A connection subscribes to at most one room group; switching
		// rooms unsubscribes from the old one first.
		if ctx, ok := s.Context().(*ConnCtx); ok && ctx.RoomID != "" && ctx.RoomID != p.RoomID {
			s.Leave(ctx.RoomID)
			srv.removeMember(ctx.RoomID, s.ID())
		}
		s.SetContext(&ConnCtx{RoomID: p.RoomID, UserID: userID})
		s.Join(p.RoomID)
		srv.addMember(p.RoomID, s.ID(), s)

		log.Info().Str("sid", s.ID()).Str("room", p.RoomID).Str("user", userID).Msg("join")
		s.Emit("joined", map[string]any{"user_id": userID, "state": state})
		srv.broadcast(p.RoomID, state)
	})

	io.OnEvent("/", "vote", func(s socketio.Conn, p votePayload) {
		state, ok := srv.rm.Vote(p.RoomID, p.UserID, p.Card)
		if !ok {
			return
		}
		log.Debug().Str("room", p.RoomID).Str("user", p.UserID).Msg("vote")
		srv.broadcast(p.RoomID, state)
	})

	io.OnEvent("/", "reveal", func(s socketio.Conn, p roomPayload) {
		state, ok := srv.rm.Reveal(p.RoomID)
		if !ok {
			return
		}
		log.Info().Str("room", p.RoomID).Msg("reveal")
		srv.broadcast(p.RoomID, state)
	})

	io.OnEvent("/", "reset", func(s socketio.Conn, p roomPayload) {
		state, ok := srv.rm.Reset(p.RoomID)
		if !ok {
			return
		}
		log.Info().Str("room", p.RoomID).Msg("reset")
		srv.broadcast(p.RoomID, state)
	})

	io.OnEvent("/", "leave", func(s socketio.Conn, p leavePayload) {
		state, ok := srv.rm.Leave(p.RoomID, p.UserID)
		s.Leave(p.RoomID)
		srv.removeMember(p.RoomID, s.ID())
		s.SetContext(&ConnCtx{})
		log.Info().Str("room", p.RoomID).Str("user", p.UserID).Msg("leave")
		if ok {
			srv.broadcast(p.RoomID, state)
		}
	})

	io.OnEvent("/", "analyze_votes", func(s socketio.Conn, p roomPayload) {
		// Capture the vote rendering now; votes cast while the request
		// is in flight must not change what gets analyzed.
		votes, cardSet, err := srv.rm.VoteSummary(p.RoomID)
		if err != nil {
			s.Emit("ai_analysis", map[string]any{"error": analyzeErrMsg(err)})
			return
		}
		log.Info().Str("room", p.RoomID).Msg("analyze_votes")
		go func() {
			summary, err := srv.analyzer.Analyze(context.Background(), votes, cardSet)
			if err != nil {
				log.Error().Err(err).Str("room", p.RoomID).Msg("analysis failed")
				srv.emitToRoom(p.RoomID, "ai_analysis", map[string]any{"error": err.Error()})
				return
			}
			srv.emitToRoom(p.RoomID, "ai_analysis", map[string]any{"summary": summary})
		}()
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})

	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		if ctx, ok := s.Context().(*ConnCtx); ok && ctx.RoomID != "" {
			srv.removeMember(ctx.RoomID, s.ID())
		}
		for _, rem := range srv.rm.RemoveByConn(s.ID()) {
			if rem.Notify {
				srv.broadcast(rem.RoomID, rem.State)
			}
		}
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	// Basic CORS preflight for Socket.IO POST
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

func (srv *Server) addMember(roomID, sid string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.members[roomID] == nil {
		srv.members[roomID] = make(map[string]socketio.Conn)
	}
	srv.members[roomID][sid] = c
}

func (srv *Server) removeMember(roomID, sid string) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if m := srv.members[roomID]; m != nil {
		delete(m, sid)
		if len(m) == 0 {
			delete(srv.members, roomID)
		}
	}
}

func (srv *Server) memberCount(roomID string) int {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return len(srv.members[roomID])
}

// broadcast pushes a room_update snapshot to every connection in the
// room. The state is an immutable value, so fan-out needs no lock on
// the room itself.
func (srv *Server) broadcast(roomID string, state game.State) {
	srv.emitToRoom(roomID, "room_update", state)
}

// emitToRoom is a no-op for rooms with no members left; a stale
// analysis result arriving after room deletion is simply dropped.
func (srv *Server) emitToRoom(roomID, event string, payload any) {
	srv.mu.Lock()
	conns := make([]socketio.Conn, 0, len(srv.members[roomID]))
	for _, c := range srv.members[roomID] {
		conns = append(conns, c)
	}
	srv.mu.Unlock()
	for _, c := range conns {
		c.Emit(event, payload)
	}
}

func analyzeErrMsg(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, game.ErrNotRevealed):
		return "Votes not revealed yet"
	default:
		return err.Error()
	}
}
