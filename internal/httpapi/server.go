// Package httpapi exposes the game operations over HTTP. Caller identity is
// taken from the X-Caller-Address header; resolving who is behind an address
// is the transport's (or a gateway's) concern, not ours.
package httpapi

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/castlek/chessledger/internal/obslog"
	"github.com/castlek/chessledger/internal/session"
)

const callerHeader = "X-Caller-Address"

type Server struct {
	svc *session.Service
}

func NewServer(svc *session.Service) *Server {
	return &Server{svc: svc}
}

// Handler returns the fasthttp request handler for all routes.
func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		reqID := uuid.NewString()
		ctx.Response.Header.Set("X-Request-Id", reqID)

		s.route(ctx)

		obslog.L().Info("http_request",
			zap.String("request_id", reqID),
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("path", ctx.Path()),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func (s *Server) route(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	switch {
	case path == "/v1/games/total" && ctx.IsGet():
		s.handleTotalGames(ctx)
	case path == "/v1/game" && ctx.IsGet():
		s.handleGameByNumber(ctx)
	case path == "/v1/game/board" && ctx.IsGet():
		s.handleBoardState(ctx)
	case path == "/v1/game/turn" && ctx.IsGet():
		s.handleTurnColor(ctx)
	case path == "/v1/game/player" && ctx.IsGet():
		s.handleCurrentPlayer(ctx)
	case path == "/v1/games" && ctx.IsPost():
		s.handleCreateOrJoin(ctx)
	case path == "/v1/game/move" && ctx.IsPost():
		s.handlePlayMove(ctx)
	default:
		writeError(ctx, fasthttp.StatusNotFound, "not found")
	}
}

func (s *Server) handleTotalGames(ctx *fasthttp.RequestCtx) {
	total, err := s.svc.TotalGames(ctx)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{"total": total})
}

func (s *Server) handleGameByNumber(ctx *fasthttp.RequestCtx) {
	id, ok := gameID(ctx)
	if !ok {
		return
	}
	info, err := s.svc.GameByNumber(ctx, id)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"player_one": info.PlayerOne,
		"player_two": info.PlayerTwo,
		"status":     uint8(info.Status),
		"victor":     uint8(info.Victor),
	})
}

func (s *Server) handleBoardState(ctx *fasthttp.RequestCtx) {
	id, ok := gameID(ctx)
	if !ok {
		return
	}
	state, err := s.svc.BoardStateByGameNumber(ctx, id)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{"board": state.Hex()})
}

func (s *Server) handleTurnColor(ctx *fasthttp.RequestCtx) {
	id, ok := gameID(ctx)
	if !ok {
		return
	}
	turn, err := s.svc.TurnColor(ctx, id)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{"turn": uint8(turn)})
}

func (s *Server) handleCurrentPlayer(ctx *fasthttp.RequestCtx) {
	id, ok := gameID(ctx)
	if !ok {
		return
	}
	player, err := s.svc.CurrentPlayer(ctx, id)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{"player": player})
}

func (s *Server) handleCreateOrJoin(ctx *fasthttp.RequestCtx) {
	caller, ok := callerAddress(ctx)
	if !ok {
		return
	}
	id, err := s.svc.CreateOrJoin(ctx, caller)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{"id": id})
}

type playMoveRequest struct {
	GameID  uint64 `json:"game_id"`
	FromRow int    `json:"from_row"`
	FromCol int    `json:"from_col"`
	ToRow   int    `json:"to_row"`
	ToCol   int    `json:"to_col"`
}

func (s *Server) handlePlayMove(ctx *fasthttp.RequestCtx) {
	caller, ok := callerAddress(ctx)
	if !ok {
		return
	}
	var req playMoveRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid request body")
		return
	}
	status, err := s.svc.PlayMove(ctx, caller, req.GameID,
		req.FromRow, req.FromCol, req.ToRow, req.ToCol)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"status":      uint8(status),
		"status_name": status.String(),
	})
}

func gameID(ctx *fasthttp.RequestCtx) (uint64, bool) {
	raw := string(ctx.QueryArgs().Peek("id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid game id")
		return 0, false
	}
	return id, true
}

func callerAddress(ctx *fasthttp.RequestCtx) (string, bool) {
	caller := string(ctx.Request.Header.Peek(callerHeader))
	if caller == "" {
		writeError(ctx, fasthttp.StatusBadRequest, callerHeader+" header required")
		return "", false
	}
	return caller, true
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(raw)
}

func writeError(ctx *fasthttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]any{"error": msg})
}
