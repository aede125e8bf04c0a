// Package session owns the game registry and the per-move state machine.
// All shared state lives in the injected ledger; each operation here is a
// single ledger transaction.
package session

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/castlek/chessledger/internal/board"
	"github.com/castlek/chessledger/internal/ledger"
	"github.com/castlek/chessledger/internal/obslog"
	"github.com/castlek/chessledger/internal/rules"
)

// GameInfo is the read-accessor view of one game. For an id that was never
// assigned it is the all-zero view (zero addresses, status pending): the
// ledger's default-record behavior, not a "found" signal.
type GameInfo struct {
	PlayerOne string
	PlayerTwo string
	Status    Status
	Victor    board.Color
}

// Archiver receives terminal games for off-ledger archival. Failures are
// logged and swallowed; they never affect the returned status or the ledger.
type Archiver interface {
	SaveResult(ctx context.Context, gameNumber uint64, rec ledger.GameRecord) error
}

type Service struct {
	ledger ledger.Ledger
	rules  rules.Engine
	arch   Archiver
}

func NewService(l ledger.Ledger, e rules.Engine) *Service {
	return &Service{ledger: l, rules: e}
}

// AttachArchiver wires an archive sink for finished games.
func (s *Service) AttachArchiver(a Archiver) {
	if s != nil {
		s.arch = a
	}
}

// CreateOrJoin creates a new pending game for caller, or fills the single
// outstanding pending slot. Calls therefore alternate strictly between
// "create" and "join"; at most one unmatched game exists at any time.
// A caller may join their own pending game (current ledger behavior, kept).
func (s *Service) CreateOrJoin(ctx context.Context, caller string) (uint64, error) {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return 0, fmt.Errorf("caller address required")
	}

	var (
		id     uint64
		joined bool
	)
	err := s.ledger.Update(ctx, func(tx ledger.Tx) error {
		pending, err := tx.PendingGame()
		if err != nil {
			return err
		}

		if pending == 0 {
			total, err := tx.TotalGames()
			if err != nil {
				return err
			}
			id = total + 1
			if err := tx.SetTotalGames(id); err != nil {
				return err
			}
			rec := ledger.GameRecord{
				PlayerOne: caller,
				Status:    uint8(StatusPending),
				Turn:      uint8(board.White),
				Board:     board.Encode(board.Starting()).Hex(),
			}
			if err := tx.PutGame(id, rec); err != nil {
				return err
			}
			return tx.SetPendingGame(id)
		}

		id, joined = pending, true
		rec, err := tx.Game(pending)
		if err != nil {
			return err
		}
		rec.PlayerTwo = caller
		rec.Status = uint8(StatusContinuing)
		if err := tx.PutGame(pending, rec); err != nil {
			return err
		}
		return tx.SetPendingGame(0)
	})
	if err != nil {
		return 0, err
	}

	obslog.L().Info("game_create_or_join",
		zap.Uint64("game_id", id),
		zap.String("caller", caller),
		zap.Bool("joined", joined),
	)
	return id, nil
}

// PlayMove advances game id by one move on behalf of caller. Unauthorized
// callers, games not in progress, and moves the rules engine rejects all
// come back as StatusIllegalMove with no mutation. Only a malformed packed
// board (or a storage failure) aborts the call with an error, in which case
// the transaction's writes are discarded.
func (s *Service) PlayMove(ctx context.Context, caller string, id uint64, fromRow, fromCol, toRow, toCol int) (Status, error) {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return StatusIllegalMove, fmt.Errorf("caller address required")
	}

	result := StatusIllegalMove
	var final *ledger.GameRecord
	err := s.ledger.Update(ctx, func(tx ledger.Tx) error {
		rec, err := tx.Game(id)
		if err != nil {
			return err
		}
		packed, err := board.ParseHex(rec.Board)
		if err != nil {
			return err
		}
		b, err := board.Decode(packed)
		if err != nil {
			return err
		}

		current := rec.PlayerTwo
		if board.Color(rec.Turn) == board.White {
			current = rec.PlayerOne
		}
		if caller != current {
			return nil // unauthorized
		}
		if Status(rec.Status) != StatusContinuing {
			return nil // pending or terminal
		}

		out, err := s.rules.Apply(ctx, b, board.Color(rec.Turn),
			board.Square{Row: fromRow, Col: fromCol},
			board.Square{Row: toRow, Col: toCol})
		if err != nil {
			return err
		}

		switch out.Verdict {
		case rules.VerdictContinuing:
			rec.Board = board.Encode(out.Board).Hex()
			rec.Turn = uint8(out.NextTurn)
			result = StatusContinuing
		case rules.VerdictVictory:
			rec.Status = uint8(StatusVictory)
			rec.Victor = uint8(out.Winner)
			result = StatusVictory
		case rules.VerdictStalemate:
			rec.Status = uint8(StatusStalemate)
			result = StatusStalemate
		default:
			return nil // rules rejected, no mutation
		}
		if err := tx.PutGame(id, rec); err != nil {
			return err
		}
		if result.Terminal() {
			final = &rec
		}
		return nil
	})
	if err != nil {
		return StatusIllegalMove, err
	}

	obslog.L().Info("game_move",
		zap.Uint64("game_id", id),
		zap.String("caller", caller),
		zap.String("result", result.String()),
	)
	if final != nil {
		s.archiveFinal(ctx, id, *final)
	}
	return result, nil
}

func (s *Service) archiveFinal(ctx context.Context, id uint64, rec ledger.GameRecord) {
	if s.arch == nil {
		return
	}
	if err := s.arch.SaveResult(ctx, id, rec); err != nil {
		obslog.L().Error("game_archive_error",
			zap.Uint64("game_id", id),
			zap.Error(err),
		)
		return
	}
	obslog.L().Info("game_archived",
		zap.Uint64("game_id", id),
		zap.Uint8("status", rec.Status),
		zap.Uint8("victor", rec.Victor),
	)
}

// TotalGames returns the number of games ever started.
func (s *Service) TotalGames(ctx context.Context) (uint64, error) {
	var total uint64
	err := s.ledger.View(ctx, func(tx ledger.ReadTx) error {
		var err error
		total, err = tx.TotalGames()
		return err
	})
	return total, err
}

// GameByNumber returns the players, status and victor of game id.
func (s *Service) GameByNumber(ctx context.Context, id uint64) (GameInfo, error) {
	rec, err := s.record(ctx, id)
	if err != nil {
		return GameInfo{}, err
	}
	return GameInfo{
		PlayerOne: rec.PlayerOne,
		PlayerTwo: rec.PlayerTwo,
		Status:    Status(rec.Status),
		Victor:    board.Color(rec.Victor),
	}, nil
}

// BoardStateByGameNumber returns the packed board value of game id.
func (s *Service) BoardStateByGameNumber(ctx context.Context, id uint64) (board.State, error) {
	rec, err := s.record(ctx, id)
	if err != nil {
		return board.State{}, err
	}
	return board.ParseHex(rec.Board)
}

// TurnColor returns the side to move of game id.
func (s *Service) TurnColor(ctx context.Context, id uint64) (board.Color, error) {
	rec, err := s.record(ctx, id)
	if err != nil {
		return board.ColorNone, err
	}
	return board.Color(rec.Turn), nil
}

// CurrentPlayer returns the address whose turn it is.
func (s *Service) CurrentPlayer(ctx context.Context, id uint64) (string, error) {
	rec, err := s.record(ctx, id)
	if err != nil {
		return "", err
	}
	if board.Color(rec.Turn) == board.White {
		return rec.PlayerOne, nil
	}
	return rec.PlayerTwo, nil
}

func (s *Service) record(ctx context.Context, id uint64) (ledger.GameRecord, error) {
	var rec ledger.GameRecord
	err := s.ledger.View(ctx, func(tx ledger.ReadTx) error {
		var err error
		rec, err = tx.Game(id)
		return err
	})
	return rec, err
}
