// Package archive persists finished games to Postgres for off-ledger
// record keeping. The ledger stays the source of truth; archiving is
// best-effort and a failure never changes a game's outcome.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/castlek/chessledger/internal/board"
	"github.com/castlek/chessledger/internal/ledger"
	"github.com/castlek/chessledger/internal/session"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts a terminal game into the archive table. Replays of the
// same game number overwrite the previous row.
func (r *Repository) SaveResult(ctx context.Context, gameNumber uint64, rec ledger.GameRecord) error {
	if r == nil || r.db == nil {
		return nil
	}
	if !session.Status(rec.Status).Terminal() {
		return nil
	}

	const q = `INSERT INTO archived_games (
	    game_number, player_one, player_two, status, victor, turn, board, ended_at
	  ) VALUES (
	    $1, $2, $3, $4, $5, $6, $7, $8
	  ) ON CONFLICT (game_number) DO UPDATE SET
	    player_one = EXCLUDED.player_one,
	    player_two = EXCLUDED.player_two,
	    status     = EXCLUDED.status,
	    victor     = EXCLUDED.victor,
	    turn       = EXCLUDED.turn,
	    board      = EXCLUDED.board,
	    ended_at   = EXCLUDED.ended_at`

	_, err := r.db.ExecContext(ctx, q,
		int64(gameNumber),
		rec.PlayerOne, rec.PlayerTwo,
		int16(rec.Status),
		int16(rec.Victor),
		int16(rec.Turn),
		rec.Board,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("archive game %d (%s): %w", gameNumber, board.Color(rec.Victor), err)
	}
	return nil
}
