package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/hordecore/hordecore/internal/world"
)

// ScoreEntry is one finished run submitted to the leaderboard.
type ScoreEntry struct {
	RunID     uuid.UUID
	PlayerID  string
	Character string
	Map       string
	Score     int
	Kills     int
	Level     int
	Survival  float64
	Integrity world.IntegrityReport
}

type ScoreRepo struct {
	db        *DB
	threshold int
}

// NewScoreRepo creates a repo that marks entries verified when their
// integrity score reaches threshold.
func NewScoreRepo(db *DB, threshold int) *ScoreRepo {
	return &ScoreRepo{db: db, threshold: threshold}
}

// Verified reports whether an integrity score passes the threshold.
func (r *ScoreRepo) Verified(integrity int) bool {
	return integrity >= r.threshold
}

// Submit inserts the entry. Resubmitting a run id is a no-op.
func (r *ScoreRepo) Submit(ctx context.Context, e ScoreEntry) (verified bool, err error) {
	report, err := json.Marshal(e.Integrity)
	if err != nil {
		return false, fmt.Errorf("encode integrity report: %w", err)
	}
	verified = r.Verified(e.Integrity.Score)
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO scores (run_id, player_id, character, map, score, kills, level, survival, integrity, verified, report)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (run_id) DO NOTHING`,
		e.RunID, e.PlayerID, e.Character, e.Map, e.Score, e.Kills, e.Level, e.Survival,
		e.Integrity.Score, verified, report,
	)
	if err != nil {
		return false, fmt.Errorf("submit score %s: %w", e.RunID, err)
	}
	return verified, nil
}

// LeaderboardRow is a ranked verified score.
type LeaderboardRow struct {
	PlayerID  string  `json:"playerId"`
	Character string  `json:"character"`
	Score     int     `json:"score"`
	Kills     int     `json:"kills"`
	Survival  float64 `json:"survival"`
}

// Top returns the best verified scores on a map.
func (r *ScoreRepo) Top(ctx context.Context, mapID string, limit int) ([]LeaderboardRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT player_id, character, score, kills, survival
		 FROM scores WHERE map = $1 AND verified
		 ORDER BY score DESC, created_at ASC LIMIT $2`, mapID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard %s: %w", mapID, err)
	}
	defer rows.Close()

	var out []LeaderboardRow
	for rows.Next() {
		var l LeaderboardRow
		if err := rows.Scan(&l.PlayerID, &l.Character, &l.Score, &l.Kills, &l.Survival); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
