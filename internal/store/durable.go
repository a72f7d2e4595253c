package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
)

// ConnectMySQL opens and pings a MySQL pool, the same shape the teacher's
// store.ConnectMySQL uses.
func ConnectMySQL(dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// MySQLDurableStore is the authoritative tier backing DurableStore (§4.10).
// Snapshot rows are keyed by room id; results append to a separate table.
type MySQLDurableStore struct {
	db *sql.DB
}

func NewMySQLDurableStore(db *sql.DB) *MySQLDurableStore {
	return &MySQLDurableStore{db: db}
}

func (s *MySQLDurableStore) Load(ctx context.Context, roomID string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT room_id, topic, question_count, state_json, updated_at FROM room_snapshots WHERE room_id=?`, roomID)
	var snap Snapshot
	if err := row.Scan(&snap.RoomID, &snap.Topic, &snap.QuestionCount, &snap.StateJSON, &snap.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

func (s *MySQLDurableStore) Save(ctx context.Context, snap Snapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO room_snapshots (room_id, topic, question_count, state_json, updated_at)
		 VALUES (?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE topic=VALUES(topic), question_count=VALUES(question_count),
		   state_json=VALUES(state_json), updated_at=VALUES(updated_at)`,
		snap.RoomID, snap.Topic, snap.QuestionCount, snap.StateJSON, snap.UpdatedAt,
	)
	return err
}

func (s *MySQLDurableStore) AppendResult(ctx context.Context, result GameResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO room_results (room_id, topic, game_mode, winning_team, team_scores_json, player_stats_json, finished_at)
		 VALUES (?,?,?,?,?,?,?)`,
		result.RoomID, result.Topic, result.GameMode, result.WinningTeam,
		result.TeamScores, result.PlayerStats, result.FinishedAt,
	)
	return err
}

func (s *MySQLDurableStore) Close() error { return s.db.Close() }
