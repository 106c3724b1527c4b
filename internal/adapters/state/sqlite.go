// Package state provides ClaimStore implementations: SQLite for real
// deployments and a JSON file for light setups and tests.
package state

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/factmesh/factmesh/internal/core"
)

//go:embed migrations/001_initial_schema.sql
var migrationV1 string

// SQLiteStore implements core.ClaimStore with SQLite storage. Claim
// payloads are stored as JSON columns; lifecycle fields get their own
// columns for querying.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the database and applies pending
// migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	var version int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version); err != nil {
		version = 0
	}
	if version < 1 {
		if _, err := s.db.Exec(migrationV1); err != nil {
			return fmt.Errorf("applying migration v1: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveClaim stores intake metadata with status pending_ai.
func (s *SQLiteStore) SaveClaim(ctx context.Context, claim *core.ClaimMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	claimJSON, err := json.Marshal(claim)
	if err != nil {
		return fmt.Errorf("marshaling claim: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO claims (id, claim_json, status, submitted_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET claim_json = excluded.claim_json, updated_at = excluded.updated_at`,
		claim.ID, string(claimJSON), string(core.ClaimStatusPendingAI),
		claim.SubmittedAt.UTC().Format(time.RFC3339Nano), now)
	if err != nil {
		return core.NewStateError("save_claim_failed", "persisting claim").WithCause(err)
	}
	return nil
}

// GetClaim loads a claim record with its accumulated artifacts.
// Returns nil and no error when the claim does not exist.
func (s *SQLiteStore) GetClaim(ctx context.Context, id string) (*core.ClaimRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getClaim(ctx, id)
}

func (s *SQLiteStore) getClaim(ctx context.Context, id string) (*core.ClaimRecord, error) {
	var claimJSON, status, updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT claim_json, status, updated_at FROM claims WHERE id = ?", id).
		Scan(&claimJSON, &status, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, core.NewStateError("get_claim_failed", "loading claim").WithCause(err)
	}

	record := &core.ClaimRecord{Status: core.ClaimStatus(status)}
	if err := json.Unmarshal([]byte(claimJSON), &record.Claim); err != nil {
		return nil, fmt.Errorf("unmarshaling claim %s: %w", id, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		record.UpdatedAt = t
	}

	if err := s.loadOutputs(ctx, id, record); err != nil {
		return nil, err
	}
	if err := s.loadEvaluation(ctx, id, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *SQLiteStore) loadOutputs(ctx context.Context, id string, record *core.ClaimRecord) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT output_json FROM agent_results WHERE claim_id = ?", id)
	if err != nil {
		return core.NewStateError("load_outputs_failed", "loading agent results").WithCause(err)
	}
	defer rows.Close()

	for rows.Next() {
		var outputJSON string
		if err := rows.Scan(&outputJSON); err != nil {
			return err
		}
		var output core.AgentOutput
		if err := json.Unmarshal([]byte(outputJSON), &output); err != nil {
			return fmt.Errorf("unmarshaling agent result: %w", err)
		}
		if record.Outputs == nil {
			record.Outputs = core.AgentOutputs{}
		}
		record.Outputs[output.Dimension] = &output
	}
	return rows.Err()
}

func (s *SQLiteStore) loadEvaluation(ctx context.Context, id string, record *core.ClaimRecord) error {
	var verdictJSON, routingJSON string
	err := s.db.QueryRowContext(ctx,
		"SELECT verdict_json, routing_json FROM evaluations WHERE claim_id = ?", id).
		Scan(&verdictJSON, &routingJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return core.NewStateError("load_evaluation_failed", "loading evaluation").WithCause(err)
	}

	record.Verdict = &core.AggregatedVerdict{}
	if err := json.Unmarshal([]byte(verdictJSON), record.Verdict); err != nil {
		return fmt.Errorf("unmarshaling verdict: %w", err)
	}
	record.Routing = &core.RoutingDecision{}
	if err := json.Unmarshal([]byte(routingJSON), record.Routing); err != nil {
		return fmt.Errorf("unmarshaling routing: %w", err)
	}
	return nil
}

// ListClaims returns claim records newest first.
func (s *SQLiteStore) ListClaims(ctx context.Context, limit int) ([]*core.ClaimRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM claims ORDER BY submitted_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, core.NewStateError("list_claims_failed", "listing claims").WithCause(err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	records := make([]*core.ClaimRecord, 0, len(ids))
	for _, id := range ids {
		record, err := s.getClaim(ctx, id)
		if err != nil {
			return nil, err
		}
		if record != nil {
			records = append(records, record)
		}
	}
	return records, nil
}

// SaveAgentOutput stores one specialist result.
func (s *SQLiteStore) SaveAgentOutput(ctx context.Context, claimID string, output *core.AgentOutput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	outputJSON, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("marshaling agent output: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agent_results (claim_id, dimension, output_json, completed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(claim_id, dimension) DO UPDATE SET output_json = excluded.output_json, completed_at = excluded.completed_at`,
		claimID, string(output.Dimension), string(outputJSON),
		output.CompletedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return core.NewStateError("save_output_failed", "persisting agent result").WithCause(err)
	}
	return nil
}

// UpdateClaimStatus advances the claim lifecycle.
func (s *SQLiteStore) UpdateClaimStatus(ctx context.Context, claimID string, status core.ClaimStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE claims SET status = ?, updated_at = ? WHERE id = ?",
		string(status), time.Now().UTC().Format(time.RFC3339Nano), claimID)
	if err != nil {
		return core.NewStateError("update_status_failed", "updating claim status").WithCause(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NewNotFoundError("claim_not_found", "claim "+claimID+" does not exist")
	}
	return nil
}

// SaveEvaluation stores the verdict, routing decision and new claim
// status in one transaction.
func (s *SQLiteStore) SaveEvaluation(ctx context.Context, claimID string, verdict *core.AggregatedVerdict, routing *core.RoutingDecision, status core.ClaimStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	verdictJSON, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("marshaling verdict: %w", err)
	}
	routingJSON, err := json.Marshal(routing)
	if err != nil {
		return fmt.Errorf("marshaling routing: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.NewStateError("save_evaluation_failed", "beginning transaction").WithCause(err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO evaluations (claim_id, verdict_json, routing_json, computed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(claim_id) DO UPDATE SET verdict_json = excluded.verdict_json, routing_json = excluded.routing_json, computed_at = excluded.computed_at`,
		claimID, string(verdictJSON), string(routingJSON), now); err != nil {
		return core.NewStateError("save_evaluation_failed", "persisting evaluation").WithCause(err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE claims SET status = ?, updated_at = ? WHERE id = ?",
		string(status), now, claimID); err != nil {
		return core.NewStateError("save_evaluation_failed", "updating claim status").WithCause(err)
	}

	return tx.Commit()
}

// OpenVotingSession records a voting session.
func (s *SQLiteStore) OpenVotingSession(ctx context.Context, session *core.VotingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO voting_sessions (claim_id, route_reason, urgency, voting_window_secs, min_votes_required, status, opened_at, closes_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(claim_id) DO UPDATE SET
			route_reason = excluded.route_reason,
			urgency = excluded.urgency,
			voting_window_secs = excluded.voting_window_secs,
			min_votes_required = excluded.min_votes_required,
			status = excluded.status,
			opened_at = excluded.opened_at,
			closes_at = excluded.closes_at`,
		session.ClaimID, session.RouteReason, string(session.Urgency),
		session.VotingWindowSecs, session.MinVotesRequired, session.Status,
		session.OpenedAt.UTC().Format(time.RFC3339Nano),
		session.ClosesAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return core.NewStateError("open_voting_session_failed", "persisting voting session").WithCause(err)
	}
	return nil
}

// GetVotingSession loads the voting session for a claim, nil when none
// exists.
func (s *SQLiteStore) GetVotingSession(ctx context.Context, claimID string) (*core.VotingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var session core.VotingSession
	var urgency, openedAt, closesAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT claim_id, route_reason, urgency, voting_window_secs, min_votes_required, status, opened_at, closes_at
		FROM voting_sessions WHERE claim_id = ?`, claimID).
		Scan(&session.ClaimID, &session.RouteReason, &urgency,
			&session.VotingWindowSecs, &session.MinVotesRequired, &session.Status,
			&openedAt, &closesAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, core.NewStateError("get_voting_session_failed", "loading voting session").WithCause(err)
	}

	session.Urgency = core.Urgency(urgency)
	if t, err := time.Parse(time.RFC3339Nano, openedAt); err == nil {
		session.OpenedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, closesAt); err == nil {
		session.ClosesAt = t
	}
	return &session, nil
}
