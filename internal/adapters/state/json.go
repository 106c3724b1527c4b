package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/factmesh/factmesh/internal/core"
)

// jsonDocument is the on-disk shape of the JSON store.
type jsonDocument struct {
	Claims   map[string]*core.ClaimRecord   `json:"claims"`
	Sessions map[string]*core.VotingSession `json:"voting_sessions,omitempty"`
}

// JSONStore implements core.ClaimStore with a single JSON file. Every
// mutation rewrites the file atomically. Suited to single-process use.
type JSONStore struct {
	path string

	mu       sync.RWMutex
	claims   map[string]*core.ClaimRecord
	sessions map[string]*core.VotingSession
}

// NewJSONStore opens (or creates) the JSON state file.
func NewJSONStore(path string) (*JSONStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	s := &JSONStore{
		path:     path,
		claims:   make(map[string]*core.ClaimRecord),
		sessions: make(map[string]*core.VotingSession),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	var doc jsonDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, core.NewStateError("corrupt_state_file", "state file is not valid JSON").WithCause(err)
	}
	if doc.Claims != nil {
		s.claims = doc.Claims
	}
	if doc.Sessions != nil {
		s.sessions = doc.Sessions
	}
	return s, nil
}

// Close is a no-op; every mutation is already flushed.
func (s *JSONStore) Close() error { return nil }

// flush must be called with the write lock held.
func (s *JSONStore) flush() error {
	doc := jsonDocument{Claims: s.claims, Sessions: s.sessions}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	if err := atomicWriteFile(s.path, data, 0o600); err != nil {
		return core.NewStateError("flush_failed", "writing state file").WithCause(err)
	}
	return nil
}

// SaveClaim stores intake metadata with status pending_ai.
func (s *JSONStore) SaveClaim(_ context.Context, claim *core.ClaimMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.claims[claim.ID]
	if !ok {
		record = &core.ClaimRecord{Status: core.ClaimStatusPendingAI}
		s.claims[claim.ID] = record
	}
	record.Claim = *claim
	record.UpdatedAt = time.Now().UTC()
	return s.flush()
}

// GetClaim returns a copy of the stored record, nil when missing.
func (s *JSONStore) GetClaim(_ context.Context, id string) (*core.ClaimRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.claims[id]
	if !ok {
		return nil, nil
	}
	return cloneRecord(record), nil
}

// ListClaims returns claim records newest first.
func (s *JSONStore) ListClaims(_ context.Context, limit int) ([]*core.ClaimRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	records := make([]*core.ClaimRecord, 0, len(s.claims))
	for _, record := range s.claims {
		records = append(records, cloneRecord(record))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Claim.SubmittedAt.After(records[j].Claim.SubmittedAt)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// SaveAgentOutput stores one specialist result.
func (s *JSONStore) SaveAgentOutput(_ context.Context, claimID string, output *core.AgentOutput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.claims[claimID]
	if !ok {
		return core.NewStateError("unknown_claim", fmt.Sprintf("claim %s not found", claimID))
	}
	if record.Outputs == nil {
		record.Outputs = core.AgentOutputs{}
	}
	record.Outputs[output.Dimension] = output
	record.UpdatedAt = time.Now().UTC()
	return s.flush()
}

// UpdateClaimStatus advances the claim lifecycle.
func (s *JSONStore) UpdateClaimStatus(_ context.Context, claimID string, status core.ClaimStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.claims[claimID]
	if !ok {
		return core.NewNotFoundError("claim_not_found", "claim "+claimID+" does not exist")
	}
	record.Status = status
	record.UpdatedAt = time.Now().UTC()
	return s.flush()
}

// SaveEvaluation stores the verdict, routing decision and new status.
func (s *JSONStore) SaveEvaluation(_ context.Context, claimID string, verdict *core.AggregatedVerdict, routing *core.RoutingDecision, status core.ClaimStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.claims[claimID]
	if !ok {
		return core.NewStateError("unknown_claim", fmt.Sprintf("claim %s not found", claimID))
	}
	record.Verdict = verdict
	record.Routing = routing
	record.Status = status
	record.UpdatedAt = time.Now().UTC()
	return s.flush()
}

// OpenVotingSession records a voting session.
func (s *JSONStore) OpenVotingSession(_ context.Context, session *core.VotingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ClaimID] = session
	return s.flush()
}

// GetVotingSession loads the voting session for a claim, nil when none
// exists.
func (s *JSONStore) GetVotingSession(_ context.Context, claimID string) (*core.VotingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[claimID]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func cloneRecord(record *core.ClaimRecord) *core.ClaimRecord {
	copied := *record
	if record.Outputs != nil {
		copied.Outputs = core.AgentOutputs{}
		for dim, out := range record.Outputs {
			copied.Outputs[dim] = out
		}
	}
	return &copied
}
