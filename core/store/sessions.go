package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Session kinds. Profiling sessions carry the embedded personal profile the
// aggregator reads; coaching sessions carry methodology state.
const (
	SessionKindCoaching  = "coaching"
	SessionKindProfiling = "profiling"
)

// Session statuses.
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

// SessionRow is the persisted session envelope. State is the opaque blob the
// session package encodes and decodes; the store never inspects it.
//
// CurrentPhase is a mirror of the blob's phase that an out-of-band
// administrative path may overwrite independently. HighestPhase follows a
// different rule: it only ever advances. The two can legitimately diverge;
// see SetPhaseMirror.
type SessionRow struct {
	ID           string
	OrgID        string
	UserID       string
	Kind         string
	Status       string
	State        []byte
	CurrentPhase string
	HighestPhase string
	Profile      json.RawMessage
	MessageCount int
	Revision     int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// phaseOrder ranks phases for the monotonic highest-phase rule. The store
// deliberately keeps its own copy rather than importing the session package,
// which would invert the dependency order.
var phaseOrder = map[string]int{
	"discovery": 0,
	"research":  1,
	"synthesis": 2,
	"planning":  3,
}

func phaseRank(p string) int {
	if r, ok := phaseOrder[p]; ok {
		return r
	}
	return -1
}

// CreateSession inserts a new session row at revision 1.
func (s *Store) CreateSession(ctx context.Context, row SessionRow) error {
	if row.Kind == "" {
		row.Kind = SessionKindCoaching
	}
	if row.Status == "" {
		row.Status = SessionStatusActive
	}
	if row.HighestPhase == "" {
		row.HighestPhase = row.CurrentPhase
	}
	now := nowUTC()
	var profile sql.NullString
	if len(row.Profile) > 0 {
		profile = sql.NullString{String: string(row.Profile), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (
			id, org_id, user_id, kind, status, state, current_phase,
			highest_phase, profile, message_count, revision, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		row.ID, row.OrgID, row.UserID, row.Kind, row.Status, string(row.State),
		row.CurrentPhase, row.HighestPhase, profile, row.MessageCount, now, now)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession loads a session row by id.
func (s *Store) GetSession(ctx context.Context, id string) (*SessionRow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, org_id, user_id, kind, status, state, current_phase,
		       highest_phase, profile, message_count, revision, created_at, updated_at
		FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

func scanSession(row *sql.Row) (*SessionRow, error) {
	var r SessionRow
	var state string
	var userID, profile sql.NullString
	err := row.Scan(&r.ID, &r.OrgID, &userID, &r.Kind, &r.Status, &state,
		&r.CurrentPhase, &r.HighestPhase, &profile, &r.MessageCount,
		&r.Revision, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	r.UserID = userID.String
	r.State = []byte(state)
	if profile.Valid {
		r.Profile = json.RawMessage(profile.String)
	}
	return &r, nil
}

// SaveSessionState persists a new state blob with optimistic concurrency: the
// write only lands if the stored revision still equals expectedRevision, and
// the revision is bumped atomically. A stale token returns
// ErrRevisionConflict and the caller must reload.
//
// The phase mirror is refreshed from the blob's phase, and the highest-phase
// marker advances if (and only if) the new phase outranks it. The mirror can
// move backward; the marker never does.
func (s *Store) SaveSessionState(ctx context.Context, id string, state []byte, currentPhase string, messageCount int, expectedRevision int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET state = ?,
		    current_phase = ?,
		    highest_phase = CASE
		        WHEN ? > (CASE highest_phase
		            WHEN 'discovery' THEN 0
		            WHEN 'research'  THEN 1
		            WHEN 'synthesis' THEN 2
		            WHEN 'planning'  THEN 3
		            ELSE -1 END)
		        THEN ? ELSE highest_phase END,
		    message_count = ?,
		    revision = revision + 1,
		    updated_at = ?
		WHERE id = ? AND revision = ?`,
		string(state), currentPhase,
		phaseRank(currentPhase), currentPhase,
		messageCount, nowUTC(), id, expectedRevision)
	if err != nil {
		return fmt.Errorf("save session state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save session state: %w", err)
	}
	if n == 0 {
		// Either the row is gone or the revision is stale; disambiguate.
		if _, getErr := s.GetSession(ctx, id); getErr != nil {
			return getErr
		}
		return ErrRevisionConflict
	}
	return nil
}

// SetPhaseMirror overwrites the top-level phase mirror without touching the
// state blob or its revision. This is the out-of-band administrative path:
// it can push the mirror anywhere, including backward, and leaves the blob's
// own current_phase untouched, so the two sources of truth may diverge. The
// highest-phase marker still only advances. Whether this override is a
// feature or a defect is an open question upstream; both fields are kept
// visible rather than reconciled silently.
func (s *Store) SetPhaseMirror(ctx context.Context, id, phase string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET current_phase = ?,
		    highest_phase = CASE
		        WHEN ? > (CASE highest_phase
		            WHEN 'discovery' THEN 0
		            WHEN 'research'  THEN 1
		            WHEN 'synthesis' THEN 2
		            WHEN 'planning'  THEN 3
		            ELSE -1 END)
		        THEN ? ELSE highest_phase END,
		    updated_at = ?
		WHERE id = ?`,
		phase, phaseRank(phase), phase, nowUTC(), id)
	if err != nil {
		return fmt.Errorf("set phase mirror: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set phase mirror: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// CompleteSession marks a session completed and optionally stores the
// embedded profile payload (profiling sessions).
func (s *Store) CompleteSession(ctx context.Context, id string, profile json.RawMessage) error {
	var p sql.NullString
	if len(profile) > 0 {
		p = sql.NullString{String: string(profile), Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET status = ?, profile = COALESCE(?, profile), updated_at = ?
		WHERE id = ?`,
		SessionStatusCompleted, p, nowUTC(), id)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// LatestCompletedProfilingSession returns the newest profiling session for
// the user/org pair whose status is completed, or (nil, nil) when there is
// none. An in-progress profiling session is invisible here: its embedded
// profile only becomes readable once the session completes.
func (s *Store) LatestCompletedProfilingSession(ctx context.Context, userID, orgID string) (*SessionRow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, org_id, user_id, kind, status, state, current_phase,
		       highest_phase, profile, message_count, revision, created_at, updated_at
		FROM sessions
		WHERE user_id = ? AND org_id = ? AND kind = ? AND status = ?
		ORDER BY created_at DESC
		LIMIT 1`,
		userID, orgID, SessionKindProfiling, SessionStatusCompleted)
	r, err := scanSession(row)
	if err == ErrSessionNotFound {
		return nil, nil
	}
	return r, err
}
