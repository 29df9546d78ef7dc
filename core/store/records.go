package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// OrgProfile is the organization-level profile record. It wins every
// field-level merge against the intake record.
type OrgProfile struct {
	OrgID          string
	CompanyName    string
	Industry       string
	CompanySize    string
	StrategicFocus string
	PainPoints     string
	PriorAttempts  string
	TargetOutcomes string
	SuccessMetrics []string
	Persona        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IntakeRecord is the onboarding-intake record, the per-field fallback when
// the organization profile leaves a field empty.
type IntakeRecord struct {
	OrgID          string
	CompanyName    string
	Industry       string
	CompanySize    string
	StrategicFocus string
	PainPoints     string
	PriorAttempts  string
	TargetOutcomes string
	SuccessMetrics []string
	CreatedAt      time.Time
}

// TerritoryInsightRow is one mapped research finding.
type TerritoryInsightRow struct {
	ID        string
	SessionID string
	Territory string
	Area      string
	Question  string
	Answer    string
	Status    string
	Position  int
	CreatedAt time.Time
}

// SynthesisRecord holds one synthesis run's payload for a session.
type SynthesisRecord struct {
	ID        string
	SessionID string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// InsightStatusMapped is the only status the aggregator reads.
const InsightStatusMapped = "mapped"

// UpsertOrgProfile writes or replaces an organization profile.
func (s *Store) UpsertOrgProfile(ctx context.Context, p OrgProfile) error {
	metrics, err := marshalJSON(p.SuccessMetrics)
	if err != nil {
		return fmt.Errorf("upsert org profile: %w", err)
	}
	now := nowUTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO org_profiles (
			org_id, company_name, industry, company_size, strategic_focus,
			pain_points, prior_attempts, target_outcomes, success_metrics,
			persona, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(org_id) DO UPDATE SET
			company_name=excluded.company_name,
			industry=excluded.industry,
			company_size=excluded.company_size,
			strategic_focus=excluded.strategic_focus,
			pain_points=excluded.pain_points,
			prior_attempts=excluded.prior_attempts,
			target_outcomes=excluded.target_outcomes,
			success_metrics=excluded.success_metrics,
			persona=excluded.persona,
			updated_at=excluded.updated_at`,
		p.OrgID, p.CompanyName, p.Industry, p.CompanySize, p.StrategicFocus,
		p.PainPoints, p.PriorAttempts, p.TargetOutcomes, metrics,
		p.Persona, now, now)
	if err != nil {
		return fmt.Errorf("upsert org profile: %w", err)
	}
	return nil
}

// GetOrgProfile loads the organization profile, or ErrOrgProfileNotFound.
func (s *Store) GetOrgProfile(ctx context.Context, orgID string) (*OrgProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT org_id, company_name, industry, company_size, strategic_focus,
		       pain_points, prior_attempts, target_outcomes, success_metrics,
		       persona, created_at, updated_at
		FROM org_profiles WHERE org_id = ?`, orgID)

	var p OrgProfile
	var metrics sql.NullString
	err := row.Scan(&p.OrgID, &p.CompanyName, &p.Industry, &p.CompanySize,
		&p.StrategicFocus, &p.PainPoints, &p.PriorAttempts, &p.TargetOutcomes,
		&metrics, &p.Persona, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrOrgProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get org profile: %w", err)
	}
	if metrics.Valid {
		if err := json.Unmarshal([]byte(metrics.String), &p.SuccessMetrics); err != nil {
			return nil, fmt.Errorf("get org profile: decode metrics: %w", err)
		}
	}
	return &p, nil
}

// UpsertIntakeRecord writes or replaces an onboarding intake record.
func (s *Store) UpsertIntakeRecord(ctx context.Context, r IntakeRecord) error {
	metrics, err := marshalJSON(r.SuccessMetrics)
	if err != nil {
		return fmt.Errorf("upsert intake record: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO intake_records (
			org_id, company_name, industry, company_size, strategic_focus,
			pain_points, prior_attempts, target_outcomes, success_metrics,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(org_id) DO UPDATE SET
			company_name=excluded.company_name,
			industry=excluded.industry,
			company_size=excluded.company_size,
			strategic_focus=excluded.strategic_focus,
			pain_points=excluded.pain_points,
			prior_attempts=excluded.prior_attempts,
			target_outcomes=excluded.target_outcomes,
			success_metrics=excluded.success_metrics`,
		r.OrgID, r.CompanyName, r.Industry, r.CompanySize, r.StrategicFocus,
		r.PainPoints, r.PriorAttempts, r.TargetOutcomes, metrics, nowUTC())
	if err != nil {
		return fmt.Errorf("upsert intake record: %w", err)
	}
	return nil
}

// GetIntakeRecord loads the intake record for an org. A missing record is a
// legitimate absent value, returned as (nil, nil).
func (s *Store) GetIntakeRecord(ctx context.Context, orgID string) (*IntakeRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT org_id, company_name, industry, company_size, strategic_focus,
		       pain_points, prior_attempts, target_outcomes, success_metrics,
		       created_at
		FROM intake_records WHERE org_id = ?`, orgID)

	var r IntakeRecord
	var metrics sql.NullString
	err := row.Scan(&r.OrgID, &r.CompanyName, &r.Industry, &r.CompanySize,
		&r.StrategicFocus, &r.PainPoints, &r.PriorAttempts, &r.TargetOutcomes,
		&metrics, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get intake record: %w", err)
	}
	if metrics.Valid {
		if err := json.Unmarshal([]byte(metrics.String), &r.SuccessMetrics); err != nil {
			return nil, fmt.Errorf("get intake record: decode metrics: %w", err)
		}
	}
	return &r, nil
}

// InsertTerritoryInsight writes one insight row.
func (s *Store) InsertTerritoryInsight(ctx context.Context, row TerritoryInsightRow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO territory_insights (
			id, session_id, territory, area, question, answer, status,
			position, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.SessionID, row.Territory, row.Area, row.Question,
		row.Answer, row.Status, row.Position, nowUTC())
	if err != nil {
		return fmt.Errorf("insert territory insight: %w", err)
	}
	return nil
}

// ListMappedInsights returns the session's insights with status 'mapped', in
// stable position order. Rows in any other status are invisible here.
func (s *Store) ListMappedInsights(ctx context.Context, sessionID string) ([]TerritoryInsightRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, territory, area, question, answer, status,
		       position, created_at
		FROM territory_insights
		WHERE session_id = ? AND status = ?
		ORDER BY territory, position, created_at`,
		sessionID, InsightStatusMapped)
	if err != nil {
		return nil, fmt.Errorf("list mapped insights: %w", err)
	}
	defer rows.Close()

	var out []TerritoryInsightRow
	for rows.Next() {
		var r TerritoryInsightRow
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Territory, &r.Area,
			&r.Question, &r.Answer, &r.Status, &r.Position, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("list mapped insights: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// InsertSynthesisRecord writes one synthesis payload for a session.
func (s *Store) InsertSynthesisRecord(ctx context.Context, rec SynthesisRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = nowUTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO synthesis_records (id, session_id, payload, created_at)
		VALUES (?, ?, ?, ?)`,
		rec.ID, rec.SessionID, string(rec.Payload), createdAt)
	if err != nil {
		return fmt.Errorf("insert synthesis record: %w", err)
	}
	return nil
}

// LatestSynthesisRecord returns the most recently created synthesis record
// for the session, or (nil, nil) when none exists. Ties break by created_at
// descending, first row wins.
func (s *Store) LatestSynthesisRecord(ctx context.Context, sessionID string) (*SynthesisRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, payload, created_at
		FROM synthesis_records
		WHERE session_id = ?
		ORDER BY created_at DESC
		LIMIT 1`, sessionID)

	var rec SynthesisRecord
	var payload string
	err := row.Scan(&rec.ID, &rec.SessionID, &payload, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest synthesis record: %w", err)
	}
	rec.Payload = json.RawMessage(payload)
	return &rec, nil
}
