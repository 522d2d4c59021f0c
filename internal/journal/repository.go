// Package journal persists an audit trail of registration attempts. The CRM
// holds the resulting objects; the journal answers "what did the portal do
// and when", in particular for conversions that timed out and were
// provisioned directly.
package journal

import (
	"context"
	"fmt"

	"admission_portal_backend/internal/registration/ports"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RecordAttempt inserts one attempt row.
func (r *Repository) RecordAttempt(ctx context.Context, rec ports.AttemptRecord) error {
	const q = `
		INSERT INTO registration_attempts
			(request_id, email, phone, path, lead_id, account_id, opportunity_id, timed_out, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, q,
		rec.RequestID, rec.Email, rec.Phone, rec.Path, rec.LeadID,
		rec.AccountID, rec.OpportunityID, rec.TimedOut, rec.FailureReason)
	if err != nil {
		return fmt.Errorf("insert registration attempt: %w", err)
	}
	return nil
}

