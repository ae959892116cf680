package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
)

type attemptsRepo struct {
	db dbtx
}

func (r *attemptsRepo) AppendAccessAttempt(ctx context.Context, a domain.AccessAttempt) error {
	if !a.Outcome.Valid() {
		return fmt.Errorf("sqlite: invalid outcome %q", a.Outcome)
	}

	var payload sql.NullString
	if len(a.Context) > 0 {
		raw, err := json.Marshal(a.Context)
		if err != nil {
			return fmt.Errorf("sqlite: encode attempt context: %w", err)
		}
		payload = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO access_attempts (id, user_id, outcome, origin, context, attempted_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.UserID, string(a.Outcome), a.Origin, payload, toMillis(a.AttemptedAt),
	)
	return mapConstraint(err)
}

func (r *attemptsRepo) CountFailedAttemptsSince(ctx context.Context, userID int64, since time.Time) (domain.FailedAttemptStats, error) {
	var (
		count int
		last  sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), MAX(attempted_at) FROM access_attempts
		WHERE user_id = ? AND outcome = ? AND attempted_at >= ?`,
		userID, string(domain.OutcomeFailure), toMillis(since),
	).Scan(&count, &last)
	if err != nil {
		return domain.FailedAttemptStats{}, err
	}
	return domain.FailedAttemptStats{Count: count, LastAt: fromNullMillis(last)}, nil
}

func (r *attemptsRepo) DeleteAttemptsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM access_attempts WHERE attempted_at < ?`, toMillis(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
