package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
)

type attemptsRepo struct {
	q querier
}

func (r *attemptsRepo) AppendAccessAttempt(ctx context.Context, a domain.AccessAttempt) error {
	if !a.Outcome.Valid() {
		return fmt.Errorf("postgres: invalid outcome %q", a.Outcome)
	}

	var payload []byte
	if len(a.Context) > 0 {
		raw, err := json.Marshal(a.Context)
		if err != nil {
			return fmt.Errorf("postgres: encode attempt context: %w", err)
		}
		payload = raw
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO access_attempts (id, user_id, outcome, origin, context, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID.String(), a.UserID, string(a.Outcome), a.Origin, payload, a.AttemptedAt,
	)
	return mapConstraint(err)
}

func (r *attemptsRepo) CountFailedAttemptsSince(ctx context.Context, userID int64, since time.Time) (domain.FailedAttemptStats, error) {
	var row struct {
		Count int          `db:"count"`
		Last  sql.NullTime `db:"last"`
	}
	err := r.q.GetContext(ctx, &row, `
		SELECT COUNT(*) AS count, MAX(attempted_at) AS last FROM access_attempts
		WHERE user_id = $1 AND outcome = $2 AND attempted_at >= $3`,
		userID, string(domain.OutcomeFailure), since,
	)
	if err != nil {
		return domain.FailedAttemptStats{}, err
	}
	return domain.FailedAttemptStats{Count: row.Count, LastAt: nullTimePtr(row.Last)}, nil
}

func (r *attemptsRepo) DeleteAttemptsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM access_attempts WHERE attempted_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
