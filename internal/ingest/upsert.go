package ingest

import (
	"context"
	"fmt"

	"github.com/ignite/user-ingest/internal/domain"
)

// UpsertUsersSQL inserts one user row and, when the id already exists,
// overwrites every other column with the incoming value, nulls included.
const UpsertUsersSQL = `INSERT INTO users (id, email, monthly_income, credit_score, employment_status, age)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
	email = EXCLUDED.email,
	monthly_income = EXCLUDED.monthly_income,
	credit_score = EXCLUDED.credit_score,
	employment_status = EXCLUDED.employment_status,
	age = EXCLUDED.age`

// BatchWriter executes one parameterized statement for every row as a single
// unit of work and reports the affected row count.
type BatchWriter interface {
	ExecuteBatch(ctx context.Context, statement string, rows [][]any) (int64, error)
}

// Upserter issues one batched users upsert per object.
type Upserter struct {
	writer BatchWriter
}

// NewUpserter creates an Upserter that writes through w.
func NewUpserter(w BatchWriter) *Upserter {
	return &Upserter{writer: w}
}

// Upsert writes all users in one batch and returns the writer's affected
// count, which is taken as-is. An empty slice issues no write and returns 0.
func (u *Upserter) Upsert(ctx context.Context, users []domain.User) (int64, error) {
	if len(users) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(users))
	for i, usr := range users {
		rows[i] = usr.Args()
	}

	n, err := u.writer.ExecuteBatch(ctx, UpsertUsersSQL, rows)
	if err != nil {
		return 0, fmt.Errorf("upsert %d users: %w", len(users), err)
	}
	return n, nil
}
