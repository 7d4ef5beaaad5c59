package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ignite/user-ingest/internal/domain"
)

// Source columns read by ValidateRecord.
const (
	colUserID           = "user_id"
	colID               = "id"
	colEmail            = "email"
	colMonthlyIncome    = "monthly_income"
	colCreditScore      = "credit_score"
	colEmploymentStatus = "employment_status"
	colAge              = "age"
)

// ValidateRecord turns one CSV record into a User or rejects it with an
// error wrapping domain.ErrValidation. It has no side effects.
//
// Only monthly_income, credit_score and age map an empty value to nil; a
// non-empty value that does not parse rejects the whole row.
func ValidateRecord(rec domain.RawRecord) (domain.User, error) {
	id := resolveID(rec)
	if id == "" {
		return domain.User{}, fmt.Errorf("%w: missing user_id/id", domain.ErrValidation)
	}

	email, _ := rec.Value(colEmail)
	if strings.TrimSpace(email) == "" {
		return domain.User{}, fmt.Errorf("%w: missing email", domain.ErrValidation)
	}

	income, err := parseOptionalFloat(rec, colMonthlyIncome)
	if err != nil {
		return domain.User{}, err
	}
	score, err := parseOptionalInt(rec, colCreditScore)
	if err != nil {
		return domain.User{}, err
	}
	age, err := parseOptionalInt(rec, colAge)
	if err != nil {
		return domain.User{}, err
	}

	u := domain.User{
		ID:            id,
		Email:         email,
		MonthlyIncome: income,
		CreditScore:   score,
		Age:           age,
	}
	if status, ok := rec.Value(colEmploymentStatus); ok {
		u.EmploymentStatus = &status
	}
	return u, nil
}

// resolveID prefers user_id and falls back to id when user_id is absent or
// blank.
func resolveID(rec domain.RawRecord) string {
	if v, ok := rec.Value(colUserID); ok {
		if id := strings.TrimSpace(v); id != "" {
			return id
		}
	}
	v, _ := rec.Value(colID)
	return strings.TrimSpace(v)
}

func parseOptionalFloat(rec domain.RawRecord, column string) (*float64, error) {
	raw, ok := rec.Value(column)
	if !ok || raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrValidation, column, err)
	}
	return &f, nil
}

// parseOptionalInt parses through float64 so values like "650.0" are
// accepted, then truncates toward zero.
func parseOptionalInt(rec domain.RawRecord, column string) (*int64, error) {
	f, err := parseOptionalFloat(rec, column)
	if err != nil || f == nil {
		return nil, err
	}
	t := math.Trunc(*f)
	if math.IsNaN(t) || t < math.MinInt64 || t >= math.MaxInt64 {
		return nil, fmt.Errorf("%w: %s: %q is not an integer", domain.ErrValidation, column, rec[column])
	}
	n := int64(t)
	return &n, nil
}
