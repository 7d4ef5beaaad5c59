package domain

// User is one validated CSV row, ready to be upserted into the users table.
// ID and Email are always non-empty; every other field may be nil.
type User struct {
	ID               string   `json:"id" db:"id"`
	Email            string   `json:"email" db:"email"`
	MonthlyIncome    *float64 `json:"monthly_income" db:"monthly_income"`
	CreditScore      *int64   `json:"credit_score" db:"credit_score"`
	EmploymentStatus *string  `json:"employment_status" db:"employment_status"`
	Age              *int64   `json:"age" db:"age"`
}

// UserColumns lists the users table columns in positional argument order.
var UserColumns = []string{"id", "email", "monthly_income", "credit_score", "employment_status", "age"}

// Args returns the positional statement arguments for u, matching
// UserColumns. Nil fields become untyped nil so drivers bind SQL NULL.
func (u User) Args() []any {
	args := []any{u.ID, u.Email, nil, nil, nil, nil}
	if u.MonthlyIncome != nil {
		args[2] = *u.MonthlyIncome
	}
	if u.CreditScore != nil {
		args[3] = *u.CreditScore
	}
	if u.EmploymentStatus != nil {
		args[4] = *u.EmploymentStatus
	}
	if u.Age != nil {
		args[5] = *u.Age
	}
	return args
}
