// Package repository is the Postgres work-minute ledger.
package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS work_history (
	work_date      DATE             NOT NULL,
	employee_name  TEXT             NOT NULL,
	minutes_worked DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (work_date, employee_name)
)`

const upsertMinutes = `
INSERT INTO work_history (work_date, employee_name, minutes_worked)
VALUES ($1, $2, $3)
ON CONFLICT (work_date, employee_name)
DO UPDATE SET minutes_worked = work_history.minutes_worked + EXCLUDED.minutes_worked`

const listWorkHistory = `
SELECT to_char(work_date, 'YYYY-MM-DD') AS work_date, employee_name, minutes_worked
FROM work_history
WHERE work_date BETWEEN $1 AND $2
ORDER BY work_date DESC, employee_name`

// WorkDay is one row of the ledger.
type WorkDay struct {
	Date    string  `db:"work_date" json:"date"`
	Name    string  `db:"employee_name" json:"name"`
	Minutes float64 `db:"minutes_worked" json:"minutes"`
}

type Ledger struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Ledger { return &Ledger{db: db} }

func (l *Ledger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create work_history: %w", err)
	}
	return nil
}

// AddMinutes adds minutes to the person's row for date, creating it on
// first use.
func (l *Ledger) AddMinutes(ctx context.Context, date, name string, minutes float64) error {
	_, err := l.db.ExecContext(ctx, upsertMinutes, date, name, minutes)
	if err != nil {
		return fmt.Errorf("failed to add minutes for %s: %w", name, err)
	}
	return nil
}

// ListWorkHistory returns rows between from and to (inclusive), newest day
// first.
func (l *Ledger) ListWorkHistory(ctx context.Context, from, to string) ([]WorkDay, error) {
	var out []WorkDay
	err := l.db.SelectContext(ctx, &out, listWorkHistory, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list work history: %w", err)
	}
	return out, nil
}
