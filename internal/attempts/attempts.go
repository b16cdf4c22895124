// Package attempts records every acceptance attempt the engine resolves,
// so the control surface can show what happened while nobody was watching.
package attempts

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ErraticFox/atov/internal/db"
	"github.com/ErraticFox/atov/internal/shift"
)

const (
	OutcomeAccepted = "accepted"
	OutcomeFailed   = "failed"
	OutcomeTimeout  = "timeout"
)

type Attempt struct {
	ID        string
	PageType  shift.PageType
	OfferDate string
	OfferTime string
	Target    string // human-readable target description
	Outcome   string
	Detail    string
	CreatedAt time.Time
}

// Recorder is what the engine writes to. When no database is configured a
// Noop recorder stands in.
type Recorder interface {
	Record(ctx context.Context, a Attempt) error
}

type Noop struct{}

func (Noop) Record(context.Context, Attempt) error { return nil }

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

func EnsureSchema(ctx context.Context, d *db.DB) error {
	return d.Exec(ctx, `
CREATE TABLE IF NOT EXISTS acceptance_attempts (
    id          UUID PRIMARY KEY,
    page_type   TEXT NOT NULL,
    offer_date  TEXT NOT NULL DEFAULT '',
    offer_time  TEXT NOT NULL DEFAULT '',
    target      TEXT NOT NULL DEFAULT '',
    outcome     TEXT NOT NULL,
    detail      TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`)
}

func (r *Repo) Record(ctx context.Context, a Attempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return r.db.Exec(ctx, `
INSERT INTO acceptance_attempts(id, page_type, offer_date, offer_time, target, outcome, detail)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, string(a.PageType), a.OfferDate, a.OfferTime, a.Target, a.Outcome, a.Detail)
}

func (r *Repo) Recent(ctx context.Context, pt shift.PageType, limit int) ([]Attempt, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, page_type, offer_date, offer_time, target, outcome, detail, created_at
FROM acceptance_attempts
WHERE page_type=$1
ORDER BY created_at DESC
LIMIT $2`, string(pt), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		var pageType string
		if err := rows.Scan(&a.ID, &pageType, &a.OfferDate, &a.OfferTime, &a.Target, &a.Outcome, &a.Detail, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.PageType = shift.PageType(pageType)
		out = append(out, a)
	}
	return out, rows.Err()
}
