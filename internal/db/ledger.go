package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/outreach-agent/internal/types"
)

// AppendSend inserts a send record
func (db *DB) AppendSend(ctx context.Context, rec types.SendRecord) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO outreach_sends (name, email, date_sent) VALUES ($1, $2, $3::date)`,
		rec.Name, rec.Contact, rec.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to insert send for %s: %w", rec.Name, err)
	}
	return nil
}

// AppendFailure inserts a failure record
func (db *DB) AppendFailure(ctx context.Context, rec types.FailureRecord) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO outreach_failures (name, email, bio_link, reason, date)
		 VALUES ($1, $2, $3, $4, $5::date)`,
		rec.Name, rec.Contact, rec.ProfileLink, string(rec.Reason), rec.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to insert failure for %s: %w", rec.Name, err)
	}
	return nil
}

// Sends returns every send record in insertion order
func (db *DB) Sends(ctx context.Context) ([]types.SendRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT name, email, to_char(date_sent, 'YYYY-MM-DD') FROM outreach_sends ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sends: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.SendRecord, error) {
		var r types.SendRecord
		err := row.Scan(&r.Name, &r.Contact, &r.Date)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan sends: %w", err)
	}
	return out, nil
}

// Failures returns every failure record in insertion order
func (db *DB) Failures(ctx context.Context) ([]types.FailureRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT name, email, bio_link, reason, to_char(date, 'YYYY-MM-DD') FROM outreach_failures ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.FailureRecord, error) {
		var r types.FailureRecord
		var reason string
		err := row.Scan(&r.Name, &r.Contact, &r.ProfileLink, &reason, &r.Date)
		r.Reason = types.ReasonCode(reason)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan failures: %w", err)
	}
	return out, nil
}
