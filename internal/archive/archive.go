// Package archive persists delivered reports to Postgres so intelligence
// survives process restarts and can be queried offline. The live conversation
// state stays in memory; the archive is written only after a successful
// callback.
package archive

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trapline-ai/trapline/internal/report"
)

type Archive struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Archive, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Archive{pool: pool}, nil
}

func (a *Archive) Close() {
	a.pool.Close()
}

// SaveReport writes one delivered report and its findings.
// Tables: reports, report_findings.
func (a *Archive) SaveReport(ctx context.Context, p report.Payload) (uuid.UUID, error) {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	reportID := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO reports (id, session_id, scam_detected, total_messages, agent_notes, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		reportID, p.SessionID, p.ScamDetected, p.TotalMessagesExchanged, p.AgentNotes,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert report: %w", err)
	}

	for kind, values := range p.ExtractedIntelligence {
		for _, value := range values {
			_, err = tx.Exec(ctx, `
				INSERT INTO report_findings (id, report_id, kind, value)
				VALUES ($1, $2, $3, $4)`,
				uuid.New(), reportID, kind, value,
			)
			if err != nil {
				return uuid.Nil, fmt.Errorf("insert finding: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit: %w", err)
	}

	return reportID, nil
}
