package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/text3d/hub/internal/db"
	"github.com/text3d/hub/internal/model"
)

const (
	OutcomeResolved = "resolved"
	OutcomeFailed   = "failed"
)

type RecordPromptInput struct {
	Prompt  string
	Origin  string
	Outcome string
	Error   string
	TraceID string
}

// PromptLogService keeps an audit trail of resolution requests.
type PromptLogService struct {
	db *db.DB
}

func NewPromptLogService(d *db.DB) *PromptLogService {
	return &PromptLogService{db: d}
}

func (s *PromptLogService) Record(ctx context.Context, in RecordPromptInput) (*model.PromptLog, error) {
	outcome := strings.TrimSpace(in.Outcome)
	if outcome == "" {
		return nil, fmt.Errorf("outcome is required")
	}
	entry := &model.PromptLog{
		ID:        uuid.NewString(),
		Prompt:    in.Prompt,
		Origin:    strings.TrimSpace(in.Origin),
		Outcome:   outcome,
		TraceID:   strings.TrimSpace(in.TraceID),
		CreatedAt: db.Timestamp(time.Now()),
	}
	if msg := strings.TrimSpace(in.Error); msg != "" {
		entry.Error = &msg
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO prompt_logs (log_id, prompt, origin, outcome, error, trace_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		entry.ID, entry.Prompt, entry.Origin, entry.Outcome, entry.Error, entry.TraceID, entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert prompt log: %w", err)
	}
	return entry, nil
}

// List returns the newest entries first.
func (s *PromptLogService) List(ctx context.Context, limit int) ([]model.PromptLog, error) {
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(`
		SELECT log_id, prompt, origin, outcome, error, trace_id, created_at
		FROM prompt_logs
		ORDER BY created_at DESC, log_id ASC
		LIMIT ?`), clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.PromptLog, 0)
	for rows.Next() {
		var (
			item   model.PromptLog
			errMsg *string
		)
		if err := rows.Scan(&item.ID, &item.Prompt, &item.Origin, &item.Outcome, &errMsg, &item.TraceID, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.Error = errMsg
		items = append(items, item)
	}
	return items, rows.Err()
}
