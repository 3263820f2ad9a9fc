package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/text3d/hub/internal/db"
	"github.com/text3d/hub/internal/model"
)

// SceneArchiveService persists resolved scenes the client asked to keep.
type SceneArchiveService struct {
	db *db.DB
}

func NewSceneArchiveService(d *db.DB) *SceneArchiveService {
	return &SceneArchiveService{db: d}
}

func (s *SceneArchiveService) Save(ctx context.Context, prompt string, scene model.ResolvedScene) (*model.SavedScene, error) {
	body, err := json.Marshal(scene)
	if err != nil {
		return nil, fmt.Errorf("encode scene: %w", err)
	}
	saved := &model.SavedScene{
		ID:        uuid.NewString(),
		Prompt:    strings.TrimSpace(prompt),
		Scene:     scene,
		CreatedAt: db.Timestamp(time.Now()),
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO scenes (scene_id, prompt, scenario_type, object_count, scene_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		saved.ID, saved.Prompt, scene.ScenarioType, len(scene.Objects), string(body), saved.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert scene: %w", err)
	}
	return saved, nil
}

// Get returns nil, nil when no scene has the id.
func (s *SceneArchiveService) Get(ctx context.Context, id string) (*model.SavedScene, error) {
	var (
		saved model.SavedScene
		body  string
	)
	err := s.db.QueryRowContext(ctx, s.db.Rebind(`
		SELECT scene_id, prompt, scene_json, created_at
		FROM scenes
		WHERE scene_id = ?`), strings.TrimSpace(id),
	).Scan(&saved.ID, &saved.Prompt, &body, &saved.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(body), &saved.Scene); err != nil {
		return nil, fmt.Errorf("decode scene %s: %w", saved.ID, err)
	}
	return &saved, nil
}

// List returns the newest scenes first.
func (s *SceneArchiveService) List(ctx context.Context, limit int) ([]model.SavedSceneSummary, error) {
	limit = clampLimit(limit)
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(`
		SELECT scene_id, prompt, scenario_type, object_count, created_at
		FROM scenes
		ORDER BY created_at DESC, scene_id ASC
		LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.SavedSceneSummary, 0)
	for rows.Next() {
		var item model.SavedSceneSummary
		if err := rows.Scan(&item.ID, &item.Prompt, &item.ScenarioType, &item.ObjectCount, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
