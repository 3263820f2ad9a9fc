package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/text3d/hub/internal/db"
	"github.com/text3d/hub/internal/model"
)

var (
	ErrInvalidEmbedding   = errors.New("invalid embedding")
	ErrDuplicateEmbedding = errors.New("embedding already exists")
)

type AddEmbeddingInput struct {
	ID        string
	Type      string
	Text      string
	Embedding []float64
}

// EmbeddingService stores vectors computed by the client for catalog
// objects and animations.
type EmbeddingService struct {
	db *db.DB
}

func NewEmbeddingService(d *db.DB) *EmbeddingService {
	return &EmbeddingService{db: d}
}

// Add stores one embedding. A blank id is replaced by a generated one.
func (s *EmbeddingService) Add(ctx context.Context, in AddEmbeddingInput) (*model.Embedding, error) {
	kind := strings.ToLower(strings.TrimSpace(in.Type))
	if kind != model.EmbeddingTypeObject && kind != model.EmbeddingTypeAnimation {
		return nil, fmt.Errorf("%w: type must be %q or %q", ErrInvalidEmbedding, model.EmbeddingTypeObject, model.EmbeddingTypeAnimation)
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidEmbedding)
	}
	if len(in.Embedding) == 0 {
		return nil, fmt.Errorf("%w: embedding is empty", ErrInvalidEmbedding)
	}
	for i, v := range in.Embedding {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: embedding[%d] is not finite", ErrInvalidEmbedding, i)
		}
	}

	item := &model.Embedding{
		ID:        strings.TrimSpace(in.ID),
		Type:      kind,
		Text:      text,
		Embedding: append([]float64(nil), in.Embedding...),
		CreatedAt: db.Timestamp(time.Now()),
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	var exists int
	if err := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT COUNT(1) FROM embeddings WHERE embedding_id = ?`), item.ID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, ErrDuplicateEmbedding
	}

	body, err := json.Marshal(item.Embedding)
	if err != nil {
		return nil, fmt.Errorf("encode embedding: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO embeddings (embedding_id, type, text, dimensions, embedding_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		item.ID, item.Type, item.Text, len(item.Embedding), string(body), item.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert embedding: %w", err)
	}
	return item, nil
}

// List returns every stored embedding in insertion order.
func (s *EmbeddingService) List(ctx context.Context) ([]model.Embedding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT embedding_id, type, text, embedding_json, created_at
		FROM embeddings
		ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Embedding, 0)
	for rows.Next() {
		var (
			item model.Embedding
			body string
		)
		if err := rows.Scan(&item.ID, &item.Type, &item.Text, &body, &item.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(body), &item.Embedding); err != nil {
			return nil, fmt.Errorf("decode embedding %s: %w", item.ID, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
