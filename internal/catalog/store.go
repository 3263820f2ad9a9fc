// Package catalog stores canonical 3D object records and resolves free-form
// names against them.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/text3d/hub/internal/db"
	"github.com/text3d/hub/internal/logging"
	"github.com/text3d/hub/internal/model"
)

// MatchMode selects how strictly a name token has to match a catalog name.
type MatchMode string

const (
	// MatchAnchored requires the whole name to match, ignoring case.
	MatchAnchored MatchMode = "anchored"
	// MatchSubstring accepts catalog names containing the token, ignoring case.
	MatchSubstring MatchMode = "substring"
)

// Lookup finds the best catalog entry for a name. found=false means no entry
// matched; err is reserved for store failures.
type Lookup interface {
	FindByName(ctx context.Context, token string, mode MatchMode) (entry model.CatalogEntry, found bool, err error)
}

type Store struct {
	db     *db.DB
	logger *zap.Logger
}

func NewStore(d *db.DB, logger *zap.Logger) *Store {
	return &Store{db: d, logger: logging.OrNop(logger)}
}

const objectColumns = `id, name, category, obj_path, mtl_path, texture_path, scale, position_x, position_y, position_z`

func (s *Store) FindByName(ctx context.Context, token string, mode MatchMode) (model.CatalogEntry, bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.CatalogEntry{}, false, nil
	}

	var (
		where string
		arg   string
	)
	switch mode {
	case MatchAnchored:
		where = `LOWER(name) = ?`
		arg = strings.ToLower(token)
	case MatchSubstring:
		where = `LOWER(name) LIKE ? ESCAPE '\'`
		arg = "%" + escapeLike(strings.ToLower(token)) + "%"
	default:
		return model.CatalogEntry{}, false, fmt.Errorf("unknown match mode %q", mode)
	}

	// Two rows are enough to notice an ambiguous token.
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(`
		SELECT `+objectColumns+`
		FROM objects
		WHERE `+where+`
		ORDER BY id ASC
		LIMIT 2`), arg)
	if err != nil {
		return model.CatalogEntry{}, false, fmt.Errorf("query objects: %w", err)
	}
	defer rows.Close()

	matches := make([]model.CatalogEntry, 0, 2)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return model.CatalogEntry{}, false, err
		}
		matches = append(matches, *entry)
	}
	if err := rows.Err(); err != nil {
		return model.CatalogEntry{}, false, fmt.Errorf("iterate objects: %w", err)
	}

	if len(matches) == 0 {
		return model.CatalogEntry{}, false, nil
	}
	if len(matches) > 1 {
		s.logger.Warn("ambiguous catalog name, using first entry",
			zap.String("token", token),
			zap.String("mode", string(mode)),
			zap.String("chosen", matches[0].Name),
			zap.String("other", matches[1].Name))
	}
	return matches[0], true, nil
}

func (s *Store) List(ctx context.Context) ([]model.CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+objectColumns+` FROM objects ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.CatalogEntry, 0)
	for rows.Next() {
		item, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *Store) Get(ctx context.Context, id int64) (*model.CatalogEntry, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT `+objectColumns+` FROM objects WHERE id = ?`), id)
	item, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

type CreateEntryInput struct {
	Name        string
	Category    string
	ObjPath     string
	MtlPath     *string
	TexturePath *string
	Scale       *float64
	Position    *model.Position
}

func (s *Store) Create(ctx context.Context, in CreateEntryInput) (*model.CatalogEntry, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidInput("name is required")
	}
	if strings.TrimSpace(in.ObjPath) == "" {
		return nil, invalidInput("obj_path is required")
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = "planet"
	}
	scale := 1.0
	if in.Scale != nil {
		scale = *in.Scale
	}
	var pos model.Position
	if in.Position != nil {
		pos = *in.Position
	}

	var id int64
	err := s.db.QueryRowContext(ctx, s.db.Rebind(`
		INSERT INTO objects (name, category, obj_path, mtl_path, texture_path, scale, position_x, position_y, position_z, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		name,
		category,
		strings.TrimSpace(in.ObjPath),
		normalizeOptionalString(in.MtlPath),
		normalizeOptionalString(in.TexturePath),
		scale,
		pos.X, pos.Y, pos.Z,
		db.Timestamp(time.Now()),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert object: %w", err)
	}
	return s.Get(ctx, id)
}

// DeleteAll removes every catalog entry and reports how many were removed.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM objects`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) ListAnimations(ctx context.Context) ([]model.Animation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, script_path, target_type
		FROM animations
		ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Animation, 0)
	for rows.Next() {
		var (
			item        model.Animation
			description sql.NullString
			targetType  sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Name, &description, &item.ScriptPath, &targetType); err != nil {
			return nil, err
		}
		item.Description = nullableString(description)
		item.TargetType = nullableString(targetType)
		items = append(items, item)
	}
	return items, rows.Err()
}

type CreateAnimationInput struct {
	Name        string
	Description *string
	ScriptPath  string
	TargetType  *string
}

// ErrDuplicateAnimation is returned when an animation name is already registered.
var ErrDuplicateAnimation = errors.New("animation already exists")

// ErrInvalidInput marks create requests rejected before they reach the database.
var ErrInvalidInput = errors.New("invalid input")

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

func (s *Store) CreateAnimation(ctx context.Context, in CreateAnimationInput) (*model.Animation, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidInput("name is required")
	}
	if strings.TrimSpace(in.ScriptPath) == "" {
		return nil, invalidInput("script_path is required")
	}

	var exists int
	if err := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT COUNT(1) FROM animations WHERE name = ?`), name).Scan(&exists); err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, ErrDuplicateAnimation
	}

	item := model.Animation{
		Name:        name,
		Description: normalizeOptionalString(in.Description),
		ScriptPath:  strings.TrimSpace(in.ScriptPath),
		TargetType:  normalizeOptionalString(in.TargetType),
	}
	err := s.db.QueryRowContext(ctx, s.db.Rebind(`
		INSERT INTO animations (name, description, script_path, target_type, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`),
		item.Name, item.Description, item.ScriptPath, item.TargetType,
		db.Timestamp(time.Now()),
	).Scan(&item.ID)
	if err != nil {
		return nil, fmt.Errorf("insert animation: %w", err)
	}
	return &item, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*model.CatalogEntry, error) {
	var (
		item        model.CatalogEntry
		mtlPath     sql.NullString
		texturePath sql.NullString
	)
	if err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Category,
		&item.ObjPath,
		&mtlPath,
		&texturePath,
		&item.Scale,
		&item.Position.X,
		&item.Position.Y,
		&item.Position.Z,
	); err != nil {
		return nil, err
	}
	item.MtlPath = nullableString(mtlPath)
	item.TexturePath = nullableString(texturePath)
	return &item, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func normalizeOptionalString(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
