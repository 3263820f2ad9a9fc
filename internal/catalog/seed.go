package catalog

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"github.com/text3d/hub/internal/logging"
	"github.com/text3d/hub/internal/model"
)

// AssetFolder is one object's directory of geometry, material and texture files.
type AssetFolder struct {
	Name  string
	Files []string // file names relative to the folder
}

// AssetSource enumerates asset folders.
type AssetSource interface {
	Folders(ctx context.Context) ([]AssetFolder, error)
}

// DirSource reads asset folders from a local directory.
type DirSource struct {
	Root string
}

func (s DirSource) Folders(_ context.Context) ([]AssetFolder, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, fmt.Errorf("read asset dir: %w", err)
	}
	folders := make([]AssetFolder, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(s.Root, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read asset folder %s: %w", entry.Name(), err)
		}
		folder := AssetFolder{Name: entry.Name()}
		for _, f := range files {
			if !f.IsDir() {
				folder.Files = append(folder.Files, f.Name())
			}
		}
		folders = append(folders, folder)
	}
	return folders, nil
}

// BucketSource reads asset folders from an S3 compatible bucket. Objects are
// grouped by the first path segment below Prefix.
type BucketSource struct {
	Client *minio.Client
	Bucket string
	Prefix string
}

func (s BucketSource) Folders(ctx context.Context) ([]AssetFolder, error) {
	prefix := strings.Trim(s.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	byName := map[string]*AssetFolder{}
	order := make([]string, 0)
	for obj := range s.Client.ListObjects(ctx, s.Bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list bucket %s: %w", s.Bucket, obj.Err)
		}
		folderName, file, ok := splitAssetKey(strings.TrimPrefix(obj.Key, prefix))
		if !ok {
			continue
		}
		folder, exists := byName[folderName]
		if !exists {
			folder = &AssetFolder{Name: folderName}
			byName[folderName] = folder
			order = append(order, folderName)
		}
		folder.Files = append(folder.Files, file)
	}
	folders := make([]AssetFolder, 0, len(order))
	for _, name := range order {
		folders = append(folders, *byName[name])
	}
	return folders, nil
}

// splitAssetKey accepts only "<folder>/<file>" keys.
func splitAssetKey(key string) (folder, file string, ok bool) {
	parts := strings.Split(key, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Seeder fills the catalog from an asset source.
type Seeder struct {
	Store     *Store
	Source    AssetSource
	URLPrefix string // e.g. /static/assets
	Category  string
	Replace   bool
	Logger    *zap.Logger
}

// Seed inserts one entry per asset folder that carries an .obj file and
// returns the number of inserted entries.
func (s *Seeder) Seed(ctx context.Context) (int, error) {
	logger := logging.OrNop(s.Logger)

	folders, err := s.Source.Folders(ctx)
	if err != nil {
		return 0, err
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].Name < folders[j].Name })

	if s.Replace {
		removed, err := s.Store.DeleteAll(ctx)
		if err != nil {
			return 0, fmt.Errorf("clear catalog: %w", err)
		}
		logger.Info("cleared catalog", zap.Int64("removed", removed))
	}

	category := s.Category
	if category == "" {
		category = "planet"
	}
	inserted := 0
	for _, folder := range folders {
		in, ok := s.entryFor(folder, category)
		if !ok {
			logger.Warn("skipping asset folder without .obj file", zap.String("folder", folder.Name))
			continue
		}
		entry, err := s.Store.Create(ctx, in)
		if err != nil {
			return inserted, fmt.Errorf("insert %s: %w", folder.Name, err)
		}
		logger.Info("catalog entry added", zap.String("name", entry.Name), zap.Stringp("texture_path", entry.TexturePath))
		inserted++
	}
	return inserted, nil
}

func (s *Seeder) entryFor(folder AssetFolder, category string) (CreateEntryInput, bool) {
	files := append([]string(nil), folder.Files...)
	sort.Strings(files)

	var objPath, mtlPath, texturePath string
	for _, f := range files {
		p := path.Join("/", s.URLPrefix, folder.Name, f)
		switch strings.ToLower(path.Ext(f)) {
		case ".obj":
			if objPath == "" {
				objPath = p
			}
		case ".mtl":
			if mtlPath == "" {
				mtlPath = p
			}
		case ".jpg", ".jpeg", ".png":
			if texturePath == "" {
				texturePath = p
			}
		}
	}
	if objPath == "" {
		return CreateEntryInput{}, false
	}
	scale := 1.0
	return CreateEntryInput{
		Name:        folder.Name,
		Category:    category,
		ObjPath:     objPath,
		MtlPath:     optional(mtlPath),
		TexturePath: optional(texturePath),
		Scale:       &scale,
		Position:    &model.Position{},
	}, true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
