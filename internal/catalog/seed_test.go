package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAssets(t *testing.T, root string, files map[string][]string) {
	t.Helper()
	for folder, names := range files {
		dir := filepath.Join(root, folder)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		for _, name := range names {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
		}
	}
}

func TestSeederInsertsOneEntryPerFolder(t *testing.T) {
	root := t.TempDir()
	writeAssets(t, root, map[string][]string{
		"Earth": {"Earth.obj", "Earth.mtl", "2k_earth_daymap.jpg"},
		"Sun":   {"Sun.obj", "2k_sun.png"},
		"Notes": {"readme.txt"},
	})
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.obj"), []byte("x"), 0o644))

	s := newTestStore(t)
	seeder := &Seeder{Store: s, Source: DirSource{Root: root}, URLPrefix: "/static/assets"}
	n, err := seeder.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	items, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	earth := items[0]
	assert.Equal(t, "Earth", earth.Name)
	assert.Equal(t, "planet", earth.Category)
	assert.Equal(t, "/static/assets/Earth/Earth.obj", earth.ObjPath)
	require.NotNil(t, earth.MtlPath)
	assert.Equal(t, "/static/assets/Earth/Earth.mtl", *earth.MtlPath)
	require.NotNil(t, earth.TexturePath)
	assert.Equal(t, "/static/assets/Earth/2k_earth_daymap.jpg", *earth.TexturePath)

	sun := items[1]
	assert.Nil(t, sun.MtlPath)
	require.NotNil(t, sun.TexturePath)
	assert.Equal(t, "/static/assets/Sun/2k_sun.png", *sun.TexturePath)
}

func TestSeederReplaceClearsExistingEntries(t *testing.T) {
	root := t.TempDir()
	writeAssets(t, root, map[string][]string{"Moon": {"Moon.obj"}})

	s := newTestStore(t)
	seedNames(t, s, "Legacy")

	seeder := &Seeder{Store: s, Source: DirSource{Root: root}, URLPrefix: "assets", Category: "satellite", Replace: true}
	_, err := seeder.Seed(context.Background())
	require.NoError(t, err)

	items, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Moon", items[0].Name)
	assert.Equal(t, "satellite", items[0].Category)
	assert.Equal(t, "/assets/Moon/Moon.obj", items[0].ObjPath)
}

func TestDirSourceMissingRoot(t *testing.T) {
	_, err := DirSource{Root: filepath.Join(t.TempDir(), "nope")}.Folders(context.Background())
	assert.Error(t, err)
}

func TestSplitAssetKey(t *testing.T) {
	folder, file, ok := splitAssetKey("Earth/Earth.obj")
	assert.True(t, ok)
	assert.Equal(t, "Earth", folder)
	assert.Equal(t, "Earth.obj", file)

	for _, key := range []string{"Earth.obj", "a/b/c.obj", "Earth/", "/x.obj"} {
		_, _, ok := splitAssetKey(key)
		assert.False(t, ok, key)
	}
}
