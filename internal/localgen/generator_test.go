package localgen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGenerator(t *testing.T, opts Options) *Generator {
	t.Helper()
	g, err := New(DefaultTable(), opts)
	require.NoError(t, err)
	return g
}

func names(t *testing.T, g *Generator, prompt string) []string {
	t.Helper()
	cand, ok := g.Generate(prompt)
	require.True(t, ok, "prompt %q", prompt)
	out := make([]string, len(cand.Objects))
	for i, o := range cand.Objects {
		out[i] = o.Name
	}
	return out
}

func TestSystemTokenSelectsEveryKeyInOrder(t *testing.T) {
	g := newGenerator(t, DefaultOptions())
	all := []string{"sun", "mercury", "venus", "earth", "moon", "mars", "jupiter", "saturn", "uranus", "neptune"}

	for _, prompt := range []string{
		"show me the solar system",
		"SOLAR SYSTEM please",
		"I want the Solar System with the moon first",
		"태양계를 보여줘",
		"render the whole system",
	} {
		assert.Equal(t, all, g.Select(prompt), prompt)
	}
}

func TestAliasesSelectSubsetInCatalogOrder(t *testing.T) {
	g := newGenerator(t, DefaultOptions())

	assert.Equal(t, []string{"earth", "moon"}, g.Select("지구와 달을 보여줘"))
	assert.Equal(t, []string{"earth", "moon"}, g.Select("the moon going around EARTH"))
	assert.Equal(t, []string{"mars", "jupiter"}, g.Select("Jupiter, mars, jupiter and 화성 again"))
}

func TestKoreanVerbEndingsDoNotSelectMoon(t *testing.T) {
	g := newGenerator(t, DefaultOptions())

	assert.Equal(t, []string{"sun"}, g.Select("태양을 보여달라"))
	assert.Equal(t, []string{"mars"}, g.Select("화성을 그려 달라고"))
	assert.Equal(t, []string{"moon"}, g.Select("달라고 했잖아, 달을 보여줘"))
	assert.Equal(t, []string{"earth", "moon"}, g.Select("지구 그리고 달"))
}

func TestMatchAlias(t *testing.T) {
	cases := []struct {
		text      string
		alias     string
		notBefore []string
		want      bool
	}{
		{"달을 보여줘", "달", []string{"라"}, true},
		{"보여달라", "달", []string{"라"}, false},
		{"보여달라 달", "달", []string{"라"}, true},
		{"moon", "moon", nil, true},
		{"mo", "moon", nil, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, matchAlias(tc.text, tc.alias, tc.notBefore), tc.text)
	}
}

func TestNoMatchUsesDefaultSelection(t *testing.T) {
	g := newGenerator(t, DefaultOptions())
	assert.Equal(t, []string{"Sun", "Earth"}, names(t, g, "draw something pretty"))

	opts := DefaultOptions()
	opts.DefaultKeys = []string{"EARTH", "sun"}
	g = newGenerator(t, opts)
	assert.Equal(t, []string{"sun", "earth"}, g.Select("nothing here"))
}

func TestNoMatchWithoutDefaultsReportsNoScene(t *testing.T) {
	opts := DefaultOptions()
	opts.DefaultKeys = nil
	g := newGenerator(t, opts)

	_, ok := g.Generate("draw something pretty")
	assert.False(t, ok)
}

func TestGenerateSynthesisesMonotonicOrbits(t *testing.T) {
	g := newGenerator(t, DefaultOptions())
	cand, ok := g.Generate("solar system")
	require.True(t, ok)

	assert.Equal(t, ScenarioSolarSystem, cand.ScenarioType)
	require.NotNil(t, cand.Camera)
	assert.Equal(t, "Sun", cand.Camera.Target)
	assert.NotNil(t, cand.Animations)

	require.Nil(t, cand.Objects[0].Orbit, "first body is the centre")
	prevRadius, prevSpeed := 0.0, 1e9
	for _, obj := range cand.Objects[1:] {
		require.NotNil(t, obj.Orbit, obj.Name)
		if obj.Name == "Moon" {
			assert.Equal(t, "Earth", obj.Orbit.Around)
			assert.Equal(t, 15.0, obj.Orbit.Radius)
			continue
		}
		assert.Empty(t, obj.Orbit.Around)
		assert.Greater(t, obj.Orbit.Radius, prevRadius, obj.Name)
		assert.Less(t, obj.Orbit.Speed, prevSpeed, obj.Name)
		prevRadius, prevSpeed = obj.Orbit.Radius, obj.Orbit.Speed
		require.NotNil(t, obj.RotationSpeed)
	}
}

func TestSatelliteWithoutParentIsRootBody(t *testing.T) {
	g := newGenerator(t, DefaultOptions())
	cand, ok := g.Generate("just the moon and mars")
	require.True(t, ok)

	require.Len(t, cand.Objects, 2)
	assert.Equal(t, "Moon", cand.Objects[0].Name)
	assert.Nil(t, cand.Objects[0].Orbit)
	require.NotNil(t, cand.Objects[1].Orbit)
	assert.Equal(t, 35.0, cand.Objects[1].Orbit.Radius)
	assert.Equal(t, "Moon", cand.Camera.Target)
}

func TestGenerateIsDeterministic(t *testing.T) {
	g := newGenerator(t, DefaultOptions())
	a, _ := g.Generate("지구와 달을 보여줘")
	b, _ := g.Generate("지구와 달을 보여줘")
	assert.Equal(t, a, b)
}

func TestNewRejectsUnknownDefaultKey(t *testing.T) {
	opts := DefaultOptions()
	opts.DefaultKeys = []string{"pluto"}
	_, err := New(DefaultTable(), opts)
	assert.Error(t, err)
}

func TestLoadTableFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
system_tokens: [galaxy]
bodies:
  - key: Alpha
    name: Alpha Centauri
    aliases: [alpha, 알파]
  - key: proxima
    name: Proxima b
    parent: alpha
    aliases: [proxima]
`), 0o644))

	table, err := LoadTable(path)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.DefaultKeys = []string{"alpha"}
	g, err := New(table, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "proxima"}, g.Select("the GALAXY"))
	assert.Equal(t, []string{"alpha"}, g.Select("unknown"))

	cand, ok := g.Generate("proxima and alpha")
	require.True(t, ok)
	require.NotNil(t, cand.Objects[1].Orbit)
	assert.Equal(t, "Alpha Centauri", cand.Objects[1].Orbit.Around)
}

func TestLoadTableRejectsInvalidTables(t *testing.T) {
	for name, body := range map[string]string{
		"empty":      `bodies: []`,
		"duplicate":  "bodies:\n  - {key: a, name: A}\n  - {key: A, name: B}\n",
		"no name":    "bodies:\n  - {key: a}\n",
		"bad parent": "bodies:\n  - {key: a, name: A, parent: z}\n",
		"not yaml":   "bodies: [",
	} {
		path := filepath.Join(t.TempDir(), "t.yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		_, err := LoadTable(path)
		assert.Error(t, err, name)
	}
}
