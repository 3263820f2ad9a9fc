package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/text3d/hub/internal/catalog"
	"github.com/text3d/hub/internal/config"
	"github.com/text3d/hub/internal/db"
	"github.com/text3d/hub/internal/llm"
	"github.com/text3d/hub/internal/localgen"
	"github.com/text3d/hub/internal/middleware"
	"github.com/text3d/hub/internal/scene"
	"github.com/text3d/hub/internal/service"
)

type fixedModel struct{ reply string }

func (f fixedModel) Generate(context.Context, string) (string, error) {
	if f.reply == "" {
		return "", llm.ErrUnavailable
	}
	return f.reply, nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return nil
}

type testEnv struct {
	router  http.Handler
	db      *db.DB
	store   *catalog.Store
	prompts *service.PromptLogService
	cache   *countingInvalidator
}

func newTestEnv(t *testing.T, client llm.Client, opts scene.Options) *testEnv {
	t.Helper()
	d, err := db.Open(&config.Config{DBDriver: "sqlite", DBPath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	require.NoError(t, db.Migrate(d))

	store := catalog.NewStore(d, nil)
	for _, name := range []string{"Sun", "Mercury", "Venus", "Earth", "Moon", "Mars", "Jupiter", "Saturn", "Uranus", "Neptune"} {
		_, err := store.Create(context.Background(), catalog.CreateEntryInput{
			Name:    name,
			ObjPath: "/static/assets/" + name + "/" + name + ".obj",
		})
		require.NoError(t, err)
	}

	gen, err := localgen.New(localgen.DefaultTable(), localgen.DefaultOptions())
	require.NoError(t, err)
	resolver := scene.NewResolver(client, gen, store, nil, opts)
	prompts := service.NewPromptLogService(d)
	cache := &countingInvalidator{}

	sceneH := NewSceneHandler(resolver, service.NewSceneArchiveService(d), prompts, nil)
	catalogH := NewCatalogHandler(store, nil, cache, nil)
	embeddingH := NewEmbeddingHandler(service.NewEmbeddingService(d), nil)

	r := chi.NewRouter()
	r.Use(middleware.Trace)
	r.Post("/scene", sceneH.Resolve)
	r.Get("/scene/stream", sceneH.Stream)
	r.Post("/scene/save", sceneH.Save)
	r.Get("/scene/{scene_id}", sceneH.Get)
	r.Get("/scenes", sceneH.List)
	r.Get("/prompts", sceneH.Prompts)
	r.Get("/objects", catalogH.ListObjects)
	r.Post("/objects", catalogH.CreateObject)
	r.Get("/objects/{name}", catalogH.GetObject)
	r.Get("/animations", catalogH.ListAnimations)
	r.Post("/animations", catalogH.CreateAnimation)
	r.Post("/embedding/add", embeddingH.Add)
	r.Get("/embedding/all", embeddingH.All)

	return &testEnv{router: r, db: d, store: store, prompts: prompts, cache: cache}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func sceneObjectNames(t *testing.T, payload map[string]any) []string {
	t.Helper()
	sc, ok := payload["scene"].(map[string]any)
	require.True(t, ok, "missing scene in %v", payload)
	objs, ok := sc["objects"].([]any)
	require.True(t, ok)
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.(map[string]any)["name"].(string))
	}
	return out
}

func TestPostSceneFallback(t *testing.T) {
	env := newTestEnv(t, llm.Unavailable{}, scene.Options{})

	rec, out := env.do(t, http.MethodPost, "/scene", `{"prompt":"show me the solar system"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "fallback", out["origin"])
	assert.Len(t, sceneObjectNames(t, out), 10)
	assert.Equal(t, "Sun", out["scene"].(map[string]any)["camera"].(map[string]any)["target"])

	logs, err := env.prompts.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, service.OutcomeResolved, logs[0].Outcome)
	assert.Equal(t, "fallback", logs[0].Origin)
	assert.Equal(t, rec.Header().Get(middleware.TraceHeader), logs[0].TraceID)
}

func TestPostSceneModelOutput(t *testing.T) {
	env := newTestEnv(t, fixedModel{reply: `Here you go: {"scenarioType":"x","objects":[{"name":"Mars"}],"animations":[],"camera":{"target":"Mars"}}`}, scene.Options{})

	rec, out := env.do(t, http.MethodPost, "/scene", `{"prompt":"the red planet"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Mars"}, sceneObjectNames(t, out))
	assert.Equal(t, "model", out["origin"])
}

func TestPostSceneErrors(t *testing.T) {
	cases := []struct {
		name   string
		client llm.Client
		opts   scene.Options
		body   string
		status int
		code   string
	}{
		{"invalid json", llm.Unavailable{}, scene.Options{}, `{"prompt":`, http.StatusBadRequest, "E_BAD_REQUEST"},
		{"empty prompt", llm.Unavailable{}, scene.Options{}, `{"prompt":"   "}`, http.StatusBadRequest, "E_BAD_REQUEST"},
		{"missing object", fixedModel{reply: `{"objects":[{"name":"Pluto"}]}`}, scene.Options{}, `{"prompt":"pluto"}`, http.StatusNotFound, "E_OBJECT_NOT_FOUND"},
		{"generation unavailable", llm.Unavailable{}, scene.Options{DisableFallback: true}, `{"prompt":"earth"}`, http.StatusServiceUnavailable, "E_GENERATION_UNAVAILABLE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, tc.client, tc.opts)
			rec, out := env.do(t, http.MethodPost, "/scene", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, out["code"])
			msg, ok := out["error"].(string)
			assert.True(t, ok && msg != "", "error must be a non-empty string: %v", out)
		})
	}
}

func TestPostSceneObjectNotFoundNamesObject(t *testing.T) {
	env := newTestEnv(t, fixedModel{reply: `{"objects":[{"name":"Earth"},{"name":"Pluto"}]}`}, scene.Options{})

	_, out := env.do(t, http.MethodPost, "/scene", `{"prompt":"earth and pluto"}`)
	assert.Contains(t, out["error"], "Pluto")

	logs, err := env.prompts.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, service.OutcomeFailed, logs[0].Outcome)
	assert.Equal(t, "model", logs[0].Origin)
	require.NotNil(t, logs[0].Error)
}

func TestSaveGetAndListScenes(t *testing.T) {
	env := newTestEnv(t, llm.Unavailable{}, scene.Options{})

	rec, out := env.do(t, http.MethodPost, "/scene/save", `{"prompt":"지구와 달을 보여줘"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id, _ := out["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, []string{"Earth", "Moon"}, sceneObjectNames(t, out))

	rec, out = env.do(t, http.MethodGet, "/scene/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, out["id"])
	assert.Equal(t, []string{"Earth", "Moon"}, sceneObjectNames(t, out))

	rec, out = env.do(t, http.MethodGet, "/scenes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	scenes := out["scenes"].([]any)
	require.Len(t, scenes, 1)
	assert.Equal(t, float64(2), scenes[0].(map[string]any)["object_count"])

	rec, out = env.do(t, http.MethodGet, "/scene/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "E_NOT_FOUND", out["code"])
}

func TestPromptsEndpoint(t *testing.T) {
	env := newTestEnv(t, llm.Unavailable{}, scene.Options{})
	env.do(t, http.MethodPost, "/scene", `{"prompt":"mars"}`)

	rec, out := env.do(t, http.MethodGet, "/prompts?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	prompts := out["prompts"].([]any)
	require.Len(t, prompts, 1)
	assert.Equal(t, "mars", prompts[0].(map[string]any)["prompt"])
}

func TestObjectsEndpoints(t *testing.T) {
	env := newTestEnv(t, llm.Unavailable{}, scene.Options{})

	rec, out := env.do(t, http.MethodGet, "/objects", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["objects"], 10)

	rec, out = env.do(t, http.MethodGet, "/objects/EARTH", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Earth", out["object"].(map[string]any)["name"])

	rec, out = env.do(t, http.MethodGet, "/objects/ear", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "E_OBJECT_NOT_FOUND", out["code"])

	rec, out = env.do(t, http.MethodPost, "/objects", `{"name":"Pluto","obj_path":"/static/assets/Pluto/Pluto.obj","scale":0.5}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	obj := out["object"].(map[string]any)
	assert.Equal(t, "planet", obj["category"])
	assert.Equal(t, 0.5, obj["scale"])
	assert.Equal(t, 1, env.cache.calls)

	rec, out = env.do(t, http.MethodPost, "/objects", `{"name":"NoMesh"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "E_VALIDATION", out["code"])
	assert.Equal(t, 1, env.cache.calls)
}

func TestAnimationsEndpoints(t *testing.T) {
	env := newTestEnv(t, llm.Unavailable{}, scene.Options{})

	rec, out := env.do(t, http.MethodPost, "/animations", `{"name":"orbit","script_path":"/static/animations/orbit.js"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "orbit", out["animation"].(map[string]any)["name"])

	rec, out = env.do(t, http.MethodPost, "/animations", `{"name":"orbit","script_path":"/static/animations/orbit.js"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "E_CONFLICT", out["code"])

	rec, out = env.do(t, http.MethodGet, "/animations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["animations"], 1)
}

func TestQueryLimit(t *testing.T) {
	for raw, want := range map[string]int{"": 0, "?limit=7": 7, "?limit=abc": 0} {
		req := httptest.NewRequest(http.MethodGet, "/prompts"+raw, nil)
		assert.Equal(t, want, queryLimit(req), strings.TrimPrefix(raw, "?"))
	}
}

func TestStoreFailuresAreNotDescribedToClient(t *testing.T) {
	env := newTestEnv(t, llm.Unavailable{}, scene.Options{})
	require.NoError(t, env.db.Close())

	for _, tc := range []struct {
		method, path, body string
	}{
		{http.MethodGet, "/scenes", ""},
		{http.MethodGet, "/prompts", ""},
		{http.MethodGet, "/objects", ""},
		{http.MethodGet, "/objects/Earth", ""},
		{http.MethodGet, "/animations", ""},
		{http.MethodPost, "/objects", `{"name":"Pluto","obj_path":"/static/assets/Pluto/Pluto.obj"}`},
		{http.MethodPost, "/animations", `{"name":"spin","script_path":"/scenarios/spin.js"}`},
		{http.MethodGet, "/embedding/all", ""},
		{http.MethodPost, "/embedding/add", `{"type":"object","text":"Earth","embedding":[0.1]}`},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec, out := env.do(t, tc.method, tc.path, tc.body)
			require.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, "E_INTERNAL", out["code"])
			assert.Equal(t, "internal error", out["error"])
		})
	}
}

func TestEmbeddingEndpoints(t *testing.T) {
	env := newTestEnv(t, llm.Unavailable{}, scene.Options{})

	rec, out := env.do(t, http.MethodPost, "/embedding/add", `{"id":"obj-earth","type":"object","text":"Earth, the blue planet","embedding":[0.1,-0.25,3]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Embedding saved successfully", out["message"])
	assert.Equal(t, "obj-earth", out["embedding"].(map[string]any)["id"])

	rec, out = env.do(t, http.MethodPost, "/embedding/add", `{"type":"animation","text":"orbit around the sun","embedding":[1,2]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, out["embedding"].(map[string]any)["id"])

	rec, out = env.do(t, http.MethodPost, "/embedding/add", `{"id":"obj-earth","type":"object","text":"again","embedding":[1]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "E_CONFLICT", out["code"])

	rec, out = env.do(t, http.MethodPost, "/embedding/add", `{"type":"camera","text":"x","embedding":[1]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "E_VALIDATION", out["code"])

	rec, _ = env.do(t, http.MethodPost, "/embedding/add", `{"type":"object","text":"x","embedding":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, out = env.do(t, http.MethodGet, "/embedding/all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), out["count"])
	items := out["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "obj-earth", first["id"])
	assert.Equal(t, []any{0.1, -0.25, float64(3)}, first["embedding"])
	assert.Equal(t, "animation", items[1].(map[string]any)["type"])
}
