package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rainytroy/May-Quote-sub001/internal/agent"
	"github.com/Rainytroy/May-Quote-sub001/pkg/config"
	"github.com/Rainytroy/May-Quote-sub001/pkg/prompts"
)

const formJSON = `{"cards":[{"id":"card1","title":"Plan","adminInputs":{"inputB1":"goal <def>x</def>"},"promptBlocks":{"promptBlock1":"Plan {#input}"}}]}`

// fakeOpenAI отвечает на chat/completions фиксированной конфигурацией.
func fakeOpenAI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content, _ := json.Marshal("Sure:\n" + formJSON)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"c1","object":"chat.completion","model":"m","choices":[{"index":0,"message":{"role":"assistant","content":%s},"finish_reason":"stop"}]}`, content)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, baseURL string) *config.AppConfig {
	t.Helper()
	yaml := fmt.Sprintf(`
models:
  default_chat: fast
  definitions:
    fast:
      provider: openai
      model_name: gpt-test
      api_key: key
      base_url: %s/v1
    slow:
      provider: anthropic
      model_name: claude-test
      api_key: key
templates:
  store:
    type: file
    config:
      path: %s
app:
  debug: true
  debug_dir: %s
metrics:
  enabled: true
`, baseURL, filepath.Join(t.TempDir(), "templates.yaml"), filepath.Join(t.TempDir(), "traces"))

	cfg, err := config.Parse([]byte(yaml))
	require.NoError(t, err)
	return cfg
}

func TestInitialize_EndToEnd(t *testing.T) {
	srv := fakeOpenAI(t)
	cfg := testConfig(t, srv.URL)
	ctx := context.Background()

	comps, err := Initialize(ctx, cfg, Options{})
	require.NoError(t, err)
	defer comps.Close()

	assert.Equal(t, "fast", comps.Models.SelectedModel())
	assert.NotNil(t, comps.Metrics)
	assert.NotNil(t, comps.Recorder)

	tpl, ok := comps.Orchestrator.Template()
	require.True(t, ok)
	assert.Equal(t, prompts.BuiltinStandardID, tpl.ID)

	resp := comps.Orchestrator.Generate(ctx, agent.GenerateRequest{Input: "a trip"})
	require.True(t, resp.IsValid, resp.RawResponse)
	assert.Equal(t, 1, resp.CardCount)
	assert.Equal(t, "fast", resp.Model)
	assert.Equal(t, 1, comps.Recorder.Count())

	families, err := comps.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestInitialize_ModelOverride(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")

	comps, err := Initialize(context.Background(), cfg, Options{Model: "slow"})
	require.NoError(t, err)
	assert.Equal(t, "slow", comps.Models.SelectedModel())

	_, err = Initialize(context.Background(), cfg, Options{Model: "missing"})
	assert.Error(t, err)
}

func TestInitialize_NoModels(t *testing.T) {
	_, err := Initialize(context.Background(), config.Default(), Options{})
	assert.Error(t, err)
}

func TestComponents_ActivateTemplate(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	ctx := context.Background()

	comps, err := Initialize(ctx, cfg, Options{})
	require.NoError(t, err)

	active, err := comps.ActivateTemplate(ctx, prompts.BuiltinSimpleID)
	require.NoError(t, err)
	assert.Equal(t, prompts.BuiltinSimpleID, active.ID)

	tpl, _ := comps.Orchestrator.Template()
	assert.Equal(t, prompts.BuiltinSimpleID, tpl.ID)

	_, err = comps.ActivateTemplate(ctx, "nope")
	assert.ErrorIs(t, err, prompts.ErrTemplateNotFound)

	// активный шаблон переживает перезапуск
	_, catalog, err := InitializeCatalog(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, prompts.BuiltinSimpleID, catalog.Active().ID)
}

func TestDefaultConfigPathFinder(t *testing.T) {
	finder := &DefaultConfigPathFinder{ConfigFlag: "some/config.yaml"}
	assert.True(t, filepath.IsAbs(finder.FindConfigPath()))

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  log_level: debug\n"), 0o644))
	t.Setenv("FORMGEN_CONFIG", path)

	cfg, got, err := InitializeConfig(&DefaultConfigPathFinder{})
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Equal(t, "debug", cfg.App.LogLevel)
}
