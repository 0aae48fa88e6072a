package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/collect"
	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/cost"
	"github.com/sells-group/leadgen-cli/internal/model"
)

func sourceNames(sources []collect.Source) []string {
	var out []string
	for _, s := range sources {
		out = append(out, s.Name())
	}
	return out
}

func TestInitStore(t *testing.T) {
	c := withConfig(t)

	c.Store.Driver = "none"
	st, err := initStore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, st)

	c.Store.Driver = "sqlite"
	c.Store.DatabaseURL = filepath.Join(t.TempDir(), "leadgen.db")
	st, err = initStore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, st.Close())

	c.Store.Driver = "mysql"
	_, err = initStore(context.Background())
	assert.ErrorContains(t, err, "unsupported store driver")
}

func TestInitEnv_Defaults(t *testing.T) {
	c := withConfig(t)
	c.Store.Driver = "none"

	env, err := initEnv(context.Background(), config.ModeRun)
	require.NoError(t, err)
	defer env.Close()

	assert.Nil(t, env.Store)
	assert.Nil(t, env.AI, "llm is off by default")
	assert.Nil(t, env.classifier())
	assert.NotNil(t, env.HTTP)
	assert.NotNil(t, env.Opener)
	assert.Empty(t, env.Sinks)
}

func TestInitEnv_InvalidConfig(t *testing.T) {
	c := withConfig(t)
	c.Pipeline.Concurrency = 0

	_, err := initEnv(context.Background(), config.ModeRun)
	assert.ErrorContains(t, err, "pipeline.concurrency")
}

func TestInitAI(t *testing.T) {
	c := withConfig(t)

	chain, tracker, err := initAI(context.Background())
	require.NoError(t, err)
	assert.Nil(t, chain)
	assert.Nil(t, tracker)

	c.LLM.Enabled = true
	c.LLM.OpenAI.Enabled = true
	c.LLM.OpenAI.Key = "sk-test"
	chain, tracker, err = initAI(context.Background())
	require.NoError(t, err)
	require.NotNil(t, chain)
	assert.NotNil(t, tracker)
	assert.Equal(t, []string{cost.ProviderLocal, cost.ProviderOpenAI}, chain.Providers())

	c.LLM.Local.Enabled = false
	c.LLM.OpenAI.Enabled = false
	chain, _, err = initAI(context.Background())
	require.NoError(t, err)
	assert.Nil(t, chain, "no provider enabled")
}

func TestPricingRates(t *testing.T) {
	rates := pricingRates(config.PricingConfig{
		OpenAI: map[string]config.ModelPricing{
			"gpt-4o-mini": {Input: 0.2, Output: 0.8},
			"gpt-custom":  {Input: 1, Output: 2},
		},
	})

	assert.Equal(t, cost.ModelRate{Input: 0.2, Output: 0.8}, rates.OpenAI["gpt-4o-mini"])
	assert.Equal(t, cost.ModelRate{Input: 1, Output: 2}, rates.OpenAI["gpt-custom"])
	assert.Equal(t, cost.DefaultRates().Anthropic, rates.Anthropic)
}

func TestBuildSources(t *testing.T) {
	withConfig(t)
	env := &leadEnv{}

	general, err := buildSources(model.PipelineGeneral, env, "")
	require.NoError(t, err)
	assert.Equal(t, []string{collect.SourceYellowPages}, sourceNames(general))

	isp, err := buildSources(model.PipelineISP, env, "leads.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{
		collect.SourceYellowPages,
		collect.SourceFCC,
		collect.SourceLocal,
		collect.SourceFile,
	}, sourceNames(isp))
}

func TestBuildPipeline(t *testing.T) {
	c := withConfig(t)
	c.Store.Driver = "none"

	env, err := initEnv(context.Background(), config.ModeRun)
	require.NoError(t, err)
	defer env.Close()

	p, err := buildPipeline(model.PipelineGeneral, env, "")
	require.NoError(t, err)
	assert.Equal(t, model.PipelineGeneral, p.Kind())

	p, err = buildPipeline(model.PipelineISP, env, "")
	require.NoError(t, err)
	assert.Equal(t, model.PipelineISP, p.Kind())
}
