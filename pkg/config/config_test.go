package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xplshn/brc/pkg/cli"
)

func TestTablesAreComplete(t *testing.T) {
	cfg := NewConfig()
	assert.Len(t, cfg.Features, int(FeatCount))
	assert.Len(t, cfg.Warnings, int(WarnCount))
	for name, ft := range cfg.FeatureMap {
		assert.Equal(t, name, cfg.Features[ft].Name)
	}
	for name, wt := range cfg.WarningMap {
		assert.Equal(t, name, cfg.Warnings[wt].Name)
	}
	assert.Equal(t, DefaultStringCap, cfg.StringCap)
}

func TestApplyStd(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.ApplyStd("classic"))
	assert.Equal(t, "classic", cfg.StdName)
	assert.False(t, cfg.IsFeatureEnabled(FeatStrictAssign))
	assert.False(t, cfg.IsFeatureEnabled(FeatStrictPrimary))
	assert.False(t, cfg.IsFeatureEnabled(FeatArrayIndex))
	assert.False(t, cfg.IsFeatureEnabled(FeatChainAnd))
	assert.False(t, cfg.IsWarningEnabled(WarnFlatChain))
	assert.True(t, cfg.IsFeatureEnabled(FeatComments), "comments are not tied to a standard")

	require.NoError(t, cfg.ApplyStd("strict"))
	assert.Equal(t, "strict", cfg.StdName)
	assert.True(t, cfg.IsFeatureEnabled(FeatStrictAssign))
	assert.True(t, cfg.IsFeatureEnabled(FeatStrictPrimary))
	assert.True(t, cfg.IsFeatureEnabled(FeatArrayIndex))
	assert.False(t, cfg.IsFeatureEnabled(FeatChainAnd))
	assert.True(t, cfg.IsWarningEnabled(WarnFlatChain))

	err := cfg.ApplyStd("c89")
	assert.ErrorContains(t, err, "unsupported standard 'c89'")
	assert.Equal(t, "strict", cfg.StdName)
}

func TestApplyFlag(t *testing.T) {
	cfg := NewConfig()

	require.NoError(t, cfg.ApplyFlag("-Wno-redeclare"))
	assert.False(t, cfg.IsWarningEnabled(WarnRedeclare))
	require.NoError(t, cfg.ApplyFlag("-Wredeclare"))
	assert.True(t, cfg.IsWarningEnabled(WarnRedeclare))

	require.NoError(t, cfg.ApplyFlag("-Fchain-and"))
	assert.True(t, cfg.IsFeatureEnabled(FeatChainAnd))
	require.NoError(t, cfg.ApplyFlag("Fno-comments"))
	assert.False(t, cfg.IsFeatureEnabled(FeatComments))

	require.NoError(t, cfg.ApplyFlag("-Wall"))
	for wt := Warning(0); wt < WarnCount; wt++ {
		assert.True(t, cfg.IsWarningEnabled(wt), cfg.Warnings[wt].Name)
	}
	require.NoError(t, cfg.ApplyFlag("-Wno-all"))
	for wt := Warning(0); wt < WarnCount; wt++ {
		assert.False(t, cfg.IsWarningEnabled(wt), cfg.Warnings[wt].Name)
	}

	assert.ErrorContains(t, cfg.ApplyFlag("-Wbogus"), "unknown warning 'bogus'")
	assert.ErrorContains(t, cfg.ApplyFlag("-Fall"), "unknown feature 'all'")
	assert.ErrorContains(t, cfg.ApplyFlag("-Xfoo"), "unrecognized flag")
}

func TestSetStringCap(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.SetStringCap(64))
	assert.Equal(t, 64, cfg.StringCap)
	assert.ErrorContains(t, cfg.SetStringCap(1), "StringCap")
	assert.Equal(t, 64, cfg.StringCap)
	assert.Error(t, cfg.SetStringCap(1<<30))
	assert.Equal(t, 64, cfg.StringCap)
}

func TestValidate(t *testing.T) {
	cfg := NewConfig()
	assert.NoError(t, cfg.Validate(), "a fresh config has no standard yet")
	require.NoError(t, cfg.ApplyStd("classic"))
	assert.NoError(t, cfg.Validate())

	cfg.StdName = "c99"
	assert.ErrorContains(t, cfg.Validate(), "StdName")
}

func TestFlagGroups(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.ApplyStd("strict"))

	fs := cli.NewFlagSet("brc")
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)
	require.Len(t, warningFlags, int(WarnCount))
	require.Len(t, featureFlags, int(FeatCount))
	require.Len(t, fs.Groups(), 2)

	require.NoError(t, fs.Parse([]string{"-Wno-flat-chain", "-Fchain-and", "in.rot"}))
	assert.Equal(t, []string{"in.rot"}, fs.Args())
	assert.True(t, *warningFlags[WarnFlatChain].Disabled)
	assert.False(t, *warningFlags[WarnFlatChain].Enabled)
	assert.True(t, *featureFlags[FeatChainAnd].Enabled)
	assert.False(t, *featureFlags[FeatComments].Disabled)

	assert.Error(t, fs.Parse([]string{"-Wnonsense"}))
}

func TestApplyFlagGroupsOverridesStd(t *testing.T) {
	cfg := NewConfig()
	fs := cli.NewFlagSet("brc")
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	require.NoError(t, fs.Parse([]string{"-Wno-flat-chain", "-Fchain-and", "-Fno-strict-assign", "-Wfloat-print", "-Fcomments", "-Fno-comments"}))
	require.NoError(t, cfg.ApplyStd("strict"))
	cfg.ApplyFlagGroups(warningFlags, featureFlags)

	assert.False(t, cfg.IsWarningEnabled(WarnFlatChain))
	assert.True(t, cfg.IsWarningEnabled(WarnFloatPrint))
	assert.True(t, cfg.IsFeatureEnabled(FeatChainAnd))
	assert.False(t, cfg.IsFeatureEnabled(FeatStrictAssign))
	assert.True(t, cfg.IsFeatureEnabled(FeatStrictPrimary), "untouched by flags")
	assert.False(t, cfg.IsFeatureEnabled(FeatComments), "-Fno- wins over the enabling flag")
}
