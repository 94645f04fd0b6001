package cli_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2mint/rh/internal/app"
	"github.com/i2mint/rh/internal/cli"
)

func TestParseNoArgsPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	cfg, shouldExit, err := cli.Parse(nil, &out)

	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "serve")
}

func TestParseHelp(t *testing.T) {
	for _, arg := range []string{"-h", "--help", "help"} {
		t.Run(arg, func(t *testing.T) {
			var out bytes.Buffer
			_, shouldExit, err := cli.Parse([]string{arg}, &out)
			require.NoError(t, err)
			assert.True(t, shouldExit)
		})
	}
}

func TestParseBuildCommand(t *testing.T) {
	var out bytes.Buffer
	cfg, shouldExit, err := cli.Parse([]string{
		"build", "-output", "/tmp/out", "-title", "My App", "-strict", "mesh.hcl",
	}, &out)

	require.NoError(t, err)
	require.False(t, shouldExit)
	assert.Equal(t, app.CommandBuild, cfg.Command)
	assert.Equal(t, "mesh.hcl", cfg.MeshPath)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, "My App", cfg.Title)
	assert.True(t, cfg.Strict)
	assert.False(t, cfg.NoValidate)
}

func TestParseDefaults(t *testing.T) {
	var out bytes.Buffer
	cfg, _, err := cli.Parse([]string{"serve", "mesh.yaml"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Greater(t, cfg.Port, 0)
	assert.NotEmpty(t, cfg.AppDir)
}

func TestParseMissingPathPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	cfg, shouldExit, err := cli.Parse([]string{"build"}, &out)

	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
}

func TestParseUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	_, _, err := cli.Parse([]string{"frobnicate", "mesh.hcl"}, &out)

	require.Error(t, err)
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "frobnicate")
}

func TestParseInvalidLogSettings(t *testing.T) {
	t.Run("format", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := cli.Parse([]string{"build", "-log-format", "xml", "mesh.hcl"}, &out)
		var exitErr *cli.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Contains(t, exitErr.Message, "log-format")
	})

	t.Run("level", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := cli.Parse([]string{"build", "-log-level", "loud", "mesh.hcl"}, &out)
		var exitErr *cli.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Contains(t, exitErr.Message, "log-level")
	})
}

func TestParseCaseInsensitiveLogSettings(t *testing.T) {
	var out bytes.Buffer
	cfg, _, err := cli.Parse([]string{"build", "-log-format", "JSON", "-log-level", "DEBUG", "mesh.hcl"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParseUnknownFlag(t *testing.T) {
	var out bytes.Buffer
	_, _, err := cli.Parse([]string{"build", "-bogus", "mesh.hcl"}, &out)

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}
