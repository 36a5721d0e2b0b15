package cliutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/toru-nakai/nmsi/internal/core/platform"
	"github.com/toru-nakai/nmsi/internal/core/resolver"
)

func TestResolveExit_NotFound(t *testing.T) {
	notFound := &resolver.NotFoundError{
		Tool:         "jq",
		Env:          platform.Environment{OSFlavors: []string{"ubuntu22", "ubuntu", "debian", "linux"}, Arch: "amd64"},
		ExpectedPath: "/data/install/jq/ubuntu22/amd64/install.sh",
	}

	err := ResolveExit(notFound, true)
	var exitErr cli.ExitCoder
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, err.Error(), "Error: Installation script not found for jq on ubuntu22/amd64")
	assert.Contains(t, err.Error(), "Expected primary path: /data/install/jq/ubuntu22/amd64/install.sh")
	assert.Contains(t, err.Error(), "Tried OS flavors: ubuntu22, ubuntu, debian, linux")
	assert.Contains(t, err.Error(), UpdateHint)

	assert.NotContains(t, ResolveExit(notFound, false).Error(), UpdateHint)
}

func TestResolveExit_OtherError(t *testing.T) {
	err := ResolveExit(errors.New("permission denied"), true)
	assert.Equal(t, "Error: permission denied", err.Error())
}

func TestEnvironment_Overrides(t *testing.T) {
	var got platform.Environment
	app := &cli.App{
		Flags: PlatformFlags(),
		Action: func(c *cli.Context) error {
			got = Environment(c)
			return nil
		},
	}
	require.NoError(t, app.Run([]string{"nmsi", "--os", "Alpine", "--arch", "ARM64"}))
	assert.Equal(t, []string{"alpine", "linux"}, got.OSFlavors)
	assert.Equal(t, "arm64", got.Arch)
}

func TestToolArg(t *testing.T) {
	run := func(args ...string) (string, error) {
		var tool string
		var toolErr error
		app := &cli.App{
			Action: func(c *cli.Context) error {
				tool, toolErr = ToolArg(c)
				return nil
			},
		}
		require.NoError(t, app.Run(append([]string{"nmsi"}, args...)))
		return tool, toolErr
	}

	tool, err := run("jq")
	require.NoError(t, err)
	assert.Equal(t, "jq", tool)

	_, err = run()
	assert.EqualError(t, err, "Error: tool name argument is required.")

	_, err = run("../etc")
	assert.Error(t, err)
}
