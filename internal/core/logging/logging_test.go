package logging

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v2"
)

func TestNew_Levels(t *testing.T) {
	t.Parallel()
	assert.Equal(t, log.WarnLevel, New(&bytes.Buffer{}, false).GetLevel())
	assert.Equal(t, log.DebugLevel, New(&bytes.Buffer{}, true).GetLevel())
}

func TestNew_DebugWrittenOnlyWhenVerbose(t *testing.T) {
	t.Parallel()
	var quiet, loud bytes.Buffer
	New(&quiet, false).Debug("resolving", "tool", "jq")
	New(&loud, true).Debug("resolving", "tool", "jq")

	assert.Empty(t, quiet.String())
	assert.Contains(t, loud.String(), "resolving")
	assert.Contains(t, loud.String(), "tool=jq")
}

func TestAttachAndFrom(t *testing.T) {
	t.Parallel()
	app := &cli.App{}
	c := cli.NewContext(app, nil, nil)
	logger := New(&bytes.Buffer{}, true)

	Attach(c, logger)
	assert.Same(t, logger, From(c))
}

func TestFrom_WithoutAttachReturnsDefault(t *testing.T) {
	t.Parallel()
	c := cli.NewContext(&cli.App{}, nil, nil)
	logger := From(c)
	assert.NotNil(t, logger)
	assert.Equal(t, log.WarnLevel, logger.GetLevel())
}
