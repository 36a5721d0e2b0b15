package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireBash(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}
}

func writeScript(t *testing.T, content string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "jq", "universal", "general")
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, "install.sh")
	require.NoError(t, os.WriteFile(path, []byte(content), 0755))
	return path
}

func newTestRunner(stdout *bytes.Buffer) *Runner {
	r := New("bash")
	r.Stdin = strings.NewReader("")
	r.Stdout = stdout
	r.Stderr = stdout
	return r
}

func TestRun_WorkingDirectoryIsScriptDir(t *testing.T) {
	requireBash(t)
	t.Parallel()
	script := writeScript(t, "pwd\n")
	var out bytes.Buffer

	res := newTestRunner(&out).Run(context.Background(), script)
	require.NoError(t, res.Error)
	assert.Equal(t, 0, res.ExitCode)

	wantDir, err := filepath.EvalSymlinks(filepath.Dir(script))
	require.NoError(t, err)
	gotDir, err := filepath.EvalSymlinks(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, wantDir, gotDir)
}

func TestRun_PropagatesExitCode(t *testing.T) {
	requireBash(t)
	t.Parallel()
	script := writeScript(t, "echo failing\nexit 3\n")
	var out bytes.Buffer

	res := newTestRunner(&out).Run(context.Background(), script)
	assert.NoError(t, res.Error)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, out.String(), "failing")
}

func TestRun_InterpreterMissing(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	r := newTestRunner(&out)
	r.LookPath = func(string) (string, error) { return "", exec.ErrNotFound }

	res := r.Run(context.Background(), "/does/not/matter/install.sh")
	require.Error(t, res.Error)
	assert.True(t, errors.Is(res.Error, ErrInterpreterMissing))
	assert.Equal(t, 1, res.ExitCode)
	assert.Empty(t, out.String())
}

func TestLint(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"simple", "#!/bin/bash\nset -e\necho jq\n", false},
		{"bash arrays", "pkgs=(jq fd)\nfor p in \"${pkgs[@]}\"; do echo \"$p\"; done\n", false},
		{"unterminated if", "if true; then\necho hi\n", true},
		{"unclosed quote", "echo \"missing\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Lint("install.sh", tt.content)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "install.sh")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
