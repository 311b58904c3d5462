package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootCmd_PrintsHelp(t *testing.T) {
	out, err := executeCmd(t)
	require.NoError(t, err)
	assert.Contains(t, out, "strain")
	assert.Contains(t, out, "run")
	assert.NotContains(t, out, "Run a single stress worker", "the worker command is hidden")
}

func TestVersionCmd(t *testing.T) {
	out, err := executeCmd(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "strain "+version+"\n", out)
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	_, err := executeCmd(t, "explode")
	assert.Error(t, err)
}
