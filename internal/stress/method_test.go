package stress

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		input   string
		want    Method
		wantErr bool
	}{
		{input: "cpu", want: MethodCPU},
		{input: "CPU", want: MethodCPU},
		{input: " memory ", want: MethodMemory},
		{input: "disk", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMethod(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownMethod))
				var cfgErr *ConfigError
				assert.True(t, errors.As(err, &cfgErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIsolation(t *testing.T) {
	got, err := ParseIsolation("Process")
	require.NoError(t, err)
	assert.Equal(t, IsolationProcess, got)

	got, err = ParseIsolation("goroutine")
	require.NoError(t, err)
	assert.Equal(t, IsolationGoroutine, got)

	_, err = ParseIsolation("thread")
	assert.ErrorIs(t, err, ErrUnknownIsolation)
}

func TestNewLauncher(t *testing.T) {
	l, err := NewLauncher(IsolationProcess)
	require.NoError(t, err)
	assert.IsType(t, &ProcessLauncher{}, l)

	l, err = NewLauncher(IsolationGoroutine)
	require.NoError(t, err)
	assert.IsType(t, &GoroutineLauncher{}, l)

	_, err = NewLauncher(Isolation("vm"))
	assert.ErrorIs(t, err, ErrUnknownIsolation)
}
