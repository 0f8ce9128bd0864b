package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name     string
		terminal bool
		input    string
		yes      bool
		wantErr  bool
	}{
		{name: "yes flag skips prompt", terminal: false, yes: true},
		{name: "no terminal", terminal: false, wantErr: true},
		{name: "answer y", terminal: true, input: "y\n"},
		{name: "answer YES", terminal: true, input: "YES\n"},
		{name: "answer no", terminal: true, input: "no\n", wantErr: true},
		{name: "empty answer", terminal: true, input: "\n", wantErr: true},
		{name: "eof", terminal: true, input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setTerminal(t, tt.terminal)
			var out bytes.Buffer
			err := confirm(strings.NewReader(tt.input), &out, "Proceed?", tt.yes)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, ExitCommandError, GetExitCode(err))
				return
			}
			require.NoError(t, err)
			if !tt.yes {
				assert.Contains(t, out.String(), "Proceed? [y/N]")
			}
		})
	}
}
