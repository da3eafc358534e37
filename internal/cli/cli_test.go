package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Equal(t, CommandHelp, parsed.Command)
}

func TestParseCommandWithConfig(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/recite.jsonc", "doctor"})
	require.NoError(t, err)
	require.Equal(t, CommandDoctor, parsed.Command)
	require.Equal(t, "/tmp/recite.jsonc", parsed.ConfigPath)
	require.False(t, parsed.ShowHelp)
	require.Empty(t, parsed.Args)
}

func TestParseArgMatrix(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		wantErr      string
		wantCmd      Command
		wantArgs     []string
		wantHelp     bool
		wantPath     string
		wantHeadless bool
	}{
		{
			name:     "help short flag",
			args:     []string{"-h"},
			wantCmd:  CommandHelp,
			wantHelp: true,
		},
		{
			name:     "help long flag",
			args:     []string{"--help"},
			wantCmd:  CommandHelp,
			wantHelp: true,
		},
		{
			name:    "version flag",
			args:    []string{"--version"},
			wantCmd: CommandVersion,
		},
		{
			name:    "config after command",
			args:    []string{"status", "--config", "/tmp/cfg"},
			wantErr: "unexpected arguments after command",
		},
		{
			name:    "missing config path",
			args:    []string{"--config"},
			wantErr: "requires a path",
		},
		{
			name:    "unknown flag",
			args:    []string{"--bogus"},
			wantErr: "unknown flag",
		},
		{
			name:    "unknown command",
			args:    []string{"bogus"},
			wantErr: "unknown command",
		},
		{
			name:    "extra args after command",
			args:    []string{"doctor", "extra"},
			wantErr: "unexpected arguments",
		},
		{
			name:     "type with kind",
			args:     []string{"type", "paragraph"},
			wantCmd:  CommandType,
			wantArgs: []string{"paragraph"},
		},
		{
			name:    "type without kind",
			args:    []string{"type"},
			wantErr: "type requires sentence|paragraph",
		},
		{
			name:     "token with role",
			args:     []string{"token", "a@example.com", "admin"},
			wantCmd:  CommandToken,
			wantArgs: []string{"a@example.com", "admin"},
		},
		{
			name:    "token too many args",
			args:    []string{"token", "a@example.com", "admin", "x"},
			wantErr: "unexpected arguments",
		},
		{
			name:    "progress needs email",
			args:    []string{"progress"},
			wantErr: "progress requires EMAIL",
		},
		{
			name:         "headless practice with config",
			args:         []string{"--headless", "--config", "/tmp/cfg", "practice"},
			wantCmd:      CommandPractice,
			wantPath:     "/tmp/cfg",
			wantHeadless: true,
		},
		{
			name:     "valid stop with config",
			args:     []string{"--config", "/tmp/cfg", "stop"},
			wantCmd:  CommandStop,
			wantPath: "/tmp/cfg",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(tc.args)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.wantCmd, parsed.Command)
			require.Equal(t, tc.wantHelp, parsed.ShowHelp)
			require.Equal(t, tc.wantPath, parsed.ConfigPath)
			require.Equal(t, tc.wantHeadless, parsed.Headless)
			if tc.wantArgs == nil {
				require.Empty(t, parsed.Args)
			} else {
				require.Equal(t, tc.wantArgs, parsed.Args)
			}
		})
	}
}

func TestParsedArg(t *testing.T) {
	parsed := Parsed{Args: []string{"a@example.com"}}
	require.Equal(t, "a@example.com", parsed.Arg(0))
	require.Empty(t, parsed.Arg(1))
	require.Empty(t, parsed.Arg(-1))
}

func TestHelpTextIncludesCoreCommands(t *testing.T) {
	text := HelpText("recite")
	for _, want := range []string{"practice", "toggle", "type KIND", "serve", "progress EMAIL", "token EMAIL", "doctor", "--config PATH"} {
		require.Contains(t, text, want)
	}
}
