package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandPractice Command = "practice"
	CommandToggle   Command = "toggle"
	CommandStart    Command = "start"
	CommandStop     Command = "stop"
	CommandNext     Command = "next"
	CommandPrev     Command = "prev"
	CommandType     Command = "type"
	CommandStatus   Command = "status"
	CommandServe    Command = "serve"
	CommandProgress Command = "progress"
	CommandToken    Command = "token"
	CommandDevices  Command = "devices"
	CommandDoctor   Command = "doctor"
	CommandVersion  Command = "version"
	CommandHelp     Command = "help"
)

type arity struct {
	min, max int
	usage    string
}

var validCommands = map[Command]arity{
	CommandPractice: {},
	CommandToggle:   {},
	CommandStart:    {},
	CommandStop:     {},
	CommandNext:     {},
	CommandPrev:     {},
	CommandType:     {min: 1, max: 1, usage: "sentence|paragraph"},
	CommandStatus:   {},
	CommandServe:    {},
	CommandProgress: {min: 1, max: 1, usage: "EMAIL"},
	CommandToken:    {min: 1, max: 2, usage: "EMAIL [user|admin]"},
	CommandDevices:  {},
	CommandDoctor:   {},
	CommandVersion:  {},
	CommandHelp:     {},
}

type Parsed struct {
	Command    Command
	Args       []string
	ConfigPath string
	Headless   bool
	ShowHelp   bool
}

// Arg returns the i-th command argument or "".
func (p Parsed) Arg(i int) string {
	if i < 0 || i >= len(p.Args) {
		return ""
	}
	return p.Args[i]
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--headless":
			parsed.Headless = true
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			arity, ok := validCommands[cmd]
			if !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			rest := args[i+1:]
			if len(rest) < arity.min {
				return Parsed{}, fmt.Errorf("%s requires %s", arg, arity.usage)
			}
			if len(rest) > arity.max {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}

			parsed.Command = cmd
			parsed.Args = append([]string(nil), rest...)
			parsed.ShowHelp = cmd == CommandHelp
			return parsed, nil
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [--headless] <command> [args]

Practice:
  practice          Open the practice display and own the control socket
  toggle            Start recording, or stop and submit when recording
  start             Start recording the selected item
  stop              Stop recording and submit the attempt
  next              Show the next item
  prev              Show the previous item
  type KIND         Switch to sentence or paragraph practice
  status            Print capture state and the selected item

Server:
  serve             Run the transcription server
  progress EMAIL    Print a user's recent attempts and summary
  token EMAIL [ROLE]
                    Mint a session token (ROLE: user or admin)

Other:
  devices           List available input devices
  doctor            Run configuration and environment checks
  version           Print version information
  help              Show this help

Flags:
  --config PATH     Config file path (default: $XDG_CONFIG_HOME/recite/config.jsonc)
  --headless        Run practice without the terminal display
  -h, --help        Show help
  --version         Show version
`, binaryName)
}
