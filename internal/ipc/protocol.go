// Package ipc is the JSON-lines unix-socket control channel between a running
// `recite practice` owner and one-shot hotkey commands.
package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Commands understood by the practice owner.
const (
	CommandStatus = "status"
	CommandStart  = "start"
	CommandStop   = "stop"
	CommandToggle = "toggle"
	CommandNext   = "next"
	CommandPrev   = "prev"
	CommandType   = "type"
)

// Request is one command line. Arg carries the positional argument of
// commands that take one (`type sentence`).
type Request struct {
	Command string `json:"command"`
	Arg     string `json:"arg,omitempty"`
}

func (r Request) normalized() Request {
	return Request{
		Command: strings.ToLower(strings.TrimSpace(r.Command)),
		Arg:     strings.TrimSpace(r.Arg),
	}
}

// Response reports the owner's state after handling a request.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`

	ContentType string `json:"content_type,omitempty"`
	ItemID      string `json:"item_id,omitempty"`
	Heading     string `json:"heading,omitempty"`
	Text        string `json:"text,omitempty"`
	Transcript  string `json:"transcript,omitempty"`
	Score       string `json:"score,omitempty"`
}

// writeMessage frames v as a single JSON line.
func writeMessage(w io.Writer, v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(append(line, '\n'))
	return err
}

func readMessage(r *bufio.Reader, v any) error {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return err
	}
	if err := json.Unmarshal(line, v); err != nil {
		return fmt.Errorf("malformed message: %w", err)
	}
	return nil
}
