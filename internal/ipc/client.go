package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

const defaultClientTimeout = 250 * time.Millisecond

// ErrNoOwner means nothing answers on the socket path: the file is missing
// or was left behind by an owner that exited.
var ErrNoOwner = errors.New("no practice owner listening")

// RejectedError is an owner's refusal of a well-formed command.
type RejectedError struct {
	Command string
	Reason  string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s rejected by practice owner", e.Command)
	}
	return e.Reason
}

// Client dials the practice owner once per request.
type Client struct {
	Path    string
	Timeout time.Duration
}

// Exchange performs one roundtrip and returns the response as sent,
// including ones with OK unset.
func (c Client) Exchange(ctx context.Context, req Request) (Response, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "unix", c.Path)
	if err != nil {
		if ownerAbsent(err) {
			return Response{}, fmt.Errorf("%w on %s", ErrNoOwner, c.Path)
		}
		return Response{}, fmt.Errorf("dial %s: %w", c.Path, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return Response{}, fmt.Errorf("set deadline: %w", err)
	}
	if err := writeMessage(conn, req); err != nil {
		return Response{}, fmt.Errorf("send %q: %w", req.Command, err)
	}

	var resp Response
	if err := readMessage(bufio.NewReader(conn), &resp); err != nil {
		return Response{}, fmt.Errorf("await reply to %q: %w", req.Command, err)
	}
	return resp, nil
}

// Do is Exchange with refusals turned into *RejectedError.
func (c Client) Do(ctx context.Context, req Request) (Response, error) {
	resp, err := c.Exchange(ctx, req)
	if err != nil {
		return Response{}, err
	}
	if !resp.OK {
		return resp, &RejectedError{Command: req.Command, Reason: resp.Error}
	}
	return resp, nil
}

// Alive reports whether an owner answers a status request. An absent owner
// is not an error; a socket that accepts but never replies is.
func (c Client) Alive(ctx context.Context) (bool, error) {
	_, err := c.Exchange(ctx, Request{Command: CommandStatus})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNoOwner):
		return false, nil
	default:
		return false, err
	}
}

func ownerAbsent(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED)
}
