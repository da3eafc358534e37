// Package submit uploads recorded attempts to the practice server and
// interprets its replies.
package submit

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rbright/recite/internal/catalog"
)

// Wire contract with the practice server.
const (
	TranscribePath = "/transcribe"
	CatalogPath    = "/catalog"
	HealthPath     = "/health"
	LoginPath      = "/login"

	FieldAudio       = "audio"
	FieldContentID   = "contentId"
	FieldContentType = "contentType"
	// FieldSentenceID duplicates contentId for sentence submissions so servers
	// that predate contentId still find the item.
	FieldSentenceID = "sentenceId"

	AudioFilename = "practice.webm"
)

// Defaults applied when the device or server leaves a value unspecified.
const (
	DefaultMediaType  = "audio/webm"
	DefaultTranscript = "(no transcript)"
)

// User-visible messages.
const (
	MessageMissingContent = "Please select a sentence or paragraph first."
	MessageSessionExpired = "Your session has expired. Please log in again."
	MessageTransport      = "Could not reach the transcription server. Please try again."
	MessageParseFailure   = "Unexpected response from the server. Please try again."
	MessageServerFailure  = "Transcription failed. Please try again."
)

// ErrMissingContent is wrapped by submissions made without a selected item.
var ErrMissingContent = errors.New("no practice item selected")

// Kind classifies a submission failure.
type Kind string

const (
	KindMissingContent Kind = "missing_content"
	KindTransport      Kind = "transport"
	KindParse          Kind = "parse"
	KindServer         Kind = "server"
	KindUnauthorized   Kind = "unauthorized"
)

// Error is a failed exchange. Message is safe to show to the user.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	parts := []string{string(e.Kind)}
	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status %d", e.Status))
	}
	parts = append(parts, e.Message)
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return "submit: " + strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error { return e.Err }

// Payload is one finished recording.
type Payload struct {
	Data      []byte
	MediaType string
}

// Outcome is a handled response. RedirectTo is set instead of a transcript
// when the session has expired.
type Outcome struct {
	Transcript string
	Score      float64
	ScoreText  string
	RedirectTo string
	Message    string
}

// Redirected reports whether the server asked the client to log in again.
func (o Outcome) Redirected() bool { return o.RedirectTo != "" }

// Request names the item an attempt is for.
type Request struct {
	ItemID catalog.ItemID
	Type   catalog.ContentType
}

// FormatScore renders score with two decimals and a percent suffix.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.2f%%", score)
}

// CoerceScore converts a decoded JSON value into a finite score, defaulting to 0.
func CoerceScore(value any) float64 {
	var score float64
	switch v := value.(type) {
	case float64:
		score = v
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0
		}
		score = parsed
	case bool:
		if v {
			score = 1
		}
	default:
		return 0
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	return score
}
