// Package recognizer turns uploaded practice audio into text.
package recognizer

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strconv"
	"strings"

	"cloud.google.com/go/speech/apiv1/speechpb"
)

// ErrUnsupportedAudio is returned for uploads whose format cannot be recognized.
var ErrUnsupportedAudio = errors.New("unsupported audio format")

// Audio is one uploaded recording.
type Audio struct {
	Data      []byte
	MediaType string
	Filename  string
}

// Recognizer transcribes audio.
type Recognizer interface {
	Transcribe(ctx context.Context, audio Audio) (string, error)
}

// Func adapts a function to Recognizer.
type Func func(ctx context.Context, audio Audio) (string, error)

func (f Func) Transcribe(ctx context.Context, audio Audio) (string, error) { return f(ctx, audio) }

// opusSampleRate is what browsers and most encoders produce for Opus.
const opusSampleRate = 48000

// Format is the recognizer-side description of an upload.
type Format struct {
	Encoding   speechpb.RecognitionConfig_AudioEncoding
	SampleRate int32
	Channels   int32
}

// DetectFormat derives the encoding from the part media type, falling back on
// the filename extension when the media type is absent or generic.
func DetectFormat(mediaType string, filename string) (Format, error) {
	if f, ok := formatFromMediaType(mediaType); ok {
		return f, nil
	}
	if f, ok := formatFromExtension(filename); ok {
		return f, nil
	}
	return Format{}, fmt.Errorf("%w: media type %q, file %q", ErrUnsupportedAudio, mediaType, filename)
}

func formatFromMediaType(raw string) (Format, bool) {
	if strings.TrimSpace(raw) == "" {
		return Format{}, false
	}
	mediaType, params, err := mime.ParseMediaType(raw)
	if err != nil {
		return Format{}, false
	}

	switch mediaType {
	case "audio/l16":
		f := Format{Encoding: speechpb.RecognitionConfig_LINEAR16, SampleRate: 16000, Channels: 1}
		if rate, err := strconv.Atoi(params["rate"]); err == nil && rate > 0 {
			f.SampleRate = int32(rate)
		}
		if channels, err := strconv.Atoi(params["channels"]); err == nil && channels > 0 {
			f.Channels = int32(channels)
		}
		return f, true
	case "audio/wav", "audio/wave", "audio/x-wav", "audio/vnd.wave":
		return Format{Encoding: speechpb.RecognitionConfig_LINEAR16}, true
	case "audio/webm", "video/webm":
		return Format{Encoding: speechpb.RecognitionConfig_WEBM_OPUS, SampleRate: opusSampleRate}, true
	case "audio/ogg", "audio/opus":
		return Format{Encoding: speechpb.RecognitionConfig_OGG_OPUS, SampleRate: opusSampleRate}, true
	case "audio/flac", "audio/x-flac":
		return Format{Encoding: speechpb.RecognitionConfig_FLAC}, true
	default:
		return Format{}, false
	}
}

func formatFromExtension(filename string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return Format{Encoding: speechpb.RecognitionConfig_LINEAR16}, true
	case ".webm":
		return Format{Encoding: speechpb.RecognitionConfig_WEBM_OPUS, SampleRate: opusSampleRate}, true
	case ".ogg", ".opus":
		return Format{Encoding: speechpb.RecognitionConfig_OGG_OPUS, SampleRate: opusSampleRate}, true
	case ".flac":
		return Format{Encoding: speechpb.RecognitionConfig_FLAC}, true
	default:
		return Format{}, false
	}
}
