package recognizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/rbright/recite/internal/transcript"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
)

// GoogleConfig controls the Cloud Speech client.
type GoogleConfig struct {
	// Endpoint overrides the API host:port, e.g. a local emulator.
	Endpoint string
	// Insecure dials Endpoint in plaintext without credentials.
	Insecure     bool
	LanguageCode string
	Model        string
	DialTimeout  time.Duration
	// DebugResponseSinkJSON receives one protojson line per response when set.
	DebugResponseSinkJSON io.Writer
	// DebugAudioSink, when set, receives a WAV copy of each LINEAR16 upload.
	DebugAudioSink AudioSinkOpener
	Logger         *slog.Logger
}

// Google recognizes audio with Cloud Speech-to-Text.
type Google struct {
	client *speech.Client
	conn   *grpc.ClientConn
	cfg    GoogleConfig

	sinkMu sync.Mutex
}

// NewGoogle creates a Cloud Speech client.
func NewGoogle(ctx context.Context, cfg GoogleConfig) (*Google, error) {
	if strings.TrimSpace(cfg.LanguageCode) == "" {
		cfg.LanguageCode = "en-US"
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	opts := make([]option.ClientOption, 0, 2)
	var conn *grpc.ClientConn

	switch {
	case endpoint != "" && cfg.Insecure:
		var err error
		conn, err = dial(ctx, endpoint, cfg.DialTimeout)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithGRPCConn(conn), option.WithoutAuthentication())
	case endpoint != "":
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		if conn != nil {
			_ = conn.Close()
		}
		return nil, fmt.Errorf("create speech client: %w", err)
	}

	return &Google{client: client, conn: conn, cfg: cfg}, nil
}

// Transcribe implements Recognizer.
func (g *Google) Transcribe(ctx context.Context, audio Audio) (string, error) {
	if len(audio.Data) == 0 {
		return "", errors.New("audio is empty")
	}
	format, err := DetectFormat(audio.MediaType, audio.Filename)
	if err != nil {
		return "", err
	}
	g.dumpAudio(audio.Data, format)

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   format.Encoding,
			SampleRateHertz:            format.SampleRate,
			AudioChannelCount:          format.Channels,
			LanguageCode:               g.cfg.LanguageCode,
			Model:                      g.cfg.Model,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio.Data},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	g.dump(resp)

	return transcript.Assemble(bestAlternatives(resp)), nil
}

// Close releases the client connection.
func (g *Google) Close() error {
	err := g.client.Close()
	if g.conn != nil {
		_ = g.conn.Close()
	}
	return err
}

func bestAlternatives(resp *speechpb.RecognizeResponse) []string {
	segments := make([]string, 0, len(resp.GetResults()))
	for _, result := range resp.GetResults() {
		alternatives := result.GetAlternatives()
		if len(alternatives) == 0 {
			continue
		}
		segments = append(segments, alternatives[0].GetTranscript())
	}
	return segments
}

func (g *Google) dump(resp *speechpb.RecognizeResponse) {
	if g.cfg.DebugResponseSinkJSON == nil {
		return
	}
	line, err := protojson.Marshal(resp)
	if err != nil {
		if g.cfg.Logger != nil {
			g.cfg.Logger.Warn("marshal recognizer response", "error", err.Error())
		}
		return
	}

	g.sinkMu.Lock()
	defer g.sinkMu.Unlock()
	_, _ = g.cfg.DebugResponseSinkJSON.Write(append(line, '\n'))
}
