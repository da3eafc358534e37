package recognizer

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name      string
		mediaType string
		filename  string
		want      Format
	}{
		{
			name:      "pulse pcm",
			mediaType: "audio/L16;rate=16000;channels=1",
			filename:  "practice.webm",
			want:      Format{Encoding: speechpb.RecognitionConfig_LINEAR16, SampleRate: 16000, Channels: 1},
		},
		{
			name:      "pcm with custom rate",
			mediaType: "audio/L16; rate=44100; channels=2",
			want:      Format{Encoding: speechpb.RecognitionConfig_LINEAR16, SampleRate: 44100, Channels: 2},
		},
		{
			name:      "browser webm with codec",
			mediaType: "audio/webm;codecs=opus",
			filename:  "practice.webm",
			want:      Format{Encoding: speechpb.RecognitionConfig_WEBM_OPUS, SampleRate: opusSampleRate},
		},
		{
			name:      "wav",
			mediaType: "audio/x-wav",
			want:      Format{Encoding: speechpb.RecognitionConfig_LINEAR16},
		},
		{
			name:      "ogg",
			mediaType: "audio/ogg",
			want:      Format{Encoding: speechpb.RecognitionConfig_OGG_OPUS, SampleRate: opusSampleRate},
		},
		{
			name:      "flac",
			mediaType: "audio/flac",
			want:      Format{Encoding: speechpb.RecognitionConfig_FLAC},
		},
		{
			name:      "generic media type falls back to extension",
			mediaType: "application/octet-stream",
			filename:  "clip.FLAC",
			want:      Format{Encoding: speechpb.RecognitionConfig_FLAC},
		},
		{
			name:     "missing media type uses extension",
			filename: "practice.webm",
			want:     Format{Encoding: speechpb.RecognitionConfig_WEBM_OPUS, SampleRate: opusSampleRate},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DetectFormat(tc.mediaType, tc.filename)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestDetectFormatRejectsUnknown(t *testing.T) {
	_, err := DetectFormat("text/plain", "notes.txt")
	require.ErrorIs(t, err, ErrUnsupportedAudio)

	_, err = DetectFormat("", "")
	require.ErrorIs(t, err, ErrUnsupportedAudio)
}

func TestBestAlternativesTakesFirstOfEachResult(t *testing.T) {
	resp := &speechpb.RecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "the quick"}, {Transcript: "the quack"}}},
			{},
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: " brown fox"}}},
		},
	}
	require.Equal(t, []string{"the quick", " brown fox"}, bestAlternatives(resp))
	require.Empty(t, bestAlternatives(&speechpb.RecognizeResponse{}))
}

func TestFuncAdapter(t *testing.T) {
	var seen Audio
	r := Func(func(_ context.Context, audio Audio) (string, error) {
		seen = audio
		return "ok", nil
	})

	text, err := r.Transcribe(context.Background(), Audio{Data: []byte{1}, Filename: "a.wav"})
	require.NoError(t, err)
	require.Equal(t, "ok", text)
	require.Equal(t, "a.wav", seen.Filename)

	failing := Func(func(context.Context, Audio) (string, error) { return "", errors.New("boom") })
	_, err = failing.Transcribe(context.Background(), Audio{})
	require.EqualError(t, err, "boom")
}
