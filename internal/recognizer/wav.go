package recognizer

import (
	"bytes"
	"encoding/binary"
	"io"

	"cloud.google.com/go/speech/apiv1/speechpb"
)

// AudioSinkOpener returns a fresh writer for one debug audio dump.
type AudioSinkOpener func() (io.WriteCloser, error)

// WritePCM16WAV writes little-endian 16-bit PCM behind a minimal WAV header.
func WritePCM16WAV(w io.Writer, pcm []byte, sampleRate int, channels int) error {
	if channels <= 0 {
		channels = 1
	}
	const bitsPerSample = 16
	byteRate := sampleRate * channels * (bitsPerSample / 8)
	blockAlign := channels * (bitsPerSample / 8)

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+len(pcm)))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(pcm)))

	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(pcm)
	return err
}

// dumpAudio keeps LINEAR16 uploads as playable WAV files. Raw PCM gains a
// header; uploads that already are WAV are copied as-is. Compressed formats
// are skipped.
func (g *Google) dumpAudio(data []byte, format Format) {
	if g.cfg.DebugAudioSink == nil || format.Encoding != speechpb.RecognitionConfig_LINEAR16 {
		return
	}
	sink, err := g.cfg.DebugAudioSink()
	if err != nil {
		g.warn("open debug audio dump", err)
		return
	}
	defer sink.Close()

	if bytes.HasPrefix(data, []byte("RIFF")) {
		_, err = sink.Write(data)
	} else {
		err = WritePCM16WAV(sink, data, int(format.SampleRate), int(format.Channels))
	}
	if err != nil {
		g.warn("write debug audio dump", err)
	}
}

func (g *Google) warn(message string, err error) {
	if g.cfg.Logger != nil {
		g.cfg.Logger.Warn(message, "error", err.Error())
	}
}
