package audio

import (
	"bytes"
	"encoding/binary"
	"os"
)

const (
	wavFormatIEEEFloat = 3 // tag within fmt chunk; see writeWAV
	bytesPerFloat32    = 4
)

// writeWAV writes samples as a single-pass IEEE-float WAV file. It is a
// minimal encoder for fixed-duration capture segments, not a general audio
// library — the pipeline only ever needs one straight-through write per
// segment.
func writeWAV(path string, samples []float32, sampleRate, channels int) error {
	dataSize := len(samples) * bytesPerFloat32
	byteRate := sampleRate * channels * bytesPerFloat32
	blockAlign := channels * bytesPerFloat32

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	writeLE(&buf, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	writeLE(&buf, uint32(16))
	writeLE(&buf, uint16(3)) // WAVE_FORMAT_IEEE_FLOAT
	writeLE(&buf, uint16(channels))
	writeLE(&buf, uint32(sampleRate))
	writeLE(&buf, uint32(byteRate))
	writeLE(&buf, uint16(blockAlign))
	writeLE(&buf, uint16(32)) // bits per sample

	buf.WriteString("data")
	writeLE(&buf, uint32(dataSize))
	for _, s := range samples {
		writeLE(&buf, s)
	}

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func writeLE(buf *bytes.Buffer, v any) {
	_ = binary.Write(buf, binary.LittleEndian, v)
}
