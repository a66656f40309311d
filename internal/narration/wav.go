package narration

import (
	"bytes"
	"encoding/binary"
)

// DefaultSampleRate is the rate of PCM returned by the Gemini speech model.
const DefaultSampleRate = 24000

// WrapPCM wraps 16-bit little-endian mono PCM in a WAV container.
func WrapPCM(pcm []byte, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	buf.WriteString("RIFF")
	writeLE(&buf, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	writeLE(&buf, uint32(16))
	writeLE(&buf, uint16(1))
	writeLE(&buf, uint16(channels))
	writeLE(&buf, uint32(sampleRate))
	writeLE(&buf, uint32(byteRate))
	writeLE(&buf, uint16(blockAlign))
	writeLE(&buf, uint16(bitsPerSample))
	buf.WriteString("data")
	writeLE(&buf, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

// IsWAV reports whether audio already carries a RIFF/WAVE header.
func IsWAV(audio []byte) bool {
	return len(audio) >= 12 && string(audio[0:4]) == "RIFF" && string(audio[8:12]) == "WAVE"
}

func writeLE(buf *bytes.Buffer, v any) {
	// bytes.Buffer writes never fail.
	_ = binary.Write(buf, binary.LittleEndian, v)
}
