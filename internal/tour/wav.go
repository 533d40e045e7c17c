package tour

import (
	"encoding/binary"
	"time"
)

// Gemini TTS emits raw PCM: 24kHz, 16-bit little-endian, mono.
const (
	pcmSampleRate = 24000
	pcmBitDepth   = 16
	pcmChannels   = 1
)

// WrapWAV frames raw PCM as a RIFF/WAVE file so browsers can play it
// directly.
func WrapWAV(pcm []byte) []byte {
	const headerSize = 44
	byteRate := pcmSampleRate * pcmChannels * pcmBitDepth / 8
	blockAlign := pcmChannels * pcmBitDepth / 8

	buf := make([]byte, headerSize+len(pcm))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16) // PCM chunk size
	binary.LittleEndian.PutUint16(buf[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(buf[22:24], pcmChannels)
	binary.LittleEndian.PutUint32(buf[24:28], pcmSampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], pcmBitDepth)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))
	copy(buf[headerSize:], pcm)
	return buf
}

// PCMDuration returns how long the raw PCM plays for.
func PCMDuration(pcm []byte) time.Duration {
	bytesPerSecond := pcmSampleRate * pcmChannels * pcmBitDepth / 8
	return time.Duration(len(pcm)) * time.Second / time.Duration(bytesPerSecond)
}
