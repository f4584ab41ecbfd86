package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// EncodeWAV wraps raw PCM16 little-endian bytes in a RIFF/WAVE container.
func EncodeWAV(pcm []byte, sampleRate, channels int) ([]byte, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid wav parameters: rate=%d channels=%d", sampleRate, channels)
	}

	h := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + len(pcm)),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1, // PCM
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * channels * 2),
		BlockAlign:    uint16(channels * 2),
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(len(pcm)),
	}

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
		return nil, err
	}
	buf.Write(pcm)
	return buf.Bytes(), nil
}

// EncodeWAVFromFloat quantizes normalized float samples to PCM16 and wraps
// them in a WAV container.
func EncodeWAVFromFloat(samples []float32, sampleRate, channels int) ([]byte, error) {
	return EncodeWAV(PCM16FromFloat(samples), sampleRate, channels)
}

// DecodeWAV extracts the PCM payload and format from a RIFF/WAVE buffer.
// Only uncompressed 16-bit PCM is supported.
func DecodeWAV(data []byte) (pcm []byte, sampleRate, channels int, err error) {
	if len(data) < 44 {
		return nil, 0, 0, errors.New("wav data too short")
	}

	var h wavHeader
	if err := binary.Read(bytes.NewReader(data[:44]), binary.LittleEndian, &h); err != nil {
		return nil, 0, 0, err
	}
	if string(h.ChunkID[:]) != "RIFF" || string(h.Format[:]) != "WAVE" {
		return nil, 0, 0, errors.New("not a RIFF/WAVE buffer")
	}
	if h.AudioFormat != 1 || h.BitsPerSample != 16 {
		return nil, 0, 0, fmt.Errorf("unsupported wav format: format=%d bits=%d", h.AudioFormat, h.BitsPerSample)
	}

	size := int(h.Subchunk2Size)
	if size > len(data)-44 {
		size = len(data) - 44
	}
	return data[44 : 44+size], int(h.SampleRate), int(h.NumChannels), nil
}
