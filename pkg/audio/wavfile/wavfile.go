// Package wavfile loads speech recordings as float64 sample channels.
//
// WAV containers are decoded with github.com/go-audio/wav; headerless
// little-endian 16-bit PCM (L16) is decoded directly. Integer samples are
// scaled to [-1, 1) by 2^(bitDepth-1).
package wavfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Sentinel errors.
var (
	// ErrInvalidFile is returned when the input is not a readable WAV file.
	ErrInvalidFile = errors.New("wavfile: invalid wav file")

	// ErrUnsupported is returned for encodings other than integer PCM.
	ErrUnsupported = errors.New("wavfile: unsupported encoding")

	// ErrNoChannel is returned when a channel index is out of range.
	ErrNoChannel = errors.New("wavfile: no such channel")
)

// WAV format tags for integer PCM.
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// Audio is a decoded recording with deinterleaved channels.
type Audio struct {
	SampleRate int
	BitDepth   int
	Channels   [][]float64
}

// Len returns the number of samples per channel.
func (a *Audio) Len() int {
	if len(a.Channels) == 0 {
		return 0
	}
	return len(a.Channels[0])
}

// Channel returns channel i.
func (a *Audio) Channel(i int) ([]float64, error) {
	if i < 0 || i >= len(a.Channels) {
		return nil, fmt.Errorf("%w: %d of %d", ErrNoChannel, i, len(a.Channels))
	}
	return a.Channels[i], nil
}

// Mono returns the average of all channels.
func (a *Audio) Mono() []float64 {
	if len(a.Channels) == 1 {
		return a.Channels[0]
	}
	out := make([]float64, a.Len())
	scale := 1 / float64(len(a.Channels))
	for _, ch := range a.Channels {
		for i, s := range ch {
			out[i] += s * scale
		}
	}
	return out
}

// Decode reads a complete WAV file.
func Decode(r io.ReadSeeker) (*Audio, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, ErrInvalidFile
	}
	if d.WavAudioFormat != wavFormatPCM && d.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: format tag %d", ErrUnsupported, d.WavAudioFormat)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wavfile: read pcm: %w", err)
	}
	return fromIntBuffer(buf), nil
}

// DecodeL16 reads headerless little-endian 16-bit interleaved PCM.
func DecodeL16(r io.Reader, sampleRate, numChannels int) (*Audio, error) {
	if numChannels < 1 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupported, numChannels)
	}
	lr := newL16Reader(r, numChannels, 4096)
	channels := make([][]float64, numChannels)
	for {
		_, err := lr.readFrames(channels)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("wavfile: read l16: %w", err)
		}
	}
	return &Audio{SampleRate: sampleRate, BitDepth: 16, Channels: channels}, nil
}

// Load decodes data by file extension: ".pcm", ".raw" and ".l16" are read as
// L16 at sampleRate, everything else as WAV.
func Load(data []byte, name string, sampleRate, numChannels int) (*Audio, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pcm", ".raw", ".l16":
		return DecodeL16(bytes.NewReader(data), sampleRate, numChannels)
	default:
		return Decode(bytes.NewReader(data))
	}
}

// Encode writes a as integer PCM WAV with the given bit depth. Samples are
// clipped to [-1, 1].
func Encode(w io.WriteSeeker, a *Audio, bitDepth int) error {
	numChannels := len(a.Channels)
	n := a.Len()
	full := float64(int64(1) << (bitDepth - 1))
	data := make([]int, n*numChannels)
	for c, ch := range a.Channels {
		for i, s := range ch {
			s = min(max(s, -1), 1)
			v := int(s * full)
			if v >= int(full) {
				v = int(full) - 1
			}
			if bitDepth == 8 {
				v += 128
			}
			data[i*numChannels+c] = v
		}
	}

	enc := wav.NewEncoder(w, a.SampleRate, bitDepth, numChannels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChannels, SampleRate: a.SampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wavfile: encode: %w", err)
	}
	return enc.Close()
}

// fromIntBuffer deinterleaves and normalises an integer PCM buffer.
func fromIntBuffer(buf *audio.IntBuffer) *Audio {
	numChannels := max(buf.Format.NumChannels, 1)
	bitDepth := buf.SourceBitDepth
	n := len(buf.Data) / numChannels

	full := float64(int64(1) << (bitDepth - 1))
	offset := 0.0
	if bitDepth == 8 {
		// 8-bit WAV samples are unsigned.
		offset = full
	}

	a := &Audio{
		SampleRate: buf.Format.SampleRate,
		BitDepth:   bitDepth,
		Channels:   make([][]float64, numChannels),
	}
	for c := range a.Channels {
		ch := make([]float64, n)
		for i := range ch {
			ch[i] = (float64(buf.Data[i*numChannels+c]) - offset) / full
		}
		a.Channels[c] = ch
	}
	return a
}
