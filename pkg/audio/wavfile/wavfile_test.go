package wavfile

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeWAV(t *testing.T, a *Audio, bitDepth int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := Encode(f, a, bitDepth); err != nil {
		f.Close()
		t.Fatalf("Encode: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return path
}

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		name     string
		bitDepth int
		channels int
		tol      float64
	}{
		{"mono 16-bit", 16, 1, 1.0 / 32768},
		{"stereo 16-bit", 16, 2, 1.0 / 32768},
		{"mono 24-bit", 24, 1, 1.0 / (1 << 23)},
		{"mono 8-bit", 8, 1, 1.0 / 128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Audio{SampleRate: 16000, Channels: make([][]float64, tt.channels)}
			for c := range a.Channels {
				ch := make([]float64, 800)
				for i := range ch {
					ch[i] = 0.5 * math.Sin(float64(i)*0.05*float64(c+1))
				}
				a.Channels[c] = ch
			}
			path := writeWAV(t, a, tt.bitDepth)

			f, err := os.Open(path)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer f.Close()
			got, err := Decode(f)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got.SampleRate != 16000 {
				t.Errorf("SampleRate = %d, want 16000", got.SampleRate)
			}
			if got.BitDepth != tt.bitDepth {
				t.Errorf("BitDepth = %d, want %d", got.BitDepth, tt.bitDepth)
			}
			if len(got.Channels) != tt.channels {
				t.Fatalf("channels = %d, want %d", len(got.Channels), tt.channels)
			}
			if got.Len() != 800 {
				t.Fatalf("Len = %d, want 800", got.Len())
			}
			for c := range a.Channels {
				for i := range a.Channels[c] {
					if d := math.Abs(got.Channels[c][i] - a.Channels[c][i]); d > tt.tol {
						t.Fatalf("channel %d sample %d: got %v, want %v", c, i, got.Channels[c][i], a.Channels[c][i])
					}
				}
			}
		})
	}
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("definitely not a wav file")))
	if !errors.Is(err, ErrInvalidFile) {
		t.Fatalf("err = %v, want ErrInvalidFile", err)
	}
}

func TestDecodeL16(t *testing.T) {
	// Two stereo frames: (16384, -16384), (-32768, 32767).
	data := []byte{0x00, 0x40, 0x00, 0xC0, 0x00, 0x80, 0xFF, 0x7F}
	a, err := DecodeL16(bytes.NewReader(data), 8000, 2)
	if err != nil {
		t.Fatalf("DecodeL16: %v", err)
	}
	want := [][]float64{{0.5, -1}, {-0.5, 32767.0 / 32768}}
	for c := range want {
		for i := range want[c] {
			if a.Channels[c][i] != want[c][i] {
				t.Errorf("channel %d sample %d: got %v, want %v", c, i, a.Channels[c][i], want[c][i])
			}
		}
	}
	if a.SampleRate != 8000 {
		t.Errorf("SampleRate = %d, want 8000", a.SampleRate)
	}
}

func TestDecodeL16Truncated(t *testing.T) {
	_, err := DecodeL16(bytes.NewReader([]byte{0, 1, 2}), 8000, 1)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestLoadDispatch(t *testing.T) {
	a, err := Load([]byte{0x00, 0x40}, "clip.PCM", 10000, 1)
	if err != nil {
		t.Fatalf("Load pcm: %v", err)
	}
	if a.Len() != 1 || a.Channels[0][0] != 0.5 {
		t.Fatalf("Load pcm = %v, want [[0.5]]", a.Channels)
	}
	if _, err := Load([]byte{0x00, 0x40}, "clip.wav", 10000, 1); !errors.Is(err, ErrInvalidFile) {
		t.Fatalf("Load wav err = %v, want ErrInvalidFile", err)
	}
}

func TestMonoAndChannel(t *testing.T) {
	a := &Audio{SampleRate: 8000, Channels: [][]float64{{1, 0}, {0, 1}}}
	mono := a.Mono()
	if mono[0] != 0.5 || mono[1] != 0.5 {
		t.Errorf("Mono = %v, want [0.5 0.5]", mono)
	}
	if _, err := a.Channel(2); !errors.Is(err, ErrNoChannel) {
		t.Errorf("Channel(2) err = %v, want ErrNoChannel", err)
	}
	ch, err := a.Channel(1)
	if err != nil || ch[1] != 1 {
		t.Errorf("Channel(1) = %v, %v", ch, err)
	}
}
