package wavfile

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"
)

func readAllL16(t *testing.T, r io.Reader, channels int) ([][]float64, error) {
	t.Helper()
	lr := newL16Reader(r, channels, 2)
	dst := make([][]float64, channels)
	for {
		_, err := lr.readFrames(dst)
		if err == io.EOF {
			return dst, nil
		}
		if err != nil {
			return dst, err
		}
	}
}

func TestL16ReaderStereo(t *testing.T) {
	// (16384, -16384), (-32768, 32767), (0, 1)
	data := []byte{0x00, 0x40, 0x00, 0xC0, 0x00, 0x80, 0xFF, 0x7F, 0x00, 0x00, 0x01, 0x00}
	got, err := readAllL16(t, bytes.NewReader(data), 2)
	if err != nil {
		t.Fatalf("readFrames: %v", err)
	}
	want := [][]float64{{0.5, -1, 0}, {-0.5, 32767.0 / 32768, 1.0 / 32768}}
	for c := range want {
		if len(got[c]) != len(want[c]) {
			t.Fatalf("channel %d len = %d, want %d", c, len(got[c]), len(want[c]))
		}
		for i := range want[c] {
			if got[c][i] != want[c][i] {
				t.Errorf("channel %d sample %d = %v, want %v", c, i, got[c][i], want[c][i])
			}
		}
	}
}

func TestL16ReaderOneByteReads(t *testing.T) {
	data := []byte{0x00, 0x40, 0x00, 0xC0, 0x00, 0x20, 0x00, 0xE0}
	got, err := readAllL16(t, iotest.OneByteReader(bytes.NewReader(data)), 2)
	if err != nil {
		t.Fatalf("readFrames: %v", err)
	}
	if len(got[0]) != 2 || got[0][1] != 0.25 || got[1][1] != -0.25 {
		t.Fatalf("got %v, want [[0.5 0.25] [-0.5 -0.25]]", got)
	}
}

func TestL16ReaderPartialFrame(t *testing.T) {
	// One full stereo frame followed by half a frame.
	data := []byte{0x00, 0x40, 0x00, 0xC0, 0x00, 0x40}
	got, err := readAllL16(t, bytes.NewReader(data), 2)
	if err != io.ErrUnexpectedEOF {
		t.Fatalf("err = %v, want io.ErrUnexpectedEOF", err)
	}
	if len(got[0]) != 1 || len(got[1]) != 1 {
		t.Fatalf("decoded %d/%d samples, want 1/1", len(got[0]), len(got[1]))
	}
}
