package wavfile

import (
	"encoding/binary"
	"io"
)

// l16Reader decodes interleaved little-endian 16-bit PCM into per-channel
// float64 samples. Bytes of a frame split across reads are carried over.
type l16Reader struct {
	r        io.Reader
	channels int
	buf      []byte
	carry    int
}

func newL16Reader(r io.Reader, channels, framesPerRead int) *l16Reader {
	return &l16Reader{
		r:        r,
		channels: channels,
		buf:      make([]byte, framesPerRead*2*channels),
	}
}

// readFrames decodes the complete frames of one underlying read, appending
// one sample per channel to dst. It returns io.ErrUnexpectedEOF when the
// stream ends inside a frame.
func (lr *l16Reader) readFrames(dst [][]float64) (int, error) {
	n, err := lr.r.Read(lr.buf[lr.carry:])
	n += lr.carry

	frameBytes := 2 * lr.channels
	whole := n - n%frameBytes
	for off := 0; off < whole; off += frameBytes {
		for c := range lr.channels {
			s := int16(binary.LittleEndian.Uint16(lr.buf[off+2*c:]))
			dst[c] = append(dst[c], float64(s)/32768)
		}
	}
	lr.carry = copy(lr.buf, lr.buf[whole:n])

	if err == io.EOF && lr.carry > 0 {
		return whole / frameBytes, io.ErrUnexpectedEOF
	}
	return whole / frameBytes, err
}
