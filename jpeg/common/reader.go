package common

import (
	"encoding/binary"
	"io"
)

// Reader provides low-level JPEG segment reading.
type Reader struct {
	r   io.Reader
	buf [2]byte
}

// NewReader creates a new JPEG reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	_, err := io.ReadFull(r.r, r.buf[:1])
	if err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

// ReadUint16 reads a 16-bit big-endian value.
func (r *Reader) ReadUint16() (uint16, error) {
	_, err := io.ReadFull(r.r, r.buf[:2])
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(r.buf[:2]), nil
}

// ReadMarker reads the next marker, returning its value including the 0xFF
// prefix. A stuffed 0x00 byte encountered where a marker was expected is
// reported as ErrInvalidMarker.
func (r *Reader) ReadMarker() (uint16, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if b != 0xFF {
		return 0, ErrInvalidMarker
	}

	// Padding 0xFF bytes may precede a marker.
	for {
		b, err = r.ReadByte()
		if err != nil {
			return 0, err
		}
		if b != 0xFF {
			break
		}
	}

	if b == 0x00 {
		return 0, ErrInvalidMarker
	}

	return uint16(0xFF00) | uint16(b), nil
}

// ReadSegment reads a length-prefixed segment and returns its payload
// (without the length field). Per spec.md §9's open question, a length
// below 2 (which cannot even cover the length field itself) is rejected.
func (r *Reader) ReadSegment() ([]byte, error) {
	length, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	if length < 2 {
		return nil, ErrSegmentTooSmall
	}

	data := make([]byte, length-2)
	if err := r.ReadFull(data); err != nil {
		return nil, err
	}
	return data, nil
}

// ReadFull reads exactly len(buf) bytes.
func (r *Reader) ReadFull(buf []byte) error {
	_, err := io.ReadFull(r.r, buf)
	return err
}

// Skip discards n bytes.
func (r *Reader) Skip(n int) error {
	if n <= 0 {
		return nil
	}
	_, err := io.CopyN(io.Discard, r.r, int64(n))
	return err
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	return r.r.Read(p)
}
