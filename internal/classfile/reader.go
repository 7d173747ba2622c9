package classfile

import "encoding/binary"

// reader is a big-endian cursor over an in-memory class file.
// Every read is bounds-checked; a short read yields a truncation error that
// carries the offset at which the data ran out.
type reader struct {
	data     []byte
	off      int
	expected string
}

func newReader(data []byte, expected string) *reader {
	return &reader{data: data, expected: expected}
}

func (r *reader) need(n int, what string) error {
	if n < 0 || len(r.data)-r.off < n {
		return malformed(r.expected, r.off, "truncated stream reading %s: need %d bytes, have %d", what, n, len(r.data)-r.off)
	}
	return nil
}

func (r *reader) u1(what string) (uint8, error) {
	if err := r.need(1, what); err != nil {
		return 0, err
	}
	v := r.data[r.off]
	r.off++
	return v, nil
}

func (r *reader) u2(what string) (uint16, error) {
	if err := r.need(2, what); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v, nil
}

func (r *reader) u4(what string) (uint32, error) {
	if err := r.need(4, what); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) u8(what string) (uint64, error) {
	if err := r.need(8, what); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v, nil
}

// bytes returns the next n bytes without copying.
func (r *reader) bytes(n int, what string) ([]byte, error) {
	if err := r.need(n, what); err != nil {
		return nil, err
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) skip(n int, what string) error {
	if err := r.need(n, what); err != nil {
		return err
	}
	r.off += n
	return nil
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

// header checks the magic word and returns major and minor versions.
func (r *reader) header() (major, minor uint16, err error) {
	magic, err := r.u4("magic")
	if err != nil {
		return 0, 0, err
	}
	if magic != Magic {
		return 0, 0, malformed(r.expected, 0, "bad magic 0x%08X", magic)
	}
	if minor, err = r.u2("minor version"); err != nil {
		return 0, 0, err
	}
	if major, err = r.u2("major version"); err != nil {
		return 0, 0, err
	}
	return major, minor, nil
}
