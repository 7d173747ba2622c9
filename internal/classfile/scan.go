package classfile

import "encoding/binary"

// rawPool indexes a constant pool by byte offset without materializing any
// entry. Utf8 text is decoded only when a Class or NameAndType entry needs it.
type rawPool struct {
	data     []byte
	offs     []int
	tags     []Tag
	expected string
}

func (p *rawPool) count() int      { return len(p.offs) }
func (p *rawPool) tagAt(i int) Tag { return p.tags[i] }
func (p *rawPool) offsetOf(i int) int {
	return p.offs[i]
}
func (p *rawPool) expectedName() string { return p.expected }

func (p *rawPool) operands(i int) (a, b uint16) {
	at := p.offs[i] + 1
	a = binary.BigEndian.Uint16(p.data[at:])
	if payloadWidth[p.tags[i]] >= 4 {
		b = binary.BigEndian.Uint16(p.data[at+2:])
	}
	return a, b
}

func (p *rawPool) utf8At(i int) (string, error) {
	at := p.offs[i] + 1
	n := int(binary.BigEndian.Uint16(p.data[at:]))
	s, ok := decodeModifiedUTF8(p.data[at+2 : at+2+n])
	if !ok {
		return "", malformed(p.expected, p.offs[i], "invalid modified UTF-8 at index %d", i)
	}
	return s, nil
}

// ScanReferencedTypes returns the same referenced-type set Decode would, reading
// only the header and constant pool. Bytes after the pool are not examined.
func ScanReferencedTypes(data []byte) ([]string, error) {
	r := newReader(data, "")
	if _, _, err := r.header(); err != nil {
		return nil, err
	}
	p := &rawPool{data: data}
	count, err := walkPool(r, func(i int, tag Tag, off int) error {
		for len(p.offs) < i {
			p.offs = append(p.offs, 0)
			p.tags = append(p.tags, 0)
		}
		p.offs = append(p.offs, off)
		p.tags = append(p.tags, tag)
		return skipPayload(r, tag)
	})
	if err != nil {
		return nil, err
	}
	for len(p.offs) < count {
		p.offs = append(p.offs, 0)
		p.tags = append(p.tags, 0)
	}
	return referencedTypes(p)
}
