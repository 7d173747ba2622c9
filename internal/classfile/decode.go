package classfile

import (
	"fmt"

	"github.com/hierarchy-analysis/internal/descriptor"
	"github.com/hierarchy-analysis/internal/signature"
	apperrors "github.com/hierarchy-analysis/pkg/errors"
)

// ClassInfo is the structural summary of one decoded class file.
type ClassInfo struct {
	// Name is the slashed name of the class.
	Name string
	// Superclass is empty only for classes with no super_class entry, i.e. java/lang/Object.
	Superclass      string
	Interfaces      []string
	AccessFlags     AccessFlags
	MajorVersion    uint16
	MinorVersion    uint16
	Fields          []descriptor.FieldDescriptor
	Methods         []descriptor.MethodDescriptor
	ReferencedTypes []string
}

// IsInterface reports whether the class is an interface (annotations included).
func (c *ClassInfo) IsInterface() bool { return c.AccessFlags.Has(AccInterface) }

// IsAbstract reports whether the class is abstract.
func (c *ClassInfo) IsAbstract() bool { return c.AccessFlags.Has(AccAbstract) }

// IsEnum reports whether the class is an enum.
func (c *ClassInfo) IsEnum() bool { return c.AccessFlags.Has(AccEnum) }

// Version renders the class-file version as "major.minor".
func (c *ClassInfo) Version() string {
	return fmt.Sprintf("%d.%d", c.MajorVersion, c.MinorVersion)
}

// constant is one decoded pool entry. It lives only for the duration of a decode.
type constant struct {
	tag   Tag
	off   int
	a, b  uint16
	str   string
	value uint64
}

type fullPool struct {
	entries  []constant
	expected string
}

func (p *fullPool) count() int                   { return len(p.entries) }
func (p *fullPool) tagAt(i int) Tag              { return p.entries[i].tag }
func (p *fullPool) operands(i int) (a, b uint16) { return p.entries[i].a, p.entries[i].b }
func (p *fullPool) utf8At(i int) (string, error) { return p.entries[i].str, nil }
func (p *fullPool) offsetOf(i int) int           { return p.entries[i].off }
func (p *fullPool) expectedName() string         { return p.expected }

func readFullPool(r *reader) (*fullPool, error) {
	p := &fullPool{expected: r.expected}
	count, err := walkPool(r, func(i int, tag Tag, off int) error {
		c := constant{tag: tag, off: off}
		var err error
		switch tag {
		case TagUtf8:
			var n uint16
			if n, err = r.u2("utf8 length"); err != nil {
				return err
			}
			var raw []byte
			if raw, err = r.bytes(int(n), "utf8 bytes"); err != nil {
				return err
			}
			s, ok := decodeModifiedUTF8(raw)
			if !ok {
				return malformed(r.expected, off, "invalid modified UTF-8 at index %d", i)
			}
			c.str = s
		case TagInteger, TagFloat:
			var v uint32
			v, err = r.u4(tag.String())
			c.value = uint64(v)
		case TagLong, TagDouble:
			c.value, err = r.u8(tag.String())
		case TagMethodHandle:
			var kind uint8
			if kind, err = r.u1("method handle kind"); err != nil {
				return err
			}
			c.a = uint16(kind)
			c.b, err = r.u2("method handle reference")
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			c.a, err = r.u2(tag.String() + " index")
		default:
			if c.a, err = r.u2(tag.String() + " first index"); err != nil {
				return err
			}
			c.b, err = r.u2(tag.String() + " second index")
		}
		if err != nil {
			return err
		}
		for len(p.entries) < i {
			p.entries = append(p.entries, constant{})
		}
		p.entries = append(p.entries, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for len(p.entries) < count {
		p.entries = append(p.entries, constant{})
	}
	return p, nil
}

// Decode parses a class file. When expected is non-empty (slashed or dotted)
// the decoded this_class must name the same type.
func Decode(data []byte, expected string) (*ClassInfo, error) {
	expected = descriptor.ToSlashed(expected)
	r := newReader(data, expected)

	major, minor, err := r.header()
	if err != nil {
		return nil, err
	}
	pool, err := readFullPool(r)
	if err != nil {
		return nil, err
	}

	info := &ClassInfo{MajorVersion: major, MinorVersion: minor}

	access, err := r.u2("access flags")
	if err != nil {
		return nil, err
	}
	info.AccessFlags = AccessFlags(access)

	off := r.off
	thisIdx, err := r.u2("this_class")
	if err != nil {
		return nil, err
	}
	if info.Name, err = classRef(pool, thisIdx, off); err != nil {
		return nil, err
	}
	if expected != "" && info.Name != expected {
		return nil, &FormatError{
			Kind:     apperrors.ErrClassNameMismatch,
			Expected: expected,
			Offset:   off,
			Reason:   fmt.Sprintf("decoded name is %s", info.Name),
		}
	}

	off = r.off
	superIdx, err := r.u2("super_class")
	if err != nil {
		return nil, err
	}
	switch {
	case superIdx != 0:
		if info.Superclass, err = classRef(pool, superIdx, off); err != nil {
			return nil, err
		}
	case info.Name != descriptor.ObjectName && !info.AccessFlags.Has(AccModule):
		return nil, malformed(expected, off, "class %s has no superclass", info.Name)
	}

	n, err := r.u2("interfaces count")
	if err != nil {
		return nil, err
	}
	info.Interfaces = make([]string, 0, n)
	for i := 0; i < int(n); i++ {
		off = r.off
		idx, err := r.u2("interface index")
		if err != nil {
			return nil, err
		}
		iface, err := classRef(pool, idx, off)
		if err != nil {
			return nil, err
		}
		info.Interfaces = append(info.Interfaces, iface)
	}

	if n, err = r.u2("fields count"); err != nil {
		return nil, err
	}
	for i := 0; i < int(n); i++ {
		m, err := readMember(r, pool, false)
		if err != nil {
			return nil, err
		}
		info.Fields = append(info.Fields, descriptor.FieldDescriptor{
			ClassName: info.Name, Name: m.name, Signature: m.sig, Static: m.access.Has(AccStatic),
		})
	}

	if n, err = r.u2("methods count"); err != nil {
		return nil, err
	}
	for i := 0; i < int(n); i++ {
		m, err := readMember(r, pool, true)
		if err != nil {
			return nil, err
		}
		info.Methods = append(info.Methods, descriptor.MethodDescriptor{
			ClassName: info.Name, Name: m.name, Signature: m.sig, Static: m.access.Has(AccStatic),
		})
	}

	if err := readAttributes(r, pool, "class"); err != nil {
		return nil, err
	}
	if rest := r.remaining(); rest != 0 {
		return nil, malformed(expected, r.off, "%d trailing bytes after class attributes", rest)
	}

	if info.ReferencedTypes, err = referencedTypes(pool); err != nil {
		return nil, err
	}
	return info, nil
}

type member struct {
	access AccessFlags
	name   string
	sig    string
}

func readMember(r *reader, pool *fullPool, isMethod bool) (member, error) {
	kind := "field"
	if isMethod {
		kind = "method"
	}
	start := r.off
	access, err := r.u2(kind + " access flags")
	if err != nil {
		return member{}, err
	}
	nameIdx, err := r.u2(kind + " name index")
	if err != nil {
		return member{}, err
	}
	sigIdx, err := r.u2(kind + " descriptor index")
	if err != nil {
		return member{}, err
	}
	m := member{access: AccessFlags(access)}
	if m.name, err = utf8Ref(pool, nameIdx, start); err != nil {
		return member{}, err
	}
	if m.sig, err = utf8Ref(pool, sigIdx, start); err != nil {
		return member{}, err
	}
	if isMethod {
		_, err = signature.ParseMethod(m.sig)
	} else {
		err = signature.ParseType(m.sig)
	}
	if err != nil {
		return member{}, malformed(r.expected, start, "%s %s: %v", kind, m.name, err)
	}
	if err := readAttributes(r, pool, kind+" "+m.name); err != nil {
		return member{}, err
	}
	return m, nil
}

// readAttributes skips an attribute table. Contents are opaque; only the name
// index is validated and each body is consumed by its declared length.
func readAttributes(r *reader, pool *fullPool, owner string) error {
	n, err := r.u2(owner + " attributes count")
	if err != nil {
		return err
	}
	for i := 0; i < int(n); i++ {
		off := r.off
		nameIdx, err := r.u2("attribute name index")
		if err != nil {
			return err
		}
		if _, err := utf8Ref(pool, nameIdx, off); err != nil {
			return err
		}
		length, err := r.u4("attribute length")
		if err != nil {
			return err
		}
		if uint64(length) > uint64(r.remaining()) {
			return malformed(r.expected, off, "%s attribute length %d exceeds remaining %d bytes", owner, length, r.remaining())
		}
		if err := r.skip(int(length), "attribute body"); err != nil {
			return err
		}
	}
	return nil
}
