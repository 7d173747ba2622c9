// Package classfiletest assembles class-file bytes for tests, so fixtures are
// written as Go code with hand-checkable expectations instead of binary blobs.
package classfiletest

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Access flag values used by fixtures.
const (
	AccPublic    uint16 = 0x0001
	AccStatic    uint16 = 0x0008
	AccSuper     uint16 = 0x0020
	AccInterface uint16 = 0x0200
	AccAbstract  uint16 = 0x0400
	AccModule    uint16 = 0x8000
)

type attribute struct {
	name uint16
	data []byte
}

type member struct {
	access     uint16
	name, desc uint16
	attrs      []attribute
}

// Builder accumulates a constant pool and class structure.
// Pool methods return the index of the new (or deduplicated) entry.
type Builder struct {
	pool     bytes.Buffer
	next     uint16
	utf8     map[string]uint16
	classes  map[string]uint16
	magic    uint32
	major    uint16
	minor    uint16
	access   uint16
	this     uint16
	super    uint16
	ifaces   []uint16
	fields   []member
	methods  []member
	attrs    []attribute
	lastList *[]member
	trailing []byte
}

// New starts a public class extending java/lang/Object.
func New(name string) *Builder {
	b := &Builder{
		next:    1,
		utf8:    make(map[string]uint16),
		classes: make(map[string]uint16),
		magic:   0xCAFEBABE,
		major:   52,
		access:  AccPublic | AccSuper,
	}
	b.this = b.Class(name)
	if name != "java/lang/Object" {
		b.super = b.Class("java/lang/Object")
	}
	return b
}

// Extends sets the superclass; an empty name clears it.
func (b *Builder) Extends(name string) *Builder {
	b.super = 0
	if name != "" {
		b.super = b.Class(name)
	}
	return b
}

// Implements appends direct interfaces in order.
func (b *Builder) Implements(names ...string) *Builder {
	for _, n := range names {
		b.ifaces = append(b.ifaces, b.Class(n))
	}
	return b
}

// Interface marks the class as an interface.
func (b *Builder) Interface() *Builder {
	b.access = AccPublic | AccInterface | AccAbstract
	return b
}

// Access overrides the class access flags.
func (b *Builder) Access(flags uint16) *Builder {
	b.access = flags
	return b
}

// Version sets the class-file version.
func (b *Builder) Version(major, minor uint16) *Builder {
	b.major, b.minor = major, minor
	return b
}

// Magic overrides the header word.
func (b *Builder) Magic(m uint32) *Builder {
	b.magic = m
	return b
}

// Field adds a field_info entry.
func (b *Builder) Field(access uint16, name, desc string) *Builder {
	b.fields = append(b.fields, member{access: access, name: b.Utf8(name), desc: b.Utf8(desc)})
	b.lastList = &b.fields
	return b
}

// Method adds a method_info entry.
func (b *Builder) Method(access uint16, name, desc string) *Builder {
	b.methods = append(b.methods, member{access: access, name: b.Utf8(name), desc: b.Utf8(desc)})
	b.lastList = &b.methods
	return b
}

// MemberAttribute attaches an opaque attribute to the most recently added member.
func (b *Builder) MemberAttribute(name string, data []byte) *Builder {
	list := *b.lastList
	last := &list[len(list)-1]
	last.attrs = append(last.attrs, attribute{name: b.Utf8(name), data: data})
	return b
}

// ClassAttribute adds an opaque class-level attribute.
func (b *Builder) ClassAttribute(name string, data []byte) *Builder {
	b.attrs = append(b.attrs, attribute{name: b.Utf8(name), data: data})
	return b
}

// Trailing appends raw bytes after the class structure.
func (b *Builder) Trailing(data []byte) *Builder {
	b.trailing = append(b.trailing, data...)
	return b
}

func (b *Builder) entry(tag byte, payload ...interface{}) uint16 {
	idx := b.next
	b.pool.WriteByte(tag)
	for _, p := range payload {
		_ = binary.Write(&b.pool, binary.BigEndian, p)
	}
	b.next++
	if tag == 5 || tag == 6 {
		b.next++
	}
	return idx
}

// Utf8 adds (or reuses) a Utf8 entry. Text is written as plain UTF-8, which
// matches modified UTF-8 for names without NUL or supplementary characters.
func (b *Builder) Utf8(s string) uint16 {
	if idx, ok := b.utf8[s]; ok {
		return idx
	}
	idx := b.next
	b.pool.WriteByte(1)
	_ = binary.Write(&b.pool, binary.BigEndian, uint16(len(s)))
	b.pool.WriteString(s)
	b.next++
	b.utf8[s] = idx
	return idx
}

// RawUtf8 adds a Utf8 entry with exactly the given bytes, never deduplicated.
func (b *Builder) RawUtf8(raw []byte) uint16 {
	idx := b.next
	b.pool.WriteByte(1)
	_ = binary.Write(&b.pool, binary.BigEndian, uint16(len(raw)))
	b.pool.Write(raw)
	b.next++
	return idx
}

// Class adds (or reuses) a Class entry.
func (b *Builder) Class(name string) uint16 {
	if idx, ok := b.classes[name]; ok {
		return idx
	}
	idx := b.entry(7, b.Utf8(name))
	b.classes[name] = idx
	return idx
}

// Integer adds an Integer entry.
func (b *Builder) Integer(v int32) uint16 { return b.entry(3, v) }

// Float adds a Float entry.
func (b *Builder) Float(v float32) uint16 { return b.entry(4, math.Float32bits(v)) }

// Long adds a Long entry, which takes two pool slots.
func (b *Builder) Long(v int64) uint16 { return b.entry(5, v) }

// Double adds a Double entry, which takes two pool slots.
func (b *Builder) Double(v float64) uint16 { return b.entry(6, math.Float64bits(v)) }

// String adds a String entry.
func (b *Builder) String(s string) uint16 { return b.entry(8, b.Utf8(s)) }

// NameAndType adds a NameAndType entry.
func (b *Builder) NameAndType(name, desc string) uint16 {
	return b.entry(12, b.Utf8(name), b.Utf8(desc))
}

// FieldRef adds a Fieldref entry.
func (b *Builder) FieldRef(owner, name, desc string) uint16 {
	return b.entry(9, b.Class(owner), b.NameAndType(name, desc))
}

// MethodRef adds a Methodref entry.
func (b *Builder) MethodRef(owner, name, desc string) uint16 {
	return b.entry(10, b.Class(owner), b.NameAndType(name, desc))
}

// InterfaceMethodRef adds an InterfaceMethodref entry.
func (b *Builder) InterfaceMethodRef(owner, name, desc string) uint16 {
	return b.entry(11, b.Class(owner), b.NameAndType(name, desc))
}

// MethodHandle adds a MethodHandle entry.
func (b *Builder) MethodHandle(kind uint8, ref uint16) uint16 { return b.entry(15, kind, ref) }

// MethodType adds a MethodType entry.
func (b *Builder) MethodType(desc string) uint16 { return b.entry(16, b.Utf8(desc)) }

// InvokeDynamic adds an InvokeDynamic entry.
func (b *Builder) InvokeDynamic(bootstrap uint16, name, desc string) uint16 {
	return b.entry(18, bootstrap, b.NameAndType(name, desc))
}

// Module adds a Module entry.
func (b *Builder) Module(name string) uint16 { return b.entry(19, b.Utf8(name)) }

// Package adds a Package entry.
func (b *Builder) Package(name string) uint16 { return b.entry(20, b.Utf8(name)) }

// RawEntry writes an arbitrary tag and payload, for malformed fixtures.
func (b *Builder) RawEntry(tag byte, payload []byte) uint16 {
	idx := b.next
	b.pool.WriteByte(tag)
	b.pool.Write(payload)
	b.next++
	return idx
}

// PoolCount is the constant_pool_count the built file will declare.
func (b *Builder) PoolCount() uint16 { return b.next }

// Bytes serializes the class file.
func (b *Builder) Bytes() []byte {
	var out bytes.Buffer
	w := func(v interface{}) { _ = binary.Write(&out, binary.BigEndian, v) }

	w(b.magic)
	w(b.minor)
	w(b.major)
	w(b.next)
	out.Write(b.pool.Bytes())
	w(b.access)
	w(b.this)
	w(b.super)
	w(uint16(len(b.ifaces)))
	for _, i := range b.ifaces {
		w(i)
	}
	for _, list := range [][]member{b.fields, b.methods} {
		w(uint16(len(list)))
		for _, m := range list {
			w(m.access)
			w(m.name)
			w(m.desc)
			writeAttributes(&out, m.attrs)
		}
	}
	writeAttributes(&out, b.attrs)
	out.Write(b.trailing)
	return out.Bytes()
}

func writeAttributes(out *bytes.Buffer, attrs []attribute) {
	_ = binary.Write(out, binary.BigEndian, uint16(len(attrs)))
	for _, a := range attrs {
		_ = binary.Write(out, binary.BigEndian, a.name)
		_ = binary.Write(out, binary.BigEndian, uint32(len(a.data)))
		out.Write(a.data)
	}
}

// Hierarchy is a set of fixture classes keyed by slashed name.
type Hierarchy map[string][]byte

// NewHierarchy returns a Hierarchy already holding java/lang/Object.
func NewHierarchy() Hierarchy {
	return Hierarchy{"java/lang/Object": New("java/lang/Object").Bytes()}
}

// Class adds a class with the given superclass and interfaces.
func (h Hierarchy) Class(name, super string, ifaces ...string) Hierarchy {
	h[name] = New(name).Extends(super).Implements(ifaces...).Bytes()
	return h
}

// Interface adds an interface extending the given interfaces.
func (h Hierarchy) Interface(name string, supers ...string) Hierarchy {
	h[name] = New(name).Interface().Implements(supers...).Bytes()
	return h
}
