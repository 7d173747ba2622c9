package classfile

import (
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/hierarchy-analysis/internal/descriptor"
	"github.com/hierarchy-analysis/internal/signature"
)

// poolView is the read side of a constant pool shared by the full decoder and
// the raw scanner, so both extract referenced types with identical rules.
type poolView interface {
	// count is the constant_pool_count field; valid indices are 1..count-1.
	count() int
	// tagAt returns 0 for index 0 and for the unusable slot after a wide entry.
	tagAt(i int) Tag
	// operands returns the u2 operands of a reference entry.
	operands(i int) (a, b uint16)
	utf8At(i int) (string, error)
	// offsetOf is the byte offset of entry i, for error messages.
	offsetOf(i int) int
	expectedName() string
}

// walkPool reads constant_pool_count and then visits every entry, advancing
// the index by two after Long and Double entries. visit is called with the
// reader positioned just after the tag byte and must consume the payload.
func walkPool(r *reader, visit func(index int, tag Tag, off int) error) (int, error) {
	n, err := r.u2("constant pool count")
	if err != nil {
		return 0, err
	}
	count := int(n)
	if count == 0 {
		return 0, malformed(r.expected, r.off-2, "constant pool count is zero")
	}
	for i := 1; i < count; i++ {
		off := r.off
		b, err := r.u1("constant tag")
		if err != nil {
			return 0, err
		}
		tag := Tag(b)
		if _, ok := payloadWidth[tag]; !ok {
			return 0, malformed(r.expected, off, "invalid constant tag %d at index %d", b, i)
		}
		if err := visit(i, tag, off); err != nil {
			return 0, err
		}
		if tag.Wide() {
			if i+1 >= count {
				return 0, malformed(r.expected, off, "%s at index %d overruns constant pool count %d", tag, i, count)
			}
			i++
		}
	}
	return count, nil
}

// skipPayload consumes the payload of an entry whose tag was just read.
func skipPayload(r *reader, tag Tag) error {
	if tag == TagUtf8 {
		n, err := r.u2("utf8 length")
		if err != nil {
			return err
		}
		return r.skip(int(n), "utf8 bytes")
	}
	return r.skip(payloadWidth[tag], tag.String()+" payload")
}

func checkIndex(p poolView, idx uint16, want Tag, from int) error {
	i := int(idx)
	if i <= 0 || i >= p.count() {
		return malformed(p.expectedName(), from, "constant pool index %d out of range [1,%d)", i, p.count())
	}
	got := p.tagAt(i)
	if got == 0 {
		return malformed(p.expectedName(), from, "constant pool index %d refers to an unusable slot", i)
	}
	if got != want {
		return malformed(p.expectedName(), from, "constant pool index %d is %s, expected %s", i, got, want)
	}
	return nil
}

func utf8Ref(p poolView, idx uint16, from int) (string, error) {
	if err := checkIndex(p, idx, TagUtf8, from); err != nil {
		return "", err
	}
	return p.utf8At(int(idx))
}

// classRef resolves a Class entry to its raw name, which may be an array descriptor.
func classRef(p poolView, idx uint16, from int) (string, error) {
	if err := checkIndex(p, idx, TagClass, from); err != nil {
		return "", err
	}
	nameIdx, _ := p.operands(int(idx))
	return utf8Ref(p, nameIdx, p.offsetOf(int(idx)))
}

func nameAndTypeSignature(p poolView, idx uint16, from int) (string, error) {
	if err := checkIndex(p, idx, TagNameAndType, from); err != nil {
		return "", err
	}
	_, sigIdx := p.operands(int(idx))
	return utf8Ref(p, sigIdx, p.offsetOf(int(idx)))
}

// referencedTypes mines every class name the pool mentions: Class entries
// directly (array descriptors by signature scan) and member references through
// both their owner and the types in their NameAndType signature. The result is
// sorted and free of duplicates.
func referencedTypes(p poolView) ([]string, error) {
	set := make(map[string]struct{})
	add := func(name string) {
		if descriptor.IsValidClassName(name) {
			set[name] = struct{}{}
		}
	}
	addName := func(name string) {
		if strings.IndexByte(name, '[') >= 0 {
			signature.ForEachClassName(name, add)
			return
		}
		add(name)
	}

	for i := 1; i < p.count(); i++ {
		tag := p.tagAt(i)
		switch {
		case tag == TagClass:
			nameIdx, _ := p.operands(i)
			name, err := utf8Ref(p, nameIdx, p.offsetOf(i))
			if err != nil {
				return nil, err
			}
			addName(name)
		case tag.IsMemberRef():
			classIdx, natIdx := p.operands(i)
			owner, err := classRef(p, classIdx, p.offsetOf(i))
			if err != nil {
				return nil, err
			}
			addName(owner)
			sig, err := nameAndTypeSignature(p, natIdx, p.offsetOf(i))
			if err != nil {
				return nil, err
			}
			signature.ForEachClassName(sig, add)
		}
	}

	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// decodeModifiedUTF8 converts the JVM's modified UTF-8 (two-byte NUL,
// surrogate pairs as separate three-byte sequences) to a Go string.
func decodeModifiedUTF8(b []byte) (string, bool) {
	plain := true
	for _, c := range b {
		if c == 0 || c >= 0x80 {
			plain = false
			break
		}
	}
	if plain {
		return string(b), true
	}

	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == 0:
			return "", false
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", false
			}
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return "", false
			}
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return "", false
		}
	}
	return string(utf16.Decode(units)), true
}
