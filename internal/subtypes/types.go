package subtypes

import (
	"fmt"
	"strings"

	"github.com/hierarchy-analysis/internal/descriptor"
	"github.com/hierarchy-analysis/internal/signature"
	apperrors "github.com/hierarchy-analysis/pkg/errors"
)

// Type is a reference type: an object type, or an array whose innermost
// element is either an object type or a primitive. The zero value is invalid.
// Types are comparable and may be used as map keys.
type Type struct {
	elem *descriptor.ClassDescriptor
	prim byte
	dims int
}

// ObjectType returns the non-array type for d. Array descriptors are split
// into element and dimensions.
func ObjectType(f *descriptor.Factory, d *descriptor.ClassDescriptor) Type {
	if !d.IsArray() {
		return Type{elem: d}
	}
	t, err := TypeFromSignature(f, d.Name())
	if err != nil {
		return Type{elem: d}
	}
	return t
}

// ArrayOf wraps elem in dims more array dimensions.
func ArrayOf(elem Type, dims int) Type {
	elem.dims += dims
	return elem
}

// PrimitiveArray returns an array of the primitive with the given signature
// character (one of BCDFIJSZ).
func PrimitiveArray(prim byte, dims int) Type {
	return Type{prim: prim, dims: dims}
}

// TypeFromSignature parses a reference type from a field signature
// ("Ljava/lang/String;", "[[I") or a bare slashed or dotted class name.
func TypeFromSignature(f *descriptor.Factory, sig string) (Type, error) {
	if sig == "" {
		return Type{}, apperrors.Wrap(apperrors.CodeInvalidSignature, "empty type", nil)
	}
	if sig[0] != '[' && !strings.HasSuffix(sig, ";") {
		if len(sig) == 1 && strings.ContainsRune("BCDFIJSZV", rune(sig[0])) {
			return Type{}, &signature.SyntaxError{Signature: sig, Reason: "primitive is not a reference type"}
		}
		return Type{elem: f.Class(sig)}, nil
	}
	if err := signature.ParseType(sig); err != nil {
		return Type{}, err
	}
	dims := 0
	for sig[dims] == '[' {
		dims++
	}
	rest := sig[dims:]
	if rest[0] == 'L' {
		return Type{elem: f.Class(rest), dims: dims}, nil
	}
	if rest[0] == 'T' {
		return Type{}, &signature.SyntaxError{Signature: sig, Offset: dims, Reason: "type variable is not a concrete type"}
	}
	return Type{prim: rest[0], dims: dims}, nil
}

// IsValid reports whether t was produced by one of the constructors.
func (t Type) IsValid() bool { return t.elem != nil || t.prim != 0 }

// IsArray reports whether t has at least one dimension.
func (t Type) IsArray() bool { return t.dims > 0 }

// Dimensions returns the number of array dimensions, zero for object types.
func (t Type) Dimensions() int { return t.dims }

// IsPrimitiveArray reports whether the innermost element is a primitive.
func (t Type) IsPrimitiveArray() bool { return t.elem == nil && t.prim != 0 }

// Descriptor returns the object type's handle, or the innermost element's
// handle for arrays of objects. It is nil for primitive arrays.
func (t Type) Descriptor() *descriptor.ClassDescriptor { return t.elem }

// BasicType returns t with every array dimension removed. For primitive
// arrays the result is not itself a valid reference type.
func (t Type) BasicType() Type {
	t.dims = 0
	return t
}

// Signature returns the field signature of t.
func (t Type) Signature() string {
	base := string(t.prim)
	if t.elem != nil {
		base = descriptor.ToSignature(t.elem.Name())
	}
	return strings.Repeat("[", t.dims) + base
}

func (t Type) String() string {
	var base string
	if t.elem != nil {
		base = t.elem.DottedName()
	} else {
		base = primitiveName(t.prim)
	}
	return base + strings.Repeat("[]", t.dims)
}

func primitiveName(c byte) string {
	switch c {
	case 'B':
		return "byte"
	case 'C':
		return "char"
	case 'D':
		return "double"
	case 'F':
		return "float"
	case 'I':
		return "int"
	case 'J':
		return "long"
	case 'S':
		return "short"
	case 'Z':
		return "boolean"
	}
	return fmt.Sprintf("?%c", c)
}

// typePair is an unordered pair key; construct it with pairOf.
type typePair struct {
	a, b Type
}

func pairOf(a, b Type) typePair {
	if typeLess(b, a) {
		a, b = b, a
	}
	return typePair{a: a, b: b}
}

func typeLess(a, b Type) bool {
	ai, bi := -1, -1
	if a.elem != nil {
		ai = a.elem.Index()
	}
	if b.elem != nil {
		bi = b.elem.Index()
	}
	if ai != bi {
		return ai < bi
	}
	if a.prim != b.prim {
		return a.prim < b.prim
	}
	return a.dims < b.dims
}
