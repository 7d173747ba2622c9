// Package signature decomposes JVM type and method signatures into type tokens
// and operand-stack slot metrics.
package signature

import (
	"fmt"
	"iter"
	"strings"

	apperrors "github.com/hierarchy-analysis/pkg/errors"
)

// SyntaxError reports a signature that cannot be tokenized.
type SyntaxError struct {
	Signature string
	Offset    int
	Reason    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid signature %q at offset %d: %s", e.Signature, e.Offset, e.Reason)
}

// Unwrap lets errors.Is match apperrors.ErrInvalidSignature.
func (e *SyntaxError) Unwrap() error {
	return apperrors.ErrInvalidSignature
}

func syntaxErr(sig string, off int, format string, args ...interface{}) error {
	return &SyntaxError{Signature: sig, Offset: off, Reason: fmt.Sprintf(format, args...)}
}

// TokenEnd returns the offset just past the single type token starting at start.
// Generic class type arguments and type variables are accepted.
// The void token is only legal where allowVoid is set.
func TokenEnd(sig string, start int, allowVoid bool) (int, error) {
	i := start
	for i < len(sig) && sig[i] == '[' {
		i++
	}
	if i >= len(sig) {
		return 0, syntaxErr(sig, i, "unexpected end of signature")
	}
	switch c := sig[i]; c {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return i + 1, nil
	case 'V':
		if !allowVoid || i != start {
			return 0, syntaxErr(sig, i, "void is only valid as a return type")
		}
		return i + 1, nil
	case 'L', 'T':
		depth := 0
		for j := i + 1; j < len(sig); j++ {
			switch sig[j] {
			case '<':
				depth++
			case '>':
				depth--
				if depth < 0 {
					return 0, syntaxErr(sig, j, "unbalanced '>'")
				}
			case ';':
				if depth == 0 {
					if j == i+1 {
						return 0, syntaxErr(sig, j, "empty class name")
					}
					return j + 1, nil
				}
			}
		}
		return 0, syntaxErr(sig, i, "unterminated class type")
	default:
		return 0, syntaxErr(sig, i, "unrecognized type token %q", c)
	}
}

// SlotWidth is the number of operand-stack slots a value of the given type occupies.
func SlotWidth(typeSig string) int {
	if typeSig == "J" || typeSig == "D" {
		return 2
	}
	if typeSig == "V" {
		return 0
	}
	return 1
}

// IsReference reports whether typeSig denotes an object or array type.
func IsReference(typeSig string) bool {
	return strings.HasPrefix(typeSig, "L") || strings.HasPrefix(typeSig, "[") || strings.HasPrefix(typeSig, "T")
}

// ForEachClassName calls fn with the name inside every "L...;" run of sig.
// It is a plain scan with no grammar checks, matching how class-file
// constant pools are mined for referenced types.
func ForEachClassName(sig string, fn func(name string)) {
	for len(sig) > 0 {
		start := strings.IndexByte(sig, 'L')
		if start < 0 {
			return
		}
		end := strings.IndexByte(sig[start:], ';')
		if end < 0 {
			return
		}
		fn(sig[start+1 : start+end])
		sig = sig[start+end+1:]
	}
}

// MethodSignature is a tokenized "(params)return" signature.
// Only the start offset of each parameter is stored; tokens are sliced on demand.
type MethodSignature struct {
	sig     string
	offsets []int
	retAt   int
}

// ParseMethod tokenizes a method signature.
func ParseMethod(sig string) (*MethodSignature, error) {
	if !strings.HasPrefix(sig, "(") {
		return nil, syntaxErr(sig, 0, "method signature must start with '('")
	}
	m := &MethodSignature{sig: sig}
	i := 1
	for {
		if i >= len(sig) {
			return nil, syntaxErr(sig, i, "missing ')'")
		}
		if sig[i] == ')' {
			break
		}
		end, err := TokenEnd(sig, i, false)
		if err != nil {
			return nil, err
		}
		m.offsets = append(m.offsets, i)
		i = end
	}
	m.retAt = i + 1
	end, err := TokenEnd(sig, m.retAt, true)
	if err != nil {
		return nil, err
	}
	if end != len(sig) {
		return nil, syntaxErr(sig, end, "trailing characters after return type")
	}
	return m, nil
}

// MustParseMethod is ParseMethod for signatures known to be valid.
func MustParseMethod(sig string) *MethodSignature {
	m, err := ParseMethod(sig)
	if err != nil {
		panic(err)
	}
	return m
}

// String returns the original signature.
func (m *MethodSignature) String() string {
	return m.sig
}

// NumParameters returns the number of declared parameters.
func (m *MethodSignature) NumParameters() int {
	return len(m.offsets)
}

// Parameter returns the type token of parameter i.
func (m *MethodSignature) Parameter(i int) string {
	end := m.retAt - 1
	if i+1 < len(m.offsets) {
		end = m.offsets[i+1]
	}
	return m.sig[m.offsets[i]:end]
}

// Parameters yields each parameter index and type token in declaration order.
func (m *MethodSignature) Parameters() iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		for i := range m.offsets {
			if !yield(i, m.Parameter(i)) {
				return
			}
		}
	}
}

// ReturnType returns the return type token, "V" for void.
func (m *MethodSignature) ReturnType() string {
	return m.sig[m.retAt:]
}

// ArgumentSlots is the total number of stack slots taken by the parameters,
// excluding any receiver.
func (m *MethodSignature) ArgumentSlots() int {
	n := 0
	for _, p := range m.Parameters() {
		n += SlotWidth(p)
	}
	return n
}

// SlotsFromTopOfStack is the number of slots above parameter i at a call site,
// i.e. the combined width of all parameters declared after it.
func (m *MethodSignature) SlotsFromTopOfStack(i int) int {
	n := 0
	for j := len(m.offsets) - 1; j > i; j-- {
		n += SlotWidth(m.Parameter(j))
	}
	return n
}

// ParameterIndexForSlot maps a slot distance from the top of the stack back to
// the parameter occupying it, or -1 if no parameter does.
func (m *MethodSignature) ParameterIndexForSlot(fromTop int) int {
	n := 0
	for j := len(m.offsets) - 1; j >= 0; j-- {
		w := SlotWidth(m.Parameter(j))
		if fromTop >= n && fromTop < n+w {
			return j
		}
		n += w
	}
	return -1
}

// ParseType validates that sig is exactly one field type token.
func ParseType(sig string) error {
	end, err := TokenEnd(sig, 0, false)
	if err != nil {
		return err
	}
	if end != len(sig) {
		return syntaxErr(sig, end, "trailing characters after type")
	}
	return nil
}
