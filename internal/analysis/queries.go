package analysis

import (
	"github.com/hierarchy-analysis/internal/descriptor"
	"github.com/hierarchy-analysis/internal/subtypes"
	apperrors "github.com/hierarchy-analysis/pkg/errors"
)

// SupertypeResult lists a type and all of its known supertypes.
type SupertypeResult struct {
	Class      string   `json:"class"`
	Supertypes []string `json:"supertypes"`
	Missing    []string `json:"missing,omitempty"`
}

// IsSubtype reports whether sub is a subtype of super. Both may be class
// names (slashed or dotted) or field signatures such as "[Ljava/lang/String;".
// An unresolved type on the deciding path yields an error matching
// apperrors.ErrUnknownSubtype.
func (s *Session) IsSubtype(sub, super string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subType, err := subtypes.TypeFromSignature(s.factory, sub)
	if err != nil {
		return false, err
	}
	superType, err := subtypes.TypeFromSignature(s.factory, super)
	if err != nil {
		return false, err
	}
	return s.engine.IsSubtypeType(subType, superType)
}

// FirstCommonSuperclass returns the nearest common supertype of a and b,
// formatted as a signature for arrays and a slashed name otherwise.
func (s *Session) FirstCommonSuperclass(a, b string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ta, err := subtypes.TypeFromSignature(s.factory, a)
	if err != nil {
		return "", err
	}
	tb, err := subtypes.TypeFromSignature(s.factory, b)
	if err != nil {
		return "", err
	}
	meet, err := s.engine.FirstCommonSuperclass(ta, tb)
	if err != nil {
		return "", err
	}
	if meet.IsArray() {
		return meet.Signature(), nil
	}
	return meet.Descriptor().Name(), nil
}

// Subtypes returns the known subtypes of class, the class itself included,
// or only the direct ones. The result is sorted by name.
func (s *Session) Subtypes(class string, direct bool) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.classDescriptor(class)
	if err != nil {
		return nil, err
	}
	var found []*descriptor.ClassDescriptor
	if direct {
		found, err = s.engine.GetDirectSubtypes(d)
	} else {
		found, err = s.engine.GetSubtypes(d)
	}
	if err != nil {
		return nil, err
	}
	return names(found), nil
}

// Supertypes returns class and its transitive supertypes in breadth-first
// order, along with the unresolved types the walk reached.
func (s *Session) Supertypes(class string) (*SupertypeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.classDescriptor(class)
	if err != nil {
		return nil, err
	}
	set := s.engine.SupertypeSet(d)
	return &SupertypeResult{
		Class:      d.Name(),
		Supertypes: names(set.Members()),
		Missing:    names(set.Missing()),
	}, nil
}

// MissingClasses returns the names reported missing so far, sorted.
func (s *Session) MissingClasses() []string {
	return s.missing.Names()
}

func (s *Session) classDescriptor(class string) (*descriptor.ClassDescriptor, error) {
	if class == "" {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "class name is required", nil)
	}
	t, err := subtypes.TypeFromSignature(s.factory, class)
	if err != nil {
		return nil, err
	}
	if t.IsArray() {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "array types have no class hierarchy entry: "+class, nil)
	}
	return t.Descriptor(), nil
}

func names(ds []*descriptor.ClassDescriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Name()
	}
	return out
}
