// Package descriptor interns type names into canonical handles.
//
// A Factory owns one intern table. Two lookups of the same name through the
// same Factory return the same *ClassDescriptor, so callers compare handles
// with == and key sets by Index. Factories are not safe for concurrent use;
// each analysis session owns its own.
package descriptor

import (
	"fmt"

	"github.com/hierarchy-analysis/internal/signature"
)

// ClassDescriptor is the interned handle for one class, interface or array type.
type ClassDescriptor struct {
	name  string
	index int
}

// Name returns the slashed class name, or the descriptor for array types.
func (d *ClassDescriptor) Name() string { return d.name }

// DottedName returns the name with '/' replaced by '.'.
func (d *ClassDescriptor) DottedName() string { return ToDotted(d.name) }

// PackageName returns the dotted package name.
func (d *ClassDescriptor) PackageName() string { return PackageName(d.name) }

// SimpleName returns the unqualified name.
func (d *ClassDescriptor) SimpleName() string { return SimpleName(d.name) }

// Signature returns the field signature, e.g. "Ljava/lang/String;".
func (d *ClassDescriptor) Signature() string { return ToSignature(d.name) }

// Index is the dense position of the handle in its Factory, starting at 0.
func (d *ClassDescriptor) Index() int { return d.index }

// IsArray reports whether the handle names an array type.
func (d *ClassDescriptor) IsArray() bool { return len(d.name) > 0 && d.name[0] == '[' }

// String returns the slashed name.
func (d *ClassDescriptor) String() string { return d.name }

// FieldDescriptor identifies a field by owner, name, signature and staticness.
type FieldDescriptor struct {
	ClassName string
	Name      string
	Signature string
	Static    bool
}

func (f FieldDescriptor) String() string {
	return fmt.Sprintf("%s.%s : %s%s", ToDotted(f.ClassName), f.Name, f.Signature, staticSuffix(f.Static))
}

// MethodDescriptor identifies a method by owner, name, signature and staticness.
type MethodDescriptor struct {
	ClassName string
	Name      string
	Signature string
	Static    bool
}

func (m MethodDescriptor) String() string {
	return fmt.Sprintf("%s.%s%s%s", ToDotted(m.ClassName), m.Name, m.Signature, staticSuffix(m.Static))
}

// Parse tokenizes the method signature.
func (m MethodDescriptor) Parse() (*signature.MethodSignature, error) {
	return signature.ParseMethod(m.Signature)
}

func staticSuffix(static bool) string {
	if static {
		return " (static)"
	}
	return ""
}

// Factory is an intern table for class, field and method descriptors.
type Factory struct {
	classes map[string]*ClassDescriptor
	byIndex []*ClassDescriptor
	fields  map[FieldDescriptor]*FieldDescriptor
	methods map[MethodDescriptor]*MethodDescriptor
}

// NewFactory creates an empty intern table.
func NewFactory() *Factory {
	return &Factory{
		classes: make(map[string]*ClassDescriptor),
		fields:  make(map[FieldDescriptor]*FieldDescriptor),
		methods: make(map[MethodDescriptor]*MethodDescriptor),
	}
}

// Class returns the handle for a class name. Dotted names and "L...;"
// signatures are normalized to the slashed form first.
func (f *Factory) Class(name string) *ClassDescriptor {
	name = canonicalName(name)
	if d, ok := f.classes[name]; ok {
		return d
	}
	d := &ClassDescriptor{name: name, index: len(f.byIndex)}
	f.classes[name] = d
	f.byIndex = append(f.byIndex, d)
	return d
}

// Lookup returns the handle for name if it has already been interned.
func (f *Factory) Lookup(name string) (*ClassDescriptor, bool) {
	d, ok := f.classes[canonicalName(name)]
	return d, ok
}

// ByIndex returns the handle with the given Index, or nil.
func (f *Factory) ByIndex(i int) *ClassDescriptor {
	if i < 0 || i >= len(f.byIndex) {
		return nil
	}
	return f.byIndex[i]
}

// Len returns the number of interned class handles.
func (f *Factory) Len() int { return len(f.byIndex) }

// Field interns a field descriptor.
func (f *Factory) Field(fd FieldDescriptor) *FieldDescriptor {
	fd.ClassName = ToSlashed(fd.ClassName)
	if p, ok := f.fields[fd]; ok {
		return p
	}
	p := &fd
	f.fields[fd] = p
	return p
}

// Method interns a method descriptor.
func (f *Factory) Method(md MethodDescriptor) *MethodDescriptor {
	md.ClassName = ToSlashed(md.ClassName)
	if p, ok := f.methods[md]; ok {
		return p
	}
	p := &md
	f.methods[md] = p
	return p
}

// canonicalName slashes class names and the element names inside array
// descriptors, so "[Ljava.lang.String;" and "[Ljava/lang/String;" are one type.
func canonicalName(name string) string {
	if n := FromFieldSignature(name); n != "" {
		name = n
	}
	return ToSlashed(name)
}
