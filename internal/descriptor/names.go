package descriptor

import "strings"

// Well-known type names in slashed form.
const (
	ObjectName       = "java/lang/Object"
	SerializableName = "java/io/Serializable"
	CloneableName    = "java/lang/Cloneable"
)

// ToSlashed converts a dotted class name to slashed form.
func ToSlashed(name string) string {
	if strings.IndexByte(name, '.') >= 0 {
		return strings.ReplaceAll(name, ".", "/")
	}
	return name
}

// ToDotted converts a slashed class name to dotted form.
func ToDotted(name string) string {
	if strings.IndexByte(name, '/') >= 0 {
		return strings.ReplaceAll(name, "/", ".")
	}
	return name
}

// PackageName returns the dotted package of a slashed or dotted class name,
// empty for the default package.
func PackageName(name string) string {
	name = ToDotted(name)
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[:i]
}

// SimpleName strips the package and any enclosing class names.
func SimpleName(name string) string {
	name = ToDotted(name)
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '$'); i > 0 {
		name = name[i+1:]
	}
	return name
}

// ToSignature returns the field signature for a slashed class name.
// Array descriptors and names already in "L...;" form are returned unchanged.
func ToSignature(name string) string {
	if name == "" || name[0] == '[' || strings.HasSuffix(name, ";") {
		return name
	}
	return "L" + name + ";"
}

// FromFieldSignature returns the class named by an "L...;" signature, or "" when
// the signature is not a class type.
func FromFieldSignature(sig string) string {
	if len(sig) < 3 || sig[0] != 'L' || sig[len(sig)-1] != ';' {
		return ""
	}
	return sig[1 : len(sig)-1]
}

// ElementClassName strips array dimensions and the "L...;" wrapper.
// It returns "" for arrays of primitives.
func ElementClassName(name string) string {
	if name == "" || (name[0] != '[' && name[len(name)-1] != ';') {
		return name
	}
	name = strings.TrimLeft(name, "[")
	if c := FromFieldSignature(name); c != "" {
		return c
	}
	if len(name) == 1 {
		return ""
	}
	return name
}

// IsValidClassName accepts binary names, dotted names, array descriptors and
// class field descriptors.
func IsValidClassName(name string) bool {
	return name != "" &&
		(isValidBinaryName(name) ||
			isValidDottedName(name) ||
			isValidArrayDescriptor(name) ||
			isValidClassDescriptor(name))
}

func isValidBinaryName(name string) bool {
	return !strings.ContainsAny(name, ".[;")
}

func isValidDottedName(name string) bool {
	return !strings.ContainsAny(name, "/[;")
}

func isValidArrayDescriptor(name string) bool {
	for strings.HasPrefix(name, "[") {
		name = name[1:]
	}
	return len(name) != 0 && (isValidClassDescriptor(name) || isBaseType(name))
}

func isValidClassDescriptor(name string) bool {
	return len(name) >= 2 && name[0] == 'L' && name[len(name)-1] == ';' &&
		isValidBinaryName(name[1:len(name)-1])
}

func isBaseType(name string) bool {
	return len(name) == 1 && strings.ContainsAny(name, "BCDFIJSZ")
}

// IsAnonymous reports whether the innermost name segment is purely numeric, as in "Outer$1".
func IsAnonymous(name string) bool {
	i := strings.LastIndexByte(name, '$')
	if i < 0 || i+1 >= len(name) {
		return false
	}
	for _, c := range name[i+1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// ResourceName maps a slashed class name to its archive entry name.
func ResourceName(name string) string {
	return ToSlashed(name) + ".class"
}

// ClassNameFromResource maps an archive entry name back to a slashed class name.
// ok is false for entries that are not class files.
func ClassNameFromResource(resource string) (name string, ok bool) {
	resource = strings.TrimPrefix(strings.ReplaceAll(resource, "\\", "/"), "/")
	if !strings.HasSuffix(resource, ".class") {
		return "", false
	}
	name = strings.TrimSuffix(resource, ".class")
	if name == "" || name == "module-info" || strings.HasSuffix(name, "/package-info") || name == "package-info" {
		return "", false
	}
	return name, true
}
