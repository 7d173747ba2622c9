package classfile

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hierarchy-analysis/internal/classfile/classfiletest"
	"github.com/hierarchy-analysis/internal/descriptor"
	apperrors "github.com/hierarchy-analysis/pkg/errors"
)

func TestDecode_ZeroInterfaces(t *testing.T) {
	data := classfiletest.New("com/acme/Plain").Version(61, 0).Bytes()

	info, err := Decode(data, "com/acme/Plain")
	require.NoError(t, err)

	assert.Equal(t, "com/acme/Plain", info.Name)
	assert.Equal(t, "java/lang/Object", info.Superclass)
	assert.Empty(t, info.Interfaces)
	assert.Empty(t, info.Fields)
	assert.Empty(t, info.Methods)
	assert.False(t, info.IsInterface())
	assert.Equal(t, "61.0", info.Version())
	assert.Equal(t, []string{"com/acme/Plain", "java/lang/Object"}, info.ReferencedTypes)
}

func TestDecode_MultipleInterfacesKeepOrder(t *testing.T) {
	data := classfiletest.New("com/acme/Multi").
		Extends("com/acme/Base").
		Implements("java/lang/Runnable", "java/io/Serializable", "com/acme/Marker").
		Bytes()

	info, err := Decode(data, "")
	require.NoError(t, err)

	assert.Equal(t, "com/acme/Base", info.Superclass)
	assert.Equal(t, []string{"java/lang/Runnable", "java/io/Serializable", "com/acme/Marker"}, info.Interfaces)
}

func TestDecode_StaticAndInstanceMembersWithSameSignature(t *testing.T) {
	data := classfiletest.New("com/acme/Twins").
		Field(classfiletest.AccStatic, "count", "I").
		Field(classfiletest.AccPublic, "count", "I").
		Method(classfiletest.AccPublic|classfiletest.AccStatic, "run", "()V").
		MemberAttribute("Code", []byte{0, 1, 0, 1, 0, 0, 0, 1, 0xB1, 0, 0, 0, 0}).
		Method(classfiletest.AccPublic, "run", "()V").
		MemberAttribute("Deprecated", nil).
		ClassAttribute("SourceFile", []byte{0, 1}).
		Bytes()

	info, err := Decode(data, "com.acme.Twins")
	require.NoError(t, err)

	assert.Equal(t, []descriptor.FieldDescriptor{
		{ClassName: "com/acme/Twins", Name: "count", Signature: "I", Static: true},
		{ClassName: "com/acme/Twins", Name: "count", Signature: "I", Static: false},
	}, info.Fields)
	assert.Equal(t, []descriptor.MethodDescriptor{
		{ClassName: "com/acme/Twins", Name: "run", Signature: "()V", Static: true},
		{ClassName: "com/acme/Twins", Name: "run", Signature: "()V", Static: false},
	}, info.Methods)
}

func TestDecode_WideEntryFollowedByClassRef(t *testing.T) {
	b := classfiletest.New("com/acme/Wide")
	b.Utf8("com/acme/AfterLong")
	b.Utf8("com/acme/AfterDouble")
	longIdx := b.Long(42)
	afterLong := b.Class("com/acme/AfterLong")
	doubleIdx := b.Double(1.5)
	afterDouble := b.Class("com/acme/AfterDouble")
	require.Equal(t, longIdx+2, afterLong)
	require.Equal(t, doubleIdx+2, afterDouble)

	data := b.Implements("com/acme/AfterLong", "com/acme/AfterDouble").Bytes()

	info, err := Decode(data, "com/acme/Wide")
	require.NoError(t, err)
	assert.Equal(t, []string{"com/acme/AfterLong", "com/acme/AfterDouble"}, info.Interfaces)
	assert.Contains(t, info.ReferencedTypes, "com/acme/AfterLong")
	assert.Contains(t, info.ReferencedTypes, "com/acme/AfterDouble")

	scanned, err := ScanReferencedTypes(data)
	require.NoError(t, err)
	assert.Equal(t, info.ReferencedTypes, scanned)
}

func TestDecode_RootObjectHasNoSuperclass(t *testing.T) {
	info, err := Decode(classfiletest.New("java/lang/Object").Bytes(), "java/lang/Object")
	require.NoError(t, err)
	assert.Equal(t, "", info.Superclass)

	info, err = Decode(classfiletest.New("module-info").Access(classfiletest.AccModule).Extends("").Bytes(), "")
	require.NoError(t, err)
	assert.Equal(t, "", info.Superclass)
}

func TestDecode_MissingSuperclassRejected(t *testing.T) {
	for _, b := range []*classfiletest.Builder{
		classfiletest.New("com/acme/Orphan").Extends(""),
		classfiletest.New("com/acme/I").Interface().Extends(""),
	} {
		info, err := Decode(b.Bytes(), "")
		assert.Nil(t, info)
		require.Error(t, err)
		assert.True(t, apperrors.IsMalformedClass(err), "got %v", err)
		assert.Contains(t, err.Error(), "has no superclass")
	}
}

func TestDecode_InterfaceFlags(t *testing.T) {
	info, err := Decode(classfiletest.New("com/acme/I").Interface().Bytes(), "")
	require.NoError(t, err)
	assert.True(t, info.IsInterface())
	assert.True(t, info.IsAbstract())
	assert.False(t, info.IsEnum())
}

func refsFixture() []byte {
	b := classfiletest.New("com/acme/Refs")
	b.MethodRef("java/util/List", "add", "(Ljava/lang/Object;)Z")
	b.FieldRef("com/acme/Other", "items", "[Ljava/util/Map;")
	b.Class("[[Ljava/lang/String;")
	b.Class("[I")
	b.MethodRef("[Lcom/acme/Elem;", "clone", "()Ljava/lang/Object;")
	b.String("Lcom/fake/OnlyAString;")
	b.Integer(7)
	b.Float(2.5)
	mh := b.MethodHandle(6, b.MethodRef("com/acme/Refs", "boot", "()V"))
	b.InvokeDynamic(0, "apply", "(Lcom/fake/NotMined;)V")
	b.MethodType("(Lcom/fake/AlsoNotMined;)V")
	b.Module("com.acme")
	b.Package("com/acme")
	_ = mh
	return b.Bytes()
}

func TestDecode_ReferencedTypes(t *testing.T) {
	data := refsFixture()

	info, err := Decode(data, "com/acme/Refs")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"com/acme/Elem",
		"com/acme/Other",
		"com/acme/Refs",
		"java/lang/Object",
		"java/lang/String",
		"java/util/List",
		"java/util/Map",
	}, info.ReferencedTypes)
}

func TestScanReferencedTypes_AgreesWithDecode(t *testing.T) {
	fixtures := map[string][]byte{
		"plain":  classfiletest.New("a/Plain").Bytes(),
		"refs":   refsFixture(),
		"object": classfiletest.New("java/lang/Object").Bytes(),
		"multi":  classfiletest.New("a/M").Implements("a/I", "a/J").Field(0, "f", "La/F;").Bytes(),
	}

	for name, data := range fixtures {
		t.Run(name, func(t *testing.T) {
			info, err := Decode(data, "")
			require.NoError(t, err)
			scanned, err := ScanReferencedTypes(data)
			require.NoError(t, err)
			assert.Equal(t, info.ReferencedTypes, scanned)
		})
	}
}

func TestDecode_NameMismatch(t *testing.T) {
	data := classfiletest.New("com/acme/Plain").Bytes()

	_, err := Decode(data, "com.acme.Other")
	require.Error(t, err)
	assert.True(t, apperrors.IsClassNameMismatch(err))
	assert.False(t, apperrors.IsMalformedClass(err))

	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "com/acme/Other", fe.Expected)
	assert.Contains(t, fe.Error(), "decoded name is com/acme/Plain")
}

func TestDecode_EveryTruncationFails(t *testing.T) {
	data := classfiletest.New("com/acme/Twins").
		Implements("java/lang/Runnable").
		Field(classfiletest.AccStatic, "count", "J").
		Method(classfiletest.AccPublic, "run", "()V").
		MemberAttribute("Code", []byte{1, 2, 3}).
		Bytes()
	_, err := Decode(data, "")
	require.NoError(t, err)

	for n := 0; n < len(data); n++ {
		_, err := Decode(data[:n], "")
		require.Error(t, err, "prefix of %d bytes decoded", n)
		assert.True(t, apperrors.IsMalformedClass(err), "prefix of %d bytes: %v", n, err)
	}
}

func patchU16(data []byte, off int, v uint16) []byte {
	out := append([]byte(nil), data...)
	binary.BigEndian.PutUint16(out[off:], v)
	return out
}

func TestDecode_Malformed(t *testing.T) {
	wideLast := classfiletest.New("a/W")
	wideLast.Long(1)
	wideLastData := patchU16(wideLast.Bytes(), 8, wideLast.PoolCount()-1)

	badTag := classfiletest.New("a/T")
	badTag.RawEntry(2, nil)

	danglingClass := classfiletest.New("a/D")
	danglingClass.RawEntry(7, []byte{0x00, 0x63})

	wrongKind := classfiletest.New("a/K")
	num := wrongKind.Integer(5)
	wrongKind.RawEntry(7, []byte{byte(num >> 8), byte(num)})

	refIntoWideSlot := classfiletest.New("a/S")
	long := refIntoWideSlot.Long(9)
	refIntoWideSlot.RawEntry(7, []byte{byte((long + 1) >> 8), byte(long + 1)})

	badUTF := classfiletest.New("a/U")
	badUTF.RawUtf8([]byte{0xC0})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", classfiletest.New("a/B").Magic(0xCAFEBABF).Bytes()},
		{"pool count zero", patchU16(classfiletest.New("a/Z").Bytes(), 8, 0)},
		{"invalid tag", badTag.Bytes()},
		{"wide entry overruns pool", wideLastData},
		{"index out of range", danglingClass.Bytes()},
		{"index of wrong kind", wrongKind.Bytes()},
		{"index into second slot of wide entry", refIntoWideSlot.Bytes()},
		{"invalid modified utf8", badUTF.Bytes()},
		{"trailing bytes", classfiletest.New("a/X").Trailing([]byte{0}).Bytes()},
		{"invalid field descriptor", classfiletest.New("a/F").Field(0, "x", "Q").Bytes()},
		{"invalid method descriptor", classfiletest.New("a/M").Method(0, "m", "(I").Bytes()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Decode(tt.data, "")
			assert.Nil(t, info)
			require.Error(t, err)
			assert.True(t, apperrors.IsMalformedClass(err), "got %v", err)
		})
	}
}

func TestScanReferencedTypes_PoolErrors(t *testing.T) {
	badTag := classfiletest.New("a/T")
	badTag.RawEntry(13, nil)

	_, err := ScanReferencedTypes(badTag.Bytes())
	assert.True(t, apperrors.IsMalformedClass(err))

	_, err = ScanReferencedTypes([]byte{0xCA, 0xFE})
	assert.True(t, apperrors.IsMalformedClass(err))
}

func TestScanReferencedTypes_IgnoresBytesAfterPool(t *testing.T) {
	data := classfiletest.New("a/Plain").Trailing([]byte{1, 2, 3}).Bytes()

	types, err := ScanReferencedTypes(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/Plain", "java/lang/Object"}, types)
}

func TestDecodeModifiedUTF8(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
		ok   bool
	}{
		{"ascii", []byte("java/lang/String"), "java/lang/String", true},
		{"two byte nul", []byte{'a', 0xC0, 0x80, 'b'}, "a\x00b", true},
		{"two byte", []byte{0xC3, 0xA9}, "é", true},
		{"surrogate pair", []byte{0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80}, "\U0001F600", true},
		{"raw nul", []byte{'a', 0x00}, "", false},
		{"truncated sequence", []byte{0xE2, 0x82}, "", false},
		{"four byte form", []byte{0xF0, 0x9F, 0x98, 0x80}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decodeModifiedUTF8(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTag_String(t *testing.T) {
	assert.Equal(t, "Long", TagLong.String())
	assert.Equal(t, "Tag(2)", Tag(2).String())
	assert.True(t, TagDouble.Wide())
	assert.False(t, TagClass.Wide())
	assert.True(t, TagInterfaceMethodref.IsMemberRef())
}
