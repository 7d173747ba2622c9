// Package filter classifies class names into platform, library and
// application code by package prefix.
package filter

import (
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ClassCategory is the origin of a class.
type ClassCategory int

const (
	// CategoryUnknown is returned for empty or unparseable names.
	CategoryUnknown ClassCategory = iota
	// CategoryArray covers array types, whose only supertypes are fixed by the platform.
	CategoryArray
	// CategoryPlatform covers the runtime library.
	CategoryPlatform
	// CategoryLibrary covers well-known third-party libraries.
	CategoryLibrary
	// CategoryApplication covers everything else on the classpath.
	CategoryApplication
)

// String returns the string representation of the category.
func (c ClassCategory) String() string {
	switch c {
	case CategoryArray:
		return "array"
	case CategoryPlatform:
		return "platform"
	case CategoryLibrary:
		return "library"
	case CategoryApplication:
		return "application"
	default:
		return "unknown"
	}
}

const defaultCacheSize = 10000

// ClassFilter classifies class names. Names may be slashed or dotted.
// It is safe for concurrent use.
type ClassFilter struct {
	mu sync.RWMutex

	platformPrefixes    []string
	libraryPrefixes     []string
	applicationPrefixes []string
	excludedPrefixes    []string

	cache *lru.Cache[string, ClassCategory]
}

// NewClassFilter creates a filter with the default platform and library rules.
func NewClassFilter() *ClassFilter {
	f := &ClassFilter{}
	f.cache, _ = lru.New[string, ClassCategory](defaultCacheSize)
	f.initDefaults()
	return f
}

func (f *ClassFilter) initDefaults() {
	f.platformPrefixes = []string{
		"java.",
		"javax.",
		"jdk.",
		"sun.",
		"com.sun.",
		"org.w3c.dom.",
		"org.xml.sax.",
		"org.ietf.jgss.",
	}

	f.libraryPrefixes = []string{
		"org.springframework.",
		"org.apache.",
		"org.slf4j.",
		"ch.qos.logback.",
		"com.google.common.",
		"com.google.protobuf.",
		"com.fasterxml.jackson.",
		"io.netty.",
		"io.grpc.",
		"io.opentelemetry.",
		"net.bytebuddy.",
		"org.hibernate.",
		"org.junit.",
		"kotlin.",
		"scala.",
	}
}

// Classify returns the category of a class name.
func (f *ClassFilter) Classify(className string) ClassCategory {
	if className == "" {
		return CategoryUnknown
	}
	if cat, ok := f.cache.Get(className); ok {
		return cat
	}
	cat := f.classifyUncached(className)
	f.cache.Add(className, cat)
	return cat
}

func (f *ClassFilter) classifyUncached(className string) ClassCategory {
	if className[0] == '[' || strings.HasSuffix(className, "[]") {
		return CategoryArray
	}
	name := strings.ReplaceAll(className, "/", ".")

	f.mu.RLock()
	defer f.mu.RUnlock()

	// Explicit application prefixes win over the built-in rules.
	if hasAnyPrefix(name, f.applicationPrefixes) && !hasAnyPrefix(name, f.excludedPrefixes) {
		return CategoryApplication
	}
	if hasAnyPrefix(name, f.platformPrefixes) {
		return CategoryPlatform
	}
	if hasAnyPrefix(name, f.libraryPrefixes) {
		return CategoryLibrary
	}
	if len(f.applicationPrefixes) > 0 || hasAnyPrefix(name, f.excludedPrefixes) {
		// With explicit prefixes configured, anything unmatched is a dependency.
		return CategoryLibrary
	}
	return CategoryApplication
}

func hasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// IsPlatform reports whether the class belongs to the runtime library.
func (f *ClassFilter) IsPlatform(className string) bool {
	return f.Classify(className) == CategoryPlatform
}

// IsLibrary reports whether the class belongs to a third-party library.
func (f *ClassFilter) IsLibrary(className string) bool {
	return f.Classify(className) == CategoryLibrary
}

// IsApplication reports whether the class is application code.
func (f *ClassFilter) IsApplication(className string) bool {
	return f.Classify(className) == CategoryApplication
}

// AddApplicationPrefix marks a package prefix as application code. Once any
// application prefix is set, unmatched classes count as library code.
func (f *ClassFilter) AddApplicationPrefix(prefix string) {
	f.addPrefix(&f.applicationPrefixes, prefix)
}

// AddApplicationPrefixes adds several application prefixes.
func (f *ClassFilter) AddApplicationPrefixes(prefixes []string) {
	for _, p := range prefixes {
		f.AddApplicationPrefix(p)
	}
}

// ApplicationPrefixes returns the configured application prefixes.
func (f *ClassFilter) ApplicationPrefixes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]string, len(f.applicationPrefixes))
	copy(out, f.applicationPrefixes)
	return out
}

// AddExcludedPrefix keeps a package out of the application category even
// when an application prefix matches it.
func (f *ClassFilter) AddExcludedPrefix(prefix string) {
	f.addPrefix(&f.excludedPrefixes, prefix)
}

// AddPlatformPrefix adds a runtime library prefix.
func (f *ClassFilter) AddPlatformPrefix(prefix string) {
	f.addPrefix(&f.platformPrefixes, prefix)
}

// AddLibraryPrefix adds a third-party library prefix.
func (f *ClassFilter) AddLibraryPrefix(prefix string) {
	f.addPrefix(&f.libraryPrefixes, prefix)
}

func (f *ClassFilter) addPrefix(list *[]string, prefix string) {
	prefix = strings.ReplaceAll(prefix, "/", ".")
	if prefix == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range *list {
		if p == prefix {
			return
		}
	}
	*list = append(*list, prefix)
	f.cache.Purge()
}

// ClearCache drops memoized classifications.
func (f *ClassFilter) ClearCache() {
	f.cache.Purge()
}

// CacheLen returns the number of memoized classifications.
func (f *ClassFilter) CacheLen() int {
	return f.cache.Len()
}

// SetCacheSize changes the classification cache bound.
func (f *ClassFilter) SetCacheSize(size int) {
	if size <= 0 {
		return
	}
	f.cache.Resize(size)
}

// DefaultFilter is the shared filter with the built-in rules.
var DefaultFilter = NewClassFilter()

// Classify classifies a class using the default filter.
func Classify(className string) ClassCategory {
	return DefaultFilter.Classify(className)
}

// IsPlatform checks the default filter.
func IsPlatform(className string) bool {
	return DefaultFilter.IsPlatform(className)
}
