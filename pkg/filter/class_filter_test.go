package filter

import (
	"sync"
	"testing"
)

func TestClassFilter_Classify(t *testing.T) {
	f := NewClassFilter()

	tests := []struct {
		className string
		expected  ClassCategory
	}{
		{"", CategoryUnknown},

		// Arrays
		{"[I", CategoryArray},
		{"[Ljava/lang/String;", CategoryArray},
		{"java.lang.String[]", CategoryArray},

		// Platform, slashed and dotted
		{"java/lang/String", CategoryPlatform},
		{"java.util.HashMap", CategoryPlatform},
		{"javax/servlet/Servlet", CategoryPlatform},
		{"sun.misc.Unsafe", CategoryPlatform},
		{"com/sun/proxy/$Proxy0", CategoryPlatform},
		{"jdk.internal.misc.Unsafe", CategoryPlatform},
		{"org/w3c/dom/Node", CategoryPlatform},

		// Libraries
		{"org/springframework/context/ApplicationContext", CategoryLibrary},
		{"io.netty.channel.ChannelHandler", CategoryLibrary},
		{"com/google/common/collect/ImmutableList", CategoryLibrary},
		{"org.apache.kafka.clients.consumer.KafkaConsumer", CategoryLibrary},

		// Everything else
		{"com/example/MyService", CategoryApplication},
		{"Main", CategoryApplication},
		{"javaish/Thing", CategoryApplication},
	}

	for _, tt := range tests {
		t.Run(tt.className, func(t *testing.T) {
			got := f.Classify(tt.className)
			if got != tt.expected {
				t.Errorf("Classify(%q) = %v, want %v", tt.className, got, tt.expected)
			}
		})
	}
}

func TestClassFilter_ApplicationPrefixes(t *testing.T) {
	f := NewClassFilter()
	f.AddApplicationPrefixes([]string{"com/acme/", "org.apache.acme."})
	f.AddExcludedPrefix("com.acme.generated.")

	tests := []struct {
		className string
		expected  ClassCategory
	}{
		{"com/acme/Order", CategoryApplication},
		{"org/apache/acme/Plugin", CategoryApplication},
		{"com/acme/generated/Stub", CategoryLibrary},
		{"com/other/Thing", CategoryLibrary},
		{"java/lang/String", CategoryPlatform},
		{"org/apache/commons/Lang", CategoryLibrary},
	}

	for _, tt := range tests {
		t.Run(tt.className, func(t *testing.T) {
			if got := f.Classify(tt.className); got != tt.expected {
				t.Errorf("Classify(%q) = %v, want %v", tt.className, got, tt.expected)
			}
		})
	}

	prefixes := f.ApplicationPrefixes()
	if len(prefixes) != 2 || prefixes[0] != "com.acme." {
		t.Errorf("ApplicationPrefixes() = %v", prefixes)
	}
}

func TestClassFilter_AddPrefixInvalidatesCache(t *testing.T) {
	f := NewClassFilter()

	if !f.IsApplication("net/corp/Thing") {
		t.Fatal("expected application before prefix is added")
	}
	if f.CacheLen() == 0 {
		t.Error("expected classification to be cached")
	}

	f.AddLibraryPrefix("net/corp/")
	if !f.IsLibrary("net/corp/Thing") {
		t.Error("expected library after prefix is added")
	}

	f.AddPlatformPrefix("net.corp.rt.")
	if !f.IsPlatform("net.corp.rt.Boot") {
		t.Error("expected platform prefix to apply")
	}

	f.AddLibraryPrefix("net/corp/")
	f.ClearCache()
	if f.CacheLen() != 0 {
		t.Errorf("CacheLen() = %d after ClearCache", f.CacheLen())
	}
}

func TestClassCategory_String(t *testing.T) {
	tests := map[ClassCategory]string{
		CategoryUnknown:     "unknown",
		CategoryArray:       "array",
		CategoryPlatform:    "platform",
		CategoryLibrary:     "library",
		CategoryApplication: "application",
	}
	for cat, want := range tests {
		if got := cat.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", cat, got, want)
		}
	}
}

func TestDefaultFilter(t *testing.T) {
	if !IsPlatform("java/lang/Object") {
		t.Error("java/lang/Object should be platform")
	}
	if Classify("com/example/App") != CategoryApplication {
		t.Error("com/example/App should be application")
	}
}

func TestClassFilter_Concurrent(t *testing.T) {
	f := NewClassFilter()
	f.SetCacheSize(16)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				f.Classify("java/lang/String")
				f.Classify("com/example/Service")
				if j == 100 && i == 0 {
					f.AddApplicationPrefix("com/example/")
				}
			}
		}(i)
	}
	wg.Wait()

	if !f.IsApplication("com/example/Service") {
		t.Error("expected application after concurrent prefix add")
	}
}
