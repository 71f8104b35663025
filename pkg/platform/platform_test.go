package platform

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNamespaces(t *testing.T) {
	tests := []struct {
		name     string
		prefixes []string
		class    string
		want     bool
	}{
		{name: "default java", class: "java/util/List", want: true},
		{name: "default javax", class: "javax/swing/JFrame", want: true},
		{name: "default jdk", class: "jdk/internal/misc/Unsafe", want: true},
		{name: "default sun", class: "sun/misc/Unsafe", want: true},
		{name: "user class", class: "com/example/Foo"},
		{name: "prefix needs separator", class: "javafx/Foo"},
		{name: "custom dotted", prefixes: []string{"org.acme"}, class: "org/acme/Util", want: true},
		{name: "custom excludes default", prefixes: []string{"org/acme/"}, class: "java/lang/String"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, New(tt.prefixes...).Contains(tt.class))
		})
	}
}

func TestNamespaces_Descriptor(t *testing.T) {
	require.True(t, Default.ContainsDescriptor("Ljava/lang/String;"))
	require.True(t, Default.ContainsDescriptor("[[Ljava/lang/String;"))
	require.False(t, Default.ContainsDescriptor("Lcom/example/Foo;"))
	require.False(t, Default.ContainsDescriptor("I"))
	require.False(t, Default.ContainsDescriptor("[I"))
}

func TestNew_Normalizes(t *testing.T) {
	n := New(" java ", "java/", "", "org.acme")
	require.Equal(t, []string{"java/", "org/acme/"}, n.Prefixes())
	require.Equal(t, DefaultPrefixes, New().Prefixes())
}

func TestHelpers(t *testing.T) {
	require.True(t, IsLanguageOwner("java/util/Map"))
	require.False(t, IsLanguageOwner("java/net/URL"))
	require.True(t, IsCollectionDescriptor("Ljava/util/List;"))
	require.True(t, IsCollectionDescriptor("Ljava/util/concurrent/CopyOnWriteArraySet;"))
	require.True(t, IsCollectionDescriptor("[Lcom/example/Listener;"))
	require.False(t, IsCollectionDescriptor("[I"))
	require.False(t, IsCollectionDescriptor("Ljava/util/Map;"))
}
