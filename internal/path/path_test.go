package path

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLocal(t *testing.T) {
	t.Parallel()

	p, err := Parse("movie://sys/user/a/b")
	require.NoError(t, err)
	require.True(t, p.Address.IsLocal())
	require.Equal(t, "sys", p.Address.System)
	require.Equal(t, []string{"user", "a", "b"}, p.Segments)
	require.Equal(t, "movie://sys/user/a/b", p.String())
}

func TestParseLocalRoot(t *testing.T) {
	t.Parallel()

	p, err := Parse("movie://sys")
	require.NoError(t, err)
	require.Empty(t, p.Segments)
	require.Equal(t, "movie://sys", p.String())
}

func TestParseTCP(t *testing.T) {
	t.Parallel()

	p, err := Parse("movie.tcp://sys@host:1234/user/a")
	require.NoError(t, err)
	require.False(t, p.Address.IsLocal())
	require.Equal(t, "sys", p.Address.System)
	require.Equal(t, "host", p.Address.Host)
	require.Equal(t, 1234, p.Address.Port)
	require.Equal(t, []string{"user", "a"}, p.Segments)
	require.Equal(t, "movie.tcp://sys@host:1234/user/a", p.String())
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()

	cases := []string{
		"",
		"sys/user/a",
		"ftp://sys/user/a",
		"movie.tcp://sys/user/a",
		"movie.tcp://sys@host/user/a",
		"movie.tcp://sys@:1234/user/a",
		"movie://",
	}

	for _, c := range cases {
		_, err := Parse(c)
		require.ErrorIsf(t, err, ErrInvalidPath, "input %q should be invalid", c)
	}
}

func TestNormalizedKeyIgnoresAddress(t *testing.T) {
	t.Parallel()

	local, err := Parse("movie://sys/user/a")
	require.NoError(t, err)

	remote, err := Parse("movie.tcp://sys@host:1234/user/a")
	require.NoError(t, err)

	require.Equal(t, local.NormalizedKey(), remote.NormalizedKey())
}

func TestChildAndParent(t *testing.T) {
	t.Parallel()

	root := Root(Address{Protocol: LocalProtocol, System: "sys"})
	child := root.Child("user").Child("a")

	require.Equal(t, "a", child.Name())
	require.Equal(t, []string{"user", "a"}, child.Segments)

	parent, ok := child.Parent()
	require.True(t, ok)
	require.Equal(t, []string{"user"}, parent.Segments)

	_, ok = root.Parent()
	require.False(t, ok)
}

func TestEqual(t *testing.T) {
	t.Parallel()

	a, err := Parse("movie://sys/user/a")
	require.NoError(t, err)

	b, err := Parse("movie://sys/user/a")
	require.NoError(t, err)

	c, err := Parse("movie://sys/user/b")
	require.NoError(t, err)

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}
