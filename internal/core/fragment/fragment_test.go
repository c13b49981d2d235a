package fragment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/maptrace/internal/core/fragment"
)

func TestParse_Basic(t *testing.T) {
	s := fragment.Parse("#map=3/51.5/0&layers=ab")

	v, ok := s.Value("map")
	require.True(t, ok)
	assert.Equal(t, "3/51.5/0", v)

	v, ok = s.Value("layers")
	require.True(t, ok)
	assert.Equal(t, "ab", v)

	assert.Equal(t, "map=3/51.5/0&layers=ab", s.String())
}

func TestParse_Empty(t *testing.T) {
	for _, text := range []string{"", "#", "&&", "#&"} {
		s := fragment.Parse(text)
		assert.Equal(t, 0, s.Len(), text)
		assert.Equal(t, "", fragment.Serialize(s), text)
	}
}

func TestParse_FlagsAndEmptyValues(t *testing.T) {
	s := fragment.Parse("path&x=&y=1=2")

	e, ok := s.Get("path")
	require.True(t, ok)
	assert.True(t, e.Flag)
	_, ok = s.Value("path")
	assert.False(t, ok, "a flag has no string value")

	v, ok := s.Value("x")
	require.True(t, ok)
	assert.Equal(t, "", v)

	v, ok = s.Value("y")
	require.True(t, ok)
	assert.Equal(t, "1=2", v, "only the first '=' separates key and value")

	assert.Equal(t, "path&x=&y=1=2", s.String())
}

func TestSerialize_CanonicalOrder(t *testing.T) {
	s := fragment.Parse("path=gAAAgAAA&popups=a,b&foo&overlays=x&map=4/1/2&layers=b")
	assert.Equal(t, "map=4/1/2&layers=b&overlays=x&popups=a,b&path=gAAAgAAA&foo", s.String())
	assert.Equal(t, []string{"map", "layers", "overlays", "popups", "path", "foo"}, s.Keys())
}

func TestParse_DuplicateKeepsFirstPosition(t *testing.T) {
	s := fragment.Parse("a=1&b=2&a=3")
	assert.Equal(t, "a=3&b=2", s.String())
}

func TestDeleteThenSetMovesToEnd(t *testing.T) {
	s := fragment.Parse("path=AAAAAAAA&zoom=3&q")
	s.Delete("path")
	s.Set("path", "gAAAgAAA")
	assert.Equal(t, "zoom=3&q&path=gAAAgAAA", s.String())
}

func TestSetOverwriteKeepsPosition(t *testing.T) {
	s := fragment.Parse("a=1&b=2")
	s.Set("a", "9")
	s.SetFlag("b")
	assert.Equal(t, "a=9&b", s.String())
}

func TestDelete_Missing(t *testing.T) {
	s := fragment.Parse("a=1")
	s.Delete("b")
	assert.Equal(t, "a=1", s.String())
	assert.False(t, s.Has("b"))
}

func TestSerialize_Idempotent(t *testing.T) {
	inputs := []string{
		"#map=3/51.5/0&layers=ab",
		"z&y=1&map=2/0/0&&popups=p%20q",
		"overlays=a,b&path=&x",
	}
	for _, in := range inputs {
		once := fragment.Parse(in).String()
		twice := fragment.Parse(once).String()
		assert.Equal(t, once, twice, in)
	}
}

func TestClone_Independent(t *testing.T) {
	s := fragment.Parse("a=1&b=2")
	c := s.Clone()
	c.Delete("a")
	c.Set("c", "3")
	assert.Equal(t, "a=1&b=2", s.String())
	assert.Equal(t, "b=2&c=3", c.String())
}

func TestZeroValueState(t *testing.T) {
	var s fragment.State
	s.Set("k", "v")
	assert.Equal(t, "k=v", s.String())
}
