package chartable

import "testing"

import "github.com/stretchr/testify/assert"

func TestLookupKnownRunes(t *testing.T) {
	cases := []struct {
		r    rune
		want int
	}{
		{' ', 0},
		{'.', 1},
		{'a', 13},
		{'A', 13},
		{'z', 38},
		{'Z', 38},
		{'0', 39},
		{'9', 48},
		{'=', 49},
	}
	for _, c := range cases {
		got, ok := Lookup(c.r)
		assert.True(t, ok, "rune %q should be in the table", c.r)
		assert.Equal(t, c.want, got)
	}
}

func TestLookupUnknownRune(t *testing.T) {
	_, ok := Lookup('é')
	assert.False(t, ok)
}

func TestMustEncodeAllFound(t *testing.T) {
	codes, allFound := MustEncode("Hi.")
	assert.True(t, allFound)
	assert.Equal(t, []int{20, 21, 1}, codes)
}

func TestMustEncodeSubstitutesZero(t *testing.T) {
	codes, allFound := MustEncode("aéb")
	assert.False(t, allFound)
	assert.Equal(t, []int{13, 0, 14}, codes)
}

func TestMustEncodeCaseInsensitive(t *testing.T) {
	lower, _ := MustEncode("abc")
	upper, _ := MustEncode("ABC")
	assert.Equal(t, lower, upper)
}
