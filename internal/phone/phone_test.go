package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"national 10 digits", "0708091011", "+2250708091011"},
		{"legacy 8 digits", "07080910", "+22507080910"},
		{"already formatted", "+2250708091011", "+2250708091011"},
		{"00225 prefix", "002250708091011", "+2250708091011"},
		{"225 prefix no plus", "2250708091011", "+2250708091011"},
		{"spaces and dots", "07 08 09.10-11", "+2250708091011"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Format(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatIdempotent(t *testing.T) {
	once, err := Format("0708091011")
	require.NoError(t, err)
	twice, err := Format(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestFormatRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "+2250708", "070809101112", "+225derp"} {
		_, err := Format(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("+2250708091011"))
	assert.False(t, IsValid("hello"))
}
