package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSemanticVersion(t *testing.T) {
	v, err := ParseSemanticVersion("1.2.3")
	require.NoError(t, err)
	require.Equal(t, uint(1), v.Major)
	require.Equal(t, uint(2), v.Minor)
	require.Equal(t, uint(3), v.Patch)

	v, err = ParseSemanticVersion("1.2.3-beta.1+build.7")
	require.NoError(t, err)
	require.Equal(t, "beta.1", v.PreRelease)
	require.Equal(t, "build.7", v.Build)
	require.Equal(t, "1.2.3-beta.1+build.7", FormatSemanticVersion(v))

	_, err = ParseSemanticVersion("v1.2.3")
	require.Error(t, err)
	_, err = ParseSemanticVersion("1.2")
	require.Error(t, err)
}

func TestCompareVersionStrings(t *testing.T) {
	cases := []struct {
		v1, v2 string
		want   int
	}{
		{"1.0.0", "2.0.0", -1},
		{"2.1.0", "2.0.9", 1},
		{"1.2.3", "1.2.3", 0},
		{"1.0.0-alpha", "1.0.0", -1},
		{"1.0.0-alpha.1", "1.0.0-alpha.2", -1},
		{"1.0.0+build.1", "1.0.0+build.2", 0},
	}

	for _, tc := range cases {
		got, err := CompareVersionStrings(tc.v1, tc.v2)
		require.NoError(t, err)
		require.Equal(t, tc.want, got, "%s vs %s", tc.v1, tc.v2)
	}
}

func TestIsValidVersionUpgrade(t *testing.T) {
	ok, err := IsValidVersionUpgrade("1.4.0", "1.5.0")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = IsValidVersionUpgrade("1.5.0", "1.4.0")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = IsValidVersionUpgrade("1.5.0", "1.5.0")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = IsValidVersionUpgrade("garbage", "1.0.0")
	require.Error(t, err)
}
