package version

import (
	"encoding/json"
	"regexp"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion_FollowsSemverOrDev(t *testing.T) {
	// Given: a binary built with or without ldflags

	// When: reading Version

	// Then: it is either "dev" or a semver string
	if IsDev() {
		return
	}
	semver := regexp.MustCompile(`^v?\d+\.\d+\.\d+(-[a-zA-Z0-9.]+)?$`)
	require.True(t, semver.MatchString(Version), "got %s", Version)
}

func TestString_ContainsBuildInfo(t *testing.T) {
	str := String()

	assert.Contains(t, str, "spor "+Version)
	assert.Contains(t, str, "commit: "+Commit)
	assert.Contains(t, str, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestShort_ReturnsVersion(t *testing.T) {
	assert.Equal(t, Version, Short())
}

func TestIsDev_FollowsVersion(t *testing.T) {
	// Given: an injected version
	orig := Version
	t.Cleanup(func() { Version = orig })
	Version = "1.2.3"

	// Then: the build is not a dev build
	assert.False(t, IsDev())

	Version = "dev"
	assert.True(t, IsDev())
}

func TestGetInfo_IsJSONSerializable(t *testing.T) {
	// Given: the current build info
	info := GetInfo()

	// When: it is marshaled
	data, err := json.Marshal(info)
	require.NoError(t, err)

	// Then: every field is present under its snake_case key
	var parsed map[string]string
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, "spor", parsed["program"])
	assert.Equal(t, Version, parsed["version"])
	assert.Equal(t, runtime.Version(), parsed["go_version"])
	for _, key := range []string{"commit", "date", "os", "arch"} {
		assert.Contains(t, parsed, key)
	}
}
