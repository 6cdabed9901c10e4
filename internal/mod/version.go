package mod

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrInvalidVersion indicates a version string that is not strict semver.
var ErrInvalidVersion = errors.New("invalid semantic version")

// Version is a parsed MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD] version.
// The zero value is not a valid version.
type Version struct {
	raw   string
	canon string
}

// ParseVersion parses a strict semantic version. The "v" prefix and the
// shortened MAJOR or MAJOR.MINOR forms are rejected.
func ParseVersion(s string) (Version, error) {
	if s == "" || strings.HasPrefix(s, "v") {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	norm := "v" + s
	if !semver.IsValid(norm) {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	// Canonical pads missing components and drops build metadata, so a
	// strict version must survive the round trip unchanged.
	withoutBuild := norm
	if i := strings.IndexByte(withoutBuild, '+'); i >= 0 {
		withoutBuild = withoutBuild[:i]
	}
	if semver.Canonical(norm) != withoutBuild {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	return Version{raw: s, canon: norm}, nil
}

// MustParseVersion is ParseVersion for literals; panics on error.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as written.
func (v Version) String() string {
	return v.raw
}

// Compare returns -1, 0 or +1 following semver precedence.
// Build metadata is ignored.
func (v Version) Compare(other Version) int {
	return semver.Compare(v.canon, other.canon)
}

// Less reports whether v orders before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// MarshalJSON renders the version string.
func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.raw)
}

// MarshalYAML renders the version string.
func (v Version) MarshalYAML() (any, error) {
	return v.raw, nil
}
