package mod

import "fmt"

// Record is a registered mod.
//
// ID is assigned by the store once and never reused. Active changes only
// through activation and deactivation.
type Record struct {
	ID               uint64        `json:"id" yaml:"id"`
	Name             string        `json:"name" yaml:"name"`
	ArchiveExtension string        `json:"archive_extension" yaml:"archive_extension"`
	Author           *string       `json:"author,omitempty" yaml:"author,omitempty"`
	Version          *Version      `json:"version,omitempty" yaml:"version,omitempty"`
	Description      *string       `json:"description,omitempty" yaml:"description,omitempty"`
	Injection        InjectionKind `json:"injection" yaml:"injection"`
	Active           bool          `json:"active" yaml:"active"`
}

// ArchiveFileName is the name of the record's archive copy in the registry directory.
func (r Record) ArchiveFileName() string {
	return fmt.Sprintf("%d.%s", r.ID, r.ArchiveExtension)
}

// VersionString returns the version or "" when unknown.
func (r Record) VersionString() string {
	if r.Version == nil {
		return ""
	}
	return r.Version.String()
}

// IsNewer reports whether candidate should replace existing.
//
// When either side has no version the answer is true and the decision is
// deferred to the user. Otherwise candidate must be strictly greater.
func IsNewer(candidate, existing Record) bool {
	if candidate.Version == nil || existing.Version == nil {
		return true
	}
	return existing.Version.Less(*candidate.Version)
}
