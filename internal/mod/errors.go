package mod

import (
	"errors"
	"fmt"
	"strings"
)

// Code categorizes mod manager failures.
type Code string

const (
	// CodeIO indicates a filesystem failure. Fatal.
	CodeIO Code = "IO"

	// CodeDatabase indicates a persistent store failure. Fatal.
	CodeDatabase Code = "DATABASE"

	// CodeSerialization indicates data that could not be encoded or decoded. Fatal.
	CodeSerialization Code = "SERIALIZATION"

	// CodeInvalidArchive indicates an archive path that cannot be used as a mod.
	CodeInvalidArchive Code = "INVALID_ARCHIVE"

	// CodeArchiveHandling indicates a failure while reading archive contents.
	CodeArchiveHandling Code = "ARCHIVE_HANDLING"

	// CodeInvalidModInfo indicates an unparsable modinfo.json or version string.
	CodeInvalidModInfo Code = "INVALID_MOD_INFO"

	// CodeModNotExisting indicates the requested mod id is not registered.
	CodeModNotExisting Code = "MOD_NOT_EXISTING"

	// CodeModAlreadyActive indicates activation of an active mod.
	CodeModAlreadyActive Code = "MOD_ALREADY_ACTIVE"

	// CodeModAlreadyDeactivated indicates deactivation of an inactive mod.
	CodeModAlreadyDeactivated Code = "MOD_ALREADY_DEACTIVATED"

	// CodeModVersionMismatch indicates an add with a version not newer than the registered one.
	CodeModVersionMismatch Code = "MOD_VERSION_MISMATCH"

	// CodeAppNotInitialized indicates the destination configuration is missing.
	CodeAppNotInitialized Code = "APP_NOT_INITIALIZED"

	// CodeModConflict indicates files already owned by other mods.
	CodeModConflict Code = "MOD_CONFLICT"

	// CodeConfig indicates an invalid configuration value.
	CodeConfig Code = "CONFIG"
)

// ArchiveReason details why an archive path was rejected.
type ArchiveReason string

const (
	PathNotExisting  ArchiveReason = "PathNotExisting"
	PathNotFile      ArchiveReason = "PathNotFile"
	NoExtension      ArchiveReason = "NoExtension"
	InvalidExtension ArchiveReason = "InvalidExtension"
)

// Conflict pairs a conflicting mod's display name with the contested path.
type Conflict struct {
	ModName string `json:"mod_name" yaml:"mod_name"`
	Path    string `json:"path" yaml:"path"`
}

// VersionMismatch carries the candidate and the registered version strings.
type VersionMismatch struct {
	Candidate string `json:"candidate" yaml:"candidate"`
	Existing  string `json:"existing" yaml:"existing"`
}

// Error is the failure type returned by every mod manager component.
type Error struct {
	Code    Code
	Message string
	Err     error

	// Reason is set for CodeInvalidArchive.
	Reason ArchiveReason

	// Conflicts is set for CodeModConflict.
	Conflicts []Conflict

	// Mismatch is set for CodeModVersionMismatch.
	Mismatch *VersionMismatch
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Recoverable reports whether the failure leaves internal state trustworthy.
func (e *Error) Recoverable() bool {
	switch e.Code {
	case CodeIO, CodeDatabase, CodeSerialization:
		return false
	default:
		return true
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var me *Error
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// Recoverable classifies err. Errors that are not *Error are treated as fatal.
func Recoverable(err error) bool {
	var me *Error
	if errors.As(err, &me) {
		return me.Recoverable()
	}
	return false
}

// IOError wraps a filesystem failure.
func IOError(op string, err error) *Error {
	return &Error{Code: CodeIO, Message: op, Err: err}
}

// DatabaseError wraps a store failure.
func DatabaseError(op string, err error) *Error {
	return &Error{Code: CodeDatabase, Message: op, Err: err}
}

// ArchiveError wraps a codec failure.
func ArchiveError(op string, err error) *Error {
	return &Error{Code: CodeArchiveHandling, Message: op, Err: err}
}

// InvalidArchiveError rejects an archive path.
func InvalidArchiveError(reason ArchiveReason, path string) *Error {
	return &Error{Code: CodeInvalidArchive, Message: fmt.Sprintf("%s (%s)", reason, path), Reason: reason}
}

// InvalidModInfoError rejects a manifest.
func InvalidModInfoError(err error) *Error {
	return &Error{Code: CodeInvalidModInfo, Message: "invalid modinfo", Err: err}
}

// NotExistingError reports an unknown mod id.
func NotExistingError(id uint64) *Error {
	return &Error{Code: CodeModNotExisting, Message: fmt.Sprintf("mod %d does not exist", id)}
}

// AlreadyActiveError reports activation of an active mod.
func AlreadyActiveError(id uint64) *Error {
	return &Error{Code: CodeModAlreadyActive, Message: fmt.Sprintf("mod %d is already active", id)}
}

// AlreadyDeactivatedError reports deactivation of an inactive mod.
func AlreadyDeactivatedError(id uint64) *Error {
	return &Error{Code: CodeModAlreadyDeactivated, Message: fmt.Sprintf("mod %d is already deactivated", id)}
}

// NotInitializedError reports missing destination configuration.
func NotInitializedError(missing string) *Error {
	return &Error{Code: CodeAppNotInitialized, Message: missing + " is not configured"}
}

// ConflictError lists the files already owned by other mods.
func ConflictError(conflicts []Conflict) *Error {
	return &Error{
		Code:      CodeModConflict,
		Message:   fmt.Sprintf("%d file(s) already owned by other mods", len(conflicts)),
		Conflicts: conflicts,
	}
}

// VersionMismatchError rejects an add whose candidate is not newer.
func VersionMismatchError(candidate, existing string) *Error {
	return &Error{
		Code:     CodeModVersionMismatch,
		Message:  fmt.Sprintf("version %s is not newer than registered version %s", candidate, existing),
		Mismatch: &VersionMismatch{Candidate: candidate, Existing: existing},
	}
}

// ConfigError reports an invalid configuration value.
func ConfigError(message string, err error) *Error {
	return &Error{Code: CodeConfig, Message: message, Err: err}
}
