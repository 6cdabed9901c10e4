// Package mod defines the mod domain: registered records, the optional
// modinfo.json manifest, semantic versions, injection kinds, and the typed
// error taxonomy shared by every component.
//
// # Error classes
//
//   - Fatal: CodeIO, CodeDatabase, CodeSerialization. Internal state can no
//     longer be trusted and the process should stop.
//   - Recoverable: everything else. Shown to the user without side effects.
//
// # Version policy
//
// A candidate replaces an existing record with the same name when either
// side lacks a version (the user is asked) or when the existing version
// orders strictly before the candidate under semver precedence.
package mod
