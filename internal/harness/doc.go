// Package harness runs mod lifecycle scenarios against a real manager.
//
// A scenario builds archives, drives the manager through a flow of
// operations, and checks the resulting registry, ownership and destination
// tree.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	language: English          # omit to leave the destination unset
//	confirm: false             # answer to every overwrite question
//	archives:
//	  - file: lore.zip
//	    manifest: { name: Lore, version: 1.0.0 }
//	    files: [text/items.csv]
//	flow:
//	  - op: add
//	    archive: lore.zip
//	    expect: { outcome: added, id: 1 }
//	  - op: activate
//	    id: 2
//	    expect:
//	      error: MOD_CONFLICT
//	      conflicts: [{ mod_name: Lore, path: text/items.csv }]
//	assertions:
//	  - type: active
//	    ids: [1]
//	  - type: files_present
//	    paths: [text/items.csv]
//
// A step without expect must succeed.
//
// # Assertion Types
//
//   - registered: the registry holds exactly the listed ids
//   - active: exactly the listed ids are active
//   - files_present: every path exists under the destination base
//   - files_absent: no path exists under the destination base
//   - owner: path is owned by mod (0 means unowned)
//   - trace_order: the listed ops appear in the trace in that order
//   - journal_count: the journal holds count entries of kind
//
// # Golden Files
//
// RunWithGolden stores the trace in testdata/golden/{name}.golden.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness
