package harness

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/modloader/internal/mod"
)

// Scenario defines a mod lifecycle scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Language is the destination language. Empty leaves the destination
	// unconfigured so activations fail with APP_NOT_INITIALIZED.
	Language string `yaml:"language,omitempty"`

	// Confirm answers every overwrite question.
	Confirm bool `yaml:"confirm,omitempty"`

	// Archives are written to a scratch directory before the flow runs.
	Archives []ArchiveSpec `yaml:"archives"`

	// Flow is executed in order. Every step runs even after a failed one.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final registry, ownership and destination.
	Assertions []Assertion `yaml:"assertions"`
}

// ArchiveSpec describes one archive file.
type ArchiveSpec struct {
	// File is the archive file name; its extension selects the format
	// and, without a manifest, its stem becomes the mod name.
	File string `yaml:"file"`

	// Manifest adds a root-level modinfo.json when set.
	Manifest *ManifestSpec `yaml:"manifest,omitempty"`

	// Dirs are explicit directory entries.
	Dirs []string `yaml:"dirs,omitempty"`

	// Files are file entries whose body is their own path.
	Files []string `yaml:"files,omitempty"`
}

// ManifestSpec is the subset of manifest fields scenarios control.
type ManifestSpec struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// Operation names accepted in flow steps.
const (
	OpAdd            = "add"
	OpDelete         = "delete"
	OpActivate       = "activate"
	OpDeactivate     = "deactivate"
	OpDeactivateAll  = "deactivate_all"
	OpSetDestination = "set_destination"
)

var knownOps = []string{OpAdd, OpDelete, OpActivate, OpDeactivate, OpDeactivateAll, OpSetDestination}

// FlowStep is one manager operation.
type FlowStep struct {
	Op string `yaml:"op"`

	// Archive names an entry of Scenario.Archives (add).
	Archive string `yaml:"archive,omitempty"`

	// ID is the target mod (delete, activate, deactivate).
	ID uint64 `yaml:"id,omitempty"`

	// Language is the new destination language (set_destination).
	// The root stays the scenario's game root.
	Language string `yaml:"language,omitempty"`

	// Expect checks the step's result. Nil means the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected step result.
type ExpectClause struct {
	// Error is the expected mod error code. Empty means success.
	Error mod.Code `yaml:"error,omitempty"`

	// Outcome is the expected add outcome.
	Outcome string `yaml:"outcome,omitempty"`

	// ID is the expected id of the affected record.
	ID uint64 `yaml:"id,omitempty"`

	// Conflicts must equal the error's conflict list when set.
	Conflicts []mod.Conflict `yaml:"conflicts,omitempty"`

	// Deactivated must equal the ids returned by deactivate_all when set.
	Deactivated []uint64 `yaml:"deactivated,omitempty"`
}

// Assertion validates final state or the trace.
type Assertion struct {
	Type string `yaml:"type"`

	// IDs are used by registered and active.
	IDs []uint64 `yaml:"ids,omitempty"`

	// Paths are destination-relative slash paths (files_present, files_absent).
	Paths []string `yaml:"paths,omitempty"`

	// Path and Mod are used by owner.
	Path string `yaml:"path,omitempty"`
	Mod  uint64 `yaml:"mod,omitempty"`

	// Ops is the expected op order (trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Kind and Count are used by journal_count.
	Kind  string `yaml:"kind,omitempty"`
	Count int    `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertRegistered   = "registered"
	AssertActive       = "active"
	AssertFilesPresent = "files_present"
	AssertFilesAbsent  = "files_absent"
	AssertOwner        = "owner"
	AssertTraceOrder   = "trace_order"
	AssertJournalCount = "journal_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields and missing required fields are errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	archives := make(map[string]bool, len(s.Archives))
	for i, a := range s.Archives {
		if a.File == "" {
			return fmt.Errorf("archives[%d]: file is required", i)
		}
		if path.Base(a.File) != a.File {
			return fmt.Errorf("archives[%d]: file %q must be a bare file name", i, a.File)
		}
		if archives[a.File] {
			return fmt.Errorf("archives[%d]: duplicate file %q", i, a.File)
		}
		if a.Manifest != nil && (a.Manifest.Name == "" || a.Manifest.Version == "") {
			return fmt.Errorf("archives[%d].manifest: name and version are required", i)
		}
		archives[a.File] = true
	}

	for i, step := range s.Flow {
		if err := validateStep(i, step, archives); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step FlowStep, archives map[string]bool) error {
	if !slices.Contains(knownOps, step.Op) {
		return fmt.Errorf("flow[%d]: unknown op %q", index, step.Op)
	}

	switch step.Op {
	case OpAdd:
		if !archives[step.Archive] {
			return fmt.Errorf("flow[%d]: archive %q is not declared", index, step.Archive)
		}
	case OpDelete, OpActivate, OpDeactivate:
		if step.ID == 0 {
			return fmt.Errorf("flow[%d]: id is required for %s", index, step.Op)
		}
	case OpSetDestination:
		if step.Language == "" {
			return fmt.Errorf("flow[%d]: language is required for %s", index, step.Op)
		}
	}

	if step.Expect != nil && step.Expect.Outcome != "" && step.Op != OpAdd {
		return fmt.Errorf("flow[%d].expect: outcome only applies to add", index)
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertRegistered, AssertActive:
		// An empty id list asserts that nothing matches.
	case AssertFilesPresent, AssertFilesAbsent:
		if len(a.Paths) == 0 {
			return fmt.Errorf("assertions[%d]: paths list is required for %s", index, a.Type)
		}
	case AssertOwner:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for owner", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertJournalCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for journal_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for journal_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
