package mod

import (
	"encoding/json"
	"fmt"
	"strings"
)

// InjectionKind selects the strategy used to materialize a mod's files.
type InjectionKind uint8

const (
	// InjectionLocalization copies files into the destination's
	// localization/<language> directory.
	InjectionLocalization InjectionKind = iota + 1
)

// DefaultInjectionKind is used for archives without a manifest.
const DefaultInjectionKind = InjectionLocalization

// ParseInjectionKind maps a manifest value to a kind, ignoring case.
func ParseInjectionKind(s string) (InjectionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "localization":
		return InjectionLocalization, nil
	default:
		return 0, fmt.Errorf("unknown injection kind %q", s)
	}
}

func (k InjectionKind) String() string {
	switch k {
	case InjectionLocalization:
		return "Localization"
	default:
		return fmt.Sprintf("InjectionKind(%d)", uint8(k))
	}
}

// Valid reports whether k is a known kind.
func (k InjectionKind) Valid() bool {
	return k == InjectionLocalization
}

// MarshalJSON renders the kind by name.
func (k InjectionKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON accepts the kind name in any case.
func (k *InjectionKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseInjectionKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalYAML renders the kind by name.
func (k InjectionKind) MarshalYAML() (any, error) {
	return k.String(), nil
}
