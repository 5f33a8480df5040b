package record

import (
	"fmt"
	"strings"
)

// TypeRepresentation identifies a serialized type by namespace, name and an
// optional version. Two representations are kept for every described type:
// one with the version populated and one without (see
// TypeRepresentationPair), so callers can choose whether version differences
// matter when matching.
type TypeRepresentation struct {
	Namespace string `json:"namespace" yaml:"namespace"`
	Name      string `json:"name" yaml:"name"`

	// Version is empty on the versionless half of a pair.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// String renders the representation as namespace.Name[@version].
func (t TypeRepresentation) String() string {
	s := t.Name
	if t.Namespace != "" {
		s = t.Namespace + "." + t.Name
	}
	if t.Version != "" {
		s += "@" + t.Version
	}
	return s
}

// Equal reports exact equality of namespace, name and version.
func (t TypeRepresentation) Equal(o TypeRepresentation) bool {
	return t.Namespace == o.Namespace && t.Name == o.Name && t.Version == o.Version
}

// IsZero reports whether the representation is entirely unset.
func (t TypeRepresentation) IsZero() bool {
	return t.Namespace == "" && t.Name == "" && t.Version == ""
}

// TypeRepresentationPair carries the versioned and versionless
// representations of one type. The versionless half must agree with the
// versioned half on namespace and name.
type TypeRepresentationPair struct {
	WithVersion    TypeRepresentation `json:"withVersion" yaml:"withVersion"`
	WithoutVersion TypeRepresentation `json:"withoutVersion" yaml:"withoutVersion"`
}

// NewTypeRepresentationPair builds a pair from a single versioned
// representation, deriving the versionless half.
func NewTypeRepresentationPair(namespace, name, version string) TypeRepresentationPair {
	return TypeRepresentationPair{
		WithVersion:    TypeRepresentation{Namespace: namespace, Name: name, Version: version},
		WithoutVersion: TypeRepresentation{Namespace: namespace, Name: name},
	}
}

// IsZero reports whether both halves of the pair are unset.
func (p TypeRepresentationPair) IsZero() bool {
	return p.WithVersion.IsZero() && p.WithoutVersion.IsZero()
}

// EqualUnder compares two pairs under the given version match strategy:
// VersionMatchAny compares only the versionless halves, while
// VersionMatchSpecifiedVersion requires the versioned halves to agree
// exactly.
func (p TypeRepresentationPair) EqualUnder(o TypeRepresentationPair, strategy VersionMatchStrategy) (bool, error) {
	switch strategy {
	case VersionMatchAny:
		return p.WithoutVersion.Equal(o.WithoutVersion), nil
	case VersionMatchSpecifiedVersion:
		return p.WithVersion.Equal(o.WithVersion), nil
	default:
		return false, NewUnsupportedValueError("VersionMatchStrategy", strategy.String())
	}
}

// Validate checks the pair for internal consistency.
func (p TypeRepresentationPair) Validate() error {
	if p.IsZero() {
		return nil
	}
	if p.WithVersion.Name == "" {
		return NewValidationError("TypeRepresentationPair", "WithVersion.Name", "must not be empty")
	}
	if p.WithoutVersion.Version != "" {
		return NewValidationError("TypeRepresentationPair", "WithoutVersion.Version", "must be empty")
	}
	if p.WithVersion.Namespace != p.WithoutVersion.Namespace || p.WithVersion.Name != p.WithoutVersion.Name {
		return NewValidationError("TypeRepresentationPair", "WithoutVersion", "must agree with WithVersion on namespace and name")
	}
	return nil
}

// VersionMatchStrategy governs whether type comparisons ignore or require an
// exact version match.
type VersionMatchStrategy int

const (
	// VersionMatchUnknown is the invalid zero value.
	VersionMatchUnknown VersionMatchStrategy = iota

	// VersionMatchAny compares only namespace and name.
	VersionMatchAny

	// VersionMatchSpecifiedVersion additionally requires an exact version
	// match.
	VersionMatchSpecifiedVersion
)

// String implements fmt.Stringer.
func (s VersionMatchStrategy) String() string {
	switch s {
	case VersionMatchAny:
		return "Any"
	case VersionMatchSpecifiedVersion:
		return "SpecifiedVersion"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// ParseVersionMatchStrategy converts a string to its enum value.
func ParseVersionMatchStrategy(s string) (VersionMatchStrategy, error) {
	switch strings.ToLower(s) {
	case "any":
		return VersionMatchAny, nil
	case "specifiedversion":
		return VersionMatchSpecifiedVersion, nil
	default:
		return VersionMatchUnknown, NewUnsupportedValueError("VersionMatchStrategy", s)
	}
}
