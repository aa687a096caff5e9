package config

import (
	"regexp"
	"slices"
)

// NamePattern is the required shape of a key name: uppercase segments
// separated by single underscores.
const NamePattern = `^[A-Z]+(_?[A-Z]+)*$`

// DefaultVersion is the version of a key declared without WithVersion.
const DefaultVersion = "1.0.0"

var nameRegexp = regexp.MustCompile(NamePattern)

// Key describes one configuration setting. Keys are immutable once built and
// are meant to be declared once and reused.
type Key struct {
	name         string
	defaultValue string
	doc          []string
	version      string
	rules        []Rule
}

// KeyOption customizes a Key at declaration time.
type KeyOption func(*Key)

// WithDoc sets the documentation lines emitted into env example files.
func WithDoc(lines ...string) KeyOption {
	return func(k *Key) {
		k.doc = append([]string(nil), lines...)
	}
}

// WithVersion overrides DefaultVersion.
func WithVersion(version string) KeyOption {
	return func(k *Key) {
		k.version = version
	}
}

// WithRules attaches rules evaluated, in order, on every resolution.
func WithRules(rules ...Rule) KeyOption {
	return func(k *Key) {
		for _, r := range rules {
			if r != nil {
				k.rules = append(k.rules, r)
			}
		}
	}
}

// NewKey declares a key. It fails with a *NameFormatError when name does not
// match NamePattern or the version is empty.
func NewKey(name, defaultValue string, opts ...KeyOption) (*Key, error) {
	k := &Key{name: name, defaultValue: defaultValue, version: DefaultVersion}
	for _, opt := range opts {
		if opt != nil {
			opt(k)
		}
	}
	if !nameRegexp.MatchString(name) {
		return nil, &NameFormatError{Name: name}
	}
	if k.version == "" {
		return nil, &NameFormatError{Name: name, Reason: "version must not be empty"}
	}
	return k, nil
}

// MustKey is like NewKey but panics on a malformed declaration. It is meant
// for package-level key variables.
func MustKey(name, defaultValue string, opts ...KeyOption) *Key {
	k, err := NewKey(name, defaultValue, opts...)
	if err != nil {
		panic(err)
	}
	return k
}

func (k *Key) Name() string    { return k.name }
func (k *Key) Default() string { return k.defaultValue }
func (k *Key) Version() string { return k.version }

// Doc returns a copy of the documentation lines.
func (k *Key) Doc() []string { return slices.Clone(k.doc) }

// Rules returns a copy of the attached rules.
func (k *Key) Rules() []Rule { return slices.Clone(k.rules) }

// Validate runs every rule against v and collects all violations into a
// *ValidationError.
func (k *Key) Validate(v Value) error {
	var violations []Violation
	for _, r := range k.rules {
		if err := r.Check(v); err != nil {
			violations = append(violations, Violation{Rule: ruleName(r), Reason: err.Error(), Err: err})
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Name: k.name, Violations: violations}
}
