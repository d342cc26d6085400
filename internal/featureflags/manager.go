// Package featureflags parses FEATURE_FLAGS and evaluates flags per user.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "registration=on,realtime=25%"
type Manager struct {
	flags    map[string]string
	defaults map[string]bool
}

// NewManager creates a feature-flag manager from a comma-separated config string.
// Malformed pairs are skipped; a repeated key keeps its last value.
func NewManager(raw string) *Manager {
	out := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out, defaults: make(map[string]bool)}
}

// WithDefault sets the state of name when FEATURE_FLAGS does not mention it.
func (m *Manager) WithDefault(name string, enabled bool) *Manager {
	m.defaults[normalize(name)] = enabled
	return m
}

// Configured reports whether name appears in the flag list.
func (m *Manager) Configured(name string) bool {
	if m == nil {
		return false
	}
	_, ok := m.flags[normalize(name)]
	return ok
}

// Enabled returns whether a flag is enabled for a given user.
// Supported values:
// - on/true/1
// - off/false/0
// - N% (deterministic rollout by user id; anonymous callers are outside any partial rollout)
//
// Unknown values evaluate to off. Unconfigured flags use their default.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}

	value, ok := m.flags[normalize(name)]
	if !ok {
		return m.defaults[normalize(name)]
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil, pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < pct
}

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.flags))
	for k, v := range m.flags {
		out[k] = v
	}
	return out
}

// Names returns configured and defaulted flag names in order.
func (m *Manager) Names() []string {
	seen := make(map[string]struct{}, len(m.flags)+len(m.defaults))
	for k := range m.flags {
		seen[k] = struct{}{}
	}
	for k := range m.defaults {
		seen[k] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	names := m.Names()
	out := make(map[string]bool, len(names))
	for _, name := range names {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(name), userID)))
	return int(h.Sum32() % 100)
}
