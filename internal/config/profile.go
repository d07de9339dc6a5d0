package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/csvmigrate/internal/core"
)

// Profile holds per-adapter settings read from a YAML file:
//
//	lookup_dir: ./lookups
//	adapters:
//	  teams:
//	    mode: insert
//	    lookup_policy: skip
//	    lookups:
//	      projects: LookupProjectIdForTeams.csv
//
// Flags override profile values, which override environment defaults.
type Profile struct {
	LookupDir string                    `yaml:"lookup_dir"`
	AuditDir  string                    `yaml:"audit_dir"`
	Adapters  map[string]AdapterProfile `yaml:"adapters"`
}

// AdapterProfile holds the settings for one adapter key.
type AdapterProfile struct {
	Mode         string            `yaml:"mode"`
	LookupPolicy string            `yaml:"lookup_policy"`
	Lookups      map[string]string `yaml:"lookups"`
}

// LoadProfile reads and validates a profile. An empty path returns an
// empty profile.
func LoadProfile(path string) (*Profile, error) {
	if strings.TrimSpace(path) == "" {
		return &Profile{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	p, err := ParseProfile(data)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// ParseProfile decodes YAML profile data. Unknown keys are rejected.
func ParseProfile(data []byte) (*Profile, error) {
	p := &Profile{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks every adapter entry's mode and lookup policy.
func (p *Profile) Validate() error {
	var errs []string

	keys := make([]string, 0, len(p.Adapters))
	for k := range p.Adapters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		ap := p.Adapters[k]
		if _, err := core.ParseMode(ap.Mode); err != nil {
			errs = append(errs, fmt.Sprintf("adapters.%s.mode: %v", k, err))
		}
		if _, err := core.ParseLookupPolicy(ap.LookupPolicy); err != nil {
			errs = append(errs, fmt.Sprintf("adapters.%s.lookup_policy: %v", k, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid profile:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// For returns the settings for adapterKey, empty when none are configured.
func (p *Profile) For(adapterKey string) AdapterProfile {
	if p == nil {
		return AdapterProfile{}
	}
	return p.Adapters[adapterKey]
}

// LookupPaths returns the configured lookup paths keyed by adapter, then
// lookup name.
func (p *Profile) LookupPaths() map[string]map[string]string {
	if p == nil {
		return nil
	}
	paths := make(map[string]map[string]string, len(p.Adapters))
	for k, ap := range p.Adapters {
		if len(ap.Lookups) > 0 {
			paths[k] = ap.Lookups
		}
	}
	return paths
}

// Pick returns the first non-empty value: the flag, then the profile, then
// the fallback.
func Pick(flag, profile, fallback string) string {
	switch {
	case strings.TrimSpace(flag) != "":
		return flag
	case strings.TrimSpace(profile) != "":
		return profile
	default:
		return fallback
	}
}
