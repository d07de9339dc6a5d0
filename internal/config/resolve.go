package config

import "github.com/JonMunkholm/csvmigrate/internal/core"

// RunSettings are the effective batch options for one adapter run.
type RunSettings struct {
	Mode         core.Mode
	LookupPolicy core.LookupPolicy
	Lookups      map[string]string // Per-run lookup path overrides
}

// Resolve merges request values with the profile entry for def and the
// environment defaults, in that order of precedence. An environment mode the
// adapter does not support yields the adapter's default mode instead, so
// update-only adapters run without an explicit --mode.
func (c *Config) Resolve(def *core.AdapterDefinition, p *Profile, mode, policy string) (RunSettings, error) {
	ap := p.For(def.Info.Key)

	var rs RunSettings
	var err error

	if s := Pick(mode, ap.Mode, ""); s != "" {
		rs.Mode, err = core.ParseMode(s)
		if err != nil {
			return rs, err
		}
	} else {
		rs.Mode = def.DefaultMode()
		if m, perr := core.ParseMode(c.Migration.Mode); perr == nil && def.SupportsMode(m) {
			rs.Mode = m
		}
	}

	rs.LookupPolicy, err = core.ParseLookupPolicy(Pick(policy, ap.LookupPolicy, c.Migration.LookupPolicy))
	if err != nil {
		return rs, err
	}

	rs.Lookups = ap.Lookups
	return rs, nil
}
