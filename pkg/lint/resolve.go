package lint

import "github.com/corvidlabs/mkdlint/pkg/config"

// ResolvedRule pairs a Rule with its resolved configuration.
type ResolvedRule struct {
	// Rule is the underlying rule implementation.
	Rule Rule

	// Enabled indicates whether the rule should be run.
	Enabled bool

	// Severity is the resolved severity for diagnostics from this rule.
	Severity config.Severity

	// AutoFix indicates whether auto-fix is enabled for this rule.
	AutoFix bool

	// Config is the rule-specific configuration (may be nil).
	Config *config.RuleConfig
}

// ResolveRules determines which rules to run based on registry and config.
// Returns only enabled rules with their resolved configuration.
func ResolveRules(registry *Registry, cfg *config.Config) []ResolvedRule {
	var resolved []ResolvedRule

	for _, rule := range registry.Rules() {
		rr := resolveRule(registry, rule, cfg)
		if rr.Enabled {
			resolved = append(resolved, rr)
		}
	}

	return resolved
}

// idMatches reports whether key refers to rule, resolving key through the
// registry first. A bare key that isn't a registered ID, name, or alias
// never matches: spec.md §4.4 requires alias resolution before lookup, not
// prefix or substring matching.
func idMatches(registry *Registry, key string, rule Rule) bool {
	if key == rule.ID() {
		return true
	}
	if canonicalID, _, ok := registry.Resolve(key); ok {
		return canonicalID == rule.ID()
	}
	return false
}

// resolveRule resolves the configuration for a single rule.
//
// Every key taken from cfg (EnableRules, DisableRules, FixRules, Rules) may
// be a canonical ID, a rule Name, or a legacy alias; all three are resolved
// to the rule's canonical ID via the registry before comparison, per
// spec.md §4.4 ("Aliases resolve to canonical ids before lookup").
func resolveRule(registry *Registry, rule Rule, cfg *config.Config) ResolvedRule {
	rr := ResolvedRule{
		Rule:     rule,
		Enabled:  rule.DefaultEnabled(),
		Severity: rule.DefaultSeverity(),
		AutoFix:  rule.CanFix(),
		Config:   nil,
	}

	if cfg == nil {
		return rr
	}

	// Check for explicit enable/disable from CLI.
	for _, id := range cfg.EnableRules {
		if idMatches(registry, id, rule) {
			rr.Enabled = true
			break
		}
	}
	for _, id := range cfg.DisableRules {
		if idMatches(registry, id, rule) {
			rr.Enabled = false
			break
		}
	}

	// Apply rule-specific config. The config key may be the canonical ID
	// already (the common case for loaded config files, which normalize
	// keys at load time) or a name/alias reaching this layer directly
	// (e.g. from a caller that builds config.Config by hand).
	ruleCfg, ok := cfg.Rules[rule.ID()]
	if !ok {
		for key, candidate := range cfg.Rules {
			if idMatches(registry, key, rule) {
				ruleCfg, ok = candidate, true
				break
			}
		}
	}
	if ok {
		rr.Config = &ruleCfg

		if ruleCfg.Enabled != nil {
			rr.Enabled = *ruleCfg.Enabled
		}
		if ruleCfg.Severity != nil {
			rr.Severity = config.Severity(*ruleCfg.Severity)
		}
		if ruleCfg.AutoFix != nil {
			rr.AutoFix = *ruleCfg.AutoFix && rule.CanFix()
		}
	}

	// Apply fix-rules filter from CLI.
	if len(cfg.FixRules) > 0 {
		rr.AutoFix = false
		for _, id := range cfg.FixRules {
			if idMatches(registry, id, rule) && rule.CanFix() {
				rr.AutoFix = true
				break
			}
		}
	}

	// Disable auto-fix if --fix is not set.
	if !cfg.Fix {
		rr.AutoFix = false
	}

	return rr
}
