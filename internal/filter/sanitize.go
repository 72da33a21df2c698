package filter

import (
	"strings"

	"github.com/yourorg/netsnap/internal/config"
	"github.com/yourorg/netsnap/pkg/types"
)

// SanitizeConfig is an alias of config.SanitizeConfig.
type SanitizeConfig = config.SanitizeConfig

// Sanitize redacts sensitive header and parameter values before records
// are persisted to a snapshot file.
func Sanitize(records []types.Record, cfg SanitizeConfig) []types.Record {
	headerSet := toLowerSet(cfg.Headers)
	paramSet := toLowerSet(cfg.Params)
	out := make([]types.Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
		redact(out[i].Headers, headerSet, cfg.Replacement)
		redact(out[i].Params, paramSet, cfg.Replacement)
	}
	return out
}

func toLowerSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, v := range items {
		v = strings.TrimSpace(strings.ToLower(v))
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}

func redact(m map[string]string, set map[string]struct{}, replacement string) {
	for k := range m {
		if _, ok := set[strings.ToLower(k)]; ok {
			m[k] = replacement
		}
	}
}
