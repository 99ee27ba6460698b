package plugins

import (
	"github.com/onegate/onegate/internal/config"
	"github.com/onegate/onegate/internal/plugin"
)

// Build assembles the built-in plugin set for one session. The recall
// sweeper is always on; the repeater only when configured.
func Build(cfg config.PluginsConfig) []plugin.Plugin {
	out := []plugin.Plugin{NewRecall()}
	if cfg.Repeater.Enabled {
		out = append(out, NewRepeater(cfg.Repeater))
	}
	return out
}
