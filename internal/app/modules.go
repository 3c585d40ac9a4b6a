package app

import (
	"github.com/vk/testrig/internal/registry"
	"github.com/vk/testrig/modules/api"
	"github.com/vk/testrig/modules/load"
	"github.com/vk/testrig/modules/ui"
)

// coreModules is the definitive list of engines compiled into the testrig
// binary.
func coreModules(cfg *Config) []registry.Module {
	return []registry.Module{
		&api.Module{},
		&load.Module{},
		&ui.Module{Browser: ui.NewChrome(ui.ChromeOptions{ExecPath: cfg.ChromePath})},
	}
}
