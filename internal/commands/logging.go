package commands

import (
	"strings"

	"github.com/goliatone/go-resource-cms/internal/logging"
	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

// CommandLogger returns the logger for a command module, for example
// "cms.commands.resources".
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	name := strings.TrimSpace(module)
	if name == "" {
		name = "core"
	}
	logger := logging.ModuleLogger(provider, logging.CommandsModule+"."+name)
	return logging.WithFields(logger, map[string]any{
		"component":      "command",
		"command_module": name,
	})
}
