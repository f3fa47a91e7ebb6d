package cli

import (
	_ "embed"

	"github.com/temirov/sc/internal/utils"
)

//go:embed default_config.yaml
var embeddedDefaultConfigurationContent []byte

// EmbeddedDefaultConfiguration returns a copy of the embedded default_config.yaml and its type.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return append([]byte(nil), embeddedDefaultConfigurationContent...), configurationTypeConstant
}

// defaultConfigurationValues backs every key the embedded file declares, so SC_ environment
// overrides resolve even when a layer file drops a section.
func defaultConfigurationValues() map[string]any {
	return map[string]any{
		commonLogLevelConfigKeyConstant:          string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:         string(utils.LogFormatConsole),
		branchingManifestRemoteConfigKeyConstant: defaultManifestRemoteConstant,
		branchingLargeFilesConfigKeyConstant:     true,
		branchingCleanExcludeConfigKeyConstant:   []string{defaultCleanExcludeConstant},
		branchingNonInteractiveConfigKeyConstant: false,
	}
}
