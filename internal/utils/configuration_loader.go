package utils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	environmentKeySeparatorOldConstant              = "."
	environmentKeySeparatorNewConstant              = "_"
	configurationFileNameTemplateConstant           = "%s.%s"
	listSeparatorConstant                           = ","
	configurationReadErrorTemplateConstant          = "failed to read configuration %s: %w"
	configurationUnmarshalErrorTemplateConstant     = "failed to parse configuration: %w"
	embeddedConfigurationMergeErrorTemplateConstant = "failed to merge embedded configuration: %w"
)

// ConfigurationLoader wraps Viper to merge layered configuration files and environment overrides.
//
// Layers are merged in order: embedded defaults, then every search path that
// holds a configuration file, then an explicitly requested file. Environment
// variables carrying the prefix override every layer.
type ConfigurationLoader struct {
	configurationName         string
	configurationType         string
	environmentPrefix         string
	searchPaths               []string
	environmentKeyReplacer    *strings.Replacer
	embeddedConfiguration     []byte
	embeddedConfigurationType string
}

// LoadedConfiguration surfaces metadata about the resolved configuration.
type LoadedConfiguration struct {
	// ConfigFilesUsed lists merged files in merge order.
	ConfigFilesUsed []string
	// ConfigFileUsed is the highest-precedence merged file.
	ConfigFileUsed string
}

// NewConfigurationLoader creates a loader that merges configuration found in the search paths.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName:      configurationName,
		configurationType:      configurationType,
		environmentPrefix:      environmentPrefix,
		searchPaths:            append([]string{}, searchPaths...),
		environmentKeyReplacer: strings.NewReplacer(environmentKeySeparatorOldConstant, environmentKeySeparatorNewConstant),
	}
}

// SetEmbeddedConfiguration stores configuration data merged before any file layer.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationData []byte, configurationType string) {
	if loader == nil {
		return
	}
	loader.embeddedConfiguration = append([]byte(nil), configurationData...)
	loader.embeddedConfigurationType = strings.TrimSpace(configurationType)
}

// LoadConfiguration populates targetConfiguration from defaults, layered files, and environment variables.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigType(loader.configurationType)

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if len(loader.embeddedConfiguration) > 0 {
		embeddedType := loader.configurationType
		if len(loader.embeddedConfigurationType) > 0 {
			embeddedType = loader.embeddedConfigurationType
		}
		viperInstance.SetConfigType(embeddedType)
		if mergeError := viperInstance.MergeConfig(bytes.NewReader(loader.embeddedConfiguration)); mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationMergeErrorTemplateConstant, mergeError)
		}
		viperInstance.SetConfigType(loader.configurationType)
	}

	layerFiles := loader.discoverLayerFiles()
	if trimmedPath := strings.TrimSpace(configurationFilePath); len(trimmedPath) > 0 {
		layerFiles = append(layerFiles, trimmedPath)
	}

	loadedConfiguration := LoadedConfiguration{}
	for _, layerFile := range layerFiles {
		if mergeError := loader.mergeFile(viperInstance, layerFile); mergeError != nil {
			return LoadedConfiguration{}, mergeError
		}
		loadedConfiguration.ConfigFilesUsed = append(loadedConfiguration.ConfigFilesUsed, layerFile)
		loadedConfiguration.ConfigFileUsed = layerFile
	}

	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	viperInstance.SetEnvKeyReplacer(loader.environmentKeyReplacer)
	viperInstance.AutomaticEnv()

	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(listSeparatorConstant),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	if unmarshalError := viperInstance.Unmarshal(targetConfiguration, decodeHook); unmarshalError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateConstant, unmarshalError)
	}

	return loadedConfiguration, nil
}

func (loader *ConfigurationLoader) discoverLayerFiles() []string {
	configurationFileName := fmt.Sprintf(configurationFileNameTemplateConstant, loader.configurationName, loader.configurationType)
	layerFiles := make([]string, 0, len(loader.searchPaths))
	for _, searchPath := range loader.searchPaths {
		trimmedSearchPath := strings.TrimSpace(searchPath)
		if len(trimmedSearchPath) == 0 {
			continue
		}
		candidatePath := filepath.Join(trimmedSearchPath, configurationFileName)
		if fileInfo, statError := os.Stat(candidatePath); statError == nil && !fileInfo.IsDir() {
			layerFiles = append(layerFiles, candidatePath)
		}
	}
	return layerFiles
}

func (loader *ConfigurationLoader) mergeFile(viperInstance *viper.Viper, configurationFilePath string) error {
	fileContent, readError := os.ReadFile(configurationFilePath)
	if readError != nil {
		return fmt.Errorf(configurationReadErrorTemplateConstant, configurationFilePath, readError)
	}

	fileType := strings.TrimPrefix(filepath.Ext(configurationFilePath), environmentKeySeparatorOldConstant)
	if len(fileType) == 0 {
		fileType = loader.configurationType
	}
	viperInstance.SetConfigType(fileType)
	defer viperInstance.SetConfigType(loader.configurationType)

	if mergeError := viperInstance.MergeConfig(bytes.NewReader(fileContent)); mergeError != nil {
		return fmt.Errorf(configurationReadErrorTemplateConstant, configurationFilePath, mergeError)
	}
	return nil
}
