package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	branchingcmd "github.com/temirov/sc/cmd/cli/branching"
	"github.com/temirov/sc/internal/branching"
	"github.com/temirov/sc/internal/execshell"
	"github.com/temirov/sc/internal/filesystem"
	"github.com/temirov/sc/internal/gitflow"
	"github.com/temirov/sc/internal/gitrepo"
	"github.com/temirov/sc/internal/manifest"
	"github.com/temirov/sc/internal/prompt"
	"github.com/temirov/sc/internal/reposync"
	"github.com/temirov/sc/internal/ui"
	"github.com/temirov/sc/internal/utils"
)

const (
	applicationNameConstant                  = "sc"
	applicationShortDescriptionConstant      = "GitFlow branch orchestration for repo manifest topologies"
	applicationLongDescriptionConstant       = "sc runs GitFlow branch workflows across a single git repository or every project of a repo manifest topology."
	configFileFlagNameConstant               = "config"
	configFileFlagUsageConstant              = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                 = "log-level"
	logLevelFlagUsageConstant                = "Override the configured log level."
	logFormatFlagNameConstant                = "log-format"
	logFormatFlagUsageConstant               = "Override the configured log format (structured or console)."
	runDirectoryFlagNameConstant             = "run-dir"
	runDirectoryFlagUsageConstant            = "Directory topology detection starts from (defaults to the working directory)."
	commonConfigurationKeyConstant           = "common"
	commonLogLevelConfigKeyConstant          = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant         = commonConfigurationKeyConstant + ".log_format"
	branchingConfigurationKeyConstant        = "branching"
	branchingManifestRemoteConfigKeyConstant = branchingConfigurationKeyConstant + ".manifest_remote"
	branchingLargeFilesConfigKeyConstant     = branchingConfigurationKeyConstant + ".lfs"
	branchingCleanExcludeConfigKeyConstant   = branchingConfigurationKeyConstant + ".clean_exclude"
	branchingNonInteractiveConfigKeyConstant = branchingConfigurationKeyConstant + ".non_interactive_prompts"
	defaultManifestRemoteConstant            = "origin"
	defaultCleanExcludeConstant              = ".repo*"
	environmentPrefixConstant                = "SC"
	debugEnvironmentVariableConstant         = "SC_DEBUG"
	debugEnabledValueConstant                = "1"
	userConfigurationEnvironmentConstant     = "SC_USER_CONFIG"
	adminConfigurationDirectoryConstant      = "/etc/sc"
	userConfigurationDirectoryNameConstant   = ".sc_config"
	configurationNameConstant                = "config"
	configurationTypeConstant                = "yaml"
	configurationInitializedMessageConstant  = "configuration initialized"
	configurationLogLevelFieldConstant       = "log_level"
	configurationLogFormatFieldConstant      = "log_format"
	configurationFileFieldConstant           = "config_file"
	runDirectoryFieldConstant                = "run_directory"
	configurationLoadErrorTemplateConstant   = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant      = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant          = "unable to flush logger: %w"
	runDirectoryErrorTemplateConstant        = "unable to resolve run directory: %w"
	loggerNotInitializedMessageConstant      = "logger not initialized"
	versionCommandUseConstant                = "version"
	versionCommandShortConstant              = "Print the sc version"
	versionOutputTemplateConstant            = "%s version: %s\n"
	configCommandUseConstant                 = "config"
	configCommandShortConstant               = "Inspect the sc configuration"
	configShowCommandUseConstant             = "show"
	configShowCommandShortConstant           = "Print the effective configuration as YAML"
	configRenderErrorTemplateConstant        = "unable to render configuration: %w"
	configSourceCommentTemplateConstant      = "# source: %s\n"
)

// Version is the build version reported by `sc version`, overridable through -ldflags.
var Version = "dev"

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common    ApplicationCommonConfiguration    `mapstructure:"common" yaml:"common"`
	Branching ApplicationBranchingConfiguration `mapstructure:"branching" yaml:"branching"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// ApplicationBranchingConfiguration controls branch orchestration behavior.
type ApplicationBranchingConfiguration struct {
	ManifestRemote        string   `mapstructure:"manifest_remote" yaml:"manifest_remote"`
	LargeFiles            bool     `mapstructure:"lfs" yaml:"lfs"`
	CleanExclude          []string `mapstructure:"clean_exclude" yaml:"clean_exclude"`
	NonInteractivePrompts bool     `mapstructure:"non_interactive_prompts" yaml:"non_interactive_prompts"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	runDirectoryFlagValue  string
	runDirectory           string
	commandContextAccessor utils.CommandContextAccessor
	serviceProvider        branchingcmd.ServiceProvider
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	application := &Application{
		configurationLoader:    newConfigurationLoader(configurationSearchPaths()),
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}
	application.serviceProvider = application.buildService

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.runDirectoryFlagValue, runDirectoryFlagNameConstant, "", runDirectoryFlagUsageConstant)

	serviceProvider := func(command *cobra.Command) (branchingcmd.Service, error) {
		return application.serviceProvider(command)
	}
	for _, branchType := range branchingcmd.GroupBranchTypes {
		groupBuilder := branchingcmd.CommandGroupBuilder{
			BranchType:      branchType,
			ServiceProvider: serviceProvider,
		}
		groupCommand, groupBuildError := groupBuilder.Build()
		if groupBuildError == nil {
			cobraCommand.AddCommand(groupCommand)
		}
	}

	topologyBuilder := branchingcmd.TopologyCommandBuilder{
		ServiceProvider: serviceProvider,
	}
	topologyCommands, topologyBuildError := topologyBuilder.Build()
	if topologyBuildError == nil {
		cobraCommand.AddCommand(topologyCommands...)
	}

	cobraCommand.AddCommand(application.buildVersionCommand(), application.buildConfigCommand())

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func newConfigurationLoader(searchPaths []string) *utils.ConfigurationLoader {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		searchPaths,
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())
	return configurationLoader
}

// configurationSearchPaths lists the admin layer before the user layer.
func configurationSearchPaths() []string {
	searchPaths := []string{adminConfigurationDirectoryConstant}
	if userDirectory := strings.TrimSpace(os.Getenv(userConfigurationEnvironmentConstant)); len(userDirectory) > 0 {
		return append(searchPaths, userDirectory)
	}
	if homeDirectory, homeError := os.UserHomeDir(); homeError == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDirectory, userConfigurationDirectoryNameConstant))
	}
	return searchPaths
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultConfigurationValues(), &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	if os.Getenv(debugEnvironmentVariableConstant) == debugEnabledValueConstant {
		application.configuration.Common.LogLevel = string(utils.LogLevelDebug)
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	runDirectory, runDirectoryError := application.resolveRunDirectory()
	if runDirectoryError != nil {
		return fmt.Errorf(runDirectoryErrorTemplateConstant, runDirectoryError)
	}
	application.runDirectory = runDirectory

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(runDirectoryFieldConstant, application.runDirectory),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		updatedContext = application.commandContextAccessor.WithRunDirectory(updatedContext, application.runDirectory)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) resolveRunDirectory() (string, error) {
	if trimmedDirectory := strings.TrimSpace(application.runDirectoryFlagValue); len(trimmedDirectory) > 0 {
		return trimmedDirectory, nil
	}
	return os.Getwd()
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

// buildService wires the branching service over the git, git-flow, and repo executables.
func (application *Application) buildService(command *cobra.Command) (branchingcmd.Service, error) {
	var executorOptions []execshell.ExecutorOption
	if application.humanReadableLoggingEnabled() {
		executorOptions = append(executorOptions, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(application.logger)))
	}
	shellExecutor, executorError := execshell.NewShellExecutor(application.logger, execshell.NewOSCommandRunner(), executorOptions...)
	if executorError != nil {
		return nil, executorError
	}

	repositoryManager, managerError := gitrepo.NewRepositoryManager(shellExecutor)
	if managerError != nil {
		return nil, managerError
	}
	gitFlowClient, clientError := gitflow.NewClient(shellExecutor, repositoryManager)
	if clientError != nil {
		return nil, clientError
	}
	synchronizer, synchronizerError := reposync.NewSynchronizer(shellExecutor)
	if synchronizerError != nil {
		return nil, synchronizerError
	}
	fileSystem := filesystem.OSFileSystem{}
	manifestStore, storeError := manifest.NewFileStore(fileSystem)
	if storeError != nil {
		return nil, storeError
	}

	service, serviceError := branching.NewService(branching.Dependencies{
		FileSystem:   fileSystem,
		Git:          repositoryManager,
		GitFlow:      gitFlowClient,
		Manifests:    manifestStore,
		Synchronizer: synchronizer,
		Prompter:     prompt.Resolve(os.Stdin, command.ErrOrStderr(), application.configuration.Branching.NonInteractivePrompts),
		Output:       command.OutOrStdout(),
		Logger:       application.logger,
		Settings: branching.Settings{
			ManifestRemote:    application.configuration.Branching.ManifestRemote,
			RefreshLargeFiles: application.configuration.Branching.LargeFiles,
			CleanExcludes:     application.configuration.Branching.CleanExclude,
		},
	})
	if serviceError != nil {
		return nil, serviceError
	}
	return service, nil
}

func (application *Application) buildVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   versionCommandUseConstant,
		Short: versionCommandShortConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			_, writeError := fmt.Fprintf(command.OutOrStdout(), versionOutputTemplateConstant, applicationNameConstant, Version)
			return writeError
		},
	}
}

func (application *Application) buildConfigCommand() *cobra.Command {
	configCommand := &cobra.Command{
		Use:   configCommandUseConstant,
		Short: configCommandShortConstant,
	}
	configCommand.AddCommand(&cobra.Command{
		Use:   configShowCommandUseConstant,
		Short: configShowCommandShortConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			renderedConfiguration, renderError := yaml.Marshal(application.configuration)
			if renderError != nil {
				return fmt.Errorf(configRenderErrorTemplateConstant, renderError)
			}
			if configurationFilePath, found := application.commandContextAccessor.ConfigurationFilePath(command.Context()); found {
				if _, writeError := fmt.Fprintf(command.OutOrStdout(), configSourceCommentTemplateConstant, configurationFilePath); writeError != nil {
					return writeError
				}
			}
			_, writeError := command.OutOrStdout().Write(renderedConfiguration)
			return writeError
		},
	})
	return configCommand
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}
	return command.Help()
}

func (application *Application) flushLogger() error {
	if syncError := application.syncLoggerInstance(application.logger); syncError != nil {
		return syncError
	}
	return nil
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
