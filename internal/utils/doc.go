// Package utils exposes reusable helpers consumed by multiple commands.
//
// ConfigurationLoader merges embedded defaults, the admin and user
// configuration files, and SC_ environment overrides through Viper.
// LoggerFactory builds the zap loggers used across the CLI.
package utils
