package main

import (
	"fmt"
	"os"

	"github.com/aidosk/tutorgate/pkg/config"
	"github.com/aidosk/tutorgate/pkg/logger"
)

const (
	// LogFileEnvVar is the environment variable name for log file path
	LogFileEnvVar = "LOG_FILE"
	// LogLevelEnvVar is the environment variable name for log level
	LogLevelEnvVar = "LOG_LEVEL"
	// LogFormatEnvVar is the environment variable name for log format
	LogFormatEnvVar = "LOG_FORMAT"
	// DefaultLogLevel is the default log level
	DefaultLogLevel = "info"
	// DefaultLogFormat is the default log format
	DefaultLogFormat = "simple"
)

// resolveLogSetting picks the first non-empty value in priority order:
// CLI flag > environment variable > config file > default.
func resolveLogSetting(cliValue, envVar, cfgValue, def string) string {
	if cliValue != "" {
		return cliValue
	}
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	if cfgValue != "" {
		return cfgValue
	}
	return def
}

// initLogger parses the level, opens the output and installs the logger.
func initLogger(logLevel, logFile, logFormat string) (func(), error) {
	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var output *os.File
	var cleanup func()
	if logFile != "" {
		file, cleanupFn, err := logger.OpenLogFile(logFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
		cleanup = cleanupFn
	} else {
		output = os.Stderr
	}

	logger.Init(level, output, logFormat)

	return cleanup, nil
}

// initLoggerFromCLI initializes the logger before the config file is loaded.
// Priority: CLI flags > env vars > defaults.
func initLoggerFromCLI(cliLogLevel, cliLogFile, cliLogFormat string) (func(), error) {
	return initLogger(
		resolveLogSetting(cliLogLevel, LogLevelEnvVar, "", DefaultLogLevel),
		resolveLogSetting(cliLogFile, LogFileEnvVar, "", ""),
		resolveLogSetting(cliLogFormat, LogFormatEnvVar, "", DefaultLogFormat),
	)
}

// initLoggerFromConfig re-initializes the logger once the config file is
// available. CLI flags and env vars still win over the logger section.
func initLoggerFromConfig(cliLogLevel, cliLogFile, cliLogFormat string, cfg *config.LoggerConfig) (func(), error) {
	return initLogger(
		resolveLogSetting(cliLogLevel, LogLevelEnvVar, cfg.Level, DefaultLogLevel),
		resolveLogSetting(cliLogFile, LogFileEnvVar, cfg.File, ""),
		resolveLogSetting(cliLogFormat, LogFormatEnvVar, cfg.Format, DefaultLogFormat),
	)
}
