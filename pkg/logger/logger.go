/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package logger provides JSON structured logging using zerolog
package logger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

var (
	errInvalidDuration = errors.New("invalid duration")
)

const (
	outputStdout = "stdout"
	outputStderr = "stderr"

	logFilePerms = 0o640
	logDirPerms  = 0o750
)

//nolint:gochecknoglobals // package-level logger mirrors zerolog/log
var globalLogger zerolog.Logger

// Config configures zerolog output. Output is "stdout", "stderr" or a file path.
type Config struct {
	Level      string     `json:"level" yaml:"level"`
	Debug      bool       `json:"debug" yaml:"debug"`
	Output     string     `json:"output" yaml:"output"`
	TimeFormat string     `json:"time_format" yaml:"time_format"`
	OTel       OTelConfig `json:"otel" yaml:"otel"`
}

// Duration is a time.Duration that unmarshals from "5s" or nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}

		*d = Duration(tmp)
	default:
		return errInvalidDuration
	}

	return nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!int" {
		var ns int64
		if err := node.Decode(&ns); err != nil {
			return err
		}

		*d = Duration(ns)

		return nil
	}

	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	tmp, err := time.ParseDuration(s)
	if err != nil {
		return err
	}

	*d = Duration(tmp)

	return nil
}

func init() {
	globalLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	zerolog.TimeFieldFormat = time.RFC3339
}

// Init replaces the global logger.
func Init(ctx context.Context, config *Config) error {
	zl, err := NewZerolog(ctx, config)
	if err != nil {
		return err
	}

	globalLogger = zl
	log.Logger = globalLogger

	return nil
}

// NewZerolog builds a logger from config. The OTLP writer is attached when
// enabled.
func NewZerolog(ctx context.Context, config *Config) (zerolog.Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	output, err := OpenOutput(config.Output)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("failed to open log output: %w", err)
	}

	level, err := ParseLevel(config)
	if err != nil {
		return zerolog.Logger{}, err
	}

	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	if config.OTel.Enabled && config.OTel.Endpoint != "" {
		otelWriter, err := NewOTELWriter(ctx, config.OTel)
		if err != nil {
			return zerolog.Logger{}, err
		}

		output = zerolog.MultiLevelWriter(output, otelWriter)
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger(), nil
}

// ParseLevel resolves the effective level; Debug wins over Level.
func ParseLevel(config *Config) (zerolog.Level, error) {
	if config.Debug {
		return zerolog.DebugLevel, nil
	}

	if config.Level == "" {
		return zerolog.InfoLevel, nil
	}

	return zerolog.ParseLevel(config.Level)
}

// OpenOutput maps the configured output name to a writer. Anything other
// than stdout/stderr is treated as a file path and opened for append, which
// keeps log lines off the terminal while the dashboard owns it.
func OpenOutput(output string) (io.Writer, error) {
	switch output {
	case "", outputStdout:
		return os.Stdout, nil
	case outputStderr:
		return os.Stderr, nil
	}

	if err := os.MkdirAll(filepath.Dir(output), logDirPerms); err != nil {
		return nil, err
	}

	return os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerms)
}

func SetLevel(level zerolog.Level) {
	globalLogger = globalLogger.Level(level)
	log.Logger = globalLogger
}

func SetDebug(debug bool) {
	if debug {
		SetLevel(zerolog.DebugLevel)
	} else {
		SetLevel(zerolog.InfoLevel)
	}
}

func GetLogger() zerolog.Logger {
	return globalLogger
}

func Debug() *zerolog.Event {
	return globalLogger.Debug()
}

func Info() *zerolog.Event {
	return globalLogger.Info()
}

func Warn() *zerolog.Event {
	return globalLogger.Warn()
}

func Error() *zerolog.Event {
	return globalLogger.Error()
}

func With() zerolog.Context {
	return globalLogger.With()
}

func WithComponent(component string) zerolog.Logger {
	return globalLogger.With().Str("component", component).Logger()
}

// Shutdown flushes the OTLP log and metric pipelines if they were started.
func Shutdown() error {
	return ShutdownOTEL()
}
