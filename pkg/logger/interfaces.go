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

package logger

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger is what every netscope component receives instead of the global.
type Logger interface {
	Trace() *zerolog.Event
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
	Fatal() *zerolog.Event
	Panic() *zerolog.Event
	With() zerolog.Context
	WithComponent(component string) zerolog.Logger
	WithFields(fields map[string]interface{}) zerolog.Logger
	SetLevel(level zerolog.Level)
	SetDebug(debug bool)
}

// zeroLogger adapts a zerolog.Logger value to Logger.
type zeroLogger struct {
	logger zerolog.Logger
}

// New wraps an existing zerolog logger.
func New(zl zerolog.Logger) Logger {
	return &zeroLogger{logger: zl}
}

func (z *zeroLogger) Trace() *zerolog.Event { return z.logger.Trace() }
func (z *zeroLogger) Debug() *zerolog.Event { return z.logger.Debug() }
func (z *zeroLogger) Info() *zerolog.Event  { return z.logger.Info() }
func (z *zeroLogger) Warn() *zerolog.Event  { return z.logger.Warn() }
func (z *zeroLogger) Error() *zerolog.Event { return z.logger.Error() }
func (z *zeroLogger) Fatal() *zerolog.Event { return z.logger.Fatal() }
func (z *zeroLogger) Panic() *zerolog.Event { return z.logger.Panic() }
func (z *zeroLogger) With() zerolog.Context { return z.logger.With() }

func (z *zeroLogger) WithComponent(component string) zerolog.Logger {
	return z.logger.With().Str("component", component).Logger()
}

func (z *zeroLogger) WithFields(fields map[string]interface{}) zerolog.Logger {
	ctx := z.logger.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, value)
	}

	return ctx.Logger()
}

func (z *zeroLogger) SetLevel(level zerolog.Level) {
	z.logger = z.logger.Level(level)
}

func (z *zeroLogger) SetDebug(debug bool) {
	if debug {
		z.SetLevel(zerolog.DebugLevel)
	} else {
		z.SetLevel(zerolog.InfoLevel)
	}
}

// NewTestLogger creates a no-op logger for testing that discards all output
func NewTestLogger() Logger {
	return &zeroLogger{logger: zerolog.New(io.Discard).Level(zerolog.Disabled)}
}
