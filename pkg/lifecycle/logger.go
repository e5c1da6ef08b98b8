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

package lifecycle

import (
	"context"
	"fmt"

	"github.com/carverauto/netscope/pkg/logger"
)

// CreateComponentLogger builds an injectable logger tagged with component.
// The package-level logger is left untouched.
func CreateComponentLogger(ctx context.Context, component string, config *logger.Config) (logger.Logger, error) {
	zl, err := logger.NewZerolog(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s logger: %w", component, err)
	}

	return logger.New(zl.With().Str("component", component).Logger()), nil
}

// ShutdownLogger flushes pending OTel logs and metrics.
func ShutdownLogger() error {
	return logger.Shutdown()
}
