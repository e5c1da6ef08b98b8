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
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carverauto/netscope/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Service is anything with a blocking Start and a bounded Stop.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// RunService starts svc and blocks until it returns, ctx is cancelled, or
// SIGINT/SIGTERM arrives. Stop is always called before returning.
func RunService(ctx context.Context, svc Service, log logger.Logger) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)

	go func() {
		errCh <- svc.Start(ctx)
	}()

	var runErr error

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case runErr = <-errCh:
		if errors.Is(runErr, context.Canceled) {
			runErr = nil
		}
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()

	if err := svc.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping service")

		if runErr == nil {
			runErr = err
		}
	}

	return runErr
}
