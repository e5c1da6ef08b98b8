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
	"sync/atomic"
	"testing"
	"time"

	"github.com/carverauto/netscope/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStart = errors.New("start failed")

type fakeService struct {
	startErr error
	block    bool
	stopped  atomic.Bool
}

func (f *fakeService) Start(ctx context.Context) error {
	if f.block {
		<-ctx.Done()

		return ctx.Err()
	}

	return f.startErr
}

func (f *fakeService) Stop(context.Context) error {
	f.stopped.Store(true)

	return nil
}

func TestRunService_StartReturns(t *testing.T) {
	svc := &fakeService{startErr: errStart}

	err := RunService(context.Background(), svc, logger.NewTestLogger())
	require.ErrorIs(t, err, errStart)
	assert.True(t, svc.stopped.Load())
}

func TestRunService_ContextCanceled(t *testing.T) {
	svc := &fakeService{block: true}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.AfterFunc(20*time.Millisecond, cancel)

	require.NoError(t, RunService(ctx, svc, logger.NewTestLogger()))
	assert.True(t, svc.stopped.Load())
}

func TestCreateComponentLogger(t *testing.T) {
	log, err := CreateComponentLogger(context.Background(), "test", &logger.Config{Level: "debug", Output: "stderr"})
	require.NoError(t, err)
	require.NotNil(t, log)

	_, err = CreateComponentLogger(context.Background(), "test", &logger.Config{Level: "loud"})
	require.Error(t, err)
}
