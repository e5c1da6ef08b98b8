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

package tui

import (
	"context"
	"fmt"
	"sync"

	"github.com/carverauto/netscope/pkg/logger"
	tea "github.com/charmbracelet/bubbletea"
)

// Program runs the terminal dashboard as a lifecycle service. Start blocks
// until the user quits or the context is canceled.
type Program struct {
	ctrl      Controller
	exportDir string
	logger    logger.Logger

	mu      sync.Mutex
	program *tea.Program
}

func NewProgram(ctrl Controller, exportDir string, log logger.Logger) *Program {
	return &Program{ctrl: ctrl, exportDir: exportDir, logger: log}
}

func (p *Program) Start(ctx context.Context) error {
	program := tea.NewProgram(NewModel(ctx, p.ctrl, p.exportDir), tea.WithAltScreen(), tea.WithContext(ctx))

	p.mu.Lock()
	p.program = program
	p.mu.Unlock()

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running dashboard: %w", err)
	}

	p.logger.Debug().Msg("Terminal dashboard exited")

	return nil
}

func (p *Program) Stop(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.program != nil {
		p.program.Quit()
	}

	return nil
}
