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
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/carverauto/netscope/pkg/dashboard"
	"github.com/carverauto/netscope/pkg/filter"
	"github.com/carverauto/netscope/pkg/models"
	"github.com/carverauto/netscope/pkg/poller"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	exportFilePerms = 0600
	exportLayout    = "2006-01-02_150405"
	defaultReport   = "security"
)

// Controller is the part of the dashboard the terminal UI drives.
type Controller interface {
	View() dashboard.Frame
	Updates() <-chan struct{}
	SetActive(ctx context.Context, view poller.View) error
	Refresh(ctx context.Context, view poller.View) error
	TogglePause() bool
	Retry(ctx context.Context) error
	ToggleProtocol(name string) bool
	ResetProtocols()
	SetQuery(q string)
	SetFlags(flags string)
	RefetchPackets(ctx context.Context) (filter.QueryClass, error)
	ExportPackets(w io.Writer) (int, error)
	ToggleLayout(ctx context.Context, flag string) (models.DashboardLayoutConfig, error)
	ResetLayout(ctx context.Context) (models.DashboardLayoutConfig, error)
	DownloadReport(ctx context.Context, reportType string) (string, error)
}

var views = []poller.View{poller.ViewOverview, poller.ViewLive, poller.ViewHistorical}

type editMode int

const (
	editNone editMode = iota
	editQuery
	editFlags
)

type (
	updateMsg struct{}
	noticeMsg struct {
		text string
		err  error
	}
)

// Model is the bubbletea model for the dashboard.
type Model struct {
	ctx       context.Context
	ctrl      Controller
	exportDir string

	frame  dashboard.Frame
	input  textinput.Model
	edit   editMode
	layout bool // waiting for the digit after L
	page   int  // protocol page addressed by 1-9
	notice string
	err    error
	width  int
	styles styles
}

// NewModel builds a model over ctrl. CSV exports land in exportDir.
func NewModel(ctx context.Context, ctrl Controller, exportDir string) *Model {
	in := textinput.New()
	in.CharLimit = 128

	return &Model{
		ctx:       ctx,
		ctrl:      ctrl,
		exportDir: exportDir,
		frame:     ctrl.View(),
		input:     in,
		styles:    newStyles(),
	}
}

func (m *Model) Init() tea.Cmd {
	return m.waitForUpdate()
}

func (m *Model) waitForUpdate() tea.Cmd {
	updates := m.ctrl.Updates()

	return func() tea.Msg {
		select {
		case <-updates:
			return updateMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.frame = m.ctrl.View()

		return m, m.waitForUpdate()
	case noticeMsg:
		m.notice, m.err = msg.text, msg.err
		m.frame = m.ctrl.View()

		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width

		return m, nil
	case tea.KeyMsg:
		if m.edit != editNone {
			return m.handleEditKey(msg)
		}

		return m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.layout {
		m.layout = false

		return m, m.toggleLayout(key)
	}

	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		return m, m.nextView()
	case "p":
		paused := m.ctrl.TogglePause()
		m.notice, m.err = fmt.Sprintf("polling paused: %t", paused), nil
		m.frame = m.ctrl.View()
	case "r":
		return m, m.retryOrRefresh()
	case "0":
		m.ctrl.ResetProtocols()
		m.frame = m.ctrl.View()
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := m.page*protocolPageSize + int(key[0]-'1')
		if idx < len(filter.KnownProtocols) {
			m.ctrl.ToggleProtocol(filter.KnownProtocols[idx])
			m.frame = m.ctrl.View()
		}
	case "]":
		m.page = (m.page + 1) % protocolPages()
	case "[":
		m.page = (m.page + protocolPages() - 1) % protocolPages()
	case "/":
		m.startEdit(editQuery, m.frame.Query, "search src, dst or protocol")
	case "f":
		m.startEdit(editFlags, m.frame.Flags, "TCP flags, e.g. SYN")
	case "s":
		return m, m.refetch()
	case "L":
		m.layout = true
		m.notice, m.err = "layout: press 1-7 to toggle a widget, 0 to reset", nil
	case "e":
		return m, m.export()
	case "d":
		return m, m.report()
	}

	return m, nil
}

const protocolPageSize = 9

func protocolPages() int {
	return (len(filter.KnownProtocols) + protocolPageSize - 1) / protocolPageSize
}

func (m *Model) startEdit(mode editMode, value, placeholder string) {
	m.edit = mode
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.stopEdit()

		return m, nil
	case tea.KeyEnter:
		value := m.input.Value()

		if m.edit == editQuery {
			m.ctrl.SetQuery(value)
		} else {
			m.ctrl.SetFlags(value)
		}

		m.stopEdit()
		m.frame = m.ctrl.View()

		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m *Model) stopEdit() {
	m.edit = editNone
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) nextView() tea.Cmd {
	next := views[0]

	for i, v := range views {
		if v == m.frame.Active {
			next = views[(i+1)%len(views)]

			break
		}
	}

	ctx, ctrl := m.ctx, m.ctrl

	return func() tea.Msg {
		if err := ctrl.SetActive(ctx, next); err != nil {
			return noticeMsg{err: err}
		}

		return noticeMsg{text: "view: " + string(next)}
	}
}

func (m *Model) retryOrRefresh() tea.Cmd {
	ctx, ctrl, frame := m.ctx, m.ctrl, m.frame

	return func() tea.Msg {
		if frame.Status == dashboard.StatusUnavailable {
			if err := ctrl.Retry(ctx); err != nil {
				return noticeMsg{err: err}
			}

			return noticeMsg{text: "reconnected"}
		}

		if err := ctrl.Refresh(ctx, frame.Active); err != nil {
			return noticeMsg{err: err}
		}

		return noticeMsg{text: "refreshed " + string(frame.Active)}
	}
}

func (m *Model) refetch() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl

	return func() tea.Msg {
		class, err := ctrl.RefetchPackets(ctx)
		if err != nil {
			return noticeMsg{err: err}
		}

		if class.Kind == filter.QueryNone {
			return noticeMsg{text: "server search cleared"}
		}

		return noticeMsg{text: fmt.Sprintf("server search by %s: %s", class.Kind, class.Value)}
	}
}

func (m *Model) toggleLayout(key string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	flags := models.LayoutFlags()

	if key == "0" {
		return func() tea.Msg {
			if _, err := ctrl.ResetLayout(ctx); err != nil {
				return noticeMsg{err: err}
			}

			return noticeMsg{text: "layout reset"}
		}
	}

	if len(key) != 1 || key[0] < '1' || int(key[0]-'1') >= len(flags) {
		m.notice = ""

		return nil
	}

	flag := flags[key[0]-'1']

	return func() tea.Msg {
		cfg, err := ctrl.ToggleLayout(ctx, flag)
		if err != nil {
			return noticeMsg{err: err}
		}

		visible, _ := cfg.Get(flag)

		return noticeMsg{text: fmt.Sprintf("%s: %t", flag, visible)}
	}
}

func (m *Model) export() tea.Cmd {
	ctrl, dir := m.ctrl, m.exportDir

	return func() tea.Msg {
		path := filepath.Join(dir, "netscope_packets_"+time.Now().Format(exportLayout)+".csv")

		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, exportFilePerms)
		if err != nil {
			return noticeMsg{err: fmt.Errorf("failed to create export file: %w", err)}
		}

		n, err := ctrl.ExportPackets(f)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}

		if err != nil {
			return noticeMsg{err: err}
		}

		return noticeMsg{text: fmt.Sprintf("exported %d packets to %s", n, path)}
	}
}

func (m *Model) report() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl

	return func() tea.Msg {
		path, err := ctrl.DownloadReport(ctx, defaultReport)
		if err != nil {
			return noticeMsg{err: err}
		}

		return noticeMsg{text: "report saved to " + path}
	}
}
