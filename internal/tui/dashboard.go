// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

// Package tui is the fleet dashboard shown when botship is run without a
// subcommand. It lists the fleet's targets and the most recent deployment
// rows in two switchable tables.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/botship/botship/internal/db"
	"github.com/botship/botship/internal/i18n"
	"github.com/botship/botship/internal/model"
)

// historyRows is how many deployment rows the dashboard loads.
const historyRows = 50

type pane int

const (
	paneTargets pane = iota
	paneHistory
)

type dashboardModel struct {
	targets table.Model
	history table.Model
	active  pane
	err     error
}

func newDashboardModel() dashboardModel {
	m := dashboardModel{}

	targets, err := db.GetAllTargets()
	if err != nil {
		m.err = err
		return m
	}
	deployments, err := db.GetDeployments(historyRows)
	if err != nil {
		m.err = err
		return m
	}

	m.targets = newTargetsTable(targets)
	m.history = newHistoryTable(deployments)
	m.targets.Focus()
	return m
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorSubtle).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(colorWhite).
		Background(colorHighlight).
		Bold(false)
	return s
}

func newTargetsTable(targets []model.Target) table.Model {
	columns := []table.Column{
		{Title: i18n.T("dashboard.header.target"), Width: 28},
		{Title: i18n.T("dashboard.header.label"), Width: 22},
		{Title: i18n.T("dashboard.header.tags"), Width: 18},
		{Title: i18n.T("dashboard.header.status"), Width: 10},
	}

	var rows []table.Row
	for _, t := range targets {
		status := successStyle.Render(i18n.T("dashboard.status_active"))
		if !t.IsActive {
			status = errorStyle.Render(i18n.T("dashboard.status_inactive"))
		}
		name := t.String()
		if t.Port != 0 && t.Port != 22 {
			name = fmt.Sprintf("%s:%d", name, t.Port)
		}
		rows = append(rows, table.Row{name, t.Label, t.Tags, status})
	}

	tbl := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(12),
	)
	tbl.SetStyles(tableStyles())
	return tbl
}

func newHistoryTable(rows []model.DeploymentRecord) table.Model {
	columns := []table.Column{
		{Title: i18n.T("dashboard.header.timestamp"), Width: 20},
		{Title: i18n.T("dashboard.header.target"), Width: 24},
		{Title: i18n.T("dashboard.header.file"), Width: 34},
		{Title: i18n.T("dashboard.header.status"), Width: 10},
		{Title: i18n.T("dashboard.header.attempts"), Width: 8},
	}

	var tableRows []table.Row
	for _, r := range rows {
		ts := r.Timestamp
		if len(ts) > 19 {
			ts = ts[:19]
		}
		status := r.Status
		if r.Status == string(model.FileDeployed) {
			status = successStyle.Render(r.Status)
		} else {
			status = errorStyle.Render(r.Status)
		}
		tableRows = append(tableRows, table.Row{ts, r.Target, r.RemotePath, status, fmt.Sprintf("%d", r.Attempts)})
	}

	tbl := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithHeight(12),
	)
	tbl.SetStyles(tableStyles())
	return tbl
}

func (m dashboardModel) Init() tea.Cmd {
	return nil
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h := msg.Height - 8
		if h < 3 {
			h = 3
		}
		m.targets.SetHeight(h)
		m.history.SetHeight(h)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			if m.active == paneTargets {
				m.active = paneHistory
				m.targets.Blur()
				m.history.Focus()
			} else {
				m.active = paneTargets
				m.history.Blur()
				m.targets.Focus()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.active == paneTargets {
		m.targets, cmd = m.targets.Update(msg)
	} else {
		m.history, cmd = m.history.Update(msg)
	}
	return m, cmd
}

func (m dashboardModel) View() string {
	if m.err != nil {
		return docStyle.Render(errorStyle.Render(fmt.Sprintf("Error loading dashboard: %v", m.err)))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("🤖 "+i18n.T("dashboard.title")) + "\n\n")

	if m.active == paneTargets {
		b.WriteString(titleStyle.Render(i18n.T("dashboard.targets")) + "\n")
		if len(m.targets.Rows()) == 0 {
			b.WriteString(helpStyle.Render(i18n.T("target.none")) + "\n")
		} else {
			b.WriteString(m.targets.View() + "\n")
		}
	} else {
		b.WriteString(titleStyle.Render(i18n.T("dashboard.deployments")) + "\n")
		if len(m.history.Rows()) == 0 {
			b.WriteString(helpStyle.Render(i18n.T("history.empty")) + "\n")
		} else {
			b.WriteString(m.history.View() + "\n")
		}
	}

	b.WriteString(helpStyle.Render("\n" + i18n.T("dashboard.help")))
	return docStyle.Render(b.String())
}

// Run starts the dashboard and blocks until the user quits.
func Run() {
	p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("Error running dashboard: %v", err)))
	}
}
