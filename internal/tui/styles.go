// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorSubtle    = lipgloss.Color("241")
	colorHighlight = lipgloss.Color("205")
	colorWhite     = lipgloss.Color("231")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorHighlight)
	helpStyle    = lipgloss.NewStyle().Foreground(colorSubtle)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	docStyle     = lipgloss.NewStyle().Margin(1, 2)
)
