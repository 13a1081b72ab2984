package main

import "github.com/charmbracelet/lipgloss"

// 终端输出的共享配色：OK 绿、FAIL 红、摘要加亮。
const (
	colorOK   = lipgloss.Color("#10B981")
	colorFail = lipgloss.Color("#EF4444")
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(colorOK)
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorFail)
	brightStyle = lipgloss.NewStyle().Bold(true)
)
