package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/questify/internal/client"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("240"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	goldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	xpStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("39"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

const barWidth = 20

// xpBar 渲染当前等级内的经验进度条
func xpBar(xp, xpMax int) string {
	if xpMax <= 0 {
		xpMax = 1
	}
	filled := min(xp*barWidth/xpMax, barWidth)
	return xpStyle.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", barWidth-filled))
}

func renderEconomy(e client.Economy) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Level %d", e.Level)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s %d/%d\n", labelStyle.Render("XP  "), xpBar(e.XP, e.XPMax), e.XP, e.XPMax)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Gold"), goldStyle.Render(fmt.Sprintf("%d", e.Gold)))
	fmt.Fprintf(&b, "%s STR %d  DEX %d  INT %d  WIS %d  CHA %d\n",
		labelStyle.Render("Stats"), e.Strength, e.Dexterity, e.Intelligence, e.Wisdom, e.Charisma)
	if e.LastRollover != "" {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Rollover"), e.LastRollover)
	}
	return b.String()
}

func checkbox(done bool) string {
	if done {
		return doneStyle.Render("[x]")
	}
	return "[ ]"
}

func renderResult(r client.Result) string {
	if r.IsOk() {
		return doneStyle.Render("✓ ") + r.Command
	}
	return errorStyle.Render("✗ ") + r.Command + mutedStyle.Render(" ("+r.Reason+")")
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
