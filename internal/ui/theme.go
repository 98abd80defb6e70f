package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuqie6/LifeRPG/internal/schema"
)

const (
	IconLevel  = "⭐"
	IconRank   = "🏅"
	IconQuest  = "🗺️"
	IconDone   = "✅"
	IconSkip   = "⏭️"
	IconSnooze = "💤"
	IconDecay  = "📉"
	IconFlag   = "🚩"
	IconWarn   = "⚠️"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)

	Panel = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)

	barFull  = lipgloss.NewStyle().Foreground(cGood)
	barEmpty = lipgloss.NewStyle().Foreground(cMuted)
)

// rankColors 段位颜色
var rankColors = map[string]lipgloss.Color{
	"bronze":   lipgloss.Color("130"),
	"silver":   lipgloss.Color("250"),
	"gold":     cGold,
	"platinum": lipgloss.Color("87"),
	"diamond":  lipgloss.Color("45"),
	"master":   cAccent,
}

func Heading(icon, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// RankText 按段位着色
func RankText(key, name string) string {
	c, ok := rankColors[key]
	if !ok {
		return name
	}
	return lipgloss.NewStyle().Bold(true).Foreground(c).Render(name)
}

// ProgressBar pct 为 0-100
func ProgressBar(pct float64, width int) string {
	if width <= 0 {
		width = 20
	}
	if math.IsNaN(pct) || pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	full := int(math.Round(pct / 100 * float64(width)))
	return barFull.Render(strings.Repeat("█", full)) + barEmpty.Render(strings.Repeat("░", width-full))
}

func QuestStatusText(s schema.QuestStatus) string {
	switch s {
	case schema.QuestDone:
		return Good.Render(IconDone + " done")
	case schema.QuestSkipped:
		return Muted.Render(IconSkip + " skipped")
	case schema.QuestSnoozed:
		return Warn.Render(IconSnooze + " snoozed")
	case schema.QuestOpen:
		return H2.Render("open")
	default:
		return Muted.Render(string(s))
	}
}

func Difficulty(d int) string {
	return Gold.Render(strings.Repeat("★", max(d, 0))) + Muted.Render(strings.Repeat("☆", max(3-d, 0)))
}
