package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"finterm/internal/models"
)

var (
	criticalBadge = color.New(color.FgRed, color.Bold)
	warningBadge  = color.New(color.FgYellow)
	infoBadge     = color.New(color.FgCyan)
)

// SeverityBadge renders a fixed-width colored severity tag.
func SeverityBadge(severity models.AlertSeverity) string {
	tag := strings.ToUpper(string(severity))
	switch severity {
	case models.SeverityCritical:
		return criticalBadge.Sprintf("%-8s", tag)
	case models.SeverityWarning:
		return warningBadge.Sprintf("%-8s", tag)
	default:
		return infoBadge.Sprintf("%-8s", tag)
	}
}

// StatusMark renders an alert status for list output.
func StatusMark(status models.AlertStatus) string {
	switch status {
	case models.StatusPending:
		return "●"
	case models.StatusRead:
		return "○"
	case models.StatusDismissed:
		return "×"
	default:
		return string(status)
	}
}

// FormatTimeAgo renders a timestamp relative to now.
func FormatTimeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours())/24)
	}
}

// FormatDate formats a date.
func FormatDate(t time.Time) string {
	return t.Format("02-Jan-2006")
}

// FormatDateTime formats a datetime.
func FormatDateTime(t time.Time) string {
	return t.Format("02-Jan-2006 15:04:05")
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}

// TruncateString truncates a string to max length with ellipsis.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
