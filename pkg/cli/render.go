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

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/carverauto/inkmirror/pkg/jobs"
	"github.com/carverauto/inkmirror/pkg/models"
	"github.com/carverauto/inkmirror/pkg/worker"
)

// Dracula theme colors.
const (
	draculaForeground = "#F8F8F2"
	draculaCyan       = "#8BE9FD"
	draculaGreen      = "#50FA7B"
	draculaOrange     = "#FFB86C"
	draculaPink       = "#FF79C6"
	draculaPurple     = "#BD93F9"
	draculaRed        = "#FF5555"
	draculaComment    = "#6272A4"
)

const (
	boxPaddingV = 0
	boxPaddingH = 2
	labelWidth  = 14
	logTimeFmt  = "2006-01-02 15:04:05"
)

func newStyles() logStyles {
	return logStyles{
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaPink)).
			Bold(true),
		label: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaCyan)).
			Width(labelWidth),
		value: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaForeground)),
		muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)),
		success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaGreen)),
		warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaOrange)),
		error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaRed)).
			Bold(true),
		box: lipgloss.NewStyle().
			Padding(boxPaddingV, boxPaddingH).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(draculaPurple)),
	}
}

func (a *App) row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, a.styles.label.Render(label), a.styles.value.Render(value))
}

func (a *App) renderDevice(device *models.DeviceConfig) string {
	rate := "server default"
	if device.RefreshRateSecs != nil {
		rate = strconv.FormatInt(*device.RefreshRateSecs, 10) + "s"
	}

	master := "unset"
	if device.IsMasterDevice != nil {
		master = strconv.FormatBool(*device.IsMasterDevice)
	}

	rows := []string{
		a.styles.title.Render("Device"),
		a.row("Type", device.Type.String()),
		a.row("API", device.APIBaseURL),
		a.row("Token", device.MaskedToken()),
		a.row("MAC", valueOr(device.DeviceMacID, "-")),
		a.row("Refresh rate", rate),
		a.row("Master", master),
		a.row("Playlist", device.PlaylistMode().String()),
	}

	return a.styles.box.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a *App) renderResult(result jobs.Result) string {
	if result.Kind == jobs.ResultSuccess {
		return a.styles.success.Render("Refreshed: ") + a.styles.value.Render(result.Output.String(worker.OutputImageURL))
	}

	msg := result.Output.String(worker.OutputError)
	if msg == "" {
		msg = result.Kind.String()
	}

	return a.styles.error.Render("Refresh failed: ") + a.styles.value.Render(msg)
}

func (a *App) renderLogs(entries []models.RefreshLogEntry) string {
	if len(entries) == 0 {
		return a.styles.muted.Render("No refresh attempts recorded")
	}

	var b strings.Builder

	b.WriteString(a.styles.title.Render(fmt.Sprintf("Refresh log (%d)", len(entries))))

	// newest first
	for i := len(entries) - 1; i >= 0; i-- {
		e := &entries[i]

		b.WriteString("\n")
		b.WriteString(a.styles.muted.Render(e.Time().Local().Format(logTimeFmt)))
		b.WriteString(" ")
		b.WriteString(a.styles.muted.Render(fmt.Sprintf("%-8s", e.WorkType)))

		if e.Success {
			b.WriteString(a.styles.success.Render("OK   "))
			b.WriteString(a.styles.value.Render(valueOr(e.ImageName, e.ImageURL)))

			if e.RefreshIntervalSeconds != nil {
				b.WriteString(a.styles.muted.Render(fmt.Sprintf(" (%ds)", *e.RefreshIntervalSeconds)))
			}

			continue
		}

		b.WriteString(a.styles.error.Render("FAIL "))
		b.WriteString(a.styles.warning.Render(e.Error))

		if e.HTTPResponseMetadata != nil {
			b.WriteString(a.styles.muted.Render(fmt.Sprintf(" [HTTP %d]", e.HTTPResponseMetadata.StatusCode)))
		}
	}

	return b.String()
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}

	return v
}
