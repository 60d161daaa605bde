// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"

	"rivaas.dev/apicompat/compat"
	"rivaas.dev/apicompat/config"
	"rivaas.dev/apicompat/metrics"
	"rivaas.dev/apicompat/tracing"
)

var (
	gradientColors = []string{"12", "14", "10", "11"}

	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(18).PaddingLeft(2)
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	providerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// printBanner writes the startup banner. Colors are downsampled to what w
// supports and stripped entirely when w is not a terminal.
func printBanner(w io.Writer, s *config.Settings, m *compat.Manager, mp metrics.Provider, tp tracing.Provider) {
	cpw := colorprofile.NewWriter(w, os.Environ())

	var art strings.Builder
	for _, line := range figure.NewFigure(s.Telemetry.ServiceName, "", false).Slicify() {
		if strings.TrimSpace(line) == "" {
			art.WriteString("\n")
			continue
		}
		for i, char := range line {
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradientColors[i%len(gradientColors)])).Bold(true)
			art.WriteString(style.Render(string(char)))
		}
		art.WriteString("\n")
	}

	addr := s.Server.Addr
	if strings.HasPrefix(addr, ":") {
		addr = "0.0.0.0" + addr
	}
	base := "http://" + addr + s.Server.MetaPrefix

	info := m.Versions()
	row := func(label, value string) string {
		return labelStyle.Render(label) + "  " + value + "\n"
	}

	var out strings.Builder
	out.WriteString(categoryStyle.Render("Service") + "\n")
	out.WriteString(row("Address:", valueStyle.Foreground(lipgloss.Color("10")).Render("http://"+addr)))
	out.WriteString(row("Strategy:", valueStyle.Render(m.Middleware().Config().Strategy().Method())))
	out.WriteString(row("Default version:", valueStyle.Foreground(lipgloss.Color("14")).Render(info.CurrentVersion)))
	out.WriteString(row("Supported:", valueStyle.Render(strings.Join(info.SupportedVersions, ", "))))
	if len(info.DeprecatedVersions) > 0 {
		names := make([]string, 0, len(info.DeprecatedVersions))
		for _, d := range info.DeprecatedVersions {
			names = append(names, d.Version)
		}
		out.WriteString(row("Deprecated:", valueStyle.Foreground(lipgloss.Color("11")).Render(strings.Join(names, ", "))))
	}

	out.WriteString("\n" + categoryStyle.Render("Endpoints") + "\n")
	out.WriteString(row("Versions:", valueStyle.Render(base+"/versions")))
	out.WriteString(row("Changelog:", valueStyle.Render(base+"/changelog")))
	out.WriteString(row("Migration:", valueStyle.Render(base+"/migration/{from}/{to}")))
	if s.Server.MetricsToken != "" {
		out.WriteString(row("Metrics:", valueStyle.Foreground(lipgloss.Color("13")).Render(base+"/metrics")+"  "+
			providerStyle.Render(fmt.Sprintf("[%s]", mp))))
	} else {
		out.WriteString(row("Metrics:", disabledStyle.Render("Disabled (no metricsToken)")))
	}
	out.WriteString(row("Tracing:", valueStyle.Foreground(lipgloss.Color("12")).Render("Enabled")+"  "+
		providerStyle.Render(fmt.Sprintf("[%s]", tp))))

	_, _ = fmt.Fprintln(cpw)
	_, _ = fmt.Fprint(cpw, art.String())
	_, _ = fmt.Fprintln(cpw)
	_, _ = fmt.Fprint(cpw, out.String())
	_, _ = fmt.Fprintln(cpw)
}
