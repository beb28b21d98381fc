package dashboard

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/loyalhood/loyalhood/internal/statusclient"
	"github.com/loyalhood/loyalhood/internal/website"
)

// Color is a display color for a status indicator.
type Color string

const (
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorRed    Color = "red"
	ColorMuted  Color = "muted"
)

// Icon is a symbolic status indicator.
type Icon string

const (
	IconCheck Icon = "check-circle"
	IconAlert Icon = "alert-circle"
	IconClock Icon = "clock"
	IconGlobe Icon = "globe"
)

// StatusColor maps an endpoint status to its indicator color.
func StatusColor(s website.Status) Color {
	switch s {
	case website.StatusOnline:
		return ColorGreen
	case website.StatusDegraded:
		return ColorYellow
	case website.StatusOffline:
		return ColorRed
	case website.StatusChecking:
		return ColorMuted
	default:
		return ColorMuted
	}
}

// StatusIcon maps an endpoint status to its indicator icon.
func StatusIcon(s website.Status) Icon {
	switch s {
	case website.StatusOnline:
		return IconCheck
	case website.StatusDegraded, website.StatusOffline:
		return IconAlert
	case website.StatusChecking:
		return IconClock
	default:
		return IconGlobe
	}
}

// OverallColor maps the system status to its indicator color.
func OverallColor(o website.Overall) Color {
	switch o {
	case website.OverallOperational:
		return ColorGreen
	case website.OverallDegraded:
		return ColorYellow
	case website.OverallOutage:
		return ColorRed
	default:
		return ColorMuted
	}
}

// OverallMessage describes the system status in one sentence.
func OverallMessage(o website.Overall) string {
	switch o {
	case website.OverallOperational:
		return "All systems are running smoothly"
	case website.OverallDegraded:
		return "Some services are experiencing issues"
	case website.OverallChecking:
		return "Checking service status"
	default:
		return "Major service disruption detected"
	}
}

// UptimeBarColor colors an hourly uptime bar: above 95% green, above 80%
// yellow, otherwise red.
func UptimeBarColor(percentage float64) Color {
	switch {
	case percentage > 95:
		return ColorGreen
	case percentage > 80:
		return ColorYellow
	default:
		return ColorRed
	}
}

// AverageResponseTime is the mean response time in milliseconds over the
// online endpoints. It is 0 when no endpoint is online.
func AverageResponseTime(s *statusclient.SystemSnapshot) float64 {
	if s == nil {
		return 0
	}

	var sum, n int
	for _, e := range s.Endpoints {
		if e.Status != website.StatusOnline {
			continue
		}
		sum += e.ResponseTimeMs
		n++
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// Ratio is the share of online endpoints.
type Ratio struct {
	Online int
	Total  int
}

// Value returns Online/Total, or 0 when there are no endpoints.
func (r Ratio) Value() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Online) / float64(r.Total)
}

func (r Ratio) String() string {
	return fmt.Sprintf("%d/%d", r.Online, r.Total)
}

// OnlineRatio counts online endpoints against all endpoints.
func OnlineRatio(s *statusclient.SystemSnapshot) Ratio {
	if s == nil {
		return Ratio{}
	}

	r := Ratio{Total: len(s.Endpoints)}
	for _, e := range s.Endpoints {
		if e.Status == website.StatusOnline {
			r.Online++
		}
	}
	return r
}

// Directory holds display metadata for the monitored sites.
type Directory struct {
	order []string
	sites map[string]website.Site
}

// NewDirectory indexes sites by host, keeping their order for display.
func NewDirectory(sites []website.Site) Directory {
	d := Directory{sites: make(map[string]website.Site, len(sites))}
	for _, s := range sites {
		d.order = append(d.order, s.Host)
		d.sites[s.Host] = s
	}
	return d
}

// DisplayName returns the human-readable name of host.
func (d Directory) DisplayName(host string) string {
	if s, ok := d.sites[host]; ok && s.DisplayName != "" {
		return s.DisplayName
	}
	return host
}

// Description returns the one-line description of host.
func (d Directory) Description(host string) string {
	if s, ok := d.sites[host]; ok && s.Description != "" {
		return s.Description
	}
	return "Website monitoring"
}

// sortHosts orders hosts by directory position, unknown hosts last by name.
func (d Directory) sortHosts(hosts []string) {
	pos := make(map[string]int, len(d.order))
	for i, h := range d.order {
		pos[h] = i
	}
	sort.SliceStable(hosts, func(i, j int) bool {
		pi, iok := pos[hosts[i]]
		pj, jok := pos[hosts[j]]
		switch {
		case iok && jok:
			return pi < pj
		case iok != jok:
			return iok
		default:
			return hosts[i] < hosts[j]
		}
	})
}

// EndpointView is the display model of one endpoint.
type EndpointView struct {
	Host           string
	DisplayName    string
	Description    string
	Status         website.Status
	Color          Color
	Icon           Icon
	ResponseTimeMs int
	LastChecked    time.Time
	Detail         string
}

// UptimeBar is one hour of the uptime chart.
type UptimeBar struct {
	Hour       int
	Percentage float64
	Color      Color
}

// View is the complete display model derived from one snapshot.
type View struct {
	Overall             website.Overall
	OverallColor        Color
	OverallMessage      string
	Now                 time.Time
	AverageResponseTime float64
	Online              Ratio
	Uptime              []UptimeBar
	Endpoints           []EndpointView
}

// Render derives the display model from a snapshot.
func Render(s *statusclient.SystemSnapshot, now time.Time, dir Directory) View {
	v := View{
		Overall:             website.OverallChecking,
		Now:                 now,
		AverageResponseTime: AverageResponseTime(s),
		Online:              OnlineRatio(s),
	}
	if s == nil {
		v.OverallColor = OverallColor(v.Overall)
		v.OverallMessage = OverallMessage(v.Overall)
		return v
	}

	v.Overall = s.Overall
	v.OverallColor = OverallColor(s.Overall)
	v.OverallMessage = OverallMessage(s.Overall)

	for _, p := range s.UptimeSeries {
		v.Uptime = append(v.Uptime, UptimeBar{
			Hour:       p.Hour,
			Percentage: p.Percentage,
			Color:      UptimeBarColor(p.Percentage),
		})
	}

	hosts := s.Hosts()
	dir.sortHosts(hosts)
	for _, h := range hosts {
		e := s.Endpoints[h]
		v.Endpoints = append(v.Endpoints, EndpointView{
			Host:           h,
			DisplayName:    dir.DisplayName(h),
			Description:    dir.Description(h),
			Status:         e.Status,
			Color:          StatusColor(e.Status),
			Icon:           StatusIcon(e.Status),
			ResponseTimeMs: e.ResponseTimeMs,
			LastChecked:    e.LastCheckedAt,
			Detail:         endpointDetail(e),
		})
	}

	return v
}

func endpointDetail(e statusclient.EndpointStatus) string {
	switch e.Status {
	case website.StatusOnline:
		return fmt.Sprintf("Response Time: %dms  Last Checked: %s", e.ResponseTimeMs, e.LastCheckedAt.Local().Format(time.TimeOnly))
	case website.StatusOffline:
		return "Service unavailable - investigating issue"
	default:
		return ""
	}
}

var ansi = map[Color]string{
	ColorGreen:  "\x1b[32m",
	ColorYellow: "\x1b[33m",
	ColorRed:    "\x1b[31m",
	ColorMuted:  "\x1b[90m",
}

const ansiReset = "\x1b[0m"

var iconGlyph = map[Icon]string{
	IconCheck: "✔",
	IconAlert: "!",
	IconClock: "…",
	IconGlobe: "○",
}

// WriteText writes a terminal rendering of the view. Colors are ANSI escapes
// unless plain is set.
func (v View) WriteText(w io.Writer, plain bool) error {
	paint := func(c Color, s string) string {
		if plain {
			return s
		}
		return ansi[c] + s + ansiReset
	}

	var b strings.Builder
	fmt.Fprintf(&b, "LoyalHOOD Live Status  %s\n\n", v.Now.Format(time.TimeOnly))
	fmt.Fprintf(&b, "Overall Status: %s\n", paint(v.OverallColor, string(v.Overall)))
	fmt.Fprintf(&b, "  %s\n", v.OverallMessage)
	fmt.Fprintf(&b, "Avg Response Time: %.0fms   Services Online: %s\n\n", v.AverageResponseTime, v.Online)

	b.WriteString("24-Hour Uptime: ")
	if len(v.Uptime) == 0 {
		b.WriteString("no data")
	}
	for _, bar := range v.Uptime {
		b.WriteString(paint(bar.Color, uptimeGlyph(bar.Percentage)))
	}
	b.WriteString("\n\n")

	for _, e := range v.Endpoints {
		fmt.Fprintf(&b, "%s %-16s %-24s %s\n",
			paint(e.Color, iconGlyph[e.Icon]), e.DisplayName, e.Host, paint(e.Color, string(e.Status)))
		fmt.Fprintf(&b, "    %s\n", e.Description)
		if e.Detail != "" {
			fmt.Fprintf(&b, "    %s\n", e.Detail)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

var uptimeLevels = []string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

func uptimeGlyph(percentage float64) string {
	idx := int(percentage / 100 * float64(len(uptimeLevels)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(uptimeLevels) {
		idx = len(uptimeLevels) - 1
	}
	return uptimeLevels[idx]
}
