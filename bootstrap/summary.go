package bootstrap

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/ledgerflow/component"
)

// StageInfo describes one pipeline stage for the startup summary.
type StageInfo struct {
	Name    string
	Kind    string // "source", "flow", "queue"
	Details string
}

// Summary collects what the binary is about to run and renders it once
// startup completes.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration

	mu     sync.Mutex
	fields [][2]string
	stages []StageInfo
}

// NewSummary creates an empty summary.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records how long startup took.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Set records a run attribute such as mode or execution id. Setting a key
// again replaces its value.
func (s *Summary) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.fields {
		if s.fields[i][0] == key {
			s.fields[i][1] = value
			return
		}
	}
	s.fields = append(s.fields, [2]string{key, value})
}

// TrackStage records a pipeline stage.
func (s *Summary) TrackStage(name, kind, details string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages = append(s.stages, StageInfo{Name: name, Kind: kind, Details: details})
}

// Stages returns the tracked stages.
func (s *Summary) Stages() []StageInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StageInfo(nil), s.stages...)
}

// Render writes the summary tree: run attributes, infrastructure taken from
// Describable components, pipeline stages and live health.
func (s *Summary) Render(w io.Writer, components []component.Component, health []component.Health) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s %s started in %.2fs\n", s.serviceName, s.version, s.startupDuration.Seconds())

	if len(s.fields) > 0 {
		b.WriteString("\nRun\n")
		for i, f := range s.fields {
			fmt.Fprintf(&b, "   %s %s: %s\n", treePrefix(i, len(s.fields)), f[0], f[1])
		}
	}

	var infra []component.Description
	for _, c := range components {
		d, ok := c.(component.Describable)
		if !ok {
			continue
		}
		desc := d.Describe()
		if desc.Name == "" {
			desc.Name = c.Name()
		}
		infra = append(infra, desc)
	}
	if len(infra) > 0 {
		b.WriteString("\nInfrastructure\n")
		for i, d := range infra {
			details := d.Details
			if d.Port > 0 && !strings.Contains(details, fmt.Sprintf(":%d", d.Port)) {
				details = fmt.Sprintf("%s (:%d)", details, d.Port)
			}
			fmt.Fprintf(&b, "   %s [%s] %s: %s\n", treePrefix(i, len(infra)), d.Type, d.Name, details)
		}
	}

	if len(s.stages) > 0 {
		fmt.Fprintf(&b, "\nPipeline (%d stages)\n", len(s.stages))
		for i, st := range s.stages {
			line := fmt.Sprintf("   %s %-6s %s", treePrefix(i, len(s.stages)), st.Kind, st.Name)
			if st.Details != "" {
				line += " -> " + st.Details
			}
			b.WriteString(line + "\n")
		}
	}

	if len(health) > 0 {
		b.WriteString("\nHealth\n")
		for i, h := range health {
			msg := ""
			if h.Message != "" {
				msg = " (" + h.Message + ")"
			}
			fmt.Fprintf(&b, "   %s %s %s: %s%s\n", treePrefix(i, len(health)), healthIcon(h.Status), h.Name, h.Status, msg)
		}
	}

	b.WriteString("\n")
	_, _ = io.WriteString(w, b.String())
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
