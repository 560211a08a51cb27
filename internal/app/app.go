// Package app provides the interactive terminal UI for the run
// command: a live view of each pipeline stage and the per-unit
// statuses within it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/okqualiteeau/eauparquet/internal/blob"
	"github.com/okqualiteeau/eauparquet/internal/config"
	"github.com/okqualiteeau/eauparquet/internal/extractor"
	"github.com/okqualiteeau/eauparquet/internal/fetcher"
	"github.com/okqualiteeau/eauparquet/internal/tabularizer"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	stageStyle   = lipgloss.NewStyle().Bold(true)
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	unitStyle    = lipgloss.NewStyle().PaddingLeft(2)
	statusStyle  = map[string]lipgloss.Style{
		"Downloading": lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		"Extracting":  lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		"Assembling":  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		"Complete":    lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		"Skipped":     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		"Error":       lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

type unitState struct {
	Name   string
	Status string
	Detail string
}

type stageState struct {
	Name    string
	Done    bool
	Summary string
	Err     error
	units   map[string]*unitState
	order   []string
}

// Model is the bubbletea model for a pipeline run.
type Model struct {
	spinner    spinner.Model
	bar        progress.Model
	stages     []*stageState
	stageIndex map[string]int
	current    int
	done       bool
	err        error
	quitting   bool
	width      int
}

func NewModel() *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := &Model{
		spinner:    s,
		bar:        progress.New(progress.WithDefaultGradient()),
		stageIndex: make(map[string]int),
	}
	for i, name := range Stages {
		m.stages = append(m.stages, &stageState{Name: name, units: make(map[string]*unitState)})
		m.stageIndex[name] = i
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(0, msg.Width-4)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case UnitMsg:
		if i, ok := m.stageIndex[msg.Stage]; ok {
			m.current = i
			st := m.stages[i]
			u, ok := st.units[msg.Unit]
			if !ok {
				u = &unitState{Name: msg.Unit}
				st.units[msg.Unit] = u
				st.order = append(st.order, msg.Unit)
			}
			u.Status = msg.Status
			u.Detail = msg.Detail
			if msg.Err != nil {
				u.Detail = msg.Err.Error()
			}
		}
	case StageDoneMsg:
		if i, ok := m.stageIndex[msg.Stage]; ok {
			st := m.stages[i]
			st.Done = true
			st.Summary = msg.Summary
			st.Err = msg.Err
		}
	case PipelineDoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) View() string {
	if m.quitting {
		return "Aborted.\n"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("eauparquet pipeline"))
	b.WriteString("\n\n")

	completed := 0
	for _, st := range m.stages {
		if st.Done {
			completed++
		}
	}
	b.WriteString(m.bar.ViewAs(float64(completed) / float64(len(m.stages))))
	b.WriteString("\n\n")

	for i, st := range m.stages {
		head := st.Name
		switch {
		case st.Err != nil:
			head = fmt.Sprintf("%s %s", head, errorStyle.Render("failed: "+st.Err.Error()))
		case st.Done:
			head = fmt.Sprintf("%s %s", head, summaryStyle.Render(st.Summary))
		case i == m.current && !m.done:
			head = fmt.Sprintf("%s %s", m.spinner.View(), head)
		}
		b.WriteString(stageStyle.Render(head))
		b.WriteString("\n")

		for _, name := range st.order {
			u := st.units[name]
			style, ok := statusStyle[u.Status]
			if !ok {
				style = summaryStyle
			}
			line := fmt.Sprintf("%-32s %s", u.Name, style.Render(u.Status))
			if u.Detail != "" {
				line += " " + summaryStyle.Render(u.Detail)
			}
			b.WriteString(unitStyle.Render(line))
			b.WriteString("\n")
		}
	}

	if m.done {
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(errorStyle.Render("Pipeline finished with errors: " + m.err.Error()))
		} else {
			b.WriteString(titleStyle.Render("Pipeline finished."))
		}
		b.WriteString("\n")
	} else {
		b.WriteString(summaryStyle.Render("\nq to abort\n"))
	}
	return b.String()
}

// Run executes the full pipeline while driving the UI. Quitting the
// view cancels the pipeline context; Run waits for the pipeline to
// stop before returning its error.
func Run(ctx context.Context, cfg config.Config, store blob.Store, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel())

	errCh := make(chan error, 1)
	go func() {
		err := runPipeline(ctx, cfg, store, logger, p.Send)
		errCh <- err
		p.Send(PipelineDoneMsg{Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-errCh
		return fmt.Errorf("ui: %w", err)
	}
	cancel()
	return <-errCh
}

// runPipeline runs the four stages sequentially, translating each
// stage's progress channel into UI messages via send.
func runPipeline(ctx context.Context, cfg config.Config, store blob.Store, logger *slog.Logger, send func(tea.Msg)) error {
	// Fetch
	fetchCh := make(chan fetcher.Progress)
	go func() {
		for e := range fetchCh {
			send(UnitMsg{Stage: StageFetch, Unit: shortUnit(e.URL), Status: e.Status, Err: e.Err})
		}
	}()
	fsum, err := fetcher.FetchArchives(ctx, cfg, store, logger, fetchCh)
	close(fetchCh)
	send(StageDoneMsg{Stage: StageFetch, Summary: fmt.Sprintf("(%d fetched, %d skipped)", fsum.Fetched, fsum.Skipped), Err: err})
	if err != nil {
		// Fetch failures are fatal for the run.
		return err
	}

	// Extract
	extractCh := make(chan extractor.Progress)
	go func() {
		for e := range extractCh {
			detail := ""
			if e.Uploaded > 0 {
				detail = fmt.Sprintf("%d files", e.Uploaded)
			}
			send(UnitMsg{Stage: StageExtract, Unit: e.Archive, Status: e.Status, Detail: detail, Err: e.Err})
		}
	}()
	esum, err := extractor.ExtractArchives(ctx, cfg, store, logger, extractCh)
	close(extractCh)
	send(StageDoneMsg{Stage: StageExtract, Summary: fmt.Sprintf("(%d processed, %d skipped)", esum.Processed, esum.Skipped), Err: err})
	finalErr := err

	// Tabulate, one pipeline per file kind.
	for _, k := range []struct {
		kind  tabularizer.Kind
		stage string
	}{
		{tabularizer.KindSamplingPoint, StagePlv},
		{tabularizer.KindResult, StageResult},
	} {
		tabCh := make(chan tabularizer.Progress)
		stage := k.stage
		go func() {
			for e := range tabCh {
				detail := ""
				if e.Rows > 0 {
					detail = fmt.Sprintf("%d rows", e.Rows)
				}
				send(UnitMsg{Stage: stage, Unit: e.Year, Status: e.Status, Detail: detail, Err: e.Err})
			}
		}()
		tsum, err := tabularizer.TabulateYears(ctx, cfg, store, k.kind, logger, tabCh)
		close(tabCh)
		send(StageDoneMsg{Stage: stage, Summary: fmt.Sprintf("(%d processed, %d skipped)", tsum.Processed, tsum.Skipped), Err: err})
		if err != nil && finalErr == nil {
			finalErr = err
		}
	}

	return finalErr
}

// shortUnit trims a URL down to its file name for display.
func shortUnit(u string) string {
	if i := strings.LastIndex(u, "/"); i >= 0 && i < len(u)-1 {
		return u[i+1:]
	}
	return u
}
