package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-netview/pkg/config"
	"github.com/dd0wney/cluso-netview/pkg/evolve"
	"github.com/dd0wney/cluso-netview/pkg/netview"
	"github.com/dd0wney/cluso-netview/pkg/pubsub"
	"github.com/dd0wney/cluso-netview/pkg/render"
	"github.com/dd0wney/cluso-netview/pkg/scene"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#CDC0B4")).
			MarginLeft(1)

	frameStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#666666"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FFFF")).
			MarginLeft(1)

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginLeft(1)

	pausedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFF00"))
)

// chromeLines is the terminal height not available to the frame.
const chromeLines = 6

const maxEvents = 3

type keyMap struct {
	Pause key.Binding
	Step  key.Binding
	Help  key.Binding
	Quit  key.Binding
}

var keys = keyMap{
	Pause: key.NewBinding(
		key.WithKeys(" ", "p"),
		key.WithHelp("space", "pause/resume"),
	),
	Step: key.NewBinding(
		key.WithKeys("n", "right"),
		key.WithHelp("n", "step while paused"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Step},
		{k.Help, k.Quit},
	}
}

// frameMsg asks the model to redraw from the scene.
type frameMsg struct{}

type mutationMsg evolve.MutationEvent

// waitForFrame turns one coalesced repaint request into a frameMsg.
func waitForFrame(repaint <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-repaint; !ok {
			return nil
		}
		return frameMsg{}
	}
}

func waitForMutation(sub *pubsub.Subscription[evolve.MutationEvent]) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub.Channel()
		if !ok {
			return nil
		}
		return mutationMsg(ev)
	}
}

type model struct {
	view    *netview.View
	sub     *render.Substrate
	repaint <-chan struct{}
	events  *pubsub.Subscription[evolve.MutationEvent]
	keys    keyMap
	help    help.Model

	width  int
	height int
	frame  string
	report netview.TickReport
	recent []string
	paused bool
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForFrame(m.repaint), waitForMutation(m.events))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.sub.Resize(max(msg.Width-2, 1), max(msg.Height-chromeLines-2, 1))

	case frameMsg:
		m.redraw()
		return m, waitForFrame(m.repaint)

	case mutationMsg:
		ev := evolve.MutationEvent(msg)
		if ev.Kind.Structural() {
			m.recent = append([]string{ev.String()}, m.recent...)
			if len(m.recent) > maxEvents {
				m.recent = m.recent[:maxEvents]
			}
		}
		return m, waitForMutation(m.events)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
			if m.paused {
				m.view.Stop()
			} else {
				m.view.Start()
			}

		case key.Matches(msg, m.keys.Step):
			if m.paused {
				m.view.Tick()
			}

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}
	return m, nil
}

func (m *model) redraw() {
	m.view.Read(func(sc *scene.Scene) {
		m.frame = m.sub.Frame(sc).Styled()
	})
	m.report = m.view.LastReport()
}

func (m model) View() string {
	var b strings.Builder

	title := titleStyle.Render("netview")
	if m.paused {
		title += " " + pausedStyle.Render("paused")
	}
	b.WriteString(title + "\n")
	b.WriteString(frameStyle.Render(m.frame) + "\n")

	r := m.report
	b.WriteString(statusStyle.Render(fmt.Sprintf(
		"gen %d · tick %d · %d nodes · %d links · %s",
		r.Generation, r.Tick, r.Layout.Nodes, r.Layout.Links, r.Duration.Round(time.Microsecond),
	)) + "\n")
	for _, e := range m.recent {
		b.WriteString(eventStyle.Render(e) + "\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func tuiCmd() *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Animate the network in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runTUI(cmd.Context(), cfg, logFile)
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of discarding them")
	return cmd
}

func runTUI(parent context.Context, cfg *config.Config, logFile string) error {
	var w io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	logger := newLogger(cfg, w)

	// Repaints arrive under the view lock; coalesce them without blocking.
	repaint := make(chan struct{}, 1)
	sub := render.NewSubstrate(80, 24-chromeLines, func() {
		select {
		case repaint <- struct{}{}:
		default:
		}
	}, logger)

	a, err := newApp(cfg, sub, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parent)
	defer func() {
		cancel()
		a.close()
	}()

	events, err := a.bus.Subscribe(ctx, evolve.TopicMutations)
	if err != nil {
		return err
	}
	defer events.Unsubscribe()

	a.start(ctx)

	m := model{
		view:    a.view,
		sub:     sub,
		repaint: repaint,
		events:  events,
		keys:    keys,
		help:    help.New(),
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
