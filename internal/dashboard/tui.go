package dashboard

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sawpanic/fundarb/internal/model"
)

// RunTUI launches the optional live-updating terminal view (fundarb run
// --tui), polling opps on the same interval as the text renderer: one
// scrolling opportunity table in the terminal's alt-screen buffer.
func RunTUI(interval time.Duration, topN int, opps func() []model.Opportunity) error {
	m := newTuiModel(interval, topN, opps)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type tuiKeyMap struct {
	Quit key.Binding
}

func defaultTuiKeyMap() tuiKeyMap {
	return tuiKeyMap{
		Quit: key.NewBinding(key.WithKeys("ctrl+c", "esc", "q"), key.WithHelp("q", "quit")),
	}
}

type tickMsg time.Time

type tuiModel struct {
	interval   time.Duration
	topN       int
	opps       func() []model.Opportunity
	keyMap     tuiKeyMap
	headerSty  lipgloss.Style
	rows       []model.Opportunity
	lastUpdate time.Time
}

func newTuiModel(interval time.Duration, topN int, opps func() []model.Opportunity) tuiModel {
	return tuiModel{
		interval:  interval,
		topN:      topN,
		opps:      opps,
		keyMap:    defaultTuiKeyMap(),
		headerSty: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keyMap.Quit) {
			return m, tea.Quit
		}
	case tickMsg:
		m.rows = m.opps()
		if m.topN > 0 && len(m.rows) > m.topN {
			m.rows = m.rows[:m.topN]
		}
		m.lastUpdate = time.Time(msg)
		return m, tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
	}
	return m, nil
}

func (m tuiModel) View() string {
	updated := "never"
	if !m.lastUpdate.IsZero() {
		updated = humanize.Time(m.lastUpdate)
	}
	out := m.headerSty.Render(fmt.Sprintf("LIVE DELTA NEUTRAL OPPORTUNITIES (showing %d, updated %s)", len(m.rows), updated)) + "\n"
	for _, o := range m.rows {
		out += fmt.Sprintf("%-12s %-12s %6.1f %8.1f %+8.1f %4.2f %5.1fm\n",
			o.Symbol, pair(o.LongVenue, o.ShortVenue), o.FinalScore,
			o.NetProfitBps, o.EntrySpreadBps, o.LiquidityScore, o.TimeToFundingMin)
	}
	out += "\nq to quit"
	return out
}
