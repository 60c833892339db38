package cli

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/arteria/pkg/core/grow"
	"github.com/matzehuels/arteria/pkg/pipeline"
)

var (
	barFullStyle  = lipgloss.NewStyle().Foreground(colorRed)
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
)

const barWidth = 40

// =============================================================================
// GrowModel - Interactive growth progress
// =============================================================================

type insertionMsg grow.Insertion

type growDoneMsg struct {
	res *pipeline.Result
	err error
}

// GrowModel is the bubbletea model behind `grow --interactive`. It shows a
// progress bar fed by the builder's insertion observer.
type GrowModel struct {
	Total     int
	Done      int
	Last      grow.Insertion
	Nodes     int
	Start     time.Time
	Canceling bool

	Result *pipeline.Result
	Err    error

	cancel context.CancelFunc
}

// NewGrowModel creates a model for a run of total terminals. cancel is
// called when the user quits before the run finishes.
func NewGrowModel(total int, cancel context.CancelFunc) GrowModel {
	return GrowModel{Total: total, Start: time.Now(), cancel: cancel}
}

func (m GrowModel) Init() tea.Cmd {
	return nil
}

func (m GrowModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			// The builder stops at the next insertion boundary and the
			// run reports back through growDoneMsg.
			if !m.Canceling && m.cancel != nil {
				m.Canceling = true
				m.cancel()
			}
		}
	case insertionMsg:
		m.Done = msg.Index + 1
		m.Last = grow.Insertion(msg)
		m.Nodes = msg.Nodes
	case growDoneMsg:
		m.Result, m.Err = msg.res, msg.err
		if msg.res != nil {
			m.Done = msg.res.Stats.Terminals
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m GrowModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Growing arterial tree"))
	b.WriteString("\n\n")

	frac := 0.0
	if m.Total > 0 {
		frac = math.Min(1, float64(m.Done)/float64(m.Total))
	}
	full := int(frac * barWidth)
	b.WriteString("  ")
	b.WriteString(barFullStyle.Render(strings.Repeat("█", full)))
	b.WriteString(barEmptyStyle.Render(strings.Repeat("░", barWidth-full)))
	b.WriteString(fmt.Sprintf(" %s/%d\n", StyleNumber.Render(fmt.Sprint(m.Done)), m.Total))

	if m.Done > 0 {
		junction := "inlet"
		if !math.IsNaN(m.Last.Junction) {
			junction = fmt.Sprintf("%.0f Pa", m.Last.Junction)
		}
		b.WriteString(StyleDim.Render(fmt.Sprintf("  last site %.2f px away · junction %s · %d segments",
			m.Last.Distance, junction, m.Nodes)))
		b.WriteString("\n")
	}
	b.WriteString(StyleDim.Render("  elapsed " + formatDuration(time.Since(m.Start))))
	b.WriteString("\n\n")

	if m.Canceling {
		b.WriteString(StyleWarning.Render("  stopping after the current insertion..."))
	} else {
		b.WriteString(StyleDim.Render("  q quit"))
	}
	b.WriteString("\n")
	return b.String()
}

// runInteractive executes the pipeline behind a GrowModel.
func runInteractive(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewGrowModel(opts.Params.Terminals, cancel), tea.WithOutput(os.Stderr))
	opts.OnInsertion = func(ins grow.Insertion) { p.Send(insertionMsg(ins)) }
	go func() {
		res, err := runner.Execute(ctx, opts)
		p.Send(growDoneMsg{res: res, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("interactive progress: %w", err)
	}
	m := final.(GrowModel)
	return m.Result, m.Err
}
