package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"seqinfo/internal/report"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#10B981")
	accentColor    = lipgloss.Color("#F59E0B")
	surfaceColor   = lipgloss.Color("#1F2937")
	textColor      = lipgloss.Color("#F3F4F6")
	mutedColor     = lipgloss.Color("#9CA3AF")
	borderColor    = lipgloss.Color("#374151")
)

var (
	containerStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(surfaceColor).
			Padding(0, 1)

	sequenceStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(lipgloss.Color("#111827")).
			Padding(1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	labelStyle        = lipgloss.NewStyle().Foreground(mutedColor)
	dbUniprotStyle    = lipgloss.NewStyle().Foreground(secondaryColor).Bold(true)
	dbEnsemblStyle    = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	noRecordStyle     = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
	sectionTitleStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
)

func loadReport(path string) ([]report.SeqInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rep.SeqInfo, nil
}

// hasRecord reports whether the lookup produced a record for the entry.
func hasRecord(e report.SeqInfo) bool {
	switch v := e.DBInfo.(type) {
	case nil:
		return false
	case map[string]any:
		return len(v) > 0
	}
	return true
}

type listItem struct {
	entry report.SeqInfo
}

func (i listItem) FilterValue() string {
	if i.entry.DBID != nil {
		return *i.entry.DBID + " " + i.entry.Description
	}
	return i.entry.Description
}

func (i listItem) Title() string {
	if i.entry.DBID != nil {
		return *i.entry.DBID
	}
	return i.entry.Description
}

func (i listItem) Description() string {
	return fmt.Sprintf("%s    len: %d", dbStyle(i.entry.DB).Render(i.entry.DB), len(i.entry.Seq))
}

func dbStyle(db string) lipgloss.Style {
	switch db {
	case "Uniprot":
		return dbUniprotStyle
	case "Ensembl":
		return dbEnsemblStyle
	}
	return labelStyle
}

type mode int

const (
	modeSequence mode = iota
	modeRecord
)

func (m mode) String() string {
	switch m {
	case modeSequence:
		return "Sequence"
	case modeRecord:
		return "Record"
	default:
		return "Unknown"
	}
}

type model struct {
	list        list.Model
	entries     []report.SeqInfo
	currentMode mode
	width       int
	height      int
}

func newModel(entries []report.SeqInfo) model {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = listItem{entry: e}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Sequences"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	return model{list: l, entries: entries, currentMode: modeSequence}
}

func (m model) cycleMode() model {
	m.currentMode = (m.currentMode + 1) % 2
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width/3, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			return m.cycleMode(), nil
		case "1":
			m.currentMode = modeSequence
			return m, nil
		case "2":
			m.currentMode = modeRecord
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	left := containerStyle.
		Width(m.width/3 - 2).
		Height(m.height - 4).
		Render(m.list.View())
	main := lipgloss.JoinHorizontal(lipgloss.Top, left, m.renderRightPanel())
	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m model) renderRightPanel() string {
	panel := containerStyle.
		Width(m.width*2/3 - 2).
		Height(m.height - 4)

	item, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return panel.Render("No sequence selected")
	}
	e := item.entry
	header := titleStyle.Render(e.Description)
	meta := labelStyle.Render("DB: ") + dbStyle(e.DB).Render(e.DB) +
		labelStyle.Render(fmt.Sprintf("    length: %d", len(e.Seq)))

	var body string
	switch m.currentMode {
	case modeSequence:
		body = m.formatSequence(e.Seq)
	case modeRecord:
		body = strings.Join(recordLines(e), "\n")
	}
	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, header, meta, "", body))
}

func (m model) formatSequence(seq string) string {
	if seq == "" {
		return noRecordStyle.Render("Empty sequence")
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		sectionTitleStyle.Render("Sequence:"),
		"",
		sequenceStyle.Width(m.width*2/3-6).Render(seq),
	)
}

// recordLines renders db_info as indented JSON, one line per element.
func recordLines(e report.SeqInfo) []string {
	if e.DBID == nil {
		return []string{noRecordStyle.Render("No identifier found in the description")}
	}
	if !hasRecord(e) {
		return []string{noRecordStyle.Render(fmt.Sprintf("%s returned no record for %s", e.DB, *e.DBID))}
	}
	b, err := json.MarshalIndent(e.DBInfo, "", "  ")
	if err != nil {
		return []string{fmt.Sprint(e.DBInfo)}
	}
	return append([]string{sectionTitleStyle.Render(*e.DBID + ":")}, strings.Split(string(b), "\n")...)
}

func (m model) renderStatusBar() string {
	left := fmt.Sprintf("%d/%d sequences", m.list.Index()+1, len(m.entries))
	right := "tab: switch view • /: filter • q: quit"
	content := fmt.Sprintf("%s | Mode: %s | %s", left, m.currentMode, right)
	return statusBarStyle.Width(m.width).Render(content)
}

func main() {
	path := flag.String("in", "results.json", "report JSON written by seqinfo")
	flag.Parse()
	if flag.NArg() > 0 {
		*path = flag.Arg(0)
	}

	entries, err := loadReport(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(newModel(entries), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v", err)
		os.Exit(1)
	}
}
