package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/roadmap-health/internal/config"
	"github.com/naka-gawa/roadmap-health/internal/domain"
	"github.com/naka-gawa/roadmap-health/internal/gateway"
	"github.com/naka-gawa/roadmap-health/internal/usecase"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard",
	Long: `Opens an interactive terminal dashboard showing feature progress, blockers
and commit velocity for the configured repositories. Data is refreshed on demand;
the control panel lets you change the token, org, repo list and PR threshold.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := log.New(io.Discard, "", log.LstdFlags)
		if verbose {
			logger.SetOutput(os.Stderr)
		}

		configPath, _ := cmd.InheritedFlags().GetString("config")
		cfg, err := config.Load(configPath, os.LookupEnv)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		p := tea.NewProgram(newDashboardModel(cfg, logger), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("dashboard run failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

// Styles
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(1).
			PaddingRight(1)

	metricBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	highStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mediumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	lowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	severityStyle = map[domain.Severity]lipgloss.Style{
		domain.SeverityHigh:   highStyle,
		domain.SeverityMedium: mediumStyle,
		domain.SeverityLow:    lowStyle,
	}
)

const (
	gaugeWidth = 40
	// gaugeMarkerPercent is the visual threshold marker on the completion gauge.
	gaugeMarkerPercent = 90
	topRows            = 10
	maxBarWidth        = 30
)

// Control panel input indexes.
const (
	inputToken = iota
	inputOrg
	inputRepos
	inputThreshold
	inputCount
)

type reportMsg struct {
	report *domain.Report
}

type fetchErrMsg struct {
	err error
}

type dashboardModel struct {
	cfg    config.Config
	logger *log.Logger

	spinner    spinner.Model
	inputs     []textinput.Model
	editing    bool
	focus      int
	fetching   bool
	report     *domain.Report
	fetchErr   error
	prTable    table.Model
	issueTable table.Model
}

func newDashboardModel(cfg config.Config, logger *log.Logger) dashboardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	inputs := make([]textinput.Model, inputCount)
	for i := range inputs {
		inputs[i] = textinput.New()
	}
	inputs[inputToken].Placeholder = "GitHub token"
	inputs[inputToken].EchoMode = textinput.EchoPassword
	inputs[inputToken].SetValue(cfg.GitHub.Token)
	inputs[inputOrg].Placeholder = "Organization (optional)"
	inputs[inputOrg].SetValue(cfg.GitHub.Org)
	inputs[inputRepos].Placeholder = "Repos: owner/repo, owner/repo"
	inputs[inputRepos].SetValue(strings.Join(cfg.GitHub.Repos, ", "))
	inputs[inputThreshold].Placeholder = "PR threshold days"
	inputs[inputThreshold].SetValue(strconv.Itoa(cfg.Blockers.PRThresholdDays))

	m := dashboardModel{
		cfg:        cfg,
		logger:     logger,
		spinner:    sp,
		inputs:     inputs,
		prTable:    newRecordTable(prColumns()),
		issueTable: newRecordTable(issueColumns()),
	}
	if cfg.GitHub.Token == "" {
		m.editing = true
		m.inputs[inputToken].Focus()
	} else {
		// First fetch starts from Init; the flag has to be set here because Init
		// runs on a copy of the model.
		m.fetching = true
	}
	return m
}

func prColumns() []table.Column {
	return []table.Column{
		{Title: "Repo", Width: 18},
		{Title: "#", Width: 5},
		{Title: "Title", Width: 38},
		{Title: "Author", Width: 14},
		{Title: "Days", Width: 5},
	}
}

func issueColumns() []table.Column {
	return []table.Column{
		{Title: "Repo", Width: 18},
		{Title: "#", Width: 5},
		{Title: "Title", Width: 38},
		{Title: "Assignee", Width: 14},
		{Title: "Days", Width: 5},
	}
}

func newRecordTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(topRows+1),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240"))
	s.Selected = s.Selected.Foreground(lipgloss.Color("229"))
	t.SetStyles(s)
	return t
}

func (m dashboardModel) refreshCmd() tea.Cmd {
	cfg := m.cfg
	logger := m.logger
	return func() tea.Msg {
		githubGateway, err := gateway.NewGitHubGateway(cfg.GitHub.Token, logger)
		if err != nil {
			return fetchErrMsg{err}
		}
		var tracker gateway.TrackerFetcher
		if cfg.Tracker.Enabled && cfg.Tracker.URL != "" {
			tracker = gateway.NewJiraGateway(cfg.Tracker.URL, cfg.Tracker.Email, cfg.Tracker.APIToken, logger)
		}
		aggregator := usecase.NewAggregator(githubGateway, tracker, logger)
		report, err := aggregator.BuildReport(context.Background(), usecase.Options{
			Org:                cfg.GitHub.Org,
			Repos:              cfg.GitHub.Repos,
			PRThresholdDays:    cfg.Blockers.PRThresholdDays,
			IssueThresholdDays: cfg.Blockers.IssueThresholdDays,
			VelocityWindowDays: cfg.Velocity.WindowDays,
			TrackerProject:     cfg.Tracker.ProjectKey,
		})
		if err != nil {
			return fetchErrMsg{err}
		}
		return reportMsg{report}
	}
}

func (m dashboardModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, textinput.Blink}
	if m.fetching {
		cmds = append(cmds, m.refreshCmd())
	}
	return tea.Batch(cmds...)
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if m.cfg.GitHub.Token != "" && !m.fetching {
				m.fetching = true
				m.fetchErr = nil
				return m, tea.Batch(m.spinner.Tick, m.refreshCmd())
			}
		case "e":
			m.editing = true
			m.focus = inputToken
			m.setInputFocus()
			return m, nil
		}
		var prCmd, issueCmd tea.Cmd
		m.prTable, prCmd = m.prTable.Update(msg)
		m.issueTable, issueCmd = m.issueTable.Update(msg)
		return m, tea.Batch(prCmd, issueCmd)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case reportMsg:
		m.fetching = false
		m.fetchErr = nil
		m.report = msg.report
		m.prTable.SetRows(prRows(msg.report.PullRequests, topRows))
		m.issueTable.SetRows(issueRows(msg.report.Issues, topRows))
		return m, nil

	case fetchErrMsg:
		m.fetching = false
		m.fetchErr = msg.err
		return m, nil
	}
	return m, nil
}

func (m dashboardModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.editing = false
		return m, nil
	case "enter":
		m.applyInputs()
		m.editing = false
		if m.cfg.GitHub.Token != "" {
			m.fetching = true
			m.fetchErr = nil
			return m, tea.Batch(m.spinner.Tick, m.refreshCmd())
		}
		return m, nil
	case "tab", "down":
		m.focus = (m.focus + 1) % len(m.inputs)
		m.setInputFocus()
		return m, nil
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + len(m.inputs)) % len(m.inputs)
		m.setInputFocus()
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *dashboardModel) setInputFocus() {
	for i := range m.inputs {
		if i == m.focus {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

// applyInputs copies the control panel values back into the cycle config. Invalid
// threshold input keeps the previous value.
func (m *dashboardModel) applyInputs() {
	m.cfg.GitHub.Token = strings.TrimSpace(m.inputs[inputToken].Value())
	m.cfg.GitHub.Org = strings.TrimSpace(m.inputs[inputOrg].Value())
	m.cfg.GitHub.Repos = splitRepoList(m.inputs[inputRepos].Value())
	if n, err := strconv.Atoi(strings.TrimSpace(m.inputs[inputThreshold].Value())); err == nil && n >= 1 {
		m.cfg.Blockers.PRThresholdDays = n
	}
}

func splitRepoList(raw string) []string {
	var repos []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			repos = append(repos, part)
		}
	}
	return repos
}

func (m dashboardModel) View() string {
	header := headerStyle.Render("Roadmap Health Dashboard")

	if m.editing {
		return m.viewEditing(header)
	}
	if m.cfg.GitHub.Token == "" {
		// Missing credential is a prompt, not a fetch error.
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			warnStyle.Render("\nNo GitHub token configured."),
			helpStyle.Render("[e] Configure  [q] Quit"),
		) + "\n"
	}
	if m.fetching {
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			fmt.Sprintf("\n%s Loading data from GitHub...", m.spinner.View()),
			helpStyle.Render("[q] Quit"),
		) + "\n"
	}
	if m.fetchErr != nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			errStyle.Render(fmt.Sprintf("\nError loading data: %v", m.fetchErr)),
			helpStyle.Render("[r] Retry  [e] Configure  [q] Quit"),
		) + "\n"
	}
	if m.report == nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			"\nNo data yet.",
			helpStyle.Render("[r] Refresh  [e] Configure  [q] Quit"),
		) + "\n"
	}
	return m.viewReport(header)
}

func (m dashboardModel) viewEditing(header string) string {
	labels := []string{"Token", "Organization", "Repositories", "PR threshold"}
	lines := []string{header, "", sectionStyle.Render("Configuration")}
	for i, input := range m.inputs {
		lines = append(lines, fmt.Sprintf("%-14s %s", labels[i], input.View()))
	}
	lines = append(lines, "", helpStyle.Render("[enter] Apply & refresh  [tab] Next field  [esc] Cancel"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...) + "\n"
}

func (m dashboardModel) viewReport(header string) string {
	r := m.report

	metrics := lipgloss.JoinHorizontal(lipgloss.Top,
		metricBoxStyle.Render(fmt.Sprintf("Open PRs\n%d", len(r.PullRequests))),
		metricBoxStyle.Render(fmt.Sprintf("Open Issues\n%d", len(r.Issues))),
		metricBoxStyle.Render(fmt.Sprintf("Blockers\n%d", len(r.Blockers))),
		metricBoxStyle.Render(fmt.Sprintf("Commits (%dd)\n%d", m.cfg.Velocity.WindowDays, r.Velocity.CommitsInWindow)),
	)

	sections := []string{
		header,
		metrics,
		sectionStyle.Render("Feature Progress"),
		renderGauge(r.Progress.Percentage, gaugeWidth),
		fmt.Sprintf("Total: %d  Completed: %d  In Progress: %d",
			r.Progress.Total, r.Progress.Completed, r.Progress.InProgress),
		sectionStyle.Render("Blockers"),
		severityLine(r.Blockers),
	}
	sections = append(sections, blockerLines(r.Blockers, topRows)...)

	sections = append(sections, sectionStyle.Render(fmt.Sprintf("Commits per day (%.1f/day)", r.Velocity.CommitsPerDay)))
	sections = append(sections, renderBarChart(r.Velocity.CommitsByDay)...)

	sections = append(sections,
		sectionStyle.Render("Top PRs"),
		m.prTable.View(),
		sectionStyle.Render("Top Issues"),
		m.issueTable.View(),
	)

	if line := trackerLine(r); line != "" {
		sections = append(sections, sectionStyle.Render("Tracker"), line)
	}

	sections = append(sections, helpStyle.Render("[r] Refresh  [e] Configure  [q] Quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

// renderGauge draws the 0-100 completion gauge with a fixed threshold marker.
func renderGauge(percentage float64, width int) string {
	if width < 2 {
		width = 2
	}
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}
	filled := int(percentage / 100 * float64(width))
	marker := gaugeMarkerPercent * width / 100
	if marker >= width {
		marker = width - 1
	}

	cells := make([]rune, width)
	for i := range cells {
		switch {
		case i == marker:
			cells[i] = '┃'
		case i < filled:
			cells[i] = '█'
		default:
			cells[i] = '░'
		}
	}
	return fmt.Sprintf("%s %.1f%%", string(cells), percentage)
}

// severityLine renders every severity bucket, zero counts included, so an empty
// bucket never disappears from the display.
func severityLine(blockers []domain.Blocker) string {
	counts := domain.CountBySeverity(blockers)
	parts := make([]string, 0, len(domain.Severities))
	for _, severity := range domain.Severities {
		label := fmt.Sprintf("%s: %d", titleCase(string(severity)), counts[severity])
		parts = append(parts, severityStyle[severity].Render(label))
	}
	return strings.Join(parts, "  ")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func blockerLines(blockers []domain.Blocker, limit int) []string {
	if len(blockers) == 0 {
		return []string{okStyle.Render("No blockers found.")}
	}
	if len(blockers) > limit {
		blockers = blockers[:limit]
	}
	lines := make([]string, 0, len(blockers))
	for _, b := range blockers {
		style := severityStyle[b.Severity]
		lines = append(lines, fmt.Sprintf("%s %s (%s)", style.Render("●"), b.Description, b.Repo))
	}
	return lines
}

// renderBarChart draws one bar per active day, oldest first. Days without commits are
// absent from the velocity map and therefore from the chart.
func renderBarChart(byDay map[string]int) []string {
	if len(byDay) == 0 {
		return []string{helpStyle.Render("No commits in window.")}
	}
	days := make([]string, 0, len(byDay))
	max := 0
	for day, count := range byDay {
		days = append(days, day)
		if count > max {
			max = count
		}
	}
	sort.Strings(days)

	lines := make([]string, 0, len(days))
	for _, day := range days {
		count := byDay[day]
		barLen := count * maxBarWidth / max
		if barLen < 1 {
			barLen = 1
		}
		lines = append(lines, fmt.Sprintf("%s  %s %d", day, okStyle.Render(strings.Repeat("█", barLen)), count))
	}
	return lines
}

// prRows returns the oldest PRs first, capped at limit.
func prRows(prs []domain.PullRequest, limit int) []table.Row {
	sorted := make([]domain.PullRequest, len(prs))
	copy(sorted, prs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DaysOpen > sorted[j].DaysOpen })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	rows := make([]table.Row, 0, len(sorted))
	for _, pr := range sorted {
		rows = append(rows, table.Row{pr.Repo, strconv.Itoa(pr.Number), pr.Title, pr.Author, strconv.Itoa(pr.DaysOpen)})
	}
	return rows
}

func issueRows(issues []domain.Issue, limit int) []table.Row {
	sorted := make([]domain.Issue, len(issues))
	copy(sorted, issues)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DaysOpen > sorted[j].DaysOpen })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	rows := make([]table.Row, 0, len(sorted))
	for _, issue := range sorted {
		rows = append(rows, table.Row{issue.Repo, strconv.Itoa(issue.Number), issue.Title, issue.Assignee, strconv.Itoa(issue.DaysOpen)})
	}
	return rows
}

func trackerLine(r *domain.Report) string {
	if r.TrackerError != "" {
		return warnStyle.Render(fmt.Sprintf("Tracker unavailable: %s", r.TrackerError))
	}
	if len(r.Tracker) > 0 {
		return fmt.Sprintf("%d tracker issues loaded.", len(r.Tracker))
	}
	return ""
}
