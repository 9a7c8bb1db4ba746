package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/chan4lk/spacemap/internal/domain"
)

type uiStyles struct {
	headerStyle lipgloss.Style
	mutedStyle  lipgloss.Style
	statusStyle lipgloss.Style
	warnStyle   lipgloss.Style
	markStyle   lipgloss.Style
	panelBorder lipgloss.Style
}

func stylesFor(model Model) uiStyles {
	if strings.ToLower(model.state.Prefs.Theme) == "light" {
		return uiStyles{
			headerStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("235")),
			mutedStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
			statusStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("25")).Bold(true),
			warnStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("124")).Bold(true),
			markStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("28")).Bold(true),
			panelBorder: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		}
	}
	return uiStyles{
		headerStyle: lipgloss.NewStyle().Bold(true),
		mutedStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		statusStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true),
		warnStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Bold(true),
		markStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		panelBorder: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

func (model Model) View() string {
	styles := stylesFor(model)
	if model.showHelp {
		return renderHelpView(model, styles)
	}
	header := renderHeader(model, styles)
	body := renderBody(model, styles)
	footer := renderFooter(model, styles)
	return strings.Join([]string{header, body, footer}, "\n")
}

// canvasSize is the treemap drawing area. Key handling lays rects out with the
// same dimensions so cursor movement lands where the eye is.
func (model Model) canvasSize() (int, int) {
	width, _, _ := splitPanels(model.width)
	height := model.height - 3
	if height < 4 {
		height = 4
	}
	return width, height
}

func renderHeader(model Model, styles uiStyles) string {
	crumbs := breadcrumbs(model.state.CurrentPath())
	status := "IDLE"
	if model.scanning {
		status = "SCANNING"
	}
	left := styles.headerStyle.Render("spacemap") + "  " + crumbs
	return padLine(left, styles.statusStyle.Render(status), model.width)
}

func renderBody(model Model, styles uiStyles) string {
	canvasWidth, sideWidth, showSide := splitPanels(model.width)
	_, canvasHeight := model.canvasSize()

	current := model.state.CurrentView()
	selectedPath := ""
	if child := model.state.SelectedChild(); child != nil {
		selectedPath = child.Node.Path
	}
	canvas := canvasContent(current.ChildNodes(), selectedPath, canvasWidth, canvasHeight, model.layoutOpts)
	if !showSide {
		return canvas
	}
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Render("│")
	side := renderSidePanel(model, styles, sideWidth, canvasHeight)
	return lipgloss.JoinHorizontal(lipgloss.Top, canvas, sep, side)
}

func renderSidePanel(model Model, styles uiStyles, width, height int) string {
	if model.confirming {
		return renderPreviewPanel(model, styles, width, height)
	}
	contentWidth := maxInt(width-4, 10)
	node := model.state.CurrentNode()
	if child := model.state.SelectedChild(); child != nil {
		node = child.Node
	}
	if node == nil {
		return styles.panelBorder.Width(contentWidth).Render("Nothing scanned yet")
	}

	mod := "-"
	if !node.ModTime.IsZero() {
		mod = node.ModTime.Format(time.RFC822)
	}
	lines := []string{
		styles.headerStyle.Render(node.Name),
		trimStatus(node.Path, contentWidth),
		"",
	}
	if node.IsDir() {
		files, dirs := domain.Count(node)
		lines = append(lines,
			fmt.Sprintf("Total : %s", humanize.IBytes(node.Total)),
			fmt.Sprintf("Files : %d", files),
			fmt.Sprintf("Dirs  : %d", dirs-1),
		)
	} else {
		lines = append(lines, fmt.Sprintf("Size  : %s", humanize.IBytes(node.Size)))
	}
	lines = append(lines, fmt.Sprintf("Mod   : %s", mod))
	if node.Err != nil {
		lines = append(lines, styles.warnStyle.Render(fmt.Sprintf("Error : %v", node.Err)))
	}

	top := model.state.TopFiles(listBudget(height))
	if len(top) > 0 {
		lines = append(lines, "", styles.headerStyle.Render("Largest files"))
		for _, file := range top {
			entry := fmt.Sprintf("%8s  %s", humanize.IBytes(file.Size), file.Name)
			lines = append(lines, trimStatus(entry, contentWidth))
		}
	}

	content := strings.Join(lines, "\n")
	content = lipgloss.NewStyle().Width(contentWidth).Height(maxInt(height-2, 1)).Render(content)
	return styles.panelBorder.Width(contentWidth).Render(content)
}

func renderPreviewPanel(model Model, styles uiStyles, width, height int) string {
	preview := model.pendingPreview
	contentWidth := maxInt(width-4, 10)
	lines := []string{
		styles.warnStyle.Render("Delete preview"),
		fmt.Sprintf("Files: %d", preview.TotalFiles),
		fmt.Sprintf("Dirs : %d", preview.TotalDirs),
		fmt.Sprintf("Size : %s", humanize.IBytes(preview.TotalBytes)),
		"",
		styles.headerStyle.Render("Targets"),
	}
	shown := preview.Targets
	if len(shown) > 8 {
		shown = shown[:8]
	}
	for _, target := range shown {
		lines = append(lines, trimStatus(target, contentWidth))
	}
	if len(preview.Targets) > len(shown) {
		lines = append(lines, fmt.Sprintf("... and %d more", len(preview.Targets)-len(shown)))
	}
	if len(preview.Warnings) > 0 {
		lines = append(lines, "", styles.warnStyle.Render("Warnings"))
		for _, warn := range preview.Warnings {
			lines = append(lines, trimStatus(warn, contentWidth))
		}
	}
	content := strings.Join(lines, "\n")
	content = lipgloss.NewStyle().Width(contentWidth).Height(maxInt(height-2, 1)).Render(content)
	return styles.panelBorder.Width(contentWidth).Render(content)
}

func renderFooter(model Model, styles uiStyles) string {
	statusLine := trimStatus(model.status, model.width)
	if model.scanning {
		scanInfo := fmt.Sprintf("%s %d entries (%s) %s",
			progressBar(int64(model.progressEntries), 18),
			model.progressEntries, humanize.IBytes(model.progressBytes), model.progressCurrent)
		statusLine = trimStatus(scanInfo, model.width)
	}
	if model.actionRunning {
		percent := 0.0
		if model.actionTotal > 0 {
			percent = float64(model.actionProcessed) / float64(model.actionTotal)
		}
		bar := model.actionBar.ViewAs(percent)
		statusLine = padLine(trimStatus(model.status, model.width-lipgloss.Width(bar)-2), bar, model.width)
	}
	statusStyle := styles.statusStyle
	lowered := strings.ToLower(model.status)
	if strings.Contains(lowered, "error") || strings.Contains(lowered, "warning") {
		statusStyle = styles.warnStyle
	}
	statusLine = statusStyle.Render(statusLine)

	markedCount, markedSize := model.state.MarkedSummary()
	marks := fmt.Sprintf("Marked: %d (%s)", markedCount, humanize.IBytes(markedSize))
	if markedCount > 0 {
		marks = styles.markStyle.Render(marks)
	}
	sortInfo := fmt.Sprintf("Sort: %s", model.state.Prefs.SortMode)
	hiddenInfo := "Hidden: off"
	if model.state.Prefs.IncludeHidden {
		hiddenInfo = "Hidden: on"
	}
	left := fmt.Sprintf("%s  %s  %s%s", marks, sortInfo, hiddenInfo, filterSummary(model))
	footerLine := padLine(left, keyHints(model), model.width)
	return strings.Join([]string{statusLine, styles.mutedStyle.Render(footerLine)}, "\n")
}

func keyHints(model Model) string {
	switch {
	case model.confirming:
		return "y confirm  n cancel"
	case model.filterInput:
		return "type size  enter apply  esc cancel"
	default:
		return "↑↓←→ move  enter open  u up  space mark  d delete  r rescan  / filter  ? help  q quit"
	}
}

func filterSummary(model Model) string {
	if model.state.Preset != "" {
		return fmt.Sprintf("  Preset: %s", model.state.Preset)
	}
	rules := model.state.Rules
	parts := []string{}
	if rules.MinSize > 0 {
		parts = append(parts, fmt.Sprintf(">%s", humanize.IBytes(rules.MinSize)))
	}
	if rules.MaxSize > 0 {
		parts = append(parts, fmt.Sprintf("<%s", humanize.IBytes(rules.MaxSize)))
	}
	if rules.MinAge > 0 {
		parts = append(parts, fmt.Sprintf("older %s", rules.MinAge))
	}
	if rules.MaxAge > 0 {
		parts = append(parts, fmt.Sprintf("newer %s", rules.MaxAge))
	}
	if len(parts) == 0 {
		return ""
	}
	return "  Filter[" + strings.Join(parts, " ") + "]"
}

func renderHelpView(model Model, styles uiStyles) string {
	bindings := []key.Binding{
		model.keys.Up,
		model.keys.Down,
		model.keys.Left,
		model.keys.Right,
		model.keys.Enter,
		model.keys.Back,
		model.keys.Home,
		model.keys.Mark,
		model.keys.Delete,
		model.keys.Reveal,
		model.keys.Rescan,
		model.keys.FullRescan,
		model.keys.Sort,
		model.keys.Hidden,
		model.keys.Filter,
		model.keys.Preset,
		model.keys.ClearFilter,
		model.keys.Confirm,
		model.keys.Cancel,
		model.keys.Help,
		model.keys.Quit,
	}

	lines := []string{styles.headerStyle.Render("spacemap help"), ""}
	lines = append(lines, styles.headerStyle.Render("Navigation"))
	lines = append(lines, "arrows or hjkl walk the map", "enter drills into a directory", "backspace/u goes up", "home jumps to the scan root")
	lines = append(lines, "", styles.headerStyle.Render("Marking"))
	lines = append(lines, "space marks the selected entry", "marked entries are the target of d and e")
	lines = append(lines, "", styles.headerStyle.Render("Filters"))
	lines = append(lines, "/ takes a size filter like >500MB or >100MB <2GB", "p cycles the loaded presets", "c clears everything")
	lines = append(lines, "", styles.headerStyle.Render("Safety"))
	lines = append(lines, "deletes always preview first", "non-empty directories ask twice", "safe mode refuses /, $HOME, /etc, /usr, /var")
	lines = append(lines, "", styles.headerStyle.Render("Keys"))
	for _, binding := range bindings {
		keysLabel := strings.Join(binding.Keys(), ", ")
		lines = append(lines, fmt.Sprintf("%-16s %s", keysLabel, binding.Help().Desc))
	}
	lines = append(lines, "", "Press ? to close help")
	content := strings.Join(lines, "\n")
	width := model.width
	if width <= 0 {
		width = 80
	}
	return styles.panelBorder.Width(maxInt(width-2, 10)).Render(content)
}

func breadcrumbs(path string) string {
	path = filepath.Clean(path)
	if path == "." || path == string(filepath.Separator) {
		return path
	}
	parts := strings.Split(path, string(filepath.Separator))
	if parts[0] == "" {
		parts[0] = string(filepath.Separator)
	}
	return strings.Join(parts, " › ")
}

func padLine(left, right string, width int) string {
	if width <= 0 {
		return left
	}
	space := width - lipgloss.Width(left) - lipgloss.Width(right)
	if space < 1 {
		return left + " " + right
	}
	return left + strings.Repeat(" ", space) + right
}

func splitPanels(width int) (int, int, bool) {
	if width < 80 {
		return width, 0, false
	}
	left := int(float64(width) * 0.65)
	if left < 50 {
		left = 50
	}
	right := width - left - 1
	if right < 26 {
		return width, 0, false
	}
	return left, right, true
}

// listBudget caps the largest-files list so the panel never scrolls.
func listBudget(height int) int {
	return clamp(height-12, 3, 10)
}

func progressBar(count int64, width int) string {
	if width <= 0 {
		return ""
	}
	pos := int(count % int64(width))
	filled := strings.Repeat("█", pos)
	gap := strings.Repeat("░", width-pos)
	return fmt.Sprintf("[%s%s]", filled, gap)
}

func trimStatus(message string, width int) string {
	if width <= 0 {
		return message
	}
	max := width - 4
	if max <= 0 || len(message) <= max {
		return message
	}
	return message[:max] + "..."
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
