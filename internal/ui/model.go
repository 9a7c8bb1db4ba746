package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/chan4lk/spacemap/internal/config"
	"github.com/chan4lk/spacemap/internal/domain"
	"github.com/chan4lk/spacemap/internal/filter"
	"github.com/chan4lk/spacemap/internal/services"
	"github.com/chan4lk/spacemap/internal/state"
	"github.com/chan4lk/spacemap/internal/treemap"
)

type Model struct {
	state          *state.State
	scanner        services.Scanner
	actions        services.Actions
	progress       services.ProgressProvider
	previewer      services.ActionPreviewer
	actionProgress services.ActionProgressProvider
	presets        []filter.Preset
	keys           KeyMap
	layoutOpts     treemap.Options

	initialRoot    string
	followSymlinks bool
	maxDepth       int

	showHelp bool
	status   string

	scanning        bool
	scanCtx         context.Context
	cancel          context.CancelFunc
	progressEntries uint64
	progressBytes   uint64
	progressCurrent string

	width  int
	height int

	confirming     bool
	confirmStep    int
	pendingPreview services.ActionPreview

	filterInput bool
	filterValue string
	presetIndex int

	actionRunning   bool
	actionBar       progress.Model
	actionProcessed int
	actionTotal     int
}

// startMsg kicks off the initial scan once the program is running.
type startMsg struct{}

func NewModel(appState *state.State, scanner services.Scanner, actions services.Actions, cfg *config.Config, presets []filter.Preset) Model {
	presetIndex := len(presets)
	for i, preset := range presets {
		if preset.Name == cfg.Preset {
			presetIndex = i
			break
		}
	}
	return Model{
		state:          appState,
		scanner:        scanner,
		actions:        actions,
		progress:       progressProvider(scanner),
		previewer:      actionPreviewer(actions),
		actionProgress: actionProgressProvider(actions),
		presets:        presets,
		keys:           DefaultKeyMap(),
		layoutOpts:     treemap.DefaultOptions(),
		initialRoot:    cfg.Root,
		followSymlinks: cfg.FollowSymlinks,
		maxDepth:       cfg.MaxDepth,
		presetIndex:    presetIndex,
		status:         "Starting scan",
		actionBar:      progress.New(progress.WithDefaultGradient()),
		width:          100,
		height:         30,
	}
}

// Preferences exports the toggles worth persisting on exit.
func (model Model) Preferences() state.Preferences {
	return model.state.Prefs
}

func (model Model) Init() tea.Cmd {
	return func() tea.Msg { return startMsg{} }
}

func (model Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case startMsg:
		return model.beginScan(model.state.RootPath)
	case tea.KeyMsg:
		return model.handleKey(typed)
	case tea.WindowSizeMsg:
		model.width = typed.Width
		model.height = typed.Height
		model.actionBar.Width = clamp(typed.Width/3, 10, 40)
		return model, nil
	case scanResultMsg:
		model.scanning = false
		model.cancel = nil
		if typed.err != nil {
			if errors.Is(typed.err, context.Canceled) {
				model.status = "Scan canceled"
				return model, nil
			}
			model.status = fmt.Sprintf("Scan error: %v", typed.err)
			return model, nil
		}
		model.state.SetSnapshot(typed.result.Root)
		model.status = scanSummary(typed.result)
		return model, nil
	case scanProgressMsg:
		if typed.progress.Completed {
			if model.scanning {
				return model, model.progressCmd()
			}
			return model, nil
		}
		model.progressEntries = typed.progress.Entries
		model.progressBytes = typed.progress.Bytes
		model.progressCurrent = typed.progress.Current
		return model, model.progressCmd()
	case actionPreviewMsg:
		if typed.err != nil {
			model.status = fmt.Sprintf("Preview error: %v", typed.err)
			model.confirming = false
			return model, nil
		}
		model.pendingPreview = typed.preview
		model.confirming = true
		model.confirmStep = 1
		model.status = previewPrompt(typed.preview, 1)
		return model, nil
	case actionResultMsg:
		model.actionRunning = false
		model.actionProcessed = 0
		model.actionTotal = 0
		if typed.err != nil {
			model.status = fmt.Sprintf("Action error: %v", typed.err)
			return model, nil
		}
		if typed.result.Type == services.ActionDelete {
			model.state.ApplyDeletions(typed.result.Succeeded)
		}
		model.status = fmt.Sprintf("%s (%d ok, %d failed)", typed.result.Message, typed.result.SuccessCount, typed.result.FailureCount)
		if len(typed.result.Errors) > 0 {
			model.status = fmt.Sprintf("%s - %s", model.status, typed.result.Errors[0])
		}
		return model, nil
	case actionProgressMsg:
		if typed.progress.ErrMessage != "" {
			model.status = fmt.Sprintf("Action warning: %s", typed.progress.ErrMessage)
			return model, model.actionProgressCmd()
		}
		if typed.progress.Completed {
			return model, nil
		}
		model.actionProcessed = typed.progress.Processed
		return model, model.actionProgressCmd()
	default:
		return model, nil
	}
}

func (model Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if model.filterInput {
		if msg.String() == "ctrl+c" {
			return model, tea.Quit
		}
		return model.handleFilterInput(msg)
	}
	switch {
	case key.Matches(msg, model.keys.Quit):
		model = model.cancelScan("")
		return model, tea.Quit
	case key.Matches(msg, model.keys.Help):
		model.showHelp = !model.showHelp
		return model, nil
	case model.confirming && key.Matches(msg, model.keys.Confirm):
		return model.confirmAction()
	case model.confirming && key.Matches(msg, model.keys.Cancel):
		model.confirming = false
		model.confirmStep = 0
		model.status = "Action canceled"
		return model, nil
	case model.confirming:
		return model, nil
	case model.scanning && key.Matches(msg, model.keys.Cancel):
		return model.cancelScan("Scan canceled"), nil
	case key.Matches(msg, model.keys.Up):
		return model.moveSelection(0, -1), nil
	case key.Matches(msg, model.keys.Down):
		return model.moveSelection(0, 1), nil
	case key.Matches(msg, model.keys.Left):
		return model.moveSelection(-1, 0), nil
	case key.Matches(msg, model.keys.Right):
		return model.moveSelection(1, 0), nil
	case key.Matches(msg, model.keys.Enter):
		if model.state.Enter() {
			model.status = model.state.CurrentPath()
		}
		return model, nil
	case key.Matches(msg, model.keys.Back):
		if model.state.Leave() {
			model.status = model.state.CurrentPath()
		}
		return model, nil
	case key.Matches(msg, model.keys.Home):
		for model.state.Leave() {
		}
		model.status = model.state.CurrentPath()
		return model, nil
	case key.Matches(msg, model.keys.Mark):
		if child := model.state.SelectedChild(); child != nil {
			model.state.ToggleMark(child.Node.Path)
		}
		return model, nil
	case key.Matches(msg, model.keys.Delete):
		return model.beginDelete()
	case key.Matches(msg, model.keys.Reveal):
		return model.beginReveal()
	case key.Matches(msg, model.keys.Rescan):
		return model.beginScan(model.state.CurrentPath())
	case key.Matches(msg, model.keys.FullRescan):
		return model.beginScan(model.initialRoot)
	case key.Matches(msg, model.keys.Sort):
		mode := model.state.ToggleSortMode()
		model.status = fmt.Sprintf("Sorting by %s", mode)
		return model, nil
	case key.Matches(msg, model.keys.Hidden):
		model.state.ToggleIncludeHidden()
		return model.beginScan(model.state.RootPath)
	case key.Matches(msg, model.keys.Filter):
		model.filterInput = true
		model.filterValue = ""
		model.status = "Filter: (e.g. >100MB or >100MB <2GB)"
		return model, nil
	case key.Matches(msg, model.keys.Preset):
		return model.cyclePreset()
	case key.Matches(msg, model.keys.ClearFilter):
		model.state.ClearRules()
		model.presetIndex = len(model.presets)
		model.status = "Filter cleared"
		return model, nil
	default:
		return model, nil
	}
}

// moveSelection walks the treemap one rect in the given direction.
func (model Model) moveSelection(dx, dy float64) Model {
	rects := model.currentRects()
	if len(rects) == 0 {
		return model
	}
	children := model.state.Children()
	current := 0
	if child := model.state.SelectedChild(); child != nil {
		if index := rectIndexByPath(rects, child.Node.Path); index >= 0 {
			current = index
		}
	}
	next := nearestRect(rects, current, dx, dy)
	if next == current {
		return model
	}
	if index := childIndexByPath(children, rects[next].Path); index >= 0 {
		model.state.Cursor = index
	}
	return model
}

func (model Model) currentRects() []treemap.LayoutRect {
	children := model.state.Children()
	nodes := make([]*domain.Node, 0, len(children))
	for _, child := range children {
		nodes = append(nodes, child.Node)
	}
	width, height := model.canvasSize()
	return treemap.Layout(nodes, treemap.Rect{W: float64(width), H: float64(height)}, model.layoutOpts)
}

func rectIndexByPath(rects []treemap.LayoutRect, path string) int {
	for i, rect := range rects {
		if rect.Path == path {
			return i
		}
	}
	return -1
}

func childIndexByPath(children []*filter.View, path string) int {
	for i, child := range children {
		if child.Node.Path == path {
			return i
		}
	}
	return -1
}

func (model Model) beginDelete() (tea.Model, tea.Cmd) {
	if model.actionRunning {
		model.status = "Action already running"
		return model, nil
	}
	if model.scanning {
		model.status = "Wait for the scan to finish"
		return model, nil
	}
	paths := model.state.MarkedPaths()
	if len(paths) == 0 {
		model.status = "Nothing selected"
		return model, nil
	}
	if model.previewer == nil {
		model.status = "Preview unavailable"
		return model, nil
	}
	request := services.ActionRequest{
		Type:        services.ActionDelete,
		TargetPaths: paths,
		SafeMode:    model.state.Prefs.SafeMode,
	}
	return model, func() tea.Msg {
		preview, err := model.previewer.Preview(context.Background(), request)
		return actionPreviewMsg{preview: preview, err: err}
	}
}

func (model Model) beginReveal() (tea.Model, tea.Cmd) {
	if model.actionRunning {
		model.status = "Action already running"
		return model, nil
	}
	paths := model.state.MarkedPaths()
	if len(paths) == 0 {
		model.status = "Nothing selected"
		return model, nil
	}
	request := services.ActionRequest{
		Type:        services.ActionReveal,
		TargetPaths: paths,
		SafeMode:    model.state.Prefs.SafeMode,
	}
	model.status = "Opening file manager"
	return model, model.actionExecuteCmd(request)
}

func (model Model) confirmAction() (tea.Model, tea.Cmd) {
	preview := model.pendingPreview
	confirmToken := "confirm"
	if preview.Type == services.ActionDelete && preview.TotalDirs > 0 {
		if model.confirmStep == 1 {
			model.confirmStep = 2
			model.status = previewPrompt(preview, 2)
			return model, nil
		}
		confirmToken = "confirm-recursive"
	}
	model.confirming = false
	model.confirmStep = 0
	model.actionRunning = true
	model.actionProcessed = 0
	model.actionTotal = preview.TotalFiles + preview.TotalDirs
	model.status = "Deleting"
	request := services.ActionRequest{
		Type:         preview.Type,
		TargetPaths:  preview.Targets,
		SafeMode:     model.state.Prefs.SafeMode,
		ConfirmToken: confirmToken,
	}
	return model, tea.Batch(model.actionExecuteCmd(request), model.actionProgressCmd())
}

func (model Model) cyclePreset() (tea.Model, tea.Cmd) {
	if len(model.presets) == 0 {
		model.status = "No presets loaded"
		return model, nil
	}
	model.presetIndex = (model.presetIndex + 1) % (len(model.presets) + 1)
	if model.presetIndex == len(model.presets) {
		model.state.ClearRules()
		model.status = "Preset off"
		return model, nil
	}
	preset := model.presets[model.presetIndex]
	rules, err := preset.Rules(time.Now())
	if err != nil {
		model.status = fmt.Sprintf("Preset %s: %v", preset.Name, err)
		return model, nil
	}
	model.state.SetRules(rules, preset.Name)
	model.status = fmt.Sprintf("Preset: %s", preset.Name)
	return model, nil
}

func (model Model) handleFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		model.filterInput = false
		model.filterValue = ""
		model.status = "Filter canceled"
		return model, nil
	case tea.KeyEnter:
		model.filterInput = false
		value := strings.TrimSpace(model.filterValue)
		if value == "" {
			model.state.ClearRules()
			model.presetIndex = len(model.presets)
			model.status = "Filter cleared"
			return model, nil
		}
		rules, err := parseFilterInput(value)
		if err != nil {
			model.status = fmt.Sprintf("Filter error: %v", err)
			return model, nil
		}
		model.state.SetRules(rules, "")
		model.presetIndex = len(model.presets)
		model.status = fmt.Sprintf("Filter: %s", value)
		return model, nil
	case tea.KeyBackspace, tea.KeyDelete:
		if len(model.filterValue) > 0 {
			model.filterValue = model.filterValue[:len(model.filterValue)-1]
		}
	default:
		if msg.Type == tea.KeyRunes {
			model.filterValue += string(msg.Runes)
		}
	}
	model.status = fmt.Sprintf("Filter: %s", model.filterValue)
	return model, nil
}

// parseFilterInput reads a size filter like ">100MB", "<2GB" or both. A bare
// size means "at least".
func parseFilterInput(input string) (filter.Rules, error) {
	rules := filter.Rules{}
	for _, token := range strings.Fields(input) {
		switch {
		case strings.HasPrefix(token, ">"):
			size, err := humanize.ParseBytes(strings.TrimPrefix(token, ">"))
			if err != nil {
				return filter.Rules{}, fmt.Errorf("bad size %q", token)
			}
			rules.MinSize = size
		case strings.HasPrefix(token, "<"):
			size, err := humanize.ParseBytes(strings.TrimPrefix(token, "<"))
			if err != nil {
				return filter.Rules{}, fmt.Errorf("bad size %q", token)
			}
			rules.MaxSize = size
		default:
			size, err := humanize.ParseBytes(token)
			if err != nil {
				return filter.Rules{}, fmt.Errorf("bad size %q", token)
			}
			rules.MinSize = size
		}
	}
	return rules, nil
}

func (model Model) beginScan(path string) (tea.Model, tea.Cmd) {
	if model.cancel != nil {
		model.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	model.scanCtx = ctx
	model.cancel = cancel
	model.scanning = true
	model.progressEntries = 0
	model.progressBytes = 0
	model.progressCurrent = ""
	model.state.RootPath = path
	model.status = fmt.Sprintf("Scanning %s", path)
	return model, tea.Batch(model.scanCmd(ctx, path), model.progressCmd())
}

func (model Model) scanCmd(ctx context.Context, path string) tea.Cmd {
	request := services.ScanRequest{
		RootPath:       path,
		FollowSymlinks: model.followSymlinks,
		MaxDepth:       model.maxDepth,
		IncludeHidden:  model.state.Prefs.IncludeHidden,
	}
	return func() tea.Msg {
		result, err := model.scanner.Scan(ctx, request)
		return scanResultMsg{result: result, err: err}
	}
}

func (model Model) progressCmd() tea.Cmd {
	if model.progress == nil {
		return nil
	}
	return func() tea.Msg {
		for {
			channel := model.progress.Progress()
			if channel == nil {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			progressUpdate, ok := <-channel
			if !ok {
				return scanProgressMsg{progress: services.ScanProgress{Completed: true}}
			}
			return scanProgressMsg{progress: progressUpdate}
		}
	}
}

func (model Model) actionExecuteCmd(request services.ActionRequest) tea.Cmd {
	return func() tea.Msg {
		result, err := model.actions.Execute(context.Background(), request)
		return actionResultMsg{result: result, err: err}
	}
}

func (model Model) actionProgressCmd() tea.Cmd {
	if model.actionProgress == nil {
		return nil
	}
	return func() tea.Msg {
		for {
			channel := model.actionProgress.ActionProgress()
			if channel == nil {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			progressUpdate, ok := <-channel
			if !ok {
				return actionProgressMsg{progress: services.ActionProgress{Completed: true}}
			}
			return actionProgressMsg{progress: progressUpdate}
		}
	}
}

func (model Model) cancelScan(message string) Model {
	if model.cancel != nil {
		model.cancel()
		model.cancel = nil
	}
	if message != "" {
		model.status = message
	}
	model.scanning = false
	model.progressEntries = 0
	model.progressBytes = 0
	model.progressCurrent = ""
	return model
}

func progressProvider(scanner services.Scanner) services.ProgressProvider {
	provider, _ := scanner.(services.ProgressProvider)
	return provider
}

func actionPreviewer(actions services.Actions) services.ActionPreviewer {
	previewer, _ := actions.(services.ActionPreviewer)
	return previewer
}

func actionProgressProvider(actions services.Actions) services.ActionProgressProvider {
	provider, _ := actions.(services.ActionProgressProvider)
	return provider
}

func scanSummary(result services.ScanResult) string {
	summary := fmt.Sprintf("Scanned %d entries (%s) in %s",
		result.Entries, humanize.IBytes(result.Bytes), result.Duration.Round(time.Millisecond))
	if result.Errors > 0 {
		summary = fmt.Sprintf("%s, %d unreadable", summary, result.Errors)
	}
	return summary
}

func previewPrompt(preview services.ActionPreview, step int) string {
	summary := fmt.Sprintf("Delete %d target(s): %d files, %d dirs, %s",
		len(preview.Targets), preview.TotalFiles, preview.TotalDirs, humanize.IBytes(preview.TotalBytes))
	if step == 2 {
		return summary + " - directories go recursively, confirm again (y/n)"
	}
	return summary + " - confirm (y/n)"
}
