// Package ui is the KenyaWatch terminal interface: one tab per dataset
// table and a detail page per representative.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/Devcode940/kenyawatch/internal/civic"
	"github.com/Devcode940/kenyawatch/internal/datasets"
	"github.com/Devcode940/kenyawatch/internal/flows"
	"github.com/Devcode940/kenyawatch/internal/logging"
	"github.com/Devcode940/kenyawatch/internal/store"
	"github.com/Devcode940/kenyawatch/internal/table"
)

// Page names
const (
	pageDetail = "detail"
	pageModal  = "modal"
	pageForm   = "form"
)

// Deps wires the UI.
type Deps struct {
	Store *store.Store
	Flows *flows.Service
	// Logger must not write to the terminal the UI draws on.
	Logger *zap.Logger
	Theme  string
	// User is the reviewer name suggested in the review form.
	User string
	// Ready runs on the UI goroutine once the event loop is running.
	Ready func()
}

// UI represents the terminal user interface
type UI struct {
	app    *tview.Application
	store  *store.Store
	flows  *flows.Service
	zlog   *zap.Logger
	logger *log.Logger
	user   string
	ready  func()

	pages     *tview.Pages
	tabBar    *tview.TextView
	statusBar *tview.TextView
	detail    *tview.TextView
	views     []*TableView
	current   int

	// representative shown on the detail page
	detailID   string
	detailName string

	theme Theme

	running atomic.Bool
	async   bool
	tasks   sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// NewUI loads every dataset and builds the layout.
func NewUI(ctx context.Context, d Deps) (*UI, error) {
	if d.Store == nil || d.Flows == nil {
		return nil, errors.New("ui: store and flows are required")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	uiCtx, cancel := context.WithCancel(ctx)
	ui := &UI{
		app:    tview.NewApplication(),
		store:  d.Store,
		flows:  d.Flows,
		zlog:   d.Logger,
		logger: logging.Std(d.Logger, "ui"),
		user:   d.User,
		ready:  d.Ready,
		theme:  themeByName(d.Theme),
		ctx:    uiCtx,
		cancel: cancel,
	}

	for _, ds := range datasets.All() {
		v, err := datasets.Open(uiCtx, d.Store, ds.Name, d.Logger)
		if err != nil {
			cancel()
			return nil, err
		}
		ui.views = append(ui.views, newTableView(ds, v, ui.theme))
	}

	ui.setupLayout()
	ui.applyTheme()
	ui.switchTo(0)
	return ui, nil
}

// Start runs the application until q is pressed or ctx is cancelled.
func (ui *UI) Start(ctx context.Context) error {
	ui.logger.Println("Starting TUI application")
	ui.async = true

	go func() {
		select {
		case <-ctx.Done():
		case <-ui.ctx.Done():
		}
		ui.cancel()
		ui.app.Stop()
	}()

	ui.running.Store(true)
	if ui.ready != nil {
		ui.app.QueueUpdate(ui.ready)
	}
	err := ui.app.Run()
	ui.running.Store(false)
	ui.cancel()
	ui.tasks.Wait()
	ui.logger.Printf("TUI stopped: %v", err)
	return err
}

// Stop stops the TUI application
func (ui *UI) Stop() {
	ui.cancel()
	ui.app.Stop()
}

func (ui *UI) setupLayout() {
	ui.tabBar = tview.NewTextView().SetDynamicColors(true)
	ui.statusBar = tview.NewTextView().SetDynamicColors(true)

	ui.detail = tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true).
		SetScrollable(true)
	ui.detail.SetBorder(true)
	ui.detail.SetTitleAlign(tview.AlignLeft)

	ui.pages = tview.NewPages()
	for _, tv := range ui.views {
		ui.pages.AddPage(tv.Name(), tv.Primitive(), true, false)
		tv := tv
		tv.search.SetDoneFunc(func(key tcell.Key) {
			ui.app.SetFocus(tv.table)
		})
	}
	ui.pages.AddPage(pageDetail, ui.detail, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.tabBar, 1, 0, false).
		AddItem(ui.pages, 0, 1, true).
		AddItem(ui.statusBar, 1, 0, false)
	ui.app.SetRoot(root, true)
	ui.app.SetInputCapture(ui.handleKey)
}

func (ui *UI) applyTheme() {
	t := ui.theme
	ui.tabBar.SetBackgroundColor(t.Surface)
	ui.statusBar.SetBackgroundColor(t.Surface)
	ui.statusBar.SetTextColor(t.TextPrimary)
	ui.detail.SetBackgroundColor(t.Surface)
	ui.detail.SetTextColor(t.TextPrimary)
	ui.detail.SetBorderColor(t.FocusBorder)
	for _, tv := range ui.views {
		tv.SetTheme(t)
	}
	ui.renderTabs()
}

func (ui *UI) cycleTheme() {
	ui.theme = themeByName(nextTheme(ui.theme.Name))
	ui.applyTheme()
	if ui.detailID != "" {
		ui.showProfile()
	}
	ui.setStatusDirect("[%s]Theme: %s[-]", ui.theme.TagAccent, ui.theme.Name)
}

func (ui *UI) renderTabs() {
	parts := make([]string, len(ui.views))
	for i, tv := range ui.views {
		if i == ui.current {
			parts[i] = fmt.Sprintf("[%s::b] %d %s [-::-]", ui.theme.TagAccent, i+1, tv.dataset.Title)
		} else {
			parts[i] = fmt.Sprintf("[%s] %d %s [-]", ui.theme.TagMuted, i+1, tv.dataset.Title)
		}
	}
	ui.tabBar.SetText(" [::b]KenyaWatch[::-] " + strings.Join(parts, "|"))
}

// switchTo shows the table page at index i.
func (ui *UI) switchTo(i int) {
	if i < 0 || i >= len(ui.views) {
		return
	}
	ui.current = i
	tv := ui.views[i]
	tv.CancelSort()
	ui.pages.SwitchToPage(tv.Name())
	ui.app.SetFocus(tv.table)
	ui.renderTabs()
	ui.setStatusDirect("%s. %d row(s)", tview.Escape(tv.dataset.Description), len(tv.Grid().Projection))
}

// currentView returns the table of the active tab.
func (ui *UI) currentView() *TableView { return ui.views[ui.current] }

func (ui *UI) frontPage() string {
	name, _ := ui.pages.GetFrontPage()
	return name
}

// inputActive reports whether a text widget owns the keyboard.
func (ui *UI) inputActive() bool {
	switch ui.app.GetFocus().(type) {
	case *tview.InputField, *tview.TextArea, *tview.DropDown, *tview.Form, *tview.Button, *tview.Modal:
		return true
	}
	switch ui.frontPage() {
	case pageForm, pageModal:
		return true
	}
	return false
}

// handleKey is the application input capture.
func (ui *UI) handleKey(ev *tcell.EventKey) *tcell.EventKey {
	if ui.inputActive() {
		return ev
	}
	if ui.frontPage() == pageDetail {
		return ui.handleDetailKey(ev)
	}

	tv := ui.currentView()
	if tv.Sorting() {
		return ui.handleSortKey(tv, ev)
	}

	switch ev.Key() {
	case tcell.KeyEnter:
		ui.openSelected()
		return nil
	case tcell.KeyEsc:
		ui.setStatusDirect("")
		return nil
	case tcell.KeyRune:
	default:
		return ev
	}

	switch r := ev.Rune(); {
	case r >= '1' && r <= '9':
		ui.switchTo(int(r - '1'))
	case r == '/':
		ui.app.SetFocus(tv.search)
		ui.setStatusDirect("Type to search, Enter or Esc to return to the table")
	case r == 'f':
		if label, ok := tv.CycleFilter(); ok {
			ui.setStatusDirect("Filter: %s. %d row(s)", tview.Escape(label), len(tv.Grid().Projection))
		} else {
			ui.setStatusDirect("[%s]This table has no filters[-]", ui.theme.TagWarning)
		}
	case r == 'F':
		if label, ok := tv.NextFilter(); ok {
			ui.setStatusDirect("Filter selected: %s (f cycles its values)", tview.Escape(label))
		}
	case r == 's':
		tv.BeginSort()
		ui.setStatusDirect("Sort: press a column number, or < > then Enter. Esc cancels")
	case r == 'r':
		ui.reloadView(ui.current)
		ui.setStatusDirect("[%s]Reloaded %s[-]", ui.theme.TagSuccess, tview.Escape(tv.dataset.Title))
	case r == 'u':
		ui.refreshEconomicData()
	case r == 't':
		ui.cycleTheme()
	case r == '?':
		ui.showHelp()
	case r == 'q':
		ui.Stop()
	default:
		return ev
	}
	return nil
}

func (ui *UI) handleSortKey(tv *TableView, ev *tcell.EventKey) *tcell.EventKey {
	switch ev.Key() {
	case tcell.KeyEnter:
		if tv.CommitSort() {
			ui.setStatusDirect("Sorted by %s", tview.Escape(sortLabel(tv)))
		} else {
			ui.setStatusDirect("[%s]That column cannot be sorted[-]", ui.theme.TagWarning)
		}
	case tcell.KeyEsc:
		tv.CancelSort()
		ui.setStatusDirect("")
	case tcell.KeyLeft:
		tv.MoveSortCursor(-1)
	case tcell.KeyRight:
		tv.MoveSortCursor(1)
	case tcell.KeyRune:
		switch r := ev.Rune(); {
		case r == '<':
			tv.MoveSortCursor(-1)
		case r == '>':
			tv.MoveSortCursor(1)
		case r >= '1' && r <= '9':
			if tv.SortBy(int(r - '1')) {
				ui.setStatusDirect("Sorted by %s", tview.Escape(sortLabel(tv)))
			} else {
				tv.CancelSort()
				ui.setStatusDirect("[%s]No sortable column %c[-]", ui.theme.TagWarning, r)
			}
		default:
			tv.CancelSort()
		}
	}
	return nil
}

func sortLabel(tv *TableView) string {
	s := tv.view.State()
	if col, ok := tv.view.Schema().Column(s.SortKey); ok {
		return tv.view.HeaderLabel(col)
	}
	return s.SortKey.String()
}

// openSelected opens the detail page for the selected representative.
func (ui *UI) openSelected() {
	tv := ui.currentView()
	switch tv.Name() {
	case datasets.Representatives, datasets.Leaderboard:
	default:
		return
	}
	row, ok := tv.Selected()
	if !ok {
		return
	}
	id := table.ParsePath("id").Resolve(row).String()
	if id == "" {
		return
	}
	ui.openDetail(id)
}

func (ui *UI) openDetail(id string) {
	ui.detailID = id
	ui.showProfile()
	ui.pages.SwitchToPage(pageDetail)
	ui.app.SetFocus(ui.detail)
	ui.setStatusDirect("[%s]c[-] fact-check  [%s]i[-] summarize news  [%s]h[-] highlights  [%s]v[-] review  [%s]m[-] metric  [%s]Esc[-] back",
		ui.theme.TagAccent, ui.theme.TagAccent, ui.theme.TagAccent, ui.theme.TagAccent, ui.theme.TagAccent, ui.theme.TagAccent)
}

func (ui *UI) showProfile() {
	p, err := ui.store.Profile(ui.ctx, ui.detailID)
	if err != nil {
		ui.logger.Printf("load profile %s: %v", ui.detailID, err)
		ui.detail.SetText(fmt.Sprintf("[%s]Could not load representative: %s[-]", ui.theme.TagError, tview.Escape(err.Error())))
		return
	}
	ui.detailName = p.Representative.Name
	ui.detail.SetTitle(" " + tview.Escape(p.Representative.Name) + " ")
	ui.detail.SetText(renderProfile(p, ui.theme))
	ui.detail.ScrollToBeginning()
}

func (ui *UI) closeDetail() {
	ui.detailID = ""
	ui.switchTo(ui.current)
}

func (ui *UI) handleDetailKey(ev *tcell.EventKey) *tcell.EventKey {
	switch ev.Key() {
	case tcell.KeyEsc, tcell.KeyBackspace, tcell.KeyBackspace2:
		ui.closeDetail()
		return nil
	case tcell.KeyRune:
	default:
		return ev
	}
	switch ev.Rune() {
	case 'c':
		ui.factCheck()
	case 'i':
		ui.summarizeIntegrity()
	case 'h':
		ui.generateHighlights()
	case 'v':
		ui.showReviewForm()
	case 'm':
		ui.showMetricForm()
	case 't':
		ui.cycleTheme()
	case '?':
		ui.showHelp()
	case 'q':
		ui.Stop()
	default:
		return ev
	}
	return nil
}

// Reload refreshes the tables that show dataset, e.g. after an update
// message. Safe to call from any goroutine.
func (ui *UI) Reload(dataset string) {
	ui.update(func() {
		for i, tv := range ui.views {
			if affects(dataset, tv.Name()) {
				ui.reloadView(i)
			}
		}
		if ui.detailID != "" && dataset == datasets.Representatives {
			ui.showProfile()
		}
	})
}

// affects reports whether changes to dataset change the rows of view.
func affects(dataset, view string) bool {
	if dataset == view {
		return true
	}
	// The leaderboard joins representatives with their reviews and scores.
	return view == datasets.Leaderboard && dataset == datasets.Representatives
}

func (ui *UI) reloadView(i int) {
	tv := ui.views[i]
	if err := datasets.Reload(ui.ctx, ui.store, tv.Name(), tv.view); err != nil {
		ui.logger.Printf("reload %s: %v", tv.Name(), err)
		ui.setStatusDirect("[%s]Reload failed: %s[-]", ui.theme.TagError, tview.Escape(err.Error()))
		return
	}
	tv.Refresh()
}

// update runs fn on the UI goroutine.
func (ui *UI) update(fn func()) {
	if ui.running.Load() {
		ui.app.QueueUpdateDraw(fn)
		return
	}
	fn()
}

// runTask runs a flow off the UI goroutine and reports its outcome in the
// status bar. done runs on the UI goroutine after success.
func (ui *UI) runTask(label string, task func(ctx context.Context) (string, error), done func()) {
	ui.setStatusDirect("[%s]%s...[-]", ui.theme.TagWarning, label)
	run := func() {
		started := time.Now()
		msg, err := task(ui.ctx)
		ui.update(func() {
			if err != nil {
				ui.zlog.Warn("task failed", zap.String("task", label), zap.Error(err))
				ui.setStatusDirect("[%s]%s failed: %s[-]", ui.theme.TagError, label, tview.Escape(userMessage(err)))
				return
			}
			ui.zlog.Info("task finished", zap.String("task", label), zap.Duration("took", time.Since(started)))
			ui.setStatusDirect("[%s]%s[-]", ui.theme.TagSuccess, tview.Escape(msg))
			if done != nil {
				done()
			}
		})
	}
	if !ui.async {
		run()
		return
	}
	ui.tasks.Add(1)
	go func() {
		defer ui.tasks.Done()
		run()
	}()
}

// userMessage returns the validation message of err, or its text.
func userMessage(err error) string {
	var verr *civic.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return err.Error()
}

func (ui *UI) factCheck() {
	id, name := ui.detailID, ui.detailName
	ui.runTask("Fact-checking "+name, func(ctx context.Context) (string, error) {
		out, err := ui.flows.FactCheck(ctx, flows.FactCheckInput{Name: name, RepresentativeID: id})
		if err != nil {
			return "", err
		}
		return "Integrity report updated: " + truncate(out.IntegrityReport, 80), nil
	}, ui.refreshDetail(id))
}

func (ui *UI) summarizeIntegrity() {
	id, name := ui.detailID, ui.detailName
	ui.runTask("Summarizing news on "+name, func(ctx context.Context) (string, error) {
		rep, err := ui.store.GetRepresentative(ctx, id)
		if err != nil {
			return "", err
		}
		out, err := ui.flows.SummarizeIntegrityReport(ctx, flows.IntegrityReportInput{
			Name:             name,
			NewsSummary:      rep.NewsSummaryForAI,
			RepresentativeID: id,
		})
		if err != nil {
			return "", err
		}
		return "Integrity report updated: " + truncate(out.IntegrityReport, 80), nil
	}, ui.refreshDetail(id))
}

func (ui *UI) generateHighlights() {
	id, name := ui.detailID, ui.detailName
	ui.runTask("Generating highlights for "+name, func(ctx context.Context) (string, error) {
		rep, err := ui.store.GetRepresentative(ctx, id)
		if err != nil {
			return "", err
		}
		out, err := ui.flows.GenerateSocialHighlights(ctx, flows.SocialHighlightsInput{
			RepresentativeID:   id,
			RepresentativeName: name,
			TwitterHandle:      rep.ContactInfo.Twitter,
		})
		if err != nil {
			return "", err
		}
		return out.Summary, nil
	}, ui.refreshDetail(id))
}

func (ui *UI) refreshEconomicData() {
	ui.runTask("Refreshing KNBS economic data", func(ctx context.Context) (string, error) {
		out, err := ui.flows.FetchEconomicData(ctx)
		if err != nil {
			return "", err
		}
		return out.Summary, nil
	}, func() {
		for i, tv := range ui.views {
			if tv.Name() == datasets.GDP || tv.Name() == datasets.Census {
				ui.reloadView(i)
			}
		}
	})
}

// refreshDetail returns a callback that redraws the detail page when it
// still shows id, and reloads the leaderboard.
func (ui *UI) refreshDetail(id string) func() {
	return func() {
		if ui.detailID == id {
			ui.showProfile()
		}
		for i, tv := range ui.views {
			if tv.Name() == datasets.Leaderboard {
				ui.reloadView(i)
			}
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

const helpText = `Tables
  1-4        switch table
  /          search (Enter/Esc returns to the table)
  f          cycle the selected filter's values
  F          select the next filter
  s          sort: then a column number, or < > and Enter
  r          reload the table
  u          refresh KNBS economic data
  Enter      open a representative

Representative page
  c          fact-check news coverage
  i          summarize the stored news summary
  h          generate highlights from social media
  v          add a review
  m          add a performance metric
  Esc        back

  t          cycle theme
  ?          this help
  q          quit`

func (ui *UI) showHelp() {
	ui.showModal("Help", helpText)
}

// showModal displays a modal dialog over the current page.
func (ui *UI) showModal(title, text string) {
	previous := ui.app.GetFocus()
	modal := tview.NewModal().
		SetText(text).
		AddButtons([]string{"Close"})
	modal.SetTitle(fmt.Sprintf(" %s ", title))
	modal.SetBackgroundColor(ui.theme.Surface)
	modal.SetTextColor(ui.theme.TextPrimary)
	modal.SetBorderColor(ui.theme.FocusBorder)
	modal.SetButtonBackgroundColor(ui.theme.SelectionBg)
	modal.SetButtonTextColor(ui.theme.SelectionFg)
	modal.SetDoneFunc(func(int, string) {
		ui.pages.RemovePage(pageModal)
		ui.app.SetFocus(previous)
	})
	ui.pages.AddPage(pageModal, modal, true, true)
	ui.app.SetFocus(modal)
}

// Status returns the status bar text without color tags.
func (ui *UI) Status() string {
	return ui.statusBar.GetText(true)
}

// setStatusDirect updates the status bar. Call it on the UI goroutine only.
func (ui *UI) setStatusDirect(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("15:04:05")
	ui.statusBar.SetText(fmt.Sprintf("[%s]%s[-] %s [%s]| ? help  q quit[-]",
		ui.theme.TagMuted, timestamp, message, ui.theme.TagMuted))
}
