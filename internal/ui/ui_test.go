package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Devcode940/kenyawatch/internal/civic"
	"github.com/Devcode940/kenyawatch/internal/datasets"
	"github.com/Devcode940/kenyawatch/internal/fixtures"
	"github.com/Devcode940/kenyawatch/internal/flows"
	"github.com/Devcode940/kenyawatch/internal/llm"
	"github.com/Devcode940/kenyawatch/internal/store"
	"github.com/Devcode940/kenyawatch/internal/table"
)

func newTestUI(t *testing.T) (*UI, *store.Store) {
	t.Helper()
	st, err := store.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	set, err := fixtures.Default()
	require.NoError(t, err)
	require.NoError(t, st.Seed(context.Background(), set))

	svc, err := flows.New(flows.Deps{Store: st, Model: llm.NewLocalStub(nil)})
	require.NoError(t, err)

	ui, err := NewUI(context.Background(), Deps{Store: st, Flows: svc, User: "Wanjiku"})
	require.NoError(t, err)
	t.Cleanup(ui.cancel)
	return ui, st
}

func press(ui *UI, keys ...rune) {
	for _, r := range keys {
		ui.handleKey(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
}

func pressKey(ui *UI, k tcell.Key) *tcell.EventKey {
	return ui.handleKey(tcell.NewEventKey(k, 0, tcell.ModNone))
}

func cellText(tv *TableView, row, col int) string {
	cell := tv.table.GetCell(row, col)
	if cell == nil {
		return ""
	}
	return cell.Text
}

func column(tv *TableView, col int) []string {
	var out []string
	for r := 1; r < tv.table.GetRowCount(); r++ {
		out = append(out, cellText(tv, r, col))
	}
	return out
}

func TestNewUIShowsRepresentatives(t *testing.T) {
	ui, _ := newTestUI(t)

	assert.Equal(t, datasets.Representatives, ui.frontPage())
	tv := ui.currentView()
	assert.Equal(t, "Name ▲", cellText(tv, 0, 0))
	assert.Equal(t, []string{"Ali Omar", "Jane Smith", "John Doe", "Mary Wambui"}, column(tv, 0))
	assert.Equal(t, "7,000,000", cellText(tv, 3, 5))
	assert.Contains(t, ui.tabBar.GetText(true), "1 Representatives")
}

func TestTabsSwitchTables(t *testing.T) {
	ui, _ := newTestUI(t)

	press(ui, '4')
	assert.Equal(t, datasets.Leaderboard, ui.frontPage())
	tv := ui.currentView()
	assert.Equal(t, []string{"#1 ★", "#2", "#3"}, column(tv, 0))
	assert.Equal(t, []string{"Ali Omar", "Jane Smith", "John Doe"}, column(tv, 1))

	press(ui, '2')
	assert.Equal(t, datasets.Census, ui.frontPage())
	assert.Equal(t, "Nairobi", cellText(ui.currentView(), 1, 0))

	press(ui, '9')
	assert.Equal(t, datasets.Census, ui.frontPage(), "unknown tab is ignored")
}

func TestSearchKeyFocusesInput(t *testing.T) {
	ui, _ := newTestUI(t)
	tv := ui.currentView()

	press(ui, '/')
	assert.Same(t, tv.search, ui.app.GetFocus())

	ev := tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)
	assert.Same(t, ev, ui.handleKey(ev), "keys pass through to the search input")

	tv.SetSearch("JANE")
	assert.Equal(t, []string{"Jane Smith"}, column(tv, 0))

	tv.SetSearch("nobody")
	assert.True(t, tv.Grid().Empty)
	assert.Equal(t, table.EmptyMessage, cellText(tv, 1, 0))
	_, ok := tv.Selected()
	assert.False(t, ok)
}

func TestFilterKeys(t *testing.T) {
	ui, _ := newTestUI(t)
	tv := ui.currentView()

	press(ui, 'f')
	assert.Equal(t, []string{"John Doe"}, column(tv, 0))
	assert.Contains(t, ui.Status(), "Filter: Position: President")

	press(ui, 'f')
	assert.True(t, tv.Grid().Empty, "no Deputy President in the fixtures")

	press(ui, 'F')
	assert.Contains(t, ui.Status(), "All county")

	// Back to the position filter and around to the unset state.
	press(ui, 'F')
	for i := 0; i < len(civic.Positions())-1; i++ {
		press(ui, 'f')
	}
	assert.Equal(t, table.AllSentinel, tv.view.State().Filter("position"))
	assert.Len(t, column(tv, 0), 4)
	assert.Contains(t, tv.filters.GetText(true), "All position")
}

func TestFilterKeyWithoutFilters(t *testing.T) {
	ui, _ := newTestUI(t)
	press(ui, '3', 'f')
	assert.Contains(t, ui.Status(), "This table has no filters")
}

func TestSortByColumnNumber(t *testing.T) {
	ui, _ := newTestUI(t)
	tv := ui.currentView()

	press(ui, 's')
	assert.True(t, tv.Sorting())
	press(ui, '3')
	assert.False(t, tv.Sorting())
	assert.Equal(t, "County ▲", cellText(tv, 0, 2))
	assert.Equal(t, "Name", cellText(tv, 0, 0))
	assert.Equal(t, "National", cellText(tv, 4, 2))
	assert.Contains(t, ui.Status(), "Sorted by County ▲")

	press(ui, 's', '3')
	assert.Equal(t, "County ▼", cellText(tv, 0, 2))
	assert.Equal(t, "National", cellText(tv, 1, 2))
}

func TestSortWithHeaderCursor(t *testing.T) {
	ui, _ := newTestUI(t)
	press(ui, '3')
	tv := ui.currentView()
	assert.Equal(t, "GDP (Millions KSh) ▼", cellText(tv, 0, 1))

	press(ui, 's', '<')
	pressKey(ui, tcell.KeyEnter)
	assert.Equal(t, "County ▲", cellText(tv, 0, 0))
	assert.Equal(t, "Kiambu", cellText(tv, 1, 0))

	press(ui, 's', '>')
	pressKey(ui, tcell.KeyEsc)
	assert.False(t, tv.Sorting())
	assert.Equal(t, "County ▲", cellText(tv, 0, 0))

	press(ui, 's', '9')
	assert.Contains(t, ui.Status(), "No sortable column 9")
}

func TestOpenDetailAndFactCheck(t *testing.T) {
	ui, st := newTestUI(t)

	// Ali Omar is the first row.
	pressKey(ui, tcell.KeyEnter)
	require.Equal(t, pageDetail, ui.frontPage())
	assert.Equal(t, "3", ui.detailID)
	text := ui.detail.GetText(true)
	assert.Contains(t, text, "Ali Omar")
	assert.Contains(t, text, "Bills Sponsored: 5 count")
	assert.Contains(t, text, "Parliamentary Attendance: 85% ↑")
	assert.Contains(t, text, "Launch of Youth Empowerment Program")
	assert.Contains(t, text, "No integrity report yet")

	press(ui, 'c')
	assert.Contains(t, ui.Status(), "Integrity report updated")
	report, err := st.LatestIntegrityReport(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, civic.ReportFactCheck, report.Kind)
	assert.NotContains(t, ui.detail.GetText(true), "No integrity report yet")

	press(ui, 'i')
	report, err = st.LatestIntegrityReport(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, civic.ReportSummary, report.Kind)

	pressKey(ui, tcell.KeyEsc)
	assert.Equal(t, datasets.Representatives, ui.frontPage())
	assert.Empty(t, ui.detailID)
}

func TestEnterIgnoredOnEconomicTables(t *testing.T) {
	ui, _ := newTestUI(t)
	press(ui, '2')
	pressKey(ui, tcell.KeyEnter)
	assert.Equal(t, datasets.Census, ui.frontPage())
}

func TestGenerateHighlights(t *testing.T) {
	ui, st := newTestUI(t)
	ui.openDetail("1")

	press(ui, 'h')
	assert.Contains(t, ui.Status(), "Successfully generated and saved 5 new highlights for John Doe.")
	highlights, err := st.ListHighlights(context.Background(), "1")
	require.NoError(t, err)
	assert.Len(t, highlights, 5)
	assert.NotContains(t, ui.detail.GetText(true), "No highlights yet")
}

func TestGenerateHighlightsWithoutHandle(t *testing.T) {
	ui, _ := newTestUI(t)
	ui.openDetail("3")

	press(ui, 'h')
	assert.Contains(t, ui.Status(), "No new highlights were generated")
}

func TestReviewForm(t *testing.T) {
	ui, st := newTestUI(t)
	ui.openDetail("3")

	press(ui, 'v')
	require.Equal(t, pageForm, ui.frontPage())
	ev := tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)
	assert.Same(t, ev, ui.handleKey(ev), "form owns the keyboard")

	ui.submitReview("3", "Wanjiku", 5, "short")
	assert.Contains(t, ui.Status(), "Comment must be at least 10 characters.")
	assert.Equal(t, pageForm, ui.frontPage())

	ui.submitReview("3", "Wanjiku", 0, "A thoughtful representative.")
	assert.Contains(t, ui.Status(), "Rating is required")

	ui.submitReview("3", "Wanjiku", 5, "Delivered the vocational centre on time.")
	assert.Equal(t, pageDetail, ui.frontPage())
	assert.Contains(t, ui.Status(), "Review submitted. Thank you!")

	reviews, err := st.ListReviews(context.Background(), "3")
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "Wanjiku", reviews[0].UserName)
	assert.Contains(t, ui.detail.GetText(true), "★★★★★ Wanjiku")

	press(ui, '4')
	assert.Equal(t, pageDetail, ui.frontPage(), "digits do not switch tabs on the detail page")
	pressKey(ui, tcell.KeyEsc)
	press(ui, '4')
	assert.Equal(t, "100.0", cellText(ui.currentView(), 1, 8), "public sentiment of the reviewed representative")
}

func TestMetricForm(t *testing.T) {
	ui, st := newTestUI(t)
	ui.openDetail("2")
	press(ui, 'm')
	require.Equal(t, pageForm, ui.frontPage())

	ui.submitMetric(civic.PerformanceMetric{RepresentativeID: "2", Name: "ab", Value: civic.NumberValue(1)})
	assert.Contains(t, ui.Status(), "Metric name is required.")

	ui.submitMetric(civic.PerformanceMetric{
		RepresentativeID: "2",
		Name:             "Clinics Opened",
		Value:            civic.ParseMetricValue("14"),
		Unit:             "count",
		Trend:            trendFromChoice("up"),
	})
	assert.Equal(t, pageDetail, ui.frontPage())
	metrics, err := st.ListPerformanceMetrics(context.Background(), "2")
	require.NoError(t, err)
	assert.Len(t, metrics, 2)
	assert.Contains(t, ui.detail.GetText(true), "Clinics Opened: 14 count ↑")
}

func TestRefreshEconomicData(t *testing.T) {
	ui, _ := newTestUI(t)

	press(ui, 'u')
	assert.Contains(t, ui.Status(), "Successfully updated 4 GDP records and 2 census records for the year 2023.")

	press(ui, '3')
	assert.Len(t, ui.currentView().Grid().Projection, 9)
	press(ui, '2')
	assert.Len(t, ui.currentView().Grid().Projection, 6)
}

func TestReloadKeepsState(t *testing.T) {
	ui, st := newTestUI(t)
	tv := ui.currentView()
	tv.SetSearch("a")

	require.NoError(t, st.UpsertRepresentatives(context.Background(), []civic.Representative{
		{ID: "9", Name: "Amina Hassan", Position: civic.PositionSenator, County: "Garissa"},
	}))
	ui.Reload(datasets.Representatives)

	assert.Contains(t, column(tv, 0), "Amina Hassan")
	assert.Equal(t, "a", tv.view.State().SearchTerm)
	assert.Contains(t, datasets.OptionsFrom(tv.view.Rows(), "county"), table.Option{Value: "Garissa", Label: "Garissa"})
}

func TestAffects(t *testing.T) {
	assert.True(t, affects(datasets.GDP, datasets.GDP))
	assert.True(t, affects(datasets.Representatives, datasets.Leaderboard))
	assert.False(t, affects(datasets.GDP, datasets.Census))
	assert.False(t, affects(datasets.Leaderboard, datasets.Representatives))
}

func TestHelpAndTheme(t *testing.T) {
	ui, _ := newTestUI(t)

	press(ui, 't')
	assert.Equal(t, "dark", ui.theme.Name)
	assert.Contains(t, ui.Status(), "Theme: dark")
	for range themeOrder[1:] {
		press(ui, 't')
	}
	assert.Equal(t, "kenya", ui.theme.Name)

	press(ui, '?')
	assert.Equal(t, pageModal, ui.frontPage())
	ev := tcell.NewEventKey(tcell.KeyRune, '2', tcell.ModNone)
	assert.Same(t, ev, ui.handleKey(ev))
}

func TestRenderProfile(t *testing.T) {
	created := time.Now().Add(-2 * time.Hour)
	p := store.Profile{
		Representative: civic.Representative{
			Name:               "Jane Smith",
			Position:           civic.PositionGovernor,
			ConstituencyOrWard: "Nairobi County",
			County:             "Nairobi",
			Party:              "Progress Alliance",
			VotesGarnered:      civic.Int(800000),
			ContactInfo:        civic.ContactInfo{Email: "governor.nairobi@example.com"},
		},
		Metrics: []civic.PerformanceMetric{
			{Name: "Budget Utilization Rate", Value: civic.ParseMetricValue("92"), Unit: "%", Trend: civic.TrendDown},
		},
		Report: &civic.IntegrityReport{Kind: civic.ReportSummary, Report: "No [major] concerns.", CreatedAt: created},
	}

	out := renderProfile(p, themeKenya())
	assert.Contains(t, out, "Votes garnered: 800,000")
	assert.Contains(t, out, "Nairobi County, Nairobi | Progress Alliance")
	assert.Contains(t, out, "Email: governor.nairobi@example.com")
	assert.Contains(t, out, "No highlights yet")
	assert.Contains(t, out, "No reviews yet")
	assert.Contains(t, out, "summary, 2 hours ago")
	assert.Contains(t, out, "No [major[] concerns.", "report text is escaped")
	assert.True(t, strings.Contains(out, "Budget Utilization Rate: [::b]92%[::-]"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
