package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Devcode940/kenyawatch/internal/civic"
	"github.com/Devcode940/kenyawatch/internal/fixtures"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewStore(t *testing.T) {
	store := newTestStore(t)

	var count int
	err := store.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table'").Scan(&count)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, len(Tables))

	counts, err := store.Counts(context.Background())
	require.NoError(t, err)
	for _, table := range Tables {
		assert.Equal(t, 0, counts[table], table)
	}
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "kenyawatch.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Ping(context.Background()))
	assert.FileExists(t, path)
}

func TestRepresentativesRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	reps := []civic.Representative{
		{
			Name:          "Ali Omar",
			Position:      civic.PositionMP,
			County:        "Nairobi",
			ContactInfo:   civic.ContactInfo{OfficeAddress: "Parliament Buildings, Nairobi"},
			Party:         "People's Voice",
			VotesGarnered: civic.Int(55000),
		},
		{Name: "Amani Kirui", Position: civic.PositionSenator, County: "Kericho"},
	}
	require.NoError(t, store.UpsertRepresentatives(ctx, reps))
	assert.NotEmpty(t, reps[0].ID, "IDs are written back")

	got, err := store.GetRepresentativeBySlug(ctx, "ali-omar-mp")
	require.NoError(t, err)
	assert.Equal(t, reps[0], got)

	byID, err := store.GetRepresentative(ctx, reps[1].ID)
	require.NoError(t, err)
	assert.Nil(t, byID.VotesGarnered)
	assert.Equal(t, "amani-kirui-senator", byID.Slug)

	list, err := store.ListRepresentatives(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ali Omar", list[0].Name)

	_, err = store.GetRepresentativeBySlug(ctx, "nobody")
	assert.True(t, errors.Is(err, ErrNotFound))

	reps[0].Party = "Unity Party"
	require.NoError(t, store.UpsertRepresentatives(ctx, reps[:1]))
	got, err = store.GetRepresentativeBySlug(ctx, "ali-omar-mp")
	require.NoError(t, err)
	assert.Equal(t, "Unity Party", got.Party)
}

func TestMetricsHighlightsReviews(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddPerformanceMetric(ctx, civic.PerformanceMetric{
		RepresentativeID: "3", Name: "Bills Sponsored", Value: civic.ParseMetricValue("5"), Unit: "count",
	})
	require.NoError(t, err)
	_, err = store.AddPerformanceMetric(ctx, civic.PerformanceMetric{
		RepresentativeID: "3", Name: "Committee Role", Value: civic.TextValue("Chair"), Trend: civic.TrendStable,
	})
	require.NoError(t, err)

	metrics, err := store.ListPerformanceMetrics(ctx, "3")
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	n, ok := metrics[0].Value.Number()
	assert.True(t, ok)
	assert.Equal(t, 5.0, n)
	assert.Equal(t, "Chair", metrics[1].Value.String())
	assert.Equal(t, civic.TrendStable, metrics[1].Trend)

	require.NoError(t, store.SaveHighlights(ctx, []civic.Highlight{
		{RepresentativeID: "3", Title: "Old", Date: "2023-01-01T00:00:00Z", Category: civic.CategoryAchievement},
		{RepresentativeID: "3", Title: "New", Date: "2024-01-01T00:00:00Z", Category: civic.CategoryProjectLaunch},
	}))
	highlights, err := store.ListHighlights(ctx, "3")
	require.NoError(t, err)
	require.Len(t, highlights, 2)
	assert.Equal(t, "New", highlights[0].Title)

	older := time.Now().Add(-time.Hour)
	_, err = store.AddReview(ctx, civic.Review{RepresentativeID: "3", Rating: 2, Comment: "first review", CreatedAt: older})
	require.NoError(t, err)
	_, err = store.AddReview(ctx, civic.Review{RepresentativeID: "3", Rating: 5, Comment: "second review", UserName: "wanjiku"})
	require.NoError(t, err)
	_, err = store.AddReview(ctx, civic.Review{RepresentativeID: "4", Rating: 4, Comment: "someone else"})
	require.NoError(t, err)

	reviews, err := store.ListReviews(ctx, "3")
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "second review", reviews[0].Comment)
	assert.Equal(t, "wanjiku", reviews[0].UserName)

	all, err := store.ListReviews(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestEconomicMergeUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertEconomicData(ctx,
		[]civic.CountyGDP{{County: "Nairobi", GDPMillionsKsh: 2750000, Year: 2023, GDPPerCapitaKsh: civic.Float(620000)}},
		[]civic.CensusData{{County: "Nairobi", TotalPopulation: 1, Year: 2023, IntersexPopulation: civic.Int(245)}},
	))

	// Second write omits the optional fields.
	require.NoError(t, store.UpsertEconomicData(ctx,
		[]civic.CountyGDP{{County: "Nairobi", GDPMillionsKsh: 2850000, Year: 2023}},
		[]civic.CensusData{{County: "Nairobi", TotalPopulation: 4550000, Year: 2023}},
	))

	gdp, err := store.ListGDP(ctx)
	require.NoError(t, err)
	require.Len(t, gdp, 1)
	assert.Equal(t, "nairobi-2023", gdp[0].ID)
	assert.Equal(t, 2850000.0, gdp[0].GDPMillionsKsh)
	require.NotNil(t, gdp[0].GDPPerCapitaKsh)
	assert.Equal(t, 620000.0, *gdp[0].GDPPerCapitaKsh)

	census, err := store.ListCensus(ctx)
	require.NoError(t, err)
	require.Len(t, census, 1)
	assert.Equal(t, int64(4550000), census[0].TotalPopulation)
	require.NotNil(t, census[0].IntersexPopulation)
	assert.Equal(t, int64(245), *census[0].IntersexPopulation)
}

func TestSectorBreakdownStored(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertGDP(ctx, []civic.CountyGDP{{
		County: "Kisumu", GDPMillionsKsh: 450000, Year: 2022,
		SectorBreakdown: []civic.SectorShare{{Sector: "Agriculture", Percentage: 31.5}},
	}}))
	gdp, err := store.ListGDP(ctx)
	require.NoError(t, err)
	require.Len(t, gdp, 1)
	assert.Equal(t, []civic.SectorShare{{Sector: "Agriculture", Percentage: 31.5}}, gdp[0].SectorBreakdown)
	assert.Nil(t, gdp[0].GDPPerCapitaKsh)
}

func TestIntegrityReports(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.LatestIntegrityReport(ctx, "1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.SaveIntegrityReport(ctx, civic.IntegrityReport{RepresentativeID: "1", Kind: civic.ReportSummary, Report: "older", CreatedAt: time.Now().Add(-time.Minute)})
	require.NoError(t, err)
	_, err = store.SaveIntegrityReport(ctx, civic.IntegrityReport{RepresentativeID: "1", Kind: civic.ReportFactCheck, Report: "newer"})
	require.NoError(t, err)

	latest, err := store.LatestIntegrityReport(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "newer", latest.Report)
	assert.Equal(t, civic.ReportFactCheck, latest.Kind)
}

func TestScoreCardsAndLeaderboard(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertRepresentatives(ctx, []civic.Representative{
		{ID: "1", Name: "John Doe", Position: civic.PositionPresident},
		{ID: "2", Name: "Jane Smith", Position: civic.PositionGovernor},
	}))
	require.NoError(t, store.UpsertScoreCards(ctx, []civic.ScoreCard{
		{RepresentativeID: "1", PerformanceScore: civic.Float(60), IntegrityScore: civic.Float(80)},
		{RepresentativeID: "2", PerformanceScore: civic.Float(90)},
	}))
	// A partial update keeps the stored integrity score.
	require.NoError(t, store.UpsertScoreCards(ctx, []civic.ScoreCard{{RepresentativeID: "1", PerformanceScore: civic.Float(70)}}))

	cards, err := store.ListScoreCards(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, 70.0, *cards[0].PerformanceScore)
	assert.Equal(t, 80.0, *cards[0].IntegrityScore)

	board, err := store.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "Jane Smith", board[0].Name)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, 75.0, board[1].OverallScore)
}

func TestSeedFixtures(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	empty, err := store.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)

	set, err := fixtures.Default()
	require.NoError(t, err)
	require.NoError(t, store.Seed(ctx, set))
	// Seeding twice is idempotent for keyed records.
	require.NoError(t, store.Seed(ctx, set))

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, counts["representatives"])
	assert.Equal(t, 4, counts["performance_metrics"])
	assert.Equal(t, 3, counts["highlights"])
	assert.Equal(t, 5, counts["county_gdp"])
	assert.Equal(t, 4, counts["census_data"])
	assert.Equal(t, 3, counts["scorecards"])

	empty, err = store.IsEmpty(ctx)
	require.NoError(t, err)
	assert.False(t, empty)
}

func TestProfile(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Profile(ctx, "3")
	assert.ErrorIs(t, err, ErrNotFound)

	set, err := fixtures.Default()
	require.NoError(t, err)
	require.NoError(t, store.Seed(ctx, set))

	p, err := store.Profile(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "Ali Omar", p.Representative.Name)
	assert.Len(t, p.Metrics, 3)
	assert.Len(t, p.Highlights, 2)
	assert.Empty(t, p.Reviews)
	assert.Nil(t, p.Report)

	_, err = store.SaveIntegrityReport(ctx, civic.IntegrityReport{RepresentativeID: "3", Kind: civic.ReportSummary, Report: "No major concerns."})
	require.NoError(t, err)
	p, err = store.Profile(ctx, "3")
	require.NoError(t, err)
	require.NotNil(t, p.Report)
	assert.Equal(t, "No major concerns.", p.Report.Report)
}
