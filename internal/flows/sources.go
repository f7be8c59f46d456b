package flows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Devcode940/kenyawatch/internal/civic"
)

// NewsSearcher finds news coverage of a representative.
type NewsSearcher interface {
	Search(ctx context.Context, name string) (string, error)
}

// SocialFeed fetches recent posts for a social media handle.
type SocialFeed interface {
	Posts(ctx context.Context, handle string) (string, error)
}

// EconomicSource provides the latest county economic figures.
type EconomicSource interface {
	GDP(ctx context.Context) ([]civic.CountyGDP, error)
	Census(ctx context.Context) ([]civic.CensusData, error)
}

// NoHandleMessage is returned by SimulatedSocialFeed for an empty handle.
const NoHandleMessage = "No social media activity found (no handle provided)."

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SimulatedNews returns canned news summaries naming the representative.
type SimulatedNews struct {
	Delay time.Duration
}

// Search implements NewsSearcher.
func (n SimulatedNews) Search(ctx context.Context, name string) (string, error) {
	if err := wait(ctx, n.Delay); err != nil {
		return "", err
	}
	summaries := []string{
		fmt.Sprintf("A recent investigation by The Daily Chronicle found that %s has been praised for their work on a new infrastructure bill, but questions were raised about the project's budget oversight.", name),
		fmt.Sprintf("The National Times reported that %s was involved in a heated debate over land use policies in their constituency. Supporters praise their firm stance, while opponents criticize a lack of compromise.", name),
		fmt.Sprintf("A feature in \"Kenya Today\" highlighted %s's perfect attendance record in parliament for the last session, though it noted they have been less vocal in major debates.", name),
	}
	return strings.Join(summaries, "\n\n"), nil
}

// SimulatedSocialFeed returns canned posts for any non-empty handle.
type SimulatedSocialFeed struct {
	Delay time.Duration
}

// Posts implements SocialFeed.
func (f SimulatedSocialFeed) Posts(ctx context.Context, handle string) (string, error) {
	if strings.TrimSpace(handle) == "" {
		return NoHandleMessage, nil
	}
	if err := wait(ctx, f.Delay); err != nil {
		return "", err
	}
	posts := []string{
		"Just launched the new community library in Webuye! Grateful for the support from @CDF_Kenya. #EducationForAll",
		"Today in Parliament, I voted YES on the Climate Action Bill. A crucial step for our future. #ClimateAction",
		"Meeting with small-scale farmers in Kimilili to discuss fertilizer subsidies. Your voices matter.",
		"Proud to announce the completion of the Kamukuywa-Kibwezi road project. This will boost trade and connect our communities. #Infrastructure",
		"Statement on the recent budget: We must prioritize healthcare spending and ensure our hospitals are well-equipped. Read my full statement here: https://example.com/statement",
	}
	return strings.Join(posts, "\n\n---\n\n"), nil
}

// SimulatedKNBS stands in for the national statistics bureau.
type SimulatedKNBS struct {
	Delay time.Duration
}

// GDP implements EconomicSource.
func (k SimulatedKNBS) GDP(ctx context.Context) ([]civic.CountyGDP, error) {
	if err := wait(ctx, k.Delay); err != nil {
		return nil, err
	}
	return []civic.CountyGDP{
		{County: "Nairobi", GDPMillionsKsh: 2850000, GDPPerCapitaKsh: civic.Float(640000), Year: 2023},
		{County: "Mombasa", GDPMillionsKsh: 810000, GDPPerCapitaKsh: civic.Float(670000), Year: 2023},
		{County: "Kiambu", GDPMillionsKsh: 660000, GDPPerCapitaKsh: civic.Float(270000), Year: 2023},
		{County: "Nakuru", GDPMillionsKsh: 550000, GDPPerCapitaKsh: civic.Float(250000), Year: 2023},
	}, nil
}

// Census implements EconomicSource.
func (k SimulatedKNBS) Census(ctx context.Context) ([]civic.CensusData, error) {
	if err := wait(ctx, k.Delay); err != nil {
		return nil, err
	}
	return []civic.CensusData{
		{County: "Nairobi", TotalPopulation: 4550000, MalePopulation: 2275000, FemalePopulation: 2275000, HouseholdCount: 1620000, AverageHouseholdSize: 2.8, PopulationDensity: 6500, Year: 2023},
		{County: "Mombasa", TotalPopulation: 1310000, MalePopulation: 665000, FemalePopulation: 645000, HouseholdCount: 405000, AverageHouseholdSize: 3.2, PopulationDensity: 6050, Year: 2023},
	}, nil
}

// fetchEconomic pulls GDP and census concurrently.
func fetchEconomic(ctx context.Context, src EconomicSource) ([]civic.CountyGDP, []civic.CensusData, error) {
	var (
		gdp    []civic.CountyGDP
		census []civic.CensusData
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		gdp, err = src.GDP(gctx)
		if err != nil {
			return fmt.Errorf("fetch gdp: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		census, err = src.Census(gctx)
		if err != nil {
			return fmt.Errorf("fetch census: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return gdp, census, nil
}
