package civic

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Position is the office a representative holds.
type Position string

const (
	PositionPresident       Position = "President"
	PositionDeputyPresident Position = "Deputy President"
	PositionGovernor        Position = "Governor"
	PositionSenator         Position = "Senator"
	PositionMP              Position = "MP"
	PositionMCA             Position = "MCA"
	PositionWomenRep        Position = "Women Rep"
)

// Positions lists every office in display order.
func Positions() []Position {
	return []Position{
		PositionPresident,
		PositionDeputyPresident,
		PositionGovernor,
		PositionSenator,
		PositionMP,
		PositionMCA,
		PositionWomenRep,
	}
}

// Valid reports whether p is a known office.
func (p Position) Valid() bool {
	for _, known := range Positions() {
		if p == known {
			return true
		}
	}
	return false
}

// ContactInfo holds the public contact channels of a representative
type ContactInfo struct {
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	OfficeAddress string `json:"officeAddress,omitempty"`
	Twitter       string `json:"twitter,omitempty"`
	Facebook      string `json:"facebook,omitempty"`
}

// Representative is an elected official
type Representative struct {
	ID                 string      `json:"id"`
	Slug               string      `json:"slug"`
	Name               string      `json:"name"`
	PhotoURL           string      `json:"photoUrl,omitempty"`
	Position           Position    `json:"position"`
	ConstituencyOrWard string      `json:"constituencyOrWard"`
	County             string      `json:"county"`
	ContactInfo        ContactInfo `json:"contactInfo"`
	Party              string      `json:"party"`
	VotesGarnered      *int64      `json:"votesGarnered,omitempty"`

	// Free text used as context for the AI flows
	ParticipationRecordSummary string `json:"participationRecordSummary,omitempty"`
	NewsSummaryForAI           string `json:"newsSummaryForAI,omitempty"`
}

// Trend is the direction of a performance metric.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// MetricValue is either a number or free text.
type MetricValue struct {
	num     float64
	text    string
	numeric bool
}

// NumberValue returns a numeric metric value.
func NumberValue(f float64) MetricValue { return MetricValue{num: f, numeric: true} }

// TextValue returns a textual metric value.
func TextValue(s string) MetricValue { return MetricValue{text: s} }

// ParseMetricValue keeps s as text unless it parses as a number.
func ParseMetricValue(s string) MetricValue {
	trimmed := strings.TrimSpace(s)
	if trimmed != "" {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return NumberValue(f)
		}
	}
	return TextValue(s)
}

// Number returns the numeric payload and whether the value is numeric.
func (m MetricValue) Number() (float64, bool) { return m.num, m.numeric }

// IsZero reports whether the value is the empty text.
func (m MetricValue) IsZero() bool { return !m.numeric && m.text == "" }

func (m MetricValue) String() string {
	if m.numeric {
		return strconv.FormatFloat(m.num, 'f', -1, 64)
	}
	return m.text
}

// MarshalJSON emits a JSON number or string.
func (m MetricValue) MarshalJSON() ([]byte, error) {
	if m.numeric {
		return json.Marshal(m.num)
	}
	return json.Marshal(m.text)
}

// UnmarshalJSON accepts a JSON number or string.
func (m *MetricValue) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*m = NumberValue(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*m = ParseMetricValue(s)
	return nil
}

// UnmarshalText parses fixture values.
func (m *MetricValue) UnmarshalText(text []byte) error {
	*m = ParseMetricValue(string(text))
	return nil
}

// PerformanceMetric is one measured indicator for a representative
type PerformanceMetric struct {
	ID               string      `json:"id"`
	RepresentativeID string      `json:"representativeId"`
	Name             string      `json:"name"`
	Value            MetricValue `json:"value"`
	Unit             string      `json:"unit,omitempty"`
	Description      string      `json:"description,omitempty"`
	Source           string      `json:"source,omitempty"`
	Trend            Trend       `json:"trend,omitempty"`
}

// HighlightCategory classifies a highlight.
type HighlightCategory string

const (
	CategoryAchievement        HighlightCategory = "Achievement"
	CategorySignificantVote    HighlightCategory = "Significant Vote"
	CategoryImportantStatement HighlightCategory = "Important Statement"
	CategoryProjectLaunch      HighlightCategory = "Project Launch"
)

// HighlightCategories lists every category in display order.
func HighlightCategories() []HighlightCategory {
	return []HighlightCategory{
		CategoryAchievement,
		CategorySignificantVote,
		CategoryImportantStatement,
		CategoryProjectLaunch,
	}
}

// Valid reports whether c is a known category.
func (c HighlightCategory) Valid() bool {
	for _, known := range HighlightCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// Highlight is a notable event in a representative's record
type Highlight struct {
	ID               string            `json:"id"`
	RepresentativeID string            `json:"representativeId"`
	Title            string            `json:"title"`
	Date             string            `json:"date"`
	Description      string            `json:"description"`
	Category         HighlightCategory `json:"category"`
	SourceURL        string            `json:"sourceUrl,omitempty"`
}

// Review is a citizen rating of a representative
type Review struct {
	ID               string    `json:"id"`
	RepresentativeID string    `json:"representativeId"`
	Rating           int       `json:"rating"`
	Comment          string    `json:"comment"`
	UserID           string    `json:"userId"`
	UserName         string    `json:"userName"`
	CreatedAt        time.Time `json:"createdAt"`
}

// SectorShare is one sector's share of a county's GDP.
type SectorShare struct {
	Sector     string  `json:"sector"`
	Percentage float64 `json:"percentage"`
}

// CountyGDP is the gross domestic product of a county for one year
type CountyGDP struct {
	ID              string        `json:"id"`
	County          string        `json:"county"`
	GDPMillionsKsh  float64       `json:"gdpMillionsKsh"`
	Year            int           `json:"year"`
	GDPPerCapitaKsh *float64      `json:"gdpPerCapitaKsh,omitempty"`
	SectorBreakdown []SectorShare `json:"sectorBreakdown,omitempty"`
}

// CensusData is the population census of a county for one year
type CensusData struct {
	ID                   string  `json:"id"`
	County               string  `json:"county"`
	TotalPopulation      int64   `json:"totalPopulation"`
	MalePopulation       int64   `json:"malePopulation"`
	FemalePopulation     int64   `json:"femalePopulation"`
	IntersexPopulation   *int64  `json:"intersexPopulation,omitempty"`
	HouseholdCount       int64   `json:"householdCount"`
	AverageHouseholdSize float64 `json:"averageHouseholdSize"`
	PopulationDensity    float64 `json:"populationDensity"`
	Year                 int     `json:"year"`
}

// ReportKind distinguishes how an integrity report was produced.
type ReportKind string

const (
	ReportFactCheck ReportKind = "fact_check"
	ReportSummary   ReportKind = "summary"
)

// IntegrityReport is an AI-generated integrity assessment
type IntegrityReport struct {
	ID               string     `json:"id"`
	RepresentativeID string     `json:"representativeId"`
	Kind             ReportKind `json:"kind"`
	Report           string     `json:"report"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// ScoreCard holds the externally assessed scores of a representative.
type ScoreCard struct {
	RepresentativeID string   `json:"representativeId"`
	PerformanceScore *float64 `json:"performanceScore,omitempty"`
	IntegrityScore   *float64 `json:"integrityScore,omitempty"`
}

// RankedRepresentative is a leaderboard entry
type RankedRepresentative struct {
	Representative
	Rank                 int      `json:"rank"`
	OverallScore         float64  `json:"overallScore"`
	PerformanceScore     *float64 `json:"performanceScore,omitempty"`
	IntegrityScore       *float64 `json:"integrityScore,omitempty"`
	PublicSentimentScore *float64 `json:"publicSentimentScore,omitempty"`
}

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

// Int returns a pointer to n.
func Int(n int64) *int64 { return &n }
