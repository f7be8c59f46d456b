package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Devcode940/kenyawatch/internal/civic"
	"github.com/Devcode940/kenyawatch/internal/datasets"
)

func TestNormalizeDataset(t *testing.T) {
	cases := map[string]string{
		"representatives": datasets.Representatives,
		"Reps":            datasets.Representatives,
		"county_gdp":      datasets.GDP,
		" GDP ":           datasets.GDP,
		"census-data":     datasets.Census,
		"leaderboard":     "",
		"":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeDataset(in), in)
	}
}

func TestDatasetFromFilename(t *testing.T) {
	assert.Equal(t, datasets.GDP, DatasetFromFilename("/in/gdp-2023.json"))
	assert.Equal(t, datasets.GDP, DatasetFromFilename("County-GDP_2023.jsonl"))
	assert.Equal(t, datasets.Census, DatasetFromFilename("census_2019.jsonl"))
	assert.Equal(t, datasets.Representatives, DatasetFromFilename("representatives.json"))
	assert.Equal(t, "", DatasetFromFilename("ingest-20240101T000000Z-x.json"))
}

func TestParseRecordGDP(t *testing.T) {
	p := NewParser()
	rec, err := p.ParseRecord([]byte(`{"dataset":"gdp","county":"Tana River","year":2023,"gdpMillionsKsh":1200.5}`), "")
	require.NoError(t, err)

	assert.Equal(t, datasets.GDP, rec.Dataset)
	require.NotNil(t, rec.GDP)
	assert.Equal(t, "tana-river-2023", rec.GDP.ID)
	assert.Equal(t, "tana-river-2023", rec.SubjectID())
	assert.Nil(t, rec.GDP.GDPPerCapitaKsh)
}

func TestParseRecordFallbackDataset(t *testing.T) {
	p := NewParser()
	rec, err := p.ParseRecord([]byte(`{"id":"c1","county":"Kisumu","year":2019,"totalPopulation":1155574}`), "census")
	require.NoError(t, err)
	require.NotNil(t, rec.Census)
	assert.Equal(t, "c1", rec.Census.ID)
	assert.Equal(t, int64(1155574), rec.Census.TotalPopulation)
}

func TestParseRecordRepresentative(t *testing.T) {
	p := NewParser()
	rec, err := p.ParseRecord([]byte(`{"name":"Amina Hassan","position":"Senator","county":"Garissa"}`), datasets.Representatives)
	require.NoError(t, err)
	require.NotNil(t, rec.Representative)
	assert.Equal(t, "amina-hassan-senator", rec.Representative.Slug)
	assert.Equal(t, civic.Position("Senator"), rec.Representative.Position)
}

func TestParseRecordErrors(t *testing.T) {
	p := NewParser()

	_, err := p.ParseRecord([]byte(`{"county":"Kisumu","year":2019}`), "")
	assert.ErrorIs(t, err, ErrUnknownDataset)

	_, err = p.ParseRecord([]byte(`{"dataset":"gdp","year":2019}`), "")
	assert.EqualError(t, err, "county is required")

	_, err = p.ParseRecord([]byte(`{"dataset":"census","county":"Kisumu"}`), "")
	assert.EqualError(t, err, "year is required")

	_, err = p.ParseRecord([]byte(`{"dataset":"representatives","name":"  "}`), "")
	assert.EqualError(t, err, "representative name is required")

	_, err = p.ParseRecord([]byte(`not json`), "gdp")
	assert.ErrorContains(t, err, "failed to parse JSON")
}
