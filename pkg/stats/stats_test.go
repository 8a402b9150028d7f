package stats

import (
	"testing"
	"time"

	"peoples-bill-be/pkg/region"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeAllRegionsRepresented(t *testing.T) {
	byRegion := make(map[string]int64)
	for _, name := range region.Names() {
		byRegion[name] = 1
	}

	p := Compute(Snapshot{TotalSubmissions: 16, ByRegion: byRegion, Now: time.Now()})

	assert.Equal(t, int64(16), p.TotalSubmissions)
	assert.Equal(t, 16, p.RegionsRepresented)
	require.Len(t, p.SubmissionsByRegion, 16)
	for name, n := range p.SubmissionsByRegion {
		assert.Equal(t, int64(1), n, name)
	}
}

func TestComputeZeroFillsRegions(t *testing.T) {
	p := Compute(Snapshot{
		TotalSubmissions: 3,
		ByRegion:         map[string]int64{"Volta": 3},
		Now:              time.Now(),
	})

	assert.Equal(t, 1, p.RegionsRepresented)
	assert.Len(t, p.SubmissionsByRegion, 16)
	assert.Equal(t, int64(0), p.SubmissionsByRegion["Ashanti"])
	assert.Equal(t, int64(3), p.SubmissionsByRegion["Volta"])
	assert.Equal(t, 0.0, p.AverageApprovalRate)
}

func TestComputeApprovalAndThemes(t *testing.T) {
	now := time.Date(2026, 3, 31, 15, 0, 0, 0, time.UTC)
	themes := []Theme{
		{ClusterID: uuid.New(), Theme: "B", Submissions: 4},
		{ClusterID: uuid.New(), Theme: "A", Submissions: 4},
		{ClusterID: uuid.New(), Theme: "C", Submissions: 9},
		{ClusterID: uuid.New(), Theme: "D", Submissions: 1},
		{ClusterID: uuid.New(), Theme: "E", Submissions: 2},
		{ClusterID: uuid.New(), Theme: "F", Submissions: 3},
	}

	p := Compute(Snapshot{
		Approvals:  2,
		Rejections: 1,
		Themes:     themes,
		Daily:      map[string]int64{"2026-03-31": 5, "2026-03-02": 2, "2026-03-01": 99},
		Now:        now,
	})

	assert.Equal(t, 66.7, p.AverageApprovalRate)

	require.Len(t, p.TopThemes, 5)
	got := make([]string, len(p.TopThemes))
	for i, th := range p.TopThemes {
		got[i] = th.Theme
	}
	assert.Equal(t, []string{"C", "A", "B", "F", "E"}, got)

	require.Len(t, p.SubmissionsOverTime, TimeSeriesDays)
	assert.Equal(t, DayCount{Date: "2026-03-02", Count: 2}, p.SubmissionsOverTime[0])
	assert.Equal(t, DayCount{Date: "2026-03-31", Count: 5}, p.SubmissionsOverTime[TimeSeriesDays-1])
}

func TestClusterDemographics(t *testing.T) {
	age := func(v int) *int { return &v }
	occ := func(v string) *string { return &v }

	d := ClusterDemographics([]Member{
		{Region: "Ashanti", Age: age(22), Occupation: occ("Teacher")},
		{Region: "Ashanti", Age: age(35), Occupation: occ("Teacher")},
		{Region: "Volta", Age: age(60), Occupation: occ("Farmer")},
		{Region: "Volta", Age: age(15)},
		{Region: "Oti"},
	})

	assert.Equal(t, map[string]int{"18-25": 2, "26-35": 1, "36-45": 0, "46-55": 0, "56+": 1}, d.AgeGroups)
	assert.Equal(t, []Occupation{{Name: "Teacher", Count: 2}, {Name: "Farmer", Count: 1}}, d.TopOccupations)
	assert.Equal(t, map[string]int{"Ashanti": 2, "Volta": 2, "Oti": 1}, d.Regions)
}
