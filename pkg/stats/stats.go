package stats

import (
	"math"
	"sort"
	"time"

	"peoples-bill-be/pkg/region"

	"github.com/google/uuid"
)

const (
	TimeSeriesDays = 30
	topThemes      = 5
	topOccupations = 5
)

type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type Theme struct {
	ClusterID   uuid.UUID `json:"cluster_id"`
	Theme       string    `json:"theme"`
	Submissions int64     `json:"submissions"`
	Cohesion    float64   `json:"confidence"`
}

// Snapshot is the raw material for platform statistics, already aggregated
// by the store.
type Snapshot struct {
	TotalSubmissions    int64
	ApprovedSubmissions int64
	ByRegion            map[string]int64
	ActiveClusters      int64
	ActiveClauses       int64
	Approvals           int64
	Rejections          int64
	// Daily holds per-day submission counts keyed by YYYY-MM-DD.
	Daily  map[string]int64
	Themes []Theme
	Now    time.Time
}

// Participation is expressed as submissions per 100,000 residents.
type Participation struct {
	Overall  float64            `json:"overall"`
	ByRegion map[string]float64 `json:"by_region"`
}

type Platform struct {
	TotalSubmissions    int64            `json:"total_submissions"`
	ApprovedSubmissions int64            `json:"approved_submissions"`
	RegionsRepresented  int              `json:"regions_represented"`
	ClustersFormed      int64            `json:"clusters_formed"`
	ClausesDrafted      int64            `json:"clauses_drafted"`
	AverageApprovalRate float64          `json:"average_approval_rate"`
	SubmissionsByRegion map[string]int64 `json:"submissions_by_region"`
	SubmissionsOverTime []DayCount       `json:"submissions_over_time"`
	TopThemes           []Theme          `json:"top_themes"`
	Participation       Participation    `json:"participation_rate"`
	LastUpdated         time.Time        `json:"last_updated"`
}

// Compute derives the public statistics. Every region appears in
// SubmissionsByRegion, with zero when it has no submissions.
func Compute(s Snapshot) Platform {
	p := Platform{
		TotalSubmissions:    s.TotalSubmissions,
		ApprovedSubmissions: s.ApprovedSubmissions,
		ClustersFormed:      s.ActiveClusters,
		ClausesDrafted:      s.ActiveClauses,
		SubmissionsByRegion: make(map[string]int64, len(region.All())),
		LastUpdated:         s.Now,
		Participation:       Participation{ByRegion: make(map[string]float64)},
	}

	var population int64
	for _, r := range region.All() {
		n := s.ByRegion[r.Name]
		p.SubmissionsByRegion[r.Name] = n
		if n > 0 {
			p.RegionsRepresented++
		}
		population += int64(r.Population)
		p.Participation.ByRegion[r.Name] = per100k(n, int64(r.Population))
	}
	p.Participation.Overall = per100k(s.TotalSubmissions, population)

	if total := s.Approvals + s.Rejections; total > 0 {
		p.AverageApprovalRate = round1(float64(s.Approvals) / float64(total) * 100)
	}

	p.SubmissionsOverTime = timeSeries(s.Daily, s.Now)

	themes := append([]Theme(nil), s.Themes...)
	sort.SliceStable(themes, func(i, j int) bool {
		if themes[i].Submissions != themes[j].Submissions {
			return themes[i].Submissions > themes[j].Submissions
		}
		return themes[i].Theme < themes[j].Theme
	})
	if len(themes) > topThemes {
		themes = themes[:topThemes]
	}
	p.TopThemes = themes

	return p
}

func timeSeries(daily map[string]int64, now time.Time) []DayCount {
	out := make([]DayCount, 0, TimeSeriesDays)
	start := now.UTC().AddDate(0, 0, -(TimeSeriesDays - 1))
	for i := 0; i < TimeSeriesDays; i++ {
		day := start.AddDate(0, 0, i).Format(time.DateOnly)
		out = append(out, DayCount{Date: day, Count: daily[day]})
	}
	return out
}

func per100k(n, population int64) float64 {
	if population <= 0 {
		return 0
	}
	return math.Round(float64(n)/float64(population)*100000*1000) / 1000
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Member is the demographic slice of one cluster member.
type Member struct {
	Region     string
	Age        *int
	Occupation *string
}

type Occupation struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Demographics struct {
	AgeGroups      map[string]int `json:"age_groups"`
	TopOccupations []Occupation   `json:"top_occupations"`
	Regions        map[string]int `json:"regions"`
}

var ageGroups = []struct {
	label string
	max   int
}{
	{"18-25", 25},
	{"26-35", 35},
	{"36-45", 45},
	{"46-55", 55},
	{"56+", math.MaxInt},
}

// ClusterDemographics summarizes who contributed to a cluster. Members under 18
// are counted in the youngest group.
func ClusterDemographics(members []Member) Demographics {
	d := Demographics{
		AgeGroups: make(map[string]int, len(ageGroups)),
		Regions:   make(map[string]int),
	}
	for _, g := range ageGroups {
		d.AgeGroups[g.label] = 0
	}

	occupations := make(map[string]int)
	for _, m := range members {
		if m.Age != nil {
			for _, g := range ageGroups {
				if *m.Age <= g.max {
					d.AgeGroups[g.label]++
					break
				}
			}
		}
		if m.Occupation != nil && *m.Occupation != "" {
			occupations[*m.Occupation]++
		}
		if m.Region != "" {
			d.Regions[m.Region]++
		}
	}

	d.TopOccupations = make([]Occupation, 0, len(occupations))
	for name, n := range occupations {
		d.TopOccupations = append(d.TopOccupations, Occupation{Name: name, Count: n})
	}
	sort.Slice(d.TopOccupations, func(i, j int) bool {
		a, b := d.TopOccupations[i], d.TopOccupations[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	if len(d.TopOccupations) > topOccupations {
		d.TopOccupations = d.TopOccupations[:topOccupations]
	}
	return d
}
