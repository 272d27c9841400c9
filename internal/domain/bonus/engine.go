package bonus

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var (
	baseShare = decimal.NewFromFloat(0.3)
	teamShare = decimal.NewFromFloat(0.2)
	hundred   = decimal.NewFromInt(100)
)

// cents is the scale money is rounded to when it is actually paid out.
const cents = int32(2)

// Member is one roster row as the engine sees it.
type Member struct {
	EmployeeID   string
	DepartmentID string
	Position     string
	Active       bool
}

// Scored is one evaluation result snapshot. Results without a weighted score
// or outside completed/approved are ignored.
type Scored struct {
	ResultID      string
	EmployeeID    string
	Status        string
	WeightedScore *float64
	RecordedAt    time.Time
}

type Input struct {
	Total   decimal.Decimal
	Ratios  Ratios
	Roster  []Member
	Results []Scored
}

type Share struct {
	EmployeeID         string
	EvaluationResultID *string
	DepartmentID       string
	Position           string
	IndividualScore    float64
	TeamScore          float64
	CompanyScore       float64
	IndividualWeight   float64
	TeamWeight         float64
	CompanyWeight      float64
	BaseBonus          decimal.Decimal
	PerformanceBonus   decimal.Decimal
	TeamBonus          decimal.Decimal
	FinalBonus         decimal.Decimal
	ContributionRatio  decimal.Decimal
}

type Outcome struct {
	Shares           []Share
	TotalEmployees   int
	TotalDistributed decimal.Decimal
	AverageBonus     decimal.Decimal
}

// Distribute splits a bonus pool across the active roster.
//
// Amounts are carried unrounded: a share that does not divide evenly keeps
// decimal division precision, and the reported total is the exact sum of the
// final bonuses. Rounding to cents happens only when a payment is made. Note
// the pool is not guaranteed to be fully used: the shares depend on scores,
// not on a remainder.
func Distribute(in Input) (Outcome, error) {
	if !in.Total.IsPositive() {
		return Outcome{}, errTotalAmount
	}
	if err := ValidateRatios(in.Ratios); err != nil {
		return Outcome{}, err
	}

	active := make([]Member, 0, len(in.Roster))
	teamSize := map[string]int{}
	for _, m := range in.Roster {
		if !m.Active {
			continue
		}
		active = append(active, m)
		teamSize[m.DepartmentID]++
	}
	if len(active) == 0 {
		return Outcome{}, ErrEmptyRoster
	}
	sort.Slice(active, func(i, j int) bool { return active[i].EmployeeID < active[j].EmployeeID })

	latest := latestScores(in.Results)
	company := companyScore(in.Results)
	teams := teamScores(active, latest)

	wi := in.Ratios.Personal / 100
	wt := in.Ratios.Team / 100
	wc := in.Ratios.Base / 100
	dwi := decimal.NewFromFloat(in.Ratios.Personal).Div(hundred)
	dwt := decimal.NewFromFloat(in.Ratios.Team).Div(hundred)
	dwc := decimal.NewFromFloat(in.Ratios.Base).Div(hundred)
	companyScore := decimal.NewFromFloat(company)

	n := decimal.NewFromInt(int64(len(active)))
	base := in.Total.Mul(baseShare).Div(n)

	out := Outcome{Shares: make([]Share, 0, len(active)), TotalEmployees: len(active), TotalDistributed: decimal.Zero}
	for _, m := range active {
		individual := defaultIndividualScore
		var resultID *string
		if r, ok := latest[m.EmployeeID]; ok {
			individual = *r.WeightedScore
			id := r.ResultID
			resultID = &id
		}
		team := teams[m.DepartmentID]

		teamScore := decimal.NewFromFloat(team)
		multiplier := decimal.NewFromFloat(individual).Mul(dwi).
			Add(teamScore.Mul(dwt)).
			Add(companyScore.Mul(dwc)).
			Div(hundred)
		performance := base.Mul(multiplier)
		teamBonus := in.Total.Mul(teamShare).
			Mul(teamScore).Div(hundred).
			Div(decimal.NewFromInt(int64(teamSize[m.DepartmentID])))
		final := base.Add(performance).Add(teamBonus)

		out.Shares = append(out.Shares, Share{
			EmployeeID:         m.EmployeeID,
			EvaluationResultID: resultID,
			DepartmentID:       m.DepartmentID,
			Position:           m.Position,
			IndividualScore:    individual,
			TeamScore:          team,
			CompanyScore:       company,
			IndividualWeight:   wi,
			TeamWeight:         wt,
			CompanyWeight:      wc,
			BaseBonus:          base,
			PerformanceBonus:   performance,
			TeamBonus:          teamBonus,
			FinalBonus:         final,
			ContributionRatio:  final.Div(in.Total).Mul(hundred),
		})
		out.TotalDistributed = out.TotalDistributed.Add(final)
	}
	out.AverageBonus = out.TotalDistributed.Div(n)
	return out, nil
}

func counted(r Scored) bool {
	return r.WeightedScore != nil && scoredResultStatuses[r.Status]
}

// latestScores keeps the most recent counted result per employee.
func latestScores(results []Scored) map[string]Scored {
	latest := map[string]Scored{}
	for _, r := range results {
		if !counted(r) {
			continue
		}
		if cur, ok := latest[r.EmployeeID]; !ok || r.RecordedAt.After(cur.RecordedAt) {
			latest[r.EmployeeID] = r
		}
	}
	return latest
}

func companyScore(results []Scored) float64 {
	var sum float64
	var count int
	for _, r := range results {
		if !counted(r) {
			continue
		}
		sum += *r.WeightedScore
		count++
	}
	if count == 0 {
		return defaultCompanyScore
	}
	return sum / float64(count)
}

// teamScores averages the scored members of each department. Members
// without a result do not pull the mean towards the default.
func teamScores(active []Member, latest map[string]Scored) map[string]float64 {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, m := range active {
		if r, ok := latest[m.EmployeeID]; ok {
			sums[m.DepartmentID] += *r.WeightedScore
			counts[m.DepartmentID]++
		}
	}
	scores := map[string]float64{}
	for _, m := range active {
		if counts[m.DepartmentID] == 0 {
			scores[m.DepartmentID] = defaultTeamScore
			continue
		}
		scores[m.DepartmentID] = sums[m.DepartmentID] / float64(counts[m.DepartmentID])
	}
	return scores
}
