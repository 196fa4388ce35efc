// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

// Package backtest replays the recommender across a rolling window of
// historical periods and scores it against a combinatorial random
// baseline.
//
// For each eligible test period T the engine asks the recommender for
// predictions grounded at each team's period preceding T, then checks
// them against what the team actually improved in a three-period
// validation window starting at T. Training data is implicitly
// everything before the query period; the recommender enforces that
// per call, so the backtest never needs a second store.
package backtest

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/agilepath/internal/maturity"
	"github.com/tomtom215/agilepath/internal/recommend"
)

// ErrInsufficientData indicates the dataset has too few periods to hold
// out any test period with adequate training history.
var ErrInsufficientData = errors.New("insufficient data")

const (
	// minPeriods is the minimum global period count for a backtest: the
	// first eligible test period sits at index historyOffset, so at
	// least one period must follow it.
	minPeriods = 4

	// historyOffset is the global index of the first eligible test
	// period.
	historyOffset = 3

	// validationWindow is how many team-local periods, starting at the
	// test period, count when collecting actual improvements. Matches
	// the recommender's default lookahead.
	validationWindow = 3

	// cancelCheckEvery is the team-loop stride between context checks.
	cancelCheckEvery = 10
)

// PeriodResult is the breakdown for one test period.
type PeriodResult struct {
	// Period is the test period T.
	Period maturity.Period `json:"period"`

	// TrainPeriods is how many global periods precede T.
	TrainPeriods int `json:"train_periods"`

	// Predictions is the number of team predictions scored at T.
	Predictions int `json:"predictions"`

	// Correct is how many predictions intersected actual improvements.
	Correct int `json:"correct"`

	// Accuracy is Correct/Predictions, 0 when nothing was predicted.
	Accuracy float64 `json:"accuracy"`

	// TeamsTested is the number of distinct teams scored at T.
	TeamsTested int `json:"teams_tested"`
}

// Report is the aggregate outcome of one backtest run.
type Report struct {
	// PeriodResults is the per-test-period breakdown, in period order.
	PeriodResults []PeriodResult `json:"period_results"`

	// TotalPredictions counts every scored team/period case.
	TotalPredictions int `json:"total_predictions"`

	// CorrectPredictions counts cases where a recommendation hit.
	CorrectPredictions int `json:"correct_predictions"`

	// OverallAccuracy is the average of the per-period accuracies.
	OverallAccuracy float64 `json:"overall_accuracy"`

	// RandomBaseline is the probability a uniformly random pick of TopN
	// practices intersects an average-sized improvement set.
	RandomBaseline float64 `json:"random_baseline"`

	// ImprovementGap is OverallAccuracy - RandomBaseline.
	ImprovementGap float64 `json:"improvement_gap"`

	// ImprovementFactor is OverallAccuracy / RandomBaseline, 0 when the
	// baseline is 0.
	ImprovementFactor float64 `json:"improvement_factor"`

	// TeamsTested is the number of distinct teams scored overall.
	TeamsTested int `json:"teams_tested"`

	// AvgImprovementsPerCase is the mean size of the actual-improvement
	// sets across scored cases; feeds the baseline as k_avg.
	AvgImprovementsPerCase float64 `json:"avg_improvements_per_case"`

	// Cancelled marks a partial report returned after cooperative
	// cancellation. Aggregates cover only the work completed.
	Cancelled bool `json:"cancelled"`
}

// Engine runs rolling-window backtests over a recommendation engine.
type Engine struct {
	recommender *recommend.Engine
	logger      zerolog.Logger
}

// NewEngine creates a backtest engine over the recommender.
func NewEngine(recommender *recommend.Engine, logger zerolog.Logger) *Engine {
	return &Engine{
		recommender: recommender,
		logger:      logger.With().Str("component", "backtest").Logger(),
	}
}

// runState accumulates aggregates while the rolling window advances.
// Totals are updated as cases are scored, so a cancelled run snapshots
// a consistent partial view.
type runState struct {
	results             []PeriodResult
	totalPredictions    int
	correctPredictions  int
	improvementsPerCase []int
	teamsTested         map[string]struct{}
}

// Run replays the recommender over every eligible test period and
// returns the aggregate report.
//
// Cancellation is cooperative: the context is checked once per test
// period and every few teams inside a period. A cancelled run returns
// the partial report with Cancelled set, not an error.
func (e *Engine) Run(ctx context.Context, params recommend.Params) (*Report, error) {
	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	store := e.recommender.Store()
	periods := store.Periods()
	if len(periods) < minPeriods {
		return nil, fmt.Errorf("%w: need at least %d periods, have %d",
			ErrInsufficientData, minPeriods, len(periods))
	}

	teams := store.Teams()
	catalog := store.Catalog()
	state := &runState{teamsTested: make(map[string]struct{})}

	e.logger.Info().
		Int("periods", len(periods)).
		Int("teams", len(teams)).
		Int("test_periods", len(periods)-historyOffset).
		Msg("backtest started")

	for idx := historyOffset; idx < len(periods); idx++ {
		if ctx.Err() != nil {
			e.logger.Info().
				Str("period", periods[idx].String()).
				Msg("backtest cancelled between periods")
			return e.buildReport(state, catalog.Len(), params.TopN, true), nil
		}

		testPeriod := periods[idx]
		periodPredictions, periodCorrect := 0, 0
		periodTeams := 0

		for i, team := range teams {
			if (i+1)%cancelCheckEvery == 0 && ctx.Err() != nil {
				e.logger.Info().
					Str("period", testPeriod.String()).
					Int("teams_done", i).
					Msg("backtest cancelled mid-period")
				return e.buildReport(state, catalog.Len(), params.TopN, true), nil
			}

			prevPeriod, actual, ok := e.scoreCase(team, testPeriod, catalog)
			if !ok {
				continue
			}
			state.improvementsPerCase = append(state.improvementsPerCase, len(actual))

			recommendations, err := e.recommender.Recommend(ctx, recommend.Request{
				Team:   team,
				Period: prevPeriod,
				Params: params,
				// A cold-start query period is fine here: predicting a
				// team's second period from its first is still a valid
				// validation case.
				AllowFirstPeriods: true,
			})
			if err != nil {
				continue
			}

			periodPredictions++
			periodTeams++
			state.totalPredictions++
			state.teamsTested[team] = struct{}{}

			for _, rec := range recommendations {
				if _, hit := actual[rec.Practice]; hit {
					periodCorrect++
					state.correctPredictions++
					break
				}
			}
		}

		accuracy := 0.0
		if periodPredictions > 0 {
			accuracy = float64(periodCorrect) / float64(periodPredictions)
		}
		state.results = append(state.results, PeriodResult{
			Period:       testPeriod,
			TrainPeriods: idx,
			Predictions:  periodPredictions,
			Correct:      periodCorrect,
			Accuracy:     accuracy,
			TeamsTested:  periodTeams,
		})
	}

	report := e.buildReport(state, catalog.Len(), params.TopN, false)
	e.logger.Info().
		Int("predictions", report.TotalPredictions).
		Float64("accuracy", report.OverallAccuracy).
		Float64("baseline", report.RandomBaseline).
		Msg("backtest complete")
	return report, nil
}

// scoreCase determines whether (team, testPeriod) is a scorable case:
// the team must observe testPeriod, have a team-local period before it,
// and have improved at least one practice within the validation window
// relative to that preceding period. Returns the preceding period and
// the set of actually improved practices.
func (e *Engine) scoreCase(team string, testPeriod maturity.Period, catalog *maturity.Catalog) (maturity.Period, map[string]struct{}, bool) {
	store := e.recommender.Store()

	teamPeriods, err := store.PeriodsOf(team)
	if err != nil {
		return 0, nil, false
	}
	testIdx := indexOf(teamPeriods, testPeriod)
	if testIdx <= 0 {
		// Absent at this period, or nothing earlier to predict from.
		return 0, nil, false
	}

	prevPeriod := teamPeriods[testIdx-1]
	prevVector, err := store.VectorAt(team, prevPeriod)
	if err != nil {
		return 0, nil, false
	}

	// Improvements anywhere in the window count; adoption rarely lands
	// in the very next period.
	actual := make(map[string]struct{})
	for step := 0; step < validationWindow; step++ {
		if testIdx+step >= len(teamPeriods) {
			break
		}
		vector, err := store.VectorAt(team, teamPeriods[testIdx+step])
		if err != nil {
			continue
		}
		for j := range vector {
			if vector[j] > prevVector[j] {
				actual[catalog.Name(j)] = struct{}{}
			}
		}
	}

	// No improvements means no signal to validate against, not a model
	// failure; the case does not count toward totals.
	if len(actual) == 0 {
		return 0, nil, false
	}
	return prevPeriod, actual, true
}

func (e *Engine) buildReport(state *runState, practiceCount, topN int, cancelled bool) *Report {
	report := &Report{
		PeriodResults:      state.results,
		TotalPredictions:   state.totalPredictions,
		CorrectPredictions: state.correctPredictions,
		TeamsTested:        len(state.teamsTested),
		Cancelled:          cancelled,
	}

	if len(state.results) > 0 {
		var sum float64
		for _, r := range state.results {
			sum += r.Accuracy
		}
		report.OverallAccuracy = sum / float64(len(state.results))
	}

	if len(state.improvementsPerCase) > 0 {
		total := 0
		for _, n := range state.improvementsPerCase {
			total += n
		}
		kAvg := float64(total) / float64(len(state.improvementsPerCase))
		report.AvgImprovementsPerCase = kAvg
		report.RandomBaseline = randomBaseline(practiceCount, kAvg, topN)
		report.ImprovementGap = report.OverallAccuracy - report.RandomBaseline
	}

	if report.RandomBaseline > 0 {
		report.ImprovementFactor = report.OverallAccuracy / report.RandomBaseline
	}
	return report
}

// indexOf returns the position of period in an ascending slice, or -1.
func indexOf(periods []maturity.Period, period maturity.Period) int {
	lo, hi := 0, len(periods)
	for lo < hi {
		mid := (lo + hi) / 2
		if periods[mid] < period {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(periods) && periods[lo] == period {
		return lo
	}
	return -1
}
