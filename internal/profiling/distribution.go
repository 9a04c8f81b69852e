package profiling

import (
	"math"

	"github.com/montanaflynn/stats"

	"godea/domain/dea"
)

// ScoreSummary describes the distribution of solved efficiency scores
type ScoreSummary struct {
	DMUs         int `json:"dmus"`
	Solved       int `json:"solved"`
	Efficient    int `json:"efficient"`
	Inefficient  int `json:"inefficient"`
	Unsolved     int `json:"unsolved"`
	OutOfRange   int `json:"out_of_range"`
	Distribution struct {
		Mean     float64 `json:"mean"`
		StdDev   float64 `json:"std_dev"`
		Min      float64 `json:"min"`
		Max      float64 `json:"max"`
		Median   float64 `json:"median"`
		Q25      float64 `json:"q25"`
		Q75      float64 `json:"q75"`
		Skewness float64 `json:"skewness"`
	} `json:"distribution"`
	// MeanInputSlack is the average slack per input over inefficient DMUs
	MeanInputSlack []float64 `json:"mean_input_slack,omitempty"`
}

// ScoreAnalyzer summarises a batch of outcomes
type ScoreAnalyzer struct {
	opts dea.FormatOptions
}

// NewScoreAnalyzer creates a new score analyzer using the given classification thresholds
func NewScoreAnalyzer(opts dea.FormatOptions) *ScoreAnalyzer {
	return &ScoreAnalyzer{opts: opts}
}

// Summarize computes counts for every outcome and distribution statistics over the
// solved ones. The distribution is left zero when nothing solved.
func (sa *ScoreAnalyzer) Summarize(outcomes []dea.Outcome) (ScoreSummary, error) {
	summary := ScoreSummary{DMUs: len(outcomes)}

	var scores []float64
	var slackSums []float64
	for _, out := range outcomes {
		switch out.Status() {
		case dea.StatusOutOfRange:
			summary.OutOfRange++
			continue
		case dea.StatusUnsolved:
			summary.Unsolved++
			continue
		}

		summary.Solved++
		scores = append(scores, out.Result.Efficiency)
		if sa.opts.IsEfficient(out) {
			summary.Efficient++
			continue
		}
		summary.Inefficient++
		if slackSums == nil {
			slackSums = make([]float64, len(out.Result.InputSlack))
		}
		for i, v := range out.Result.InputSlack {
			if i < len(slackSums) {
				slackSums[i] += v
			}
		}
	}

	if summary.Inefficient > 0 {
		summary.MeanInputSlack = make([]float64, len(slackSums))
		for i, s := range slackSums {
			summary.MeanInputSlack[i] = s / float64(summary.Inefficient)
		}
	}

	if len(scores) == 0 {
		return summary, nil
	}
	if err := fillDistribution(&summary, scores); err != nil {
		return summary, err
	}
	return summary, nil
}

func fillDistribution(summary *ScoreSummary, data []float64) error {
	mean, err := stats.Mean(data)
	if err != nil {
		return err
	}

	stdDev, err := stats.StandardDeviation(data)
	if err != nil {
		return err
	}

	min, err := stats.Min(data)
	if err != nil {
		return err
	}

	max, err := stats.Max(data)
	if err != nil {
		return err
	}

	median, err := stats.Median(data)
	if err != nil {
		return err
	}

	q25, err := stats.PercentileNearestRank(data, 25)
	if err != nil {
		return err
	}

	q75, err := stats.PercentileNearestRank(data, 75)
	if err != nil {
		return err
	}

	summary.Distribution.Mean = mean
	summary.Distribution.StdDev = stdDev
	summary.Distribution.Min = min
	summary.Distribution.Max = max
	summary.Distribution.Median = median
	summary.Distribution.Q25 = q25
	summary.Distribution.Q75 = q75
	summary.Distribution.Skewness = calculateSkewness(data, mean, stdDev)
	return nil
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumCubedDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}

	skewness := sumCubedDeviations / n
	// Bias correction for sample skewness
	skewness *= math.Sqrt(n*(n-1)) / (n - 2)
	return skewness
}
