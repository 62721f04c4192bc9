package flowresult

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Category is one class of a numeric result chart
type Category struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Categorize splits values into natural break classes. The first class
// includes its lower bound, later classes only include their upper bound.
// Classes that end up without any values are omitted, and each category's
// bounds are those of the values it actually holds.
func Categorize(values []float64, classes int) ([]Category, error) {
	breaks, err := JenksBreaks(values, classes)
	if err != nil {
		return nil, err
	}

	numClasses := len(breaks) - 1
	counts := make([]int, numClasses)
	mins := make([]float64, numClasses)
	maxs := make([]float64, numClasses)

	for _, v := range values {
		i := classIndex(breaks, v)
		if counts[i] == 0 || v < mins[i] {
			mins[i] = v
		}
		if counts[i] == 0 || v > maxs[i] {
			maxs[i] = v
		}
		counts[i]++
	}

	categories := make([]Category, 0, numClasses)
	for i := 0; i < numClasses; i++ {
		if counts[i] == 0 {
			continue
		}
		categories = append(categories, Category{
			Label: rangeLabel(mins[i], maxs[i]),
			Min:   mins[i],
			Max:   maxs[i],
			Count: counts[i],
		})
	}
	return categories, nil
}

func classIndex(breaks []float64, v float64) int {
	last := len(breaks) - 2
	for i := 0; i < last; i++ {
		if v <= breaks[i+1] {
			return i
		}
	}
	return last
}

func rangeLabel(min, max float64) string {
	if min == max {
		return formatNumber(min)
	}
	return formatNumber(min) + " - " + formatNumber(max)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseNumeric parses a result value as a decimal number. Hex, NaN and
// infinities aren't considered numeric.
func ParseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}
