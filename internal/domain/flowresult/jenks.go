package flowresult

import (
	"math"
	"sort"

	"github.com/temba/backend/internal/domain/shared"
)

// Errors returned when computing natural breaks
var (
	ErrNoValues       = shared.NewDomainError("NO_VALUES", "At least one value is required")
	ErrInvalidClasses = shared.NewDomainError("INVALID_CLASSES", "Number of classes must be at least 1")
)

// JenksBreaks computes the Jenks natural breaks of values for the given number
// of classes. The result has classes+1 entries: the minimum followed by the
// upper bound of each class, so the last entry is the maximum.
//
// When values has fewer distinct values than classes, the number of classes
// is reduced to the number of distinct values. values is not modified.
func JenksBreaks(values []float64, classes int) ([]float64, error) {
	if classes < 1 {
		return nil, ErrInvalidClasses
	}
	if len(values) == 0 {
		return nil, ErrNoValues
	}

	data := make([]float64, len(values))
	copy(data, values)
	sort.Float64s(data)

	if distinct := countDistinct(data); classes > distinct {
		classes = distinct
	}

	n := len(data)
	if classes == 1 {
		return []float64{data[0], data[n-1]}, nil
	}

	// lower[l][j] is the 1-based index of the first value in the last class of
	// the optimal partition of the first l values into j classes, variance[l][j]
	// the total within-class squared deviation of that partition.
	lower := make([][]int, n+1)
	variance := make([][]float64, n+1)
	for i := range lower {
		lower[i] = make([]int, classes+1)
		variance[i] = make([]float64, classes+1)
	}
	for j := 1; j <= classes; j++ {
		lower[1][j] = 1
		for l := 2; l <= n; l++ {
			variance[l][j] = math.Inf(1)
		}
	}

	for l := 2; l <= n; l++ {
		var sum, sumSquares, count, v float64
		for m := 1; m <= l; m++ {
			first := l - m + 1
			val := data[first-1]
			sum += val
			sumSquares += val * val
			count++
			v = sumSquares - (sum*sum)/count

			prev := first - 1
			if prev == 0 {
				continue
			}
			for j := 2; j <= classes; j++ {
				if candidate := v + variance[prev][j-1]; variance[l][j] >= candidate {
					lower[l][j] = first
					variance[l][j] = candidate
				}
			}
		}
		lower[l][1] = 1
		variance[l][1] = v
	}

	breaks := make([]float64, classes+1)
	breaks[0] = data[0]
	breaks[classes] = data[n-1]

	k := n
	for j := classes; j >= 2; j-- {
		idx := lower[k][j] - 2
		breaks[j-1] = data[idx]
		k = lower[k][j] - 1
	}
	return breaks, nil
}

func countDistinct(sorted []float64) int {
	distinct := 0
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			distinct++
		}
	}
	return distinct
}
