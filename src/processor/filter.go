// filter.go
package processor

import (
	"sort"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"AirTrafficInsight/src/utils"
)

// ByDateRange keeps rows whose month falls in [start, end): inclusive
// start, exclusive day-after-end. Rows with an unparseable month are
// dropped here; the transformer has already rejected malformed input.
func ByDateRange(df dataframe.DataFrame, start, end time.Time) dataframe.DataFrame {
	return df.Filter(
		dataframe.F{
			Colname:    ColMonth,
			Comparator: series.CompFunc,
			Comparando: func(el series.Element) bool {
				t, err := utils.ParseMonth(el.String())
				if err != nil {
					return false
				}
				return !t.Before(start) && t.Before(end)
			},
		},
	)
}

// TouchingCity keeps rows where either endpoint of the route is the named
// city (case-insensitive).
func TouchingCity(df dataframe.DataFrame, city string) dataframe.DataFrame {
	matches := func(el series.Element) bool {
		return strings.EqualFold(strings.TrimSpace(el.String()), city)
	}

	return df.FilterAggregation(
		dataframe.Or,
		dataframe.F{Colname: ColCity1, Comparator: series.CompFunc, Comparando: matches},
		dataframe.F{Colname: ColCity2, Comparator: series.CompFunc, Comparando: matches},
	)
}

// TopN ranks rows by the measure descending and keeps the first n. The
// sort is stable: ties keep original row order, the only well-defined
// tie-break the source data allows. Applying the same ranking to its own
// output returns the output unchanged.
func TopN(df dataframe.DataFrame, measure string, n int) (dataframe.DataFrame, error) {
	values, err := NumericColumn(df, measure)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return values[idx[i]] > values[idx[j]]
	})

	if n > len(idx) {
		n = len(idx)
	}
	if n < 0 {
		n = 0
	}

	return df.Subset(idx[:n]), nil
}
