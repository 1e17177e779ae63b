package utils

import (
	"fmt"
	"time"

	"github.com/go-gota/gota/dataframe"
)

// MonthLayout is the canonical format of the Month column after
// transformation. Day-of-month carries no meaning in these datasets.
const MonthLayout = "2006-01"

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// HasColumn reports whether the DataFrame carries the named column.
func HasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// MissingColumns returns the required column names absent from the DataFrame.
func MissingColumns(df dataframe.DataFrame, required []string) []string {
	var missing []string
	for _, name := range required {
		if !HasColumn(df, name) {
			missing = append(missing, name)
		}
	}
	return missing
}

func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse month %q: %w", s, err)
	}
	return t, nil
}

func FormatMonth(t time.Time) string {
	return t.Format(MonthLayout)
}
