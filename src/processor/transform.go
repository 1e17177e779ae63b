// transform.go
package processor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"AirTrafficInsight/src/utils"
)

// Column names of the published city-pair datasets.
const (
	ColMonth           = "Month"
	ColAustralianPort  = "AustralianPort"
	ColForeignPort     = "ForeignPort"
	ColCountry         = "Country"
	ColPassengersIn    = "Passengers_In"
	ColPassengersOut   = "Passengers_Out"
	ColPassengersTotal = "Passengers_Total"

	ColCity1          = "City1"
	ColCity2          = "City2"
	ColPassengerTrips = "Passenger_Trips"
	ColAircraftTrips  = "Aircraft_Trips"
	ColSeats          = "Seats"
	ColRPKs           = "RPKs"
	ColASKs           = "ASKs"
	ColGCKM           = "GC_KM"
	ColJourney        = "Journey"
)

// JourneySeparator joins the endpoints of a directional route. The label
// preserves order: "SYDNEY — MELBOURNE" and "MELBOURNE — SYDNEY" are
// distinct journeys.
const JourneySeparator = " — "

var InternationalColumns = []string{
	ColMonth, ColAustralianPort, ColForeignPort, ColCountry,
	ColPassengersIn, ColPassengersOut, ColPassengersTotal,
}

var DomesticColumns = []string{
	ColMonth, ColCity1, ColCity2, ColPassengerTrips, ColAircraftTrips,
	ColSeats, ColRPKs, ColASKs, ColGCKM,
}

// serialEpoch is the spreadsheet day-offset epoch. Callers elsewhere must
// use this exact epoch or every date shifts.
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

var numberPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// SerialToTime converts a day offset since 1899-12-30 to a calendar time.
func SerialToTime(offset float64) time.Time {
	days := int(offset)
	fraction := offset - float64(days)
	return serialEpoch.AddDate(0, 0, days).
		Add(time.Duration(86400*fraction*1e9) * time.Nanosecond)
}

// monthLayouts are calendar spellings seen in older vintages of the files.
var monthLayouts = []string{utils.MonthLayout, "2006-01-02", "Jan-06", "Jan-2006"}

// serialToMonth maps a Month element to its "2006-01" bucket. Serial day
// offsets and calendar spellings both collapse to the month; anything else
// passes through untouched and is rejected by validateMonths after the
// cast.
func serialToMonth(v series.Element) series.Element {
	s := strings.TrimSpace(v.String())

	if numberPattern.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			v.Set(utils.FormatMonth(SerialToTime(f)))
			return v
		}
	}

	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			v.Set(utils.FormatMonth(t))
			return v
		}
	}
	return v
}

// validateMonths rejects rows whose Month value did not collapse to a
// month bucket. A garbage month must never become an aggregation key.
func validateMonths(df dataframe.DataFrame) error {
	for i, m := range df.Col(ColMonth).Records() {
		if _, err := utils.ParseMonth(m); err != nil {
			return fmt.Errorf("malformed row %d: Month %q is not a date", i+1, m)
		}
	}
	return nil
}

// JourneyLabel derives the directional route label. It is a pure function
// of its endpoints and is always recomputed, never stored independently.
func JourneyLabel(city1, city2 string) string {
	return strings.TrimSpace(city1) + JourneySeparator + strings.TrimSpace(city2)
}

// TransformInternational types the raw international table: Month becomes
// a "2006-01" bucket and the Passengers_Total = In + Out invariant is
// checked per row. Category columns stay data-driven: any value appearing
// in a port or country column becomes a category.
func TransformInternational(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if missing := utils.MissingColumns(df, InternationalColumns); len(missing) > 0 {
		return dataframe.DataFrame{}, fmt.Errorf("international dataset missing columns: %v", missing)
	}

	out := df.Mutate(
		series.New(df.Col(ColMonth).Map(serialToMonth), series.String, ColMonth),
	)
	if err := validateMonths(out); err != nil {
		return dataframe.DataFrame{}, err
	}

	// Passengers_Total must equal Passengers_In + Passengers_Out.
	in, err := NumericColumn(out, ColPassengersIn)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	outbound, err := NumericColumn(out, ColPassengersOut)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	total, err := NumericColumn(out, ColPassengersTotal)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	for i := range total {
		if in[i] < 0 || outbound[i] < 0 {
			return dataframe.DataFrame{}, fmt.Errorf(
				"malformed row %d: negative passenger count", i+1)
		}
		if total[i] != in[i]+outbound[i] {
			return dataframe.DataFrame{}, fmt.Errorf(
				"malformed row %d: Passengers_Total %v != %v + %v",
				i+1, total[i], in[i], outbound[i])
		}
	}

	return out, nil
}

// TransformDomestic types the raw domestic table and derives the Journey
// label from the two city columns.
func TransformDomestic(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if missing := utils.MissingColumns(df, DomesticColumns); len(missing) > 0 {
		return dataframe.DataFrame{}, fmt.Errorf("domestic dataset missing columns: %v", missing)
	}

	out := df.Mutate(
		series.New(df.Col(ColMonth).Map(serialToMonth), series.String, ColMonth),
	)
	if err := validateMonths(out); err != nil {
		return dataframe.DataFrame{}, err
	}

	city1 := out.Col(ColCity1).Records()
	city2 := out.Col(ColCity2).Records()
	journeys := make([]string, len(city1))
	for i := range city1 {
		journeys[i] = JourneyLabel(city1[i], city2[i])
	}

	out = out.Mutate(series.New(journeys, series.String, ColJourney))
	return out, nil
}
