package retrieval

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"wavelytics/domain/series"

	"github.com/tidwall/gjson"
)

// monthlyDt is the nominal sampling interval of monthly series, in years.
const monthlyDt = 1.0 / 12

type observation struct {
	at    time.Time
	value float64
}

// ParseFREDObservations converts a FRED observations response into a clean
// series. Placeholder values (".") mark gaps and are dropped rather than
// interpolated.
func ParseFREDObservations(body []byte, dt float64) (*series.TimeSeries, error) {
	rows := gjson.GetBytes(body, "observations")
	if !rows.Exists() {
		return nil, fmt.Errorf("response has no observations field")
	}

	var points []observation
	var badDate error
	rows.ForEach(func(_, row gjson.Result) bool {
		raw := row.Get("value").String()
		if raw == "." || raw == "" {
			return true
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return true
		}
		at, err := parseTimePeriod(row.Get("date").String())
		if err != nil {
			badDate = err
			return false
		}
		points = append(points, observation{at: at, value: value})
		return true
	})
	if badDate != nil {
		return nil, badDate
	}
	return buildSeries(points, dt)
}

// ParseSDMXObservations converts an SDMX-JSON response (INSEE BDM, Banque de
// France Webstat) into a clean series. Observation values are indexed into
// the TIME_PERIOD dimension of the structure block.
func ParseSDMXObservations(body []byte, dt float64) (*series.TimeSeries, error) {
	periods := gjson.GetBytes(body, `structure.dimensions.observation.#(id=="TIME_PERIOD").values.#.id`)
	if !periods.Exists() {
		return nil, fmt.Errorf("response has no TIME_PERIOD dimension")
	}
	periodIDs := periods.Array()

	seriesMap := gjson.GetBytes(body, "dataSets.0.series")
	if !seriesMap.Exists() {
		return nil, fmt.Errorf("response has no data set series")
	}

	var points []observation
	var parseErr error
	seriesMap.ForEach(func(_, entry gjson.Result) bool {
		entry.Get("observations").ForEach(func(key, obs gjson.Result) bool {
			idx, err := strconv.Atoi(key.String())
			if err != nil || idx < 0 || idx >= len(periodIDs) {
				return true
			}
			value := obs.Get("0")
			if value.Type == gjson.Null || !value.Exists() {
				return true
			}
			at, err := parseTimePeriod(periodIDs[idx].String())
			if err != nil {
				parseErr = err
				return false
			}
			points = append(points, observation{at: at, value: value.Float()})
			return true
		})
		// Only the first series of the response is used.
		return false
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return buildSeries(points, dt)
}

// buildSeries sorts observations ascending, drops duplicate timestamps
// (first occurrence wins), and wraps them as a TimeSeries.
func buildSeries(points []observation, dt float64) (*series.TimeSeries, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("no usable observations")
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].at.Before(points[j].at)
	})

	timestamps := make([]time.Time, 0, len(points))
	values := make([]float64, 0, len(points))
	for _, p := range points {
		if len(timestamps) > 0 && !p.at.After(timestamps[len(timestamps)-1]) {
			continue
		}
		timestamps = append(timestamps, p.at)
		values = append(values, p.value)
	}
	return series.New(timestamps, values, dt)
}

// parseTimePeriod accepts the date formats the providers emit: full dates,
// year-month, and bare years.
func parseTimePeriod(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if at, err := time.Parse(layout, raw); err == nil {
			return at, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time period %q", raw)
}
