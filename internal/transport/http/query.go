package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"studentpulse/internal/dataprocessing"
	apierrors "studentpulse/internal/errors"
	api "studentpulse/pkg/contracts/api/v1"
)

// bindFilter reads the repeatable grade and attendance parameters.
// Comma separated values are accepted as well: grade=A,B.
func bindFilter(values url.Values) (api.FilterParams, error) {
	params := api.FilterParams{
		Grades:     splitValues(values["grade"]),
		Attendance: splitValues(values["attendance"]),
	}

	if raw := values.Get("strict"); raw != "" {
		strict, err := strconv.ParseBool(raw)
		if err != nil {
			return params, apierrors.ErrValidation("strict", fmt.Sprintf("strict must be a boolean, got %q", raw))
		}
		params.Strict = strict
	}
	return params, nil
}

func bindChart(values url.Values) (api.ChartParams, error) {
	filter, err := bindFilter(values)
	if err != nil {
		return api.ChartParams{}, err
	}

	params := api.ChartParams{
		FilterParams: filter,
		Subject:      strings.TrimSpace(values.Get("subject")),
		Bins:         dataprocessing.DefaultHistogramBins,
		Top:          dataprocessing.DefaultTopStudents,
	}
	if params.Bins, err = intParam(values, "bins", params.Bins); err != nil {
		return params, err
	}
	if params.Top, err = intParam(values, "top", params.Top); err != nil {
		return params, err
	}
	return params, nil
}

func intParam(values url.Values, name string, def int) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierrors.ErrValidation(name, fmt.Sprintf("%s must be an integer, got %q", name, raw))
	}
	return n, nil
}

// splitValues flattens repeated and comma separated values. No values
// yields nil, which selects everything.
func splitValues(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
