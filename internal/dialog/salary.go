package dialog

import (
	"log/slog"
	"strconv"
	"strings"
)

// Canned salary-range labels offered at the salary step.
const (
	SalaryAny   = "Not important"
	SalaryUnset = "Not specified"
)

// SalaryLabels is the fixed menu shown at the salary step.
var SalaryLabels = []string{
	SalaryAny,
	"0-30,000",
	"30,000-60,000",
	"60,000-100,000",
	"More than 100,000",
}

// ParseSalaryRange turns a salary-range label into optional bounds.
// Recognised shapes, after stripping thousands separators:
//
//	"" / "Not important" / "Not specified"  → (nil, nil)
//	"More than <N>"                         → (N, nil)
//	"<A>-<B>"                               → (A, B)
//
// Anything else yields (nil, nil) and a warning; the search then simply
// runs without a salary filter.
func ParseSalaryRange(label string) (from, to *int) {
	norm := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(label, ",", "")))

	switch norm {
	case "", "not important", "not specified":
		return nil, nil
	}

	if rest, ok := strings.CutPrefix(norm, "more than "); ok {
		v, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			slog.Warn("unparseable salary range", "label", label)
			return nil, nil
		}
		return &v, nil
	}

	if lo, hi, ok := strings.Cut(norm, "-"); ok {
		a, errA := strconv.Atoi(strings.TrimSpace(lo))
		b, errB := strconv.Atoi(strings.TrimSpace(hi))
		if errA != nil || errB != nil {
			slog.Warn("unparseable salary range", "label", label)
			return nil, nil
		}
		return &a, &b
	}

	slog.Warn("unparseable salary range", "label", label)
	return nil, nil
}
