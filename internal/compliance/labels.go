// Package compliance implements the certificate compliance engine: pure,
// deterministic evaluation of extracted coverage rows against a requirement
// template, and derivation of the resulting lifecycle status. Nothing in
// this package performs I/O or reads the wall clock; time always arrives as
// an argument.
package compliance

import (
	"fmt"
	"strconv"
	"strings"

	"coi-service/internal/models"
)

var coverageLabels = map[models.CoverageType]string{
	models.CoverageGeneralLiability:      "General Liability",
	models.CoverageAutomobileLiability:   "Automobile Liability",
	models.CoverageWorkersCompensation:   "Workers' Compensation",
	models.CoverageUmbrellaExcess:        "Umbrella/Excess Liability",
	models.CoverageProfessionalLiability: "Professional Liability",
	models.CoverageProperty:              "Property Insurance",
	models.CoverageBusinessInterruption:  "Business Interruption",
}

var limitLabels = map[models.LimitType]string{
	models.LimitPerOccurrence:       "Per Occurrence",
	models.LimitAggregate:           "Aggregate",
	models.LimitCombinedSingleLimit: "Combined Single Limit",
	models.LimitStatutory:           "Statutory",
	models.LimitOther:               "Other",
}

// CoverageLabel returns the display label for a coverage type, used to
// render field reasons consistently across review screens and notifications.
func CoverageLabel(ct models.CoverageType) string {
	if label, ok := coverageLabels[ct]; ok {
		return label
	}
	return string(ct)
}

// LimitLabel returns the display label for a limit type.
func LimitLabel(lt models.LimitType) string {
	if label, ok := limitLabels[lt]; ok {
		return label
	}
	return string(lt)
}

// FormatAmount renders a dollar amount the way it appears in reason strings:
// "$1,000,000". Fractional cents are dropped; certificates state whole
// dollars.
func FormatAmount(amount float64) string {
	if amount < 0 {
		amount = 0
	}
	digits := strconv.FormatFloat(amount, 'f', 0, 64)

	var b strings.Builder
	b.WriteByte('$')
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return b.String()
}

// FormatRequirement renders the required side of a coverage field, e.g.
// "$1,000,000 Per Occurrence" or "Statutory".
func FormatRequirement(req models.CoverageRequirement) string {
	if req.LimitType == models.LimitStatutory {
		return "Statutory"
	}
	return fmt.Sprintf("%s %s", FormatAmount(req.MinAmount), LimitLabel(req.LimitType))
}
