package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// EXTRACTION NORMALIZATION BOUNDARY
// ============================================================================
//
// The AI extraction client returns loosely-typed JSON. Every field the
// compliance engine consumes is coerced exactly once here into the strict
// row types; the engine never sees raw AI output. Unrecognized values
// degrade to absent fields rather than failing the whole extraction.

var coverageTypeAliases = map[string]CoverageType{
	"general_liability":            CoverageGeneralLiability,
	"general liability":            CoverageGeneralLiability,
	"commercial general liability": CoverageGeneralLiability,
	"cgl":                          CoverageGeneralLiability,
	"automobile_liability":         CoverageAutomobileLiability,
	"automobile liability":         CoverageAutomobileLiability,
	"auto liability":               CoverageAutomobileLiability,
	"auto":                         CoverageAutomobileLiability,
	"workers_compensation":         CoverageWorkersCompensation,
	"workers compensation":         CoverageWorkersCompensation,
	"workers' compensation":        CoverageWorkersCompensation,
	"workers comp":                 CoverageWorkersCompensation,
	"umbrella_excess":              CoverageUmbrellaExcess,
	"umbrella":                     CoverageUmbrellaExcess,
	"excess liability":             CoverageUmbrellaExcess,
	"umbrella liability":           CoverageUmbrellaExcess,
	"professional_liability":       CoverageProfessionalLiability,
	"professional liability":       CoverageProfessionalLiability,
	"errors and omissions":         CoverageProfessionalLiability,
	"e&o":                          CoverageProfessionalLiability,
	"property_insurance":           CoverageProperty,
	"property":                     CoverageProperty,
	"commercial property":          CoverageProperty,
	"business_interruption":        CoverageBusinessInterruption,
	"business interruption":        CoverageBusinessInterruption,
}

var limitTypeAliases = map[string]LimitType{
	"per_occurrence":        LimitPerOccurrence,
	"per occurrence":        LimitPerOccurrence,
	"each occurrence":       LimitPerOccurrence,
	"occurrence":            LimitPerOccurrence,
	"aggregate":             LimitAggregate,
	"general aggregate":     LimitAggregate,
	"combined_single_limit": LimitCombinedSingleLimit,
	"combined single limit": LimitCombinedSingleLimit,
	"csl":                   LimitCombinedSingleLimit,
	"statutory":             LimitStatutory,
	"statutory limits":      LimitStatutory,
}

var entityRoleAliases = map[string]ExtractedEntityRole{
	"certificate_holder": EntityRoleCertificateHolder,
	"certificate holder": EntityRoleCertificateHolder,
	"holder":             EntityRoleCertificateHolder,
	"additional_insured": EntityRoleAdditionalInsured,
	"additional insured": EntityRoleAdditionalInsured,
	"insured":            EntityRoleInsured,
	"named insured":      EntityRoleInsured,
	"producer":           EntityRoleProducer,
	"agent":              EntityRoleProducer,
}

// ParseCoverageType maps an extracted type string onto the closed set.
// Returns false for anything outside it; such rows are dropped upstream so
// an unknown type can never satisfy a requirement.
func ParseCoverageType(raw string) (CoverageType, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	ct, ok := coverageTypeAliases[key]
	return ct, ok
}

// ParseLimitType maps an extracted limit denomination onto the closed set.
// Unknown denominations become LimitOther, which is incompatible with any
// specific numeric requirement (fails closed).
func ParseLimitType(raw string) LimitType {
	key := strings.ToLower(strings.TrimSpace(raw))
	if lt, ok := limitTypeAliases[key]; ok {
		return lt
	}
	return LimitOther
}

// ParseConfidence coerces an extraction-quality flag; anything unrecognized
// is treated as low so a human gets prompted to verify.
func ParseConfidence(raw string) ConfidenceLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high":
		return ConfidenceHigh
	case "medium", "med":
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ParseAmount parses a dollar amount as extracted from a certificate:
// "$1,000,000", "1000000", "1.5M", "500K". Returns nil for non-numeric
// values such as "Statutory" or empty text.
func ParseAmount(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	multiplier := 1.0
	upper := strings.ToUpper(s)
	switch {
	case strings.HasSuffix(upper, "M"):
		multiplier = 1_000_000
		s = s[:len(s)-1]
	case strings.HasSuffix(upper, "K"):
		multiplier = 1_000
		s = s[:len(s)-1]
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return nil
	}
	v *= multiplier
	return &v
}

// ParseDate accepts the date layouts seen on certificates. Returns nil when
// nothing matches; a missing date is absent data, not an error.
func ParseDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", "01/02/2006", "1/2/2006", "01/02/06", "January 2, 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// RawExtraction is the shape the AI client hands to the normalizer: already
// unmarshaled JSON, still loosely typed.
type RawExtraction struct {
	Coverages []map[string]any `json:"coverages"`
	Entities  []map[string]any `json:"entities"`
}

// NormalizeExtraction coerces one raw extraction into strict rows bound to a
// certificate and extraction run. Rows whose coverage type falls outside the
// closed set are dropped; every other unparseable field degrades to absent.
func NormalizeExtraction(certificateID, runID uuid.UUID, raw RawExtraction, now time.Time) ([]ExtractedCoverage, []ExtractedEntity) {
	coverages := make([]ExtractedCoverage, 0, len(raw.Coverages))
	for _, row := range raw.Coverages {
		ct, ok := ParseCoverageType(asString(row["coverage_type"]))
		if !ok {
			continue
		}

		cov := ExtractedCoverage{
			ID:            uuid.New(),
			CertificateID: certificateID,
			ExtractionRun: runID,
			CoverageType:  ct,
			LimitType:     ParseLimitType(asString(row["limit_type"])),
			Confidence:    ParseConfidence(asString(row["confidence"])),
			CreatedAt:     now,
		}

		if s := asString(row["carrier_name"]); s != "" {
			cov.CarrierName = &s
		}
		if s := asString(row["policy_number"]); s != "" {
			cov.PolicyNumber = &s
		}
		if s := asString(row["source_text"]); s != "" {
			cov.SourceText = &s
		}

		limitRaw := asString(row["limit_amount"])
		if limitRaw == "" {
			if f, ok := row["limit_amount"].(float64); ok && f >= 0 {
				cov.LimitAmount = &f
			}
		} else {
			cov.LimitAmount = ParseAmount(limitRaw)
			if cov.LimitAmount == nil {
				cov.LimitText = &limitRaw
			}
		}
		if strings.EqualFold(limitRaw, "statutory") {
			cov.LimitType = LimitStatutory
		}

		cov.EffectiveDate = ParseDate(asString(row["effective_date"]))
		cov.ExpirationDate = ParseDate(asString(row["expiration_date"]))

		cov.AdditionalInsuredListed = asBool(row["additional_insured_listed"])
		cov.WaiverOfSubrogation = asBool(row["waiver_of_subrogation"])
		cov.PrimaryNonContributory = asBool(row["primary_non_contributory"])
		if names, ok := row["additional_insured_names"].([]any); ok {
			for _, n := range names {
				if s := asString(n); s != "" {
					cov.AdditionalInsuredNames = append(cov.AdditionalInsuredNames, s)
				}
			}
		}
		if days := asInt(row["cancellation_notice_days"]); days > 0 {
			cov.CancellationNoticeDays = &days
		}

		coverages = append(coverages, cov)
	}

	entities := make([]ExtractedEntity, 0, len(raw.Entities))
	for _, row := range raw.Entities {
		name := strings.TrimSpace(asString(row["name"]))
		if name == "" {
			continue
		}
		role, ok := entityRoleAliases[strings.ToLower(strings.TrimSpace(asString(row["role"])))]
		if !ok {
			role = EntityRoleInsured
		}
		ent := ExtractedEntity{
			ID:            uuid.New(),
			CertificateID: certificateID,
			ExtractionRun: runID,
			Name:          name,
			Role:          role,
			Confidence:    ParseConfidence(asString(row["confidence"])),
			CreatedAt:     now,
		}
		if addr := strings.TrimSpace(asString(row["address"])); addr != "" {
			ent.Address = &addr
		}
		entities = append(entities, ent)
	}

	return coverages, entities
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "true") || strings.EqualFold(strings.TrimSpace(b), "yes")
	}
	return false
}

func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return 0
}
