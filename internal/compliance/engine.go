package compliance

import (
	"fmt"
	"strings"
	"time"

	"coi-service/internal/models"
)

// Engine evaluates extracted certificate data against a requirement
// template. It holds no state; a single instance is safe for concurrent use.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate compares extracted coverages and entities against a resolved
// requirement template and produces a field-by-field compliance result.
//
// Missing or malformed evidence is never an error: every unresolvable field
// degrades to a non-compliant verdict with a descriptive reason, so partial
// evidence still yields a usable result. Errors are reserved for caller
// bugs: a nil template, or a template scoped to a different entity type
// than the party being evaluated.
func (e *Engine) Evaluate(
	coverages []models.ExtractedCoverage,
	entities []models.ExtractedEntity,
	template *models.RequirementTemplate,
	propertyEntities []models.PropertyEntity,
	partyType models.EntityType,
	now time.Time,
) (*models.ComplianceResult, error) {
	if template == nil {
		return nil, fmt.Errorf("requirement template is nil")
	}
	if !partyType.IsValid() {
		return nil, fmt.Errorf("invalid entity type: %q", partyType)
	}
	if template.EntityType != partyType {
		return nil, fmt.Errorf("template %s is scoped to entity type %s, cannot evaluate a %s",
			template.ID, template.EntityType, partyType)
	}

	result := &models.ComplianceResult{
		EntityType:  template.EntityType,
		EvaluatedAt: now,
	}

	if !template.HasRequirements() {
		result.NoRequirements = true
		result.Issues = append(result.Issues, models.ComplianceIssue{
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("No requirements configured for this %s.", template.EntityType),
		})
		return result, nil
	}

	// Coverage-backed fields key "No data extracted" on the coverage rows
	// alone; the additional-insured check also counts extracted entities,
	// since a named entity is its evidence.
	noData := len(coverages) == 0
	noEvidence := noData && len(entities) == 0

	selected := make(map[models.CoverageType]*models.ExtractedCoverage)
	for _, req := range template.Coverages {
		if req.LimitType != models.LimitStatutory && req.MinAmount <= 0 {
			// A non-positive floor is "no requirement" for this line.
			continue
		}
		best := selectAuthoritativeRow(coverages, req.CoverageType)
		if best != nil {
			selected[req.CoverageType] = best
		}
		field := e.evaluateCoverage(req, best, noData, now)
		result.Fields = append(result.Fields, field)
		appendFieldIssue(result, field)
		if field.Compliant && field.Caveat {
			result.Issues = append(result.Issues, models.ComplianceIssue{
				Severity: models.SeverityWarning,
				Message:  fmt.Sprintf("Low-confidence extraction for %s; please verify", CoverageLabel(req.CoverageType)),
			})
		}
	}

	for _, row := range selected {
		if row.ExpirationDate == nil {
			continue
		}
		if result.EarliestExpiration == nil || row.ExpirationDate.Before(*result.EarliestExpiration) {
			result.EarliestExpiration = row.ExpirationDate
		}
	}

	if template.RequireAdditionalInsured {
		field := e.evaluateAdditionalInsured(coverages, entities, propertyEntities, noEvidence)
		result.Fields = append(result.Fields, field)
		appendFieldIssue(result, field)
	}
	if template.RequireWaiverOfSubrogation {
		field := evaluateFlag(models.FieldWaiverSubrogation, "Waiver of subrogation", coverages, noData,
			func(c *models.ExtractedCoverage) bool { return c.WaiverOfSubrogation })
		result.Fields = append(result.Fields, field)
		appendFieldIssue(result, field)
	}
	if template.RequirePrimaryNonContributory {
		field := evaluateFlag(models.FieldPrimaryNonContrib, "Primary and non-contributory endorsement", coverages, noData,
			func(c *models.ExtractedCoverage) bool { return c.PrimaryNonContributory })
		result.Fields = append(result.Fields, field)
		appendFieldIssue(result, field)
	}
	if template.MinCancellationNoticeDays > 0 {
		field := e.evaluateCancellationNotice(template.MinCancellationNoticeDays, coverages, noData)
		result.Fields = append(result.Fields, field)
		appendFieldIssue(result, field)
	}

	result.SortIssues()
	return result, nil
}

// selectAuthoritativeRow picks the single row that speaks for a coverage
// type when extraction produced duplicates or conflicts. Fixed tie-break,
// conservative toward the vendor: highest limit amount wins; equal amounts
// fall back to the higher confidence flag, then the most recently added row.
func selectAuthoritativeRow(coverages []models.ExtractedCoverage, ct models.CoverageType) *models.ExtractedCoverage {
	var best *models.ExtractedCoverage
	for i := range coverages {
		row := &coverages[i]
		if row.CoverageType != ct {
			continue
		}
		if best == nil || rowOutranks(row, best) {
			best = row
		}
	}
	return best
}

func rowOutranks(candidate, incumbent *models.ExtractedCoverage) bool {
	ca, ia := rowAmount(candidate), rowAmount(incumbent)
	if ca != ia {
		return ca > ia
	}
	if candidate.Confidence.Rank() != incumbent.Confidence.Rank() {
		return candidate.Confidence.Rank() > incumbent.Confidence.Rank()
	}
	// Later iteration order is the more recently added row; >= keeps it.
	return !candidate.CreatedAt.Before(incumbent.CreatedAt)
}

func rowAmount(row *models.ExtractedCoverage) float64 {
	if row.LimitAmount == nil {
		return -1
	}
	return *row.LimitAmount
}

func (e *Engine) evaluateCoverage(req models.CoverageRequirement, row *models.ExtractedCoverage, noData bool, now time.Time) models.ComplianceField {
	ct := req.CoverageType
	field := models.ComplianceField{
		Kind:         models.FieldCoverage,
		CoverageType: &ct,
		Required:     FormatRequirement(req),
	}

	if row == nil {
		reason := fmt.Sprintf("Missing %s", CoverageLabel(ct))
		if noData {
			reason = "No data extracted"
		}
		field.Reason = &reason
		return field
	}

	field.Extracted = describeExtracted(row)

	// An expired policy fails regardless of amount, and the expiry reason
	// takes display priority over any shortfall.
	if row.IsExpiredAt(now) {
		field.Expired = true
		reason := fmt.Sprintf("Policy expired on %s", row.ExpirationDate.Format("2006-01-02"))
		field.Reason = &reason
		return field
	}

	if req.LimitType == models.LimitStatutory {
		if row.HasAnyLimit() {
			field.Compliant = true
		} else {
			reason := fmt.Sprintf("No limit value extracted for %s", CoverageLabel(ct))
			field.Reason = &reason
		}
	} else {
		switch {
		case row.LimitAmount == nil:
			reason := fmt.Sprintf("No limit amount extracted for %s", CoverageLabel(ct))
			field.Reason = &reason
		case !limitTypesCompatible(row.LimitType, req.LimitType):
			reason := fmt.Sprintf("%s limit type mismatch: %s (requires %s)",
				CoverageLabel(ct), LimitLabel(row.LimitType), LimitLabel(req.LimitType))
			field.Reason = &reason
		case *row.LimitAmount < req.MinAmount:
			reason := fmt.Sprintf("%s below requirement: %s (requires %s)",
				CoverageLabel(ct), FormatAmount(*row.LimitAmount), FormatAmount(req.MinAmount))
			field.Reason = &reason
		default:
			field.Compliant = true
		}
	}

	if field.Compliant && row.Confidence == models.ConfidenceLow {
		field.Caveat = true
	}
	return field
}

// limitTypesCompatible reports whether an extracted limit denomination can
// satisfy a required one. Types must match exactly: aggregate is never
// assumed to cover per-occurrence, and an unknown ("other") extracted type
// is incompatible with any specific requirement.
func limitTypesCompatible(extracted, required models.LimitType) bool {
	if extracted == models.LimitOther {
		return false
	}
	return extracted == required
}

func (e *Engine) evaluateAdditionalInsured(
	coverages []models.ExtractedCoverage,
	entities []models.ExtractedEntity,
	propertyEntities []models.PropertyEntity,
	noEvidence bool,
) models.ComplianceField {
	field := models.ComplianceField{
		Kind:     models.FieldAdditionalInsured,
		Required: "Additional insured listed",
	}

	for _, ent := range entities {
		if ent.Role != models.EntityRoleAdditionalInsured {
			continue
		}
		for _, pe := range propertyEntities {
			for _, target := range pe.Names() {
				if entityNamesMatch(ent.Name, target) {
					field.Compliant = true
					field.Extracted = ent.Name
					return field
				}
			}
		}
	}

	// A bare flag on the coverage row is not evidence; the requirement is
	// only met by a matching named entity.
	flagPresent := false
	for i := range coverages {
		if coverages[i].AdditionalInsuredListed {
			flagPresent = true
			break
		}
	}

	var reason string
	switch {
	case noEvidence:
		reason = "No data extracted"
	case flagPresent:
		reason = "Additional insured flag present but no matching entity found"
		field.Extracted = "flag only"
	default:
		reason = "No additional insured listed"
	}
	field.Reason = &reason
	return field
}

func evaluateFlag(kind models.FieldKind, label string, coverages []models.ExtractedCoverage, noData bool, flag func(*models.ExtractedCoverage) bool) models.ComplianceField {
	field := models.ComplianceField{
		Kind:     kind,
		Required: label,
	}
	for i := range coverages {
		if flag(&coverages[i]) {
			field.Compliant = true
			field.Extracted = "present"
			return field
		}
	}
	reason := fmt.Sprintf("Missing %s", strings.ToLower(label[:1])+label[1:])
	if noData {
		reason = "No data extracted"
	}
	field.Reason = &reason
	return field
}

func (e *Engine) evaluateCancellationNotice(requiredDays int, coverages []models.ExtractedCoverage, noData bool) models.ComplianceField {
	field := models.ComplianceField{
		Kind:     models.FieldCancellationNotice,
		Required: fmt.Sprintf("%d days cancellation notice", requiredDays),
	}

	var stated *int
	for i := range coverages {
		d := coverages[i].CancellationNoticeDays
		if d == nil {
			continue
		}
		if stated == nil || *d > *stated {
			stated = d
		}
	}

	switch {
	case stated == nil:
		reason := fmt.Sprintf("No cancellation notice period stated (requires %d days)", requiredDays)
		if noData {
			reason = "No data extracted"
		}
		field.Reason = &reason
	case *stated < requiredDays:
		field.Extracted = fmt.Sprintf("%d days", *stated)
		reason := fmt.Sprintf("Cancellation notice below requirement: %d days (requires %d days)", *stated, requiredDays)
		field.Reason = &reason
	default:
		field.Extracted = fmt.Sprintf("%d days", *stated)
		field.Compliant = true
	}
	return field
}

// appendFieldIssue turns a failing field into a renderable issue. Expired
// policies are critical; an additional-insured flag without a matching
// entity is a warning (the flag suggests the endorsement exists); every
// other failure is an error.
func appendFieldIssue(result *models.ComplianceResult, field models.ComplianceField) {
	if field.Compliant || field.Reason == nil {
		return
	}
	severity := models.SeverityError
	if field.Expired {
		severity = models.SeverityCritical
	}
	if field.Kind == models.FieldAdditionalInsured && *field.Reason == "Additional insured flag present but no matching entity found" {
		severity = models.SeverityWarning
	}
	result.Issues = append(result.Issues, models.ComplianceIssue{
		Severity: severity,
		Message:  *field.Reason,
	})
}

func describeExtracted(row *models.ExtractedCoverage) string {
	if row.LimitAmount != nil {
		return fmt.Sprintf("%s %s", FormatAmount(*row.LimitAmount), LimitLabel(row.LimitType))
	}
	if row.LimitText != nil && *row.LimitText != "" {
		return *row.LimitText
	}
	return "no limit extracted"
}

// entityNamesMatch compares an extracted entity name against a required
// property entity name. Case-insensitive and substring-tolerant in both
// directions, since certificates abbreviate and append suffixes freely.
func entityNamesMatch(extracted, target string) bool {
	a := normalizeEntityName(extracted)
	b := normalizeEntityName(target)
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func normalizeEntityName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	replacer := strings.NewReplacer(".", "", ",", "", "'", "", "\"", "", "&", "and")
	s = replacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
