package persistence

import (
	"strings"

	"github.com/compia/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder normalizes to ASC or DESC; anything else is DESC.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField if whitelisted, else defaultField.
// Column names are interpolated into ORDER BY, so nothing else may pass.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// applyPage orders by a whitelisted column and applies offset/limit.
// id is appended as a tiebreaker so pages are stable.
func applyPage(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	return query.
		Order(field + " " + ValidateSortOrder(filter.OrderDir)).
		Order("id").
		Offset(filter.Offset()).
		Limit(filter.Limit())
}

// likePattern builds a case-insensitive LIKE pattern; callers compare
// against LOWER(column). % and _ in the search are matched literally.
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(search))) + "%"
}

// whereSearch matches search case-insensitively against any of columns.
// A blank search leaves query unchanged.
func whereSearch(query *gorm.DB, search string, columns ...string) *gorm.DB {
	if strings.TrimSpace(search) == "" || len(columns) == 0 {
		return query
	}
	pattern := likePattern(search)
	conds := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, c := range columns {
		conds[i] = "LOWER(" + c + `) LIKE ? ESCAPE '\'`
		args[i] = pattern
	}
	return query.Where("("+strings.Join(conds, " OR ")+")", args...)
}

var OrganizationSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"type":       true,
	"status":     true,
	"plan":       true,
}

var UserSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"email":         true,
	"name":          true,
	"role":          true,
	"status":        true,
	"last_login_at": true,
}

var TemplateSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"category":   true,
}

var InspectionSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"title":            true,
	"company_name":     true,
	"status":           true,
	"priority":         true,
	"scheduled_at":     true,
	"completed_at":     true,
	"compliance_score": true,
}

var ActionItemSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"title":      true,
	"priority":   true,
	"status":     true,
	"when_due":   true,
}

var AtaSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"status":       true,
	"generated_at": true,
}

var LeadSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"company_name":    true,
	"stage":           true,
	"estimated_value": true,
}

var AuditLogSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"occurred_at": true,
	"action":      true,
	"entity_type": true,
}
