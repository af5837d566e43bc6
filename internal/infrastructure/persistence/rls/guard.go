package rls

import (
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrganizationColumn is the column every organization-owned table carries
const OrganizationColumn = "organization_id"

// SharedRows is implemented by models whose rows can be read outside their
// organization, such as the global checklist library. The returned condition
// is OR-ed with the organization filter on reads only.
type SharedRows interface {
	SharedCondition() clause.Expression
}

// ScopedBy is implemented by models whose organization is held in a column
// other than organization_id. The organizations table scopes on its own id.
type ScopedBy interface {
	OrganizationColumn() string
}

// RegisterGuard adds "organization_id IN (visible orgs)" to queries, updates
// and deletes on organization-owned tables when the session is restricted.
// It duplicates what the Postgres policies enforce so that scoping also
// holds on connections without RLS (tests, superuser roles).
func RegisterGuard(db *gorm.DB) {
	if db.Callback().Query().Get("rls:guard_query") != nil {
		return
	}
	_ = db.Callback().Query().Before("gorm:query").Register("rls:guard_query", guardRead)
	_ = db.Callback().Row().Before("gorm:row").Register("rls:guard_row", guardRead)
	_ = db.Callback().Update().Before("gorm:update").Register("rls:guard_update", guardWrite)
	_ = db.Callback().Delete().Before("gorm:delete").Register("rls:guard_delete", guardWrite)
}

func guardRead(db *gorm.DB)  { guard(db, true) }
func guardWrite(db *gorm.DB) { guard(db, false) }

func guard(db *gorm.DB, read bool) {
	if db.Statement.Context == nil || db.Statement.Unscoped {
		return
	}
	if db.Statement.Schema == nil {
		return
	}
	column := OrganizationColumn
	model := reflect.New(db.Statement.Schema.ModelType).Interface()
	if sb, ok := model.(ScopedBy); ok {
		column = sb.OrganizationColumn()
	}
	if db.Statement.Schema.LookUpField(column) == nil {
		return
	}
	// raw SQL is already built; callers filter explicitly
	if db.Statement.SQL.Len() > 0 {
		return
	}

	s, ok := SessionFrom(db.Statement.Context)
	if !ok {
		_ = db.AddError(ErrSessionRequired)
		return
	}
	if s.Unrestricted() {
		return
	}

	visible := s.Visible()
	values := make([]interface{}, len(visible))
	for i, id := range visible {
		values[i] = id
	}
	var expr clause.Expression = clause.IN{
		Column: clause.Column{Table: clause.CurrentTable, Name: column},
		Values: values,
	}
	if read {
		if shared, ok := model.(SharedRows); ok {
			expr = clause.Or(expr, shared.SharedCondition())
		}
	}
	db.Statement.AddClause(clause.Where{Exprs: []clause.Expression{expr}})
}
