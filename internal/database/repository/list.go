package repository

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListParams describes one page of an admin list screen
type ListParams struct {
	Query          string // Case-insensitive substring over the searchable columns
	Sort           string // Column name; must be in the resource's sortable set
	Desc           bool
	Page           int // 1-based
	Limit          int
	IncludeDeleted bool // Users only
}

// Normalize clamps paging values into their valid range
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	p.Query = strings.TrimSpace(p.Query)
	return p
}

// Offset returns the row offset of the page
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// applySearch adds an OR of LOWER(column) LIKE %q% over columns. Wildcards
// in q match literally.
func applySearch(query *gorm.DB, q string, columns []string) *gorm.DB {
	if q == "" || len(columns) == 0 {
		return query
	}

	pattern := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
	conds := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		conds = append(conds, "LOWER("+col+`) LIKE ? ESCAPE '\'`)
		args = append(args, pattern)
	}

	return query.Where(strings.Join(conds, " OR "), args...)
}

// applySort orders by an allow-listed column, falling back to the default,
// and always breaks ties on the primary key so pages are stable.
func applySort(query *gorm.DB, sort string, desc bool, sortable map[string]bool, defaultSort string, defaultDesc bool) *gorm.DB {
	if !sortable[sort] {
		sort, desc = defaultSort, defaultDesc
	}

	query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: sort}, Desc: desc})
	if sort != "id" {
		query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc})
	}
	return query
}
