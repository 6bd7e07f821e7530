// Package pagination parses page/sort query parameters and wraps listed
// records with page metadata.
package pagination

import (
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// DefaultSort lists the newest transactions first.
	DefaultSort = "-date"
)

// sortColumns whitelists the columns a client may sort by. The id tiebreak
// keeps page boundaries stable between requests.
var sortColumns = map[string]string{
	"date":   "date",
	"amount": "amount",
}

// PageRequest holds pagination parameters parsed from query strings. Sort is
// a column name, prefixed with "-" for descending order.
type PageRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Sort     string `form:"sort" binding:"omitempty,oneof=date -date amount -amount"`
}

// Defaults fills in page, page_size and sort when they are missing or out of
// range.
func (p *PageRequest) Defaults() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	if _, ok := sortColumns[strings.TrimPrefix(p.Sort, "-")]; !ok {
		p.Sort = DefaultSort
	}
}

// Offset returns the SQL OFFSET for the current page.
func (p *PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// OrderClause returns the ORDER BY for Sort.
func (p *PageRequest) OrderClause() string {
	direction := "ASC"
	key := p.Sort
	if strings.HasPrefix(key, "-") {
		direction = "DESC"
		key = key[1:]
	}
	column, ok := sortColumns[key]
	if !ok {
		column, direction = "date", "DESC"
	}
	return column + " " + direction + ", id " + direction
}

// PageResponse wraps a paginated list of items with metadata.
type PageResponse[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPageResponse creates a PageResponse from the given data and total count.
func NewPageResponse[T any](data []T, page, pageSize int, totalItems int64) PageResponse[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((totalItems + int64(pageSize) - 1) / int64(pageSize))
	}
	return PageResponse[T]{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}

// Paginate returns a GORM scope that orders by req.Sort and applies OFFSET
// and LIMIT. Call Defaults first.
func Paginate(req PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(req.OrderClause()).Offset(req.Offset()).Limit(req.PageSize)
	}
}
