package repository

import (
	"gorm.io/gorm"
)

// BaseRepository 所有仓储的公共能力。
// WithTx返回绑定到事务的副本，调用方按具体仓储接口断言回来。
type BaseRepository interface {
	GetDB() *gorm.DB
	WithTx(tx *gorm.DB) BaseRepository
}

// BaseRepo 供具体仓储内嵌的公共实现
type BaseRepo struct {
	db *gorm.DB
}

func (r *BaseRepo) GetDB() *gorm.DB {
	return r.db
}

// Pagination 分页参数，Total由查询回填
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// NewPagination 规范化分页参数，页大小夹在1到100之间
func NewPagination(page, pageSize int) *Pagination {
	if page <= 0 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return &Pagination{Page: page, PageSize: pageSize}
}

func (p *Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Paginate GORM分页scope
func Paginate(p *Pagination) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.PageSize)
	}
}
