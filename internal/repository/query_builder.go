package repository

import "github.com/doug-martin/goqu/v9"

// QueryBuilder collects optional filter conditions from request parameters.
type QueryBuilder interface {
	AddCondition(key string, value interface{})
	BuildConditions(aliases map[string]string) goqu.Ex
}
