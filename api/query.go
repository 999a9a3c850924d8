package api

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// parseDate 解析 YYYY-MM-DD 格式日期
func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.Local)
}

// orderingClause 解析排序参数并映射为 SQL 排序子句
// 参数格式为 "field" 或 "-field"（降序），多个字段用逗号分隔；
// 仅白名单内的字段生效，均不合法时返回默认排序
func orderingClause(param string, allowed map[string]string, fallback string) string {
	if param == "" {
		return fallback
	}

	var clauses []string
	for _, field := range strings.Split(param, ",") {
		field = strings.TrimSpace(field)
		desc := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")
		column, ok := allowed[field]
		if !ok {
			continue
		}
		if desc {
			clauses = append(clauses, column+" DESC")
		} else {
			clauses = append(clauses, column+" ASC")
		}
	}
	if len(clauses) == 0 {
		return fallback
	}
	return strings.Join(clauses, ", ")
}
