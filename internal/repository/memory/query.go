package memory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"peoples-bill-be/internal/repository/specification"

	"github.com/google/uuid"
)

// columns exposes the persisted columns of a record so specifications can be
// evaluated against in-memory rows the way SQL evaluates them.
type columns map[string]any

type ordering struct {
	field string
	desc  bool
}

type plan struct {
	filters []func(columns) bool
	orders  []ordering
	limit   int
	offset  int
}

func compile(specs []specification.Specification) (*plan, error) {
	p := &plan{limit: -1}
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			p.filters = append(p.filters, func(c columns) bool { return c["id"] == s.ID })
		case specification.ByIDs:
			set := make(map[uuid.UUID]struct{}, len(s.IDs))
			for _, id := range s.IDs {
				set[id] = struct{}{}
			}
			p.filters = append(p.filters, func(c columns) bool {
				_, ok := set[c["id"].(uuid.UUID)]
				return ok
			})
		case specification.ByStatus:
			p.filters = append(p.filters, func(c columns) bool { return c["status"] == s.Status })
		case specification.ByStatuses:
			p.filters = append(p.filters, func(c columns) bool {
				for _, st := range s.Statuses {
					if c["status"] == st {
						return true
					}
				}
				return false
			})
		case specification.ByRegion:
			p.filters = append(p.filters, func(c columns) bool { return c["region"] == s.Region })
		case specification.ByClusterID:
			p.filters = append(p.filters, func(c columns) bool { return c["cluster_id"] == s.ClusterID })
		case specification.Unclustered:
			p.filters = append(p.filters, func(c columns) bool { return c["cluster_id"] == uuid.Nil })
		case specification.EligibleForClustering:
			p.filters = append(p.filters, func(c columns) bool { return c["status"] != "rejected" })
		case specification.CreatedSince:
			p.filters = append(p.filters, func(c columns) bool {
				return !c["created_at"].(time.Time).Before(s.Since)
			})
		case specification.ContentSearch:
			q := strings.ToLower(s.Query)
			p.filters = append(p.filters, func(c columns) bool {
				return strings.Contains(strings.ToLower(c["normalized_content"].(string)), q)
			})
		case specification.ByUsername:
			p.filters = append(p.filters, func(c columns) bool { return c["username"] == s.Username })
		case specification.OrderBy:
			p.orders = append(p.orders, ordering{field: s.Field, desc: s.Desc})
		case specification.MembershipOrder:
			p.orders = append(p.orders, ordering{field: "created_at"}, ordering{field: "id"})
		case specification.BySectionOrder:
			p.orders = append(p.orders, ordering{field: "section_number"})
		case specification.Pagination:
			p.limit, p.offset = s.Limit, s.Offset
		case specification.ForUpdate:
			// transactions are already serialized by the store
		default:
			return nil, fmt.Errorf("memory: unsupported specification %T", spec)
		}
	}
	return p, nil
}

// run filters, orders and pages rows. Rows must already be in insertion order.
func run[T any](p *plan, rows []T, cols func(T) columns) []T {
	type item struct {
		row T
		c   columns
	}

	items := make([]item, 0, len(rows))
	for _, r := range rows {
		c := cols(r)
		keep := true
		for _, f := range p.filters {
			if !f(c) {
				keep = false
				break
			}
		}
		if keep {
			items = append(items, item{row: r, c: c})
		}
	}

	if len(p.orders) > 0 {
		sort.SliceStable(items, func(i, j int) bool {
			for _, o := range p.orders {
				cmp := compareValues(items[i].c[o.field], items[j].c[o.field])
				if cmp == 0 {
					continue
				}
				if o.desc {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}

	if p.offset > 0 {
		if p.offset >= len(items) {
			items = items[:0]
		} else {
			items = items[p.offset:]
		}
	}
	if p.limit >= 0 && p.limit < len(items) {
		items = items[:p.limit]
	}

	out := make([]T, len(items))
	for i, it := range items {
		out[i] = it.row
	}
	return out
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case int:
		return compareOrdered(av, b.(int))
	case int64:
		return compareOrdered(av, b.(int64))
	case float64:
		return compareOrdered(av, b.(float64))
	case string:
		return strings.Compare(av, b.(string))
	case time.Time:
		return av.Compare(b.(time.Time))
	case uuid.UUID:
		bv := b.(uuid.UUID)
		return strings.Compare(string(av[:]), string(bv[:]))
	}
	return 0
}

func compareOrdered[T int | int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
