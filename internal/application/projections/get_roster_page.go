package projections

import (
	"slices"
	"strings"

	"academy/internal/application/listutil"
	"academy/internal/domain/member"
)

// RosterSortColumns are the columns a roster may be sorted by.
var RosterSortColumns = []string{"name", "category", "age", "due"}

// GetRosterPageQuery carries the loaded roster and the list parameters.
type GetRosterPageQuery struct {
	Members []member.Member
	Params  listutil.ListParams
}

// GetRosterPageResult carries one page of the filtered roster.
type GetRosterPageResult struct {
	Members []member.Member
	Page    listutil.PageInfo
	Params  listutil.ListParams
	// Matched is the number of members after search, before pagination.
	Matched int
}

// QueryGetRosterPage searches, sorts and paginates an already-loaded roster.
// PRE: Members is the active roster of one center
// POST: Members is a page of the search result; the input slice is not reordered
func QueryGetRosterPage(query GetRosterPageQuery) GetRosterPageResult {
	matched := make([]member.Member, 0, len(query.Members))
	for _, m := range query.Members {
		if m.MatchesSearch(query.Params.Search) {
			matched = append(matched, m)
		}
	}
	sortRoster(matched, query.Params.SortParams)

	info := listutil.NewPageInfo(query.Params.Page, query.Params.PerPage, len(matched))
	return GetRosterPageResult{
		Members: listutil.Paginate(matched, info),
		Page:    info,
		Params:  query.Params,
		Matched: len(matched),
	}
}

func sortRoster(members []member.Member, s listutil.SortParams) {
	if s.Sort == "" || s.Sort == "name" {
		member.SortByName(members)
		if s.Desc() {
			slices.Reverse(members)
		}
		return
	}
	slices.SortStableFunc(members, func(a, b member.Member) int {
		var c int
		switch s.Sort {
		case "category":
			c = strings.Compare(strings.ToLower(a.Category), strings.ToLower(b.Category))
		case "age":
			c = a.Age - b.Age
		case "due":
			c = compareFloat(a.AmountDue, b.AmountDue)
		}
		if s.Desc() {
			c = -c
		}
		if c == 0 {
			c = a.ID - b.ID
		}
		return c
	})
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
