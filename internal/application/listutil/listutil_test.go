package listutil

import (
	"net/url"
	"testing"
)

func TestParsePageParams(t *testing.T) {
	tests := []struct {
		name        string
		q           url.Values
		wantPage    int
		wantPerPage int
	}{
		{"defaults", url.Values{}, 1, DefaultPerPage},
		{"valid", url.Values{"page": {"3"}, "per_page": {"50"}}, 3, 50},
		{"per_page not offered", url.Values{"per_page": {"25"}}, 1, DefaultPerPage},
		{"negative page", url.Values{"page": {"-1"}}, 1, DefaultPerPage},
		{"garbage", url.Values{"page": {"x"}, "per_page": {"y"}}, 1, DefaultPerPage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePageParams(tt.q)
			if p.Page != tt.wantPage || p.PerPage != tt.wantPerPage {
				t.Errorf("got %+v, want page=%d per_page=%d", p, tt.wantPage, tt.wantPerPage)
			}
		})
	}
}

func TestParseSortParams(t *testing.T) {
	allowed := []string{"name", "category"}
	s := ParseSortParams(url.Values{"sort": {"name"}, "dir": {"desc"}}, allowed)
	if s.Sort != "name" || !s.Desc() {
		t.Errorf("got %+v", s)
	}
	s = ParseSortParams(url.Values{"sort": {"password"}, "dir": {"sideways"}}, allowed)
	if s.Sort != "" || s.Dir != "asc" {
		t.Errorf("disallowed values should reset, got %+v", s)
	}
}

func TestParseListParams_Search(t *testing.T) {
	p := ParseListParams(url.Values{"q": {"  u12 "}}, nil)
	if p.Search != "u12" {
		t.Errorf("Search = %q, want trimmed u12", p.Search)
	}
}

func TestListParams_Query(t *testing.T) {
	p := ListParams{PageParams: PageParams{Page: 1, PerPage: 50}, SortParams: SortParams{Sort: "name", Dir: "desc"}, Search: "ana"}
	if got := p.Query(3); got != "dir=desc&page=3&per_page=50&q=ana&sort=name" {
		t.Errorf("Query(3) = %q", got)
	}
	p = ListParams{PageParams: PageParams{PerPage: DefaultPerPage}}
	if got := p.Query(1); got != "" {
		t.Errorf("defaults should encode to empty, got %q", got)
	}
}

func TestNewPageInfo(t *testing.T) {
	tests := []struct {
		name                 string
		page, perPage, total int
		wantPage, wantPages  int
		wantStart, wantEnd   int
		wantPrev, wantNext   bool
	}{
		{"empty", 1, 20, 0, 1, 1, 0, 0, false, false},
		{"first page", 1, 10, 25, 1, 3, 1, 10, false, true},
		{"last partial page", 3, 10, 25, 3, 3, 21, 25, true, false},
		{"page past end clamps", 9, 10, 25, 3, 3, 21, 25, true, false},
		{"bad per page", 1, 0, 5, 1, 1, 1, 5, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPageInfo(tt.page, tt.perPage, tt.total)
			if p.Page != tt.wantPage || p.TotalPages != tt.wantPages {
				t.Errorf("page=%d pages=%d", p.Page, p.TotalPages)
			}
			if p.StartRow() != tt.wantStart || p.EndRow() != tt.wantEnd {
				t.Errorf("rows %d-%d, want %d-%d", p.StartRow(), p.EndRow(), tt.wantStart, tt.wantEnd)
			}
			if p.HasPrev() != tt.wantPrev || p.HasNext() != tt.wantNext {
				t.Errorf("prev=%v next=%v", p.HasPrev(), p.HasNext())
			}
		})
	}
}

func TestPageNumbers(t *testing.T) {
	tests := []struct {
		page, pages int
		want        []int
	}{
		{1, 1, []int{1}},
		{1, 10, []int{1, 2, 3, 4, 5}},
		{6, 10, []int{4, 5, 6, 7, 8}},
		{10, 10, []int{6, 7, 8, 9, 10}},
	}
	for _, tt := range tests {
		p := NewPageInfo(tt.page, 10, tt.pages*10)
		got := p.PageNumbers()
		if len(got) != len(tt.want) {
			t.Fatalf("PageNumbers(%d/%d) = %v, want %v", tt.page, tt.pages, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("PageNumbers(%d/%d) = %v, want %v", tt.page, tt.pages, got, tt.want)
				break
			}
		}
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	if got := Paginate(items, NewPageInfo(2, 3, len(items))); len(got) != 3 || got[0] != 4 {
		t.Errorf("page 2 = %v, want [4 5 6]", got)
	}
	if got := Paginate(items, NewPageInfo(3, 3, len(items))); len(got) != 1 || got[0] != 7 {
		t.Errorf("page 3 = %v, want [7]", got)
	}
	if got := Paginate([]int{}, NewPageInfo(1, 10, 0)); got == nil || len(got) != 0 {
		t.Errorf("empty = %v, want non-nil empty", got)
	}
}

func TestShowPagination(t *testing.T) {
	if NewPageInfo(1, 20, 20).ShowPagination() {
		t.Error("exactly one page needs no controls")
	}
	if !NewPageInfo(1, 20, 21).ShowPagination() {
		t.Error("21 rows at 20 per page need controls")
	}
}
