package domain

import (
	"sort"
	"strings"
	"time"
)

// Launch date buckets understood by Filter.
const (
	DateFilterAll       = "All"
	DateFilterToday     = "Today"
	DateFilterYesterday = "Yesterday"
	DateFilterThisWeek  = "This Week"
)

// CategoryAll disables category filtering.
const CategoryAll = "All"

// ParseDateFilter maps a query value onto a known bucket. Matching is
// case-insensitive and an empty value means DateFilterAll.
func ParseDateFilter(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return DateFilterAll, true
	case "today":
		return DateFilterToday, true
	case "yesterday":
		return DateFilterYesterday, true
	case "this week", "this-week", "this_week", "week":
		return DateFilterThisWeek, true
	}
	return "", false
}

// Criteria selects a subset of a product list. Zero values match everything.
type Criteria struct {
	Search     string
	Category   string
	DateFilter string
}

// Matches reports whether p satisfies every criterion. Day buckets are
// computed in now's location.
func (c Criteria) Matches(p *Product, now time.Time) bool {
	if q := strings.TrimSpace(c.Search); q != "" && !matchesSearch(p, q) {
		return false
	}
	if c.Category != "" && c.Category != CategoryAll && !p.HasCategory(c.Category) {
		return false
	}
	return matchesDate(p.LaunchDate, c.DateFilter, now)
}

// Filter returns the products matching c, newest launch first.
func Filter(products []Product, c Criteria, now time.Time) []Product {
	out := make([]Product, 0, len(products))
	for i := range products {
		if c.Matches(&products[i], now) {
			out = append(out, products[i])
		}
	}
	SortByLaunchDesc(out)
	return out
}

// Approved returns only approved products, keeping input order.
func Approved(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Status == ProductStatusApproved {
			out = append(out, p)
		}
	}
	return out
}

// SortByLaunchDesc orders products by launch date, newest first. Undated
// products sort last and ties keep their input order.
func SortByLaunchDesc(products []Product) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i].LaunchDate, products[j].LaunchDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}

// Categories returns the sorted set of categories used by products.
func Categories(products []Product) []string {
	seen := make(map[string]struct{})
	for _, p := range products {
		for _, c := range p.Categories {
			seen[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Launches holds products launching today and those that launched before
// today. Undated and future launches are left out.
type Launches struct {
	Today  []Product `json:"today"`
	Recent []Product `json:"recent"`
}

// SplitLaunches groups products for the launches view.
func SplitLaunches(products []Product, now time.Time) Launches {
	l := Launches{Today: []Product{}, Recent: []Product{}}
	today := StartOfDay(now)
	for _, p := range products {
		if p.LaunchDate == nil {
			continue
		}
		day := StartOfDay(p.LaunchDate.In(now.Location()))
		switch {
		case day.Equal(today):
			l.Today = append(l.Today, p)
		case day.Before(today):
			l.Recent = append(l.Recent, p)
		}
	}
	SortByLaunchDesc(l.Today)
	SortByLaunchDesc(l.Recent)
	return l
}

// MatchesFullText is the wider search used by the search endpoint: name,
// tagline and description, case-insensitive.
func MatchesFullText(p *Product, q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	return matchesSearch(p, q) || strings.Contains(strings.ToLower(p.Description), q)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns midnight of the most recent Sunday on or before t.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

func matchesSearch(p *Product, q string) bool {
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Tagline), q)
}

func matchesDate(launch *time.Time, filter string, now time.Time) bool {
	if filter == "" || filter == DateFilterAll {
		return true
	}
	if launch == nil {
		return false
	}

	day := StartOfDay(launch.In(now.Location()))
	today := StartOfDay(now)
	switch filter {
	case DateFilterToday:
		return day.Equal(today)
	case DateFilterYesterday:
		return day.Equal(today.AddDate(0, 0, -1))
	case DateFilterThisWeek:
		return !day.Before(StartOfWeek(now))
	}
	return false
}
