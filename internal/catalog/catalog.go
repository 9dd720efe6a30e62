// Package catalog filters the static laureate dataset shown on the winners page.
package catalog

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/terra-clan/wings-of-wisdom/internal/models"
)

// Catalog is an immutable, ordered set of laureate records
type Catalog struct {
	records []models.Laureate
	folded  []foldedText
	byName  map[string]int
}

type foldedText struct {
	name        string
	achievement string
	country     string
}

// New builds a catalog over records. The slice is copied; record order is kept.
func New(records []models.Laureate) *Catalog {
	c := &Catalog{
		records: append([]models.Laureate(nil), records...),
		folded:  make([]foldedText, len(records)),
		byName:  make(map[string]int, len(records)),
	}
	for i, r := range c.records {
		c.folded[i] = foldedText{
			name:        fold(r.Name),
			achievement: fold(r.Achievement),
			country:     fold(r.Country),
		}
		c.byName[r.Name] = i
	}
	return c
}

// Search returns the records matching every non-empty constraint, in dataset order.
//
// query is a case-insensitive substring of name, achievement or country.
// category must equal the record category exactly. year must equal the
// decimal form of the record year. The result is never nil.
func (c *Catalog) Search(query, category, year string) []models.Laureate {
	q := fold(query)
	result := make([]models.Laureate, 0, len(c.records))

	for i, r := range c.records {
		if q != "" && !c.folded[i].contains(q) {
			continue
		}
		if category != "" && string(r.Category) != category {
			continue
		}
		if year != "" && strconv.Itoa(r.Year) != year {
			continue
		}
		result = append(result, r)
	}
	return result
}

// SearchFilters is Search over a filter struct
func (c *Catalog) SearchFilters(f models.SearchFilters) []models.Laureate {
	return c.Search(f.Query, f.Category, f.Year)
}

// Get returns the record with the given name
func (c *Catalog) Get(name string) (models.Laureate, bool) {
	i, ok := c.byName[name]
	if !ok {
		return models.Laureate{}, false
	}
	return c.records[i], true
}

// All returns a copy of the full dataset
func (c *Catalog) All() []models.Laureate {
	return append([]models.Laureate(nil), c.records...)
}

// Len returns the number of records
func (c *Catalog) Len() int {
	return len(c.records)
}

// Years returns the distinct award years, ascending
func (c *Catalog) Years() []int {
	seen := make(map[int]bool)
	var years []int
	for _, r := range c.records {
		if !seen[r.Year] {
			seen[r.Year] = true
			years = append(years, r.Year)
		}
	}
	sort.Ints(years)
	return years
}

// Categories returns the categories present in the dataset, in award order
func (c *Catalog) Categories() []models.Category {
	present := make(map[models.Category]bool)
	for _, r := range c.records {
		present[r.Category] = true
	}

	var result []models.Category
	for _, cat := range models.Categories {
		if present[cat] {
			result = append(result, cat)
		}
	}
	return result
}

// Stats summarizes the dataset for the homepage counters
func (c *Catalog) Stats() models.CatalogStats {
	stats := models.CatalogStats{
		Laureates:   len(c.records),
		PerCategory: make(map[models.Category]int),
	}

	countries := make(map[string]bool)
	for i, r := range c.records {
		stats.PerCategory[r.Category]++
		for _, country := range strings.Split(r.Country, "/") {
			if country = strings.TrimSpace(country); country != "" {
				countries[country] = true
			}
		}
		if i == 0 || r.Year < stats.FirstYear {
			stats.FirstYear = r.Year
		}
		if r.Year > stats.LastYear {
			stats.LastYear = r.Year
		}
	}

	stats.Categories = len(stats.PerCategory)
	stats.Countries = len(countries)
	return stats
}

func (f foldedText) contains(q string) bool {
	return strings.Contains(f.name, q) ||
		strings.Contains(f.achievement, q) ||
		strings.Contains(f.country, q)
}

// fold maps s to its Unicode case-folded form.
// cases.Caser is not safe for concurrent use, so each call builds its own.
func fold(s string) string {
	if s == "" {
		return ""
	}
	return cases.Fold().String(s)
}
