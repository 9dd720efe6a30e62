package models

// Category is one of the fixed Nobel Prize fields
type Category string

const (
	CategoryPhysics    Category = "physics"
	CategoryChemistry  Category = "chemistry"
	CategoryMedicine   Category = "medicine"
	CategoryLiterature Category = "literature"
	CategoryPeace      Category = "peace"
	CategoryEconomics  Category = "economics"
)

// Categories lists every prize category in award order
var Categories = []Category{
	CategoryPhysics,
	CategoryChemistry,
	CategoryMedicine,
	CategoryLiterature,
	CategoryPeace,
	CategoryEconomics,
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Title returns the display form used on cards ("Physics")
func (c Category) Title() string {
	if c == "" {
		return ""
	}
	s := string(c)
	return string(s[0]-'a'+'A') + s[1:]
}

// Laureate is a single record of the static catalog
type Laureate struct {
	Name        string   `json:"name" yaml:"name"`
	Year        int      `json:"year" yaml:"year"`
	Category    Category `json:"category" yaml:"category"`
	Achievement string   `json:"achievement" yaml:"achievement"`
	Country     string   `json:"country" yaml:"country"` // may hold several, "/"-separated
	ContentID   string   `json:"content_id" yaml:"content_id"`
}

// CatalogStats feeds the homepage counters
type CatalogStats struct {
	Laureates   int              `json:"laureates"`
	Categories  int              `json:"categories"`
	Countries   int              `json:"countries"`
	FirstYear   int              `json:"first_year"`
	LastYear    int              `json:"last_year"`
	PerCategory map[Category]int `json:"per_category"`
}

// SearchFilters holds the raw constraints of a catalog search
type SearchFilters struct {
	Query    string `json:"query"`
	Category string `json:"category"`
	Year     string `json:"year"`
}
