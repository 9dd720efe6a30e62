package models

// ContentKind is the closed set of modal families shown on the site
type ContentKind string

const (
	KindLaureate  ContentKind = "laureate"
	KindHistory   ContentKind = "history"
	KindEvent     ContentKind = "event"
	KindAbout     ContentKind = "about"
	KindTeam      ContentKind = "team"
	KindTimeline  ContentKind = "timeline"
	KindCategory  ContentKind = "category"
	KindNobelInfo ContentKind = "nobel_info"
)

// ContentKinds lists every kind the loader knows how to read
var ContentKinds = []ContentKind{
	KindLaureate,
	KindHistory,
	KindEvent,
	KindAbout,
	KindTeam,
	KindTimeline,
	KindCategory,
	KindNobelInfo,
}

// Valid reports whether k belongs to the closed set
func (k ContentKind) Valid() bool {
	for _, known := range ContentKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ContentEntry is the body of one modal
type ContentEntry struct {
	Kind     ContentKind `json:"kind" yaml:"-"`
	ID       string      `json:"id" yaml:"id"`
	Title    string      `json:"title" yaml:"title"`
	Subtitle string      `json:"subtitle,omitempty" yaml:"subtitle"`
	Sections []Section   `json:"sections" yaml:"sections"`
	Note     string      `json:"note,omitempty" yaml:"note"`
}

// Section is a headed block inside a modal
type Section struct {
	Heading    string   `json:"heading" yaml:"heading"`
	Paragraphs []string `json:"paragraphs,omitempty" yaml:"paragraphs"`
	Items      []string `json:"items,omitempty" yaml:"items"`
}

// Quote is shown by the floating quote widget
type Quote struct {
	Text   string `json:"text" yaml:"text"`
	Author string `json:"author" yaml:"author"`
}
