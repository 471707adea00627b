package model

import "time"

// Link is a short-link record. Metadata fields are owned by the creating
// user; counter fields are written only by the click recorder.
type Link struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Destination string    `json:"destinationUrl"`
	ShortURL    string    `json:"shortUrl"`
	Active      bool      `json:"isActive"`
	Protected   bool      `json:"protected"`
	Password    string    `json:"password,omitempty"` // set only when Protected
	Tags        []string  `json:"tags"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`

	// Populated from the click counters on read; never stored on the
	// metadata record itself.
	Clicks        int64                   `json:"clicks"`
	Stats         map[string]CountryStats `json:"stats,omitempty"`
	DeviceStats   map[string]int64        `json:"deviceStats,omitempty"`
	BrowserStats  map[string]int64        `json:"browserStats,omitempty"`
	OSStats       map[string]int64        `json:"osStats,omitempty"`
	LastClickedAt *time.Time              `json:"lastClickedAt,omitempty"`
}

// CountryStats is the per-country click breakdown with a per-city split.
type CountryStats struct {
	Count  int64            `json:"count"`
	Cities map[string]int64 `json:"cities"`
}

// ClickStats is the aggregated counter state for one slug.
type ClickStats struct {
	Clicks        int64
	Countries     map[string]CountryStats
	Devices       map[string]int64
	Browsers      map[string]int64
	OSes          map[string]int64
	LastClickedAt *time.Time
}

// HasTag reports whether the link carries the given tag.
func (l *Link) HasTag(tag string) bool {
	for _, t := range l.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasAllTags reports whether the link carries every tag in the list.
func (l *Link) HasAllTags(tags []string) bool {
	for _, t := range tags {
		if !l.HasTag(t) {
			return false
		}
	}
	return true
}
