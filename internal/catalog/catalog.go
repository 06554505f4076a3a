package catalog

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Activity kinds. Vouchers may scope their discount to one of these.
const (
	KindClass = "class"
	KindGroup = "group"
	KindEvent = "event"
)

// Activity is one entry of the read-only content catalog. SizeMax nil means
// unlimited capacity; Cost 0 means the activity is free.
type Activity struct {
	ID                string  `mapstructure:"-"`
	Name              string  `mapstructure:"name"`
	Kind              string  `mapstructure:"kind"`
	SizeMax           *int    `mapstructure:"sizeMax"`
	Cost              float64 `mapstructure:"cost"`
	SuggestedDonation float64 `mapstructure:"suggestedDonation"`
	Question          string  `mapstructure:"question"`
	Start             string  `mapstructure:"start"`
}

// Catalog is an immutable activity lookup keyed by lower-cased id. It is
// loaded once at startup; requests only read from it.
type Catalog struct {
	activities map[string]Activity
}

// New builds a catalog from explicit activities. Ids are normalized to lower
// case, so lookups are case-insensitive.
func New(activities ...Activity) *Catalog {
	m := make(map[string]Activity, len(activities))
	for _, a := range activities {
		a.ID = strings.ToLower(a.ID)
		m[a.ID] = a
	}
	return &Catalog{activities: m}
}

// Load reads the activity definitions from a YAML file shaped as
//
//	activities:
//	  fall-dance:
//	    name: Fall Dance
//	    kind: class
//	    sizeMax: 12
//	    cost: 50
func Load(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read activities file: %w", err)
	}

	var raw map[string]Activity
	if err := v.UnmarshalKey("activities", &raw); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}

	m := make(map[string]Activity, len(raw))
	for id, a := range raw {
		key := strings.ToLower(id)
		a.ID = key
		m[key] = a
	}
	return &Catalog{activities: m}, nil
}

// Get looks up an activity by id, case-insensitively.
func (c *Catalog) Get(id string) (Activity, bool) {
	a, ok := c.activities[strings.ToLower(id)]
	return a, ok
}

// Name returns the display name for an activity id, falling back to the raw
// id when the activity is not in the catalog.
func (c *Catalog) Name(id string) string {
	if a, ok := c.Get(id); ok && a.Name != "" {
		return a.Name
	}
	return id
}

// Kind returns the activity kind, or "" for unknown activities.
func (c *Catalog) Kind(id string) string {
	a, _ := c.Get(id)
	return a.Kind
}

// All returns every activity in the catalog. Iteration order is unspecified.
func (c *Catalog) All() []Activity {
	out := make([]Activity, 0, len(c.activities))
	for _, a := range c.activities {
		out = append(out, a)
	}
	return out
}
