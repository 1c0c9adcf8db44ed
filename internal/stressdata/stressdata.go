// Package stressdata emits synthetic Goodmap location documents for
// performance testing: many random markers inside Poland's bounding box,
// wrapped in the map-config envelope the backend serves.
package stressdata

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/google/uuid"
)

// Poland's approximate bounds keep generated coordinates realistic.
const (
	LatMin = 49.0
	LatMax = 54.8
	LonMin = 14.1
	LonMax = 24.2
)

var (
	placeNames    = []string{"Most", "Kładka", "Zwierzyniecka", "Warszawski", "Jagiełły", "Grunwaldzki"}
	placeTypes    = []string{"small bridge", "big bridge"}
	accessOptions = []string{"pedestrians", "bikes", "cars"}
)

// Marker is one generated map location.
type Marker struct {
	Name         string     `json:"name"`
	Position     [2]float64 `json:"position"`
	AccessibleBy []string   `json:"accessible_by"`
	TypeOfPlace  string     `json:"type_of_place"`
	UUID         string     `json:"uuid"`
}

// Document is the envelope the Goodmap backend serves: data plus the
// schema fields the frontend uses to build filters.
type Document struct {
	Map MapSection `json:"map"`
}

type MapSection struct {
	Data                     []Marker            `json:"data"`
	LocationObligatoryFields [][2]string         `json:"location_obligatory_fields"`
	Categories               map[string][]string `json:"categories"`
	VisibleData              []string            `json:"visible_data"`
	MetaData                 []string            `json:"meta_data"`
}

// Generator produces markers from a seeded source so fixture files are
// reproducible.
type Generator struct {
	rng *rand.Rand
}

// New returns a generator seeded with seed.
func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Marker generates one random marker.
func (g *Generator) Marker() Marker {
	name := fmt.Sprintf("%s %d", placeNames[g.rng.Intn(len(placeNames))], g.rng.Intn(10000)+1)

	lat := round6(LatMin + g.rng.Float64()*(LatMax-LatMin))
	lon := round6(LonMin + g.rng.Float64()*(LonMax-LonMin))

	// Random non-empty subset of access options.
	n := g.rng.Intn(len(accessOptions)) + 1
	perm := g.rng.Perm(len(accessOptions))[:n]
	access := make([]string, n)
	for i, idx := range perm {
		access[i] = accessOptions[idx]
	}

	return Marker{
		Name:         name,
		Position:     [2]float64{lat, lon},
		AccessibleBy: access,
		TypeOfPlace:  placeTypes[g.rng.Intn(len(placeTypes))],
		UUID:         uuid.NewString(),
	}
}

// Document generates n markers wrapped in the map-config envelope.
func (g *Generator) Document(n int) Document {
	markers := make([]Marker, n)
	for i := range markers {
		markers[i] = g.Marker()
	}
	return Document{Map: MapSection{
		Data: markers,
		LocationObligatoryFields: [][2]string{
			{"name", "str"},
			{"accessible_by", "list"},
			{"type_of_place", "str"},
		},
		Categories: map[string][]string{
			"accessible_by": accessOptions,
			"type_of_place": placeTypes,
		},
		VisibleData: []string{"accessible_by", "type_of_place"},
		MetaData:    []string{"uuid"},
	}}
}

// Write generates and writes the document as indented JSON.
func (g *Generator) Write(path string, n int) error {
	doc := g.Document(n)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal stress data: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}
