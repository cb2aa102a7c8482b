package overlay

import "errors"

// ErrUnknownFilter is returned for an id that is not in the catalog.
var ErrUnknownFilter = errors.New("unknown filter")

// Category groups filters in the picker.
type Category string

const (
	CategoryAll         Category = "all"
	CategoryNone        Category = "none"
	CategoryAccessories Category = "accessories"
	CategoryCute        Category = "cute"
	CategoryFunny       Category = "funny"
	CategoryAnimals     Category = "animals"
	CategoryCharacter   Category = "character"
	CategoryEffects     Category = "effects"
)

// None is the id of the no-op filter.
const None = "none"

// Definition describes one catalog entry.
type Definition struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Glyph    string   `json:"glyph"`
	Category Category `json:"category"`
}

// CategoryLabel is a picker tab.
type CategoryLabel struct {
	ID    Category `json:"id"`
	Label string   `json:"label"`
}

var catalog = []Definition{
	{ID: None, Name: "No Filter", Glyph: "🚫", Category: CategoryNone},
	{ID: "glasses", Name: "Cool Shades", Glyph: "🕶️", Category: CategoryAccessories},
	{ID: "hearts", Name: "Love Hearts", Glyph: "❤️", Category: CategoryCute},
	{ID: "crown", Name: "Royal Crown", Glyph: "👑", Category: CategoryAccessories},
	{ID: "mustache", Name: "Gentleman", Glyph: "🥸", Category: CategoryFunny},
	{ID: "cat", Name: "Cat Face", Glyph: "🐱", Category: CategoryAnimals},
	{ID: "dog", Name: "Puppy Dog", Glyph: "🐶", Category: CategoryAnimals},
	{ID: "bunny", Name: "Bunny Ears", Glyph: "🐰", Category: CategoryCute},
	{ID: "superhero", Name: "Hero Mask", Glyph: "🦸", Category: CategoryCharacter},
	{ID: "pirate", Name: "Pirate", Glyph: "🏴‍☠️", Category: CategoryCharacter},
	{ID: "party", Name: "Party Hat", Glyph: "🎉", Category: CategoryFunny},
	{ID: "alien", Name: "Alien", Glyph: "👽", Category: CategoryCharacter},
	{ID: "vampire", Name: "Vampire", Glyph: "🧛", Category: CategoryCharacter},
	{ID: "rainbow", Name: "Rainbow", Glyph: "🌈", Category: CategoryEffects},
	{ID: "stars", Name: "Star Eyes", Glyph: "✨", Category: CategoryEffects},
}

var categories = []CategoryLabel{
	{ID: CategoryAll, Label: "All"},
	{ID: CategoryAccessories, Label: "Accessories"},
	{ID: CategoryCute, Label: "Cute"},
	{ID: CategoryFunny, Label: "Funny"},
	{ID: CategoryAnimals, Label: "Animals"},
	{ID: CategoryCharacter, Label: "Characters"},
	{ID: CategoryEffects, Label: "Effects"},
}

// Catalog returns every filter in display order.
func Catalog() []Definition {
	return append([]Definition(nil), catalog...)
}

// Categories returns the picker tabs, "all" first.
func Categories() []CategoryLabel {
	return append([]CategoryLabel(nil), categories...)
}

// ByCategory returns the filters in cat; CategoryAll returns everything.
func ByCategory(cat Category) []Definition {
	if cat == CategoryAll || cat == "" {
		return Catalog()
	}
	var out []Definition
	for _, d := range catalog {
		if d.Category == cat {
			out = append(out, d)
		}
	}
	return out
}

// Lookup finds a filter by id.
func Lookup(id string) (Definition, bool) {
	for _, d := range catalog {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// Step returns the id step entries away from id in catalog order, wrapping.
// An unknown id steps from the start of the catalog.
func Step(id string, step int) string {
	idx := -1
	for i, d := range catalog {
		if d.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = 0
	}
	n := len(catalog)
	return catalog[((idx+step)%n+n)%n].ID
}
