// Package taxonomy serves the static gig category list used to validate and
// display gigs.
package taxonomy

import (
	_ "embed"
	"fmt"
	"slices"

	"go.yaml.in/yaml/v3"

	apperrors "github.com/spec-kit/gig-service/pkg/util/errorutil"
)

//go:embed categories.yaml
var defaultCategories []byte

// Category is one top-level gig category.
type Category struct {
	Name          string   `yaml:"name" json:"name"`
	Icon          string   `yaml:"icon" json:"icon"`
	Subcategories []string `yaml:"subcategories" json:"subcategories"`
}

// Taxonomy is a read-only category index.
type Taxonomy struct {
	categories []Category
	byName     map[string]int
}

// Default returns the embedded taxonomy. It panics only if the embedded file
// is malformed.
func Default() *Taxonomy {
	t, err := Parse(defaultCategories)
	if err != nil {
		panic(fmt.Sprintf("taxonomy: embedded categories: %v", err))
	}
	return t
}

// Parse builds a taxonomy from a YAML document with a top-level categories list.
func Parse(data []byte) (*Taxonomy, error) {
	var doc struct {
		Categories []Category `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	t := &Taxonomy{byName: make(map[string]int, len(doc.Categories))}
	for _, c := range doc.Categories {
		if c.Name == "" {
			return nil, fmt.Errorf("category without a name")
		}
		if _, dup := t.byName[c.Name]; dup {
			return nil, fmt.Errorf("duplicate category %q", c.Name)
		}
		if c.Subcategories == nil {
			c.Subcategories = []string{}
		}
		t.byName[c.Name] = len(t.categories)
		t.categories = append(t.categories, c)
	}
	return t, nil
}

// Categories returns a copy of every category in display order.
func (t *Taxonomy) Categories() []Category {
	out := make([]Category, len(t.categories))
	for i, c := range t.categories {
		c.Subcategories = slices.Clone(c.Subcategories)
		out[i] = c
	}
	return out
}

// Lookup finds a category by exact name.
func (t *Taxonomy) Lookup(name string) (Category, bool) {
	idx, ok := t.byName[name]
	if !ok {
		return Category{}, false
	}
	return t.categories[idx], true
}

// Validate checks a category and optional subcategory pair.
func (t *Taxonomy) Validate(category, subcategory string) error {
	c, ok := t.Lookup(category)
	if !ok {
		return apperrors.NewValidationError("category", fmt.Sprintf("unknown category %q", category))
	}
	if subcategory != "" && !slices.Contains(c.Subcategories, subcategory) {
		return apperrors.NewValidationError("subcategory",
			fmt.Sprintf("%q is not a subcategory of %q", subcategory, category))
	}
	return nil
}
