// Package categorize assigns transactions a category and subcategory from a
// caller-supplied taxonomy by delegating to a generative text service, with
// batching, rate-limit backoff and malformed-output repair.
package categorize

import (
	"fmt"
	"strings"
)

// Category is one entry of a taxonomy: a name and its allowed subcategories.
type Category struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

// Taxonomy is the closed output vocabulary of a categorization run: any
// category or subcategory the service returns outside of it is a contract
// violation on the service side.
type Taxonomy []Category

// Validate checks the taxonomy invariants: at least one category, unique
// category names, and at least one subcategory per category. It is called
// before any network round-trip so an invalid taxonomy fails fast.
func (t Taxonomy) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("taxonomy is empty: at least one category is required")
	}
	seen := make(map[string]bool, len(t))
	for _, c := range t {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("taxonomy has a category with an empty name")
		}
		if seen[c.Name] {
			return fmt.Errorf("taxonomy category %q is duplicated", c.Name)
		}
		seen[c.Name] = true
		if len(c.Subcategories) == 0 {
			return fmt.Errorf("taxonomy category %q has no subcategories", c.Name)
		}
		for _, s := range c.Subcategories {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("taxonomy category %q has an empty subcategory", c.Name)
			}
		}
	}
	return nil
}

// promptLines serializes the taxonomy as "category: sub1, sub2" lines, the
// form embedded in the instruction sent to the service.
func (t Taxonomy) promptLines() string {
	var b strings.Builder
	for _, c := range t {
		fmt.Fprintf(&b, "%s: %s\n", c.Name, strings.Join(c.Subcategories, ", "))
	}
	return b.String()
}

// Categories returns the set of category names, for membership checks.
func (t Taxonomy) Categories() map[string]bool {
	names := make(map[string]bool, len(t))
	for _, c := range t {
		names[c.Name] = true
	}
	return names
}
