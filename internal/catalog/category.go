package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Category is one of the trip-record datasets published by the TLC.
type Category string

// Published categories.
const (
	Yellow Category = "yellow_tripdata"
	Green  Category = "green_tripdata"
	FHV    Category = "fhv_tripdata"
	FHVHV  Category = "fhvhv_tripdata" // high volume for-hire vehicles
)

// ErrUnknownCategory is returned when a category name is not in the catalog.
var ErrUnknownCategory = errors.New("catalog: unknown category")

var allCategories = []Category{Yellow, Green, FHV, FHVHV}

// Categories returns every category in catalog order.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// ParseCategory resolves a category by its full name ("yellow_tripdata")
// or short alias ("yellow"). Matching is case-insensitive.
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, c := range allCategories {
		if name == string(c) || name == c.Short() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// ParseCategories resolves a list of names, dropping duplicates while
// keeping the first-seen order. An empty list selects every category.
func ParseCategories(names []string) ([]Category, error) {
	if len(names) == 0 {
		return Categories(), nil
	}

	seen := make(map[Category]bool, len(names))
	out := make([]Category, 0, len(names))
	for _, n := range names {
		c, err := ParseCategory(n)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}

// Short returns the alias without the "_tripdata" suffix.
func (c Category) Short() string {
	return strings.TrimSuffix(string(c), "_tripdata")
}

func (c Category) String() string {
	return string(c)
}
