package geo

import "strings"

// NameFilter restricts sightings by common name. An explicit name list beats
// a free-text search beats no filter.
type NameFilter struct {
	Names  []string
	Search string
}

// NewNameFilter builds a filter from the two query parameters. nameList is
// comma-separated; search is a case-insensitive contains match.
func NewNameFilter(search, nameList string) NameFilter {
	if strings.TrimSpace(nameList) != "" {
		var names []string
		for _, n := range strings.Split(nameList, ",") {
			n = strings.TrimSpace(n)
			if n != "" {
				names = append(names, n)
			}
		}
		if len(names) > 0 {
			return NameFilter{Names: names}
		}
	}

	return NameFilter{Search: strings.TrimSpace(search)}
}

// SQL returns a WHERE fragment against column col, or "" when the filter
// matches everything.
func (f NameFilter) SQL(col string) (string, []any) {
	if len(f.Names) > 0 {
		placeholders := strings.Repeat("?,", len(f.Names))
		placeholders = placeholders[:len(placeholders)-1]
		args := make([]any, len(f.Names))
		for i, n := range f.Names {
			args[i] = n
		}
		return col + " IN (" + placeholders + ")", args
	}

	if f.Search != "" {
		return "LOWER(" + col + ") LIKE ?", []any{"%" + strings.ToLower(f.Search) + "%"}
	}

	return "", nil
}

// Key is a stable cache-key fragment for the filter.
func (f NameFilter) Key() string {
	if len(f.Names) > 0 {
		return "names:" + strings.Join(f.Names, ",")
	}
	if f.Search != "" {
		return "search:" + strings.ToLower(f.Search)
	}
	return "all"
}
