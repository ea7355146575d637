package listing

// SortMode pairs an orderBy column with a direction under a display label.
// Selection is by index into the fixed SortModes list; the index is what
// gets persisted.
type SortMode struct {
	Label   string
	OrderBy string
	Order   string
}

var SortModes = []SortMode{
	{Label: "Newest played", OrderBy: "playedAt", Order: "desc"},
	{Label: "Oldest played", OrderBy: "playedAt", Order: "asc"},
	{Label: "Most viewed", OrderBy: "pvCount", Order: "desc"},
	{Label: "Most downloaded", OrderBy: "downloadCount", Order: "desc"},
	{Label: "Most bookmarked", OrderBy: "bookmarkCount", Order: "desc"},
	{Label: "Most pages", OrderBy: "pageCount", Order: "desc"},
	{Label: "Fewest pages", OrderBy: "pageCount", Order: "asc"},
}

const DefaultSortModeIndex = 0

// IsValidSortModeIndex checks if an index addresses a defined sort mode
func IsValidSortModeIndex(i int) bool {
	return i >= 0 && i < len(SortModes)
}
