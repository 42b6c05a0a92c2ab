package letter

import "sort"

// SortByLastUsed orders records most recently used first, breaking ties by ID.
func SortByLastUsed(records []ResumeRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].LastUsedAt.Equal(records[j].LastUsedAt) {
			return records[i].LastUsedAt.After(records[j].LastUsedAt)
		}
		return records[i].ID < records[j].ID
	})
}
