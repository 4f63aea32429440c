package service

import (
	"strings"

	"github.com/restfetch/restfetch/types"
)

// PostFilter narrows a posts collection. Zero values leave the respective
// dimension unfiltered.
type PostFilter struct {
	UserID int
	Limit  int
	Search string
}

// UserFilter narrows a users collection.
type UserFilter struct {
	Limit  int
	Search string
}

// FilterPosts applies user-id, search and limit filters in that order.
// Search is a case-insensitive substring match over title and body.
func FilterPosts(posts []types.Record, filter PostFilter) []types.Record {
	results := posts

	if filter.UserID > 0 {
		filtered := make([]types.Record, 0, len(results))
		for _, p := range results {
			if p.Int("userId", 0) == filter.UserID {
				filtered = append(filtered, p)
			}
		}
		results = filtered
	}

	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		filtered := make([]types.Record, 0, len(results))
		for _, p := range results {
			haystack := strings.ToLower(p.String("title", "") + p.String("body", ""))
			if strings.Contains(haystack, needle) {
				filtered = append(filtered, p)
			}
		}
		results = filtered
	}

	return limit(results, filter.Limit)
}

// FilterUsers applies search and limit filters. Search matches name and
// username, case-insensitive.
func FilterUsers(users []types.Record, filter UserFilter) []types.Record {
	results := users

	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		filtered := make([]types.Record, 0, len(results))
		for _, u := range results {
			haystack := strings.ToLower(u.String("name", "") + u.String("username", ""))
			if strings.Contains(haystack, needle) {
				filtered = append(filtered, u)
			}
		}
		results = filtered
	}

	return limit(results, filter.Limit)
}

// RecordByID returns the first record whose "id" field matches, or nil.
func RecordByID(records []types.Record, id int) types.Record {
	for _, r := range records {
		if r.Int("id", 0) == id {
			return r
		}
	}
	return nil
}

// CountByUser counts records whose "userId" field matches.
func CountByUser(records []types.Record, userID int) int {
	count := 0
	for _, r := range records {
		if r.Int("userId", 0) == userID {
			count++
		}
	}
	return count
}

func limit(records []types.Record, n int) []types.Record {
	if n > 0 && len(records) > n {
		return records[:n]
	}
	return records
}
