package services

import (
	"strconv"
	"strings"
)

// Key format: {resource}:{scope}:{params}. Components are escaped so a ':'
// inside a user id, note id or slug cannot make two resources collide.

const (
	DefaultListPage  = 1
	DefaultListLimit = 10
)

var keyEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

func keyPart(s string) string {
	return keyEscaper.Replace(s)
}

func NoteKey(userID, id string) string {
	return "note:" + keyPart(userID) + ":" + keyPart(id)
}

func NoteSlugKey(userID, slug string) string {
	return "note:slug:" + keyPart(userID) + ":" + keyPart(slug)
}

// NotesListKey returns the key for one list page. Zero page or limit fall
// back to the list endpoint defaults.
func NotesListKey(userID string, page, limit int, search string) string {
	if page <= 0 {
		page = DefaultListPage
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return strings.Join([]string{
		"notes:list",
		keyPart(userID),
		strconv.Itoa(page),
		strconv.Itoa(limit),
		keyPart(search),
	}, ":")
}

// ListPolicy is the set of list queries whose pages may be cached. The list
// read path and the invalidation path both derive from the same policy, so
// adding a limit here extends both. Queries outside the policy bypass the
// cache entirely.
type ListPolicy struct {
	MaxPage int
	Limits  []int
}

var DefaultListPolicy = ListPolicy{
	MaxPage: 10,
	Limits:  []int{10, 20, 50},
}

// Cacheable reports whether a list query falls inside the enumerated key set.
func (p ListPolicy) Cacheable(page, limit int, search string) bool {
	if search != "" || page < 1 || page > p.MaxPage {
		return false
	}
	for _, l := range p.Limits {
		if l == limit {
			return true
		}
	}
	return false
}

// Keys enumerates every list key the policy allows for userID.
func (p ListPolicy) Keys(userID string) []string {
	keys := make([]string, 0, p.MaxPage*len(p.Limits))
	for page := 1; page <= p.MaxPage; page++ {
		for _, limit := range p.Limits {
			keys = append(keys, NotesListKey(userID, page, limit, ""))
		}
	}
	return keys
}

// AllNotesListKeys returns the list keys for userID under the default policy.
func AllNotesListKeys(userID string) []string {
	return DefaultListPolicy.Keys(userID)
}
