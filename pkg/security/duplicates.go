package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/forest6511/guardctl/pkg/store"
)

// DuplicateGroup represents records sharing the same credential value.
type DuplicateGroup struct {
	// Names contains the record names with duplicate values.
	Names []string `json:"names,omitempty"`
	// Attrs contains the matching attribute names, aligned with Names.
	Attrs []string `json:"attrs,omitempty"`
	// Count is the number of occurrences.
	Count int `json:"count"`
}

type duplicateEntry struct {
	name string
	attr string
	hash string
}

// FindDuplicates scans credential fields for reused values. Values are
// compared through HMAC-SHA256 with a session-local key so raw values
// never leave the analyzer; the key is never persisted. Groups come
// back sorted by count, most duplicated first. A limit of 0 means
// unlimited.
func (a *Analyzer) FindDuplicates(records []store.Record, limit int) ([]DuplicateGroup, error) {
	if a.hmacKey == nil {
		a.hmacKey = make([]byte, 32)
		if _, err := rand.Read(a.hmacKey); err != nil {
			return nil, err
		}
	}

	var entries []duplicateEntry
	for _, r := range records {
		for _, f := range r.Fields {
			if !IsCredentialAttr(f.Attr, f.Sensitive) {
				continue
			}
			value := strings.TrimSpace(f.Value)
			if value == "" {
				continue
			}
			entries = append(entries, duplicateEntry{
				name: r.Name,
				attr: f.Attr,
				hash: valueHash(value, a.hmacKey),
			})
		}
	}

	hashGroups := make(map[string][]duplicateEntry)
	for _, e := range entries {
		hashGroups[e.hash] = append(hashGroups[e.hash], e)
	}

	var groups []DuplicateGroup
	for _, members := range hashGroups {
		if len(members) <= 1 {
			continue
		}
		group := DuplicateGroup{Count: len(members)}
		sort.Slice(members, func(i, j int) bool { return members[i].name < members[j].name })
		for _, m := range members {
			group.Names = append(group.Names, m.name)
			group.Attrs = append(group.Attrs, m.attr)
		}
		groups = append(groups, group)
	}

	// Most duplicated first; ties by first name for stable output.
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Names[0] < groups[j].Names[0]
	})

	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}
	return groups, nil
}

func valueHash(value string, key []byte) string {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil))
}

// FindWeak returns issues for records with weak credential fields.
// A limit of 0 means unlimited.
func (a *Analyzer) FindWeak(records []store.Record, limit int) []Issue {
	var issues []Issue
	for _, r := range records {
		for _, f := range r.Fields {
			if !IsCredentialAttr(f.Attr, f.Sensitive) || f.Value == "" {
				continue
			}
			if CalculateStrength(f.Value) != StrengthWeak {
				continue
			}
			issues = append(issues, Issue{
				Type:        IssueWeakValue,
				Severity:    SeverityWarning,
				Name:        r.Name,
				Attr:        f.Attr,
				Description: fmt.Sprintf("value is weak (%d characters)", len(f.Value)),
				Suggestion:  "use a longer value (14+ characters recommended)",
			})
		}
	}

	if limit > 0 && len(issues) > limit {
		issues = issues[:limit]
	}
	return issues
}
