package model

import (
	"strconv"
	"strings"
)

// Draft key prefixes. A draft key is the prefix followed by the id of the
// edited record, 0 for one that was never saved.
const (
	StrikeDraftPrefix    = "strike"
	WorkspaceDraftPrefix = "workspace"
)

// DraftCollections maps a draft key prefix to the collection its records
// belong to.
var DraftCollections = map[string]string{
	StrikeDraftPrefix:    "strikes",
	WorkspaceDraftPrefix: "workspaces",
}

// ParseDraftKey splits a draft key into its collection and record id. A key
// with no id, e.g. "strike", is a new record.
func ParseDraftKey(key string) (collection string, id int64, ok bool) {
	for prefix, coll := range DraftCollections {
		rest, found := strings.CutPrefix(key, prefix)
		if !found {
			continue
		}
		if rest == "" {
			return coll, 0, true
		}
		n, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || n < 0 {
			return "", 0, false
		}
		return coll, n, true
	}
	return "", 0, false
}
