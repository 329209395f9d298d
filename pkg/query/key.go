package query

import (
	"net/url"
	"strings"
)

// Scopes used by the key constructors.
const (
	ScopeList   = "list"
	ScopeDetail = "detail"
	ScopeStats  = "stats"
)

// Key identifies a cache entry. Empty fields act as wildcards when the key is used
// as an invalidation prefix.
type Key struct {
	Entity string
	Scope  string
	Digest string
}

// EntityKey returns the prefix matching every entry of entity.
func EntityKey(entity string) Key {
	return Key{Entity: entity}
}

// ScopeKey returns the prefix matching every entry of entity in scope.
func ScopeKey(entity, scope string) Key {
	return Key{Entity: entity, Scope: scope}
}

// ListKey returns the key of a list query. The digest is the encoded filter, whose
// keys url.Values.Encode sorts, so equal filters share a key.
func ListKey(entity string, filter url.Values) Key {
	digest := filter.Encode()
	if digest == "" {
		digest = "all"
	}

	return Key{Entity: entity, Scope: ScopeList, Digest: digest}
}

// DetailKey returns the key of a single entity.
func DetailKey(entity, id string) Key {
	return Key{Entity: entity, Scope: ScopeDetail, Digest: id}
}

// StatsKey returns the key of an aggregate over entity.
func StatsKey(entity string, filter url.Values) Key {
	key := ListKey(entity, filter)
	key.Scope = ScopeStats

	return key
}

// Matches reports whether k falls under prefix.
func (k Key) Matches(prefix Key) bool {
	if prefix.Entity != k.Entity {
		return false
	}

	if prefix.Scope != "" && prefix.Scope != k.Scope {
		return false
	}

	return prefix.Digest == "" || prefix.Digest == k.Digest
}

// String returns "entity/scope/digest" without trailing empty parts.
func (k Key) String() string {
	parts := []string{k.Entity}

	if k.Scope != "" || k.Digest != "" {
		parts = append(parts, k.Scope)
	}

	if k.Digest != "" {
		parts = append(parts, k.Digest)
	}

	return strings.Join(parts, "/")
}
