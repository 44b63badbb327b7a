package domain

import "strings"

// Scopes supported by the server. The vocabulary bounds every grant:
// a token can never carry a scope outside this set.
const (
	ScopeOpenID  = "openid"
	ScopeProfile = "profile"
	ScopeEmail   = "email"
	ScopePhone   = "phone"
)

// SupportedScopes is the server-wide scope vocabulary.
var SupportedScopes = []string{ScopeOpenID, ScopeProfile, ScopeEmail, ScopePhone}

// ParseScopes splits a space-delimited scope parameter, dropping empty
// entries and duplicates while preserving order.
func ParseScopes(scope string) []string {
	var scopes []string
	seen := make(map[string]struct{})
	for _, s := range strings.Fields(scope) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		scopes = append(scopes, s)
	}
	return scopes
}

// FormatScopes joins scopes into the wire representation.
func FormatScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}

// HasScope reports whether scopes contains scope.
func HasScope(scopes []string, scope string) bool {
	for _, s := range scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// NarrowScopes intersects the requested scopes with the server
// vocabulary and the client's registered scopes. An empty result is a
// caller error; nothing is silently substituted.
func NarrowScopes(requested []string, client Client) []string {
	var granted []string
	for _, s := range requested {
		if HasScope(SupportedScopes, s) && HasScope(client.Profile().Scopes, s) {
			granted = append(granted, s)
		}
	}
	return granted
}

// SubsetOf reports whether every scope in scopes is present in of.
func SubsetOf(scopes, of []string) bool {
	for _, s := range scopes {
		if !HasScope(of, s) {
			return false
		}
	}
	return true
}
