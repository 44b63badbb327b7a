package domain

import "context"

// Grant types and response types understood by this server.
const (
	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"
	GrantClientCredentials = "client_credentials"

	ResponseTypeCode  = "code"
	ResponseTypeToken = "token"
)

// ClientProfile carries the security policy shared by both client
// kinds. Records are immutable after registration; registration and
// management live outside this core.
type ClientProfile struct {
	ID            string   `json:"id"`
	RedirectURIs  []string `json:"redirect_uris"`
	GrantTypes    []string `json:"grant_types"`
	ResponseTypes []string `json:"response_types"`
	Scopes        []string `json:"scopes"`
}

// HasRedirectURI reports whether uri is registered for the client.
// Exact string match only; prefix or wildcard matching would open the
// redirect to abuse.
func (p *ClientProfile) HasRedirectURI(uri string) bool {
	for _, registered := range p.RedirectURIs {
		if registered == uri {
			return true
		}
	}
	return false
}

// AllowsGrant reports whether the client declared the grant type.
func (p *ClientProfile) AllowsGrant(grantType string) bool {
	for _, g := range p.GrantTypes {
		if g == grantType {
			return true
		}
	}
	return false
}

// AllowsResponseType reports whether the client declared the response type.
func (p *ClientProfile) AllowsResponseType(responseType string) bool {
	for _, rt := range p.ResponseTypes {
		if rt == responseType {
			return true
		}
	}
	return false
}

// Client is either a ConfidentialClient or a PublicClient. The split is
// a compile-time guarantee that a public client cannot be constructed
// with a secret requirement.
type Client interface {
	Profile() *ClientProfile
	Confidential() bool
}

// ConfidentialClient is a client holding a bcrypt hash of its secret.
type ConfidentialClient struct {
	ClientProfile
	SecretHash string `json:"-"`
}

func (c *ConfidentialClient) Profile() *ClientProfile { return &c.ClientProfile }
func (c *ConfidentialClient) Confidential() bool      { return true }

// PublicClient is a client without credentials (SPA, mobile).
type PublicClient struct {
	ClientProfile
}

func (c *PublicClient) Profile() *ClientProfile { return &c.ClientProfile }
func (c *PublicClient) Confidential() bool      { return false }

// ClientRegistry resolves registered clients. The registry is read-only
// to the rest of the core.
type ClientRegistry interface {
	// Lookup finds a client by id without authenticating it. Used on
	// the front channel where no secret travels.
	Lookup(ctx context.Context, clientID string) (Client, error)

	// Resolve finds a client and authenticates it. Confidential
	// clients must present the correct secret (verified with a
	// constant-time comparison); public clients must present none.
	// Any failure is ErrInvalidClient.
	Resolve(ctx context.Context, clientID, clientSecret string) (Client, error)
}
