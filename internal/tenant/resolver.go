package tenant

import (
	"fmt"

	"github.com/xaenox/assistant-gateway/pkg/config"
)

// Credentials is one tenant's credential bundle: the API key their
// callers authenticate with, and the OpenAI credentials the gateway
// uses on their behalf.
type Credentials struct {
	ID          string
	APIKey      string
	OpenAIKey   string
	OpenAIOrg   string
	AssistantID string
}

// Resolver maps a customer id to its credentials. The table is built
// once at startup and never mutated, so lookups are safe from any
// goroutine.
type Resolver struct {
	byID map[string]Credentials
}

func NewResolver(customers []config.CustomerConfig) (*Resolver, error) {
	byID := make(map[string]Credentials, len(customers))
	for _, c := range customers {
		if _, exists := byID[c.ID]; exists {
			return nil, fmt.Errorf("duplicate customer id %q", c.ID)
		}
		byID[c.ID] = Credentials{
			ID:          c.ID,
			APIKey:      c.APIKey,
			OpenAIKey:   c.OpenAIAPIKey,
			OpenAIOrg:   c.OpenAIOrg,
			AssistantID: c.OpenAIAssistantID,
		}
	}
	return &Resolver{byID: byID}, nil
}

// Resolve returns the credentials for a customer id. A miss is an
// expected outcome, not an error: unknown tenants are handled further
// up without ever touching the network.
func (r *Resolver) Resolve(customerID string) (Credentials, bool) {
	creds, ok := r.byID[customerID]
	return creds, ok
}

// IDs returns the registered customer ids.
func (r *Resolver) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	return ids
}
