// Package credentials resolves GitHub access tokens from configuration.
package credentials

import (
	"context"
	"strings"

	"github.com/extindex/extindex/internal/core/ports/driven"
)

// ConfigTokenProvider reads per-owner tokens from the config store under
// "github.tokens.<owner>". An owner without an entry gets the empty token,
// which makes the connector fall back to the system credential.
type ConfigTokenProvider struct {
	config driven.ConfigStore
}

// Ensure ConfigTokenProvider implements the interface.
var _ driven.TokenProvider = (*ConfigTokenProvider)(nil)

// NewConfigTokenProvider creates a provider over the config store.
func NewConfigTokenProvider(config driven.ConfigStore) *ConfigTokenProvider {
	return &ConfigTokenProvider{config: config}
}

// Token returns the access token linked to the owner, or "".
func (p *ConfigTokenProvider) Token(_ context.Context, owner string) (string, error) {
	return p.config.GetString("github.tokens." + strings.ToLower(owner)), nil
}
