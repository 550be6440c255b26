package http

import (
	"github.com/orris-inc/lineconnect/internal/application/identity/usecases"
	"github.com/orris-inc/lineconnect/internal/infrastructure/auth"
)

// oauthClientSource adapts ProviderManager so the use cases always see the
// client built from the latest settings.
func oauthClientSource(pm *auth.ProviderManager) usecases.OAuthClientSource {
	return func() (usecases.OAuthClient, error) {
		client, err := pm.Client()
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

func liffVerifierSource(pm *auth.ProviderManager) usecases.LiffVerifierSource {
	return func() (usecases.LiffProfileVerifier, error) {
		verifier, err := pm.LiffVerifier()
		if err != nil {
			return nil, err
		}
		return verifier, nil
	}
}
