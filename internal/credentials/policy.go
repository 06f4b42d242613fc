// Package credentials decides which storage credentials a backend hands to
// clients in table-load responses.
package credentials

import (
	"strconv"
	"strings"

	"github.com/ManikGarg316/rest-catalog-server/internal/catalog"
)

const (
	// IncludeCredentials opts a backend into credential injection
	IncludeCredentials = "include-credentials"

	// GCSOAuth2Token is the GCS OAuth2 access token
	GCSOAuth2Token = "gcs.oauth2.token"
	// GCSOAuth2TokenExpiresAt is the token expiry in epoch milliseconds
	GCSOAuth2TokenExpiresAt = "gcs.oauth2.token-expires-at"
)

// Keys lists the credential keys copied into table-load responses. The
// expiry is copied along with the token, which a client otherwise has no
// way to learn; a backend that sets only the token sends only the token.
var Keys = []string{GCSOAuth2Token, GCSOAuth2TokenExpiresAt}

// redactedValue replaces secret values in logs and CLI output
const redactedValue = "****"

// Enabled reports whether catalogConfig sets include-credentials to true.
// An absent or unparsable value is false.
func Enabled(catalogConfig catalog.Properties) bool {
	raw, ok := catalogConfig[IncludeCredentials]
	if !ok {
		return false
	}
	enabled, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && enabled
}

// Apply copies the credential keys present in catalogConfig into
// responseConfig when injection is enabled, overwriting existing values.
// It returns responseConfig, allocating it when nil.
func Apply(catalogConfig catalog.Properties, responseConfig map[string]string) map[string]string {
	if responseConfig == nil {
		responseConfig = make(map[string]string)
	}
	if !Enabled(catalogConfig) {
		return responseConfig
	}

	for _, key := range Keys {
		if value, ok := catalogConfig[key]; ok {
			responseConfig[key] = value
		}
	}
	return responseConfig
}

// Redact returns a copy of props with secret values masked
func Redact(props catalog.Properties) catalog.Properties {
	out := catalog.CloneProperties(props)
	for key := range out {
		if isSecret(key) {
			out[key] = redactedValue
		}
	}
	return out
}

func isSecret(key string) bool {
	lower := strings.ToLower(key)
	switch {
	case strings.Contains(lower, "password"), strings.Contains(lower, "secret"):
		return true
	case strings.HasSuffix(lower, "token"):
		return true
	default:
		return false
	}
}
