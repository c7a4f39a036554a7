package oauth

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// ProviderMetadata is the subset of the OIDC discovery document
// (/.well-known/openid-configuration) the client needs.
type ProviderMetadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	UserinfoEndpoint                  string   `json:"userinfo_endpoint"`
	EndSessionEndpoint                string   `json:"end_session_endpoint"`
	JwksUri                           string   `json:"jwks_uri"`
	ScopesSupported                   []string `json:"scopes_supported"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
}

func (pm *ProviderMetadata) Validate(fetchUrl *url.URL) error {
	if fetchUrl == nil {
		return fmt.Errorf("fetch_url was nil")
	}

	iu, err := url.Parse(pm.Issuer)
	if err != nil {
		return err
	}

	if iu.Hostname() != fetchUrl.Hostname() {
		return fmt.Errorf("issuer hostname does not match fetch url hostname")
	}

	if iu.Scheme != "https" && !isLoopback(iu) {
		return fmt.Errorf("issuer url is not https")
	}

	if iu.RawQuery != "" {
		return fmt.Errorf("issuer url params are not empty")
	}

	if pm.AuthorizationEndpoint == "" {
		return fmt.Errorf("authorization_endpoint is empty")
	}

	if pm.TokenEndpoint == "" {
		return fmt.Errorf("token_endpoint is empty")
	}

	if !tokenInSet("code", pm.ResponseTypesSupported) {
		return fmt.Errorf("`code` is not in response_types_supported")
	}

	// grant_types_supported defaults to authorization_code + implicit
	// when omitted, so only check it when the provider sends it
	if len(pm.GrantTypesSupported) > 0 {
		if !tokenInSet("authorization_code", pm.GrantTypesSupported) {
			return fmt.Errorf("`authorization_code` is not in grant_types_supported")
		}
	}

	if len(pm.CodeChallengeMethodsSupported) > 0 {
		if !tokenInSet("S256", pm.CodeChallengeMethodsSupported) {
			return fmt.Errorf("`S256` is not in code_challenge_methods_supported")
		}
	}

	return nil
}

func (pm *ProviderMetadata) UnmarshalJSON(b []byte) error {
	type Tmp ProviderMetadata
	var tmp Tmp

	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}

	*pm = ProviderMetadata(tmp)

	return nil
}

// TokenResponse is the token endpoint's JSON body for both the
// authorization_code and refresh_token grants. Providers may omit
// refresh_token on refresh; absent fields decode to zero values and are
// ignored by TokenStore.Save.
type TokenResponse struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// TokenSet converts the wire response into the stored shape.
func (tr *TokenResponse) TokenSet() TokenSet {
	return TokenSet{
		IDToken:      tr.IDToken,
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    tr.ExpiresIn,
	}
}
