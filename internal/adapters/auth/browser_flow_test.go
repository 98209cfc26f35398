package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProofKeyChallengeMatchesVerifier(t *testing.T) {
	t.Parallel()

	proof, err := NewProofKey()
	require.NoError(t, err)

	hash := sha256.Sum256([]byte(proof.Verifier))
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(hash[:]), proof.Challenge)
}

func TestBuildAuthorizationURLIncludesStateAndPKCEChallenge(t *testing.T) {
	t.Parallel()

	u, err := BuildAuthorizationURL(AuthorizationRequest{
		AuthURL:       "https://accounts.google.com/o/oauth2/v2/auth",
		ClientID:      "client-123",
		RedirectURI:   "http://localhost:8765/oauth/callback",
		Scopes:        []string{"openid", "profile", "email"},
		State:         "state-xyz",
		CodeChallenge: "challenge-abc",
	})
	require.NoError(t, err)

	parsed, err := url.Parse(u)
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-123", q.Get("client_id"))
	assert.Equal(t, "http://localhost:8765/oauth/callback", q.Get("redirect_uri"))
	assert.Equal(t, "openid profile email", q.Get("scope"))
	assert.Equal(t, "state-xyz", q.Get("state"))
	assert.Equal(t, "challenge-abc", q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
}

func TestBuildAuthorizationURLRejectsNonHTTPScheme(t *testing.T) {
	t.Parallel()

	_, err := BuildAuthorizationURL(AuthorizationRequest{
		AuthURL:       "ftp://accounts.google.com/o/oauth2/v2/auth",
		ClientID:      "client-123",
		RedirectURI:   "http://localhost:8765/oauth/callback",
		State:         "state-xyz",
		CodeChallenge: "challenge-abc",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http or https")
}

func TestCallbackServerReturnsCodeOnSuccess(t *testing.T) {
	t.Parallel()

	server, err := StartCallbackServer("127.0.0.1:0", "expected-state")
	require.NoError(t, err)
	defer func() { _ = server.Close() }()

	resp, err := http.Get(server.RedirectURI() + "?code=auth-code&state=expected-state")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Sign-in complete")

	code, err := server.WaitForCode(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "auth-code", code)
}

func TestCallbackServerReturnsErrorOnStateMismatch(t *testing.T) {
	t.Parallel()

	server, err := StartCallbackServer("127.0.0.1:0", "expected-state")
	require.NoError(t, err)
	defer func() { _ = server.Close() }()

	resp, err := http.Get(server.RedirectURI() + "?code=auth-code&state=wrong-state")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, err = server.WaitForCode(2 * time.Second)
	require.ErrorIs(t, err, ErrStateMismatch)
}

func TestCallbackServerSurfacesOAuthError(t *testing.T) {
	t.Parallel()

	server, err := StartCallbackServer("127.0.0.1:0", "expected-state")
	require.NoError(t, err)
	defer func() { _ = server.Close() }()

	resp, err := http.Get(server.RedirectURI() + "?state=expected-state&error=access_denied&error_description=user+cancelled")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, err = server.WaitForCode(2 * time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
	assert.Contains(t, err.Error(), "user cancelled")
}

func TestCallbackServerTimesOutWaitingForCallback(t *testing.T) {
	t.Parallel()

	server, err := StartCallbackServer("127.0.0.1:0", "expected-state")
	require.NoError(t, err)
	defer func() { _ = server.Close() }()

	_, err = server.WaitForCode(50 * time.Millisecond)
	require.ErrorIs(t, err, ErrCallbackTimeout)
}

func TestStartCallbackServerRequiresExpectedState(t *testing.T) {
	t.Parallel()

	_, err := StartCallbackServer("127.0.0.1:0", "")
	require.ErrorIs(t, err, ErrMissingState)
}

func TestExchangeCodeForTokensSuccess(t *testing.T) {
	t.Parallel()

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		form, err := url.ParseQuery(string(body))
		require.NoError(t, err)
		assert.Equal(t, "authorization_code", form.Get("grant_type"))
		assert.Equal(t, "auth-code", form.Get("code"))
		assert.Equal(t, "verifier-abc", form.Get("code_verifier"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","id_token":"google-id-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	tokens, err := ExchangeCodeForTokens(tokenServer.Client(), TokenExchangeRequest{
		TokenURL:     tokenServer.URL,
		ClientID:     "client-123",
		RedirectURI:  "http://localhost:8765/oauth/callback",
		Code:         "auth-code",
		CodeVerifier: "verifier-abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "google-id-token", tokens.IDToken)
	assert.Equal(t, "at", tokens.AccessToken)
}

func TestExchangeCodeForTokensRequiresIDToken(t *testing.T) {
	t.Parallel()

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer"}`))
	}))
	defer tokenServer.Close()

	_, err := ExchangeCodeForTokens(tokenServer.Client(), TokenExchangeRequest{
		TokenURL:     tokenServer.URL,
		ClientID:     "client-123",
		RedirectURI:  "http://localhost:8765/oauth/callback",
		Code:         "auth-code",
		CodeVerifier: "verifier-abc",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing id_token")
}

func TestExchangeCodeForTokensValidatesRequest(t *testing.T) {
	t.Parallel()

	_, err := ExchangeCodeForTokens(nil, TokenExchangeRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token url is required")
}
