package aad

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arneg82/migAz/internal/core"
	"github.com/arneg82/migAz/internal/tokencache"
)

const testResource = "https://management.core.windows.net/"

// fakeAAD serves the device code, token and discovery endpoints of one tenant.
type fakeAAD struct {
	t   *testing.T
	srv *httptest.Server

	mu            sync.Mutex
	deviceForms   []url.Values
	tokenForms    []url.Values
	discoveryHits int
	userAgents    []string

	// deviceToken and refresh answer the respective grants; defaults sign in alice.
	deviceToken func(w http.ResponseWriter)
	refresh     func(w http.ResponseWriter)
}

func newFakeAAD(t *testing.T) *fakeAAD {
	f := &fakeAAD{t: t}
	f.deviceToken = f.tokenFor("alice@example.com", "at-device")
	f.refresh = f.tokenFor("", "at-refreshed")

	mux := http.NewServeMux()
	mux.HandleFunc("/tenant/oauth2/devicecode", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.mu.Lock()
		f.deviceForms = append(f.deviceForms, r.PostForm)
		f.userAgents = append(f.userAgents, r.UserAgent())
		f.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]any{
			"device_code":      "device-123",
			"user_code":        "ABCD-EFGH",
			"verification_uri": "https://microsoft.com/devicelogin",
			"expires_in":       900,
			"interval":         1,
		})
	})
	mux.HandleFunc("/tenant/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.mu.Lock()
		f.tokenForms = append(f.tokenForms, r.PostForm)
		deviceToken, refresh := f.deviceToken, f.refresh
		f.mu.Unlock()

		if r.PostForm.Get("grant_type") == "refresh_token" {
			refresh(w)
			return
		}
		deviceToken(w)
	})
	mux.HandleFunc("/tenant/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.discoveryHits++
		f.mu.Unlock()

		base := f.srv.URL + "/tenant"
		writeJSON(w, http.StatusOK, map[string]any{
			"issuer":                        "https://sts.example/{tenantid}/",
			"authorization_endpoint":        base + "/oauth2/authorize",
			"token_endpoint":                base + "/oauth2/token",
			"device_authorization_endpoint": base + "/oauth2/devicecode",
			"jwks_uri":                      base + "/keys",
		})
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAAD) authority() string {
	return f.srv.URL + "/tenant/"
}

func (f *fakeAAD) tokenFor(user, accessToken string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		body := map[string]any{
			"access_token":  accessToken,
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": "rt-" + accessToken,
		}
		if user != "" {
			body["id_token"] = signIDToken(f.t, jwt.MapClaims{
				"upn": user,
				"oid": "oid-" + user,
				"tid": "11111111-1111-1111-1111-111111111111",
			})
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func oauthError(code string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":             code,
			"error_description": code + " from test server",
		})
	}
}

func (f *fakeAAD) counts() (device, token int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deviceForms), len(f.tokenForms)
}

func (f *fakeAAD) lastDeviceForm() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(f.t, f.deviceForms)
	return f.deviceForms[len(f.deviceForms)-1]
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type recordingPrompter struct {
	mu    sync.Mutex
	codes []DeviceCode
	err   error
}

func (p *recordingPrompter) ShowDeviceCode(_ context.Context, code DeviceCode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.codes = append(p.codes, code)
	return p.err
}

func (p *recordingPrompter) shown() []DeviceCode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]DeviceCode(nil), p.codes...)
}

func newTestClient(prompter Prompter, opts ...Option) *Client {
	opts = append([]Option{WithLogger(zerolog.Nop()), WithPrompter(prompter)}, opts...)
	return New(opts...)
}

func request(authority string, policy core.PromptPolicy, user *core.UserIdentifier) core.TokenRequest {
	return core.TokenRequest{
		Authority:   authority,
		Resource:    testResource,
		ClientID:    core.ClientID,
		RedirectURL: core.RedirectURL,
		Prompt:      core.PromptParameters{Policy: policy, Owner: "main-window"},
		User:        user,
	}
}

func TestAcquireToken_DeviceCode(t *testing.T) {
	aad := newFakeAAD(t)
	prompter := &recordingPrompter{}
	c := newTestClient(prompter)

	res, err := c.AcquireToken(context.Background(), request(aad.authority(), core.PromptAuto, nil))
	require.NoError(t, err)
	require.True(t, res.OK())

	assert.Equal(t, "at-device", res.Token.AccessToken)
	assert.Equal(t, "Bearer", res.Token.TokenType)
	assert.Equal(t, "rt-at-device", res.Token.RefreshToken)
	assert.Equal(t, testResource, res.Token.Resource)
	assert.Equal(t, aad.authority(), res.Token.Authority)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", res.Token.TenantID)
	require.NotNil(t, res.Token.UserInfo)
	assert.Equal(t, "alice@example.com", res.Token.UserInfo.DisplayableID)

	form := aad.lastDeviceForm()
	assert.Equal(t, core.ClientID, form.Get("client_id"))
	assert.Equal(t, testResource, form.Get("resource"))
	assert.Empty(t, form.Get("prompt"))
	assert.Empty(t, form.Get("login_hint"))

	shown := prompter.shown()
	require.Len(t, shown, 1)
	assert.Equal(t, "ABCD-EFGH", shown[0].UserCode)
	assert.Equal(t, "https://microsoft.com/devicelogin", shown[0].VerificationURI)
	assert.Equal(t, "main-window", shown[0].Owner)

	// served from the cache, for the anonymous and the user-specific key
	res, err = c.AcquireToken(context.Background(), request(aad.authority(), core.PromptAuto, nil))
	require.NoError(t, err)
	assert.Equal(t, "at-device", res.Token.AccessToken)

	user := &core.UserIdentifier{ID: "alice@example.com", Type: core.RequiredDisplayableID}
	res, err = c.AcquireToken(context.Background(), request(aad.authority(), core.PromptNever, user))
	require.NoError(t, err)
	assert.Equal(t, "at-device", res.Token.AccessToken)

	device, token := aad.counts()
	assert.Equal(t, 1, device)
	assert.Equal(t, 1, token)
}

func TestAcquireToken_PromptParameters(t *testing.T) {
	tests := []struct {
		policy     core.PromptPolicy
		wantPrompt string
	}{
		{policy: core.PromptAlways, wantPrompt: "login"},
		{policy: core.PromptRefreshSession, wantPrompt: "refresh_session"},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			aad := newFakeAAD(t)
			c := newTestClient(&recordingPrompter{})
			user := &core.UserIdentifier{ID: "alice@example.com", Type: core.RequiredDisplayableID}

			// interactive policies ignore the cache
			for i := 0; i < 2; i++ {
				res, err := c.AcquireToken(context.Background(), request(aad.authority(), tt.policy, user))
				require.NoError(t, err)
				require.True(t, res.OK())
			}

			form := aad.lastDeviceForm()
			assert.Equal(t, tt.wantPrompt, form.Get("prompt"))
			assert.Equal(t, "alice@example.com", form.Get("login_hint"))

			device, _ := aad.counts()
			assert.Equal(t, 2, device)
		})
	}
}

func TestAcquireToken_NeverWithoutCache(t *testing.T) {
	aad := newFakeAAD(t)
	prompter := &recordingPrompter{}
	c := newTestClient(prompter)

	res, err := c.AcquireToken(context.Background(), request(aad.authority(), core.PromptNever, nil))
	require.ErrorIs(t, err, core.ErrInteractionRequired)
	assert.False(t, res.OK())
	assert.Empty(t, prompter.shown())

	device, token := aad.counts()
	assert.Zero(t, device)
	assert.Zero(t, token)
}

func TestAcquireToken_RefreshExpired(t *testing.T) {
	aad := newFakeAAD(t)
	now := time.Now()
	clock := func() time.Time { return now }
	c := newTestClient(&recordingPrompter{}, withClock(clock))

	_, err := c.AcquireToken(context.Background(), request(aad.authority(), core.PromptAuto, nil))
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)

	res, err := c.AcquireToken(context.Background(), request(aad.authority(), core.PromptNever, nil))
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "at-refreshed", res.Token.AccessToken)
	require.NotNil(t, res.Token.UserInfo, "identity is carried over from the refreshed entry")
	assert.Equal(t, "alice@example.com", res.Token.UserInfo.DisplayableID)

	aad.mu.Lock()
	last := aad.tokenForms[len(aad.tokenForms)-1]
	aad.mu.Unlock()
	assert.Equal(t, "refresh_token", last.Get("grant_type"))
	assert.Equal(t, "rt-at-device", last.Get("refresh_token"))

	device, _ := aad.counts()
	assert.Equal(t, 1, device)
}

func TestAcquireToken_RefreshRejected(t *testing.T) {
	aad := newFakeAAD(t)
	aad.refresh = oauthError("invalid_grant")

	now := time.Now()
	c := newTestClient(&recordingPrompter{}, withClock(func() time.Time { return now }))

	_, err := c.AcquireToken(context.Background(), request(aad.authority(), core.PromptAuto, nil))
	require.NoError(t, err)
	now = now.Add(2 * time.Hour)

	t.Run("never", func(t *testing.T) {
		_, err := c.AcquireToken(context.Background(), request(aad.authority(), core.PromptNever, nil))
		assert.ErrorIs(t, err, core.ErrInteractionRequired)
	})

	t.Run("auto falls back to sign-in", func(t *testing.T) {
		res, err := c.AcquireToken(context.Background(), request(aad.authority(), core.PromptAuto, nil))
		require.NoError(t, err)
		assert.Equal(t, "at-device", res.Token.AccessToken)

		device, _ := aad.counts()
		assert.Equal(t, 2, device)
	})
}

func TestAcquireToken_AccessDenied(t *testing.T) {
	aad := newFakeAAD(t)
	aad.deviceToken = oauthError("access_denied")
	c := newTestClient(&recordingPrompter{})

	res, err := c.AcquireToken(context.Background(), request(aad.authority(), core.PromptAuto, nil))
	require.NoError(t, err)
	assert.Equal(t, core.StatusEmpty, res.Status)
}

func TestAcquireToken_ExpiredCode(t *testing.T) {
	aad := newFakeAAD(t)
	aad.deviceToken = oauthError("expired_token")
	c := newTestClient(&recordingPrompter{})

	_, err := c.AcquireToken(context.Background(), request(aad.authority(), core.PromptAuto, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired_token")
}

func TestAcquireToken_PromptDismissed(t *testing.T) {
	aad := newFakeAAD(t)
	c := newTestClient(&recordingPrompter{err: ErrPromptDismissed})

	res, err := c.AcquireToken(context.Background(), request(aad.authority(), core.PromptAuto, nil))
	require.NoError(t, err)
	assert.Equal(t, core.StatusEmpty, res.Status)

	_, token := aad.counts()
	assert.Zero(t, token, "no polling after the prompt was dismissed")
}

func TestAcquireToken_PrompterFailure(t *testing.T) {
	aad := newFakeAAD(t)
	boom := errors.New("terminal gone")
	c := newTestClient(&recordingPrompter{err: boom})

	_, err := c.AcquireToken(context.Background(), request(aad.authority(), core.PromptAuto, nil))
	assert.ErrorIs(t, err, boom)
}

func TestAcquireToken_NoPrompter(t *testing.T) {
	aad := newFakeAAD(t)
	c := New(WithLogger(zerolog.Nop()))

	_, err := c.AcquireToken(context.Background(), request(aad.authority(), core.PromptAuto, nil))
	assert.ErrorIs(t, err, core.ErrInteractionRequired)
}

func TestAcquireToken_IdentityMismatch(t *testing.T) {
	aad := newFakeAAD(t)
	aad.deviceToken = aad.tokenFor("mallory@example.com", "at-mallory")
	cache := tokencache.NewMemory()
	c := newTestClient(&recordingPrompter{}, WithTokenCache(cache))

	user := &core.UserIdentifier{ID: "alice@example.com", Type: core.RequiredDisplayableID}
	_, err := c.AcquireToken(context.Background(), request(aad.authority(), core.PromptAuto, user))

	var mismatch *IdentityMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "alice@example.com", mismatch.Required)
	assert.Equal(t, "mallory@example.com", mismatch.Actual)
	assert.NotContains(t, err.Error(), "mallory@example.com")

	active, err := cache.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active, "mismatched tokens are not cached")
}

func TestAcquireToken_OptionalIdentity(t *testing.T) {
	aad := newFakeAAD(t)
	aad.deviceToken = aad.tokenFor("bob@example.com", "at-bob")
	c := newTestClient(&recordingPrompter{})

	user := &core.UserIdentifier{ID: "alice@example.com", Type: core.OptionalDisplayableID}
	res, err := c.AcquireToken(context.Background(), request(aad.authority(), core.PromptAuto, user))
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", res.Token.UserInfo.DisplayableID)
	assert.Equal(t, "alice@example.com", aad.lastDeviceForm().Get("login_hint"))
}

func TestAcquireToken_UserAgent(t *testing.T) {
	aad := newFakeAAD(t)
	c := newTestClient(&recordingPrompter{})

	_, err := c.AcquireToken(context.Background(), request(aad.authority(), core.PromptAuto, nil))
	require.NoError(t, err)

	aad.mu.Lock()
	defer aad.mu.Unlock()
	require.NotEmpty(t, aad.userAgents)
	assert.True(t, strings.HasPrefix(aad.userAgents[0], "MigAz/"), aad.userAgents[0])
}

func TestEndpoint_Static(t *testing.T) {
	c := New(WithLogger(zerolog.Nop()))

	ep, err := c.endpoint(context.Background(), "https://login.example/common")
	require.NoError(t, err)
	assert.Equal(t, "https://login.example/common/oauth2/token", ep.TokenURL)
	assert.Equal(t, "https://login.example/common/oauth2/devicecode", ep.DeviceAuthURL)

	ep, err = c.endpoint(context.Background(), "https://login.example/tenant/")
	require.NoError(t, err)
	assert.Equal(t, "https://login.example/tenant/oauth2/authorize", ep.AuthURL)
}

func TestEndpoint_DiscoveryMemoized(t *testing.T) {
	aad := newFakeAAD(t)
	c := newTestClient(&recordingPrompter{}, WithDiscovery(true))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ep, err := c.endpoint(context.Background(), aad.authority())
			assert.NoError(t, err)
			assert.Equal(t, aad.srv.URL+"/tenant/oauth2/devicecode", ep.DeviceAuthURL)
		}()
	}
	wg.Wait()

	res, err := c.AcquireToken(context.Background(), request(aad.authority(), core.PromptAuto, nil))
	require.NoError(t, err)
	assert.True(t, res.OK())

	aad.mu.Lock()
	defer aad.mu.Unlock()
	assert.Equal(t, 1, aad.discoveryHits)
}

func TestEndpoint_DiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	c := newTestClient(&recordingPrompter{}, WithDiscovery(true))

	_, err := c.AcquireToken(context.Background(), request(srv.URL+"/tenant/", core.PromptAuto, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discovering endpoints")
}
