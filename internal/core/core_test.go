package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePromptPolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    PromptPolicy
		wantErr bool
	}{
		{input: "", want: PromptAuto},
		{input: "auto", want: PromptAuto},
		{input: "Always", want: PromptAlways},
		{input: " never ", want: PromptNever},
		{input: "refresh-session", want: PromptRefreshSession},
		{input: "RefreshSession", want: PromptRefreshSession},
		{input: "sometimes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePromptPolicy(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.IsValid())
		})
	}
}

func TestPromptPolicy_String(t *testing.T) {
	assert.Equal(t, "auto", PromptAuto.String())
	assert.Equal(t, "refresh_session", PromptRefreshSession.String())
	assert.Equal(t, "PromptPolicy(42)", PromptPolicy(42).String())
	assert.False(t, PromptPolicy(42).IsValid())
}

func TestEnvironment_Equal(t *testing.T) {
	a := Environment{Name: "x", AuthorityURL: "https://login.example/", DefaultDirectory: "common"}
	b := a
	assert.True(t, a.Equal(b))

	b.AuthorityURL = "https://login.other/"
	assert.False(t, a.Equal(b))

	c := a
	c.DefaultDirectory = "organizations"
	assert.False(t, a.Equal(c))
}

func TestEnvironment_Authorities(t *testing.T) {
	env := Environment{Name: "x", AuthorityURL: "https://login.example/", DefaultDirectory: "common"}
	assert.Equal(t, "https://login.example/common", env.DefaultAuthority())
	assert.Equal(t, "https://login.example/11111111-1111-1111-1111-111111111111/",
		env.TenantAuthority("11111111-1111-1111-1111-111111111111"))
}

func TestEnvironment_Validate(t *testing.T) {
	for _, env := range PredefinedEnvironments() {
		assert.NoError(t, env.Validate(), env.Name)
	}

	missingSlash := AzureCloud
	missingSlash.AuthorityURL = "https://login.microsoftonline.com"
	assert.Error(t, missingSlash.Validate())

	badScheme := AzureCloud
	badScheme.AuthorityURL = "ftp://login.example/"
	assert.Error(t, badScheme.Validate())

	noDir := AzureCloud
	noDir.DefaultDirectory = ""
	assert.Error(t, noDir.Validate())
}

func TestLookupEnvironment(t *testing.T) {
	env, ok := LookupEnvironment("azurechinacloud")
	require.True(t, ok)
	assert.Equal(t, AzureChinaCloud, env)

	_, ok = LookupEnvironment("moon")
	assert.False(t, ok)
}

func TestRedactIdentity(t *testing.T) {
	assert.Equal(t, "a***@example.com", RedactIdentity("alice@example.com"))
	assert.Equal(t, "*@example.com", RedactIdentity("a@example.com"))
	assert.Equal(t, "b***", RedactIdentity("bob"))
	assert.Equal(t, "N/A", RedactIdentity(""))

	var nilUser *UserInfo
	assert.Equal(t, "N/A", nilUser.Redacted())
}

func TestUserIdentifier_Matches(t *testing.T) {
	info := &UserInfo{DisplayableID: "Alice@Example.com", UniqueID: "oid-1"}

	assert.True(t, UserIdentifier{ID: "alice@example.com", Type: RequiredDisplayableID}.Matches(info))
	assert.False(t, UserIdentifier{ID: "bob@example.com", Type: RequiredDisplayableID}.Matches(info))
	assert.True(t, UserIdentifier{ID: "oid-1", Type: UniqueID}.Matches(info))
	assert.False(t, UserIdentifier{ID: "alice@example.com"}.Matches(nil))
}

func TestResult(t *testing.T) {
	assert.False(t, Empty().OK())
	assert.Equal(t, "empty", Empty().Status.String())

	r := Success(TokenResult{AccessToken: "abc"})
	assert.True(t, r.OK())
	assert.Equal(t, "abc", r.Token.AccessToken)
}
