package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/studyforge/studyforge/auth"
	"github.com/studyforge/studyforge/csrf"
	"github.com/studyforge/studyforge/googleauth"
	errs "github.com/studyforge/studyforge/internal/errors"
	"github.com/studyforge/studyforge/session"
	"github.com/stretchr/testify/require"
)

const testSessionID = "session-1"

// fakeProvider records calls so tests can assert what the flow attempted.
type fakeProvider struct {
	exchangeErr   error
	userInfoErr   error
	exchangeCalls int
	profile       googleauth.Profile
}

func (f *fakeProvider) AuthCodeURL(_ context.Context, state string) (string, error) {
	return "https://provider.example.com/auth?state=" + state, nil
}

func (f *fakeProvider) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	f.exchangeCalls++
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	token := &oauth2.Token{
		AccessToken:  "access-" + code,
		RefreshToken: "refresh-" + code,
		Expiry:       time.Now().Add(time.Hour),
	}
	return token.WithExtra(map[string]interface{}{"id_token": "idtoken-" + code}), nil
}

func (f *fakeProvider) UserInfo(_ context.Context, _ *oauth2.Token) (googleauth.Profile, error) {
	if f.userInfoErr != nil {
		return googleauth.Profile{}, f.userInfoErr
	}
	return f.profile, nil
}

type fixture struct {
	sessions *session.InMemoryRepo
	states   *csrf.Manager
	provider *fakeProvider
	service  *auth.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	sessions := session.NewInMemoryRepo()
	states := csrf.NewManager(sessions)
	provider := &fakeProvider{
		profile: googleauth.Profile{
			Sub:     "google-uid-1",
			Email:   "jane@example.com",
			Name:    "Jane Doe",
			Picture: "https://example.com/jane.png",
		},
	}
	return &fixture{
		sessions: sessions,
		states:   states,
		provider: provider,
		service:  auth.NewService(provider, states, sessions),
	}
}

// initiate runs InitiateLogin and returns the issued state token.
func (f *fixture) initiate(t *testing.T) string {
	t.Helper()

	authURL, err := f.service.InitiateLogin(context.Background(), testSessionID)
	require.NoError(t, err)

	data, err := f.sessions.Get(context.Background(), testSessionID)
	require.NoError(t, err)
	require.NotEmpty(t, data.OAuthState)
	require.Contains(t, authURL, "state="+data.OAuthState)
	return data.OAuthState
}

func TestInitiateLoginUnconfigured(t *testing.T) {
	f := newFixture(t)
	service := auth.NewService(nil, f.states, f.sessions)

	_, err := service.InitiateLogin(context.Background(), testSessionID)
	require.ErrorIs(t, err, errs.ErrNotConfigured)
}

func TestHandleCallbackSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	state := f.initiate(t)

	err := f.service.HandleCallback(ctx, testSessionID, "code-abc", state, "")
	require.NoError(t, err)

	data, err := f.sessions.Get(ctx, testSessionID)
	require.NoError(t, err)
	require.True(t, data.Authenticated())
	require.Equal(t, "google-uid-1", data.User.UID)
	require.Equal(t, "jane@example.com", data.User.Email)
	require.Equal(t, "Jane Doe", data.User.DisplayName)
	require.Equal(t, "access-code-abc", data.Tokens.AccessToken)
	require.Equal(t, "idtoken-code-abc", data.Tokens.IDToken)
	require.Empty(t, data.OAuthState)
}

func TestHandleCallbackProviderErrorSkipsStateCheck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	state := f.initiate(t)

	err := f.service.HandleCallback(ctx, testSessionID, "", "", "access_denied")
	require.ErrorIs(t, err, errs.ErrProviderError)
	require.Zero(t, f.provider.exchangeCalls)

	// The state token was not consumed by the aborted callback.
	data, err := f.sessions.Get(ctx, testSessionID)
	require.NoError(t, err)
	require.Equal(t, state, data.OAuthState)
}

func TestHandleCallbackStateMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.initiate(t)

	err := f.service.HandleCallback(ctx, testSessionID, "code-abc", "forged-state", "")
	require.ErrorIs(t, err, errs.ErrStateMismatch)
	require.Zero(t, f.provider.exchangeCalls)
}

func TestHandleCallbackWithoutIssuedState(t *testing.T) {
	f := newFixture(t)

	err := f.service.HandleCallback(context.Background(), testSessionID, "abc", "X", "")
	require.ErrorIs(t, err, errs.ErrStateMismatch)
}

func TestHandleCallbackReplayFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	state := f.initiate(t)

	require.NoError(t, f.service.HandleCallback(ctx, testSessionID, "code-abc", state, ""))

	// A second callback presenting the same state must fail: the token was
	// consumed by the first attempt.
	err := f.service.HandleCallback(ctx, testSessionID, "code-abc", state, "")
	require.ErrorIs(t, err, errs.ErrStateMismatch)
	require.Equal(t, 1, f.provider.exchangeCalls)
}

func TestHandleCallbackMissingCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	state := f.initiate(t)

	err := f.service.HandleCallback(ctx, testSessionID, "", state, "")
	require.ErrorIs(t, err, errs.ErrMissingAuthCode)
	require.Zero(t, f.provider.exchangeCalls)
}

func TestHandleCallbackExchangeFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	state := f.initiate(t)
	f.provider.exchangeErr = errs.Wrapf(errs.ErrTokenExchange, "invalid_grant")

	err := f.service.HandleCallback(ctx, testSessionID, "used-code", state, "")
	require.ErrorIs(t, err, errs.ErrTokenExchange)

	data, err := f.sessions.Get(ctx, testSessionID)
	require.NoError(t, err)
	require.False(t, data.Authenticated())
}

func TestHandleCallbackUserInfoFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	state := f.initiate(t)
	f.provider.userInfoErr = errors.New("userinfo unavailable")

	err := f.service.HandleCallback(ctx, testSessionID, "code-abc", state, "")
	require.Error(t, err)

	data, err := f.sessions.Get(ctx, testSessionID)
	require.NoError(t, err)
	require.False(t, data.Authenticated())
}

func TestLogoutKeepsWorkflowState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	state := f.initiate(t)
	require.NoError(t, f.service.HandleCallback(ctx, testSessionID, "code-abc", state, ""))

	require.NoError(t, f.sessions.Update(ctx, testSessionID, func(d *session.Data) error {
		d.DocumentText = "Paris is the capital of France."
		return nil
	}))

	require.NoError(t, f.service.Logout(ctx, testSessionID))

	data, err := f.sessions.Get(ctx, testSessionID)
	require.NoError(t, err)
	require.False(t, data.Authenticated())
	require.Nil(t, data.Tokens)
	require.Equal(t, "Paris is the capital of France.", data.DocumentText)
}
