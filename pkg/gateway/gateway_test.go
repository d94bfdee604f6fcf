// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recordgate/recordgate/pkg/errors"
	"github.com/recordgate/recordgate/pkg/oauth"
	"github.com/recordgate/recordgate/pkg/objstore"
	"github.com/recordgate/recordgate/pkg/records"
	"github.com/recordgate/recordgate/pkg/session"
)

const authorizeURL = "https://login.example.com/services/oauth2/authorize?client_id=x"

// stubProvider satisfies oauth.IdentityProvider.
type stubProvider struct {
	ident *oauth.Identity
	err   error
}

func (*stubProvider) AuthorizationURL() string { return authorizeURL }

func (s *stubProvider) ExchangeCode(context.Context, string) (*oauth.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ident, nil
}

// fakeObject pairs metadata with body bytes.
type fakeObject struct {
	info *objstore.ObjectInfo
	body string
}

// fakeStore is an in-memory objstore.Store that counts calls.
type fakeStore struct {
	objects   map[string]fakeObject
	statCalls int
	getCalls  int
}

func (f *fakeStore) StatObject(_ context.Context, key string) (*objstore.ObjectInfo, error) {
	f.statCalls++
	obj, ok := f.objects[key]
	if !ok {
		return nil, errors.NewObjectNotFoundError("no object for key "+key, nil)
	}
	return obj.info, nil
}

func (f *fakeStore) GetObject(_ context.Context, key string) (io.ReadCloser, error) {
	f.getCalls++
	obj, ok := f.objects[key]
	if !ok {
		return nil, errors.NewObjectNotFoundError("no object for key "+key, nil)
	}
	return io.NopCloser(strings.NewReader(obj.body)), nil
}

// fakeRetriever records the permission check it was asked to perform.
type fakeRetriever struct {
	err     error
	calls   int
	gotType string
	gotID   string
	gotCred records.Credential
}

func (f *fakeRetriever) Retrieve(_ context.Context, recordType, recordID string) error {
	f.calls++
	f.gotType = recordType
	f.gotID = recordID
	return f.err
}

type fixture struct {
	handler   http.Handler
	sessions  *session.Manager
	store     *fakeStore
	retriever *fakeRetriever
	provider  *stubProvider
}

func pdfObject() fakeObject {
	return fakeObject{
		info: &objstore.ObjectInfo{
			ContentType:   "application/pdf",
			ContentLength: 10,
			Metadata: map[string]string{
				"sfdc-linked-entity-id":       "001xx000003DGbQAAU",
				"sfdc-linked-entity-api-name": "Account",
			},
		},
		body: "pdf-bytes!",
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	sessions := session.NewManager(session.NewLocalStorage(), []byte("test-secret"), time.Hour, false)
	t.Cleanup(func() { require.NoError(t, sessions.Stop()) })

	provider := &stubProvider{ident: &oauth.Identity{
		AccessToken: "00Dtoken",
		InstanceURL: "https://na1.example.com",
		UserID:      "005xx000001Sv6A",
	}}
	store := &fakeStore{objects: map[string]fakeObject{
		"001xx000003DGbQAAU/report.pdf": pdfObject(),
	}}
	retriever := &fakeRetriever{}

	f := &fixture{
		sessions:  sessions,
		store:     store,
		retriever: retriever,
		provider:  provider,
	}
	f.handler = Router(Config{
		Sessions: sessions,
		Flow:     oauth.NewFlow(provider, sessions),
		Store:    store,
		NewRetriever: func(cred records.Credential) records.Retriever {
			retriever.gotCred = cred
			return retriever
		},
		APIVersion: "58.0",
	})
	return f
}

func (f *fixture) do(r *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		r.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, r)
	return rec
}

// authenticate runs the unauthenticated-download + callback journey and
// returns the session cookies of an authenticated session.
func (f *fixture) authenticate(t *testing.T, downloadURL string) []*http.Cookie {
	t.Helper()

	rec := f.do(httptest.NewRequest(http.MethodGet, downloadURL, nil), nil)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, authorizeURL, rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/auth/callback?code=authcode-1", nil), cookies)
	require.Equal(t, http.StatusFound, rec.Code)
	require.True(t, strings.HasSuffix(rec.Header().Get("Location"), downloadURL))

	return cookies
}

const downloadPath = "/download?url=https%3A%2F%2Ffiles.example.com%2F001xx000003DGbQAAU%2Freport.pdf"

func TestDownloadUnauthenticatedRedirectsToProvider(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, downloadPath, nil), nil)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, authorizeURL, rec.Header().Get("Location"))
	assert.Zero(t, f.store.statCalls)
	assert.Zero(t, f.retriever.calls)

	// The new session carries the originally requested URL as pending redirect.
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	sess, isNew, err := f.sessions.GetOrCreate(context.Background(), r)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, "http://"+r.Host+downloadPath, f.sessions.PendingRedirect(sess))
}

func TestCallbackCompletesAuthAndRedirectsBack(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, downloadPath, nil), nil)
	require.Equal(t, http.StatusFound, rec.Code)
	cookies := rec.Result().Cookies()

	rec = f.do(httptest.NewRequest(http.MethodGet, "/auth/callback?code=authcode-1", nil), cookies)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, strings.HasSuffix(rec.Header().Get("Location"), downloadPath))

	// Session is now authenticated and the pending redirect is consumed.
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	sess, _, err := f.sessions.GetOrCreate(context.Background(), r)
	require.NoError(t, err)
	assert.True(t, sess.Authenticated())
	assert.Equal(t, "005xx000001Sv6A", sess.UserID)
	assert.Empty(t, f.sessions.PendingRedirect(sess))
}

func TestCallbackMissingCode(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, downloadPath, nil), nil)
	cookies := rec.Result().Cookies()

	rec = f.do(httptest.NewRequest(http.MethodGet, "/auth/callback", nil), cookies)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCallbackWithoutPendingRedirect(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	// Fresh session, no prior /download: protocol violation.
	rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/callback?code=authcode-1", nil), nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCallbackExchangeFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.provider.err = errors.NewProviderExchangeFailedError("invalid_grant", nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, downloadPath, nil), nil)
	cookies := rec.Result().Cookies()

	rec = f.do(httptest.NewRequest(http.MethodGet, "/auth/callback?code=used-code", nil), cookies)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// Provider detail stays server-side.
	assert.NotContains(t, rec.Body.String(), "invalid_grant")
}

func TestDownloadAllowedStreamsObject(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	cookies := f.authenticate(t, downloadPath)

	rec := f.do(httptest.NewRequest(http.MethodGet, downloadPath, nil), cookies)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename=report.pdf`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "10", rec.Header().Get("Content-Length"))
	assert.Equal(t, "pdf-bytes!", rec.Body.String())

	// Permission was checked with the session's credential before delivery.
	assert.Equal(t, 1, f.retriever.calls)
	assert.Equal(t, "Account", f.retriever.gotType)
	assert.Equal(t, "001xx000003DGbQAAU", f.retriever.gotID)
	assert.Equal(t, "00Dtoken", f.retriever.gotCred.AccessToken)
	assert.Equal(t, "https://na1.example.com", f.retriever.gotCred.InstanceURL)
	assert.Equal(t, "58.0", f.retriever.gotCred.APIVersion)
}

func TestDownloadDeniedSendsNoBytes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.retriever.err = errors.NewPermissionDeniedError("refused", nil)
	cookies := f.authenticate(t, downloadPath)

	rec := f.do(httptest.NewRequest(http.MethodGet, downloadPath, nil), cookies)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, f.store.getCalls, "no object bytes may be fetched after a denial")
	assert.NotContains(t, rec.Body.String(), "report.pdf")
}

func TestDownloadObjectNotFoundSkipsPermissionCheck(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	cookies := f.authenticate(t, "/download?url=https%3A%2F%2Ffiles.example.com%2Fmissing%2Fnope.pdf")

	rec := f.do(httptest.NewRequest(http.MethodGet, "/download?url=https%3A%2F%2Ffiles.example.com%2Fmissing%2Fnope.pdf", nil), cookies)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, f.retriever.calls, "no permission check for absent objects")
	assert.Zero(t, f.store.getCalls)
}

func TestDownloadKeyMismatchFailsClosed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	obj := pdfObject()
	obj.info.Metadata["sfdc-linked-entity-id"] = "001xxDIFFERENT"
	f.store.objects["001xx000003DGbQAAU/report.pdf"] = obj
	cookies := f.authenticate(t, downloadPath)

	rec := f.do(httptest.NewRequest(http.MethodGet, downloadPath, nil), cookies)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Zero(t, f.retriever.calls)
	assert.Zero(t, f.store.getCalls, "no bytes may be streamed when the key shape is inconsistent")
}

func TestDownloadMissingURLParameter(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	cookies := f.authenticate(t, downloadPath)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/download", nil), cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadEscapesFilenameInDisposition(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	obj := pdfObject()
	key := `001xx000003DGbQAAU/re"port.pdf`
	f.store.objects[key] = obj

	path := "/download?url=" + "https%3A%2F%2Ffiles.example.com%2F001xx000003DGbQAAU%2Fre%22port.pdf"
	cookies := f.authenticate(t, path)

	rec := f.do(httptest.NewRequest(http.MethodGet, path, nil), cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	disposition := rec.Header().Get("Content-Disposition")
	assert.Contains(t, disposition, "attachment")
	assert.NotContains(t, disposition, `re"port`, "raw quote must not appear unescaped")
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
