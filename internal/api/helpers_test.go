package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/pulse-api/internal/api"
	"github.com/phrazzld/pulse-api/internal/mocks"
	"github.com/phrazzld/pulse-api/internal/service"
	"github.com/phrazzld/pulse-api/internal/service/auth"
	"github.com/phrazzld/pulse-api/internal/store"
	"github.com/stretchr/testify/require"
)

const accountBody = `{
	"Name": "Sara",
	"Family": "Ahmadi",
	"FatherName": "Reza",
	"Phone": "12345678901",
	"Password": "longpassword1",
	"NationalCode": "1234567890",
	"Gender": 2,
	"Address": "Tehran",
	"TosAgreement": true
}`

const checkBody = `{
	"Protocol": "https",
	"Method": "get",
	"Website": "example.com/health",
	"StatusCode": [200],
	"Timeout": 3
}`

type testServer struct {
	handler http.Handler
	records *mocks.MockRecordStore
}

func newTestServer(t *testing.T, cfg api.RouterConfig, opts ...service.Option) *testServer {
	t.Helper()

	records := mocks.NewMockRecordStore()
	hasher, err := auth.NewHasher(auth.AlgorithmHMACSHA256, "test-secret")
	require.NoError(t, err)

	locks := store.NewKeyedMutex()
	accountStore := store.NewAccountCollection(records)
	sessionStore := store.NewSessionCollection(records)
	checkStore := store.NewCheckCollection(records)

	sessions, err := service.NewSessionService(sessionStore, accountStore, hasher, locks, nil, opts...)
	require.NoError(t, err)
	accounts, err := service.NewAccountService(accountStore, checkStore, sessions, hasher, locks, nil, opts...)
	require.NoError(t, err)
	checks, err := service.NewCheckService(checkStore, accountStore, sessions, locks, nil, opts...)
	require.NoError(t, err)

	cfg.Accounts = accounts
	cfg.Sessions = sessions
	cfg.Checks = checks
	handler, err := api.NewRouter(cfg)
	require.NoError(t, err)

	return &testServer{handler: handler, records: records}
}

// do sends a request and returns the recorder. An empty token sends no
// session header.
func (s *testServer) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set(api.HeaderSession, token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

// login registers the standard account and returns a session token.
func (s *testServer) login(t *testing.T) string {
	t.Helper()

	w := s.do(t, http.MethodPost, "/account", "", accountBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/session", "", `{"Phone":"12345678901","Password":"longpassword1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var session struct{ SessionID string }
	decode(t, w, &session)
	require.Len(t, session.SessionID, 20)
	return session.SessionID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	decode(t, w, &resp)
	return resp.Error
}

// doWithHeader sends a bodyless request carrying one header.
func (s *testServer) doWithHeader(t *testing.T, method, target, header, value string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	req.Header.Set(header, value)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}
