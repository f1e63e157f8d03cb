package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/icpledger/internal/access"
	"github.com/MrJamesThe3rd/icpledger/internal/auth"
	"github.com/MrJamesThe3rd/icpledger/internal/export"
	icpHttp "github.com/MrJamesThe3rd/icpledger/internal/http"
	accessHandler "github.com/MrJamesThe3rd/icpledger/internal/http/access"
	exportHandler "github.com/MrJamesThe3rd/icpledger/internal/http/export"
	"github.com/MrJamesThe3rd/icpledger/internal/http/httputil"
	"github.com/MrJamesThe3rd/icpledger/internal/http/importcsv"
	ledgerHandler "github.com/MrJamesThe3rd/icpledger/internal/http/ledger"
	personHandler "github.com/MrJamesThe3rd/icpledger/internal/http/person"
	"github.com/MrJamesThe3rd/icpledger/internal/importer"
	"github.com/MrJamesThe3rd/icpledger/internal/ledger"
	"github.com/MrJamesThe3rd/icpledger/internal/memstore"
	"github.com/MrJamesThe3rd/icpledger/internal/metrics"
	"github.com/MrJamesThe3rd/icpledger/internal/person"
)

const (
	jwtSecret   = "jwt-secret"
	adminSecret = "admin-secret"
)

func TestMain(m *testing.M) {
	decimal.MarshalJSONWithoutQuotes = true

	os.Exit(m.Run())
}

type server struct {
	handler http.Handler
	tokens  map[access.Principal]string
}

func newServer(t *testing.T) *server {
	t.Helper()

	store := memstore.New()
	accessSvc := access.NewService(store, adminSecret)
	personSvc := person.NewService(store, accessSvc)
	ledgerSvc := ledger.NewService(store, accessSvc)

	reg := prometheus.NewRegistry()

	h := icpHttp.New(
		icpHttp.Options{
			JWTSecret: []byte(jwtSecret),
			Metrics:   metrics.New(reg),
			Gatherer:  reg,
		},
		personHandler.NewHandler(personSvc, ledgerSvc),
		ledgerHandler.NewHandler(ledgerSvc),
		accessHandler.NewHandler(accessSvc),
		importcsv.NewHandler(importer.NewService(), ledgerSvc),
		exportHandler.NewHandler(export.NewService(ledgerSvc)),
	)

	s := &server{handler: h, tokens: map[access.Principal]string{}}

	for _, p := range []access.Principal{"admin", "user"} {
		tok, err := auth.Issue([]byte(jwtSecret), p, time.Hour)
		require.NoError(t, err)

		s.tokens[p] = tok
	}

	return s
}

type request struct {
	method      string
	path        string
	as          access.Principal
	bootstrap   bool
	body        io.Reader
	contentType string
}

func (s *server) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()

	r := httptest.NewRequest(req.method, req.path, req.body)
	if req.body != nil {
		ct := req.contentType
		if ct == "" {
			ct = "application/json"
		}

		r.Header.Set("Content-Type", ct)
	}

	if req.as != access.Anonymous {
		r.Header.Set("Authorization", "Bearer "+s.tokens[req.as])
	}

	if req.bootstrap {
		r.Header.Set(httputil.HeaderAdminToken, adminSecret)
		r.Header.Set(httputil.HeaderUserToken, adminSecret)
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) any {
	t.Helper()

	var v any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())

	return v
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

func TestRouter_PersonsAndEntries(t *testing.T) {
	s := newServer(t)

	// Mutations need an identity, then an admin.
	w := s.do(t, request{method: http.MethodPost, path: "/api/v1/persons", body: jsonBody(`{"name":"Alice"}`)})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, request{method: http.MethodPost, path: "/api/v1/persons", as: "user", body: jsonBody(`{"name":"Alice"}`)})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, request{method: http.MethodPost, path: "/api/v1/persons", as: "admin", bootstrap: true, body: jsonBody(`{"name":"Alice"}`)})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode(t, w).(map[string]any)
	assert.EqualValues(t, 1, created["id"])
	assert.Equal(t, "Alice", created["name"])

	// The bootstrap consumed the tokens; the stored role is enough from now on.
	w = s.do(t, request{method: http.MethodPost, path: "/api/v1/entries", as: "admin",
		body: jsonBody(`{"person_id":1,"icp_amount":10,"icp_token_value":5.0,"received":{"day":5,"month":1,"year":2024}}`)})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	entry := decode(t, w).(map[string]any)
	assert.EqualValues(t, 50, entry["income_value"])
	assert.EqualValues(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC).UnixNano(), entry["date"])

	recent := time.Now().Add(-24 * time.Hour).UnixNano()
	w = s.do(t, request{method: http.MethodPost, path: "/api/v1/entries", as: "admin",
		body: jsonBody(`{"person_id":1,"icp_amount":"2.5","icp_token_value":4,"date":` + jsonInt(recent) + `}`)})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/persons/1/total"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 60, decode(t, w).(map[string]any)["total"])

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/persons/1/rolling-30d"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 10, decode(t, w).(map[string]any)["total"])

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/entries/summary?person_id=1"})
	require.Equal(t, http.StatusOK, w.Code)

	summary := decode(t, w).(map[string]any)
	assert.EqualValues(t, 2, summary["count"])
	assert.EqualValues(t, 30, summary["average"])

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/persons/1/entries"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w), 2)

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/entries/export.csv?person_id=1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "income-entries-person-1.csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "Date,ICP Amount,Token Value,Income\n2024-01-05,10.00,5.00,50.00\n"))

	// Invalid input and unknown references.
	w = s.do(t, request{method: http.MethodPost, path: "/api/v1/entries", as: "admin",
		body: jsonBody(`{"person_id":1,"icp_amount":0,"icp_token_value":5,"date":1}`)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, request{method: http.MethodPost, path: "/api/v1/entries", as: "admin",
		body: jsonBody(`{"person_id":1,"icp_amount":1,"icp_token_value":5,"received":{"day":31,"month":2,"year":2024}}`)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, request{method: http.MethodPost, path: "/api/v1/entries", as: "admin",
		body: jsonBody(`{"person_id":99,"icp_amount":1,"icp_token_value":5,"date":1}`)})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Deleting the person removes its entries.
	w = s.do(t, request{method: http.MethodDelete, path: "/api/v1/persons/1", as: "admin"})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/persons/1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w))

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/entries/total"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w).(map[string]any)["total"])

	w = s.do(t, request{method: http.MethodDelete, path: "/api/v1/persons/1", as: "admin"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_DeleteEntry(t *testing.T) {
	s := newServer(t)

	w := s.do(t, request{method: http.MethodPost, path: "/api/v1/persons", as: "admin", bootstrap: true, body: jsonBody(`{"name":"Bob"}`)})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, request{method: http.MethodPost, path: "/api/v1/entries", as: "admin",
		body: jsonBody(`{"person_id":1,"icp_amount":1,"icp_token_value":1,"date":1000}`)})
	require.Equal(t, http.StatusCreated, w.Code)

	ts := int64(decode(t, w).(map[string]any)["timestamp"].(float64))

	w = s.do(t, request{method: http.MethodDelete, path: "/api/v1/entries/" + jsonInt(ts), as: "user"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/entries"})
	require.Equal(t, http.StatusOK, w.Code)

	entries := decode(t, w).([]any)
	require.Len(t, entries, 1)

	listed := int64(entries[0].(map[string]any)["timestamp"].(float64))

	w = s.do(t, request{method: http.MethodDelete, path: "/api/v1/entries/" + jsonInt(listed), as: "admin"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, request{method: http.MethodDelete, path: "/api/v1/entries/not-a-number", as: "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Import(t *testing.T) {
	s := newServer(t)

	w := s.do(t, request{method: http.MethodPost, path: "/api/v1/persons", as: "admin", bootstrap: true, body: jsonBody(`{"name":"Carol"}`)})
	require.Equal(t, http.StatusCreated, w.Code)

	upload := func(content string) *httptest.ResponseRecorder {
		var buf bytes.Buffer

		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "entries.csv")
		require.NoError(t, err)

		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		return s.do(t, request{
			method:      http.MethodPost,
			path:        "/api/v1/persons/1/import",
			as:          "admin",
			body:        &buf,
			contentType: mw.FormDataContentType(),
		})
	}

	csv := "Date,ICP Amount,Token Value,Income\n2024-01-05,10.00,5.00,50.00\n2024-01-06,1.00,2.00,2.00\n"

	w = upload(csv)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.EqualValues(t, 2, decode(t, w).(map[string]any)["imported"])

	// Re-importing the same file plus one new row is reported, not written.
	w = upload(csv + "2024-01-07,3.00,1.00,3.00\n")
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	conflict := decode(t, w).(map[string]any)
	assert.Len(t, conflict["conflicts"], 2)
	require.Len(t, conflict["new"], 1)

	newRows, err := json.Marshal(map[string]any{"params": conflict["new"]})
	require.NoError(t, err)

	w = s.do(t, request{method: http.MethodPost, path: "/api/v1/persons/1/import/confirm", as: "admin", body: bytes.NewReader(newRows)})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/persons/1/total"})
	assert.EqualValues(t, 55, decode(t, w).(map[string]any)["total"])

	w = upload("not,a,ledger\n1,2,3\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_ImportChecksAuthorizationFirst(t *testing.T) {
	s := newServer(t)

	w := s.do(t, request{method: http.MethodPost, path: "/api/v1/persons", as: "admin", bootstrap: true, body: jsonBody(`{"name":"Carol"}`)})
	require.Equal(t, http.StatusCreated, w.Code)

	// The body is not multipart, so reaching the parser would answer 400.
	for _, tc := range []struct {
		name string
		as   access.Principal
		want int
	}{
		{name: "anonymous", as: access.Anonymous, want: http.StatusUnauthorized},
		{name: "user", as: "user", want: http.StatusForbidden},
		{name: "admin", as: "admin", want: http.StatusBadRequest},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(t, request{
				method:      http.MethodPost,
				path:        "/api/v1/persons/1/import",
				as:          tc.as,
				body:        strings.NewReader("garbage"),
				contentType: "text/plain",
			})
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestRouter_Access(t *testing.T) {
	s := newServer(t)

	w := s.do(t, request{method: http.MethodGet, path: "/api/v1/me/role"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "guest", decode(t, w).(map[string]any)["role"])

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/me/profile", as: "user"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w))

	w = s.do(t, request{method: http.MethodPut, path: "/api/v1/me/profile", as: "user", body: jsonBody(`{"name":"  Uma "}`)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Uma", decode(t, w).(map[string]any)["name"])

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/me/role", as: "user"})
	assert.Equal(t, "user", decode(t, w).(map[string]any)["role"])

	// Saving a profile with the right tokens bootstraps the admin.
	w = s.do(t, request{method: http.MethodPut, path: "/api/v1/me/profile", as: "admin", bootstrap: true, body: jsonBody(`{"name":"Ada"}`)})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/me/admin", as: "admin"})
	assert.Equal(t, true, decode(t, w).(map[string]any)["is_admin"])

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/users/user/profile"})
	assert.Equal(t, "Uma", decode(t, w).(map[string]any)["name"])

	w = s.do(t, request{method: http.MethodPut, path: "/api/v1/users/user/role", as: "user", body: jsonBody(`{"role":"admin"}`)})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, request{method: http.MethodPut, path: "/api/v1/users/user/role", as: "admin", body: jsonBody(`{"role":"superuser"}`)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, request{method: http.MethodPut, path: "/api/v1/users/user/role", as: "admin", body: jsonBody(`{"role":"admin"}`)})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/me/admin", as: "user"})
	assert.Equal(t, true, decode(t, w).(map[string]any)["is_admin"])
}

func TestRouter_Infrastructure(t *testing.T) {
	s := newServer(t)

	w := s.do(t, request{method: http.MethodGet, path: "/healthz"})
	assert.Equal(t, http.StatusOK, w.Code)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/persons", nil)
	r.Header.Set("Authorization", "Bearer forged")

	w = httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, request{method: http.MethodGet, path: "/api/v1/persons"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decode(t, w))

	w = s.do(t, request{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `path="/api/v1/persons`)
	assert.Contains(t, w.Body.String(), `status="Unauthorized"`)
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
