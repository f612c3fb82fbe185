package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_statusHandler(t *testing.T) {
	srv, _ := testServer(t, pagedSource(1), allowAll())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", http.NoBody)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, "test", status["version"])
	assert.NotEmpty(t, status["time"])
}

func TestServer_feedStateHandler(t *testing.T) {
	get := func(t *testing.T, srv *Server, cookie *http.Cookie, target string) (int, feedResponse) {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)
		var resp feedResponse
		if w.Code == http.StatusOK {
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		}
		return w.Code, resp
	}

	t.Run("not logged in", func(t *testing.T) {
		srv, _ := testServer(t, pagedSource(2), allowAll())
		code, _ := get(t, srv, nil, "/api/v1/feed")
		assert.Equal(t, http.StatusUnauthorized, code)

		code, _ = get(t, srv, &http.Cookie{Name: sessionCookie, Value: "unknown"}, "/api/v1/feed")
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("snapshot from offset", func(t *testing.T) {
		src := pagedSource(2)
		srv, _ := testServer(t, src, allowAll())
		cookie := login(t, srv)

		code, resp := get(t, srv, cookie, "/api/v1/feed?from=1")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, 1, resp.From)
		assert.Equal(t, 2, resp.Total)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "a1", resp.Items[0].ArticleID)
		assert.Equal(t, "idle", resp.Phase)
		assert.False(t, resp.Exhausted)
		assert.Empty(t, resp.Error)
		assert.Len(t, src.FetchCalls(), 1, "snapshot doesn't load")
	})

	t.Run("load next batch", func(t *testing.T) {
		src := pagedSource(2)
		srv, _ := testServer(t, src, allowAll())
		cookie := login(t, srv)

		code, resp := get(t, srv, cookie, "/api/v1/feed?from=2&load=true")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, 4, resp.Total)
		require.Len(t, resp.Items, 2)
		assert.Equal(t, "a2", resp.Items[0].ArticleID)
		assert.Equal(t, "exhausted", resp.Phase)
		assert.True(t, resp.Exhausted)

		// exhausted feed ignores further loads
		code, resp = get(t, srv, cookie, "/api/v1/feed?from=4&load=true")
		require.Equal(t, http.StatusOK, code)
		assert.Empty(t, resp.Items)
		assert.Len(t, src.FetchCalls(), 2)
	})

	t.Run("invalid from", func(t *testing.T) {
		srv, _ := testServer(t, pagedSource(2), allowAll())
		cookie := login(t, srv)
		for _, target := range []string{"/api/v1/feed?from=abc", "/api/v1/feed?from=-1"} {
			code, _ := get(t, srv, cookie, target)
			assert.Equal(t, http.StatusBadRequest, code, target)
		}
	})
}

func TestFromParam(t *testing.T) {
	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{query: "", want: 0},
		{query: "from=0", want: 0},
		{query: "from=12", want: 12},
		{query: "from=-3", wantErr: true},
		{query: "from=x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/feed/more?"+tt.query, http.NoBody)
			got, err := fromParam(req)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
