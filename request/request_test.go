package request_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amonks/discography/request"
)

func TestFetchHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			assert.Equal(t, "discography-test", r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(`<html><body><h1>Hello</h1></body></html>`))
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	header := http.Header{"User-Agent": {"discography-test"}}

	doc, err := request.FetchHTML(ctx, srv.Client(), srv.URL+"/page", header)
	require.NoError(t, err)
	assert.Equal(t, "Hello", doc.Find("h1").Text())

	_, err = request.FetchHTML(ctx, srv.Client(), srv.URL+"/json", header)
	assert.ErrorContains(t, err, "expected an html response")

	_, err = request.FetchHTML(ctx, srv.Client(), srv.URL+"/missing", header)
	var statusErr *request.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}
