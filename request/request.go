// Package request holds small helpers shared by the http clients.
package request

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httputil"

	"github.com/PuerkitoBio/goquery"
)

// FetchHTML does an HTTP GET on the given URL, then parses the response as
// HTML.
func FetchHTML(ctx context.Context, client *http.Client, url string, header http.Header) (*goquery.Document, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error building request for '%s': %w", url, err)
	}
	for k, vs := range header {
		req.Header[k] = vs
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching '%s': %w", url, err)
	}
	defer resp.Body.Close()
	if err := Error(resp); err != nil {
		return nil, fmt.Errorf("unexpected status from '%s': %w", url, err)
	}

	if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mediaType != "text/html" {
		return nil, fmt.Errorf("expected an html response at '%s', but got '%s'", url, resp.Header.Get("Content-Type"))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error parsing html from '%s': %w", url, err)
	}

	return doc, nil
}

// DecodeJSON checks resp for an error status, then decodes its body into v.
func DecodeJSON(resp *http.Response, v any) error {
	if err := Error(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("error decoding json: %w", err)
	}
	return nil
}

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
	Dump string
}

func (e *StatusError) Error() string {
	if e.Dump == "" {
		return fmt.Sprintf("http status code %d", e.Code)
	}
	return fmt.Sprintf("http status code %d:\n%s", e.Code, e.Dump)
}

// Error checks the given http response for an error code, and, if one is
// present, reads the body and returns a friendly *StatusError.
func Error(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bs, err := httputil.DumpResponse(resp, true)
		if err != nil {
			return fmt.Errorf("error decoding body: %w", &StatusError{Code: resp.StatusCode})
		}
		return &StatusError{Code: resp.StatusCode, Dump: string(bs)}
	}
	return nil
}

// Drain discards the rest of a body so the connection can be reused.
func Drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
