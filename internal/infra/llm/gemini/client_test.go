package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientGeneratePostsToModelEndpoint(t *testing.T) {
	var got GenerateContentRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		require.Equal(t, "secret-key", r.URL.Query().Get("key"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`))
	}))
	defer server.Close()

	client, err := NewClient(Options{
		APIKey:  "secret-key",
		BaseURL: server.URL + "/v1beta/",
		Model:   "gemini-test",
		Retry:   DefaultRetryPolicy(),
	}, newTestLogger())
	require.NoError(t, err)

	resp, err := client.Generate(context.Background(), GenerateContentRequest{
		Contents:          []Content{{Parts: []Part{{Text: "hello"}}}},
		SystemInstruction: &Content{Parts: []Part{{Text: "be kind"}}},
		GenerationConfig: GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   map[string]any{"type": "OBJECT"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, resp.Attempts)

	var envelope GenerateContentResponse
	require.NoError(t, json.Unmarshal(resp.Body, &envelope))
	require.Equal(t, "{}", envelope.FirstText())

	require.Equal(t, "hello", got.Contents[0].Parts[0].Text)
	require.Equal(t, "be kind", got.SystemInstruction.Parts[0].Text)
	require.Equal(t, "application/json", got.GenerationConfig.ResponseMimeType)
	require.Equal(t, map[string]any{"type": "OBJECT"}, got.GenerationConfig.ResponseSchema)
}

func TestClientRequiresKey(t *testing.T) {
	_, err := NewClient(Options{Model: "gemini-test"}, newTestLogger())
	require.EqualError(t, err, "gemini api key cannot be empty")
}

func TestClientTransportErrorHidesKey(t *testing.T) {
	transport := transportFunc(func(req *http.Request) (*http.Response, error) {
		return nil, &url.Error{Op: "Post", URL: req.URL.String(), Err: errors.New("connection refused")}
	})
	client, err := NewClient(Options{
		APIKey:    "super-secret",
		Model:     "gemini-test",
		Retry:     RetryPolicy{MaxAttempts: 1},
		Transport: transport,
	}, newTestLogger())
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), GenerateContentRequest{})
	require.Error(t, err)
	require.NotContains(t, err.Error(), "super-secret")
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, KindNetworkExhausted, reqErr.Kind)
}

func TestFirstTextEmptyEnvelope(t *testing.T) {
	require.Equal(t, "", GenerateContentResponse{}.FirstText())
	require.Equal(t, "", GenerateContentResponse{Candidates: []Candidate{{}}}.FirstText())
}

type transportFunc func(req *http.Request) (*http.Response, error)

func (f transportFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}
