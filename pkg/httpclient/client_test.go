package httpclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	errs "redditdl/pkg/errors"
	"redditdl/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

func newMockHTTPClient(handler func(req *http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{Transport: &mockRoundTripper{handler: handler}}
}

func TestGetSendsHeaders(t *testing.T) {
	var gotUA, gotCustom string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Test")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "redditdl-test/1.0", logger.NewTestLogger())
	client.SetHeader("X-Test", "yes")

	body, _, err := client.GetBody(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "redditdl-test/1.0", gotUA)
	assert.Equal(t, "yes", gotCustom)
}

func TestDefaultUserAgent(t *testing.T) {
	client := NewClient(time.Second, "", nil)
	assert.Equal(t, DefaultUserAgent, client.headers["User-Agent"])
}

func TestGetStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   errs.ErrorType
	}{
		{http.StatusNotFound, errs.ErrorTypeNotFound},
		{http.StatusForbidden, errs.ErrorTypeHTTP},
		{http.StatusTooManyRequests, errs.ErrorTypeRateLimit},
		{http.StatusBadGateway, errs.ErrorTypeServerError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			log := logger.NewTestLogger()
			client := NewClient(5*time.Second, "", log)

			_, err := client.Get(context.Background(), server.URL+"/r/pics.json")
			require.Error(t, err)

			var typed *errs.Error
			require.True(t, errors.As(err, &typed))
			assert.Equal(t, tt.want, typed.Type)
			assert.Equal(t, tt.status, typed.Code)
			assert.Contains(t, typed.Message, "HTTP ERROR: Code")
			assert.NotEmpty(t, log.GetMessages())
		})
	}
}

func TestStreamingClientAllowsSlowBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.WriteHeader(http.StatusOK)
		for i := 0; i < 5; i++ {
			w.Write([]byte("chunk"))
			w.(http.Flusher).Flush()
			time.Sleep(60 * time.Millisecond)
		}
	}))
	defer server.Close()

	client := NewStreamingClient(100*time.Millisecond, "", nil)
	body, _, err := client.GetBody(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "chunkchunkchunkchunkchunk", string(body))

	// the same transfer under a whole-request timeout is cut short
	_, _, err = NewClient(100*time.Millisecond, "", nil).GetBody(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestStreamingClientHeaderTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte("late"))
	}))
	defer server.Close()

	client := NewStreamingClient(50*time.Millisecond, "", nil)
	_, err := client.Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeNetwork))
}

func TestGetNetworkError(t *testing.T) {
	client := NewClientWithHTTP(newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}), "", nil)

	_, err := client.Get(context.Background(), "https://i.imgur.com/abc.jpg")
	assert.True(t, errs.IsType(err, errs.ErrorTypeNetwork))
}

func TestGetInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := NewClientWithHTTP(newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		cancel()
		return nil, req.Context().Err()
	}), "", nil)

	_, err := client.Get(ctx, "https://www.reddit.com/r/pics.json")
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeInterrupted))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Contains(t, err.Error(), "https://www.reddit.com/r/pics.json")
}

func TestValidateURL(t *testing.T) {
	for _, raw := range []string{"http://", "ftp://example.com/a.jpg", "not a url at all", ""} {
		_, err := ValidateURL(raw)
		assert.True(t, errs.IsType(err, errs.ErrorTypeInvalidURL), "expected invalid url for %q", raw)
	}
	_, err := ValidateURL("https://i.imgur.com/abc.jpg")
	assert.NoError(t, err)
}

func TestGetRejectsInvalidURLWithoutNetwork(t *testing.T) {
	called := false
	client := NewClientWithHTTP(newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		called = true
		return nil, errors.New("unreachable")
	}), "", nil)

	_, err := client.Get(context.Background(), "http://")
	assert.True(t, errs.IsType(err, errs.ErrorTypeInvalidURL))
	assert.False(t, called)
}

func TestGetJSON(t *testing.T) {
	client := NewClientWithHTTP(newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		body := `{"gfyItem":{"mp4Url":"https://x/a.mp4"}}`
		if req.URL.Path == "/broken" {
			body = `{broken`
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
			Header:     make(http.Header),
		}, nil
	}), "", logger.NewTestLogger())

	var out struct {
		GfyItem struct {
			Mp4URL string `json:"mp4Url"`
		} `json:"gfyItem"`
	}
	require.NoError(t, client.GetJSON(context.Background(), "https://gfycat.com/cajax/get/x", &out))
	assert.Equal(t, "https://x/a.mp4", out.GfyItem.Mp4URL)

	err := client.GetJSON(context.Background(), "https://gfycat.com/broken", &out)
	assert.True(t, errs.IsType(err, errs.ErrorTypeParsing))
}

func TestMediaType(t *testing.T) {
	assert.Equal(t, "image/jpeg", MediaType("image/jpeg"))
	assert.Equal(t, "text/html", MediaType("Text/HTML; charset=utf-8"))
	assert.Equal(t, "", MediaType(""))
	assert.Equal(t, "image/png", MediaType("image/png;;;bad="))
}
