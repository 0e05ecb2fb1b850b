package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	errs "redditdl/pkg/errors"
	"redditdl/pkg/httpclient"
	"redditdl/pkg/logger"
	"redditdl/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient() *httpclient.Client {
	return httpclient.NewClient(5*time.Second, "redditdl-test", logger.NewNopLogger())
}

func TestNormalizeImgurImage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://i.imgur.com/abc.gifv", "https://i.imgur.com/abc.gif"},
		{"https://i.imgur.com/abc.png", "https://i.imgur.com/abc.jpg"},
		{"https://i.imgur.com/png.png", "https://i.imgur.com/png.jpg"},
		{"https://imgur.com/abc", "https://imgur.com/abc.jpg"},
		{"https://i.imgur.com/abc.jpg", "https://i.imgur.com/abc.jpg"},
		{"https://i.imgur.com/abc.mp4", "https://i.imgur.com/abc.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeImgurImage(tt.in))
		})
	}
}

func TestImgurSingleImageMakesNoRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL)
	}))
	defer server.Close()

	urls, err := NewImgur(newClient(), nil).Resolve(context.Background(), "https://i.imgur.com/XyZ.gifv")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://i.imgur.com/XyZ.gif"}, urls)
}

const albumPage = `<html><head></head><body>
<script>
var album = {"hash":"aaa111","title":"first","description":null},{"hash":"bbb222","title":"second"};
</script>
<div>no hashes here</div>
<script>{"hash":"ccc333","title":""}</script>
</body></html>`

func TestImgurAlbum(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(albumPage))
	}))
	defer server.Close()

	im := NewImgur(newClient(), retry.DefaultConfig())
	urls, err := im.albumURLs(context.Background(), server.URL+"/a/xyz")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"http://i.imgur.com/aaa111.jpg",
		"http://i.imgur.com/bbb222.jpg",
		"http://i.imgur.com/ccc333.jpg",
	}, urls)
}

func TestImgurAlbumNonHTMLYieldsNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte(`{"hash":"aaa111","title":"x"}`))
	}))
	defer server.Close()

	urls, err := NewImgur(newClient(), nil).albumURLs(context.Background(), server.URL+"/gallery/xyz")
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestImgurAlbumRetriesThenFails(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	policy := &retry.Config{MaxAttempts: 2, Backoff: &retry.ConstantBackoff{}}
	_, err := NewImgur(newClient(), policy).albumURLs(context.Background(), server.URL+"/a/xyz")
	require.Error(t, err)
	assert.Equal(t, 2, hits)
	assert.True(t, errs.IsType(err, errs.ErrorTypeServerError))
}

func TestIsAlbum(t *testing.T) {
	assert.True(t, IsAlbum("https://imgur.com/a/abc"))
	assert.True(t, IsAlbum("http://imgur.com/gallery/abc"))
	assert.False(t, IsAlbum("https://i.imgur.com/abc.jpg"))
}

func newGfycatServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/cajax/get/SmallWebm":
			w.Write([]byte(`{"gfyItem":{"gfyName":"SmallWebm","mp4Url":"https://giant.gfycat.com/SmallWebm.mp4","webmUrl":"https://giant.gfycat.com/SmallWebm.webm","mp4Size":100,"webmSize":50}}`))
		case r.URL.Path == "/cajax/get/SmallMp4":
			w.Write([]byte(`{"gfyItem":{"mp4Url":"https://giant.gfycat.com/SmallMp4.mp4","webmUrl":"https://giant.gfycat.com/SmallMp4.webm","mp4Size":"10","webmSize":"900"}}`))
		case r.URL.Path == "/cajax/get/Tie":
			w.Write([]byte(`{"gfyItem":{"mp4Url":"https://x/Tie.mp4","webmUrl":"https://x/Tie.webm","mp4Size":7,"webmSize":7}}`))
		case r.URL.Path == "/cajax/get/Gone":
			w.Write([]byte(`{"error":"Does not exist."}`))
		case strings.HasPrefix(r.URL.Path, "/cajax/checkUrl/"):
			if strings.Contains(r.URL.Path, "known.gif") {
				w.Write([]byte(`{"urlKnown":true,"webmUrl":"https://giant.gfycat.com/Known.webm"}`))
				return
			}
			w.Write([]byte(`{"urlKnown":false}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGfycatPicksSmallerEncoding(t *testing.T) {
	server := newGfycatServer(t)
	g := NewGfycat(newClient(), server.URL)

	urls, err := g.Resolve(context.Background(), "https://gfycat.com/SmallWebm")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://giant.gfycat.com/SmallWebm.webm"}, urls)

	urls, err = g.Resolve(context.Background(), "https://gfycat.com/gifs/detail/SmallMp4?utm=x")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://giant.gfycat.com/SmallMp4.mp4"}, urls)

	urls, err = g.Resolve(context.Background(), "https://gfycat.com/Tie")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x/Tie.webm"}, urls)
}

func TestGfycatMissingItem(t *testing.T) {
	server := newGfycatServer(t)
	_, err := NewGfycat(newClient(), server.URL).Resolve(context.Background(), "https://gfycat.com/Gone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Does not exist.")
}

func TestGfycatMirror(t *testing.T) {
	server := newGfycatServer(t)
	g := NewGfycat(newClient(), server.URL)

	mirror, ok, err := g.Mirror(context.Background(), "https://i.example.com/known.gif")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://giant.gfycat.com/Known.webm", mirror)

	_, ok, err = g.Mirror(context.Background(), "https://i.example.com/other.gif")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "AbcDef", Slug("https://gfycat.com/AbcDef"))
	assert.Equal(t, "AbcDef", Slug("https://giant.gfycat.com/AbcDef.webm"))
	assert.Equal(t, "AbcDef", Slug("https://gfycat.com/gifs/detail/AbcDef#top"))
	assert.Equal(t, "", Slug("https://gfycat.com/"))
}

func TestDeviantArt(t *testing.T) {
	pages := map[string]string{
		"/download": `<html><body><a class="dev-page-button dev-page-download" href="https://www.deviantart.com/download/1/full.png">Download</a>
			<img class="dev-content-full" src="https://img.example/preview.jpg"></body></html>`,
		"/full":  `<html><body><img class="dev-content-normal" src="/small.jpg"><img class="dev-content-full" src="/images/full.jpg"></body></html>`,
		"/og":    `<html><head><meta property="og:image" content="https://img.example/og.jpg"></head><body></body></html>`,
		"/plain": `<html><body><p>nothing</p></body></html>`,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(pages[r.URL.Path]))
	}))
	defer server.Close()

	da := NewDeviantArt(newClient())
	ctx := context.Background()

	urls, err := da.Resolve(ctx, server.URL+"/download")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.deviantart.com/download/1/full.png"}, urls)

	urls, err = da.Resolve(ctx, server.URL+"/full")
	require.NoError(t, err)
	assert.Equal(t, []string{server.URL + "/images/full.jpg"}, urls)

	urls, err = da.Resolve(ctx, server.URL+"/og")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img.example/og.jpg"}, urls)

	urls, err = da.Resolve(ctx, server.URL+"/plain")
	require.NoError(t, err)
	assert.Equal(t, []string{server.URL + "/plain"}, urls)
}

type stubHost struct {
	name  string
	match string
	urls  []string
	err   error
	calls int
}

func (s *stubHost) Name() string          { return s.name }
func (s *stubHost) Match(url string) bool { return strings.Contains(url, s.match) }
func (s *stubHost) Resolve(ctx context.Context, url string) ([]string, error) {
	s.calls++
	return s.urls, s.err
}

func TestRegistryDispatch(t *testing.T) {
	first := &stubHost{name: "a", match: "a.example", urls: []string{"x"}}
	second := &stubHost{name: "b", match: "example", err: errors.New("boom")}
	reg := NewRegistry(logger.NewTestLogger(), first, second)
	ctx := context.Background()

	urls, err := reg.Resolve(ctx, "https://a.example/1")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, urls)
	assert.Equal(t, 0, second.calls)

	_, err = reg.Resolve(ctx, "https://b.example/1")
	assert.EqualError(t, err, "boom")

	urls, err = reg.Resolve(ctx, "https://i.redd.it/abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://i.redd.it/abc.jpg"}, urls)
	assert.Equal(t, "passthrough", reg.HostFor("https://i.redd.it/abc.jpg").Name())
}
