package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Starmadebydata/BestBlogs/internal/model"
)

const sampleRSS = `<?xml version="1.0"?>
<rss version="2.0"><channel>
  <title>Test Feed</title>
  <item>
    <title>First Post</title>
    <link>https://example.com/first</link>
    <description>First description</description>
    <pubDate>Mon, 06 Jan 2025 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Second Post</title>
    <link>https://example.com/second</link>
    <description>Second description</description>
    <pubDate>Sun, 05 Jan 2025 10:00:00 GMT</pubDate>
  </item>
</channel></rss>`

func TestFetcher_Fetch(t *testing.T) {
	tests := []struct {
		name        string
		feed        model.Feed
		handler     http.HandlerFunc
		wantFeed    bool
		wantErr     bool
	}{
		{
			name: "successful fetch",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.NotEmpty(t, r.Header.Get("User-Agent"))
				w.Header().Set("ETag", `"v1"`)
				_, _ = w.Write([]byte(sampleRSS))
			},
			wantFeed: true,
		},
		{
			name: "not modified",
			feed: model.Feed{ETag: `"v1"`},
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, `"v1"`, r.Header.Get("If-None-Match"))
				w.WriteHeader(http.StatusNotModified)
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: true,
		},
		{
			name: "not a feed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>not a feed</html>"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			tt.feed.XMLURL = srv.URL
			f := NewFetcher(5*time.Second, "windflash-test/1.0")

			parsed, meta, err := f.Fetch(context.Background(), &tt.feed)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if !tt.wantFeed {
				assert.Nil(t, parsed)
				return
			}
			require.NotNil(t, parsed)
			assert.Len(t, parsed.Items, 2)
			require.NotNil(t, meta)
			assert.Equal(t, `"v1"`, meta.ETag)
		})
	}
}

func TestFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	f := NewFetcher(50*time.Millisecond, "windflash-test/1.0")
	_, _, err := f.Fetch(context.Background(), &model.Feed{XMLURL: srv.URL})
	assert.Error(t, err)
}

func rssWithItems(n int) string {
	body := `<?xml version="1.0"?><rss version="2.0"><channel><title>T</title>`
	for i := 0; i < n; i++ {
		body += fmt.Sprintf(
			`<item><title>Post %d</title><link>https://example.com/p%d</link><description>d</description><pubDate>Mon, 0%d Jan 2025 10:00:00 GMT</pubDate></item>`,
			i, i, (i%8)+1)
	}
	return body + `</channel></rss>`
}
