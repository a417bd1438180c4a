package sitemap

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mjfield/edgewarm/internal/fetch"
)

type mapFetcher struct {
	mu        sync.Mutex
	responses map[string]fetch.Response
	errs      map[string]error
	calls     map[string]int
}

func newMapFetcher() *mapFetcher {
	return &mapFetcher{
		responses: make(map[string]fetch.Response),
		errs:      make(map[string]error),
		calls:     make(map[string]int),
	}
}

func (f *mapFetcher) serve(url, body string) {
	f.responses[url] = fetch.Response{URL: url, StatusCode: 200, Body: []byte(body)}
}

func (f *mapFetcher) Fetch(_ context.Context, req fetch.Request) (fetch.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[req.URL]++
	if err, ok := f.errs[req.URL]; ok {
		return fetch.Response{}, err
	}
	if resp, ok := f.responses[req.URL]; ok {
		return resp, nil
	}
	return fetch.Response{URL: req.URL, StatusCode: 404}, nil
}

func (f *mapFetcher) fetchCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func urlset(locs ...string) string {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, loc := range locs {
		fmt.Fprintf(&b, "<url><loc>%s</loc></url>", loc)
	}
	b.WriteString(`</urlset>`)
	return b.String()
}

func sitemapindex(locs ...string) string {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, loc := range locs {
		fmt.Fprintf(&b, "<sitemap><loc>%s</loc></sitemap>", loc)
	}
	b.WriteString(`</sitemapindex>`)
	return b.String()
}

func quickResolver(f fetch.Fetcher) *Resolver {
	return New(f, Config{Retries: 1, RetryDelay: time.Millisecond}, nil)
}

func TestDiscoverProbesCandidatesInOrder(t *testing.T) {
	t.Parallel()

	fetcher := newMapFetcher()
	fetcher.serve("https://example.com/sitemap_index.xml", sitemapindex())

	found, err := quickResolver(fetcher).Discover(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/sitemap_index.xml", found)
	require.Equal(t, 1, fetcher.fetchCount("https://example.com/sitemap.xml"))
}

func TestDiscoverReturnsNotFoundWhenAllCandidatesMiss(t *testing.T) {
	t.Parallel()

	fetcher := newMapFetcher()
	_, err := quickResolver(fetcher).Discover(context.Background(), "https://example.com")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, len(DefaultCandidatePaths()),
		fetcher.fetchCount("https://example.com/sitemap.xml")+
			fetcher.fetchCount("https://example.com/sitemap_index.xml")+
			fetcher.fetchCount("https://example.com/sitemap/")+
			fetcher.fetchCount("https://example.com/sitemaps/")+
			fetcher.fetchCount("https://example.com/sitemap/sitemap.xml")+
			fetcher.fetchCount("https://example.com/wp-sitemap.xml"))
}

func TestResolveDeduplicatesAcrossChildSitemaps(t *testing.T) {
	t.Parallel()

	fetcher := newMapFetcher()
	fetcher.serve("https://example.com/sitemap_index.xml", sitemapindex(
		"https://example.com/pages.xml",
		"https://example.com/posts.xml",
	))
	fetcher.serve("https://example.com/pages.xml", urlset(
		"https://example.com/",
		"https://example.com/about",
		"https://example.com/contact",
	))
	fetcher.serve("https://example.com/posts.xml", urlset(
		"https://example.com/post/1",
		"https://example.com/post/2",
		"https://example.com/about", // listed in both children
	))

	urls, err := quickResolver(fetcher).Resolve(
		context.Background(), "https://example.com/sitemap_index.xml", nil)
	require.NoError(t, err)
	require.Len(t, urls, 5)
	require.ElementsMatch(t, []string{
		"https://example.com/",
		"https://example.com/about",
		"https://example.com/contact",
		"https://example.com/post/1",
		"https://example.com/post/2",
	}, urls)
}

func TestResolveTerminatesOnCyclicIndexes(t *testing.T) {
	t.Parallel()

	fetcher := newMapFetcher()
	fetcher.serve("https://example.com/a.xml", sitemapindex("https://example.com/b.xml"))
	fetcher.serve("https://example.com/b.xml", sitemapindex("https://example.com/a.xml"))

	urls, err := quickResolver(fetcher).Resolve(
		context.Background(), "https://example.com/a.xml", nil)
	require.NoError(t, err)
	require.Empty(t, urls)
	require.Equal(t, 1, fetcher.fetchCount("https://example.com/a.xml"))
	require.Equal(t, 1, fetcher.fetchCount("https://example.com/b.xml"))
}

func TestResolveFollowsSitemapEntriesInsideURLSet(t *testing.T) {
	t.Parallel()

	// Some generators list child sitemaps inside a urlset.
	fetcher := newMapFetcher()
	fetcher.serve("https://example.com/sitemap.xml", urlset(
		"https://example.com/child.xml",
		"https://example.com/page",
	))
	fetcher.serve("https://example.com/child.xml", urlset(
		"https://example.com/nested",
	))

	urls, err := quickResolver(fetcher).Resolve(
		context.Background(), "https://example.com/sitemap.xml", nil)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		"https://example.com/page",
		"https://example.com/nested",
	}, urls)
}

func TestResolveSkipsBrokenChildren(t *testing.T) {
	t.Parallel()

	fetcher := newMapFetcher()
	fetcher.serve("https://example.com/sitemap_index.xml", sitemapindex(
		"https://example.com/good.xml",
		"https://example.com/broken.xml",
		"https://example.com/missing.xml",
	))
	fetcher.serve("https://example.com/good.xml", urlset("https://example.com/page"))
	fetcher.serve("https://example.com/broken.xml", "<urlset><url><loc>oops")

	urls, err := quickResolver(fetcher).Resolve(
		context.Background(), "https://example.com/sitemap_index.xml", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"https://example.com/page"}, urls)
}

func TestResolveExcludesAdminPaths(t *testing.T) {
	t.Parallel()

	fetcher := newMapFetcher()
	fetcher.serve("https://example.com/sitemap.xml", urlset(
		"https://example.com/page",
		"https://example.com/wp-admin/options.php",
	))

	urls, err := quickResolver(fetcher).Resolve(
		context.Background(), "https://example.com/sitemap.xml", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"https://example.com/page"}, urls)
}

func TestResolveDecodesGzippedSitemaps(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(urlset("https://example.com/compressed")))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	fetcher := newMapFetcher()
	fetcher.responses["https://example.com/sitemap.xml.gz"] = fetch.Response{
		URL:        "https://example.com/sitemap.xml.gz",
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": []string{"application/x-gzip"}},
		Body:       buf.Bytes(),
	}

	urls, err := quickResolver(fetcher).Resolve(
		context.Background(), "https://example.com/sitemap.xml.gz", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"https://example.com/compressed"}, urls)
}

func TestFetchWithRetryExhaustsBudget(t *testing.T) {
	t.Parallel()

	fetcher := newMapFetcher()
	fetcher.responses["https://example.com/sitemap.xml"] = fetch.Response{
		URL:        "https://example.com/sitemap.xml",
		StatusCode: 503,
	}
	r := New(fetcher, Config{Retries: 3, RetryDelay: time.Millisecond}, nil)

	urls, err := r.Resolve(context.Background(), "https://example.com/sitemap.xml", nil)
	require.NoError(t, err) // node failure is absorbed
	require.Empty(t, urls)
	require.Equal(t, 3, fetcher.fetchCount("https://example.com/sitemap.xml"))
}

func TestResolveSharedVisitedSetSkipsKnownNodes(t *testing.T) {
	t.Parallel()

	fetcher := newMapFetcher()
	fetcher.serve("https://example.com/sitemap.xml", urlset("https://example.com/page"))

	visited := map[string]struct{}{
		"https://example.com/sitemap.xml": {},
	}
	urls, err := quickResolver(fetcher).Resolve(
		context.Background(), "https://example.com/sitemap.xml", visited)
	require.NoError(t, err)
	require.Empty(t, urls)
	require.Zero(t, fetcher.fetchCount("https://example.com/sitemap.xml"))
}
