package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mjfield/edgewarm/internal/warming"
)

func TestNormalizeDomains(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{
		"https://example.com",
		"http://plain.example",
		"https://already.example",
	}, normalizeDomains([]string{
		"example.com",
		"http://plain.example",
		" https://already.example ",
		"",
	}))
}

func TestTerminalConfirmerAcceptsYes(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	c := newTerminalConfirmer(strings.NewReader("maybe\ny\n"), &out)

	ok, err := c.Confirm("https://example.com", 12, 60)
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, out.String(), "12 URLs discovered, 60 requests will be sent")
	require.Contains(t, out.String(), "Please enter 'y' for yes or 'n' for no.")
}

func TestTerminalConfirmerDeclines(t *testing.T) {
	t.Parallel()

	c := newTerminalConfirmer(strings.NewReader("n\n"), &bytes.Buffer{})
	ok, err := c.Confirm("https://example.com", 1, 5)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTerminalConfirmerTreatsEOFAsDecline(t *testing.T) {
	t.Parallel()

	c := newTerminalConfirmer(strings.NewReader(""), &bytes.Buffer{})
	ok, err := c.Confirm("https://example.com", 1, 5)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTerminalDeciderMenu(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  warming.FallbackDecision
	}{
		{"homepage", "1\n", warming.FallbackDecision{Action: warming.FallbackHomepage}},
		{"manual sitemap", "2\nhttps://example.com/alt.xml\n", warming.FallbackDecision{
			Action:     warming.FallbackManualSitemap,
			SitemapURL: "https://example.com/alt.xml",
		}},
		{"cancel", "3\n", warming.FallbackDecision{Action: warming.FallbackAbort}},
		{"retry until valid", "7\n1\n", warming.FallbackDecision{Action: warming.FallbackHomepage}},
		{"eof aborts", "", warming.FallbackDecision{Action: warming.FallbackAbort}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			d := newTerminalDecider(strings.NewReader(tc.input), &bytes.Buffer{})
			got, err := d.Decide("https://example.com")
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	printSummary(&out, warming.RunSummary{
		TotalTargets: 6,
		Succeeded:    4,
		Failed:       2,
		Duration:     90 * time.Second,
		PerDomain: map[string]warming.DomainStats{
			"https://example.com": {Targets: 6, Succeeded: 4, Failed: 2, Duration: 90 * time.Second},
		},
		Failures: []warming.FailureRecord{
			{
				Domain:     "https://example.com",
				URL:        "https://example.com/broken",
				Location:   warming.EdgeLocation{Name: "Sydney", Code: "SYD", Region: "Oceania"},
				Failure:    warming.FailureHTTPStatus,
				StatusCode: 503,
				Attempts:   3,
			},
		},
	})

	text := out.String()
	require.Contains(t, text, "Total requests: 6")
	require.Contains(t, text, "66.7%")
	require.Contains(t, text, "https://example.com")
	require.Contains(t, text, "https://example.com/broken")
	require.Contains(t, text, "503")
}
