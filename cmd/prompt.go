package cmd

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/mjfield/edgewarm/internal/warming"
)

// terminalConfirmer asks the operator for explicit consent before a
// domain's warming phase starts.
type terminalConfirmer struct {
	in  *bufio.Scanner
	out io.Writer
}

func newTerminalConfirmer(in io.Reader, out io.Writer) *terminalConfirmer {
	return &terminalConfirmer{in: bufio.NewScanner(in), out: out}
}

// Confirm reports whether the operator approved the run.
func (c *terminalConfirmer) Confirm(domain string, urlCount, targetCount int) (bool, error) {
	fmt.Fprintf(c.out, "\n%s: %d URLs discovered, %d requests will be sent.\n", domain, urlCount, targetCount)
	for {
		fmt.Fprint(c.out, "Do you wish to proceed? (y/n): ")
		if !c.in.Scan() {
			if err := c.in.Err(); err != nil {
				return false, fmt.Errorf("read confirmation: %w", err)
			}
			return false, nil
		}
		switch strings.ToLower(strings.TrimSpace(c.in.Text())) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(c.out, "Please enter 'y' for yes or 'n' for no.")
		}
	}
}

// autoConfirmer approves every run; used with --yes.
type autoConfirmer struct{}

func (autoConfirmer) Confirm(string, int, int) (bool, error) {
	return true, nil
}

// terminalDecider presents the no-sitemap policy menu.
type terminalDecider struct {
	in  *bufio.Scanner
	out io.Writer
}

func newTerminalDecider(in io.Reader, out io.Writer) *terminalDecider {
	return &terminalDecider{in: bufio.NewScanner(in), out: out}
}

// Decide asks the operator what to do when discovery found nothing.
func (d *terminalDecider) Decide(domain string) (warming.FallbackDecision, error) {
	fmt.Fprintf(d.out, "\nNo URLs discovered for %s. Would you like to:\n", domain)
	fmt.Fprintln(d.out, "1. Proceed with just the homepage")
	fmt.Fprintln(d.out, "2. Enter a sitemap URL manually")
	fmt.Fprintln(d.out, "3. Cancel operation")
	for {
		fmt.Fprint(d.out, "\nEnter your choice (1-3): ")
		if !d.in.Scan() {
			if err := d.in.Err(); err != nil {
				return warming.FallbackDecision{}, fmt.Errorf("read choice: %w", err)
			}
			return warming.FallbackDecision{Action: warming.FallbackAbort}, nil
		}
		switch strings.TrimSpace(d.in.Text()) {
		case "1":
			return warming.FallbackDecision{Action: warming.FallbackHomepage}, nil
		case "2":
			fmt.Fprint(d.out, "Enter the sitemap URL: ")
			if !d.in.Scan() {
				return warming.FallbackDecision{Action: warming.FallbackAbort}, nil
			}
			return warming.FallbackDecision{
				Action:     warming.FallbackManualSitemap,
				SitemapURL: strings.TrimSpace(d.in.Text()),
			}, nil
		case "3":
			return warming.FallbackDecision{Action: warming.FallbackAbort}, nil
		default:
			fmt.Fprintln(d.out, "Please enter 1, 2 or 3.")
		}
	}
}

// printSummary renders the final RunSummary for the operator.
func printSummary(out io.Writer, summary warming.RunSummary) {
	heading := color.New(color.FgCyan, color.Bold)
	heading.Fprintln(out, "\nFinal Summary")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "Total requests: %d\n", summary.TotalTargets)
	fmt.Fprintf(out, "Succeeded:      %d\n", summary.Succeeded)
	fmt.Fprintf(out, "Failed:         %d\n", summary.Failed)
	fmt.Fprintf(out, "Success rate:   %.1f%%\n", summary.SuccessRate()*100)
	fmt.Fprintf(out, "Duration:       %.1fs\n", summary.Duration.Seconds())

	domains := make([]string, 0, len(summary.PerDomain))
	for d := range summary.PerDomain {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	for _, d := range domains {
		stats := summary.PerDomain[d]
		fmt.Fprintf(out, "\n%s: %d/%d succeeded in %.1fs\n",
			d, stats.Succeeded, stats.Targets, stats.Duration.Seconds())
	}

	if len(summary.Failures) > 0 {
		color.New(color.FgRed).Fprintln(out, "\nFailed targets:")
		for _, f := range summary.Failures {
			detail := string(f.Failure)
			if f.Failure == warming.FailureHTTPStatus {
				detail = fmt.Sprintf("HTTP %d", f.StatusCode)
			}
			fmt.Fprintf(out, "- %s at %s (%s): %s after %d attempts\n",
				f.URL, f.Location.Name, f.Location.Region, detail, f.Attempts)
		}
	}
	fmt.Fprintln(out, strings.Repeat("=", 60))
}
