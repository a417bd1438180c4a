package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mjfield/edgewarm/internal/clock/system"
	"github.com/mjfield/edgewarm/internal/config"
	"github.com/mjfield/edgewarm/internal/crawl"
	"github.com/mjfield/edgewarm/internal/fetch"
	"github.com/mjfield/edgewarm/internal/logging"
	"github.com/mjfield/edgewarm/internal/metrics"
	"github.com/mjfield/edgewarm/internal/progress"
	"github.com/mjfield/edgewarm/internal/progress/sinks"
	"github.com/mjfield/edgewarm/internal/ratelimit"
	"github.com/mjfield/edgewarm/internal/sitemap"
	"github.com/mjfield/edgewarm/internal/warming"
)

type warmOptions struct {
	sitemapURL string
	policy     string
	assumeYes  bool
	verbose    bool
}

// newWarmCmd creates the 'warm' subcommand, which runs a full warming
// cycle for one or more domains.
func newWarmCmd() *cobra.Command {
	opts := &warmOptions{}
	cmd := &cobra.Command{
		Use:   "warm <domain> [domain...]",
		Short: "Warm CDN edge caches for one or more domains",
		Long: `Discovers the URL set for each domain (sitemap first, bounded crawl
as fallback), asks for confirmation, then requests every URL against every
configured edge location under per-location rate limiting.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWarm(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.sitemapURL, "sitemap", "", "use this sitemap URL instead of probing for one")
	cmd.Flags().StringVar(&opts.policy, "policy", "", "scheduling policy override: flat or geo-priority")
	cmd.Flags().BoolVarP(&opts.assumeYes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every progress event")

	return cmd
}

func runWarm(cmd *cobra.Command, args []string, opts *warmOptions) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.policy != "" {
		cfg.Warm.Policy = opts.policy
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := fetch.NewClient(fetch.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.Timeout(),
	})

	domains := normalizeDomains(args)
	verified := verifyDomains(ctx, client, domains)
	if len(verified) == 0 {
		return errors.New("no reachable domains to warm")
	}

	sinkList := []progress.Sink{
		sinks.NewConsoleSink(os.Stdout),
		sinks.NewPrometheusSink(),
	}
	if opts.verbose {
		sinkList = append(sinkList, sinks.NewLogSink(logger.Named("progress")))
	}
	hub := progress.NewHub(progress.Config{Logger: logger}, sinkList...)
	defer func() {
		_ = hub.Close(context.Background())
	}()

	if cfg.Metrics.Addr != "" {
		serveMetrics(cfg.Metrics.Addr, logger)
	}

	resolver := sitemap.New(client, sitemap.Config{
		Retries:    cfg.HTTP.MaxRetries,
		RetryDelay: cfg.RetryDelay(),
	}, logger)
	crawler := crawl.New(crawl.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.Timeout(),
		MaxURLs:   cfg.Warm.CrawlMaxURLs,
	}, logger)
	profile := warming.ProfileByProvider(cfg.Provider.Name, cfg.HTTP.UserAgent, cfg.Provider.ExtraHeaders)
	requester := warming.NewRequester(client, profile, warming.RequesterConfig{
		MaxRetries: cfg.HTTP.MaxRetries,
		RetryDelay: cfg.RetryDelay(),
	}, hub, logger)

	var confirmer warming.Confirmer = newTerminalConfirmer(os.Stdin, os.Stdout)
	if opts.assumeYes {
		confirmer = autoConfirmer{}
	}

	scheduler := warming.NewScheduler(
		warming.CatalogByProvider(cfg.Provider.Name),
		resolver,
		crawler,
		requester,
		ratelimit.New(cfg.MinInterval()),
		confirmer,
		newTerminalDecider(os.Stdin, os.Stdout),
		hub,
		system.New(),
		warming.SchedulerConfig{
			Workers:             cfg.Warm.Workers,
			Policy:              warming.Policy(cfg.Warm.Policy),
			PriorityRegion:      cfg.Warm.PriorityRegion,
			PriorityPasses:      cfg.Warm.PriorityPasses,
			InterDomainCooldown: cfg.InterDomainCooldown(),
			CrawlFallback:       cfg.Warm.CrawlFallback,
			ManualSitemapURL:    opts.sitemapURL,
		},
		logger,
	)

	summary, runErr := scheduler.Run(ctx, verified)
	printSummary(os.Stdout, summary)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// normalizeDomains prefixes bare hostnames with https.
func normalizeDomains(args []string) []string {
	out := make([]string, 0, len(args))
	for _, d := range args {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if !strings.HasPrefix(d, "http://") && !strings.HasPrefix(d, "https://") {
			d = "https://" + d
		}
		out = append(out, d)
	}
	return out
}

// verifyDomains probes each domain with a HEAD request and keeps the
// reachable ones.
func verifyDomains(ctx context.Context, client *fetch.Client, domains []string) []string {
	var verified []string
	for _, domain := range domains {
		resp, err := client.Fetch(ctx, fetch.Request{URL: domain, Method: http.MethodHead})
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", domain, err)
			continue
		}
		fmt.Printf("✓ %s: %d\n", domain, resp.StatusCode)
		verified = append(verified, domain)
	}
	return verified
}

func serveMetrics(addr string, logger *zap.Logger) {
	metrics.Init()
	go func() {
		logger.Info("metrics listener started", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, metrics.Router()); err != nil {
			logger.Warn("metrics listener stopped", zap.Error(err))
		}
	}()
}
