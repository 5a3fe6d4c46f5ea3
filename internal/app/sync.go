package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sebguevara/instagram-scraping/internal/cli"
	"github.com/sebguevara/instagram-scraping/internal/instagram"
)

func runSync(args []string) int {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	target := fs.String("target", "posts", "What to sync: posts, comments or facebook")
	days := fs.Int("days", 1, "How many days back to scrape posts")
	categoryID := fs.Int("category", 0, "Restrict to one account category id (0 = all)")
	start := fs.String("start", "", "Window start date (YYYY-MM-DD) for comments/facebook")
	end := fs.String("end", "", "Window end date (YYYY-MM-DD) for comments/facebook")
	timeout := fs.Duration("timeout", 30*time.Minute, "Overall run timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rt, err := setup(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}
	defer rt.close()

	var summary any
	switch strings.ToLower(strings.TrimSpace(*target)) {
	case "posts":
		summary, err = rt.instagram.SyncPosts(ctx, instagram.SyncOptions{
			Days:       *days,
			CategoryID: *categoryID,
		})
	case "comments":
		var startDate, endDate time.Time
		startDate, endDate, err = parseWindowFlags(*start, *end)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 2
		}
		summary, err = rt.instagram.SyncComments(ctx, startDate, endDate)
	case "facebook":
		var startDate, endDate time.Time
		startDate, endDate, err = parseWindowFlags(*start, *end)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 2
		}
		summary, err = rt.facebook.SyncComments(ctx, startDate, endDate)
	default:
		fmt.Fprintf(os.Stderr, "--target must be posts, comments or facebook\n")
		return 2
	}
	if err != nil {
		rt.logger.Error().Err(err).Str("target", *target).Msg("sync run failed")
		fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
		return 1
	}

	printJSON(summary)
	return 0
}

func parseWindowFlags(start, end string) (time.Time, time.Time, error) {
	startDate, err := time.Parse("2006-01-02", strings.TrimSpace(start))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--start must be a date in YYYY-MM-DD form")
	}
	endDate, err := time.Parse("2006-01-02", strings.TrimSpace(end))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--end must be a date in YYYY-MM-DD form")
	}
	endDate = endDate.Add(24*time.Hour - time.Nanosecond)
	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("--end must not be before --start")
	}
	return startDate, endDate, nil
}

func printJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render summary: %v\n", err)
	}
}
