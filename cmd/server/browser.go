package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/pkg/browser"
)

var openURL = browser.OpenURL

func init() {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// openBrowserAfter opens url once delay has passed, unless ctx ends first.
func openBrowserAfter(ctx context.Context, url string, delay time.Duration, logger *slog.Logger) {
	timer := time.NewTimer(delay)
	go func() {
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if err := openURL(url); err != nil {
			logger.Warn("could not open browser", "url", url, "error", err)
		}
	}()
}
