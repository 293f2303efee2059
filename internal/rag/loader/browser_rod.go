package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"usage-mail-llm/internal/logging"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const tempProfilePattern = "rod-rag-*"

var activeRodSessions atomic.Int32

// RodRenderer renders pages in a headless Chromium with a fresh profile per attempt
type RodRenderer struct {
	pageTimeout time.Duration
}

func NewRodRenderer() *RodRenderer {
	return &RodRenderer{pageTimeout: 30 * time.Second}
}

// Render opens url and returns the page HTML once loaded, retrying up to three times.
func (rr *RodRenderer) Render(ctx context.Context, url string) (string, error) {
	const maxAttempts = 3

	locallog := logging.Log.WithField("url", url)
	locallog.Info("Open page with rod")

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		locallog.Debugf("Attempt %d/%d (fresh browser & profile)", attempt, maxAttempts)

		html, err := rr.attemptRender(ctx, url)
		if err == nil {
			return html, nil
		}
		lastErr = err
		locallog.WithError(err).Warnf("Attempt %d error", attempt)

		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			break
		}
		if attempt < maxAttempts {
			backoff := time.Duration(attempt) * time.Second
			locallog.Infof("Retrying in %s", backoff)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return "", fmt.Errorf("all attempts failed: %w", lastErr)
}

// attemptRender performs a single render in its own browser process
func (rr *RodRenderer) attemptRender(ctx context.Context, url string) (string, error) {
	activeRodSessions.Add(1)
	defer activeRodSessions.Add(-1)

	tmpDir, err := os.MkdirTemp("", tempProfilePattern)
	if err != nil {
		return "", fmt.Errorf("create temp user data dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			logging.Log.WithError(err).Warn("failed to remove temp user data dir")
		}
	}()

	u, err := launcher.New().
		Headless(true).
		NoSandbox(true).
		UserDataDir(tmpDir).
		Launch()
	if err != nil {
		return "", fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("connect browser: %w", err)
	}
	defer func() { _ = browser.Close() }()

	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	defer func() { _ = page.Close() }()

	page = page.Timeout(rr.pageTimeout)
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}

	return page.HTML()
}

// StartCleanup starts a background goroutine that cleans up leftover Rod profiles until ctx is done
func StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			if activeRodSessions.Load() > 0 {
				logging.Log.Info("Skipping temp profile cleanup: active Rod sessions detected")
				continue
			}
			sweepTempProfiles(os.TempDir())
		}
	}()
}

func sweepTempProfiles(dir string) int {
	matches, err := filepath.Glob(filepath.Join(dir, tempProfilePattern))
	if err != nil {
		logging.Log.WithError(err).Warn("Failed to glob temp directories")
		return 0
	}

	var removed int
	for _, path := range matches {
		if err := os.RemoveAll(path); err != nil {
			logging.Log.WithError(err).Warnf("Failed to remove temp dir: %s", path)
			continue
		}
		logging.Log.Infof("Cleaned up temp dir: %s", path)
		removed++
	}
	return removed
}

// ActiveSessionCount returns the number of renders in flight
func ActiveSessionCount() int32 {
	return activeRodSessions.Load()
}
