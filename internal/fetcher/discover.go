package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"

	"golang.org/x/net/html"

	"github.com/okqualiteeau/eauparquet/internal/config"
	"github.com/okqualiteeau/eauparquet/internal/util"
)

// DiscoverArchiveURLs fetches an HTML index page and returns the
// absolute URLs of every .zip link on it. It is an alternative to the
// fixed URL list for when a new yearly archive has been published but
// the configuration has not caught up.
func DiscoverArchiveURLs(ctx context.Context, cfg config.Config, indexURL string, logger *slog.Logger) ([]string, error) {
	base, err := url.Parse(indexURL)
	if err != nil {
		return nil, fmt.Errorf("parse index url %s: %w", indexURL, err)
	}

	client := util.NewHTTPClient(cfg.HTTPTimeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, indexURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request %s: %w", indexURL, err)
	}
	body, err := util.DownloadFile(client, req)
	if err != nil {
		return nil, err
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse HTML %s: %w", indexURL, err)
	}

	seen := make(map[string]struct{})
	var out []string
	for _, link := range util.ParseLinks(root, ".zip") {
		abs, err := base.Parse(link)
		if err != nil {
			logger.Warn("Failed to resolve relative link.", "link", link, "error", err)
			continue
		}
		s := abs.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)

	logger.Info("Discovered archive links.", slog.String("index_url", indexURL), slog.Int("count", len(out)))
	return out, nil
}
