package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/set-night/taskreward/internal/config"
	"github.com/set-night/taskreward/internal/domain"
)

type LinkStatus struct {
	TaskKey string
	URL     string
	Title   string
	Err     error
}

// LinkProbe fetches task links and reads the page title, so broken links in
// the catalog show up in the logs at startup.
type LinkProbe struct {
	httpClient *http.Client
}

func NewLinkProbe() *LinkProbe {
	return &LinkProbe{
		httpClient: &http.Client{Timeout: config.LinkProbeTimeout},
	}
}

func (p *LinkProbe) Title(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title, _ = doc.Find(`meta[property="og:title"]`).Attr("content")
	}
	return strings.TrimSpace(title), nil
}

// Check probes every link of every task.
func (p *LinkProbe) Check(ctx context.Context, tasks []domain.TaskDefinition) []LinkStatus {
	var out []LinkStatus
	for _, t := range tasks {
		for _, link := range t.Links {
			title, err := p.Title(ctx, link)
			st := LinkStatus{TaskKey: t.Key, URL: link, Title: title, Err: err}
			if err != nil {
				slog.Warn("task link unreachable", "task", t.Key, "url", link, "error", err)
			} else {
				slog.Debug("task link ok", "task", t.Key, "url", link, "title", title)
			}
			out = append(out, st)
		}
	}
	return out
}
