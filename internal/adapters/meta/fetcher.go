package meta

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"present-bag/internal/domain"
	"present-bag/internal/infra/metrics"
)

// Fetcher извлекает метаданные страницы товара: заголовок из <title> и фичи
// из хлебных крошек каталога (узлы с классом catalog-path).
type Fetcher struct {
	client *http.Client
}

var _ domain.MetaFetcher = (*Fetcher)(nil)

// NewFetcher создаёт HTTP-клиент метаданных с таймаутом.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch реализует domain.MetaFetcher.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*domain.PageMeta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("создание запроса: %w", err)
	}

	target := "unknown"
	if parsed, parseErr := url.Parse(pageURL); parseErr == nil && parsed.Host != "" {
		target = parsed.Host
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	metrics.ObserveNetworkRequest("http", "fetch_meta", target, start, err)
	if err != nil {
		return nil, fmt.Errorf("запрос страницы: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("запрос страницы: статус %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("разбор страницы: %w", err)
	}

	pageMeta := &domain.PageMeta{}
	walk(doc, pageMeta)
	return pageMeta, nil
}

func walk(node *html.Node, meta *domain.PageMeta) {
	if node.Type == html.ElementNode {
		switch {
		case node.Data == "title" && meta.Title == "":
			meta.Title = strings.TrimSpace(textContent(node))
		case node.Data == "a" && hasClass(node, "catalog-path"):
			if feature := strings.TrimSpace(textContent(node)); feature != "" {
				meta.Features = append(meta.Features, feature)
			}
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		walk(child, meta)
	}
}

func hasClass(node *html.Node, class string) bool {
	for _, attr := range node.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, value := range strings.Fields(attr.Val) {
			if value == class {
				return true
			}
		}
	}
	return false
}

func textContent(node *html.Node) string {
	var builder strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			builder.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(node)
	return builder.String()
}
