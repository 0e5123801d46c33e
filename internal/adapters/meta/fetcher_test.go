package meta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchParsesTitleAndFeatures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Лего Сити</title></head>
<body>
<nav><a class="catalog-path" href="/toys">Игрушки</a><a class="catalog-path extra" href="/lego">Конструкторы</a></nav>
<a class="other" href="/sale">Скидки</a>
</body></html>`))
	}))
	defer server.Close()

	fetcher := NewFetcher(5 * time.Second)
	meta, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if meta.Title != "Лего Сити" {
		t.Fatalf("ожидали заголовок страницы, получили %q", meta.Title)
	}
	if len(meta.Features) != 2 {
		t.Fatalf("ожидали 2 фичи, получили %v", meta.Features)
	}
	if meta.Features[0] != "Игрушки" || meta.Features[1] != "Конструкторы" {
		t.Fatalf("неверные фичи: %v", meta.Features)
	}
}

func TestFetchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewFetcher(5 * time.Second)
	if _, err := fetcher.Fetch(context.Background(), server.URL); err == nil {
		t.Fatalf("ожидали ошибку для статуса 404")
	}
}

func TestFetchUnreachableHost(t *testing.T) {
	fetcher := NewFetcher(time.Second)
	if _, err := fetcher.Fetch(context.Background(), "http://127.0.0.1:1"); err == nil {
		t.Fatalf("ожидали ошибку соединения")
	}
}
