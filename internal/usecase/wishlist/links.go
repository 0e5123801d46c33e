package wishlist

import (
	"regexp"
	"strings"
)

var linkRegex = regexp.MustCompile(`https?://\S+`)

// ExtractLinks возвращает различающиеся ссылки из текста в порядке появления.
func ExtractLinks(text string) []string {
	matches := linkRegex.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	links := make([]string, 0, len(matches))
	for _, link := range matches {
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}
	return links
}

// ApplyReplacements заменяет первое вхождение каждой ссылки на её метку.
// Ссылки без метки остаются в тексте без изменений.
func ApplyReplacements(text string, links []string, labels map[string]string) string {
	for _, link := range links {
		label, ok := labels[link]
		if !ok {
			continue
		}
		text = strings.Replace(text, link, label, 1)
	}
	return text
}
