package telegram

import "strings"

// Telegram не принимает сообщения длиннее 4096 символов.
const messageLimit = 4096

// SplitMessage режет текст на части, укладывающиеся в лимит Telegram.
// Разрез предпочитает границу строки, чтобы нумерованные строки списка
// желаний не рвались посередине.
func SplitMessage(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	runes := []rune(trimmed)
	if len(runes) <= messageLimit {
		return []string{trimmed}
	}

	var parts []string
	for start := 0; start < len(runes); {
		end := start + messageLimit
		if end >= len(runes) {
			appendPart(&parts, runes[start:])
			break
		}

		cut := lastNewline(runes, start, end)
		if cut == -1 {
			cut = end
		}
		appendPart(&parts, runes[start:cut])

		start = cut
		for start < len(runes) && runes[start] == '\n' {
			start++
		}
	}

	if len(parts) == 0 {
		return []string{trimmed}
	}
	return parts
}

func lastNewline(runes []rune, start, end int) int {
	for i := end; i > start; i-- {
		if runes[i-1] == '\n' {
			return i
		}
	}
	return -1
}

func appendPart(parts *[]string, runes []rune) {
	part := strings.Trim(string(runes), "\n")
	if part != "" {
		*parts = append(*parts, part)
	}
}
