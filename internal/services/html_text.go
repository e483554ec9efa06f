package services

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "tr": true, "table": true,
}

// ExtractText flattens editor markup into plain text paragraphs. Script and
// style content is dropped.
func ExtractText(rawHTML string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", nil
	}
	if !strings.Contains(rawHTML, "<") {
		return strings.TrimSpace(rawHTML), nil
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var builder strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && (node.Data == "script" || node.Data == "style") {
			return
		}
		if node.Type == html.TextNode {
			builder.WriteString(node.Data)
		}

		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}

		if node.Type == html.ElementNode && blockElements[node.Data] {
			builder.WriteString("\n")
		}
	}
	walk(doc)

	lines := strings.Split(builder.String(), "\n")
	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		if collapsed := strings.Join(strings.Fields(line), " "); collapsed != "" {
			paragraphs = append(paragraphs, collapsed)
		}
	}

	return strings.Join(paragraphs, "\n"), nil
}
