package service

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(goldhtml.WithHardWraps(), goldhtml.WithXHTML()),
	)
	richSanitizer  = bluemonday.UGCPolicy()
	plainSanitizer = bluemonday.StrictPolicy()
)

const untitled = "(no title)"

// sanitizePlain 去除用户输入中的 HTML，只保留纯文本
func sanitizePlain(input string) string {
	cleaned := plainSanitizer.Sanitize(strings.TrimSpace(input))
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// sanitizeTitle 规范化任务/奖励标题，空标题回退为 (no title)
func sanitizeTitle(input string) string {
	title := sanitizePlain(input)
	if title == "" {
		return untitled
	}
	return title
}

// RenderMarkdown 将任务描述渲染为安全 HTML
func RenderMarkdown(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(source), &buf); err != nil {
		return html.EscapeString(source)
	}
	return strings.TrimSpace(richSanitizer.Sanitize(buf.String()))
}
