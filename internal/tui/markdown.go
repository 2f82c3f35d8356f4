package tui

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdCodeBlockRe = regexp.MustCompile(`(?s)<pre><code(?: class="language-([a-zA-Z0-9]+)")?>(.*?)</code></pre>`)
	mdInlineRe    = regexp.MustCompile(`<code>([^<]+)</code>`)
	mdH1Re        = regexp.MustCompile(`<h1 id="[^"]*">(.*?)</h1>`)
	mdH2Re        = regexp.MustCompile(`<h2 id="[^"]*">(.*?)</h2>`)
	mdH3Re        = regexp.MustCompile(`<h3 id="[^"]*">(.*?)</h3>`)
	mdStrongRe    = regexp.MustCompile(`<strong>(.*?)</strong>`)
	mdEmRe        = regexp.MustCompile(`<em>(.*?)</em>`)
	mdLinkRe      = regexp.MustCompile(`<a href="([^"]*)">(.*?)</a>`)
	mdQuoteRe     = regexp.MustCompile(`(?s)<blockquote>(.*?)</blockquote>`)
	mdULRe        = regexp.MustCompile(`(?s)<ul>(.*?)</ul>`)
	mdOLRe        = regexp.MustCompile(`(?s)<ol>(.*?)</ol>`)
	mdItemRe      = regexp.MustCompile(`<li>(.*?)</li>`)
	mdTagRe       = regexp.MustCompile(`<[^>]+>`)
	mdNewlinesRe  = regexp.MustCompile(`\n{3,}`)
)

// MarkdownRenderer turns assistant answers into styled terminal text,
// with chroma-highlighted code fences.
type MarkdownRenderer struct {
	goldmark.Markdown
	formatter chroma.Formatter
	codeStyle *chroma.Style
	theme     *Theme
}

func NewMarkdownRenderer(theme *Theme) *MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
		),
	)

	return &MarkdownRenderer{
		Markdown:  md,
		formatter: formatters.Get("terminal256"),
		codeStyle: styles.Get(theme.ChromaStyle),
		theme:     theme,
	}
}

// Render converts markdown to terminal output wrapped at width.
func (r *MarkdownRenderer) Render(content string, width int) string {
	var buf bytes.Buffer
	if err := r.Convert([]byte(content), &buf); err != nil {
		return content
	}
	return r.formatForTerminal(buf.String(), width)
}

func (r *MarkdownRenderer) formatForTerminal(htmlContent string, width int) string {
	result := htmlContent
	t := r.theme

	// Code blocks first, stashed behind placeholders so the later
	// tag-stripping passes cannot touch highlighted output.
	var fences []string
	result = mdCodeBlockRe.ReplaceAllStringFunc(result, func(m string) string {
		matches := mdCodeBlockRe.FindStringSubmatch(m)
		if len(matches) < 3 {
			return m
		}
		lang := matches[1]
		code := decodeEntities(matches[2])
		highlighted := r.highlight(code, lang)

		codeWidth := width - 8
		if codeWidth < 20 {
			codeWidth = 20
		}
		styled := t.CodeBlock.Width(codeWidth).Render(highlighted)

		idx := len(fences)
		fences = append(fences, styled)
		return fmt.Sprintf("\n{{FENCE_%d}}\n", idx)
	})

	result = mdInlineRe.ReplaceAllStringFunc(result, func(m string) string {
		matches := mdInlineRe.FindStringSubmatch(m)
		if len(matches) < 2 {
			return m
		}
		return t.InlineCode.Render(decodeEntities(matches[1]))
	})

	result = mdH1Re.ReplaceAllStringFunc(result, func(m string) string {
		matches := mdH1Re.FindStringSubmatch(m)
		if len(matches) < 2 {
			return m
		}
		return t.Heading.BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			Width(width-4).
			Render(matches[1]) + "\n"
	})
	for _, re := range []*regexp.Regexp{mdH2Re, mdH3Re} {
		re := re
		result = re.ReplaceAllStringFunc(result, func(m string) string {
			matches := re.FindStringSubmatch(m)
			if len(matches) < 2 {
				return m
			}
			return t.Subheading.Width(width-4).Render(matches[1]) + "\n"
		})
	}

	result = mdStrongRe.ReplaceAllStringFunc(result, func(m string) string {
		matches := mdStrongRe.FindStringSubmatch(m)
		if len(matches) < 2 {
			return m
		}
		return lipgloss.NewStyle().Bold(true).Render(matches[1])
	})
	result = mdEmRe.ReplaceAllStringFunc(result, func(m string) string {
		matches := mdEmRe.FindStringSubmatch(m)
		if len(matches) < 2 {
			return m
		}
		return lipgloss.NewStyle().Italic(true).Render(matches[1])
	})

	result = mdLinkRe.ReplaceAllStringFunc(result, func(m string) string {
		matches := mdLinkRe.FindStringSubmatch(m)
		if len(matches) < 3 {
			return m
		}
		return t.Link.Render(fmt.Sprintf("%s (%s)", matches[2], matches[1]))
	})

	result = mdQuoteRe.ReplaceAllStringFunc(result, func(m string) string {
		matches := mdQuoteRe.FindStringSubmatch(m)
		if len(matches) < 2 {
			return m
		}
		content := mdTagRe.ReplaceAllString(strings.TrimSpace(matches[1]), "")
		return t.Blockquote.Width(width-4).Render(content) + "\n"
	})

	result = mdULRe.ReplaceAllStringFunc(result, func(m string) string {
		matches := mdULRe.FindStringSubmatch(m)
		if len(matches) < 2 {
			return m
		}
		items := mdItemRe.FindAllStringSubmatch(matches[1], -1)
		var list strings.Builder
		for _, item := range items {
			if len(item) >= 2 {
				list.WriteString(t.Bullet.Render("  • "))
				list.WriteString(mdTagRe.ReplaceAllString(item[1], ""))
				list.WriteString("\n")
			}
		}
		return list.String()
	})

	result = mdOLRe.ReplaceAllStringFunc(result, func(m string) string {
		matches := mdOLRe.FindStringSubmatch(m)
		if len(matches) < 2 {
			return m
		}
		items := mdItemRe.FindAllStringSubmatch(matches[1], -1)
		var list strings.Builder
		for i, item := range items {
			if len(item) >= 2 {
				list.WriteString(t.Bullet.Render(fmt.Sprintf("  %d. ", i+1)))
				list.WriteString(mdTagRe.ReplaceAllString(item[1], ""))
				list.WriteString("\n")
			}
		}
		return list.String()
	})

	result = strings.ReplaceAll(result, "<p>", "")
	result = strings.ReplaceAll(result, "</p>", "\n")
	result = strings.ReplaceAll(result, "<br>", "\n")
	result = strings.ReplaceAll(result, "<br/>", "\n")
	result = strings.ReplaceAll(result, "<br />", "\n")

	for i, fence := range fences {
		result = strings.ReplaceAll(result, fmt.Sprintf("{{FENCE_%d}}", i), fence)
	}

	result = mdTagRe.ReplaceAllString(result, "")
	result = decodeEntities(result)
	result = mdNewlinesRe.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

func (r *MarkdownRenderer) highlight(code, lang string) string {
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, r.codeStyle, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

var entityPairs = []struct{ from, to string }{
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
	{"&#39;", "'"},
	{"&#x27;", "'"},
	{"&#x60;", "`"},
	{"&nbsp;", " "},
	{"&hellip;", "..."},
}

func decodeEntities(s string) string {
	for _, p := range entityPairs {
		s = strings.ReplaceAll(s, p.from, p.to)
	}
	return s
}
