// Package markdown 把 GFM 风格的 Markdown 渲染成 HTML，同时抽出
// 标题列表、字数和阅读时间等派生元数据。
package markdown

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"aiwen/internal/domain/content"
)

type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewRenderer 构造渲染器。sanitize 开启时对输出过一遍 UGC 白名单，
// 内容源不完全可控时建议打开。
func NewRenderer(sanitize bool) *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Linkify,
			extension.Strikethrough,
			extension.Table,
		),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	r := &Renderer{md: md}
	if sanitize {
		r.policy = bluemonday.UGCPolicy()
	}
	return r
}

type Result struct {
	HTML     string
	Headings []content.Heading
}

// Render 渲染正文（不含 frontmatter）。标题锚点 id 用 Slugify 生成，
// 和文章 slug 是同一个算法，前端目录跳转才能对得上。
func (r *Renderer) Render(src []byte) (Result, error) {
	reader := text.NewReader(src)
	doc := r.md.Parser().Parse(reader)

	headings := []content.Heading{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		txt := headingText(h, src)
		id := Slugify(txt)
		h.SetAttribute([]byte("id"), []byte(id))

		headings = append(headings, content.Heading{
			Level: h.Level,
			ID:    id,
			Text:  txt,
		})
		return ast.WalkContinue, nil
	})

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return Result{}, err
	}

	out := buf.String()
	if r.policy != nil {
		out = r.policy.Sanitize(out)
	}
	return Result{
		HTML:     out,
		Headings: headings,
	}, nil
}

// headingText 拼接标题下的文本和行内代码节点。
func headingText(h *ast.Heading, src []byte) string {
	var b bytes.Buffer
	for c := h.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(src))
		case *ast.CodeSpan:
			for cc := node.FirstChild(); cc != nil; cc = cc.NextSibling() {
				if t, ok := cc.(*ast.Text); ok {
					b.Write(t.Segment.Value(src))
				}
			}
		}
	}
	return strings.TrimSpace(b.String())
}
