package extract

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"
)

const (
	htmlNoise  = "script, style, noscript, nav, footer, header, iframe, svg"
	htmlBlocks = "p, div, li, tr, br, h1, h2, h3, h4, h5, h6, section, article"
)

type htmlStrategy struct{}

// HTML extracts visible text from an HTML document.
func HTML() Strategy {
	return htmlStrategy{}
}

func (htmlStrategy) Name() string { return "html" }

func (htmlStrategy) Attempt(_ context.Context, data []byte) (string, error) {
	if mtype := mimetype.Detect(data); !mtype.Is("text/html") {
		return "", fmt.Errorf("content is %s, not html", mtype.String())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find(htmlNoise).Remove()
	doc.Find(htmlBlocks).AppendHtml("\n")

	body := doc.Find("body")
	if body.Length() == 0 {
		return doc.Text(), nil
	}
	return body.Text(), nil
}
