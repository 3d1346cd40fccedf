package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

var errInvalidUTF8 = errors.New("content is not valid UTF-8")

type plainText struct{}

// PlainText accepts payloads that sniff as text and decode as UTF-8.
func PlainText() Strategy {
	return plainText{}
}

func (plainText) Name() string { return "plain-text" }

func (plainText) Attempt(_ context.Context, data []byte) (string, error) {
	detected := mimetype.Detect(data)
	if !isText(detected) {
		return "", fmt.Errorf("content is %s, not text", detected.String())
	}
	if !utf8.Valid(data) {
		return "", errInvalidUTF8
	}
	return string(data), nil
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "text/") {
			return true
		}
	}
	return false
}
