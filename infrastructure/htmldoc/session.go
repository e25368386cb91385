package htmldoc

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// Session is a Provider whose documents are loaded from files, so the
// static backend can stand in for a browser session
type Session struct {
	*Provider
}

// OpenFile - parses path and returns a session positioned at its top document
func OpenFile(path string, logger logrus.FieldLogger) (*Session, error) {
	doc, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return &Session{Provider: NewProvider(doc, logger)}, nil
}

// Navigate - replaces the document with the one stored at path
func (s *Session) Navigate(ctx context.Context, path string) error {
	doc, err := ParseFile(path)
	if err != nil {
		return err
	}
	s.logger.Infof("Loaded document: %s", path)
	s.SetDocument(doc)
	return nil
}

func (s *Session) Close() error {
	return nil
}

// Describe - renders n as a short start tag, e.g. <button id="ok" class="x">
func Describe(n *html.Node) string {
	if n == nil {
		return "<nil>"
	}
	if n.Type != html.ElementNode {
		return fmt.Sprintf("#node(%d)", n.Type)
	}
	var b strings.Builder
	b.WriteString("<" + n.Data)
	for _, key := range []string{"id", "name", "class"} {
		if v := attr(n, key); v != "" {
			fmt.Fprintf(&b, " %s=%q", key, v)
		}
	}
	b.WriteString(">")
	return b.String()
}
