package htmlform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/ehr/formentry/internal/domain/encounter"
)

// wrapperTag encloses every form definition and is dropped from the output.
const wrapperTag = "htmlform"

// TagHandler replaces a custom form tag by the HTML it stands for.
type TagHandler interface {
	Substitution(s *Session, c *SubmissionController, attrs TagAttributes) (string, error)
}

// TagHandlerFunc adapts a function to TagHandler.
type TagHandlerFunc func(s *Session, c *SubmissionController, attrs TagAttributes) (string, error)

func (f TagHandlerFunc) Substitution(s *Session, c *SubmissionController, attrs TagAttributes) (string, error) {
	return f(s, c, attrs)
}

// RenderRequest describes one render of a form definition.
type RenderRequest struct {
	Mode      Mode
	Encounter *encounter.Encounter
	Markup    string
}

// RenderResult is the HTML of a rendered form and the session that holds the
// actions its tags registered.
type RenderResult struct {
	HTML    string
	Session *Session
}

// Engine expands custom tags in form markup using registered handlers.
type Engine struct {
	mu       sync.RWMutex
	handlers map[string]TagHandler
	logger   zerolog.Logger
}

// NewEngine creates an engine with no handlers. The logger is handed to
// every session the engine creates.
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{
		handlers: make(map[string]TagHandler),
		logger:   logger,
	}
}

// Register binds a handler to a tag name. Tag names are case-insensitive.
func (e *Engine) Register(tag string, h TagHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[strings.ToLower(tag)] = h
}

// Tags returns the registered tag names.
func (e *Engine) Tags() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	tags := make([]string, 0, len(e.handlers))
	for t := range e.handlers {
		tags = append(tags, t)
	}
	return tags
}

func (e *Engine) handler(tag string) (TagHandler, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.handlers[tag]
	return h, ok
}

// Render expands every registered tag in req.Markup. Any handler error,
// including a bad form design, aborts the render and no HTML is returned.
func (e *Engine) Render(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	sess := NewSession(ctx, NewFormEntryContext(req.Mode, req.Encounter), e.logger)

	out, err := e.expand(sess, req.Markup)
	if err != nil {
		return nil, err
	}
	return &RenderResult{HTML: out, Session: sess}, nil
}

// Submit renders the form to collect its submission actions, validates the
// submission against them, and then lets each action handle it.
func (e *Engine) Submit(ctx context.Context, req RenderRequest, sub Submission) (*SubmissionResult, error) {
	res, err := e.Render(ctx, req)
	if err != nil {
		return nil, err
	}
	sess := res.Session

	if errs := sess.Controller().ValidateSubmission(sess.FormEntry(), sub); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	if err := sess.Controller().HandleSubmission(sess, sub); err != nil {
		return nil, err
	}
	return sess.Result(), nil
}

func (e *Engine) expand(sess *Session, markup string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(markup))
	var b strings.Builder

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				return b.String(), nil
			}
			return "", fmt.Errorf("tokenize form markup: %w", z.Err())
		}

		// TagName lower-cases in place, so copy the raw token first.
		raw := string(z.Raw())

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			if tag == wrapperTag {
				continue
			}
			h, ok := e.handler(tag)
			if !ok {
				b.WriteString(raw)
				continue
			}

			attrs := TagAttributes{}
			for hasAttr {
				var k, v []byte
				k, v, hasAttr = z.TagAttr()
				attrs[string(k)] = string(v)
			}

			sub, err := h.Substitution(sess, sess.Controller(), attrs)
			if err != nil {
				return "", fmt.Errorf("<%s>: %w", tag, err)
			}
			b.WriteString(sub)

			if tt == html.StartTagToken {
				if err := skipElement(z, tag); err != nil {
					return "", err
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == wrapperTag {
				continue
			}
			b.WriteString(raw)
		default:
			b.WriteString(raw)
		}
	}
}

// skipElement discards the body of a substituted tag up to its end tag. A tag
// that is never closed would swallow the rest of the form, so it is a bad
// form design.
func skipElement(z *html.Tokenizer, tag string) error {
	depth := 1
	for depth > 0 {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return fmt.Errorf("%w: <%s> is never closed", ErrBadFormDesign, tag)
			}
			return fmt.Errorf("tokenize form markup: %w", z.Err())
		case html.StartTagToken:
			if name, _ := z.TagName(); string(name) == tag {
				depth++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == tag {
				depth--
			}
		}
	}
	return nil
}
