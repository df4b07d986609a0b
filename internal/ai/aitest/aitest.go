// Package aitest provides scripted oracles for tests.
package aitest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/spigell/ta-nexus/internal/ai"
)

var ErrExhausted = errors.New("aitest: no scripted replies left")

type Reply struct {
	Text string
	Err  error
}

func Text(s string) Reply { return Reply{Text: s} }

func Fail(err error) Reply { return Reply{Err: err} }

// Sequence answers requests with its replies in order.
type Sequence struct {
	mu       sync.Mutex
	replies  []Reply
	requests []ai.Request
}

func NewSequence(replies ...Reply) *Sequence {
	return &Sequence{replies: replies}
}

func (s *Sequence) Generate(_ context.Context, req ai.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	if len(s.replies) == 0 {
		return "", ErrExhausted
	}
	next := s.replies[0]
	s.replies = s.replies[1:]
	return next.Text, next.Err
}

func (s *Sequence) Requests() []ai.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ai.Request(nil), s.requests...)
}

// Router answers each request with the reply of the first route whose key
// appears in the prompt or system instruction. It is safe for concurrent use.
type Router struct {
	mu       sync.Mutex
	routes   []route
	requests []ai.Request
}

type route struct {
	key   string
	reply Reply
}

func NewRouter() *Router {
	return &Router{}
}

func (r *Router) On(key string, reply Reply) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route{key: key, reply: reply})
	return r
}

func (r *Router) Generate(_ context.Context, req ai.Request) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests = append(r.requests, req)
	for _, rt := range r.routes {
		if strings.Contains(req.Prompt, rt.key) || strings.Contains(req.SystemInstruction, rt.key) {
			return rt.reply.Text, rt.reply.Err
		}
	}
	return "", ErrExhausted
}

func (r *Router) Requests() []ai.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ai.Request(nil), r.requests...)
}
