// Package navigation carries navigation intents from screens to a router.
// Screens never touch the stack directly; they emit intents.
package navigation

import (
	"fmt"
	"sync"

	"github.com/mohammed-shakir/recycler-discovery/internal/core/observability"
)

type Kind string

const (
	Back       Kind = "back"
	OpenDetail Kind = "open_detail"
)

type Intent struct {
	Kind       Kind `json:"kind"`
	RecyclerID int  `json:"recycler_id,omitempty"`
}

func (i Intent) String() string {
	if i.Kind == OpenDetail {
		return fmt.Sprintf("%s(%d)", i.Kind, i.RecyclerID)
	}
	return string(i.Kind)
}

type Navigator interface {
	Navigate(in Intent)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(Intent)

func (f NavigatorFunc) Navigate(in Intent) { f(in) }

func GoBack(n Navigator) {
	emit(n, Intent{Kind: Back})
}

func ToDetail(n Navigator, recyclerID int) {
	emit(n, Intent{Kind: OpenDetail, RecyclerID: recyclerID})
}

func emit(n Navigator, in Intent) {
	observability.IncNavigationIntent(string(in.Kind))
	if n != nil {
		n.Navigate(in)
	}
}

// Tee delivers every intent to each navigator in order.
func Tee(ns ...Navigator) Navigator {
	return NavigatorFunc(func(in Intent) {
		for _, n := range ns {
			if n != nil {
				n.Navigate(in)
			}
		}
	})
}

type Screen string

const (
	SignIn    Screen = "SignIn"
	Home      Screen = "Home"
	Recyclers Screen = "Recyclers"
	Detail    Screen = "Detail"
)

type Route struct {
	Screen     Screen `json:"screen"`
	RecyclerID int    `json:"recycler_id,omitempty"`
}

// Stack is a named-screen stack that interprets intents.
type Stack struct {
	mu        sync.Mutex
	routes    []Route
	listeners []func(from, to Route)
}

func NewStack(root Screen) *Stack {
	return &Stack{routes: []Route{{Screen: root}}}
}

// OnChange registers fn to run after every stack change.
func (s *Stack) OnChange(fn func(from, to Route)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Stack) Current() Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.routes[len(s.routes)-1]
}

func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.routes)
}

// Push opens screen on top of the stack.
func (s *Stack) Push(r Route) {
	s.change(func() bool {
		s.routes = append(s.routes, r)
		return true
	})
}

func (s *Stack) Navigate(in Intent) {
	switch in.Kind {
	case Back:
		s.change(func() bool {
			if len(s.routes) == 1 {
				return false
			}
			s.routes = s.routes[:len(s.routes)-1]
			return true
		})
	case OpenDetail:
		s.Push(Route{Screen: Detail, RecyclerID: in.RecyclerID})
	}
}

func (s *Stack) change(apply func() bool) {
	s.mu.Lock()
	from := s.routes[len(s.routes)-1]
	if !apply() {
		s.mu.Unlock()
		return
	}
	to := s.routes[len(s.routes)-1]
	ls := append([]func(from, to Route){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range ls {
		fn(from, to)
	}
}
