// Package geo resolves the device position once per discovery screen activation.
package geo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mohammed-shakir/recycler-discovery/internal/core/model"
)

var ErrPermissionDenied = errors.New("geo: location permission denied")

type Permission int

const (
	Denied Permission = iota
	Granted
)

func ParsePermission(s string) Permission {
	if s == "granted" {
		return Granted
	}
	return Denied
}

// Locator is the platform location service.
type Locator interface {
	RequestPermission(ctx context.Context) (Permission, error)
	CurrentPosition(ctx context.Context) (model.Coordinate, error)
}

// Provider performs a one-shot permission request and position fix.
// Later calls to Resolve return the first outcome.
type Provider struct {
	loc Locator

	once sync.Once
	pos  model.Coordinate
	err  error
}

func NewProvider(loc Locator) *Provider {
	return &Provider{loc: loc}
}

func (p *Provider) Resolve(ctx context.Context) (model.Coordinate, error) {
	p.once.Do(func() {
		p.pos, p.err = p.resolve(ctx)
	})
	return p.pos, p.err
}

func (p *Provider) resolve(ctx context.Context) (model.Coordinate, error) {
	perm, err := p.loc.RequestPermission(ctx)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("request permission: %w", err)
	}
	if perm != Granted {
		return model.Coordinate{}, ErrPermissionDenied
	}
	c, err := p.loc.CurrentPosition(ctx)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("current position: %w", err)
	}
	if !c.Valid() {
		return model.Coordinate{}, fmt.Errorf("current position %s out of range", c)
	}
	return c, nil
}

// Static is a Locator with a fixed answer.
type Static struct {
	Permission Permission
	Position   model.Coordinate
}

func (s Static) RequestPermission(ctx context.Context) (Permission, error) {
	if err := ctx.Err(); err != nil {
		return Denied, err
	}
	return s.Permission, nil
}

func (s Static) CurrentPosition(ctx context.Context) (model.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return model.Coordinate{}, err
	}
	return s.Position, nil
}

// Func adapts a pair of functions to Locator.
type Func struct {
	Permission func(ctx context.Context) (Permission, error)
	Position   func(ctx context.Context) (model.Coordinate, error)
}

func (f Func) RequestPermission(ctx context.Context) (Permission, error) {
	return f.Permission(ctx)
}

func (f Func) CurrentPosition(ctx context.Context) (model.Coordinate, error) {
	return f.Position(ctx)
}
