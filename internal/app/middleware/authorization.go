package middleware

import (
	"context"
	"crypto/subtle"
	"errors"

	"rentalspot/internal/app/commands"
)

var ErrForbidden = errors.New("middleware: caller not allowed to run this command")

// InternalCommand marks commands reserved for schedulers and operators.
type InternalCommand interface {
	commands.Command
	Internal()
}

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

type (
	tokenKey  struct{}
	systemKey struct{}
)

// WithCallerToken stores the token presented by the caller.
func WithCallerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// AsSystem marks ctx as coming from an in-process worker, which may run internal commands.
func AsSystem(ctx context.Context) context.Context {
	return context.WithValue(ctx, systemKey{}, true)
}

func isSystem(ctx context.Context) bool {
	sys, _ := ctx.Value(systemKey{}).(bool)
	return sys
}

func callerToken(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

// TokenAuthorizer admits internal commands only when the caller token matches Token.
// An empty Token rejects every internal command.
type TokenAuthorizer struct {
	Token string
}

func (a TokenAuthorizer) Authorize(ctx context.Context, message any) error {
	if _, internal := message.(InternalCommand); !internal || isSystem(ctx) {
		return nil
	}
	got := callerToken(ctx)
	if a.Token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(a.Token)) != 1 {
		return ErrForbidden
	}
	return nil
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}
