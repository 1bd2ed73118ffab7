package middleware

import (
	"context"

	"locadz/internal/app/commands"
	"locadz/internal/app/queries"
)

// Validator checks struct tags and reports apperr validation errors.
type Validator interface {
	Validate(ctx context.Context, message any) error
}

// Authorizer decides whether the actor carried by message may send it.
type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

type check func(ctx context.Context, message any) error

func commandGuard(c check) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := c(ctx, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func queryGuard(c check) QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := c(ctx, q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
}

func Validation(v Validator) CommandMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return commandGuard(v.Validate)
}

func QueryValidation(v Validator) QueryMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return queryGuard(v.Validate)
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return commandGuard(a.Authorize)
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return queryGuard(a.Authorize)
}
