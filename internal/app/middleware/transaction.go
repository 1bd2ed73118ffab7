package middleware

import (
	"context"
	"errors"

	"locadz/internal/app/apperr"
	"locadz/internal/app/commands"
	"locadz/internal/app/uow"
)

type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// Transaction runs the command inside a unit of work. Hooks registered with
// uow.AfterCommit run only after a successful commit, with the caller's context.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			unit, err := factory.Begin(ctx, opts)
			if err != nil {
				return nil, apperr.Unavailable(err)
			}
			hookCtx, hooks := uow.ContextWithHooks(ctx)
			execCtx := uow.InjectContext(hookCtx, unit)
			execCtx = uow.ContextWithUnitOfWork(execCtx, unit)
			committed := false
			defer func() {
				if !committed {
					hooks.Discard()
					_ = unit.Rollback(execCtx)
				}
			}()

			res, err := nextFn(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			if err := unit.Commit(execCtx); err != nil {
				if errors.Is(err, uow.ErrConcurrentUpdate) {
					return nil, apperr.Conflict(err)
				}
				return nil, err
			}
			committed = true
			hooks.Run(ctx)
			return res, nil
		})
	}
}
