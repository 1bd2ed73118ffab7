package support

import (
	"context"

	"locadz/internal/app/apperr"
	"locadz/internal/app/uow"
)

func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, apperr.Unavailable(err)
	}
	execCtx := uow.InjectContext(ctx, newUnit)
	execCtx = uow.ContextWithUnitOfWork(execCtx, newUnit)
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, cleanup, nil
}

// BeginUnit joins the unit of work carried by ctx, or opens one owned by the
// caller. finish must be called with the handler outcome: an owned unit is
// committed on success, rolled back otherwise, and its post-commit hooks run.
func BeginUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(error) error, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, func(err error) error { return err }, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, ctx, nil, apperr.Unavailable(err)
	}
	hookCtx, hooks := uow.ContextWithHooks(ctx)
	execCtx := uow.ContextWithUnitOfWork(uow.InjectContext(hookCtx, unit), unit)
	finish := func(err error) error {
		if err != nil {
			hooks.Discard()
			_ = unit.Rollback(execCtx)
			return err
		}
		if err := unit.Commit(execCtx); err != nil {
			hooks.Discard()
			return err
		}
		hooks.Run(ctx)
		return nil
	}
	return unit, execCtx, finish, nil
}
