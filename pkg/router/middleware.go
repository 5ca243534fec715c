package router

// Next continues the middleware chain.
type Next func(ctx *Context)

// Middleware handles a context and decides whether to call next.
type Middleware func(ctx *Context, next Next)

// Compose chains mws so that each one receives the rest of the chain as
// next. The last middleware receives a no-op. nil entries are skipped.
func Compose(mws ...Middleware) Next {
	next := Next(func(*Context) {})
	for i := len(mws) - 1; i >= 0; i-- {
		mw := mws[i]
		if mw == nil {
			continue
		}
		rest := next
		next = func(ctx *Context) {
			mw(ctx, rest)
		}
	}
	return next
}

// Chain composes mws into a single middleware that calls next after the
// last of them.
func Chain(mws ...Middleware) Middleware {
	return func(ctx *Context, next Next) {
		all := append(append([]Middleware(nil), mws...), func(ctx *Context, _ Next) {
			if next != nil {
				next(ctx)
			}
		})
		Compose(all...)(ctx)
	}
}

// Listener returns a middleware that continues the chain on its first run
// and afterwards only when the hash differs from the previous run.
func Listener() Middleware {
	var (
		seen bool
		prev string
	)
	return func(ctx *Context, next Next) {
		first := !seen
		changed := ctx.Hash != prev
		seen, prev = true, ctx.Hash
		if first || changed {
			next(ctx)
		}
	}
}
