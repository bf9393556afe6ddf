package bridge

// Env models one host call context. The host runtime allows at most one
// exception in flight per context, so the pending failure is tracked as an
// explicit two-state value instead of being inspected out of runtime
// internals. An Env belongs to a single host thread; it is not safe for
// concurrent use.
type Env struct {
	pending error
}

func NewEnv() *Env {
	return &Env{}
}

// Pending reports whether a failure is waiting for the host to observe.
func (e *Env) Pending() bool {
	return e.pending != nil
}

// PendingError returns the in-flight failure without clearing it, or nil.
func (e *Env) PendingError() error {
	return e.pending
}

// ClearPending returns the in-flight failure and resets the context,
// modelling the host runtime handling the exception.
func (e *Env) ClearPending() error {
	err := e.pending
	e.pending = nil
	return err
}

// throw records err as the pending exception. Raising a second exception
// while one is in flight is illegal in the host runtime, so a throw against
// a pending context is dropped.
func (e *Env) throw(err error) {
	if e.pending != nil || err == nil {
		return
	}
	e.pending = err
}

// guard is the error bridge around one entry point: when a failure is
// already pending on env, fn is not run and def is returned untouched;
// otherwise a failure from fn becomes the pending exception and def is
// returned in its place.
func guard[T any](env *Env, def T, fn func() (T, error)) T {
	if env.Pending() {
		return def
	}

	v, err := fn()
	if err != nil {
		env.throw(err)
		return def
	}
	return v
}

func guard0(env *Env, fn func() error) {
	guard(env, struct{}{}, func() (struct{}, error) {
		return struct{}{}, fn()
	})
}
