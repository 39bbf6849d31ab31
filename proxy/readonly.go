package proxy

// readonlyContext tracks whether the call being executed is a query.
// Only the dispatcher goroutine touches it.
type readonlyContext struct {
	stack   []bool
	current bool
}

// push enters a call frame. The returned release restores the previous
// flag; calling it more than once has no further effect.
func (r *readonlyContext) push(readonly bool) (release func()) {
	r.stack = append(r.stack, r.current)
	r.current = readonly
	released := false
	return func() {
		if released {
			return
		}
		released = true
		r.pop()
	}
}

func (r *readonlyContext) pop() {
	n := len(r.stack)
	if n == 0 {
		return
	}
	r.current = r.stack[n-1]
	r.stack = r.stack[:n-1]
}

func (r *readonlyContext) isReadonly() bool {
	return r.current
}

func (r *readonlyContext) depth() int {
	return len(r.stack)
}
