package function

// Nest nests several functions to allow rewriting expressions like `res := a(b(c(final)))` as
// `res := function.Nest(final, a, b, c)`.
// The first function is the outermost one.
func Nest[T any](final T, funcs ...func(T) T) T {
	res := final
	for i := len(funcs) - 1; i >= 0; i-- {
		res = funcs[i](res)
	}
	return res
}
