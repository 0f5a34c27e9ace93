package service

// SetVerifyPassword replaces the password comparison Login uses and
// returns a function restoring it.
func SetVerifyPassword(fn func(hash, plain string) bool) (restore func()) {
	prev := verifyPassword
	verifyPassword = fn
	return func() { verifyPassword = prev }
}
