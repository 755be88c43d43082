package shell

// SetPtyAvailable overrides pty detection for tests and returns a restore
// function.
func SetPtyAvailable(available bool) (restore func()) {
	prev := ptyAvailable
	ptyAvailable = func() bool { return available }
	return func() { ptyAvailable = prev }
}
