//go:build !linux && !darwin

package hsig

// lockSecretPages is a no-op on platforms without an Mlock syscall
// binding in golang.org/x/sys/unix.
func lockSecretPages(buf []byte) {}

func unlockSecretPages(buf []byte) {}
