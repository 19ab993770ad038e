//go:build linux || darwin

package hsig

import "golang.org/x/sys/unix"

// lockSecretPages pins buf's backing pages so the kernel cannot swap
// secret material to disk. This repurposes the teacher's
// golang.org/x/sys dependency: the teacher pulls it in transitively for
// nightlyone/lockfile's flock syscalls (container.go, a subsystem
// dropped here as out-of-scope key-serialization container layout); the
// same dependency is used directly here for the memory-protection
// syscalls, which the container subsystem never needed.
//
// Mlock failures are logged, not fatal: most containerized or
// restricted-privilege environments deny CAP_IPC_LOCK, and the signer
// must remain usable without it (pinning is defense-in-depth, not a
// correctness requirement).
func lockSecretPages(buf []byte) {
	if len(buf) == 0 {
		return
	}
	if err := unix.Mlock(buf); err != nil {
		log.Logf("hsig: mlock failed (continuing unlocked): %v", err)
	}
}

func unlockSecretPages(buf []byte) {
	if len(buf) == 0 {
		return
	}
	_ = unix.Munlock(buf)
}
