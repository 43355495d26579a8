package main

import (
	"os"
	"runtime/debug"

	"github.com/zenhumany/egalito/internal/logging"
)

func main() {
	defer recoverPanic()
	Execute()
}

// recoverPanic mirrors the teacher's log.RecoverPanic: log the panic at
// error level through the process logger, then let the process exit
// non-zero rather than crash with a bare stack trace.
func recoverPanic() {
	if r := recover(); r != nil {
		logging.Default().Error("panic in main", "panic", r, "stack", string(debug.Stack()))
		os.Exit(1)
	}
}
