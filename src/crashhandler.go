package main

import (
	"fmt"
	"runtime"
)

// recoverCrash logs a panic with the stack of every goroutine, flushes the
// log file and re-panics. Use it deferred at the top of main and of any
// long-lived goroutine.
func recoverCrash(where string) {
	r := recover()
	if r == nil {
		return
	}

	// Capture stack trace of all goroutines
	buf := make([]byte, 16384)
	n := runtime.Stack(buf, true)
	stackTrace := string(buf[:n])

	logMsg(fmt.Sprintf("FATAL: %s crashed with panic: %v", where, r))
	logMsg(fmt.Sprintf("FATAL: Stack trace:\n%s", stackTrace))
	if logFile != nil {
		logFile.Sync()
	}

	panic(r) // Re-panic to show error
}
