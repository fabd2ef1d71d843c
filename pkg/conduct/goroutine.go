package conduct

import (
	"runtime"
	"strconv"
	"strings"
)

// currentGoroutineID returns the runtime id of the calling goroutine.
//
// Go deliberately exposes no goroutine-local storage, but the Conductor needs
// to know which registered thread is calling back into it (WaitForBeat and
// nested Thread registrations resolve their caller). The id is parsed from
// the first line of the goroutine's stack dump, which has the fixed form
// "goroutine N [state]:".
func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	header := strings.TrimPrefix(string(buf[:n]), "goroutine ")
	end := strings.IndexByte(header, ' ')
	if end < 0 {
		return 0
	}
	id, err := strconv.ParseUint(header[:end], 10, 64)
	if err != nil {
		return 0
	}
	return id
}
