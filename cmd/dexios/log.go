package main

import "github.com/dexio-go/dexios"

// logProgress wraps an optional progress callback with a debug-level
// chunk counter, visible only under --verbose; the wrapped callback (a
// progress bar, or nil) still runs on every call.
func logProgress(op, path string, wrapped dexios.ProgressFunc) (dexios.ProgressFunc, func()) {
	var chunks int
	var total int64
	fn := func(n int) {
		chunks++
		total += int64(n)
		log.Debug().Str("op", op).Str("path", path).Int("chunk", chunks).Int("bytes", n).Msg("chunk processed")
		if wrapped != nil {
			wrapped(n)
		}
	}
	done := func() {
		log.Debug().Str("op", op).Str("path", path).Int("chunks", chunks).Int64("total_bytes", total).Msg("stream complete")
	}
	return fn, done
}
