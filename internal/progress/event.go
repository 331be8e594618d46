// Package progress carries transfer progress out of the storage engine and
// renders it in the terminal.
package progress

// Event is one progress observation. Bytes is cumulative for the transfer;
// Total is 0 when the final size is unknown, such as a read without a
// metadata prefetch.
type Event struct {
	Bytes int64
	Total int64
}

// Emit sends ev without blocking. A slow or absent consumer drops
// observations instead of stalling the transfer, so events must never be
// load-bearing.
func Emit(ch chan<- Event, ev Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}
