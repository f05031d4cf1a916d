// ============================================================================
// Chronoqueue CLI — Unbounded Log Channel
// ============================================================================
//
// Package: internal/cli
// File: logchannel.go
// Purpose: Backs the engine/worker's log channel (spec §4.4/§6) with an
// internal, dynamically growing buffer so a send never blocks on a slow or
// absent front-end consumer and never drops a line. A fixed-size buffered
// channel would silently drop the "[Engine] Dispatched" line the
// at-most-once-dispatch property relies on once the buffer filled up.
//
// ============================================================================

package cli

// newUnboundedLogChannel returns a send side and a receive side joined by a
// pump goroutine holding a growing slice buffer: sends on the returned
// channel complete immediately regardless of how fast the receive side is
// drained, at the cost of memory proportional to the backlog.
func newUnboundedLogChannel() (chan<- string, <-chan string) {
	in := make(chan string)
	out := make(chan string)
	go pumpLogChannel(in, out)
	return in, out
}

func pumpLogChannel(in <-chan string, out chan<- string) {
	var buf []string
	for {
		if len(buf) == 0 {
			line, ok := <-in
			if !ok {
				close(out)
				return
			}
			buf = append(buf, line)
			continue
		}

		select {
		case line, ok := <-in:
			if !ok {
				for _, l := range buf {
					out <- l
				}
				close(out)
				return
			}
			buf = append(buf, line)
		case out <- buf[0]:
			buf = buf[1:]
		}
	}
}
