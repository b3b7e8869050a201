package playback

import (
	"io"
	"sync"
)

// chainReader is the mechanism behind gapless hand-off: it presents two
// pcmSources — the one currently playing and, optionally, one queued
// behind it — as a single uninterrupted io.Reader. When the current
// source exhausts and a next source is set, chainReader advances to it
// without ever returning io.EOF to the sink, so the sink's single player
// handle never restarts. Only once both are exhausted does it report
// EOF, ending playback for real.
type chainReader struct {
	mu  sync.Mutex
	cur *pcmSource
	nxt *pcmSource

	// onAdvance fires once, synchronously within Read, the moment cur
	// exhausts and nxt takes its place. onExhausted fires once cur
	// exhausts with no nxt queued. Both must be fast and non-blocking;
	// they run on whatever goroutine is pumping the sink (not the
	// engine's worker goroutine).
	onAdvance   func(next *pcmSource)
	onExhausted func()
}

func newChainReader(first *pcmSource) *chainReader {
	return &chainReader{cur: first}
}

func (c *chainReader) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		if c.cur == nil {
			return 0, io.EOF
		}
		n, err := c.cur.Read(p)
		if n > 0 {
			return n, nil
		}
		if err == io.EOF {
			if c.nxt == nil {
				c.cur = nil
				if c.onExhausted != nil {
					c.onExhausted()
				}
				return 0, io.EOF
			}
			next := c.nxt
			c.cur, c.nxt = next, nil
			if c.onAdvance != nil {
				c.onAdvance(next)
			}
			continue
		}
		return n, err
	}
}

// setNext queues a source to follow the currently playing one.
func (c *chainReader) setNext(next *pcmSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nxt = next
}

// current returns the source presently being read, or nil once exhausted.
func (c *chainReader) current() *pcmSource {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// forceAdvance skips straight to nxt, as if cur had just exhausted. Used
// to honor an early AutoplaySong(queued_id) call that arrives before the
// predecessor naturally ends.
func (c *chainReader) forceAdvance() (advanced *pcmSource, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nxt == nil {
		return nil, false
	}
	next := c.nxt
	c.cur, c.nxt = next, nil
	return next, true
}
