// Copyright © 2023-2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package seed

import "github.com/shenwei356/gofastga/internal/packrec"

// postBufHint is the initial capacity reserved for a panel's position
// buffer. Unlike FastGA.c's fixed POST_BUF_LEN=4096 circular buffer (which
// it can get away with because it advances through a panel lazily, one
// matched length at a time, bounded by freq once past the cutoff),
// loadPanel here materializes every position of every T2 k-mer sharing
// the current prefix up front, and a panel's size is not bounded by freq
// — it is bounded only by how many k-mers happen to share a 12-bit
// (6-base) prefix in the b genome, which on a real genome assembly routinely
// exceeds 4096. So the buffer grows to fit whatever loadPanel pushes,
// instead of wrapping and silently overwriting still-unread entries.
const postBufHint = 4096

// postRing is a single thread's window of T2 position entries for the
// panel currently under inspection. It is owned exclusively by one
// worker (spec.md §5, "threads never share mutable state within a
// phase"), so it carries no locking.
type postRing struct {
	buf  []packrec.PositionEntry // all positions of the panel loaded since the last reset
	head int64                   // absolute index of buf[0]
	tail int64                   // absolute index of the next free slot
}

func newPostRing(freq int) *postRing {
	hint := postBufHint
	if freq > hint {
		hint = freq
	}
	return &postRing{buf: make([]packrec.PositionEntry, 0, hint)}
}

// push appends one entry at the ring's tail.
func (r *postRing) push(e packrec.PositionEntry) {
	r.buf = append(r.buf, e)
	r.tail++
}

// reset drops all buffered entries and rebases the ring at head, ready
// for the next panel's positions to be pushed from scratch.
func (r *postRing) reset(head int64) {
	r.buf = r.buf[:0]
	r.head = head
	r.tail = head
}

// slice returns the [lo, hi) window of absolute positions, which must
// lie within the entries pushed since the last reset.
func (r *postRing) slice(lo, hi int64) []packrec.PositionEntry {
	if hi <= lo {
		return nil
	}
	start := int(lo - r.head)
	end := int(hi - r.head)
	return r.buf[start:end]
}
