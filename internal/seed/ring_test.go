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

import (
	"testing"

	"github.com/shenwei356/gofastga/internal/packrec"
)

func TestPostRingSliceContiguous(t *testing.T) {
	r := newPostRing(4)
	r.reset(0)
	for i := int64(0); i < 10; i++ {
		r.push(packrec.PositionEntry{Pos: i})
	}

	got := r.slice(2, 5)
	if len(got) != 3 {
		t.Fatalf("slice len = %d, want 3", len(got))
	}
	for i, e := range got {
		if e.Pos != int64(2+i) {
			t.Errorf("slice[%d].Pos = %d, want %d", i, e.Pos, 2+i)
		}
	}
}

// TestPostRingSurvivesPanelsLargerThanFixedHint pushes more positions
// into a single panel than a fixed 4096-slot buffer could ever hold,
// then reads back the *earliest* entries of that same panel. A buffer
// that wraps and overwrites old entries (the bug this guards against)
// would return corrupted Pos values here; a buffer that grows to fit
// the panel returns the original values untouched.
func TestPostRingSurvivesPanelsLargerThanFixedHint(t *testing.T) {
	r := newPostRing(4)
	r.reset(0)

	const n = postBufHint + 500
	for i := int64(0); i < n; i++ {
		r.push(packrec.PositionEntry{Pos: i, Contig: int32(i % 7)})
	}

	// Entries pushed well before the old ring would have wrapped must
	// still read back correctly.
	early := r.slice(0, 5)
	if len(early) != 5 {
		t.Fatalf("slice(0,5) len = %d, want 5", len(early))
	}
	for i, e := range early {
		if e.Pos != int64(i) {
			t.Errorf("early slice[%d].Pos = %d, want %d (stale/overwritten entry)", i, e.Pos, i)
		}
	}

	late := r.slice(n-5, n)
	if len(late) != 5 {
		t.Fatalf("slice(n-5,n) len = %d, want 5", len(late))
	}
	for i, e := range late {
		want := n - 5 + int64(i)
		if e.Pos != want {
			t.Errorf("late slice[%d].Pos = %d, want %d", i, e.Pos, want)
		}
	}
}

func TestPostRingSliceEmptyRange(t *testing.T) {
	r := newPostRing(4)
	r.reset(0)
	r.push(packrec.PositionEntry{Pos: 1})
	if got := r.slice(5, 5); got != nil {
		t.Errorf("slice(5,5) = %v, want nil", got)
	}
}

func TestPostRingResetRebasesHeadAndTail(t *testing.T) {
	r := newPostRing(4)
	r.push(packrec.PositionEntry{Pos: 1})
	r.reset(100)
	if r.head != 100 || r.tail != 100 {
		t.Errorf("after reset head=%d tail=%d, want both 100", r.head, r.tail)
	}
}

func TestPostRingResetDropsPreviousPanel(t *testing.T) {
	r := newPostRing(4)
	r.reset(0)
	r.push(packrec.PositionEntry{Pos: 1})
	r.push(packrec.PositionEntry{Pos: 2})

	r.reset(0)
	r.push(packrec.PositionEntry{Pos: 99})

	got := r.slice(0, 1)
	if len(got) != 1 || got[0].Pos != 99 {
		t.Errorf("slice after reset = %v, want a single entry with Pos=99 (previous panel must not leak through)", got)
	}
}
