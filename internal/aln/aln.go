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

// Package aln holds the Alignment/Overlap domain type shared by C4
// (which produces it), C5 (which filters it) and the .las codec (which
// serializes it) — spec.md §3, "Alignment (Overlap)".
package aln

// TSpace is the fixed trace segment width, spec.md's GLOSSARY "TSPACE".
const TSpace = 100

// Alignment is one verified local alignment between two contigs.
type Alignment struct {
	AContig int32
	BContig int32
	Reverse bool // b-side reverse complement

	ABeg, AEnd int64
	BBeg, BEnd int64
	Diffs      int

	// Trace holds, per TSpace-wide a-segment, the (diffCount, bLen) pair
	// the aligner emitted for that segment (spec.md §3, "Trace is an
	// array of per-TSPACE-segment difference and b-length bytes").
	Trace []TraceSeg
}

// TraceSeg is one segment of an alignment's trace.
type TraceSeg struct {
	Diffs int
	BLen  int
}

// ALen returns the a-side span of the alignment.
func (a *Alignment) ALen() int64 { return a.AEnd - a.ABeg }

// BLen returns the b-side span of the alignment.
func (a *Alignment) BLen() int64 { return a.BEnd - a.BBeg }

// Identity returns the alignment's implied identity, 1 - diffs/alen,
// used to enforce spec.md §6's "-e identity" cutoff.
func (a *Alignment) Identity() float64 {
	if a.ALen() == 0 {
		return 0
	}
	return 1 - float64(a.Diffs)/float64(a.ALen())
}

// bAt returns the b-coordinate reached after walking the trace up to
// (and including) the a-segment ending at or before aCoord, used by the
// redundancy filter's entwinement computation (spec.md §4.5).
func (a *Alignment) bAt(aCoord int64) int64 {
	b := a.BBeg
	aCur := a.ABeg
	for _, seg := range a.Trace {
		segAEnd := aCur + TSpace
		if segAEnd > a.AEnd {
			segAEnd = a.AEnd
		}
		if aCoord < segAEnd {
			// linear interpolation within the segment is not available
			// without the base-level trace; FastGA's own entwinement
			// only samples at segment boundaries, so we do the same.
			return b
		}
		b += int64(seg.BLen)
		aCur = segAEnd
	}
	return b
}

// Entwine computes the signed minimum b-offset difference between two
// alignments over the a-range they share, sampled at TSpace boundaries,
// and reports whether their trajectories cross (spec.md §4.5,
// "Entwinement (decisive detail)").
func Entwine(a, b *Alignment) (minDiff int64, crosses bool, where int64) {
	lo := a.ABeg
	if b.ABeg > lo {
		lo = b.ABeg
	}
	hi := a.AEnd
	if b.AEnd < hi {
		hi = b.AEnd
	}
	if hi <= lo {
		return 0, false, lo
	}

	first := true
	var prevSign int
	minAbs := int64(-1)
	for x := lo - (lo % TSpace); x <= hi; x += TSpace {
		if x < lo {
			continue
		}
		diff := a.bAt(x) - b.bAt(x)
		sign := 0
		switch {
		case diff > 0:
			sign = 1
		case diff < 0:
			sign = -1
		}
		if !first && sign != 0 && prevSign != 0 && sign != prevSign {
			crosses = true
			where = x
		}
		if sign != 0 {
			prevSign = sign
		}
		first = false

		abs := diff
		if abs < 0 {
			abs = -abs
		}
		if minAbs == -1 || abs < minAbs {
			minAbs = abs
			minDiff = diff
		}
	}
	if minAbs == -1 {
		return 0, false, lo
	}
	return minDiff, crosses, where
}
