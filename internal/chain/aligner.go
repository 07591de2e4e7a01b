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

package chain

import (
	"strconv"

	"github.com/shenwei356/wfa"

	"github.com/shenwei356/gofastga/internal/aln"
)

// Aligner is the local-alignment oracle contract spec.md §9 asks us to
// treat as a black box: given a band and the two base strings, return an
// alignment or report that none was found (band too narrow, no
// sufficiently long path). Band/anti-diagonal hints are accepted but an
// implementation is free to ignore them.
type Aligner interface {
	Align(aBand, bBand []byte, dgMin, dgMax, anti int64) (*aln.Alignment, error)
}

// WFAligner adapts github.com/shenwei356/wfa's banded wavefront aligner
// (grounded on other_examples/shenwei356-wfa__wfa.go) to the Aligner
// contract. One WFAligner must not be shared across goroutines; each C4
// worker owns its own, matching the teacher's sync.Pool-recycled Aligner.
type WFAligner struct {
	inner *wfa.Aligner
	opt   wfa.Options
}

// NewWFAligner builds an aligner configured for global alignment of the
// band slices C4 hands it (the band itself already encodes the local
// region of interest, so the aligner need only align end-to-end within it).
// Remember to call Recycle after the worker thread is done with it.
func NewWFAligner() *WFAligner {
	opt := &wfa.Options{GlobalAlignment: true}
	inner := wfa.New(wfa.DefaultPenalties, opt)
	inner.AdaptiveReduction(wfa.DefaultAdaptiveOption)
	return &WFAligner{inner: inner, opt: *opt}
}

// Recycle returns the underlying wfa.Aligner to its object pool, mirroring
// the teacher's RecycleAligner contract.
func (w *WFAligner) Recycle() { wfa.RecycleAligner(w.inner) }

// Align runs the wavefront aligner over the supplied band and converts
// its CIGAR into an aln.Alignment with a TSpace-quantized trace. q is
// the a-side (query) band, t the b-side (target) band, matching the
// signature confirmed on wfa.Aligner.Align(q, t *[]byte).
func (w *WFAligner) Align(aBand, bBand []byte, dgMin, dgMax, anti int64) (*aln.Alignment, error) {
	cigar, err := w.inner.Align(&aBand, &bBand)
	if err != nil || cigar == nil {
		return nil, err
	}

	a := &aln.Alignment{
		ABeg: int64(cigar.QBegin), AEnd: int64(cigar.QEnd) + 1,
		BBeg: int64(cigar.TBegin), BEnd: int64(cigar.TEnd) + 1,
	}
	a.Diffs, a.Trace = cigarToTrace(cigar.CIGAR())
	return a, nil
}

// cigarToTrace walks a standard CIGAR string ("12M1X5M2I..."), counting
// mismatches/indels per TSpace-wide a-segment and the b-length consumed
// in that segment, matching the .las trace format (spec.md §6).
func cigarToTrace(s string) (diffs int, trace []aln.TraceSeg) {
	var aPos int
	var segDiffs, segBLen int
	flush := func() {
		trace = append(trace, aln.TraceSeg{Diffs: segDiffs, BLen: segBLen})
		segDiffs, segBLen = 0, 0
	}

	var numStart int
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			n, _ := strconv.Atoi(s[numStart:i])
			if n == 0 {
				n = 1
			}
			for n > 0 {
				step := n
				if c != 'I' && aPos+step > aln.TSpace {
					step = aln.TSpace - aPos // split the run at the segment boundary
				}
				switch c {
				case 'M', '=':
					segBLen += step
					aPos += step
				case 'X':
					diffs += step
					segDiffs += step
					segBLen += step
					aPos += step
				case 'I':
					diffs += step
					segDiffs += step
					segBLen += step
				case 'D':
					diffs += step
					segDiffs += step
					aPos += step
				}
				n -= step
				if aPos >= aln.TSpace {
					flush()
					aPos -= aln.TSpace
				}
			}
			numStart = i + 1
		}
	}
	if segDiffs > 0 || segBLen > 0 {
		flush()
	}
	return diffs, trace
}
