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

// Package chain implements C4: walking a contig pair's sorted seed
// records bucket by adjacent diagonal bucket, assembling chains, and
// invoking the local aligner oracle on each surviving chain.
package chain

import (
	"sort"
	"sync"

	"github.com/shenwei356/gofastga/internal/aln"
	"github.com/shenwei356/gofastga/internal/packrec"
	"github.com/shenwei356/gofastga/internal/sortshard"
)

// Options mirrors the run's immutable chain/align thresholds (spec.md §6 CLI flags).
type Options struct {
	ChainMin   int64   // -c, default 100
	ChainBreak int64   // -s, default 500
	AlignMin   int64   // -a, default 100
	AlignRate  float64 // -e, default 0.7
}

// DefaultOptions matches the CLI defaults in spec.md §6.
var DefaultOptions = Options{ChainMin: 100, ChainBreak: 500, AlignMin: 100, AlignRate: 0.7}

// bPosEntry is one (b-post, lcp) pair accumulated while a chain is open,
// used for the b-side coverage computation (spec.md §4.4).
type bPosEntry struct {
	bPost int64
	lcp   int
}

// Worker drives align_contigs for one a-contig partition. It owns
// reusable scratch slices (the teacher's sync.Pool idiom, lib-chaining.go)
// so repeated contig pairs do not reallocate.
type Worker struct {
	opt     *Options
	aligner Aligner

	list []bPosEntry // current chain's (b-post, lcp) pairs

	loadA func(contig int32, reverse bool, beg, end int64) ([]byte, error)
	loadB func(contig int32, reverse bool, beg, end int64) ([]byte, error)
}

// NewWorker builds a C4 worker with the given aligner oracle and base
// loaders (normally backed by internal/twobit.Store.SubSeq).
func NewWorker(opt *Options, aligner Aligner,
	loadA, loadB func(contig int32, reverse bool, beg, end int64) ([]byte, error)) *Worker {
	return &Worker{opt: opt, aligner: aligner, list: make([]bPosEntry, 0, 64), loadA: loadA, loadB: loadB}
}

var poolLists = sync.Pool{New: func() interface{} {
	s := make([]bPosEntry, 0, 64)
	return &s
}}

// AlignContigPair runs spec.md §4.4's algorithm over one contig pair's
// sorted seed records (already restricted to this (aContig, bContig)
// pair and already diag/a-post sorted by C3). aContigLen/bContigLen give
// the contigs' lengths for band extraction.
func (w *Worker) AlignContigPair(records []sortshard.Record, aContig, bContig int32, aContigLen, bContigLen int64) ([]*aln.Alignment, error) {
	if len(records) == 0 {
		return nil, nil
	}
	reverse := records[0].Reverse

	var out []*aln.Alignment
	var alast int64 = -1 // last a-end that produced an accepted alignment, spec.md "Windowing rules"

	i := 0
	prevHadUpper := false // the previous window had records on its cdiag+1
	for i < len(records) {
		cdiag := packrec.Bucket(records[i].Diag)

		b := i
		m := i
		for m < len(records) && packrec.Bucket(records[m].Diag) == cdiag {
			m++
		}
		e := m
		for e < len(records) && packrec.Bucket(records[e].Diag) == cdiag+1 {
			e++
		}

		aux := m > b && e > m  // records exist on both cdiag and cdiag+1
		isNew := !prevHadUpper // cdiag was not already the upper bucket of the previous window

		// mix != 1 || new gate (spec.md §9 open question): only inspect
		// the window when either both diagonals contributed records, or
		// this is the first time we are looking at cdiag (i.e. the
		// window was not already fully covered by the (cdiag-1, cdiag)
		// inspection on the previous iteration).
		mix := 1
		if aux {
			mix = 2
		}
		if mix != 1 || isNew {
			chains, newAlast, err := w.scanWindow(records[b:e], aContig, bContig, aContigLen, bContigLen, reverse, alast)
			if err != nil {
				return nil, err
			}
			alast = newAlast
			out = append(out, chains...)
		}

		prevHadUpper = e > m
		i = m
	}

	return out, nil
}

// scanWindow merges the two diagonal sub-ranges by ascending b-post,
// builds chains by the CHAIN_BREAK rule, and for each chain clearing the
// coverage filters invokes the aligner (spec.md §4.4 "Within the window").
func (w *Worker) scanWindow(window []sortshard.Record, aContig, bContig int32, aContigLen, bContigLen int64, reverse bool, alast int64) ([]*aln.Alignment, int64, error) {
	for _, r := range window {
		if r.BPos < 0 || r.BPos > bContigLen {
			panic("chain: b-post out of contig bounds")
		}
	}

	merged := make([]sortshard.Record, len(window))
	copy(merged, window)
	sort.Slice(merged, func(i, j int) bool {
		bi := bPostOf(merged[i], reverse)
		bj := bPostOf(merged[j], reverse)
		return bi < bj
	})

	var out []*aln.Alignment
	opt := w.opt

	listp := poolLists.Get().(*[]bPosEntry)
	*listp = (*listp)[:0]
	defer poolLists.Put(listp)

	var cov, lps int64
	var chainStart int
	flush := func(end int) {
		if end <= chainStart {
			return
		}
		chain := merged[chainStart:end]
		if cov >= opt.ChainMin {
			jcov := bSideCoverage(*listp)
			if jcov >= opt.ChainMin {
				a, ok := w.alignChain(chain, aContig, bContig, aContigLen, bContigLen, reverse, alast)
				if ok {
					out = append(out, a)
					if !reverse {
						alast = a.AEnd
					} else {
						alast = a.ABeg
					}
				}
			}
		}
		cov, lps = 0, 0
		*listp = (*listp)[:0]
	}

	for i, r := range merged {
		if i > chainStart && merged[i].APos-merged[i-1].APos > opt.ChainBreak {
			flush(i)
			chainStart = i
		}
		aEnd := r.APos + int64(r.LCP)
		if lps == 0 || r.APos >= lps {
			cov += int64(r.LCP)
		} else if aEnd > lps {
			cov += aEnd - lps
		}
		if aEnd > lps {
			lps = aEnd
		}
		*listp = append(*listp, bPosEntry{bPost: bPostOf(r, reverse), lcp: int(r.LCP)})
	}
	flush(len(merged))

	return out, alast, nil
}

// bPostOf returns the seed's b-post, negated on the opposite strand so
// that it ascends with a-post along an anti-diagonal chain.
func bPostOf(r sortshard.Record, reverse bool) int64 {
	if reverse {
		return -r.BPos
	}
	return r.BPos
}

// bSideCoverage sorts the chain's (b-post, lcp) entries and applies the
// same union-of-lcp-spans rule used for the a-side cov (spec.md §4.4 step 2).
func bSideCoverage(list []bPosEntry) int64 {
	sorted := make([]bPosEntry, len(list))
	copy(sorted, list)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].bPost < sorted[j].bPost })

	var jcov, lps int64
	for _, e := range sorted {
		end := e.bPost + int64(e.lcp)
		if lps == 0 || e.bPost >= lps {
			jcov += int64(e.lcp)
		} else if end > lps {
			jcov += end - lps
		}
		if end > lps {
			lps = end
		}
	}
	return jcov
}

// alignChain computes the tight diagonal envelope and anti-diagonal
// midpoint, loads the two contigs' bases on demand, calls the aligner,
// and applies the ALIGN_MIN/ALIGN_RATE acceptance filters (spec.md §4.4
// step 3 and §7 "Failure").
func (w *Worker) alignChain(chainRecs []sortshard.Record, aContig, bContig int32, aContigLen, bContigLen int64, reverse bool, alast int64) (*aln.Alignment, bool) {
	var aMin, aMax, bMin, bMax int64
	first := true
	for _, r := range chainRecs {
		aLo, aHi := r.APos, r.APos+int64(r.LCP)
		bLo, bHi := r.BPos, r.BPos+int64(r.LCP)
		if first {
			aMin, aMax, bMin, bMax = aLo, aHi, bLo, bHi
			first = false
			continue
		}
		if aLo < aMin {
			aMin = aLo
		}
		if aHi > aMax {
			aMax = aHi
		}
		if bLo < bMin {
			bMin = bLo
		}
		if bHi > bMax {
			bMax = bHi
		}
	}

	if !reverse && aMin < alast {
		aMin = alast
	}
	if reverse && aMax > alast && alast >= 0 {
		aMax = alast
	}
	if aMax <= aMin {
		return nil, false
	}

	const pad = 64
	aBeg := clamp(aMin-pad, 0, aContigLen)
	aEnd := clamp(aMax+pad, 0, aContigLen)
	bBeg := clamp(bMin-pad, 0, bContigLen)
	bEnd := clamp(bMax+pad, 0, bContigLen)

	aBases, err := w.loadA(aContig, false, aBeg, aEnd)
	if err != nil {
		return nil, false
	}
	bBases, err := w.loadB(bContig, reverse, bBeg, bEnd)
	if err != nil {
		return nil, false
	}

	dgMin := aMin - bMax
	dgMax := aMax - bMin
	anti := (aMin + aMax + bMin + bMax) / 2

	a, err := w.aligner.Align(aBases, bBases, dgMin, dgMax, anti)
	if err != nil || a == nil {
		return nil, false // aligner failure is not an error (spec.md §4.4 "Failure")
	}

	a.AContig, a.BContig, a.Reverse = aContig, bContig, reverse
	a.ABeg += aBeg
	a.AEnd += aBeg
	a.BBeg += bBeg
	a.BEnd += bBeg

	if a.ALen() < w.opt.AlignMin {
		return nil, false
	}
	if a.Identity() < w.opt.AlignRate {
		return nil, false
	}
	return a, true
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
