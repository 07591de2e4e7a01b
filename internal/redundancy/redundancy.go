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

// Package redundancy implements C5, the two-pass dominance/entwinement
// filter that removes redundant alignments within one contig pair before
// they are appended to the per-thread output .las file.
package redundancy

import (
	"sort"

	"github.com/shenwei356/gofastga/internal/aln"
)

const slack = 10 // bases of extent-containment tolerance, spec.md §4.5

// Filter removes dominated and duplicate alignments from alns, in place
// conceptually, and returns the survivors in ascending a-begin order.
// alns must all belong to the same contig pair.
func Filter(alns []*aln.Alignment) []*aln.Alignment {
	n := len(alns)
	if n <= 1 {
		return alns
	}

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	sort.Slice(perm, func(i, j int) bool { return alns[perm[i]].ABeg < alns[perm[j]].ABeg })

	dropped := make([]bool, n)

	// Pass 1: exact-endpoint sharing (spec.md §4.5, first bullet list).
	// O=perm[di] scans descending; for each O we scan forward over W=
	// perm[dj], dj=di+1.., i.e. alignments later in a-order than O
	// (FastGA.c:1720-1769's k=j+1 sweep), stopping once W starts past O's
	// a-end.
	for di := n - 1; di >= 0; di-- {
		i := perm[di]
		if dropped[i] {
			continue
		}
		A := alns[i]
		for dj := di + 1; dj < n; dj++ {
			j := perm[dj]
			if dropped[j] {
				continue
			}
			B := alns[j]
			if B.ABeg > A.AEnd {
				break
			}
			sameBeg := A.ABeg == B.ABeg && A.BBeg == B.BBeg
			sameEnd := A.AEnd == B.AEnd && A.BEnd == B.BEnd
			switch {
			case sameBeg && sameEnd:
				if A.Diffs <= B.Diffs {
					dropped[j] = true
				} else {
					dropped[i] = true
				}
			case sameBeg:
				if A.ALen() >= B.ALen() {
					dropped[j] = true
				} else {
					dropped[i] = true
				}
			case sameEnd:
				if A.ALen() >= B.ALen() {
					dropped[j] = true
				} else {
					dropped[i] = true
				}
			}
			if dropped[i] {
				break
			}
		}
	}

	// Pass 2: overlap-extent entwinement/dominance (spec.md §4.5,
	// "Second pass").
	for di := 0; di < n; di++ {
		i := perm[di]
		if dropped[i] {
			continue
		}
		A := alns[i]
		for dj := di + 1; dj < n; dj++ {
			j := perm[dj]
			if dropped[j] {
				continue
			}
			B := alns[j]
			if B.ABeg > A.AEnd {
				break
			}
			if !overlaps(A.BBeg, A.BEnd, B.BBeg, B.BEnd) {
				continue
			}

			_, crosses, _ := aln.Entwine(A, B)
			if crosses {
				continue // fused: keep both (spec.md §4.5)
			}

			if contains(A, B, slack) {
				dropped[j] = true // the "CONTAIN" branch: mark and continue scanning
				continue
			}
			if contains(B, A, slack) {
				dropped[i] = true
				break
			}
		}
	}

	survivors := make([]*aln.Alignment, 0, n)
	for _, i := range perm {
		if !dropped[i] {
			survivors = append(survivors, alns[i])
		}
	}
	return survivors
}

func overlaps(lo1, hi1, lo2, hi2 int64) bool {
	return lo1 < hi2 && lo2 < hi1
}

// contains reports whether A dominates B in both a- and b-extent within
// slack bases (spec.md §4.5, "dominated" definition).
func contains(A, B *aln.Alignment, slack int64) bool {
	return A.ABeg <= B.ABeg+slack && A.AEnd >= B.AEnd-slack &&
		A.BBeg <= B.BBeg+slack && A.BEnd >= B.BEnd-slack &&
		A.ALen() >= B.ALen()
}
