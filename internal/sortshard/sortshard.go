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

// Package sortshard implements C3: re-importing one worker's packed seed
// shard, computing each record's diagonal, and externally sorting the
// resulting in-memory records by (a-contig, diag, a-post).
package sortshard

import (
	"bufio"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/twotwotwo/sorts"

	"github.com/shenwei356/gofastga/internal/packrec"
)

// Record is one seed after diagonal computation, ready for sorting and
// for C4 to consume; it keeps the fields C4's windowing needs directly,
// rather than re-decoding the packed form on every comparison.
type Record struct {
	AContig int32
	BContig int32
	Diag    uint64
	APos    int64
	BPos    int64
	LCP     uint8
	Reverse bool // opposite-strand seed, inherited from its source family
}

// computeDiag implements spec.md §4.3 step 1's diagonal formula.
// bContigLen and the flip bit are only relevant on the same-strand
// family, where FastGA additionally shifts a-post by k-lcp when the
// b-side "flip" bit is set; ImportShard applies that shift to aPos
// before calling computeDiag.
func computeDiag(sameStrand bool, aPos, bPos, bContigLen int64) uint64 {
	if sameStrand {
		d := aPos - bPos + bContigLen
		if d < 0 {
			d = 0
		}
		return uint64(d)
	}
	return uint64(aPos + bPos)
}

// ImportShard streams packed seed records from path, computes their
// diagonal, and returns them as Records ready for sorting. k is needed
// to apply the flip-bit a-post adjustment on same-strand seeds.
func ImportShard(path string, ibyte, jbyte, acbyte, bcbyte int, sameStrand bool, bContigLen func(int32) int64, k int) ([]Record, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	defer fh.Close()

	width := packrec.SeedRecordWidth(ibyte, jbyte)
	info, err := fh.Stat()
	if err != nil {
		return nil, err
	}
	n := int(info.Size() / int64(width))
	out := make([]Record, 0, n)

	buf := make([]byte, width)
	r := bufio.NewReaderSize(fh, 1<<20)
	var sr packrec.SeedRecord
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		packrec.DecodeSeedRecord(buf, ibyte, jbyte, acbyte, bcbyte, &sr)

		aPos := sr.APos
		bLen := bContigLen(sr.BContig)
		if sameStrand && sr.BReverse {
			aPos += int64(k) - int64(sr.LCP)
		}
		diag := computeDiag(sameStrand, aPos, sr.BPos, bLen)

		out = append(out, Record{
			AContig: sr.AContig, BContig: sr.BContig, Diag: diag,
			APos: sr.APos, BPos: sr.BPos, LCP: sr.LCP, Reverse: !sameStrand,
		})
	}
	return out, nil
}

// bySortKey implements sorts.Interface (twotwotwo/sorts, the teacher's
// own parallel sort) over the (a-contig, diag, a-post) key, per spec.md
// §4.3 step 2.
type bySortKey []Record

func (s bySortKey) Len() int { return len(s) }
func (s bySortKey) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s bySortKey) Less(i, j int) bool {
	if s[i].AContig != s[j].AContig {
		return s[i].AContig < s[j].AContig
	}
	if s[i].Diag != s[j].Diag {
		return s[i].Diag < s[j].Diag
	}
	return s[i].APos < s[j].APos
}

// Key exposes the integer radix key sorts.ByInt64 sorts on. It is
// consistent with Less: a-contig in the high bits, diag (below 2^40) in
// the low 40 bits, so records with equal keys differ only in a-post,
// which Less decides.
func (s bySortKey) Key(i int) int64 {
	return int64(s[i].AContig)<<40 | int64(s[i].Diag)
}

// Sort orders records in place by (a-contig, diag, a-post), using the
// teacher's twotwotwo/sorts package for parallel radix/merge sort over
// large in-memory slices (the concern spec.md calls "external radix/RMS
// sort" is, for an in-process Go port, a large parallel in-memory sort
// over one shard at a time).
func Sort(records []Record) {
	sorts.ByInt64(bySortKey(records))
}

// SortStable is used by tests that need a deterministic tie-break beyond
// (a-contig, diag, a-post); production code relies on Sort.
func SortStable(records []Record) {
	sort.Stable(bySortKey(records))
}

// Range is one worker's output partition after sorting: the a-contig
// span it owns and the byte offset (record index) where it starts.
type Range struct {
	BeginContig int32
	EndContig   int32
	StartIndex  int
}

// Partition splits a sorted record slice into NTHREADS roughly-equal
// ranges by a-contig, mirroring the range[] table FastGA's rmsd_sort
// hands back to C4.
func Partition(records []Record, nthreads int) []Range {
	if len(records) == 0 || nthreads <= 0 {
		return nil
	}
	perWorker := (len(records) + nthreads - 1) / nthreads
	var ranges []Range
	i := 0
	for i < len(records) {
		begin := records[i].AContig
		start := i
		end := i
		for end < len(records) && end-start < perWorker {
			end++
		}
		for end < len(records) && records[end].AContig == records[end-1].AContig {
			end++
		}
		var lastContig int32
		if end > 0 {
			lastContig = records[end-1].AContig
		}
		ranges = append(ranges, Range{BeginContig: begin, EndContig: lastContig, StartIndex: start})
		i = end
	}
	return ranges
}
