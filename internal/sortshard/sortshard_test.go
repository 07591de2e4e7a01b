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

package sortshard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shenwei356/gofastga/internal/packrec"
)

func writeSeedShard(t *testing.T, path string, ibyte, jbyte, acbyte, bcbyte int, recs []packrec.SeedRecord) {
	t.Helper()
	width := packrec.SeedRecordWidth(ibyte, jbyte)
	buf := make([]byte, width*len(recs))
	for i, r := range recs {
		packrec.EncodeSeedRecord(buf[i*width:(i+1)*width], ibyte, jbyte, acbyte, bcbyte, &r)
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func TestImportShardComputesDiag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shard.N")
	recs := []packrec.SeedRecord{
		{LCP: 12, APos: 100, AContig: 0, AReverse: false, BPos: 80, BContig: 0, BReverse: false},
	}
	writeSeedShard(t, path, 5, 5, 1, 1, recs)

	bLen := func(contig int32) int64 { return 1000 }
	out, err := ImportShard(path, 5, 5, 1, 1, true, bLen, 12)
	if err != nil {
		t.Fatalf("ImportShard: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("ImportShard() = %d records, want 1", len(out))
	}
	want := uint64(100 - 80 + 1000)
	if out[0].Diag != want {
		t.Errorf("Diag = %d, want %d", out[0].Diag, want)
	}
	if out[0].Reverse {
		t.Errorf("same-strand import set Reverse=true")
	}
}

func TestImportShardOppositeStrandFlip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shard.C")
	recs := []packrec.SeedRecord{
		{LCP: 10, APos: 50, AContig: 2, AReverse: false, BPos: 30, BContig: 3, BReverse: true},
	}
	writeSeedShard(t, path, 5, 5, 1, 1, recs)

	bLen := func(contig int32) int64 { return 0 }
	out, err := ImportShard(path, 5, 5, 1, 1, false, bLen, 10)
	if err != nil {
		t.Fatalf("ImportShard: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("ImportShard() = %d records, want 1", len(out))
	}
	if !out[0].Reverse {
		t.Errorf("opposite-strand import did not set Reverse=true")
	}
	want := uint64(50 + 30) // opposite-strand diag is aPos+bPos, no flip adjustment applied
	if out[0].Diag != want {
		t.Errorf("Diag = %d, want %d", out[0].Diag, want)
	}
}

func TestSortStableOrdersByContigDiagAPos(t *testing.T) {
	recs := []Record{
		{AContig: 1, Diag: 5, APos: 10},
		{AContig: 0, Diag: 9, APos: 1},
		{AContig: 0, Diag: 1, APos: 100},
		{AContig: 0, Diag: 1, APos: 50},
	}
	SortStable(recs)

	want := []Record{
		{AContig: 0, Diag: 1, APos: 50},
		{AContig: 0, Diag: 1, APos: 100},
		{AContig: 0, Diag: 9, APos: 1},
		{AContig: 1, Diag: 5, APos: 10},
	}
	for i := range want {
		if recs[i].AContig != want[i].AContig || recs[i].Diag != want[i].Diag || recs[i].APos != want[i].APos {
			t.Errorf("#%d, got %+v, want %+v", i, recs[i], want[i])
		}
	}
}

func TestPartitionCoversAllRecordsByContig(t *testing.T) {
	records := []Record{
		{AContig: 0}, {AContig: 0}, {AContig: 0},
		{AContig: 1}, {AContig: 1},
		{AContig: 2},
	}
	ranges := Partition(records, 2)
	if len(ranges) == 0 {
		t.Fatalf("Partition() returned no ranges")
	}

	var total int
	for i, r := range ranges {
		end := len(records)
		if i+1 < len(ranges) {
			end = ranges[i+1].StartIndex
		}
		total += end - r.StartIndex
	}
	if total != len(records) {
		t.Errorf("ranges cover %d records, want %d", total, len(records))
	}

	// Every record must lie within its range's [BeginContig, EndContig].
	for i, r := range ranges {
		end := len(records)
		if i+1 < len(ranges) {
			end = ranges[i+1].StartIndex
		}
		for j := r.StartIndex; j < end; j++ {
			if records[j].AContig < r.BeginContig || records[j].AContig > r.EndContig {
				t.Errorf("range %d [%d,%d) BeginContig/EndContig %d/%d does not cover record contig %d",
					i, r.StartIndex, end, r.BeginContig, r.EndContig, records[j].AContig)
			}
		}
	}
}

func TestPartitionEmpty(t *testing.T) {
	if got := Partition(nil, 4); got != nil {
		t.Errorf("Partition(nil) = %v, want nil", got)
	}
}
