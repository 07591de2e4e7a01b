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
	"os"
	"testing"

	"github.com/shenwei356/gofastga/internal/packrec"
)

func TestShardWriterRoutesByStrandAndPartition(t *testing.T) {
	dir := t.TempDir()
	w, err := NewShardWriter(dir, 7, 0, 2, 5, 5, 1, 1)
	if err != nil {
		t.Fatalf("NewShardWriter: %v", err)
	}

	same := &packrec.SeedRecord{LCP: 12, APos: 1, AContig: 0, BPos: 2, BContig: 0}
	opp := &packrec.SeedRecord{LCP: 10, APos: 3, AContig: 0, BPos: 4, BContig: 0}

	if err := w.Write(1, true, same); err != nil {
		t.Fatalf("Write same-strand: %v", err)
	}
	if err := w.Write(0, false, opp); err != nil {
		t.Fatalf("Write opposite-strand: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if w.Buck[0][1] != 1 || w.Buck[0][0] != 0 {
		t.Errorf("Buck[N] = %v, want [0 1]", w.Buck[0])
	}
	if w.Buck[1][0] != 1 || w.Buck[1][1] != 0 {
		t.Errorf("Buck[C] = %v, want [1 0]", w.Buck[1])
	}

	nPaths := w.Paths(byte('N'))
	cPaths := w.Paths(byte('C'))
	if len(nPaths) != 2 || len(cPaths) != 2 {
		t.Fatalf("Paths() returned wrong counts: N=%d C=%d", len(nPaths), len(cPaths))
	}

	width := packrec.SeedRecordWidth(5, 5)
	data, err := os.ReadFile(nPaths[1])
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", nPaths[1], err)
	}
	if len(data) != width {
		t.Fatalf("N partition 1 has %d bytes, want %d", len(data), width)
	}
	var rec packrec.SeedRecord
	packrec.DecodeSeedRecord(data, 5, 5, 1, 1, &rec)
	if rec.APos != 1 || rec.BPos != 2 || rec.LCP != 12 {
		t.Errorf("decoded same-strand record = %+v, want APos=1 BPos=2 LCP=12", rec)
	}

	emptyPath := nPaths[0]
	if info, err := os.Stat(emptyPath); err != nil || info.Size() != 0 {
		t.Errorf("N partition 0 should be empty, got size=%v err=%v", info, err)
	}

	if info, err := os.Stat(cPaths[0]); err != nil || info.Size() != int64(width) {
		t.Errorf("C partition 0 should hold one record, got size=%v err=%v", info, err)
	}
}
