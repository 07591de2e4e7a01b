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

package dotplot

import (
	"path/filepath"
	"testing"

	"gonum.org/v1/plot/vg"

	"github.com/shenwei356/gofastga/internal/aln"
)

type fakeNamer struct {
	names   []string
	lengths []int64
}

func (f *fakeNamer) Name(idx int32) string  { return f.names[idx] }
func (f *fakeNamer) Length(idx int32) int64 { return f.lengths[idx] }
func (f *fakeNamer) Count() int             { return len(f.names) }

func TestBuildOffsetsCumulative(t *testing.T) {
	namer := &fakeNamer{names: []string{"c0", "c1", "c2"}, lengths: []int64{100, 200, 50}}
	used := map[int32]bool{0: true, 1: true, 2: true}

	off := buildOffsets(namer, used)
	if off.offset[0] != 0 {
		t.Errorf("offset[0] = %d, want 0", off.offset[0])
	}
	if off.offset[1] != 100 {
		t.Errorf("offset[1] = %d, want 100", off.offset[1])
	}
	if off.offset[2] != 300 {
		t.Errorf("offset[2] = %d, want 300", off.offset[2])
	}
	if off.total != 350 {
		t.Errorf("total = %d, want 350", off.total)
	}
}

func TestBuildOffsetsSkipsUnused(t *testing.T) {
	namer := &fakeNamer{names: []string{"c0", "c1"}, lengths: []int64{100, 200}}
	used := map[int32]bool{1: true}

	off := buildOffsets(namer, used)
	if len(off.order) != 1 || off.order[0] != 1 {
		t.Fatalf("order = %v, want [1]", off.order)
	}
	if off.total != 200 {
		t.Errorf("total = %d, want 200", off.total)
	}
}

func TestRenderNoSurvivorsErrors(t *testing.T) {
	namer := &fakeNamer{names: []string{"c0"}, lengths: []int64{1000}}
	alns := []*aln.Alignment{{AContig: 0, BContig: 0, ABeg: 0, AEnd: 10, BBeg: 0, BEnd: 10}}

	opt := DefaultOptions
	path := filepath.Join(t.TempDir(), "out.png")
	err := Render(alns, namer, namer, opt, path)
	if err == nil {
		t.Fatalf("Render() with a too-short alignment should have errored")
	}
}

func TestRenderWritesFile(t *testing.T) {
	namer := &fakeNamer{names: []string{"c0", "c1"}, lengths: []int64{1000, 1000}}
	alns := []*aln.Alignment{
		{AContig: 0, BContig: 1, ABeg: 0, AEnd: 500, BBeg: 0, BEnd: 500, Diffs: 0},
		{AContig: 0, BContig: 1, Reverse: true, ABeg: 600, AEnd: 900, BBeg: 100, BEnd: 400, Diffs: 10},
	}

	opt := DefaultOptions
	opt.Width = 2 * vg.Inch
	opt.Height = 2 * vg.Inch
	path := filepath.Join(t.TempDir(), "out.png")
	if err := Render(alns, namer, namer, opt, path); err != nil {
		t.Fatalf("Render: %v", err)
	}
}

func TestFindContig(t *testing.T) {
	namer := &fakeNamer{names: []string{"chr1", "chr2"}, lengths: []int64{10, 10}}
	if got := findContig(namer, "chr2"); got != 1 {
		t.Errorf("findContig(chr2) = %d, want 1", got)
	}
	if got := findContig(namer, "nope"); got != -1 {
		t.Errorf("findContig(nope) = %d, want -1", got)
	}
}
