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

// Package dotplot renders a .las file's alignments as a whole-genome dot
// plot, the Go equivalent of original_source/ALNplot.c. Each alignment's
// start and end become two scatter points (no connecting segment), with
// the contigs that carry alignments laid out end to end along each axis.
package dotplot

import (
	"image/color"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/shenwei356/gofastga/internal/aln"
)

// Options mirrors ALNplot.c's CLI flags (spec.md's supplemented feature,
// since spec.md itself scopes the plotting tool out of C1-C6 but the
// original program ships it alongside FastGA).
type Options struct {
	MinAlignLen int64   // -l, default 50
	MinIdentity float64 // -i, default 0.7
	Width       vg.Length
	Height      vg.Length
	FontSize    vg.Length // -f, default 11
	NoLabel     bool      // -L
	Title       string    // -T
	TargetA     string    // -x, restrict to one a-contig
	TargetB     string    // -y, restrict to one b-contig
}

// DefaultOptions matches ALNplot.c's static defaults.
var DefaultOptions = Options{
	MinAlignLen: 50,
	MinIdentity: 0.7,
	Width:       6 * vg.Inch,
	Height:      6 * vg.Inch,
	FontSize:    11,
}

// ContigNamer resolves a contig index to its display name, backed by
// internal/twobit.Store.Contigs in production and a plain slice in tests.
type ContigNamer interface {
	Name(idx int32) string
	Length(idx int32) int64
	Count() int
}

// offsetTable lays out contigs end to end along one axis, the same
// "concatenate all contigs, offset by cumulative length" trick ALNplot.c
// uses for its single scatter surface, here applied only to the contigs
// that carry at least one kept alignment.
type offsetTable struct {
	offset map[int32]int64
	order  []int32
	total  int64
}

func buildOffsets(namer ContigNamer, used map[int32]bool) *offsetTable {
	t := &offsetTable{offset: make(map[int32]int64)}
	ids := make([]int32, 0, len(used))
	for id := range used {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		t.offset[id] = t.total
		t.order = append(t.order, id)
		t.total += namer.Length(id)
	}
	return t
}

// Render filters alns by MinAlignLen/MinIdentity (and TargetA/TargetB when
// set), lays both axes out contig-by-contig, and writes a dot plot to path
// (format inferred from its extension — "pdf", "png", "svg", "eps", the
// same OUTPDF/OUTEPS choice ALNplot.c exposes via -p/-e).
func Render(alns []*aln.Alignment, aNamer, bNamer ContigNamer, opt Options, path string) error {
	var targetAIdx, targetBIdx int32 = -1, -1
	if opt.TargetA != "" {
		targetAIdx = findContig(aNamer, opt.TargetA)
	}
	if opt.TargetB != "" {
		targetBIdx = findContig(bNamer, opt.TargetB)
	}

	var kept []*aln.Alignment
	usedA, usedB := map[int32]bool{}, map[int32]bool{}
	for _, a := range alns {
		if a.ALen() < opt.MinAlignLen {
			continue
		}
		if a.Identity() < opt.MinIdentity {
			continue
		}
		if targetAIdx >= 0 && a.AContig != targetAIdx {
			continue
		}
		if targetBIdx >= 0 && a.BContig != targetBIdx {
			continue
		}
		kept = append(kept, a)
		usedA[a.AContig] = true
		usedB[a.BContig] = true
	}
	if len(kept) == 0 {
		return errors.New("dotplot: no alignments survive the length/identity filters")
	}

	aOff := buildOffsets(aNamer, usedA)
	bOff := buildOffsets(bNamer, usedB)

	p := plot.New()
	p.Title.Text = opt.Title
	p.X.Label.Text = "a-genome"
	p.Y.Label.Text = "b-genome"

	fwd := make(plotter.XYs, 0, len(kept))
	rev := make(plotter.XYs, 0, len(kept))
	for _, a := range kept {
		ax0 := float64(aOff.offset[a.AContig] + a.ABeg)
		ax1 := float64(aOff.offset[a.AContig] + a.AEnd)
		by0 := float64(bOff.offset[a.BContig] + a.BBeg)
		by1 := float64(bOff.offset[a.BContig] + a.BEnd)
		if a.Reverse {
			rev = append(rev, plotter.XY{X: ax0, Y: by1}, plotter.XY{X: ax1, Y: by0})
		} else {
			fwd = append(fwd, plotter.XY{X: ax0, Y: by0}, plotter.XY{X: ax1, Y: by1})
		}
	}

	if len(fwd) > 0 {
		line, err := plotter.NewScatter(fwd)
		if err != nil {
			return err
		}
		line.Color = color.RGBA{R: 200, A: 255}
		p.Add(line)
	}
	if len(rev) > 0 {
		line, err := plotter.NewScatter(rev)
		if err != nil {
			return err
		}
		line.Color = color.RGBA{B: 200, A: 255}
		p.Add(line)
	}

	if !opt.NoLabel {
		addContigGrid(p, aOff, true)
		addContigGrid(p, bOff, false)
	}

	return p.Save(opt.Width, opt.Height, path)
}

// addContigGrid draws a vertical (x-axis) or horizontal (y-axis) rule at
// every contig boundary, the dot plot's equivalent of ALNplot.c's per-
// sequence guide lines.
func addContigGrid(p *plot.Plot, t *offsetTable, vertical bool) {
	for _, id := range t.order {
		v := float64(t.offset[id])
		var pts plotter.XYs
		if vertical {
			pts = plotter.XYs{{X: v, Y: 0}, {X: v, Y: float64(t.total)}}
		} else {
			pts = plotter.XYs{{X: 0, Y: v}, {X: float64(t.total), Y: v}}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			continue
		}
		line.Color = color.Gray{Y: 200}
		line.Width = vg.Points(0.5)
		p.Add(line)
	}
}

func findContig(namer ContigNamer, name string) int32 {
	n := namer.Count()
	for i := int32(0); i < int32(n); i++ {
		if namer.Name(i) == name {
			return i
		}
	}
	return -1
}
