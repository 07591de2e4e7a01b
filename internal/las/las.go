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

// Package las implements the on-disk ".las" alignment file format
// (spec.md §6) and the external LAsort/LAmerge post-processing step.
package las

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/pkg/errors"

	"github.com/shenwei356/gofastga/internal/aln"
)

// Header is the fixed ".las" file header: spec.md §6, "int64 nels, int32 tspace".
type Header struct {
	Nels   int64
	TSpace int32
}

// Writer appends Alignment records to a ".las" file, deferring the
// header (which needs the final record count) until Close.
type Writer struct {
	fh   *os.File
	w    *bufio.Writer
	nels int64
}

// Create opens path for writing, reserving space for the header to be
// rewritten at Close.
func Create(path string) (*Writer, error) {
	fh, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	var hdr Header
	hdr.TSpace = aln.TSpace
	if err := binary.Write(fh, binary.LittleEndian, hdr); err != nil {
		fh.Close()
		return nil, err
	}
	return &Writer{fh: fh, w: bufio.NewWriterSize(fh, 1<<20)}, nil
}

// recordHeader is the fixed portion of one Overlap record; the trace
// that follows holds TraceLen segments, each written as a diffs value
// and a b-length value of 1 byte each (2 bytes each when TSPACE >= 126).
type recordHeader struct {
	AContig, BContig int32
	Reverse          int32
	ABeg, AEnd       int64
	BBeg, BEnd       int64
	Diffs            int32
	TraceLen         int32
}

// wide reports whether trace segments need 2 bytes (TSPACE >= 126); here
// TSPACE is fixed at 100, so this is always false, but the format keeps
// the flag for forward compatibility with the external sort/merge tools.
func wide() bool { return aln.TSpace >= 126 }

// Write appends one alignment to the file.
func (w *Writer) Write(a *aln.Alignment) error {
	rev := int32(0)
	if a.Reverse {
		rev = 1
	}
	h := recordHeader{
		AContig: a.AContig, BContig: a.BContig, Reverse: rev,
		ABeg: a.ABeg, AEnd: a.AEnd, BBeg: a.BBeg, BEnd: a.BEnd,
		Diffs: int32(a.Diffs), TraceLen: int32(len(a.Trace)),
	}
	if err := binary.Write(w.w, binary.LittleEndian, h); err != nil {
		return err
	}
	for _, seg := range a.Trace {
		if wide() {
			if err := binary.Write(w.w, binary.LittleEndian, uint16(seg.Diffs)); err != nil {
				return err
			}
			if err := binary.Write(w.w, binary.LittleEndian, uint16(seg.BLen)); err != nil {
				return err
			}
		} else {
			if err := w.w.WriteByte(byte(seg.Diffs)); err != nil {
				return err
			}
			if err := w.w.WriteByte(byte(seg.BLen)); err != nil {
				return err
			}
		}
	}
	w.nels++
	return nil
}

// Close flushes the body and rewrites the header with the final record count.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		return err
	}
	if _, err := w.fh.Seek(0, io.SeekStart); err != nil {
		return err
	}
	hdr := Header{Nels: w.nels, TSpace: aln.TSpace}
	if err := binary.Write(w.fh, binary.LittleEndian, hdr); err != nil {
		return err
	}
	return w.fh.Close()
}

// ReadAll loads every alignment from a ".las" file, transparently
// decompressing it with pgzip's parallel gzip reader when path ends in
// ".gz" — the same compressed-archival convention spec.md's external
// collaborators (LAsort/LAmerge) leave callers free to apply on their own
// output.
func ReadAll(path string) ([]*aln.Alignment, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	defer fh.Close()

	var r *bufio.Reader
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(fh)
		if err != nil {
			return nil, errors.Wrap(err, path)
		}
		defer gz.Close()
		r = bufio.NewReader(gz)
	} else {
		r = bufio.NewReader(fh)
	}

	var hdr Header
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, errors.Wrapf(err, "reading header of %s", path)
	}

	out := make([]*aln.Alignment, 0, hdr.Nels)
	for i := int64(0); i < hdr.Nels; i++ {
		var h recordHeader
		if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
			return nil, errors.Wrapf(err, "reading record %d of %s", i, path)
		}
		a := &aln.Alignment{
			AContig: h.AContig, BContig: h.BContig, Reverse: h.Reverse != 0,
			ABeg: h.ABeg, AEnd: h.AEnd, BBeg: h.BBeg, BEnd: h.BEnd,
			Diffs: int(h.Diffs), Trace: make([]aln.TraceSeg, h.TraceLen),
		}
		for t := range a.Trace {
			if wide() {
				var d, l uint16
				if err := binary.Read(r, binary.LittleEndian, &d); err != nil {
					return nil, err
				}
				if err := binary.Read(r, binary.LittleEndian, &l); err != nil {
					return nil, err
				}
				a.Trace[t] = aln.TraceSeg{Diffs: int(d), BLen: int(l)}
			} else {
				var buf [2]byte
				if _, err := io.ReadFull(r, buf[:]); err != nil {
					return nil, err
				}
				a.Trace[t] = aln.TraceSeg{Diffs: int(buf[0]), BLen: int(buf[1])}
			}
		}
		out = append(out, a)
	}
	return out, nil
}

// SortAndMerge invokes the external LAsort and LAmerge utilities over a
// set of per-thread .las files, producing the final merged .las at
// outPath (spec.md §6, "External tools invoked"). These binaries are a
// deliberate external collaborator (spec.md §1). With no shard files it
// writes an empty .las at outPath without running them; otherwise it
// shells out to them, reports a non-zero exit status as an error, and
// removes the shard files once both have succeeded.
func SortAndMerge(outPath string, shardFiles []string) error {
	if len(shardFiles) == 0 {
		w, err := Create(outPath)
		if err != nil {
			return err
		}
		return w.Close()
	}

	sortArgs := append([]string{"-a"}, shardFiles...)
	if err := run("LAsort", sortArgs); err != nil {
		return errors.Wrap(err, "LAsort")
	}

	mergeArgs := append([]string{"-a", outPath}, shardFiles...)
	if err := run("LAmerge", mergeArgs); err != nil {
		return errors.Wrap(err, "LAmerge")
	}

	for _, f := range shardFiles {
		_ = os.Remove(f)
	}
	return nil
}

func run(name string, args []string) error {
	cmd := exec.Command(name, args...)
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
