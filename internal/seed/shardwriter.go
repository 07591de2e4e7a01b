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
	"bufio"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/shenwei356/gofastga/internal/packrec"
)

// shardFamily selects one of the two shard families C2 writes to: N for
// seed pairs on the same strand, C for seed pairs on opposite strands
// (spec.md §4.2, "selects one of two shard families").
type shardFamily byte

const (
	familyN shardFamily = 'N'
	familyC shardFamily = 'C'
)

// ShardWriter owns the 2*NPARTS output buffers of one worker thread:
// one N-file and one C-file per a-contig partition, each buffered and
// flushed independently (spec.md §4.2, "Buffer management").
type ShardWriter struct {
	scratchDir string
	pid        int
	worker     int
	nParts     int
	ibyte      int
	jbyte      int
	acbyte     int
	bcbyte     int

	files [2][]*os.File
	bufs  [2][]*bufio.Writer

	// Buck[fam][part] counts seeds written to that partition in that
	// family. The orchestrator reads it only to total the seeds emitted;
	// C3 sorts each shard in memory and does not use it as bucket
	// boundaries, and no per-a-contig counts are kept.
	Buck [2][]int64

	scratch []byte
}

// NewShardWriter creates and opens the shard files for one worker.
// Files are named per spec.md §6: "<scratch>/_pair.<pid>.<k>.N"
// and ".C", here specialized per worker and partition.
func NewShardWriter(scratchDir string, pid, worker, nParts, ibyte, jbyte, acbyte, bcbyte int) (*ShardWriter, error) {
	w := &ShardWriter{
		scratchDir: scratchDir, pid: pid, worker: worker, nParts: nParts,
		ibyte: ibyte, jbyte: jbyte, acbyte: acbyte, bcbyte: bcbyte,
	}
	width := packrec.SeedRecordWidth(ibyte, jbyte)
	w.scratch = make([]byte, width)

	for fam := 0; fam < 2; fam++ {
		w.files[fam] = make([]*os.File, nParts)
		w.bufs[fam] = make([]*bufio.Writer, nParts)
		w.Buck[fam] = make([]int64, nParts)
		letter := "N"
		if fam == 1 {
			letter = "C"
		}
		for p := 0; p < nParts; p++ {
			path := w.path(letter, p)
			fh, err := os.Create(path)
			if err != nil {
				return nil, errors.Wrap(err, path)
			}
			w.files[fam][p] = fh
			w.bufs[fam][p] = bufio.NewWriterSize(fh, 1<<20)
		}
	}
	return w, nil
}

func (w *ShardWriter) path(letter string, part int) string {
	return w.scratchDir + "/_pair." + strconv.Itoa(w.pid) + "." + strconv.Itoa(w.worker) +
		"." + strconv.Itoa(part) + "." + letter
}

// Write appends one seed record to the shard chosen by r's a-contig
// partition and the same-strand/opposite-strand family.
func (w *ShardWriter) Write(part int, sameStrand bool, r *packrec.SeedRecord) error {
	fam := 0
	if !sameStrand {
		fam = 1
	}
	packrec.EncodeSeedRecord(w.scratch, w.ibyte, w.jbyte, w.acbyte, w.bcbyte, r)
	if _, err := w.bufs[fam][part].Write(w.scratch); err != nil {
		return err
	}
	w.Buck[fam][part]++
	return nil
}

// Close flushes and closes every shard file owned by this writer.
func (w *ShardWriter) Close() error {
	var first error
	for fam := 0; fam < 2; fam++ {
		for p := 0; p < w.nParts; p++ {
			if err := w.bufs[fam][p].Flush(); err != nil && first == nil {
				first = err
			}
			if err := w.files[fam][p].Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// Paths returns the file paths for a given family, across all partitions,
// for C3 to re-import and unlink.
func (w *ShardWriter) Paths(family byte) []string {
	letter := "N"
	fam := 0
	if family == byte(familyC) {
		letter = "C"
		fam = 1
	}
	_ = fam
	paths := make([]string, w.nParts)
	for p := range paths {
		paths[p] = w.path(letter, p)
	}
	return paths
}
