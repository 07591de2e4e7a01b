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

// Package twobit implements the 2-bits-per-base sequence store backing a
// ".dam"/".bps" assembly: one contiguous packed-base file per genome plus a
// sidecar index of per-contig byte offsets, read on demand by C4 when it
// needs a base range for banded alignment. Adapted from the teacher's
// lexicmap/index/twobit/2bit_seq.go, which packs k-mer-index subject
// sequences the same way; here the unit is a whole assembly's contigs
// rather than a single subject sequence.
package twobit

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

var base2bit = [256]byte{}
var bit2base = [4]byte{'A', 'C', 'G', 'T'}

func init() {
	for i := range base2bit {
		base2bit[i] = 0xff
	}
	base2bit['A'], base2bit['a'] = 0, 0
	base2bit['C'], base2bit['c'] = 1, 1
	base2bit['G'], base2bit['g'] = 2, 2
	base2bit['T'], base2bit['t'] = 3, 3
}

// Contig records one contig's location within the packed base file.
type Contig struct {
	Name      string
	Length    int64 // bases
	ByteStart int64 // offset of the first packed byte, within the base file
}

// Store is a read-only handle on a ".dam"-style 2-bit sequence store: one
// packed base file (".bps") plus an in-memory table of per-contig offsets
// loaded from the sidecar index.
type Store struct {
	path    string
	fh      *os.File
	Contigs []Contig

	bufPool *sync.Pool
}

// Magic identifies a packed-base file; MagicIdx identifies its sidecar index.
var Magic = [8]byte{'g', 'f', 'g', 'a', 'b', 'p', 's', '\n'}
var MagicIdx = [8]byte{'g', 'f', 'g', 'a', 'b', 'p', 'x', '\n'}

// Open opens the ".bps" file at path and its sidecar ".bps.idx" index.
func Open(path string) (*Store, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	var magic [8]byte
	if _, err := io.ReadFull(fh, magic[:]); err != nil {
		fh.Close()
		return nil, errors.Wrapf(err, "reading magic of %s", path)
	}
	if magic != Magic {
		fh.Close()
		return nil, errors.Errorf("%s: not a two-bit base file", path)
	}

	idxFh, err := os.Open(path + ".idx")
	if err != nil {
		fh.Close()
		return nil, errors.Wrap(err, path+".idx")
	}
	defer idxFh.Close()

	r := bufio.NewReader(idxFh)
	var imagic [8]byte
	if _, err := io.ReadFull(r, imagic[:]); err != nil {
		fh.Close()
		return nil, errors.Wrapf(err, "reading magic of %s.idx", path)
	}
	if imagic != MagicIdx {
		fh.Close()
		return nil, errors.Errorf("%s.idx: not a two-bit index file", path)
	}

	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		fh.Close()
		return nil, errors.Wrap(err, "reading contig count")
	}

	contigs := make([]Contig, n)
	for i := range contigs {
		var nameLen uint16
		if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
			fh.Close()
			return nil, err
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(r, name); err != nil {
			fh.Close()
			return nil, err
		}
		var length, offset int64
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			fh.Close()
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &offset); err != nil {
			fh.Close()
			return nil, err
		}
		contigs[i] = Contig{Name: string(name), Length: length, ByteStart: offset}
	}

	return &Store{
		path:    path,
		fh:      fh,
		Contigs: contigs,
		bufPool: &sync.Pool{New: func() interface{} {
			b := make([]byte, 0, 4096)
			return &b
		}},
	}, nil
}

// Close releases the underlying file handle.
func (s *Store) Close() error { return s.fh.Close() }

// Name and Length implement internal/dotplot.ContigNamer, letting the
// plot renderer read contig metadata straight off an open Store.
func (s *Store) Name(idx int32) string   { return s.Contigs[idx].Name }
func (s *Store) Length(idx int32) int64  { return s.Contigs[idx].Length }
func (s *Store) Count() int              { return len(s.Contigs) }

// SubSeq reads and unpacks the base range [start, end) of contig idx,
// returning upper-case ACGT bytes. Mirrors the teacher's on-demand
// SubSeq(idx, start, end), the mechanism C4 relies on to avoid keeping
// whole genomes resident.
func (s *Store) SubSeq(idx int, start, end int64) ([]byte, error) {
	c := s.Contigs[idx]
	if start < 0 {
		start = 0
	}
	if end > c.Length {
		end = c.Length
	}
	if end <= start {
		return nil, nil
	}

	byteStart := c.ByteStart + start/4
	byteEnd := c.ByteStart + (end+3)/4

	bufp := s.bufPool.Get().(*[]byte)
	buf := (*bufp)[:0]
	need := int(byteEnd - byteStart)
	if cap(buf) < need {
		buf = make([]byte, need)
	} else {
		buf = buf[:need]
	}

	if _, err := s.fh.ReadAt(buf, byteStart); err != nil && err != io.EOF {
		*bufp = buf
		s.bufPool.Put(bufp)
		return nil, errors.Wrapf(err, "reading bases of contig %d", idx)
	}

	out := make([]byte, end-start)
	skip := start % 4
	for i := range out {
		bitpos := skip + int64(i)
		b := buf[bitpos/4]
		shift := uint(bitpos%4) * 2
		out[i] = bit2base[(b>>shift)&3]
	}

	*bufp = buf
	s.bufPool.Put(bufp)
	return out, nil
}

// RevComp returns the reverse complement of a base slice, used by C4 to
// load the "comp" strand of a contig on demand.
func RevComp(seq []byte) []byte {
	out := make([]byte, len(seq))
	n := len(seq)
	for i, b := range seq {
		var c byte
		switch b {
		case 'A', 'a':
			c = 'T'
		case 'C', 'c':
			c = 'G'
		case 'G', 'g':
			c = 'C'
		case 'T', 't':
			c = 'A'
		default:
			c = 'N'
		}
		out[n-1-i] = c
	}
	return out
}

// Writer packs whole contigs into a ".bps" file plus its sidecar index,
// used by tests and by tooling that materializes a store from FASTA-like
// in-memory sequences (the real index builder is out of scope, per
// spec.md §1; this Writer exists so tests can construct fixtures without
// depending on an external builder).
type Writer struct {
	fh    *os.File
	idxFh *os.File
	w     *bufio.Writer
	off   int64

	contigs []Contig
}

// Create opens path (and path+".idx") for writing a new two-bit store.
func Create(path string) (*Writer, error) {
	fh, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	idxFh, err := os.Create(path + ".idx")
	if err != nil {
		fh.Close()
		return nil, errors.Wrap(err, path+".idx")
	}
	w := bufio.NewWriter(fh)
	if _, err := w.Write(Magic[:]); err != nil {
		fh.Close()
		idxFh.Close()
		return nil, err
	}
	return &Writer{fh: fh, idxFh: idxFh, w: w, off: int64(len(Magic))}, nil
}

// AddContig packs seq (upper/lower-case ACGT, any other byte becomes 'A')
// and appends it to the store.
func (wr *Writer) AddContig(name string, seq []byte) error {
	start := wr.off
	var cur byte
	var nbits uint
	for _, b := range seq {
		code := base2bit[b]
		if code == 0xff {
			code = 0
		}
		cur |= code << nbits
		nbits += 2
		if nbits == 8 {
			if err := wr.w.WriteByte(cur); err != nil {
				return err
			}
			wr.off++
			cur, nbits = 0, 0
		}
	}
	if nbits > 0 {
		if err := wr.w.WriteByte(cur); err != nil {
			return err
		}
		wr.off++
	}
	wr.contigs = append(wr.contigs, Contig{Name: name, Length: int64(len(seq)), ByteStart: start})
	return nil
}

// Close flushes the base file and writes the sidecar index.
func (wr *Writer) Close() error {
	if err := wr.w.Flush(); err != nil {
		return err
	}
	if err := wr.fh.Close(); err != nil {
		return err
	}

	iw := bufio.NewWriter(wr.idxFh)
	if _, err := iw.Write(MagicIdx[:]); err != nil {
		return err
	}
	if err := binary.Write(iw, binary.LittleEndian, uint64(len(wr.contigs))); err != nil {
		return err
	}
	for _, c := range wr.contigs {
		if err := binary.Write(iw, binary.LittleEndian, uint16(len(c.Name))); err != nil {
			return err
		}
		if _, err := iw.WriteString(c.Name); err != nil {
			return err
		}
		if err := binary.Write(iw, binary.LittleEndian, c.Length); err != nil {
			return err
		}
		if err := binary.Write(iw, binary.LittleEndian, c.ByteStart); err != nil {
			return err
		}
	}
	if err := iw.Flush(); err != nil {
		return err
	}
	return wr.idxFh.Close()
}
