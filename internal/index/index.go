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

// Package index implements C1, the sharded index readers: a k-mer stream
// over ".ktab"/".ktab.<p>" shards and a position stream over
// ".post"/".post.<p>" shards. Both streams are opened once per run and
// cloned per worker thread, each clone owning its own buffer and shard
// file handles (spec.md §5, "Shared, read-only").
package index

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/shenwei356/gofastga/internal/packrec"
)

// KtabHeader is the header every ".ktab" stub carries: spec.md §6,
// "(kmer_len, min_val, nels, pbyte, cbyte, prefix_index...)".
type KtabHeader struct {
	KmerLen   int
	MinFreq   int
	NumShards int
	PByte     int // position-list entry byte width
	CByte     int // contig-index byte width within a position entry
	HByte     int // k-mer suffix byte width within a k-mer entry
	// PrefixIndex[i] is the first global k-mer index whose 12-bit prefix is i.
	PrefixIndex []int64
}

// PostHeader is the header every ".post" stub carries: spec.md §6,
// "(pbyte, cbyte, nfile, maxp, freq, nctg, perm[nctg])".
type PostHeader struct {
	PByte     int
	CByte     int
	NumShards int
	MaxPos    int64
	Freq      int
	NumContig int
	Perm      []int32 // contig permutation used for I/O locality
}

func readHeader(path string, v interface{ readFrom(io.Reader) error }) error {
	fh, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, path)
	}
	defer fh.Close()
	return v.readFrom(bufio.NewReader(fh))
}

func (h *KtabHeader) readFrom(r io.Reader) error {
	var buf [5]int64
	if err := binary.Read(r, binary.LittleEndian, &buf); err != nil {
		return err
	}
	h.KmerLen = int(buf[0])
	h.MinFreq = int(buf[1])
	h.NumShards = int(buf[2])
	h.PByte = int(buf[3])
	h.CByte = int(buf[4])
	h.HByte = (h.KmerLen*2 + 7) / 8

	h.PrefixIndex = make([]int64, 1<<12+1)
	return binary.Read(r, binary.LittleEndian, h.PrefixIndex)
}

func (h *PostHeader) readFrom(r io.Reader) error {
	var buf [4]int64
	if err := binary.Read(r, binary.LittleEndian, &buf); err != nil {
		return err
	}
	h.PByte = int(buf[0])
	h.CByte = int(buf[1])
	h.NumShards = int(buf[2])
	h.MaxPos = buf[3]
	var more [2]int64
	if err := binary.Read(r, binary.LittleEndian, &more); err != nil {
		return err
	}
	h.Freq = int(more[0])
	h.NumContig = int(more[1])

	perm32 := make([]int32, h.NumContig)
	if err := binary.Read(r, binary.LittleEndian, perm32); err != nil {
		return err
	}
	h.Perm = perm32
	return nil
}

// KmerStream is the cloneable T1/T2 reader: seek-to-global-index,
// advance-one, read-current, plus the current entry's 12-bit prefix
// panel key (spec.md §4.1).
type KmerStream struct {
	root   string
	Header KtabHeader

	shardIdx  int
	shardFile *os.File
	shardBuf  *bufio.Reader
	shardLeft int64 // entries remaining in the open shard

	cur    packrec.KmerEntry
	curBuf []byte
	global int64
}

// OpenKmerStream opens the ".ktab" stub at root (without extension).
func OpenKmerStream(root string) (*KmerStream, error) {
	s := &KmerStream{root: root}
	if err := readHeader(root+".ktab", &s.Header); err != nil {
		return nil, errors.Wrapf(err, "opening k-mer index %s", root)
	}
	s.curBuf = make([]byte, packrec.KmerEntryWidth(s.Header.HByte))
	return s, nil
}

// Clone returns an independent stream over the same shards, its own
// buffers and file handles, for exclusive use by one worker thread.
func (s *KmerStream) Clone() (*KmerStream, error) {
	c := &KmerStream{root: s.root, Header: s.Header}
	c.curBuf = make([]byte, packrec.KmerEntryWidth(s.Header.HByte))
	return c, nil
}

// Close releases the currently open shard file, if any.
func (s *KmerStream) Close() error {
	if s.shardFile != nil {
		return s.shardFile.Close()
	}
	return nil
}

func (s *KmerStream) shardPath(p int) string {
	return s.root + ".ktab." + itoa(p)
}

func (s *KmerStream) openShard(p int) error {
	if s.shardFile != nil {
		s.shardFile.Close()
	}
	fh, err := os.Open(s.shardPath(p))
	if err != nil {
		return errors.Wrap(err, s.shardPath(p))
	}
	info, err := fh.Stat()
	if err != nil {
		fh.Close()
		return err
	}
	width := int64(packrec.KmerEntryWidth(s.Header.HByte))
	if info.Size()%width != 0 {
		fh.Close()
		return errors.Errorf("%s: size %d is not a multiple of entry width %d", s.shardPath(p), info.Size(), width)
	}
	s.shardFile = fh
	s.shardBuf = bufio.NewReaderSize(fh, 1<<16)
	s.shardLeft = info.Size() / width
	s.shardIdx = p
	return nil
}

// SeekShard positions the stream at entry entryOffset of shard and loads
// it into Current(). The caller names the shard and the offset within it;
// KmerStream has no seek by global k-mer index.
func (s *KmerStream) SeekShard(shard int, entryOffset int64) error {
	if s.shardFile == nil || s.shardIdx != shard {
		if err := s.openShard(shard); err != nil {
			return err
		}
	}
	width := int64(packrec.KmerEntryWidth(s.Header.HByte))
	if _, err := s.shardFile.Seek(entryOffset*width, io.SeekStart); err != nil {
		return err
	}
	s.shardBuf.Reset(s.shardFile)
	info, err := s.shardFile.Stat()
	if err != nil {
		return err
	}
	s.shardLeft = info.Size()/width - entryOffset
	return s.Advance()
}

// Advance reads the next entry in the current shard into Current().
// io.EOF means the shard is exhausted; the caller advances to the next shard.
func (s *KmerStream) Advance() error {
	if s.shardLeft <= 0 {
		return io.EOF
	}
	if _, err := io.ReadFull(s.shardBuf, s.curBuf); err != nil {
		return err
	}
	s.shardLeft--
	s.global++
	packrec.DecodeKmerEntry(s.curBuf, s.Header.HByte, &s.cur)
	return nil
}

// Current returns the most recently read k-mer entry.
func (s *KmerStream) Current() *packrec.KmerEntry { return &s.cur }

// AdvanceAny behaves like Advance but transparently rolls over into the
// next shard when the current one is exhausted, mirroring
// PositionStream.Advance's shard rollover. C2's T2 walk uses this since
// a 12-bit prefix panel may straddle a shard boundary.
func (s *KmerStream) AdvanceAny() error {
	err := s.Advance()
	if err != io.EOF {
		return err
	}
	if s.shardIdx+1 >= s.Header.NumShards {
		return io.EOF
	}
	if err := s.openShard(s.shardIdx + 1); err != nil {
		return err
	}
	return s.Advance()
}

// Prefix12 returns the 12-bit prefix (cpre) of the current k-mer entry,
// used by C2 as the panel key for its T2 cache.
func (s *KmerStream) Prefix12() uint16 {
	if len(s.cur.Suffix) == 0 {
		return 0
	}
	v := uint16(s.cur.Suffix[0])<<4 | uint16(s.cur.Suffix[1])>>4
	return v & 0x0fff
}

// PositionStream is the cloneable P1/P2 reader.
type PositionStream struct {
	root   string
	Header PostHeader

	// NEps[p] is the cumulative entry count before shard p (NEps[0] = 0,
	// NEps[NumShards] = total); SeekGlobal finds a shard in it by a
	// linear scan from a hint.
	NEps []int64

	shardIdx  int
	shardFile *os.File
	shardBuf  *bufio.Reader
	shardLeft int64

	cur    packrec.PositionEntry
	curBuf []byte
}

// OpenPositionStream opens the ".post" stub at root.
func OpenPositionStream(root string) (*PositionStream, error) {
	s := &PositionStream{root: root}
	if err := readHeader(root+".post", &s.Header); err != nil {
		return nil, errors.Wrapf(err, "opening position index %s", root)
	}
	s.curBuf = make([]byte, packrec.PositionEntryWidth(s.Header.CByte, s.Header.PByte))

	s.NEps = make([]int64, s.Header.NumShards+1)
	for p := 0; p < s.Header.NumShards; p++ {
		fh, err := os.Open(s.shardPath(p))
		if err != nil {
			return nil, errors.Wrap(err, s.shardPath(p))
		}
		info, err := fh.Stat()
		fh.Close()
		if err != nil {
			return nil, err
		}
		width := int64(packrec.PositionEntryWidth(s.Header.CByte, s.Header.PByte))
		if info.Size()%width != 0 {
			return nil, errors.Errorf("%s: size mismatch", s.shardPath(p))
		}
		s.NEps[p+1] = s.NEps[p] + info.Size()/width
	}
	return s, nil
}

// Clone returns an independent stream over the same shards.
func (s *PositionStream) Clone() (*PositionStream, error) {
	c := &PositionStream{root: s.root, Header: s.Header, NEps: s.NEps}
	c.curBuf = make([]byte, packrec.PositionEntryWidth(s.Header.CByte, s.Header.PByte))
	return c, nil
}

// Close releases the currently open shard file, if any.
func (s *PositionStream) Close() error {
	if s.shardFile != nil {
		return s.shardFile.Close()
	}
	return nil
}

func (s *PositionStream) shardPath(p int) string {
	return s.root + ".post." + itoa(p)
}

// SeekGlobal positions the stream at the global position-entry index i
// (0-based), found via NEps with a linear scan from hint (callers pass
// the shard they expect based on monotone access patterns).
func (s *PositionStream) SeekGlobal(i int64, hint int) error {
	p := hint
	for p > 0 && s.NEps[p] > i {
		p--
	}
	for p < s.Header.NumShards-1 && s.NEps[p+1] <= i {
		p++
	}
	if s.shardFile == nil || s.shardIdx != p {
		if s.shardFile != nil {
			s.shardFile.Close()
		}
		fh, err := os.Open(s.shardPath(p))
		if err != nil {
			return errors.Wrap(err, s.shardPath(p))
		}
		s.shardFile = fh
		s.shardBuf = bufio.NewReaderSize(fh, 1<<16)
		s.shardIdx = p
	}
	width := int64(packrec.PositionEntryWidth(s.Header.CByte, s.Header.PByte))
	off := i - s.NEps[p]
	if _, err := s.shardFile.Seek(off*width, io.SeekStart); err != nil {
		return err
	}
	s.shardBuf.Reset(s.shardFile)
	s.shardLeft = s.NEps[p+1] - i
	return nil
}

// Advance reads the next position entry, rolling over into the next
// shard transparently when the current one is exhausted.
func (s *PositionStream) Advance() error {
	for s.shardLeft <= 0 {
		if s.shardIdx+1 >= s.Header.NumShards {
			return io.EOF
		}
		if err := s.SeekGlobal(s.NEps[s.shardIdx+1], s.shardIdx+1); err != nil {
			return err
		}
	}
	if _, err := io.ReadFull(s.shardBuf, s.curBuf); err != nil {
		return err
	}
	s.shardLeft--
	packrec.DecodePositionEntry(s.curBuf, s.Header.CByte, s.Header.PByte, &s.cur)
	return nil
}

// Current returns the most recently read position entry.
func (s *PositionStream) Current() *packrec.PositionEntry { return &s.cur }

// ShardPath exposes the shard file path for a given index root and kind
// ("ktab" or "post"); no caller in this module uses it.
func ShardPath(root, kind string, p int) string {
	return filepath.Clean(root) + "." + kind + "." + itoa(p)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
