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

// Package packrec implements the fixed-width, byte-packed record formats
// shared by the index readers, the seed merger, and the seed shard sorter:
// k-mer table entries, position-list entries, adaptive-seed records and
// sorted-seed records. Every record here is a little-endian byte string
// whose per-field width is computed once per shard (from cbyte/mbyte-style
// prefix tables) and then used uniformly for every record in that shard.
package packrec

// ByteWidth returns the minimum number of bytes needed to hold n, 1..8.
// Grounded on the teacher's ByteLengthUint64 (lexicmap/cmd/util/varint-GB.go);
// FastGA computes the same quantity for its ibyte/jbyte/dbyte field widths.
func ByteWidth(n uint64) int {
	switch {
	case n < 1<<8:
		return 1
	case n < 1<<16:
		return 2
	case n < 1<<24:
		return 3
	case n < 1<<32:
		return 4
	case n < 1<<40:
		return 5
	case n < 1<<48:
		return 6
	case n < 1<<56:
		return 7
	default:
		return 8
	}
}

// GetUint reads a little-endian unsigned integer of the given byte width.
func GetUint(buf []byte, width int) uint64 {
	var v uint64
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v
}

// PutUint writes v as a little-endian unsigned integer of the given byte width.
func PutUint(buf []byte, width int, v uint64) {
	for i := 0; i < width; i++ {
		buf[i] = byte(v & 0xff)
		v >>= 8
	}
}

// KmerEntry is a decoded k-mer table (T1/T2) entry: the encoded k-mer
// suffix, the count of matching position-list entries, and the
// longest-common-prefix (in bases) with the previous entry in the shard.
//
// On disk each entry is HByte bytes of k-mer suffix, one count byte and
// one lcp byte (spec.md §3, "K-mer table entry").
type KmerEntry struct {
	Suffix []byte
	Count  uint8
	LCP    uint8
}

// KmerEntryWidth returns the on-disk width of a k-mer table entry given
// the suffix byte width hbyte.
func KmerEntryWidth(hbyte int) int { return hbyte + 2 }

// DecodeKmerEntry unpacks one fixed-width k-mer table entry from buf.
func DecodeKmerEntry(buf []byte, hbyte int, e *KmerEntry) {
	e.Suffix = buf[:hbyte]
	e.Count = buf[hbyte]
	e.LCP = buf[hbyte+1]
}

// EncodeKmerEntry packs e into buf, which must be at least KmerEntryWidth(hbyte) long.
func EncodeKmerEntry(buf []byte, hbyte int, e *KmerEntry) {
	copy(buf[:hbyte], e.Suffix)
	buf[hbyte] = e.Count
	buf[hbyte+1] = e.LCP
}

// PositionEntry is a decoded position-list (P1/P2) entry: the contig
// index and the within-contig base position of one k-mer occurrence, plus
// the reverse-complement strand flag carried in the top bit of the
// highest contig byte (spec.md §3, "Position-list entry").
type PositionEntry struct {
	Contig  int32
	Pos     int64
	Reverse bool
}

// PositionEntryWidth returns the on-disk width given the contig byte
// width cbyte and the position byte width pbyte.
func PositionEntryWidth(cbyte, pbyte int) int { return cbyte + pbyte }

// DecodePositionEntry unpacks one fixed-width position entry from buf.
func DecodePositionEntry(buf []byte, cbyte, pbyte int, e *PositionEntry) {
	e.Pos = int64(GetUint(buf, pbyte))
	c := GetUint(buf[pbyte:], cbyte)
	e.Reverse = c&(1<<(uint(cbyte)*8-1)) != 0
	e.Contig = int32(c &^ (1 << (uint(cbyte)*8 - 1)))
}

// EncodePositionEntry packs e into buf.
func EncodePositionEntry(buf []byte, cbyte, pbyte int, e *PositionEntry) {
	PutUint(buf, pbyte, uint64(e.Pos))
	c := uint64(e.Contig)
	if e.Reverse {
		c |= 1 << (uint(cbyte)*8 - 1)
	}
	PutUint(buf[pbyte:], cbyte, c)
}

// SeedRecord is one adaptive-seed record as emitted by the merger (C2)
// and consumed by the shard sorter (C3): [lcp, a-post+contig, b-post+contig]
// (spec.md §3, "Adaptive seed record").
type SeedRecord struct {
	LCP      uint8
	APos     int64
	AContig  int32
	AReverse bool
	BPos     int64
	BContig  int32
	BReverse bool
}

// SeedRecordWidth returns 1 + ibyte + jbyte, the on-disk width of a seed record.
func SeedRecordWidth(ibyte, jbyte int) int { return 1 + ibyte + jbyte }

// DecodeSeedRecord unpacks one fixed-width seed record from buf, where
// ibyte/jbyte are the combined (contig+pos) widths on the a- and b-side
// and acbyte/bcbyte are the contig-only sub-widths within them.
func DecodeSeedRecord(buf []byte, ibyte, jbyte, acbyte, bcbyte int, r *SeedRecord) {
	r.LCP = buf[0]
	var a, b PositionEntry
	aposW := ibyte - acbyte
	DecodePositionEntry(buf[1:1+ibyte], acbyte, aposW, &a)
	r.APos, r.AContig, r.AReverse = a.Pos, a.Contig, a.Reverse
	bposW := jbyte - bcbyte
	DecodePositionEntry(buf[1+ibyte:1+ibyte+jbyte], bcbyte, bposW, &b)
	r.BPos, r.BContig, r.BReverse = b.Pos, b.Contig, b.Reverse
}

// EncodeSeedRecord packs r into buf.
func EncodeSeedRecord(buf []byte, ibyte, jbyte, acbyte, bcbyte int, r *SeedRecord) {
	buf[0] = r.LCP
	aposW := ibyte - acbyte
	EncodePositionEntry(buf[1:1+ibyte], acbyte, aposW, &PositionEntry{Contig: r.AContig, Pos: r.APos, Reverse: r.AReverse})
	bposW := jbyte - bcbyte
	EncodePositionEntry(buf[1+ibyte:1+ibyte+jbyte], bcbyte, bposW, &PositionEntry{Contig: r.BContig, Pos: r.BPos, Reverse: r.BReverse})
}

// SortedSeedRecord is C3's output / C4's input: [lcp, diag_low, a-post,
// diag_high, b-contig], swide = 2 + ipost + dbyte + jcont bytes wide
// (spec.md §3, "Sorted seed record"). The a-contig is implicit (the shard
// partition), so it is not stored per record.
type SortedSeedRecord struct {
	LCP     uint8
	Diag    uint64
	APos    int64
	BContig int32
}

// SortedSeedRecordWidth returns swide given the position byte width ipost,
// the diagonal byte width dbyte and the b-contig byte width jcont.
func SortedSeedRecordWidth(ipost, dbyte, jcont int) int { return 2 + ipost + dbyte + jcont }

// EncodeSortedSeedRecord packs r into buf using the layout
// [lcp(1)][diag_low(1)][a-post(ipost)][diag_high(dbyte-1)][b-contig(jcont)].
// Splitting diag into a single low byte and a dbyte-1 high part lets C4
// address the diagonal bucket (the high part) independently of the 1-byte
// remainder used only for tie-breaking within a bucket.
func EncodeSortedSeedRecord(buf []byte, ipost, dbyte, jcont int, r *SortedSeedRecord) {
	buf[0] = r.LCP
	buf[1] = byte(r.Diag & 0xff)
	PutUint(buf[2:2+ipost], ipost, uint64(r.APos))
	PutUint(buf[2+ipost:2+ipost+dbyte-1], dbyte-1, r.Diag>>8)
	PutUint(buf[2+ipost+dbyte-1:2+ipost+dbyte-1+jcont], jcont, uint64(r.BContig))
}

// DecodeSortedSeedRecord unpacks one fixed-width sorted-seed record from buf.
func DecodeSortedSeedRecord(buf []byte, ipost, dbyte, jcont int, r *SortedSeedRecord) {
	r.LCP = buf[0]
	low := uint64(buf[1])
	high := GetUint(buf[2+ipost:2+ipost+dbyte-1], dbyte-1)
	r.Diag = high<<8 | low
	r.APos = int64(GetUint(buf[2:2+ipost], ipost))
	r.BContig = int32(GetUint(buf[2+ipost+dbyte-1:2+ipost+dbyte-1+jcont], jcont))
}

// Bucket returns the diagonal bucket number for a diagonal value, per
// spec.md's BUCK_WIDTH=64 / BUCK_SHIFT=6 bucketing.
const BuckShift = 6
const BuckWidth = 1 << BuckShift

func Bucket(diag uint64) uint64 { return diag >> BuckShift }
