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

// Package seed implements C2, the adaptive-seed merger: a synchronized
// walk of the a-genome's k-mer stream (T1) against the b-genome's (T2)
// that, for every T1 k-mer, finds the longest shared prefix whose T2-side
// occurrence count stays below the frequency cutoff and emits one seed
// record per (a-position, b-position) pair at that prefix length.
//
// This is a from-scratch Go model of FastGA.c's merge_thread, restructured
// per spec.md §9's design note: state that the C source keeps as a ring
// of mutually-referring pointers (cache, vlcp[], post-buffer) is instead a
// single per-worker state record (*Merger) addressing positions by index,
// not pointer.
package seed

import (
	"io"

	"github.com/shenwei356/gofastga/internal/index"
	"github.com/shenwei356/gofastga/internal/packrec"
)

// Config is the run's immutable configuration, passed by reference to
// every worker (spec.md §9, "Global mutable configuration").
type Config struct {
	K          int
	Freq       int
	MinPrefix  int // byte-aligned lower bound, 12 per spec.md §4.2
	ScratchDir string
	PID        int
	NThreads   int
	NParts     int
	IByte      int
	JByte      int
	ACByte     int
	BCByte     int
}

// Stats accumulates one worker's counters (spec.md §4.2, "Statistics").
type Stats struct {
	SeedsEmitted  int64
	APositions    int64
	SumLCPxFreq   int64
}

// panelEntry is one cached T2 k-mer entry together with the absolute
// index of its first position-list entry, letting the merger slice its
// positions out of the post ring, which loadPanel fills for the whole
// panel up front.
type panelEntry struct {
	suffix   []byte
	count    int
	posStart int64
}

// Merger is one worker thread's state: its clone of each of the four
// streams, its T2 panel cache for the current 12-bit prefix, and its
// output shard writer.
type Merger struct {
	cfg *Config

	t1 *index.KmerStream
	t2 *index.KmerStream
	p1 *index.PositionStream
	p2 *index.PositionStream

	out   *ShardWriter
	ring  *postRing
	Stats Stats

	panel       []panelEntry
	panelPrefix uint16
	panelValid  bool

	// t2 walk state, carried across successive Run calls for this worker
	// (spec.md §4.2's "skip-load" jump): t2Started guards the one-time
	// seek to the start of the B genome's k-mer stream; t2Done marks that
	// T2 has been exhausted and no further prefix can match; p2Global is
	// the cumulative count of T2 position entries consumed so far, the
	// global index the next panel's positions start at in P2.
	t2Started bool
	t2Done    bool
	p2Global  int64

	// aContigs is reserved for exclusive prefix sums of the a genome's
	// contig lengths; nothing in this package sets or reads it.
	aContigs []int64
}

// NewMerger builds a worker's state from its cloned streams and output writer.
func NewMerger(cfg *Config, t1, t2 *index.KmerStream, p1, p2 *index.PositionStream, out *ShardWriter) *Merger {
	return &Merger{
		cfg:  cfg,
		t1:   t1,
		t2:   t2,
		p1:   p1,
		p2:   p2,
		out:  out,
		ring: newPostRing(cfg.Freq),
	}
}

// loadPanel rebuilds the T2 cache for a new 12-bit prefix panel: every T2
// k-mer sharing that prefix, plus the running total of its position-list
// entries so freq cutoffs can be evaluated by prefix sums over the cache
// slice matched at a given length.
func (m *Merger) loadPanel(prefix uint16, t2GlobalStart int64, posGlobalStart int64) error {
	m.panel = m.panel[:0]
	m.ring.reset(posGlobalStart)

	pos := posGlobalStart
	for {
		cur := m.t2.Current()
		if m.t2.Prefix12() != prefix {
			break
		}
		sfx := make([]byte, len(cur.Suffix))
		copy(sfx, cur.Suffix)
		m.panel = append(m.panel, panelEntry{suffix: sfx, count: int(cur.Count), posStart: pos})

		for i := 0; i < int(cur.Count); i++ {
			if err := m.p2.Advance(); err != nil {
				if err == io.EOF {
					break
				}
				return err
			}
			m.ring.push(*m.p2.Current())
			pos++
		}

		if err := m.t2.AdvanceAny(); err != nil {
			if err == io.EOF {
				m.t2Done = true
				break
			}
			return err
		}
	}
	m.panelPrefix = prefix
	m.panelValid = true
	m.p2Global = pos
	return nil
}

// ensurePanel makes sure the T2 panel cache reflects the given 12-bit
// prefix, performing the skip-load jump of spec.md §4.2 step 1 — advance
// T2 past all smaller prefixes, accumulating the P2 entries to skip in
// one jump — only when the prefix has actually advanced since the last
// call. T2/P2 state is carried on the Merger itself so consecutive calls
// across this worker's T1 shards (processed in increasing shard order,
// hence increasing prefix order) never revisit an already-consumed
// region of T2.
func (m *Merger) ensurePanel(prefix uint16) error {
	if !m.t2Started {
		m.t2Started = true
		if m.t2.Header.NumShards == 0 {
			m.t2Done = true
		} else if err := m.t2.SeekShard(0, 0); err != nil {
			if err != io.EOF {
				return err
			}
			m.t2Done = true
		}
	}

	if m.panelValid && m.panelPrefix == prefix {
		return nil
	}
	if m.t2Done {
		m.panel = m.panel[:0]
		m.panelValid = false
		return nil
	}

	for m.t2.Prefix12() < prefix {
		m.p2Global += int64(m.t2.Current().Count)
		if err := m.t2.AdvanceAny(); err != nil {
			if err == io.EOF {
				m.t2Done = true
				break
			}
			return err
		}
	}
	if m.t2Done {
		m.panel = m.panel[:0]
		m.panelValid = false
		return nil
	}

	if err := m.p2.SeekGlobal(m.p2Global, 0); err != nil {
		return err
	}
	return m.loadPanel(prefix, 0, m.p2Global)
}

// commonPrefixBases returns the number of leading bases shared by two
// packed 2-bit-per-base suffixes, capped at maxBases.
func commonPrefixBases(a, b []byte, maxBases int) int {
	n := 0
	for i := 0; i < len(a) && i < len(b) && n < maxBases; i++ {
		if a[i] == b[i] {
			n += 4
			continue
		}
		x := a[i] ^ b[i]
		// find the first differing 2-bit base within this byte, MSB-first
		for shift := 6; shift >= 0; shift -= 2 {
			if (x>>uint(shift))&3 != 0 {
				return min(n, maxBases)
			}
			n++
			if n >= maxBases {
				return maxBases
			}
		}
		return min(n, maxBases)
	}
	return min(n, maxBases)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// matchPrefix finds the contiguous run of panel entries sharing a
// prefix of exactly length L bases with t1Suffix, and returns the sum of
// their position counts plus the [lo, hi) index range within m.panel.
func (m *Merger) matchPrefix(t1Suffix []byte, l int) (lo, hi, total int) {
	lo, hi = -1, -1
	for i, e := range m.panel {
		cp := commonPrefixBases(t1Suffix, e.suffix, l)
		if cp >= l {
			if lo == -1 {
				lo = i
			}
			hi = i + 1
			total += e.count
		} else if lo != -1 {
			break
		}
	}
	if lo == -1 {
		return 0, 0, 0
	}
	return lo, hi, total
}

// bestPrefixLen finds the longest prefix length >= MinPrefix whose
// matched T2 position count is < Freq (spec.md §4.2, step 3). It returns
// ok=false if even MinPrefix overflows the cutoff.
func (m *Merger) bestPrefixLen(t1Suffix []byte) (l, lo, hi int, ok bool) {
	maxLen := m.cfg.K
	for cand := maxLen; cand >= m.cfg.MinPrefix; cand-- {
		lo, hi, total := m.matchPrefix(t1Suffix, cand)
		if lo == hi {
			continue
		}
		if total < m.cfg.Freq {
			return cand, lo, hi, true
		}
	}
	return 0, 0, 0, false
}

// ProcessEntry handles one T1 k-mer entry: its aContig/aPositions come
// from the caller (already advanced via P1), because the a-side contig
// bookkeeping belongs to the orchestrator's shard-partition map, not to
// the merger itself.
func (m *Merger) ProcessEntry(t1Suffix []byte, aPositions []packrec.PositionEntry, aPartOf func(contig int32) int, bContigLen func(int32) int64) error {
	prefix := m.t1.Prefix12()
	if err := m.ensurePanel(prefix); err != nil {
		return err
	}
	if !m.panelValid || len(m.panel) == 0 {
		m.Stats.APositions += int64(len(aPositions))
		return nil
	}

	l, lo, hi, ok := m.bestPrefixLen(t1Suffix)
	if !ok {
		m.Stats.APositions += int64(len(aPositions))
		return nil
	}

	var bPositions []packrec.PositionEntry
	startPos := m.panel[lo].posStart
	endPos := m.panel[hi-1].posStart + int64(m.panel[hi-1].count)
	bPositions = m.ring.slice(startPos, endPos)

	for _, ap := range aPositions {
		part := aPartOf(ap.Contig)
		for _, bp := range bPositions {
			sameStrand := ap.Reverse == bp.Reverse
			r := packrec.SeedRecord{
				LCP: uint8(l),
				APos: ap.Pos, AContig: ap.Contig, AReverse: ap.Reverse,
				BPos: bp.Pos, BContig: bp.Contig, BReverse: bp.Reverse,
			}
			if err := m.out.Write(part, sameStrand, &r); err != nil {
				return err
			}
			m.Stats.SeedsEmitted++
			m.Stats.SumLCPxFreq += int64(l)
		}
	}
	m.Stats.APositions += int64(len(aPositions))
	return nil
}

// Run drives this worker's walk of one T1 shard against the full T2
// index: it positions p1 at the shard's position range, advances t1
// entry by entry, pulls each entry's a-positions from p1, and hands both
// to ProcessEntry, which keeps the T2 panel cache in step via
// ensurePanel's skip-load jump. Call once per shard this worker owns, in
// increasing shard order, so the carried t2/p2 state in ensurePanel
// never needs to look backward.
func (m *Merger) Run(shard int, aPartOf func(contig int32) int, bContigLen func(contig int32) int64) error {
	if shard < 0 || shard >= m.t1.Header.NumShards {
		return nil
	}
	if err := m.t1.SeekShard(shard, 0); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	if err := m.p1.SeekGlobal(m.p1.NEps[shard], shard); err != nil {
		return err
	}

	for {
		entry := m.t1.Current()
		count := int(entry.Count)
		positions := make([]packrec.PositionEntry, count)
		for i := 0; i < count; i++ {
			if err := m.p1.Advance(); err != nil {
				return err
			}
			positions[i] = *m.p1.Current()
		}

		if err := m.ProcessEntry(entry.Suffix, positions, aPartOf, bContigLen); err != nil {
			return err
		}

		if err := m.t1.Advance(); err != nil {
			break
		}
	}
	return nil
}
