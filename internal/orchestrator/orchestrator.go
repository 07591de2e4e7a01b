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

// Package orchestrator implements C6: argument validation, contig
// partitioning, scratch-file lifecycle management, and driving C2
// through C5 to completion, then handing off to the external
// LAsort/LAmerge step.
package orchestrator

import (
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/shenwei356/gofastga/internal/aln"
	"github.com/shenwei356/gofastga/internal/app"
	"github.com/shenwei356/gofastga/internal/chain"
	"github.com/shenwei356/gofastga/internal/index"
	"github.com/shenwei356/gofastga/internal/las"
	"github.com/shenwei356/gofastga/internal/redundancy"
	"github.com/shenwei356/gofastga/internal/seed"
	"github.com/shenwei356/gofastga/internal/sortshard"
	"github.com/shenwei356/gofastga/internal/twobit"
)

// Config is the fully-resolved, validated run configuration — spec.md
// §9's "encapsulate in an immutable run config passed by reference".
type Config struct {
	Src1, Src2 string
	OutRoot    string
	ScratchDir string
	Verbose    bool
	NThreads   int

	Freq       int
	ChainMin   int64
	ChainBreak int64
	AlignMin   int64
	AlignRate  float64

	PID int
}

// Validate enforces spec.md §6/§7's configuration error kind.
func (c *Config) Validate() error {
	if c.Freq <= 0 {
		return errors.New("-f (frequency cutoff) is mandatory and must be positive")
	}
	if c.AlignRate < 0.6 || c.AlignRate >= 1.0 {
		return errors.New("-e (identity) must lie in [0.6, 1.0)")
	}
	if c.ChainMin <= 0 || c.ChainBreak <= 0 || c.AlignMin <= 0 {
		return errors.New("chain/align thresholds must be positive")
	}
	return nil
}

// buildPartitions greedily bins a-contigs into nParts roughly-equal-total-
// length groups using the index-provided contig permutation, mirroring
// FastGA.c main()'s Select[]/IDBsplit[] construction (spec.md §4.6 step 3).
func buildPartitions(contigLens []int64, perm []int32, nParts int) (select_ []int, idbsplit []int32) {
	n := len(contigLens)
	select_ = make([]int, n)
	if nParts <= 0 {
		nParts = 1
	}

	var total int64
	for _, l := range contigLens {
		total += l
	}
	target := total / int64(nParts)
	if target == 0 {
		target = 1
	}

	idbsplit = make([]int32, 0, nParts+1)
	idbsplit = append(idbsplit, 0)
	var acc int64
	part := 0
	for _, c := range perm {
		select_[c] = part
		acc += contigLens[c]
		if acc >= target && part < nParts-1 {
			idbsplit = append(idbsplit, c+1)
			part++
			acc = 0
		}
	}
	idbsplit = append(idbsplit, int32(n))
	return select_, idbsplit
}

// Result summarizes one run for the CLI to report (spec.md §4.2
// "Statistics" rolled up across workers).
type Result struct {
	SeedsEmitted   int64
	AlignmentsKept int64
	NelsFinal      int64
}

// genomeHandles bundles the streams and base store for one genome.
type genomeHandles struct {
	kmer     *index.KmerStream
	position *index.PositionStream
	bases    *twobit.Store
}

func openGenome(root string) (*genomeHandles, error) {
	k, err := index.OpenKmerStream(root)
	if err != nil {
		return nil, err
	}
	p, err := index.OpenPositionStream(root)
	if err != nil {
		return nil, err
	}
	b, err := twobit.Open(root + ".bps")
	if err != nil {
		return nil, err
	}
	return &genomeHandles{kmer: k, position: p, bases: b}, nil
}

func (g *genomeHandles) close() {
	g.kmer.Close()
	g.position.Close()
	g.bases.Close()
}

func contigLens(store *twobit.Store) []int64 {
	out := make([]int64, len(store.Contigs))
	for i, c := range store.Contigs {
		out[i] = c.Length
	}
	return out
}

// Run drives the full C1-C6 pipeline end to end and writes the final
// merged .las file at cfg.OutRoot + ".las".
func Run(cfg *Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := app.MakeScratchDir(cfg.ScratchDir); err != nil {
		return nil, err
	}
	if err := app.CleanScratch(cfg.ScratchDir, cfg.PID, cfg.NThreads); err != nil {
		return nil, errors.Wrap(err, "cleaning stale scratch shards")
	}

	gA, err := openGenome(cfg.Src1)
	if err != nil {
		return nil, err
	}
	defer gA.close()
	gB, err := openGenome(cfg.Src2)
	if err != nil {
		return nil, err
	}
	defer gB.close()

	if gA.kmer.Header.KmerLen != gB.kmer.Header.KmerLen {
		return nil, errors.Errorf("k-mer size mismatch: %d vs %d", gA.kmer.Header.KmerLen, gB.kmer.Header.KmerLen)
	}

	nThreads := app.ResolveThreads(cfg.NThreads)
	aLens := contigLens(gA.bases)
	bLens := contigLens(gB.bases)

	nParts := nThreads
	perm := gA.position.Header.Perm
	if len(perm) != len(aLens) {
		perm = make([]int32, len(aLens))
		for i := range perm {
			perm[i] = int32(i)
		}
	}
	selectTbl, _ := buildPartitions(aLens, perm, nParts)

	// C2: run NThreads merge workers, each over a round-robin subset of
	// the a-genome's k-mer shards (see runMergeWorker).
	shardWriters := make([]*seed.ShardWriter, nThreads)
	var mu sync.Mutex
	var firstErr error
	var wg sync.WaitGroup
	k := gA.kmer.Header.KmerLen
	acbyte := gA.position.Header.CByte
	bcbyte := gB.position.Header.CByte
	ibyte := acbyte + gA.position.Header.PByte
	jbyte := bcbyte + gB.position.Header.PByte

	for t := 0; t < nThreads; t++ {
		t1, _ := gA.kmer.Clone()
		t2, _ := gB.kmer.Clone()
		p1, _ := gA.position.Clone()
		p2, _ := gB.position.Clone()

		sw, err := seed.NewShardWriter(cfg.ScratchDir, cfg.PID, t, nParts, ibyte, jbyte, acbyte, bcbyte)
		if err != nil {
			return nil, err
		}
		shardWriters[t] = sw

		mcfg := &seed.Config{
			K: k, Freq: cfg.Freq, MinPrefix: 12,
			ScratchDir: cfg.ScratchDir, PID: cfg.PID, NThreads: nThreads, NParts: nParts,
			IByte: ibyte, JByte: jbyte, ACByte: acbyte, BCByte: bcbyte,
		}
		merger := seed.NewMerger(mcfg, t1, t2, p1, p2, sw)

		wg.Add(1)
		go func(t int) {
			defer wg.Done()
			err := runMergeWorker(merger, t, nThreads, gA.kmer.Header.NumShards, selectTbl, func(c int32) int64 { return bLens[c] })
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(t)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	var totalSeeds int64
	for _, sw := range shardWriters {
		for fam := 0; fam < 2; fam++ {
			for _, c := range sw.Buck[fam] {
				totalSeeds += c
			}
		}
		if err := sw.Close(); err != nil {
			return nil, err
		}
	}

	// C3 + C4 + C5, per (family, partition, worker-shard): re-import,
	// sort, chain, align, filter, and append survivors to this thread's
	// output .las file.
	outFiles := make([]string, nThreads)
	writers := make([]*las.Writer, nThreads)
	for t := 0; t < nThreads; t++ {
		outFiles[t] = app.ScratchPath(cfg.ScratchDir, cfg.PID, "algn", itoa(t), "las")
		w, err := las.Create(outFiles[t])
		if err != nil {
			return nil, err
		}
		writers[t] = w
	}

	aligner := chain.NewWFAligner()
	defer aligner.Recycle()

	loadA := func(contig int32, reverse bool, beg, end int64) ([]byte, error) {
		seq, err := gA.bases.SubSeq(int(contig), beg, end)
		if err != nil {
			return nil, err
		}
		if reverse {
			seq = twobit.RevComp(seq)
		}
		return seq, nil
	}
	loadB := func(contig int32, reverse bool, beg, end int64) ([]byte, error) {
		seq, err := gB.bases.SubSeq(int(contig), beg, end)
		if err != nil {
			return nil, err
		}
		if reverse {
			seq = twobit.RevComp(seq)
		}
		return seq, nil
	}

	chainOpt := chain.Options{ChainMin: cfg.ChainMin, ChainBreak: cfg.ChainBreak, AlignMin: cfg.AlignMin, AlignRate: cfg.AlignRate}

	var totalKept int64
	for t := 0; t < nThreads; t++ {
		for _, famByte := range []byte{'N', 'C'} {
			sameStrand := famByte == 'N'
			paths := shardWriters[t].Paths(famByte)
			for _, p := range paths {
				recs, err := sortshard.ImportShard(p, ibyte, jbyte, acbyte, bcbyte,
					sameStrand, func(c int32) int64 { return bLens[c] }, k)
				if err != nil {
					return nil, err
				}
				_ = os.Remove(p)
				sortshard.Sort(recs)

				worker := chain.NewWorker(&chainOpt, aligner, loadA, loadB)
				byPair := groupByContigPair(recs)
				var pairAlns []*aln.Alignment
				for key, group := range byPair {
					result, err := worker.AlignContigPair(group, key.a, key.b, aLens[key.a], bLens[key.b])
					if err != nil {
						return nil, err
					}
					pairAlns = append(pairAlns, result...)
				}

				survivors := redundancy.Filter(pairAlns)
				for _, a := range survivors {
					if err := writers[t].Write(a); err != nil {
						return nil, err
					}
					totalKept++
				}
			}
		}
	}

	for _, w := range writers {
		if err := w.Close(); err != nil {
			return nil, err
		}
	}

	outPath := cfg.OutRoot + ".las"
	if err := las.SortAndMerge(outPath, outFiles); err != nil {
		return nil, err
	}

	final, err := las.ReadAll(outPath)
	nelsFinal := int64(0)
	if err == nil {
		nelsFinal = int64(len(final))
	}

	return &Result{SeedsEmitted: totalSeeds, AlignmentsKept: totalKept, NelsFinal: nelsFinal}, nil
}

type contigPairKey struct{ a, b int32 }

func groupByContigPair(recs []sortshard.Record) map[contigPairKey][]sortshard.Record {
	out := make(map[contigPairKey][]sortshard.Record)
	for _, r := range recs {
		k := contigPairKey{r.AContig, r.BContig}
		out[k] = append(out[k], r)
	}
	return out
}

// runMergeWorker drives one C2 worker across a round-robin subset of the
// a-genome's k-mer shards (shard, shard+nThreads, shard+2*nThreads, ...),
// so full shard coverage holds regardless of how nThreads relates to
// numShards. Shards are visited in increasing index order, which is also
// increasing k-mer sort order, so the Merger's internal T2/P2 walk state
// (ensurePanel) never needs to move backward. aPartOf routes each
// emitted seed to its output shard via the Select table built from the
// contig partition (spec.md §4.6 step 3).
func runMergeWorker(m *seed.Merger, worker, nThreads, numShards int, selectTbl []int, bContigLen func(int32) int64) error {
	aPartOf := func(contig int32) int { return selectTbl[contig] }
	for shard := worker; shard < numShards; shard += nThreads {
		if err := m.Run(shard, aPartOf, bContigLen); err != nil {
			return err
		}
	}
	return nil
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}
