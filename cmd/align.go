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

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shenwei356/gofastga/internal/app"
	"github.com/shenwei356/gofastga/internal/orchestrator"
)

var alignCmd = &cobra.Command{
	Use:   "align <src1> <src2>",
	Short: "Align two genome assemblies and write a .las file",
	Long: `align - seed, chain and locally align two genome assemblies

<src1> and <src2> are index roots (a ".ktab"/".post"/".dam"+".bps" set
built ahead of time; building that index is out of scope here). The
result is written to <out_root>.las.
`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if cfgPath := getFlagString(cmd, "config"); cfgPath != "" {
			d, err := loadAlignDefaults(cfgPath)
			app.CheckError(err)
			applyAlignDefaults(cmd, d)
		}

		opt := getOptions(cmd)

		scratchDir := getFlagString(cmd, "scratch")
		if scratchDir == "" {
			scratchDir = os.TempDir()
		}
		outRoot := getFlagString(cmd, "out")
		if outRoot == "" {
			outRoot = "align-result"
		}
		freq := getFlagPositiveInt(cmd, "freq")
		chainMin := getFlagPositiveInt64(cmd, "chain-min")
		chainBreak := getFlagPositiveInt64(cmd, "chain-break")
		alignMin := getFlagPositiveInt64(cmd, "align-min")
		identity := getFlagFloat64(cmd, "identity")

		cfg := &orchestrator.Config{
			Src1: args[0], Src2: args[1],
			OutRoot: outRoot, ScratchDir: scratchDir,
			Verbose: opt.Verbose, NThreads: opt.NumCPUs,
			Freq: freq, ChainMin: chainMin, ChainBreak: chainBreak,
			AlignMin: alignMin, AlignRate: identity,
			PID: os.Getpid(),
		}

		timeStart := time.Now()
		defer func() {
			if opt.Verbose {
				app.Log.Infof("elapsed time: %s", time.Since(timeStart))
			}
		}()

		result, err := orchestrator.Run(cfg)
		app.CheckError(err)

		if opt.Verbose {
			app.Log.Infof("seeds emitted: %d", result.SeedsEmitted)
			app.Log.Infof("alignments kept: %d", result.AlignmentsKept)
			app.Log.Infof("final .las records: %d", result.NelsFinal)
		}
		fmt.Fprintf(os.Stdout, "%s.las\n", outRoot)
	},
}

func init() {
	rootCmd.AddCommand(alignCmd)

	alignCmd.Flags().String("config", "", "TOML file of default values for scratch/freq/chain-min/chain-break/align-min/identity")
	alignCmd.Flags().StringP("scratch", "P", "", "scratch directory for shard files (default: $TMPDIR)")
	alignCmd.Flags().StringP("out", "o", "", "output .las path, without extension (default: align-result)")
	alignCmd.Flags().IntP("freq", "f", 0, "frequency cutoff: reject k-mer prefixes occurring this often or more in genome B (mandatory)")
	alignCmd.Flags().Int64P("chain-min", "c", 100, "minimum a-side coverage for a chain to be inspected")
	alignCmd.Flags().Int64P("chain-break", "s", 500, "maximum a-post gap within one chain")
	alignCmd.Flags().Int64P("align-min", "a", 100, "minimum accepted alignment length")
	alignCmd.Flags().Float64P("identity", "e", 0.7, "minimum accepted alignment identity, in [0.6, 1.0)")

	alignCmd.MarkFlagRequired("freq")
}
