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

// Package cmd holds the cobra command tree: the root command plus the
// "align" and "dotplot" subcommands.
package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/shenwei356/gofastga/internal/app"
)

var rootCmd = &cobra.Command{
	Use:   "gofastga",
	Short: "Fast, memory-efficient whole-genome aligner",
	Long: `gofastga - fast, memory-efficient whole-genome aligner

A from-scratch port of the FastGA seed-and-chain alignment pipeline:
adaptive k-mer seeding, diagonal-bucket chaining and a wavefront local
aligner, producing a .las alignment file for a pair of genome assemblies.
`,
	SilenceUsage: true,
}

// Execute runs the root command; main.go's sole job is to call this.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntP("threads", "p", 0, "number of worker threads (0 for all CPUs)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "print verbose information")
	rootCmd.PersistentFlags().String("log", "", "write log messages to this file in addition to stderr")

	cobra.EnableCommandSorting = false
}

func getOptions(cmd *cobra.Command) *app.Options {
	threads := getFlagNonNegativeInt(cmd, "threads")
	if threads == 0 {
		threads = runtime.NumCPU()
	}

	logfile := getFlagString(cmd, "log")
	opt := &app.Options{
		NumCPUs: threads,
		Verbose: getFlagBool(cmd, "verbose"),
		LogFile: logfile,
	}
	if logfile != "" {
		opt.Log2File = true
		fh, err := app.AddFileLog(logfile)
		app.CheckError(err)
		_ = fh
	}
	return opt
}
