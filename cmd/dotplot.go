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
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/shenwei356/gofastga/internal/app"
	"github.com/shenwei356/gofastga/internal/dotplot"
	"github.com/shenwei356/gofastga/internal/las"
	"github.com/shenwei356/gofastga/internal/twobit"
)

var dotplotCmd = &cobra.Command{
	Use:   "dotplot <las_path> <src1> <src2>",
	Short: "Render a whole-genome dot plot from a .las alignment file",
	Long: `dotplot - render a .las file's alignments as a whole-genome dot plot

<src1> and <src2> are the same index roots given to "align"; their
".bps" contig tables are used for axis layout and contig names.
`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		_ = getOptions(cmd)

		alns, err := las.ReadAll(args[0])
		app.CheckError(err)

		aStore, err := twobit.Open(args[1] + ".bps")
		app.CheckError(err)
		defer aStore.Close()
		bStore, err := twobit.Open(args[2] + ".bps")
		app.CheckError(err)
		defer bStore.Close()

		opt := dotplot.DefaultOptions
		opt.MinAlignLen = getFlagPositiveInt64(cmd, "min-len")
		opt.MinIdentity = getFlagFloat64(cmd, "min-identity")
		opt.Title = getFlagString(cmd, "title")
		opt.TargetA = getFlagString(cmd, "target-a")
		opt.TargetB = getFlagString(cmd, "target-b")
		opt.NoLabel = getFlagBool(cmd, "no-label")
		if w := getFlagPositiveInt(cmd, "width"); w > 0 {
			opt.Width = vg.Length(w) * vg.Inch / 96
		}
		if h := getFlagPositiveInt(cmd, "height"); h > 0 {
			opt.Height = vg.Length(h) * vg.Inch / 96
		}

		out := getFlagString(cmd, "out")
		if out == "" {
			out = "dotplot.pdf"
		}
		app.CheckError(dotplot.Render(alns, aStore, bStore, opt, out))
	},
}

func init() {
	rootCmd.AddCommand(dotplotCmd)

	dotplotCmd.Flags().StringP("out", "o", "", "output image path (.pdf/.png/.svg/.eps, default dotplot.pdf)")
	dotplotCmd.Flags().Int64P("min-len", "l", 50, "minimum alignment length to plot")
	dotplotCmd.Flags().Float64P("min-identity", "i", 0.7, "minimum alignment identity to plot")
	dotplotCmd.Flags().IntP("width", "W", 576, "image width in pixels (96 px/in)")
	dotplotCmd.Flags().IntP("height", "H", 576, "image height in pixels (96 px/in)")
	dotplotCmd.Flags().String("title", "", "plot title")
	dotplotCmd.Flags().StringP("target-a", "x", "", "restrict to this a-contig")
	dotplotCmd.Flags().StringP("target-b", "y", "", "restrict to this b-contig")
	dotplotCmd.Flags().BoolP("no-label", "L", false, "omit contig boundary grid lines")
}
