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
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// alignDefaults holds the subset of "align" flags a TOML config file may
// override before the CLI flags are read, letting a pipeline pin its
// chain/align thresholds once instead of repeating them on every
// invocation.
type alignDefaults struct {
	ScratchDir string  `toml:"scratch_dir"`
	Freq       int     `toml:"freq"`
	ChainMin   int64   `toml:"chain_min"`
	ChainBreak int64   `toml:"chain_break"`
	AlignMin   int64   `toml:"align_min"`
	Identity   float64 `toml:"identity"`
}

func loadAlignDefaults(path string) (*alignDefaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	var d alignDefaults
	if err := toml.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	return &d, nil
}

// applyAlignDefaults sets any flag the user did not explicitly pass on
// the command line to the config file's value.
func applyAlignDefaults(cmd *cobra.Command, d *alignDefaults) {
	f := cmd.Flags()
	if d.ScratchDir != "" && !f.Changed("scratch") {
		f.Set("scratch", d.ScratchDir)
	}
	if d.Freq != 0 && !f.Changed("freq") {
		f.Set("freq", strconv.Itoa(d.Freq))
	}
	if d.ChainMin != 0 && !f.Changed("chain-min") {
		f.Set("chain-min", strconv.FormatInt(d.ChainMin, 10))
	}
	if d.ChainBreak != 0 && !f.Changed("chain-break") {
		f.Set("chain-break", strconv.FormatInt(d.ChainBreak, 10))
	}
	if d.AlignMin != 0 && !f.Changed("align-min") {
		f.Set("align-min", strconv.FormatInt(d.AlignMin, 10))
	}
	if d.Identity != 0 && !f.Changed("identity") {
		f.Set("identity", strconv.FormatFloat(d.Identity, 'f', -1, 64))
	}
}
