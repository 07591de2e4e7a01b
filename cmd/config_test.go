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
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func newFixtureCmd() *cobra.Command {
	c := &cobra.Command{Use: "fixture"}
	c.Flags().String("scratch", "", "")
	c.Flags().Int("freq", 0, "")
	c.Flags().Int64("chain-min", 100, "")
	c.Flags().Int64("chain-break", 500, "")
	c.Flags().Int64("align-min", 100, "")
	c.Flags().Float64("identity", 0.7, "")
	return c
}

func TestLoadAlignDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.toml")
	body := `scratch_dir = "/tmp/scratch"
freq = 3
chain_min = 200
chain_break = 800
align_min = 150
identity = 0.85
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d, err := loadAlignDefaults(path)
	if err != nil {
		t.Fatalf("loadAlignDefaults: %v", err)
	}
	if d.ScratchDir != "/tmp/scratch" || d.Freq != 3 || d.ChainMin != 200 ||
		d.ChainBreak != 800 || d.AlignMin != 150 || d.Identity != 0.85 {
		t.Errorf("loadAlignDefaults() = %+v, unexpected values", d)
	}
}

func TestLoadAlignDefaultsMissingFile(t *testing.T) {
	if _, err := loadAlignDefaults(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("loadAlignDefaults on a missing file should have errored")
	}
}

func TestApplyAlignDefaultsFillsUnsetFlags(t *testing.T) {
	c := newFixtureCmd()
	d := &alignDefaults{ScratchDir: "/scratch", Freq: 5, ChainMin: 300, ChainBreak: 900, AlignMin: 120, Identity: 0.9}

	applyAlignDefaults(c, d)

	if got, _ := c.Flags().GetString("scratch"); got != "/scratch" {
		t.Errorf("scratch = %s, want /scratch", got)
	}
	if got, _ := c.Flags().GetInt("freq"); got != 5 {
		t.Errorf("freq = %d, want 5", got)
	}
	if got, _ := c.Flags().GetInt64("chain-min"); got != 300 {
		t.Errorf("chain-min = %d, want 300", got)
	}
	if got, _ := c.Flags().GetFloat64("identity"); got != 0.9 {
		t.Errorf("identity = %v, want 0.9", got)
	}
}

func TestApplyAlignDefaultsRespectsExplicitFlags(t *testing.T) {
	c := newFixtureCmd()
	if err := c.Flags().Set("chain-min", "999"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	d := &alignDefaults{ChainMin: 300}

	applyAlignDefaults(c, d)

	if got, _ := c.Flags().GetInt64("chain-min"); got != 999 {
		t.Errorf("chain-min = %d, want 999 (explicit flag must win over config)", got)
	}
}
