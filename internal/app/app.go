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

// Package app holds the ambient plumbing shared by every subcommand:
// global options, the logger, scratch-directory management and progress
// bars. Grounded on the teacher's lexicmap/cmd/util.go and
// lexicmap/cmd/lib-index-build.go.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"

	"github.com/iafan/cwalk"
	"github.com/pkg/errors"
	"github.com/shenwei356/util/pathutil"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Options holds the global flags every subcommand shares.
type Options struct {
	NumCPUs int
	Verbose bool

	LogFile  string
	Log2File bool

	ScratchDir string
	PID        int
}

// CheckError prints err (if non-nil) through the logger and exits 1,
// mirroring the teacher's checkError helper used throughout lexicmap/cmd.
func CheckError(err error) {
	if err != nil {
		Log.Error(err)
		os.Exit(1)
	}
}

// ResolveThreads falls back to runtime.NumCPU() when threads <= 0.
func ResolveThreads(threads int) int {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	return threads
}

// MakeScratchDir creates dir if missing and checks it is writable,
// mirroring makeOutDir's error-reporting style but without the
// destructive force-overwrite path (scratch dirs are never pre-existing
// output the user cares about).
func MakeScratchDir(dir string) error {
	existed, err := pathutil.DirExists(dir)
	if err != nil {
		return errors.Wrap(err, dir)
	}
	if !existed {
		return errors.Wrap(os.MkdirAll(dir, 0777), dir)
	}
	return nil
}

// ScratchPath joins the scratch directory, the run's pid, and a file
// name suffix into one path named "_<pid>.<part>.<part>...", with the
// pid directly after the leading underscore.
func ScratchPath(dir string, pid int, parts ...string) string {
	name := fmt.Sprintf("_%d", pid)
	for _, p := range parts {
		name += "." + p
	}
	return filepath.Join(dir, name)
}

// CleanScratch walks dir concurrently, using cwalk the same way the
// teacher's getFileListFromDir does, and removes every shard file left
// behind by a previous, crashed "align" run under a different pid than
// the current one — matched by the "_<pid>." prefix ScratchPath writes
// or the "_<kind>.<pid>." prefix of the seed shards ("_pair.<pid>...").
func CleanScratch(dir string, curPID, threads int) error {
	existed, err := pathutil.DirExists(dir)
	if err != nil || !existed {
		return errors.Wrap(err, dir)
	}

	pat := regexp.MustCompile(`^_(?:[a-z]+\.)?(\d+)\.`)
	curTag := strconv.Itoa(curPID)

	cwalk.NumWorkers = ResolveThreads(threads)
	return cwalk.WalkWithSymlinks(dir, func(_path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		m := pat.FindStringSubmatch(info.Name())
		if m == nil || m[1] == curTag {
			return nil
		}
		return os.Remove(filepath.Join(dir, _path))
	})
}

// NewProgress returns an mpb progress container configured the way the
// teacher configures its build-time progress bars (lib-index-build.go).
func NewProgress() *mpb.Progress {
	return mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
}

// AddBar adds one counted progress bar with an ETA decorator, for long
// per-shard or per-contig-pair phases (C2/C3/C4).
func AddBar(p *mpb.Progress, name string, total int64) *mpb.Bar {
	return p.AddBar(total,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Name("ETA: ", decor.WC{W: 5}),
			decor.EwmaETA(decor.ET_STYLE_GO, 60),
		),
	)
}
