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

package app

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func TestCleanScratchRemovesForeignPidFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "_123.seed.0"))
	touch(t, filepath.Join(dir, "_456.seed.0"))
	touch(t, filepath.Join(dir, "notes.txt"))

	if err := CleanScratch(dir, 123, 2); err != nil {
		t.Fatalf("CleanScratch: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "_123.seed.0")); err != nil {
		t.Errorf("current-pid shard was removed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "_456.seed.0")); !os.IsNotExist(err) {
		t.Errorf("foreign-pid shard was not removed (err=%v)", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Errorf("unrelated file was removed: %v", err)
	}
}

func TestCleanScratchMissingDirIsNoop(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist")
	if err := CleanScratch(dir, 1, 1); err != nil {
		t.Errorf("CleanScratch on a missing dir returned %v, want nil", err)
	}
}

func TestScratchPath(t *testing.T) {
	got := ScratchPath("/tmp/scratch", 42, "seed", "0")
	want := filepath.Join("/tmp/scratch", "_42.seed.0")
	if got != want {
		t.Errorf("ScratchPath() = %s, want %s", got, want)
	}
}

func TestResolveThreads(t *testing.T) {
	if got := ResolveThreads(4); got != 4 {
		t.Errorf("ResolveThreads(4) = %d, want 4", got)
	}
	if got := ResolveThreads(0); got <= 0 {
		t.Errorf("ResolveThreads(0) = %d, want > 0", got)
	}
}

func TestMakeScratchDirCreatesMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scratch")
	if err := MakeScratchDir(dir); err != nil {
		t.Fatalf("MakeScratchDir: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("MakeScratchDir did not create a directory at %s", dir)
	}
	// Calling again on an existing dir must not error.
	if err := MakeScratchDir(dir); err != nil {
		t.Errorf("MakeScratchDir on an existing dir returned %v", err)
	}
}
