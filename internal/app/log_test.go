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

func TestAddFileLogWritesToPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	fh, err := AddFileLog(path)
	if err != nil {
		t.Fatalf("AddFileLog: %v", err)
	}
	defer fh.Close()

	Log.Info("hello from the test")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Errorf("log file is empty, want at least one line written")
	}
}

func TestAddFileLogErrorsOnBadPath(t *testing.T) {
	if _, err := AddFileLog(filepath.Join(t.TempDir(), "missing-dir", "run.log")); err == nil {
		t.Errorf("AddFileLog with a nonexistent parent dir should have errored")
	}
}
