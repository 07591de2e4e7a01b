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

	"github.com/mattn/go-colorable"
	logging "github.com/shenwei356/go-logging"
)

// Log is the process-wide logger, used as log.Infof/log.Errorf/log.Warningf
// throughout the CLI, the same idiom as lexicmap/cmd's package-level `log`.
var Log = logging.MustGetLogger("gofastga")

func init() {
	format := logging.MustStringFormatter(
		`%{color}[%{level:.4s}]%{color:reset} %{message}`,
	)
	backend := logging.NewLogBackend(colorable.NewColorableStderr(), "", 0)
	backendFormatter := logging.NewBackendFormatter(backend, format)
	logging.SetBackend(backendFormatter)
}

// AddFileLog additionally writes log output to path, mirroring the
// teacher's addLog helper referenced from lexicmap/cmd/util.go's
// Options.LogFile/Log2File fields.
func AddFileLog(path string) (*os.File, error) {
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}
	format := logging.MustStringFormatter(`[%{level:.4s}] %{message}`)
	fileBackend := logging.NewLogBackend(fh, "", 0)
	fileFormatter := logging.NewBackendFormatter(fileBackend, format)

	format2 := logging.MustStringFormatter(`%{color}[%{level:.4s}]%{color:reset} %{message}`)
	stderrBackend := logging.NewLogBackend(colorable.NewColorableStderr(), "", 0)
	stderrFormatter := logging.NewBackendFormatter(stderrBackend, format2)

	logging.SetBackend(fileFormatter, stderrFormatter)
	return fh, nil
}
