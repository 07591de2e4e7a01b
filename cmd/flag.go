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

	"github.com/shenwei356/gofastga/internal/app"
)

func getFlagString(cmd *cobra.Command, name string) string {
	s, err := cmd.Flags().GetString(name)
	app.CheckError(err)
	return s
}

func getFlagBool(cmd *cobra.Command, name string) bool {
	b, err := cmd.Flags().GetBool(name)
	app.CheckError(err)
	return b
}

func getFlagNonNegativeInt(cmd *cobra.Command, name string) int {
	v, err := cmd.Flags().GetInt(name)
	app.CheckError(err)
	if v < 0 {
		app.CheckError(errNegativeFlag(name))
	}
	return v
}

func getFlagPositiveInt(cmd *cobra.Command, name string) int {
	v, err := cmd.Flags().GetInt(name)
	app.CheckError(err)
	if v <= 0 {
		app.CheckError(errNotPositiveFlag(name))
	}
	return v
}

func getFlagPositiveInt64(cmd *cobra.Command, name string) int64 {
	v, err := cmd.Flags().GetInt64(name)
	app.CheckError(err)
	if v <= 0 {
		app.CheckError(errNotPositiveFlag(name))
	}
	return v
}

func getFlagFloat64(cmd *cobra.Command, name string) float64 {
	v, err := cmd.Flags().GetFloat64(name)
	app.CheckError(err)
	return v
}

func errNegativeFlag(name string) error { return flagErr(name, "must not be negative") }
func errNotPositiveFlag(name string) error { return flagErr(name, "must be positive") }

func flagErr(name, msg string) error {
	return &flagError{name: name, msg: msg}
}

type flagError struct {
	name, msg string
}

func (e *flagError) Error() string { return "flag -" + e.name + ": " + e.msg }
