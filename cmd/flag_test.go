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

import "testing"

func TestGetFlagHelpersReadSetValues(t *testing.T) {
	c := newFixtureCmd()
	c.Flags().Bool("verbose", false, "")

	if err := c.Flags().Set("scratch", "/tmp/x"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := getFlagString(c, "scratch"); got != "/tmp/x" {
		t.Errorf("getFlagString() = %s, want /tmp/x", got)
	}

	if err := c.Flags().Set("verbose", "true"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := getFlagBool(c, "verbose"); !got {
		t.Errorf("getFlagBool() = false, want true")
	}

	if got := getFlagPositiveInt64(c, "chain-min"); got != 100 {
		t.Errorf("getFlagPositiveInt64() = %d, want 100 (default)", got)
	}

	if got := getFlagFloat64(c, "identity"); got != 0.7 {
		t.Errorf("getFlagFloat64() = %v, want 0.7 (default)", got)
	}

	if err := c.Flags().Set("freq", "3"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := getFlagPositiveInt(c, "freq"); got != 3 {
		t.Errorf("getFlagPositiveInt() = %d, want 3", got)
	}
}

func TestFlagError(t *testing.T) {
	err := flagErr("freq", "must be positive")
	if err.Error() != "flag -freq: must be positive" {
		t.Errorf("flagErr().Error() = %q, want %q", err.Error(), "flag -freq: must be positive")
	}
}
