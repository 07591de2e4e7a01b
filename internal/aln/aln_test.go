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

package aln

import "testing"

func TestIdentity(t *testing.T) {
	a := &Alignment{ABeg: 0, AEnd: 100, Diffs: 5}
	if got := a.Identity(); got != 0.95 {
		t.Errorf("Identity() = %v, want 0.95", got)
	}

	empty := &Alignment{ABeg: 10, AEnd: 10}
	if got := empty.Identity(); got != 0 {
		t.Errorf("Identity() on empty span = %v, want 0", got)
	}
}

func TestALenBLen(t *testing.T) {
	a := &Alignment{ABeg: 10, AEnd: 210, BBeg: 5, BEnd: 105}
	if a.ALen() != 200 {
		t.Errorf("ALen() = %d, want 200", a.ALen())
	}
	if a.BLen() != 100 {
		t.Errorf("BLen() = %d, want 100", a.BLen())
	}
}

func TestEntwineParallelNoCross(t *testing.T) {
	a := &Alignment{ABeg: 0, AEnd: 200, BBeg: 0, Trace: []TraceSeg{{0, 100}, {0, 100}}}
	b := &Alignment{ABeg: 0, AEnd: 200, BBeg: 500, Trace: []TraceSeg{{0, 100}, {0, 100}}}

	_, crosses, _ := Entwine(a, b)
	if crosses {
		t.Errorf("Entwine on parallel trajectories reported crosses=true")
	}
}

func TestEntwineCrossing(t *testing.T) {
	a := &Alignment{ABeg: 0, AEnd: 200, BBeg: 0, Trace: []TraceSeg{{0, 100}, {0, 100}}}
	b := &Alignment{ABeg: 0, AEnd: 200, BBeg: -50, Trace: []TraceSeg{{0, 200}, {0, 0}}}

	_, crosses, _ := Entwine(a, b)
	if !crosses {
		t.Errorf("Entwine on trajectories that swap sides reported crosses=false")
	}
}

func TestEntwineDisjointRange(t *testing.T) {
	a := &Alignment{ABeg: 0, AEnd: 100, BBeg: 0, Trace: []TraceSeg{{0, 100}}}
	b := &Alignment{ABeg: 500, AEnd: 600, BBeg: 0, Trace: []TraceSeg{{0, 100}}}

	minDiff, crosses, _ := Entwine(a, b)
	if crosses {
		t.Errorf("Entwine on disjoint a-ranges reported crosses=true")
	}
	if minDiff != 0 {
		t.Errorf("Entwine on disjoint a-ranges minDiff = %d, want 0", minDiff)
	}
}
