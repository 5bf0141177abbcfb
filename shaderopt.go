/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package shaderopt estimates the live ranges of the temporary registers
// and temporary arrays of a linearized shader program and coalesces their
// storage: registers with disjoint live ranges are merged, arrays are merged
// or interleaved component-wise, and the program is rewritten accordingly.
package shaderopt

import (
	"github.com/cloudwego/shaderopt/internal/opt"
	"github.com/cloudwego/shaderopt/internal/opts"
	"github.com/cloudwego/shaderopt/sir"
)

// LiveRange is the live range of one temporary register in instruction
// lines. A range of [-1, -1] marks a register that is never written.
type LiveRange = opt.LiveRange

// ArrayLiveRange is the live range of one temporary array, together with its
// length and the set of components it is accessed with.
type ArrayLiveRange = opt.ArrayLiveRange

// ComputeLifetimes scans the program once and estimates the live range of
// every temporary register and every temporary array. ntemps is the number
// of temporary registers, narrays the number of arrays, array ids are
// 1-based. Programs with subroutine calls are rejected with an
// UnsupportedControlFlowError.
func ComputeLifetimes(p *sir.Program, ntemps int, narrays int, options ...Option) ([]LiveRange, []ArrayLiveRange, error) {
	return opt.ComputeLifetimes(p, ntemps, narrays, collect(options))
}

// ComputeRegisterRemap evaluates register merges over the given live ranges.
// The result maps every register to its replacement, which is the register
// itself when no merge was found.
func ComputeRegisterRemap(lifetimes []LiveRange) []int {
	return opt.ComputeRegisterRemap(lifetimes)
}

// ApplyRegisterRemap rewrites all temporary register accesses of the program
// according to the remapping computed by ComputeRegisterRemap.
func ApplyRegisterRemap(p *sir.Program, remap []int) {
	opt.ApplyRegisterRemap(p, remap)
}

// MergeArrays merges and interleaves the arrays of the program based on the
// live ranges computed by ComputeLifetimes, rewrites all array accesses and
// compacts arraySizes, which is indexed by array id with slot 0 unused.
// Returns the number of arrays left after merging.
func MergeArrays(narrays int, arraySizes []uint32, p *sir.Program, lifetimes []ArrayLiveRange, options ...Option) int {
	return opt.MergeArrays(narrays, arraySizes, p, lifetimes, collect(options))
}

// Optimize runs the whole pipeline: live range analysis, register
// coalescing and array merging. The program is rewritten in place, the
// returned value is the new array count. p.ArraySizes is compacted.
func Optimize(p *sir.Program, ntemps int, options ...Option) (int, error) {
	narrays := 0
	if len(p.ArraySizes) > 0 {
		narrays = len(p.ArraySizes) - 1
	}

	regs, arrs, err := ComputeLifetimes(p, ntemps, narrays, options...)
	if err != nil {
		return narrays, err
	}

	ApplyRegisterRemap(p, ComputeRegisterRemap(regs))

	if narrays > 0 {
		narrays = MergeArrays(narrays, p.ArraySizes, p, arrs, options...)
		p.ArraySizes = p.ArraySizes[:narrays+1]
	}
	return narrays, nil
}

func collect(options []Option) opts.Options {
	ret := opts.GetDefaultOptions()
	for _, fn := range options {
		fn(&ret)
	}
	return ret
}
