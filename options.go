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

package shaderopt

import (
	"io"

	"github.com/cloudwego/shaderopt/internal/opts"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithDebug makes the analysis dump every scanned instruction and the
// computed live ranges to w.
//
// The default is no dump, unless the environment variable SHADEROPT_DEBUG
// is set, in which case the dump goes to stderr.
func WithDebug(w io.Writer) Option {
	return func(o *opts.Options) { o.Debug = w }
}

// WithLiveRangeSVG draws the program and the computed live ranges into the
// SVG file fn.
//
// The default is no drawing, unless the environment variable
// SHADEROPT_LIVERANGE_SVG names a file.
func WithLiveRangeSVG(fn string) Option {
	return func(o *opts.Options) { o.LiveRangeSVG = fn }
}
