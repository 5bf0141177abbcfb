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

package opts

import (
	"io"
	"os"
)

type Options struct {
	// Debug receives the instruction dump and the computed live ranges
	// while the program is scanned. Nil disables the dump.
	Debug io.Writer

	// LiveRangeSVG is the file the computed live ranges are drawn to.
	// Empty disables the drawing.
	LiveRangeSVG string
}

func GetDefaultOptions() Options {
	ret := Options{LiveRangeSVG: LiveRangeSVG}
	if DebugEnabled {
		ret.Debug = os.Stderr
	}
	return ret
}
