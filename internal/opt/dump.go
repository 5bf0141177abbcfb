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

package opt

import (
    `fmt`
    `io`
    `strings`

    `github.com/cloudwego/shaderopt/sir`
    `github.com/davecgh/go-spew/spew`
    `gonum.org/v1/gonum/stat`
)

func dumpInstruction(w io.Writer, line int, scope *_Scope, v *sir.Ins) {
    indent := scope.nestingDepth()

    if (scope.stype == _SC_case || scope.stype == _SC_default) &&
        (v.Op == sir.OP_case || v.Op == sir.OP_default) {
        indent--
    }

    switch v.Op {
        case sir.OP_endif, sir.OP_else, sir.OP_endloop, sir.OP_endswitch : indent--
    }

    if indent < 0 {
        indent = 0
    }
    fmt.Fprintf(w, "%4d: %s%s\n", line, strings.Repeat("    ", indent), v.String())
}

func dumpLiveRanges(w io.Writer, regs []LiveRange, arrs []ArrayLiveRange) {
    fmt.Fprintln(w, "========= register live ranges ==============")
    for i, lt := range regs {
        fmt.Fprintf(w, "%4d: [%d, %d]\n", i, lt.Begin, lt.End)
    }

    fmt.Fprintf(w, "========= array live ranges (%d) =============\n", len(arrs))
    for i := range arrs {
        fmt.Fprintf(w, "%4d: %s\n", arrs[i].ID, arrs[i].String())
    }

    /* live range length distribution, dead registers excluded */
    lens := make([]float64, 0, len(regs))
    for _, lt := range regs {
        if lt.Begin >= 0 {
            lens = append(lens, float64(lt.End-lt.Begin))
        }
    }
    if len(lens) != 0 {
        mean, std := stat.MeanStdDev(lens, nil)
        fmt.Fprintf(w, "live registers: %d, range length mean: %.2f, stddev: %.2f\n", len(lens), mean, std)
    }
    fmt.Fprintln(w, "=============================================")
}

func dumpArrayRemappings(w io.Writer, m []_ArrayRemapping) {
    fmt.Fprintln(w, "========= array remappings ==================")
    for i := 1; i < len(m); i++ {
        if m[i].isValid() {
            fmt.Fprintf(w, "%4d: %s", i, spew.Sdump(m[i]))
        } else {
            fmt.Fprintf(w, "%4d: [unused]\n", i)
        }
    }
    fmt.Fprintln(w, "=============================================")
}
