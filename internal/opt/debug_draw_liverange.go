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
    `os`

    `github.com/ajstarks/svgo`
    `github.com/cloudwego/shaderopt/sir`
)

// drawLiveRanges renders the program and the computed live ranges into an
// SVG file, one text line per instruction and one column per register or
// array, with a vertical bar spanning the live range.
func drawLiveRanges(fn string, p *sir.Program, regs []LiveRange, arrs []ArrayLiveRange) {
    maxi := 0
    for i := range p.Ins {
        if n := len(p.Ins[i].String()); n > maxi {
            maxi = n
        }
    }

    ncols := len(regs) + len(arrs)
    insw := maxi * 9 + 120
    colw := 64

    fp, err := os.OpenFile(fn, os.O_RDWR | os.O_CREATE | os.O_TRUNC, 0644)
    if err != nil {
        panic(err)
    }

    v := svg.New(fp)
    v.Start(ncols * colw + insw + 100, len(p.Ins) * 24 + 100)
    if _, err = fp.WriteString(`<rect width="100%" height="100%" fill="white" />` + "\n"); err != nil {
        panic(err)
    }

    liney := func(line int) int {
        return 95 + line * 24
    }

    for i := range p.Ins {
        h := liney(i)
        v.Text(insw, h + 5, fmt.Sprintf("%4d: %s", i, p.Ins[i].String()), "fill:black;font-size:16px;font-family:monospace;text-anchor:end")
        v.Line(insw + 10, h, ncols * colw + insw + 50, h, "stroke:lightgray")
    }

    col := func(i int, name string, begin int, end int) {
        x := insw + i * colw + 50
        v.Text(x, 70, name, "fill:black;font-size:16px;font-family:monospace;text-anchor:middle")
        if begin < 0 {
            return
        }
        v.Line(x, liney(begin), x, liney(end), "stroke:black;stroke-width:3")
        v.Circle(x, liney(begin), 4, "fill:white;stroke:black;stroke-width:2")
        v.Circle(x, liney(end), 4, "fill:black;stroke:black;stroke-width:2")
    }

    for i, lt := range regs {
        col(i, fmt.Sprintf("T%d", i), lt.Begin, lt.End)
    }
    for i := range arrs {
        col(len(regs) + i, fmt.Sprintf("A%d", arrs[i].ID), arrs[i].Begin, arrs[i].End)
    }

    v.End()
    if err = fp.Close(); err != nil {
        panic(err)
    }
}
