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
    `sort`

    `github.com/cloudwego/shaderopt/sir`
)

// _TempAccessRecord is one sortable live range entry of the register sweep.
type _TempAccessRecord struct {
    begin int
    end   int
    reg   int
    erase bool
}

// findNextRename finds the first record in recs[start:end) whose live range
// begins at or after bound. recs[start:end) must be sorted by begin.
func findNextRename(recs []_TempAccessRecord, start int, end int, bound int) int {
    return start + sort.Search(end-start, func(i int) bool {
        return bound <= recs[start+i].begin
    })
}

// ComputeRegisterRemap evaluates register merges over the given live ranges
// by sweeping the ranges in begin order and picking merge candidates with a
// binary search. The result maps every register to its replacement, which is
// the register itself when no merge was found. Registers with a live range
// of [-1, -1] are never written and keep their index.
func ComputeRegisterRemap(lifetimes []LiveRange) []int {
    result := make([]int, len(lifetimes))
    for i := range result {
        result[i] = i
    }

    recs := make([]_TempAccessRecord, 0, len(lifetimes))
    for i, lt := range lifetimes {
        if lt.Begin >= 0 {
            recs = append(recs, _TempAccessRecord{begin: lt.Begin, end: lt.End, reg: i})
        }
    }

    sort.Slice(recs, func(i int, j int) bool {
        return recs[i].begin < recs[j].begin
    })

    end := len(recs)
    firstErase := end
    trgt := 0
    searchStart := 1

    for trgt != end {
        src := findNextRename(recs, searchStart, end, recs[trgt].end)

        if src != end {
            result[recs[src].reg] = recs[trgt].reg
            recs[trgt].end = recs[src].end

            /* the search only moves forward, so just mark the merged
             * register for removal */
            recs[src].erase = true

            if firstErase == end {
                firstErase = src
            }
            searchStart = src + 1
        } else {
            /* moving on to the next target register, time to drop the
             * already merged ones from the search range */
            if firstErase != end {
                outp := firstErase
                for inp := firstErase + 1; inp != end; inp++ {
                    if !recs[inp].erase {
                        recs[outp] = recs[inp]
                        outp++
                    }
                }
                end = outp
                firstErase = end
            }
            trgt++
            searchStart = trgt + 1
        }
    }
    return result
}

func remapSrc(src *sir.SrcReg, remap []int) {
    if src.File == sir.FILE_temp && src.Index < len(remap) {
        src.Index = remap[src.Index]
    }
    if src.RelAddr != nil {
        remapSrc(src.RelAddr, remap)
    }
    if src.RelAddr2 != nil {
        remapSrc(src.RelAddr2, remap)
    }
}

// ApplyRegisterRemap rewrites all temporary register indices of the program
// according to the remapping computed by ComputeRegisterRemap.
func ApplyRegisterRemap(p *sir.Program, remap []int) {
    for i := range p.Ins {
        v := &p.Ins[i]
        for j := range v.Src {
            remapSrc(&v.Src[j], remap)
        }
        for j := range v.TexOffsets {
            remapSrc(&v.TexOffsets[j], remap)
        }
        for j := range v.Dst {
            d := &v.Dst[j]
            if d.File == sir.FILE_temp && d.Index < len(remap) {
                d.Index = remap[d.Index]
            }
            if d.RelAddr != nil {
                remapSrc(d.RelAddr, remap)
            }
            if d.RelAddr2 != nil {
                remapSrc(d.RelAddr2, remap)
            }
        }
    }
}
