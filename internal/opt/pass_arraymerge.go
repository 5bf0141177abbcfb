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

    `github.com/cloudwego/shaderopt/internal/opts`
    `github.com/cloudwego/shaderopt/sir`
    `github.com/oleiade/lane`
)

// _ArrayRemapping maps the accesses of one array onto its merge target. A
// target id of zero marks an unmapped array. When arrays are interleaved the
// mapping also carries a write mask map and a read swizzle map that move the
// accessed components into the free slots of the target.
type _ArrayRemapping struct {
    targetID        int
    readSwizzleMap  [4]int8
    writemaskMap    [4]sir.WriteMask
    summaryMask     sir.WriteMask
    originalSrcMask sir.WriteMask
    reswizzle       bool
    finalized       bool
}

// newArrayRemapping maps an array onto a target without touching components,
// used when both arrays access the same component set.
func newArrayRemapping(trgtID int, srcMask sir.WriteMask) _ArrayRemapping {
    return _ArrayRemapping{targetID: trgtID, originalSrcMask: srcMask}
}

// newInterleavedRemapping maps the used components of the source array into
// the component slots the target leaves free. Unused slots below the highest
// used source component are skipped, the trailing slots are filled with a
// mapping for the last used component (think temp[A].xyyy), so reads through
// any swizzle stay mappable.
func newInterleavedRemapping(trgtID int, trgtMask sir.WriteMask, srcMask sir.WriteMask) _ArrayRemapping {
    ret := _ArrayRemapping{
        targetID:        trgtID,
        summaryMask:     trgtMask,
        originalSrcMask: srcMask,
        reswizzle:       true,
    }
    for i := 0; i < 4; i++ {
        ret.readSwizzleMap[i] = -1
    }

    srcBit := sir.WriteMask(1)
    nextFreeBit := sir.WriteMask(1)
    k := 0
    skip := true
    lastSrcBit := srcMask.LastBit()

    for i := 0; i < 4; i, srcBit = i+1, srcBit<<1 {
        if skip && srcBit&srcMask == 0 {
            continue
        }
        skip = i < lastSrcBit

        /* find the next free slot in the target */
        for trgtMask&nextFreeBit != 0 && k < 4 {
            nextFreeBit <<= 1
            k++
        }

        ret.readSwizzleMap[i] = int8(k)
        ret.writemaskMap[i] = nextFreeBit
        trgtMask |= nextFreeBit

        /* only genuinely used components join the summary mask */
        if srcBit&srcMask != 0 {
            ret.summaryMask |= nextFreeBit
        }
    }
    return ret
}

func (self *_ArrayRemapping) isValid() bool {
    return self.targetID != 0
}

func (self *_ArrayRemapping) targetArrayID() int {
    return self.targetID
}

func (self *_ArrayRemapping) setTargetID(id int) {
    self.targetID = id
}

func (self *_ArrayRemapping) combinedAccessMask() sir.WriteMask {
    return self.summaryMask
}

func (self *_ArrayRemapping) mapWritemask(mask sir.WriteMask) sir.WriteMask {
    if !self.reswizzle {
        return mask
    }
    ret := sir.WriteMask(0)
    for i := 0; i < 4; i++ {
        if mask&(1<<i) != 0 {
            ret |= self.writemaskMap[i]
        }
    }
    return ret
}

func (self *_ArrayRemapping) mapOneSwizzle(swz sir.Swizzle) sir.Swizzle {
    if !self.reswizzle {
        return swz
    }
    return sir.Swizzle(self.readSwizzleMap[swz])
}

func (self *_ArrayRemapping) mapSwizzles(swz sir.Swizzle) sir.Swizzle {
    if !self.reswizzle {
        return swz
    }
    ret := sir.Swizzle(0)
    for i := 0; i < 4; i++ {
        ret |= self.mapOneSwizzle(swz.Lane(i)) << (3 * i)
    }
    return ret
}

// moveReadSwizzles moves the source swizzles according to the changed write
// mask of the destination, because dst.zw = src.xy really is
// MOV dst.__zw src.__xy and interleaving may move the written slots.
func (self *_ArrayRemapping) moveReadSwizzles(swz sir.Swizzle) sir.Swizzle {
    if !self.reswizzle {
        return swz
    }
    ret := sir.Swizzle(0)
    for i := 0; i < 4; i++ {
        if k := self.readSwizzleMap[i]; k >= 0 {
            ret |= swz.Lane(i) << (3 * int(k))
        }
    }
    return ret
}

// finalize resolves chains of remappings so that every mapping points at an
// array that is not mapped itself. The chain is unwound with a stack so each
// link only needs its direct forward map to be final.
func (self *_ArrayRemapping) finalize(table []_ArrayRemapping) {
    st := lane.NewStack()
    st.Push(self)

    for r := &table[self.targetID]; r.isValid() && !r.finalized; r = &table[r.targetID] {
        st.Push(r)
    }

    for !st.Empty() {
        st.Pop().(*_ArrayRemapping).finalizeOne(table)
    }
}

func (self *_ArrayRemapping) finalizeOne(table []_ArrayRemapping) {
    fwd := &table[self.targetID]

    /* the target is a final array already */
    if !fwd.isValid() {
        return
    }

    if fwd.reswizzle {
        /* build an identity map first if this mapping has none */
        if !self.reswizzle {
            for i := 0; i < 4; i++ {
                if self.originalSrcMask&(1<<i) != 0 {
                    self.readSwizzleMap[i] = int8(i)
                    self.writemaskMap[i] = 1 << i
                } else {
                    self.readSwizzleMap[i] = -1
                    self.writemaskMap[i] = 0
                }
            }
            self.reswizzle = true
        }

        /* propagate the swizzle mapping of the forward map */
        for i := 0; i < 4; i++ {
            if self.originalSrcMask&(1<<i) == 0 {
                continue
            }
            self.readSwizzleMap[i] = int8(fwd.mapOneSwizzle(sir.Swizzle(self.readSwizzleMap[i])))
            self.writemaskMap[i] = fwd.mapWritemask(self.writemaskMap[i])
        }
    }

    /* skip the intermediate mapping */
    self.targetID = fwd.targetID
    self.finalized = true
}

func sortByBegin(alt []ArrayLiveRange) {
    sort.Slice(alt, func(i int, j int) bool {
        return alt[i].Begin < alt[j].Begin
    })
}

// mergeWithEqualAccessMask merges arrays that access the same component set
// and have disjoint live ranges. The number of arrays is expected to be low,
// so candidates are searched brute force.
func mergeWithEqualAccessMask(narrays int, alt []ArrayLiveRange, remapping []_ArrayRemapping) int {
    remaps := 0
    sortByBegin(alt[:narrays])

    for i := 0; i < narrays; i++ {
        if remapping[alt[i].ID].isValid() {
            continue
        }

        for j := i + 1; j < narrays; j++ {
            if remapping[alt[j].ID].isValid() {
                continue
            }
            if alt[i].AccessMask != alt[j].AccessMask || !alt[i].TimeDoesntOverlap(&alt[j]) {
                continue
            }

            /* same component set, disjoint ranges, merge the shorter
             * array into the longer one */
            if alt[i].Length < alt[j].Length {
                alt[i], alt[j] = alt[j], alt[i]
            }
            trgt, src := &alt[i], &alt[j]

            remapping[src.ID] = newArrayRemapping(trgt.ID, trgt.AccessMask)
            trgt.MergeLifetime(src)
            remaps++
        }
    }
    return remaps
}

// interleaveArrays interleaves two arrays with overlapping live ranges that
// together use at most four components. Returns after the first merge since
// the access masks have changed and the candidates must be re-evaluated.
func interleaveArrays(narrays int, alt []ArrayLiveRange, remapping []_ArrayRemapping) int {
    for i := 0; i < narrays; i++ {
        if remapping[alt[i].ID].isValid() {
            continue
        }

        for j := i + 1; j < narrays; j++ {
            if remapping[alt[j].ID].isValid() {
                continue
            }
            if alt[i].UsedComponents()+alt[j].UsedComponents() > 4 || alt[i].TimeDoesntOverlap(&alt[j]) {
                continue
            }

            if alt[i].Length < alt[j].Length {
                alt[i], alt[j] = alt[j], alt[i]
            }
            trgt, src := &alt[i], &alt[j]

            remapping[src.ID] = newInterleavedRemapping(trgt.ID, trgt.AccessMask, src.AccessMask)
            trgt.MergeLifetime(src)
            trgt.AccessMask = remapping[src.ID].combinedAccessMask()
            return 1
        }
    }
    return 0
}

// mergeArrays merges arrays with disjoint live ranges regardless of their
// access masks, like mergeWithEqualAccessMask without the mask check.
func mergeArrays(narrays int, alt []ArrayLiveRange, remapping []_ArrayRemapping) int {
    remaps := 0
    sortByBegin(alt[:narrays])

    for i := 0; i < narrays; i++ {
        if remapping[alt[i].ID].isValid() {
            continue
        }

        for j := i + 1; j < narrays; j++ {
            if remapping[alt[j].ID].isValid() {
                continue
            }
            if !alt[i].TimeDoesntOverlap(&alt[j]) {
                continue
            }

            if alt[i].Length < alt[j].Length {
                alt[i], alt[j] = alt[j], alt[i]
            }
            trgt, src := &alt[i], &alt[j]

            remapping[src.ID] = newArrayRemapping(trgt.ID, trgt.AccessMask)
            trgt.MergeLifetime(src)
            remaps++
        }
    }
    return remaps
}

// getArrayRemapping estimates the array merging: in a loop arrays with equal
// access masks are merged and arrays that together use at most four
// components are interleaved, then arrays are merged regardless of access
// masks, and finally all mappings are resolved to their final targets.
func getArrayRemapping(narrays int, alt []ArrayLiveRange, remapping []_ArrayRemapping) bool {
    total := 0

    for {
        n := mergeWithEqualAccessMask(narrays, alt, remapping)
        n += interleaveArrays(narrays, alt, remapping)
        total += n
        if n == 0 {
            break
        }
    }
    total += mergeArrays(narrays, alt, remapping)

    for i := 1; i <= narrays; i++ {
        if remapping[i].isValid() {
            remapping[i].finalize(remapping)
        }
    }
    return total > 0
}

// remapArrays renumbers the surviving arrays, compacts the size table and
// rewrites all array accesses of the program according to the mapping.
// Returns the new number of arrays.
func remapArrays(narrays int, arraySizes []uint32, ins []sir.Ins, m []_ArrayRemapping) int {
    oldSizes := make([]uint32, len(arraySizes))
    copy(oldSizes, arraySizes)

    /* renumber the arrays that stay and compact the sizes */
    idxMap := make([]int, narrays+1)
    newNArrays := 0
    for i := 1; i <= narrays; i++ {
        if !m[i].isValid() {
            newNArrays++
            idxMap[i] = newNArrays
            arraySizes[newNArrays] = oldSizes[i]
        }
    }

    /* point the merged arrays at the renumbered targets */
    for i := 1; i <= narrays; i++ {
        if m[i].isValid() {
            m[i].setTargetID(idxMap[m[i].targetArrayID()])
        }
    }

    /* the kept arrays map onto their own new id */
    for i := 1; i <= narrays; i++ {
        if !m[i].isValid() {
            m[i].setTargetID(idxMap[i])
        }
    }

    for i := range ins {
        v := &ins[i]

        for j := range v.Src {
            src := &v.Src[j]
            if src.File == sir.FILE_array && src.ArrayID > 0 {
                if r := &m[src.ArrayID]; r.isValid() {
                    src.ArrayID = r.targetArrayID()
                    src.Swizzle = r.mapSwizzles(src.Swizzle)
                }
            }
        }

        for j := range v.TexOffsets {
            src := &v.TexOffsets[j]
            if src.File == sir.FILE_array && src.ArrayID > 0 {
                if r := &m[src.ArrayID]; r.isValid() {
                    src.ArrayID = r.targetArrayID()
                    src.Swizzle = r.mapSwizzles(src.Swizzle)
                }
            }
        }

        for j := range v.Dst {
            dst := &v.Dst[j]
            if dst.File == sir.FILE_array && dst.ArrayID > 0 {
                if r := &m[dst.ArrayID]; r.isValid() {
                    dst.ArrayID = r.targetArrayID()
                    dst.WriteMask = r.mapWritemask(dst.WriteMask)

                    /* if the written slots moved, the source swizzles of
                     * this instruction move along */
                    for k := range v.Src {
                        v.Src[k].Swizzle = r.moveReadSwizzles(v.Src[k].Swizzle)
                    }
                }
            }
        }
    }
    return newNArrays
}

// MergeArrays computes and applies the array merging for the given live
// ranges, rewriting the program in place. arraySizes is indexed by array id
// and compacted to the surviving arrays. Returns the new array count.
func MergeArrays(narrays int, arraySizes []uint32, p *sir.Program, lifetimes []ArrayLiveRange, o opts.Options) int {
    m := make([]_ArrayRemapping, narrays+1)

    if getArrayRemapping(narrays, lifetimes, m) {
        if o.Debug != nil {
            dumpArrayRemappings(o.Debug, m)
        }
        narrays = remapArrays(narrays, arraySizes, p.Ins, m)
    }
    return narrays
}
