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
    `testing`

    `github.com/cloudwego/shaderopt/internal/opts`
    `github.com/cloudwego/shaderopt/sir`
    `github.com/stretchr/testify/require`
)

/* aSwz parses a swizzle with the usual shader assembly shorthand: missing
 * trailing components replicate the last one, so "z" reads z in all lanes. */
func aSwz(s string) sir.Swizzle {
    if s == "" {
        return sir.SWIZZLE_XYZW
    }

    v := sir.Swizzle(0)
    last := sir.SWIZZLE_X

    for i := 0; i < 4; i++ {
        if i < len(s) {
            switch s[i] {
                case 'x' : last = sir.SWIZZLE_X
                case 'y' : last = sir.SWIZZLE_Y
                case 'z' : last = sir.SWIZZLE_Z
                case 'w' : last = sir.SWIZZLE_W
            }
        }
        v |= last << (3 * i)
    }
    return v
}

func aSrc(id int, idx int, s string) sir.SrcReg {
    return sir.ArraySrc(id, idx, aSwz(s))
}

func aDst(id int, idx int, mask sir.WriteMask) sir.DstReg {
    return sir.ArrayDst(id, idx, mask)
}

func runArrayLifetime(t *testing.T, code []sir.Ins, sizes []uint32, expect []ArrayLiveRange) {
    p := &sir.Program{Ins: code, ArraySizes: sizes}
    nt, na := countMockTemps(p)

    _, arrs, err := ComputeLifetimes(p, nt, na, opts.Options{})
    require.NoError(t, err)
    require.Equal(t, expect, arrs)
}

func TestArrayLiveRanges(t *testing.T) {
    tests := []struct {
        name   string
        code   []sir.Ins
        sizes  []uint32
        expect []ArrayLiveRange
    }{{
        name: "TwoArraysSimple",
        code: []sir.Ins{
            mInsOps(sir.OP_mov, dsts(aDst(1, 1, sir.WRITEMASK_XYZW)), srcs(mSrc(in0))),
            mInsOps(sir.OP_mov, dsts(aDst(2, 1, sir.WRITEMASK_XYZW)), srcs(mSrc(in1))),
            mInsOps(sir.OP_add, dsts(mDst(out0)), srcs(aSrc(1, 1, "xyzw"), aSrc(2, 1, "xyzw"))),
            mOp(sir.OP_end),
        },
        sizes: []uint32{0, 2, 2},
        expect: []ArrayLiveRange{
            {1, 2, 0, 2, sir.WRITEMASK_XYZW},
            {2, 2, 1, 2, sir.WRITEMASK_XYZW},
        },
    }, {
        name: "TwoArraysSimpleSwizzleX_Y",
        code: []sir.Ins{
            mInsOps(sir.OP_mov, dsts(aDst(1, 1, sir.WRITEMASK_X)), srcs(mSrc(in0))),
            mInsOps(sir.OP_mov, dsts(aDst(2, 1, sir.WRITEMASK_Y)), srcs(mSrc(in1))),
            mInsOps(sir.OP_add, dsts(mDstMask(out0, sir.WRITEMASK_X)), srcs(aSrc(1, 1, "x"), aSrc(2, 1, "y"))),
            mOp(sir.OP_end),
        },
        sizes: []uint32{0, 2, 2},
        expect: []ArrayLiveRange{
            {1, 2, 0, 2, sir.WRITEMASK_X},
            {2, 2, 1, 2, sir.WRITEMASK_Y},
        },
    }, {
        /* written before a loop and read inside: must survive the loop */
        name: "ArraysWriteBeforLoopReadInside",
        code: []sir.Ins{
            mIns(sir.OP_mov, ids(1), ids(in1), nil),
            mInsOps(sir.OP_mov, dsts(aDst(1, 1, sir.WRITEMASK_X)), srcs(mSrc(in0))),
            mOp(sir.OP_bgnloop),
            mInsOps(sir.OP_add, dsts(mDstMask(1, sir.WRITEMASK_X)), srcs(aSrc(1, 1, "x"), mSrcSwz(1, "x"))),
            mOp(sir.OP_endloop),
            mIns(sir.OP_mov, ids(out0), ids(1), nil),
            mOp(sir.OP_end),
        },
        sizes: []uint32{0, 1},
        expect: []ArrayLiveRange{
            {1, 1, 1, 4, sir.WRITEMASK_X},
        },
    }, {
        /* conditional write in a loop keeps the array for the whole
         * outer loop */
        name: "ArraysConditionalWriteInNestedLoop",
        code: []sir.Ins{
            mIns(sir.OP_mov, ids(1), ids(in1), nil),
            mOp(sir.OP_bgnloop),
            mOp(sir.OP_bgnloop),
            mIns(sir.OP_if, nil, ids(1), nil),
            mInsOps(sir.OP_mov, dsts(aDst(1, 1, sir.WRITEMASK_Z)), srcs(mSrc(in0))),
            mOp(sir.OP_endif),
            mInsOps(sir.OP_add, dsts(mDstMask(1, sir.WRITEMASK_X)), srcs(aSrc(1, 1, "z"), mSrcSwz(1, "x"))),
            mOp(sir.OP_endloop),
            mOp(sir.OP_endloop),
            mIns(sir.OP_mov, ids(out0), ids(1), nil),
            mOp(sir.OP_end),
        },
        sizes: []uint32{0, 1},
        expect: []ArrayLiveRange{
            {1, 1, 1, 8, sir.WRITEMASK_Z},
        },
    }, {
        name: "ArraysConditionalWriteInNestedLoop2",
        code: []sir.Ins{
            mIns(sir.OP_mov, ids(1), ids(in1), nil),
            mOp(sir.OP_bgnloop),
            mOp(sir.OP_bgnloop),
            mIns(sir.OP_if, nil, ids(1), nil),
            mOp(sir.OP_bgnloop),
            mInsOps(sir.OP_mov, dsts(aDst(1, 1, sir.WRITEMASK_Z)), srcs(mSrc(in0))),
            mOp(sir.OP_endloop),
            mOp(sir.OP_endif),
            mInsOps(sir.OP_add, dsts(mDstMask(1, sir.WRITEMASK_X)), srcs(aSrc(1, 1, "z"), mSrcSwz(1, "x"))),
            mOp(sir.OP_endloop),
            mOp(sir.OP_endloop),
            mIns(sir.OP_mov, ids(out0), ids(1), nil),
            mOp(sir.OP_end),
        },
        sizes: []uint32{0, 1},
        expect: []ArrayLiveRange{
            {1, 1, 1, 10, sir.WRITEMASK_Z},
        },
    }, {
        /* written in one loop and read in a later one: the range spans
         * both loops */
        name: "ArraysReadWriteInSeparateScopes",
        code: []sir.Ins{
            mIns(sir.OP_mov, ids(1), ids(in1), nil),
            mOp(sir.OP_bgnloop),
            mInsOps(sir.OP_mov, dsts(aDst(1, 1, sir.WRITEMASK_W)), srcs(mSrc(in0))),
            mOp(sir.OP_endloop),
            mOp(sir.OP_bgnloop),
            mInsOps(sir.OP_add, dsts(mDstMask(1, sir.WRITEMASK_X)), srcs(aSrc(1, 1, "w"), mSrcSwz(1, "x"))),
            mOp(sir.OP_endloop),
            mIns(sir.OP_mov, ids(out0), ids(1), nil),
            mOp(sir.OP_end),
        },
        sizes: []uint32{0, 1},
        expect: []ArrayLiveRange{
            {1, 1, 2, 6, sir.WRITEMASK_W},
        },
    }}

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            runArrayLifetime(t, tt.code, tt.sizes, tt.expect)
        })
    }
}

/* The interleaving map moves the used source components into the free
 * component slots of the target. */
func TestArrayRemappingInterleaved(t *testing.T) {
    tests := []struct {
        name      string
        trgtMask  sir.WriteMask
        srcMask   sir.WriteMask
        writemask map[sir.WriteMask]sir.WriteMask
        swizzle   map[sir.Swizzle]sir.Swizzle
    }{{
        name:      "x_into_x",
        trgtMask:  sir.WRITEMASK_X,
        srcMask:   sir.WRITEMASK_X,
        writemask: map[sir.WriteMask]sir.WriteMask{1: 2},
        swizzle:   map[sir.Swizzle]sir.Swizzle{0: 1},
    }, {
        name:      "x_into_xy",
        trgtMask:  sir.WRITEMASK_XY,
        srcMask:   sir.WRITEMASK_X,
        writemask: map[sir.WriteMask]sir.WriteMask{1: 4},
        swizzle:   map[sir.Swizzle]sir.Swizzle{0: 2},
    }, {
        name:      "x_into_xyz",
        trgtMask:  sir.WRITEMASK_XYZ,
        srcMask:   sir.WRITEMASK_X,
        writemask: map[sir.WriteMask]sir.WriteMask{1: 8},
        swizzle:   map[sir.Swizzle]sir.Swizzle{0: 3},
    }, {
        name:      "xy_into_xy",
        trgtMask:  sir.WRITEMASK_XY,
        srcMask:   sir.WRITEMASK_XY,
        writemask: map[sir.WriteMask]sir.WriteMask{1: 4, 2: 8, 3: 0xC},
        swizzle:   map[sir.Swizzle]sir.Swizzle{0: 2, 1: 3},
    }, {
        name:      "xw_into_xz",
        trgtMask:  sir.WRITEMASK_XZ,
        srcMask:   sir.WRITEMASK_X | sir.WRITEMASK_W,
        writemask: map[sir.WriteMask]sir.WriteMask{1: 2, 8: 8, 9: 0xA},
        swizzle:   map[sir.Swizzle]sir.Swizzle{0: 1, 3: 3},
    }}

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            m := newInterleavedRemapping(5, tt.trgtMask, tt.srcMask)
            require.Equal(t, 5, m.targetArrayID())

            for in, out := range tt.writemask {
                require.Equal(t, out, m.mapWritemask(in), "writemask %d", in)
            }
            for in, out := range tt.swizzle {
                require.Equal(t, out, m.mapOneSwizzle(in), "swizzle %d", in)
            }
        })
    }
}

/* Plain merges keep writemasks and swizzles untouched. */
func TestArrayRemappingNoReswizzle(t *testing.T) {
    m := newArrayRemapping(5, sir.WRITEMASK_XYZW)
    require.Equal(t, 5, m.targetArrayID())

    for i := sir.WriteMask(1); i < 16; i++ {
        require.Equal(t, i, m.mapWritemask(i))
    }
    for i := sir.Swizzle(0); i < 4; i++ {
        require.Equal(t, i, m.mapOneSwizzle(i))
    }
}

/* Two single-component arrays with overlapping ranges are interleaved. */
func TestArrayMergeTwoSwizzles(t *testing.T) {
    alt := []ArrayLiveRange{
        {1, 4, 1, 5, sir.WRITEMASK_X},
        {2, 4, 2, 5, sir.WRITEMASK_X},
    }

    m := make([]_ArrayRemapping, 3)
    require.True(t, getArrayRemapping(2, alt, m))

    require.False(t, m[1].isValid())
    require.True(t, m[2].isValid())
    require.Equal(t, 1, m[2].targetArrayID())
    require.Equal(t, sir.WriteMask(2), m[2].mapWritemask(1))
    require.Equal(t, sir.Swizzle(1), m[2].mapOneSwizzle(0))
    require.Equal(t, sir.WRITEMASK_XY, m[2].combinedAccessMask())
}

/* Arrays with equal masks and disjoint ranges merge without reswizzling. */
func TestArrayMergeSimpleChain(t *testing.T) {
    alt := []ArrayLiveRange{
        {1, 3, 1, 5, sir.WRITEMASK_XYZW},
        {2, 2, 6, 7, sir.WRITEMASK_XYZW},
    }

    m := make([]_ArrayRemapping, 3)
    require.True(t, getArrayRemapping(2, alt, m))

    require.False(t, m[1].isValid())
    require.True(t, m[2].isValid())
    require.Equal(t, 1, m[2].targetArrayID())
    require.False(t, m[2].reswizzle)
}

/* A merge chain 3 -> 2 -> 1 must be finalized so that array 3 points
 * directly at array 1 and carries the combined component move. */
func TestArrayMergeChainFinalize(t *testing.T) {
    alt := []ArrayLiveRange{
        {1, 4, 0, 10, sir.WRITEMASK_XY},
        {2, 3, 1, 4, sir.WRITEMASK_X},
        {3, 2, 6, 9, sir.WRITEMASK_X},
    }

    m := make([]_ArrayRemapping, 4)
    require.True(t, getArrayRemapping(3, alt, m))

    /* 3 merges into 2 with equal masks, 2 interleaves into 1 moving x
     * into the z slot, and the finalization funnels 3 through both */
    require.Equal(t, 1, m[2].targetArrayID())
    require.Equal(t, sir.WriteMask(4), m[2].mapWritemask(1))
    require.Equal(t, sir.Swizzle(2), m[2].mapOneSwizzle(0))

    require.Equal(t, 1, m[3].targetArrayID())
    require.True(t, m[3].finalized)
    require.Equal(t, sir.WriteMask(4), m[3].mapWritemask(1))
    require.Equal(t, sir.Swizzle(2), m[3].mapOneSwizzle(0))
}

func TestArrayMergeNoCandidates(t *testing.T) {
    alt := []ArrayLiveRange{
        {1, 4, 0, 10, sir.WRITEMASK_XYZ},
        {2, 3, 1, 4, sir.WRITEMASK_ZW},
    }

    m := make([]_ArrayRemapping, 3)
    require.False(t, getArrayRemapping(2, alt, m))
    require.False(t, m[1].isValid())
    require.False(t, m[2].isValid())
}

/* End to end: interleaving rewrites array ids, write masks, read swizzles
 * and the source swizzles of rewritten writes. */
func TestMergeArraysRewritesProgram(t *testing.T) {
    p := &sir.Program{
        Ins: []sir.Ins{
            mInsOps(sir.OP_mov, dsts(aDst(1, 0, sir.WRITEMASK_X)), srcs(mSrc(in0))),
            mInsOps(sir.OP_mov, dsts(aDst(2, 0, sir.WRITEMASK_X)), srcs(mSrc(in1))),
            mInsOps(sir.OP_add, dsts(mDstMask(out0, sir.WRITEMASK_X)), srcs(aSrc(1, 0, "x"), aSrc(2, 0, "x"))),
            mOp(sir.OP_end),
        },
        ArraySizes: []uint32{0, 2, 2},
    }

    lifetimes := []ArrayLiveRange{
        {1, 2, 0, 2, sir.WRITEMASK_X},
        {2, 2, 1, 2, sir.WRITEMASK_X},
    }

    narrays := MergeArrays(2, p.ArraySizes, p, lifetimes, opts.Options{})
    require.Equal(t, 1, narrays)
    require.Equal(t, uint32(2), p.ArraySizes[1])

    /* the target array keeps its accesses */
    require.Equal(t, 1, p.Ins[0].Dst[0].ArrayID)
    require.Equal(t, sir.WRITEMASK_X, p.Ins[0].Dst[0].WriteMask)

    /* the interleaved array moves x into the y slot, and the source
     * swizzle of the rewritten write moves along */
    require.Equal(t, 1, p.Ins[1].Dst[0].ArrayID)
    require.Equal(t, sir.WRITEMASK_Y, p.Ins[1].Dst[0].WriteMask)
    require.Equal(t, sir.Swizzle(0), p.Ins[1].Src[0].Swizzle)

    /* reads through the interleaved array are reswizzled */
    require.Equal(t, 1, p.Ins[2].Src[1].ArrayID)
    require.Equal(t, sir.MakeSwizzle(sir.SWIZZLE_Y, sir.SWIZZLE_Y, sir.SWIZZLE_Y, sir.SWIZZLE_Y), p.Ins[2].Src[1].Swizzle)
    require.Equal(t, aSwz("x"), p.Ins[2].Src[0].Swizzle)
}

/* End to end: a plain merge renumbers the arrays and compacts the sizes. */
func TestMergeArraysCompactsSizes(t *testing.T) {
    p := &sir.Program{
        Ins: []sir.Ins{
            mInsOps(sir.OP_mov, dsts(aDst(1, 0, sir.WRITEMASK_XYZW)), srcs(mSrc(in0))),
            mInsOps(sir.OP_mov, dsts(mDst(out0)), srcs(aSrc(1, 0, "xyzw"))),
            mInsOps(sir.OP_mov, dsts(aDst(2, 0, sir.WRITEMASK_XYZW)), srcs(mSrc(in1))),
            mInsOps(sir.OP_mov, dsts(mDst(out1)), srcs(aSrc(2, 0, "xyzw"))),
            mOp(sir.OP_end),
        },
        ArraySizes: []uint32{0, 3, 2},
    }

    lifetimes := []ArrayLiveRange{
        {1, 3, 0, 1, sir.WRITEMASK_XYZW},
        {2, 2, 2, 3, sir.WRITEMASK_XYZW},
    }

    narrays := MergeArrays(2, p.ArraySizes, p, lifetimes, opts.Options{})
    require.Equal(t, 1, narrays)
    require.Equal(t, uint32(3), p.ArraySizes[1])

    for _, i := range []int{0, 2} {
        require.Equal(t, 1, p.Ins[i].Dst[0].ArrayID)
        require.Equal(t, sir.WRITEMASK_XYZW, p.Ins[i].Dst[0].WriteMask)
    }
    for _, i := range []int{1, 3} {
        require.Equal(t, 1, p.Ins[i].Src[0].ArrayID)
        require.Equal(t, sir.SWIZZLE_XYZW, p.Ins[i].Src[0].Swizzle)
    }
}
