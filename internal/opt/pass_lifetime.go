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

    `github.com/cloudwego/shaderopt/internal/opts`
    `github.com/cloudwego/shaderopt/sir`
)

// UnsupportedControlFlowError is returned when the program uses control flow
// the analysis cannot follow, i.e. subroutine calls and returns.
type UnsupportedControlFlowError struct {
    Line int
    Op   sir.OpCode
}

func (self UnsupportedControlFlowError) Error() string {
    return fmt.Sprintf("shaderopt: unsupported control flow %s at line %d", self.Op, self.Line)
}

// _AccessRecorder tracks the accesses to all temporary registers and all
// temporary arrays of one program.
type _AccessRecorder struct {
    ntemps  int
    narrays int
    temps   []_TempAccess
    arrays  []_ArrayAccess
}

func newAccessRecorder(ntemps int, narrays int) *_AccessRecorder {
    p := &_AccessRecorder{
        ntemps:  ntemps,
        narrays: narrays,
        temps:   make([]_TempAccess, ntemps),
        arrays:  make([]_ArrayAccess, narrays),
    }
    for i := range p.temps {
        p.temps[i] = newTempAccess()
    }
    for i := range p.arrays {
        p.arrays[i] = newArrayAccess()
    }
    return p
}

func (self *_AccessRecorder) recordRead(src *sir.SrcReg, line int, scope *_Scope) {
    readmask := src.Swizzle.ReadMask()

    if src.File == sir.FILE_temp {
        self.temps[src.Index].recordRead(line, scope, readmask)
    }

    if src.File == sir.FILE_array {
        self.arrays[src.ArrayID-1].recordRead(line, scope, readmask)
    }

    /* relative addressing registers are read as well */
    if src.RelAddr != nil {
        self.recordRead(src.RelAddr, line, scope)
    }
    if src.RelAddr2 != nil {
        self.recordRead(src.RelAddr2, line, scope)
    }
}

func (self *_AccessRecorder) recordWrite(dst *sir.DstReg, line int, scope *_Scope) {
    if dst.File == sir.FILE_temp {
        self.temps[dst.Index].recordWrite(line, scope, dst.WriteMask)
    }

    if dst.File == sir.FILE_array {
        self.arrays[dst.ArrayID-1].recordWrite(line, scope, dst.WriteMask)
    }

    if dst.RelAddr != nil {
        self.recordRead(dst.RelAddr, line, scope)
    }
    if dst.RelAddr2 != nil {
        self.recordRead(dst.RelAddr2, line, scope)
    }
}

func (self *_AccessRecorder) requiredLifetimes(p *sir.Program, o opts.Options) ([]LiveRange, []ArrayLiveRange) {
    regs := make([]LiveRange, self.ntemps)
    arrs := make([]ArrayLiveRange, self.narrays)

    for i := 0; i < self.ntemps; i++ {
        regs[i] = self.temps[i].requiredLifetime()
    }

    for i := 0; i < self.narrays; i++ {
        arrs[i].ID = i + 1
        if i+1 < len(p.ArraySizes) {
            arrs[i].Length = p.ArraySizes[i+1]
        }
        self.arrays[i].requiredLifetime(&arrs[i])
    }

    if o.Debug != nil {
        dumpLiveRanges(o.Debug, regs, arrs)
    }
    return regs, arrs
}

// ComputeLifetimes scans the program once, builds the scope tree of its
// structured control flow and estimates the live range of every temporary
// register and every temporary array. ntemps and narrays give the number of
// tracked registers and arrays, array ids are 1-based.
func ComputeLifetimes(p *sir.Program, ntemps int, narrays int, o opts.Options) ([]LiveRange, []ArrayLiveRange, error) {
    line := 0
    loopID := 1
    ifID := 1
    switchID := 0
    isAtEnd := false

    /* count the scope openers so the arena never reallocates */
    nscopes := 1
    for i := range p.Ins {
        switch p.Ins[i].Op {
            case sir.OP_bgnloop, sir.OP_switch, sir.OP_case     : nscopes++
            case sir.OP_if, sir.OP_uif, sir.OP_else, sir.OP_default : nscopes++
        }
    }

    scopes := newScopeStorage(nscopes)
    access := newAccessRecorder(ntemps, narrays)
    cur := scopes.create(nil, _SC_outer, 0, 0, line)

    for i := range p.Ins {
        v := &p.Ins[i]

        /* instructions past the end marker are ignored */
        if isAtEnd {
            break
        }

        if o.Debug != nil {
            dumpInstruction(o.Debug, line, cur, v)
        }

        switch v.Op {
        case sir.OP_bgnloop:
            cur = scopes.create(cur, _SC_loop, loopID, cur.nestingDepth()+1, line)
            loopID++

        case sir.OP_endloop:
            cur.setEnd(line)
            cur = cur.parent

        case sir.OP_if, sir.OP_uif:
            access.recordRead(&v.Src[0], line, cur)
            cur = scopes.create(cur, _SC_if, ifID, cur.nestingDepth()+1, line+1)
            ifID++

        case sir.OP_else:
            cur.setEnd(line - 1)
            cur = scopes.create(cur.parent, _SC_else, cur.id, cur.nestingDepth(), line+1)

        case sir.OP_endif:
            cur.setEnd(line - 1)
            cur = cur.parent

        case sir.OP_switch:
            scope := scopes.create(cur, _SC_switch, switchID, cur.nestingDepth()+1, line)
            switchID++
            /* the switch value is read by the switch statement itself,
             * i.e. in the enclosing scope */
            access.recordRead(&v.Src[0], line, cur)
            cur = scope

        case sir.OP_endswitch:
            cur.setEnd(line - 1)
            /* remove the case level, it might not have been closed with
             * a break */
            if cur.stype != _SC_switch {
                cur = cur.parent
            }
            cur = cur.parent

        case sir.OP_case, sir.OP_default:
            switchScope := cur
            if cur.stype != _SC_switch {
                switchScope = cur.parent
            }

            st := _SC_default
            if v.Op == sir.OP_case {
                st = _SC_case
                access.recordRead(&v.Src[0], line, switchScope)
            }

            scope := scopes.create(switchScope, st, switchScope.id, switchScope.nestingDepth()+1, line)

            /* the previous case falls through, so it was not yet closed */
            if cur != switchScope && cur.endLine() == -1 {
                cur.setEnd(line - 1)
            }
            cur = scope

        case sir.OP_brk:
            if cur.breakIsForSwitchCase() {
                cur.setEnd(line - 1)
            } else {
                cur.setLoopBreakLine(line)
            }

        case sir.OP_end:
            cur.setEnd(line)
            isAtEnd = true

        case sir.OP_cal, sir.OP_ret:
            /* The lifetime tracking would have to follow the call to see
             * which registers are used there, so bail out and signal that
             * no merge will take place. */
            return nil, nil, UnsupportedControlFlowError{Line: line, Op: v.Op}

        default:
            for j := range v.Src {
                access.recordRead(&v.Src[j], line, cur)
            }
            for j := range v.TexOffsets {
                access.recordRead(&v.TexOffsets[j], line, cur)
            }
            for j := range v.Dst {
                access.recordWrite(&v.Dst[j], line, cur)
            }
        }
        line++
    }

    /* make sure the outer scope is closed even without an end marker */
    if cur.endLine() < 0 {
        cur.setEnd(line - 1)
    }

    regs, arrs := access.requiredLifetimes(p, o)

    if o.LiveRangeSVG != "" {
        drawLiveRanges(o.LiveRangeSVG, p, regs, arrs)
    }
    return regs, arrs, nil
}
