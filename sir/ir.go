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

// Package sir implements the linearized shader intermediate representation
// consumed by the storage optimizer. A program is a flat instruction list in
// which structured control flow is expressed with explicit scope markers
// (OP_bgnloop / OP_endloop, OP_if / OP_else / OP_endif, OP_switch etc.), and
// every operand addresses a register file with an optional swizzle or write
// mask and up to two relative-address sub-operands.
package sir

type OpCode uint8

const (
    OP_nop       OpCode = iota // no operation
    OP_mov                     // dst := src0
    OP_add                     // dst := src0 + src1
    OP_uadd                    // dst := u(src0) + u(src1)
    OP_mul                     // dst := src0 * src1
    OP_mad                     // dst := src0 * src1 + src2
    OP_useq                    // dst := u(src0) == u(src1)
    OP_ucmp                    // dst := src0 ? src1 : src2
    OP_fslt                    // dst := f(src0) < f(src1)
    OP_dfracexp                // dst0, dst1 := frexp(src0)
    OP_tex                     // dst := sample(src0) [+ texture offsets]
    OP_bgnloop                 // open a loop scope
    OP_endloop                 // close the innermost loop scope
    OP_if                      // open an if branch on f(src0)
    OP_uif                     // open an if branch on u(src0)
    OP_else                    // close the if branch, open its else sibling
    OP_endif                   // close the if/else construct
    OP_switch                  // open a switch body on src0
    OP_case                    // open a case branch comparing against src0
    OP_default                 // open the default branch
    OP_endswitch               // close the switch construct
    OP_brk                     // leave the enclosing switch case or loop
    OP_cont                    // continue with the next loop iteration
    OP_cal                     // subroutine call (not supported by the optimizer)
    OP_ret                     // subroutine return (not supported by the optimizer)
    OP_end                     // end of program
)

var _OpNames = [...]string{
    OP_nop: "NOP", OP_mov: "MOV", OP_add: "ADD", OP_uadd: "UADD",
    OP_mul: "MUL", OP_mad: "MAD", OP_useq: "USEQ", OP_ucmp: "UCMP",
    OP_fslt: "FSLT", OP_dfracexp: "DFRACEXP", OP_tex: "TEX",
    OP_bgnloop: "BGNLOOP", OP_endloop: "ENDLOOP", OP_if: "IF", OP_uif: "UIF",
    OP_else: "ELSE", OP_endif: "ENDIF", OP_switch: "SWITCH", OP_case: "CASE",
    OP_default: "DEFAULT", OP_endswitch: "ENDSWITCH", OP_brk: "BRK",
    OP_cont: "CONT", OP_cal: "CAL", OP_ret: "RET", OP_end: "END",
}

func (self OpCode) String() string {
    if int(self) < len(_OpNames) && _OpNames[self] != "" {
        return _OpNames[self]
    }
    return "OP_invalid"
}

// RegFile identifies the register file an operand addresses.
type RegFile uint8

const (
    FILE_temp   RegFile = iota // scalar temporary registers, tracked per component
    FILE_array                 // indexed temporary arrays, tracked per array id
    FILE_input                 // shader inputs, not tracked
    FILE_output                // shader outputs, not tracked
    FILE_const                 // constants, not tracked
    FILE_undef                 // unset operand slot
)

// SrcReg is a source operand. For FILE_array operands ArrayID is the 1-based
// id of the addressed array, and RelAddr/RelAddr2 hold the registers used for
// relative addressing; they are read accesses in their own right.
type SrcReg struct {
    File     RegFile
    Index    int
    ArrayID  int
    Swizzle  Swizzle
    RelAddr  *SrcReg
    RelAddr2 *SrcReg
}

// DstReg is a destination operand. WriteMask selects the written components.
type DstReg struct {
    File      RegFile
    Index     int
    ArrayID   int
    WriteMask WriteMask
    RelAddr   *SrcReg
    RelAddr2  *SrcReg
}

// Ins is one instruction. TexOffsets are extra read-only source operands
// used by texture sampling opcodes.
type Ins struct {
    Op         OpCode
    Dst        []DstReg
    Src        []SrcReg
    TexOffsets []SrcReg
}

// Program is an ordered, finite instruction sequence plus the declared sizes
// of its temporary arrays. ArraySizes is indexed by array id, so slot 0 is
// unused and len(ArraySizes) == narrays + 1.
type Program struct {
    Ins        []Ins
    ArraySizes []uint32
}

// NewIns starts a new instruction, to be filled with the D / S / T chain calls.
func NewIns(op OpCode) *Ins {
    return &Ins{Op: op}
}

func (self *Ins) D(v ...DstReg) *Ins { self.Dst = append(self.Dst, v...); return self }
func (self *Ins) S(v ...SrcReg) *Ins { self.Src = append(self.Src, v...); return self }
func (self *Ins) T(v ...SrcReg) *Ins { self.TexOffsets = append(self.TexOffsets, v...); return self }

// TempSrc addresses temporary register i with an identity swizzle.
func TempSrc(i int) SrcReg {
    return SrcReg{File: FILE_temp, Index: i, Swizzle: SWIZZLE_XYZW}
}

// TempDst addresses temporary register i with a full write mask.
func TempDst(i int) DstReg {
    return DstReg{File: FILE_temp, Index: i, WriteMask: WRITEMASK_XYZW}
}

// InputSrc addresses input register i.
func InputSrc(i int) SrcReg {
    return SrcReg{File: FILE_input, Index: i, Swizzle: SWIZZLE_XYZW}
}

// OutputDst addresses output register i.
func OutputDst(i int) DstReg {
    return DstReg{File: FILE_output, Index: i, WriteMask: WRITEMASK_XYZW}
}

// ArraySrc addresses element idx of array id with the given swizzle.
func ArraySrc(id int, idx int, swz Swizzle) SrcReg {
    return SrcReg{File: FILE_array, ArrayID: id, Index: idx, Swizzle: swz}
}

// ArrayDst addresses element idx of array id with the given write mask.
func ArrayDst(id int, idx int, mask WriteMask) DstReg {
    return DstReg{File: FILE_array, ArrayID: id, Index: idx, WriteMask: mask}
}
