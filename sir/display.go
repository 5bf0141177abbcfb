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

package sir

import (
    `fmt`
    `strings`
)

var _FileNames = [...]string{
    FILE_temp:   "T",
    FILE_array:  "A",
    FILE_input:  "IN",
    FILE_output: "OUT",
    FILE_const:  "C",
    FILE_undef:  "?",
}

func (self SrcReg) String() string {
    var sb strings.Builder
    if self.File == FILE_array {
        fmt.Fprintf(&sb, "A%d[%d", self.ArrayID, self.Index)
        if self.RelAddr != nil {
            fmt.Fprintf(&sb, "+%s", self.RelAddr.String())
        }
        sb.WriteString("]")
    } else {
        fmt.Fprintf(&sb, "%s%d", _FileNames[self.File], self.Index)
    }
    if self.Swizzle != SWIZZLE_XYZW {
        fmt.Fprintf(&sb, ".%s", self.Swizzle)
    }
    return sb.String()
}

func (self DstReg) String() string {
    var sb strings.Builder
    if self.File == FILE_array {
        fmt.Fprintf(&sb, "A%d[%d", self.ArrayID, self.Index)
        if self.RelAddr != nil {
            fmt.Fprintf(&sb, "+%s", self.RelAddr.String())
        }
        sb.WriteString("]")
    } else {
        fmt.Fprintf(&sb, "%s%d", _FileNames[self.File], self.Index)
    }
    if self.WriteMask != WRITEMASK_XYZW {
        fmt.Fprintf(&sb, ".%s", self.WriteMask)
    }
    return sb.String()
}

func (self *Ins) String() string {
    var sb strings.Builder
    sb.WriteString(self.Op.String())
    for i, d := range self.Dst {
        if i == 0 {
            sb.WriteString(" ")
        } else {
            sb.WriteString(", ")
        }
        sb.WriteString(d.String())
    }
    for i, s := range self.Src {
        if i == 0 && len(self.Dst) == 0 {
            sb.WriteString(" ")
        } else {
            sb.WriteString(", ")
        }
        sb.WriteString(s.String())
    }
    for _, t := range self.TexOffsets {
        fmt.Fprintf(&sb, ", off(%s)", t.String())
    }
    return sb.String()
}

// String renders the program one instruction per line, indented by the
// nesting depth of the structured control flow.
func (self *Program) String() string {
    var sb strings.Builder
    level := 0
    for i := range self.Ins {
        v := &self.Ins[i]
        switch v.Op {
            case OP_endloop, OP_endif, OP_endswitch : if level > 0 { level-- }
            case OP_else, OP_case, OP_default      : if level > 0 { level-- }
        }
        fmt.Fprintf(&sb, "%4d: %s%s\n", i, strings.Repeat("  ", level), v.String())
        switch v.Op {
            case OP_bgnloop, OP_if, OP_uif, OP_switch : level++
            case OP_else, OP_case, OP_default         : level++
        }
    }
    return sb.String()
}
