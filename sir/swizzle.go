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

// Swizzle packs one component selector per source lane, 3 bits each, lane 0
// in the lowest bits. Values above 3 select the constants zero and one and
// never contribute to a register read.
type Swizzle uint16

const (
    SWIZZLE_X Swizzle = iota
    SWIZZLE_Y
    SWIZZLE_Z
    SWIZZLE_W
)

const (
    SWIZZLE_XYZW = SWIZZLE_X | SWIZZLE_Y<<3 | SWIZZLE_Z<<6 | SWIZZLE_W<<9
)

// MakeSwizzle packs four component selectors into a swizzle.
func MakeSwizzle(x, y, z, w Swizzle) Swizzle {
    return x | y<<3 | z<<6 | w<<9
}

// Lane extracts the component selector of lane i.
func (self Swizzle) Lane(i int) Swizzle {
    return (self >> (3 * i)) & 7
}

// SetLane replaces the component selector of lane i.
func (self Swizzle) SetLane(i int, v Swizzle) Swizzle {
    return (self &^ (7 << (3 * i))) | (v&7)<<(3*i)
}

// ReadMask computes the set of register components a read through this
// swizzle actually touches. Selectors outside x..w fall out of the mask.
func (self Swizzle) ReadMask() WriteMask {
    m := WriteMask(0)
    for i := 0; i < 4; i++ {
        m |= (1 << self.Lane(i)) & 0xf
    }
    return m
}

func (self Swizzle) String() string {
    b := make([]byte, 4)
    for i := 0; i < 4; i++ {
        b[i] = _SwzNames[self.Lane(i)]
    }
    return string(b)
}

var _SwzNames = [8]byte{'x', 'y', 'z', 'w', '0', '1', '?', '?'}

// WriteMask selects written components, one bit per component, x in bit 0.
type WriteMask uint8

const (
    WRITEMASK_X    WriteMask = 1
    WRITEMASK_Y    WriteMask = 2
    WRITEMASK_XY   WriteMask = 3
    WRITEMASK_Z    WriteMask = 4
    WRITEMASK_XZ   WriteMask = 5
    WRITEMASK_ZW   WriteMask = 12
    WRITEMASK_XYZ  WriteMask = 7
    WRITEMASK_W    WriteMask = 8
    WRITEMASK_XYZW WriteMask = 15
)

// PopCount counts the selected components.
func (self WriteMask) PopCount() int {
    n := 0
    for m := self & 0xf; m != 0; m &= m - 1 {
        n++
    }
    return n
}

// LastBit is the position one past the highest set bit, zero for an empty
// mask. Mirrors util_last_bit over a 4-bit mask.
func (self WriteMask) LastBit() int {
    n := 0
    for m := self & 0xf; m != 0; m >>= 1 {
        n++
    }
    return n
}

func (self WriteMask) String() string {
    b := make([]byte, 0, 4)
    for i := 0; i < 4; i++ {
        if self&(1<<i) != 0 {
            b = append(b, _SwzNames[i])
        }
    }
    return string(b)
}
