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

    `github.com/cloudwego/shaderopt/sir`
)

// ArrayLiveRange is the live range of one temporary array. Unlike scalar
// registers the array length and the set of accessed components must be
// kept, because an array can only be merged into one with at least as many
// elements, and interleaving requires that the combined component sets fit
// into four slots.
type ArrayLiveRange struct {
    ID         int
    Length     uint32
    Begin      int
    End        int
    AccessMask sir.WriteMask
}

func (self *ArrayLiveRange) setLifetime(begin int, end int) {
    self.Begin = begin
    self.End = end
}

// UsedComponents counts the components the array is accessed with.
func (self *ArrayLiveRange) UsedComponents() int {
    return self.AccessMask.PopCount()
}

// MergeLifetime widens the live range to include the other array's range.
func (self *ArrayLiveRange) MergeLifetime(other *ArrayLiveRange) {
    if other.Begin < self.Begin {
        self.Begin = other.Begin
    }
    if other.End > self.End {
        self.End = other.End
    }
}

// TimeDoesntOverlap reports whether the two live ranges are disjoint.
func (self *ArrayLiveRange) TimeDoesntOverlap(other *ArrayLiveRange) bool {
    return other.End < self.Begin || self.End < other.Begin
}

func (self *ArrayLiveRange) String() string {
    return fmt.Sprintf("[id:%d, length:%d, (b:%d, e:%d), sw:%d, nc:%d]",
        self.ID, self.Length, self.Begin, self.End, self.AccessMask, self.UsedComponents())
}

// _ArrayAccess tracks the accesses to one temporary array. Arrays are not
// tracked per element or per component, only the overall access range and
// the union of the accessed components are kept.
type _ArrayAccess struct {
    firstAccess            int
    lastAccess             int
    firstAccessScope       *_Scope
    lastAccessScope        *_Scope
    conditionalWriteInLoop bool
    accumulatedMask        sir.WriteMask
}

func newArrayAccess() _ArrayAccess {
    return _ArrayAccess{firstAccess: -1, lastAccess: -1}
}

func (self *_ArrayAccess) recordRead(line int, scope *_Scope, readmask sir.WriteMask) {
    if self.firstAccessScope == nil {
        self.firstAccess = line
        self.firstAccessScope = scope
    }
    self.lastAccessScope = scope
    self.lastAccess = line
    self.accumulatedMask |= readmask
}

func (self *_ArrayAccess) recordWrite(line int, scope *_Scope, writemask sir.WriteMask) {
    if self.firstAccessScope == nil {
        self.firstAccess = line
        self.firstAccessScope = scope
    }
    self.lastAccessScope = scope
    self.lastAccess = line
    self.accumulatedMask |= writemask

    if scope.inIfElseScope() != nil && scope.innermostLoop() != nil {
        self.conditionalWriteInLoop = true
    }
}

func (self *_ArrayAccess) requiredLifetime(lt *ArrayLiveRange) {
    sharedScope := self.firstAccessScope
    otherScope := self.lastAccessScope

    /* array is never accessed */
    if sharedScope == nil {
        lt.setLifetime(self.firstAccess, self.lastAccess)
        lt.AccessMask = self.accumulatedMask
        return
    }

    /* a conditional write in a loop keeps the array alive for the
     * outermost loop */
    if self.conditionalWriteInLoop {
        if help := sharedScope.outermostLoop(); help != nil {
            sharedScope = help
        } else if help := otherScope.outermostLoop(); help != nil {
            otherScope = help
        }
        if self.firstAccess > sharedScope.beginLine() {
            self.firstAccess = sharedScope.beginLine()
        }
        if self.lastAccess < sharedScope.endLine() {
            self.lastAccess = sharedScope.endLine()
        }
    }

    /* find the scope containing both accesses, extending the range at
     * every loop left on the way */
    if otherScope.containsRangeOf(sharedScope) {
        sharedScope = otherScope
    } else {
        for !sharedScope.containsRangeOf(otherScope) {
            if sharedScope.isLoop() && self.lastAccess < sharedScope.endLine() {
                self.lastAccess = sharedScope.endLine()
            }
            sharedScope = sharedScope.parent
        }
    }

    for sharedScope != otherScope {
        if otherScope.isLoop() && self.lastAccess < otherScope.endLine() {
            self.lastAccess = otherScope.endLine()
        }
        otherScope = otherScope.parent
    }

    lt.setLifetime(self.firstAccess, self.lastAccess)
    lt.AccessMask = self.accumulatedMask
}
