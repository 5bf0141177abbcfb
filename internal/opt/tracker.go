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
    `math`

    `github.com/cloudwego/shaderopt/sir`
)

const (
    _LineMax = math.MaxInt
)

// LiveRange is the half-resolved live range of one temporary register, in
// instruction lines. A range of [-1, -1] marks a register that is never
// written and can be dropped entirely.
type LiveRange struct {
    Begin int
    End   int
}

// Conditionality markers for writes inside if/else clauses within loops.
// A value above _CondUnresolved other than _CondUntouched is the id of the
// last loop for which the write was resolved as unconditional.
const (
    _WriteConditional = -1
    _CondUnresolved   = 0
    _CondUntouched    = _LineMax
)

// Nesting levels of if/else write tracking are kept in a 32 bit field, any
// deeper nesting is conservatively treated as a conditional write.
const _MaxIfElseNestingDepth = 32

// _CompAccess tracks the accesses to one component of one temporary register
// and resolves whether writes within loops are conditional.
type _CompAccess struct {
    lastReadScope  *_Scope
    firstReadScope *_Scope
    firstWriteScope *_Scope

    firstWrite int
    lastRead   int
    lastWrite  int
    firstRead  int

    /* Tracks the resolution of conditional writes in if/else clauses:
     * _CondUntouched means no write in an if clause was seen yet,
     * _CondUnresolved means an if-branch write is waiting for its else
     * counterpart, _WriteConditional marks the write as conditional for
     * good, and a loop id records the loop in which a matching if/else
     * write pair made the write unconditional. */
    conditionalityInLoopID int

    /* One bit per if/else nesting level where the component was written in
     * the if branch but (so far) not in the else branch. */
    ifScopeWriteFlags uint32

    nextIfElseNestingDepth int

    /* The last if scope written without a write in the matching else
     * branch, also used to detect read-before-write in that scope. */
    currentUnpairedIfWriteScope *_Scope

    wasWrittenInCurrentElseScope bool
}

func newCompAccess() _CompAccess {
    return _CompAccess{
        firstWrite:             -1,
        lastRead:               -1,
        lastWrite:              -1,
        firstRead:              _LineMax,
        conditionalityInLoopID: _CondUntouched,
    }
}

func (self *_CompAccess) recordRead(line int, scope *_Scope) {
    self.lastReadScope = scope
    self.lastRead = line

    if self.firstRead > line {
        self.firstRead = line
        self.firstReadScope = scope
    }

    /* check whether we are in a condition within a loop */
    ifelse := scope.inIfElseScope()
    if ifelse == nil {
        return
    }
    loop := ifelse.innermostLoop()
    if loop == nil {
        return
    }

    if self.conditionalityInLoopID == _WriteConditional || self.conditionalityInLoopID == loop.id {
        return
    }

    if self.currentUnpairedIfWriteScope != nil {
        /* written in this or a parent scope, hence the component is set
         * unconditionally at this point */
        if scope.isChildOf(self.currentUnpairedIfWriteScope) {
            return
        }

        /* written in the same branch before it was read */
        if ifelse.stype == _SC_if {
            if self.currentUnpairedIfWriteScope.id == scope.id {
                return
            }
        } else {
            if self.wasWrittenInCurrentElseScope {
                return
            }
        }
    }

    /* The component is read (conditionally) before it is written, so it
     * must survive the loop. Mark it like a conditional write. */
    self.conditionalityInLoopID = _WriteConditional
}

func (self *_CompAccess) recordWrite(line int, scope *_Scope) {
    self.lastWrite = line

    if self.firstWrite < 0 {
        self.firstWrite = line
        self.firstWriteScope = scope
    }

    if self.conditionalityInLoopID == _WriteConditional {
        return
    }

    /* nested too deep to track, assume a conditional write */
    if self.nextIfElseNestingDepth >= _MaxIfElseNestingDepth {
        self.conditionalityInLoopID = _WriteConditional
        return
    }

    ifelse := scope.inIfElseScope()
    if ifelse == nil {
        return
    }
    if loop := ifelse.innermostLoop(); loop != nil && loop.id != self.conditionalityInLoopID {
        self.recordIfElseWrite(ifelse)
    }
}

func (self *_CompAccess) recordIfElseWrite(scope *_Scope) {
    if scope.stype == _SC_if {
        /* The first write in an if branch within a loop implies unresolved
         * conditionality, unless it was already marked conditional. */
        self.conditionalityInLoopID = _CondUnresolved
        self.wasWrittenInCurrentElseScope = false
        self.recordIfWrite(scope)
    } else {
        self.wasWrittenInCurrentElseScope = true
        self.recordElseWrite(scope)
    }
}

func (self *_CompAccess) recordIfWrite(scope *_Scope) {
    /* Only record the first write in an if scope, or a write in an if
     * branch nested in the else branch of the last active if/else pair.
     * Secondary writes don't contribute to resolving conditionality. */
    if self.currentUnpairedIfWriteScope == nil ||
        (self.currentUnpairedIfWriteScope.id != scope.id &&
            scope.isChildOfIfElseIdSibling(self.currentUnpairedIfWriteScope)) {
        self.ifScopeWriteFlags |= 1 << self.nextIfElseNestingDepth
        self.currentUnpairedIfWriteScope = scope
        self.nextIfElseNestingDepth++
    }
}

func (self *_CompAccess) recordElseWrite(scope *_Scope) {
    /* No pending if-branch write to pair with, i.e. the component is first
     * written in an else branch. The shift below would be negative, so
     * resolve to a conditional write right away. */
    if self.nextIfElseNestingDepth <= 0 || self.currentUnpairedIfWriteScope == nil {
        self.conditionalityInLoopID = _WriteConditional
        return
    }

    mask := uint32(1) << (self.nextIfElseNestingDepth - 1)

    /* A write in the if branch of the same construct pairs with this else
     * write and makes the component unconditionally written in the
     * enclosing scope. */
    if (self.ifScopeWriteFlags&mask) != 0 && scope.id == self.currentUnpairedIfWriteScope.id {
        self.nextIfElseNestingDepth--
        self.ifScopeWriteFlags &^= mask

        parentIfElse := scope.inParentIfElseScope()

        /* An unresolved write in an outer if scope is still pending, make
         * it the active unpaired scope so the pairing can propagate
         * outwards through nested if/else constructs. */
        if self.nextIfElseNestingDepth > 0 &&
            (uint32(1)<<(self.nextIfElseNestingDepth-1))&self.ifScopeWriteFlags != 0 {
            self.currentUnpairedIfWriteScope = parentIfElse
        } else {
            self.currentUnpairedIfWriteScope = nil
        }

        if parentIfElse != nil && parentIfElse.isInLoop() {
            self.recordIfElseWrite(parentIfElse)
        } else {
            self.conditionalityInLoopID = scope.innermostLoop().id
        }
    } else {
        /* no write in the sibling if branch, the write is conditional */
        self.conditionalityInLoopID = _WriteConditional
    }
}

func (self *_CompAccess) conditionalIfElseWriteInLoop() bool {
    return self.conditionalityInLoopID <= _CondUnresolved
}

func (self *_CompAccess) propagateToDominantWriteScope() {
    self.firstWrite = self.firstWriteScope.beginLine()
    if lr := self.firstWriteScope.endLine(); self.lastRead < lr {
        self.lastRead = lr
    }
}

func (self *_CompAccess) requiredLifetime() LiveRange {
    keepForFullLoop := false

    /* Never written, only (if at all) read. Mark it unused, dead register
     * elimination takes care of dropping it. */
    if self.lastWrite < 0 {
        return LiveRange{-1, -1}
    }

    /* Only written, make sure the component is not reused inside the
     * written range. */
    if self.lastReadScope == nil {
        return LiveRange{self.firstWrite, self.lastWrite + 1}
    }

    enclosingScopeFirstRead := self.firstReadScope
    enclosingScopeFirstWrite := self.firstWriteScope

    /* a read before the first write in a loop means the value must survive
     * the loops */
    if self.firstRead <= self.firstWrite && self.firstReadScope.isInLoop() {
        keepForFullLoop = true
        enclosingScopeFirstRead = self.firstReadScope.outermostLoop()
    }

    /* A conditional write within a (nested) loop must survive the
     * outermost loop unless the last read is within the same scope. */
    conditional := enclosingScopeFirstWrite.enclosingConditional()
    if conditional != nil && !conditional.containsRangeOf(self.lastReadScope) &&
        (conditional.isSwitchCaseScopeInLoop() || self.conditionalIfElseWriteInLoop()) {
        /* the write may have been marked conditional by a later access in
         * some loop while the first write sits outside of any loop, in
         * which case there is no loop range to extend to */
        if loop := conditional.outermostLoop(); loop != nil {
            keepForFullLoop = true
            enclosingScopeFirstWrite = loop
        }
    }

    /* find the scope shared by the first write, the first read before
     * write, and the last read */
    enclosingScope := enclosingScopeFirstRead
    if enclosingScopeFirstWrite.containsRangeOf(enclosingScope) {
        enclosingScope = enclosingScopeFirstWrite
    }
    if self.lastReadScope.containsRangeOf(enclosingScope) {
        enclosingScope = self.lastReadScope
    }
    for !enclosingScope.containsRangeOf(enclosingScopeFirstWrite) ||
        !enclosingScope.containsRangeOf(self.lastReadScope) {
        enclosingScope = enclosingScope.parent
    }

    /* Move the last read scope up to the shared scope. Leaving a loop on
     * the way up extends the last read to the loop end because the
     * component may not be written unconditionally before the read in the
     * next iteration. */
    for enclosingScope.nestingDepth() < self.lastReadScope.nestingDepth() {
        if self.lastReadScope.isLoop() {
            self.lastRead = self.lastReadScope.endLine()
        }
        self.lastReadScope = self.lastReadScope.parent
    }

    if keepForFullLoop && self.firstWriteScope.isLoop() {
        self.propagateToDominantWriteScope()
    }

    /* Move the first write scope up to the shared scope. A break before
     * the write inside a loop forces the full loop range as well. */
    for enclosingScope.nestingDepth() < self.firstWriteScope.nestingDepth() {
        if self.firstWriteScope.loopBreakLine() < self.firstWrite {
            keepForFullLoop = true
            self.propagateToDominantWriteScope()
        }

        self.firstWriteScope = self.firstWriteScope.parent

        if keepForFullLoop && self.firstWriteScope.isLoop() {
            self.propagateToDominantWriteScope()
        }
    }

    /* A last write past the last read is dead code, but the component must
     * not be reused before it, so extend the range past the write. */
    if self.lastWrite >= self.lastRead {
        self.lastRead = self.lastWrite + 1
    }

    return LiveRange{self.firstWrite, self.lastRead}
}

// _TempAccess tracks the accesses to all four components of one temporary
// register. As long as all accesses use the same component set only one
// component is tracked.
type _TempAccess struct {
    comp                   [4]_CompAccess
    accessMask             sir.WriteMask
    needsComponentTracking bool
}

func newTempAccess() _TempAccess {
    return _TempAccess{
        comp: [4]_CompAccess{newCompAccess(), newCompAccess(), newCompAccess(), newCompAccess()},
    }
}

func (self *_TempAccess) updateAccessMask(mask sir.WriteMask) {
    if self.accessMask != 0 && self.accessMask != mask {
        self.needsComponentTracking = true
    }
    self.accessMask |= mask
}

func (self *_TempAccess) recordRead(line int, scope *_Scope, readmask sir.WriteMask) {
    self.updateAccessMask(readmask)
    for i := 0; i < 4; i++ {
        if readmask&(1<<i) != 0 {
            self.comp[i].recordRead(line, scope)
        }
    }
}

func (self *_TempAccess) recordWrite(line int, scope *_Scope, writemask sir.WriteMask) {
    self.updateAccessMask(writemask)
    for i := 0; i < 4; i++ {
        if writemask&(1<<i) != 0 {
            self.comp[i].recordWrite(line, scope)
        }
    }
}

func (self *_TempAccess) requiredLifetime() LiveRange {
    result := LiveRange{-1, -1}

    for i := 0; i < 4; i++ {
        if self.accessMask&(1<<i) == 0 {
            continue
        }

        lt := self.comp[i].requiredLifetime()

        if lt.Begin >= 0 && (result.Begin < 0 || result.Begin > lt.Begin) {
            result.Begin = lt.Begin
        }
        if lt.End > result.End {
            result.End = lt.End
        }

        if !self.needsComponentTracking {
            break
        }
    }
    return result
}
