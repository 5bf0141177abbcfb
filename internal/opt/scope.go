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

type _ScopeType uint8

const (
    _SC_outer _ScopeType = iota
    _SC_loop
    _SC_if
    _SC_else
    _SC_switch
    _SC_case
    _SC_default
)

// _Scope is one node of the structured control flow tree built while the
// instruction stream is scanned. Lines are instruction indices; an end line
// of -1 means the scope is still open.
type _Scope struct {
    id            int
    stype         _ScopeType
    begin         int
    end           int
    level         int
    breakLoopLine int
    parent        *_Scope
}

// _ScopeStorage is a fixed arena for scope nodes. The recorder counts the
// scope openers up front so the arena never reallocates and parent pointers
// stay stable.
type _ScopeStorage struct {
    pool []_Scope
}

func newScopeStorage(n int) *_ScopeStorage {
    return &_ScopeStorage{pool: make([]_Scope, 0, n)}
}

func (self *_ScopeStorage) create(parent *_Scope, st _ScopeType, id int, level int, begin int) *_Scope {
    self.pool = append(self.pool, _Scope{
        id:            id,
        stype:         st,
        begin:         begin,
        end:           -1,
        level:         level,
        breakLoopLine: _LineMax,
        parent:        parent,
    })
    return &self.pool[len(self.pool)-1]
}

func (self *_Scope) beginLine() int     { return self.begin }
func (self *_Scope) endLine() int       { return self.end }
func (self *_Scope) nestingDepth() int  { return self.level }
func (self *_Scope) loopBreakLine() int { return self.breakLoopLine }

// setEnd closes the scope, keeping the first closing line if the scope was
// already closed by a break.
func (self *_Scope) setEnd(line int) {
    if self.end == -1 {
        self.end = line
    }
}

// setLoopBreakLine propagates a break line up to the innermost loop, keeping
// the smallest line seen.
func (self *_Scope) setLoopBreakLine(line int) {
    loop := self.innermostLoop()
    if loop != nil && line < loop.breakLoopLine {
        loop.breakLoopLine = line
    }
}

func (self *_Scope) isLoop() bool {
    return self.stype == _SC_loop
}

func (self *_Scope) isInLoop() bool {
    if self.stype == _SC_loop {
        return true
    }
    if self.parent != nil {
        return self.parent.isInLoop()
    }
    return false
}

func (self *_Scope) isConditional() bool {
    switch self.stype {
        case _SC_if, _SC_else, _SC_case, _SC_default : return true
        default                                      : return false
    }
}

func (self *_Scope) innermostLoop() *_Scope {
    if self.stype == _SC_loop {
        return self
    }
    if self.parent != nil {
        return self.parent.innermostLoop()
    }
    return nil
}

func (self *_Scope) outermostLoop() *_Scope {
    var loop *_Scope
    for p := self; p != nil; p = p.parent {
        if p.stype == _SC_loop {
            loop = p
        }
    }
    return loop
}

func (self *_Scope) enclosingConditional() *_Scope {
    if self.isConditional() {
        return self
    }
    if self.parent != nil {
        return self.parent.enclosingConditional()
    }
    return nil
}

func (self *_Scope) inElseScope() *_Scope {
    if self.stype == _SC_else {
        return self
    }
    if self.parent != nil {
        return self.parent.inElseScope()
    }
    return nil
}

// inIfElseScope finds the innermost enclosing if or else branch, including
// this scope itself.
func (self *_Scope) inIfElseScope() *_Scope {
    if self.stype == _SC_if || self.stype == _SC_else {
        return self
    }
    if self.parent != nil {
        return self.parent.inIfElseScope()
    }
    return nil
}

func (self *_Scope) inParentIfElseScope() *_Scope {
    if self.parent != nil {
        return self.parent.inIfElseScope()
    }
    return nil
}

func (self *_Scope) isChildOf(other *_Scope) bool {
    for p := self.parent; p != nil; p = p.parent {
        if p == other {
            return true
        }
    }
    return false
}

// isChildOfIfElseIdSibling reports whether the nearest enclosing if/else
// branch of the parent chain shares its branch id with the given scope, i.e.
// whether this scope sits in the other branch of the same if/else construct.
func (self *_Scope) isChildOfIfElseIdSibling(scope *_Scope) bool {
    for p := self.inParentIfElseScope(); p != nil; p = p.inParentIfElseScope() {
        /* a direct child of the scope itself does not count */
        if p == scope {
            return false
        }
        /* a child of the scope's sibling branch does */
        if p.id == scope.id {
            return true
        }
    }
    return false
}

func (self *_Scope) containsRangeOf(other *_Scope) bool {
    return self.begin <= other.begin && self.end >= other.end
}

// breakIsForSwitchCase reports whether a break at this scope leaves a switch
// case rather than a loop.
func (self *_Scope) breakIsForSwitchCase() bool {
    switch self.stype {
        case _SC_loop                          : return false
        case _SC_case, _SC_default, _SC_switch : return true
    }
    if self.parent != nil {
        return self.parent.breakIsForSwitchCase()
    }
    return false
}

func (self *_Scope) isSwitchCaseScopeInLoop() bool {
    return (self.stype == _SC_case || self.stype == _SC_default) && self.isInLoop()
}
