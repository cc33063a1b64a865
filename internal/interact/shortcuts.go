/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package interact

import "golang.org/x/mobile/event/key"

// Action is an editor command bound to a keyboard shortcut.
type Action int

const (
	ActionNone Action = iota
	ActionUndo
	ActionRedo
)

func (a Action) String() string {
	switch a {
	case ActionUndo:
		return "undo"
	case ActionRedo:
		return "redo"
	}
	return "none"
}

// ShortcutFor maps a key press to an action. Command and Control are
// interchangeable: Z undoes, Shift+Z or Y redoes.
func ShortcutFor(e key.Event) Action {
	if e.Direction != key.DirPress {
		return ActionNone
	}
	if e.Modifiers&(key.ModMeta|key.ModControl) == 0 {
		return ActionNone
	}
	shift := e.Modifiers&key.ModShift != 0
	switch {
	case e.Code == key.CodeZ || e.Rune == 'z' || e.Rune == 'Z':
		if shift {
			return ActionRedo
		}
		return ActionUndo
	case e.Code == key.CodeY || e.Rune == 'y' || e.Rune == 'Y':
		return ActionRedo
	}
	return ActionNone
}
