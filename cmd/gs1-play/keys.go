package main

import "github.com/cwbudde/algo-gs1/fm"

type actionKind int

const (
	actionNone actionKind = iota
	actionNote
	actionPedal
	actionPatch
	actionOctave
	actionQuit
)

type action struct {
	kind  actionKind
	key   int
	patch int
	delta int
}

// noteRow maps the lower letter row to a chromatic octave starting at C.
var noteRow = map[byte]int{
	'z': 0, 's': 1, 'x': 2, 'd': 3, 'c': 4, 'v': 5, 'g': 6,
	'b': 7, 'h': 8, 'n': 9, 'j': 10, 'm': 11, ',': 12,
}

// keyboard turns raw terminal bytes into engine actions.
type keyboard struct {
	base int // engine key of the 'z' note
}

func newKeyboard(base int) *keyboard {
	return &keyboard{base: clampBase(base)}
}

func clampBase(k int) int {
	if k < fm.MinKey {
		return fm.MinKey
	}
	if k > fm.MaxKey-12 {
		return fm.MaxKey - 12
	}
	return k
}

func (kb *keyboard) handle(b byte) action {
	if off, ok := noteRow[b]; ok {
		return action{kind: actionNote, key: kb.base + off}
	}
	switch b {
	case ' ':
		return action{kind: actionPedal}
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return action{kind: actionPatch, patch: int(b - '1')}
	case '[':
		kb.base = clampBase(kb.base - 12)
		return action{kind: actionOctave, delta: -12}
	case ']':
		kb.base = clampBase(kb.base + 12)
		return action{kind: actionOctave, delta: 12}
	case 'q', 'Q', 3, 4: // Ctrl-C, Ctrl-D
		return action{kind: actionQuit}
	}
	return action{kind: actionNone}
}
