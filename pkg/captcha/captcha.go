// Package captcha implements the local human-presence check used by the
// console's dispatch forms.
//
// This is explicitly NOT a security boundary against automated attackers:
// the code is generated and validated on the client side from a
// predictable 36-symbol alphabet and never verified by the backend. It is
// a known limitation, kept as designed.
package captcha

import (
	"math/rand"
	"strings"
)

const (
	// CodeLength is the number of characters in a challenge code.
	CodeLength = 5

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// maxRotation bounds the per-character rendering rotation, degrees.
	maxRotation = 30
)

// Challenge is a generated captcha code plus a per-character rotation
// angle used when rendering the distorted text.
type Challenge struct {
	Code   string `json:"code"`
	Angles []int  `json:"angles"`
}

// NewChallenge generates a fresh challenge: CodeLength characters drawn
// uniformly from [A-Z0-9].
func NewChallenge() Challenge {
	var sb strings.Builder
	angles := make([]int, CodeLength)

	for i := 0; i < CodeLength; i++ {
		sb.WriteByte(alphabet[rand.Intn(len(alphabet))])
		angles[i] = rand.Intn(2*maxRotation+1) - maxRotation
	}

	return Challenge{Code: sb.String(), Angles: angles}
}

// Verify reports whether input matches code. The comparison is
// case-insensitive and requires the exact length, so a correct prefix of
// the code never validates.
func Verify(code, input string) bool {
	if len(input) != len(code) {
		return false
	}
	return strings.ToUpper(input) == code
}

// Widget holds the state of one captcha form control. The owner wires a
// callback that receives the validity synchronously on every input
// mutation, not only on submit.
type Widget struct {
	challenge Challenge
	input     string
	valid     bool
	onChange  func(valid bool)
}

// NewWidget creates a widget with a fresh challenge. onChange may be nil.
func NewWidget(onChange func(valid bool)) *Widget {
	return &Widget{
		challenge: NewChallenge(),
		onChange:  onChange,
	}
}

// Challenge returns the current challenge for rendering.
func (w *Widget) Challenge() Challenge {
	return w.challenge
}

// Input returns the current user input.
func (w *Widget) Input() string {
	return w.input
}

// Valid reports whether the current input matches the challenge.
func (w *Widget) Valid() bool {
	return w.valid
}

// SetInput records a keystroke's worth of input, re-evaluates validity
// and reports it through the callback.
func (w *Widget) SetInput(input string) {
	w.input = input
	w.valid = Verify(w.challenge.Code, input)
	if w.onChange != nil {
		w.onChange(w.valid)
	}
}

// Refresh regenerates the challenge and clears the input and validity
// state, reporting the reset through the callback.
func (w *Widget) Refresh() {
	w.challenge = NewChallenge()
	w.input = ""
	w.valid = false
	if w.onChange != nil {
		w.onChange(false)
	}
}
