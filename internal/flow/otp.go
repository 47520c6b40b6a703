package flow

import (
	"strings"
	"unicode"
)

// CodeLength is the number of slots in the one-time code input
const CodeLength = 6

// CodeInput models the six single-digit boxes of the verification screen.
// Focus moves forward after a digit is typed and back on an empty backspace.
type CodeInput struct {
	digits [CodeLength]string
	focus  int
}

// NewCodeInput returns an empty input focused on the first slot
func NewCodeInput() *CodeInput {
	return &CodeInput{}
}

// Set writes value into slot index and returns the slot that should take
// focus next. Only the last character typed is kept, and non-digits clear
// the slot.
func (c *CodeInput) Set(index int, value string) int {
	if index < 0 || index >= CodeLength {
		return c.focus
	}

	digit := ""
	if value != "" {
		r := []rune(value)
		last := r[len(r)-1]
		if unicode.IsDigit(last) && last < unicode.MaxASCII {
			digit = string(last)
		}
	}
	c.digits[index] = digit

	c.focus = index
	if digit != "" && index < CodeLength-1 {
		c.focus = index + 1
	}
	return c.focus
}

// Backspace handles a delete key on slot index. A filled slot is cleared in
// place; an empty slot moves focus to, and clears, the one before it.
func (c *CodeInput) Backspace(index int) int {
	if index < 0 || index >= CodeLength {
		return c.focus
	}
	if c.digits[index] != "" {
		c.digits[index] = ""
		c.focus = index
		return c.focus
	}
	if index > 0 {
		c.digits[index-1] = ""
		c.focus = index - 1
	}
	return c.focus
}

// Focus is the currently focused slot
func (c *CodeInput) Focus() int {
	return c.focus
}

// Digits returns a copy of the slots
func (c *CodeInput) Digits() []string {
	out := make([]string, CodeLength)
	copy(out, c.digits[:])
	return out
}

// Complete reports whether every slot holds a digit
func (c *CodeInput) Complete() bool {
	for _, d := range c.digits {
		if d == "" {
			return false
		}
	}
	return true
}

// Code joins the slots
func (c *CodeInput) Code() string {
	return strings.Join(c.digits[:], "")
}

// Reset empties every slot and refocuses the first one
func (c *CodeInput) Reset() {
	c.digits = [CodeLength]string{}
	c.focus = 0
}
