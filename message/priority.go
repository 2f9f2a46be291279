/*
 * MIT License
 *
 * Copyright (c) 2023-2026 Olympus Health Team
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package message

// Priority orders messages inside a mailbox. Lower values are more urgent.
type Priority int

const (
	// Critical is reserved for clinical alarms and supervision signals.
	Critical Priority = iota
	// High is used for time-sensitive operational traffic.
	High
	// Normal is the default priority.
	Normal
	// Low is used for housekeeping and batch traffic.
	Low

	// NumPriorities is the number of priority levels.
	NumPriorities = 4
)

var priorityNames = [NumPriorities]string{
	Critical: "critical",
	High:     "high",
	Normal:   "normal",
	Low:      "low",
}

// String implements fmt.Stringer
func (p Priority) String() string {
	if p < Critical || p > Low {
		return "unknown"
	}
	return priorityNames[p]
}

// FromLevel converts an integer level to a Priority, clamping out-of-range
// values to the nearest bound.
func FromLevel(level int) Priority {
	switch {
	case level < int(Critical):
		return Critical
	case level > int(Low):
		return Low
	default:
		return Priority(level)
	}
}
