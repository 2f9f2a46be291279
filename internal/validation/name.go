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

package validation

import (
	"fmt"
	"strings"
)

// maxNameLength is the upper bound on an actor name.
const maxNameLength = 255

// nameValidator checks that an actor name is well formed. Names must be
// non-empty, at most 255 characters, and free of the address separator
// characters '/', '@' and whitespace.
type nameValidator struct {
	name string
}

var _ Validator = (*nameValidator)(nil)

// NewNameValidator creates a validator for the given actor name.
func NewNameValidator(name string) Validator {
	return &nameValidator{name: name}
}

// Validate implements Validator.
func (v *nameValidator) Validate() error {
	switch {
	case v.name == "":
		return fmt.Errorf("actor name is required")
	case len(v.name) > maxNameLength:
		return fmt.Errorf("actor name %q exceeds %d characters", v.name, maxNameLength)
	case strings.ContainsAny(v.name, "/@ \t\n"):
		return fmt.Errorf("actor name %q contains an invalid character", v.name)
	default:
		return nil
	}
}

// EmptyValidator checks that a string field is set.
type EmptyValidator struct {
	fieldName  string
	fieldValue string
}

var _ Validator = (*EmptyValidator)(nil)

// NewEmptyStringValidator creates a validator for a required string field.
func NewEmptyStringValidator(fieldName, fieldValue string) *EmptyValidator {
	return &EmptyValidator{
		fieldName:  fieldName,
		fieldValue: fieldValue,
	}
}

// Validate implements Validator.
func (v *EmptyValidator) Validate() error {
	if strings.TrimSpace(v.fieldValue) == "" {
		return fmt.Errorf("the [%s] is required", v.fieldName)
	}
	return nil
}
