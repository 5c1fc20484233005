// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"

	bferrors "bulkforce/cli/internal/errors"
)

// PresentError formats an error for user display with masking.
// An empty context yields the bare masked message.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	msg := Mask(err.Error())
	if kind := bferrors.KindOf(err); kind != bferrors.Unknown {
		msg = fmt.Sprintf("[%s] %s", kind, msg)
	}
	if context == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", context, msg)
}
