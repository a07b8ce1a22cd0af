// SPDX-License-Identifier: Apache-2.0

package domain

import "errors"

var ErrDocumentNotFound = errors.New("document not found")
var ErrFileTooLarge = errors.New("file exceeds maximum size")
var ErrInvalidStageInput = errors.New("document not valid for stage")
