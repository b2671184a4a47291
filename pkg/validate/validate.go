// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-imagepipe.
//
// go-imagepipe is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package validate classifies inbound object keys against the image type
// allow-list.
package validate

import (
	"fmt"
	"strings"

	"github.com/jeremyhahn/go-imagepipe/pkg/common"
)

// supportedTypes is the lower-case extension allow-list.
var supportedTypes = map[string]bool{
	"jpeg": true,
	"png":  true,
}

// Classify extracts the file extension of an object key and checks it
// against the allow-list. It returns the lower-cased image type on success.
// Pure and deterministic: the same key always yields the same result.
//
// Both failure modes are permanent errors, never eligible for redelivery:
// common.ErrNoExtension when the key has no suffix after a final dot, and
// common.ErrUnsupportedType when the suffix is not an accepted image type.
func Classify(key string) (string, error) {
	dot := strings.LastIndex(key, ".")
	if dot < 0 {
		return "", common.ErrNoExtension
	}
	imageType := strings.ToLower(key[dot+1:])
	if !supportedTypes[imageType] {
		return "", fmt.Errorf("%w: %s", common.ErrUnsupportedType, imageType)
	}
	return imageType, nil
}
