// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package common

import (
	"strings"

	"github.com/google/uuid"

	customerrors "github.com/AccelByte/extend-level-progression/pkg/errors"
)

// ParseUserID parses a user identifier in any form uuid.Parse accepts
// (canonical, braced, or urn:uuid:). The nil UUID is rejected.
//
// Example:
//   - Input: "  {3F1C2A9E-5B7D-4E8F-9A0B-1C2D3E4F5A6B} "
//   - Output: 3f1c2a9e-5b7d-4e8f-9a0b-1c2d3e4f5a6b
func ParseUserID(s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, customerrors.ErrInvalidInput("user_id", "must not be empty")
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, customerrors.ErrInvalidInput("user_id", err.Error())
	}
	if id == uuid.Nil {
		return uuid.Nil, customerrors.ErrInvalidInput("user_id", "nil UUID is not a user")
	}

	return id, nil
}
