//go:build tools

// Package tools pins the code generators used by go:generate (mockgen), so
// that go.mod tracks them and a fresh checkout can regenerate mocks.
package unified_chat

import (
	_ "go.uber.org/mock/mockgen"
)
