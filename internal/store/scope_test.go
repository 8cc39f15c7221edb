package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeAccepts_FullMatch(t *testing.T) {
	scope := Scope{WorkspaceID: "ws-1", AgentID: "agent-1"}

	assert.True(t, scope.Accepts("ws-1", "agent-1", ""))
	assert.True(t, scope.Accepts("ws-1", "agent-1", "doc-9"))
}

func TestScopeAccepts_RejectsForeignRows(t *testing.T) {
	scope := Scope{WorkspaceID: "ws-1", AgentID: "agent-1"}

	assert.False(t, scope.Accepts("ws-2", "agent-1", ""))
	assert.False(t, scope.Accepts("ws-1", "agent-2", ""))
}

func TestScopeAccepts_EmptyFieldsAreWildcards(t *testing.T) {
	scope := Scope{WorkspaceID: "ws-1", DocumentID: "doc-1"}

	assert.True(t, scope.Accepts("ws-1", "any-agent", "doc-1"))
	assert.False(t, scope.Accepts("ws-1", "any-agent", "doc-2"))
}
