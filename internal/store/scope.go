package store

// Scope is the compound key a consumer is interested in. The subscription
// transport cannot filter on compound predicates server-side, so every
// incoming row is re-checked against the scope before acceptance.
//
// Empty fields are wildcards.
type Scope struct {
	WorkspaceID string
	AgentID     string
	DocumentID  string
}

// Accepts reports whether a row carrying the given scoping fields belongs to
// this scope.
func (s Scope) Accepts(workspaceID, agentID, documentID string) bool {
	if s.WorkspaceID != "" && workspaceID != s.WorkspaceID {
		return false
	}
	if s.AgentID != "" && agentID != s.AgentID {
		return false
	}
	if s.DocumentID != "" && documentID != s.DocumentID {
		return false
	}
	return true
}
