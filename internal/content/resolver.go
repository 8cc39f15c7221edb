package content

import (
	"agent-workspace/internal/store"
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"
)

// DefaultUpdatedFlagDuration is how long the transient "just updated" flag
// stays raised after a remote insert. A pure UI affordance.
const DefaultUpdatedFlagDuration = 2 * time.Second

// Resolver holds the live view of one selected text document: the current
// revision, the full version history (descending by version), and a
// transient just-updated flag.
type Resolver struct {
	gateway store.Gateway
	scope   store.Scope

	// UpdatedFlagDuration can be shortened in tests.
	UpdatedFlagDuration time.Duration

	mu          sync.Mutex
	current     *Content
	history     []Content
	justUpdated bool
	flagTimer   *time.Timer
	unsub       store.Unsubscribe

	// Callbacks run without the internal lock held.
	OnChange      func(current *Content, history []Content)
	OnUpdatedFlag func(raised bool)
}

func NewResolver(gateway store.Gateway, documentID, workspaceID string) *Resolver {
	return &Resolver{
		gateway:             gateway,
		scope:               store.Scope{WorkspaceID: workspaceID, DocumentID: documentID},
		UpdatedFlagDuration: DefaultUpdatedFlagDuration,
	}
}

// Load opens the subscription, then fetches the full history; the highest
// version becomes current. An empty history is the valid "no content yet"
// state.
func (r *Resolver) Load(ctx context.Context) error {
	unsub := r.gateway.Subscribe(store.TableContents, r.handleInsert)
	r.mu.Lock()
	r.unsub = unsub
	r.mu.Unlock()

	var history []Content
	if err := r.gateway.Query(ctx, store.TableContents, &history, store.QueryOptions{
		Filters: store.Filter{
			"document_id":  r.scope.DocumentID,
			"workspace_id": r.scope.WorkspaceID,
		},
		OrderBy: "version",
		Desc:    true,
	}); err != nil {
		r.Close()
		return err
	}

	r.mu.Lock()
	// Inserts can be delivered while the fetch is in flight; fold the
	// fetched snapshot into whatever already arrived instead of replacing it.
	r.history = mergeRevisions(history, r.history)
	if len(r.history) == 0 {
		r.current = nil
	} else {
		r.current = &r.history[0]
	}
	r.mu.Unlock()
	return nil
}

// mergeRevisions combines a fetched history with revisions that arrived as
// events, deduped by id and ordered descending by version.
func mergeRevisions(fetched, arrived []Content) []Content {
	merged := make([]Content, 0, len(fetched)+len(arrived))
	seen := make(map[string]bool, len(fetched)+len(arrived))
	for _, list := range [][]Content{fetched, arrived} {
		for _, row := range list {
			if seen[row.ID] {
				continue
			}
			seen[row.ID] = true
			merged = append(merged, row)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Version > merged[j].Version
	})
	return merged
}

// Close tears down the subscription channel.
func (r *Resolver) Close() {
	r.mu.Lock()
	unsub := r.unsub
	r.unsub = nil
	if r.flagTimer != nil {
		r.flagTimer.Stop()
		r.flagTimer = nil
	}
	r.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (r *Resolver) handleInsert(payload []byte) {
	var row Content
	if err := json.Unmarshal(payload, &row); err != nil {
		log.Printf("Failed to decode content event: %v", err)
		return
	}
	if !r.scope.Accepts(row.WorkspaceID, "", row.DocumentID) {
		return
	}

	r.mu.Lock()
	for _, existing := range r.history {
		if existing.ID == row.ID {
			r.mu.Unlock()
			return
		}
	}
	r.history = append([]Content{row}, r.history...)
	r.current = &row
	current := r.current
	history := r.snapshotHistoryLocked()
	r.mu.Unlock()

	if r.OnChange != nil {
		r.OnChange(current, history)
	}
	r.raiseUpdatedFlag()
}

func (r *Resolver) raiseUpdatedFlag() {
	r.mu.Lock()
	r.justUpdated = true
	if r.flagTimer != nil {
		r.flagTimer.Stop()
	}
	r.flagTimer = time.AfterFunc(r.UpdatedFlagDuration, r.clearUpdatedFlag)
	r.mu.Unlock()

	if r.OnUpdatedFlag != nil {
		r.OnUpdatedFlag(true)
	}
}

func (r *Resolver) clearUpdatedFlag() {
	r.mu.Lock()
	r.justUpdated = false
	r.flagTimer = nil
	r.mu.Unlock()

	if r.OnUpdatedFlag != nil {
		r.OnUpdatedFlag(false)
	}
}

// SelectVersion changes which history entry is displayed as current. A pure
// local pointer change, nothing is written to the store.
func (r *Resolver) SelectVersion(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.history {
		if r.history[i].ID == id {
			r.current = &r.history[i]
			return true
		}
	}
	return false
}

// PreviousOf returns the history entry immediately preceding the given one
// (the next entry in the descending-by-version list), or nil when it is the
// oldest or the history has fewer than two entries.
func (r *Resolver) PreviousOf(c *Content) *Content {
	if c == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) < 2 {
		return nil
	}
	for i := range r.history {
		if r.history[i].ID == c.ID {
			if i >= len(r.history)-1 {
				return nil
			}
			prev := r.history[i+1]
			return &prev
		}
	}
	return nil
}

// Current returns the displayed revision, nil when the document has no
// content yet.
func (r *Resolver) Current() *Content {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil
	}
	c := *r.current
	return &c
}

// History returns a copy of the version history, descending by version.
func (r *Resolver) History() []Content {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotHistoryLocked()
}

func (r *Resolver) JustUpdated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.justUpdated
}

func (r *Resolver) snapshotHistoryLocked() []Content {
	out := make([]Content, len(r.history))
	copy(out, r.history)
	return out
}
