package webpage

import (
	"agent-workspace/internal/store"
	"context"
	"encoding/json"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultUpdatedFlagDuration is how long the transient "just updated" flag
// stays raised after a remote insert.
const DefaultUpdatedFlagDuration = 2 * time.Second

// Resolver holds the live view of one webpage document: the latest snapshot,
// the snapshot history, and a transient just-updated flag.
type Resolver struct {
	gateway store.Gateway
	scope   store.Scope

	// UpdatedFlagDuration can be shortened in tests.
	UpdatedFlagDuration time.Duration

	mu          sync.Mutex
	current     *WebpageEntry
	history     []WebpageEntry
	justUpdated bool
	flagTimer   *time.Timer
	unsub       store.Unsubscribe

	// Callbacks run without the internal lock held.
	OnChange      func(current *WebpageEntry, history []WebpageEntry)
	OnUpdatedFlag func(raised bool)
}

func NewResolver(gateway store.Gateway, documentID, workspaceID string) *Resolver {
	return &Resolver{
		gateway:             gateway,
		scope:               store.Scope{WorkspaceID: workspaceID, DocumentID: documentID},
		UpdatedFlagDuration: DefaultUpdatedFlagDuration,
	}
}

// Load opens the subscription, then fetches the snapshot history; the
// highest version becomes current. An empty history is the valid "no
// snapshot yet" state.
func (r *Resolver) Load(ctx context.Context) error {
	unsub := r.gateway.Subscribe(store.TableWebpages, r.handleInsert)
	r.mu.Lock()
	r.unsub = unsub
	r.mu.Unlock()

	var history []WebpageEntry
	if err := r.gateway.Query(ctx, store.TableWebpages, &history, store.QueryOptions{
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
	r.history = mergeSnapshots(history, r.history)
	if len(r.history) == 0 {
		r.current = nil
	} else {
		r.current = &r.history[0]
	}
	r.mu.Unlock()
	return nil
}

// mergeSnapshots combines a fetched history with snapshots that arrived as
// events, deduped by id and ordered descending by version.
func mergeSnapshots(fetched, arrived []WebpageEntry) []WebpageEntry {
	merged := make([]WebpageEntry, 0, len(fetched)+len(arrived))
	seen := make(map[string]bool, len(fetched)+len(arrived))
	for _, list := range [][]WebpageEntry{fetched, arrived} {
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

// SetURL writes a new snapshot version with the normalized URL, carrying the
// crawler-populated fields of the latest version forward unchanged. The
// worker is expected to overwrite them once it re-crawls.
func (r *Resolver) SetURL(ctx context.Context, rawInput string) error {
	url := NormalizeURL(rawInput)

	r.mu.Lock()
	entry := WebpageEntry{
		ID:          uuid.NewString(),
		DocumentID:  r.scope.DocumentID,
		WorkspaceID: r.scope.WorkspaceID,
		URL:         url,
		Version:     1,
		CreatedAt:   time.Now().UTC(),
	}
	if r.current != nil {
		entry.Title = r.current.Title
		entry.Thumbnail = r.current.Thumbnail
		entry.Description = r.current.Description
		entry.Content = r.current.Content
		entry.Links = r.current.Links
		entry.Version = r.current.Version + 1
	}
	r.mu.Unlock()

	return r.gateway.Insert(ctx, store.TableWebpages, &entry)
}

func (r *Resolver) handleInsert(payload []byte) {
	var row WebpageEntry
	if err := json.Unmarshal(payload, &row); err != nil {
		log.Printf("Failed to decode webpage event: %v", err)
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
	r.history = append([]WebpageEntry{row}, r.history...)
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

// Current returns the latest snapshot, nil when none exists yet.
func (r *Resolver) Current() *WebpageEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil
	}
	c := *r.current
	return &c
}

// History returns a copy of the snapshot history, descending by version.
func (r *Resolver) History() []WebpageEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotHistoryLocked()
}

func (r *Resolver) JustUpdated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.justUpdated
}

func (r *Resolver) snapshotHistoryLocked() []WebpageEntry {
	out := make([]WebpageEntry, len(r.history))
	copy(out, r.history)
	return out
}

// NormalizeURL prefixes https:// when the input has no http(s) scheme.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	return "https://" + trimmed
}
