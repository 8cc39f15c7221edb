package session

import (
	"agent-workspace/internal/chat"
	"agent-workspace/internal/content"
	"agent-workspace/internal/document"
	"agent-workspace/internal/store"
	"agent-workspace/internal/tableentry"
	"agent-workspace/internal/webpage"
	"agent-workspace/internal/worker"
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Command is one client request over the session socket.
type Command struct {
	Action     string `json:"action"`
	DocumentID string `json:"document_id,omitempty"`
	Text       string `json:"text,omitempty"`
	AtBottom   bool   `json:"at_bottom,omitempty"`
	RowID      string `json:"row_id,omitempty"`
	ColumnKey  string `json:"column_key,omitempty"`
	Value      string `json:"value,omitempty"`
	Key        string `json:"key,omitempty"`
	Shift      bool   `json:"shift,omitempty"`
	URL        string `json:"url,omitempty"`
	VersionID  string `json:"version_id,omitempty"`
}

// Event is one server push over the session socket.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
	TS    int64  `json:"ts"`
}

func newEvent(name string, data any) Event {
	return Event{Event: name, Data: data, TS: time.Now().UnixMilli()}
}

// Session drives one user's live view of one agent conversation: the message
// stream, the document directory and at most one selected document's content
// controller. Commands arrive sequentially from the socket's read loop;
// store events arrive concurrently from subscriptions.
type Session struct {
	gateway   store.Gateway
	chats     chat.Service
	documents document.Service
	pool      *worker.Pool
	emit      func(Event)

	workspaceID string
	agentID     string
	userID      string

	mu         sync.Mutex
	generation int
	stream     *chat.Stream
	selected   *document.Document
	contentRes *content.Resolver
	tableSync  *tableentry.Synchronizer
	webpageRes *webpage.Resolver
}

func New(gateway store.Gateway, chats chat.Service, documents document.Service, pool *worker.Pool,
	workspaceID, agentID, userID string, emit func(Event)) *Session {
	return &Session{
		gateway:     gateway,
		chats:       chats,
		documents:   documents,
		pool:        pool,
		emit:        emit,
		workspaceID: workspaceID,
		agentID:     agentID,
		userID:      userID,
	}
}

// Start opens the message stream and pushes the initial directory listing.
func (s *Session) Start(ctx context.Context) error {
	// The stored read cursor is fetched before any marking happens
	lastReadAt, err := s.chats.LastReadAt(ctx, s.workspaceID, s.agentID, s.userID)
	if err != nil {
		log.Printf("Failed to read last_read_at for agent %s: %v", s.agentID, err)
	}

	stream := chat.NewStream(s.chats, s.gateway, s.pool, s.workspaceID, s.agentID, s.userID)
	stream.OnMessage = func(msg chat.Message) {
		s.emit(newEvent("message", payload{"message": msg}))
	}
	stream.OnUnread = func(hasUnread bool) {
		s.emit(newEvent("unread", payload{"has_unread": hasUnread}))
	}
	stream.Start(ctx)

	s.mu.Lock()
	s.stream = stream
	s.mu.Unlock()

	s.emit(newEvent("messages_loaded", payload{
		"messages":     stream.Messages(),
		"last_read_at": lastReadAt,
	}))
	s.pushDocuments(ctx)
	return nil
}

// Close tears down every open subscription.
func (s *Session) Close() {
	s.mu.Lock()
	stream := s.stream
	s.stream = nil
	s.generation++
	s.mu.Unlock()

	s.closeSelected()
	if stream != nil {
		stream.Close()
	}
}

// HandleCommand dispatches one client command. Errors surface as an error
// event rather than tearing the session down.
func (s *Session) HandleCommand(ctx context.Context, cmd Command) {
	var err error
	switch cmd.Action {
	case "select_document":
		err = s.selectDocument(ctx, cmd.DocumentID)
	case "clear_selection":
		s.closeSelected()
	case "send_message":
		err = s.sendMessage(ctx, cmd.Text)
	case "set_at_bottom":
		s.setAtBottom(cmd.AtBottom)
	case "start_edit":
		err = s.withTable(func(t *tableentry.Synchronizer) error {
			return t.StartEdit(ctx, tableentry.CellRef{RowID: cmd.RowID, ColumnKey: cmd.ColumnKey})
		})
	case "set_draft":
		err = s.withTable(func(t *tableentry.Synchronizer) error {
			t.SetDraft(cmd.Value)
			return nil
		})
	case "edit_key":
		err = s.withTable(func(t *tableentry.Synchronizer) error {
			return t.HandleKey(ctx, cmd.Key, cmd.Shift)
		})
	case "commit_edit":
		err = s.commitEdit(ctx)
	case "cancel_edit":
		err = s.withTable(func(t *tableentry.Synchronizer) error {
			t.Cancel()
			return nil
		})
	case "add_row":
		err = s.withTable(func(t *tableentry.Synchronizer) error {
			_, addErr := t.AddRow(ctx)
			return addErr
		})
	case "set_url":
		err = s.setURL(ctx, cmd.URL)
	case "select_version":
		err = s.selectVersion(cmd.VersionID)
	case "show_diff":
		err = s.showDiff()
	default:
		err = fmt.Errorf("unknown action %q", cmd.Action)
	}

	if err != nil {
		s.emit(newEvent("error", payload{"message": err.Error(), "action": cmd.Action}))
	}
}

func (s *Session) sendMessage(ctx context.Context, text string) error {
	s.mu.Lock()
	stream := s.stream
	s.mu.Unlock()
	if stream == nil {
		return fmt.Errorf("session not started")
	}
	return stream.Send(ctx, text)
}

func (s *Session) setAtBottom(atBottom bool) {
	s.mu.Lock()
	stream := s.stream
	s.mu.Unlock()
	if stream != nil {
		stream.SetAtBottom(atBottom)
	}
}

// selectDocument synchronously tears down the previous document's controller
// before loading the new one, so no events leak across documents. The
// generation counter discards a load that a later selection superseded.
func (s *Session) selectDocument(ctx context.Context, documentID string) error {
	s.closeSelected()

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	doc, err := s.documents.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	switch doc.Type {
	case document.TypeTable:
		return s.attachTable(ctx, gen, doc)
	case document.TypeWebpage:
		return s.attachWebpage(ctx, gen, doc)
	default:
		return s.attachContent(ctx, gen, doc)
	}
}

func (s *Session) attachContent(ctx context.Context, gen int, doc *document.Document) error {
	res := content.NewResolver(s.gateway, doc.ID, s.workspaceID)
	res.OnChange = func(current *content.Content, history []content.Content) {
		s.emit(newEvent("content", payload{"current": current}))
		s.emit(newEvent("content_history", payload{"history": history}))
	}
	res.OnUpdatedFlag = func(raised bool) {
		s.emit(newEvent("content", payload{"just_updated": raised, "current": res.Current()}))
	}
	if err := res.Load(ctx); err != nil {
		return err
	}

	if !s.install(gen, doc, func() { s.contentRes = res }) {
		res.Close()
		return nil
	}
	s.emit(newEvent("content", payload{"current": res.Current()}))
	s.emit(newEvent("content_history", payload{"history": res.History()}))
	return nil
}

func (s *Session) attachTable(ctx context.Context, gen int, doc *document.Document) error {
	table := tableentry.NewSynchronizer(s.gateway, doc.ID, s.workspaceID, doc.TableSchema)
	table.OnRows = func(rows []tableentry.TableEntry) {
		s.emit(newEvent("entries", payload{"rows": rows}))
	}
	table.OnRowUpdated = func(rowID string, raised bool) {
		s.emit(newEvent("entry_updated", payload{"row_id": rowID, "updated": raised}))
	}
	table.OnEditing = func(state string, cell tableentry.CellRef, draft string) {
		s.emit(newEvent("editing", payload{"state": state, "cell": cell, "draft": draft}))
	}
	table.OnSaved = func(cell tableentry.CellRef, raised bool) {
		s.emit(newEvent("cell_saved", payload{"cell": cell, "saved": raised}))
	}
	if err := table.Load(ctx); err != nil {
		return err
	}

	if !s.install(gen, doc, func() { s.tableSync = table }) {
		table.Close()
		return nil
	}
	s.emit(newEvent("entries", payload{"rows": table.Rows()}))
	return nil
}

func (s *Session) attachWebpage(ctx context.Context, gen int, doc *document.Document) error {
	res := webpage.NewResolver(s.gateway, doc.ID, s.workspaceID)
	res.OnChange = func(current *webpage.WebpageEntry, history []webpage.WebpageEntry) {
		s.emit(newEvent("webpage", payload{"current": current, "history": history}))
	}
	res.OnUpdatedFlag = func(raised bool) {
		s.emit(newEvent("webpage", payload{"just_updated": raised, "current": res.Current()}))
	}
	if err := res.Load(ctx); err != nil {
		return err
	}

	if !s.install(gen, doc, func() { s.webpageRes = res }) {
		res.Close()
		return nil
	}
	s.emit(newEvent("webpage", payload{"current": res.Current(), "history": res.History()}))
	return nil
}

// install publishes a loaded controller unless a newer selection superseded
// this load while it was in flight.
func (s *Session) install(gen int, doc *document.Document, set func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.selected = doc
	set()
	return true
}

func (s *Session) closeSelected() {
	s.mu.Lock()
	contentRes := s.contentRes
	tableSync := s.tableSync
	webpageRes := s.webpageRes
	s.contentRes = nil
	s.tableSync = nil
	s.webpageRes = nil
	s.selected = nil
	s.mu.Unlock()

	if contentRes != nil {
		contentRes.Close()
	}
	if tableSync != nil {
		tableSync.Close()
	}
	if webpageRes != nil {
		webpageRes.Close()
	}
}

func (s *Session) commitEdit(ctx context.Context) error {
	return s.withTable(func(t *tableentry.Synchronizer) error {
		result, err := t.Commit(ctx)
		if err != nil {
			return err
		}
		if result.Invalid {
			s.emit(newEvent("cell_saved", payload{"cell": result.Cell, "saved": true, "invalid": true}))
		}
		return nil
	})
}

func (s *Session) setURL(ctx context.Context, url string) error {
	s.mu.Lock()
	res := s.webpageRes
	s.mu.Unlock()
	if res == nil {
		return fmt.Errorf("no webpage document selected")
	}
	return res.SetURL(ctx, url)
}

func (s *Session) selectVersion(versionID string) error {
	s.mu.Lock()
	res := s.contentRes
	s.mu.Unlock()
	if res == nil {
		return fmt.Errorf("no text document selected")
	}
	if !res.SelectVersion(versionID) {
		return fmt.Errorf("unknown version %q", versionID)
	}
	s.emit(newEvent("content", payload{"current": res.Current()}))
	return nil
}

// showDiff emits the word-level diff of the displayed revision against its
// immediate predecessor. With no predecessor there is nothing to compare and
// an empty span list is pushed.
func (s *Session) showDiff() error {
	s.mu.Lock()
	res := s.contentRes
	s.mu.Unlock()
	if res == nil {
		return fmt.Errorf("no text document selected")
	}

	current := res.Current()
	prev := res.PreviousOf(current)
	var spans []content.Span
	if current != nil && prev != nil {
		spans = content.DiffWords(prev.Content, current.Content)
	}
	s.emit(newEvent("content_diff", payload{"spans": spans}))
	return nil
}

// SelectedDocument returns the currently selected document, nil when none.
func (s *Session) SelectedDocument() *document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *Session) withTable(fn func(*tableentry.Synchronizer) error) error {
	s.mu.Lock()
	table := s.tableSync
	s.mu.Unlock()
	if table == nil {
		return fmt.Errorf("no table document selected")
	}
	return fn(table)
}

func (s *Session) pushDocuments(ctx context.Context) {
	infos, err := s.documents.ListForAgent(ctx, s.workspaceID, s.agentID)
	if err != nil {
		log.Printf("Failed to list documents for agent %s: %v", s.agentID, err)
		s.emit(newEvent("error", payload{"message": "Failed to load documents"}))
		return
	}
	s.emit(newEvent("documents", payload{"documents": infos}))
}

type payload = map[string]any
