// Package store owns the normalized comment database and every mutation of
// it. Each successful mutation recomputes derived metadata, writes the full
// snapshot through the persistence gateway, and then notifies subscribers.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"marginalia/internal/util"
)

// ErrNoSnapshot is returned by a Gateway when no snapshot has been persisted
// yet. The store treats it, and any other load failure, as "start empty".
var ErrNoSnapshot = errors.New("no snapshot")

// Gateway persists full database snapshots. Implementations must round-trip
// the structure losslessly, including multi-byte emoji keys in reactions.
type Gateway interface {
	LoadSnapshot(ctx context.Context) (*Database, error)
	SaveSnapshot(ctx context.Context, db *Database) error
}

// AddCommentInput carries everything needed to create a comment. ParentID is
// empty for root comments. Attachments and Mentions may be nil.
type AddCommentInput struct {
	CurrentUserID string
	ParentID      string
	Content       string
	Attachments   []Attachment
	Mentions      []string
}

type subscriber struct {
	id int
	fn func(Database)
}

// Store is the sole authority over the comment database. Construct it with
// New and share the one instance; there is no package-level singleton.
type Store struct {
	gateway Gateway

	mu          sync.Mutex
	db          *Database
	subscribers []subscriber
	nextSubID   int

	now   func() time.Time
	newID func() string
}

// New builds a store over the given gateway, starting from the bootstrap
// empty database. Call Load to replace it with the persisted snapshot.
func New(gateway Gateway) *Store {
	s := &Store{
		gateway: gateway,
		now:     time.Now,
		newID:   func() string { return util.NewID("comment") },
	}
	s.db = NewDatabase(s.timestamp())
	return s
}

// Load replaces the in-memory database with the last persisted snapshot.
// A missing, unreadable, or corrupt snapshot leaves the current state in
// place. Safe to call repeatedly; every call re-reads storage.
func (s *Store) Load(ctx context.Context) {
	snap, err := s.gateway.LoadSnapshot(ctx)
	if err != nil || snap == nil {
		return
	}
	snap.normalize()

	s.mu.Lock()
	s.db = snap
	s.notifyLocked()
	s.mu.Unlock()
}

// AddComment creates a comment and returns its id. A ParentID that does not
// resolve still records the value on the comment but produces no linkage; the
// comment is created either way.
func (s *Store) AddComment(ctx context.Context, input AddCommentInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	now := s.timestamp()

	c := Comment{
		ID:          id,
		AuthorID:    input.CurrentUserID,
		Content:     input.Content,
		Timestamp:   now,
		Attachments: []string{},
		Reactions:   map[string][]string{},
		Mentions:    append([]string{}, input.Mentions...),
		Replies:     []string{},
	}
	if input.ParentID != "" {
		parentID := input.ParentID
		c.ParentID = &parentID
		if parent, ok := s.db.Comments[parentID]; ok {
			parent.Replies = append(parent.Replies, id)
			s.db.Comments[parentID] = parent
		}
	}
	for _, a := range input.Attachments {
		s.db.Attachments[a.ID] = a
		c.Attachments = append(c.Attachments, a.ID)
	}
	s.db.Comments[id] = c

	s.touch(now)
	if err := s.persistLocked(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// EditComment replaces the content and attachment list of a comment. Missing
// or deleted targets are silent no-ops: nothing mutates and nothing persists.
// Attachment replacement is a full overwrite; an empty list clears the field
// and leaves previously referenced files orphaned in the attachment map.
func (s *Store) EditComment(ctx context.Context, id, content string, attachments []Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.db.Comments[id]
	if !ok || c.IsDeleted {
		return nil
	}

	now := s.timestamp()
	c.Content = content
	c.IsEdited = true
	editedAt := now
	c.EditedAt = &editedAt

	if len(attachments) > 0 {
		ids := make([]string, 0, len(attachments))
		for _, a := range attachments {
			s.db.Attachments[a.ID] = a
			ids = append(ids, a.ID)
		}
		c.Attachments = ids
	} else {
		c.Attachments = []string{}
	}
	s.db.Comments[id] = c

	s.touch(now)
	return s.persistLocked(ctx)
}

// DeleteComment soft-deletes a comment. Replies stay in the database and stay
// linked; hiding the subtree is a rendering concern. Unknown ids are silent
// no-ops. There is no undelete.
func (s *Store) DeleteComment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.db.Comments[id]
	if !ok {
		return nil
	}
	c.IsDeleted = true
	s.db.Comments[id] = c

	s.touch(s.timestamp())
	return s.persistLocked(ctx)
}

// ToggleReaction flips the user's reaction on a comment. An empty emoji
// clears whatever reaction the user holds. Each user holds at most one emoji
// per comment: reacting with a different emoji moves them, reacting with the
// same emoji removes them. Persists only when membership actually changed.
func (s *Store) ToggleReaction(ctx context.Context, commentID, userID, emoji string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.db.Comments[commentID]
	if !ok || c.IsDeleted {
		return nil
	}

	current := ""
	for e, users := range c.Reactions {
		if containsString(users, userID) {
			current = e
			break
		}
	}

	changed := false
	remove := func(e string) {
		users := c.Reactions[e]
		next := make([]string, 0, len(users))
		for _, u := range users {
			if u != userID {
				next = append(next, u)
			}
		}
		if len(next) == len(users) {
			return
		}
		changed = true
		if len(next) == 0 {
			delete(c.Reactions, e)
		} else {
			c.Reactions[e] = next
		}
	}
	add := func(e string) {
		c.Reactions[e] = append(c.Reactions[e], userID)
		changed = true
	}

	switch {
	case emoji == "":
		if current != "" {
			remove(current)
		}
	case emoji == current:
		remove(current)
	default:
		if current != "" {
			remove(current)
		}
		add(emoji)
	}

	if !changed {
		return nil
	}
	s.db.Comments[commentID] = c

	s.touch(s.timestamp())
	return s.persistLocked(ctx)
}

// Snapshot returns a deep copy of the current database.
func (s *Store) Snapshot() Database {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.db.Clone()
}

// Comment returns a deep copy of one comment.
func (s *Store) Comment(id string) (Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.db.Comments[id]
	if !ok {
		return Comment{}, false
	}
	return c.clone(), true
}

// Attachment returns one attachment by id.
func (s *Store) Attachment(id string) (Attachment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.db.Attachments[id]
	return a, ok
}

// RootComments lists top-level comments ordered by creation timestamp, the
// derivation thread renderers start from.
func (s *Store) RootComments() []Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	roots := make([]Comment, 0)
	for _, c := range s.db.Comments {
		if c.ParentID == nil {
			roots = append(roots, c.clone())
		}
	}
	sort.Slice(roots, func(i, j int) bool {
		if roots[i].Timestamp != roots[j].Timestamp {
			return roots[i].Timestamp < roots[j].Timestamp
		}
		return roots[i].ID < roots[j].ID
	})
	return roots
}

// Replies lists the direct children of a comment in creation order.
func (s *Store) Replies(id string) []Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	parent, ok := s.db.Comments[id]
	if !ok {
		return nil
	}
	out := make([]Comment, 0, len(parent.Replies))
	for _, childID := range parent.Replies {
		if child, ok := s.db.Comments[childID]; ok {
			out = append(out, child.clone())
		}
	}
	return out
}

// Subscribe registers fn to run synchronously after every successful mutation
// with a deep-copied snapshot. The returned function cancels the
// subscription.
func (s *Store) Subscribe(fn func(Database)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// touch recomputes derived metadata after a mutation.
func (s *Store) touch(now string) {
	s.db.Metadata.TotalComments = s.db.countActive()
	s.db.Metadata.LastUpdated = now
}

// persistLocked writes the snapshot and fans out to subscribers. A write
// failure is surfaced to the caller: by then the in-memory state is already
// ahead of durable storage, so losing the error would lose the mutation.
func (s *Store) persistLocked(ctx context.Context) error {
	if err := s.gateway.SaveSnapshot(ctx, s.db); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.notifyLocked()
	return nil
}

func (s *Store) notifyLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	snap := *s.db.Clone()
	for _, sub := range s.subscribers {
		sub.fn(snap)
	}
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
