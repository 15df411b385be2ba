package store

import "time"

// Comment is a single entry in a thread. Roots carry a nil ParentID; replies
// point at their parent and are mirrored in the parent's Replies list in
// creation order. Comments are never physically removed: deletion only flips
// IsDeleted so descendants stay structurally linked.
type Comment struct {
	ID          string              `json:"id"`
	ParentID    *string             `json:"parentId"`
	AuthorID    string              `json:"authorId"`
	Content     string              `json:"content"`
	Timestamp   string              `json:"timestamp"`
	Attachments []string            `json:"attachments"`
	Reactions   map[string][]string `json:"reactions"`
	Mentions    []string            `json:"mentions"`
	IsEdited    bool                `json:"isEdited"`
	EditedAt    *string             `json:"editedAt"`
	Replies     []string            `json:"replies"`
	IsDeleted   bool                `json:"isDeleted,omitempty"`
}

// Attachment is an uploaded file referenced by id from comments. Path holds
// the content itself as a data URI, so the snapshot is self-contained.
type Attachment struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Path         string `json:"path"`
	Type         string `json:"type"`
	Size         int64  `json:"size"`
	UploadedBy   string `json:"uploadedBy"`
	UploadedAt   string `json:"uploadedAt"`
}

// Metadata is derived bookkeeping, recomputed on every mutation. It is never
// treated as a source of truth on load.
type Metadata struct {
	TotalComments int    `json:"totalComments"`
	LastUpdated   string `json:"lastUpdated"`
}

// Database is the aggregate persisted as one snapshot.
type Database struct {
	Comments    map[string]Comment    `json:"comments"`
	Attachments map[string]Attachment `json:"attachments"`
	Metadata    Metadata              `json:"metadata"`
}

// CommitInfo describes one persisted snapshot in a history-capable gateway.
type CommitInfo struct {
	Hash      string
	Message   string
	Author    string
	CreatedAt time.Time
}

// NewDatabase returns the bootstrap-empty database used before any snapshot
// has been loaded.
func NewDatabase(lastUpdated string) *Database {
	return &Database{
		Comments:    make(map[string]Comment),
		Attachments: make(map[string]Attachment),
		Metadata:    Metadata{TotalComments: 0, LastUpdated: lastUpdated},
	}
}

// Clone deep-copies the database so callers can hold a snapshot without
// observing later mutations.
func (db *Database) Clone() *Database {
	out := &Database{
		Comments:    make(map[string]Comment, len(db.Comments)),
		Attachments: make(map[string]Attachment, len(db.Attachments)),
		Metadata:    db.Metadata,
	}
	for id, c := range db.Comments {
		out.Comments[id] = c.clone()
	}
	for id, a := range db.Attachments {
		out.Attachments[id] = a
	}
	return out
}

func (c Comment) clone() Comment {
	out := c
	out.Attachments = copyStrings(c.Attachments)
	out.Mentions = copyStrings(c.Mentions)
	out.Replies = copyStrings(c.Replies)
	if c.Reactions != nil {
		out.Reactions = make(map[string][]string, len(c.Reactions))
		for emoji, users := range c.Reactions {
			out.Reactions[emoji] = copyStrings(users)
		}
	}
	if c.ParentID != nil {
		parent := *c.ParentID
		out.ParentID = &parent
	}
	if c.EditedAt != nil {
		edited := *c.EditedAt
		out.EditedAt = &edited
	}
	return out
}

// normalize repairs a decoded snapshot: nil collections become empty ones and
// the comment total is recounted rather than trusted.
func (db *Database) normalize() {
	if db.Comments == nil {
		db.Comments = make(map[string]Comment)
	}
	if db.Attachments == nil {
		db.Attachments = make(map[string]Attachment)
	}
	for id, c := range db.Comments {
		if c.Attachments == nil {
			c.Attachments = []string{}
		}
		if c.Mentions == nil {
			c.Mentions = []string{}
		}
		if c.Replies == nil {
			c.Replies = []string{}
		}
		if c.Reactions == nil {
			c.Reactions = map[string][]string{}
		}
		db.Comments[id] = c
	}
	db.Metadata.TotalComments = db.countActive()
}

// copyStrings copies a slice while preserving the nil vs empty distinction,
// which the snapshot JSON shape depends on.
func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func (db *Database) countActive() int {
	total := 0
	for _, c := range db.Comments {
		if !c.IsDeleted {
			total++
		}
	}
	return total
}
