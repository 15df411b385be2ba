package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"marginalia/internal/config"
	"marginalia/internal/dates"
	"marginalia/internal/history"
	"marginalia/internal/mentions"
	"marginalia/internal/persist"
	"marginalia/internal/store"
	"marginalia/internal/upload"
	"marginalia/internal/users"
)

const usage = `usage: marginalia <command> [args]

  add <content> [file ...]          post a root comment
  reply <id> <content> [file ...]   reply to a comment
  edit <id> <content> [file ...]    edit your comment (replaces attachments)
  delete <id>                       soft-delete a comment
  react <id> [emoji]                toggle a reaction; omit emoji to clear
  show                              print the comment tree
  users <query>                     search the local user directory
  history [n]                       list snapshot history (git storage only)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	ctx := context.Background()

	gateway, closeGateway, err := openGateway(cfg)
	if err != nil {
		log.Fatalf("storage setup failed: %v", err)
	}
	defer closeGateway()

	st := store.New(gateway)
	st.Load(ctx)

	uploads := upload.New(cfg.MaxUploadMB)
	directory := loadDirectory(cfg)

	command, args := os.Args[1], os.Args[2:]
	if err := run(ctx, command, args, cfg, st, uploads, directory, gateway); err != nil {
		log.Fatalf("%s failed: %v", command, err)
	}
}

func run(ctx context.Context, command string, args []string, cfg config.Config, st *store.Store, uploads *upload.Service, directory *users.Directory, gateway store.Gateway) error {
	switch command {
	case "add":
		if len(args) < 1 {
			return fmt.Errorf("usage: add <content> [file ...]")
		}
		return addComment(ctx, cfg, st, uploads, directory, "", args[0], args[1:])

	case "reply":
		if len(args) < 2 {
			return fmt.Errorf("usage: reply <id> <content> [file ...]")
		}
		return addComment(ctx, cfg, st, uploads, directory, args[0], args[1], args[2:])

	case "edit":
		if len(args) < 2 {
			return fmt.Errorf("usage: edit <id> <content> [file ...]")
		}
		attachments, err := readUploads(cfg, uploads, args[2:])
		if err != nil {
			return err
		}
		return st.EditComment(ctx, args[0], args[1], attachments)

	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("usage: delete <id>")
		}
		return st.DeleteComment(ctx, args[0])

	case "react":
		if len(args) < 1 {
			return fmt.Errorf("usage: react <id> [emoji]")
		}
		emoji := ""
		if len(args) > 1 {
			emoji = args[1]
		}
		return st.ToggleReaction(ctx, args[0], cfg.CurrentUserID, emoji)

	case "show":
		printThreads(st)
		return nil

	case "users":
		if len(args) != 1 {
			return fmt.Errorf("usage: users <query>")
		}
		for _, u := range directory.Search(args[0]) {
			fmt.Printf("%s  @%s  %s\n", u.ID, u.Username, u.DisplayName)
		}
		return nil

	case "history":
		svc, ok := gateway.(*history.Service)
		if !ok {
			return fmt.Errorf("history requires MARGINALIA_STORAGE=git")
		}
		limit := 20
		if len(args) > 0 {
			parsed, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid limit %q", args[0])
			}
			limit = parsed
		}
		entries, err := svc.History(limit)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%s  %s  %s  %s\n", e.Hash, e.CreatedAt.Format(time.RFC3339), e.Author, strings.TrimSpace(e.Message))
		}
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func addComment(ctx context.Context, cfg config.Config, st *store.Store, uploads *upload.Service, directory *users.Directory, parentID, content string, files []string) error {
	attachments, err := readUploads(cfg, uploads, files)
	if err != nil {
		return err
	}
	handles := mentions.Extract(content)
	mentioned := directory.ResolveHandles(handles)
	if len(mentioned) == 0 {
		mentioned = handles
	}
	id, err := st.AddComment(ctx, store.AddCommentInput{
		CurrentUserID: cfg.CurrentUserID,
		ParentID:      parentID,
		Content:       content,
		Attachments:   attachments,
		Mentions:      mentioned,
	})
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func readUploads(cfg config.Config, uploads *upload.Service, files []string) ([]store.Attachment, error) {
	attachments := make([]store.Attachment, 0, len(files))
	for _, path := range files {
		a, err := uploads.FromFile(path, cfg.CurrentUserID)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, nil
}

func printThreads(st *store.Store) {
	now := time.Now()
	for _, root := range st.RootComments() {
		printTree(st, root, 0, now)
	}
}

// printTree hides deleted subtrees: the store keeps them, rendering skips
// them.
func printTree(st *store.Store, c store.Comment, depth int, now time.Time) {
	if c.IsDeleted {
		return
	}
	indent := strings.Repeat("  ", depth)
	line := fmt.Sprintf("%s%s  %s (%s): %s", indent, c.ID, c.AuthorID, dates.CompactISO(c.Timestamp, now), c.Content)
	if c.IsEdited {
		line += " (edited)"
	}
	if len(c.Attachments) > 0 {
		line += fmt.Sprintf(" [%d attachment(s)]", len(c.Attachments))
	}
	fmt.Println(line)
	if len(c.Reactions) > 0 {
		parts := make([]string, 0, len(c.Reactions))
		for emoji, members := range c.Reactions {
			parts = append(parts, fmt.Sprintf("%s %d", emoji, len(members)))
		}
		fmt.Printf("%s  %s\n", indent, strings.Join(parts, "  "))
	}
	for _, reply := range st.Replies(c.ID) {
		printTree(st, reply, depth+1, now)
	}
}

func openGateway(cfg config.Config) (store.Gateway, func(), error) {
	switch cfg.Storage {
	case "file":
		return persist.NewFile(cfg.SnapshotPath), func() {}, nil
	case "redis":
		gateway, err := persist.NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return gateway, func() { gateway.Close() }, nil
	case "git":
		return history.New(cfg.HistoryDir, cfg.CurrentUserID), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

// loadDirectory reads an optional users.json next to the snapshot; without
// one, mention handles pass through unresolved.
func loadDirectory(cfg config.Config) *users.Directory {
	data, err := os.ReadFile(cfg.DataDir + "/users.json")
	if err != nil {
		return users.NewDirectory(nil)
	}
	var payload struct {
		Users []users.User `json:"users"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Printf("WARNING: ignoring malformed users.json: %v", err)
		return users.NewDirectory(nil)
	}
	return users.NewDirectory(payload.Users)
}
