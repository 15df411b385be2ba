// Package users is a small local user directory backing mention lookup.
package users

import (
	"sort"
	"strings"
)

type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

type Directory struct {
	users map[string]User
}

func NewDirectory(users []User) *Directory {
	d := &Directory{users: make(map[string]User, len(users))}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *Directory) Get(id string) (User, bool) {
	u, ok := d.users[id]
	return u, ok
}

// Search matches the query against usernames and display names,
// case-insensitively, ordered by username. An empty query matches nobody.
func (d *Directory) Search(query string) []User {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	out := make([]User, 0)
	for _, u := range d.users {
		if strings.Contains(strings.ToLower(u.Username), query) ||
			strings.Contains(strings.ToLower(u.DisplayName), query) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// ResolveHandles maps extracted mention handles to user ids, dropping
// handles no directory entry matches.
func (d *Directory) ResolveHandles(handles []string) []string {
	ids := make([]string, 0, len(handles))
	for _, handle := range handles {
		for _, u := range d.users {
			if strings.EqualFold(u.Username, handle) {
				ids = append(ids, u.ID)
				break
			}
		}
	}
	return ids
}
