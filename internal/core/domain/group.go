package domain

import (
	"fmt"
	"sort"
)

// Well-known group record keys.
const (
	// FieldEmail is the group's email address, the registry key.
	FieldEmail = "email"
	// FieldMembers is reserved for membership, which is held in Group.Members.
	FieldMembers = "members"
	// FieldAliases is the list-valued alias field.
	FieldAliases = "aliases"
)

// MemberColumns is the fixed column order of a membership export.
var MemberColumns = []string{"kind", "id", "email", "role", "type", "status", "etag"}

// Member is one entry of a group's membership list.
type Member struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	Status string `json:"status"`
	// Etag is absent for some member kinds.
	Etag string `json:"etag,omitempty"`
}

// Row returns the member's values in MemberColumns order.
func (m Member) Row() []string {
	return []string{m.Kind, m.ID, m.Email, m.Role, m.Type, m.Status, m.Etag}
}

// Group is a directory group record.
//
// Fields start as whatever the directory listing returned and are enriched
// in place by settings lookups. Members is nil until membership is fetched.
type Group struct {
	Fields  map[string]any
	Members []Member
}

// NewGroup creates a group from a raw directory record.
// The record is copied; a "members" key is dropped.
func NewGroup(fields map[string]any) *Group {
	g := &Group{Fields: make(map[string]any, len(fields))}
	g.Merge(fields)
	return g
}

// Email returns the group's email address, or "" if the record has none.
func (g *Group) Email() string {
	email, _ := g.Fields[FieldEmail].(string)
	return email
}

// Merge folds fields into the record by key union.
// Existing keys are overwritten, except the email once set: it is the
// registry key and names the group's files. Membership is never touched.
func (g *Group) Merge(fields map[string]any) {
	for k, v := range fields {
		switch k {
		case FieldMembers:
			continue
		case FieldEmail:
			if g.Email() != "" {
				continue
			}
		}
		g.Fields[k] = v
	}
}

// SetMembers attaches the group's membership list.
// A nil list is stored as empty so the group reads as fetched.
func (g *Group) SetMembers(members []Member) {
	if members == nil {
		members = []Member{}
	}
	g.Members = members
}

// MembersFetched returns true once SetMembers has been called.
func (g *Group) MembersFetched() bool {
	return g.Members != nil
}

// Registry maps group email to group record.
// Groups are only ever added or enriched, never removed.
type Registry struct {
	groups map[string]*Group
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]*Group)}
}

// Add inserts a group keyed by its email.
// If the key is already present the new fields are merged into the existing record.
func (r *Registry) Add(g *Group) error {
	email := g.Email()
	if email == "" {
		return fmt.Errorf("%w: group record has no email", ErrInvalidInput)
	}
	if existing, ok := r.groups[email]; ok {
		existing.Merge(g.Fields)
		return nil
	}
	r.groups[email] = g
	return nil
}

// Get returns the group with the given email.
func (r *Registry) Get(email string) (*Group, bool) {
	g, ok := r.groups[email]
	return g, ok
}

// Len returns the number of groups.
func (r *Registry) Len() int {
	return len(r.groups)
}

// Emails returns all group keys in lexicographic order.
func (r *Registry) Emails() []string {
	emails := make([]string, 0, len(r.groups))
	for email := range r.groups {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails
}

// Groups returns all groups ordered by email.
func (r *Registry) Groups() []*Group {
	emails := r.Emails()
	groups := make([]*Group, 0, len(emails))
	for _, email := range emails {
		groups = append(groups, r.groups[email])
	}
	return groups
}

// MemberCount returns the total number of member records across all groups.
func (r *Registry) MemberCount() int {
	n := 0
	for _, g := range r.groups {
		n += len(g.Members)
	}
	return n
}
