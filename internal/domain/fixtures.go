package domain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mintgate/internal/chain"
	"github.com/roach88/mintgate/internal/query"
)

// UserPermission is a permission granted to a user directly, outside any
// group.
type UserPermission struct {
	SubspaceID  chain.Uint64 `yaml:"subspace_id"`
	User        chain.Addr   `yaml:"user"`
	Permissions uint32       `yaml:"permissions"`
}

// Fixtures is the data the service answers from. Slice order is the
// iteration order of list operations.
type Fixtures struct {
	Profiles             []query.Profile             `yaml:"profiles"`
	DtagTransferRequests []query.DtagTransferRequest `yaml:"dtag_transfer_requests"`
	ChainLinks           []query.ChainLink           `yaml:"chain_links"`
	AppLinks             []query.ApplicationLink     `yaml:"app_links"`
	Relationships        []query.Relationship        `yaml:"relationships"`
	Blocks               []query.UserBlock           `yaml:"blocks"`
	Subspaces            []query.Subspace            `yaml:"subspaces"`
	UserGroups           []query.UserGroup           `yaml:"user_groups"`
	UserPermissions      []UserPermission            `yaml:"user_permissions"`
	Posts                []query.Post                `yaml:"posts"`
	Reports              []query.Report              `yaml:"reports"`
	Reactions            []query.Reaction            `yaml:"reactions"`
}

// LoadFixtures reads fixtures from a YAML file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	f, err := ParseFixtures(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ParseFixtures decodes and validates YAML fixtures.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Merge returns f with o's entries appended. Neither input is modified.
func (f *Fixtures) Merge(o *Fixtures) *Fixtures {
	out := &Fixtures{}
	for _, src := range []*Fixtures{f, o} {
		if src == nil {
			continue
		}
		out.Profiles = append(out.Profiles, src.Profiles...)
		out.DtagTransferRequests = append(out.DtagTransferRequests, src.DtagTransferRequests...)
		out.ChainLinks = append(out.ChainLinks, src.ChainLinks...)
		out.AppLinks = append(out.AppLinks, src.AppLinks...)
		out.Relationships = append(out.Relationships, src.Relationships...)
		out.Blocks = append(out.Blocks, src.Blocks...)
		out.Subspaces = append(out.Subspaces, src.Subspaces...)
		out.UserGroups = append(out.UserGroups, src.UserGroups...)
		out.UserPermissions = append(out.UserPermissions, src.UserPermissions...)
		out.Posts = append(out.Posts, src.Posts...)
		out.Reports = append(out.Reports, src.Reports...)
		out.Reactions = append(out.Reactions, src.Reactions...)
	}
	return out
}

// Validate checks the fixtures for duplicate keys.
func (f *Fixtures) Validate() error {
	profiles := make(map[chain.Addr]bool)
	for i, p := range f.Profiles {
		addr := p.Account.Address
		if addr.IsEmpty() {
			return fmt.Errorf("profiles[%d]: account address is required", i)
		}
		if profiles[addr] {
			return fmt.Errorf("profiles[%d]: duplicate profile %s", i, addr)
		}
		profiles[addr] = true
	}

	subspaces := make(map[chain.Uint64]bool)
	for i, s := range f.Subspaces {
		if s.ID == 0 {
			return fmt.Errorf("subspaces[%d]: id must be positive", i)
		}
		if subspaces[s.ID] {
			return fmt.Errorf("subspaces[%d]: duplicate subspace %d", i, s.ID)
		}
		subspaces[s.ID] = true
	}

	type groupKey struct {
		subspace chain.Uint64
		id       uint32
	}
	groups := make(map[groupKey]bool)
	for i, g := range f.UserGroups {
		if !subspaces[g.SubspaceID] {
			return fmt.Errorf("user_groups[%d]: unknown subspace %d", i, g.SubspaceID)
		}
		k := groupKey{g.SubspaceID, g.ID}
		if groups[k] {
			return fmt.Errorf("user_groups[%d]: duplicate group %d in subspace %d", i, g.ID, g.SubspaceID)
		}
		groups[k] = true
	}

	posts := make(map[string]bool)
	for i, p := range f.Posts {
		if p.ID == "" {
			return fmt.Errorf("posts[%d]: id is required", i)
		}
		if posts[p.ID] {
			return fmt.Errorf("posts[%d]: duplicate post %s", i, p.ID)
		}
		posts[p.ID] = true
	}
	return nil
}
