package query

import "github.com/roach88/mintgate/internal/chain"

// PageRequest selects a page of a list operation.
type PageRequest struct {
	// Key is the opaque cursor returned as NextKey by the previous page.
	// An empty key is the same as no key and is left off the wire.
	Key        []byte       `json:"key,omitempty"`
	Offset     chain.Uint64 `json:"offset"`
	Limit      chain.Uint64 `json:"limit"`
	CountTotal bool         `json:"count_total"`
	Reverse    bool         `json:"reverse"`
}

// PageResponse describes the position after a page.
type PageResponse struct {
	NextKey []byte        `json:"next_key,omitempty"`
	Total   *chain.Uint64 `json:"total,omitempty"`
}

// PubKey is an account public key.
type PubKey struct {
	Type string `json:"type" yaml:"type"`
	Key  string `json:"key" yaml:"key"`
}

// Account is the chain account behind a profile.
type Account struct {
	Type          string     `json:"type" yaml:"type"`
	Address       chain.Addr `json:"address" yaml:"address"`
	PubKey        PubKey     `json:"pub_key" yaml:"pub_key"`
	AccountNumber string     `json:"account_number" yaml:"account_number"`
	Sequence      string     `json:"sequence" yaml:"sequence"`
}

// Pictures holds profile image URIs.
type Pictures struct {
	Profile string `json:"profile" yaml:"profile"`
	Cover   string `json:"cover" yaml:"cover"`
}

// Profile is the identity record of an account.
type Profile struct {
	Account      Account  `json:"account" yaml:"account"`
	DTag         string   `json:"dtag" yaml:"dtag"`
	Nickname     string   `json:"nickname" yaml:"nickname"`
	Bio          string   `json:"bio" yaml:"bio"`
	Pictures     Pictures `json:"pictures" yaml:"pictures"`
	CreationDate string   `json:"creation_date" yaml:"creation_date"`
}

// DtagTransferRequest asks a user to hand over their dtag.
type DtagTransferRequest struct {
	DtagToTrade string     `json:"dtag_to_trade" yaml:"dtag_to_trade"`
	Sender      chain.Addr `json:"sender" yaml:"sender"`
	Receiver    chain.Addr `json:"receiver" yaml:"receiver"`
}

// ChainLinkAddr is an external chain address.
type ChainLinkAddr struct {
	Value  string `json:"value" yaml:"value"`
	Prefix string `json:"prefix" yaml:"prefix"`
}

// ChainConfig names the linked chain.
type ChainConfig struct {
	Name string `json:"name" yaml:"name"`
}

// ChainLink connects a profile to an address on another chain.
type ChainLink struct {
	User         chain.Addr    `json:"user" yaml:"user"`
	Address      ChainLinkAddr `json:"address" yaml:"address"`
	ChainConfig  ChainConfig   `json:"chain_config" yaml:"chain_config"`
	CreationTime string        `json:"creation_time" yaml:"creation_time"`
}

// AppLinkData names the linked application account.
type AppLinkData struct {
	Application string `json:"application" yaml:"application"`
	Username    string `json:"username" yaml:"username"`
}

// OracleRequest is the verification request behind an application link.
type OracleRequest struct {
	ID       chain.Uint64 `json:"id" yaml:"id"`
	ClientID string       `json:"client_id" yaml:"client_id"`
}

// ApplicationLink connects a profile to an external application account.
type ApplicationLink struct {
	User          chain.Addr    `json:"user" yaml:"user"`
	Data          AppLinkData   `json:"data" yaml:"data"`
	State         string        `json:"state" yaml:"state"`
	OracleRequest OracleRequest `json:"oracle_request" yaml:"oracle_request"`
	CreationTime  string        `json:"creation_time" yaml:"creation_time"`
}

// Relationship is a directed link between two users inside a subspace.
type Relationship struct {
	Creator    chain.Addr   `json:"creator" yaml:"creator"`
	Recipient  chain.Addr   `json:"recipient" yaml:"recipient"`
	SubspaceID chain.Uint64 `json:"subspace_id" yaml:"subspace_id"`
}

// UserBlock records that one user blocked another inside a subspace.
type UserBlock struct {
	Blocker    chain.Addr   `json:"blocker" yaml:"blocker"`
	Blocked    chain.Addr   `json:"blocked" yaml:"blocked"`
	Reason     string       `json:"reason" yaml:"reason"`
	SubspaceID chain.Uint64 `json:"subspace_id" yaml:"subspace_id"`
}

// Subspace is a namespace owning groups and posts.
type Subspace struct {
	ID           chain.Uint64    `json:"id" yaml:"id"`
	Name         string          `json:"name" yaml:"name"`
	Description  string          `json:"description" yaml:"description"`
	Treasury     chain.Addr      `json:"treasury" yaml:"treasury"`
	Owner        chain.Addr      `json:"owner" yaml:"owner"`
	Creator      chain.Addr      `json:"creator" yaml:"creator"`
	CreationTime chain.Timestamp `json:"creation_time" yaml:"creation_time"`
}

// UserGroup is a permission group inside a subspace.
type UserGroup struct {
	SubspaceID  chain.Uint64 `json:"subspace_id" yaml:"subspace_id"`
	ID          uint32       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description" yaml:"description"`
	Permissions uint32       `json:"permissions" yaml:"permissions"`
	Members     []chain.Addr `json:"-" yaml:"members"`
}

// PermissionDetail explains where part of a user's permissions come from.
// GroupID is zero for permissions granted to the user directly.
type PermissionDetail struct {
	GroupID    uint32 `json:"group_id"`
	Permission uint32 `json:"permission"`
}

// Post is a piece of content inside a subspace.
type Post struct {
	ID           string       `json:"id" yaml:"id"`
	SubspaceID   chain.Uint64 `json:"subspace_id" yaml:"subspace_id"`
	Author       chain.Addr   `json:"author" yaml:"author"`
	Text         string       `json:"text" yaml:"text"`
	CreationTime string       `json:"creation_time" yaml:"creation_time"`
}

// Report flags a post.
type Report struct {
	PostID   string     `json:"post_id" yaml:"post_id"`
	Reporter chain.Addr `json:"reporter" yaml:"reporter"`
	Reason   string     `json:"reason" yaml:"reason"`
}

// Reaction is a user's reaction to a post.
type Reaction struct {
	PostID string     `json:"post_id" yaml:"post_id"`
	Owner  chain.Addr `json:"owner" yaml:"owner"`
	Value  string     `json:"value" yaml:"value"`
}
