package query

import "github.com/roach88/mintgate/internal/chain"

// Request is a typed query: one operation of one route with its parameters.
//
// This is a sealed interface - only types in this package implement it.
// The JSON encoding of a Request value is its parameter object.
type Request interface {
	Route() Route
	Op() string
	queryRequest()
}

// Operation names.
const (
	OpProfile                      = "profile"
	OpIncomingDtagTransferRequests = "incoming_dtag_transfer_requests"
	OpChainLinks                   = "chain_links"
	OpUserChainLink                = "user_chain_link"
	OpAppLinks                     = "app_links"
	OpUserAppLinks                 = "user_app_links"
	OpApplicationLinkByClientID    = "application_link_by_client_id"
	OpRelationships                = "relationships"
	OpBlocks                       = "blocks"
	OpSubspaces                    = "subspaces"
	OpSubspace                     = "subspace"
	OpUserGroups                   = "user_groups"
	OpUserGroup                    = "user_group"
	OpUserGroupMembers             = "user_group_members"
	OpUserPermissions              = "user_permissions"
	OpPosts                        = "posts"
	OpReports                      = "reports"
	OpReactions                    = "reactions"
)

// profiles

type ProfileRequest struct {
	User chain.Addr `json:"user"`
}

type IncomingDtagTransferRequestsRequest struct {
	Receiver   chain.Addr   `json:"receiver"`
	Pagination *PageRequest `json:"pagination,omitempty"`
}

type ChainLinksRequest struct {
	User       chain.Addr   `json:"user"`
	Pagination *PageRequest `json:"pagination,omitempty"`
}

type UserChainLinkRequest struct {
	User      chain.Addr `json:"user"`
	ChainName string     `json:"chain_name"`
	Target    string     `json:"target"`
}

type AppLinksRequest struct {
	User       chain.Addr   `json:"user"`
	Pagination *PageRequest `json:"pagination,omitempty"`
}

type UserAppLinksRequest struct {
	User        chain.Addr `json:"user"`
	Application string     `json:"application"`
	Username    string     `json:"username"`
}

type ApplicationLinkByClientIDRequest struct {
	ClientID string `json:"client_id"`
}

// relationships

// RelationshipsRequest lists relationships in a subspace, optionally
// filtered by creator and counterparty.
type RelationshipsRequest struct {
	User         chain.Addr   `json:"user,omitempty"`
	Counterparty chain.Addr   `json:"counterparty,omitempty"`
	SubspaceID   chain.Uint64 `json:"subspace_id"`
	Pagination   *PageRequest `json:"pagination,omitempty"`
}

// BlocksRequest lists blocks in a subspace, optionally filtered by either side.
type BlocksRequest struct {
	Blocker    chain.Addr   `json:"blocker,omitempty"`
	Blocked    chain.Addr   `json:"blocked,omitempty"`
	SubspaceID chain.Uint64 `json:"subspace_id"`
	Pagination *PageRequest `json:"pagination,omitempty"`
}

// subspaces

type SubspacesRequest struct {
	Pagination *PageRequest `json:"pagination,omitempty"`
}

type SubspaceRequest struct {
	SubspaceID chain.Uint64 `json:"subspace_id"`
}

type UserGroupsRequest struct {
	SubspaceID chain.Uint64 `json:"subspace_id"`
	Pagination *PageRequest `json:"pagination,omitempty"`
}

type UserGroupRequest struct {
	SubspaceID chain.Uint64 `json:"subspace_id"`
	GroupID    uint32       `json:"group_id"`
}

type UserGroupMembersRequest struct {
	SubspaceID chain.Uint64 `json:"subspace_id"`
	GroupID    uint32       `json:"group_id"`
	Pagination *PageRequest `json:"pagination,omitempty"`
}

type UserPermissionsRequest struct {
	SubspaceID chain.Uint64 `json:"subspace_id"`
	User       chain.Addr   `json:"user"`
}

// posts

type PostsRequest struct {
	SubspaceID chain.Uint64 `json:"subspace_id,omitempty"`
	Pagination *PageRequest `json:"pagination,omitempty"`
}

type ReportsRequest struct {
	PostID string `json:"post_id"`
}

type ReactionsRequest struct {
	PostID string `json:"post_id"`
}

func (ProfileRequest) Route() Route { return RouteProfiles }
func (IncomingDtagTransferRequestsRequest) Route() Route { return RouteProfiles }
func (ChainLinksRequest) Route() Route { return RouteProfiles }
func (UserChainLinkRequest) Route() Route { return RouteProfiles }
func (AppLinksRequest) Route() Route { return RouteProfiles }
func (UserAppLinksRequest) Route() Route { return RouteProfiles }
func (ApplicationLinkByClientIDRequest) Route() Route { return RouteProfiles }
func (RelationshipsRequest) Route() Route { return RouteRelationships }
func (BlocksRequest) Route() Route { return RouteRelationships }
func (SubspacesRequest) Route() Route { return RouteSubspaces }
func (SubspaceRequest) Route() Route { return RouteSubspaces }
func (UserGroupsRequest) Route() Route { return RouteSubspaces }
func (UserGroupRequest) Route() Route { return RouteSubspaces }
func (UserGroupMembersRequest) Route() Route { return RouteSubspaces }
func (UserPermissionsRequest) Route() Route { return RouteSubspaces }
func (PostsRequest) Route() Route { return RoutePosts }
func (ReportsRequest) Route() Route { return RoutePosts }
func (ReactionsRequest) Route() Route { return RoutePosts }

func (ProfileRequest) Op() string { return OpProfile }
func (IncomingDtagTransferRequestsRequest) Op() string { return OpIncomingDtagTransferRequests }
func (ChainLinksRequest) Op() string { return OpChainLinks }
func (UserChainLinkRequest) Op() string { return OpUserChainLink }
func (AppLinksRequest) Op() string { return OpAppLinks }
func (UserAppLinksRequest) Op() string { return OpUserAppLinks }
func (ApplicationLinkByClientIDRequest) Op() string { return OpApplicationLinkByClientID }
func (RelationshipsRequest) Op() string { return OpRelationships }
func (BlocksRequest) Op() string { return OpBlocks }
func (SubspacesRequest) Op() string { return OpSubspaces }
func (SubspaceRequest) Op() string { return OpSubspace }
func (UserGroupsRequest) Op() string { return OpUserGroups }
func (UserGroupRequest) Op() string { return OpUserGroup }
func (UserGroupMembersRequest) Op() string { return OpUserGroupMembers }
func (UserPermissionsRequest) Op() string { return OpUserPermissions }
func (PostsRequest) Op() string { return OpPosts }
func (ReportsRequest) Op() string { return OpReports }
func (ReactionsRequest) Op() string { return OpReactions }

func (ProfileRequest) queryRequest() {}
func (IncomingDtagTransferRequestsRequest) queryRequest() {}
func (ChainLinksRequest) queryRequest() {}
func (UserChainLinkRequest) queryRequest() {}
func (AppLinksRequest) queryRequest() {}
func (UserAppLinksRequest) queryRequest() {}
func (ApplicationLinkByClientIDRequest) queryRequest() {}
func (RelationshipsRequest) queryRequest() {}
func (BlocksRequest) queryRequest() {}
func (SubspacesRequest) queryRequest() {}
func (SubspaceRequest) queryRequest() {}
func (UserGroupsRequest) queryRequest() {}
func (UserGroupRequest) queryRequest() {}
func (UserGroupMembersRequest) queryRequest() {}
func (UserPermissionsRequest) queryRequest() {}
func (PostsRequest) queryRequest() {}
func (ReportsRequest) queryRequest() {}
func (ReactionsRequest) queryRequest() {}

// Responses.

type ProfileResponse struct {
	Profile Profile `json:"profile"`
}

type IncomingDtagTransferRequestsResponse struct {
	Requests   []DtagTransferRequest `json:"requests"`
	Pagination *PageResponse         `json:"pagination,omitempty"`
}

type ChainLinksResponse struct {
	Links      []ChainLink   `json:"links"`
	Pagination *PageResponse `json:"pagination,omitempty"`
}

type UserChainLinkResponse struct {
	Link ChainLink `json:"link"`
}

type AppLinksResponse struct {
	Links      []ApplicationLink `json:"links"`
	Pagination *PageResponse     `json:"pagination,omitempty"`
}

type UserAppLinkResponse struct {
	Link ApplicationLink `json:"link"`
}

type ApplicationLinkByClientIDResponse struct {
	Link ApplicationLink `json:"link"`
}

type RelationshipsResponse struct {
	Relationships []Relationship `json:"relationships"`
	Pagination    *PageResponse  `json:"pagination,omitempty"`
}

type BlocksResponse struct {
	Blocks     []UserBlock   `json:"blocks"`
	Pagination *PageResponse `json:"pagination,omitempty"`
}

type SubspacesResponse struct {
	Subspaces  []Subspace    `json:"subspaces"`
	Pagination *PageResponse `json:"pagination,omitempty"`
}

type SubspaceResponse struct {
	Subspace Subspace `json:"subspace"`
}

type UserGroupsResponse struct {
	Groups     []UserGroup   `json:"groups"`
	Pagination *PageResponse `json:"pagination,omitempty"`
}

type UserGroupResponse struct {
	Group UserGroup `json:"group"`
}

type UserGroupMembersResponse struct {
	Members    []chain.Addr  `json:"members"`
	Pagination *PageResponse `json:"pagination,omitempty"`
}

type UserPermissionsResponse struct {
	Permissions uint32             `json:"permissions"`
	Details     []PermissionDetail `json:"details"`
}

type PostsResponse struct {
	Posts      []Post        `json:"posts"`
	Pagination *PageResponse `json:"pagination,omitempty"`
}

type ReportsResponse struct {
	Reports []Report `json:"reports"`
}

type ReactionsResponse struct {
	Reactions []Reaction `json:"reactions"`
}
