package query

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/mintgate/internal/chain"
)

// Channel is the synchronous query channel the host exposes.
// chain.Querier satisfies it.
type Channel interface {
	QueryRaw(ctx context.Context, request []byte) ([]byte, error)
}

// Router encodes typed requests, sends them through a Channel and decodes
// typed responses.
type Router struct {
	ch     Channel
	shape  Shape
	logger *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithShape forces every request into one wire shape.
// The default, ShapeAuto, uses each route's native shape.
func WithShape(s Shape) Option {
	return func(r *Router) { r.shape = s }
}

// WithLogger sets the router's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// NewRouter creates a Router over ch.
func NewRouter(ch Channel, opts ...Option) *Router {
	r := &Router{ch: ch, shape: ShapeAuto, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do sends req and strictly decodes the response into out.
//
// Channel and decoding failures are TRANSPORT errors. A failure that
// already carries a chain error code (e.g. NOT_FOUND from the domain
// service) keeps that code.
func (r *Router) Do(ctx context.Context, req Request, out any) error {
	if req == nil {
		return chain.TransportError(nil, "query: nil request")
	}
	if r.ch == nil {
		return chain.TransportError(nil, "query %s/%s: no channel", req.Route(), req.Op())
	}
	raw, err := Encode(NewEnvelope(req, r.shape))
	if err != nil {
		return err
	}

	r.logger.Debug("domain query", "route", req.Route(), "op", req.Op(), "shape", r.shape.resolve(req.Route()))

	resp, err := r.ch.QueryRaw(ctx, raw)
	if err != nil {
		var ce *chain.Error
		if errors.As(err, &ce) {
			return err
		}
		return chain.TransportError(err, "query %s/%s", req.Route(), req.Op())
	}
	return DecodeResponse(resp, out)
}

func do[T any](ctx context.Context, r *Router, req Request) (T, error) {
	var out T
	err := r.Do(ctx, req, &out)
	return out, err
}

// ProfilesQuerier runs profiles route operations.
type ProfilesQuerier struct{ r *Router }

// NewProfilesQuerier creates a ProfilesQuerier.
func NewProfilesQuerier(r *Router) ProfilesQuerier { return ProfilesQuerier{r: r} }

func (q ProfilesQuerier) Profile(ctx context.Context, user chain.Addr) (ProfileResponse, error) {
	return do[ProfileResponse](ctx, q.r, ProfileRequest{User: user})
}

func (q ProfilesQuerier) IncomingDtagTransferRequests(ctx context.Context, receiver chain.Addr, page *PageRequest) (IncomingDtagTransferRequestsResponse, error) {
	return do[IncomingDtagTransferRequestsResponse](ctx, q.r, IncomingDtagTransferRequestsRequest{Receiver: receiver, Pagination: page})
}

func (q ProfilesQuerier) ChainLinks(ctx context.Context, user chain.Addr, page *PageRequest) (ChainLinksResponse, error) {
	return do[ChainLinksResponse](ctx, q.r, ChainLinksRequest{User: user, Pagination: page})
}

func (q ProfilesQuerier) UserChainLink(ctx context.Context, user chain.Addr, chainName, target string) (UserChainLinkResponse, error) {
	return do[UserChainLinkResponse](ctx, q.r, UserChainLinkRequest{User: user, ChainName: chainName, Target: target})
}

func (q ProfilesQuerier) AppLinks(ctx context.Context, user chain.Addr, page *PageRequest) (AppLinksResponse, error) {
	return do[AppLinksResponse](ctx, q.r, AppLinksRequest{User: user, Pagination: page})
}

func (q ProfilesQuerier) UserAppLinks(ctx context.Context, user chain.Addr, application, username string) (UserAppLinkResponse, error) {
	return do[UserAppLinkResponse](ctx, q.r, UserAppLinksRequest{User: user, Application: application, Username: username})
}

func (q ProfilesQuerier) ApplicationLinkByClientID(ctx context.Context, clientID string) (ApplicationLinkByClientIDResponse, error) {
	return do[ApplicationLinkByClientIDResponse](ctx, q.r, ApplicationLinkByClientIDRequest{ClientID: clientID})
}

// RelationshipsQuerier runs relationships route operations.
type RelationshipsQuerier struct{ r *Router }

// NewRelationshipsQuerier creates a RelationshipsQuerier.
func NewRelationshipsQuerier(r *Router) RelationshipsQuerier { return RelationshipsQuerier{r: r} }

func (q RelationshipsQuerier) Relationships(ctx context.Context, req RelationshipsRequest) (RelationshipsResponse, error) {
	return do[RelationshipsResponse](ctx, q.r, req)
}

func (q RelationshipsQuerier) Blocks(ctx context.Context, req BlocksRequest) (BlocksResponse, error) {
	return do[BlocksResponse](ctx, q.r, req)
}

// SubspacesQuerier runs subspaces route operations.
type SubspacesQuerier struct{ r *Router }

// NewSubspacesQuerier creates a SubspacesQuerier.
func NewSubspacesQuerier(r *Router) SubspacesQuerier { return SubspacesQuerier{r: r} }

func (q SubspacesQuerier) Subspaces(ctx context.Context, page *PageRequest) (SubspacesResponse, error) {
	return do[SubspacesResponse](ctx, q.r, SubspacesRequest{Pagination: page})
}

func (q SubspacesQuerier) Subspace(ctx context.Context, id uint64) (SubspaceResponse, error) {
	return do[SubspaceResponse](ctx, q.r, SubspaceRequest{SubspaceID: chain.Uint64(id)})
}

func (q SubspacesQuerier) UserGroups(ctx context.Context, subspaceID uint64, page *PageRequest) (UserGroupsResponse, error) {
	return do[UserGroupsResponse](ctx, q.r, UserGroupsRequest{SubspaceID: chain.Uint64(subspaceID), Pagination: page})
}

func (q SubspacesQuerier) UserGroup(ctx context.Context, subspaceID uint64, groupID uint32) (UserGroupResponse, error) {
	return do[UserGroupResponse](ctx, q.r, UserGroupRequest{SubspaceID: chain.Uint64(subspaceID), GroupID: groupID})
}

func (q SubspacesQuerier) UserGroupMembers(ctx context.Context, subspaceID uint64, groupID uint32, page *PageRequest) (UserGroupMembersResponse, error) {
	return do[UserGroupMembersResponse](ctx, q.r, UserGroupMembersRequest{SubspaceID: chain.Uint64(subspaceID), GroupID: groupID, Pagination: page})
}

func (q SubspacesQuerier) UserPermissions(ctx context.Context, subspaceID uint64, user chain.Addr) (UserPermissionsResponse, error) {
	return do[UserPermissionsResponse](ctx, q.r, UserPermissionsRequest{SubspaceID: chain.Uint64(subspaceID), User: user})
}

// PostsQuerier runs posts route operations.
type PostsQuerier struct{ r *Router }

// NewPostsQuerier creates a PostsQuerier.
func NewPostsQuerier(r *Router) PostsQuerier { return PostsQuerier{r: r} }

func (q PostsQuerier) Posts(ctx context.Context, subspaceID uint64, page *PageRequest) (PostsResponse, error) {
	return do[PostsResponse](ctx, q.r, PostsRequest{SubspaceID: chain.Uint64(subspaceID), Pagination: page})
}

func (q PostsQuerier) Reports(ctx context.Context, postID string) (ReportsResponse, error) {
	return do[ReportsResponse](ctx, q.r, ReportsRequest{PostID: postID})
}

func (q PostsQuerier) Reactions(ctx context.Context, postID string) (ReactionsResponse, error) {
	return do[ReactionsResponse](ctx, q.r, ReactionsRequest{PostID: postID})
}
