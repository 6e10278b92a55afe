package domain

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/mintgate/internal/chain"
	"github.com/roach88/mintgate/internal/query"
)

// Service answers domain queries from fixtures. It implements
// query.Channel, so it can be handed to the host directly or served over
// gRPC.
type Service struct {
	mu       sync.RWMutex
	fixtures *Fixtures
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service over f. A nil f answers every lookup with
// NOT_FOUND and every list with an empty page.
func NewService(f *Fixtures, opts ...Option) *Service {
	if f == nil {
		f = &Fixtures{}
	}
	s := &Service{fixtures: f, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Replace swaps the fixtures the service answers from.
func (s *Service) Replace(f *Fixtures) {
	if f == nil {
		f = &Fixtures{}
	}
	s.mu.Lock()
	s.fixtures = f
	s.mu.Unlock()
}

// QueryRaw decodes a request in either envelope shape, answers it and
// returns the JSON response.
func (s *Service) QueryRaw(ctx context.Context, request []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, chain.TransportError(err, "domain query")
	}
	env, err := query.Decode(request)
	if err != nil {
		return nil, err
	}
	req := env.Request

	s.mu.RLock()
	f := s.fixtures
	s.mu.RUnlock()

	resp, err := answer(f, req)
	if err != nil {
		s.logger.Debug("domain query refused", "route", req.Route(), "op", req.Op(), "shape", env.Shape, "error", err)
		return nil, err
	}
	s.logger.Debug("domain query", "route", req.Route(), "op", req.Op(), "shape", env.Shape)

	out, err := json.Marshal(resp)
	if err != nil {
		return nil, chain.TransportError(err, "encode %s/%s response", req.Route(), req.Op())
	}
	return out, nil
}

func answer(f *Fixtures, req query.Request) (any, error) {
	switch r := req.(type) {
	case query.ProfileRequest:
		return f.profile(r)
	case query.IncomingDtagTransferRequestsRequest:
		items, page, err := paginate(filter(f.DtagTransferRequests, func(d query.DtagTransferRequest) bool {
			return d.Receiver == r.Receiver
		}), r.Pagination)
		return query.IncomingDtagTransferRequestsResponse{Requests: items, Pagination: page}, err
	case query.ChainLinksRequest:
		items, page, err := paginate(filter(f.ChainLinks, func(l query.ChainLink) bool {
			return r.User.IsEmpty() || l.User == r.User
		}), r.Pagination)
		return query.ChainLinksResponse{Links: items, Pagination: page}, err
	case query.UserChainLinkRequest:
		return f.userChainLink(r)
	case query.AppLinksRequest:
		items, page, err := paginate(filter(f.AppLinks, func(l query.ApplicationLink) bool {
			return r.User.IsEmpty() || l.User == r.User
		}), r.Pagination)
		return query.AppLinksResponse{Links: items, Pagination: page}, err
	case query.UserAppLinksRequest:
		return f.userAppLink(r)
	case query.ApplicationLinkByClientIDRequest:
		return f.appLinkByClientID(r)
	case query.RelationshipsRequest:
		items, page, err := paginate(filter(f.Relationships, func(rel query.Relationship) bool {
			return rel.SubspaceID == r.SubspaceID &&
				(r.User.IsEmpty() || rel.Creator == r.User) &&
				(r.Counterparty.IsEmpty() || rel.Recipient == r.Counterparty)
		}), r.Pagination)
		return query.RelationshipsResponse{Relationships: items, Pagination: page}, err
	case query.BlocksRequest:
		items, page, err := paginate(filter(f.Blocks, func(b query.UserBlock) bool {
			return b.SubspaceID == r.SubspaceID &&
				(r.Blocker.IsEmpty() || b.Blocker == r.Blocker) &&
				(r.Blocked.IsEmpty() || b.Blocked == r.Blocked)
		}), r.Pagination)
		return query.BlocksResponse{Blocks: items, Pagination: page}, err
	case query.SubspacesRequest:
		items, page, err := paginate(f.Subspaces, r.Pagination)
		return query.SubspacesResponse{Subspaces: items, Pagination: page}, err
	case query.SubspaceRequest:
		sub, err := f.subspace(r.SubspaceID)
		return query.SubspaceResponse{Subspace: sub}, err
	case query.UserGroupsRequest:
		if _, err := f.subspace(r.SubspaceID); err != nil {
			return nil, err
		}
		items, page, err := paginate(filter(f.UserGroups, func(g query.UserGroup) bool {
			return g.SubspaceID == r.SubspaceID
		}), r.Pagination)
		return query.UserGroupsResponse{Groups: items, Pagination: page}, err
	case query.UserGroupRequest:
		g, err := f.group(r.SubspaceID, r.GroupID)
		return query.UserGroupResponse{Group: g}, err
	case query.UserGroupMembersRequest:
		g, err := f.group(r.SubspaceID, r.GroupID)
		if err != nil {
			return nil, err
		}
		items, page, err := paginate(g.Members, r.Pagination)
		return query.UserGroupMembersResponse{Members: items, Pagination: page}, err
	case query.UserPermissionsRequest:
		return f.userPermissions(r)
	case query.PostsRequest:
		items, page, err := paginate(filter(f.Posts, func(p query.Post) bool {
			return r.SubspaceID == 0 || p.SubspaceID == r.SubspaceID
		}), r.Pagination)
		return query.PostsResponse{Posts: items, Pagination: page}, err
	case query.ReportsRequest:
		if err := f.requirePost(r.PostID); err != nil {
			return nil, err
		}
		return query.ReportsResponse{Reports: filter(f.Reports, func(rep query.Report) bool {
			return rep.PostID == r.PostID
		})}, nil
	case query.ReactionsRequest:
		if err := f.requirePost(r.PostID); err != nil {
			return nil, err
		}
		return query.ReactionsResponse{Reactions: filter(f.Reactions, func(re query.Reaction) bool {
			return re.PostID == r.PostID
		})}, nil
	default:
		return nil, chain.TransportError(nil, "unsupported operation %s/%s", req.Route(), req.Op())
	}
}

func (f *Fixtures) profile(r query.ProfileRequest) (query.ProfileResponse, error) {
	for _, p := range f.Profiles {
		if p.Account.Address == r.User {
			return query.ProfileResponse{Profile: p}, nil
		}
	}
	return query.ProfileResponse{}, chain.NotFoundError("profile with address %s not found", r.User).
		With("user", string(r.User))
}

func (f *Fixtures) userChainLink(r query.UserChainLinkRequest) (query.UserChainLinkResponse, error) {
	for _, l := range f.ChainLinks {
		if l.User == r.User && l.ChainConfig.Name == r.ChainName && l.Address.Value == r.Target {
			return query.UserChainLinkResponse{Link: l}, nil
		}
	}
	return query.UserChainLinkResponse{}, chain.NotFoundError("chain link for %s on %s to %s not found", r.User, r.ChainName, r.Target)
}

func (f *Fixtures) userAppLink(r query.UserAppLinksRequest) (query.UserAppLinkResponse, error) {
	for _, l := range f.AppLinks {
		if l.User == r.User && l.Data.Application == r.Application && l.Data.Username == r.Username {
			return query.UserAppLinkResponse{Link: l}, nil
		}
	}
	return query.UserAppLinkResponse{}, chain.NotFoundError("application link for %s on %s as %s not found", r.User, r.Application, r.Username)
}

func (f *Fixtures) appLinkByClientID(r query.ApplicationLinkByClientIDRequest) (query.ApplicationLinkByClientIDResponse, error) {
	for _, l := range f.AppLinks {
		if l.OracleRequest.ClientID == r.ClientID {
			return query.ApplicationLinkByClientIDResponse{Link: l}, nil
		}
	}
	return query.ApplicationLinkByClientIDResponse{}, chain.NotFoundError("application link with client id %s not found", r.ClientID)
}

func (f *Fixtures) subspace(id chain.Uint64) (query.Subspace, error) {
	for _, s := range f.Subspaces {
		if s.ID == id {
			return s, nil
		}
	}
	return query.Subspace{}, chain.NotFoundError("subspace %d not found", id)
}

func (f *Fixtures) group(subspaceID chain.Uint64, groupID uint32) (query.UserGroup, error) {
	if _, err := f.subspace(subspaceID); err != nil {
		return query.UserGroup{}, err
	}
	for _, g := range f.UserGroups {
		if g.SubspaceID == subspaceID && g.ID == groupID {
			return g, nil
		}
	}
	return query.UserGroup{}, chain.NotFoundError("group %d not found in subspace %d", groupID, subspaceID)
}

// userPermissions combines direct grants with the permissions of every
// group the user belongs to.
func (f *Fixtures) userPermissions(r query.UserPermissionsRequest) (query.UserPermissionsResponse, error) {
	if _, err := f.subspace(r.SubspaceID); err != nil {
		return query.UserPermissionsResponse{}, err
	}
	resp := query.UserPermissionsResponse{Details: []query.PermissionDetail{}}
	for _, p := range f.UserPermissions {
		if p.SubspaceID == r.SubspaceID && p.User == r.User {
			resp.Permissions |= p.Permissions
			resp.Details = append(resp.Details, query.PermissionDetail{Permission: p.Permissions})
		}
	}
	for _, g := range f.UserGroups {
		if g.SubspaceID == r.SubspaceID && slices.Contains(g.Members, r.User) {
			resp.Permissions |= g.Permissions
			resp.Details = append(resp.Details, query.PermissionDetail{GroupID: g.ID, Permission: g.Permissions})
		}
	}
	return resp, nil
}

func (f *Fixtures) requirePost(id string) error {
	for _, p := range f.Posts {
		if p.ID == id {
			return nil
		}
	}
	return chain.NotFoundError("post %s not found", id)
}
