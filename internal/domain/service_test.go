package domain

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mintgate/internal/chain"
	"github.com/roach88/mintgate/internal/query"
	"github.com/roach88/mintgate/internal/testutil"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	f, err := LoadFixtures("testdata/fixtures.yaml")
	require.NoError(t, err)
	return NewService(f, WithLogger(testutil.DiscardLogger()))
}

func newRouter(s *Service, shape query.Shape) *query.Router {
	return query.NewRouter(s, query.WithShape(shape), query.WithLogger(testutil.DiscardLogger()))
}

func TestService_Profile_BothShapes(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for _, shape := range []query.Shape{query.ShapeAuto, query.ShapeAdjacent, query.ShapeWrapped} {
		t.Run(string(shape), func(t *testing.T) {
			resp, err := query.NewProfilesQuerier(newRouter(s, shape)).Profile(ctx, "user")
			require.NoError(t, err)
			assert.Equal(t, chain.Addr("user"), resp.Profile.Account.Address)
			assert.Equal(t, "user", resp.Profile.DTag)
			assert.Equal(t, "12", resp.Profile.Account.AccountNumber)
		})
	}
}

func TestService_Profile_NotFound(t *testing.T) {
	s := newTestService(t)

	_, err := query.NewProfilesQuerier(newRouter(s, query.ShapeAuto)).Profile(context.Background(), "nobody")
	require.Error(t, err)
	assert.True(t, chain.IsNotFound(err), "got %v", err)
}

func TestService_ProfilesRoute(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	q := query.NewProfilesQuerier(newRouter(s, query.ShapeAuto))

	dtags, err := q.IncomingDtagTransferRequests(ctx, "user", nil)
	require.NoError(t, err)
	assert.Len(t, dtags.Requests, 2)

	links, err := q.ChainLinks(ctx, "user", nil)
	require.NoError(t, err)
	require.Len(t, links.Links, 1)
	assert.Equal(t, "cosmos1abc", links.Links[0].Address.Value)

	link, err := q.UserChainLink(ctx, "user", "cosmos", "cosmos1abc")
	require.NoError(t, err)
	assert.Equal(t, "cosmos", link.Link.ChainConfig.Name)

	_, err = q.UserChainLink(ctx, "user", "cosmos", "cosmos1zzz")
	assert.True(t, chain.IsNotFound(err))

	apps, err := q.AppLinks(ctx, "user", nil)
	require.NoError(t, err)
	assert.Len(t, apps.Links, 1)

	app, err := q.UserAppLinks(ctx, "user", "twitter", "user_tw")
	require.NoError(t, err)
	assert.Equal(t, "client-1", app.Link.OracleRequest.ClientID)

	byClient, err := q.ApplicationLinkByClientID(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, chain.Addr("user"), byClient.Link.User)

	_, err = q.ApplicationLinkByClientID(ctx, "client-9")
	assert.True(t, chain.IsNotFound(err))
}

func TestService_RelationshipsRoute(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	q := query.NewRelationshipsQuerier(newRouter(s, query.ShapeAuto))

	all, err := q.Relationships(ctx, query.RelationshipsRequest{SubspaceID: 1})
	require.NoError(t, err)
	assert.Len(t, all.Relationships, 2)

	mine, err := q.Relationships(ctx, query.RelationshipsRequest{User: "user", SubspaceID: 1})
	require.NoError(t, err)
	require.Len(t, mine.Relationships, 1)
	assert.Equal(t, chain.Addr("alice"), mine.Relationships[0].Recipient)

	pair, err := q.Relationships(ctx, query.RelationshipsRequest{User: "alice", Counterparty: "bob", SubspaceID: 1})
	require.NoError(t, err)
	assert.Empty(t, pair.Relationships)

	blocks, err := q.Blocks(ctx, query.BlocksRequest{Blocker: "alice", SubspaceID: 1})
	require.NoError(t, err)
	require.Len(t, blocks.Blocks, 1)
	assert.Equal(t, "spam", blocks.Blocks[0].Reason)
}

func TestService_SubspacesRoute(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	q := query.NewSubspacesQuerier(newRouter(s, query.ShapeAuto))

	subs, err := q.Subspaces(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, subs.Subspaces, 3)

	sub, err := q.Subspace(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "events", sub.Subspace.Name)

	_, err = q.Subspace(ctx, 42)
	assert.True(t, chain.IsNotFound(err))

	groups, err := q.UserGroups(ctx, 1, nil)
	require.NoError(t, err)
	assert.Len(t, groups.Groups, 2)

	_, err = q.UserGroups(ctx, 42, nil)
	assert.True(t, chain.IsNotFound(err))

	group, err := q.UserGroup(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "posters", group.Group.Name)

	members, err := q.UserGroupMembers(ctx, 1, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []chain.Addr{"alice", "user"}, members.Members)

	_, err = q.UserGroupMembers(ctx, 1, 9, nil)
	assert.True(t, chain.IsNotFound(err))

	perms, err := q.UserPermissions(ctx, 1, "user")
	require.NoError(t, err)
	assert.Equal(t, uint32(3|4|8), perms.Permissions)
	assert.Equal(t, []query.PermissionDetail{
		{GroupID: 0, Permission: 8},
		{GroupID: 1, Permission: 3},
		{GroupID: 2, Permission: 4},
	}, perms.Details)

	none, err := q.UserPermissions(ctx, 2, "user")
	require.NoError(t, err)
	assert.Zero(t, none.Permissions)
	assert.Empty(t, none.Details)
}

func TestService_PostsRoute(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	q := query.NewPostsQuerier(newRouter(s, query.ShapeAuto))

	all, err := q.Posts(ctx, 0, nil)
	require.NoError(t, err)
	assert.Len(t, all.Posts, 2)

	inSub, err := q.Posts(ctx, 2, nil)
	require.NoError(t, err)
	require.Len(t, inSub.Posts, 1)
	assert.Equal(t, "new album", inSub.Posts[0].Text)

	reports, err := q.Reports(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, reports.Reports, 1)

	reactions, err := q.Reactions(ctx, "1")
	require.NoError(t, err)
	require.Len(t, reactions.Reactions, 1)
	assert.Equal(t, ":+1:", reactions.Reactions[0].Value)

	_, err = q.Reactions(ctx, "9")
	assert.True(t, chain.IsNotFound(err))
}

func TestService_Pagination(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	q := query.NewSubspacesQuerier(newRouter(s, query.ShapeAuto))

	first, err := q.Subspaces(ctx, &query.PageRequest{Limit: 2, CountTotal: true})
	require.NoError(t, err)
	require.Len(t, first.Subspaces, 2)
	require.NotNil(t, first.Pagination)
	require.NotNil(t, first.Pagination.Total)
	assert.Equal(t, chain.Uint64(3), *first.Pagination.Total)
	require.NotEmpty(t, first.Pagination.NextKey)

	second, err := q.Subspaces(ctx, &query.PageRequest{Key: first.Pagination.NextKey, Limit: 2})
	require.NoError(t, err)
	require.Len(t, second.Subspaces, 1)
	assert.Equal(t, "art", second.Subspaces[0].Name)
	assert.Empty(t, second.Pagination.NextKey)

	reversed, err := q.Subspaces(ctx, &query.PageRequest{Limit: 1, Reverse: true})
	require.NoError(t, err)
	require.Len(t, reversed.Subspaces, 1)
	assert.Equal(t, "art", reversed.Subspaces[0].Name)

	_, err = q.Subspaces(ctx, &query.PageRequest{Key: []byte("1"), Offset: 1})
	assert.True(t, chain.IsValidation(err), "got %v", err)

	rest, err := q.Subspaces(ctx, &query.PageRequest{Offset: 1, Limit: math.MaxUint64})
	require.NoError(t, err)
	assert.Len(t, rest.Subspaces, 2)
	assert.Empty(t, rest.Pagination.NextKey)
}

func TestService_RejectsMalformedEnvelope(t *testing.T) {
	s := newTestService(t)

	_, err := s.QueryRaw(context.Background(), []byte(`{"route":"profiles","query_data":{"unknown":{}}}`))
	assert.True(t, chain.IsTransport(err), "got %v", err)

	_, err = s.QueryRaw(context.Background(), []byte(`not json`))
	assert.True(t, chain.IsTransport(err), "got %v", err)
}

func TestService_ResponseIsPlainJSON(t *testing.T) {
	s := newTestService(t)

	raw, err := query.Encode(query.NewEnvelope(query.ReportsRequest{PostID: "2"}, query.ShapeAuto))
	require.NoError(t, err)
	out, err := s.QueryRaw(context.Background(), raw)
	require.NoError(t, err)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.JSONEq(t, `[]`, string(resp["reports"]))
}

func TestService_Replace(t *testing.T) {
	s := NewService(nil, WithLogger(testutil.DiscardLogger()))
	q := query.NewProfilesQuerier(newRouter(s, query.ShapeAuto))

	_, err := q.Profile(context.Background(), "user")
	assert.True(t, chain.IsNotFound(err))

	s.Replace(&Fixtures{Profiles: []query.Profile{testutil.MockProfile("user")}})
	resp, err := q.Profile(context.Background(), "user")
	require.NoError(t, err)
	assert.Equal(t, chain.Addr("user"), resp.Profile.Account.Address)
}

func TestParseFixtures_Duplicates(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"duplicate profile", "profiles: [{account: {address: a1c}}, {account: {address: a1c}}]", "duplicate profile"},
		{"missing address", "profiles: [{dtag: x}]", "account address is required"},
		{"zero subspace", "subspaces: [{id: 0}]", "id must be positive"},
		{"group without subspace", "user_groups: [{subspace_id: 4, id: 1}]", "unknown subspace"},
		{"duplicate post", "posts: [{id: p}, {id: p}]", "duplicate post"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixtures([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFixtures_Merge(t *testing.T) {
	base, err := LoadFixtures("testdata/fixtures.yaml")
	require.NoError(t, err)
	extra := &Fixtures{Profiles: []query.Profile{{Account: query.Account{Address: "carol"}}}}

	merged := base.Merge(extra)
	require.NoError(t, merged.Validate())
	assert.Len(t, merged.Profiles, len(base.Profiles)+1)
	assert.Equal(t, chain.Addr("carol"), merged.Profiles[len(merged.Profiles)-1].Account.Address)
	assert.Equal(t, base.Posts, merged.Posts)
	assert.Len(t, base.Profiles, 2, "inputs are not modified")

	var none *Fixtures
	assert.Len(t, none.Merge(extra).Profiles, 1)

	dup := base.Merge(&Fixtures{Profiles: base.Profiles[:1]})
	assert.Error(t, dup.Validate())
}
