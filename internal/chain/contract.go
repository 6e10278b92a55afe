package chain

import "context"

// Contract is a component implementation the host can deploy.
//
// Entry points receive raw JSON messages and must not retain deps beyond
// the call. An error from any entry point fails the enclosing top-level
// call and reverts its state.
type Contract interface {
	Instantiate(ctx context.Context, deps Deps, env Env, info MessageInfo, msg []byte) (*Response, error)
	Execute(ctx context.Context, deps Deps, env Env, info MessageInfo, msg []byte) (*Response, error)
	Query(ctx context.Context, deps Deps, env Env, msg []byte) ([]byte, error)
	Reply(ctx context.Context, deps Deps, env Env, reply Reply) (*Response, error)
}
