package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/mintgate/internal/chain"
)

// probe is a component whose behaviour is scripted by its messages.
// Execute applies Set, then Send, then Fail, so a failing probe has
// always written something first.
type probe struct{}

type probeSend struct {
	ID      uint64          `json:"id"`
	Target  chain.Addr      `json:"target"`
	ReplyOn chain.ReplyOn   `json:"reply_on"`
	Msg     json.RawMessage `json:"msg"`
}

type probeMsg struct {
	Set  map[string]string `json:"set,omitempty"`
	Send []probeSend       `json:"send,omitempty"`
	Loop bool              `json:"loop,omitempty"`
	Fail string            `json:"fail,omitempty"`
	// Deploy instantiates another probe under this code id.
	Deploy uint64 `json:"deploy,omitempty"`
}

func probeJSON(m probeMsg) json.RawMessage {
	raw, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	return raw
}

func (probe) Instantiate(ctx context.Context, deps chain.Deps, env chain.Env, info chain.MessageInfo, raw []byte) (*chain.Response, error) {
	if err := deps.Storage.Set(ctx, []byte("creator"), []byte(info.Sender)); err != nil {
		return nil, err
	}
	return chain.NewResponse().AddAttribute("action", "instantiate"), nil
}

func (probe) Execute(ctx context.Context, deps chain.Deps, env chain.Env, info chain.MessageInfo, raw []byte) (*chain.Response, error) {
	var msg probeMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, chain.ValidationError("probe: %v", err)
	}
	res := chain.NewResponse().AddAttribute("action", "probe")
	for k, v := range msg.Set {
		if err := deps.Storage.Set(ctx, []byte(k), []byte(v)); err != nil {
			return nil, err
		}
	}
	for _, s := range msg.Send {
		m, err := chain.NewExecuteMsg(s.Target, s.Msg)
		if err != nil {
			return nil, err
		}
		res.AddSubMessage(chain.SubMsg{ID: s.ID, Msg: m, ReplyOn: s.ReplyOn})
	}
	if msg.Loop {
		m, err := chain.NewExecuteMsg(env.Contract.Address, probeJSON(probeMsg{Loop: true}))
		if err != nil {
			return nil, err
		}
		res.AddMessage(m)
	}
	if msg.Deploy != 0 {
		m, err := chain.NewInstantiateMsg(msg.Deploy, struct{}{}, "child")
		if err != nil {
			return nil, err
		}
		res.AddSubMessage(chain.SubMsg{ID: 99, Msg: m, ReplyOn: chain.ReplySuccess})
	}
	if msg.Fail != "" {
		return nil, errors.New(msg.Fail)
	}
	return res, nil
}

// Query returns the value stored under the key msg names.
func (probe) Query(ctx context.Context, deps chain.Deps, env chain.Env, raw []byte) ([]byte, error) {
	var key string
	if err := json.Unmarshal(raw, &key); err != nil {
		return nil, chain.ValidationError("probe query: %v", err)
	}
	v, err := deps.Storage.Get(ctx, []byte(key))
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(v))
}

// Reply stores every outcome it receives under "reply_<id>".
func (probe) Reply(ctx context.Context, deps chain.Deps, env chain.Env, r chain.Reply) (*chain.Response, error) {
	val := "ok"
	if !r.Result.IsOk() {
		val = "error: " + r.Result.Err
	} else if len(r.Result.Ok.Data) > 0 {
		if res, err := chain.ParseInstantiateResponse(r.Result.Ok.Data); err == nil {
			val = "ok: " + string(res.Address)
		}
	}
	key := fmt.Sprintf("reply_%d", r.ID)
	if err := deps.Storage.Set(ctx, []byte(key), []byte(val)); err != nil {
		return nil, err
	}
	return chain.NewResponse().AddAttribute("action", "reply").AddAttribute("id", fmt.Sprint(r.ID)), nil
}
