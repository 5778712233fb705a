package tokenprovider

import (
	"context"
	"sync"

	"github.com/arneg82/migAz/internal/core"
)

type response struct {
	result core.Result
	err    error
}

// fakeClient records every request and answers from a queue; an exhausted queue
// answers with a success for alice@example.com.
type fakeClient struct {
	mu        sync.Mutex
	requests  []core.TokenRequest
	responses []response

	// block, when set, is waited on before answering
	block chan struct{}
}

func (f *fakeClient) push(result core.Result, err error) *fakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, response{result: result, err: err})
	return f
}

func (f *fakeClient) AcquireToken(ctx context.Context, req core.TokenRequest) (core.Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	var resp response
	if len(f.responses) > 0 {
		resp = f.responses[0]
		f.responses = f.responses[1:]
	} else {
		resp = response{result: successFor("alice@example.com")}
	}
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return core.Result{}, ctx.Err()
		}
	}
	return resp.result, resp.err
}

func (f *fakeClient) recorded() []core.TokenRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.TokenRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func successFor(user string) core.Result {
	return core.Success(core.TokenResult{
		AccessToken: "token-for-" + user,
		TokenType:   "Bearer",
		UserInfo:    &core.UserInfo{DisplayableID: user},
	})
}
