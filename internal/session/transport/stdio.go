// # internal/session/transport/stdio.go
package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"classforge/internal/core/config"
	"classforge/internal/session/contracts"
	"classforge/internal/shared/util"
)

// Stdio speaks JSON-RPC 2.0 on stdin/stdout, one JSON document per
// message. Plain {"op": ..., "params": ...} envelopes are accepted too,
// for shell scripting without an RPC client.
type Stdio struct {
	cfg     config.Session
	limiter *util.Limiter

	in  io.Reader
	out io.Writer

	mu      sync.Mutex
	running bool
}

func NewStdio(cfg config.Session) *Stdio {
	s := &Stdio{cfg: cfg, in: os.Stdin, out: os.Stdout}
	if cfg.RateLimit.PerSecond > 0 {
		s.limiter = util.NewLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)
	}
	return s
}

// NewStdioPipe is NewStdio on explicit streams, for tests.
func NewStdioPipe(cfg config.Session, in io.Reader, out io.Writer) *Stdio {
	s := NewStdio(cfg)
	s.in = in
	s.out = out
	return s
}

type opRequest struct {
	ID     any            `json:"id,omitempty"`
	Op     string         `json:"op"`
	Params map[string]any `json:"params,omitempty"`
}

type opResponse struct {
	ID     any                `json:"id,omitempty"`
	OK     bool               `json:"ok"`
	Result any                `json:"result,omitempty"`
	Error  *contracts.OpError `json:"error,omitempty"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id,omitempty"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func (s *Stdio) Start(ctx context.Context, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("stdio handler is required")
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		<-ctx.Done()
		return ctx.Err()
	}
	s.running = true
	s.mu.Unlock()

	err := s.serve(ctx, handler)

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return ctx.Err()
}

func (s *Stdio) Stop() error {
	return nil
}

func (s *Stdio) serve(ctx context.Context, handler Handler) error {
	decoder := json.NewDecoder(bufio.NewReader(s.in))
	writer := bufio.NewWriter(s.out)
	encoder := json.NewEncoder(writer)

	emit := func(v any) error {
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return writer.Flush()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var raw map[string]any
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if s.limiter != nil && !s.limiter.Allow(1) {
			if err := emit(rpcResponse{
				JSONRPC: "2.0",
				ID:      raw["id"],
				Error:   &rpcError{Code: -32005, Message: "Rate limit exceeded"},
			}); err != nil {
				return err
			}
			continue
		}

		if handled, err := s.handleRPC(ctx, handler, raw, emit); err != nil {
			return err
		} else if handled {
			continue
		}

		// Plain envelope fallback.
		req := parseOpRequest(raw)
		result, callErr := handler(ctx, req.Op, req.Params)
		resp := opResponse{ID: req.ID}
		if callErr != nil {
			opErr := normalizeOpError(callErr)
			resp.Error = &opErr
		} else {
			resp.OK = true
			resp.Result = result
		}
		if err := emit(resp); err != nil {
			return err
		}
	}
}

func parseOpRequest(raw map[string]any) opRequest {
	req := opRequest{Params: map[string]any{}}
	if id, ok := raw["id"]; ok {
		req.ID = id
	}
	if op, ok := raw["op"].(string); ok {
		req.Op = op
	}
	if params, ok := raw["params"].(map[string]any); ok {
		req.Params = params
	}
	return req
}

// handleRPC serves one JSON-RPC message. Returns false when the message
// is not JSON-RPC, so the plain envelope path can try it.
func (s *Stdio) handleRPC(ctx context.Context, handler Handler, raw map[string]any, emit func(any) error) (bool, error) {
	method, _ := raw["method"].(string)
	jsonrpc, _ := raw["jsonrpc"].(string)
	if method == "" || jsonrpc == "" {
		return false, nil
	}

	if method == "notifications/initialized" {
		return true, nil
	}

	resp := rpcResponse{JSONRPC: "2.0", ID: raw["id"]}
	params, _ := raw["params"].(map[string]any)
	if params == nil {
		params = map[string]any{}
	}

	switch method {
	case "initialize":
		resp.Result = map[string]any{
			"protocolVersion": contracts.ContractVersion,
			"serverInfo": map[string]any{
				"name":    contracts.ServiceName,
				"version": contracts.ContractVersion,
			},
		}
	case "ping":
		resp.Result = map[string]any{}
	case "ops/list":
		resp.Result = map[string]any{"operations": contracts.Descriptors()}
	case "ops/call":
		name, _ := params["operation"].(string)
		args, _ := params["params"].(map[string]any)
		if args == nil {
			args = map[string]any{}
		}
		result, err := handler(ctx, name, args)
		if err != nil {
			opErr := normalizeOpError(err)
			resp.Error = &rpcError{
				Code:    -32000,
				Message: fmt.Sprintf("%s: %s", opErr.Code, opErr.Message),
				Data:    opErr.Details,
			}
		} else {
			resp.Result = result
		}
	default:
		resp.Error = &rpcError{Code: -32601, Message: "Method not found"}
	}

	return true, emit(resp)
}
