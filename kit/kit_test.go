package kit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestChain_Order(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				order = append(order, name+"_before")
				resp, err := next(ctx, req)
				order = append(order, name+"_after")
				return resp, err
			}
		}
	}

	base := func(_ context.Context, _ any) (any, error) {
		order = append(order, "endpoint")
		return "ok", nil
	}

	chained := Chain(mw("a"), mw("b"))(base)
	resp, err := chained(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp != "ok" {
		t.Fatalf("response: got %v", resp)
	}

	expected := []string{"a_before", "b_before", "endpoint", "b_after", "a_after"}
	if len(order) != len(expected) {
		t.Fatalf("order length: got %d, want %d", len(order), len(expected))
	}
	for i, v := range expected {
		if order[i] != v {
			t.Fatalf("order[%d]: got %q, want %q", i, order[i], v)
		}
	}
}

func TestChain_ErrorPropagation(t *testing.T) {
	errFail := errors.New("fail")
	base := func(_ context.Context, _ any) (any, error) {
		return nil, errFail
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	chained := Chain(Logging(logger, "test_tool"))(base)

	_, err := chained(context.Background(), nil)
	if !errors.Is(err, errFail) {
		t.Fatalf("error: got %v, want %v", err, errFail)
	}
}

// --- MCP registration ---

type echoReq struct {
	Msg string `json:"msg"`
}

func registerEcho(srv *mcp.Server, endpoint Endpoint) {
	tool := &mcp.Tool{
		Name:        "echo",
		Description: "Echo back the message.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"msg": map[string]any{"type": "string"},
			},
		},
	}
	RegisterMCPTool(srv, tool, endpoint, DecodeJSON[echoReq]())
}

func kitSession(t *testing.T, endpoint Endpoint) *mcp.ClientSession {
	t.Helper()
	impl := &mcp.Implementation{Name: "kit-test", Version: "0.1.0"}
	srv := mcp.NewServer(impl, nil)
	registerEcho(srv, endpoint)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(impl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func TestRegisterMCPTool_StringResponse(t *testing.T) {
	// WHAT: A string endpoint response comes back as raw text, not JSON.
	// WHY: Document markup must reach agents without JSON quoting.
	session := kitSession(t, func(_ context.Context, req any) (any, error) {
		return "raw " + req.(*echoReq).Msg, nil
	})

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "echo",
		Arguments: map[string]any{"msg": "text"},
	})
	if err != nil {
		t.Fatal(err)
	}
	tc := result.Content[0].(*mcp.TextContent)
	if tc.Text != "raw text" {
		t.Errorf("text = %q, want %q", tc.Text, "raw text")
	}
}

func TestRegisterMCPTool_StructResponse(t *testing.T) {
	session := kitSession(t, func(_ context.Context, req any) (any, error) {
		return map[string]any{"echo": req.(*echoReq).Msg}, nil
	})

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "echo",
		Arguments: map[string]any{"msg": "hi"},
	})
	if err != nil {
		t.Fatal(err)
	}
	var resp struct {
		Echo string `json:"echo"`
	}
	tc := result.Content[0].(*mcp.TextContent)
	if err := json.Unmarshal([]byte(tc.Text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Echo != "hi" {
		t.Errorf("echo = %q", resp.Echo)
	}
}

func TestRegisterMCPTool_EndpointError(t *testing.T) {
	// WHAT: Endpoint errors surface through the MCP error channel, not as
	// a transport failure. Only the IsError flag and the error text cross
	// the wire; the server-side error value does not.
	session := kitSession(t, func(_ context.Context, _ any) (any, error) {
		return nil, errors.New("boom")
	})

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "echo",
		Arguments: map[string]any{"msg": "x"},
	})
	if err != nil {
		t.Fatalf("transport error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error")
	}
	tc := result.Content[0].(*mcp.TextContent)
	if !strings.Contains(tc.Text, "boom") {
		t.Errorf("error text = %q, want it to carry the endpoint message", tc.Text)
	}
}
