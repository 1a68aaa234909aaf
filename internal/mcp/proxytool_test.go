package mcp

import (
	"testing"

	"github.com/relaykit/agentcore/internal/models"
)

func TestProxyToolNameUsesRegisteredName(t *testing.T) {
	pt := NewProxyTool(nil, models.McpTool{Server: "my-srv", RemoteName: "Get.X"})
	if pt.Name() != "mcp_my_srv_get_x" {
		t.Fatalf("got %q", pt.Name())
	}
}

func TestProxyToolExecuteReportsDisconnectedServer(t *testing.T) {
	mgr := NewManager(nil, nil)
	pt := NewProxyTool(mgr, models.McpTool{Server: "absent", RemoteName: "tool"})
	res, err := pt.Execute(nil, "owner", nil) //nolint:staticcheck // nil context acceptable: no I/O occurs before the disconnected-server check
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsError() {
		t.Fatal("expected error result for disconnected server")
	}
}
