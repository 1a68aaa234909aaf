package sandbox

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
)

// maxRespawnAttempts bounds the crash-recovery loop (spec.md §4.2 item 5):
// on a transport error the client stops any remnant helper, deletes the
// stale socket, and respawns, up to this many times before giving up.
const maxRespawnAttempts = 2

// PersistentBackend talks to a long-lived out-of-process sandbox helper
// over a Unix-domain socket using line-delimited JSON requests and
// id-correlated responses. The wire shape and pending-map correlation
// pattern mirror the stdio JSON-RPC transport used elsewhere in this
// codebase for subprocess-based protocols.
type PersistentBackend struct {
	socketPath string
	helperCmd  []string

	mu      sync.Mutex
	conn    net.Conn
	enc     *json.Encoder
	pending map[string]chan Response
	nextID  uint64
	proc    *exec.Cmd
}

// NewPersistentBackend spawns the helper described by helperCmd (argv,
// typically a container/VM entrypoint) and connects to it at socketPath,
// which the helper is responsible for creating and listening on.
func NewPersistentBackend(ctx context.Context, socketPath string, helperCmd []string) (*PersistentBackend, error) {
	b := &PersistentBackend{
		socketPath: socketPath,
		helperCmd:  helperCmd,
		pending:    make(map[string]chan Response),
	}
	if err := b.spawnAndConnect(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *PersistentBackend) spawnAndConnect(ctx context.Context) error {
	_ = os.Remove(b.socketPath)

	if len(b.helperCmd) > 0 {
		cmd := exec.CommandContext(context.Background(), b.helperCmd[0], b.helperCmd[1:]...)
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("sandbox: spawn helper: %w", err)
		}
		b.proc = cmd
	}

	var conn net.Conn
	var err error
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		conn, err = net.Dial("unix", b.socketPath)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	if err != nil {
		return fmt.Errorf("sandbox: connect to %s: %w", b.socketPath, err)
	}

	b.conn = conn
	b.enc = json.NewEncoder(conn)
	go b.readLoop(conn)
	return nil
}

func (b *PersistentBackend) readLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var resp Response
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			continue
		}
		b.mu.Lock()
		ch, ok := b.pending[resp.ID]
		if ok {
			delete(b.pending, resp.ID)
		}
		b.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

func (b *PersistentBackend) call(ctx context.Context, req Request) (Response, error) {
	resp, err := b.callOnce(ctx, req)
	for attempt := 0; err != nil && isTransportErr(err) && attempt < maxRespawnAttempts; attempt++ {
		if recoverErr := b.recover(ctx); recoverErr != nil {
			return Response{}, recoverErr
		}
		resp, err = b.callOnce(ctx, req)
	}
	return resp, err
}

func (b *PersistentBackend) callOnce(ctx context.Context, req Request) (Response, error) {
	id := fmt.Sprintf("%d", atomic.AddUint64(&b.nextID, 1))
	req.ID = id
	ch := make(chan Response, 1)

	b.mu.Lock()
	if b.conn == nil {
		b.mu.Unlock()
		return Response{}, errTransport("no connection")
	}
	b.pending[id] = ch
	enc := b.enc
	b.mu.Unlock()

	if err := enc.Encode(req); err != nil {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
		return Response{}, errTransport(err.Error())
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
		return Response{}, ctx.Err()
	}
}

// recover stops any remnant helper process, deletes the stale socket, and
// respawns a fresh one, reconnecting the transport.
func (b *PersistentBackend) recover(ctx context.Context) error {
	b.mu.Lock()
	if b.conn != nil {
		_ = b.conn.Close()
		b.conn = nil
	}
	if b.proc != nil && b.proc.Process != nil {
		_ = b.proc.Process.Kill()
	}
	for id, ch := range b.pending {
		close(ch)
		delete(b.pending, id)
	}
	b.mu.Unlock()

	return b.spawnAndConnect(ctx)
}

type errTransport string

func (e errTransport) Error() string { return "sandbox: transport error: " + string(e) }

func isTransportErr(err error) bool {
	_, ok := err.(errTransport)
	return ok
}

func (b *PersistentBackend) ReadFile(ctx context.Context, path string) (string, error) {
	resp, err := b.call(ctx, Request{Op: opReadFile, Path: path})
	if err != nil {
		return "", err
	}
	if resp.Status != statusOK {
		return "", fmt.Errorf("read_file failed: %s", resp.Error)
	}
	var content string
	if err := json.Unmarshal(resp.Data, &content); err != nil {
		return "", fmt.Errorf("sandbox: malformed read_file response: %w", err)
	}
	return content, nil
}

func (b *PersistentBackend) WriteFile(ctx context.Context, path, content string) error {
	resp, err := b.call(ctx, Request{Op: opWriteFile, Path: path, Content: content})
	if err != nil {
		return err
	}
	if resp.Status != statusOK {
		return fmt.Errorf("write_file failed: %s", resp.Error)
	}
	return nil
}

func (b *PersistentBackend) ListDir(ctx context.Context, path string) ([]string, error) {
	resp, err := b.call(ctx, Request{Op: opListDir, Path: path})
	if err != nil {
		return nil, err
	}
	if resp.Status != statusOK {
		return nil, fmt.Errorf("list_dir failed: %s", resp.Error)
	}
	var data ListDirData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("sandbox: malformed list_dir response: %w", err)
	}
	return data.Entries, nil
}

func (b *PersistentBackend) Exec(ctx context.Context, command, stdin, workingDir string, timeoutMs int64) (ExecResult, error) {
	resp, err := b.call(ctx, Request{Op: opExec, Command: command, Stdin: stdin, TimeoutMs: timeoutMs})
	if err != nil {
		return ExecResult{}, err
	}
	var data ExecData
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return ExecResult{}, fmt.Errorf("sandbox: malformed exec response: %w", err)
		}
	}
	exitCode := 0
	if resp.ExitCode != nil {
		exitCode = *resp.ExitCode
	}
	if resp.Status != statusOK && exitCode == 0 {
		return ExecResult{}, fmt.Errorf("exec failed: %s", resp.Error)
	}
	return ExecResult{Stdout: data.Stdout, Stderr: data.Stderr, ExitCode: exitCode}, nil
}

func (b *PersistentBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		_ = b.conn.Close()
	}
	if b.proc != nil && b.proc.Process != nil {
		_ = b.proc.Process.Kill()
	}
	_ = os.Remove(b.socketPath)
	return nil
}
