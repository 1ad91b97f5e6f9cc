package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Stop requests the daemon to stop its background services.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Prism.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Prism.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MirrorList returns all mirror records.
func (c *Client) MirrorList() (*MirrorListResponse, error) {
	var resp MirrorListResponse
	if err := c.client.Call("Prism.MirrorList", MirrorListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SyncNow requests an immediate sync pass, optionally for a single mirror.
func (c *Client) SyncNow(mirrorID string) (*SyncNowResponse, error) {
	var resp SyncNowResponse
	req := SyncNowRequest{MirrorID: mirrorID}
	if err := c.client.Call("Prism.SyncNow", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CleanupNow runs orphan cleanup and returns the outcome.
func (c *Client) CleanupNow() (*CleanupNowResponse, error) {
	var resp CleanupNowResponse
	if err := c.client.Call("Prism.CleanupNow", CleanupNowRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LibraryList returns the annotated media server library view.
func (c *Client) LibraryList() (*LibraryListResponse, error) {
	var resp LibraryListResponse
	if err := c.client.Call("Prism.LibraryList", LibraryListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Prism.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
