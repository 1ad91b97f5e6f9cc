package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"prism/internal/daemon"
	"prism/internal/logging"
	"prism/internal/mirror"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: ctx}
	if err := rpcServer.RegisterName("Prism", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.logger.Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.LastError = status.Scheduler.LastError
	resp.LastCycle = status.Scheduler.LastCycle
	resp.Total = status.Scheduler.Stats.Total
	resp.Pending = status.Scheduler.Stats.Pending
	resp.Syncing = status.Scheduler.Stats.Syncing
	resp.Synced = status.Scheduler.Stats.Synced
	resp.Errored = status.Scheduler.Stats.Errored
	resp.DatabasePath = status.DatabasePath
	resp.LockPath = status.LockFilePath
	resp.PID = status.PID
	return nil
}

func (s *service) MirrorList(_ MirrorListRequest, resp *MirrorListResponse) error {
	mirrors, err := s.daemon.ListMirrors(s.ctx)
	if err != nil {
		return err
	}
	names, err := s.alternativeNames()
	if err != nil {
		return err
	}
	resp.Mirrors = make([]MirrorRecord, 0, len(mirrors))
	for _, m := range mirrors {
		if m == nil {
			continue
		}
		resp.Mirrors = append(resp.Mirrors, convertMirror(m, names))
	}
	return nil
}

func (s *service) SyncNow(req SyncNowRequest, resp *SyncNowResponse) error {
	if req.MirrorID != "" {
		mirrors, err := s.daemon.ListMirrors(s.ctx)
		if err != nil {
			return err
		}
		found := false
		for _, m := range mirrors {
			if m != nil && m.ID == req.MirrorID {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("mirror %q not found", req.MirrorID)
		}
	}
	s.daemon.SyncNow(req.MirrorID)
	if req.MirrorID != "" {
		resp.Message = fmt.Sprintf("sync requested for mirror %s", req.MirrorID)
	} else {
		resp.Message = "sync requested for all mirrors"
	}
	s.logger.Info("sync requested via IPC",
		logging.String(logging.FieldEventType, "sync_requested"),
		logging.String(logging.FieldMirrorID, req.MirrorID))
	return nil
}

func (s *service) CleanupNow(_ CleanupNowRequest, resp *CleanupNowResponse) error {
	s.logger.Debug("cleanup requested")
	result, err := s.daemon.CleanupNow(s.ctx)
	if err != nil {
		return err
	}
	resp.Cleaned = result.Cleaned
	resp.Reasons = append(resp.Reasons, result.Reasons...)
	resp.BytesFreed = result.BytesFreed
	resp.UnmirroredSourceIDs = append(resp.UnmirroredSourceIDs, result.UnmirroredSourceIDs...)
	return nil
}

func (s *service) LibraryList(_ LibraryListRequest, resp *LibraryListResponse) error {
	libraries, err := s.daemon.Libraries(s.ctx)
	if err != nil {
		return err
	}
	resp.Libraries = make([]LibraryRecord, 0, len(libraries))
	for _, lib := range libraries {
		resp.Libraries = append(resp.Libraries, LibraryRecord{
			ID:                        lib.ID,
			Name:                      lib.Name,
			CollectionType:            lib.CollectionType,
			Locations:                 append([]string(nil), lib.Locations...),
			PreferredMetadataLanguage: lib.PreferredMetadataLanguage,
			MetadataCountryCode:       lib.MetadataCountryCode,
			IsMirror:                  lib.IsMirror,
			MirrorID:                  lib.MirrorID,
			AlternativeID:             lib.AlternativeID,
			AlternativeName:           lib.AlternativeName,
		})
	}
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}

func (s *service) alternativeNames() (map[string]string, error) {
	alternatives, err := s.daemon.ListAlternatives(s.ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(alternatives))
	for _, alt := range alternatives {
		if alt != nil {
			names[alt.ID] = alt.Name
		}
	}
	return names, nil
}

func convertMirror(m *mirror.Mirror, alternativeNames map[string]string) MirrorRecord {
	return MirrorRecord{
		ID:                m.ID,
		AlternativeID:     m.AlternativeID,
		AlternativeName:   alternativeNames[m.AlternativeID],
		SourceLibraryID:   m.SourceLibraryID,
		SourceLibraryName: m.SourceLibraryName,
		TargetPath:        m.TargetPath,
		TargetLibraryID:   m.TargetLibraryID,
		TargetLibraryName: m.TargetLibraryName,
		CollectionType:    m.CollectionType,
		Status:            string(m.Status),
		ProgressPercent:   m.ProgressPercent,
		ProgressMessage:   m.ProgressMessage,
		LastError:         m.LastError,
		LastSyncedAt:      m.LastSyncedAt,
		LastSyncFileCount: m.LastSyncFileCount,
	}
}
