package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	DEFAULT_READ_TIMEOUT   = 60 * time.Second
	DEFAULT_WRITE_TIMEOUT  = DEFAULT_READ_TIMEOUT
	SHUTDOWN_TIMEOUT       = 30 * time.Second
	GRACEFUL_ENVIRON_KEY   = "IS_GRACEFUL"
	GRACEFUL_ENVIRON_VALUE = GRACEFUL_ENVIRON_KEY + "=1"
	GRACEFUL_LISTENER_FD   = 3
)

// Server wraps http.Server to support graceful shutdown and restart.
type Server struct {
	*http.Server

	listener     net.Listener
	isGraceful   bool
	signalChan   chan os.Signal
	shutdownChan chan struct{}
	onShutdown   []func()
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	isGraceful := os.Getenv(GRACEFUL_ENVIRON_KEY) != ""
	return &Server{
		Server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		isGraceful:   isGraceful,
		signalChan:   make(chan os.Signal, 1),
		shutdownChan: make(chan struct{}),
	}
}

// OnShutdown registers hooks run after the HTTP server stopped accepting
// requests, in registration order.
func (srv *Server) OnShutdown(fns ...func()) {
	srv.onShutdown = append(srv.onShutdown, fns...)
}

// ListenAndServe starts serving on tcp and handles signals.
func (srv *Server) ListenAndServe() error {
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := srv.getNetListener(addr)
	if err != nil {
		return err
	}
	srv.listener = ln
	return srv.serve()
}

func (srv *Server) serve() error {
	go srv.handleSignals()
	err := srv.Server.Serve(srv.listener)
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	// Wait until Shutdown finished
	<-srv.shutdownChan
	return nil
}

func (srv *Server) getNetListener(addr string) (net.Listener, error) {
	if srv.isGraceful {
		file := os.NewFile(GRACEFUL_LISTENER_FD, "")
		ln, err := net.FileListener(file)
		if err != nil {
			return nil, fmt.Errorf("net.FileListener error: %w", err)
		}
		return ln, nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.Listen error: %w", err)
	}
	return ln, nil
}

func (srv *Server) handleSignals() {
	signal.Notify(
		srv.signalChan,
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGUSR2,
	)

	for sig := range srv.signalChan {
		switch sig {
		case syscall.SIGTERM, syscall.SIGINT:
			Sugar.Infof("received %s, graceful shutting down HTTP server", sig)
			srv.shutdownHTTPServer()
			return
		case syscall.SIGUSR2:
			Sugar.Info("received SIGUSR2, graceful restarting HTTP server")
			if pid, err := srv.startNewProcess(); err != nil {
				Sugar.Errorf("start new process failed: %v, continue serving", err)
			} else {
				Sugar.Infof("start new process succeeded, new pid=%d", pid)
				Sugar.Info("closing old HTTP server after new one started")
				srv.shutdownHTTPServer()
				return
			}
		}
	}
}

func (srv *Server) shutdownHTTPServer() {
	ctx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		Sugar.Errorf("HTTP server shutdown error: %v", err)
	} else {
		Sugar.Info("HTTP server shutdown success")
	}
	for _, fn := range srv.onShutdown {
		fn()
	}
	close(srv.shutdownChan)
}

// start new process to handle HTTP connections
func (srv *Server) startNewProcess() (uintptr, error) {
	// obtain listener fd
	tcpLn, ok := srv.listener.(*net.TCPListener)
	if !ok {
		return 0, fmt.Errorf("listener is not *net.TCPListener")
	}
	file, err := tcpLn.File()
	if err != nil {
		return 0, fmt.Errorf("get listener file: %w", err)
	}
	listenerFd := file.Fd()

	// set graceful env
	envs := []string{}
	for _, e := range os.Environ() {
		if e != GRACEFUL_ENVIRON_VALUE {
			envs = append(envs, e)
		}
	}
	envs = append(envs, GRACEFUL_ENVIRON_VALUE)

	attr := &syscall.ProcAttr{
		Env:   envs,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), listenerFd},
	}
	pid, err := syscall.ForkExec(os.Args[0], os.Args, attr)
	if err != nil {
		return 0, fmt.Errorf("forkexec: %w", err)
	}
	return uintptr(pid), nil
}

// GraceServer starts an HTTP server with graceful capabilities. onShutdown
// hooks release resources such as the storage connection once requests drained.
func GraceServer(addr string, handler http.Handler, onShutdown ...func()) error {
	srv := NewServer(addr, handler, DEFAULT_READ_TIMEOUT, DEFAULT_WRITE_TIMEOUT)
	srv.OnShutdown(onShutdown...)
	return srv.ListenAndServe()
}
