// Package transport implements the two I/O boundaries an H.323 endpoint
// needs to hand bytes to lib/h225/lib/h245: a UDP socket for RAS and a
// TCP listener/dialer for Q.931 call signaling. Neither does anything with
// the decoded PDUs beyond logging and handing them to a caller-supplied
// callback; the call state machine itself is lib/callctl's concern and
// mostly out of scope here.
package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
)

// maxRASDatagram bounds a single RAS UDP read. H.225.0 RAS messages are
// small; this is generous headroom, not a protocol constant.
const maxRASDatagram = 4096

// RASHandler processes one decoded-or-raw RAS datagram from peer.
type RASHandler func(ctx context.Context, peer *net.UDPAddr, data []byte) error

// RASSocket is a UDP endpoint for H.225.0 RAS traffic.
type RASSocket struct {
	conn *net.UDPConn
	log  *logrus.Entry
}

// ListenRAS binds a UDP socket at addr (host:port, "" host means all
// interfaces) for RAS traffic.
func ListenRAS(addr string, log *logrus.Logger) (*RASSocket, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve RAS addr %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen RAS udp %s: %w", addr, err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RASSocket{conn: conn, log: log.WithField("component", "ras")}, nil
}

// LocalAddr returns the bound address.
func (s *RASSocket) LocalAddr() net.Addr { return s.conn.LocalAddr() }

// Close releases the socket.
func (s *RASSocket) Close() error { return s.conn.Close() }

// Send writes a pre-encoded RAS PDU to peer.
func (s *RASSocket) Send(peer *net.UDPAddr, data []byte) error {
	_, err := s.conn.WriteToUDP(data, peer)
	if err != nil {
		s.log.WithError(err).WithField("peer", peer).Warn("ras send failed")
		return fmt.Errorf("transport: ras send to %s: %w", peer, err)
	}
	return nil
}

// Serve reads datagrams until ctx is canceled, invoking handler for each.
// A handler error is logged and does not stop the loop — RAS is
// connectionless, so one malformed datagram must never take the socket
// down.
func (s *RASSocket) Serve(ctx context.Context, handler RASHandler) error {
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		s.conn.Close()
		close(done)
	}()

	buf := make([]byte, maxRASDatagram)
	for {
		n, peer, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				<-done
				return ctx.Err()
			default:
			}
			s.log.WithError(err).Warn("ras read failed")
			return fmt.Errorf("transport: ras read: %w", err)
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		if err := handler(ctx, peer, data); err != nil {
			s.log.WithError(err).WithField("peer", peer).Warn("ras handler error")
		}
	}
}
