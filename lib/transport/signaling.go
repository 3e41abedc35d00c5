package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/sirupsen/logrus"
)

// tpktHeaderLen is the fixed TPKT header (RFC 1006) H.225.0 call signaling
// uses to frame Q.931/H.323 PDUs over a TCP stream: version (1 octet, must
// be 3), reserved (1 octet), total packet length including header (2
// octets, big-endian).
const tpktHeaderLen = 4
const tpktVersion = 3

// maxSignalingPDU bounds a single framed PDU this stack will read, guarding
// against a peer advertising an unbounded TPKT length.
const maxSignalingPDU = 64 * 1024

// WriteTPKT frames payload as a single TPKT packet and writes it to w.
func WriteTPKT(w io.Writer, payload []byte) error {
	total := tpktHeaderLen + len(payload)
	if total > 0xFFFF {
		return fmt.Errorf("transport: tpkt payload too large: %d bytes", len(payload))
	}
	header := [tpktHeaderLen]byte{tpktVersion, 0, 0, 0}
	binary.BigEndian.PutUint16(header[2:], uint16(total))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("transport: write tpkt header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("transport: write tpkt payload: %w", err)
	}
	return nil
}

// ReadTPKT reads one TPKT-framed PDU from r.
func ReadTPKT(r io.Reader) ([]byte, error) {
	var header [tpktHeaderLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("transport: read tpkt header: %w", err)
	}
	if header[0] != tpktVersion {
		return nil, fmt.Errorf("transport: unexpected tpkt version %d", header[0])
	}
	total := int(binary.BigEndian.Uint16(header[2:]))
	if total < tpktHeaderLen || total > maxSignalingPDU {
		return nil, fmt.Errorf("transport: tpkt length %d out of range", total)
	}
	payload := make([]byte, total-tpktHeaderLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("transport: read tpkt payload: %w", err)
	}
	return payload, nil
}

// SignalingConn wraps a single call-signaling TCP connection.
type SignalingConn struct {
	conn net.Conn
	log  *logrus.Entry
}

// DialSignaling opens a call-signaling TCP connection to addr.
func DialSignaling(ctx context.Context, addr string) (*SignalingConn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial signaling %s: %w", addr, err)
	}
	return &SignalingConn{conn: conn, log: logrus.StandardLogger().WithField("component", "signaling")}, nil
}

// Close closes the underlying connection.
func (c *SignalingConn) Close() error { return c.conn.Close() }

// Send frames and writes one PDU.
func (c *SignalingConn) Send(payload []byte) error {
	return WriteTPKT(c.conn, payload)
}

// Recv reads and unframes one PDU.
func (c *SignalingConn) Recv() ([]byte, error) {
	return ReadTPKT(c.conn)
}

// SignalingListener accepts inbound call-signaling TCP connections.
type SignalingListener struct {
	ln  net.Listener
	log *logrus.Entry
}

// ListenSignaling binds a TCP listener for call signaling at addr.
func ListenSignaling(addr string, log *logrus.Logger) (*SignalingListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen signaling %s: %w", addr, err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SignalingListener{ln: ln, log: log.WithField("component", "signaling")}, nil
}

// LocalAddr returns the bound address.
func (l *SignalingListener) LocalAddr() net.Addr { return l.ln.Addr() }

// Close stops accepting new connections.
func (l *SignalingListener) Close() error { return l.ln.Close() }

// SignalingHandler processes one accepted call-signaling connection. The
// handler owns conn and must close it.
type SignalingHandler func(ctx context.Context, conn *SignalingConn)

// Serve accepts connections until ctx is canceled, spawning handler per
// connection in its own goroutine. Each connection gets its own codec
// cursor and allocator context: nothing in the codec is shared across
// these goroutines.
func (l *SignalingListener) Serve(ctx context.Context, handler SignalingHandler) error {
	go func() {
		<-ctx.Done()
		l.ln.Close()
	}()

	for {
		c, err := l.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			l.log.WithError(err).Warn("signaling accept failed")
			return fmt.Errorf("transport: accept signaling: %w", err)
		}
		sc := &SignalingConn{conn: c, log: l.log}
		go handler(ctx, sc)
	}
}
