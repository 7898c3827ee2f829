package chatroom

import (
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/GTX96/SocialGossip/pkg/netutil"
)

const (
	// relayBufferSize bounds a single group chat datagram.
	relayBufferSize = 1024

	// receiveTimeout is how long one blocking receive may last before
	// the loop re-checks the stop signal. Responsiveness to shutdown
	// only, never a correctness deadline.
	receiveTimeout = 600 * time.Millisecond
)

// Dispatcher is the per-room background relay: it receives datagrams on
// a private ephemeral UDP endpoint and republishes them unmodified to
// the room's multicast group.
//
// Stop blocks until the loop has left the multicast group and closed
// both sockets, so a caller closing a room never observes partial
// teardown.
type Dispatcher struct {
	group  *net.UDPAddr
	relay  *net.UDPConn
	mcast  *net.UDPConn
	packet *ipv4.PacketConn
	joined bool

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewDispatcher binds the relay endpoint and the multicast sender
// socket for the given group, joining the group where the host allows
// it. The relay loop is not started; call Run (normally on its own
// goroutine).
func NewDispatcher(group *net.UDPAddr) (*Dispatcher, error) {
	relay, err := netutil.ListenEphemeralUDP()
	if err != nil {
		return nil, err
	}

	mcast, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: group.Port})
	if err != nil {
		relay.Close()
		return nil, fmt.Errorf("failed to bind multicast socket for %s: %w", group, err)
	}

	d := &Dispatcher{
		group:  group,
		relay:  relay,
		mcast:  mcast,
		packet: ipv4.NewPacketConn(mcast),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	// Group membership and loopback are best-effort: sending to the
	// group needs neither, and some hosts lack a multicast route.
	if err := d.packet.JoinGroup(nil, &net.UDPAddr{IP: group.IP}); err != nil {
		log.Printf("Room dispatcher: join group %s failed: %v", group.IP, err)
	} else {
		d.joined = true
	}
	if err := d.packet.SetMulticastLoopback(true); err != nil {
		log.Printf("Room dispatcher: enable multicast loopback: %v", err)
	}

	return d, nil
}

// RelayAddr returns the relay endpoint clients send datagrams to.
func (d *Dispatcher) RelayAddr() *net.UDPAddr {
	return d.relay.LocalAddr().(*net.UDPAddr)
}

// SendToGroup publishes a payload directly to the multicast group.
// Used for the room-closed sentinel.
func (d *Dispatcher) SendToGroup(payload []byte) error {
	_, err := d.mcast.WriteToUDP(payload, d.group)
	return err
}

// Run relays datagrams until Stop is called. Each receive is bounded by
// receiveTimeout so the stop signal is observed promptly; transport
// errors other than the deadline are logged and the loop continues — a
// single bad packet must not kill the room.
func (d *Dispatcher) Run() {
	defer close(d.done)
	defer d.teardown()

	buf := make([]byte, relayBufferSize)
	for {
		select {
		case <-d.stop:
			return
		default:
		}

		if err := d.relay.SetReadDeadline(time.Now().Add(receiveTimeout)); err != nil {
			log.Printf("Room dispatcher %s: set read deadline: %v", d.group, err)
			return
		}

		n, _, err := d.relay.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-d.stop:
				return
			default:
			}
			log.Printf("Room dispatcher %s: receive error: %v", d.group, err)
			continue
		}

		if _, err := d.mcast.WriteToUDP(buf[:n], d.group); err != nil {
			log.Printf("Room dispatcher %s: forward error: %v", d.group, err)
		}
	}
}

func (d *Dispatcher) teardown() {
	if d.joined {
		if err := d.packet.LeaveGroup(nil, &net.UDPAddr{IP: d.group.IP}); err != nil {
			log.Printf("Room dispatcher %s: leave group: %v", d.group, err)
		}
	}
	d.mcast.Close()
	d.relay.Close()
}

// Stop signals the relay loop and waits for its teardown to complete.
// Safe to call more than once.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.stop)
	})
	<-d.done
}
