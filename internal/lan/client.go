package lan

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/muurk/lifx-exporter/internal/device"
	"github.com/muurk/lifx-exporter/internal/discovery"
	"github.com/muurk/lifx-exporter/internal/logging"
	"github.com/muurk/lifx-exporter/internal/protocol"
	"go.uber.org/zap"
)

// Defaults
const (
	DefaultListenAddr        = ":56700"
	DefaultBroadcastAddr     = "255.255.255.255:56700"
	DefaultDiscoveryInterval = 30 * time.Second
	DefaultExpireAfter       = 90 * time.Second
	DefaultRequestTimeout    = 2 * time.Second

	eventBuffer = 64
	readBuffer  = 1500
)

// Config holds LAN client options
type Config struct {
	// ListenAddr is the local UDP address to bind (e.g., ":56700")
	ListenAddr string

	// BroadcastAddr is where GetService discovery is sent
	BroadcastAddr string

	// DiscoveryInterval is the time between discovery broadcasts.
	// The first broadcast is sent as soon as Run starts.
	DiscoveryInterval time.Duration

	// ExpireAfter is how long a bulb may stay silent before it is reported
	// as Disappeared
	ExpireAfter time.Duration

	// RequestTimeout applies to requests whose context has no deadline
	RequestTimeout time.Duration

	// Source is the client identifier carried in every header. Zero picks a
	// random value.
	Source uint32
}

// DefaultConfig returns the default LAN client options
func DefaultConfig() Config {
	return Config{
		ListenAddr:        DefaultListenAddr,
		BroadcastAddr:     DefaultBroadcastAddr,
		DiscoveryInterval: DefaultDiscoveryInterval,
		ExpireAfter:       DefaultExpireAfter,
		RequestTimeout:    DefaultRequestTimeout,
	}
}

// Peer is a bulb that has answered discovery
type Peer struct {
	ID       string
	Addr     string
	LastSeen time.Time

	target uint64
	udp    *net.UDPAddr
}

type pendingKey struct {
	target   uint64
	sequence uint8
}

// Client speaks the LIFX LAN protocol over one UDP socket.
//
// It broadcasts discovery, tracks which bulbs have answered, expires bulbs
// that go silent and correlates responses to requests by (target, sequence).
// Discovery changes are reported on the Events channel.
type Client struct {
	conn      *net.UDPConn
	config    Config
	source    uint32
	broadcast *net.UDPAddr
	events    chan discovery.Event
	now       func() time.Time

	mu      sync.Mutex
	peers   map[string]*Peer
	pending map[pendingKey]chan *protocol.Packet
	closed  bool
}

// Listen binds the UDP socket. A bind failure is returned as *BindError.
func Listen(config Config) (*Client, error) {
	defaults := DefaultConfig()
	if config.ListenAddr == "" {
		config.ListenAddr = defaults.ListenAddr
	}
	if config.BroadcastAddr == "" {
		config.BroadcastAddr = defaults.BroadcastAddr
	}
	if config.DiscoveryInterval <= 0 {
		config.DiscoveryInterval = defaults.DiscoveryInterval
	}
	if config.ExpireAfter <= 0 {
		config.ExpireAfter = defaults.ExpireAfter
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = defaults.RequestTimeout
	}

	laddr, err := net.ResolveUDPAddr("udp4", config.ListenAddr)
	if err != nil {
		return nil, &BindError{Addr: config.ListenAddr, Err: err}
	}
	baddr, err := net.ResolveUDPAddr("udp4", config.BroadcastAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid broadcast address %q: %w", config.BroadcastAddr, err)
	}

	// Go enables SO_BROADCAST on UDP sockets
	conn, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		return nil, &BindError{Addr: config.ListenAddr, Err: err}
	}

	source := config.Source
	for source <= 1 {
		source = rand.Uint32()
	}

	logging.Info("LIFX LAN client listening",
		zap.String("addr", conn.LocalAddr().String()),
		zap.String("broadcast", baddr.String()),
		zap.Uint32("source", source),
	)

	return &Client{
		conn:      conn,
		config:    config,
		source:    source,
		broadcast: baddr,
		events:    make(chan discovery.Event, eventBuffer),
		now:       time.Now,
		peers:     make(map[string]*Peer),
		pending:   make(map[pendingKey]chan *protocol.Packet),
	}, nil
}

// LocalAddr returns the bound UDP address
func (c *Client) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// Events returns the discovery event stream. It is closed when Run returns.
func (c *Client) Events() <-chan discovery.Event {
	return c.events
}

// Run reads packets, broadcasts discovery and expires silent bulbs until ctx
// is cancelled. It closes the socket and the Events channel on return.
func (c *Client) Run(ctx context.Context) error {
	readErr := make(chan error, 1)
	go func() {
		readErr <- c.readLoop(ctx)
	}()

	discover := time.NewTicker(c.config.DiscoveryInterval)
	defer discover.Stop()

	sweepEvery := c.config.ExpireAfter / 3
	if sweepEvery <= 0 {
		sweepEvery = time.Millisecond
	}
	sweep := time.NewTicker(sweepEvery)
	defer sweep.Stop()

	if err := c.Discover(); err != nil {
		logging.Warn("Discovery broadcast failed", zap.Error(err))
	}

	var (
		err      error
		readDone bool
	)
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err = <-readErr:
			readDone = true
			break loop
		case <-discover.C:
			if err := c.Discover(); err != nil {
				logging.Warn("Discovery broadcast failed", zap.Error(err))
			}
		case <-sweep.C:
			c.expire(ctx)
		}
	}

	c.Close()
	if !readDone {
		err = <-readErr
	}
	close(c.events)
	return err
}

// Close closes the socket. Outstanding requests fail with ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}

// Discover sends one GetService broadcast
func (c *Client) Discover() error {
	buf, err := protocol.BuildGetService(c.source)
	if err != nil {
		return err
	}
	logging.LogPacket("sent", c.broadcast.String(), protocol.TypeName(protocol.TypeGetService), buf)
	if _, err := c.conn.WriteToUDP(buf, c.broadcast); err != nil {
		return fmt.Errorf("broadcast to %s: %w", c.broadcast, err)
	}
	return nil
}

// Peers returns the bulbs currently known, sorted by ID
func (c *Client) Peers() []Peer {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Peer, 0, len(c.peers))
	for _, p := range c.peers {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Client) readLoop(ctx context.Context) error {
	buf := make([]byte, readBuffer)
	for {
		n, addr, err := c.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read udp: %w", err)
		}

		pkt, err := protocol.ParsePacket(buf[:n])
		if err != nil {
			logging.Debug("Dropping malformed packet", zap.String("addr", addr.String()), zap.Error(err))
			continue
		}
		c.handle(ctx, pkt, addr)
	}
}

func (c *Client) handle(ctx context.Context, pkt *protocol.Packet, addr *net.UDPAddr) {
	// Our own broadcast loops back, and other clients' traffic is not ours
	if pkt.Source != c.source || pkt.Type == protocol.TypeGetService {
		return
	}
	logging.LogPacket("received", addr.String(), protocol.TypeName(pkt.Type), pkt.Raw)

	if pkt.Type == protocol.TypeStateService {
		c.handleService(ctx, pkt, addr)
	}

	c.mu.Lock()
	id := protocol.TargetToMAC(pkt.Target).String()
	if p, ok := c.peers[id]; ok {
		p.LastSeen = c.now()
	}
	ch, ok := c.pending[pendingKey{target: pkt.Target, sequence: pkt.Sequence}]
	c.mu.Unlock()

	if ok {
		select {
		case ch <- pkt:
		default:
		}
	}
}

func (c *Client) handleService(ctx context.Context, pkt *protocol.Packet, addr *net.UDPAddr) {
	svc, err := protocol.ParseStateService(pkt.Payload)
	if err != nil {
		logging.Debug("Bad StateService", zap.String("addr", addr.String()), zap.Error(err))
		return
	}
	if svc.Service != protocol.ServiceUDP || pkt.Target == 0 {
		return
	}

	udp := &net.UDPAddr{IP: addr.IP, Port: int(svc.Port), Zone: addr.Zone}
	id := protocol.TargetToMAC(pkt.Target).String()
	now := c.now()

	c.mu.Lock()
	p, known := c.peers[id]
	if !known {
		p = &Peer{ID: id, target: pkt.Target}
		c.peers[id] = p
	}
	p.udp = udp
	p.Addr = udp.String()
	p.LastSeen = now
	c.mu.Unlock()

	if !known {
		c.emit(ctx, discovery.Event{Kind: discovery.Appeared, ID: id, Addr: udp.String(), At: now})
	}
}

func (c *Client) expire(ctx context.Context) {
	now := c.now()
	var gone []string

	c.mu.Lock()
	for id, p := range c.peers {
		if now.Sub(p.LastSeen) > c.config.ExpireAfter {
			delete(c.peers, id)
			gone = append(gone, id)
		}
	}
	c.mu.Unlock()

	for _, id := range gone {
		c.emit(ctx, discovery.Event{Kind: discovery.Disappeared, ID: id, At: now})
	}
}

func (c *Client) emit(ctx context.Context, ev discovery.Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

// Request sends a payload-less Get to a bulb and waits for the response of
// type expect. Without a context deadline, RequestTimeout applies.
func (c *Client) Request(ctx context.Context, id string, msgType, expect uint16) (*protocol.Packet, error) {
	name := protocol.TypeName(msgType)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, &BulbError{Type: ErrTypeNetwork, DeviceID: id, Request: name, Err: ErrClosed}
	}
	p, ok := c.peers[id]
	if !ok {
		c.mu.Unlock()
		return nil, newUnknownDeviceError(id, name)
	}
	target, addr := p.target, p.udp
	seq := protocol.NextSequence()
	key := pendingKey{target: target, sequence: seq}
	ch := make(chan *protocol.Packet, 1)
	c.pending[key] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, key)
		c.mu.Unlock()
	}()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()
	}

	buf, err := protocol.BuildQuery(c.source, target, seq, msgType)
	if err != nil {
		return nil, newNetworkError(id, name, err)
	}
	logging.LogPacket("sent", addr.String(), name, buf)
	if _, err := c.conn.WriteToUDP(buf, addr); err != nil {
		return nil, newNetworkError(id, name, err)
	}

	select {
	case pkt := <-ch:
		if pkt.Type != expect {
			return nil, newUnexpectedResponseError(id, name, protocol.TypeName(pkt.Type))
		}
		return pkt, nil
	case <-ctx.Done():
		return nil, newTimeoutError(id, name, ctx.Err())
	}
}

// LightState queries a bulb's color and power
func (c *Client) LightState(ctx context.Context, id string) (*device.State, error) {
	pkt, err := c.Request(ctx, id, protocol.TypeLightGet, protocol.TypeLightState)
	if err != nil {
		return nil, err
	}
	s, err := protocol.ParseLightState(pkt.Payload)
	if err != nil {
		return nil, newDecodeError(id, "LightGet", err)
	}
	return &device.State{
		Hue:        s.Hue,
		Saturation: s.Saturation,
		Brightness: s.Brightness,
		Kelvin:     s.Kelvin,
		Power:      s.Power,
	}, nil
}

// Label fetches a bulb's label
func (c *Client) Label(ctx context.Context, id string) (string, error) {
	pkt, err := c.Request(ctx, id, protocol.TypeGetLabel, protocol.TypeStateLabel)
	if err != nil {
		return "", err
	}
	label, err := protocol.ParseStateLabel(pkt.Payload)
	if err != nil {
		return "", newDecodeError(id, "GetLabel", err)
	}
	return label, nil
}

// Location fetches the label of a bulb's location
func (c *Client) Location(ctx context.Context, id string) (string, error) {
	return c.collection(ctx, id, protocol.TypeGetLocation, protocol.TypeStateLocation)
}

// Group fetches the label of a bulb's group
func (c *Client) Group(ctx context.Context, id string) (string, error) {
	return c.collection(ctx, id, protocol.TypeGetGroup, protocol.TypeStateGroup)
}

func (c *Client) collection(ctx context.Context, id string, msgType, expect uint16) (string, error) {
	pkt, err := c.Request(ctx, id, msgType, expect)
	if err != nil {
		return "", err
	}
	coll, err := protocol.ParseStateCollection(pkt.Payload)
	if err != nil {
		return "", newDecodeError(id, protocol.TypeName(msgType), err)
	}
	return coll.Label, nil
}

// Version fetches a bulb's vendor and product codes
func (c *Client) Version(ctx context.Context, id string) (uint32, uint32, error) {
	pkt, err := c.Request(ctx, id, protocol.TypeGetVersion, protocol.TypeStateVersion)
	if err != nil {
		return 0, 0, err
	}
	v, err := protocol.ParseStateVersion(pkt.Payload)
	if err != nil {
		return 0, 0, newDecodeError(id, "GetVersion", err)
	}
	return v.Vendor, v.Product, nil
}

// HostFirmware fetches a bulb's host firmware version
func (c *Client) HostFirmware(ctx context.Context, id string) (device.Firmware, error) {
	return c.firmware(ctx, id, protocol.TypeGetHostFirmware, protocol.TypeStateHostFirmware)
}

// WifiFirmware fetches a bulb's wifi firmware version
func (c *Client) WifiFirmware(ctx context.Context, id string) (device.Firmware, error) {
	return c.firmware(ctx, id, protocol.TypeGetWifiFirmware, protocol.TypeStateWifiFirmware)
}

func (c *Client) firmware(ctx context.Context, id string, msgType, expect uint16) (device.Firmware, error) {
	pkt, err := c.Request(ctx, id, msgType, expect)
	if err != nil {
		return device.Firmware{}, err
	}
	f, err := protocol.ParseStateFirmware(pkt.Payload)
	if err != nil {
		return device.Firmware{}, newDecodeError(id, protocol.TypeName(msgType), err)
	}
	return device.Firmware{Major: f.VersionMajor, Minor: f.VersionMinor, Build: f.Build}, nil
}

// BroadcastAddrForPort returns the limited broadcast address on a port
func BroadcastAddrForPort(port int) string {
	return net.JoinHostPort("255.255.255.255", strconv.Itoa(port))
}
