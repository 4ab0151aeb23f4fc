package fetch

import (
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"
)

// AddressError is returned when a fetch would connect to a loopback,
// private, link-local or unspecified address.
type AddressError struct {
	Addr string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("fetch: refusing to connect to non-public address %s", e.Addr)
}

var privateNets = func() []*net.IPNet {
	var out []*net.IPNet
	for _, cidr := range []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"100.64.0.0/10",
		"fc00::/7",
	} {
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(err)
		}
		out = append(out, n)
	}
	return out
}()

// IsPublic reports whether ip may be fetched when private addresses are
// not allowed.
func IsPublic(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsUnspecified() || ip.IsMulticast() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return false
	}
	for _, n := range privateNets {
		if n.Contains(ip) {
			return false
		}
	}
	return true
}

// dialControl runs after DNS resolution, so redirects and rebinding are
// checked against the address actually dialed.
func dialControl(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return &AddressError{Addr: address}
	}
	ip := net.ParseIP(host)
	if ip == nil || !IsPublic(ip) {
		return &AddressError{Addr: host}
	}
	return nil
}

func newTransport(allowPrivate bool) *http.Transport {
	d := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	if !allowPrivate {
		d.Control = dialControl
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = d.DialContext
	if !allowPrivate {
		// A proxy would dial on our behalf and bypass the check.
		t.Proxy = nil
	}
	return t
}
