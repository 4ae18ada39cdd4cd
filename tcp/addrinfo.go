/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package tcp provides the address-resolution and raw-socket primitives the
// TCP services are built on: AddrInfo resolves a host:port pair once and
// keeps it immutable, and Socket wraps a non-blocking file descriptor whose
// Accept/Read/Write honor an absolute clock.Timestamp deadline via pselect.
package tcp

import (
	"context"
	"net"
	"strconv"
)

// Family identifies the IP address family of an AddrInfo's resolved
// addresses.
type Family uint8

const (
	// FamilyIPv4 marks an AddrInfo whose First() address has a 4-byte
	// representation (net.IP.To4() != nil).
	FamilyIPv4 Family = iota
	// FamilyIPv6 marks an AddrInfo resolved to an address with no 4-byte
	// representation.
	FamilyIPv6
)

func familyOf(ip net.IP) Family {
	if ip.To4() != nil {
		return FamilyIPv4
	}
	return FamilyIPv6
}

// AddrInfo is a resolve-once, read-only view of a host:port pair, mirroring
// ISL's TcpAddrInfo: construction performs the DNS lookup and the result,
// including the canonical name, never changes afterward.
type AddrInfo struct {
	host      string
	port      uint16
	addrs     []net.IP
	canonical string
	family    Family
}

// NewAddrInfo resolves host (an IP literal or a DNS name) and returns an
// immutable AddrInfo. An empty host resolves to the wildcard address.
func NewAddrInfo(host string, port uint16) (*AddrInfo, error) {
	if port == 0 {
		return nil, ErrorParamsEmpty.Error(nil)
	}

	if host == "" {
		return &AddrInfo{host: host, port: port, addrs: []net.IP{net.IPv4zero}, canonical: host, family: FamilyIPv4}, nil
	}

	if ip := net.ParseIP(host); ip != nil {
		return &AddrInfo{host: host, port: port, addrs: []net.IP{ip}, canonical: host, family: familyOf(ip)}, nil
	}

	ips, e := net.DefaultResolver.LookupIPAddr(context.Background(), host)
	if e != nil {
		return nil, ErrorResolve.Error(e)
	}

	addrs := make([]net.IP, 0, len(ips))
	for _, a := range ips {
		addrs = append(addrs, a.IP)
	}

	canonical := host
	if names, e := net.DefaultResolver.LookupCNAME(context.Background(), host); e == nil && names != "" {
		canonical = names
	}

	family := FamilyIPv4
	if len(addrs) > 0 {
		family = familyOf(addrs[0])
	}

	return &AddrInfo{host: host, port: port, addrs: addrs, canonical: canonical, family: family}, nil
}

// Host returns the original (unresolved) host string used at construction.
func (a *AddrInfo) Host() string { return a.host }

// Port returns the port number.
func (a *AddrInfo) Port() uint16 { return a.port }

// Canonical returns the canonical name captured at resolution time, falling
// back to the original host when no canonical name was found.
func (a *AddrInfo) Canonical() string { return a.canonical }

// Addrs returns the resolved IP addresses, in resolution order.
func (a *AddrInfo) Addrs() []net.IP {
	return append([]net.IP(nil), a.addrs...)
}

// First returns the first resolved address, or the zero IP if none.
func (a *AddrInfo) First() net.IP {
	if len(a.addrs) == 0 {
		return net.IP{}
	}
	return a.addrs[0]
}

// Family returns the IP address family (FamilyIPv4 or FamilyIPv6) of
// First(), decided once at resolution time.
func (a *AddrInfo) Family() Family {
	return a.family
}

// String renders "host:port" using the original host string.
func (a *AddrInfo) String() string {
	return net.JoinHostPort(a.host, strconv.Itoa(int(a.port)))
}

func (a *AddrInfo) tcpAddr() *net.TCPAddr {
	return &net.TCPAddr{IP: a.First(), Port: int(a.port)}
}
