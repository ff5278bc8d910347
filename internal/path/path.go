// Package path implements the runtime's location-transparent addressing
// model: Address/ActorPath parsing and canonical string form, plus a
// normalized-segment registry mapping paths to local actor ids. A single
// ActorPath grammar — `movie://sys/user/a/b` locally, or
// `movie.tcp://sys@host:port/user/a` remotely — lets one ActorRef contract
// span both local and remote actors.
package path

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPath is returned when a path string fails to parse against the
// actor-path grammar.
var ErrInvalidPath = errors.New("invalid path")

// LocalProtocol is the protocol name for in-process actors.
const LocalProtocol = "movie"

// TCPProtocol is the protocol name for remote, TCP-addressed actors.
const TCPProtocol = "movie.tcp"

// Address identifies an actor system, optionally on a remote host. A local
// Address has Protocol == LocalProtocol and no Host/Port.
type Address struct {
	Protocol string
	System   string
	Host     string
	Port     int
}

// IsLocal reports whether this address refers to the local actor system.
func (a Address) IsLocal() bool {
	return a.Protocol == LocalProtocol
}

// String renders the address in canonical form, e.g. "movie://sys" or
// "movie.tcp://sys@host:port".
func (a Address) String() string {
	if a.IsLocal() {
		return fmt.Sprintf("%s://%s", a.Protocol, a.System)
	}

	return fmt.Sprintf("%s://%s@%s:%d", a.Protocol, a.System, a.Host, a.Port)
}

// ActorPath is a hierarchical, addressed actor name: an Address plus an
// ordered list of path segments (e.g. ["user", "a", "b"]).
type ActorPath struct {
	Address  Address
	Segments []string
}

// Root returns the root path (no segments) for the given address.
func Root(addr Address) ActorPath {
	return ActorPath{Address: addr}
}

// Child returns a new path with name appended as the final segment.
func (p ActorPath) Child(name string) ActorPath {
	segs := make([]string, len(p.Segments)+1)
	copy(segs, p.Segments)
	segs[len(p.Segments)] = name

	return ActorPath{Address: p.Address, Segments: segs}
}

// Parent returns the path with its last segment removed, and true, unless
// this path is already the root, in which case it returns the root path
// unchanged and false.
func (p ActorPath) Parent() (ActorPath, bool) {
	if len(p.Segments) == 0 {
		return p, false
	}

	return ActorPath{
		Address:  p.Address,
		Segments: p.Segments[:len(p.Segments)-1],
	}, true
}

// Name returns the final path segment, or "" for the root path.
func (p ActorPath) Name() string {
	if len(p.Segments) == 0 {
		return ""
	}

	return p.Segments[len(p.Segments)-1]
}

// String renders the canonical URI form of the path.
func (p ActorPath) String() string {
	suffix := ""
	if len(p.Segments) > 0 {
		suffix = "/" + strings.Join(p.Segments, "/")
	}

	if p.Address.IsLocal() {
		return fmt.Sprintf("%s://%s%s", p.Address.Protocol,
			p.Address.System, suffix)
	}

	return fmt.Sprintf("%s://%s@%s:%d%s", p.Address.Protocol,
		p.Address.System, p.Address.Host, p.Address.Port, suffix)
}

// NormalizedKey returns the registry lookup key for this path: the segment
// list only, ignoring protocol/host/port, so that a local lookup and a
// remote lookup of the same logical actor agree.
func (p ActorPath) NormalizedKey() string {
	return "/" + strings.Join(p.Segments, "/")
}

// Equal reports structural equality: same address and same segments.
func (p ActorPath) Equal(other ActorPath) bool {
	if p.Address != other.Address {
		return false
	}

	if len(p.Segments) != len(other.Segments) {
		return false
	}

	for i := range p.Segments {
		if p.Segments[i] != other.Segments[i] {
			return false
		}
	}

	return true
}

// Parse parses a canonical path URI. Accepted forms:
//
//	movie://sys/user/a/b
//	movie.tcp://sys@host:port/user/a
//
// Parsing is strict: malformed input returns ErrInvalidPath.
func Parse(uri string) (ActorPath, error) {
	schemeIdx := strings.Index(uri, "://")
	if schemeIdx < 0 {
		return ActorPath{}, fmt.Errorf("%w: missing scheme in %q",
			ErrInvalidPath, uri)
	}

	scheme := uri[:schemeIdx]
	rest := uri[schemeIdx+3:]

	switch scheme {
	case LocalProtocol:
		return parseLocal(rest)
	case TCPProtocol:
		return parseTCP(rest)
	default:
		return ActorPath{}, fmt.Errorf("%w: unknown protocol %q",
			ErrInvalidPath, scheme)
	}
}

func parseLocal(rest string) (ActorPath, error) {
	system, segs, err := splitSystemAndSegments(rest)
	if err != nil {
		return ActorPath{}, err
	}

	return ActorPath{
		Address:  Address{Protocol: LocalProtocol, System: system},
		Segments: segs,
	}, nil
}

func parseTCP(rest string) (ActorPath, error) {
	atIdx := strings.Index(rest, "@")
	if atIdx < 0 {
		return ActorPath{}, fmt.Errorf("%w: remote path missing '@host:port' in %q",
			ErrInvalidPath, rest)
	}

	system := rest[:atIdx]
	if system == "" {
		return ActorPath{}, fmt.Errorf("%w: empty system name", ErrInvalidPath)
	}

	hostPortAndSegs := rest[atIdx+1:]

	slashIdx := strings.Index(hostPortAndSegs, "/")
	hostPort := hostPortAndSegs
	var segPart string
	if slashIdx >= 0 {
		hostPort = hostPortAndSegs[:slashIdx]
		segPart = hostPortAndSegs[slashIdx:]
	}

	colonIdx := strings.LastIndex(hostPort, ":")
	if colonIdx < 0 {
		return ActorPath{}, fmt.Errorf("%w: remote path missing port in %q",
			ErrInvalidPath, hostPort)
	}

	host := hostPort[:colonIdx]
	portStr := hostPort[colonIdx+1:]
	if host == "" || portStr == "" {
		return ActorPath{}, fmt.Errorf("%w: empty host or port in %q",
			ErrInvalidPath, hostPort)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return ActorPath{}, fmt.Errorf("%w: invalid port %q: %v",
			ErrInvalidPath, portStr, err)
	}

	segs := splitSegments(segPart)

	return ActorPath{
		Address: Address{
			Protocol: TCPProtocol,
			System:   system,
			Host:     host,
			Port:     port,
		},
		Segments: segs,
	}, nil
}

func splitSystemAndSegments(rest string) (string, []string, error) {
	slashIdx := strings.Index(rest, "/")
	if slashIdx < 0 {
		if rest == "" {
			return "", nil, fmt.Errorf("%w: missing system name", ErrInvalidPath)
		}

		return rest, nil, nil
	}

	system := rest[:slashIdx]
	if system == "" {
		return "", nil, fmt.Errorf("%w: empty system name", ErrInvalidPath)
	}

	return system, splitSegments(rest[slashIdx:]), nil
}

func splitSegments(segPart string) []string {
	segPart = strings.TrimPrefix(segPart, "/")
	if segPart == "" {
		return nil
	}

	return strings.Split(segPart, "/")
}
