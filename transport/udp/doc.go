// Package udp
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Datagram endpoints that own their packet pool.
//
// A client Endpoint is connected to one remote host and leases buffers
// pre-bound to it. A server Endpoint listens on a local address, leases
// buffers without an endpoint and learns the sender of every datagram on
// receive. The pool lives and dies with the Endpoint.
package udp
