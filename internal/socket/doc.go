// Package socket implements the line-oriented TCP transport.
//
// A Channel exchanges exactly one newline-terminated message per
// connection with a process that is already listening: connect, write the
// message, read one line (or until the peer closes), close. Connection
// refusal and connect timeouts are reported as distinct typed errors so
// callers can tell "nobody is listening" from a broken exchange. No retries
// are performed; retry policy belongs to the caller.
//
// Serve is the matching server side, used by long-running children that
// answer one line per connection.
package socket
