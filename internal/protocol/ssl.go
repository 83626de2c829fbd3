package protocol

import (
	"crypto/tls"
	"net"
)

// NegotiateSSL answers an SSLRequest with a single unframed byte: 'N'
// when tlsConfig is nil, returning conn as it is, or 'S' and conn
// wrapped by tls.Server with tlsConfig. A GSSENCRequest is answered by
// RejectGSS instead.
//
// The caller reads the request code from the connection's opening
// bytes itself and is expected to loop, since a client may send an
// SSLRequest followed by a GSSENCRequest, or vice versa, before the
// real StartupMessage.
func NegotiateSSL(conn net.Conn, tlsConfig *tls.Config) (net.Conn, error) {
	if tlsConfig == nil {
		if _, err := conn.Write([]byte{'N'}); err != nil {
			return nil, err
		}
		return conn, nil
	}
	if _, err := conn.Write([]byte{'S'}); err != nil {
		return nil, err
	}
	return tls.Server(conn, tlsConfig), nil
}

// RejectGSS always answers 'N': this adapter never speaks GSSAPI
// encryption (spec §6 Non-goals).
func RejectGSS(conn net.Conn) error {
	_, err := conn.Write([]byte{'N'})
	return err
}
