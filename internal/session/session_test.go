package session

import (
	"net"
	"testing"

	"github.com/pgsqlite-go/pgsqlite/internal/protocol"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeSession(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })
	s := New(1, server, protocol.NewReader(server), protocol.NewWriter(server), logrus.NewEntry(logrus.New()))
	return s, client
}

func TestStartupParams(t *testing.T) {
	body := []byte("user\x00alice\x00database\x00app\x00\x00")
	params, err := StartupParams(body)
	require.NoError(t, err)
	assert.Equal(t, "alice", params["user"])
	assert.Equal(t, "app", params["database"])
}

func TestAuthenticateTrust(t *testing.T) {
	s, client := pipeSession(t)
	done := make(chan error, 1)
	go func() { done <- s.Authenticate(AuthTrust) }()

	buf := make([]byte, 9)
	_, err := client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, byte(protocol.MsgAuthenticationR), buf[0])
	require.NoError(t, <-done)
}

func TestStatementAndPortalLifecycle(t *testing.T) {
	s, _ := pipeSession(t)
	st := &PreparedStatement{Name: "s1"}
	s.PutStatement(st)
	got, ok := s.Statement("s1")
	require.True(t, ok)
	assert.Same(t, st, got)

	s.CloseStatement("s1")
	_, ok = s.Statement("s1")
	assert.False(t, ok)
}

func TestEndTransactionClearsSuspendedPortals(t *testing.T) {
	s, _ := pipeSession(t)
	p := &Portal{Name: "p1", Suspended: "fake-rows"}
	s.PutPortal(p)
	s.EndTransaction()
	assert.Nil(t, p.Suspended)
}

func TestFailOnlyTransitionsWhenActive(t *testing.T) {
	s, _ := pipeSession(t)
	s.TxStatus = TxIdle
	s.Fail()
	assert.Equal(t, TxIdle, s.TxStatus)

	s.TxStatus = TxActive
	s.Fail()
	assert.Equal(t, TxFailed, s.TxStatus)
}
