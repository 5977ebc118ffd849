package smtptest

import (
	"bufio"
	"encoding/base64"
	"net"
	"strings"
	"testing"
	"time"
)

// client is a minimal scripted SMTP client for driving the sink directly.
type client struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func dialSink(t *testing.T, addr string) *client {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("failed to dial sink: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &client{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

// reply reads one full (possibly multiline) SMTP reply and returns all lines.
func (c *client) reply() []string {
	c.t.Helper()
	var lines []string
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			c.t.Fatalf("failed to read reply: %v", err)
		}
		line = strings.TrimRight(line, "\r\n")
		lines = append(lines, line)
		if len(line) < 4 || line[3] != '-' {
			return lines
		}
	}
}

func (c *client) send(line string) {
	c.t.Helper()
	if _, err := c.conn.Write([]byte(line + "\r\n")); err != nil {
		c.t.Fatalf("failed to write %q: %v", line, err)
	}
}

func (c *client) expect(code string) []string {
	c.t.Helper()
	lines := c.reply()
	if !strings.HasPrefix(lines[len(lines)-1], code) {
		c.t.Fatalf("reply: got %q, want code %s", lines, code)
	}
	return lines
}

func startSink(t *testing.T, cfg Config) (*Server, string) {
	t.Helper()
	srv := NewServer(cfg)
	addr, err := srv.Start()
	if err != nil {
		t.Fatalf("failed to start sink: %v", err)
	}
	t.Cleanup(srv.Stop)
	return srv, addr
}

func plainCred(user, pass string) string {
	return base64.StdEncoding.EncodeToString([]byte("\x00" + user + "\x00" + pass))
}

func TestSink_DeliversWithoutAuth(t *testing.T) {
	t.Parallel()

	srv, addr := startSink(t, Config{})
	c := dialSink(t, addr)

	c.expect("220")
	c.send("EHLO client.example.com")
	lines := c.expect("250")
	for _, l := range lines {
		if strings.Contains(l, "AUTH") {
			t.Errorf("AUTH advertised without credentials: %q", l)
		}
	}

	c.send("MAIL FROM:<sender@example.com>")
	c.expect("250")
	c.send("RCPT TO:<rcpt@example.com>")
	c.expect("250")
	c.send("DATA")
	c.expect("354")
	c.send("Subject: hi")
	c.send("")
	c.send("line one")
	c.send("..dot-stuffed")
	c.send(".")
	c.expect("250")
	c.send("QUIT")
	c.expect("221")

	envs := srv.Envelopes()
	if len(envs) != 1 {
		t.Fatalf("envelopes: got %d, want 1", len(envs))
	}
	env := envs[0]
	if env.From != "sender@example.com" {
		t.Errorf("From: got %q", env.From)
	}
	if len(env.To) != 1 || env.To[0] != "rcpt@example.com" {
		t.Errorf("To: got %v", env.To)
	}
	if !strings.Contains(env.Data, ".dot-stuffed") {
		t.Errorf("dot-stuffed line missing, data: %q", env.Data)
	}
	if strings.Contains(env.Data, "..dot-stuffed") {
		t.Errorf("dot-stuffing not removed, data: %q", env.Data)
	}
}

func TestSink_AuthPlain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cred string
		code string
	}{
		{name: "valid credentials", cred: plainCred("user", "secret"), code: "235"},
		{name: "wrong password", cred: plainCred("user", "wrong"), code: "535"},
		{name: "invalid base64", cred: "!!!", code: "535"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, addr := startSink(t, Config{Username: "user", Password: "secret"})
			c := dialSink(t, addr)

			c.expect("220")
			c.send("EHLO client.example.com")
			lines := c.expect("250")
			found := false
			for _, l := range lines {
				if strings.Contains(l, "AUTH PLAIN LOGIN") {
					found = true
				}
			}
			if !found {
				t.Fatalf("AUTH not advertised: %q", lines)
			}

			c.send("AUTH PLAIN " + tt.cred)
			c.expect(tt.code)
		})
	}
}

func TestSink_AuthLogin(t *testing.T) {
	t.Parallel()

	_, addr := startSink(t, Config{Username: "user", Password: "secret"})
	c := dialSink(t, addr)

	c.expect("220")
	c.send("EHLO client.example.com")
	c.expect("250")

	c.send("AUTH LOGIN")
	c.expect("334")
	c.send(base64.StdEncoding.EncodeToString([]byte("user")))
	c.expect("334")
	c.send(base64.StdEncoding.EncodeToString([]byte("secret")))
	c.expect("235")
}

func TestSink_MailRequiresAuth(t *testing.T) {
	t.Parallel()

	_, addr := startSink(t, Config{Username: "user", Password: "secret"})
	c := dialSink(t, addr)

	c.expect("220")
	c.send("EHLO client.example.com")
	c.expect("250")
	c.send("MAIL FROM:<sender@example.com>")
	c.expect("530")
}

func TestSink_RejectedRecipient(t *testing.T) {
	t.Parallel()

	srv, addr := startSink(t, Config{RejectRecipients: []string{"bad@x.com"}})
	c := dialSink(t, addr)

	c.expect("220")
	c.send("EHLO client.example.com")
	c.expect("250")
	c.send("MAIL FROM:<sender@example.com>")
	c.expect("250")
	c.send("RCPT TO:<bad@x.com>")
	c.expect("550")
	c.send("RCPT TO:<good@example.com>")
	c.expect("250")
	c.send("DATA")
	c.expect("354")
	c.send("body")
	c.send(".")
	c.expect("250")

	envs := srv.Envelopes()
	if len(envs) != 1 {
		t.Fatalf("envelopes: got %d, want 1", len(envs))
	}
	if len(envs[0].To) != 1 || envs[0].To[0] != "good@example.com" {
		t.Errorf("To: got %v, want only good@example.com", envs[0].To)
	}
}

func TestSink_CommandSequencing(t *testing.T) {
	t.Parallel()

	_, addr := startSink(t, Config{})
	c := dialSink(t, addr)

	c.expect("220")
	c.send("MAIL FROM:<sender@example.com>")
	c.expect("503")
	c.send("EHLO client.example.com")
	c.expect("250")
	c.send("RCPT TO:<rcpt@example.com>")
	c.expect("503")
	c.send("DATA")
	c.expect("503")
	c.send("BOGUS")
	c.expect("500")
}
