package main

import (
	"net"
	"testing"
	"time"
)

func TestUDPConnRoundTrip(t *testing.T) {
	server, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer server.Close()

	conn, err := DialUDP("127.0.0.1", server.LocalAddr().(*net.UDPAddr).Port)
	if err != nil {
		t.Fatalf("DialUDP: %v", err)
	}
	defer conn.Close()

	if _, ok := conn.Poll(); ok {
		t.Fatal("nothing should be queued yet")
	}
	if err := conn.Send([]byte{0, 255}); err != nil {
		t.Fatalf("send: %v", err)
	}

	buf := make([]byte, 64)
	server.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, from, err := server.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("server read: %v", err)
	}
	if n != 2 || buf[1] != 255 {
		t.Fatalf("unexpected datagram %v", buf[:n])
	}
	if _, err := server.WriteToUDP([]byte("pong"), from); err != nil {
		t.Fatalf("server write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if data, ok := conn.Poll(); ok {
			if string(data) != "pong" {
				t.Errorf("got %q", data)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("reply never arrived")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDialUDPBadHost(t *testing.T) {
	if _, err := DialUDP("bad host name", 48161); err == nil {
		t.Error("expected resolution failure")
	}
}
