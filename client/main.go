package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeJoinAsHost   = 101
	MsgTypeJoinAsPlayer = 102
	MsgTypeStartRound   = 103
	MsgTypeResetRound   = 104
	MsgTypeBuzz         = 105
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	packet := make([]byte, 2+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	copy(packet[2:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	host := flag.Bool("host", false, "join as host (creates a room when -code is empty)")
	code := flag.String("code", "", "room code")
	name := flag.String("name", "tester", "player name")
	roomName := flag.String("room", "Test Room", "room name when creating")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 2 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			log.Printf("<- RECV (ID: %d): %s", msgID, string(message[2:]))
		}
	}()

	if *host {
		log.Println("Joining as host...")
		if err := send(c, MsgTypeJoinAsHost, map[string]string{"code": *code, "room_name": *roomName}); err != nil {
			log.Fatalf("Write error: %v", err)
		}
		log.Println("Type 'start' or 'reset' and press Enter.")
	} else {
		log.Printf("Joining room %s as %s...", *code, *name)
		if err := send(c, MsgTypeJoinAsPlayer, map[string]string{"code": *code, "name": *name}); err != nil {
			log.Fatalf("Write error: %v", err)
		}
		log.Println("Press Enter to buzz.")
	}

	// Write loop
	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			text, _ := reader.ReadString('\n')
			text = strings.TrimSpace(text)

			var msgID uint16
			switch {
			case *host && text == "start":
				msgID = MsgTypeStartRound
			case *host && text == "reset":
				msgID = MsgTypeResetRound
			case !*host:
				msgID = MsgTypeBuzz
			default:
				continue
			}

			if err := send(c, msgID, struct{}{}); err != nil {
				log.Println("Write error:", err)
				return
			}
		}
	}
}
