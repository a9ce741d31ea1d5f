// A line-based terminal client: joins one room and relays chat.
//
//	go run ./cmd/client -addr localhost:8080 -token <jwt> -server S1 -channel C1
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"

	"go-cord/pkg/chat"

	"github.com/gorilla/websocket"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	token := flag.String("token", "", "bearer token from /login")
	serverID := flag.String("server", "", "server id")
	channelID := flag.String("channel", "", "channel id")
	flag.Parse()

	if *token == "" || *serverID == "" || *channelID == "" {
		flag.Usage()
		os.Exit(2)
	}

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws", RawQuery: "token=" + url.QueryEscape(*token)}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	send := func(eventType string, data any) {
		payload, _ := json.Marshal(data)
		frame, _ := json.Marshal(chat.Envelope{Type: eventType, Data: payload})
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			log.Fatalf("write: %v", err)
		}
	}

	send(chat.EventJoinChannel, chat.JoinChannelPayload{ServerID: *serverID, ChannelID: *channelID})

	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				log.Fatalf("read: %v", err)
			}
			printEvent(data)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		content := scanner.Text()
		if content == "" {
			continue
		}
		send(chat.EventChatMessage, chat.ChatMessagePayload{
			ServerID:  *serverID,
			ChannelID: *channelID,
			Content:   content,
		})
	}
}

func printEvent(data []byte) {
	var env chat.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return
	}

	switch env.Type {
	case chat.EventChatMessage, chat.EventMessageUpdated:
		var msg chat.Message
		if err := json.Unmarshal(env.Data, &msg); err == nil {
			fmt.Printf("[%s] %s: %s\n", msg.CreatedAt.Format("15:04"), msg.Username, msg.Content)
		}
	case chat.EventUserTyping:
		var p chat.UserTypingPayload
		if err := json.Unmarshal(env.Data, &p); err == nil {
			fmt.Printf("* %s is typing\n", p.Username)
		}
	case chat.EventUserStatusChanged:
		var p chat.StatusChangedPayload
		if err := json.Unmarshal(env.Data, &p); err == nil {
			fmt.Printf("* %s is now %s\n", p.UserID, p.Status)
		}
	case chat.EventError:
		var p chat.ErrorPayload
		if err := json.Unmarshal(env.Data, &p); err == nil {
			fmt.Printf("! %s\n", p.Message)
		}
	}
}
