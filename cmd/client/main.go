// Terminal chat client: connects to the websocket endpoint, renders incoming
// events, and sends typed lines as messages.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServerURL string `envconfig:"CHATLINE_URL" default:"ws://localhost:8080/ws"`
	Token     string `envconfig:"CHATLINE_TOKEN" required:"true"`
	UserID    string `envconfig:"CHATLINE_USER_ID" required:"true"`
	ChannelID string `envconfig:"CHATLINE_CHANNEL_ID" required:"true"`
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type message struct {
	SenderName string `json:"senderName"`
	Content    string `json:"content"`
	IsDeleted  bool   `json:"isDeleted"`
}

type typing struct {
	UserID string `json:"userId"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal(err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(cfg.ServerURL+"?token="+cfg.Token, nil)
	if err != nil {
		log.Fatal("dial: ", err)
	}
	defer conn.Close()

	send(conn, "add_user", cfg.UserID)
	send(conn, "join_channel", cfg.ChannelID)

	go render(conn)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return
		}
		send(conn, "send_message", map[string]string{
			"senderId":  cfg.UserID,
			"channelId": cfg.ChannelID,
			"content":   line,
		})
	}
}

func send(conn *websocket.Conn, event string, data interface{}) {
	payload, err := json.Marshal(map[string]interface{}{"event": event, "data": data})
	if err != nil {
		log.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Fatal("write: ", err)
	}
}

func render(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			color.Redln("connection closed:", err)
			os.Exit(1)
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}

		switch env.Event {
		case "receive_message", "message_updated":
			var m message
			if err := json.Unmarshal(env.Data, &m); err != nil {
				continue
			}
			if m.IsDeleted {
				color.Gray.Printf("%s: %s\n", m.SenderName, m.Content)
			} else {
				color.Green.Printf("%s: ", m.SenderName)
				fmt.Println(m.Content)
			}
		case "get_users":
			var users []string
			if err := json.Unmarshal(env.Data, &users); err != nil {
				continue
			}
			color.Cyanln("online:", strings.Join(users, ", "))
		case "typing":
			var t typing
			if err := json.Unmarshal(env.Data, &t); err != nil {
				continue
			}
			color.Yellow.Printf("%s is typing...\n", t.UserID)
		}
	}
}
