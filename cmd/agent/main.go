// cmd/agent/main.go
package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/unclebandit/dripflow-backend/internal/collab"
	"github.com/unclebandit/dripflow-backend/internal/graph"
	"github.com/unclebandit/dripflow-backend/internal/model"
)

// A headless collaborator: joins a campaign room, mirrors every remote
// snapshot into a local graph and logs what it sees. Useful for smoke
// testing a live server with real websocket traffic.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	serverURL := flag.String("server", envOr("SERVER_URL", "http://localhost:8080"), "server base URL")
	campaignID := flag.String("campaign", "", "campaign id to join")
	userID := flag.String("user", "agent", "user id to join as")
	flag.Parse()

	if *campaignID == "" {
		log.Fatal("campaign id is required")
	}

	coordinator := &collab.Coordinator{
		Graph:      graph.New(model.Campaign{ID: *campaignID}),
		CampaignID: *campaignID,
		UserID:     *userID,
	}

	done := make(chan struct{})
	channel, err := collab.Dial(*serverURL, collab.Handlers{
		CampaignUpdate: func(campaign model.Campaign, originUserID string) {
			coordinator.ApplyRemote(campaign, originUserID)
			snapshot := coordinator.Snapshot()
			log.Printf("📩 update from %s: %d nodes, %d edges\n",
				originUserID, len(snapshot.Nodes), len(snapshot.Edges))
		},
		Collaborators: func(collaborators []string) {
			log.Println("👥 collaborators:", collaborators)
		},
		UserJoined: func(joinedUserID string) {
			log.Println("👋 user joined:", joinedUserID)
		},
		Disconnect: func(err error) {
			if err != nil {
				log.Println("⚠️ channel disconnected:", err)
			}
			close(done)
		},
	})
	if err != nil {
		log.Fatal("failed to dial server:", err)
	}
	defer channel.Close()

	if err := channel.JoinCampaign(*campaignID, *userID); err != nil {
		log.Fatal("failed to join campaign:", err)
	}
	log.Printf("Agent %s watching campaign %s\n", *userID, *campaignID)

	<-done
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
