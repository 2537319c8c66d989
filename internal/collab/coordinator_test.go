package collab_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/unclebandit/dripflow-backend/internal/collab"
	"github.com/unclebandit/dripflow-backend/internal/graph"
	"github.com/unclebandit/dripflow-backend/internal/model"
)

// capturePublisher records every published snapshot.
type capturePublisher struct {
	mu        sync.Mutex
	snapshots []model.Campaign
	userIDs   []string
}

func (p *capturePublisher) SendChange(campaignID string, campaign model.Campaign, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, campaign)
	p.userIDs = append(p.userIDs, userID)
	return nil
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.snapshots)
}

func (p *capturePublisher) last() model.Campaign {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshots[len(p.snapshots)-1]
}

type captureSaver struct {
	saved []model.Campaign
	err   error
}

func (s *captureSaver) Save(campaign model.Campaign) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, campaign)
	return nil
}

func newTestCoordinator(pub *capturePublisher) *collab.Coordinator {
	return &collab.Coordinator{
		Graph:      graph.New(model.Campaign{ID: "c1", Name: "Test"}),
		Publisher:  pub,
		CampaignID: "c1",
		UserID:     "u1",
		Debounce:   100 * time.Millisecond,
	}
}

func TestLocalEditPublishesWholeSnapshot(t *testing.T) {
	pub := &capturePublisher{}
	c := newTestCoordinator(pub)

	node, err := c.AddNode(model.NodeWait, model.Position{X: 1, Y: 2})
	if err != nil {
		t.Fatalf("add node: %v", err)
	}

	if pub.count() != 1 {
		t.Fatalf("expected 1 publish, got %d", pub.count())
	}
	snapshot := pub.last()
	if len(snapshot.Nodes) != 1 || snapshot.Nodes[0].ID != node.ID {
		t.Errorf("published snapshot must carry the new node, got %+v", snapshot.Nodes)
	}
	if pub.userIDs[0] != "u1" {
		t.Errorf("publish must be tagged with the acting user, got %q", pub.userIDs[0])
	}
	if !c.Dirty() {
		t.Error("local edit must mark dirty")
	}
}

func TestSelfOriginUpdateIsDiscarded(t *testing.T) {
	pub := &capturePublisher{}
	c := newTestCoordinator(pub)
	c.AddNode(model.NodeEmail, model.Position{})
	before := c.Snapshot()

	c.ApplyRemote(model.Campaign{ID: "c1", Name: "Echo"}, "u1")

	if !reflect.DeepEqual(before, c.Snapshot()) {
		t.Error("an update tagged with the local user's id must leave the graph unchanged")
	}
}

func TestRemoteUpdateReplacesWholeGraph(t *testing.T) {
	pub := &capturePublisher{}
	c := newTestCoordinator(pub)
	c.AddNode(model.NodeEmail, model.Position{})

	remote := model.Campaign{
		ID:    "c1",
		Name:  "Theirs",
		Nodes: []model.Node{{ID: "n-remote", Type: model.NodeAction, Data: &model.ActionData{Name: "A", ActionType: "tag"}}},
	}
	c.ApplyRemote(remote, "u2")

	snapshot := c.Snapshot()
	if len(snapshot.Nodes) != 1 || snapshot.Nodes[0].ID != "n-remote" {
		t.Errorf("remote snapshot must fully overwrite local state, got %+v", snapshot.Nodes)
	}
	if pub.count() != 1 {
		t.Errorf("applying a remote update must not publish, got %d publishes", pub.count())
	}
}

func TestLastWriterWins(t *testing.T) {
	// A and B both start from S. A publishes S1, then B publishes S2 built
	// from S. Every observer must end in S2: A's edit is lost, by contract.
	base := model.Campaign{
		ID:    "c1",
		Nodes: []model.Node{{ID: "start", Type: model.NodeEmail, Data: &model.EmailData{Name: "Start", Subject: "s", Template: "welcome"}}},
	}

	pubA := &capturePublisher{}
	a := &collab.Coordinator{Graph: graph.New(base), Publisher: pubA, CampaignID: "c1", UserID: "a"}
	pubB := &capturePublisher{}
	b := &collab.Coordinator{Graph: graph.New(base), Publisher: pubB, CampaignID: "c1", UserID: "b"}
	observer := &collab.Coordinator{Graph: graph.New(base), Publisher: &capturePublisher{}, CampaignID: "c1", UserID: "o"}

	// A renames the start node's subject.
	if err := a.UpdateNodeData("start", json.RawMessage(`{"subject": "from A"}`)); err != nil {
		t.Fatalf("a edit: %v", err)
	}
	s1 := pubA.last()

	// B, still on S, adds a node.
	if _, err := b.AddNode(model.NodeWait, model.Position{}); err != nil {
		t.Fatalf("b edit: %v", err)
	}
	s2 := pubB.last()

	observer.ApplyRemote(s1, "a")
	observer.ApplyRemote(s2, "b")

	final := observer.Snapshot()
	if len(final.Nodes) != 2 {
		t.Fatalf("expected B's snapshot (2 nodes), got %d", len(final.Nodes))
	}
	subject := final.Nodes[0].Data.(*model.EmailData).Subject
	if subject == "from A" {
		t.Error("A's concurrent edit must be lost, not merged")
	}
	if subject != "s" {
		t.Errorf("observer must hold exactly S2, got subject %q", subject)
	}
}

func TestDragPublishesOnceAfterQuiescence(t *testing.T) {
	pub := &capturePublisher{}
	c := newTestCoordinator(pub)
	node, _ := c.AddNode(model.NodeEmail, model.Position{})
	if pub.count() != 1 {
		t.Fatalf("setup publish expected, got %d", pub.count())
	}

	for i := 1; i <= 10; i++ {
		c.MoveNodes(map[string]model.Position{
			node.ID: {X: float64(i * 10), Y: float64(i)},
		})
		time.Sleep(time.Millisecond)
	}

	// Inside the quiescence window nothing extra is published.
	if pub.count() != 1 {
		t.Fatalf("drag must not publish before the window elapses, got %d", pub.count())
	}

	time.Sleep(300 * time.Millisecond)

	if pub.count() != 2 {
		t.Fatalf("10 rapid moves must produce exactly one publish, got %d", pub.count()-1)
	}
	final := pub.last()
	if final.Nodes[0].Position.X != 100 || final.Nodes[0].Position.Y != 10 {
		t.Errorf("flushed snapshot must carry the final positions, got %+v", final.Nodes[0].Position)
	}
}

func TestImmediateEditFoldsPendingPositions(t *testing.T) {
	pub := &capturePublisher{}
	c := newTestCoordinator(pub)
	node, _ := c.AddNode(model.NodeEmail, model.Position{})

	c.MoveNodes(map[string]model.Position{node.ID: {X: 77, Y: 0}})
	if err := c.UpdateNodeData(node.ID, json.RawMessage(`{"name": "Renamed"}`)); err != nil {
		t.Fatalf("update: %v", err)
	}

	// The immediate publish carries the moved position.
	snapshot := pub.last()
	if snapshot.Nodes[0].Position.X != 77 {
		t.Errorf("pending positions must be folded into the immediate publish, got %+v", snapshot.Nodes[0].Position)
	}

	// Then nothing more fires when the window elapses.
	count := pub.count()
	time.Sleep(300 * time.Millisecond)
	if pub.count() != count {
		t.Errorf("debounce timer must be cancelled by the immediate publish, got %d extra", pub.count()-count)
	}
}

func TestSelectionReResolvedAfterRemoteUpdate(t *testing.T) {
	pub := &capturePublisher{}
	c := newTestCoordinator(pub)
	node, _ := c.AddNode(model.NodeWait, model.Position{})
	c.Select(node.ID)

	// Remote snapshot still contains the node with new data.
	remote := model.Campaign{
		ID:    "c1",
		Nodes: []model.Node{{ID: node.ID, Type: model.NodeWait, Data: &model.WaitData{Name: "W", Duration: "5d"}}},
	}
	c.ApplyRemote(remote, "u2")

	selected, ok := c.Selected()
	if !ok {
		t.Fatal("selection must survive when the node still exists")
	}
	if selected.Data.(*model.WaitData).Duration != "5d" {
		t.Error("selection must point at the new snapshot's node, not a stale copy")
	}

	// Remote snapshot without the node clears the selection.
	c.ApplyRemote(model.Campaign{ID: "c1"}, "u2")
	if _, ok := c.Selected(); ok {
		t.Error("selection must be cleared when the node is gone")
	}
}

func TestSaveClearsDirtyOnlyOnSuccess(t *testing.T) {
	pub := &capturePublisher{}
	c := newTestCoordinator(pub)
	c.AddNode(model.NodeEmail, model.Position{})

	failing := &captureSaver{err: errors.New("boom")}
	if err := c.Save(failing); err == nil {
		t.Fatal("expected save error")
	}
	if !c.Dirty() {
		t.Error("failed save must leave the dirty flag set")
	}

	publishes := pub.count()
	ok := &captureSaver{}
	if err := c.Save(ok); err != nil {
		t.Fatalf("save: %v", err)
	}
	if c.Dirty() {
		t.Error("successful save must clear the dirty flag")
	}
	if len(ok.saved) != 1 {
		t.Fatalf("expected one persisted snapshot, got %d", len(ok.saved))
	}
	if pub.count() != publishes {
		t.Error("save must not broadcast")
	}
}
