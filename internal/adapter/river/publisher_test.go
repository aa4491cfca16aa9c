package river_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"
	"time"

	goriver "github.com/riverqueue/river"

	_ "modernc.org/sqlite"

	riveradapter "github.com/basecloud/tenantd/internal/adapter/river"
	"github.com/basecloud/tenantd/internal/domain"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := t.TempDir() + "/river_test.db"
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		t.Fatalf("setting WAL: %v", err)
	}

	return db
}

type brokerMsg struct {
	routingKey string
	body       []byte
}

// captureBroker records deliveries in place of RabbitMQ.
type captureBroker struct {
	mu   sync.Mutex
	msgs []brokerMsg
}

func (b *captureBroker) PublishTopic(_ context.Context, routingKey string, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, brokerMsg{routingKey: routingKey, body: body})
	return nil
}

func (b *captureBroker) all() []brokerMsg {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]brokerMsg(nil), b.msgs...)
}

func startClient(t *testing.T, db *sql.DB, broker riveradapter.Broker) (*riveradapter.Client, <-chan *goriver.Event) {
	t.Helper()

	client, err := riveradapter.Setup(context.Background(), db, broker)
	if err != nil {
		t.Fatalf("river setup: %v", err)
	}

	// Subscribe to job completions before starting so we don't miss events.
	completed, cancel := client.Subscribe(goriver.EventKindJobCompleted)
	t.Cleanup(cancel)

	if err := client.Start(context.Background()); err != nil {
		t.Fatalf("river start: %v", err)
	}
	t.Cleanup(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		if err := client.Stop(stopCtx); err != nil {
			t.Errorf("river stop: %v", err)
		}
	})

	return client, completed
}

func waitForCompletion(t *testing.T, completed <-chan *goriver.Event) {
	t.Helper()

	select {
	case <-completed:
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for job completion")
	}
}

func TestPublisher_DeliversToBroker(t *testing.T) {
	db := setupTestDB(t)
	broker := &captureBroker{}
	client, completed := startClient(t, db, broker)

	pub := riveradapter.NewPublisher(client)
	payload := domain.OrganizeCreated{
		ID:       "t1",
		TenantID: "t1",
		Type:     domain.OrgTypeOrganization,
		Name:     "Acme",
		Alias:    "acme",
		FullName: "Acme",
	}

	if err := pub.Publish(context.Background(), domain.RouteOrganizeCreated, payload); err != nil {
		t.Fatalf("publish: %v", err)
	}

	waitForCompletion(t, completed)

	msgs := broker.all()
	if len(msgs) != 1 {
		t.Fatalf("broker received %d messages, want 1", len(msgs))
	}
	if msgs[0].routingKey != domain.RouteOrganizeCreated {
		t.Errorf("routing key = %q, want %q", msgs[0].routingKey, domain.RouteOrganizeCreated)
	}

	var got domain.OrganizeCreated
	if err := json.Unmarshal(msgs[0].body, &got); err != nil {
		t.Fatalf("decoding delivered payload: %v", err)
	}
	if got != payload {
		t.Errorf("delivered payload = %+v, want %+v", got, payload)
	}
}

func TestPublisher_NilBrokerLogsOnly(t *testing.T) {
	db := setupTestDB(t)
	client, completed := startClient(t, db, nil)

	pub := riveradapter.NewPublisher(client)
	user := domain.UserCreated{ID: "u1", Account: "acme"}

	if err := pub.Publish(context.Background(), domain.RouteUserCreated, user); err != nil {
		t.Fatalf("publish: %v", err)
	}

	// The job must still complete; delivery is skipped, not failed.
	waitForCompletion(t, completed)
}
