package importer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTrelloBoardTasks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "k" || r.URL.Query().Get("token") != "t" {
			t.Errorf("missing credentials on %s", r.URL.Path)
		}
		switch r.URL.Path {
		case "/1/boards/b1/lists":
			_ = json.NewEncoder(w).Encode([]map[string]string{
				{"id": "l1", "name": "Doing"},
				{"id": "l2", "name": "Done"},
			})
		case "/1/boards/b1/cards":
			_ = json.NewEncoder(w).Encode([]map[string]string{
				{"name": "Wire payments", "desc": "stripe", "due": "2025-07-01T12:00:00Z", "idList": "l1"},
				{"name": "Kickoff", "desc": "", "due": "", "idList": "l2"},
				{"name": "  ", "desc": "ghost card", "due": "", "idList": "l2"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewTrelloClient("k", "t")
	client.BaseURL = srv.URL

	tasks, err := client.BoardTasks(context.Background(), "b1")
	if err != nil {
		t.Fatalf("BoardTasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks (blank card skipped), got %d", len(tasks))
	}

	if tasks[0].Title != "Wire payments" || tasks[0].Status != "in_progress" {
		t.Errorf("card in Doing list: %+v", tasks[0])
	}
	if tasks[0].Deadline == nil {
		t.Error("due date should parse into a deadline")
	}
	if tasks[1].Status != "done" {
		t.Errorf("card in Done list got status %q", tasks[1].Status)
	}
	if tasks[1].Deadline != nil {
		t.Errorf("empty due should be nil, got %v", tasks[1].Deadline)
	}
}

func TestTrelloErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewTrelloClient("bad", "bad")
	client.BaseURL = srv.URL

	if _, err := client.BoardTasks(context.Background(), "b1"); err == nil {
		t.Error("expected error on 401 from trello")
	}
}
