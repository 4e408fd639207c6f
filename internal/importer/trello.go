package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const trelloBaseURL = "https://api.trello.com"

// TrelloClient pulls cards off a board with the plain REST API.
type TrelloClient struct {
	Key     string
	Token   string
	BaseURL string
	HTTP    *http.Client
}

func NewTrelloClient(key, token string) *TrelloClient {
	return &TrelloClient{
		Key:     key,
		Token:   token,
		BaseURL: trelloBaseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type trelloList struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type trelloCard struct {
	Name   string `json:"name"`
	Desc   string `json:"desc"`
	Due    string `json:"due"` // RFC3339 or empty
	IDList string `json:"idList"`
}

// BoardTasks fetches a board's lists and cards and normalizes them into
// raw task requests. The list a card sits in decides its status.
func (c *TrelloClient) BoardTasks(ctx context.Context, boardID string) ([]RawTask, error) {
	var lists []trelloList
	if err := c.get(ctx, fmt.Sprintf("/1/boards/%s/lists", url.PathEscape(boardID)), "fields=name", &lists); err != nil {
		return nil, fmt.Errorf("trello lists: %w", err)
	}

	listName := map[string]string{}
	for _, l := range lists {
		listName[l.ID] = l.Name
	}

	var cards []trelloCard
	if err := c.get(ctx, fmt.Sprintf("/1/boards/%s/cards", url.PathEscape(boardID)), "fields=name,desc,due,idList", &cards); err != nil {
		return nil, fmt.Errorf("trello cards: %w", err)
	}

	tasks := make([]RawTask, 0, len(cards))
	for _, card := range cards {
		if strings.TrimSpace(card.Name) == "" {
			continue
		}
		var deadline *time.Time
		if card.Due != "" {
			if d, err := time.Parse(time.RFC3339, card.Due); err == nil {
				deadline = &d
			}
		}
		tasks = append(tasks, RawTask{
			Title:       card.Name,
			Description: card.Desc,
			Status:      StatusFromTrelloList(listName[card.IDList]),
			Deadline:    deadline,
		})
	}

	return tasks, nil
}

func (c *TrelloClient) get(ctx context.Context, path, query string, out any) error {
	base := c.BaseURL
	if base == "" {
		base = trelloBaseURL
	}

	u := fmt.Sprintf("%s%s?%s&key=%s&token=%s",
		base, path, query, url.QueryEscape(c.Key), url.QueryEscape(c.Token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	res, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// StatusFromTrelloList maps a Trello list name onto a task status with the
// usual naming heuristics. Unrecognized lists mean todo.
func StatusFromTrelloList(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "done") || strings.Contains(n, "complete"):
		return "done"
	case strings.Contains(n, "progress") || strings.Contains(n, "doing"):
		return "in_progress"
	case strings.Contains(n, "blocked") || strings.Contains(n, "waiting"):
		return "blocked"
	default:
		return "todo"
	}
}
