package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/skillhunt/messaging-backend/internal/models"
)

// messageDTO is the backend wire shape for a message. Timestamps are epoch
// milliseconds.
type messageDTO struct {
	ID                   string   `json:"id"`
	ConversationID       string   `json:"conversationId"`
	SenderID             string   `json:"senderId"`
	ReceiverID           string   `json:"receiverId"`
	Text                 string   `json:"text"`
	Timestamp            int64    `json:"timestamp"`
	ReadByParticipantIDs []string `json:"readByParticipantIds,omitempty"`
	SenderName           string   `json:"senderName,omitempty"`
}

type conversationDTO struct {
	ID                    string         `json:"id"`
	ParticipantIDs        []string       `json:"participantIds"`
	LastMessage           *messageDTO    `json:"lastMessage,omitempty"`
	LastActivityTimestamp int64          `json:"lastActivityTimestamp"`
	UnreadCounts          map[string]int `json:"unreadCounts,omitempty"`
}

// HTTPSource is the authoritative remote message source, a thin JSON client
// for the backend API.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchConversations implements MessageSource.
func (s *HTTPSource) FetchConversations(ctx context.Context, viewerID string) ([]models.ConversationSnippet, error) {
	endpoint := fmt.Sprintf("%s/api/v1/conversations?user_id=%s", s.baseURL, url.QueryEscape(viewerID))
	var dtos []conversationDTO
	if err := s.getJSON(ctx, endpoint, &dtos); err != nil {
		return nil, err
	}

	snippets := make([]models.ConversationSnippet, 0, len(dtos))
	for _, dto := range dtos {
		snippet := models.ConversationSnippet{
			ConversationID:       dto.ID,
			LastMessageTimestamp: time.UnixMilli(dto.LastActivityTimestamp),
			UnreadCount:          dto.UnreadCounts[viewerID],
		}
		for _, pid := range dto.ParticipantIDs {
			if pid != viewerID {
				snippet.OtherUserID = pid
				break
			}
		}
		if dto.LastMessage != nil {
			snippet.LastMessageText = dto.LastMessage.Text
			snippet.LastMessageTimestamp = time.UnixMilli(dto.LastMessage.Timestamp)
		}
		snippets = append(snippets, snippet)
	}
	return snippets, nil
}

// FetchMessages implements MessageSource.
func (s *HTTPSource) FetchMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	endpoint := fmt.Sprintf("%s/api/v1/conversations/%s/messages", s.baseURL, url.PathEscape(conversationID))
	var dtos []messageDTO
	if err := s.getJSON(ctx, endpoint, &dtos); err != nil {
		return nil, err
	}

	msgs := make([]models.Message, 0, len(dtos))
	for _, dto := range dtos {
		msgs = append(msgs, dto.toModel())
	}
	return msgs, nil
}

// Send implements MessageSource. The client-assigned message id travels with
// the request so a later fetch of the server's echo de-duplicates cleanly.
func (s *HTTPSource) Send(ctx context.Context, req models.SendMessageRequest) (models.Message, error) {
	return s.SendWithID(ctx, "", req)
}

// SendWithID sends a message carrying a pre-assigned id.
func (s *HTTPSource) SendWithID(ctx context.Context, messageID string, req models.SendMessageRequest) (models.Message, error) {
	body, err := json.Marshal(struct {
		ID string `json:"id,omitempty"`
		models.SendMessageRequest
	}{ID: messageID, SendMessageRequest: req})
	if err != nil {
		return models.Message{}, fmt.Errorf("encoding send request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v1/messages", bytes.NewReader(body))
	if err != nil {
		return models.Message{}, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return models.Message{}, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Message{}, fmt.Errorf("%w: backend send returned %d", models.ErrSourceUnavailable, resp.StatusCode)
	}

	var dto messageDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return models.Message{}, fmt.Errorf("%w: decoding send response: %v", models.ErrSourceUnavailable, err)
	}
	return dto.toModel(), nil
}

func (s *HTTPSource) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", models.ErrNotFound, endpoint)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: backend returned %d", models.ErrSourceUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", models.ErrSourceUnavailable, err)
	}
	return nil
}

func (dto messageDTO) toModel() models.Message {
	isRead := false
	for _, pid := range dto.ReadByParticipantIDs {
		if pid == dto.ReceiverID {
			isRead = true
			break
		}
	}
	return models.Message{
		ID:             dto.ID,
		ConversationID: dto.ConversationID,
		SenderID:       dto.SenderID,
		ReceiverID:     dto.ReceiverID,
		Text:           dto.Text,
		Timestamp:      time.UnixMilli(dto.Timestamp),
		IsRead:         isRead,
		SenderName:     dto.SenderName,
	}
}
