package chat

import (
	"context"
	"time"

	"cloud.google.com/go/compute/metadata"
	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/youquery/backend/logger"
)

const (
	firestoreUserCollection = "users"

	SenderUser = "user"
	SenderBot  = "bot"
)

// Message is one conversation turn. Conversations are append-only;
// ordering is arrival order.
type Message struct {
	ID     string    `firestore:"id" json:"id"`
	Text   string    `firestore:"text" json:"text"`
	Sender string    `firestore:"sender" json:"sender"`
	SentAt time.Time `firestore:"sent_at" json:"timestamp"`
}

type conversation struct {
	ID       string     `firestore:"conversation_id"`
	Messages []*Message `firestore:"messages"`
}

type firestoreUser struct {
	DisplayName   string          `firestore:"display_name"`
	Conversations []*conversation `firestore:"conversations"`
}

// History persists conversation turns. A nil History on the Relay disables
// persistence entirely.
type History interface {
	Load(ctx context.Context, userID, conversationID string) ([]*Message, error)
	Append(ctx context.Context, userID, conversationID string, msgs ...*Message) error
}

// FirestoreHistory keeps each user's conversations on their Firestore user
// document. Writes are whole-document, last writer wins, which matches the
// single-owner usage of a personal dashboard.
type FirestoreHistory struct{}

func (FirestoreHistory) Load(ctx context.Context, userID, conversationID string) ([]*Message, error) {
	client, err := newFirestoreClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	user, err := loadUser(ctx, client, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		logger.FromContext(ctx).Printf("user not found: %s", userID)
		return nil, nil
	}

	conv := findConversation(user.Conversations, conversationID)
	if conv == nil {
		logger.FromContext(ctx).Printf("conversation not found: %s", conversationID)
		return nil, nil
	}
	return conv.Messages, nil
}

func (FirestoreHistory) Append(ctx context.Context, userID, conversationID string, msgs ...*Message) error {
	client, err := newFirestoreClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	user, err := loadUser(ctx, client, userID)
	if err != nil {
		return err
	}
	if user == nil {
		user = &firestoreUser{}
	}

	conv := findConversation(user.Conversations, conversationID)
	if conv == nil {
		conv = &conversation{ID: conversationID}
		user.Conversations = append(user.Conversations, conv)
	}
	conv.Messages = append(conv.Messages, msgs...)

	_, err = client.Collection(firestoreUserCollection).Doc(userID).Set(ctx, user)
	return err
}

func newFirestoreClient(ctx context.Context) (*firestore.Client, error) {
	projectID, err := metadata.ProjectIDWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return firestore.NewClient(ctx, projectID)
}

func loadUser(ctx context.Context, client *firestore.Client, userID string) (*firestoreUser, error) {
	doc, err := client.Collection(firestoreUserCollection).Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	user := &firestoreUser{}
	if err := doc.DataTo(user); err != nil {
		return nil, err
	}
	return user, nil
}

func findConversation(conversations []*conversation, conversationID string) *conversation {
	for _, conv := range conversations {
		if conv.ID == conversationID {
			return conv
		}
	}
	return nil
}
