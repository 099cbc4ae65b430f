package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"LiveDesk/internal/config"
	"LiveDesk/internal/lib/sl"
)

const (
	environmentsCollection = "environments"
	agentsCollection       = "agents"
)

// MongoDB wraps the shared client. Tenant-scoped stores are constructed
// through Chats/Messages/Users so that every query is bound to one
// (org_id, env_type) collection; there is no way to pass a foreign
// tenant as a filter.
type MongoDB struct {
	client   *mongo.Client
	database string
	indexed  sync.Map
	log      *slog.Logger
}

func NewMongoClient(conf *config.Config, logger *slog.Logger) (*MongoDB, error) {
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().
		ApplyURI(connectionUri).
		SetServerSelectionTimeout(5 * time.Second)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	connection, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect error: %w", err)
	}
	if err = connection.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping error: %w", err)
	}

	return &MongoDB{
		client:   connection,
		database: conf.Mongo.Database,
		log:      logger.With(sl.Module("mongodb")),
	}, nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoDB) collection(name string) *mongo.Collection {
	return m.client.Database(m.database).Collection(name)
}

func (m *MongoDB) findError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return fmt.Errorf("mongodb find error: %w", err)
}

// ensureOnce creates a collection's indexes the first time the scope
// is touched. Tenant collections only come into existence on first
// use, so this cannot run at startup.
func (m *MongoDB) ensureOnce(collection string, store interface {
	EnsureIndexes(ctx context.Context) error
}) {
	if _, loaded := m.indexed.LoadOrStore(collection, struct{}{}); loaded {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.EnsureIndexes(ctx); err != nil {
			m.log.Warn("ensure indexes", slog.String("collection", collection), sl.Err(err))
			m.indexed.Delete(collection)
		}
	}()
}

// Chats returns the chat store bound to one tenant scope.
func (m *MongoDB) Chats(orgID string, envType string) *ChatStore {
	store := &ChatStore{
		db:         m,
		collection: fmt.Sprintf("chats_%s_%s", orgID, envType),
		orgID:      orgID,
		envType:    envType,
	}
	m.ensureOnce(store.collection, store)
	return store
}

// Messages returns the message store bound to one tenant scope.
func (m *MongoDB) Messages(orgID string, envType string) *MessageStore {
	store := &MessageStore{
		db:         m,
		collection: fmt.Sprintf("messages_%s_%s", orgID, envType),
		orgID:      orgID,
		envType:    envType,
	}
	m.ensureOnce(store.collection, store)
	return store
}

// Users returns the user store bound to one tenant scope.
func (m *MongoDB) Users(orgID string, envType string) *UserStore {
	store := &UserStore{
		db:         m,
		collection: fmt.Sprintf("users_%s_%s", orgID, envType),
		orgID:      orgID,
		envType:    envType,
	}
	m.ensureOnce(store.collection, store)
	return store
}

// Environments returns the global credential store.
func (m *MongoDB) Environments() *EnvironmentStore {
	return &EnvironmentStore{db: m}
}
