package tr

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"go.mongodb.org/mongo-driver/mongo"
)

// Manager выполняет функцию внутри многодокументной транзакции MongoDB.
// Сессия передаётся через контекст: репозитории, получившие этот ctx, автоматически работают в транзакции.
// При выключенных транзакциях (standalone mongod) функция выполняется последовательно без сессии.
type Manager struct {
	client  *mongo.Client
	enabled bool
}

func NewManager(client *mongo.Client, enabled bool) *Manager {
	return &Manager{
		client:  client,
		enabled: enabled,
	}
}

// Do выполняет fn в транзакции. Если контекст уже несёт сессию, fn выполняется в ней же.
func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if !m.enabled || InTransaction(ctx) {
		return fn(ctx)
	}

	sess, err := m.client.StartSession()
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})

	return err
}

// Enabled сообщает, даёт ли менеджер атомарность на уровне базы.
func (m *Manager) Enabled() bool {
	return m.enabled
}

// InTransaction сообщает, несёт ли контекст сессию MongoDB.
func InTransaction(ctx context.Context) bool {
	return mongo.SessionFromContext(ctx) != nil
}
