package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/aretw0/parkdash/pkg/ports"
)

// MockStore is a map-backed CredentialStore used to exercise the contract itself.
type MockStore struct {
	mu   sync.Mutex
	data map[string]domain.Credentials
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]domain.Credentials)}
}

func (m *MockStore) Save(ctx context.Context, sessionID string, creds domain.Credentials) error {
	if err := domain.ValidateSessionID(sessionID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sessionID] = creds
	return nil
}

func (m *MockStore) Load(ctx context.Context, sessionID string) (domain.Credentials, error) {
	if err := domain.ValidateSessionID(sessionID); err != nil {
		return domain.Credentials{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	creds, ok := m.data[sessionID]
	if !ok {
		return domain.Credentials{}, domain.ErrSessionNotFound
	}
	return creds, nil
}

func (m *MockStore) Delete(ctx context.Context, sessionID string) error {
	if err := domain.ValidateSessionID(sessionID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestCredentialStore_Contract(t *testing.T) {
	ports.RunCredentialStoreContract(t, NewMockStore())
}

func TestExecutorFunc(t *testing.T) {
	called := false
	var exec ports.Executor = ports.ExecutorFunc(func(ctx context.Context, call domain.Call) (*domain.Reply, error) {
		called = true
		if call.Operation != "arrival/getArrivals" {
			t.Errorf("unexpected operation %q", call.Operation)
		}
		return &domain.Reply{StatusCode: 200}, nil
	})

	reply, err := exec.Execute(context.Background(), domain.Call{Operation: "arrival/getArrivals"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called || reply.StatusCode != 200 {
		t.Errorf("executor not invoked correctly: called=%v reply=%+v", called, reply)
	}
}
