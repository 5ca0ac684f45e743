package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/KatanaSword/chit-chat/internal/core/domain"
	"github.com/KatanaSword/chit-chat/internal/core/port"
	"github.com/KatanaSword/chit-chat/internal/repository"
)

// mockUserRepository is an in-memory port.UserRepository. It enforces the
// same uniqueness rules as the real collection and is safe for concurrent
// use so serialization tests exercise real interleavings.
// updatePasswordHook, when set, runs before UpdatePassword takes the store
// mutex, letting tests hold a password change mid-flight.
type mockUserRepository struct {
	mu                 sync.Mutex
	users              map[string]*domain.User
	updatePasswordHook func()
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) Create(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		switch {
		case existing.Username == user.Username:
			return &repository.DuplicateKeyError{Field: "username"}
		case existing.Email == user.Email:
			return &repository.DuplicateKeyError{Field: "email"}
		case existing.PhoneNumber == user.PhoneNumber:
			return &repository.DuplicateKeyError{Field: "phoneNumber"}
		}
	}

	copied := user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *mockUserRepository) GetByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	normalized := domain.NormalizeIdentifier(identifier)
	for _, user := range m.users {
		if user.Username == normalized || user.Email == normalized {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepository) GetByResetHash(_ context.Context, digest string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if digest == "" {
		return nil, repository.ErrNotFound
	}
	for _, user := range m.users {
		if user.PasswordReset.Hash == digest {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepository) UpdatePassword(_ context.Context, id, passwordHash string) error {
	if m.updatePasswordHook != nil {
		m.updatePasswordHook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepository) SetRefreshTokenHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.RefreshTokenHash = hash
	return nil
}

func (m *mockUserRepository) SetSecret(_ context.Context, id string, purpose domain.VerificationPurpose, ref domain.SecretRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	switch purpose {
	case domain.VerifyEmail:
		user.EmailVerification = ref
	case domain.VerifyPhone:
		user.PhoneVerification = ref
	case domain.ResetPassword:
		user.PasswordReset = ref
	}
	return nil
}

func (m *mockUserRepository) ClearSecret(_ context.Context, id string, purpose domain.VerificationPurpose) error {
	return m.SetSecret(context.Background(), id, purpose, domain.SecretRef{})
}

func (m *mockUserRepository) MarkVerified(_ context.Context, id string, purpose domain.VerificationPurpose) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	switch purpose {
	case domain.VerifyEmail:
		user.IsEmailVerified = true
		user.EmailVerification = domain.SecretRef{}
	case domain.VerifyPhone:
		user.IsPhoneVerified = true
		user.PhoneVerification = domain.SecretRef{}
	}
	return nil
}

func (m *mockUserRepository) UpdateProfile(_ context.Context, id string, update port.ProfileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.About != nil {
		user.About = *update.About
	}
	if update.Avatar != nil {
		user.Avatar = *update.Avatar
	}
	return nil
}

// seed stores a user without uniqueness checks.
func (m *mockUserRepository) seed(user domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := user
	m.users[user.ID] = &copied
}

// stored returns the current record for assertions.
func (m *mockUserRepository) stored(id string) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return domain.User{}
	}
	return *user
}

// mockChatRepository is an in-memory port.ChatRepository.
type mockChatRepository struct {
	mu    sync.Mutex
	chats map[string]*domain.Chat
}

func newMockChatRepository() *mockChatRepository {
	return &mockChatRepository{chats: make(map[string]*domain.Chat)}
}

func (m *mockChatRepository) Create(_ context.Context, chat domain.Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := chat
	m.chats[chat.ID] = &copied
	return nil
}

func (m *mockChatRepository) GetByID(_ context.Context, id string) (*domain.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat, ok := m.chats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *chat
	return &copied, nil
}

func (m *mockChatRepository) ListByParticipant(_ context.Context, userID string) ([]domain.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Chat
	for _, chat := range m.chats {
		if chat.HasParticipant(userID) {
			out = append(out, *chat)
		}
	}
	return out, nil
}

func (m *mockChatRepository) SetLastMessage(_ context.Context, chatID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat, ok := m.chats[chatID]
	if !ok {
		return repository.ErrNotFound
	}
	chat.LastMessageID = messageID
	return nil
}

// mockMessageRepository is an in-memory port.MessageRepository.
type mockMessageRepository struct {
	mu       sync.Mutex
	messages []domain.Message
}

func newMockMessageRepository() *mockMessageRepository {
	return &mockMessageRepository{}
}

func (m *mockMessageRepository) Create(_ context.Context, message domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return nil
}

func (m *mockMessageRepository) ListByChat(_ context.Context, chatID string, limit int) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Message
	for _, message := range m.messages {
		if message.ChatID == chatID {
			out = append(out, message)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// mockEventPublisher records published events for assertions. failSecrets
// makes secret publications fail to exercise delivery degradation.
type mockEventPublisher struct {
	mu          sync.Mutex
	registered  []domain.UserRegisteredEvent
	secrets     []domain.SecretIssuedEvent
	passwords   []domain.PasswordChangedEvent
	messages    []domain.MessageSentEvent
	failSecrets bool
}

func newMockEventPublisher() *mockEventPublisher {
	return &mockEventPublisher{}
}

func (m *mockEventPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered = append(m.registered, event)
	return nil
}

func (m *mockEventPublisher) PublishSecretIssued(_ context.Context, event domain.SecretIssuedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSecrets {
		return errors.New("publisher unavailable")
	}
	m.secrets = append(m.secrets, event)
	return nil
}

func (m *mockEventPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passwords = append(m.passwords, event)
	return nil
}

func (m *mockEventPublisher) PublishMessageSent(_ context.Context, event domain.MessageSentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, event)
	return nil
}

func (m *mockEventPublisher) lastSecret() (domain.SecretIssuedEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.secrets) == 0 {
		return domain.SecretIssuedEvent{}, false
	}
	return m.secrets[len(m.secrets)-1], true
}
