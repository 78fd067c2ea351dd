package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/models"
)

type fakeStore struct {
	mu            sync.Mutex
	users         map[uuid.UUID]*models.User
	verifications map[uuid.UUID]*models.Verification
	sessions      map[uuid.UUID]*models.AuthSession
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         map[uuid.UUID]*models.User{},
		verifications: map[uuid.UUID]*models.Verification{},
		sessions:      map[uuid.UUID]*models.AuthSession{},
	}
}

func (f *fakeStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User not found.")
}

func (f *fakeStore) FindUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFound("User not found.")
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) CreateUser(_ context.Context, user *models.User, verification *models.Verification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperr.Conflict("An account with this email already exists.")
		}
	}
	user.ID = uuid.New()
	f.users[user.ID] = user
	verification.ID = uuid.New()
	verification.UserID = user.ID
	verification.Email = user.Email
	f.verifications[verification.ID] = verification
	return nil
}

func (f *fakeStore) CreateVerification(_ context.Context, verification *models.Verification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	verification.ID = uuid.New()
	f.verifications[verification.ID] = verification
	return nil
}

func (f *fakeStore) ConsumeVerification(_ context.Context, id uuid.UUID, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.verifications[id]
	if !ok || v.Email != email {
		return nil, apperr.NotFound("Verification link is invalid or has expired.")
	}
	delete(f.verifications, id)
	u := f.users[v.UserID]
	u.Status = models.UserStatusActive
	copied := *u
	return &copied, nil
}

func (f *fakeStore) CreateSession(_ context.Context, session *models.AuthSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session.ID = uuid.New()
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeStore) FindSession(_ context.Context, accessToken string, userID uuid.UUID) (*models.AuthSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.AccessToken == accessToken && s.UserID == userID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("session not found")
}

func (f *fakeStore) FindSessionByRefresh(_ context.Context, refreshToken string) (*models.AuthSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.RefreshToken == refreshToken {
			copied := *s
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("session not found")
}

func (f *fakeStore) RotateSession(_ context.Context, id uuid.UUID, oldRefresh, access, refresh string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.RefreshToken != oldRefresh {
		return apperr.NotFound("session not found")
	}
	s.AccessToken = access
	s.RefreshToken = refresh
	return nil
}

func (f *fakeStore) DeleteSession(_ context.Context, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.sessions {
		if s.AccessToken == accessToken {
			delete(f.sessions, id)
		}
	}
	return nil
}

func (f *fakeStore) verificationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.verifications)
}

type sentMail struct {
	email string
	link  string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeMailer) SendVerification(_ context.Context, user *models.User, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{email: user.Email, link: link})
	return nil
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
