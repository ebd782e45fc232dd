package stylist

import (
	"context"
	"testing"

	"github.com/raushankrgupta/eyewear-stylist/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	session := &models.Session{
		ID:   "abc",
		Mode: models.ModeTryOn,
		Messages: []models.ChatMessage{
			{ID: "1", Role: models.RoleModel, Text: "hi", Links: []models.Link{{Title: "a", URL: "https://a.example"}}},
		},
	}
	require.NoError(t, store.Save(ctx, session))

	// later changes to the caller's copy do not leak into the store
	session.Messages[0].Links[0].Title = "changed"
	session.Mode = models.ModeConsultant

	loaded, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, models.ModeTryOn, loaded.Mode)
	assert.Equal(t, "a", loaded.Messages[0].Links[0].Title)

	loaded.Messages[0].Text = "mutated"
	again, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "hi", again.Messages[0].Text)

	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Load(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

type failingStore struct {
	*MemoryStore
	saves int
}

func (f *failingStore) Save(context.Context, *models.Session) error {
	f.saves++
	return assert.AnError
}

func TestControllerSurvivesStoreFailure(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore()}
	ctrl := NewController(&models.Session{ID: "s"}, Dependencies{
		Generator:  &fakeGenerator{},
		Consultant: &fakeConsultant{reply: models.ConsultationReply{Text: "ok", Links: []models.Link{}}},
		Store:      store,
	})
	ctx := context.Background()

	require.NoError(t, ctrl.UploadSubjectImage(ctx, subjectURL))
	require.NoError(t, ctrl.Generate(ctx))
	require.NoError(t, ctrl.SendChatMessage(ctx, "hello"))

	assert.Equal(t, 4, store.saves)
	assert.Len(t, ctrl.Snapshot().Session.Messages, 3)
}
