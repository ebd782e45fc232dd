package stylist

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/raushankrgupta/eyewear-stylist/models"
	"github.com/raushankrgupta/eyewear-stylist/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generateCall struct {
	source, instruction, reference string
}

type fakeGenerator struct {
	mu      sync.Mutex
	calls   []generateCall
	results []string
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeGenerator) GenerateEyewearImage(_ context.Context, source, instruction, reference string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, generateCall{source, instruction, reference})
	n := len(f.calls)
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return "", f.err
	}
	if n <= len(f.results) {
		return f.results[n-1], nil
	}
	return utils.EncodeDataURL([]byte("generated"), "image/png"), nil
}

func (f *fakeGenerator) Calls() []generateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]generateCall(nil), f.calls...)
}

type fakeConsultant struct {
	mu        sync.Mutex
	histories [][]models.ChatTurn
	messages  []string
	reply     models.ConsultationReply
}

func (f *fakeConsultant) Chat(_ context.Context, message string, history []models.ChatTurn) models.ConsultationReply {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	f.histories = append(f.histories, history)
	return f.reply
}

type fakeArchiver struct {
	mu   sync.Mutex
	reqs []ArchiveRequest
}

func (f *fakeArchiver) Archive(_ context.Context, req ArchiveRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return nil
}

var (
	subjectURL   = utils.EncodeDataURL([]byte("subject-face"), "image/jpeg")
	subjectURL2  = utils.EncodeDataURL([]byte("another-face"), "image/jpeg")
	referenceURL = utils.EncodeDataURL([]byte("aviators"), "image/png")
)

type fixture struct {
	ctrl       *Controller
	gen        *fakeGenerator
	consultant *fakeConsultant
	store      *MemoryStore
	archiver   *fakeArchiver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		gen:        &fakeGenerator{},
		consultant: &fakeConsultant{reply: models.ConsultationReply{Text: "پاسخ", Links: []models.Link{{Title: "shop", URL: "https://shop.example"}}}},
		store:      NewMemoryStore(),
		archiver:   &fakeArchiver{},
	}
	f.ctrl = NewController(&models.Session{ID: "session-1"}, Dependencies{
		Generator:  f.gen,
		Consultant: f.consultant,
		Store:      f.store,
		Archiver:   f.archiver,
	})
	return f
}

func TestNewControllerDefaults(t *testing.T) {
	f := newFixture(t)
	snap := f.ctrl.Snapshot()
	assert.Equal(t, models.ModeConsultant, snap.Session.Mode)
	assert.Equal(t, StateNoSubjectImage, snap.State)
	assert.NotNil(t, snap.Session.Messages)
	assert.False(t, snap.Busy)
}

func TestGenerateConsultantScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.gen.results = []string{utils.EncodeDataURL([]byte("with-glasses"), "image/png")}

	require.NoError(t, f.ctrl.UploadSubjectImage(ctx, subjectURL))
	require.NoError(t, f.ctrl.SetMode(ctx, models.ModeConsultant))
	require.NoError(t, f.ctrl.Generate(ctx))

	snap := f.ctrl.Snapshot()
	assert.Equal(t, f.gen.results[0], snap.Session.GeneratedImage)
	assert.Equal(t, StateResultDisplayed, snap.State)
	require.Len(t, snap.Session.Messages, 1)
	assert.Equal(t, WelcomeMessageID, snap.Session.Messages[0].ID)
	assert.Equal(t, models.RoleModel, snap.Session.Messages[0].Role)
	assert.Equal(t, WelcomeConsultant, snap.Session.Messages[0].Text)

	calls := f.gen.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, generateCall{subjectURL, consultantStylePrompt, ""}, calls[0])

	stored, err := f.store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, snap.Session.GeneratedImage, stored.GeneratedImage)

	f.ctrl.WaitBackground()
	require.Len(t, f.archiver.reqs, 1)
	assert.Equal(t, ArchiveRequest{SessionID: "session-1", Mode: models.ModeConsultant, Instruction: consultantStylePrompt, Image: snap.Session.GeneratedImage}, f.archiver.reqs[0])
}

func TestGenerateTryOnWithoutReferenceMakesNoCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctrl.UploadSubjectImage(ctx, subjectURL))
	require.NoError(t, f.ctrl.SetMode(ctx, models.ModeTryOn))
	before := f.ctrl.Snapshot()
	assert.Equal(t, StateTryOnAwaitingReference, before.State)

	err := f.ctrl.Generate(ctx)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, AlertMissingReference, verr.Message)
	assert.ErrorIs(t, err, ErrMissingReference)
	assert.Empty(t, f.gen.Calls())
	assert.Equal(t, before, f.ctrl.Snapshot())
}

func TestGenerateTryOnSendsReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctrl.SetMode(ctx, models.ModeTryOn))
	require.NoError(t, f.ctrl.UploadSubjectImage(ctx, subjectURL))
	require.NoError(t, f.ctrl.UploadReferenceImage(ctx, referenceURL))
	assert.Equal(t, StateReadyToGenerate, f.ctrl.Snapshot().State)

	require.NoError(t, f.ctrl.Generate(ctx))

	assert.Equal(t, []generateCall{{subjectURL, tryOnStylePrompt, referenceURL}}, f.gen.Calls())
	msgs := f.ctrl.Snapshot().Session.Messages
	require.Len(t, msgs, 1)
	assert.Equal(t, WelcomeTryOn, msgs[0].Text)
}

func TestConsultantModeIgnoresUploadedReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctrl.UploadSubjectImage(ctx, subjectURL))
	require.NoError(t, f.ctrl.UploadReferenceImage(ctx, referenceURL))

	require.NoError(t, f.ctrl.Generate(ctx))
	assert.Equal(t, "", f.gen.Calls()[0].reference)
}

func TestGenerateWithoutSubject(t *testing.T) {
	f := newFixture(t)
	err := f.ctrl.Generate(context.Background())
	assert.ErrorIs(t, err, ErrNoSubjectImage)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Empty(t, f.gen.Calls())
}

func TestGenerateFailureKeepsPriorResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctrl.UploadSubjectImage(ctx, subjectURL))
	require.NoError(t, f.ctrl.Generate(ctx))
	before := f.ctrl.Snapshot()

	cause := errors.New("service unavailable")
	f.gen.err = cause
	err := f.ctrl.Generate(ctx)

	var alert *AlertError
	require.ErrorAs(t, err, &alert)
	assert.Equal(t, AlertGenerationFailed, alert.Message)
	assert.ErrorIs(t, err, cause)

	after := f.ctrl.Snapshot()
	assert.Equal(t, before.Session.GeneratedImage, after.Session.GeneratedImage)
	assert.Equal(t, before.Session.Messages, after.Session.Messages)
	assert.False(t, after.Busy)
}

func TestWelcomeOnlyWhenConversationEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctrl.SendChatMessage(ctx, "سلام"))
	require.NoError(t, f.ctrl.UploadSubjectImage(ctx, subjectURL))
	require.NoError(t, f.ctrl.Generate(ctx))
	require.NoError(t, f.ctrl.Generate(ctx))

	msgs := f.ctrl.Snapshot().Session.Messages
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.NotEqual(t, WelcomeMessageID, m.ID)
	}
}

func TestUploadSubjectClearsResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctrl.UploadSubjectImage(ctx, subjectURL))
	require.NoError(t, f.ctrl.Generate(ctx))
	require.NotEmpty(t, f.ctrl.Snapshot().Session.GeneratedImage)

	require.NoError(t, f.ctrl.UploadSubjectImage(ctx, subjectURL2))

	snap := f.ctrl.Snapshot()
	assert.Empty(t, snap.Session.GeneratedImage)
	assert.Equal(t, subjectURL2, snap.Session.SubjectImage)
	assert.Len(t, snap.Session.Messages, 1, "conversation survives a new subject")
}

func TestUploadRejectsInvalidImage(t *testing.T) {
	f := newFixture(t)
	err := f.ctrl.UploadSubjectImage(context.Background(), "not a data url")
	assert.ErrorIs(t, err, utils.ErrInvalidImage)
	assert.Equal(t, StateNoSubjectImage, f.ctrl.Snapshot().State)
}

func TestSetModeKeepsState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctrl.UploadSubjectImage(ctx, subjectURL))
	require.NoError(t, f.ctrl.UploadReferenceImage(ctx, referenceURL))
	require.NoError(t, f.ctrl.Generate(ctx))

	require.NoError(t, f.ctrl.SetMode(ctx, models.ModeTryOn))
	snap := f.ctrl.Snapshot()
	assert.Equal(t, models.ModeTryOn, snap.Session.Mode)
	assert.NotEmpty(t, snap.Session.SubjectImage)
	assert.NotEmpty(t, snap.Session.ReferenceImage)
	assert.NotEmpty(t, snap.Session.GeneratedImage)
	assert.Len(t, snap.Session.Messages, 1)

	assert.ErrorIs(t, f.ctrl.SetMode(ctx, models.Mode("MIRROR")), ErrInvalidMode)
}

func TestSendChatMessageAppendsPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.SendChatMessage(ctx, "عینک گرد"))
	require.NoError(t, f.ctrl.SendChatMessage(ctx, "لینک خرید"))

	msgs := f.ctrl.Snapshot().Session.Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, "عینک گرد", msgs[0].Text)
	assert.Nil(t, msgs[0].Links)
	assert.Equal(t, models.RoleModel, msgs[1].Role)
	assert.Equal(t, "پاسخ", msgs[1].Text)
	assert.Equal(t, []models.Link{{Title: "shop", URL: "https://shop.example"}}, msgs[1].Links)
	assert.NotEqual(t, msgs[0].ID, msgs[1].ID)

	// the consultant sees the log as it was before the new message
	require.Len(t, f.consultant.histories, 2)
	assert.Empty(t, f.consultant.histories[0])
	assert.Equal(t, []models.ChatTurn{
		{Role: models.RoleUser, Text: "عینک گرد"},
		{Role: models.RoleModel, Text: "پاسخ"},
	}, f.consultant.histories[1])
	assert.Equal(t, []string{"عینک گرد", "لینک خرید"}, f.consultant.messages)
}

func TestSendChatMessageEmpty(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.ctrl.SendChatMessage(context.Background(), "  \n"), ErrEmptyMessage)
	assert.Empty(t, f.ctrl.Snapshot().Session.Messages)
	assert.Empty(t, f.consultant.messages)
}

func TestRequestVisualizationAlwaysUsesOriginalSubject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.gen.results = []string{
		utils.EncodeDataURL([]byte("first"), "image/png"),
		utils.EncodeDataURL([]byte("second"), "image/png"),
		utils.EncodeDataURL([]byte("third"), "image/png"),
	}
	require.NoError(t, f.ctrl.UploadSubjectImage(ctx, subjectURL))
	require.NoError(t, f.ctrl.Generate(ctx))

	require.NoError(t, f.ctrl.RequestVisualization(ctx, "فریم طلایی"))
	require.NoError(t, f.ctrl.RequestVisualization(ctx, "فریم قرمز"))

	calls := f.gen.Calls()
	require.Len(t, calls, 3)
	for _, c := range calls {
		assert.Equal(t, subjectURL, c.source)
		assert.Empty(t, c.reference)
	}
	assert.Equal(t, "فریم قرمز", calls[2].instruction)

	snap := f.ctrl.Snapshot()
	assert.Equal(t, f.gen.results[2], snap.Session.GeneratedImage)
	msgs := snap.Session.Messages
	require.Len(t, msgs, 5)
	assert.Equal(t, VisualizePrefix+"فریم طلایی", msgs[1].Text)
	assert.Equal(t, VisualizeApplied, msgs[2].Text)
	assert.Equal(t, models.RoleModel, msgs[4].Role)
}

func TestRequestVisualizationFailureApologizes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctrl.UploadSubjectImage(ctx, subjectURL))
	require.NoError(t, f.ctrl.Generate(ctx))
	prior := f.ctrl.Snapshot().Session.GeneratedImage

	f.gen.err = errors.New("no image generated")
	require.NoError(t, f.ctrl.RequestVisualization(ctx, "بدون فریم"))

	snap := f.ctrl.Snapshot()
	assert.Equal(t, prior, snap.Session.GeneratedImage)
	msgs := snap.Session.Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, models.RoleUser, msgs[1].Role)
	assert.Equal(t, VisualizeFailed, msgs[2].Text)
	assert.False(t, snap.Busy)
}

func TestRequestVisualizationValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.ctrl.RequestVisualization(ctx, "قرمز"), ErrNoSubjectImage)
	require.NoError(t, f.ctrl.UploadSubjectImage(ctx, subjectURL))
	assert.ErrorIs(t, f.ctrl.RequestVisualization(ctx, ""), ErrEmptyMessage)

	assert.Empty(t, f.ctrl.Snapshot().Session.Messages)
	assert.Empty(t, f.gen.Calls())
}

func TestResetClearsEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctrl.SetMode(ctx, models.ModeTryOn))
	require.NoError(t, f.ctrl.UploadSubjectImage(ctx, subjectURL))
	require.NoError(t, f.ctrl.UploadReferenceImage(ctx, referenceURL))
	require.NoError(t, f.ctrl.Generate(ctx))
	require.NoError(t, f.ctrl.SendChatMessage(ctx, "سلام"))

	require.NoError(t, f.ctrl.Reset(ctx))

	snap := f.ctrl.Snapshot()
	assert.Equal(t, StateNoSubjectImage, snap.State)
	assert.Empty(t, snap.Session.SubjectImage)
	assert.Empty(t, snap.Session.ReferenceImage)
	assert.Empty(t, snap.Session.GeneratedImage)
	assert.Empty(t, snap.Session.Messages)
	assert.Equal(t, models.ModeTryOn, snap.Session.Mode)

	stored, err := f.store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Empty(t, stored.Messages)
}

func TestBusyRejectsConcurrentActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctrl.UploadSubjectImage(ctx, subjectURL))

	f.gen.block = make(chan struct{})
	f.gen.entered = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() { done <- f.ctrl.RequestVisualization(ctx, "فریم مشکی") }()
	<-f.gen.entered

	snap := f.ctrl.Snapshot()
	assert.True(t, snap.Busy)
	require.Len(t, snap.Session.Messages, 1, "user message is appended before the call completes")

	assert.ErrorIs(t, f.ctrl.Generate(ctx), ErrBusy)
	assert.ErrorIs(t, f.ctrl.SendChatMessage(ctx, "سلام"), ErrBusy)
	assert.ErrorIs(t, f.ctrl.RequestVisualization(ctx, "دوباره"), ErrBusy)
	assert.ErrorIs(t, f.ctrl.UploadSubjectImage(ctx, subjectURL2), ErrBusy)
	assert.ErrorIs(t, f.ctrl.Reset(ctx), ErrBusy)
	assert.Empty(t, f.consultant.messages)

	close(f.gen.block)
	require.NoError(t, <-done)

	snap = f.ctrl.Snapshot()
	assert.False(t, snap.Busy)
	assert.Len(t, snap.Session.Messages, 2)
	assert.Len(t, f.gen.Calls(), 1)
}

func TestMessageLogGrowsByTwoPerAction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctrl.UploadSubjectImage(ctx, subjectURL))

	length := len(f.ctrl.Snapshot().Session.Messages)
	for i, action := range []func() error{
		func() error { return f.ctrl.SendChatMessage(ctx, "یک") },
		func() error { return f.ctrl.RequestVisualization(ctx, "دو") },
		func() error { f.gen.err = errors.New("down"); return f.ctrl.RequestVisualization(ctx, "سه") },
		func() error { return f.ctrl.SendChatMessage(ctx, "چهار") },
	} {
		require.NoError(t, action(), "action %d", i)
		msgs := f.ctrl.Snapshot().Session.Messages
		require.Len(t, msgs, length+2, "action %d", i)
		assert.Equal(t, models.RoleUser, msgs[length].Role)
		assert.Equal(t, models.RoleModel, msgs[length+1].Role)
		length += 2
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ctrl.SendChatMessage(ctx, "سلام"))

	snap := f.ctrl.Snapshot()
	snap.Session.Messages[0].Text = "tampered"
	snap.Session.SubjectImage = "tampered"

	again := f.ctrl.Snapshot()
	assert.Equal(t, "سلام", again.Session.Messages[0].Text)
	assert.Empty(t, again.Session.SubjectImage)
}
