package stylist

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raushankrgupta/eyewear-stylist/models"
	"github.com/raushankrgupta/eyewear-stylist/utils"
	"github.com/sirupsen/logrus"
)

// Generator produces a portrait with eyewear. An empty referenceImage means
// the instruction alone describes the frames.
type Generator interface {
	GenerateEyewearImage(ctx context.Context, sourceImage, instruction, referenceImage string) (string, error)
}

// Consultant answers chat messages. It never fails; errors become a
// fallback reply.
type Consultant interface {
	Chat(ctx context.Context, message string, history []models.ChatTurn) models.ConsultationReply
}

// Archiver keeps a copy of every successful generation.
type Archiver interface {
	Archive(ctx context.Context, req ArchiveRequest) error
}

// ArchiveRequest describes one generated image to archive.
type ArchiveRequest struct {
	SessionID   string
	Mode        models.Mode
	Instruction string
	Image       string
}

// Dependencies are the collaborators shared by every controller.
type Dependencies struct {
	Generator  Generator
	Consultant Consultant
	Store      Store
	Archiver   Archiver // optional
}

// State is derived from the session contents; it is never stored.
type State string

const (
	StateNoSubjectImage         State = "NoSubjectImage"
	StateTryOnAwaitingReference State = "TryOnAwaitingReference"
	StateReadyToGenerate        State = "ReadyToGenerate"
	StateResultDisplayed        State = "ResultDisplayed"
)

// Snapshot is a read-only copy of a controller's state.
type Snapshot struct {
	Session *models.Session `json:"session"`
	State   State           `json:"state"`
	Busy    bool            `json:"busy"`
}

// Controller owns one session. Every mutation goes through its named
// actions; network calls run with the guard held but the state lock released.
type Controller struct {
	mu      sync.Mutex
	session *models.Session
	version uint64
	guard   TaskGuard

	saveMu       sync.Mutex
	savedVersion uint64

	deps       Dependencies
	background sync.WaitGroup

	now   func() time.Time
	newID func() string
}

// NewController takes ownership of session.
func NewController(session *models.Session, deps Dependencies) *Controller {
	if !session.Mode.Valid() {
		session.Mode = models.ModeConsultant
	}
	if session.Messages == nil {
		session.Messages = []models.ChatMessage{}
	}
	return &Controller{
		session: session,
		deps:    deps,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (c *Controller) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.ID
}

// Busy reports whether a network action is in flight.
func (c *Controller) Busy() bool {
	return c.guard.Busy()
}

// Snapshot returns a deep copy of the session plus derived state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Session: c.session.Clone(),
		State:   deriveState(c.session),
		Busy:    c.guard.Busy(),
	}
}

func deriveState(s *models.Session) State {
	switch {
	case s.SubjectImage == "":
		return StateNoSubjectImage
	case s.GeneratedImage != "":
		return StateResultDisplayed
	case s.Mode == models.ModeTryOn && s.ReferenceImage == "":
		return StateTryOnAwaitingReference
	default:
		return StateReadyToGenerate
	}
}

// UploadSubjectImage replaces the face photo. A new subject invalidates
// any generated result.
func (c *Controller) UploadSubjectImage(ctx context.Context, dataURL string) error {
	if err := utils.ValidateImageDataURL(dataURL); err != nil {
		return err
	}
	return c.mutate(ctx, func(s *models.Session) error {
		s.SubjectImage = dataURL
		s.GeneratedImage = ""
		return nil
	})
}

// UploadReferenceImage replaces the eyewear photo used in try-on mode.
func (c *Controller) UploadReferenceImage(ctx context.Context, dataURL string) error {
	if err := utils.ValidateImageDataURL(dataURL); err != nil {
		return err
	}
	return c.mutate(ctx, func(s *models.Session) error {
		s.ReferenceImage = dataURL
		return nil
	})
}

// SetMode switches the generation path. Images and conversation are kept.
func (c *Controller) SetMode(ctx context.Context, mode models.Mode) error {
	if !mode.Valid() {
		return ErrInvalidMode
	}
	c.mu.Lock()
	c.session.Mode = mode
	snap, version := c.touchLocked()
	c.mu.Unlock()

	c.persist(ctx, snap, version)
	return nil
}

// Reset clears both images, the result and the whole conversation at once.
func (c *Controller) Reset(ctx context.Context) error {
	return c.mutate(ctx, func(s *models.Session) error {
		s.SubjectImage = ""
		s.ReferenceImage = ""
		s.GeneratedImage = ""
		s.Messages = []models.ChatMessage{}
		return nil
	})
}

// mutate applies a local change unless a network action is in flight.
func (c *Controller) mutate(ctx context.Context, fn func(*models.Session) error) error {
	c.mu.Lock()
	if c.guard.Busy() {
		c.mu.Unlock()
		return ErrBusy
	}
	if err := fn(c.session); err != nil {
		c.mu.Unlock()
		return err
	}
	snap, version := c.touchLocked()
	c.mu.Unlock()

	c.persist(ctx, snap, version)
	return nil
}

// Generate runs the first generation for the current mode.
func (c *Controller) Generate(ctx context.Context) error {
	c.mu.Lock()
	s := c.session
	mode := s.Mode
	if s.SubjectImage == "" {
		c.mu.Unlock()
		return &ValidationError{Message: AlertMissingSubject, Err: ErrNoSubjectImage}
	}
	if mode == models.ModeTryOn && s.ReferenceImage == "" {
		c.mu.Unlock()
		utils.GenerationsTotal.WithLabelValues(string(mode), utils.OutcomeRejected).Inc()
		return &ValidationError{Message: AlertMissingReference, Err: ErrMissingReference}
	}
	if !c.guard.TryAcquire() {
		c.mu.Unlock()
		return ErrBusy
	}
	defer c.guard.Release()

	subject := s.SubjectImage
	reference := ""
	if mode == models.ModeTryOn {
		reference = s.ReferenceImage
	}
	instruction := stylePrompt(mode)
	c.mu.Unlock()

	result, err := c.deps.Generator.GenerateEyewearImage(ctx, subject, instruction, reference)
	if err != nil {
		utils.GenerationsTotal.WithLabelValues(string(mode), utils.OutcomeFailure).Inc()
		logrus.WithError(err).WithField("session_id", c.ID()).Error("generation failed")
		return &AlertError{Message: AlertGenerationFailed, Err: err}
	}
	utils.GenerationsTotal.WithLabelValues(string(mode), utils.OutcomeSuccess).Inc()

	c.mu.Lock()
	c.session.GeneratedImage = result
	if len(c.session.Messages) == 0 {
		c.session.Messages = append(c.session.Messages, models.ChatMessage{
			ID:        WelcomeMessageID,
			Role:      models.RoleModel,
			Text:      welcomeText(mode),
			CreatedAt: c.now(),
		})
	}
	snap, version := c.touchLocked()
	c.mu.Unlock()

	c.persist(ctx, snap, version)
	c.archive(ArchiveRequest{SessionID: snap.ID, Mode: mode, Instruction: instruction, Image: result})
	return nil
}

// SendChatMessage appends the user's message, asks the consultant and
// appends its reply. Exactly two messages are added per accepted call.
func (c *Controller) SendChatMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if !c.guard.TryAcquire() {
		c.mu.Unlock()
		return ErrBusy
	}
	defer c.guard.Release()

	history := make([]models.ChatTurn, 0, len(c.session.Messages))
	for _, m := range c.session.Messages {
		history = append(history, models.ChatTurn{Role: m.Role, Text: m.Text})
	}
	c.appendLocked(models.RoleUser, text, nil)
	snap, version := c.touchLocked()
	c.mu.Unlock()
	c.persist(ctx, snap, version)

	reply := c.deps.Consultant.Chat(ctx, text, history)

	c.mu.Lock()
	c.appendLocked(models.RoleModel, reply.Text, reply.Links)
	snap, version = c.touchLocked()
	c.mu.Unlock()

	c.persist(ctx, snap, version)
	return nil
}

// RequestVisualization re-generates from the original subject image with a
// free-text instruction. Edits never chain off the previous result, so
// quality does not degrade over repeated requests. Failures become an
// apology message instead of an error.
func (c *Controller) RequestVisualization(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.session.SubjectImage == "" {
		c.mu.Unlock()
		return &ValidationError{Message: AlertMissingSubject, Err: ErrNoSubjectImage}
	}
	if !c.guard.TryAcquire() {
		c.mu.Unlock()
		return ErrBusy
	}
	defer c.guard.Release()

	subject := c.session.SubjectImage
	mode := c.session.Mode
	c.appendLocked(models.RoleUser, VisualizePrefix+text, nil)
	snap, version := c.touchLocked()
	c.mu.Unlock()
	c.persist(ctx, snap, version)

	result, err := c.deps.Generator.GenerateEyewearImage(ctx, subject, text, "")

	c.mu.Lock()
	if err != nil {
		utils.VisualizationsTotal.WithLabelValues(utils.OutcomeFailure).Inc()
		logrus.WithError(err).WithField("session_id", c.session.ID).Warn("visualization failed")
		c.appendLocked(models.RoleModel, VisualizeFailed, nil)
	} else {
		utils.VisualizationsTotal.WithLabelValues(utils.OutcomeSuccess).Inc()
		c.session.GeneratedImage = result
		c.appendLocked(models.RoleModel, VisualizeApplied, nil)
	}
	snap, version = c.touchLocked()
	c.mu.Unlock()

	c.persist(ctx, snap, version)
	if err == nil {
		c.archive(ArchiveRequest{SessionID: snap.ID, Mode: mode, Instruction: text, Image: result})
	}
	return nil
}

// WaitBackground blocks until pending archive uploads finish.
func (c *Controller) WaitBackground() {
	c.background.Wait()
}

func (c *Controller) appendLocked(role models.Role, text string, links []models.Link) {
	c.session.Messages = append(c.session.Messages, models.ChatMessage{
		ID:        c.newID(),
		Role:      role,
		Text:      text,
		Links:     links,
		CreatedAt: c.now(),
	})
}

func (c *Controller) touchLocked() (*models.Session, uint64) {
	c.session.UpdatedAt = c.now()
	c.version++
	return c.session.Clone(), c.version
}

// persist writes snap unless a newer version has already been written.
// Storage failures are logged; the in-memory state stays authoritative.
func (c *Controller) persist(ctx context.Context, snap *models.Session, version uint64) {
	if c.deps.Store == nil {
		return
	}
	c.saveMu.Lock()
	defer c.saveMu.Unlock()
	if version <= c.savedVersion {
		return
	}
	if err := c.deps.Store.Save(context.WithoutCancel(ctx), snap); err != nil {
		logrus.WithError(err).WithField("session_id", snap.ID).Warn("failed to persist session")
		return
	}
	c.savedVersion = version
}

func (c *Controller) archive(req ArchiveRequest) {
	if c.deps.Archiver == nil {
		return
	}
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := c.deps.Archiver.Archive(ctx, req); err != nil {
			logrus.WithError(err).WithField("session_id", req.SessionID).Warn("failed to archive look")
		}
	}()
}
