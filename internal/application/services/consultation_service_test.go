package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/carebridge/telehealth-backend/internal/application/services"
	"github.com/carebridge/telehealth-backend/internal/domain/entities"
	"github.com/carebridge/telehealth-backend/internal/domain/repositories"
	apperrors "github.com/carebridge/telehealth-backend/pkg/errors"
	"github.com/carebridge/telehealth-backend/pkg/token"
)

// Mocks

type MockConsultationRepository struct {
	mock.Mock
}

func (m *MockConsultationRepository) Create(ctx context.Context, consultation *entities.Consultation) error {
	args := m.Called(ctx, consultation)
	return args.Error(0)
}

func (m *MockConsultationRepository) GetByID(ctx context.Context, id string) (*entities.Consultation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Consultation), args.Error(1)
}

func (m *MockConsultationRepository) MarkActive(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, startedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockConsultationRepository) Complete(ctx context.Context, id string, notes string, endedAt time.Time) error {
	args := m.Called(ctx, id, notes, endedAt)
	return args.Error(0)
}

func (m *MockConsultationRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entities.Consultation, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*entities.Consultation), args.Int(1), args.Error(2)
}

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, message *entities.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) ListByConsultation(ctx context.Context, consultationID string, filter repositories.MessageFilter) ([]*entities.Message, error) {
	args := m.Called(ctx, consultationID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Message), args.Error(1)
}

type MockPrescriptionRepository struct {
	mock.Mock
}

func (m *MockPrescriptionRepository) Create(ctx context.Context, prescription *entities.Prescription) error {
	args := m.Called(ctx, prescription)
	return args.Error(0)
}

func (m *MockPrescriptionRepository) ListByConsultation(ctx context.Context, consultationID string) ([]*entities.Prescription, error) {
	args := m.Called(ctx, consultationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Prescription), args.Error(1)
}

func (m *MockPrescriptionRepository) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*entities.Prescription, error) {
	args := m.Called(ctx, patientID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Prescription), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *entities.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *entities.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Deactivate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, filter repositories.UserFilter) ([]*entities.User, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.User), args.Error(1)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.MessageEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.MessageEvent, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *entities.MessageEvent), args.Error(1)
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *MockEventBus) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Helpers

func newTokenManager() *token.Manager {
	return token.NewManager("test-secret", 15*time.Minute, 168*time.Hour)
}

func newConsultationService() (*services.ConsultationService, *MockConsultationRepository, *MockMessageRepository, *MockPrescriptionRepository, *MockUserRepository, *MockEventBus) {
	consultationRepo := new(MockConsultationRepository)
	messageRepo := new(MockMessageRepository)
	prescriptionRepo := new(MockPrescriptionRepository)
	userRepo := new(MockUserRepository)
	eventBus := new(MockEventBus)
	service := services.NewConsultationService(
		consultationRepo, messageRepo, prescriptionRepo, userRepo, eventBus, newTokenManager())
	return service, consultationRepo, messageRepo, prescriptionRepo, userRepo, eventBus
}

func activeConsultation() *entities.Consultation {
	startedAt := time.Now().Add(-time.Minute)
	return &entities.Consultation{
		ID:        "cons-1",
		PatientID: "patient-1",
		DoctorID:  "doctor-1",
		Type:      entities.ConsultationTypeChat,
		Status:    entities.ConsultationStatusActive,
		StartedAt: &startedAt,
	}
}

// Tests

func TestConsultationService_Create(t *testing.T) {
	t.Run("creates consultation between patient and doctor", func(t *testing.T) {
		service, consultationRepo, _, _, userRepo, _ := newConsultationService()

		userRepo.On("GetByID", mock.Anything, "doctor-1").
			Return(&entities.User{ID: "doctor-1", Role: entities.RoleDoctor}, nil)
		consultationRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *entities.Consultation) bool {
			return c.PatientID == "patient-1" &&
				c.DoctorID == "doctor-1" &&
				c.Status == entities.ConsultationStatusCreated
		})).Return(nil)

		consultation, err := service.Create(context.Background(), "patient-1", services.CreateConsultationInput{
			DoctorID: "doctor-1",
			Type:     entities.ConsultationTypeChat,
		})

		assert.NoError(t, err)
		assert.NotEmpty(t, consultation.ID)
		assert.Equal(t, entities.ConsultationStatusCreated, consultation.Status)
		consultationRepo.AssertExpectations(t)
	})

	t.Run("rejects self consultation", func(t *testing.T) {
		service, _, _, _, _, _ := newConsultationService()

		_, err := service.Create(context.Background(), "user-1", services.CreateConsultationInput{
			DoctorID: "user-1",
		})

		assert.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("rejects doctor_id that is not a doctor", func(t *testing.T) {
		service, _, _, _, userRepo, _ := newConsultationService()

		userRepo.On("GetByID", mock.Anything, "patient-2").
			Return(&entities.User{ID: "patient-2", Role: entities.RolePatient}, nil)

		_, err := service.Create(context.Background(), "patient-1", services.CreateConsultationInput{
			DoctorID: "patient-2",
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestConsultationService_Join(t *testing.T) {
	t.Run("first join activates the consultation", func(t *testing.T) {
		service, consultationRepo, _, _, _, _ := newConsultationService()

		consultation := &entities.Consultation{
			ID:        "cons-1",
			PatientID: "patient-1",
			DoctorID:  "doctor-1",
			Status:    entities.ConsultationStatusCreated,
		}
		consultationRepo.On("GetByID", mock.Anything, "cons-1").Return(consultation, nil)
		consultationRepo.On("MarkActive", mock.Anything, "cons-1", mock.Anything).Return(true, nil)

		result, err := service.Join(context.Background(), "patient-1", "cons-1")

		assert.NoError(t, err)
		assert.Equal(t, entities.ConsultationStatusActive, result.Consultation.Status)
		assert.NotNil(t, result.Consultation.StartedAt)
		assert.NotEmpty(t, result.SessionToken)
	})

	t.Run("join on active consultation is idempotent", func(t *testing.T) {
		service, consultationRepo, _, _, _, _ := newConsultationService()

		consultationRepo.On("GetByID", mock.Anything, "cons-1").Return(activeConsultation(), nil)

		result, err := service.Join(context.Background(), "doctor-1", "cons-1")

		assert.NoError(t, err)
		assert.Equal(t, entities.ConsultationStatusActive, result.Consultation.Status)
		consultationRepo.AssertNotCalled(t, "MarkActive")
	})

	t.Run("non-participant is rejected", func(t *testing.T) {
		service, consultationRepo, _, _, _, _ := newConsultationService()

		consultationRepo.On("GetByID", mock.Anything, "cons-1").Return(activeConsultation(), nil)

		_, err := service.Join(context.Background(), "intruder", "cons-1")

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
	})

	t.Run("completed consultation cannot be joined", func(t *testing.T) {
		service, consultationRepo, _, _, _, _ := newConsultationService()

		consultation := activeConsultation()
		consultation.Status = entities.ConsultationStatusCompleted
		consultationRepo.On("GetByID", mock.Anything, "cons-1").Return(consultation, nil)

		_, err := service.Join(context.Background(), "patient-1", "cons-1")

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidState))
	})
}

func TestConsultationService_End(t *testing.T) {
	t.Run("doctor ends consultation and prescription is written", func(t *testing.T) {
		service, consultationRepo, _, prescriptionRepo, _, eventBus := newConsultationService()

		consultationRepo.On("GetByID", mock.Anything, "cons-1").Return(activeConsultation(), nil)
		consultationRepo.On("Complete", mock.Anything, "cons-1", "all good", mock.Anything).Return(nil)
		prescriptionRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *entities.Prescription) bool {
			return p.ConsultationID == "cons-1" &&
				p.PatientID == "patient-1" &&
				p.DoctorID == "doctor-1" &&
				p.PrescriptionText == "amoxicillin 500mg"
		})).Return(nil)
		eventBus.On("Publish", mock.Anything, "consultation:cons-1", mock.MatchedBy(func(e *entities.MessageEvent) bool {
			return e.EventType == entities.MessageEventEnded
		})).Return(nil)

		consultation, err := service.End(context.Background(), "doctor-1", "cons-1", services.EndConsultationInput{
			Notes:         "all good",
			Prescriptions: []string{"amoxicillin 500mg"},
		})

		assert.NoError(t, err)
		assert.Equal(t, entities.ConsultationStatusCompleted, consultation.Status)
		assert.NotNil(t, consultation.EndedAt)
		prescriptionRepo.AssertExpectations(t)
		eventBus.AssertExpectations(t)
	})

	t.Run("one prescription row per entry", func(t *testing.T) {
		service, consultationRepo, _, prescriptionRepo, _, eventBus := newConsultationService()

		consultationRepo.On("GetByID", mock.Anything, "cons-1").Return(activeConsultation(), nil)
		consultationRepo.On("Complete", mock.Anything, "cons-1", "", mock.Anything).Return(nil)
		prescriptionRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := service.End(context.Background(), "doctor-1", "cons-1", services.EndConsultationInput{
			Prescriptions: []string{"amoxicillin 500mg", "ibuprofen 200mg", "   "},
		})

		assert.NoError(t, err)
		prescriptionRepo.AssertNumberOfCalls(t, "Create", 2)
	})

	t.Run("patient cannot end consultation", func(t *testing.T) {
		service, consultationRepo, _, prescriptionRepo, _, _ := newConsultationService()

		consultationRepo.On("GetByID", mock.Anything, "cons-1").Return(activeConsultation(), nil)

		_, err := service.End(context.Background(), "patient-1", "cons-1", services.EndConsultationInput{})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
		prescriptionRepo.AssertNotCalled(t, "Create")
	})

	t.Run("ending twice fails without duplicate prescription", func(t *testing.T) {
		service, consultationRepo, _, prescriptionRepo, _, _ := newConsultationService()

		consultation := activeConsultation()
		consultation.Status = entities.ConsultationStatusCompleted
		consultationRepo.On("GetByID", mock.Anything, "cons-1").Return(consultation, nil)
		consultationRepo.On("Complete", mock.Anything, "cons-1", "", mock.Anything).
			Return(apperrors.NewInvalidStateError("consultation cons-1 is already completed"))

		_, err := service.End(context.Background(), "doctor-1", "cons-1", services.EndConsultationInput{
			Prescriptions: []string{"should never be written"},
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidState))
		prescriptionRepo.AssertNotCalled(t, "Create")
	})

	t.Run("no prescription row without prescription text", func(t *testing.T) {
		service, consultationRepo, _, prescriptionRepo, _, eventBus := newConsultationService()

		consultationRepo.On("GetByID", mock.Anything, "cons-1").Return(activeConsultation(), nil)
		consultationRepo.On("Complete", mock.Anything, "cons-1", "", mock.Anything).Return(nil)
		eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := service.End(context.Background(), "doctor-1", "cons-1", services.EndConsultationInput{})

		assert.NoError(t, err)
		prescriptionRepo.AssertNotCalled(t, "Create")
	})
}

func TestConsultationService_SendMessage(t *testing.T) {
	t.Run("persists then publishes", func(t *testing.T) {
		service, consultationRepo, messageRepo, _, userRepo, eventBus := newConsultationService()

		consultationRepo.On("GetByID", mock.Anything, "cons-1").Return(activeConsultation(), nil)
		userRepo.On("GetByID", mock.Anything, "patient-1").
			Return(&entities.User{ID: "patient-1", FirstName: "Ada", LastName: "Obi"}, nil)
		messageRepo.On("Create", mock.Anything, mock.MatchedBy(func(m *entities.Message) bool {
			return m.SenderID == "patient-1" && m.Content == "hello doctor" && m.SenderName == "Ada Obi"
		})).Return(nil)
		eventBus.On("Publish", mock.Anything, "consultation:cons-1", mock.MatchedBy(func(e *entities.MessageEvent) bool {
			return e.EventType == entities.MessageEventNew && e.Message.Content == "hello doctor"
		})).Return(nil)

		message, err := service.SendMessage(context.Background(), "patient-1", "cons-1", "hello doctor", entities.MessageTypeText)

		assert.NoError(t, err)
		assert.False(t, message.Timestamp.IsZero())
		messageRepo.AssertExpectations(t)
		eventBus.AssertExpectations(t)
	})

	t.Run("message survives publish failure", func(t *testing.T) {
		service, consultationRepo, messageRepo, _, userRepo, eventBus := newConsultationService()

		consultationRepo.On("GetByID", mock.Anything, "cons-1").Return(activeConsultation(), nil)
		userRepo.On("GetByID", mock.Anything, "patient-1").
			Return(&entities.User{ID: "patient-1", Email: "ada@example.com"}, nil)
		messageRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).
			Return(assert.AnError)

		message, err := service.SendMessage(context.Background(), "patient-1", "cons-1", "hi", entities.MessageTypeText)

		assert.NoError(t, err)
		assert.NotNil(t, message)
	})

	t.Run("rejects non-participant sender", func(t *testing.T) {
		service, consultationRepo, messageRepo, _, _, _ := newConsultationService()

		consultationRepo.On("GetByID", mock.Anything, "cons-1").Return(activeConsultation(), nil)

		_, err := service.SendMessage(context.Background(), "intruder", "cons-1", "hi", entities.MessageTypeText)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
		messageRepo.AssertNotCalled(t, "Create")
	})

	t.Run("rejects message on non-active consultation", func(t *testing.T) {
		service, consultationRepo, messageRepo, _, _, _ := newConsultationService()

		consultation := activeConsultation()
		consultation.Status = entities.ConsultationStatusCreated
		consultationRepo.On("GetByID", mock.Anything, "cons-1").Return(consultation, nil)

		_, err := service.SendMessage(context.Background(), "patient-1", "cons-1", "hi", entities.MessageTypeText)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidState))
		messageRepo.AssertNotCalled(t, "Create")
	})

	t.Run("rejects empty content", func(t *testing.T) {
		service, _, _, _, _, _ := newConsultationService()

		_, err := service.SendMessage(context.Background(), "patient-1", "cons-1", "   ", entities.MessageTypeText)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestConsultationService_Stream(t *testing.T) {
	t.Run("participant receives the feed channel", func(t *testing.T) {
		service, consultationRepo, _, _, _, eventBus := newConsultationService()

		feed := make(chan *entities.MessageEvent, 1)
		consultationRepo.On("GetByID", mock.Anything, "cons-1").Return(activeConsultation(), nil)
		eventBus.On("Subscribe", mock.Anything, "consultation:cons-1").
			Return((<-chan *entities.MessageEvent)(feed), nil)

		stream, err := service.Stream(context.Background(), "doctor-1", "cons-1")

		assert.NoError(t, err)

		feed <- &entities.MessageEvent{ID: "evt-1", EventType: entities.MessageEventNew}
		event := <-stream
		assert.Equal(t, "evt-1", event.ID)
	})

	t.Run("non-participant cannot stream", func(t *testing.T) {
		service, consultationRepo, _, _, _, eventBus := newConsultationService()

		consultationRepo.On("GetByID", mock.Anything, "cons-1").Return(activeConsultation(), nil)

		_, err := service.Stream(context.Background(), "intruder", "cons-1")

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
		eventBus.AssertNotCalled(t, "Subscribe")
	})
}

func TestConsultationService_History(t *testing.T) {
	t.Run("returns messages for a participant", func(t *testing.T) {
		service, consultationRepo, messageRepo, _, _, _ := newConsultationService()

		consultationRepo.On("GetByID", mock.Anything, "cons-1").Return(activeConsultation(), nil)
		messageRepo.On("ListByConsultation", mock.Anything, "cons-1", mock.Anything).
			Return([]*entities.Message{
				{ID: "m1", Content: "hello"},
				{ID: "m2", Content: "hi"},
			}, nil)

		messages, err := service.History(context.Background(), "patient-1", "cons-1", repositories.MessageFilter{})

		assert.NoError(t, err)
		assert.Len(t, messages, 2)
	})

	t.Run("empty history is an empty slice", func(t *testing.T) {
		service, consultationRepo, messageRepo, _, _, _ := newConsultationService()

		consultationRepo.On("GetByID", mock.Anything, "cons-1").Return(activeConsultation(), nil)
		messageRepo.On("ListByConsultation", mock.Anything, "cons-1", mock.Anything).
			Return([]*entities.Message{}, nil)

		messages, err := service.History(context.Background(), "doctor-1", "cons-1", repositories.MessageFilter{})

		assert.NoError(t, err)
		assert.NotNil(t, messages)
		assert.Empty(t, messages)
	})
}
