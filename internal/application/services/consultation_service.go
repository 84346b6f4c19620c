package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/carebridge/telehealth-backend/internal/domain/entities"
	"github.com/carebridge/telehealth-backend/internal/domain/providers"
	"github.com/carebridge/telehealth-backend/internal/domain/repositories"
	apperrors "github.com/carebridge/telehealth-backend/pkg/errors"
	"github.com/carebridge/telehealth-backend/pkg/token"
)

const maxMessageLength = 10000

// CreateConsultationInput carries the fields for opening a consultation
type CreateConsultationInput struct {
	DoctorID      string                    `json:"doctor_id"`
	AppointmentID string                    `json:"appointment_id"`
	Type          entities.ConsultationType `json:"type"`
}

// JoinResult is returned when a participant joins a consultation
type JoinResult struct {
	Consultation *entities.Consultation `json:"consultation"`
	SessionToken string                 `json:"session_token"`
}

// EndConsultationInput carries the fields for closing a consultation.
// One prescription record is written per non-blank entry.
type EndConsultationInput struct {
	Notes         string   `json:"notes"`
	Prescriptions []string `json:"prescriptions"`
}

// ConsultationService handles the consultation lifecycle and messaging.
//
// All operations authorize against the fixed participant pair; the acting
// user id always comes from the verified session, never from the payload.
type ConsultationService struct {
	consultationRepo repositories.ConsultationRepository
	messageRepo      repositories.MessageRepository
	prescriptionRepo repositories.PrescriptionRepository
	userRepo         repositories.UserRepository
	eventBus         providers.EventBus
	tokens           *token.Manager
}

// NewConsultationService creates a new consultation service
func NewConsultationService(
	consultationRepo repositories.ConsultationRepository,
	messageRepo repositories.MessageRepository,
	prescriptionRepo repositories.PrescriptionRepository,
	userRepo repositories.UserRepository,
	eventBus providers.EventBus,
	tokens *token.Manager,
) *ConsultationService {
	return &ConsultationService{
		consultationRepo: consultationRepo,
		messageRepo:      messageRepo,
		prescriptionRepo: prescriptionRepo,
		userRepo:         userRepo,
		eventBus:         eventBus,
		tokens:           tokens,
	}
}

// Create opens a consultation between the acting patient and a doctor
func (s *ConsultationService) Create(ctx context.Context, patientID string, input CreateConsultationInput) (*entities.Consultation, error) {
	if input.DoctorID == "" {
		return nil, apperrors.NewValidationError("doctor_id is required")
	}
	if input.DoctorID == patientID {
		return nil, apperrors.NewValidationError("patient and doctor must be different users")
	}
	if input.Type == "" {
		input.Type = entities.ConsultationTypeChat
	}
	if !entities.ValidConsultationType(input.Type) {
		return nil, apperrors.NewValidationError("invalid consultation type")
	}

	doctor, err := s.userRepo.GetByID(ctx, input.DoctorID)
	if err != nil {
		return nil, err
	}
	if doctor.Role != entities.RoleDoctor {
		return nil, apperrors.NewValidationError("doctor_id does not refer to a doctor")
	}

	now := time.Now()
	consultation := &entities.Consultation{
		ID:            uuid.New().String(),
		PatientID:     patientID,
		DoctorID:      input.DoctorID,
		AppointmentID: input.AppointmentID,
		Type:          input.Type,
		Status:        entities.ConsultationStatusCreated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.consultationRepo.Create(ctx, consultation); err != nil {
		return nil, err
	}

	log.Info().
		Str("consultation_id", consultation.ID).
		Str("patient_id", consultation.PatientID).
		Str("doctor_id", consultation.DoctorID).
		Msg("consultation created")

	return consultation, nil
}

// Get retrieves a consultation visible to the acting user
func (s *ConsultationService) Get(ctx context.Context, userID, consultationID string) (*entities.Consultation, error) {
	consultation, err := s.consultationRepo.GetByID(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if !consultation.HasParticipant(userID) {
		return nil, apperrors.NewForbiddenError("user is not a participant of this consultation")
	}
	return consultation, nil
}

// Join admits a participant into a consultation and issues a session token.
// The first join activates the consultation; later joins are idempotent.
func (s *ConsultationService) Join(ctx context.Context, userID, consultationID string) (*JoinResult, error) {
	consultation, err := s.consultationRepo.GetByID(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if !consultation.HasParticipant(userID) {
		return nil, apperrors.NewForbiddenError("user is not a participant of this consultation")
	}
	if consultation.Status == entities.ConsultationStatusCompleted {
		return nil, apperrors.NewInvalidStateError("consultation has already ended")
	}

	if consultation.Status == entities.ConsultationStatusCreated {
		startedAt := time.Now()
		activated, err := s.consultationRepo.MarkActive(ctx, consultationID, startedAt)
		if err != nil {
			return nil, err
		}
		if activated {
			consultation.Status = entities.ConsultationStatusActive
			consultation.StartedAt = &startedAt
		} else {
			// Lost the race to another participant; reload the row.
			consultation, err = s.consultationRepo.GetByID(ctx, consultationID)
			if err != nil {
				return nil, err
			}
		}
	}

	sessionToken, err := s.tokens.GenerateConsultationToken(userID, consultationID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to issue session token", err)
	}

	log.Info().
		Str("consultation_id", consultationID).
		Str("user_id", userID).
		Msg("participant joined consultation")

	return &JoinResult{
		Consultation: consultation,
		SessionToken: sessionToken,
	}, nil
}

// End completes a consultation. Only the doctor may end it; ending an
// already completed consultation fails rather than writing twice.
func (s *ConsultationService) End(ctx context.Context, userID, consultationID string, input EndConsultationInput) (*entities.Consultation, error) {
	consultation, err := s.consultationRepo.GetByID(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if !consultation.HasParticipant(userID) {
		return nil, apperrors.NewForbiddenError("user is not a participant of this consultation")
	}
	if userID != consultation.DoctorID {
		return nil, apperrors.NewForbiddenError("only the doctor can end a consultation")
	}

	endedAt := time.Now()
	if err := s.consultationRepo.Complete(ctx, consultationID, input.Notes, endedAt); err != nil {
		return nil, err
	}
	consultation.Status = entities.ConsultationStatusCompleted
	consultation.Notes = input.Notes
	consultation.EndedAt = &endedAt

	for _, entry := range input.Prescriptions {
		text := strings.TrimSpace(entry)
		if text == "" {
			continue
		}
		prescription := &entities.Prescription{
			ID:               uuid.New().String(),
			ConsultationID:   consultation.ID,
			PatientID:        consultation.PatientID,
			DoctorID:         consultation.DoctorID,
			PrescriptionText: text,
			CreatedAt:        endedAt,
		}
		if err := s.prescriptionRepo.Create(ctx, prescription); err != nil {
			return nil, err
		}
	}

	event := &entities.MessageEvent{
		ID:             uuid.New().String(),
		EventType:      entities.MessageEventEnded,
		ConsultationID: consultation.ID,
		Timestamp:      endedAt,
	}
	if err := s.eventBus.Publish(ctx, providers.GetConsultationChannel(consultation.ID), event); err != nil {
		log.Error().Err(err).Str("consultation_id", consultation.ID).Msg("failed to publish ended event")
	}

	log.Info().
		Str("consultation_id", consultation.ID).
		Str("doctor_id", userID).
		Msg("consultation ended")

	return consultation, nil
}

// SendMessage appends a message to an active consultation and broadcasts
// it to stream subscribers after the write commits.
func (s *ConsultationService) SendMessage(ctx context.Context, userID, consultationID, content string, messageType entities.MessageType) (*entities.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("message content is required")
	}
	if len(content) > maxMessageLength {
		return nil, apperrors.NewValidationError("message content exceeds maximum length")
	}
	if messageType == "" {
		messageType = entities.MessageTypeText
	}
	if !entities.ValidMessageType(messageType) {
		return nil, apperrors.NewValidationError("invalid message type")
	}

	consultation, err := s.consultationRepo.GetByID(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if !consultation.HasParticipant(userID) {
		return nil, apperrors.NewForbiddenError("user is not a participant of this consultation")
	}
	if consultation.Status != entities.ConsultationStatusActive {
		return nil, apperrors.NewInvalidStateError("consultation is not active")
	}

	sender, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	message := &entities.Message{
		ID:             uuid.New().String(),
		ConsultationID: consultationID,
		SenderID:       userID,
		SenderName:     sender.DisplayName(),
		Content:        content,
		Type:           messageType,
		Timestamp:      time.Now(),
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	// Publish only after the insert commits so subscribers never see a
	// message that history will not return.
	event := entities.NewMessageEvent(message)
	if err := s.eventBus.Publish(ctx, providers.GetConsultationChannel(consultationID), event); err != nil {
		log.Error().Err(err).
			Str("consultation_id", consultationID).
			Str("message_id", message.ID).
			Msg("failed to publish message event")
	}

	return message, nil
}

// History returns a consultation's messages in timestamp order
func (s *ConsultationService) History(ctx context.Context, userID, consultationID string, filter repositories.MessageFilter) ([]*entities.Message, error) {
	consultation, err := s.consultationRepo.GetByID(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if !consultation.HasParticipant(userID) {
		return nil, apperrors.NewForbiddenError("user is not a participant of this consultation")
	}

	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 500
	}
	messages, err := s.messageRepo.ListByConsultation(ctx, consultationID, filter)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*entities.Message{}
	}
	return messages, nil
}

// Stream subscribes the acting participant to a consultation's live
// message feed. The feed closes when ctx is cancelled.
func (s *ConsultationService) Stream(ctx context.Context, userID, consultationID string) (<-chan *entities.MessageEvent, error) {
	consultation, err := s.consultationRepo.GetByID(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if !consultation.HasParticipant(userID) {
		return nil, apperrors.NewForbiddenError("user is not a participant of this consultation")
	}
	if consultation.Status == entities.ConsultationStatusCompleted {
		return nil, apperrors.NewInvalidStateError("consultation has already ended")
	}

	return s.eventBus.Subscribe(ctx, providers.GetConsultationChannel(consultationID))
}

// ListByUser returns the acting user's consultations, newest first
func (s *ConsultationService) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entities.Consultation, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	consultations, total, err := s.consultationRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if consultations == nil {
		consultations = []*entities.Consultation{}
	}
	return consultations, total, nil
}

// Prescriptions returns the prescriptions written during a consultation
func (s *ConsultationService) Prescriptions(ctx context.Context, userID, consultationID string) ([]*entities.Prescription, error) {
	consultation, err := s.consultationRepo.GetByID(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if !consultation.HasParticipant(userID) {
		return nil, apperrors.NewForbiddenError("user is not a participant of this consultation")
	}

	prescriptions, err := s.prescriptionRepo.ListByConsultation(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if prescriptions == nil {
		prescriptions = []*entities.Prescription{}
	}
	return prescriptions, nil
}
