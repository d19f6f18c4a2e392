package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vibelink/messaging/internal/domain"
	"github.com/vibelink/messaging/internal/observability"
	"go.uber.org/zap"
)

// Attachment is a raw uploaded payload, not yet resolved to a URL.
type Attachment struct {
	FileName string
	MimeType string
	Data     []byte
}

type SendCommand struct {
	FromUserID string
	ToUserID   string
	Text       string
	Image      *Attachment
	File       *Attachment
}

// SendMessage resolves any attachment through the object-storage
// collaborator, persists the message with the delivered flag reflecting the
// recipient's liveness at this instant, and pushes the live notifications.
// Nothing is persisted if the upload fails.
func (s *Service) SendMessage(ctx context.Context, cmd SendCommand) (*domain.Message, error) {
	if cmd.FromUserID == "" || cmd.ToUserID == "" {
		return nil, domain.ErrInvalidInput
	}
	if cmd.Text == "" && cmd.Image == nil && cmd.File == nil {
		return nil, domain.ErrEmptyMessage
	}

	med, err := s.resolveMedia(ctx, cmd)
	if err != nil {
		return nil, err
	}

	recipientLive := s.pusher.IsReachable(ctx, cmd.ToUserID)

	msg, err := domain.NewMessage(
		uuid.NewString(),
		cmd.FromUserID,
		cmd.ToUserID,
		cmd.Text,
		med,
		recipientLive,
		time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, msg); err != nil {
		return nil, err
	}
	observability.MessagesSentTotal.WithLabelValues(string(msg.Kind)).Inc()

	if recipientLive {
		s.pusher.Notify(ctx, cmd.ToUserID, domain.MessageEvent(msg))
		s.pusher.Notify(ctx, cmd.FromUserID, domain.DeliveredEvent([]string{msg.ID}, cmd.ToUserID))
	}

	s.feed.MessageSent(ctx, msg)

	observability.GetLogger(ctx).Info("message sent",
		zap.String("message_id", msg.ID),
		zap.String("kind", string(msg.Kind)),
		zap.Bool("recipient_live", recipientLive),
	)
	return msg, nil
}

// resolveMedia uploads the attachment, image taking precedence over file.
func (s *Service) resolveMedia(ctx context.Context, cmd SendCommand) (*domain.Media, error) {
	switch {
	case cmd.Image != nil:
		url, err := s.uploader.UploadImage(ctx, cmd.Image.FileName, cmd.Image.Data)
		if err != nil {
			return nil, err
		}
		return &domain.Media{Kind: domain.KindImage, URL: url}, nil

	case cmd.File != nil:
		url, err := s.uploader.UploadFile(ctx, cmd.File.FileName, cmd.File.MimeType, cmd.File.Data)
		if err != nil {
			return nil, err
		}
		return &domain.Media{
			Kind:     domain.KindFile,
			URL:      url,
			FileName: cmd.File.FileName,
			MimeType: cmd.File.MimeType,
		}, nil

	default:
		return nil, nil
	}
}
