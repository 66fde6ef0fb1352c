package alerts

import (
	"context"

	"fleetpulse/backend/internal/constants"
	"fleetpulse/backend/internal/logging"
	gormModels "fleetpulse/backend/internal/models/gorm"
)

// ChatSender sends chat messages to a stored handle
type ChatSender interface {
	SendTelegram(ctx context.Context, chatID, body string) (string, error)
	SendWhatsApp(ctx context.Context, number, body string) (string, error)
}

// VoiceCaller initiates a templated outbound call
type VoiceCaller interface {
	InitiateCall(ctx context.Context, phone, promptID string, variables map[string]string) (string, error)
}

// EmailSender delivers one transactional mail
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) (string, error)
}

// voice prompt registered with the telephony gateway
const voiceAlertPromptID = "driver_performance_alert"

// DispatchResult is the outcome of one channel attempt
type DispatchResult struct {
	Channel     constants.AlertChannel
	Delivered   bool
	Skipped     bool // no contact address on file: not an error
	ProviderRef string
	Err         error
}

// Dispatcher sends a single alert through one channel. Provider failures
// are captured in the result, never propagated, so one channel's failure
// cannot abort the others.
type Dispatcher struct {
	chat  ChatSender
	voice VoiceCaller
	email EmailSender
}

// NewDispatcher creates a dispatcher over the given channel providers
func NewDispatcher(chat ChatSender, voice VoiceCaller, email EmailSender) *Dispatcher {
	return &Dispatcher{chat: chat, voice: voice, email: email}
}

// Dispatch attempts delivery on one channel for one driver
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	driver *gormModels.Driver,
	channel constants.AlertChannel,
	message string,
) DispatchResult {
	result := DispatchResult{Channel: channel}

	switch channel {
	case constants.ChannelTelegram:
		if driver.TelegramChatID == nil || *driver.TelegramChatID == "" {
			result.Skipped = true
			return result
		}
		ref, err := d.chat.SendTelegram(ctx, *driver.TelegramChatID, message)
		return d.finish(result, ref, err, driver.ID)

	case constants.ChannelWhatsApp:
		if driver.WhatsAppNumber == nil || *driver.WhatsAppNumber == "" {
			result.Skipped = true
			return result
		}
		ref, err := d.chat.SendWhatsApp(ctx, *driver.WhatsAppNumber, message)
		return d.finish(result, ref, err, driver.ID)

	case constants.ChannelVoice:
		if driver.Phone == nil || *driver.Phone == "" {
			result.Skipped = true
			return result
		}
		ref, err := d.voice.InitiateCall(ctx, *driver.Phone, voiceAlertPromptID, map[string]string{
			"driver_name": driver.FullName,
			"message":     message,
		})
		return d.finish(result, ref, err, driver.ID)

	case constants.ChannelEmail:
		if driver.Email == nil || *driver.Email == "" {
			result.Skipped = true
			return result
		}
		ref, err := d.email.Send(ctx, *driver.Email, "Performance alert", message)
		return d.finish(result, ref, err, driver.ID)

	default:
		logging.Warn("unknown alert channel requested", "channel", string(channel))
		result.Skipped = true
		return result
	}
}

func (d *Dispatcher) finish(result DispatchResult, ref string, err error, driverID string) DispatchResult {
	if err != nil {
		logging.Warn("channel dispatch failed",
			"driver_id", driverID,
			"channel", string(result.Channel),
			"error", err.Error(),
		)
		result.Err = err
		return result
	}
	result.Delivered = true
	result.ProviderRef = ref
	return result
}
