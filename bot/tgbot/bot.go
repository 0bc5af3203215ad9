// Package tgbot forwards account events to Telegram chats.
package tgbot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/njimyasmine/user-management-api/auth/users"
	"github.com/njimyasmine/user-management-api/internal/config"
	"github.com/sirupsen/logrus"
)

const queueSize = 64

var ErrBadRequest = errors.New("unknown command, try /help")

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api     sender
	updates tgbotapi.UpdatesChannel
	stop    func()

	log *logrus.Entry

	events chan users.Event
	done   chan struct{}

	subs     subscriptions
	commands *Commands
}

func New(cfg config.TgBot, l *logrus.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("env TG_BOT_TOKEN: %w", err)
	}
	api.Debug = cfg.Debug
	if _, err := api.GetMe(); err != nil {
		return nil, err
	}

	b := newBot(api, cfg.Subscribers, l)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	b.updates = api.GetUpdatesChan(u)
	b.stop = api.StopReceivingUpdates
	return b, nil
}

func newBot(api sender, subscribers []int64, l *logrus.Logger) *Bot {
	subs := newSubs()
	for _, chatID := range subscribers {
		for _, t := range eventTypes {
			subs.Add(t, chatID)
		}
	}
	b := &Bot{
		api:    api,
		log:    l.WithField("name", "tg_bot"),
		events: make(chan users.Event, queueSize),
		done:   make(chan struct{}),
		subs:   subs,
	}
	b.commands = NewCommands(&b.subs)
	return b
}

// Notify queues an event for delivery. It never blocks; events are dropped
// when the queue is full.
func (b *Bot) Notify(_ context.Context, e users.Event) {
	select {
	case b.events <- e:
	default:
		b.log.WithFields(logrus.Fields{
			"event": e.Type,
			"id":    e.User.ID,
		}).Warn("notification queue full, event dropped")
	}
}

// Run handles chat commands and delivers queued events until ctx is done.
func (b *Bot) Run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			if b.stop != nil {
				b.stop()
			}
			return
		case update, ok := <-b.updates:
			if !ok {
				b.updates = nil
				continue
			}
			b.handleMessage(update)
		case e := <-b.events:
			b.deliver(e)
		}
	}
}

// Done is closed once Run returns.
func (b *Bot) Done() <-chan struct{} {
	return b.done
}

func (b *Bot) handleMessage(update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}
	chatID := update.Message.Chat.ID
	log := b.log.WithFields(logrus.Fields{
		"chat_id": chatID,
		"text":    update.Message.Text,
	})

	text, err := b.commands.RunCommand(chatID, update.Message.Command(), update.Message.CommandArguments())
	if err != nil {
		text = err.Error()
	}
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.WithError(err).Error("send error")
	}
}

func (b *Bot) deliver(e users.Event) {
	text := formatEvent(e)
	for _, chatID := range b.subs.GetChatIDs(e.Type) {
		if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			b.log.WithError(err).WithField("chat_id", chatID).Error("send error")
		}
	}
}

func formatEvent(e users.Event) string {
	var action string
	switch e.Type {
	case users.UserCreated:
		action = "User created"
	case users.UserUpdated:
		action = "User updated"
	case users.UserDeleted:
		action = "User deleted"
	default:
		action = string(e.Type)
	}
	return fmt.Sprintf("%s: %s <%s> (%s)", action, e.User.Name, e.User.Email, e.User.ID)
}
