package tgbot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/njimyasmine/user-management-api/auth/users"
)

type Command interface {
	Run(chatID int64, args string) (string, error)
	Help() string
}

type Commands struct {
	list map[string]Command
}

func NewCommands(subs *subscriptions) *Commands {
	hc := &HelpCommand{}
	c := Commands{
		list: map[string]Command{
			"help":  hc,
			"start": hc,
			"sub":   &SubCommand{subs: subs},
			"unsub": &UnsubCommand{subs: subs},
		},
	}
	hc.commands = c.list
	return &c
}

func (c *Commands) RunCommand(chatID int64, cmd string, args string) (string, error) {
	command, ok := c.list[cmd]
	if !ok {
		return "", ErrBadRequest
	}
	return command.Run(chatID, args)
}

type HelpCommand struct {
	commands map[string]Command
}

func (c *HelpCommand) Run(_ int64, args string) (string, error) {
	if command, ok := c.commands[args]; ok {
		return command.Help(), nil
	}
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, name := range names {
		b.WriteString("/")
		b.WriteString(name)
		b.WriteString("\n")
	}
	b.WriteString("Use /help <command> for details")
	return b.String(), nil
}

func (c *HelpCommand) Help() string {
	return "Lists the available commands"
}

type SubCommand struct {
	subs *subscriptions
}

func (c *SubCommand) Run(chatID int64, args string) (string, error) {
	types, err := parseEventTypes(args)
	if err != nil {
		return "", err
	}
	for _, t := range types {
		c.subs.Add(t, chatID)
	}
	return "Subscribed. To stop notifications: /unsub", nil
}

func (c *SubCommand) Help() string {
	return "Subscribe to account events: /sub [user_created|user_updated|user_deleted]"
}

type UnsubCommand struct {
	subs *subscriptions
}

func (c *UnsubCommand) Run(chatID int64, args string) (string, error) {
	types, err := parseEventTypes(args)
	if err != nil {
		return "", err
	}
	for _, t := range types {
		c.subs.Remove(t, chatID)
	}
	return "Unsubscribed. To subscribe again: /sub", nil
}

func (c *UnsubCommand) Help() string {
	return "Unsubscribe from account events: /unsub [user_created|user_updated|user_deleted]"
}

// parseEventTypes maps command arguments to event types. No arguments means
// every type.
func parseEventTypes(args string) ([]users.EventType, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return eventTypes, nil
	}
	var out []users.EventType
	for _, f := range fields {
		t := users.EventType(f)
		if !isEventType(t) {
			return nil, fmt.Errorf("unknown event %q", f)
		}
		out = append(out, t)
	}
	return out, nil
}

func isEventType(t users.EventType) bool {
	for _, known := range eventTypes {
		if t == known {
			return true
		}
	}
	return false
}
