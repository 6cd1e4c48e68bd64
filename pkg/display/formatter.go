// Package display renders level labels and level-up messages for the host.
//
// Tokens (tier colors and "&" codes) are opaque host markup; the formatter only
// places them, it never interprets them.
package display

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/AccelByte/extend-level-progression/pkg/config"
	"github.com/AccelByte/extend-level-progression/pkg/domain"
)

// ResetToken ends a tier-colored label so following text is unstyled.
const ResetToken = "&r"

// RangeLookup resolves the tier token for a level.
type RangeLookup interface {
	ColorForLevel(level int) string
}

// Templates are the message templates read from config.yml.
type Templates struct {
	LevelFormat    string
	LevelUpMessage string
	MessageType    domain.MessageType
}

// TemplatesFromConfig extracts the display templates from a loaded config.
func TemplatesFromConfig(cfg *config.Config) Templates {
	return Templates{
		LevelFormat:    cfg.LevelFormat,
		LevelUpMessage: cfg.LevelUpMessage,
		MessageType:    cfg.MessageType(),
	}
}

// Formatter renders labels and messages. Templates can be swapped at any
// time; a render uses one consistent set.
type Formatter struct {
	ranges    RangeLookup
	templates atomic.Pointer[Templates]
}

func NewFormatter(ranges RangeLookup, t Templates) *Formatter {
	f := &Formatter{ranges: ranges}
	f.SetTemplates(t)
	return f
}

func (f *Formatter) SetTemplates(t Templates) {
	f.templates.Store(&t)
}

func (f *Formatter) Templates() Templates {
	return *f.templates.Load()
}

// Token returns the range table token for level.
func (f *Formatter) Token(level int) string {
	return f.ranges.ColorForLevel(level)
}

// FormatLevel renders level-format for level, prefixed with its tier token.
func (f *Formatter) FormatLevel(level int) string {
	return f.formatLevel(f.templates.Load(), level)
}

func (f *Formatter) formatLevel(t *Templates, level int) string {
	label := strings.ReplaceAll(t.LevelFormat, "{level}", strconv.Itoa(level))
	return f.ranges.ColorForLevel(level) + label + ResetToken
}

// LevelUpMessage renders level-up-message for player reaching level.
// Placeholders: %player%, {display} (the formatted label) and %level%.
func (f *Formatter) LevelUpMessage(player string, level int) string {
	t := f.templates.Load()

	r := strings.NewReplacer(
		"%player%", player,
		"{display}", f.formatLevel(t, level),
		"%level%", strconv.Itoa(level),
	)
	return r.Replace(t.LevelUpMessage)
}

// Broadcast reports whether level-up messages go to every player.
func (f *Formatter) Broadcast() bool {
	return f.templates.Load().MessageType == domain.MessageTypeBroadcast
}
