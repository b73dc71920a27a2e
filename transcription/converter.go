package transcription

import (
	"strings"
	"sync"

	"github.com/longbridgeapp/opencc"

	"github.com/lifemap/memorymap/logger"
)

// OpenCC conversion profiles.
const (
	profileS2T   = "s2t"
	profileS2TWP = "s2twp"
	profileT2S   = "t2s"
)

var targetProfiles = map[string]string{
	"traditional": profileS2T,
	"t":           profileS2T,
	"zh-hant":     profileS2T,
	"zh-tw":       profileS2TWP,
	"tw":          profileS2TWP,
	"simplified":  profileT2S,
	"s":           profileT2S,
	"zh-cn":       profileT2S,
	"zh-hans":     profileT2S,
	"cn":          profileT2S,
}

// ResolveTarget maps a target-script flag to an OpenCC profile. ok is
// false for empty or unrecognized values, which mean "no conversion".
func ResolveTarget(target string) (normalized, profile string, ok bool) {
	normalized = strings.ToLower(strings.TrimSpace(target))
	profile, ok = targetProfiles[normalized]
	return normalized, profile, ok
}

// Conversion is the outcome of a script conversion request.
type Conversion struct {
	Text string
	// Original and Target are set only when a conversion happened.
	Original string
	Target   string
}

// Converted reports whether the text was converted.
func (c Conversion) Converted() bool { return c.Target != "" }

type textConverter interface {
	Convert(string) (string, error)
}

// ScriptConverter converts between Simplified and Traditional Chinese.
// Converters are built lazily per profile; a profile whose dictionary
// cannot be loaded is remembered and skipped from then on.
type ScriptConverter struct {
	newConverter func(profile string) (textConverter, error)
	log          *logger.Logger

	mu          sync.Mutex
	converters  map[string]textConverter
	unavailable map[string]bool
}

// NewScriptConverter creates a converter backed by OpenCC.
func NewScriptConverter(log *logger.Logger) *ScriptConverter {
	if log == nil {
		log = logger.NewNop()
	}
	return &ScriptConverter{
		newConverter: func(profile string) (textConverter, error) { return opencc.New(profile) },
		log:          log.WithComponent("script_converter"),
		converters:   make(map[string]textConverter),
		unavailable:  make(map[string]bool),
	}
}

// Convert converts text to target. Unrecognized targets and library
// failures return the text unchanged with no conversion recorded.
func (c *ScriptConverter) Convert(text, target string) Conversion {
	normalized, profile, ok := ResolveTarget(target)
	if !ok {
		return Conversion{Text: text}
	}
	conv := c.converter(profile)
	if conv == nil {
		return Conversion{Text: text}
	}
	out, err := conv.Convert(text)
	if err != nil {
		c.log.Warn("script conversion failed, returning original text", logger.Fields("profile", profile, logger.FieldError, err.Error()))
		return Conversion{Text: text}
	}
	return Conversion{Text: out, Original: text, Target: normalized}
}

func (c *ScriptConverter) converter(profile string) textConverter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conv, ok := c.converters[profile]; ok {
		return conv
	}
	if c.unavailable[profile] {
		return nil
	}
	conv, err := c.newConverter(profile)
	if err != nil {
		c.unavailable[profile] = true
		c.log.Warn("opencc profile unavailable, conversion disabled", logger.Fields("profile", profile, logger.FieldError, err.Error()))
		return nil
	}
	c.converters[profile] = conv
	return conv
}
