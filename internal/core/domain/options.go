package domain

import (
	"errors"
	"fmt"
)

// ErrUnsupportedLanguage is returned for a language value outside the accepted set.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// SourceLanguage is the language spoken in the submitted media.
type SourceLanguage string

const (
	SourceJapanese SourceLanguage = "ja"
	SourceEnglish  SourceLanguage = "en"
)

// OutputLanguage selects the language of generated content.
type OutputLanguage string

const (
	OutputSame     OutputLanguage = "same"
	OutputJapanese OutputLanguage = "ja"
)

// Options configures a submission.
type Options struct {
	TranscriptLanguage SourceLanguage
	OutputLanguage     OutputLanguage
}

// DefaultOptions returns Japanese transcription with output in the same language.
func DefaultOptions() Options {
	return Options{TranscriptLanguage: SourceJapanese, OutputLanguage: OutputSame}
}

// Normalize validates o and returns a copy with defaults filled in.
// The output language only matters for English media and is reset to "same" otherwise.
func (o Options) Normalize() (Options, error) {
	if o.TranscriptLanguage == "" {
		o.TranscriptLanguage = SourceJapanese
	}
	if o.OutputLanguage == "" {
		o.OutputLanguage = OutputSame
	}

	switch o.TranscriptLanguage {
	case SourceJapanese, SourceEnglish:
	default:
		return o, fmt.Errorf("transcript language %q: %w", o.TranscriptLanguage, ErrUnsupportedLanguage)
	}
	switch o.OutputLanguage {
	case OutputSame, OutputJapanese:
	default:
		return o, fmt.Errorf("output language %q: %w", o.OutputLanguage, ErrUnsupportedLanguage)
	}

	if o.TranscriptLanguage != SourceEnglish {
		o.OutputLanguage = OutputSame
	}
	return o, nil
}
