package extract

import (
	"fmt"
)

// Source is where resume text comes from. The first non-empty field, in
// field order, is used.
type Source struct {
	Text string
	Data []byte
	URL  string
}

// Kind classifies an extraction failure.
type Kind string

const (
	KindFetch Kind = "fetch"
	KindParse Kind = "parse"
	KindEmpty Kind = "empty"
)

const blankApplicantNotice = "[FORENSIC ALERT] NO PARSABLE TEXT FOUND.\n\n" +
	"Possible Causes:\n" +
	"1. Scanned Image-only PDF.\n" +
	"2. Security restrictions.\n" +
	"3. Non-standard font encoding.\n\n" +
	"ATS Result: REJECT (Blank Applicant)"

// Failure describes why no usable text was produced.
type Failure struct {
	Kind   Kind
	Reason error
	URL    string
}

func (f *Failure) Error() string {
	if f.Reason == nil {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Reason)
}

func (f *Failure) Unwrap() error {
	return f.Reason
}

// Outcome is the tagged result of an extraction.
type Outcome struct {
	Text string
	// Strategy names the strategy that produced Text; "literal" for text
	// supplied as is.
	Strategy string
	Failure  *Failure
}

// OK reports whether usable text was extracted.
func (o Outcome) OK() bool {
	return o.Failure == nil
}

// Display returns the text handed to the rest of the pipeline: the extracted
// text, or a human-readable placeholder describing the failure.
func (o Outcome) Display() string {
	if o.Failure == nil {
		return o.Text
	}

	switch o.Failure.Kind {
	case KindFetch:
		return fmt.Sprintf("CRITICAL FAILURE: Could not download/verify resume from URL.\nError: %s\nURL: %s", reasonText(o.Failure.Reason), o.Failure.URL)
	case KindParse:
		return fmt.Sprintf("CRITICAL FAILURE: Could not parse document structure.\nError: %s", reasonText(o.Failure.Reason))
	default:
		return blankApplicantNotice
	}
}

func reasonText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
