package audit

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spigell/ats-auditor/internal/extract"
)

// Request is one audit invocation. Exactly one resume source must be set.
type Request struct {
	TargetRole string `json:"targetRole" validate:"required"`
	TargetComp string `json:"targetComp,omitempty"`

	ResumeText string `json:"resumeText,omitempty"`
	ResumeData []byte `json:"-"`
	ResumeURL  string `json:"resumeUrl,omitempty" validate:"omitempty,http_url"`

	Links Links `json:"links"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateRequest, Request{})
	return v
}

func validateRequest(sl validator.StructLevel) {
	req := sl.Current().Interface().(Request)

	if req.TargetRole != "" && strings.TrimSpace(req.TargetRole) == "" {
		sl.ReportError(req.TargetRole, "TargetRole", "TargetRole", "required", "")
	}

	if n := req.sourceCount(); n != 1 {
		sl.ReportError(n, "ResumeText", "Resume", "one_source", fmt.Sprint(n))
	}
}

func (r Request) sourceCount() int {
	n := 0
	if r.ResumeText != "" {
		n++
	}
	if len(r.ResumeData) > 0 {
		n++
	}
	if r.ResumeURL != "" {
		n++
	}
	return n
}

// Validate checks the request shape.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

func (r Request) source() extract.Source {
	return extract.Source{
		Text: r.ResumeText,
		Data: r.ResumeData,
		URL:  r.ResumeURL,
	}
}
