package validate

import (
	"fmt"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Fallback scores written when validation fails internally.
const (
	fallbackQuality     = 0.1
	fallbackDataQuality = 0
)

// Outcome is the validated copy of a record. Err is set when validation
// failed and fallback scores were written instead.
type Outcome struct {
	Record model.Record
	Err    error
}

// Option configures a validator.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used for validation_date.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Validator cleans and scores general business records.
type Validator struct {
	opts options
}

// NewValidator creates a Validator.
func NewValidator(opts ...Option) *Validator {
	return &Validator{opts: buildOptions(opts)}
}

// Validate returns a cleaned, scored copy of rec. It never panics; on an
// internal failure the record is kept with fallback scores and a
// validation_error flag.
func (v *Validator) Validate(rec model.Record) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = fallback(rec, eris.Errorf("validate: panic: %v", r))
		}
	}()

	vr := rec.Clone()
	cleanIdentity(vr)
	cleanContacts(vr)

	dq := DataQuality(vr)
	completeness := Completeness(vr)
	reliability := Reliability(vr)
	lead := Lead(vr)

	vr.Set(model.FieldDataQualityScore, dq)
	vr.Set(model.FieldCompleteness, completeness)
	vr.Set(model.FieldReliabilityScore, reliability)
	vr.Set(model.FieldLeadScore, lead)
	vr.Set(model.FieldQualityScore, math.Round(float64(dq)*10)/100)
	vr.Set(model.FieldValidationStatus, Status(dq))
	vr.Set(model.FieldValidationDate, v.opts.now().Format(time.DateOnly))

	return Outcome{Record: vr}
}

func cleanIdentity(rec model.Record) {
	if rec.Has(model.FieldBusinessName) {
		rec.Set(model.FieldBusinessName, CleanName(rec.Str(model.FieldBusinessName)))
	} else {
		rec.AddFlag(FlagMissingName)
	}
	if rec.Has(model.FieldBusinessDescription) {
		rec.Set(model.FieldBusinessDescription, CleanDescription(rec.Str(model.FieldBusinessDescription)))
	}

	addr := rec.Str(model.FieldAddress)
	if addr == "" {
		rec.AddFlag(FlagMissingAddress)
		return
	}
	rec.Upgrade(model.FieldHQAddress, addr)
	a := ParseAddress(addr)
	rec.Upgrade(model.FieldHQCity, a.City)
	rec.Upgrade(model.FieldHQState, a.State)
	rec.Upgrade(model.FieldHQZip, a.Zip)
}

func cleanContacts(rec model.Record) {
	phone := NormalizePhone(rec.Str(model.FieldPhone))
	rec.Set(model.FieldPhone, phone)
	phoneValid := IsValidPhone(phone)
	rec.Set(model.FieldPhoneValid, phoneValid)
	switch {
	case phone == model.NotFound:
		rec.AddFlag(FlagMissingPhone)
	case !phoneValid:
		rec.AddFlag(FlagInvalidPhone)
	}

	for _, f := range model.EmailFields {
		if rec.Raw(f) == "" {
			continue
		}
		email := ValidateEmail(rec.Raw(f))
		rec.Set(f, email)
		if email == InvalidEmail {
			rec.AddFlag("invalid_" + f)
		}
	}

	site := NormalizeWebsite(rec.Str(model.FieldWebsite))
	rec.Set(model.FieldWebsite, site)
	rec.Set(model.FieldWebsiteValid, IsValidWebsite(site))
	switch site {
	case model.NotFound:
		rec.AddFlag(FlagMissingWebsite)
	case InvalidURL:
		rec.AddFlag(FlagInvalidWebsite)
	}
}

func fallback(rec model.Record, err error) Outcome {
	zap.L().Warn("validate: falling back to minimum scores",
		zap.String("business", fmt.Sprint(rec[model.FieldBusinessName])),
		zap.Error(err),
	)
	out := rec.Clone()
	out.Set(model.FieldQualityScore, fallbackQuality)
	out.Set(model.FieldDataQualityScore, fallbackDataQuality)
	out.Set(model.FieldValidationStatus, StatusNeedsReview)
	out.AddFlag(FlagValidationError)
	return Outcome{Record: out, Err: err}
}
