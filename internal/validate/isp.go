package validate

import (
	"math"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// ISPHighQuality is the quality_score above which an ISP record is reported
// as high quality. It does not gate export.
const ISPHighQuality = 0.7

// ISPValidator scores ISP directory records.
type ISPValidator struct {
	opts options
}

// NewISPValidator creates an ISPValidator.
func NewISPValidator(opts ...Option) *ISPValidator {
	return &ISPValidator{opts: buildOptions(opts)}
}

// Validate returns a scored copy of rec with quality flags. Convertible
// phones and websites are canonicalized before scoring; values that cannot be
// converted are kept as collected and flagged.
func (v *ISPValidator) Validate(rec model.Record) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = fallback(rec, eris.Errorf("validate: isp panic: %v", r))
		}
	}()

	vr := rec.Clone()
	canonicalizeContacts(vr)
	score, flags := ISPQuality(vr)
	for _, f := range flags {
		vr.AddFlag(f)
	}
	vr.Set(model.FieldQualityScore, score)
	vr.Set(model.FieldDataQualityScore, int(math.Round(score*10)))
	vr.Set(model.FieldPhoneValid, IsValidPhone(vr.Str(model.FieldPhone)))
	vr.Set(model.FieldWebsiteValid, IsValidWebsite(vr.Str(model.FieldWebsite)))
	vr.Set(model.FieldValidationDate, v.opts.now().Format(time.DateOnly))
	return Outcome{Record: vr}
}

func canonicalizeContacts(rec model.Record) {
	if phone := rec.Str(model.FieldPhone); phone != "" {
		rec.Set(model.FieldPhone, NormalizePhone(phone))
	}
	if site := rec.Str(model.FieldWebsite); site != "" {
		if w := NormalizeWebsite(site); w != InvalidURL {
			rec.Set(model.FieldWebsite, w)
		}
	}
}
