// File: internal/pages/form.go
package pages

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiharness/internal/browser"
	"github.com/xkilldash9x/uiharness/internal/datagen"
	"github.com/xkilldash9x/uiharness/internal/page"
)

// Registration form locators.
var (
	firstNameInput       = page.CSS(`[name="firstName"]`, "first name input")
	lastNameInput        = page.CSS(`[name="lastName"]`, "last name input")
	emailInput           = page.CSS(`[name="email"]`, "email input")
	phoneInput           = page.CSS(`[name="phone"]`, "phone input")
	passwordInput        = page.CSS(`[name="password"]`, "password input")
	confirmPasswordInput = page.CSS(`[name="confirmPassword"]`, "confirm password input")
	countryDropdown      = page.CSS(`[name="country"]`, "country dropdown")
	genderMaleRadio      = page.CSS(`[name="gender"][value="male"]`, "male radio")
	genderFemaleRadio    = page.CSS(`[name="gender"][value="female"]`, "female radio")
	termsCheckbox        = page.CSS(`[name="terms"]`, "terms checkbox")
	newsletterCheckbox   = page.CSS(`[name="newsletter"]`, "newsletter checkbox")
	dateOfBirthInput     = page.CSS(`[name="dateOfBirth"]`, "date of birth input")
	avatarUpload         = page.CSS(`[name="avatar"]`, "avatar upload")
	submitButton         = page.CSS(`[type="submit"]`, "submit button")
	resetButton          = page.CSS(`[type="reset"]`, "reset button")
	successMessage       = page.CSS(".success-message", "success message")
	errorMessage         = page.CSS(".error-message", "error message")
	fieldErrors          = page.CSS(".field-error", "field errors")
)

// Gender is the radio group value on the registration form.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// FormPage models the registration form at /form.
type FormPage struct {
	*page.Page
}

// NewFormPage binds a form page to the session.
func NewFormPage(s *browser.Session) *FormPage {
	return &FormPage{Page: page.New(s, "/form")}
}

// FillPersonalInfo fills the name, email, and optional phone fields.
func (p *FormPage) FillPersonalInfo(ctx context.Context, firstName, lastName, email, phone string) error {
	p.Session().Logger().Info("Filling personal information.")

	if err := p.TypeText(ctx, firstNameInput, firstName); err != nil {
		return err
	}
	if err := p.TypeText(ctx, lastNameInput, lastName); err != nil {
		return err
	}
	if err := p.TypeText(ctx, emailInput, email); err != nil {
		return err
	}
	if phone != "" {
		return p.TypeText(ctx, phoneInput, phone)
	}
	return nil
}

// SetPassword fills both password fields. An empty confirmation repeats the
// password.
func (p *FormPage) SetPassword(ctx context.Context, password, confirm string) error {
	if confirm == "" {
		confirm = password
	}
	if err := p.TypeText(ctx, passwordInput, password); err != nil {
		return err
	}
	return p.TypeText(ctx, confirmPasswordInput, confirm)
}

// SelectCountry picks a country by its visible option text.
func (p *FormPage) SelectCountry(ctx context.Context, country string) error {
	p.Session().Logger().Info("Selecting country.", zap.String("country", country))
	if err := p.WaitForVisible(ctx, countryDropdown); err != nil {
		return err
	}
	var ok bool
	if err := p.Session().RunActions(ctx, chromedp.Evaluate(selectByTextScript(countryDropdown.Value, country), &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("country %q not present in dropdown", country)
	}
	return nil
}

// SelectGender clicks the matching radio button.
func (p *FormPage) SelectGender(ctx context.Context, gender Gender) error {
	switch gender {
	case GenderMale:
		return p.Click(ctx, genderMaleRadio)
	case GenderFemale:
		return p.Click(ctx, genderFemaleRadio)
	default:
		return fmt.Errorf("invalid gender %q", gender)
	}
}

// SetDateOfBirth fills the date field. The value must be YYYY-MM-DD.
func (p *FormPage) SetDateOfBirth(ctx context.Context, date string) error {
	return p.TypeText(ctx, dateOfBirthInput, date)
}

// AcceptTerms checks or unchecks the terms checkbox to match accept.
func (p *FormPage) AcceptTerms(ctx context.Context, accept bool) error {
	return p.setCheckbox(ctx, termsCheckbox, accept)
}

// SubscribeNewsletter checks or unchecks the newsletter checkbox.
func (p *FormPage) SubscribeNewsletter(ctx context.Context, subscribe bool) error {
	return p.setCheckbox(ctx, newsletterCheckbox, subscribe)
}

// setCheckbox clicks the checkbox only when its state differs from the
// desired one.
func (p *FormPage) setCheckbox(ctx context.Context, loc page.Locator, checked bool) error {
	var current bool
	script := fmt.Sprintf(`document.querySelector(%q).checked`, loc.Value)
	if err := p.Session().RunActions(ctx, chromedp.Evaluate(script, &current)); err != nil {
		return err
	}
	if current == checked {
		return nil
	}
	return p.Click(ctx, loc)
}

// UploadAvatar points the file input at a local file.
func (p *FormPage) UploadAvatar(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving upload path: %w", err)
	}
	return p.Session().RunActions(ctx,
		chromedp.SetUploadFiles(avatarUpload.Value, []string{abs}, chromedp.ByQuery),
	)
}

// Submit submits the form.
func (p *FormPage) Submit(ctx context.Context) error {
	p.Session().Logger().Info("Submitting form.")
	return p.Click(ctx, submitButton)
}

// Reset clears the form.
func (p *FormPage) Reset(ctx context.Context) error {
	return p.Click(ctx, resetButton)
}

// SuccessMessage returns the success banner text, or empty when absent.
func (p *FormPage) SuccessMessage(ctx context.Context) (string, error) {
	visible, err := p.IsVisible(ctx, successMessage)
	if err != nil || !visible {
		return "", err
	}
	return p.Text(ctx, successMessage)
}

// ErrorMessage returns the form-level error banner text, or empty when
// absent.
func (p *FormPage) ErrorMessage(ctx context.Context) (string, error) {
	visible, err := p.IsVisible(ctx, errorMessage)
	if err != nil || !visible {
		return "", err
	}
	return p.Text(ctx, errorMessage)
}

// FieldErrors returns all per-field validation messages.
func (p *FormPage) FieldErrors(ctx context.Context) ([]string, error) {
	return p.Texts(ctx, fieldErrors)
}

// IsSubmitted reports whether the success banner is shown.
func (p *FormPage) IsSubmitted(ctx context.Context) (bool, error) {
	return p.IsVisible(ctx, successMessage)
}

// HasValidationErrors reports whether any error banner or field error is
// shown.
func (p *FormPage) HasValidationErrors(ctx context.Context) (bool, error) {
	if visible, err := p.IsVisible(ctx, errorMessage); err != nil || visible {
		return visible, err
	}
	count, err := p.Count(ctx, fieldErrors)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FillWithGeneratedData populates the form from a data generator and accepts
// the terms, leaving it ready to submit.
func (p *FormPage) FillWithGeneratedData(ctx context.Context, gen *datagen.Generator) error {
	person := gen.Person()

	if err := p.FillPersonalInfo(ctx, person.FirstName, person.LastName, person.Email, person.Phone); err != nil {
		return err
	}
	if err := p.SetPassword(ctx, gen.Password(16), ""); err != nil {
		return err
	}
	if err := p.SelectGender(ctx, GenderMale); err != nil {
		return err
	}
	if err := p.SetDateOfBirth(ctx, person.DateOfBirth); err != nil {
		return err
	}
	return p.AcceptTerms(ctx, true)
}

// selectByTextScript selects a <select> option by its visible text and fires
// a change event, mirroring what a real user interaction produces.
func selectByTextScript(selector, text string) string {
	return fmt.Sprintf(`(() => {
	const sel = document.querySelector(%q);
	if (!sel) return false;
	for (const opt of sel.options) {
		if (opt.text.trim() === %q) {
			sel.value = opt.value;
			sel.dispatchEvent(new Event('change', { bubbles: true }));
			return true;
		}
	}
	return false;
})()`, selector, text)
}
