package forms

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fleetdash/internal/api"
	"fleetdash/internal/models"
)

func validDevice() DeviceForm {
	return DeviceForm{
		RpiID:      "pi-1",
		Name:       "Bus 12",
		VehicleNo:  "KA-01",
		Location:   "Depot",
		OwnerName:  "Ravi",
		OwnerPhone: "99999",
	}
}

func TestDeviceFormBlocksEmptyID(t *testing.T) {
	f := validDevice()
	f.RpiID = ""
	called := false
	err := f.Submit(context.Background(), func(context.Context, models.DeviceInput) error {
		called = true
		return nil
	})
	var errs Errors
	if !errors.As(err, &errs) {
		t.Fatalf("err = %v, want Errors", err)
	}
	if errs["rpi_id"] != "Device ID is required" {
		t.Fatalf("rpi_id = %q", errs["rpi_id"])
	}
	if called {
		t.Fatal("onSubmit called for an invalid form")
	}
	if got := errs.First(DeviceRules); got != "Device ID is required" {
		t.Fatalf("First = %q", got)
	}
}

func TestDeviceFormSubmit(t *testing.T) {
	f := validDevice()
	f.RpiID = "  pi-1 "
	f.Display = ` {"rotation":90} `
	var got models.DeviceInput
	err := f.Submit(context.Background(), func(_ context.Context, in models.DeviceInput) error {
		got = in
		return nil
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got.RpiID != "pi-1" || string(got.Display) != `{"rotation":90}` {
		t.Fatalf("input = %+v", got)
	}
}

func TestDeviceFormRejectsBadDisplayAndStatus(t *testing.T) {
	f := validDevice()
	f.Display = "{not json"
	f.Status = "retired"
	errs := f.Validate()
	if errs["display"] == "" || errs["rpi_status"] == "" {
		t.Fatalf("errs = %v", errs)
	}
}

func TestDeviceFormPassesSubmitError(t *testing.T) {
	boom := errors.New("boom")
	err := validDevice().Submit(context.Background(), func(context.Context, models.DeviceInput) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestBrandForm(t *testing.T) {
	errs := BrandForm{Email: "nope"}.Validate()
	want := map[string]string{
		"name":    "Brand name is required",
		"phone":   "Phone number is required",
		"address": "Address is required",
		"email":   "Invalid email address",
	}
	for k, v := range want {
		if errs[k] != v {
			t.Errorf("%s = %q, want %q", k, errs[k], v)
		}
	}

	f := BrandForm{Name: "Acme", Phone: "123", Address: "Main St", Logo: &Attachment{Name: "logo.png", R: strings.NewReader("png")}}
	var m *api.Multipart
	if err := f.Submit(context.Background(), func(_ context.Context, p *api.Multipart) error { m = p; return nil }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !m.HasFile() {
		t.Fatal("logo not attached")
	}
	if _, ok := m.Value("email"); ok {
		t.Fatal("empty email should be skipped")
	}
}

func TestVideoFormCreateRequiresFile(t *testing.T) {
	errs := VideoForm{Filename: "ad", BrandID: "b1"}.Validate()
	if errs["file"] != "Please select a video file" {
		t.Fatalf("errs = %v", errs)
	}
	if errs := (VideoForm{Editing: true, Filename: "ad", BrandID: "b1"}).Validate(); len(errs) != 0 {
		t.Fatalf("edit without file: %v", errs)
	}
}

func TestVideoFormFileChecks(t *testing.T) {
	cases := []struct {
		name string
		file Attachment
		ok   bool
	}{
		{"mp4", Attachment{Name: "a.mp4", Size: 10}, true},
		{"upper case ext", Attachment{Name: "a.MKV", Size: 10}, true},
		{"wrong ext", Attachment{Name: "a.gif", Size: 10}, false},
		{"too big", Attachment{Name: "a.mov", Size: MaxVideoSize + 1}, false},
	}
	for _, c := range cases {
		a := c.file
		a.R = strings.NewReader("x")
		errs := VideoForm{Filename: "ad", BrandID: "b1", File: &a}.Validate()
		if ok := errs["file"] == ""; ok != c.ok {
			t.Errorf("%s: errs = %v", c.name, errs)
		}
	}
}

func TestVideoFormPayload(t *testing.T) {
	exp := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	f := VideoForm{BrandID: "b1", ExpiryDate: &exp}.WithFile(&Attachment{Name: "/tmp/promo.mp4", Size: 3, R: strings.NewReader("abc")})
	if f.Filename != "promo" {
		t.Fatalf("filename = %q", f.Filename)
	}
	p := f.Payload()
	if p.Form == nil || p.JSON != nil {
		t.Fatalf("payload = %+v", p)
	}
	if v, ok := p.Form.Value("description"); !ok || v != "" {
		t.Fatalf("description = %q, %v", v, ok)
	}
	if v, _ := p.Form.Value("expiryDate"); v != "2025-01-02T03:04:05Z" {
		t.Fatalf("expiryDate = %q", v)
	}

	edit := VideoFormFrom(models.Video{ID: "v1", Filename: "old", Brand: models.BrandRef{ID: "b2"}})
	p = edit.Payload()
	if p.JSON == nil || p.JSON.Brand != "b2" || p.Form != nil {
		t.Fatalf("edit payload = %+v", p)
	}
}

func TestLoginForm(t *testing.T) {
	cases := []struct {
		form  LoginForm
		field string
		msg   string
	}{
		{LoginForm{Password: "secret"}, "email", "Email is required"},
		{LoginForm{Email: "bad@", Password: "secret"}, "email", "Invalid email address"},
		{LoginForm{Email: "a@b.io"}, "password", "Password is required"},
		{LoginForm{Email: "a@b.io", Password: "123"}, "password", "Password must be at least 6 characters"},
	}
	for _, c := range cases {
		if got := c.form.Validate()[c.field]; got != c.msg {
			t.Errorf("%+v: %s = %q, want %q", c.form, c.field, got, c.msg)
		}
	}
	if errs := (LoginForm{Email: "Ann@Example.COM", Password: "secret"}).Validate(); len(errs) != 0 {
		t.Fatalf("valid login rejected: %v", errs)
	}
}

func TestProfileForm(t *testing.T) {
	errs := ProfileForm{Username: "ab", Email: "a@b.io", Mobile: "12x"}.Validate()
	if errs["username"] != "Username must be at least 3 characters" || errs["mobile"] != "Invalid mobile number" {
		t.Fatalf("errs = %v", errs)
	}
	if errs := (ProfileForm{Username: "ann", Email: "a@b.io", Mobile: "+91 (80) 1234-5678"}).Validate(); len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}
}

func TestPasswordForms(t *testing.T) {
	if got := (ChangePasswordForm{CurrentPassword: "secret1", NewPassword: "secret1"}).Validate()["newPassword"]; got != "New password must be different from current password" {
		t.Fatalf("same password: %q", got)
	}
	if got := (ChangePasswordForm{NewPassword: "secret2"}).Validate()["currentPassword"]; got != "Current password is required" {
		t.Fatalf("missing current: %q", got)
	}
	if got := (ResetPasswordForm{Password: "secret1"}).Validate()["confirmPassword"]; got != "Please confirm your password" {
		t.Fatalf("missing confirm: %q", got)
	}
	if got := (ResetPasswordForm{Password: "secret1", ConfirmPassword: "secret2"}).Validate()["confirmPassword"]; got != "Passwords do not match" {
		t.Fatalf("mismatch: %q", got)
	}
	var sent string
	err := ForgotPasswordForm{Email: " a@b.io "}.Submit(context.Background(), func(_ context.Context, e string) error { sent = e; return nil })
	if err != nil || sent != "a@b.io" {
		t.Fatalf("forgot: %v %q", err, sent)
	}
}

func TestRegisterForm(t *testing.T) {
	f := RegisterForm{Username: "ann", Email: "a@b.io", Mobile: "12345", Password: "secret1", ConfirmPassword: "secret1"}
	var m *api.Multipart
	if err := f.Submit(context.Background(), func(_ context.Context, p *api.Multipart) error { m = p; return nil }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if m.HasFile() {
		t.Fatal("no image was attached")
	}
	if v, _ := m.Value("username"); v != "ann" {
		t.Fatalf("username = %q", v)
	}
	if _, ok := m.Value("role"); ok {
		t.Fatal("empty role should be skipped")
	}
}

func TestErrorsString(t *testing.T) {
	e := Errors{"b": "two", "a": "one"}
	if got := e.Error(); got != "invalid form: a: one; b: two" {
		t.Fatalf("Error() = %q", got)
	}
}
