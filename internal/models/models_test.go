package models

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBrandRefAcceptsIDOrObject(t *testing.T) {
	var v struct {
		A BrandRef `json:"a"`
		B BrandRef `json:"b"`
		C BrandRef `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":"b1","b":{"_id":"b2","name":"Acme"},"c":null}`), &v); err != nil {
		t.Fatal(err)
	}
	if v.A.ID != "b1" || v.B.ID != "b2" || v.B.Name != "Acme" || v.C.ID != "" {
		t.Fatalf("got %+v", v)
	}
}

func TestConnectivity(t *testing.T) {
	cases := map[string]Connectivity{
		`true`:      Connected,
		`false`:     Disconnected,
		`"online"`:  Connected,
		`"DOWN"`:    Disconnected,
		`null`:      "",
		`"limited"`: "limited",
	}
	for in, want := range cases {
		var c Connectivity
		if err := json.Unmarshal([]byte(in), &c); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if c != want {
			t.Errorf("%s: got %q, want %q", in, c, want)
		}
	}
}

func TestStatusToggle(t *testing.T) {
	for in, want := range map[DeviceStatus]DeviceStatus{
		DeviceActive:      DeviceInactive,
		DeviceInactive:    DeviceActive,
		DeviceWarning:     DeviceActive,
		DeviceMaintenance: DeviceActive,
	} {
		if got := in.Toggle(); got != want {
			t.Errorf("%s.Toggle() = %s, want %s", in, got, want)
		}
	}
	if DeviceStatus("broken").Valid() {
		t.Fatal("unknown status reported valid")
	}
}

func TestPatchKeepsUnsetFields(t *testing.T) {
	d := Device{ID: "d1", Name: "alpha", Location: "depot", Status: DeviceActive}
	StatusPatch(DeviceInactive).Apply(&d)
	if d.Status != DeviceInactive || d.Name != "alpha" || d.Location != "depot" {
		t.Fatalf("got %+v", d)
	}

	var r DeviceReply
	if err := json.Unmarshal([]byte(`{"_id":"d1","rpi_name":"bravo","display":null}`), &r); err != nil {
		t.Fatal(err)
	}
	if r.Name != "bravo" || r.ID != "d1" {
		t.Fatalf("record: %+v", r.Device)
	}
	r.Patch.Apply(&d)
	if d.Name != "bravo" || d.Location != "depot" || d.Status != DeviceInactive {
		t.Fatalf("reply patch: %+v", d)
	}
}

func TestVideoReplyExpiry(t *testing.T) {
	exp := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	v := Video{ID: "v1", Filename: "a.mp4", Description: "promo", ExpiryDate: &exp}

	var r VideoReply
	if err := json.Unmarshal([]byte(`{"_id":"v1","description":"winter"}`), &r); err != nil {
		t.Fatal(err)
	}
	r.Patch.Apply(&v)
	if v.Description != "winter" || v.Filename != "a.mp4" || v.ExpiryDate == nil {
		t.Fatalf("absent expiry: %+v", v)
	}

	r = VideoReply{}
	if err := json.Unmarshal([]byte(`{"_id":"v1","expiryDate":null}`), &r); err != nil {
		t.Fatal(err)
	}
	r.Patch.Apply(&v)
	if v.ExpiryDate != nil {
		t.Fatalf("null expiry kept: %v", v.ExpiryDate)
	}
}

func TestBrandReplyKeepsAbsentFields(t *testing.T) {
	b := Brand{ID: "b1", Name: "Acme", Phone: "555", Email: "a@acme.test"}
	var r BrandReply
	if err := json.Unmarshal([]byte(`{"_id":"b1","name":"Acme Ltd"}`), &r); err != nil {
		t.Fatal(err)
	}
	r.Patch.Apply(&b)
	if b.Name != "Acme Ltd" || b.Phone != "555" || b.Email != "a@acme.test" {
		t.Fatalf("got %+v", b)
	}
}

func TestWriteProblem(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteProblem(rr, 422, "validation failed", "bad", map[string]string{"rpi_id": "Device ID is required"})
	var p Problem
	if err := json.Unmarshal(rr.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if rr.Code != 422 || p.Status != 422 || p.Extra["rpi_id"] != "Device ID is required" {
		t.Fatalf("problem = %+v", p)
	}
}
