package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"fleetdash/internal/models"
)

func strp(s string) *string { return &s }

func seedDevices() *DeviceStore {
	s := NewDeviceStore()
	s.SetDevices([]models.Device{
		{ID: "d1", RpiID: "pi-1", Name: "Bus 1", Location: "Depot", Status: models.DeviceActive},
		{ID: "d2", RpiID: "pi-2", Name: "Bus 2", Location: "Depot", Status: models.DeviceInactive},
		{ID: "d3", RpiID: "pi-3", Name: "Bus 3", Location: "Harbor", Status: models.DeviceWarning},
	})
	return s
}

func TestUpdateDeviceTouchesOnlyTarget(t *testing.T) {
	s := seedDevices()
	before := s.Devices()

	if !s.UpdateDevice("d2", models.DevicePatch{Name: strp("Bus 2b")}) {
		t.Fatal("d2 should exist")
	}

	after := s.Devices()
	if len(after) != 3 {
		t.Fatalf("len = %d", len(after))
	}
	d2 := after[1]
	if d2.Name != "Bus 2b" {
		t.Fatalf("name = %q", d2.Name)
	}
	if d2.Location != "Depot" || d2.Status != models.DeviceInactive || d2.RpiID != "pi-2" {
		t.Fatalf("unpatched fields changed: %+v", d2)
	}
	if after[0].Name != before[0].Name || after[2].Name != before[2].Name {
		t.Fatal("other devices changed")
	}

	if s.UpdateDevice("missing", models.StatusPatch(models.DeviceActive)) {
		t.Fatal("missing id reported as updated")
	}
}

func TestDeleteDeviceIsIdempotent(t *testing.T) {
	s := seedDevices()
	if !s.DeleteDevice("d1") {
		t.Fatal("first delete should remove")
	}
	if s.DeleteDevice("d1") {
		t.Fatal("second delete should be a no-op")
	}
	got := s.Devices()
	if len(got) != 2 || got[0].ID != "d2" || got[1].ID != "d3" {
		t.Fatalf("devices = %+v", got)
	}
}

func TestBulkUpdateDevices(t *testing.T) {
	s := seedDevices()
	n := s.BulkUpdateDevices([]models.DeviceID{"d2", "d3", "nope"}, models.StatusPatch(models.DeviceMaintenance))
	if n != 2 {
		t.Fatalf("matched = %d", n)
	}
	for _, d := range s.Devices() {
		want := models.DeviceMaintenance
		if d.ID == "d1" {
			want = models.DeviceActive
		}
		if d.Status != want {
			t.Errorf("%s status = %s, want %s", d.ID, d.Status, want)
		}
	}
}

func TestSelectedFollowsPatchesAndDeletes(t *testing.T) {
	s := seedDevices()
	d, _ := s.Device("d1")
	s.SetSelected(&d)

	s.UpdateDevice("d1", models.StatusPatch(models.DeviceInactive))
	sel, ok := s.Selected()
	if !ok || sel.Status != models.DeviceInactive {
		t.Fatalf("selected = %+v %v", sel, ok)
	}

	s.DeleteDevice("d1")
	if _, ok := s.Selected(); ok {
		t.Fatal("selection should clear when the device is deleted")
	}
}

func TestCollectionReturnsCopies(t *testing.T) {
	s := seedDevices()
	list := s.Devices()
	list[0].Name = "mutated"
	if d, _ := s.Device("d1"); d.Name != "Bus 1" {
		t.Fatal("All leaked internal slice")
	}
}

func TestVideoStoreOrdering(t *testing.T) {
	s := NewVideoStore()
	s.SetVideos([]models.Video{{ID: "v1"}, {ID: "v2"}})
	s.AddVideo(models.Video{ID: "v3"})
	if got := s.Videos(); got[0].ID != "v3" || len(got) != 3 {
		t.Fatalf("videos = %+v", got)
	}

	s.SetBrands([]models.Brand{{ID: "b1"}})
	s.AddBrand(models.Brand{ID: "b2"})
	if got := s.Brands(); got[1].ID != "b2" {
		t.Fatalf("brands = %+v", got)
	}
}

func TestBrandVideoCount(t *testing.T) {
	s := NewVideoStore()
	s.SetVideos([]models.Video{
		{ID: "v1", Brand: models.BrandRef{ID: "b1"}},
		{ID: "v2", Brand: models.BrandRef{ID: "b1"}},
		{ID: "v3", Brand: models.BrandRef{ID: "b2"}},
	})
	if n := s.BrandVideoCount(models.Brand{ID: "b1"}); n != 2 {
		t.Fatalf("derived count = %d", n)
	}
	seven := 7
	if n := s.BrandVideoCount(models.Brand{ID: "b1", VideoCount: &seven}); n != 7 {
		t.Fatalf("backend count = %d", n)
	}
}

func TestUploadProgressClamped(t *testing.T) {
	s := NewVideoStore()
	s.SetUploadProgress(140)
	if s.UploadProgress() != 100 {
		t.Fatalf("progress = %d", s.UploadProgress())
	}
	s.SetUploadProgress(-3)
	if s.UploadProgress() != 0 {
		t.Fatalf("progress = %d", s.UploadProgress())
	}
}

func TestAuthLoginLogout(t *testing.T) {
	p := NewMemPersister()
	s := NewAuthStore(p, "auth-storage")

	if err := s.Login(models.User{Username: "a"}, "tok123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, ok, _ := p.Load("auth-storage"); !ok {
		t.Fatal("login did not persist")
	}
	if s.Token() != "tok123" || !s.State().IsAuthenticated {
		t.Fatalf("state = %+v", s.State())
	}

	if err := s.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	st := s.State()
	if st.IsAuthenticated || st.User != nil || st.Token != "" {
		t.Fatalf("state after logout = %+v", st)
	}
	if _, ok, _ := p.Load("auth-storage"); ok {
		t.Fatal("persisted key not removed")
	}
}

func TestAuthPersistedShape(t *testing.T) {
	p := NewMemPersister()
	s := NewAuthStore(p, "auth-storage")
	_ = s.Login(models.User{ID: "u1", Username: "ann", Role: models.RoleAdmin}, "tok")

	b, _, _ := p.Load("auth-storage")
	var blob struct {
		State struct {
			User            map[string]any `json:"user"`
			Token           string         `json:"token"`
			IsAuthenticated bool           `json:"isAuthenticated"`
		} `json:"state"`
	}
	if err := json.Unmarshal(b, &blob); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if blob.State.Token != "tok" || !blob.State.IsAuthenticated || blob.State.User["username"] != "ann" {
		t.Fatalf("blob = %s", b)
	}
}

func TestAuthUpdateUserMerges(t *testing.T) {
	s := NewAuthStore(NewMemPersister(), "")
	_ = s.Login(models.User{ID: "u1", Username: "ann", Email: "a@x.io"}, "tok")
	if err := s.UpdateUser(models.UserPatch{FirstName: strp("Ann")}); err != nil {
		t.Fatal(err)
	}
	u, _ := s.User()
	if u.FirstName != "Ann" || u.Email != "a@x.io" || u.Username != "ann" {
		t.Fatalf("user = %+v", u)
	}

	// reload from the same persister
	r := NewAuthStore(s.p, s.Key())
	st, err := r.Restore()
	if err != nil {
		t.Fatal(err)
	}
	if st.User == nil || st.User.FirstName != "Ann" || st.Token != "tok" {
		t.Fatalf("restored = %+v", st)
	}
}

func TestFilePersisterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewAuthStore(NewFilePersister(dir), "auth-storage")
	if err := s.Login(models.User{Username: "a"}, "tok123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "auth-storage.json")); err != nil {
		t.Fatalf("file not written: %v", err)
	}

	restored := NewAuthStore(NewFilePersister(dir), "auth-storage")
	st, err := restored.Restore()
	if err != nil || !st.IsAuthenticated || st.Token != "tok123" {
		t.Fatalf("restore = %+v %v", st, err)
	}

	if err := restored.Logout(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "auth-storage.json")); !os.IsNotExist(err) {
		t.Fatalf("file should be gone: %v", err)
	}
}

func TestRestoreDropsGarbage(t *testing.T) {
	p := NewMemPersister()
	_ = p.Save("auth-storage", []byte("{not json"))
	s := NewAuthStore(p, "auth-storage")
	st, err := s.Restore()
	if err != nil || st.IsAuthenticated {
		t.Fatalf("restore = %+v %v", st, err)
	}
	if _, ok, _ := p.Load("auth-storage"); ok {
		t.Fatal("garbage blob should be removed")
	}
}

func TestFilePersisterRejectsPathKeys(t *testing.T) {
	f := NewFilePersister(t.TempDir())
	if err := f.Save("../escape", []byte("{}")); err == nil {
		t.Fatal("expected invalid key error")
	}
}
